package medication

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medtrack-api/internal/handler"
	"github.com/jwalitptl/medtrack-api/internal/model"
	medsvc "github.com/jwalitptl/medtrack-api/internal/service/medication"
)

type memorySnapshots struct {
	data map[string][]byte
}

func (m *memorySnapshots) Load(_ context.Context, key string) ([]byte, error) {
	return m.data[key], nil
}

func (m *memorySnapshots) Save(_ context.Context, key string, data []byte) error {
	m.data[key] = data
	return nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func setupRouter(t *testing.T) (*gin.Engine, *medsvc.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	snaps := &memorySnapshots{data: make(map[string][]byte)}
	clock := fixedClock{now: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := medsvc.NewService(snaps, "medications", clock, nil, nil)
	require.NoError(t, svc.Load(context.Background()))

	h := NewHandler(svc, 30*time.Second)
	handler.UseJSONFieldNames()
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))
	return r, svc
}

func perform(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func validBody() map[string]any {
	return map[string]any{
		"name":       "Aspirin",
		"dosage":     "5mg",
		"frequency":  "Daily",
		"time_of_day": "Morning",
		"start_date": "2024-01-01",
		"indefinite": true,
	}
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) handler.Response {
	t.Helper()
	var resp handler.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCreateMedication(t *testing.T) {
	r, _ := setupRouter(t)

	w := perform(r, http.MethodPost, "/api/v1/medications", validBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decodeResponse(t, w)
	assert.Equal(t, "success", resp.Status)
	med := resp.Data.(map[string]any)
	assert.Equal(t, "Aspirin", med["name"])
	assert.Equal(t, false, med["consumed_today"])
	assert.NotEmpty(t, med["id"])
}

func TestCreateMedication_BindingErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing name", func(b map[string]any) { delete(b, "name") }},
		{"unknown frequency", func(b map[string]any) { b["frequency"] = "Hourly" }},
		{"unknown time of day", func(b map[string]any) { b["time_of_day"] = "Noon" }},
		{"bad date format", func(b map[string]any) { b["start_date"] = "01/01/2024" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, svc := setupRouter(t)
			body := validBody()
			tt.mutate(body)

			w := perform(r, http.MethodPost, "/api/v1/medications", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "error", decodeResponse(t, w).Status)
			assert.Empty(t, svc.List(context.Background()))
		})
	}
}

func TestCreateMedication_ReportsFieldByJSONName(t *testing.T) {
	r, _ := setupRouter(t)

	body := validBody()
	delete(body, "name")

	w := perform(r, http.MethodPost, "/api/v1/medications", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeResponse(t, w)
	assert.Equal(t, "validation failed", resp.Message)
	fields := resp.Data.([]any)
	require.Len(t, fields, 1)
	assert.Equal(t, "name", fields[0].(map[string]any)["field"])
}

func TestCreateMedication_EndBeforeStart(t *testing.T) {
	r, _ := setupRouter(t)

	body := validBody()
	body["indefinite"] = false
	body["start_date"] = "2024-02-01"
	body["end_date"] = "2024-01-01"

	w := perform(r, http.MethodPost, "/api/v1/medications", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeResponse(t, w).Message, "end_date")
}

func TestListMedications(t *testing.T) {
	r, _ := setupRouter(t)

	w := perform(r, http.MethodGet, "/api/v1/medications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "success", resp.Status)
	assert.Empty(t, resp.Data)

	perform(r, http.MethodPost, "/api/v1/medications", validBody())

	w = perform(r, http.MethodGet, "/api/v1/medications", nil)
	resp = decodeResponse(t, w)
	assert.Len(t, resp.Data.([]any), 1)
}

func TestToggleConsumed(t *testing.T) {
	r, svc := setupRouter(t)

	created, err := svc.Add(context.Background(), &model.CreateMedicationRequest{
		Name:       "Aspirin",
		Dosage:     "5mg",
		Frequency:  model.FrequencyDaily,
		TimeOfDay:  model.TimeOfDayMorning,
		StartDate:  "2024-01-01",
		Indefinite: true,
	})
	require.NoError(t, err)

	w := perform(r, http.MethodPost, fmt.Sprintf("/api/v1/medications/%s/toggle", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	med := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, true, med["consumed_today"])
}

func TestToggleConsumed_UnknownID(t *testing.T) {
	r, _ := setupRouter(t)

	w := perform(r, http.MethodPost, fmt.Sprintf("/api/v1/medications/%s/toggle", uuid.New()), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "medication not found", decodeResponse(t, w).Message)
}

func TestToggleConsumed_BadID(t *testing.T) {
	r, _ := setupRouter(t)

	w := perform(r, http.MethodPost, "/api/v1/medications/not-a-uuid/toggle", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteMedication_Idempotent(t *testing.T) {
	r, svc := setupRouter(t)

	created, err := svc.Add(context.Background(), &model.CreateMedicationRequest{
		Name:       "Aspirin",
		Dosage:     "5mg",
		Frequency:  model.FrequencyDaily,
		TimeOfDay:  model.TimeOfDayMorning,
		StartDate:  "2024-01-01",
		Indefinite: true,
	})
	require.NoError(t, err)

	path := fmt.Sprintf("/api/v1/medications/%s", created.ID)
	w := perform(r, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, svc.List(context.Background()))

	w = perform(r, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, w.Code, "deleting an unknown id succeeds")
}

func TestGetStats_CacheInvalidatedByToggle(t *testing.T) {
	r, _ := setupRouter(t)

	w := perform(r, http.MethodPost, "/api/v1/medications", validBody())
	require.Equal(t, http.StatusCreated, w.Code)
	med := decodeResponse(t, w).Data.(map[string]any)
	id := med["id"].(string)

	// Prime the cache: nothing taken yet.
	w = perform(r, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decodeResponse(t, w).Data.(map[string]any)
	assert.Zero(t, stats["adherence_rate"])

	perform(r, http.MethodPost, fmt.Sprintf("/api/v1/medications/%s/toggle", id), nil)

	// The mutation flushed the memo; the next read sees the new rate.
	w = perform(r, http.MethodGet, "/api/v1/stats", nil)
	stats = decodeResponse(t, w).Data.(map[string]any)
	assert.InDelta(t, 100.0, stats["adherence_rate"].(float64), 1e-9)
}
