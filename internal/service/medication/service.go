package medication

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/medtrack-api/internal/model"
	"github.com/jwalitptl/medtrack-api/internal/repository"
	"github.com/jwalitptl/medtrack-api/internal/service/adherence"
	apperrors "github.com/jwalitptl/medtrack-api/pkg/errors"
	"github.com/jwalitptl/medtrack-api/pkg/logger"
	"github.com/jwalitptl/medtrack-api/pkg/metrics"
)

// maxHistoryDays caps each medication's history; older entries are dropped.
const maxHistoryDays = 30

// Clock supplies the current time. Injected so day boundaries are testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

type MedicationService interface {
	List(ctx context.Context) []*model.Medication
	Add(ctx context.Context, req *model.CreateMedicationRequest) (*model.Medication, error)
	ToggleConsumed(ctx context.Context, id uuid.UUID) (*model.Medication, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) model.AdherenceStats
	Rollover(ctx context.Context, asOf time.Time) error
}

// Service owns the medication collection. All access is serialized through
// its mutex, so a rollover sweep and a user mutation never interleave; each
// is one atomic step against the in-memory collection. The full collection
// is written to the snapshot store after every mutation.
type Service struct {
	mu        sync.Mutex
	meds      []*model.Medication
	snapshots repository.SnapshotStore
	key       string
	clock     Clock
	logger    *logger.Logger
	metrics   *metrics.Metrics
	dirty     bool
}

func NewService(snapshots repository.SnapshotStore, key string, clock Clock, l *logger.Logger, m *metrics.Metrics) *Service {
	if clock == nil {
		clock = systemClock{}
	}
	if l == nil {
		l = logger.NewLogger(nil)
	}
	return &Service{
		snapshots: snapshots,
		key:       key,
		clock:     clock,
		logger:    l,
		metrics:   m,
	}
}

// Load reads the persisted collection. Absent or malformed snapshots start
// the store empty; a load failure is never fatal.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.snapshots.Load(ctx, s.key)
	if err != nil {
		s.countLoad("error")
		s.logger.ZL.Warn().Err(err).Str("key", s.key).Msg("snapshot load failed, starting empty")
		s.meds = nil
		return nil
	}
	if data == nil {
		s.countLoad("absent")
		s.meds = nil
		return nil
	}

	var meds []*model.Medication
	if err := json.Unmarshal(data, &meds); err != nil {
		s.countLoad("malformed")
		s.logger.ZL.Warn().Err(err).Str("key", s.key).Msg("snapshot malformed, starting empty")
		s.meds = nil
		return nil
	}

	s.countLoad("ok")
	s.meds = meds
	s.setGauge()
	return nil
}

// List returns deep copies of all records, newest first.
func (s *Service) List(ctx context.Context) []*model.Medication {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Medication, len(s.meds))
	for i, m := range s.meds {
		out[i] = m.Clone()
	}
	return out
}

// Add validates the draft, constructs the record and persists the collection.
func (s *Service) Add(ctx context.Context, req *model.CreateMedicationRequest) (*model.Medication, error) {
	med, err := s.buildMedication(req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Newest first, like the dashboard renders them.
	s.meds = append([]*model.Medication{med}, s.meds...)
	s.setGauge()
	s.persist(ctx)
	return med.Clone(), nil
}

func (s *Service) buildMedication(req *model.CreateMedicationRequest) (*model.Medication, error) {
	name := strings.TrimSpace(req.Name)
	dosage := strings.TrimSpace(req.Dosage)
	if name == "" {
		return nil, apperrors.NewValidation("name is required")
	}
	if dosage == "" {
		return nil, apperrors.NewValidation("dosage is required")
	}
	if !req.Frequency.Valid() {
		return nil, apperrors.NewValidation(fmt.Sprintf("invalid frequency %q", req.Frequency))
	}
	if !req.TimeOfDay.Valid() {
		return nil, apperrors.NewValidation(fmt.Sprintf("invalid time of day %q", req.TimeOfDay))
	}

	start, err := model.ParseDay(req.StartDate)
	if err != nil {
		return nil, apperrors.NewValidation("start_date must be a YYYY-MM-DD date")
	}

	var end *model.Day
	if !req.Indefinite {
		if req.EndDate == "" {
			return nil, apperrors.NewValidation("end_date is required unless indefinite")
		}
		d, err := model.ParseDay(req.EndDate)
		if err != nil {
			return nil, apperrors.NewValidation("end_date must be a YYYY-MM-DD date")
		}
		if d.Before(start) {
			return nil, apperrors.NewValidation("end_date must not be before start_date")
		}
		end = &d
	}

	now := s.clock.Now()
	return &model.Medication{
		ID:            uuid.New(),
		Name:          name,
		Dosage:        dosage,
		Frequency:     req.Frequency,
		TimeOfDay:     req.TimeOfDay,
		StartDate:     start,
		EndDate:       end,
		Indefinite:    req.Indefinite,
		ConsumedToday: false,
		History:       []model.HistoryEntry{{Date: model.DayOf(now), Consumed: false}},
		CreatedAt:     now,
	}, nil
}

// ToggleConsumed flips today's taken flag and upserts today's history entry.
// An unknown id is a no-op returning nil; a medication not active today is
// returned unchanged.
func (s *Service) ToggleConsumed(ctx context.Context, id uuid.UUID) (*model.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	med := s.find(id)
	if med == nil {
		return nil, nil
	}

	today := model.DayOf(s.clock.Now())
	if !med.ActiveOn(today) {
		return med.Clone(), nil
	}

	med.ConsumedToday = !med.ConsumedToday
	upsertHistory(med, today, med.ConsumedToday)
	sortAndCapHistory(med)

	s.persist(ctx)
	return med.Clone(), nil
}

// Delete removes the record if present; deleting an unknown id is a no-op.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, m := range s.meds {
		if m.ID == id {
			s.meds = append(s.meds[:i], s.meds[i+1:]...)
			s.setGauge()
			s.persist(ctx)
			return nil
		}
	}
	return nil
}

// Stats evaluates the adherence engine against the current collection.
func (s *Service) Stats(ctx context.Context) model.AdherenceStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return adherence.Stats(s.meds, model.DayOf(s.clock.Now()))
}

// Rollover archives the day that ended at asOf into history and resets the
// daily flags. The sweep is idempotent: a day that already has an entry is
// left alone, so firing twice across the same boundary changes nothing.
func (s *Service) Rollover(ctx context.Context, asOf time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	yesterday := model.DayOf(asOf.AddDate(0, 0, -1))
	for _, med := range s.meds {
		if _, ok := med.HistoryOn(yesterday); !ok {
			med.History = append(med.History, model.HistoryEntry{
				Date:     yesterday,
				Consumed: med.ConsumedToday,
			})
		}
		sortAndCapHistory(med)
		med.ConsumedToday = false
	}

	return s.persist(ctx)
}

// Flush retries a deferred snapshot write, if any. Called on shutdown.
func (s *Service) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	return s.persist(ctx)
}

func (s *Service) find(id uuid.UUID) *model.Medication {
	for _, m := range s.meds {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// persist writes the whole collection under the snapshot key. A failed write
// marks the store dirty; the next mutation or sweep writes the full state
// again, which is the retry. Mutations still succeed for the caller.
func (s *Service) persist(ctx context.Context) error {
	data, err := json.Marshal(s.meds)
	if err != nil {
		// Only reachable with a corrupted in-memory record.
		return apperrors.NewInternal(fmt.Errorf("failed to marshal collection: %w", err))
	}

	if s.dirty && s.metrics != nil {
		s.metrics.SnapshotRetries.Inc()
	}

	start := time.Now()
	if err := s.snapshots.Save(ctx, s.key, data); err != nil {
		s.dirty = true
		s.countSave("error")
		s.logger.ZL.Warn().Err(err).Str("key", s.key).Msg("snapshot save failed, deferring")
		return apperrors.NewPersistence("failed to persist medications", err)
	}

	s.dirty = false
	s.countSave("ok")
	if s.metrics != nil {
		s.metrics.SnapshotLatency.Observe(time.Since(start).Seconds())
	}
	return nil
}

func (s *Service) countSave(status string) {
	if s.metrics != nil {
		s.metrics.SnapshotSaves.WithLabelValues(status).Inc()
	}
}

func (s *Service) countLoad(status string) {
	if s.metrics != nil {
		s.metrics.SnapshotLoads.WithLabelValues(status).Inc()
	}
}

func (s *Service) setGauge() {
	if s.metrics != nil {
		s.metrics.MedicationsTotal.Set(float64(len(s.meds)))
	}
}

func upsertHistory(med *model.Medication, d model.Day, consumed bool) {
	for i, e := range med.History {
		if e.Date == d {
			med.History[i].Consumed = consumed
			return
		}
	}
	med.History = append(med.History, model.HistoryEntry{Date: d, Consumed: consumed})
}

func sortAndCapHistory(med *model.Medication) {
	sort.Slice(med.History, func(i, j int) bool {
		return med.History[i].Date.After(med.History[j].Date)
	})
	if len(med.History) > maxHistoryDays {
		med.History = med.History[:maxHistoryDays]
	}
}
