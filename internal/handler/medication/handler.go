package medication

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/medtrack-api/internal/handler"
	"github.com/jwalitptl/medtrack-api/internal/model"
	"github.com/jwalitptl/medtrack-api/internal/service/medication"
	apperrors "github.com/jwalitptl/medtrack-api/pkg/errors"
)

const statsCacheKey = "stats"

type Handler struct {
	service medication.MedicationService
	// stats are recomputed over the whole collection on every read, so the
	// handler memoizes them briefly and flushes on any mutation.
	stats *cache.Cache
}

func NewHandler(service medication.MedicationService, statsTTL time.Duration) *Handler {
	return &Handler{
		service: service,
		stats:   cache.New(statsTTL, 2*statsTTL),
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	medications := r.Group("/medications")
	{
		medications.GET("", h.ListMedications)
		medications.POST("", h.CreateMedication)
		medications.POST("/:id/toggle", h.ToggleConsumed)
		medications.DELETE("/:id", h.DeleteMedication)
	}
	r.GET("/stats", h.GetStats)
}

func (h *Handler) ListMedications(c *gin.Context) {
	meds := h.service.List(c.Request.Context())
	c.JSON(http.StatusOK, handler.NewSuccessResponse(meds))
}

func (h *Handler) CreateMedication(c *gin.Context) {
	var req model.CreateMedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if fields := handler.BindingErrors(err); fields != nil {
			c.JSON(http.StatusBadRequest, handler.NewValidationResponse(fields))
			return
		}
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	med, err := h.service.Add(c.Request.Context(), &req)
	if err != nil {
		if apperrors.IsValidation(err) {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	h.stats.Flush()
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(med))
}

func (h *Handler) ToggleConsumed(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid medication ID"))
		return
	}

	med, err := h.service.ToggleConsumed(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}
	if med == nil {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("medication not found"))
		return
	}

	h.stats.Flush()
	c.JSON(http.StatusOK, handler.NewSuccessResponse(med))
}

func (h *Handler) DeleteMedication(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid medication ID"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	h.stats.Flush()
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) GetStats(c *gin.Context) {
	if cached, found := h.stats.Get(statsCacheKey); found {
		c.JSON(http.StatusOK, handler.NewSuccessResponse(cached))
		return
	}

	stats := h.service.Stats(c.Request.Context())
	h.stats.Set(statsCacheKey, stats, cache.DefaultExpiration)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}
