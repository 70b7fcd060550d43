package router

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/medtrack-api/internal/handler"
	"github.com/jwalitptl/medtrack-api/internal/handler/prometheus"
	"github.com/jwalitptl/medtrack-api/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type RouterConfig struct {
	RateLimit rate.Limit
	RateBurst int
}

type Router struct {
	engine      *gin.Engine
	medicationH Handler
	promH       *prometheus.Handler
	h           *handler.Handler
	config      RouterConfig
}

func NewRouter(medicationH Handler, promH *prometheus.Handler, h *handler.Handler, config RouterConfig) *Router {
	// Set production mode
	gin.SetMode(gin.ReleaseMode)

	return &Router{
		engine:      gin.New(),
		medicationH: medicationH,
		promH:       promH,
		h:           h,
		config:      config,
	}
}

func (r *Router) Setup() {
	handler.UseJSONFieldNames()

	r.engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.ErrorHandler(),
		r.promH.Middleware(),
	)

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  r.config.RateLimit,
		Burst: r.config.RateBurst,
	})
	r.engine.Use(rl.RateLimit())

	r.engine.GET("/healthz", r.h.HealthCheck)
	r.engine.GET("/health/live", r.h.LivenessCheck)
	r.engine.GET("/health/ready", r.h.ReadinessCheck)
	r.engine.GET("/metrics", r.promH.Handler())

	api := r.engine.Group("/api/v1")
	r.medicationH.RegisterRoutes(api)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
