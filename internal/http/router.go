package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/ideabank-backend/internal/http/handlers"
	httpMW "github.com/yungbote/ideabank-backend/internal/http/middleware"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
	"github.com/yungbote/ideabank-backend/internal/services"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware
	CSRF           *services.CSRFService
	CSRFEnforce    bool

	HealthHandler     *httpH.HealthHandler
	CSRFHandler       *httpH.CSRFHandler
	SuggestionHandler *httpH.SuggestionHandler
	GenerationHandler *httpH.GenerationHandler
	PlanHandler       *httpH.PlanHandler
	RealtimeHandler   *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Anti-forgery token (public)
		if cfg.CSRFHandler != nil {
			api.GET("/csrf-token", cfg.CSRFHandler.Token)
		}
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}
		protected.Use(httpMW.RequireCSRF(cfg.CSRF, cfg.CSRFEnforce))

		// Idea bank
		if cfg.SuggestionHandler != nil {
			protected.POST("/idea-bank/suggest", cfg.SuggestionHandler.Suggest)
		}

		// Generations
		if cfg.GenerationHandler != nil {
			protected.GET("/generations", cfg.GenerationHandler.List)
			protected.GET("/generations/:id", cfg.GenerationHandler.Get)
			protected.POST("/generations/:id/edit", cfg.GenerationHandler.Edit)
		}

		// Plans
		if cfg.PlanHandler != nil {
			protected.GET("/plans", cfg.PlanHandler.List)
			protected.POST("/plans", cfg.PlanHandler.Create)
			protected.GET("/plans/:id", cfg.PlanHandler.Get)
			protected.POST("/plans/:id/retry", cfg.PlanHandler.Retry)
			protected.POST("/plans/:id/cancel", cfg.PlanHandler.Cancel)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/plans/:id/events", cfg.RealtimeHandler.PlanEvents)
		}
	}

	return r
}
