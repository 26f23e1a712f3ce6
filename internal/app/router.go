package app

import (
	"github.com/yungbote/ideabank-backend/internal/http"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
)

func wireServer(log *logger.Logger, cfg Config, services Services, handlers Handlers, middleware Middleware) *http.Server {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return http.NewServer(http.RouterConfig{
		Log:               log,
		ServiceName:       serviceName,
		CORSOrigins:       cfg.CORSOrigins,
		AuthMiddleware:    middleware.Auth,
		CSRF:              services.CSRF,
		CSRFEnforce:       cfg.CSRFEnforce,
		HealthHandler:     handlers.Health,
		CSRFHandler:       handlers.CSRF,
		SuggestionHandler: handlers.Suggestion,
		GenerationHandler: handlers.Generation,
		PlanHandler:       handlers.Plan,
		RealtimeHandler:   handlers.Realtime,
	})
}
