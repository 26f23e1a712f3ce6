package app

import (
	httpH "github.com/yungbote/ideabank-backend/internal/http/handlers"
	httpMW "github.com/yungbote/ideabank-backend/internal/http/middleware"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
	"github.com/yungbote/ideabank-backend/internal/realtime"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health     *httpH.HealthHandler
	CSRF       *httpH.CSRFHandler
	Suggestion *httpH.SuggestionHandler
	Generation *httpH.GenerationHandler
	Plan       *httpH.PlanHandler
	Realtime   *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, services Services, sseHub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(),
		CSRF:       httpH.NewCSRFHandler(services.CSRF),
		Suggestion: httpH.NewSuggestionHandler(services.Suggestion),
		Generation: httpH.NewGenerationHandler(services.Generation),
		Plan:       httpH.NewPlanHandler(services.Plan),
		Realtime:   httpH.NewRealtimeHandler(log, sseHub, services.Plan),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}
