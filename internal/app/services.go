package app

import (
	"context"
	"fmt"

	"github.com/yungbote/ideabank-backend/internal/modules/lineage"
	"github.com/yungbote/ideabank-backend/internal/modules/suggestion"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
	"github.com/yungbote/ideabank-backend/internal/realtime"
	"github.com/yungbote/ideabank-backend/internal/services"
)

type Services struct {
	Auth       services.AuthService
	CSRF       *services.CSRFService
	Suggestion services.SuggestionService
	Generation services.GenerationService
	Plan       services.PlanService
}

func wireServices(ctx context.Context, log *logger.Logger, cfg Config, reposet Repos, clients Clients, hub *realtime.SSEHub) (Services, error) {
	log.Info("Wiring services...")

	bank, err := suggestion.LoadBank(cfg.TemplateBankPath)
	if err != nil {
		return Services{}, fmt.Errorf("load idea bank: %w", err)
	}
	var vision suggestion.VisionAnalyzer
	if clients.Vision != nil {
		vision = clients.Vision
	}
	source := suggestion.NewCompositeSource(log, bank, vision, bank, bank)

	lineageSvc := lineage.NewService(log, services.NewLineageStore(reposet.Generation), clients.Backend)

	var emit services.SSEEmitter = &services.HubEmitter{Hub: hub}
	if clients.SSEBus != nil {
		emit = &services.RedisEmitter{Bus: clients.SSEBus, Log: log}
	}
	planSvc := services.NewPlanService(
		ctx,
		log,
		reposet.PlanRun,
		&services.GenerationStepRunner{Lineage: lineageSvc, AspectRatio: cfg.AspectRatio},
		services.NewPlanNotifier(emit),
		services.PlanServiceOptions{ContinueOnFailure: cfg.PlanContinueOnFailure},
	)

	return Services{
		Auth:       services.NewAuthService(log, cfg.JWTSecretKey),
		CSRF:       services.NewCSRFService(cfg.CSRFSecret),
		Suggestion: services.NewSuggestionService(log, source, suggestion.NewEngine()),
		Generation: services.NewGenerationService(log, lineageSvc),
		Plan:       planSvc,
	}, nil
}
