package services

import (
	"context"
	"fmt"

	"github.com/yungbote/ideabank-backend/internal/domain/content"
	"github.com/yungbote/ideabank-backend/internal/modules/suggestion"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
)

type SuggestRequest struct {
	ProductIDs     []string
	MaxSuggestions int
	Mode           string
}

type SuggestionService interface {
	Suggest(ctx context.Context, req SuggestRequest) ([]content.AgentSuggestion, error)
}

type suggestionService struct {
	log    *logger.Logger
	source suggestion.Source
	engine *suggestion.Engine
}

func NewSuggestionService(baseLog *logger.Logger, source suggestion.Source, engine *suggestion.Engine) SuggestionService {
	if engine == nil {
		engine = suggestion.NewEngine()
	}
	return &suggestionService{
		log:    baseLog.With("service", "SuggestionService"),
		source: source,
		engine: engine,
	}
}

func (s *suggestionService) Suggest(ctx context.Context, req SuggestRequest) ([]content.AgentSuggestion, error) {
	if len(req.ProductIDs) == 0 {
		return []content.AgentSuggestion{}, nil
	}
	var sc suggestion.Context
	if s.source != nil {
		fetched, err := s.source.FetchContext(ctx, req.ProductIDs, suggestion.ParseMode(req.Mode))
		if err != nil {
			return nil, fmt.Errorf("fetch suggestion context: %w", err)
		}
		sc = fetched
	}
	out := s.engine.Suggest(req.ProductIDs, sc, req.MaxSuggestions)
	s.log.Debug("suggestions ranked",
		"products", len(req.ProductIDs),
		"mode", req.Mode,
		"returned", len(out),
	)
	return out, nil
}
