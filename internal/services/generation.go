package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/ideabank-backend/internal/data/repos"
	"github.com/yungbote/ideabank-backend/internal/domain/content"
	"github.com/yungbote/ideabank-backend/internal/modules/lineage"
	"github.com/yungbote/ideabank-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/ideabank-backend/internal/pkg/errors"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
)

type GenerationService interface {
	List(ctx context.Context, userID uuid.UUID, limit int) ([]lineage.View, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*lineage.View, error)
	Edit(ctx context.Context, userID, id uuid.UUID, editPrompt string) (*lineage.View, error)
}

type generationService struct {
	log     *logger.Logger
	lineage *lineage.Service
}

func NewGenerationService(baseLog *logger.Logger, lineageSvc *lineage.Service) GenerationService {
	return &generationService{
		log:     baseLog.With("service", "GenerationService"),
		lineage: lineageSvc,
	}
}

func (s *generationService) List(ctx context.Context, userID uuid.UUID, limit int) ([]lineage.View, error) {
	gens, err := s.lineage.List(ctx, lineage.ListFilter{UserID: userID, Limit: limit})
	if err != nil {
		return nil, err
	}
	return lineage.ToViews(gens), nil
}

func (s *generationService) Get(ctx context.Context, userID, id uuid.UUID) (*lineage.View, error) {
	g, err := s.lineage.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("generation %s: %w", id, pkgerrors.ErrNotFound)
	}
	v := lineage.ToView(g)
	return &v, nil
}

func (s *generationService) Edit(ctx context.Context, userID, id uuid.UUID, editPrompt string) (*lineage.View, error) {
	if strings.TrimSpace(editPrompt) == "" {
		return nil, fmt.Errorf("%w: editPrompt is required", pkgerrors.ErrInvalidArgument)
	}
	child, err := s.lineage.Edit(ctx, userID, id, editPrompt)
	if err != nil {
		return nil, err
	}
	s.log.Info("generation edited", "user_id", userID, "parent_generation_id", id, "generation_id", child.ID, "edit_count", child.EditCount)
	v := lineage.ToView(child)
	return &v, nil
}

// lineageStore adapts the gorm repo to the lineage module.
type lineageStore struct {
	repo repos.GenerationRepo
}

func NewLineageStore(repo repos.GenerationRepo) lineage.Store {
	return &lineageStore{repo: repo}
}

func (s *lineageStore) Create(ctx context.Context, g *content.Generation) (*content.Generation, error) {
	return s.repo.Create(dbctx.Context{Ctx: ctx}, g)
}

func (s *lineageStore) Get(ctx context.Context, id uuid.UUID) (*content.Generation, error) {
	return s.repo.GetByID(dbctx.Context{Ctx: ctx}, id)
}

func (s *lineageStore) List(ctx context.Context, filter lineage.ListFilter) ([]*content.Generation, error) {
	return s.repo.List(dbctx.Context{Ctx: ctx}, repos.GenerationListFilter{
		UserID:   filter.UserID,
		ParentID: filter.ParentID,
		Limit:    filter.Limit,
	})
}
