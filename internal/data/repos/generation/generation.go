package generation

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/ideabank-backend/internal/domain/content"
	"github.com/yungbote/ideabank-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/ideabank-backend/internal/pkg/errors"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type ListFilter struct {
	UserID   uuid.UUID
	ParentID *uuid.UUID
	Limit    int
}

type GenerationRepo interface {
	// Create inserts g. For a child it locks the parent row and sets EditCount = parent.EditCount + 1
	// in the same transaction.
	Create(dbc dbctx.Context, g *content.Generation) (*content.Generation, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*content.Generation, error)
	List(dbc dbctx.Context, filter ListFilter) ([]*content.Generation, error)
}

type generationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGenerationRepo(db *gorm.DB, baseLog *logger.Logger) GenerationRepo {
	return &generationRepo{
		db:  db,
		log: baseLog.With("repo", "GenerationRepo"),
	}
}

func (r *generationRepo) Create(dbc dbctx.Context, g *content.Generation) (*content.Generation, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil generation", pkgerrors.ErrInvalidArgument)
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	now := time.Now().UTC()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now

	err := transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		if g.ParentGenerationID == nil {
			g.EditCount = 0
			return txx.Create(g).Error
		}
		var parent content.Generation
		qErr := txx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", *g.ParentGenerationID).
			First(&parent).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return fmt.Errorf("parent generation %s: %w", *g.ParentGenerationID, pkgerrors.ErrNotFound)
		}
		if qErr != nil {
			return qErr
		}
		g.EditCount = parent.EditCount + 1
		return txx.Create(g).Error
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (r *generationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*content.Generation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*content.Generation
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *generationRepo) List(dbc dbctx.Context, filter ListFilter) ([]*content.Generation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	q := transaction.WithContext(dbc.Ctx).Model(&content.Generation{})
	if filter.UserID != uuid.Nil {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.ParentID != nil {
		q = q.Where("parent_generation_id = ?", *filter.ParentID)
	}
	out := []*content.Generation{}
	if err := q.Order("created_at DESC").Order("id").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
