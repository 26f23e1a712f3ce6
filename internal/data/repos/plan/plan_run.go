package plan

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/ideabank-backend/internal/domain/content"
	"github.com/yungbote/ideabank-backend/internal/pkg/dbctx"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
)

type PlanRunRepo interface {
	Create(dbc dbctx.Context, run *content.PlanRun) (*content.PlanRun, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*content.PlanRun, error)
	ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID, limit int) ([]*content.PlanRun, error)
	// SaveState writes steps and status. It never clears a cancel request.
	SaveState(dbc dbctx.Context, id uuid.UUID, steps datatypes.JSON, status string) error
	RequestCancel(dbc dbctx.Context, id uuid.UUID) (bool, error)
	CancelRequested(dbc dbctx.Context, id uuid.UUID) (bool, error)
}

type planRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlanRunRepo(db *gorm.DB, baseLog *logger.Logger) PlanRunRepo {
	return &planRunRepo{
		db:  db,
		log: baseLog.With("repo", "PlanRunRepo"),
	}
}

func (r *planRunRepo) Create(dbc dbctx.Context, run *content.PlanRun) (*content.PlanRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	now := time.Now().UTC()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	run.UpdatedAt = now
	if err := transaction.WithContext(dbc.Ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *planRunRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*content.PlanRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*content.PlanRun
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

func (r *planRunRepo) ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID, limit int) ([]*content.PlanRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	out := []*content.PlanRun{}
	if err := transaction.WithContext(dbc.Ctx).
		Where("owner_user_id = ?", ownerUserID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *planRunRepo) SaveState(dbc dbctx.Context, id uuid.UUID, steps datatypes.JSON, status string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&content.PlanRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"steps":      steps,
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *planRunRepo) RequestCancel(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&content.PlanRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"cancel_requested": true,
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *planRunRepo) CancelRequested(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var flags []bool
	if err := transaction.WithContext(dbc.Ctx).
		Model(&content.PlanRun{}).
		Where("id = ?", id).
		Limit(1).
		Pluck("cancel_requested", &flags).Error; err != nil {
		return false, err
	}
	return len(flags) > 0 && flags[0], nil
}
