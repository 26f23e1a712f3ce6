package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/ideabank-backend/internal/data/repos/generation"
	"github.com/yungbote/ideabank-backend/internal/data/repos/plan"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
)

type GenerationRepo = generation.GenerationRepo
type GenerationListFilter = generation.ListFilter

type PlanRunRepo = plan.PlanRunRepo

func NewGenerationRepo(db *gorm.DB, baseLog *logger.Logger) GenerationRepo {
	return generation.NewGenerationRepo(db, baseLog)
}

func NewPlanRunRepo(db *gorm.DB, baseLog *logger.Logger) PlanRunRepo {
	return plan.NewPlanRunRepo(db, baseLog)
}
