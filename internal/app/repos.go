package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/ideabank-backend/internal/data/repos"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
)

type Repos struct {
	Generation repos.GenerationRepo
	PlanRun    repos.PlanRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Generation: repos.NewGenerationRepo(db, log),
		PlanRun:    repos.NewPlanRunRepo(db, log),
	}
}
