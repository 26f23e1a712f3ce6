package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/ideabank-backend/internal/domain/content"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&content.Generation{},
		&content.PlanRun{},
	); err != nil {
		return err
	}

	// Lineage walks and child listing by parent.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_generation_parent_id
		ON generation (parent_generation_id, id);
	`).Error; err != nil {
		return fmt.Errorf("create idx_generation_parent_id: %w", err)
	}

	// Fast generation listing per user.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_generation_user_created
		ON generation (user_id, created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_generation_user_created: %w", err)
	}
	return nil
}
