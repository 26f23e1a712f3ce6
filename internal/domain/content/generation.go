package content

import (
	"bytes"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type GenerationStatus string

const (
	GenerationPending  GenerationStatus = "pending"
	GenerationComplete GenerationStatus = "complete"
	GenerationFailed   GenerationStatus = "failed"
)

// Generation is one produced artifact. Edits form a tree through ParentGenerationID.
type Generation struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Prompt      string `gorm:"column:prompt;type:text;not null" json:"prompt"`
	Result      string `gorm:"column:result;type:text" json:"result,omitempty"`
	Status      string `gorm:"column:status;not null;index" json:"status"`
	ImagePath   string `gorm:"column:image_path" json:"image_path,omitempty"`
	Model       string `gorm:"column:model" json:"model,omitempty"`
	AspectRatio string `gorm:"column:aspect_ratio" json:"aspect_ratio,omitempty"`

	// ConversationHistory is the backend's opaque continuation context. NULL when it was not kept.
	ConversationHistory datatypes.JSON `gorm:"column:conversation_history" json:"conversation_history,omitempty"`

	ParentGenerationID *uuid.UUID `gorm:"type:uuid;column:parent_generation_id;index" json:"parent_generation_id,omitempty"`
	EditPrompt         string     `gorm:"column:edit_prompt;type:text" json:"edit_prompt,omitempty"`
	EditCount          int        `gorm:"column:edit_count;not null;default:0" json:"edit_count"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Generation) TableName() string { return "generation" }

// CanEdit is derived, never stored: only artifacts with continuation context can be edited again.
func (g *Generation) CanEdit() bool {
	if g == nil {
		return false
	}
	h := bytes.TrimSpace(g.ConversationHistory)
	return len(h) > 0 && !bytes.Equal(h, []byte("null"))
}

func (g *Generation) IsRoot() bool { return g != nil && g.ParentGenerationID == nil }
