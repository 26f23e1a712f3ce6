package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// StepStatus is the closed set of states an ExecutionStep moves through.
type StepStatus string

const (
	StepPending  StepStatus = "pending"
	StepRunning  StepStatus = "running"
	StepComplete StepStatus = "complete"
	StepFailed   StepStatus = "failed"
)

func (s StepStatus) Terminal() bool { return s == StepComplete || s == StepFailed }

type StepKind string

const (
	StepKindGenerate StepKind = "generate"
	StepKindEdit     StepKind = "edit"
)

type ExecutionStep struct {
	Index      int        `json:"index"`
	Action     string     `json:"action"`
	Kind       StepKind   `json:"kind"`
	Prompt     string     `json:"prompt"`
	ProductIDs []string   `json:"product_ids,omitempty"`
	Platform   string     `json:"platform,omitempty"`
	Status     StepStatus `json:"status"`
	// GenerationID is set once the step has produced or updated a Generation.
	GenerationID *uuid.UUID `json:"generation_id,omitempty"`
	Error        string     `json:"error,omitempty"`
	Attempts     int        `json:"attempts"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

type PlanStatus string

const (
	PlanQueued    PlanStatus = "queued"
	PlanRunning   PlanStatus = "running"
	PlanComplete  PlanStatus = "complete"
	PlanFailed    PlanStatus = "failed"
	PlanCancelled PlanStatus = "cancelled"
)

// PlanRun is the durable, pollable record of one plan execution.
type PlanRun struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	SuggestionID    string         `gorm:"column:suggestion_id;index" json:"suggestion_id"`
	Suggestion      datatypes.JSON `gorm:"column:suggestion" json:"suggestion"`
	Steps           datatypes.JSON `gorm:"column:steps" json:"steps"`
	Status          string         `gorm:"column:status;not null;index" json:"status"`
	CancelRequested bool           `gorm:"column:cancel_requested;not null;default:false" json:"cancel_requested"`
	CreatedAt       time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;index" json:"updated_at"`
}

func (PlanRun) TableName() string { return "plan_run" }
