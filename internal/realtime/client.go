package realtime

import (
	"github.com/google/uuid"

	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
)

type SSEEvent string

const (
	SSEEventPlanStepChanged SSEEvent = "PlanStepChanged"
	SSEEventPlanFinished    SSEEvent = "PlanFinished"
	// SSEEventPlanSnapshot is sent once on subscribe with the current plan state.
	SSEEventPlanSnapshot SSEEvent = "PlanSnapshot"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

type SSEClient struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Channels map[string]bool
	Outbound chan SSEMessage
	done     chan struct{}
	Logger   *logger.Logger
}

// PlanChannel is the channel a plan's step events are broadcast on.
func PlanChannel(planID uuid.UUID) string { return "plan:" + planID.String() }
