package services

import (
	"context"

	"github.com/yungbote/ideabank-backend/internal/modules/plan"
	"github.com/yungbote/ideabank-backend/internal/realtime"
)

// PlanNotifier turns executor step events into SSE messages on the plan channel.
type PlanNotifier struct {
	emit SSEEmitter
}

var _ plan.Notifier = (*PlanNotifier)(nil)

func NewPlanNotifier(emit SSEEmitter) *PlanNotifier {
	return &PlanNotifier{emit: emit}
}

func (n *PlanNotifier) StepChanged(ctx context.Context, ev plan.StepEvent) {
	if n == nil || n.emit == nil {
		return
	}
	n.emit.Emit(ctx, realtime.SSEMessage{
		Channel: realtime.PlanChannel(ev.PlanID),
		Event:   realtime.SSEEventPlanStepChanged,
		Data: map[string]any{
			"planId":     ev.PlanID.String(),
			"step":       toStepView(ev.Step),
			"planStatus": ev.PlanStatus,
			"progress":   ev.Progress,
			"at":         ev.At,
		},
	})
}

func (n *PlanNotifier) Finished(ctx context.Context, view *PlanView) {
	if n == nil || n.emit == nil || view == nil {
		return
	}
	n.emit.Emit(ctx, realtime.SSEMessage{
		Channel: realtime.PlanChannel(view.planID),
		Event:   realtime.SSEEventPlanFinished,
		Data:    view,
	})
}
