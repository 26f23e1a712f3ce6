package plan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/ideabank-backend/internal/domain/content"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
)

type StepInput struct {
	PlanID  uuid.UUID
	OwnerID uuid.UUID
	Step    content.ExecutionStep
	// PreviousGenerationID is the output of the nearest earlier complete step, nil for the first.
	PreviousGenerationID *uuid.UUID
}

type StepResult struct {
	GenerationID *uuid.UUID
}

// StepRunner performs the network call behind one step.
type StepRunner interface {
	RunStep(ctx context.Context, in StepInput) (StepResult, error)
}

type StepEvent struct {
	PlanID     uuid.UUID             `json:"plan_id"`
	OwnerID    uuid.UUID             `json:"owner_id"`
	Step       content.ExecutionStep `json:"step"`
	PlanStatus content.PlanStatus    `json:"plan_status"`
	Progress   float64               `json:"progress"`
	At         time.Time             `json:"at"`
}

type Notifier interface {
	StepChanged(ctx context.Context, ev StepEvent)
}

// Checkpointer persists plan state and reports external cancel requests.
type Checkpointer interface {
	Save(ctx context.Context, p *Plan) error
	CancelRequested(ctx context.Context, planID uuid.UUID) (bool, error)
}

// StepError is returned by Run when a step failed during that run.
type StepError struct {
	Index int
	Err   error
}

func (e *StepError) Error() string { return fmt.Sprintf("plan step %d failed: %v", e.Index, e.Err) }
func (e *StepError) Unwrap() error { return e.Err }

type Executor struct {
	log      *logger.Logger
	runner   StepRunner
	notifier Notifier
	store    Checkpointer
	tracer   trace.Tracer
	now      func() time.Time
}

func NewExecutor(baseLog *logger.Logger, runner StepRunner, notifier Notifier, store Checkpointer) *Executor {
	return &Executor{
		log:      baseLog.With("service", "PlanExecutor"),
		runner:   runner,
		notifier: notifier,
		store:    store,
		tracer:   otel.Tracer("ideabank/plan"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run drives pending steps one at a time in index order until the plan completes,
// halts on a failure, or is cancelled. Cancellation is checked only between steps.
// It returns ErrPlanCancelled on cancel and a *StepError for the first failure of this run.
func (e *Executor) Run(ctx context.Context, p *Plan) error {
	ctx, span := e.tracer.Start(ctx, "plan.run", trace.WithAttributes(
		attribute.String("plan_id", p.ID.String()),
		attribute.Int("steps", len(p.Steps)),
	))
	defer span.End()

	var firstErr error
	for {
		if err := e.checkCancel(ctx, p); err != nil {
			return err
		}
		if p.Cancelled() {
			if err := e.save(ctx, p); err != nil {
				return err
			}
			e.log.Info("plan cancelled", "plan_id", p.ID, "completed", p.CompletedCount(), "total", len(p.Steps))
			span.SetAttributes(attribute.String("plan_status", string(p.Status())))
			return ErrPlanCancelled
		}

		i, err := p.Next()
		if err != nil {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := p.Start(i, e.now()); err != nil {
			return err
		}
		if err := e.save(ctx, p); err != nil {
			return err
		}
		e.publish(ctx, p, i)

		stepErr := e.runStep(ctx, p, i)
		if stepErr != nil {
			if err := p.Fail(i, stepErr.Error(), e.now()); err != nil {
				return err
			}
			if firstErr == nil {
				firstErr = &StepError{Index: i, Err: stepErr}
			}
			e.log.Warn("plan step failed", "plan_id", p.ID, "step", i, "error", stepErr)
		}
		if err := e.save(ctx, p); err != nil {
			return err
		}
		e.publish(ctx, p, i)
	}

	if err := e.save(ctx, p); err != nil {
		return err
	}
	span.SetAttributes(attribute.String("plan_status", string(p.Status())))
	if firstErr != nil {
		span.SetStatus(codes.Error, firstErr.Error())
	}
	return firstErr
}

func (e *Executor) runStep(ctx context.Context, p *Plan, i int) error {
	step := p.Steps[i]
	ctx, span := e.tracer.Start(ctx, "plan.step", trace.WithAttributes(
		attribute.Int("step_index", i),
		attribute.String("step_kind", string(step.Kind)),
	))
	defer span.End()

	res, err := e.runner.RunStep(ctx, StepInput{
		PlanID:               p.ID,
		OwnerID:              p.OwnerID,
		Step:                 step,
		PreviousGenerationID: p.LastGenerationID(i),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return p.Succeed(i, res.GenerationID, e.now())
}

func (e *Executor) checkCancel(ctx context.Context, p *Plan) error {
	if e.store == nil || p.Cancelled() {
		return nil
	}
	requested, err := e.store.CancelRequested(ctx, p.ID)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		e.log.Warn("cancel check failed", "plan_id", p.ID, "error", err)
		return nil
	}
	if requested {
		p.Cancel()
	}
	return nil
}

func (e *Executor) save(ctx context.Context, p *Plan) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.Save(ctx, p); err != nil {
		return fmt.Errorf("save plan %s: %w", p.ID, err)
	}
	return nil
}

func (e *Executor) publish(ctx context.Context, p *Plan, i int) {
	if e.notifier == nil {
		return
	}
	e.notifier.StepChanged(ctx, StepEvent{
		PlanID:     p.ID,
		OwnerID:    p.OwnerID,
		Step:       p.Snapshot()[i],
		PlanStatus: p.Status(),
		Progress:   p.Progress(),
		At:         e.now(),
	})
}
