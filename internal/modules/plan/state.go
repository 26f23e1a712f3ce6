package plan

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/ideabank-backend/internal/domain/content"
)

var (
	ErrStepNotPending = errors.New("plan: step is not pending")
	ErrOutOfOrder     = errors.New("plan: a lower-index step is still pending")
	ErrAlreadyRunning = errors.New("plan: another step is already running")
	ErrNotRunning     = errors.New("plan: step is not running")
	ErrPlanCancelled  = errors.New("plan: cancelled")
	ErrHalted         = errors.New("plan: halted on a failed step")
	ErrNoSuchStep     = errors.New("plan: step index out of range")
)

// Plan is an ordered list of steps plus the transitions allowed over them.
// Every mutation goes through a transition method so at most one step is ever running.
type Plan struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
	Steps   []content.ExecutionStep

	// ContinueOnFailure lets later pending steps start after a failure.
	// The default halts at the first failed step until RetryFailed.
	ContinueOnFailure bool

	cancelled bool
}

// NewPlan copies steps, reindexes them 0..n-1 and forces every status to pending.
func NewPlan(id, ownerID uuid.UUID, steps []content.ExecutionStep) *Plan {
	if id == uuid.Nil {
		id = uuid.New()
	}
	cp := make([]content.ExecutionStep, len(steps))
	for i, s := range steps {
		s.Index = i
		s.Status = content.StepPending
		s.GenerationID = nil
		s.Error = ""
		s.Attempts = 0
		s.StartedAt = nil
		s.FinishedAt = nil
		cp[i] = s
	}
	return &Plan{ID: id, OwnerID: ownerID, Steps: cp}
}

// Restore rebuilds a plan from persisted state without resetting step statuses.
// A step persisted as running (the process died mid-step) is put back to pending.
func Restore(id, ownerID uuid.UUID, steps []content.ExecutionStep, cancelled bool) *Plan {
	cp := make([]content.ExecutionStep, len(steps))
	for i, s := range steps {
		s.Index = i
		switch s.Status {
		case content.StepComplete, content.StepFailed:
		case content.StepRunning:
			s.Status = content.StepPending
			s.StartedAt = nil
		default:
			s.Status = content.StepPending
		}
		cp[i] = s
	}
	return &Plan{ID: id, OwnerID: ownerID, Steps: cp, cancelled: cancelled}
}

func (p *Plan) step(i int) (*content.ExecutionStep, error) {
	if i < 0 || i >= len(p.Steps) {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchStep, i)
	}
	return &p.Steps[i], nil
}

// Running returns the index of the running step, if any.
func (p *Plan) Running() (int, bool) {
	for i := range p.Steps {
		if p.Steps[i].Status == content.StepRunning {
			return i, true
		}
	}
	return -1, false
}

func (p *Plan) firstPending() (int, bool) {
	for i := range p.Steps {
		if p.Steps[i].Status == content.StepPending {
			return i, true
		}
	}
	return -1, false
}

func (p *Plan) hasFailed() bool {
	for i := range p.Steps {
		if p.Steps[i].Status == content.StepFailed {
			return true
		}
	}
	return false
}

// Next reports the step the executor should start next.
func (p *Plan) Next() (int, error) {
	if p.cancelled {
		return -1, ErrPlanCancelled
	}
	if _, ok := p.Running(); ok {
		return -1, ErrAlreadyRunning
	}
	if p.hasFailed() && !p.ContinueOnFailure {
		return -1, ErrHalted
	}
	i, ok := p.firstPending()
	if !ok {
		return -1, ErrStepNotPending
	}
	return i, nil
}

// Start moves step i from pending to running. Steps start in index order.
func (p *Plan) Start(i int, now time.Time) error {
	s, err := p.step(i)
	if err != nil {
		return err
	}
	if p.cancelled {
		return ErrPlanCancelled
	}
	if _, ok := p.Running(); ok {
		return ErrAlreadyRunning
	}
	if s.Status != content.StepPending {
		return fmt.Errorf("%w: step %d is %s", ErrStepNotPending, i, s.Status)
	}
	if p.hasFailed() && !p.ContinueOnFailure {
		return ErrHalted
	}
	if first, _ := p.firstPending(); first != i {
		return fmt.Errorf("%w: step %d before %d", ErrOutOfOrder, first, i)
	}
	s.Status = content.StepRunning
	s.Error = ""
	s.Attempts++
	s.StartedAt = &now
	s.FinishedAt = nil
	return nil
}

// Succeed moves the running step i to complete.
func (p *Plan) Succeed(i int, generationID *uuid.UUID, now time.Time) error {
	s, err := p.step(i)
	if err != nil {
		return err
	}
	if s.Status != content.StepRunning {
		return fmt.Errorf("%w: step %d is %s", ErrNotRunning, i, s.Status)
	}
	s.Status = content.StepComplete
	if generationID != nil {
		id := *generationID
		s.GenerationID = &id
	}
	s.FinishedAt = &now
	return nil
}

// Fail moves the running step i to failed.
func (p *Plan) Fail(i int, reason string, now time.Time) error {
	s, err := p.step(i)
	if err != nil {
		return err
	}
	if s.Status != content.StepRunning {
		return fmt.Errorf("%w: step %d is %s", ErrNotRunning, i, s.Status)
	}
	s.Status = content.StepFailed
	s.Error = strings.TrimSpace(reason)
	if s.Error == "" {
		s.Error = "step failed"
	}
	s.FinishedAt = &now
	return nil
}

// RetryFailed resets every failed step to pending and returns how many were reset.
// Complete steps are never touched.
func (p *Plan) RetryFailed() (int, error) {
	if p.cancelled {
		return 0, ErrPlanCancelled
	}
	if _, ok := p.Running(); ok {
		return 0, ErrAlreadyRunning
	}
	n := 0
	for i := range p.Steps {
		s := &p.Steps[i]
		if s.Status != content.StepFailed {
			continue
		}
		s.Status = content.StepPending
		s.Error = ""
		s.StartedAt = nil
		s.FinishedAt = nil
		n++
	}
	return n, nil
}

// Cancel stops the plan at the next step boundary. A running step is left to finish.
func (p *Plan) Cancel() {
	p.cancelled = true
}

func (p *Plan) Cancelled() bool { return p.cancelled }

// IsComplete holds when no step is pending or running. A zero-step plan is complete.
func (p *Plan) IsComplete() bool {
	for i := range p.Steps {
		switch p.Steps[i].Status {
		case content.StepPending, content.StepRunning:
			return false
		}
	}
	return true
}

// IsQueued holds when the plan has steps and none has left pending.
func (p *Plan) IsQueued() bool {
	if len(p.Steps) == 0 {
		return false
	}
	for i := range p.Steps {
		if p.Steps[i].Status != content.StepPending {
			return false
		}
	}
	return true
}

func (p *Plan) CompletedCount() int {
	n := 0
	for i := range p.Steps {
		if p.Steps[i].Status == content.StepComplete {
			n++
		}
	}
	return n
}

// Progress is completed/total; a zero-step plan reports 1.
func (p *Plan) Progress() float64 {
	if len(p.Steps) == 0 {
		return 1
	}
	return float64(p.CompletedCount()) / float64(len(p.Steps))
}

func (p *Plan) Status() content.PlanStatus {
	if _, ok := p.Running(); ok {
		return content.PlanRunning
	}
	if p.cancelled && !p.IsComplete() {
		return content.PlanCancelled
	}
	if p.hasFailed() {
		return content.PlanFailed
	}
	if p.IsComplete() {
		return content.PlanComplete
	}
	if p.IsQueued() {
		return content.PlanQueued
	}
	return content.PlanRunning
}

// LastGenerationID returns the output of the highest-index complete step before i.
func (p *Plan) LastGenerationID(before int) *uuid.UUID {
	if before > len(p.Steps) {
		before = len(p.Steps)
	}
	for j := before - 1; j >= 0; j-- {
		s := p.Steps[j]
		if s.Status == content.StepComplete && s.GenerationID != nil {
			id := *s.GenerationID
			return &id
		}
	}
	return nil
}

// Snapshot returns a deep copy of the steps for persistence and events.
func (p *Plan) Snapshot() []content.ExecutionStep {
	out := make([]content.ExecutionStep, len(p.Steps))
	for i, s := range p.Steps {
		if s.GenerationID != nil {
			id := *s.GenerationID
			s.GenerationID = &id
		}
		if s.ProductIDs != nil {
			s.ProductIDs = append([]string(nil), s.ProductIDs...)
		}
		out[i] = s
	}
	return out
}
