package plan

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/ideabank-backend/internal/domain/content"
)

func steps(n int) []content.ExecutionStep {
	out := make([]content.ExecutionStep, n)
	for i := range out {
		out[i] = content.ExecutionStep{Index: 42, Action: "step", Kind: content.StepKindGenerate, Status: content.StepComplete}
	}
	return out
}

func runningCount(p *Plan) int {
	n := 0
	for _, s := range p.Steps {
		if s.Status == content.StepRunning {
			n++
		}
	}
	return n
}

func TestNewPlanReindexesAndResets(t *testing.T) {
	p := NewPlan(uuid.Nil, uuid.New(), steps(3))
	if p.ID == uuid.Nil {
		t.Fatalf("expected generated id")
	}
	for i, s := range p.Steps {
		if s.Index != i || s.Status != content.StepPending {
			t.Fatalf("step %d: %+v", i, s)
		}
	}
	if !p.IsQueued() || p.IsComplete() || p.Status() != content.PlanQueued {
		t.Fatalf("fresh plan should be queued")
	}
}

func TestZeroStepPlanIsComplete(t *testing.T) {
	p := NewPlan(uuid.New(), uuid.New(), nil)
	if !p.IsComplete() {
		t.Fatalf("zero-step plan must be complete")
	}
	if p.Progress() != 1 {
		t.Fatalf("progress: %v", p.Progress())
	}
	if p.IsQueued() {
		t.Fatalf("zero-step plan is not queued")
	}
	if p.Status() != content.PlanComplete {
		t.Fatalf("status: %s", p.Status())
	}
}

func TestStartRules(t *testing.T) {
	now := time.Now()
	p := NewPlan(uuid.New(), uuid.New(), steps(3))

	if err := p.Start(1, now); !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder, got %v", err)
	}
	if err := p.Start(0, now); err != nil {
		t.Fatalf("Start(0): %v", err)
	}
	if err := p.Start(1, now); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	if runningCount(p) != 1 {
		t.Fatalf("at most one step may run")
	}
	if err := p.Succeed(1, nil, now); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
	gen := uuid.New()
	if err := p.Succeed(0, &gen, now); err != nil {
		t.Fatalf("Succeed: %v", err)
	}
	if err := p.Start(0, now); !errors.Is(err, ErrStepNotPending) {
		t.Fatalf("expected ErrStepNotPending, got %v", err)
	}
	if err := p.Start(7, now); !errors.Is(err, ErrNoSuchStep) {
		t.Fatalf("expected ErrNoSuchStep, got %v", err)
	}
	if got := p.LastGenerationID(1); got == nil || *got != gen {
		t.Fatalf("LastGenerationID: %v", got)
	}
	if p.Progress() < 0.33 || p.Progress() > 0.34 {
		t.Fatalf("progress: %v", p.Progress())
	}
}

func TestHaltOnFailureAndRetry(t *testing.T) {
	now := time.Now()
	p := NewPlan(uuid.New(), uuid.New(), steps(3))
	mustStart(t, p, 0)
	_ = p.Succeed(0, nil, now)
	mustStart(t, p, 1)
	if err := p.Fail(1, "rate limited", now); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	if _, err := p.Next(); !errors.Is(err, ErrHalted) {
		t.Fatalf("expected ErrHalted, got %v", err)
	}
	if err := p.Start(2, now); !errors.Is(err, ErrHalted) {
		t.Fatalf("expected ErrHalted, got %v", err)
	}
	if p.Steps[2].Status != content.StepPending {
		t.Fatalf("later steps stay pending after a failure")
	}
	if p.Status() != content.PlanFailed || p.IsComplete() {
		t.Fatalf("halted plan should be failed and incomplete: %s", p.Status())
	}

	n, err := p.RetryFailed()
	if err != nil || n != 1 {
		t.Fatalf("RetryFailed: n=%d err=%v", n, err)
	}
	if p.Steps[0].Status != content.StepComplete {
		t.Fatalf("retry must not touch complete steps")
	}
	if p.Steps[1].Status != content.StepPending {
		t.Fatalf("failed step should be pending after retry")
	}
	if p.Steps[1].Error != "" || p.Steps[1].FinishedAt != nil {
		t.Fatalf("retried step keeps stale failure: %+v", p.Steps[1])
	}
	if i, err := p.Next(); err != nil || i != 1 {
		t.Fatalf("Next after retry: i=%d err=%v", i, err)
	}
}

func TestContinueOnFailure(t *testing.T) {
	now := time.Now()
	p := NewPlan(uuid.New(), uuid.New(), steps(2))
	p.ContinueOnFailure = true
	mustStart(t, p, 0)
	_ = p.Fail(0, "boom", now)
	if i, err := p.Next(); err != nil || i != 1 {
		t.Fatalf("Next: i=%d err=%v", i, err)
	}
	mustStart(t, p, 1)
	_ = p.Succeed(1, nil, now)
	if !p.IsComplete() || p.Status() != content.PlanFailed {
		t.Fatalf("complete plan with a failure reports failed, got %s", p.Status())
	}
}

func TestCancelKeepsCompleteSteps(t *testing.T) {
	now := time.Now()
	p := NewPlan(uuid.New(), uuid.New(), steps(3))
	mustStart(t, p, 0)
	p.Cancel()
	if p.Status() != content.PlanRunning {
		t.Fatalf("in-flight step keeps the plan running")
	}
	if err := p.Succeed(0, nil, now); err != nil {
		t.Fatalf("in-flight step must still finish: %v", err)
	}
	if err := p.Start(1, now); !errors.Is(err, ErrPlanCancelled) {
		t.Fatalf("expected ErrPlanCancelled, got %v", err)
	}
	if _, err := p.RetryFailed(); !errors.Is(err, ErrPlanCancelled) {
		t.Fatalf("expected ErrPlanCancelled, got %v", err)
	}
	if p.Steps[0].Status != content.StepComplete || p.Status() != content.PlanCancelled {
		t.Fatalf("unexpected state: %+v %s", p.Steps[0], p.Status())
	}
}

func TestRestoreRequeuesInterruptedStep(t *testing.T) {
	in := []content.ExecutionStep{
		{Status: content.StepComplete},
		{Status: content.StepRunning},
		{Status: "bogus"},
	}
	p := Restore(uuid.New(), uuid.New(), in, false)
	want := []content.StepStatus{content.StepComplete, content.StepPending, content.StepPending}
	for i, s := range p.Steps {
		if s.Status != want[i] || s.Index != i {
			t.Fatalf("step %d: %+v", i, s)
		}
	}
}

func TestIsCompleteMatchesDefinition(t *testing.T) {
	statuses := []content.StepStatus{content.StepPending, content.StepRunning, content.StepComplete, content.StepFailed}
	for _, a := range statuses {
		for _, b := range statuses {
			p := &Plan{Steps: []content.ExecutionStep{{Status: a}, {Status: b}}}
			open := a == content.StepPending || a == content.StepRunning || b == content.StepPending || b == content.StepRunning
			if p.IsComplete() == open {
				t.Fatalf("IsComplete(%s,%s)=%v", a, b, p.IsComplete())
			}
		}
	}
}

func mustStart(t *testing.T, p *Plan, i int) {
	t.Helper()
	if err := p.Start(i, time.Now()); err != nil {
		t.Fatalf("Start(%d): %v", i, err)
	}
}
