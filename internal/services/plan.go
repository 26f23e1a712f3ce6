package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"

	"github.com/yungbote/ideabank-backend/internal/data/repos"
	"github.com/yungbote/ideabank-backend/internal/domain/content"
	"github.com/yungbote/ideabank-backend/internal/modules/plan"
	"github.com/yungbote/ideabank-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/ideabank-backend/internal/pkg/errors"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
)

var ErrPlanRunning = fmt.Errorf("%w: plan is already running", pkgerrors.ErrConflict)

type StepView struct {
	Index        int                `json:"index"`
	Action       string             `json:"action"`
	Kind         content.StepKind   `json:"kind"`
	Prompt       string             `json:"prompt"`
	Status       content.StepStatus `json:"status" validate:"required"`
	GenerationID *string            `json:"generationId"`
	Error        string             `json:"error,omitempty"`
	Attempts     int                `json:"attempts"`
	StartedAt    *time.Time         `json:"startedAt,omitempty"`
	FinishedAt   *time.Time         `json:"finishedAt,omitempty"`
}

// PlanView is the pollable plan state, derived predicates included.
type PlanView struct {
	planID uuid.UUID

	ID              string                  `json:"id" validate:"required,uuid"`
	Suggestion      content.AgentSuggestion `json:"suggestion"`
	Steps           []StepView              `json:"steps" validate:"dive"`
	Status          content.PlanStatus      `json:"status" validate:"required"`
	Progress        float64                 `json:"progress" validate:"gte=0,lte=1"`
	IsComplete      bool                    `json:"isComplete"`
	IsQueued        bool                    `json:"isQueued"`
	CancelRequested bool                    `json:"cancelRequested"`
	CreatedAt       time.Time               `json:"createdAt"`
	UpdatedAt       time.Time               `json:"updatedAt"`
}

type PlanService interface {
	Create(ctx context.Context, userID uuid.UUID, s content.AgentSuggestion) (*PlanView, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*PlanView, error)
	List(ctx context.Context, userID uuid.UUID, limit int) ([]*PlanView, error)
	Retry(ctx context.Context, userID, id uuid.UUID) (*PlanView, error)
	Cancel(ctx context.Context, userID, id uuid.UUID) (*PlanView, error)
	// Wait blocks until every plan goroutine started by this service has returned.
	Wait()
}

type PlanServiceOptions struct {
	ContinueOnFailure bool
}

type planService struct {
	log      *logger.Logger
	repo     repos.PlanRunRepo
	executor *plan.Executor
	notifier *PlanNotifier
	opts     PlanServiceOptions

	// baseCtx outlives requests; plan goroutines stop with it.
	baseCtx context.Context
	runs    singleflight.Group
	// active holds a claim per plan from Create or Retry until its run returns.
	active sync.Map
	wg     sync.WaitGroup
}

func NewPlanService(baseCtx context.Context, baseLog *logger.Logger, repo repos.PlanRunRepo, runner plan.StepRunner, notifier *PlanNotifier, opts PlanServiceOptions) PlanService {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	s := &planService{
		log:      baseLog.With("service", "PlanService"),
		repo:     repo,
		notifier: notifier,
		opts:     opts,
		baseCtx:  baseCtx,
	}
	var n plan.Notifier
	if notifier != nil {
		n = notifier
	}
	s.executor = plan.NewExecutor(baseLog, runner, n, &planCheckpointer{repo: repo})
	return s
}

func (s *planService) Create(ctx context.Context, userID uuid.UUID, sug content.AgentSuggestion) (*PlanView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.ErrUnauthorized
	}
	p := plan.NewPlan(uuid.New(), userID, plan.Decompose(sug))
	p.ContinueOnFailure = s.opts.ContinueOnFailure
	if !s.claim(p.ID) {
		return nil, ErrPlanRunning
	}

	rawSug, err := json.Marshal(sug)
	if err != nil {
		s.release(p.ID)
		return nil, fmt.Errorf("encode suggestion: %w", err)
	}
	rawSteps, err := json.Marshal(p.Snapshot())
	if err != nil {
		s.release(p.ID)
		return nil, fmt.Errorf("encode steps: %w", err)
	}
	run, err := s.repo.Create(dbctx.Context{Ctx: ctx}, &content.PlanRun{
		ID:           p.ID,
		OwnerUserID:  userID,
		SuggestionID: sug.ID,
		Suggestion:   datatypes.JSON(rawSug),
		Steps:        datatypes.JSON(rawSteps),
		Status:       string(p.Status()),
	})
	if err != nil {
		s.release(p.ID)
		return nil, fmt.Errorf("create plan run: %w", err)
	}
	s.log.Info("plan created", "plan_id", p.ID, "user_id", userID, "suggestion_id", sug.ID, "steps", len(p.Steps))

	view := s.viewOf(run, p)
	s.start(p)
	return view, nil
}

func (s *planService) Get(ctx context.Context, userID, id uuid.UUID) (*PlanView, error) {
	run, p, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.viewOf(run, p), nil
}

func (s *planService) List(ctx context.Context, userID uuid.UUID, limit int) ([]*PlanView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.ErrUnauthorized
	}
	runs, err := s.repo.ListByOwner(dbctx.Context{Ctx: ctx}, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list plan runs: %w", err)
	}
	out := make([]*PlanView, 0, len(runs))
	for _, run := range runs {
		p, err := s.restore(run, s.isActive(run.ID))
		if err != nil {
			s.log.Warn("skipping undecodable plan run", "plan_id", run.ID, "error", err)
			continue
		}
		out = append(out, s.viewOf(run, p))
	}
	return out, nil
}

// Retry resets failed steps and resumes the plan. The claim is taken before state is read,
// so concurrent retries of one plan start at most one run.
func (s *planService) Retry(ctx context.Context, userID, id uuid.UUID) (*PlanView, error) {
	if !s.claim(id) {
		return nil, ErrPlanRunning
	}
	run, p, err := s.loadClaimed(ctx, userID, id)
	if err != nil {
		s.release(id)
		return nil, err
	}
	n, err := p.RetryFailed()
	if err != nil {
		s.release(id)
		return nil, err
	}
	if err := (&planCheckpointer{repo: s.repo}).Save(ctx, p); err != nil {
		s.release(id)
		return nil, err
	}
	s.log.Info("plan retry requested", "plan_id", id, "reset_steps", n)

	p.ContinueOnFailure = s.opts.ContinueOnFailure
	view := s.viewOf(run, p)
	s.start(p)
	return view, nil
}

// Cancel records the request. A running plan stops at its next step boundary; an idle one
// is marked cancelled immediately.
func (s *planService) Cancel(ctx context.Context, userID, id uuid.UUID) (*PlanView, error) {
	run, p, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.RequestCancel(dbctx.Context{Ctx: ctx}, id); err != nil {
		return nil, fmt.Errorf("request cancel: %w", err)
	}
	run.CancelRequested = true
	p.Cancel()
	if !s.isActive(id) {
		if err := (&planCheckpointer{repo: s.repo}).Save(ctx, p); err != nil {
			return nil, err
		}
	}
	s.log.Info("plan cancel requested", "plan_id", id)
	return s.viewOf(run, p), nil
}

func (s *planService) Wait() { s.wg.Wait() }

// start runs p in its own goroutine and releases the claim taken by the caller when the
// run returns. The singleflight key keeps one run per plan.
func (s *planService) start(p *plan.Plan) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(p.ID)
		_, _, _ = s.runs.Do(p.ID.String(), func() (interface{}, error) {
			s.run(p)
			return nil, nil
		})
	}()
}

func (s *planService) claim(id uuid.UUID) bool {
	_, busy := s.active.LoadOrStore(id, struct{}{})
	return !busy
}

func (s *planService) release(id uuid.UUID) { s.active.Delete(id) }

func (s *planService) isActive(id uuid.UUID) bool {
	_, busy := s.active.Load(id)
	return busy
}

func (s *planService) run(p *plan.Plan) {
	ctx := s.baseCtx
	err := s.executor.Run(ctx, p)
	var stepErr *plan.StepError
	switch {
	case err == nil:
		s.log.Info("plan finished", "plan_id", p.ID, "status", p.Status())
	case errors.Is(err, plan.ErrPlanCancelled):
		s.log.Info("plan stopped after cancel", "plan_id", p.ID, "completed", p.CompletedCount())
	case errors.As(err, &stepErr):
		s.log.Warn("plan halted on failed step", "plan_id", p.ID, "step", stepErr.Index, "error", stepErr.Err)
	default:
		s.log.Error("plan run aborted", "plan_id", p.ID, "error", err)
	}

	run, getErr := s.repo.GetByID(dbctx.Context{Ctx: ctx}, p.ID)
	if getErr != nil || run == nil {
		return
	}
	s.notifier.Finished(ctx, s.viewOf(run, p))
}

func (s *planService) load(ctx context.Context, userID, id uuid.UUID) (*content.PlanRun, *plan.Plan, error) {
	return s.loadRun(ctx, userID, id, s.isActive(id))
}

// loadClaimed reads a plan the caller holds the claim for; no run is live.
func (s *planService) loadClaimed(ctx context.Context, userID, id uuid.UUID) (*content.PlanRun, *plan.Plan, error) {
	return s.loadRun(ctx, userID, id, false)
}

func (s *planService) loadRun(ctx context.Context, userID, id uuid.UUID, live bool) (*content.PlanRun, *plan.Plan, error) {
	run, err := s.repo.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, nil, err
	}
	if run == nil || (userID != uuid.Nil && run.OwnerUserID != userID) {
		return nil, nil, fmt.Errorf("plan %s: %w", id, pkgerrors.ErrNotFound)
	}
	p, err := s.restore(run, live)
	if err != nil {
		return nil, nil, err
	}
	return run, p, nil
}

func (s *planService) restore(run *content.PlanRun, live bool) (*plan.Plan, error) {
	var steps []content.ExecutionStep
	if len(run.Steps) > 0 {
		if err := json.Unmarshal(run.Steps, &steps); err != nil {
			return nil, fmt.Errorf("decode plan steps: %w", err)
		}
	}
	cancelled := run.CancelRequested || run.Status == string(content.PlanCancelled)
	var p *plan.Plan
	if live {
		// Persisted state of a live run is current; keep the running status as stored.
		p = &plan.Plan{ID: run.ID, OwnerID: run.OwnerUserID, Steps: steps}
		if cancelled {
			p.Cancel()
		}
	} else {
		p = plan.Restore(run.ID, run.OwnerUserID, steps, cancelled)
	}
	return p, nil
}

func (s *planService) viewOf(run *content.PlanRun, p *plan.Plan) *PlanView {
	v := &PlanView{
		planID:          p.ID,
		ID:              p.ID.String(),
		Steps:           make([]StepView, 0, len(p.Steps)),
		Status:          p.Status(),
		Progress:        p.Progress(),
		IsComplete:      p.IsComplete(),
		IsQueued:        p.IsQueued(),
		CancelRequested: p.Cancelled(),
	}
	if run != nil {
		if len(run.Suggestion) > 0 {
			if err := json.Unmarshal(run.Suggestion, &v.Suggestion); err != nil {
				s.log.Warn("undecodable plan suggestion", "plan_id", run.ID, "error", err)
			}
		}
		v.CreatedAt = run.CreatedAt
		v.UpdatedAt = run.UpdatedAt
		v.CancelRequested = v.CancelRequested || run.CancelRequested
	}
	for _, st := range p.Snapshot() {
		v.Steps = append(v.Steps, toStepView(st))
	}
	return v
}

func toStepView(st content.ExecutionStep) StepView {
	sv := StepView{
		Index:      st.Index,
		Action:     st.Action,
		Kind:       st.Kind,
		Prompt:     st.Prompt,
		Status:     st.Status,
		Error:      st.Error,
		Attempts:   st.Attempts,
		StartedAt:  st.StartedAt,
		FinishedAt: st.FinishedAt,
	}
	if st.GenerationID != nil {
		id := st.GenerationID.String()
		sv.GenerationID = &id
	}
	return sv
}

// planCheckpointer persists executor state to plan_run.
type planCheckpointer struct {
	repo repos.PlanRunRepo
}

func (c *planCheckpointer) Save(ctx context.Context, p *plan.Plan) error {
	raw, err := json.Marshal(p.Snapshot())
	if err != nil {
		return fmt.Errorf("encode steps: %w", err)
	}
	return c.repo.SaveState(dbctx.Context{Ctx: ctx}, p.ID, datatypes.JSON(raw), string(p.Status()))
}

func (c *planCheckpointer) CancelRequested(ctx context.Context, planID uuid.UUID) (bool, error) {
	return c.repo.CancelRequested(dbctx.Context{Ctx: ctx}, planID)
}
