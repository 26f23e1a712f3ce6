package lineage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/yungbote/ideabank-backend/internal/domain/content"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
)

// maxAncestorDepth bounds the parent walk used by the acyclicity check.
const maxAncestorDepth = 1024

type ListFilter struct {
	UserID   uuid.UUID
	ParentID *uuid.UUID
	Limit    int
}

// Store persists generations. Create must derive EditCount from the parent atomically,
// so two concurrent edits of one parent never read a stale parent count.
type Store interface {
	Create(ctx context.Context, g *content.Generation) (*content.Generation, error)
	Get(ctx context.Context, id uuid.UUID) (*content.Generation, error)
	List(ctx context.Context, filter ListFilter) ([]*content.Generation, error)
}

type Backend interface {
	Generate(ctx context.Context, prompt string, opts content.GenerateOptions) (content.BackendResult, error)
	Edit(ctx context.Context, parentID uuid.UUID, editPrompt string, conversationHistory datatypes.JSON) (content.BackendResult, error)
}

type RecordInput struct {
	// ID is optional; a fresh id is assigned when nil.
	ID         uuid.UUID
	ParentID   *uuid.UUID
	UserID     uuid.UUID
	Prompt     string
	EditPrompt string
	Raw        content.BackendResult
}

type Service struct {
	log     *logger.Logger
	store   Store
	backend Backend
	tracer  trace.Tracer
}

func NewService(baseLog *logger.Logger, store Store, backend Backend) *Service {
	return &Service{
		log:     baseLog.With("service", "GenerationLineage"),
		store:   store,
		backend: backend,
		tracer:  otel.Tracer("ideabank/lineage"),
	}
}

// RecordResult stores a backend result as a new root (ParentID nil) or as a child of an
// editable parent.
func (s *Service) RecordResult(ctx context.Context, in RecordInput) (*content.Generation, error) {
	id := in.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	g := &content.Generation{
		ID:          id,
		UserID:      in.UserID,
		Prompt:      strings.TrimSpace(in.Prompt),
		Result:      in.Raw.Result,
		Status:      statusOf(in.Raw),
		ImagePath:   strings.TrimSpace(in.Raw.ResultLocator),
		Model:       in.Raw.Model,
		AspectRatio: in.Raw.AspectRatio,
		EditPrompt:  strings.TrimSpace(in.EditPrompt),
	}
	if len(in.Raw.ConversationHistory) > 0 {
		g.ConversationHistory = datatypes.JSON(in.Raw.ConversationHistory)
	}

	if in.ParentID != nil {
		parent, err := s.editableParent(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if err := s.checkAcyclic(ctx, id, parent); err != nil {
			return nil, err
		}
		pid := parent.ID
		g.ParentGenerationID = &pid
		g.EditCount = parent.EditCount + 1
		if g.Prompt == "" {
			g.Prompt = parent.Prompt
		}
	}

	created, err := s.store.Create(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("create generation: %w", err)
	}
	s.log.Debug("generation recorded",
		"generation_id", created.ID,
		"parent_generation_id", created.ParentGenerationID,
		"edit_count", created.EditCount,
		"can_edit", created.CanEdit(),
	)
	return created, nil
}

// Generate calls the backend and records the result as a new root.
func (s *Service) Generate(ctx context.Context, userID uuid.UUID, prompt string, opts content.GenerateOptions) (*content.Generation, error) {
	ctx, span := s.tracer.Start(ctx, "lineage.generate")
	defer span.End()

	raw, err := s.backend.Generate(ctx, prompt, opts)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return s.RecordResult(ctx, RecordInput{UserID: userID, Prompt: prompt, Raw: raw})
}

// Edit extends an editable generation owned by userID. Integrity is checked before
// the backend is called.
func (s *Service) Edit(ctx context.Context, userID uuid.UUID, parentID uuid.UUID, editPrompt string) (*content.Generation, error) {
	ctx, span := s.tracer.Start(ctx, "lineage.edit", trace.WithAttributes(attribute.String("parent_generation_id", parentID.String())))
	defer span.End()

	parent, err := s.editableParent(ctx, parentID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if userID != uuid.Nil && parent.UserID != userID {
		return nil, &IntegrityError{Reason: ReasonParentNotFound, ParentID: parentID}
	}

	raw, err := s.backend.Edit(ctx, parent.ID, editPrompt, parent.ConversationHistory)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	pid := parent.ID
	return s.RecordResult(ctx, RecordInput{
		ParentID:   &pid,
		UserID:     parent.UserID,
		Prompt:     parent.Prompt,
		EditPrompt: editPrompt,
		Raw:        raw,
	})
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*content.Generation, error) {
	g, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil || (userID != uuid.Nil && g.UserID != userID) {
		return nil, nil
	}
	return g, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*content.Generation, error) {
	return s.store.List(ctx, filter)
}

func (s *Service) editableParent(ctx context.Context, parentID uuid.UUID) (*content.Generation, error) {
	parent, err := s.store.Get(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("load parent generation: %w", err)
	}
	if parent == nil {
		return nil, &IntegrityError{Reason: ReasonParentNotFound, ParentID: parentID}
	}
	if !parent.CanEdit() {
		return nil, &IntegrityError{Reason: ReasonNoContinuation, ParentID: parentID}
	}
	return parent, nil
}

// checkAcyclic rejects a parent whose ancestor chain already contains childID.
func (s *Service) checkAcyclic(ctx context.Context, childID uuid.UUID, parent *content.Generation) error {
	cur := parent
	for depth := 0; cur != nil; depth++ {
		if cur.ID == childID {
			return &IntegrityError{Reason: ReasonCycle, ParentID: parent.ID}
		}
		if cur.IsRoot() {
			return nil
		}
		if depth >= maxAncestorDepth {
			return &IntegrityError{Reason: ReasonCycle, ParentID: parent.ID}
		}
		next, err := s.store.Get(ctx, *cur.ParentGenerationID)
		if err != nil {
			return fmt.Errorf("load ancestor: %w", err)
		}
		cur = next
	}
	return nil
}

func statusOf(raw content.BackendResult) string {
	switch content.GenerationStatus(strings.ToLower(strings.TrimSpace(raw.Status))) {
	case content.GenerationPending:
		return string(content.GenerationPending)
	case content.GenerationFailed:
		return string(content.GenerationFailed)
	default:
		return string(content.GenerationComplete)
	}
}

// IsIntegrity reports whether err is a lineage integrity rejection and returns it.
func IsIntegrity(err error) (*IntegrityError, bool) {
	var ie *IntegrityError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
