package lineage

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrIntegrity matches every *IntegrityError via errors.Is.
var ErrIntegrity = errors.New("lineage integrity violation")

type IntegrityReason string

const (
	ReasonParentNotFound IntegrityReason = "parent_not_found"
	ReasonNoContinuation IntegrityReason = "no_continuation"
	ReasonCycle          IntegrityReason = "cycle"
)

// IntegrityError rejects an edit before any backend call is made.
type IntegrityError struct {
	Reason   IntegrityReason
	ParentID uuid.UUID
}

func (e *IntegrityError) Error() string {
	if e == nil {
		return ErrIntegrity.Error()
	}
	switch e.Reason {
	case ReasonParentNotFound:
		return fmt.Sprintf("lineage: parent generation %s not found", e.ParentID)
	case ReasonNoContinuation:
		return fmt.Sprintf("lineage: generation %s has no conversation history and cannot be edited", e.ParentID)
	case ReasonCycle:
		return fmt.Sprintf("lineage: generation %s would become its own ancestor", e.ParentID)
	default:
		return ErrIntegrity.Error()
	}
}

func (e *IntegrityError) Is(target error) bool { return target == ErrIntegrity }
