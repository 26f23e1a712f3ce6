package backend

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/ideabank-backend/internal/contract"
	"github.com/yungbote/ideabank-backend/internal/pkg/httpx"
)

var (
	ErrBackendTimeout   = errors.New("generation backend timed out")
	ErrBackendRateLimit = errors.New("generation backend rate limited the request")
	ErrBackendAuth      = errors.New("generation backend rejected our credentials")
	ErrBackendNoContent = errors.New("generation backend returned no content")
	ErrBackendFailed    = errors.New("generation backend reported a failure")
)

type ErrorKind string

const (
	KindTimeout   ErrorKind = "timeout"
	KindRateLimit ErrorKind = "rate_limit"
	KindAuth      ErrorKind = "auth"
	KindNoContent ErrorKind = "no_content"
	KindFailed    ErrorKind = "failed"
)

// BackendError matches its kind's sentinel and the underlying cause via errors.Is.
type BackendError struct {
	Kind   ErrorKind
	Status int
	Err    error
}

func (e *BackendError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("backend %s (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("backend %s: %v", e.Kind, e.Err)
}

func (e *BackendError) Unwrap() []error {
	out := []error{sentinelFor(e.Kind)}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func sentinelFor(k ErrorKind) error {
	switch k {
	case KindTimeout:
		return ErrBackendTimeout
	case KindRateLimit:
		return ErrBackendRateLimit
	case KindAuth:
		return ErrBackendAuth
	case KindNoContent:
		return ErrBackendNoContent
	default:
		return ErrBackendFailed
	}
}

// classify maps a transport outcome to a BackendError. Errors it does not recognise are returned as is.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if httpx.IsTimeout(err) {
		return &BackendError{Kind: KindTimeout, Err: err}
	}
	var te *contract.TransportError
	if !errors.As(err, &te) {
		return err
	}
	switch te.Status {
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return &BackendError{Kind: KindTimeout, Status: te.Status, Err: err}
	case http.StatusTooManyRequests:
		return &BackendError{Kind: KindRateLimit, Status: te.Status, Err: err}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &BackendError{Kind: KindAuth, Status: te.Status, Err: err}
	default:
		return &BackendError{Kind: KindFailed, Status: te.Status, Err: err}
	}
}
