package contract

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/yungbote/ideabank-backend/internal/pkg/httpx"
)

// TransportError is a non-2xx outcome. Message is the best message the response offered.
type TransportError struct {
	Status  int
	Message string
}

func (e *TransportError) Error() string {
	if e == nil {
		return "transport error"
	}
	return fmt.Sprintf("transport error %d: %s", e.Status, e.Message)
}

func (e *TransportError) HTTPStatusCode() int { return e.Status }

// ValidationMismatch records a 2xx payload that did not match its schema.
type ValidationMismatch struct {
	URL string
	Err error
}

func (e *ValidationMismatch) Error() string {
	return fmt.Sprintf("contract mismatch for %s: %v", e.URL, e.Err)
}

func (e *ValidationMismatch) Unwrap() error { return e.Err }

// transportMessage prefers the body's error field (a string or {message}), then the
// body text, then the transport status text.
func transportMessage(resp *http.Response, body []byte) string {
	var env struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil && len(env.Error) > 0 {
		var s string
		if json.Unmarshal(env.Error, &s) == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
		var obj struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(env.Error, &obj) == nil && strings.TrimSpace(obj.Message) != "" {
			return strings.TrimSpace(obj.Message)
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return httpx.StatusText(resp)
}
