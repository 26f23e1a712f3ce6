package httpx

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
)

// MaxBodyBytes bounds every response body read by the HTTP clients in this module.
const MaxBodyBytes = 1 << 20

type HTTPStatusCoder interface {
	HTTPStatusCode() int
}

func IsSuccess(code int) bool { return code >= 200 && code <= 299 }

// IsWrite reports whether method mutates server state.
func IsWrite(method string) bool {
	switch strings.ToUpper(strings.TrimSpace(method)) {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func StatusCodeOf(err error) int {
	var sc HTTPStatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatusCode()
	}
	return 0
}

func ReadBody(resp *http.Response) ([]byte, error) {
	if resp == nil || resp.Body == nil {
		return nil, nil
	}
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
}

// StatusText returns the reason phrase the transport reported, falling back to the canonical text.
func StatusText(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	s := strings.TrimSpace(resp.Status)
	if s != "" {
		// "404 Not Found" -> "Not Found"
		if i := strings.IndexByte(s, ' '); i > 0 {
			return strings.TrimSpace(s[i+1:])
		}
		return s
	}
	return http.StatusText(resp.StatusCode)
}
