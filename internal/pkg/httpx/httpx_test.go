package httpx

import (
	"context"
	"fmt"
	"net/http"
	"testing"
)

type statusErr int

func (s statusErr) Error() string       { return fmt.Sprintf("status %d", int(s)) }
func (s statusErr) HTTPStatusCode() int { return int(s) }

func TestIsWrite(t *testing.T) {
	for _, m := range []string{"POST", "put", "PATCH", "DELETE"} {
		if !IsWrite(m) {
			t.Fatalf("IsWrite(%q) = false", m)
		}
	}
	for _, m := range []string{"GET", "HEAD", "OPTIONS", ""} {
		if IsWrite(m) {
			t.Fatalf("IsWrite(%q) = true", m)
		}
	}
}

func TestStatusText(t *testing.T) {
	if got := StatusText(&http.Response{Status: "418 I'm a teapot", StatusCode: 418}); got != "I'm a teapot" {
		t.Fatalf("StatusText: got=%q", got)
	}
	if got := StatusText(&http.Response{StatusCode: http.StatusBadGateway}); got != "Bad Gateway" {
		t.Fatalf("StatusText fallback: got=%q", got)
	}
}

func TestErrorHelpers(t *testing.T) {
	if !IsTimeout(fmt.Errorf("wrap: %w", context.DeadlineExceeded)) {
		t.Fatalf("expected deadline to be a timeout")
	}
	if IsTimeout(nil) {
		t.Fatalf("nil is not a timeout")
	}
	if got := StatusCodeOf(fmt.Errorf("wrap: %w", statusErr(429))); got != 429 {
		t.Fatalf("StatusCodeOf: got=%d", got)
	}
}
