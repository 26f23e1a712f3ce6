package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/ideabank-backend/internal/domain/content"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

func newClient(rt roundTripperFunc) *Client {
	return New(logger.Nop(), Config{BaseURL: "http://gen.local", APIKey: "k", Model: "img-1"}, &http.Client{Transport: rt})
}

func TestGenerate(t *testing.T) {
	calls := 0
	c := newClient(func(req *http.Request) (*http.Response, error) {
		calls++
		if req.URL.Path != generatePath || req.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", req.Method, req.URL.Path)
		}
		if req.Header.Get("Authorization") != "Bearer k" {
			t.Fatalf("missing api key")
		}
		var in generateRequest
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if in.Prompt != "mug" || in.Model != "img-1" || in.AspectRatio != "4:5" {
			t.Fatalf("unexpected body: %+v", in)
		}
		return respond(200, `{"status":"complete","image_url":"uploads/a.png","conversation_history":{"turns":1}}`), nil
	})
	got, err := c.Generate(context.Background(), " mug ", content.GenerateOptions{AspectRatio: "4:5"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call without token fetch, got %d", calls)
	}
	if got.ResultLocator != "uploads/a.png" || string(got.ConversationHistory) != `{"turns":1}` {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestEditSendsHistoryAndDropsNullHistory(t *testing.T) {
	parent := uuid.New()
	c := newClient(func(req *http.Request) (*http.Response, error) {
		var in editRequest
		_ = json.NewDecoder(req.Body).Decode(&in)
		if in.ParentGenerationID != parent.String() || string(in.ConversationHistory) != `{"t":1}` {
			t.Fatalf("unexpected edit body: %+v", in)
		}
		return respond(200, `{"status":"complete","result_locator":"https://cdn/b.png","conversation_history":null}`), nil
	})
	got, err := c.Edit(context.Background(), parent, "blue", datatypes.JSON(`{"t":1}`))
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if got.ConversationHistory != nil {
		t.Fatalf("null history should normalize to nil, got %s", got.ConversationHistory)
	}
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   error
	}{
		{429, `{"error":"slow down"}`, ErrBackendRateLimit},
		{504, ``, ErrBackendTimeout},
		{401, `{"error":"bad key"}`, ErrBackendAuth},
		{403, ``, ErrBackendAuth},
		{200, `{"status":"complete"}`, ErrBackendNoContent},
		{200, `{"status":"failed","error":"nsfw"}`, ErrBackendFailed},
		{500, `boom`, ErrBackendFailed},
	}
	for _, tc := range cases {
		calls := 0
		status, body := tc.status, tc.body
		c := newClient(func(req *http.Request) (*http.Response, error) {
			calls++
			return respond(status, body), nil
		})
		_, err := c.Generate(context.Background(), "p", content.GenerateOptions{})
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: want %v got %v", tc.status, tc.want, err)
		}
		var be *BackendError
		if !errors.As(err, &be) {
			t.Fatalf("status %d: expected BackendError", tc.status)
		}
		if calls != 1 {
			t.Fatalf("status %d: backend errors are never retried, got %d calls", tc.status, calls)
		}
	}
}

func TestTransportTimeout(t *testing.T) {
	c := newClient(func(req *http.Request) (*http.Response, error) {
		return nil, context.DeadlineExceeded
	})
	_, err := c.Generate(context.Background(), "p", content.GenerateOptions{})
	if !errors.Is(err, ErrBackendTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestMismatchedPayloadIsReadLeniently(t *testing.T) {
	c := newClient(func(req *http.Request) (*http.Response, error) {
		return respond(200, `{"status":"complete","model":7,"image_url":"uploads/c.png"}`), nil
	})
	got, err := c.Generate(context.Background(), "p", content.GenerateOptions{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got.ResultLocator != "uploads/c.png" || got.Model != "" {
		t.Fatalf("unexpected result: %+v", got)
	}
}
