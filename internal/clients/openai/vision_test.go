package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/yungbote/ideabank-backend/internal/modules/suggestion"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func TestParseLabelReply(t *testing.T) {
	products := []suggestion.Product{{ID: "p1"}, {ID: "p2"}}
	raw := "```json\n{\"products\":[{\"id\":\"p1\",\"labels\":[\" Cozy \",\"\"],\"score\":1.4},{\"id\":\"zz\",\"labels\":[\"x\"]},{\"id\":\"p2\",\"score\":-1}]}\n```"
	got, err := parseLabelReply(raw, products)
	if err != nil {
		t.Fatalf("parseLabelReply: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unknown products must be dropped: %+v", got)
	}
	if got[0].Score != 1 || len(got[0].Labels) != 1 || got[0].Labels[0] != "cozy" {
		t.Fatalf("unexpected signal: %+v", got[0])
	}
	if got[1].Score != 0 {
		t.Fatalf("score should clamp at 0: %+v", got[1])
	}
	if _, err := parseLabelReply("not json", products); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestAnalyzeCallsChatCompletions(t *testing.T) {
	calls := 0
	hc := &http.Client{Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		if !strings.HasSuffix(req.URL.Path, "/chat/completions") {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		content, _ := json.Marshal(`{"products":[{"id":"p1","labels":["kitchen"],"score":0.7}]}`)
		body := `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":` + string(content) + `}}]}`
		return &http.Response{
			StatusCode: 200,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(bytes.NewReader([]byte(body))),
			Request:    req,
		}, nil
	})}
	v, err := NewVisionAnalyzer(logger.Nop(), VisionConfig{APIKey: "sk-test", BaseURL: "http://openai.local/v1/"}, hc)
	if err != nil {
		t.Fatalf("NewVisionAnalyzer: %v", err)
	}
	got, err := v.Analyze(context.Background(), []suggestion.Product{{ID: "p1", Name: "Mug"}})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if calls != 1 || len(got) != 1 || got[0].Labels[0] != "kitchen" {
		t.Fatalf("unexpected: calls=%d got=%+v", calls, got)
	}
}

func TestNewVisionAnalyzerRequiresKey(t *testing.T) {
	if _, err := NewVisionAnalyzer(logger.Nop(), VisionConfig{}, nil); err == nil {
		t.Fatalf("expected error without api key")
	}
}
