package services

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/ideabank-backend/internal/modules/suggestion"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
)

type fakeSource struct {
	calls int
	mode  suggestion.Mode
	err   error
}

func (f *fakeSource) FetchContext(ctx context.Context, productIDs []string, mode suggestion.Mode) (suggestion.Context, error) {
	f.calls++
	f.mode = mode
	if f.err != nil {
		return suggestion.Context{}, f.err
	}
	return suggestion.Context{Products: []suggestion.Product{{ID: "p1", Name: "Mug"}}}, nil
}

func TestSuggestionService(t *testing.T) {
	src := &fakeSource{}
	svc := NewSuggestionService(logger.Nop(), src, nil)

	empty, err := svc.Suggest(context.Background(), SuggestRequest{})
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("empty selection: %v %v", empty, err)
	}
	if src.calls != 0 {
		t.Fatalf("empty selection should not fetch context")
	}

	got, err := svc.Suggest(context.Background(), SuggestRequest{ProductIDs: []string{"p1"}, MaxSuggestions: 2, Mode: "fast"})
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(got) == 0 || len(got) > 2 {
		t.Fatalf("unexpected suggestions: %d", len(got))
	}
	if src.mode != suggestion.ModeFast {
		t.Fatalf("mode not passed through: %s", src.mode)
	}

	src.err = errors.New("catalog down")
	if _, err := svc.Suggest(context.Background(), SuggestRequest{ProductIDs: []string{"p1"}}); !errors.Is(err, src.err) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
}
