package suggestion

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yungbote/ideabank-backend/internal/domain/content"
)

func titles(in []content.AgentSuggestion) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, s.Title)
	}
	return out
}

func TestSuggestEmptySelectionIsEmptyNotError(t *testing.T) {
	got := NewEngine().Suggest(nil, Context{}, 5)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
	got = NewEngine().Suggest([]string{" ", ""}, Context{}, 5)
	if len(got) != 0 {
		t.Fatalf("blank ids should be ignored, got %d", len(got))
	}
}

func TestSuggestOrdersByConfidenceWithStableTies(t *testing.T) {
	sc := Context{
		Products: []Product{{ID: "p1", Name: "Mug"}, {ID: "p2", Name: "Tote"}},
		Templates: []Template{
			{ID: "a", Type: "single_post", Title: "a {{product}}", Weight: 50},
			{ID: "b", Type: "mystery", Title: "b {{product}}", Weight: 70},
		},
	}
	got := NewEngine().Suggest([]string{"p1", "p2"}, sc, 10)

	want := []string{"b Mug", "b Tote", "a Mug", "a Tote"}
	if diff := cmp.Diff(want, titles(got)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	for _, s := range got {
		if s.Type != content.SuggestionSinglePost {
			t.Fatalf("unknown template type should fall back to single_post, got %s", s.Type)
		}
	}
}

func TestSuggestIsDeterministic(t *testing.T) {
	sc := Context{Products: []Product{{ID: "p1", Name: "Mug"}, {ID: "p2", Name: "Tote"}}}
	first := NewEngine().Suggest([]string{"p1", "p2"}, sc, 10)
	second := NewEngine().Suggest([]string{"p1", "p2"}, sc, 10)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("non-deterministic output (-first +second):\n%s", diff)
	}
}

func TestSuggestTruncatesToMax(t *testing.T) {
	sc := Context{Templates: []Template{{ID: "a", Type: "single_post", Weight: 10}}}
	got := NewEngine().Suggest([]string{"p1", "p2", "p3", "p4"}, sc, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(got))
	}
	got = NewEngine().Suggest([]string{"p1", "p2", "p3", "p4", "p5", "p6", "p7"}, sc, 0)
	if len(got) != DefaultMaxSuggestions {
		t.Fatalf("expected default max %d, got %d", DefaultMaxSuggestions, len(got))
	}
}

func TestSuggestGapFillOnlyForUncoveredProducts(t *testing.T) {
	sc := Context{
		Products:  []Product{{ID: "p1", Name: "Mug"}, {ID: "p2", Name: "Tote"}},
		Knowledge: []KnowledgeEntry{{ProductID: "p1", Topic: "unboxing"}},
		Templates: []Template{{ID: "gap", Type: "gap_fill", Title: "gap {{product}}", Weight: 10}},
	}
	got := NewEngine().Suggest([]string{"p1", "p2"}, sc, 10)
	if len(got) != 1 {
		t.Fatalf("expected one gap_fill suggestion, got %d", len(got))
	}
	if got[0].Title != "gap Tote" || got[0].Confidence != 10+gapFillBonus {
		t.Fatalf("unexpected gap_fill suggestion: %+v", got[0])
	}
}

func TestSuggestScoresVisionAndKnowledge(t *testing.T) {
	sc := Context{
		Products: []Product{{ID: "p1", Name: "Mug"}, {ID: "p2", Name: "Tote"}},
		Vision:   []VisionSignal{{ProductID: "p1", Labels: []string{"Outdoor"}, Score: 0.5}},
		Knowledge: []KnowledgeEntry{
			{ProductID: "p2", Platform: "tiktok"},
			{ProductID: "p2", Platform: "tiktok"},
			{ProductID: "p2", Platform: "instagram"},
		},
		Templates: []Template{{ID: "t", Type: "single_post", Title: "{{product}}", Platform: "tiktok", Weight: 50, Keywords: []string{"outdoor"}}},
	}
	got := NewEngine().Suggest([]string{"p1", "p2"}, sc, 10)
	conf := map[string]int{}
	for _, s := range got {
		conf[s.Title] = s.Confidence
	}
	want := map[string]int{"Mug": 50 + labelMatchBonus + 5, "Tote": 50 + 2*knowledgeBonus}
	if diff := cmp.Diff(want, conf); diff != "" {
		t.Fatalf("confidence mismatch (-want +got):\n%s", diff)
	}
}

func TestSuggestKeepsOutOfRangeConfidence(t *testing.T) {
	sc := Context{Templates: []Template{
		{ID: "hi", Type: "single_post", Weight: 150},
		{ID: "lo", Type: "single_post", Weight: -3},
	}}
	got := NewEngine().Suggest([]string{"p1"}, sc, 10)
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(got))
	}
	if got[0].Confidence != 150 || got[0].DisplayConfidence() != 100 {
		t.Fatalf("high: stored=%d display=%d", got[0].Confidence, got[0].DisplayConfidence())
	}
	if got[1].Confidence != -3 || got[1].DisplayConfidence() != 0 {
		t.Fatalf("low: stored=%d display=%d", got[1].Confidence, got[1].DisplayConfidence())
	}
}

func TestSuggestSeriesGroupsSelection(t *testing.T) {
	sc := Context{
		Products:  []Product{{ID: "p1", Name: "Mug"}, {ID: "p2", Name: "Tote"}, {ID: "p3", Name: "Cap"}},
		Templates: []Template{{ID: "s", Type: "content_series", Title: "{{count}}: {{products}}", MinProducts: 2, MaxProducts: 2}},
	}
	got := NewEngine().Suggest([]string{"p1", "p2", "p3"}, sc, 10)
	if len(got) != 1 || got[0].Title != "2: Mug, Tote" || len(got[0].Products) != 2 {
		t.Fatalf("unexpected series suggestion: %+v", got)
	}
	if got := NewEngine().Suggest([]string{"p1"}, sc, 10); len(got) != 0 {
		t.Fatalf("series below min products should not be suggested, got %+v", got)
	}
}
