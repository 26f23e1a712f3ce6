package content

import (
	"encoding/json"
	"testing"
)

func TestParseSuggestionTypeFallsBackToSinglePost(t *testing.T) {
	cases := map[string]SuggestionType{
		"content_series": SuggestionContentSeries,
		" Campaign ":     SuggestionCampaign,
		"gap_fill":       SuggestionGapFill,
		"single_post":    SuggestionSinglePost,
		"":               SuggestionSinglePost,
		"carousel":       SuggestionSinglePost,
	}
	for in, want := range cases {
		if got := ParseSuggestionType(in); got != want {
			t.Fatalf("ParseSuggestionType(%q): want=%s got=%s", in, want, got)
		}
	}
	if SuggestionType("carousel").Meta() != SuggestionSinglePost.Meta() {
		t.Fatalf("unknown type should carry single_post metadata")
	}
}

func TestSuggestionUnmarshalToleratesBadType(t *testing.T) {
	raw := `[{"id":"a","type":"mystery","confidence":10},{"id":"b","type":7},{"id":"c","type":"campaign"}]`
	var out []AgentSuggestion
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []SuggestionType{SuggestionSinglePost, SuggestionSinglePost, SuggestionCampaign}
	for i, s := range out {
		if s.Type != want[i] {
			t.Fatalf("suggestion %d: want=%s got=%s", i, want[i], s.Type)
		}
	}
}

func TestDisplayConfidenceClampsWithoutMutating(t *testing.T) {
	for in, want := range map[int]int{-3: 0, 0: 0, 55: 55, 100: 100, 150: 100} {
		s := AgentSuggestion{Confidence: in}
		if got := s.DisplayConfidence(); got != want {
			t.Fatalf("DisplayConfidence(%d): want=%d got=%d", in, want, got)
		}
		if s.Confidence != in {
			t.Fatalf("stored confidence changed: %d -> %d", in, s.Confidence)
		}
	}
}
