package plan

import (
	"testing"

	"github.com/yungbote/ideabank-backend/internal/domain/content"
)

func TestDecompose(t *testing.T) {
	products := []content.ProductRef{{ID: "p1", Name: "Mug"}, {ID: "p2", Name: ""}}
	cases := []struct {
		typ   content.SuggestionType
		kinds []content.StepKind
	}{
		{content.SuggestionContentSeries, []content.StepKind{content.StepKindGenerate, content.StepKindGenerate, content.StepKindEdit}},
		{content.SuggestionCampaign, []content.StepKind{content.StepKindGenerate, content.StepKindEdit, content.StepKindEdit}},
		{content.SuggestionGapFill, []content.StepKind{content.StepKindGenerate, content.StepKindGenerate}},
		{content.SuggestionSinglePost, []content.StepKind{content.StepKindGenerate}},
		{content.SuggestionType("mystery"), []content.StepKind{content.StepKindGenerate}},
	}
	for _, tc := range cases {
		got := Decompose(content.AgentSuggestion{Type: tc.typ, Title: "Morning", Products: products})
		if len(got) != len(tc.kinds) {
			t.Fatalf("%s: want %d steps, got %d", tc.typ, len(tc.kinds), len(got))
		}
		for i, s := range got {
			if s.Index != i || s.Kind != tc.kinds[i] || s.Status != content.StepPending || s.Prompt == "" {
				t.Fatalf("%s step %d: %+v", tc.typ, i, s)
			}
		}
	}
}

func TestDecomposeSeriesWithoutProducts(t *testing.T) {
	got := Decompose(content.AgentSuggestion{Type: content.SuggestionContentSeries})
	if len(got) != 1 || got[0].Kind != content.StepKindGenerate {
		t.Fatalf("unexpected steps: %+v", got)
	}
}

func TestDecomposeCarriesPlatform(t *testing.T) {
	for _, st := range Decompose(content.AgentSuggestion{Type: content.SuggestionCampaign, Platform: "tiktok"}) {
		if st.Platform != "tiktok" {
			t.Fatalf("step %d platform: %q", st.Index, st.Platform)
		}
	}
	if got := Decompose(content.AgentSuggestion{Type: content.SuggestionSinglePost}); got[0].Platform != "instagram" {
		t.Fatalf("default platform: %q", got[0].Platform)
	}
}
