package content

import (
	"encoding/json"
	"strings"
)

// SuggestionType is the closed set of content idea kinds.
type SuggestionType string

const (
	SuggestionContentSeries SuggestionType = "content_series"
	SuggestionSinglePost    SuggestionType = "single_post"
	SuggestionCampaign      SuggestionType = "campaign"
	SuggestionGapFill       SuggestionType = "gap_fill"
)

// ParseSuggestionType maps an upstream discriminant onto the closed set.
// Unrecognized or blank values become SuggestionSinglePost.
func ParseSuggestionType(raw string) SuggestionType {
	switch SuggestionType(strings.ToLower(strings.TrimSpace(raw))) {
	case SuggestionContentSeries:
		return SuggestionContentSeries
	case SuggestionSinglePost:
		return SuggestionSinglePost
	case SuggestionCampaign:
		return SuggestionCampaign
	case SuggestionGapFill:
		return SuggestionGapFill
	default:
		return SuggestionSinglePost
	}
}

// UnmarshalJSON never fails on a bad discriminant; anything that is not a known
// string decodes as SuggestionSinglePost.
func (t *SuggestionType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*t = SuggestionSinglePost
		return nil
	}
	*t = ParseSuggestionType(s)
	return nil
}

// TypeMeta is the presentation metadata attached to each suggestion type.
type TypeMeta struct {
	Label       string `json:"label"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

func (t SuggestionType) Meta() TypeMeta {
	switch ParseSuggestionType(string(t)) {
	case SuggestionContentSeries:
		return TypeMeta{Label: "Content Series", Icon: "layers", Description: "A run of related posts built around the same products"}
	case SuggestionCampaign:
		return TypeMeta{Label: "Campaign", Icon: "megaphone", Description: "A coordinated multi-asset push"}
	case SuggestionGapFill:
		return TypeMeta{Label: "Gap Fill", Icon: "puzzle", Description: "Covers products with little existing content"}
	case SuggestionSinglePost:
		fallthrough
	default:
		return TypeMeta{Label: "Single Post", Icon: "image", Description: "One standalone post"}
	}
}

type ProductRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type AgentSuggestion struct {
	ID          string         `json:"id"`
	Type        SuggestionType `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Products    []ProductRef   `json:"products"`
	Platform    string         `json:"platform"`
	Confidence  int            `json:"confidence"`
}

// DisplayConfidence is Confidence clamped to [0,100]. The stored value is left as is.
func (s AgentSuggestion) DisplayConfidence() int { return ClampConfidence(s.Confidence) }

func ClampConfidence(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func (s AgentSuggestion) ProductIDs() []string {
	out := make([]string, 0, len(s.Products))
	for _, p := range s.Products {
		out = append(out, p.ID)
	}
	return out
}
