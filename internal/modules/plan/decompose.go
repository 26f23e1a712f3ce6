package plan

import (
	"fmt"
	"strings"

	"github.com/yungbote/ideabank-backend/internal/domain/content"
)

// Decompose turns a suggestion into its ordered steps. Indexes are contiguous from 0.
func Decompose(s content.AgentSuggestion) []content.ExecutionStep {
	platform := strings.TrimSpace(s.Platform)
	if platform == "" {
		platform = "instagram"
	}
	title := strings.TrimSpace(s.Title)
	if title == "" {
		title = s.Type.Meta().Label
	}
	names := make([]string, 0, len(s.Products))
	for _, p := range s.Products {
		n := strings.TrimSpace(p.Name)
		if n == "" {
			n = p.ID
		}
		names = append(names, n)
	}
	allIDs := s.ProductIDs()

	var steps []content.ExecutionStep
	add := func(kind content.StepKind, action, prompt string, ids []string) {
		steps = append(steps, content.ExecutionStep{
			Index:      len(steps),
			Action:     action,
			Kind:       kind,
			Prompt:     prompt,
			ProductIDs: ids,
			Platform:   platform,
			Status:     content.StepPending,
		})
	}

	switch content.ParseSuggestionType(string(s.Type)) {
	case content.SuggestionContentSeries:
		if len(s.Products) == 0 {
			add(content.StepKindGenerate, "Create series opener", basePrompt(title, s.Description, platform, nil), nil)
			break
		}
		for i, p := range s.Products {
			add(content.StepKindGenerate,
				fmt.Sprintf("Create post %d of %d: %s", i+1, len(s.Products), names[i]),
				basePrompt(title, s.Description, platform, names[i:i+1]),
				[]string{p.ID},
			)
		}
		add(content.StepKindEdit, "Polish series for a consistent look",
			"Match the lighting and palette of the earlier posts in this series.", allIDs)
	case content.SuggestionCampaign:
		add(content.StepKindGenerate, "Create campaign hero", basePrompt(title, s.Description, platform, names), allIDs)
		add(content.StepKindEdit, "Adapt hero for "+platform,
			fmt.Sprintf("Recompose this image for a %s feed post, keeping the products in focus.", platform), allIDs)
		add(content.StepKindEdit, "Create teaser variant",
			"Make a teaser variant with the products partially revealed.", allIDs)
	case content.SuggestionGapFill:
		if len(s.Products) == 0 {
			add(content.StepKindGenerate, "Create introductory post", basePrompt(title, s.Description, platform, nil), nil)
			break
		}
		for i, p := range s.Products {
			add(content.StepKindGenerate,
				"Create introductory post for "+names[i],
				basePrompt("Introducing "+names[i], s.Description, platform, names[i:i+1]),
				[]string{p.ID},
			)
		}
	case content.SuggestionSinglePost:
		fallthrough
	default:
		add(content.StepKindGenerate, "Create post", basePrompt(title, s.Description, platform, names), allIDs)
	}
	return steps
}

func basePrompt(title, description, platform string, products []string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(title))
	if d := strings.TrimSpace(description); d != "" {
		b.WriteString(". ")
		b.WriteString(d)
	}
	if len(products) > 0 {
		b.WriteString(". Feature: ")
		b.WriteString(strings.Join(products, ", "))
	}
	b.WriteString(". Format for ")
	b.WriteString(platform)
	b.WriteString(".")
	return b.String()
}
