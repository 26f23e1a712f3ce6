package suggestion

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/ideabank-backend/internal/domain/content"
)

// Bank is the file-backed idea bank: the template set plus the product catalog and
// the knowledge entries already published for those products.
type Bank struct {
	TemplateList []Template       `yaml:"templates"`
	ProductList  []Product        `yaml:"products"`
	KnowledgeSet []KnowledgeEntry `yaml:"knowledge"`
}

// LoadBank reads a YAML idea bank. A blank path returns the built-in bank.
func LoadBank(path string) (*Bank, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return &Bank{TemplateList: DefaultTemplates()}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read idea bank: %w", err)
	}
	return ParseBank(raw)
}

func ParseBank(raw []byte) (*Bank, error) {
	var b Bank
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("parse idea bank: %w", err)
	}
	if len(b.TemplateList) == 0 {
		b.TemplateList = DefaultTemplates()
	}
	for i := range b.TemplateList {
		if strings.TrimSpace(b.TemplateList[i].ID) == "" {
			b.TemplateList[i].ID = fmt.Sprintf("tpl_%d", i)
		}
	}
	return &b, nil
}

func (b *Bank) Templates(ctx context.Context) ([]Template, error) {
	if b == nil {
		return DefaultTemplates(), nil
	}
	return append([]Template(nil), b.TemplateList...), nil
}

func (b *Bank) Products(ctx context.Context, ids []string) ([]Product, error) {
	if b == nil {
		return nil, nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[strings.TrimSpace(id)] = true
	}
	var out []Product
	for _, p := range b.ProductList {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (b *Bank) Entries(ctx context.Context, productIDs []string) ([]KnowledgeEntry, error) {
	if b == nil {
		return nil, nil
	}
	want := make(map[string]bool, len(productIDs))
	for _, id := range productIDs {
		want[strings.TrimSpace(id)] = true
	}
	var out []KnowledgeEntry
	for _, k := range b.KnowledgeSet {
		if want[k.ProductID] {
			out = append(out, k)
		}
	}
	return out, nil
}

func DefaultTemplates() []Template {
	return []Template{
		{
			ID:          "series_story",
			Type:        string(content.SuggestionContentSeries),
			Title:       "{{count}}-part story: {{products}}",
			Description: "A week of posts that introduces each product and ties them together.",
			Platform:    "instagram",
			Weight:      62,
			MinProducts: 2,
			MaxProducts: 5,
			Keywords:    []string{"lifestyle", "outdoor", "set", "collection"},
		},
		{
			ID:          "hero_shot",
			Type:        string(content.SuggestionSinglePost),
			Title:       "Hero shot of {{product}}",
			Description: "A single striking product image with a short caption for {{platform}}.",
			Platform:    "instagram",
			Weight:      55,
			Keywords:    []string{"product", "studio", "closeup", "packaging"},
		},
		{
			ID:          "launch_campaign",
			Type:        string(content.SuggestionCampaign),
			Title:       "Launch campaign for {{products}}",
			Description: "Teaser, reveal and follow-up assets across a short campaign window.",
			Platform:    "facebook",
			Weight:      48,
			MinProducts: 1,
			MaxProducts: 8,
			Keywords:    []string{"new", "launch", "seasonal"},
		},
		{
			ID:          "coverage_gap",
			Type:        string(content.SuggestionGapFill),
			Title:       "Fill the gap: first post for {{product}}",
			Description: "{{product}} has no published content yet.",
			Platform:    "instagram",
			Weight:      40,
		},
	}
}
