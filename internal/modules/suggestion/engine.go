package suggestion

import (
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/ideabank-backend/internal/domain/content"
)

const (
	DefaultMaxSuggestions = 6
	MaxSuggestionsCap     = 20

	defaultTemplateWeight = 50
	labelMatchBonus       = 8
	visionScoreScale      = 10
	knowledgeBonus        = 3
	knowledgeBonusCap     = 15
	gapFillBonus          = 20
	defaultPlatform       = "instagram"
)

var suggestionNamespace = uuid.MustParse("5f0c6f2e-8a57-4f2b-9d1e-3b1a7c0e9d42")

// Engine turns a product selection plus context into ranked suggestions.
// It is a pure transformation: identical inputs give identical output.
type Engine struct {
	Templates []Template
}

func NewEngine() *Engine {
	return &Engine{Templates: DefaultTemplates()}
}

// Suggest ranks suggestions by descending confidence. Ties keep generation order.
// An empty selection yields an empty, non-nil result.
func (e *Engine) Suggest(productIDs []string, sc Context, maxSuggestions int) []content.AgentSuggestion {
	selected := resolveProducts(productIDs, sc.Products)
	if len(selected) == 0 {
		return []content.AgentSuggestion{}
	}
	if maxSuggestions <= 0 {
		maxSuggestions = DefaultMaxSuggestions
	}
	if maxSuggestions > MaxSuggestionsCap {
		maxSuggestions = MaxSuggestionsCap
	}

	templates := sc.Templates
	if len(templates) == 0 && e != nil {
		templates = e.Templates
	}
	if len(templates) == 0 {
		templates = DefaultTemplates()
	}

	idx := indexContext(sc)
	var cands []content.AgentSuggestion
	for _, tpl := range templates {
		for _, group := range groupsFor(tpl, selected, idx) {
			cands = append(cands, build(tpl, group, idx))
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Confidence > cands[j].Confidence
	})
	if len(cands) > maxSuggestions {
		cands = cands[:maxSuggestions]
	}
	if cands == nil {
		cands = []content.AgentSuggestion{}
	}
	return cands
}

type contextIndex struct {
	vision    map[string][]VisionSignal
	knowledge map[string][]KnowledgeEntry
}

func indexContext(sc Context) contextIndex {
	idx := contextIndex{
		vision:    map[string][]VisionSignal{},
		knowledge: map[string][]KnowledgeEntry{},
	}
	for _, v := range sc.Vision {
		idx.vision[v.ProductID] = append(idx.vision[v.ProductID], v)
	}
	for _, k := range sc.Knowledge {
		idx.knowledge[k.ProductID] = append(idx.knowledge[k.ProductID], k)
	}
	return idx
}

func resolveProducts(ids []string, known []Product) []Product {
	byID := make(map[string]Product, len(known))
	for _, p := range known {
		byID[p.ID] = p
	}
	seen := map[string]bool{}
	out := make([]Product, 0, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		p, ok := byID[id]
		if !ok {
			p = Product{ID: id}
		}
		if strings.TrimSpace(p.Name) == "" {
			p.Name = id
		}
		out = append(out, p)
	}
	return out
}

// groupsFor decides which product groups a template yields candidates for.
func groupsFor(tpl Template, selected []Product, idx contextIndex) [][]Product {
	switch content.ParseSuggestionType(tpl.Type) {
	case content.SuggestionContentSeries, content.SuggestionCampaign:
		group := selected
		if tpl.MaxProducts > 0 && len(group) > tpl.MaxProducts {
			group = group[:tpl.MaxProducts]
		}
		if len(group) < max(tpl.MinProducts, 1) {
			return nil
		}
		return [][]Product{group}
	case content.SuggestionGapFill:
		var out [][]Product
		for _, p := range selected {
			if len(idx.knowledge[p.ID]) == 0 {
				out = append(out, []Product{p})
			}
		}
		return out
	case content.SuggestionSinglePost:
		fallthrough
	default:
		out := make([][]Product, 0, len(selected))
		for _, p := range selected {
			out = append(out, []Product{p})
		}
		return out
	}
}

func build(tpl Template, group []Product, idx contextIndex) content.AgentSuggestion {
	typ := content.ParseSuggestionType(tpl.Type)
	meta := typ.Meta()

	platform := strings.TrimSpace(tpl.Platform)
	if platform == "" {
		platform = defaultPlatform
	}

	refs := make([]content.ProductRef, 0, len(group))
	names := make([]string, 0, len(group))
	ids := make([]string, 0, len(group))
	for _, p := range group {
		refs = append(refs, content.ProductRef{ID: p.ID, Name: p.Name})
		names = append(names, p.Name)
		ids = append(ids, p.ID)
	}

	title := strings.TrimSpace(tpl.Title)
	if title == "" {
		title = meta.Label + ": {{products}}"
	}
	desc := strings.TrimSpace(tpl.Description)
	if desc == "" {
		desc = meta.Description
	}
	r := strings.NewReplacer(
		"{{product}}", names[0],
		"{{products}}", strings.Join(names, ", "),
		"{{platform}}", platform,
		"{{count}}", strconv.Itoa(len(group)),
	)

	key := tpl.ID + "|" + string(typ) + "|" + strings.Join(ids, ",")
	return content.AgentSuggestion{
		ID:          uuid.NewSHA1(suggestionNamespace, []byte(key)).String(),
		Type:        typ,
		Title:       r.Replace(title),
		Description: r.Replace(desc),
		Products:    refs,
		Platform:    platform,
		Confidence:  score(tpl, typ, group, platform, idx),
	}
}

// score may land outside [0,100]; consumers clamp for display.
func score(tpl Template, typ content.SuggestionType, group []Product, platform string, idx contextIndex) int {
	total := tpl.Weight
	if total == 0 {
		total = defaultTemplateWeight
	}

	keywords := map[string]bool{}
	for _, k := range tpl.Keywords {
		keywords[strings.ToLower(strings.TrimSpace(k))] = true
	}
	matched := map[string]bool{}
	var visionSum float64
	var visionN int
	for _, p := range group {
		for _, sig := range idx.vision[p.ID] {
			visionSum += sig.Score
			visionN++
			for _, l := range sig.Labels {
				l = strings.ToLower(strings.TrimSpace(l))
				if keywords[l] {
					matched[l] = true
				}
			}
		}
		for _, tag := range p.Tags {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if keywords[tag] {
				matched[tag] = true
			}
		}
	}
	total += labelMatchBonus * len(matched)
	if visionN > 0 {
		total += int(visionSum / float64(visionN) * visionScoreScale)
	}

	if typ == content.SuggestionGapFill {
		return total + gapFillBonus
	}
	bonus := 0
	for _, p := range group {
		for _, k := range idx.knowledge[p.ID] {
			if k.Platform == "" || strings.EqualFold(k.Platform, platform) {
				bonus += knowledgeBonus
			}
		}
	}
	return total + min(bonus, knowledgeBonusCap)
}
