package lineage

import (
	"strings"
	"time"

	"github.com/yungbote/ideabank-backend/internal/domain/content"
)

// View is the client-facing shape of a Generation.
type View struct {
	ID                 string    `json:"id" validate:"required"`
	Prompt             string    `json:"prompt"`
	ImageURL           string    `json:"imageUrl"`
	CanEdit            bool      `json:"canEdit"`
	AspectRatio        string    `json:"aspectRatio"`
	Model              string    `json:"model,omitempty"`
	Status             string    `json:"status" validate:"required"`
	EditPrompt         string    `json:"editPrompt,omitempty"`
	EditCount          int       `json:"editCount" validate:"gte=0"`
	ParentGenerationID *string   `json:"parentGenerationId"`
	CreatedAt          time.Time `json:"createdAt"`
}

func ToView(g *content.Generation) View {
	if g == nil {
		return View{}
	}
	v := View{
		ID:          g.ID.String(),
		Prompt:      g.Prompt,
		ImageURL:    ImageURL(g.ImagePath),
		CanEdit:     g.CanEdit(),
		AspectRatio: g.AspectRatio,
		Model:       g.Model,
		Status:      g.Status,
		EditPrompt:  g.EditPrompt,
		EditCount:   g.EditCount,
		CreatedAt:   g.CreatedAt,
	}
	if g.ParentGenerationID != nil {
		pid := g.ParentGenerationID.String()
		v.ParentGenerationID = &pid
	}
	return v
}

func ToViews(gs []*content.Generation) []View {
	out := make([]View, 0, len(gs))
	for _, g := range gs {
		if g == nil {
			continue
		}
		out = append(out, ToView(g))
	}
	return out
}

// ImageURL returns absolute http(s) locators unchanged and turns storage-relative
// paths into root-relative ones with exactly one leading slash.
func ImageURL(path string) string {
	p := strings.TrimSpace(path)
	if p == "" {
		return ""
	}
	lower := strings.ToLower(p)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return p
	}
	return "/" + strings.TrimLeft(p, "/")
}
