package suggestion

import (
	"context"
)

type Product struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Category string   `json:"category,omitempty" yaml:"category"`
	ImageURL string   `json:"image_url,omitempty" yaml:"image_url"`
	Tags     []string `json:"tags,omitempty" yaml:"tags"`
}

// VisionSignal is what visual analysis found for one product.
type VisionSignal struct {
	ProductID string   `json:"product_id" yaml:"product_id"`
	Labels    []string `json:"labels" yaml:"labels"`
	// Score is the analyzer's confidence in [0,1].
	Score float64 `json:"score" yaml:"score"`
}

// KnowledgeEntry is an existing piece of content already covering a product.
type KnowledgeEntry struct {
	ProductID string `json:"product_id" yaml:"product_id"`
	Topic     string `json:"topic" yaml:"topic"`
	Platform  string `json:"platform" yaml:"platform"`
}

// Template is one entry of the idea template bank. Type is kept raw so a bad
// discriminant in the bank degrades to single_post instead of failing the load.
type Template struct {
	ID          string   `json:"id" yaml:"id"`
	Type        string   `json:"type" yaml:"type"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Platform    string   `json:"platform" yaml:"platform"`
	Weight      int      `json:"weight" yaml:"weight"`
	MinProducts int      `json:"min_products" yaml:"min_products"`
	MaxProducts int      `json:"max_products" yaml:"max_products"`
	Keywords    []string `json:"keywords" yaml:"keywords"`
}

type Mode string

const (
	// ModeFull fetches every signal, including visual analysis.
	ModeFull Mode = "full"
	// ModeFast skips visual analysis.
	ModeFast Mode = "fast"
)

func ParseMode(raw string) Mode {
	if Mode(raw) == ModeFast {
		return ModeFast
	}
	return ModeFull
}

// Context is everything the engine scores against. It is supplied by a Source.
type Context struct {
	Products  []Product        `json:"products"`
	Vision    []VisionSignal   `json:"vision"`
	Knowledge []KnowledgeEntry `json:"knowledge"`
	Templates []Template       `json:"templates"`
}

type Source interface {
	FetchContext(ctx context.Context, productIDs []string, mode Mode) (Context, error)
}
