package suggestion

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
)

type ProductCatalog interface {
	Products(ctx context.Context, ids []string) ([]Product, error)
}

type VisionAnalyzer interface {
	Analyze(ctx context.Context, products []Product) ([]VisionSignal, error)
}

type KnowledgeBase interface {
	Entries(ctx context.Context, productIDs []string) ([]KnowledgeEntry, error)
}

type TemplateBank interface {
	Templates(ctx context.Context) ([]Template, error)
}

// CompositeSource assembles a Context from independent collaborators.
// Products are resolved first; vision, knowledge and templates are then fetched concurrently.
// A vision failure degrades to no signals; any other failure fails the fetch.
type CompositeSource struct {
	log       *logger.Logger
	catalog   ProductCatalog
	vision    VisionAnalyzer
	knowledge KnowledgeBase
	templates TemplateBank
}

func NewCompositeSource(baseLog *logger.Logger, catalog ProductCatalog, vision VisionAnalyzer, knowledge KnowledgeBase, templates TemplateBank) *CompositeSource {
	return &CompositeSource{
		log:       baseLog.With("service", "SuggestionContextSource"),
		catalog:   catalog,
		vision:    vision,
		knowledge: knowledge,
		templates: templates,
	}
}

func (s *CompositeSource) FetchContext(ctx context.Context, productIDs []string, mode Mode) (Context, error) {
	var out Context
	if len(productIDs) == 0 {
		return out, nil
	}

	if s.catalog != nil {
		products, err := s.catalog.Products(ctx, productIDs)
		if err != nil {
			return Context{}, fmt.Errorf("fetch products: %w", err)
		}
		out.Products = products
	}

	g, gctx := errgroup.WithContext(ctx)
	if s.vision != nil && mode != ModeFast {
		products := resolveProducts(productIDs, out.Products)
		g.Go(func() error {
			signals, err := s.vision.Analyze(gctx, products)
			if err != nil {
				s.log.Warn("vision analysis failed; continuing without signals", "error", err)
				return nil
			}
			out.Vision = signals
			return nil
		})
	}
	if s.knowledge != nil {
		g.Go(func() error {
			entries, err := s.knowledge.Entries(gctx, productIDs)
			if err != nil {
				return fmt.Errorf("fetch knowledge: %w", err)
			}
			out.Knowledge = entries
			return nil
		})
	}
	if s.templates != nil {
		g.Go(func() error {
			tpls, err := s.templates.Templates(gctx)
			if err != nil {
				return fmt.Errorf("fetch templates: %w", err)
			}
			out.Templates = tpls
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Context{}, err
	}
	return out, nil
}
