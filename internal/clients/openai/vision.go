package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/yungbote/ideabank-backend/internal/modules/suggestion"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
)

const defaultVisionModel = "gpt-4o-mini"

const labelSystemPrompt = `You tag retail products for social content planning.
For every product return short lowercase visual labels (scene, style, colour, use) and a score between 0 and 1 for how photogenic the product is.
Reply with JSON only: {"products":[{"id":"...","labels":["..."],"score":0.5}]}`

type VisionConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// VisionAnalyzer derives label signals for products through chat completions.
type VisionAnalyzer struct {
	log   *logger.Logger
	model string
	opts  []option.RequestOption
}

func NewVisionAnalyzer(baseLog *logger.Logger, cfg VisionConfig, httpClient *http.Client) (*VisionAnalyzer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("missing OPENAI_API_KEY")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultVisionModel
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &VisionAnalyzer{
		log:   baseLog.With("client", "OpenAIVision"),
		model: model,
		opts:  opts,
	}, nil
}

type labelReply struct {
	Products []struct {
		ID     string   `json:"id"`
		Labels []string `json:"labels"`
		Score  float64  `json:"score"`
	} `json:"products"`
}

func (v *VisionAnalyzer) Analyze(ctx context.Context, products []suggestion.Product) ([]suggestion.VisionSignal, error) {
	if len(products) == 0 {
		return nil, nil
	}
	client := sdk.NewClient(v.opts...)

	resp, err := client.Chat.Completions.New(ctx, sdk.ChatCompletionNewParams{
		Model: sdk.ChatModel(v.model),
		Messages: []sdk.ChatCompletionMessageParamUnion{
			sdk.SystemMessage(labelSystemPrompt),
			sdk.UserMessage(describeProducts(products)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai label request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: empty choices")
	}
	signals, err := parseLabelReply(resp.Choices[0].Message.Content, products)
	if err != nil {
		return nil, err
	}
	v.log.Debug("vision labels received", "products", len(products), "signals", len(signals))
	return signals, nil
}

func describeProducts(products []suggestion.Product) string {
	var b strings.Builder
	b.WriteString("Products:\n")
	for _, p := range products {
		fmt.Fprintf(&b, "- id=%s name=%q", p.ID, p.Name)
		if p.Category != "" {
			fmt.Fprintf(&b, " category=%q", p.Category)
		}
		if len(p.Tags) > 0 {
			fmt.Fprintf(&b, " tags=%q", strings.Join(p.Tags, ","))
		}
		if p.ImageURL != "" {
			fmt.Fprintf(&b, " image=%s", p.ImageURL)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// parseLabelReply keeps only products that were asked about and clamps scores to [0,1].
func parseLabelReply(raw string, products []suggestion.Product) ([]suggestion.VisionSignal, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var reply labelReply
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &reply); err != nil {
		return nil, fmt.Errorf("decode label reply: %w", err)
	}
	asked := make(map[string]bool, len(products))
	for _, p := range products {
		asked[p.ID] = true
	}
	out := make([]suggestion.VisionSignal, 0, len(reply.Products))
	for _, p := range reply.Products {
		if !asked[p.ID] {
			continue
		}
		labels := make([]string, 0, len(p.Labels))
		for _, l := range p.Labels {
			if l = strings.ToLower(strings.TrimSpace(l)); l != "" {
				labels = append(labels, l)
			}
		}
		score := p.Score
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		out = append(out, suggestion.VisionSignal{ProductID: p.ID, Labels: labels, Score: score})
	}
	return out, nil
}
