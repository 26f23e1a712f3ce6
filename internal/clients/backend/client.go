package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/ideabank-backend/internal/contract"
	"github.com/yungbote/ideabank-backend/internal/domain/content"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
)

const (
	generatePath = "/v1/generate"
	editPath     = "/v1/edit"
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Model   string
}

type generateRequest struct {
	Prompt      string   `json:"prompt"`
	Model       string   `json:"model,omitempty"`
	AspectRatio string   `json:"aspect_ratio,omitempty"`
	ProductIDs  []string `json:"product_ids,omitempty"`
	Platform    string   `json:"platform,omitempty"`
}

type editRequest struct {
	ParentGenerationID  string          `json:"parent_generation_id"`
	EditPrompt          string          `json:"edit_prompt"`
	ConversationHistory json.RawMessage `json:"conversation_history"`
}

type generationResponse struct {
	Status              string          `json:"status" validate:"required"`
	Result              string          `json:"result"`
	ImageURL            string          `json:"image_url"`
	ResultLocator       string          `json:"result_locator"`
	Model               string          `json:"model"`
	AspectRatio         string          `json:"aspect_ratio"`
	ConversationHistory json.RawMessage `json:"conversation_history"`
	Error               string          `json:"error"`
}

// Client calls the remote generation service. Failures are classified but never retried.
type Client struct {
	log   *logger.Logger
	api   *contract.Client
	model string
}

func New(baseLog *logger.Logger, cfg Config, httpClient *http.Client) *Client {
	return &Client{
		log: baseLog.With("client", "GenerationBackend"),
		api: contract.New(baseLog, contract.Config{
			BaseURL:     cfg.BaseURL,
			BearerToken: cfg.APIKey,
			Timeout:     cfg.Timeout,
			NoToken:     true,
		}, httpClient),
		model: strings.TrimSpace(cfg.Model),
	}
}

func (c *Client) Generate(ctx context.Context, prompt string, opts content.GenerateOptions) (content.BackendResult, error) {
	model := opts.Model
	if model == "" {
		model = c.model
	}
	req := generateRequest{
		Prompt:      strings.TrimSpace(prompt),
		Model:       model,
		AspectRatio: opts.AspectRatio,
		ProductIDs:  opts.ProductIDs,
		Platform:    opts.Platform,
	}
	return c.call(ctx, generatePath, req)
}

func (c *Client) Edit(ctx context.Context, parentID uuid.UUID, editPrompt string, history datatypes.JSON) (content.BackendResult, error) {
	req := editRequest{
		ParentGenerationID:  parentID.String(),
		EditPrompt:          strings.TrimSpace(editPrompt),
		ConversationHistory: json.RawMessage(history),
	}
	return c.call(ctx, editPath, req)
}

func (c *Client) call(ctx context.Context, path string, body any) (content.BackendResult, error) {
	start := time.Now()
	var out generationResponse
	res, err := c.api.Request(ctx, http.MethodPost, path, body, &out)
	if err != nil {
		cerr := classify(err)
		c.log.Warn("generation backend call failed", "path", path, "error", cerr, "elapsed_ms", time.Since(start).Milliseconds())
		return content.BackendResult{}, cerr
	}
	if !res.Valid {
		// Decoding may have stopped at the first bad field; read what survives leniently.
		out = lenientDecode(res.Raw)
	}

	status := strings.ToLower(strings.TrimSpace(out.Status))
	if status == string(content.GenerationFailed) {
		msg := strings.TrimSpace(out.Error)
		if msg == "" {
			msg = "no error message"
		}
		return content.BackendResult{}, &BackendError{Kind: KindFailed, Status: res.Status, Err: errors.New(msg)}
	}

	locator := strings.TrimSpace(out.ResultLocator)
	if locator == "" {
		locator = strings.TrimSpace(out.ImageURL)
	}
	if res.Status == http.StatusNoContent || (locator == "" && strings.TrimSpace(out.Result) == "") {
		return content.BackendResult{}, &BackendError{Kind: KindNoContent, Status: res.Status, Err: errors.New("empty result")}
	}

	c.log.Debug("generation backend call complete", "path", path, "status", status, "elapsed_ms", time.Since(start).Milliseconds())
	return content.BackendResult{
		Status:              status,
		Result:              out.Result,
		ResultLocator:       locator,
		Model:               out.Model,
		AspectRatio:         out.AspectRatio,
		ConversationHistory: normalizeHistory(out.ConversationHistory),
	}, nil
}

func lenientDecode(raw []byte) generationResponse {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return generationResponse{}
	}
	str := func(k string) string {
		if s, ok := m[k].(string); ok {
			return s
		}
		return ""
	}
	out := generationResponse{
		Status:        str("status"),
		Result:        str("result"),
		ImageURL:      str("image_url"),
		ResultLocator: str("result_locator"),
		Model:         str("model"),
		AspectRatio:   str("aspect_ratio"),
		Error:         str("error"),
	}
	if h, ok := m["conversation_history"]; ok && h != nil {
		if b, err := json.Marshal(h); err == nil {
			out.ConversationHistory = b
		}
	}
	return out
}

// normalizeHistory treats JSON null and empty input as no continuation context.
func normalizeHistory(h json.RawMessage) json.RawMessage {
	t := strings.TrimSpace(string(h))
	if t == "" || t == "null" {
		return nil
	}
	return json.RawMessage(t)
}
