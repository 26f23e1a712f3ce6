package content

import "encoding/json"

// GenerateOptions carries the per-call knobs passed to the generation backend.
type GenerateOptions struct {
	Model       string   `json:"model,omitempty"`
	AspectRatio string   `json:"aspect_ratio,omitempty"`
	ProductIDs  []string `json:"product_ids,omitempty"`
	Platform    string   `json:"platform,omitempty"`
}

// BackendResult is the normalized outcome of a generate or edit call.
type BackendResult struct {
	Status        string `json:"status"`
	Result        string `json:"result,omitempty"`
	ResultLocator string `json:"result_locator,omitempty"`
	Model         string `json:"model,omitempty"`
	AspectRatio   string `json:"aspect_ratio,omitempty"`
	// ConversationHistory is empty when the backend did not keep continuation context.
	ConversationHistory json.RawMessage `json:"conversation_history,omitempty"`
}
