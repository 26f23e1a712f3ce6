package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/ideabank-backend/internal/http/response"
	"github.com/yungbote/ideabank-backend/internal/services"
)

type SuggestionHandler struct {
	suggestions services.SuggestionService
}

func NewSuggestionHandler(suggestions services.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{suggestions: suggestions}
}

type suggestRequest struct {
	ProductIDs     []string `json:"productIds"`
	MaxSuggestions int      `json:"maxSuggestions"`
	Mode           string   `json:"mode"`
}

// POST /api/idea-bank/suggest
func (h *SuggestionHandler) Suggest(c *gin.Context) {
	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	out, err := h.suggestions.Suggest(c.Request.Context(), services.SuggestRequest{
		ProductIDs:     req.ProductIDs,
		MaxSuggestions: req.MaxSuggestions,
		Mode:           req.Mode,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"suggestions": out})
}
