package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/ideabank-backend/internal/http/response"
	"github.com/yungbote/ideabank-backend/internal/services"
)

type CSRFHandler struct {
	csrf *services.CSRFService
}

func NewCSRFHandler(csrf *services.CSRFService) *CSRFHandler {
	return &CSRFHandler{csrf: csrf}
}

// GET /api/csrf-token
func (h *CSRFHandler) Token(c *gin.Context) {
	token, exp, err := h.csrf.Issue()
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "csrf_issue_failed", err)
		return
	}
	c.Header("Cache-Control", "no-store")
	response.RespondOK(c, gin.H{"token": token, "expiresAt": exp})
}
