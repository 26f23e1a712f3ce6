package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/ideabank-backend/internal/http/response"
	"github.com/yungbote/ideabank-backend/internal/pkg/ctxutil"
	"github.com/yungbote/ideabank-backend/internal/services"
)

type GenerationHandler struct {
	generations services.GenerationService
}

func NewGenerationHandler(generations services.GenerationService) *GenerationHandler {
	return &GenerationHandler{generations: generations}
}

// GET /api/generations
func (h *GenerationHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	views, err := h.generations.List(c.Request.Context(), ctxutil.UserID(c.Request.Context()), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, views)
}

// GET /api/generations/:id
func (h *GenerationHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_generation_id", err)
		return
	}
	view, err := h.generations.Get(c.Request.Context(), ctxutil.UserID(c.Request.Context()), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, view)
}

type editRequest struct {
	EditPrompt string `json:"editPrompt"`
}

// POST /api/generations/:id/edit
func (h *GenerationHandler) Edit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_generation_id", err)
		return
	}
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	view, err := h.generations.Edit(c.Request.Context(), ctxutil.UserID(c.Request.Context()), id, req.EditPrompt)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondCreated(c, view)
}
