package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/ideabank-backend/internal/domain/content"
	"github.com/yungbote/ideabank-backend/internal/http/response"
	"github.com/yungbote/ideabank-backend/internal/pkg/ctxutil"
	"github.com/yungbote/ideabank-backend/internal/services"
)

var errMissingSuggestion = errors.New("suggestion is required")

type PlanHandler struct {
	plans services.PlanService
}

func NewPlanHandler(plans services.PlanService) *PlanHandler {
	return &PlanHandler{plans: plans}
}

type createPlanRequest struct {
	Suggestion *content.AgentSuggestion `json:"suggestion"`
}

// POST /api/plans
func (h *PlanHandler) Create(c *gin.Context) {
	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Suggestion == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errMissingSuggestion)
		return
	}
	view, err := h.plans.Create(c.Request.Context(), ctxutil.UserID(c.Request.Context()), *req.Suggestion)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusAccepted, view)
}

// GET /api/plans
func (h *PlanHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	views, err := h.plans.List(c.Request.Context(), ctxutil.UserID(c.Request.Context()), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, views)
}

// GET /api/plans/:id
func (h *PlanHandler) Get(c *gin.Context) {
	h.withPlanID(c, h.plans.Get)
}

// POST /api/plans/:id/retry
func (h *PlanHandler) Retry(c *gin.Context) {
	h.withPlanID(c, h.plans.Retry)
}

// POST /api/plans/:id/cancel
func (h *PlanHandler) Cancel(c *gin.Context) {
	h.withPlanID(c, h.plans.Cancel)
}

type planOp func(ctx context.Context, userID, id uuid.UUID) (*services.PlanView, error)

func (h *PlanHandler) withPlanID(c *gin.Context, op planOp) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_plan_id", err)
		return
	}
	view, err := op(c.Request.Context(), ctxutil.UserID(c.Request.Context()), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, view)
}
