package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/ideabank-backend/internal/http/response"
	"github.com/yungbote/ideabank-backend/internal/pkg/ctxutil"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
	"github.com/yungbote/ideabank-backend/internal/realtime"
	"github.com/yungbote/ideabank-backend/internal/services"
)

// RealtimeHandler streams step events of one plan to its owner.
type RealtimeHandler struct {
	Log   *logger.Logger
	Hub   *realtime.SSEHub
	Plans services.PlanService
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub, plans services.PlanService) *RealtimeHandler {
	return &RealtimeHandler{
		Log:   log.With("handler", "RealtimeHandler"),
		Hub:   hub,
		Plans: plans,
	}
}

// GET /api/plans/:id/events
func (h *RealtimeHandler) PlanEvents(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_plan_id", err)
		return
	}
	userID := ctxutil.UserID(c.Request.Context())

	// Subscribe before reading the snapshot so no later transition is missed.
	client := h.Hub.NewSSEClient(userID)
	h.Hub.AddChannel(client, realtime.PlanChannel(planID))
	defer h.Hub.CloseClient(client)

	view, err := h.Plans.Get(c.Request.Context(), userID, planID)
	if err != nil {
		response.Error(c, err)
		return
	}
	channel := realtime.PlanChannel(planID)
	h.Log.Info("plan event stream open", "user_id", userID, "plan_id", planID, "client_id", client.ID, "subscribers", h.Hub.Subscribers(channel))

	select {
	case client.Outbound <- realtime.SSEMessage{
		Channel: channel,
		Event:   realtime.SSEEventPlanSnapshot,
		Data:    view,
	}:
	default:
	}
	h.Hub.ServeHTTP(c.Writer, c.Request, client)
}
