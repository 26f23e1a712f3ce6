package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/ideabank-backend/internal/clients/backend"
	"github.com/yungbote/ideabank-backend/internal/modules/lineage"
	"github.com/yungbote/ideabank-backend/internal/modules/plan"
	pkgerrors "github.com/yungbote/ideabank-backend/internal/pkg/errors"
	"github.com/yungbote/ideabank-backend/internal/pkg/httpx"
)

// Classify maps a service error onto an HTTP status and an envelope code.
func Classify(err error) (int, string) {
	if ie, ok := lineage.IsIntegrity(err); ok {
		switch ie.Reason {
		case lineage.ReasonParentNotFound:
			return http.StatusNotFound, string(ie.Reason)
		default:
			return http.StatusConflict, string(ie.Reason)
		}
	}

	var be *backend.BackendError
	if errors.As(err, &be) {
		switch be.Kind {
		case backend.KindRateLimit:
			return http.StatusTooManyRequests, "backend_rate_limited"
		case backend.KindTimeout:
			return http.StatusGatewayTimeout, "backend_timeout"
		case backend.KindAuth:
			return http.StatusBadGateway, "backend_auth"
		case backend.KindNoContent:
			return http.StatusBadGateway, "backend_no_content"
		default:
			return http.StatusBadGateway, "backend_failed"
		}
	}

	if status := httpx.StatusCodeOf(err); status >= 400 && status <= 599 {
		return status, "upstream_error"
	}

	switch {
	case errors.Is(err, plan.ErrPlanCancelled):
		return http.StatusConflict, "plan_cancelled"
	case errors.Is(err, pkgerrors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, pkgerrors.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, pkgerrors.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	}
	return http.StatusInternalServerError, "internal_error"
}

// Error writes err with the status Classify picks. Internal errors never leak their message.
func Error(c *gin.Context, err error) {
	status, code := Classify(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		RespondError(c, status, code, errors.New("internal server error"))
		return
	}
	RespondError(c, status, code, err)
}
