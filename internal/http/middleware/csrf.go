package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/ideabank-backend/internal/pkg/httpx"
	"github.com/yungbote/ideabank-backend/internal/services"
)

const HeaderCSRFToken = "X-CSRF-Token"

// RequireCSRF rejects writes without a valid anti-forgery header. Reads pass through.
// With enforce off every request passes.
func RequireCSRF(csrf *services.CSRFService, enforce bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enforce || csrf == nil || !httpx.IsWrite(c.Request.Method) {
			c.Next()
			return
		}
		if err := csrf.Verify(strings.TrimSpace(c.GetHeader(HeaderCSRFToken))); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{"message": err.Error(), "code": "csrf_invalid"},
			})
			return
		}
		c.Next()
	}
}
