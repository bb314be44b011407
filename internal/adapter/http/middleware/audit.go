package middleware

import (
	"net/http"

	"harvest-settlement/internal/core/domain"
	"harvest-settlement/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// AuditRejections records webhook deliveries refused before routing (bad signature
// or rate limited). Routed deliveries are audited by the event router itself.
func AuditRejections(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status != http.StatusUnauthorized && status != http.StatusTooManyRequests {
			return
		}

		detail := c.ClientIP()
		if reason, ok := c.Get(CtxRejection); ok {
			if s, ok := reason.(string); ok {
				detail = s + " from " + detail
			}
		} else if status == http.StatusTooManyRequests {
			detail = "rate limited " + detail
		}

		auditSvc.Record(c.Request.Context(), domain.SettlementAuditLog{
			Action:  domain.ActionVerify,
			Outcome: domain.OutcomeRejected,
			Detail:  detail,
		})
	}
}
