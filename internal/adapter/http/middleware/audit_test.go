package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"harvest-settlement/internal/core/domain"
	"harvest-settlement/internal/core/ports/mocks"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestAuditRejections(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	auditSvc := mocks.NewMockAuditService(ctrl)

	r := gin.New()
	r.Use(AuditRejections(auditSvc))
	r.POST("/reject", func(c *gin.Context) {
		c.Set(CtxRejection, "Signature mismatch")
		c.AbortWithStatus(http.StatusUnauthorized)
	})
	r.POST("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	auditSvc.EXPECT().Record(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, entry domain.SettlementAuditLog) {
			assert.Equal(t, domain.ActionVerify, entry.Action)
			assert.Equal(t, domain.OutcomeRejected, entry.Outcome)
			assert.Contains(t, entry.Detail, "Signature mismatch from ")
		})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reject", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// accepted deliveries are not recorded here
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
