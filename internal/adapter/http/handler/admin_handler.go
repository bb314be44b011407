package handler

import (
	"harvest-settlement/internal/adapter/http/dto"
	"harvest-settlement/internal/core/ports"
	"harvest-settlement/pkg/apperror"
	"harvest-settlement/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// AdminHandler serves read-only settlement endpoints for operators.
type AdminHandler struct {
	auditSvc ports.AuditService
	guard    ports.TransitionGuard
	credits  ports.CreditApplier
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(auditSvc ports.AuditService, guard ports.TransitionGuard, credits ports.CreditApplier) *AdminHandler {
	return &AdminHandler{auditSvc: auditSvc, guard: guard, credits: credits}
}

// ListSettlements handles GET /api/v1/admin/settlements.
func (h *AdminHandler) ListSettlements(c *gin.Context) {
	var q dto.SettlementListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&q)

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}

	items, total, err := h.auditSvc.List(c.Request.Context(), ports.AuditListParams{
		OrderID:  q.OrderID,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		response.Error(c, apperror.ErrDatabaseError(err))
		return
	}

	response.OK(c, dto.SettlementListResponse{
		Items:    items,
		Total:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
}

// OrderTransitions handles GET /api/v1/admin/orders/:order_id/transitions.
func (h *AdminHandler) OrderTransitions(c *gin.Context) {
	var p dto.OrderParam
	if err := c.ShouldBindUri(&p); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	view, err := h.guard.Inspect(c.Request.Context(), p.OrderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// CreditGrant handles GET /api/v1/admin/credits/:order_id.
func (h *AdminHandler) CreditGrant(c *gin.Context) {
	var p dto.OrderParam
	if err := c.ShouldBindUri(&p); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	view, err := h.credits.Lookup(c.Request.Context(), p.OrderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}
