package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"harvest-settlement/internal/adapter/http/middleware"
	"harvest-settlement/internal/core/domain"
	"harvest-settlement/internal/core/ports"
	"harvest-settlement/internal/core/ports/mocks"
	"harvest-settlement/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const paidBody = `{"data":{"id":"evt_1","type":"event","attributes":{"type":"payment.paid","livemode":false,` +
	`"data":{"id":"pay_1","type":"payment","attributes":{"amount":15000,"currency":"PHP","status":"paid",` +
	`"metadata":{"order_id":"ORD-123"}}}}}}`

func postWebhook(h *WebhookHandler, body, sig string) *httptest.ResponseRecorder {
	r := gin.New()
	r.Use(middleware.RequestID(zerolog.Nop()))
	r.POST("/webhooks/paymongo", h.Receive)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/paymongo", bytes.NewBufferString(body))
	if sig != "" {
		req.Header.Set("Paymongo-Signature", sig)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// --- Webhook Handler Tests ---

func TestReceive_Routed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	verifier := mocks.NewMockSignatureVerifier(ctrl)
	router := mocks.NewMockEventRouter(ctrl)
	h := NewWebhookHandler(verifier, router, zerolog.Nop())

	verifier.EXPECT().Verify([]byte(paidBody), "t=1700000000,te=,li=abc").Return(nil)
	router.EXPECT().Route(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, evt *domain.WebhookEvent) (*ports.RouteResult, error) {
			assert.Equal(t, "evt_1", evt.ID)
			assert.Equal(t, domain.EventPaymentPaid, evt.Type)
			assert.Equal(t, int64(1700000000), evt.Timestamp)
			assert.Equal(t, "ORD-123", evt.Resource.Metadata.String("order_id"))
			return &ports.RouteResult{Action: domain.ActionTransition, Outcome: domain.OutcomeApplied, OrderID: "ORD-123"}, nil
		})

	w := postWebhook(h, paidBody, "t=1700000000,te=,li=abc")

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, true, resp["received"])
	assert.Equal(t, w.Header().Get(middleware.HeaderRequestID), resp["request_id"])
}

func TestReceive_SignatureRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	verifier := mocks.NewMockSignatureVerifier(ctrl)
	router := mocks.NewMockEventRouter(ctrl)
	h := NewWebhookHandler(verifier, router, zerolog.Nop())

	verifier.EXPECT().Verify(gomock.Any(), "").Return(apperror.ErrMissingSignature())

	w := postWebhook(h, paidBody, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "Invalid signature", resp["error"])
	assert.NotEmpty(t, resp["details"])
}

func TestReceive_MalformedPayloadAcknowledged(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	verifier := mocks.NewMockSignatureVerifier(ctrl)
	router := mocks.NewMockEventRouter(ctrl)
	h := NewWebhookHandler(verifier, router, zerolog.Nop())

	verifier.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(nil)
	// router must not be called

	w := postWebhook(h, `{"data":`, "t=1,li=abc")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["received"])
}

func TestReceive_RoutingInterrupted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	verifier := mocks.NewMockSignatureVerifier(ctrl)
	router := mocks.NewMockEventRouter(ctrl)
	h := NewWebhookHandler(verifier, router, zerolog.Nop())

	verifier.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(nil)
	router.EXPECT().Route(gomock.Any(), gomock.Any()).
		Return(&ports.RouteResult{Outcome: domain.OutcomeFailed}, context.Canceled)

	w := postWebhook(h, paidBody, "t=1,li=abc")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "Internal server error", resp["error"])
	assert.NotEmpty(t, resp["request_id"])
}

func TestReceive_UnsignedModeWarns(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var buf bytes.Buffer
	router := mocks.NewMockEventRouter(ctrl)
	h := NewWebhookHandler(nil, router, zerolog.New(&buf))

	router.EXPECT().Route(gomock.Any(), gomock.Any()).
		Return(&ports.RouteResult{Action: domain.ActionIgnore, Outcome: domain.OutcomeNoop}, nil)

	r := gin.New()
	r.POST("/webhooks/paymongo", h.Receive)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/paymongo", bytes.NewBufferString(paidBody)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, buf.String(), "signature verification disabled")
}

// --- Admin Handler Tests ---

func TestListSettlements(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	auditSvc := mocks.NewMockAuditService(ctrl)
	h := NewAdminHandler(auditSvc, mocks.NewMockTransitionGuard(ctrl), mocks.NewMockCreditApplier(ctrl))

	auditSvc.EXPECT().List(gomock.Any(), ports.AuditListParams{OrderID: "ORD-123", Page: 2, PageSize: 20}).
		Return([]domain.SettlementAuditLog{{EventID: "evt_1", OrderID: "ORD-123", Outcome: domain.OutcomeApplied}}, int64(21), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/admin/settlements?order_id=ORD-123&page=2", nil)

	h.ListSettlements(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(21), data["total"])
	assert.Equal(t, float64(2), data["page"])
	assert.Len(t, data["items"], 1)
}

func TestListSettlements_InvalidQuery(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewAdminHandler(mocks.NewMockAuditService(ctrl), mocks.NewMockTransitionGuard(ctrl), mocks.NewMockCreditApplier(ctrl))

	for _, q := range []string{"?page_size=500", "?order_id=ORD%20123", "?page=0x1"} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/admin/settlements"+q, nil)

		h.ListSettlements(c)

		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestListSettlements_StoreDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	auditSvc := mocks.NewMockAuditService(ctrl)
	h := NewAdminHandler(auditSvc, mocks.NewMockTransitionGuard(ctrl), mocks.NewMockCreditApplier(ctrl))

	auditSvc.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, int64(0), errors.New("conn refused"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/admin/settlements", nil)

	h.ListSettlements(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "SYS_001", decode(t, w)["error_code"])
}

func TestOrderTransitions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	guard := mocks.NewMockTransitionGuard(ctrl)
	h := NewAdminHandler(mocks.NewMockAuditService(ctrl), guard, mocks.NewMockCreditApplier(ctrl))

	r := gin.New()
	r.GET("/orders/:order_id/transitions", h.OrderTransitions)

	guard.EXPECT().Inspect(gomock.Any(), "ORD-123").Return(&ports.OrderTransitions{
		OrderID:        "ORD-123",
		Status:         domain.OrderStatusToPay,
		AllowedTargets: []domain.OrderStatus{domain.OrderStatusToShip, domain.OrderStatusPaymentFailed},
	}, nil)
	guard.EXPECT().Inspect(gomock.Any(), "ORD-404").Return(nil, apperror.ErrOrderNotFound("ORD-404"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/ORD-123/transitions", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "to_pay", data["status"])
	assert.Equal(t, false, data["advanced"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/ORD-404/transitions", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ORD_001", decode(t, w)["error_code"])
}

func TestCreditGrant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	credits := mocks.NewMockCreditApplier(ctrl)
	h := NewAdminHandler(mocks.NewMockAuditService(ctrl), mocks.NewMockTransitionGuard(ctrl), credits)

	r := gin.New()
	r.GET("/credits/:order_id", h.CreditGrant)

	credits.EXPECT().Lookup(gomock.Any(), "CREDITS-abc").Return(&ports.CreditGrantView{
		Grant:   domain.CreditGrant{GrantKey: "CREDITS-abc", OrderID: "CREDITS-abc", UserID: "U1", Credits: 50, EventID: "evt_1"},
		Balance: 120,
	}, nil)
	credits.EXPECT().Lookup(gomock.Any(), "CREDITS-none").Return(nil, apperror.ErrGrantNotFound("CREDITS-none"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/credits/CREDITS-abc", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(120), data["balance"])
	assert.Equal(t, "U1", data["grant"].(map[string]interface{})["user_id"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/credits/CREDITS-none", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "CRD_002", decode(t, w)["error_code"])
}

// --- Health Tests ---

func TestHealthCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pg := mocks.NewMockHealthChecker(ctrl)
	rd := mocks.NewMockHealthChecker(ctrl)
	pg.EXPECT().Ping(gomock.Any()).Return(nil).Times(2)
	pg.EXPECT().Name().Return("postgresql").AnyTimes()
	rd.EXPECT().Name().Return("redis").AnyTimes()
	gomock.InOrder(
		rd.EXPECT().Ping(gomock.Any()).Return(nil),
		rd.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused")),
	)

	r := gin.New()
	r.GET("/health", HealthCheck(pg, rd))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "degraded", resp["status"])
	deps := resp["dependencies"].(map[string]interface{})
	assert.Equal(t, "unhealthy", deps["redis"].(map[string]interface{})["status"])
}
