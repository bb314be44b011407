package handler

import (
	"harvest-settlement/internal/adapter/http/middleware"
	"harvest-settlement/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxWebhookBody = 1 << 20 // 1 MB

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	Verifier       ports.SignatureVerifier // nil = unsigned deliveries accepted
	EventRouter    ports.EventRouter
	Guard          ports.TransitionGuard
	Credits        ports.CreditApplier
	AuditSvc       ports.AuditService   // nil = rejection auditing and admin listing disabled
	TokenSvc       ports.TokenService   // nil = admin endpoints disabled
	FailureCounter ports.FailureCounter // nil = signature failure limiting disabled
	FailureRule    middleware.RateLimitRule
	HealthCheckers []ports.HealthChecker
	TrustedProxies []string // empty = client IP is the TCP peer
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	if err := r.SetTrustedProxies(deps.TrustedProxies); err != nil {
		deps.Logger.Error().Err(err).Msg("invalid trusted proxies, trusting none")
		_ = r.SetTrustedProxies(nil)
	}

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.CORS())
	r.Use(middleware.MaxBodySize(maxWebhookBody))

	// Health check (deep: PostgreSQL, Redis, event bus)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	webhookHandler := NewWebhookHandler(deps.Verifier, deps.EventRouter, deps.Logger)
	webhookChain := []gin.HandlerFunc{}
	if deps.AuditSvc != nil {
		webhookChain = append(webhookChain, middleware.AuditRejections(deps.AuditSvc))
	}
	if deps.FailureCounter != nil {
		webhookChain = append(webhookChain, middleware.SignatureFailureLimiter(deps.FailureCounter, deps.FailureRule, deps.Logger))
	}
	webhookChain = append(webhookChain, webhookHandler.Receive)

	// PayMongo is configured with one of these two URLs depending on the deployment.
	r.POST("/webhooks/paymongo", webhookChain...)

	v1 := r.Group("/api/v1")
	v1.POST("/webhooks/paymongo", webhookChain...)

	// --- JWT-authenticated admin routes ---
	if deps.TokenSvc != nil && deps.AuditSvc != nil {
		adminHandler := NewAdminHandler(deps.AuditSvc, deps.Guard, deps.Credits)
		admin := v1.Group("/admin", middleware.JWTAuth(deps.TokenSvc, deps.Logger), middleware.RequireAdmin())
		{
			admin.GET("/settlements", adminHandler.ListSettlements)
			admin.GET("/orders/:order_id/transitions", adminHandler.OrderTransitions)
			admin.GET("/credits/:order_id", adminHandler.CreditGrant)
		}
	}

	return r
}
