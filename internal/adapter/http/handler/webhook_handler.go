package handler

import (
	"errors"
	"io"

	"harvest-settlement/internal/adapter/http/dto"
	"harvest-settlement/internal/adapter/http/middleware"
	"harvest-settlement/internal/core/ports"
	"harvest-settlement/pkg/apperror"
	"harvest-settlement/pkg/logger"
	"harvest-settlement/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// WebhookHandler receives PayMongo event deliveries.
type WebhookHandler struct {
	verifier ports.SignatureVerifier // nil = unsigned deliveries accepted (non-release only)
	router   ports.EventRouter
	log      zerolog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(verifier ports.SignatureVerifier, router ports.EventRouter, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, router: router, log: log}
}

// Receive handles POST /webhooks/paymongo.
// Anything past signature verification is acknowledged with 200 so the provider
// stops retrying; only an interrupted request answers 500.
func (h *WebhookHandler) Receive(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx, h.log)

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warn().Err(err).Msg("cannot read webhook body")
		response.Error(c, apperror.Validation("cannot read request body"))
		c.Abort()
		return
	}

	header := c.GetHeader(dto.HeaderSignature)
	if h.verifier == nil {
		log.Warn().Msg("signature verification disabled")
	} else if err := h.verifier.Verify(raw, header); err != nil {
		log.Warn().Err(err).Str("client_ip", c.ClientIP()).Msg("webhook signature rejected")
		c.Set(middleware.CtxRejection, rejectionReason(err))
		middleware.RejectSignature(c, err)
		return
	}

	evt, err := dto.ParseWebhookEvent(raw, dto.SignatureTimestamp(header))
	if err != nil {
		log.Error().Err(err).Int("body_bytes", len(raw)).Msg("malformed webhook payload acknowledged")
		response.Received(c)
		return
	}

	result, err := h.router.Route(ctx, evt)
	if err != nil {
		log.Error().Err(err).Str("event_id", evt.ID).Msg("webhook processing interrupted")
		response.Failed(c)
		return
	}

	log.Info().
		Str("event_id", evt.ID).
		Str("event_type", string(evt.Type)).
		Str("action", string(result.Action)).
		Str("outcome", string(result.Outcome)).
		Str("order_id", result.OrderID).
		Msg("webhook processed")
	response.Received(c)
}

func rejectionReason(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Code + " " + appErr.Message
	}
	return err.Error()
}
