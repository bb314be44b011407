package service

import (
	"context"
	"fmt"
	"time"

	"harvest-settlement/internal/core/domain"
	"harvest-settlement/internal/core/ports"
	"harvest-settlement/pkg/apperror"
	"harvest-settlement/pkg/logger"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// eventRouter implements ports.EventRouter.
type eventRouter struct {
	guard        ports.TransitionGuard
	credits      ports.CreditApplier
	provider     ports.PaymentProvider
	publisher    ports.NoticePublisher
	audit        ports.AuditService
	creditPrefix string
	now          func() time.Time
	log          zerolog.Logger
}

// NewEventRouter creates a new event router. publisher and audit may be nil.
func NewEventRouter(
	guard ports.TransitionGuard,
	credits ports.CreditApplier,
	provider ports.PaymentProvider,
	publisher ports.NoticePublisher,
	audit ports.AuditService,
	creditPrefix string,
	log zerolog.Logger,
) ports.EventRouter {
	return &eventRouter{
		guard:        guard,
		credits:      credits,
		provider:     provider,
		publisher:    publisher,
		audit:        audit,
		creditPrefix: creditPrefix,
		now:          time.Now,
		log:          log,
	}
}

// Route settles one verified event. Business and persistence failures end up in the
// result, never in the error: the provider retries anything that is not a 200.
// The error is non-nil only when ctx was cancelled while routing.
func (r *eventRouter) Route(ctx context.Context, evt *domain.WebhookEvent) (*ports.RouteResult, error) {
	log := logger.FromContext(ctx, r.log).With().
		Str("event_id", evt.ID).
		Str("event_type", string(evt.Type)).
		Logger()
	ctx = log.WithContext(ctx)

	result, target := r.dispatch(ctx, log, evt)
	r.record(ctx, evt, target, result)

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("routing interrupted: %w", err)
	}
	return result, nil
}

func (r *eventRouter) dispatch(ctx context.Context, log zerolog.Logger, evt *domain.WebhookEvent) (*ports.RouteResult, domain.SettlementTarget) {
	category := evt.Type.Category()
	if category == domain.CategoryUnknown {
		log.Info().Msg("unhandled event type acknowledged")
		return &ports.RouteResult{Action: domain.ActionIgnore, Outcome: domain.OutcomeNoop, Detail: "unhandled event type"}, nil
	}

	target, err := domain.ResolveTarget(evt.Resource.Metadata, r.creditPrefix)
	if err != nil {
		log.Warn().Err(err).Msg("event has no settlement target, acknowledged without action")
		return &ports.RouteResult{Action: domain.ActionIgnore, Outcome: domain.OutcomeNoop, Detail: err.Error()}, nil
	}

	switch category {
	case domain.CategorySuccess:
		return r.settlePaid(ctx, log, evt, target), target
	case domain.CategoryFailure:
		return r.settleFailed(ctx, log, evt, target, "payment failed"), target
	default:
		return r.chargeSource(ctx, log, evt, target), target
	}
}

func (r *eventRouter) settlePaid(ctx context.Context, log zerolog.Logger, evt *domain.WebhookEvent, target domain.SettlementTarget) *ports.RouteResult {
	switch t := target.(type) {
	case domain.CreditPurchase:
		return r.grantCredits(ctx, log, evt, t)
	default:
		return r.transition(ctx, log, evt, target, domain.OrderStatusToShip)
	}
}

func (r *eventRouter) settleFailed(ctx context.Context, log zerolog.Logger, evt *domain.WebhookEvent, target domain.SettlementTarget, reason string) *ports.RouteResult {
	if target.Kind() == domain.OrderKindCreditPurchase {
		log.Info().Str("order_id", target.OrderID()).Str("reason", reason).Msg("credit purchase not paid, nothing to settle")
		return &ports.RouteResult{Action: domain.ActionIgnore, Outcome: domain.OutcomeNoop, OrderID: target.OrderID(), Detail: reason}
	}
	result := r.transition(ctx, log, evt, target, domain.OrderStatusPaymentFailed)
	result.Detail = reason + "; " + result.Detail
	return result
}

func (r *eventRouter) chargeSource(ctx context.Context, log zerolog.Logger, evt *domain.WebhookEvent, target domain.SettlementTarget) *ports.RouteResult {
	description := evt.Resource.Description
	if description == "" {
		description = "Order " + target.OrderID()
	}

	payment, err := r.provider.CreatePayment(ctx, domain.ChargeRequest{
		SourceID:    evt.Resource.ID,
		Amount:      evt.Resource.Amount,
		Currency:    evt.Resource.Currency,
		Description: description,
		Metadata:    evt.Resource.Metadata,
	})

	var result *ports.RouteResult
	switch {
	case err != nil:
		log.Error().Err(err).Str("source_id", evt.Resource.ID).Msg("payment creation from source failed")
		result = r.settleFailed(ctx, log, evt, target, "charge failed: "+err.Error())
	case !payment.IsPaid():
		log.Warn().Str("payment_id", payment.ID).Str("payment_status", payment.Status).Msg("payment from source not paid")
		result = r.settleFailed(ctx, log, evt, target, apperror.ErrPaymentNotPaid(payment.Status).Message)
	default:
		log.Info().Str("payment_id", payment.ID).Msg("payment created from source")
		result = r.settlePaid(ctx, log, evt, target)
		result.Detail = "payment " + payment.ID + " paid; " + result.Detail
	}
	result.Action = domain.ActionChargeSource
	return result
}

func (r *eventRouter) grantCredits(ctx context.Context, log zerolog.Logger, evt *domain.WebhookEvent, purchase domain.CreditPurchase) *ports.RouteResult {
	result := &ports.RouteResult{Action: domain.ActionCreditGrant, OrderID: purchase.ID}

	res, err := r.credits.Apply(ctx, domain.NewCreditGrant(purchase, evt))
	switch {
	case err != nil:
		log.Error().Err(err).Str("order_id", purchase.ID).Msg("credit settlement failed")
		result.Outcome = domain.OutcomeFailed
		if apperror.HasCode(err, "CRD_001") {
			result.Outcome = domain.OutcomeRejected
		}
		result.Detail = err.Error()
	case res.Duplicate:
		result.Outcome = domain.OutcomeDuplicate
		result.Detail = "credits already granted"
	default:
		result.Outcome = domain.OutcomeApplied
		result.Detail = fmt.Sprintf("granted %d credits", purchase.Credits)
		r.notify(ctx, log, domain.SettlementNotice{
			Type:      domain.NoticeCreditsGranted,
			OrderID:   purchase.ID,
			OrderKind: domain.OrderKindCreditPurchase,
			UserID:    purchase.UserID,
			Credits:   purchase.Credits,
			Balance:   res.Balance,
			EventID:   evt.ID,
		})
	}
	return result
}

func (r *eventRouter) transition(ctx context.Context, log zerolog.Logger, evt *domain.WebhookEvent, target domain.SettlementTarget, status domain.OrderStatus) *ports.RouteResult {
	result := &ports.RouteResult{Action: domain.ActionTransition, OrderID: target.OrderID()}

	outcome, err := r.guard.Transition(ctx, target.OrderID(), status)
	if err != nil {
		log.Error().Err(err).Str("order_id", target.OrderID()).Str("target", string(status)).Msg("order transition failed")
		result.Outcome = domain.OutcomeFailed
		if apperror.HasCode(err, "ORD_002") {
			result.Outcome = domain.OutcomeRejected
		}
		result.Detail = err.Error()
		return result
	}
	if !outcome.IsSuccess() {
		log.Warn().Str("order_id", target.OrderID()).Str("outcome", string(outcome)).Msg("order transition refused")
		result.Outcome = domain.OutcomeRejected
		result.Detail = fmt.Sprintf("-> %s (%s)", status, outcome)
		return result
	}

	switch outcome {
	case domain.TransitionApplied:
		result.Outcome = domain.OutcomeApplied
		notice := domain.NoticeOrderTransitioned
		if status == domain.OrderStatusPaymentFailed {
			notice = domain.NoticePaymentFailed
		}
		r.notify(ctx, log, domain.SettlementNotice{
			Type:      notice,
			OrderID:   target.OrderID(),
			OrderKind: domain.OrderKindPhysical,
			Status:    status,
			EventID:   evt.ID,
		})
	case domain.TransitionStale:
		result.Outcome = domain.OutcomeStale
	default:
		result.Outcome = domain.OutcomeNoop
	}
	result.Detail = fmt.Sprintf("-> %s (%s)", status, outcome)
	return result
}

// notify publishes a notice after the effect is committed. Failures are logged only.
func (r *eventRouter) notify(ctx context.Context, log zerolog.Logger, notice domain.SettlementNotice) {
	if r.publisher == nil {
		return
	}
	notice.ID = noticeID(notice)
	notice.RequestID = logger.RequestIDFromContext(ctx)
	notice.OccurredAt = r.now().UTC()
	if err := r.publisher.Publish(ctx, notice); err != nil {
		log.Warn().Err(err).Str("notice", string(notice.Type)).Msg("failed to publish settlement notice")
	}
}

// noticeID is stable for one event, notice type and order. Deliveries without an
// event id get a random id.
func noticeID(n domain.SettlementNotice) uuid.UUID {
	if n.EventID == "" {
		return uuid.New()
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(n.EventID+"/"+string(n.Type)+"/"+n.OrderID))
}

func (r *eventRouter) record(ctx context.Context, evt *domain.WebhookEvent, target domain.SettlementTarget, result *ports.RouteResult) {
	if r.audit == nil {
		return
	}
	entry := domain.SettlementAuditLog{
		RequestID: logger.RequestIDFromContext(ctx),
		EventID:   evt.ID,
		EventType: evt.Type,
		OrderID:   result.OrderID,
		Action:    result.Action,
		Outcome:   result.Outcome,
		Detail:    result.Detail,
	}
	if target != nil {
		entry.OrderID = target.OrderID()
		entry.OrderKind = target.Kind()
	}
	r.audit.Record(ctx, entry)
}
