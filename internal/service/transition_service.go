package service

import (
	"context"
	"time"

	"harvest-settlement/internal/core/domain"
	"harvest-settlement/internal/core/ports"
	"harvest-settlement/pkg/apperror"
	"harvest-settlement/pkg/logger"

	"github.com/rs/zerolog"
)

// transitionGuard implements ports.TransitionGuard with a compare-and-set loop.
type transitionGuard struct {
	orders      ports.OrderRepository
	maxAttempts int
	now         func() time.Time
	log         zerolog.Logger
}

// NewTransitionGuard creates a new order status transition guard.
func NewTransitionGuard(orders ports.OrderRepository, maxAttempts int, log zerolog.Logger) ports.TransitionGuard {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &transitionGuard{
		orders:      orders,
		maxAttempts: maxAttempts,
		now:         time.Now,
		log:         log,
	}
}

// Transition moves orderID to target when the status table allows it.
// Unchanged and stale outcomes are successes; duplicates and late deliveries land there.
func (g *transitionGuard) Transition(ctx context.Context, orderID string, target domain.OrderStatus) (domain.TransitionOutcome, error) {
	log := logger.FromContext(ctx, g.log).With().
		Str("order_id", orderID).
		Str("target", string(target)).
		Logger()

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		order, err := g.orders.GetByID(ctx, orderID)
		if err != nil {
			return "", apperror.ErrDatabaseError(err)
		}
		if order == nil {
			return "", apperror.ErrOrderNotFound(orderID)
		}

		outcome := domain.DecideTransition(order.Status, target)
		switch outcome {
		case domain.TransitionUnchanged:
			log.Debug().Msg("order already has target status")
			return outcome, nil
		case domain.TransitionStale:
			log.Info().Str("current", string(order.Status)).Msg("order already advanced, stale payment event ignored")
			return outcome, nil
		case domain.TransitionRejected:
			return outcome, apperror.ErrTransitionNotAllowed(string(order.Status), string(target))
		}

		updated, err := g.orders.CompareAndSetStatus(ctx, orderID, order.Status, target, g.now().UTC())
		if err != nil {
			return "", apperror.ErrDatabaseError(err)
		}
		if updated {
			log.Info().Str("from", string(order.Status)).Msg("order status transitioned")
			return domain.TransitionApplied, nil
		}

		log.Warn().
			Int("attempt", attempt).
			Str("expected", string(order.Status)).
			Msg("order status changed concurrently, re-evaluating")
	}

	return "", apperror.ErrTransitionConflict(orderID)
}

// Inspect reports the current status and the automated targets still open to it.
func (g *transitionGuard) Inspect(ctx context.Context, orderID string) (*ports.OrderTransitions, error) {
	order, err := g.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if order == nil {
		return nil, apperror.ErrOrderNotFound(orderID)
	}

	return &ports.OrderTransitions{
		OrderID:        order.ID,
		Status:         order.Status,
		Advanced:       domain.IsAdvanced(order.Status),
		AllowedTargets: domain.AllowedTargets(order.Status),
	}, nil
}
