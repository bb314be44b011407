package service

import (
	"context"
	"fmt"
	"time"

	"harvest-settlement/internal/core/domain"
	"harvest-settlement/internal/core/ports"
	"harvest-settlement/pkg/apperror"
	"harvest-settlement/pkg/logger"

	"github.com/rs/zerolog"
)

// creditApplier implements ports.CreditApplier.
// Layer 1 is the Redis grant cache; layer 2 is the credit_grants unique key, written
// in the same transaction as the balance increment.
type creditApplier struct {
	transactor ports.DBTransactor
	grants     ports.CreditGrantRepository
	credits    ports.CreditRepository
	cache      ports.GrantCache
	cacheTTL   time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

// NewCreditApplier creates a new credit settlement applier. cache may be nil.
func NewCreditApplier(
	transactor ports.DBTransactor,
	grants ports.CreditGrantRepository,
	credits ports.CreditRepository,
	cache ports.GrantCache,
	cacheTTL time.Duration,
	log zerolog.Logger,
) ports.CreditApplier {
	return &creditApplier{
		transactor: transactor,
		grants:     grants,
		credits:    credits,
		cache:      cache,
		cacheTTL:   cacheTTL,
		now:        time.Now,
		log:        log,
	}
}

// Apply grants the credits once per purchase. Applied is true only after commit.
func (s *creditApplier) Apply(ctx context.Context, grant domain.CreditGrant) (*domain.CreditResult, error) {
	log := logger.FromContext(ctx, s.log).With().
		Str("order_id", grant.OrderID).
		Str("user_id", grant.UserID).
		Int64("credits", grant.Credits).
		Logger()

	if err := grant.Validate(); err != nil {
		log.Error().Err(err).Msg("credit grant rejected")
		return nil, apperror.ErrInvalidCreditGrant(err.Error())
	}

	// Layer 1: Redis fast path
	if s.cache != nil {
		settled, err := s.cache.IsSettled(ctx, grant.GrantKey)
		if err != nil {
			log.Warn().Err(err).Msg("grant cache check failed, falling through to DB")
		} else if settled {
			log.Info().Msg("credit purchase already settled (cache)")
			return &domain.CreditResult{Duplicate: true}, nil
		}
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Layer 2: grant ledger
	grant.CreatedAt = s.now().UTC()
	inserted, err := s.grants.Insert(ctx, dbTx, &grant)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("insert grant: %w", err))
	}
	if !inserted {
		log.Info().Msg("credit purchase already settled (ledger)")
		s.markSettled(ctx, log, grant.GrantKey)
		return &domain.CreditResult{Duplicate: true}, nil
	}

	balance, err := s.credits.AddCredits(ctx, dbTx, grant.UserID, grant.Credits)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("add credits: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit: %w", err))
	}

	s.markSettled(ctx, log, grant.GrantKey)
	log.Info().Int64("balance", balance).Msg("credits granted")

	return &domain.CreditResult{Applied: true, Balance: balance}, nil
}

func (s *creditApplier) markSettled(ctx context.Context, log zerolog.Logger, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.MarkSettled(ctx, key, s.cacheTTL); err != nil {
		log.Warn().Err(err).Msg("failed to cache settled grant")
	}
}

// Lookup returns the grant for a credit purchase with the buyer's current balance.
func (s *creditApplier) Lookup(ctx context.Context, orderID string) (*ports.CreditGrantView, error) {
	grant, err := s.grants.GetByKey(ctx, orderID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get grant: %w", err))
	}
	if grant == nil {
		return nil, apperror.ErrGrantNotFound(orderID)
	}

	view := &ports.CreditGrantView{Grant: *grant}
	balance, err := s.credits.GetBalance(ctx, grant.UserID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get balance: %w", err))
	}
	if balance != nil {
		view.Balance = balance.CreditsRemaining
	}
	return view, nil
}
