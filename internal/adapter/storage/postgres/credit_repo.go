package postgres

import (
	"context"
	"errors"
	"fmt"

	"harvest-settlement/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// CreditRepo implements ports.CreditRepository using PostgreSQL.
type CreditRepo struct {
	pool Pool
}

// NewCreditRepo creates a new CreditRepo.
func NewCreditRepo(pool Pool) *CreditRepo {
	return &CreditRepo{pool: pool}
}

// AddCredits increments the user's balance inside tx and returns the new balance.
// The increment happens in SQL so concurrent grants never lose an update.
func (r *CreditRepo) AddCredits(ctx context.Context, tx pgx.Tx, userID string, credits int64) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx,
		`INSERT INTO user_credits (user_id, credits_remaining, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id) DO UPDATE
		 SET credits_remaining = user_credits.credits_remaining + EXCLUDED.credits_remaining,
		     updated_at = now()
		 RETURNING credits_remaining`,
		userID, credits,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("add credits: %w", err)
	}
	return balance, nil
}

// GetBalance returns the user's credit row, or nil, nil when the user never bought credits.
func (r *CreditRepo) GetBalance(ctx context.Context, userID string) (*domain.UserCredits, error) {
	var uc domain.UserCredits
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, credits_remaining, updated_at FROM user_credits WHERE user_id = $1`, userID,
	).Scan(&uc.UserID, &uc.CreditsRemaining, &uc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get credit balance: %w", err)
	}
	return &uc, nil
}
