package postgres

import (
	"context"
	"errors"
	"fmt"

	"harvest-settlement/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// CreditGrantRepo implements ports.CreditGrantRepository using PostgreSQL.
type CreditGrantRepo struct {
	pool Pool
}

// NewCreditGrantRepo creates a new CreditGrantRepo.
func NewCreditGrantRepo(pool Pool) *CreditGrantRepo {
	return &CreditGrantRepo{pool: pool}
}

// Insert records the grant inside tx. It reports false when grant_key already exists.
func (r *CreditGrantRepo) Insert(ctx context.Context, tx pgx.Tx, g *domain.CreditGrant) (bool, error) {
	tag, err := tx.Exec(ctx,
		`INSERT INTO credit_grants (grant_key, order_id, user_id, credits, event_id, event_type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (grant_key) DO NOTHING`,
		g.GrantKey, g.OrderID, g.UserID, g.Credits, g.EventID, string(g.EventType), g.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert credit grant: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetByKey returns the grant with the given key, or nil, nil.
func (r *CreditGrantRepo) GetByKey(ctx context.Context, grantKey string) (*domain.CreditGrant, error) {
	var g domain.CreditGrant
	err := r.pool.QueryRow(ctx,
		`SELECT grant_key, order_id, user_id, credits, event_id, event_type, created_at
		 FROM credit_grants WHERE grant_key = $1`, grantKey,
	).Scan(&g.GrantKey, &g.OrderID, &g.UserID, &g.Credits, &g.EventID, &g.EventType, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get credit grant: %w", err)
	}
	return &g, nil
}
