package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"harvest-settlement/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// OrderRepo implements ports.OrderRepository using PostgreSQL.
type OrderRepo struct {
	pool Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(pool Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

// GetByID retrieves the settlement view of an order. Returns nil, nil when absent.
func (r *OrderRepo) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx,
		`SELECT id, status, updated_at FROM orders WHERE id = $1`, orderID,
	).Scan(&o.ID, &o.Status, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

// CompareAndSetStatus moves the order from one status to another in a single conditional write.
func (r *OrderRepo) CompareAndSetStatus(ctx context.Context, orderID string, from, to domain.OrderStatus, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		string(to), at, orderID, string(from),
	)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
