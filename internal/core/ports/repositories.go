package ports

import (
	"context"
	"time"

	"harvest-settlement/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// OrderRepository reads and conditionally updates order status.
type OrderRepository interface {
	// GetByID returns nil, nil when the order does not exist.
	GetByID(ctx context.Context, orderID string) (*domain.Order, error)
	// CompareAndSetStatus writes to only while the row still holds from.
	// It reports false when the row changed underneath (or vanished).
	CompareAndSetStatus(ctx context.Context, orderID string, from, to domain.OrderStatus, at time.Time) (bool, error)
}

// CreditRepository owns user_credits. AddCredits is a single atomic upsert.
type CreditRepository interface {
	AddCredits(ctx context.Context, tx pgx.Tx, userID string, credits int64) (int64, error)
	GetBalance(ctx context.Context, userID string) (*domain.UserCredits, error)
}

// CreditGrantRepository is the at-most-once ledger of credit grants.
type CreditGrantRepository interface {
	// Insert reports false when a grant with the same key already exists.
	Insert(ctx context.Context, tx pgx.Tx, grant *domain.CreditGrant) (bool, error)
	GetByKey(ctx context.Context, grantKey string) (*domain.CreditGrant, error)
}

// AuditLogRepository persists settlement audit entries.
type AuditLogRepository interface {
	Create(ctx context.Context, log *domain.SettlementAuditLog) error
	List(ctx context.Context, params AuditListParams) ([]domain.SettlementAuditLog, int64, error)
}

// AuditListParams holds filter + pagination for listing audit entries.
type AuditListParams struct {
	OrderID  string
	Page     int
	PageSize int
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
