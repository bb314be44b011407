package ports

import (
	"context"
	"time"

	"harvest-settlement/internal/core/domain"
)

// SignatureVerifier checks webhook authenticity and freshness. nil means valid.
type SignatureVerifier interface {
	Verify(rawBody []byte, header string) error
}

// GrantCache is the Redis fast path in front of the credit grant ledger.
type GrantCache interface {
	IsSettled(ctx context.Context, grantKey string) (bool, error)
	MarkSettled(ctx context.Context, grantKey string, ttl time.Duration) error
}

// FailureCounter counts signature failures per client in fixed windows.
type FailureCounter interface {
	Peek(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
	Hit(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix timestamp
}

// PaymentProvider is the outbound PayMongo API.
type PaymentProvider interface {
	CreatePayment(ctx context.Context, req domain.ChargeRequest) (*domain.Payment, error)
}

// NoticePublisher sends settlement notices to the event bus.
type NoticePublisher interface {
	Publish(ctx context.Context, notice domain.SettlementNotice) error
	Close() error
}

// TokenService verifies Supabase-issued access tokens.
type TokenService interface {
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims the admin endpoints care about.
type TokenClaims struct {
	Subject string
	Email   string
	Role    string // service_role, authenticated, anon
	AppRole string // app_metadata.role
}

// IsAdmin reports whether the token may read settlement data.
func (c *TokenClaims) IsAdmin() bool {
	return c.Role == "service_role" || c.AppRole == "admin"
}

// --- Service Ports (Business Logic) ---

// TransitionGuard applies monotonic status transitions to physical orders.
type TransitionGuard interface {
	Transition(ctx context.Context, orderID string, target domain.OrderStatus) (domain.TransitionOutcome, error)
	Inspect(ctx context.Context, orderID string) (*OrderTransitions, error)
}

// OrderTransitions describes what automated handling may still do to an order.
type OrderTransitions struct {
	OrderID        string               `json:"order_id"`
	Status         domain.OrderStatus   `json:"status"`
	Advanced       bool                 `json:"advanced"`
	AllowedTargets []domain.OrderStatus `json:"allowed_targets"`
}

// CreditApplier grants prepaid credits at most once per purchase.
type CreditApplier interface {
	Apply(ctx context.Context, grant domain.CreditGrant) (*domain.CreditResult, error)
	// Lookup reports the grant recorded for a credit purchase and the buyer's balance.
	Lookup(ctx context.Context, orderID string) (*CreditGrantView, error)
}

// CreditGrantView is the admin view of one settled credit purchase.
type CreditGrantView struct {
	Grant   domain.CreditGrant `json:"grant"`
	Balance int64              `json:"balance"`
}

// EventRouter dispatches a verified event to its settlement action.
type EventRouter interface {
	Route(ctx context.Context, evt *domain.WebhookEvent) (*RouteResult, error)
}

// RouteResult summarizes what routing did with an event.
type RouteResult struct {
	Action  domain.SettlementAction
	Outcome domain.SettlementOutcome
	OrderID string
	Detail  string
}

// AuditService records and lists settlement audit entries.
type AuditService interface {
	Record(ctx context.Context, entry domain.SettlementAuditLog)
	List(ctx context.Context, params AuditListParams) ([]domain.SettlementAuditLog, int64, error)
}
