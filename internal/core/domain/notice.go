package domain

import (
	"time"

	"github.com/google/uuid"
)

// NoticeType names a settlement notice on the event bus.
type NoticeType string

const (
	NoticeOrderTransitioned NoticeType = "order.transitioned"
	NoticeCreditsGranted    NoticeType = "credits.granted"
	NoticePaymentFailed     NoticeType = "payment.failed"
)

// SettlementNotice tells the rest of the app (notifications, achievements) that a
// settlement took effect. Published only after the effect is committed.
type SettlementNotice struct {
	ID         uuid.UUID   `json:"id"`
	Type       NoticeType  `json:"type"`
	OrderID    string      `json:"order_id"`
	OrderKind  OrderKind   `json:"order_kind"`
	UserID     string      `json:"user_id,omitempty"`
	Status     OrderStatus `json:"status,omitempty"`
	Credits    int64       `json:"credits,omitempty"`
	Balance    int64       `json:"balance,omitempty"`
	EventID    string      `json:"event_id"`
	RequestID  string      `json:"request_id"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// Subject returns the bus subject for the notice, e.g. settlement.order.transitioned.
func (n SettlementNotice) Subject(prefix string) string {
	if prefix == "" {
		return string(n.Type)
	}
	return prefix + "." + string(n.Type)
}

// Key partitions notices so that all notices for one order stay ordered.
func (n SettlementNotice) Key() string {
	return n.OrderID
}
