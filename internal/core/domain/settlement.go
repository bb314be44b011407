package domain

import (
	"errors"
	"strings"
)

// OrderKind is chosen at checkout and carried in payment metadata.
type OrderKind string

const (
	OrderKindPhysical       OrderKind = "physical"
	OrderKindCreditPurchase OrderKind = "credit_purchase"
)

// Metadata keys written by checkout.
const (
	MetaOrderID   = "order_id"
	MetaOrderKind = "order_kind"
	MetaUserID    = "user_id"
	MetaCredits   = "credits"
)

var (
	// ErrNoOrderReference is returned when the event metadata carries no order id.
	ErrNoOrderReference = errors.New("event metadata has no order_id")
	// ErrUnknownOrderKind is returned for an order_kind value checkout never writes.
	ErrUnknownOrderKind = errors.New("unknown order_kind")
)

// SettlementTarget is what a payment event settles: a physical order or a credit purchase.
type SettlementTarget interface {
	OrderID() string
	Kind() OrderKind
}

// PhysicalOrder settles by moving the order through its status table.
type PhysicalOrder struct {
	ID string
}

func (p PhysicalOrder) OrderID() string { return p.ID }
func (p PhysicalOrder) Kind() OrderKind { return OrderKindPhysical }

// CreditPurchase settles by granting prepaid scan credits. It never has an orders row.
type CreditPurchase struct {
	ID      string
	UserID  string
	Credits int64
}

func (c CreditPurchase) OrderID() string { return c.ID }
func (c CreditPurchase) Kind() OrderKind { return OrderKindCreditPurchase }

// ResolveTarget decides what an event settles. order_kind wins; deliveries created before
// order_kind existed fall back to the legacy credit prefix on the order id.
func ResolveTarget(meta EventMetadata, creditPrefix string) (SettlementTarget, error) {
	orderID := meta.String(MetaOrderID)
	if orderID == "" {
		return nil, ErrNoOrderReference
	}

	kind := OrderKind(strings.ToLower(meta.String(MetaOrderKind)))
	if kind == "" {
		kind = OrderKindPhysical
		if creditPrefix != "" && strings.HasPrefix(orderID, creditPrefix) {
			kind = OrderKindCreditPurchase
		}
	}

	switch kind {
	case OrderKindPhysical:
		return PhysicalOrder{ID: orderID}, nil
	case OrderKindCreditPurchase:
		credits, _ := meta.Int(MetaCredits)
		return CreditPurchase{
			ID:      orderID,
			UserID:  meta.String(MetaUserID),
			Credits: credits,
		}, nil
	default:
		return nil, ErrUnknownOrderKind
	}
}
