package domain

import "time"

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusToPay               OrderStatus = "to_pay"
	OrderStatusPaymentFailed       OrderStatus = "payment_failed"
	OrderStatusToShip              OrderStatus = "to_ship"
	OrderStatusToReceive           OrderStatus = "to_receive"
	OrderStatusCompleted           OrderStatus = "completed"
	OrderStatusCancelled           OrderStatus = "cancelled"
	OrderStatusPendingCancellation OrderStatus = "pending_cancellation"
	OrderStatusReturnRefund        OrderStatus = "return_refund"
)

// Order is the settlement view of a storefront order. Checkout owns the rest of the row.
type Order struct {
	ID        string      `json:"order_id"`
	Status    OrderStatus `json:"status"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// IsKnown reports whether s is one of the statuses the storefront defines.
func (s OrderStatus) IsKnown() bool {
	_, ok := orderTransitions[s]
	return ok
}
