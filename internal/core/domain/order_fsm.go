package domain

// orderTransitions lists the edges automated payment handling may take.
// Statuses with no outgoing edges are advanced: once reached, payment events never move them.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusToPay:               {OrderStatusToShip, OrderStatusPaymentFailed},
	OrderStatusPaymentFailed:       {OrderStatusToShip},
	OrderStatusPendingCancellation: {OrderStatusToShip, OrderStatusPaymentFailed},
	OrderStatusReturnRefund:        {OrderStatusToShip, OrderStatusPaymentFailed},
	OrderStatusToShip:              {},
	OrderStatusToReceive:           {},
	OrderStatusCompleted:           {},
	OrderStatusCancelled:           {},
}

// TransitionOutcome is the result of evaluating a requested status change.
type TransitionOutcome string

const (
	// TransitionApplied means the status must be (or was) written.
	TransitionApplied TransitionOutcome = "applied"
	// TransitionUnchanged means the order already has the target status.
	TransitionUnchanged TransitionOutcome = "unchanged"
	// TransitionStale means the order is advanced and the event arrived late.
	TransitionStale TransitionOutcome = "stale"
	// TransitionRejected means the pair is not an automated edge.
	TransitionRejected TransitionOutcome = "rejected"
)

// IsSuccess reports whether the outcome counts as a settled no-error result.
func (o TransitionOutcome) IsSuccess() bool {
	return o == TransitionApplied || o == TransitionUnchanged || o == TransitionStale
}

// IsAdvanced reports whether s is a known status without automated exits.
func IsAdvanced(s OrderStatus) bool {
	edges, ok := orderTransitions[s]
	return ok && len(edges) == 0
}

// AllowedTargets returns the statuses automated handling may move current to.
func AllowedTargets(current OrderStatus) []OrderStatus {
	edges := orderTransitions[current]
	out := make([]OrderStatus, len(edges))
	copy(out, edges)
	return out
}

// CanTransition reports whether (from, to) is an edge of the table.
func CanTransition(from, to OrderStatus) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// DecideTransition evaluates moving an order from current to target.
func DecideTransition(current, target OrderStatus) TransitionOutcome {
	switch {
	case current == target:
		return TransitionUnchanged
	case IsAdvanced(current):
		return TransitionStale
	case CanTransition(current, target):
		return TransitionApplied
	default:
		return TransitionRejected
	}
}
