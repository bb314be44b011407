package domain

import (
	"errors"
	"time"
)

// CreditGrant records one settled credit purchase. GrantKey is unique in the ledger.
type CreditGrant struct {
	GrantKey  string    `json:"grant_key"`
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Credits   int64     `json:"credits"`
	EventID   string    `json:"event_id"`
	EventType EventType `json:"event_type"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCreditGrant builds the grant for a credit purchase. One purchase yields one grant,
// so the key is the purchase order id and not the provider event id.
func NewCreditGrant(purchase CreditPurchase, evt *WebhookEvent) CreditGrant {
	g := CreditGrant{
		GrantKey: purchase.ID,
		OrderID:  purchase.ID,
		UserID:   purchase.UserID,
		Credits:  purchase.Credits,
	}
	if evt != nil {
		g.EventID = evt.ID
		g.EventType = evt.Type
	}
	return g
}

// Validate checks the grant preconditions.
func (g CreditGrant) Validate() error {
	switch {
	case g.GrantKey == "" || g.OrderID == "":
		return errors.New("order_id is required")
	case g.UserID == "":
		return errors.New("user_id is required")
	case g.Credits <= 0:
		return errors.New("credits must be a positive integer")
	}
	return nil
}

// CreditResult is the outcome of applying a grant.
type CreditResult struct {
	Applied   bool  `json:"applied"`
	Duplicate bool  `json:"duplicate"`
	Balance   int64 `json:"balance"` // after the increment; zero when not applied
}

// UserCredits is a user's prepaid scan-credit balance.
type UserCredits struct {
	UserID           string    `json:"user_id"`
	CreditsRemaining int64     `json:"credits_remaining"`
	UpdatedAt        time.Time `json:"updated_at"`
}
