package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// EventType is the provider's event tag.
type EventType string

const (
	EventSourceChargeable           EventType = "source.chargeable"
	EventPaymentPaid                EventType = "payment.paid"
	EventPaymentFailed              EventType = "payment.failed"
	EventPaymentIntentSucceeded     EventType = "payment_intent.succeeded"
	EventPaymentIntentPaymentFailed EventType = "payment_intent.payment_failed"
	EventCheckoutSessionPaymentPaid EventType = "checkout_session.payment.paid"
)

// EventCategory groups event types by the settlement action they trigger.
type EventCategory string

const (
	CategorySuccess    EventCategory = "success"
	CategoryFailure    EventCategory = "failure"
	CategoryChargeable EventCategory = "chargeable"
	CategoryUnknown    EventCategory = "unknown"
)

// Category maps the event type to its settlement category.
func (t EventType) Category() EventCategory {
	switch t {
	case EventPaymentPaid, EventPaymentIntentSucceeded, EventCheckoutSessionPaymentPaid:
		return CategorySuccess
	case EventPaymentFailed, EventPaymentIntentPaymentFailed:
		return CategoryFailure
	case EventSourceChargeable:
		return CategoryChargeable
	default:
		return CategoryUnknown
	}
}

// WebhookEvent is a verified provider delivery. It is never persisted as-is.
type WebhookEvent struct {
	ID        string
	Type      EventType
	LiveMode  bool
	Timestamp int64 // from the signature header
	Resource  EventResource
}

// EventResource is the object the event is about (source, payment, intent or checkout session).
type EventResource struct {
	ID          string
	Type        string
	Amount      int64 // centavos
	Currency    string
	Status      string
	Description string
	Metadata    EventMetadata
}

// EventMetadata is the opaque metadata map attached at checkout.
type EventMetadata map[string]any

// String returns the trimmed string value of key. Numbers are formatted.
func (m EventMetadata) String(key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

// Int returns key as an integer. Metadata values are often stringified by checkout clients.
func (m EventMetadata) Int(key string) (int64, bool) {
	switch v := m[key].(type) {
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case float64:
		if v != float64(int64(v)) {
			return 0, false
		}
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
