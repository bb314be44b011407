package domain

import (
	"time"

	"github.com/google/uuid"
)

// SettlementAction is the action the router took for an event.
type SettlementAction string

const (
	ActionTransition   SettlementAction = "TRANSITION"
	ActionCreditGrant  SettlementAction = "CREDIT_GRANT"
	ActionChargeSource SettlementAction = "CHARGE_SOURCE"
	ActionIgnore       SettlementAction = "IGNORE"
	ActionVerify       SettlementAction = "VERIFY" // delivery refused before routing
)

// SettlementOutcome is how the action ended.
type SettlementOutcome string

const (
	OutcomeApplied   SettlementOutcome = "APPLIED"
	OutcomeNoop      SettlementOutcome = "NOOP"
	OutcomeDuplicate SettlementOutcome = "DUPLICATE"
	OutcomeStale     SettlementOutcome = "STALE"
	OutcomeRejected  SettlementOutcome = "REJECTED"
	OutcomeFailed    SettlementOutcome = "FAILED"
)

// SettlementAuditLog records a single routed webhook event.
type SettlementAuditLog struct {
	ID        uuid.UUID         `json:"id"`
	RequestID string            `json:"request_id"`
	EventID   string            `json:"event_id"`
	EventType EventType         `json:"event_type"`
	OrderID   string            `json:"order_id,omitempty"`
	OrderKind OrderKind         `json:"order_kind,omitempty"`
	Action    SettlementAction  `json:"action"`
	Outcome   SettlementOutcome `json:"outcome"`
	Detail    string            `json:"detail,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
