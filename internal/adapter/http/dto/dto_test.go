package dto

import (
	"encoding/json"
	"testing"

	"harvest-settlement/internal/core/domain"
	"harvest-settlement/pkg/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const paidPayload = `{
  "data": {
    "id": "evt_9f2a",
    "type": "event",
    "attributes": {
      "type": "payment.paid",
      "livemode": false,
      "data": {
        "id": "pay_77",
        "type": "payment",
        "attributes": {
          "amount": 15000,
          "currency": "PHP",
          "status": "paid",
          "description": "Order ord-1",
          "metadata": {"order_id": "ord-1", "user_id": "user-1", "credits": 50, "fb_id": 90071992547409931}
        }
      }
    }
  }
}`

func TestParseWebhookEvent(t *testing.T) {
	evt, err := ParseWebhookEvent([]byte(paidPayload), 1700000000)
	require.NoError(t, err)

	assert.Equal(t, "evt_9f2a", evt.ID)
	assert.Equal(t, domain.EventPaymentPaid, evt.Type)
	assert.False(t, evt.LiveMode)
	assert.Equal(t, int64(1700000000), evt.Timestamp)
	assert.Equal(t, "pay_77", evt.Resource.ID)
	assert.Equal(t, int64(15000), evt.Resource.Amount)
	assert.Equal(t, "PHP", evt.Resource.Currency)
	assert.Equal(t, "ord-1", evt.Resource.Metadata.String("order_id"))
	assert.Equal(t, json.Number("50"), evt.Resource.Metadata["credits"])
	assert.Equal(t, json.Number("90071992547409931"), evt.Resource.Metadata["fb_id"])
}

func TestParseWebhookEvent_WithoutEventID(t *testing.T) {
	body := `{"data":{"attributes":{"type":"payment.paid","data":{"attributes":{"metadata":{"order_id":"ORD-123"}}}}}}`

	evt, err := ParseWebhookEvent([]byte(body), 1700000000)
	require.NoError(t, err)

	assert.Empty(t, evt.ID)
	assert.Equal(t, domain.EventPaymentPaid, evt.Type)
	assert.Equal(t, "ORD-123", evt.Resource.Metadata.String("order_id"))
}

func TestParseWebhookEvent_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"data":`},
		{"empty object", `{}`},
		{"missing type", `{"data":{"id":"evt_1","attributes":{}}}`},
		{"wrong shape", `{"data":{"id":"evt_1","attributes":{"type":"payment.paid","data":{"attributes":{"amount":"lots"}}}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt, err := ParseWebhookEvent([]byte(tt.body), 0)
			assert.Nil(t, evt)
			assert.True(t, apperror.HasCode(err, "EVT_001"), "got %v", err)
		})
	}
}

func TestSanitizeStruct(t *testing.T) {
	q := SettlementListQuery{OrderID: "  ord-1  "}
	SanitizeStruct(&q)
	assert.Equal(t, "ord-1", q.OrderID)

	bad := SettlementListQuery{OrderID: "<b>x</b>"}
	SanitizeStruct(&bad)
	assert.NotContains(t, bad.OrderID, "<b>")

	// non-pointer is a no-op
	SanitizeStruct(q)
}

func TestValidateSafeID(t *testing.T) {
	v := validator.New()
	require.NoError(t, v.RegisterValidation("safe_id", validateSafeID))

	assert.NoError(t, v.Var("CREDITS-6f1c.2", "safe_id"))
	assert.NoError(t, v.Var("ord_123", "safe_id"))
	assert.Error(t, v.Var("ord 1", "safe_id"))
	assert.Error(t, v.Var("ord';--", "safe_id"))
}

func TestSignatureTimestamp(t *testing.T) {
	assert.Equal(t, int64(1700000000), SignatureTimestamp("t=1700000000,te=abc,li="))
	assert.Equal(t, int64(1700000000), SignatureTimestamp("li=abc, t=1700000000"))
	assert.Equal(t, int64(0), SignatureTimestamp("te=abc"))
	assert.Equal(t, int64(0), SignatureTimestamp("t=soon,li=abc"))
	assert.Equal(t, int64(0), SignatureTimestamp(""))
}
