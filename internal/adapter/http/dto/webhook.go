package dto

import (
	"bytes"
	"encoding/json"
	"errors"

	"harvest-settlement/internal/core/domain"
	"harvest-settlement/pkg/apperror"
)

// WebhookPayload is the PayMongo event envelope.
type WebhookPayload struct {
	Data WebhookData `json:"data"`
}

type WebhookData struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Attributes WebhookAttributes `json:"attributes"`
}

type WebhookAttributes struct {
	Type     string          `json:"type"`
	LiveMode bool            `json:"livemode"`
	Data     WebhookResource `json:"data"`
}

type WebhookResource struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Attributes ResourceAttributes `json:"attributes"`
}

type ResourceAttributes struct {
	Amount      int64          `json:"amount"`
	Currency    string         `json:"currency"`
	Status      string         `json:"status"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata"`
}

// ParseWebhookEvent decodes a raw delivery into a domain event. Only the event type
// is required; the event id is kept for audit when the provider sends one.
// Numbers inside metadata stay json.Number so large ids keep their digits.
func ParseWebhookEvent(raw []byte, timestamp int64) (*domain.WebhookEvent, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var p WebhookPayload
	if err := dec.Decode(&p); err != nil {
		return nil, apperror.ErrMalformedPayload(err)
	}
	if p.Data.Attributes.Type == "" {
		return nil, apperror.ErrMalformedPayload(errors.New("missing data.attributes.type"))
	}

	res := p.Data.Attributes.Data
	return &domain.WebhookEvent{
		ID:        p.Data.ID,
		Type:      domain.EventType(p.Data.Attributes.Type),
		LiveMode:  p.Data.Attributes.LiveMode,
		Timestamp: timestamp,
		Resource: domain.EventResource{
			ID:          res.ID,
			Type:        res.Type,
			Amount:      res.Attributes.Amount,
			Currency:    res.Attributes.Currency,
			Status:      res.Attributes.Status,
			Description: res.Attributes.Description,
			Metadata:    domain.EventMetadata(res.Attributes.Metadata),
		},
	}, nil
}
