package events

import (
	"context"

	"harvest-settlement/internal/core/domain"

	"github.com/rs/zerolog"
)

// LogPublisher writes notices to the log. Used when no bus is deployed.
type LogPublisher struct {
	log zerolog.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log.With().Str("component", "notice_publisher").Logger()}
}

func (p *LogPublisher) Publish(ctx context.Context, notice domain.SettlementNotice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.log.Info().
		Str("request_id", notice.RequestID).
		Str("notice_id", notice.ID.String()).
		Str("type", string(notice.Type)).
		Str("order_id", notice.OrderID).
		Str("order_kind", string(notice.OrderKind)).
		Str("event_id", notice.EventID).
		Msg("settlement notice")
	return nil
}

func (p *LogPublisher) Close() error { return nil }
