package events

import (
	"context"
	"errors"
	"fmt"

	"harvest-settlement/internal/core/domain"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// natsConn is the part of *nats.Conn the publisher needs.
type natsConn interface {
	PublishMsg(m *nats.Msg) error
	Drain() error
	Status() nats.Status
}

// NATSPublisher publishes notices as core NATS messages on <prefix>.<type>.
type NATSPublisher struct {
	conn   natsConn
	prefix string
	log    zerolog.Logger
}

// NewNATSPublisher connects to NATS. Reconnects are handled by the client.
func NewNATSPublisher(url, prefix string, log zerolog.Logger) (*NATSPublisher, error) {
	log = log.With().Str("component", "nats_publisher").Logger()

	conn, err := nats.Connect(url,
		nats.Name("harvest-settlement"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}

	log.Info().Str("url", conn.ConnectedUrl()).Msg("NATS connection established")
	return newNATSPublisher(conn, prefix, log), nil
}

func newNATSPublisher(conn natsConn, prefix string, log zerolog.Logger) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: prefix, log: log}
}

// Publish sends the notice. The notice id travels in Nats-Msg-Id; it is derived from
// the provider event, so a JetStream stream bound to the subject drops a notice
// republished for the same event.
func (p *NATSPublisher) Publish(ctx context.Context, notice domain.SettlementNotice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeNotice(notice)
	if err != nil {
		return err
	}

	msg := nats.NewMsg(notice.Subject(p.prefix))
	msg.Header.Set(nats.MsgIdHdr, notice.ID.String())
	msg.Header.Set("Order-Id", notice.OrderID)
	msg.Data = data

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats publish %s: %w", msg.Subject, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// Ping implements ports.HealthChecker.
func (p *NATSPublisher) Ping(_ context.Context) error {
	if s := p.conn.Status(); s != nats.CONNECTED {
		return errors.New("nats connection " + s.String())
	}
	return nil
}

// Name returns the dependency name.
func (p *NATSPublisher) Name() string { return "nats" }
