package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"harvest-settlement/internal/core/domain"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes notices to a single topic keyed by order id,
// so all notices for one order land on the same partition.
type KafkaPublisher struct {
	w       messageWriter
	brokers []string
	prefix  string
	log     zerolog.Logger
}

// NewKafkaPublisher creates a publisher. The writer connects lazily on first write.
func NewKafkaPublisher(brokers []string, topic, prefix string, log zerolog.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  5,
		WriteTimeout: 5 * time.Second,
		ReadTimeout:  5 * time.Second,
		BatchTimeout: 50 * time.Millisecond,
	}
	log.Info().Strs("brokers", brokers).Str("topic", topic).Msg("Kafka notice writer configured")
	return newKafkaPublisher(w, brokers, prefix, log)
}

func newKafkaPublisher(w messageWriter, brokers []string, prefix string, log zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		w:       w,
		brokers: brokers,
		prefix:  prefix,
		log:     log.With().Str("component", "kafka_publisher").Logger(),
	}
}

// Publish writes the notice synchronously.
func (p *KafkaPublisher) Publish(ctx context.Context, notice domain.SettlementNotice) error {
	msg, err := p.message(notice)
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write %s: %w", notice.Subject(p.prefix), err)
	}
	return nil
}

func (p *KafkaPublisher) message(notice domain.SettlementNotice) (kafka.Message, error) {
	value, err := encodeNotice(notice)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(notice.Key()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "subject", Value: []byte(notice.Subject(p.prefix))},
			{Key: "notice_id", Value: []byte(notice.ID.String())},
		},
		Time: notice.OccurredAt,
	}, nil
}

// Close flushes and releases the writer.
func (p *KafkaPublisher) Close() error { return p.w.Close() }

// Ping implements ports.HealthChecker by dialing the first reachable broker.
func (p *KafkaPublisher) Ping(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	var lastErr error
	for _, broker := range p.brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		return conn.Close()
	}
	return fmt.Errorf("dialing kafka: %w", lastErr)
}

// Name returns the dependency name.
func (p *KafkaPublisher) Name() string { return "kafka" }
