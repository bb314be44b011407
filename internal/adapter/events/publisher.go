package events

import (
	"encoding/json"
	"fmt"

	"harvest-settlement/config"
	"harvest-settlement/internal/core/domain"
	"harvest-settlement/internal/core/ports"

	"github.com/rs/zerolog"
)

// NewPublisher builds the notice publisher selected by events.driver.
func NewPublisher(cfg config.EventsConfig, log zerolog.Logger) (ports.NoticePublisher, error) {
	switch cfg.Driver {
	case "", "log":
		return NewLogPublisher(log), nil
	case "nats":
		return NewNATSPublisher(cfg.NATSURL, cfg.SubjectPrefix, log)
	case "kafka":
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.SubjectPrefix, log), nil
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}
}

func encodeNotice(notice domain.SettlementNotice) ([]byte, error) {
	b, err := json.Marshal(notice)
	if err != nil {
		return nil, fmt.Errorf("encoding settlement notice: %w", err)
	}
	return b, nil
}
