// Package events publishes domain events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/odyssey-pos/odyssey-pos/internal/ledger"
)

// SaleCommittedType is the event type for committed sales.
const SaleCommittedType = "pos.sale.committed"

// KafkaConfig configures the producer.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// MessageWriter is the subset of kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// SaleCommitted is the payload written for each committed sale.
type SaleCommitted struct {
	EventID    string      `json:"eventId"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Sale       ledger.Sale `json:"sale"`
}

// KafkaPublisher writes sale events keyed by sale id.
type KafkaPublisher struct {
	writer MessageWriter
	now    func() time.Time
	logger *slog.Logger
}

// NewKafkaPublisher builds a publisher backed by a kafka.Writer.
func NewKafkaPublisher(cfg KafkaConfig, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: no topic configured")
	}
	if logger == nil {
		logger = slog.Default()
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    10,
		BatchTimeout: 500 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warn("kafka write failed", slog.Int("messages", len(messages)), slog.Any("error", err))
			}
		},
	}
	return NewPublisher(writer, logger), nil
}

// NewPublisher wraps an existing writer.
func NewPublisher(writer MessageWriter, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{writer: writer, now: time.Now, logger: logger}
}

// PublishSaleCommitted writes one SaleCommitted event.
func (p *KafkaPublisher) PublishSaleCommitted(ctx context.Context, sale ledger.Sale) error {
	event := SaleCommitted{
		EventID:    uuid.NewString(),
		Type:       SaleCommittedType,
		OccurredAt: p.now().UTC(),
		Sale:       sale,
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode sale event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(sale.ID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(SaleCommittedType)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish sale %s: %w", sale.ID, err)
	}
	p.logger.Debug("sale event published", slog.String("sale_id", sale.ID), slog.String("event_id", event.EventID))
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
