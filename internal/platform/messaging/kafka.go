package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"offerhub/contexts/offer-catalog/offer-service/ports"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes canonical event envelopes for the outbox relay.
// Messages are keyed by partition key so one offer's events stay ordered.
type Kafka struct {
	writer messageWriter
	logger *slog.Logger
}

func NewKafka(brokers []string, logger *slog.Logger) (*Kafka, error) {
	addrs := make([]string, 0, len(brokers))
	for _, broker := range brokers {
		if broker = strings.TrimSpace(broker); broker != "" {
			addrs = append(addrs, broker)
		}
	}
	if len(addrs) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	return newKafka(&kafka.Writer{
		Addr:         kafka.TCP(addrs...),
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.Hash{},
	}, logger), nil
}

func newKafka(writer messageWriter, logger *slog.Logger) *Kafka {
	if logger == nil {
		logger = slog.Default()
	}
	return &Kafka{writer: writer, logger: logger}
}

func (k *Kafka) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	if strings.TrimSpace(topic) == "" {
		return errors.New("kafka publish requires a topic")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event envelope: %w", err)
	}
	key := event.PartitionKey
	if key == "" {
		key = event.EventID
	}
	if err := k.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "schema_version", Value: []byte(fmt.Sprint(event.SchemaVersion))},
		},
		Time: time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}

	k.logger.Debug("event published",
		"event", "kafka_publish_succeeded",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
	)
	return nil
}

func (k *Kafka) Close() error {
	if k == nil || k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
