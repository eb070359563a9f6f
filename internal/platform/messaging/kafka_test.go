package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"offerhub/contexts/offer-catalog/offer-service/ports"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishWritesKeyedEnvelope(t *testing.T) {
	writer := &recordingWriter{}
	publisher := newKafka(writer, nil)

	event := ports.EventEnvelope{
		EventID:          "evt-1",
		EventType:        "offer.created",
		OccurredAt:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		SourceService:    "offer-service",
		SchemaVersion:    1,
		PartitionKeyPath: "offer_id",
		PartitionKey:     "offer-1",
		Data:             json.RawMessage(`{"offer_id":"offer-1"}`),
	}
	if err := publisher.Publish(context.Background(), "offer-events", event); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(writer.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(writer.messages))
	}
	msg := writer.messages[0]
	if msg.Topic != "offer-events" || string(msg.Key) != "offer-1" {
		t.Fatalf("unexpected topic/key: %s %s", msg.Topic, msg.Key)
	}
	var decoded ports.EventEnvelope
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode message value: %v", err)
	}
	if decoded.EventID != "evt-1" || decoded.PartitionKey != "offer-1" {
		t.Fatalf("unexpected envelope: %+v", decoded)
	}
}

func TestPublishFallsBackToEventIDKey(t *testing.T) {
	writer := &recordingWriter{}
	publisher := newKafka(writer, nil)

	if err := publisher.Publish(context.Background(), "offer-events", ports.EventEnvelope{EventID: "evt-2"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if string(writer.messages[0].Key) != "evt-2" {
		t.Fatalf("expected event id key, got %s", writer.messages[0].Key)
	}
}

func TestPublishErrors(t *testing.T) {
	failure := errors.New("broker down")
	publisher := newKafka(&recordingWriter{err: failure}, nil)

	if err := publisher.Publish(context.Background(), "", ports.EventEnvelope{}); err == nil {
		t.Fatalf("expected error for empty topic")
	}
	if err := publisher.Publish(context.Background(), "offer-events", ports.EventEnvelope{EventID: "x"}); !errors.Is(err, failure) {
		t.Fatalf("expected wrapped writer error, got %v", err)
	}
}

func TestNewKafkaRequiresBrokers(t *testing.T) {
	if _, err := NewKafka([]string{" ", ""}, nil); err == nil {
		t.Fatalf("expected error without brokers")
	}
	publisher, err := NewKafka([]string{"localhost:9092"}, nil)
	if err != nil {
		t.Fatalf("new kafka: %v", err)
	}
	if err := publisher.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
