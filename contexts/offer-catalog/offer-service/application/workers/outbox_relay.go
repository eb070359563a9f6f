package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "offerhub/contexts/offer-catalog/offer-service/application"
	"offerhub/contexts/offer-catalog/offer-service/ports"
)

// OutboxRelay publishes pending offer outbox rows to the event bus. Rows are
// marked published one at a time so a failed publish leaves the rest pending.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	// Topic receives every event; empty publishes each event to a topic named
	// after its event type.
	Topic     string
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce relays up to BatchSize rows and returns how many were published.
func (r OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("offer outbox list failed",
			"event", "offer_outbox_list_failed",
			"module", "offer-catalog/offer-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}

	published := 0
	for _, row := range pending {
		var event ports.EventEnvelope
		err := json.Unmarshal(row.Payload, &event)
		if err == nil {
			err = event.Validate()
		}
		if err != nil {
			logger.Error("offer outbox decode failed",
				"event", "offer_outbox_decode_failed",
				"module", "offer-catalog/offer-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return published, err
		}

		topic := r.Topic
		if topic == "" {
			topic = event.EventType
		}
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("offer outbox publish failed",
				"event", "offer_outbox_publish_failed",
				"module", "offer-catalog/offer-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_id", event.EventID,
				"event_type", event.EventType,
				"topic", topic,
				"error", err.Error(),
			)
			return published, err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, r.now()); err != nil {
			logger.Error("offer outbox mark published failed",
				"event", "offer_outbox_mark_published_failed",
				"module", "offer-catalog/offer-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return published, err
		}
		published++
	}

	if published > 0 {
		logger.Info("offer outbox relay cycle completed",
			"event", "offer_outbox_relay_completed",
			"module", "offer-catalog/offer-service",
			"layer", "worker",
			"published_count", published,
		)
	}
	return published, nil
}

func (r OutboxRelay) now() time.Time {
	if r.Clock == nil {
		return time.Now().UTC()
	}
	return r.Clock.Now().UTC()
}
