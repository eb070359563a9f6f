package ports

import (
	"context"
	"time"

	"offerhub/contexts/offer-catalog/offer-service/domain/entities"
	contractsv1 "offerhub/contracts/gen/events/v1"
)

type OfferFilter struct {
	TitleContains string
	Limit         int
	Offset        int
}

type InfluencerFilter struct {
	Limit  int
	Offset int
}

// Offer writes carry the outbox events they produce so a store can persist
// both atomically. events may be empty.
type OfferRepository interface {
	CreateOffer(ctx context.Context, offer entities.Offer, events []EventEnvelope) error
	UpdateOffer(ctx context.Context, offer entities.Offer, events []EventEnvelope) error
	DeleteOffer(ctx context.Context, offerID string, events []EventEnvelope) error
	GetOffer(ctx context.Context, offerID string) (entities.Offer, error)
	ListOffers(ctx context.Context, filter OfferFilter) ([]entities.Offer, int, error)
}

type InfluencerRepository interface {
	CreateInfluencer(ctx context.Context, influencer entities.Influencer) error
	GetInfluencer(ctx context.Context, influencerID string) (entities.Influencer, error)
	ListInfluencers(ctx context.Context, filter InfluencerFilter) ([]entities.Influencer, int, error)
}

type CustomPayoutRepository interface {
	PutCustomPayout(ctx context.Context, assignment entities.CustomPayoutAssignment, events []EventEnvelope) (entities.CustomPayoutAssignment, error)
	GetCustomPayout(ctx context.Context, offerID string, influencerID string) (entities.CustomPayoutAssignment, error)
	// ListCustomPayoutsForInfluencer returns assignments keyed by offer id,
	// restricted to offerIDs when it is non-empty.
	ListCustomPayoutsForInfluencer(ctx context.Context, influencerID string, offerIDs []string) (map[string]entities.CustomPayoutAssignment, error)
	DeleteCustomPayout(ctx context.Context, offerID string, influencerID string, events []EventEnvelope) error
}

type IdempotencyRecord struct {
	Key             string
	RequestHash     string
	ResponsePayload []byte
	ExpiresAt       time.Time
}

// IdempotencyStore holds create-offer replay records. A key is reserved
// before the write it guards, completed with PutRecord, or released when the
// write fails. A reservation carries no ResponsePayload.
type IdempotencyStore interface {
	GetRecord(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	// ReserveRecord claims record.Key until record.ExpiresAt. When an unexpired
	// record already holds the key it is returned with false.
	ReserveRecord(ctx context.Context, record IdempotencyRecord, now time.Time) (IdempotencyRecord, bool, error)
	PutRecord(ctx context.Context, record IdempotencyRecord) error
	// ReleaseRecord drops a reservation. Completed records are left alone.
	ReleaseRecord(ctx context.Context, key string) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
