package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"offerhub/contexts/offer-catalog/offer-service/ports"
)

const (
	moduleName   = "offer-catalog/offer-service"
	sourceName   = "offer-service"
	defaultLimit = 100
	maxLimit     = 100

	idempotencyLease = 30 * time.Second

	EventOfferCreated         = "offer.created"
	EventOfferUpdated         = "offer.updated"
	EventOfferDeleted         = "offer.deleted"
	EventCustomPayoutAssigned = "custom_payout.assigned"
	EventCustomPayoutRemoved  = "custom_payout.removed"
)

type Service struct {
	Offers                    ports.OfferRepository
	Influencers               ports.InfluencerRepository
	CustomPayouts             ports.CustomPayoutRepository
	Idempotency               ports.IdempotencyStore
	Clock                     ports.Clock
	IDGen                     ports.IDGenerator
	IdempotencyTTL            time.Duration
	DisableOfferEventEmission bool
	Logger                    *slog.Logger
}

type PageQuery struct {
	Title  string
	Limit  int
	Offset int
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) idempotencyTTL() time.Duration {
	if s.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.IdempotencyTTL
}

// reservationLease bounds how long a crashed create can hold its key.
func (s Service) reservationLease() time.Duration {
	if ttl := s.idempotencyTTL(); ttl < idempotencyLease {
		return ttl
	}
	return idempotencyLease
}

// offerEvents builds the outbox envelopes for a single offer write. It returns
// nil when emission is disabled.
func (s Service) offerEvents(
	ctx context.Context,
	eventType string,
	offerID string,
	occurredAt time.Time,
	data map[string]any,
) ([]ports.EventEnvelope, error) {
	if s.DisableOfferEventEmission {
		return nil, nil
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return []ports.EventEnvelope{{
		EventID:          strings.TrimSpace(eventID),
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    sourceName,
		TraceID:          strings.TrimSpace(eventID),
		SchemaVersion:    1,
		PartitionKeyPath: "offer_id",
		PartitionKey:     offerID,
		Data:             payload,
	}}, nil
}

func clampPage(limit int, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func hashPayload(payload map[string]any) string {
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
