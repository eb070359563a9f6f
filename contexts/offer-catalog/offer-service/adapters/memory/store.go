package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"offerhub/contexts/offer-catalog/offer-service/domain/entities"
	domainerrors "offerhub/contexts/offer-catalog/offer-service/domain/errors"
	"offerhub/contexts/offer-catalog/offer-service/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	Message     ports.OutboxMessage
	Status      string
	PublishedAt *time.Time
}

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type customPayoutKey struct {
	OfferID      string
	InfluencerID string
}

type Store struct {
	mu sync.RWMutex

	offers        map[string]entities.Offer
	influencers   map[string]entities.Influencer
	emails        map[string]string
	customPayouts map[customPayoutKey]entities.CustomPayoutAssignment

	idempotency map[string]ports.IdempotencyRecord
	outbox      map[string]outboxRecord
}

func NewStore(seedOffers []entities.Offer, seedInfluencers []entities.Influencer) *Store {
	store := &Store{
		offers:        make(map[string]entities.Offer, len(seedOffers)),
		influencers:   make(map[string]entities.Influencer, len(seedInfluencers)),
		emails:        make(map[string]string, len(seedInfluencers)),
		customPayouts: make(map[customPayoutKey]entities.CustomPayoutAssignment),
		idempotency:   make(map[string]ports.IdempotencyRecord),
		outbox:        make(map[string]outboxRecord),
	}
	for _, item := range seedOffers {
		store.offers[item.OfferID] = item.Clone()
	}
	for _, item := range seedInfluencers {
		store.influencers[item.InfluencerID] = item
		store.emails[entities.NormalizeEmail(item.Email)] = item.InfluencerID
	}
	return store
}

func (s *Store) CreateOffer(_ context.Context, offer entities.Offer, events []ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.offers[offer.OfferID]; exists {
		return domainerrors.ErrInvalidOfferInput
	}
	if err := s.appendOutboxLocked(events); err != nil {
		return err
	}
	s.offers[offer.OfferID] = offer.Clone()
	return nil
}

func (s *Store) UpdateOffer(_ context.Context, offer entities.Offer, events []ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.offers[offer.OfferID]
	if !exists {
		return domainerrors.ErrOfferNotFound
	}
	if err := s.appendOutboxLocked(events); err != nil {
		return err
	}
	updated := offer.Clone()
	updated.CreatedAt = existing.CreatedAt
	s.offers[offer.OfferID] = updated
	return nil
}

func (s *Store) DeleteOffer(_ context.Context, offerID string, events []ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	offerID = strings.TrimSpace(offerID)
	if _, exists := s.offers[offerID]; !exists {
		return domainerrors.ErrOfferNotFound
	}
	if err := s.appendOutboxLocked(events); err != nil {
		return err
	}
	delete(s.offers, offerID)
	for key := range s.customPayouts {
		if key.OfferID == offerID {
			delete(s.customPayouts, key)
		}
	}
	return nil
}

func (s *Store) GetOffer(_ context.Context, offerID string) (entities.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.offers[strings.TrimSpace(offerID)]
	if !exists {
		return entities.Offer{}, domainerrors.ErrOfferNotFound
	}
	return item.Clone(), nil
}

func (s *Store) ListOffers(_ context.Context, filter ports.OfferFilter) ([]entities.Offer, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(filter.TitleContains))
	items := make([]entities.Offer, 0, len(s.offers))
	for _, offer := range s.offers {
		if needle != "" && !strings.Contains(strings.ToLower(offer.Title), needle) {
			continue
		}
		items = append(items, offer.Clone())
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].OfferID < items[j].OfferID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return paginate(items, filter.Offset, filter.Limit), len(items), nil
}

func (s *Store) CreateInfluencer(_ context.Context, influencer entities.Influencer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.influencers[influencer.InfluencerID]; exists {
		return domainerrors.ErrInvalidInfluencerInput
	}
	email := entities.NormalizeEmail(influencer.Email)
	if _, taken := s.emails[email]; taken {
		return domainerrors.ErrInfluencerEmailTaken
	}
	s.influencers[influencer.InfluencerID] = influencer
	s.emails[email] = influencer.InfluencerID
	return nil
}

func (s *Store) GetInfluencer(_ context.Context, influencerID string) (entities.Influencer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.influencers[strings.TrimSpace(influencerID)]
	if !exists {
		return entities.Influencer{}, domainerrors.ErrInfluencerNotFound
	}
	return item, nil
}

func (s *Store) ListInfluencers(_ context.Context, filter ports.InfluencerFilter) ([]entities.Influencer, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Influencer, 0, len(s.influencers))
	for _, influencer := range s.influencers {
		items = append(items, influencer)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].InfluencerID < items[j].InfluencerID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return paginate(items, filter.Offset, filter.Limit), len(items), nil
}

func (s *Store) PutCustomPayout(
	_ context.Context,
	assignment entities.CustomPayoutAssignment,
	events []ports.EventEnvelope,
) (entities.CustomPayoutAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.offers[assignment.OfferID]; !exists {
		return entities.CustomPayoutAssignment{}, domainerrors.ErrOfferNotFound
	}
	if _, exists := s.influencers[assignment.InfluencerID]; !exists {
		return entities.CustomPayoutAssignment{}, domainerrors.ErrInfluencerNotFound
	}
	if err := s.appendOutboxLocked(events); err != nil {
		return entities.CustomPayoutAssignment{}, err
	}
	key := customPayoutKey{OfferID: assignment.OfferID, InfluencerID: assignment.InfluencerID}
	if existing, ok := s.customPayouts[key]; ok {
		assignment.CreatedAt = existing.CreatedAt
	}
	assignment.Payout = assignment.Payout.Clone()
	s.customPayouts[key] = assignment
	return assignment, nil
}

func (s *Store) GetCustomPayout(_ context.Context, offerID string, influencerID string) (entities.CustomPayoutAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.customPayouts[customPayoutKey{
		OfferID:      strings.TrimSpace(offerID),
		InfluencerID: strings.TrimSpace(influencerID),
	}]
	if !exists {
		return entities.CustomPayoutAssignment{}, domainerrors.ErrCustomPayoutNotFound
	}
	item.Payout = item.Payout.Clone()
	return item, nil
}

func (s *Store) ListCustomPayoutsForInfluencer(
	_ context.Context,
	influencerID string,
	offerIDs []string,
) (map[string]entities.CustomPayoutAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]struct{}, len(offerIDs))
	for _, offerID := range offerIDs {
		wanted[strings.TrimSpace(offerID)] = struct{}{}
	}
	influencerID = strings.TrimSpace(influencerID)
	items := make(map[string]entities.CustomPayoutAssignment)
	for key, item := range s.customPayouts {
		if key.InfluencerID != influencerID {
			continue
		}
		if _, ok := wanted[key.OfferID]; len(wanted) > 0 && !ok {
			continue
		}
		item.Payout = item.Payout.Clone()
		items[key.OfferID] = item
	}
	return items, nil
}

func (s *Store) DeleteCustomPayout(
	_ context.Context,
	offerID string,
	influencerID string,
	events []ports.EventEnvelope,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := customPayoutKey{OfferID: strings.TrimSpace(offerID), InfluencerID: strings.TrimSpace(influencerID)}
	if _, exists := s.customPayouts[key]; !exists {
		return domainerrors.ErrCustomPayoutNotFound
	}
	if err := s.appendOutboxLocked(events); err != nil {
		return err
	}
	delete(s.customPayouts, key)
	return nil
}

func (s *Store) GetRecord(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.idempotency[key]
	if !exists {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) ReserveRecord(
	_ context.Context,
	record ports.IdempotencyRecord,
	now time.Time,
) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.idempotency[record.Key]
	if exists && existing.ExpiresAt.After(now) {
		existing.ResponsePayload = append([]byte(nil), existing.ResponsePayload...)
		return existing, false, nil
	}
	record.ResponsePayload = nil
	s.idempotency[record.Key] = record
	return record, true, nil
}

func (s *Store) ReleaseRecord(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, exists := s.idempotency[key]; exists && len(existing.ResponsePayload) == 0 {
		delete(s.idempotency, key)
	}
	return nil
}

func (s *Store) PutRecord(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.idempotency[record.Key]
	if exists && existing.RequestHash != record.RequestHash {
		return domainerrors.ErrIdempotencyConflict
	}
	s.idempotency[record.Key] = record
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.Status == outboxStatusPending {
			items = append(items, row.Message)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].OutboxID < items[j].OutboxID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrOfferNotFound
	}
	at := publishedAt.UTC()
	row.Status = outboxStatusPublished
	row.PublishedAt = &at
	s.outbox[row.Message.OutboxID] = row
	return nil
}

// PendingOutboxCount is used by tests to observe emitted events.
func (s *Store) PendingOutboxCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, row := range s.outbox {
		if row.Status == outboxStatusPending {
			count++
		}
	}
	return count
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) appendOutboxLocked(events []ports.EventEnvelope) error {
	for _, envelope := range events {
		payload, err := json.Marshal(envelope)
		if err != nil {
			return err
		}
		outboxID := strings.TrimSpace(envelope.EventID)
		if outboxID == "" {
			return domainerrors.ErrInvalidOfferInput
		}
		if existing, ok := s.outbox[outboxID]; ok {
			if !bytes.Equal(existing.Message.Payload, payload) {
				return domainerrors.ErrIdempotencyConflict
			}
			continue
		}
		s.outbox[outboxID] = outboxRecord{
			Message: ports.OutboxMessage{
				OutboxID:     outboxID,
				EventType:    envelope.EventType,
				PartitionKey: envelope.PartitionKey,
				Payload:      payload,
				CreatedAt:    envelope.OccurredAt.UTC(),
			},
			Status: outboxStatusPending,
		}
	}
	return nil
}

func paginate[T any](items []T, offset int, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
