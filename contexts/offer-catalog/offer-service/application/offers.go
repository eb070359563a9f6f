package application

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"offerhub/contexts/offer-catalog/offer-service/domain/entities"
	domainerrors "offerhub/contexts/offer-catalog/offer-service/domain/errors"
	"offerhub/contexts/offer-catalog/offer-service/domain/payout"
	"offerhub/contexts/offer-catalog/offer-service/ports"

	"github.com/shopspring/decimal"
)

type CreateOfferInput struct {
	Title       string
	Description string
	Categories  []string
	Payout      PayoutInput
}

type UpdateOfferInput struct {
	Title       *string
	Description *string
	Categories  []string
	Payout      *PayoutPatch
}

type OfferPage struct {
	Items []entities.Offer
	Total int
}

type offerSnapshot struct {
	OfferID          string             `json:"offer_id"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	Categories       []string           `json:"categories"`
	PayoutType       string             `json:"payout_type"`
	CPAAmount        *decimal.Decimal   `json:"cpa_amount,omitempty"`
	FixedAmount      *decimal.Decimal   `json:"fixed_amount,omitempty"`
	CountryOverrides []overrideSnapshot `json:"country_overrides"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

type overrideSnapshot struct {
	CountryCode string          `json:"country_code"`
	CPAAmount   decimal.Decimal `json:"cpa_amount"`
}

// CreateOffer reserves the idempotency key before inserting, so concurrent
// requests under one key create at most one offer.
func (s Service) CreateOffer(
	ctx context.Context,
	idempotencyKey string,
	input CreateOfferInput,
) (entities.Offer, bool, error) {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey == "" {
		return entities.Offer{}, false, domainerrors.ErrIdempotencyKeyRequired
	}

	now := s.now()
	requestHash := hashPayload(map[string]any{
		"title":       strings.TrimSpace(input.Title),
		"description": strings.TrimSpace(input.Description),
		"categories":  append([]string(nil), input.Categories...),
		"payout":      payoutHashData(input.Payout),
	})
	record, reserved, err := s.Idempotency.ReserveRecord(ctx, ports.IdempotencyRecord{
		Key:         idempotencyKey,
		RequestHash: requestHash,
		ExpiresAt:   now.Add(s.reservationLease()),
	}, now)
	if err != nil {
		return entities.Offer{}, false, err
	}
	if !reserved {
		if record.RequestHash != requestHash {
			return entities.Offer{}, false, domainerrors.ErrIdempotencyConflict
		}
		if len(record.ResponsePayload) == 0 {
			return entities.Offer{}, false, domainerrors.ErrIdempotencyInProgress
		}
		var snapshot offerSnapshot
		if err := json.Unmarshal(record.ResponsePayload, &snapshot); err != nil {
			return entities.Offer{}, false, err
		}
		return snapshot.toEntity(), true, nil
	}

	offer, err := s.insertOffer(ctx, input, now)
	if err != nil {
		s.releaseIdempotencyKey(ctx, idempotencyKey)
		return entities.Offer{}, false, err
	}

	payload, err := json.Marshal(snapshotFromOffer(offer))
	if err != nil {
		return entities.Offer{}, false, err
	}
	if err := s.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             idempotencyKey,
		RequestHash:     requestHash,
		ResponsePayload: payload,
		ExpiresAt:       now.Add(s.idempotencyTTL()),
	}); err != nil {
		return entities.Offer{}, false, err
	}

	ResolveLogger(s.Logger).Info("offer created",
		"event", "offer_created",
		"module", moduleName,
		"layer", "application",
		"offer_id", offer.OfferID,
		"payout_type", string(offer.Payout.Type),
	)
	return offer, false, nil
}

func (s Service) insertOffer(ctx context.Context, input CreateOfferInput, now time.Time) (entities.Offer, error) {
	categories, ok := entities.ParseCategories(input.Categories)
	if !ok {
		return entities.Offer{}, domainerrors.ErrInvalidOfferInput
	}
	definition, err := input.Payout.definition()
	if err != nil {
		return entities.Offer{}, err
	}
	offerID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Offer{}, err
	}
	offer := entities.Offer{
		OfferID:     strings.TrimSpace(offerID),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Categories:  categories,
		Payout:      definition,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !offer.ValidateBasics() {
		return entities.Offer{}, domainerrors.ErrInvalidOfferInput
	}

	events, err := s.offerEvents(ctx, EventOfferCreated, offer.OfferID, now, offerEventData(offer))
	if err != nil {
		return entities.Offer{}, err
	}
	if err := s.Offers.CreateOffer(ctx, offer, events); err != nil {
		return entities.Offer{}, err
	}
	return offer, nil
}

// releaseIdempotencyKey frees a reservation whose insert failed. A failed
// release only delays retries until the lease runs out.
func (s Service) releaseIdempotencyKey(ctx context.Context, key string) {
	if err := s.Idempotency.ReleaseRecord(ctx, key); err != nil {
		ResolveLogger(s.Logger).Warn("idempotency key release failed",
			"event", "offer_idempotency_release_failed",
			"module", moduleName,
			"layer", "application",
			"error", err.Error(),
		)
	}
}

func (s Service) GetOffer(ctx context.Context, offerID string) (entities.Offer, error) {
	offerID = strings.TrimSpace(offerID)
	if offerID == "" {
		return entities.Offer{}, domainerrors.ErrOfferNotFound
	}
	return s.Offers.GetOffer(ctx, offerID)
}

func (s Service) ListOffers(ctx context.Context, query PageQuery) (OfferPage, error) {
	limit, offset := clampPage(query.Limit, query.Offset)
	items, total, err := s.Offers.ListOffers(ctx, ports.OfferFilter{
		TitleContains: strings.TrimSpace(query.Title),
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		return OfferPage{}, err
	}
	ResolveLogger(s.Logger).Debug("offers listed",
		"event", "offers_listed",
		"module", moduleName,
		"layer", "application",
		"count", len(items),
		"total", total,
	)
	return OfferPage{Items: items, Total: total}, nil
}

func (s Service) UpdateOffer(ctx context.Context, offerID string, input UpdateOfferInput) (entities.Offer, error) {
	offer, err := s.GetOffer(ctx, offerID)
	if err != nil {
		return entities.Offer{}, err
	}

	if input.Title != nil {
		offer.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		offer.Description = strings.TrimSpace(*input.Description)
	}
	if input.Categories != nil {
		categories, ok := entities.ParseCategories(input.Categories)
		if !ok {
			return entities.Offer{}, domainerrors.ErrInvalidOfferInput
		}
		offer.Categories = categories
	}
	if input.Payout != nil {
		definition, err := input.Payout.merge(offer.Payout)
		if err != nil {
			return entities.Offer{}, err
		}
		offer.Payout = definition
	}
	if !offer.ValidateBasics() {
		return entities.Offer{}, domainerrors.ErrInvalidOfferInput
	}

	now := s.now()
	offer.UpdatedAt = now
	events, err := s.offerEvents(ctx, EventOfferUpdated, offer.OfferID, now, offerEventData(offer))
	if err != nil {
		return entities.Offer{}, err
	}
	if err := s.Offers.UpdateOffer(ctx, offer, events); err != nil {
		return entities.Offer{}, err
	}

	ResolveLogger(s.Logger).Info("offer updated",
		"event", "offer_updated",
		"module", moduleName,
		"layer", "application",
		"offer_id", offer.OfferID,
		"payout_type", string(offer.Payout.Type),
	)
	return offer, nil
}

// DeleteOffer removes the offer together with every custom payout assigned on it.
func (s Service) DeleteOffer(ctx context.Context, offerID string) error {
	offerID = strings.TrimSpace(offerID)
	if offerID == "" {
		return domainerrors.ErrOfferNotFound
	}
	now := s.now()
	events, err := s.offerEvents(ctx, EventOfferDeleted, offerID, now, map[string]any{
		"offer_id":   offerID,
		"deleted_at": now.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	if err := s.Offers.DeleteOffer(ctx, offerID, events); err != nil {
		return err
	}

	ResolveLogger(s.Logger).Info("offer deleted",
		"event", "offer_deleted",
		"module", moduleName,
		"layer", "application",
		"offer_id", offerID,
	)
	return nil
}

func offerEventData(offer entities.Offer) map[string]any {
	return map[string]any{
		"offer_id":    offer.OfferID,
		"title":       offer.Title,
		"categories":  offer.CategoryNames(),
		"payout":      payoutEventData(offer.Payout),
		"occurred_at": offer.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func snapshotFromOffer(offer entities.Offer) offerSnapshot {
	snapshot := offerSnapshot{
		OfferID:          offer.OfferID,
		Title:            offer.Title,
		Description:      offer.Description,
		Categories:       offer.CategoryNames(),
		PayoutType:       string(offer.Payout.Type),
		CPAAmount:        offer.Payout.CPAAmount,
		FixedAmount:      offer.Payout.FixedAmount,
		CountryOverrides: make([]overrideSnapshot, 0, len(offer.Payout.CountryOverrides)),
		CreatedAt:        offer.CreatedAt.UTC(),
		UpdatedAt:        offer.UpdatedAt.UTC(),
	}
	for _, override := range offer.Payout.CountryOverrides {
		snapshot.CountryOverrides = append(snapshot.CountryOverrides, overrideSnapshot{
			CountryCode: override.CountryCode,
			CPAAmount:   override.CPAAmount,
		})
	}
	return snapshot
}

func (s offerSnapshot) toEntity() entities.Offer {
	categories := make([]entities.Category, 0, len(s.Categories))
	for _, name := range s.Categories {
		categories = append(categories, entities.Category(name))
	}
	definition := payout.Definition{
		Type:        payout.Type(s.PayoutType),
		CPAAmount:   s.CPAAmount,
		FixedAmount: s.FixedAmount,
	}
	for _, override := range s.CountryOverrides {
		definition.CountryOverrides = append(definition.CountryOverrides, payout.CountryOverride{
			CountryCode: override.CountryCode,
			CPAAmount:   override.CPAAmount,
		})
	}
	return entities.Offer{
		OfferID:     s.OfferID,
		Title:       s.Title,
		Description: s.Description,
		Categories:  categories,
		Payout:      definition,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
