package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"offerhub/contexts/offer-catalog/offer-service/domain/entities"
	domainerrors "offerhub/contexts/offer-catalog/offer-service/domain/errors"
	"offerhub/contexts/offer-catalog/offer-service/domain/payout"
)

type InfluencerOfferPage struct {
	Items []entities.InfluencerOffer
	Total int
}

// ListOffersForInfluencer returns offers with the payout the influencer sees.
// An unknown influencer gets an empty page rather than an error.
func (s Service) ListOffersForInfluencer(
	ctx context.Context,
	influencerID string,
	query PageQuery,
) (InfluencerOfferPage, error) {
	logger := ResolveLogger(s.Logger)
	influencer, err := s.GetInfluencer(ctx, influencerID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrInfluencerNotFound) {
			logger.Warn("influencer offers requested for unknown influencer",
				"event", "influencer_offers_unknown_influencer",
				"module", moduleName,
				"layer", "application",
				"influencer_id", strings.TrimSpace(influencerID),
			)
			return InfluencerOfferPage{Items: []entities.InfluencerOffer{}}, nil
		}
		return InfluencerOfferPage{}, err
	}

	page, err := s.ListOffers(ctx, query)
	if err != nil {
		return InfluencerOfferPage{}, err
	}
	offerIDs := make([]string, 0, len(page.Items))
	for _, offer := range page.Items {
		offerIDs = append(offerIDs, offer.OfferID)
	}
	assignments := map[string]entities.CustomPayoutAssignment{}
	if len(offerIDs) > 0 {
		assignments, err = s.CustomPayouts.ListCustomPayoutsForInfluencer(ctx, influencer.InfluencerID, offerIDs)
		if err != nil {
			return InfluencerOfferPage{}, err
		}
	}

	items := make([]entities.InfluencerOffer, 0, len(page.Items))
	for _, offer := range page.Items {
		var assignment *entities.CustomPayoutAssignment
		if item, ok := assignments[offer.OfferID]; ok {
			assignment = &item
		}
		view, err := resolveView(offer, influencer.InfluencerID, assignment)
		if err != nil {
			logger.Error("offer payout failed resolution",
				"event", "offer_payout_integrity_failed",
				"module", moduleName,
				"layer", "application",
				"offer_id", offer.OfferID,
				"influencer_id", influencer.InfluencerID,
				"error", err.Error(),
			)
			return InfluencerOfferPage{}, err
		}
		items = append(items, view)
	}

	logger.Debug("influencer offers listed",
		"event", "influencer_offers_listed",
		"module", moduleName,
		"layer", "application",
		"influencer_id", influencer.InfluencerID,
		"count", len(items),
		"custom_count", len(assignments),
	)
	return InfluencerOfferPage{Items: items, Total: page.Total}, nil
}

// GetOfferForInfluencer resolves a single offer. Unlike the listing it
// requires the influencer to exist.
func (s Service) GetOfferForInfluencer(
	ctx context.Context,
	offerID string,
	influencerID string,
) (entities.InfluencerOffer, error) {
	offer, err := s.GetOffer(ctx, offerID)
	if err != nil {
		return entities.InfluencerOffer{}, err
	}
	influencer, err := s.GetInfluencer(ctx, influencerID)
	if err != nil {
		return entities.InfluencerOffer{}, err
	}
	assignment, err := s.customPayoutFor(ctx, offer.OfferID, influencer.InfluencerID)
	if err != nil {
		return entities.InfluencerOffer{}, err
	}
	return resolveView(offer, influencer.InfluencerID, assignment)
}

func resolveView(
	offer entities.Offer,
	influencerID string,
	assignment *entities.CustomPayoutAssignment,
) (entities.InfluencerOffer, error) {
	var custom *payout.CustomPayout
	if assignment != nil {
		custom = assignment.ToCustomPayout()
	}
	effective, text, err := payout.Describe(offer.Payout, custom)
	if err != nil {
		return entities.InfluencerOffer{}, fmt.Errorf("%w: offer %s: %w", domainerrors.ErrPayoutIntegrity, offer.OfferID, err)
	}
	return entities.InfluencerOffer{
		Offer:        offer,
		InfluencerID: influencerID,
		Effective:    effective,
		DisplayText:  text,
		Custom:       custom != nil,
	}, nil
}
