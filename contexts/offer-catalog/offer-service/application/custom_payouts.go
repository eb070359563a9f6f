package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"offerhub/contexts/offer-catalog/offer-service/domain/entities"
	domainerrors "offerhub/contexts/offer-catalog/offer-service/domain/errors"
)

// AssignCustomPayout creates or replaces the payout one influencer gets on an
// offer. Both the offer and the influencer must exist.
func (s Service) AssignCustomPayout(
	ctx context.Context,
	offerID string,
	influencerID string,
	input PayoutInput,
) (entities.CustomPayoutAssignment, error) {
	offer, err := s.GetOffer(ctx, offerID)
	if err != nil {
		return entities.CustomPayoutAssignment{}, err
	}
	influencer, err := s.GetInfluencer(ctx, influencerID)
	if err != nil {
		return entities.CustomPayoutAssignment{}, err
	}
	definition, err := input.customDefinition()
	if err != nil {
		return entities.CustomPayoutAssignment{}, err
	}

	now := s.now()
	assignment := entities.CustomPayoutAssignment{
		OfferID:      offer.OfferID,
		InfluencerID: influencer.InfluencerID,
		Payout:       definition,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	data := map[string]any{
		"offer_id":      assignment.OfferID,
		"influencer_id": assignment.InfluencerID,
		"payout":        payoutEventData(definition),
	}
	events, err := s.offerEvents(ctx, EventCustomPayoutAssigned, assignment.OfferID, now, data)
	if err != nil {
		return entities.CustomPayoutAssignment{}, err
	}
	stored, err := s.CustomPayouts.PutCustomPayout(ctx, assignment, events)
	if err != nil {
		return entities.CustomPayoutAssignment{}, err
	}

	ResolveLogger(s.Logger).Info("custom payout assigned",
		"event", "custom_payout_assigned",
		"module", moduleName,
		"layer", "application",
		"offer_id", stored.OfferID,
		"influencer_id", stored.InfluencerID,
		"payout_type", string(stored.Payout.Type),
	)
	return stored, nil
}

func (s Service) GetCustomPayout(ctx context.Context, offerID string, influencerID string) (entities.CustomPayoutAssignment, error) {
	offerID = strings.TrimSpace(offerID)
	influencerID = strings.TrimSpace(influencerID)
	if offerID == "" || influencerID == "" {
		return entities.CustomPayoutAssignment{}, domainerrors.ErrCustomPayoutNotFound
	}
	return s.CustomPayouts.GetCustomPayout(ctx, offerID, influencerID)
}

func (s Service) RemoveCustomPayout(ctx context.Context, offerID string, influencerID string) error {
	offerID = strings.TrimSpace(offerID)
	influencerID = strings.TrimSpace(influencerID)
	if offerID == "" || influencerID == "" {
		return domainerrors.ErrCustomPayoutNotFound
	}
	now := s.now()
	events, err := s.offerEvents(ctx, EventCustomPayoutRemoved, offerID, now, map[string]any{
		"offer_id":      offerID,
		"influencer_id": influencerID,
		"removed_at":    now.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	if err := s.CustomPayouts.DeleteCustomPayout(ctx, offerID, influencerID, events); err != nil {
		return err
	}

	ResolveLogger(s.Logger).Info("custom payout removed",
		"event", "custom_payout_removed",
		"module", moduleName,
		"layer", "application",
		"offer_id", offerID,
		"influencer_id", influencerID,
	)
	return nil
}

// customPayoutFor returns nil when the influencer has no assignment on the offer.
func (s Service) customPayoutFor(ctx context.Context, offerID string, influencerID string) (*entities.CustomPayoutAssignment, error) {
	assignment, err := s.CustomPayouts.GetCustomPayout(ctx, offerID, influencerID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrCustomPayoutNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &assignment, nil
}
