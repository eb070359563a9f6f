package application

import (
	"context"
	"strings"

	"offerhub/contexts/offer-catalog/offer-service/domain/entities"
	domainerrors "offerhub/contexts/offer-catalog/offer-service/domain/errors"
	"offerhub/contexts/offer-catalog/offer-service/ports"
)

type CreateInfluencerInput struct {
	Name  string
	Email string
}

type InfluencerPage struct {
	Items []entities.Influencer
	Total int
}

func (s Service) CreateInfluencer(ctx context.Context, input CreateInfluencerInput) (entities.Influencer, error) {
	now := s.now()
	influencer := entities.Influencer{
		Name:      strings.TrimSpace(input.Name),
		Email:     entities.NormalizeEmail(input.Email),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !influencer.ValidateBasics() {
		return entities.Influencer{}, domainerrors.ErrInvalidInfluencerInput
	}
	influencerID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Influencer{}, err
	}
	influencer.InfluencerID = strings.TrimSpace(influencerID)
	if err := s.Influencers.CreateInfluencer(ctx, influencer); err != nil {
		return entities.Influencer{}, err
	}

	ResolveLogger(s.Logger).Info("influencer created",
		"event", "influencer_created",
		"module", moduleName,
		"layer", "application",
		"influencer_id", influencer.InfluencerID,
	)
	return influencer, nil
}

func (s Service) GetInfluencer(ctx context.Context, influencerID string) (entities.Influencer, error) {
	influencerID = strings.TrimSpace(influencerID)
	if influencerID == "" {
		return entities.Influencer{}, domainerrors.ErrInfluencerNotFound
	}
	return s.Influencers.GetInfluencer(ctx, influencerID)
}

func (s Service) ListInfluencers(ctx context.Context, query PageQuery) (InfluencerPage, error) {
	limit, offset := clampPage(query.Limit, query.Offset)
	items, total, err := s.Influencers.ListInfluencers(ctx, ports.InfluencerFilter{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return InfluencerPage{}, err
	}
	return InfluencerPage{Items: items, Total: total}, nil
}
