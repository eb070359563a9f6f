package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"offerhub/contexts/offer-catalog/offer-service/application"
	"offerhub/contexts/offer-catalog/offer-service/domain/entities"
	"offerhub/contexts/offer-catalog/offer-service/domain/payout"
	httptransport "offerhub/contexts/offer-catalog/offer-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) CreateOfferHandler(
	ctx context.Context,
	idempotencyKey string,
	req httptransport.CreateOfferRequest,
) (httptransport.OfferResponse, error) {
	offer, replayed, err := h.Service.CreateOffer(ctx, idempotencyKey, application.CreateOfferInput{
		Title:       req.Title,
		Description: req.Description,
		Categories:  req.Categories,
		Payout:      toPayoutInput(req.Payout),
	})
	if err != nil {
		return httptransport.OfferResponse{}, err
	}
	return httptransport.OfferResponse{
		Status:   "success",
		Replayed: replayed,
		Data:     toOfferDTO(offer),
	}, nil
}

func (h Handler) ListOffersHandler(
	ctx context.Context,
	query httptransport.ListQuery,
) (httptransport.OfferListResponse, error) {
	page, err := h.Service.ListOffers(ctx, application.PageQuery{
		Title:  query.Title,
		Limit:  query.Limit,
		Offset: query.Skip,
	})
	if err != nil {
		return httptransport.OfferListResponse{}, err
	}
	resp := httptransport.OfferListResponse{
		Status: "success",
		Data:   make([]httptransport.OfferDTO, 0, len(page.Items)),
		Total:  page.Total,
	}
	for _, item := range page.Items {
		resp.Data = append(resp.Data, toOfferDTO(item))
	}
	return resp, nil
}

func (h Handler) GetOfferHandler(ctx context.Context, offerID string) (httptransport.OfferResponse, error) {
	offer, err := h.Service.GetOffer(ctx, offerID)
	if err != nil {
		return httptransport.OfferResponse{}, err
	}
	return httptransport.OfferResponse{Status: "success", Data: toOfferDTO(offer)}, nil
}

func (h Handler) UpdateOfferHandler(
	ctx context.Context,
	offerID string,
	req httptransport.UpdateOfferRequest,
) (httptransport.OfferResponse, error) {
	input := application.UpdateOfferInput{
		Title:       req.Title,
		Description: req.Description,
		Categories:  req.Categories,
	}
	if req.Payout != nil {
		patch := application.PayoutPatch{
			Type:        req.Payout.PayoutType,
			CPAAmount:   req.Payout.CPAAmount,
			FixedAmount: req.Payout.FixedAmount,
		}
		if req.Payout.CountryOverrides != nil {
			overrides := toOverrideInputs(*req.Payout.CountryOverrides)
			patch.CountryOverrides = &overrides
		}
		input.Payout = &patch
	}
	offer, err := h.Service.UpdateOffer(ctx, offerID, input)
	if err != nil {
		return httptransport.OfferResponse{}, err
	}
	return httptransport.OfferResponse{Status: "success", Data: toOfferDTO(offer)}, nil
}

func (h Handler) DeleteOfferHandler(ctx context.Context, offerID string) error {
	return h.Service.DeleteOffer(ctx, offerID)
}

func (h Handler) AssignCustomPayoutHandler(
	ctx context.Context,
	offerID string,
	influencerID string,
	req httptransport.PayoutDTO,
) (httptransport.CustomPayoutResponse, error) {
	assignment, err := h.Service.AssignCustomPayout(ctx, offerID, influencerID, toPayoutInput(req))
	if err != nil {
		return httptransport.CustomPayoutResponse{}, err
	}
	return httptransport.CustomPayoutResponse{
		Status: "success",
		Data: httptransport.CustomPayoutDTO{
			OfferID:      assignment.OfferID,
			InfluencerID: assignment.InfluencerID,
			Payout:       toPayoutDTO(assignment.Payout),
			CreatedAt:    assignment.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt:    assignment.UpdatedAt.UTC().Format(time.RFC3339),
		},
	}, nil
}

func (h Handler) RemoveCustomPayoutHandler(ctx context.Context, offerID string, influencerID string) error {
	return h.Service.RemoveCustomPayout(ctx, offerID, influencerID)
}

func (h Handler) ListInfluencerOffersHandler(
	ctx context.Context,
	influencerID string,
	query httptransport.ListQuery,
) (httptransport.InfluencerOfferListResponse, error) {
	page, err := h.Service.ListOffersForInfluencer(ctx, influencerID, application.PageQuery{
		Title:  query.Title,
		Limit:  query.Limit,
		Offset: query.Skip,
	})
	if err != nil {
		return httptransport.InfluencerOfferListResponse{}, err
	}
	resp := httptransport.InfluencerOfferListResponse{
		Status: "success",
		Data:   make([]httptransport.InfluencerOfferDTO, 0, len(page.Items)),
		Total:  page.Total,
	}
	for _, item := range page.Items {
		resp.Data = append(resp.Data, toInfluencerOfferDTO(item))
	}
	return resp, nil
}

func (h Handler) GetInfluencerOfferHandler(
	ctx context.Context,
	offerID string,
	influencerID string,
) (httptransport.InfluencerOfferResponse, error) {
	view, err := h.Service.GetOfferForInfluencer(ctx, offerID, influencerID)
	if err != nil {
		return httptransport.InfluencerOfferResponse{}, err
	}
	return httptransport.InfluencerOfferResponse{Status: "success", Data: toInfluencerOfferDTO(view)}, nil
}

func (h Handler) CreateInfluencerHandler(
	ctx context.Context,
	req httptransport.CreateInfluencerRequest,
) (httptransport.InfluencerResponse, error) {
	influencer, err := h.Service.CreateInfluencer(ctx, application.CreateInfluencerInput{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		return httptransport.InfluencerResponse{}, err
	}
	return httptransport.InfluencerResponse{Status: "success", Data: toInfluencerDTO(influencer)}, nil
}

func (h Handler) GetInfluencerHandler(ctx context.Context, influencerID string) (httptransport.InfluencerResponse, error) {
	influencer, err := h.Service.GetInfluencer(ctx, influencerID)
	if err != nil {
		return httptransport.InfluencerResponse{}, err
	}
	return httptransport.InfluencerResponse{Status: "success", Data: toInfluencerDTO(influencer)}, nil
}

func (h Handler) ListInfluencersHandler(
	ctx context.Context,
	query httptransport.ListQuery,
) (httptransport.InfluencerListResponse, error) {
	page, err := h.Service.ListInfluencers(ctx, application.PageQuery{
		Limit:  query.Limit,
		Offset: query.Skip,
	})
	if err != nil {
		return httptransport.InfluencerListResponse{}, err
	}
	resp := httptransport.InfluencerListResponse{
		Status: "success",
		Data:   make([]httptransport.InfluencerDTO, 0, len(page.Items)),
		Total:  page.Total,
	}
	for _, item := range page.Items {
		resp.Data = append(resp.Data, toInfluencerDTO(item))
	}
	return resp, nil
}

func toPayoutInput(dto httptransport.PayoutDTO) application.PayoutInput {
	return application.PayoutInput{
		Type:             dto.PayoutType,
		CPAAmount:        dto.CPAAmount,
		FixedAmount:      dto.FixedAmount,
		CountryOverrides: toOverrideInputs(dto.CountryOverrides),
	}
}

func toOverrideInputs(items []httptransport.CountryOverrideDTO) []application.CountryOverrideInput {
	inputs := make([]application.CountryOverrideInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, application.CountryOverrideInput{
			CountryCode: item.CountryCode,
			CPAAmount:   item.CPAAmount,
		})
	}
	return inputs
}

func toPayoutDTO(definition payout.Definition) httptransport.PayoutDTO {
	dto := httptransport.PayoutDTO{
		PayoutType:       string(definition.Type),
		CPAAmount:        definition.CPAAmount,
		FixedAmount:      definition.FixedAmount,
		CountryOverrides: make([]httptransport.CountryOverrideDTO, 0, len(definition.CountryOverrides)),
	}
	for _, override := range definition.CountryOverrides {
		dto.CountryOverrides = append(dto.CountryOverrides, httptransport.CountryOverrideDTO{
			CountryCode: override.CountryCode,
			CPAAmount:   override.CPAAmount,
		})
	}
	return dto
}

func toOfferDTO(offer entities.Offer) httptransport.OfferDTO {
	return httptransport.OfferDTO{
		OfferID:     offer.OfferID,
		Title:       offer.Title,
		Description: offer.Description,
		Categories:  offer.CategoryNames(),
		Payout:      toPayoutDTO(offer.Payout),
		CreatedAt:   offer.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   offer.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toInfluencerOfferDTO(view entities.InfluencerOffer) httptransport.InfluencerOfferDTO {
	low, high := view.Effective.Bounds()
	return httptransport.InfluencerOfferDTO{
		OfferID:     view.Offer.OfferID,
		Title:       view.Offer.Title,
		Description: view.Offer.Description,
		Categories:  view.Offer.CategoryNames(),
		PayoutInfo: httptransport.PayoutInfoDTO{
			PayoutType:     string(view.Effective.Type),
			Label:          view.Effective.Type.Label(),
			DisplayText:    view.DisplayText,
			CPALow:         view.Effective.CPALow,
			CPAHigh:        view.Effective.CPAHigh,
			FixedAmount:    view.Effective.FixedAmount,
			MinAmount:      low,
			MaxAmount:      high,
			IsCustomPayout: view.Custom,
		},
		CreatedAt: view.Offer.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: view.Offer.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toInfluencerDTO(influencer entities.Influencer) httptransport.InfluencerDTO {
	return httptransport.InfluencerDTO{
		InfluencerID: influencer.InfluencerID,
		Name:         influencer.Name,
		Email:        influencer.Email,
		CreatedAt:    influencer.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    influencer.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
