package entities

import (
	"time"

	"offerhub/contexts/offer-catalog/offer-service/domain/payout"
)

// CustomPayoutAssignment is unique per (offer, influencer).
type CustomPayoutAssignment struct {
	OfferID      string
	InfluencerID string
	Payout       payout.Definition
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (a CustomPayoutAssignment) ToCustomPayout() *payout.CustomPayout {
	return &payout.CustomPayout{
		InfluencerID: a.InfluencerID,
		Payout:       a.Payout.Clone(),
	}
}

// InfluencerOffer is an offer as one influencer sees it: the resolved payout
// and its display text.
type InfluencerOffer struct {
	Offer        Offer
	InfluencerID string
	Effective    payout.Effective
	DisplayText  string
	Custom       bool
}
