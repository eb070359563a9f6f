package http

import "github.com/shopspring/decimal"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CountryOverrideDTO struct {
	CountryCode string          `json:"country_code"`
	CPAAmount   decimal.Decimal `json:"cpa_amount"`
}

// PayoutDTO carries amounts as JSON strings on output; requests accept both
// strings and numbers.
type PayoutDTO struct {
	PayoutType       string               `json:"payout_type"`
	CPAAmount        *decimal.Decimal     `json:"cpa_amount,omitempty"`
	FixedAmount      *decimal.Decimal     `json:"fixed_amount,omitempty"`
	CountryOverrides []CountryOverrideDTO `json:"country_overrides"`
}

type PayoutPatchDTO struct {
	PayoutType       *string               `json:"payout_type,omitempty"`
	CPAAmount        *decimal.Decimal      `json:"cpa_amount,omitempty"`
	FixedAmount      *decimal.Decimal      `json:"fixed_amount,omitempty"`
	CountryOverrides *[]CountryOverrideDTO `json:"country_overrides,omitempty"`
}

type CreateOfferRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Categories  []string  `json:"categories"`
	Payout      PayoutDTO `json:"payout"`
}

type UpdateOfferRequest struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Categories  []string        `json:"categories,omitempty"`
	Payout      *PayoutPatchDTO `json:"payout,omitempty"`
}

type OfferDTO struct {
	OfferID     string    `json:"offer_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Categories  []string  `json:"categories"`
	Payout      PayoutDTO `json:"payout"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at"`
}

type OfferResponse struct {
	Status   string   `json:"status"`
	Replayed bool     `json:"replayed,omitempty"`
	Data     OfferDTO `json:"data"`
}

type ListQuery struct {
	Title string
	Skip  int
	Limit int
}

type OfferListResponse struct {
	Status string     `json:"status"`
	Data   []OfferDTO `json:"data"`
	Total  int        `json:"total"`
}

type CreateInfluencerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type InfluencerDTO struct {
	InfluencerID string `json:"influencer_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type InfluencerResponse struct {
	Status string        `json:"status"`
	Data   InfluencerDTO `json:"data"`
}

type InfluencerListResponse struct {
	Status string          `json:"status"`
	Data   []InfluencerDTO `json:"data"`
	Total  int             `json:"total"`
}

type CustomPayoutDTO struct {
	OfferID      string    `json:"offer_id"`
	InfluencerID string    `json:"influencer_id"`
	Payout       PayoutDTO `json:"payout"`
	CreatedAt    string    `json:"created_at"`
	UpdatedAt    string    `json:"updated_at"`
}

type CustomPayoutResponse struct {
	Status string          `json:"status"`
	Data   CustomPayoutDTO `json:"data"`
}

type PayoutInfoDTO struct {
	PayoutType     string           `json:"payout_type"`
	Label          string           `json:"label"`
	DisplayText    string           `json:"display_text"`
	CPALow         *decimal.Decimal `json:"cpa_low,omitempty"`
	CPAHigh        *decimal.Decimal `json:"cpa_high,omitempty"`
	FixedAmount    *decimal.Decimal `json:"fixed_amount,omitempty"`
	MinAmount      decimal.Decimal  `json:"min_amount"`
	MaxAmount      decimal.Decimal  `json:"max_amount"`
	IsCustomPayout bool             `json:"is_custom_payout"`
}

type InfluencerOfferDTO struct {
	OfferID     string        `json:"offer_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Categories  []string      `json:"categories"`
	PayoutInfo  PayoutInfoDTO `json:"payout_info"`
	CreatedAt   string        `json:"created_at"`
	UpdatedAt   string        `json:"updated_at"`
}

type InfluencerOfferResponse struct {
	Status string             `json:"status"`
	Data   InfluencerOfferDTO `json:"data"`
}

type InfluencerOfferListResponse struct {
	Status string               `json:"status"`
	Data   []InfluencerOfferDTO `json:"data"`
	Total  int                  `json:"total"`
}
