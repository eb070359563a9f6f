package postgresadapter

import (
	"strings"
	"time"

	"offerhub/contexts/offer-catalog/offer-service/domain/entities"
	"offerhub/contexts/offer-catalog/offer-service/domain/payout"

	"github.com/shopspring/decimal"
)

type offerModel struct {
	OfferID     string    `gorm:"column:offer_id;primaryKey"`
	Title       string    `gorm:"column:title;size:255;index"`
	Description string    `gorm:"column:description"`
	Categories  string    `gorm:"column:categories"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (offerModel) TableName() string {
	return "offers"
}

func offerModelFromEntity(offer entities.Offer) offerModel {
	return offerModel{
		OfferID:     strings.TrimSpace(offer.OfferID),
		Title:       offer.Title,
		Description: offer.Description,
		Categories:  strings.Join(offer.CategoryNames(), categorySeparator),
		CreatedAt:   offer.CreatedAt.UTC(),
		UpdatedAt:   offer.UpdatedAt.UTC(),
	}
}

func (m offerModel) toEntity(definition payout.Definition) entities.Offer {
	categories := make([]entities.Category, 0)
	for _, name := range strings.Split(m.Categories, categorySeparator) {
		if name = strings.TrimSpace(name); name != "" {
			categories = append(categories, entities.Category(name))
		}
	}
	return entities.Offer{
		OfferID:     m.OfferID,
		Title:       m.Title,
		Description: m.Description,
		Categories:  categories,
		Payout:      definition,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type offerPayoutModel struct {
	OfferID     string              `gorm:"column:offer_id;primaryKey"`
	PayoutType  string              `gorm:"column:payout_type"`
	CPAAmount   decimal.NullDecimal `gorm:"column:cpa_amount;type:numeric(12,4)"`
	FixedAmount decimal.NullDecimal `gorm:"column:fixed_amount;type:numeric(12,4)"`
}

func (offerPayoutModel) TableName() string {
	return "offer_payouts"
}

type countryOverrideModel struct {
	OfferID     string          `gorm:"column:offer_id;primaryKey"`
	CountryCode string          `gorm:"column:country_code;primaryKey;size:2"`
	CPAAmount   decimal.Decimal `gorm:"column:cpa_amount;type:numeric(12,4)"`
}

func (countryOverrideModel) TableName() string {
	return "offer_country_overrides"
}

type customPayoutModel struct {
	OfferID      string              `gorm:"column:offer_id;primaryKey"`
	InfluencerID string              `gorm:"column:influencer_id;primaryKey;index"`
	PayoutType   string              `gorm:"column:payout_type"`
	CPAAmount    decimal.NullDecimal `gorm:"column:cpa_amount;type:numeric(12,4)"`
	FixedAmount  decimal.NullDecimal `gorm:"column:fixed_amount;type:numeric(12,4)"`
	CreatedAt    time.Time           `gorm:"column:created_at"`
	UpdatedAt    time.Time           `gorm:"column:updated_at"`
}

func (customPayoutModel) TableName() string {
	return "offer_custom_payouts"
}

func customPayoutModelFromEntity(assignment entities.CustomPayoutAssignment) customPayoutModel {
	return customPayoutModel{
		OfferID:      strings.TrimSpace(assignment.OfferID),
		InfluencerID: strings.TrimSpace(assignment.InfluencerID),
		PayoutType:   string(assignment.Payout.Type),
		CPAAmount:    toNullDecimal(assignment.Payout.CPAAmount),
		FixedAmount:  toNullDecimal(assignment.Payout.FixedAmount),
		CreatedAt:    assignment.CreatedAt.UTC(),
		UpdatedAt:    assignment.UpdatedAt.UTC(),
	}
}

func (m customPayoutModel) toEntity() entities.CustomPayoutAssignment {
	return entities.CustomPayoutAssignment{
		OfferID:      m.OfferID,
		InfluencerID: m.InfluencerID,
		Payout: payout.Definition{
			Type:        payout.Type(m.PayoutType),
			CPAAmount:   fromNullDecimal(m.CPAAmount),
			FixedAmount: fromNullDecimal(m.FixedAmount),
		},
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type influencerModel struct {
	InfluencerID string    `gorm:"column:influencer_id;primaryKey"`
	Name         string    `gorm:"column:name;size:255"`
	Email        string    `gorm:"column:email;uniqueIndex"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (influencerModel) TableName() string {
	return "influencers"
}

func (m influencerModel) toEntity() entities.Influencer {
	return entities.Influencer{
		InfluencerID: m.InfluencerID,
		Name:         m.Name,
		Email:        m.Email,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type idempotencyModel struct {
	Key             string    `gorm:"column:key;primaryKey"`
	RequestHash     string    `gorm:"column:request_hash"`
	ResponsePayload []byte    `gorm:"column:response_payload"`
	ExpiresAt       time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "offer_idempotency"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "offer_outbox"
}
