package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"offerhub/contexts/offer-catalog/offer-service/domain/entities"
	domainerrors "offerhub/contexts/offer-catalog/offer-service/domain/errors"
	"offerhub/contexts/offer-catalog/offer-service/domain/payout"
	"offerhub/contexts/offer-catalog/offer-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"

	categorySeparator = ","
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates or updates the offer-service tables.
func (r *Repository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(
		&offerModel{},
		&offerPayoutModel{},
		&countryOverrideModel{},
		&customPayoutModel{},
		&influencerModel{},
		&idempotencyModel{},
		&outboxModel{},
	)
}

func (r *Repository) CreateOffer(ctx context.Context, offer entities.Offer, events []ports.EventEnvelope) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := offerModelFromEntity(offer)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrInvalidOfferInput
			}
			return err
		}
		if err := writePayoutTx(tx, offer.OfferID, offer.Payout); err != nil {
			return err
		}
		return insertOutboxEnvelopesTx(tx, events)
	})
}

func (r *Repository) UpdateOffer(ctx context.Context, offer entities.Offer, events []ports.EventEnvelope) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&offerModel{}).
			Where("offer_id = ?", strings.TrimSpace(offer.OfferID)).
			Updates(map[string]any{
				"title":       offer.Title,
				"description": offer.Description,
				"categories":  strings.Join(offer.CategoryNames(), categorySeparator),
				"updated_at":  offer.UpdatedAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrOfferNotFound
		}
		if err := writePayoutTx(tx, offer.OfferID, offer.Payout); err != nil {
			return err
		}
		return insertOutboxEnvelopesTx(tx, events)
	})
}

func (r *Repository) DeleteOffer(ctx context.Context, offerID string, events []ports.EventEnvelope) error {
	offerID = strings.TrimSpace(offerID)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("offer_id = ?", offerID).Delete(&offerModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrOfferNotFound
		}
		for _, model := range []any{&countryOverrideModel{}, &offerPayoutModel{}, &customPayoutModel{}} {
			if err := tx.Where("offer_id = ?", offerID).Delete(model).Error; err != nil {
				return err
			}
		}
		return insertOutboxEnvelopesTx(tx, events)
	})
}

func (r *Repository) GetOffer(ctx context.Context, offerID string) (entities.Offer, error) {
	var row offerModel
	err := r.db.WithContext(ctx).
		Where("offer_id = ?", strings.TrimSpace(offerID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Offer{}, domainerrors.ErrOfferNotFound
		}
		return entities.Offer{}, err
	}
	items, err := r.attachPayouts(ctx, []offerModel{row})
	if err != nil {
		return entities.Offer{}, err
	}
	return items[0], nil
}

func (r *Repository) ListOffers(ctx context.Context, filter ports.OfferFilter) ([]entities.Offer, int, error) {
	tx := r.db.WithContext(ctx).Model(&offerModel{})
	if needle := strings.TrimSpace(filter.TitleContains); needle != "" {
		tx = tx.Where("title ILIKE ?", "%"+escapeLike(needle)+"%")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []offerModel
	query := tx.Order("created_at ASC").Order("offer_id ASC").Offset(filter.Offset)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	items, err := r.attachPayouts(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return items, int(total), nil
}

func (r *Repository) CreateInfluencer(ctx context.Context, influencer entities.Influencer) error {
	row := influencerModel{
		InfluencerID: strings.TrimSpace(influencer.InfluencerID),
		Name:         influencer.Name,
		Email:        entities.NormalizeEmail(influencer.Email),
		CreatedAt:    influencer.CreatedAt.UTC(),
		UpdatedAt:    influencer.UpdatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInfluencerEmailTaken
		}
		return err
	}
	return nil
}

func (r *Repository) GetInfluencer(ctx context.Context, influencerID string) (entities.Influencer, error) {
	var row influencerModel
	err := r.db.WithContext(ctx).
		Where("influencer_id = ?", strings.TrimSpace(influencerID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Influencer{}, domainerrors.ErrInfluencerNotFound
		}
		return entities.Influencer{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListInfluencers(ctx context.Context, filter ports.InfluencerFilter) ([]entities.Influencer, int, error) {
	tx := r.db.WithContext(ctx).Model(&influencerModel{})
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []influencerModel
	query := tx.Order("created_at ASC").Order("influencer_id ASC").Offset(filter.Offset)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	items := make([]entities.Influencer, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, int(total), nil
}

func (r *Repository) PutCustomPayout(
	ctx context.Context,
	assignment entities.CustomPayoutAssignment,
	events []ports.EventEnvelope,
) (entities.CustomPayoutAssignment, error) {
	row := customPayoutModelFromEntity(assignment)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "offer_id"}, {Name: "influencer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"payout_type",
				"cpa_amount",
				"fixed_amount",
				"updated_at",
			}),
		}).Create(&row).Error; err != nil {
			return err
		}
		if err := tx.Where("offer_id = ? AND influencer_id = ?", row.OfferID, row.InfluencerID).
			First(&row).Error; err != nil {
			return err
		}
		return insertOutboxEnvelopesTx(tx, events)
	})
	if err != nil {
		return entities.CustomPayoutAssignment{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetCustomPayout(ctx context.Context, offerID string, influencerID string) (entities.CustomPayoutAssignment, error) {
	var row customPayoutModel
	err := r.db.WithContext(ctx).
		Where("offer_id = ? AND influencer_id = ?", strings.TrimSpace(offerID), strings.TrimSpace(influencerID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.CustomPayoutAssignment{}, domainerrors.ErrCustomPayoutNotFound
		}
		return entities.CustomPayoutAssignment{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListCustomPayoutsForInfluencer(
	ctx context.Context,
	influencerID string,
	offerIDs []string,
) (map[string]entities.CustomPayoutAssignment, error) {
	tx := r.db.WithContext(ctx).Where("influencer_id = ?", strings.TrimSpace(influencerID))
	if len(offerIDs) > 0 {
		tx = tx.Where("offer_id IN ?", offerIDs)
	}
	var rows []customPayoutModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make(map[string]entities.CustomPayoutAssignment, len(rows))
	for _, row := range rows {
		items[row.OfferID] = row.toEntity()
	}
	return items, nil
}

func (r *Repository) DeleteCustomPayout(
	ctx context.Context,
	offerID string,
	influencerID string,
	events []ports.EventEnvelope,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("offer_id = ? AND influencer_id = ?", strings.TrimSpace(offerID), strings.TrimSpace(influencerID)).
			Delete(&customPayoutModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrCustomPayoutNotFound
		}
		return insertOutboxEnvelopesTx(tx, events)
	})
}

func (r *Repository) GetRecord(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}

	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", strings.TrimSpace(key)).
			Delete(&idempotencyModel{}).
			Error; err != nil {
			return ports.IdempotencyRecord{}, false, err
		}
		return ports.IdempotencyRecord{}, false, nil
	}

	return ports.IdempotencyRecord{
		Key:             row.Key,
		RequestHash:     row.RequestHash,
		ResponsePayload: append([]byte(nil), row.ResponsePayload...),
		ExpiresAt:       row.ExpiresAt.UTC(),
	}, true, nil
}

// ReserveRecord inserts a payload-less row for the key. An expired holder is
// deleted first so the key can be claimed again.
func (r *Repository) ReserveRecord(
	ctx context.Context,
	record ports.IdempotencyRecord,
	now time.Time,
) (ports.IdempotencyRecord, bool, error) {
	key := strings.TrimSpace(record.Key)
	if err := r.db.WithContext(ctx).
		Where("key = ? AND expires_at <= ?", key, now.UTC()).
		Delete(&idempotencyModel{}).
		Error; err != nil {
		return ports.IdempotencyRecord{}, false, err
	}

	row := idempotencyModel{
		Key:         key,
		RequestHash: record.RequestHash,
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).
		Create(&row)
	if result.Error != nil {
		return ports.IdempotencyRecord{}, false, result.Error
	}
	if result.RowsAffected > 0 {
		return ports.IdempotencyRecord{
			Key:         row.Key,
			RequestHash: row.RequestHash,
			ExpiresAt:   row.ExpiresAt,
		}, true, nil
	}

	existing, found, err := r.GetRecord(ctx, key, now)
	if err != nil {
		return ports.IdempotencyRecord{}, false, err
	}
	if !found {
		// The holder expired between the insert and the read; the next
		// request claims it.
		return ports.IdempotencyRecord{}, false, domainerrors.ErrIdempotencyInProgress
	}
	return existing, false, nil
}

// PutRecord completes a reservation held under the same request hash, or
// inserts the record when no reservation exists.
func (r *Repository) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:             strings.TrimSpace(record.Key),
		RequestHash:     record.RequestHash,
		ResponsePayload: append([]byte(nil), record.ResponsePayload...),
		ExpiresAt:       record.ExpiresAt.UTC(),
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		createResult := tx.
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoNothing: true,
			}).
			Create(&row)
		if createResult.Error != nil {
			return createResult.Error
		}
		if createResult.RowsAffected > 0 {
			return nil
		}

		var existing idempotencyModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("key = ?", row.Key).
			First(&existing).
			Error; err != nil {
			return err
		}
		if existing.RequestHash != row.RequestHash {
			return domainerrors.ErrIdempotencyConflict
		}
		return tx.Model(&idempotencyModel{}).
			Where("key = ?", row.Key).
			Updates(map[string]any{
				"response_payload": row.ResponsePayload,
				"expires_at":       row.ExpiresAt,
			}).
			Error
	})
}

func (r *Repository) ReleaseRecord(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).
		Where("key = ? AND (response_payload IS NULL OR octet_length(response_payload) = 0)", strings.TrimSpace(key)).
		Delete(&idempotencyModel{}).
		Error
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		r.logger.Warn("offer outbox row missing on publish",
			"event", "offer_outbox_row_missing",
			"module", "offer-catalog/offer-service",
			"layer", "adapter",
			"outbox_id", outboxID,
		)
	}
	return nil
}

// attachPayouts loads payouts and country overrides for rows in two queries.
func (r *Repository) attachPayouts(ctx context.Context, rows []offerModel) ([]entities.Offer, error) {
	if len(rows) == 0 {
		return []entities.Offer{}, nil
	}
	offerIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		offerIDs = append(offerIDs, row.OfferID)
	}

	var payoutRows []offerPayoutModel
	if err := r.db.WithContext(ctx).Where("offer_id IN ?", offerIDs).Find(&payoutRows).Error; err != nil {
		return nil, err
	}
	var overrideRows []countryOverrideModel
	if err := r.db.WithContext(ctx).
		Where("offer_id IN ?", offerIDs).
		Order("country_code ASC").
		Find(&overrideRows).
		Error; err != nil {
		return nil, err
	}

	payouts := make(map[string]payout.Definition, len(payoutRows))
	for _, row := range payoutRows {
		payouts[row.OfferID] = payout.Definition{
			Type:        payout.Type(row.PayoutType),
			CPAAmount:   fromNullDecimal(row.CPAAmount),
			FixedAmount: fromNullDecimal(row.FixedAmount),
		}
	}
	for _, row := range overrideRows {
		definition := payouts[row.OfferID]
		definition.CountryOverrides = append(definition.CountryOverrides, payout.CountryOverride{
			CountryCode: row.CountryCode,
			CPAAmount:   row.CPAAmount,
		})
		payouts[row.OfferID] = definition
	}

	items := make([]entities.Offer, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity(payouts[row.OfferID]))
	}
	return items, nil
}

// writePayoutTx replaces the payout and every country override of an offer.
func writePayoutTx(tx *gorm.DB, offerID string, definition payout.Definition) error {
	row := offerPayoutModel{
		OfferID:     offerID,
		PayoutType:  string(definition.Type),
		CPAAmount:   toNullDecimal(definition.CPAAmount),
		FixedAmount: toNullDecimal(definition.FixedAmount),
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "offer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payout_type", "cpa_amount", "fixed_amount"}),
	}).Create(&row).Error; err != nil {
		return err
	}
	if err := tx.Where("offer_id = ?", offerID).Delete(&countryOverrideModel{}).Error; err != nil {
		return err
	}
	if len(definition.CountryOverrides) == 0 {
		return nil
	}
	overrides := make([]countryOverrideModel, 0, len(definition.CountryOverrides))
	for _, override := range definition.CountryOverrides {
		overrides = append(overrides, countryOverrideModel{
			OfferID:     offerID,
			CountryCode: override.CountryCode,
			CPAAmount:   override.CPAAmount,
		})
	}
	if err := tx.Create(&overrides).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidPayoutDefinition
		}
		return err
	}
	return nil
}

func insertOutboxEnvelopesTx(tx *gorm.DB, events []ports.EventEnvelope) error {
	for _, envelope := range events {
		if err := insertOutboxEnvelopeTx(tx, envelope); err != nil {
			return err
		}
	}
	return nil
}

func insertOutboxEnvelopeTx(tx *gorm.DB, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	createResult := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if createResult.Error != nil {
		return createResult.Error
	}
	if createResult.RowsAffected == 0 {
		var existing outboxModel
		if err := tx.Select("payload").Where("outbox_id = ?", row.OutboxID).First(&existing).Error; err != nil {
			return err
		}
		if !bytes.Equal(existing.Payload, row.Payload) {
			return domainerrors.ErrIdempotencyConflict
		}
	}
	return nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

func toNullDecimal(value *decimal.Decimal) decimal.NullDecimal {
	if value == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *value, Valid: true}
}

func fromNullDecimal(value decimal.NullDecimal) *decimal.Decimal {
	if !value.Valid {
		return nil
	}
	amount := value.Decimal
	return &amount
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
