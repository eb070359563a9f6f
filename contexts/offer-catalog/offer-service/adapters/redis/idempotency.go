package redisadapter

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	domainerrors "offerhub/contexts/offer-catalog/offer-service/domain/errors"
	"offerhub/contexts/offer-catalog/offer-service/ports"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "offer:idempotency:"

// IdempotencyStore keeps create-offer replay records in Redis. Expiry is
// delegated to the key TTL.
type IdempotencyStore struct {
	client *redis.Client
}

func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

type storedRecord struct {
	RequestHash     string    `json:"request_hash"`
	ResponsePayload []byte    `json:"response_payload"`
	ExpiresAt       time.Time `json:"expires_at"`
}

func (s *IdempotencyStore) GetRecord(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	key = strings.TrimSpace(key)
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}
	var stored storedRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		return ports.IdempotencyRecord{}, false, err
	}
	if !stored.ExpiresAt.After(now) {
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:             key,
		RequestHash:     stored.RequestHash,
		ResponsePayload: stored.ResponsePayload,
		ExpiresAt:       stored.ExpiresAt.UTC(),
	}, true, nil
}

// ReserveRecord claims the key with SetNX so only one request runs the write.
func (s *IdempotencyStore) ReserveRecord(
	ctx context.Context,
	record ports.IdempotencyRecord,
	now time.Time,
) (ports.IdempotencyRecord, bool, error) {
	key := strings.TrimSpace(record.Key)
	ttl := record.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return ports.IdempotencyRecord{}, false, errors.New("idempotency reservation already expired")
	}
	raw, err := json.Marshal(storedRecord{
		RequestHash: record.RequestHash,
		ExpiresAt:   record.ExpiresAt.UTC(),
	})
	if err != nil {
		return ports.IdempotencyRecord{}, false, err
	}
	created, err := s.client.SetNX(ctx, keyPrefix+key, raw, ttl).Result()
	if err != nil {
		return ports.IdempotencyRecord{}, false, err
	}
	if created {
		return ports.IdempotencyRecord{
			Key:         key,
			RequestHash: record.RequestHash,
			ExpiresAt:   record.ExpiresAt.UTC(),
		}, true, nil
	}

	existing, found, err := s.GetRecord(ctx, key, now)
	if err != nil {
		return ports.IdempotencyRecord{}, false, err
	}
	if !found {
		return ports.IdempotencyRecord{}, false, domainerrors.ErrIdempotencyInProgress
	}
	return existing, false, nil
}

// PutRecord completes a reservation held under the same request hash. The
// WATCH transaction keeps a concurrent holder from being overwritten.
func (s *IdempotencyStore) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	key := keyPrefix + strings.TrimSpace(record.Key)
	ttl := time.Until(record.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(storedRecord{
		RequestHash:     record.RequestHash,
		ResponsePayload: record.ResponsePayload,
		ExpiresAt:       record.ExpiresAt.UTC(),
	})
	if err != nil {
		return err
	}

	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var existing storedRecord
			if err := json.Unmarshal(current, &existing); err != nil {
				return err
			}
			if existing.RequestHash != record.RequestHash {
				return domainerrors.ErrIdempotencyConflict
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, ttl)
			return nil
		})
		return err
	}, key)
}

// ReleaseRecord deletes the key only while it still holds a reservation.
func (s *IdempotencyStore) ReleaseRecord(ctx context.Context, key string) error {
	redisKey := keyPrefix + strings.TrimSpace(key)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, redisKey).Bytes()
		if err != nil {
			return err
		}
		var existing storedRecord
		if err := json.Unmarshal(current, &existing); err != nil {
			return err
		}
		if len(existing.ResponsePayload) > 0 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, redisKey)
			return nil
		})
		return err
	}, redisKey)
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
