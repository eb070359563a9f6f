package errors

import "errors"

var (
	ErrInvalidPayoutDefinition = errors.New("invalid payout definition")
	ErrPayoutIntegrity         = errors.New("stored payout failed resolution")
	ErrInvalidOfferInput       = errors.New("invalid offer input")
	ErrInvalidInfluencerInput  = errors.New("invalid influencer input")
	ErrOfferNotFound           = errors.New("offer not found")
	ErrInfluencerNotFound      = errors.New("influencer not found")
	ErrCustomPayoutNotFound    = errors.New("custom payout not found")
	ErrInfluencerEmailTaken    = errors.New("influencer email already registered")
	ErrIdempotencyKeyRequired  = errors.New("idempotency key is required")
	ErrIdempotencyConflict     = errors.New("idempotency key already used with different payload")
	ErrIdempotencyInProgress   = errors.New("idempotency key is held by a request still in progress")
)
