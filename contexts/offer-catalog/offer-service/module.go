package offerservice

import (
	"log/slog"
	"time"

	httpadapter "offerhub/contexts/offer-catalog/offer-service/adapters/http"
	"offerhub/contexts/offer-catalog/offer-service/adapters/memory"
	"offerhub/contexts/offer-catalog/offer-service/application"
	"offerhub/contexts/offer-catalog/offer-service/application/workers"
	"offerhub/contexts/offer-catalog/offer-service/domain/entities"
	"offerhub/contexts/offer-catalog/offer-service/ports"
)

type Module struct {
	Handler     httpadapter.Handler
	OutboxRelay workers.OutboxRelay
	Store       *memory.Store
}

type Dependencies struct {
	Offers                    ports.OfferRepository
	Influencers               ports.InfluencerRepository
	CustomPayouts             ports.CustomPayoutRepository
	Idempotency               ports.IdempotencyStore
	Outbox                    ports.OutboxRepository
	Publisher                 ports.EventPublisher
	Clock                     ports.Clock
	IDGenerator               ports.IDGenerator
	IdempotencyTTL            time.Duration
	DisableOfferEventEmission bool
	EventsTopic               string
	OutboxBatchSize           int
	Logger                    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Offers:                    deps.Offers,
		Influencers:               deps.Influencers,
		CustomPayouts:             deps.CustomPayouts,
		Idempotency:               deps.Idempotency,
		Clock:                     deps.Clock,
		IDGen:                     deps.IDGenerator,
		IdempotencyTTL:            deps.IdempotencyTTL,
		DisableOfferEventEmission: deps.DisableOfferEventEmission,
		Logger:                    deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Topic:     deps.EventsTopic,
			BatchSize: deps.OutboxBatchSize,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule wires every port to a single memory store. The relay has
// no publisher until the caller sets one.
func NewInMemoryModule(seedOffers []entities.Offer, seedInfluencers []entities.Influencer, logger *slog.Logger) Module {
	store := memory.NewStore(seedOffers, seedInfluencers)
	module := NewModule(Dependencies{
		Offers:         store,
		Influencers:    store,
		CustomPayouts:  store,
		Idempotency:    store,
		Outbox:         store,
		Clock:          store,
		IDGenerator:    store,
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
