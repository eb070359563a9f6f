package offerservice_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	offerservice "offerhub/contexts/offer-catalog/offer-service"
	"offerhub/contexts/offer-catalog/offer-service/adapters/memory"
	"offerhub/contexts/offer-catalog/offer-service/domain/entities"
	domainerrors "offerhub/contexts/offer-catalog/offer-service/domain/errors"
	"offerhub/contexts/offer-catalog/offer-service/domain/payout"
	"offerhub/contexts/offer-catalog/offer-service/ports"
	httptransport "offerhub/contexts/offer-catalog/offer-service/transport/http"

	"github.com/shopspring/decimal"
)

func amount(value string) *decimal.Decimal {
	parsed := decimal.RequireFromString(value)
	return &parsed
}

func cpaOfferRequest(title string) httptransport.CreateOfferRequest {
	return httptransport.CreateOfferRequest{
		Title:       title,
		Description: "Install the app and finish onboarding",
		Categories:  []string{"Gaming", "tech"},
		Payout: httptransport.PayoutDTO{
			PayoutType: "CPA",
			CPAAmount:  amount("20"),
			CountryOverrides: []httptransport.CountryOverrideDTO{
				{CountryCode: "de", CPAAmount: decimal.RequireFromString("30")},
				{CountryCode: "US", CPAAmount: decimal.RequireFromString("25")},
			},
		},
	}
}

func createInfluencer(t *testing.T, module offerservice.Module, email string) string {
	t.Helper()
	resp, err := module.Handler.CreateInfluencerHandler(context.Background(), httptransport.CreateInfluencerRequest{
		Name:  "Creator " + email,
		Email: email,
	})
	if err != nil {
		t.Fatalf("create influencer failed: %v", err)
	}
	return resp.Data.InfluencerID
}

func TestCreateOfferIdempotencyReplay(t *testing.T) {
	module := offerservice.NewInMemoryModule(nil, nil, nil)
	ctx := context.Background()

	first, err := module.Handler.CreateOfferHandler(ctx, "idem-offer-1", cpaOfferRequest("Game Launch"))
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	second, err := module.Handler.CreateOfferHandler(ctx, "idem-offer-1", cpaOfferRequest("Game Launch"))
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected replayed result on duplicate idempotency key")
	}
	if first.Data.OfferID != second.Data.OfferID {
		t.Fatalf("expected same offer id, got %s and %s", first.Data.OfferID, second.Data.OfferID)
	}
	if len(second.Data.Payout.CountryOverrides) != 2 {
		t.Fatalf("expected replayed payout overrides, got %+v", second.Data.Payout)
	}

	_, err = module.Handler.CreateOfferHandler(ctx, "idem-offer-1", cpaOfferRequest("Different Title"))
	if !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}

	_, err = module.Handler.CreateOfferHandler(ctx, " ", cpaOfferRequest("Game Launch"))
	if !errors.Is(err, domainerrors.ErrIdempotencyKeyRequired) {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestCreateOfferNormalizesCategoriesAndCountryCodes(t *testing.T) {
	module := offerservice.NewInMemoryModule(nil, nil, nil)

	resp, err := module.Handler.CreateOfferHandler(context.Background(), "idem-offer-2", cpaOfferRequest("Game Launch"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if strings.Join(resp.Data.Categories, ",") != "Gaming,Tech" {
		t.Fatalf("unexpected categories %v", resp.Data.Categories)
	}
	if resp.Data.Payout.CountryOverrides[0].CountryCode != "DE" {
		t.Fatalf("expected upper-cased country code, got %s", resp.Data.Payout.CountryOverrides[0].CountryCode)
	}
}

func TestCreateOfferRejectsInvalidPayouts(t *testing.T) {
	module := offerservice.NewInMemoryModule(nil, nil, nil)
	ctx := context.Background()

	cases := []struct {
		name   string
		payout httptransport.PayoutDTO
	}{
		{
			name: "fixed with country overrides",
			payout: httptransport.PayoutDTO{
				PayoutType:  "FIXED",
				FixedAmount: amount("1000"),
				CountryOverrides: []httptransport.CountryOverrideDTO{
					{CountryCode: "DE", CPAAmount: decimal.RequireFromString("30")},
				},
			},
		},
		{
			name:   "cpa with fixed amount",
			payout: httptransport.PayoutDTO{PayoutType: "CPA", CPAAmount: amount("20"), FixedAmount: amount("5")},
		},
		{
			name:   "cpa plus fixed missing fixed",
			payout: httptransport.PayoutDTO{PayoutType: "CPA_PLUS_FIXED", CPAAmount: amount("20")},
		},
		{
			name:   "unknown type",
			payout: httptransport.PayoutDTO{PayoutType: "REVSHARE", CPAAmount: amount("20")},
		},
		{
			name:   "cpa finer than four decimal places",
			payout: httptransport.PayoutDTO{PayoutType: "CPA", CPAAmount: amount("0.12345")},
		},
		{
			name:   "cpa too large to store",
			payout: httptransport.PayoutDTO{PayoutType: "CPA", CPAAmount: amount("123456789")},
		},
		{
			name: "override finer than four decimal places",
			payout: httptransport.PayoutDTO{
				PayoutType: "CPA",
				CPAAmount:  amount("20"),
				CountryOverrides: []httptransport.CountryOverrideDTO{
					{CountryCode: "DE", CPAAmount: decimal.RequireFromString("30.00001")},
				},
			},
		},
	}

	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := cpaOfferRequest("Invalid payout")
			req.Payout = tc.payout
			_, err := module.Handler.CreateOfferHandler(ctx, "idem-invalid-"+string(rune('a'+i)), req)
			if !errors.Is(err, domainerrors.ErrInvalidPayoutDefinition) {
				t.Fatalf("expected ErrInvalidPayoutDefinition, got %v", err)
			}
		})
	}

	page, err := module.Handler.ListOffersHandler(ctx, httptransport.ListQuery{Limit: 50})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.Total != 0 {
		t.Fatalf("expected rejected payouts to store nothing, got %d offers", page.Total)
	}

	req := cpaOfferRequest("Bad categories")
	req.Categories = []string{"Cooking"}
	if _, err := module.Handler.CreateOfferHandler(ctx, "idem-invalid-categories", req); !errors.Is(err, domainerrors.ErrInvalidOfferInput) {
		t.Fatalf("expected ErrInvalidOfferInput, got %v", err)
	}
}

func TestInfluencerListingResolvesPayouts(t *testing.T) {
	module := offerservice.NewInMemoryModule(nil, nil, nil)
	ctx := context.Background()

	created, err := module.Handler.CreateOfferHandler(ctx, "idem-listing-1", cpaOfferRequest("Game Launch"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	offerID := created.Data.OfferID
	vip := createInfluencer(t, module, "vip@example.com")
	regular := createInfluencer(t, module, "regular@example.com")

	if _, err := module.Handler.AssignCustomPayoutHandler(ctx, offerID, vip, httptransport.PayoutDTO{
		PayoutType:  "FIXED",
		FixedAmount: amount("1000"),
	}); err != nil {
		t.Fatalf("assign custom payout failed: %v", err)
	}

	vipList, err := module.Handler.ListInfluencerOffersHandler(ctx, vip, httptransport.ListQuery{})
	if err != nil {
		t.Fatalf("list for vip failed: %v", err)
	}
	if len(vipList.Data) != 1 || vipList.Total != 1 {
		t.Fatalf("expected one offer, got %d (total %d)", len(vipList.Data), vipList.Total)
	}
	vipInfo := vipList.Data[0].PayoutInfo
	if vipInfo.DisplayText != "$1000 Fixed" || !vipInfo.IsCustomPayout || vipInfo.Label != "Fixed" {
		t.Fatalf("unexpected vip payout info %+v", vipInfo)
	}

	regularList, err := module.Handler.ListInfluencerOffersHandler(ctx, regular, httptransport.ListQuery{})
	if err != nil {
		t.Fatalf("list for regular failed: %v", err)
	}
	regularInfo := regularList.Data[0].PayoutInfo
	if regularInfo.DisplayText != "$20 - $30 CPA" || regularInfo.IsCustomPayout {
		t.Fatalf("unexpected regular payout info %+v", regularInfo)
	}
	if !regularInfo.MinAmount.Equal(decimal.RequireFromString("20")) || !regularInfo.MaxAmount.Equal(decimal.RequireFromString("30")) {
		t.Fatalf("unexpected bounds %s..%s", regularInfo.MinAmount, regularInfo.MaxAmount)
	}

	detail, err := module.Handler.GetInfluencerOfferHandler(ctx, offerID, vip)
	if err != nil {
		t.Fatalf("get influencer offer failed: %v", err)
	}
	if detail.Data.PayoutInfo.DisplayText != "$1000 Fixed" {
		t.Fatalf("unexpected detail display %q", detail.Data.PayoutInfo.DisplayText)
	}
}

func TestInfluencerListingForUnknownInfluencerIsEmpty(t *testing.T) {
	module := offerservice.NewInMemoryModule(nil, nil, nil)
	ctx := context.Background()
	if _, err := module.Handler.CreateOfferHandler(ctx, "idem-unknown-1", cpaOfferRequest("Game Launch")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	resp, err := module.Handler.ListInfluencerOffersHandler(ctx, "missing-influencer", httptransport.ListQuery{})
	if err != nil {
		t.Fatalf("expected no error for unknown influencer, got %v", err)
	}
	if len(resp.Data) != 0 || resp.Total != 0 {
		t.Fatalf("expected empty listing, got %d items", len(resp.Data))
	}

	if _, err := module.Handler.GetInfluencerOfferHandler(ctx, "missing-offer", "missing-influencer"); !errors.Is(err, domainerrors.ErrOfferNotFound) {
		t.Fatalf("expected ErrOfferNotFound, got %v", err)
	}
}

func TestInfluencerListingSurfacesStoredPayoutIntegrityErrors(t *testing.T) {
	now := time.Now().UTC()
	seedOffers := []entities.Offer{{
		OfferID:     "offer-broken",
		Title:       "Broken payout",
		Description: "Stored before validation existed",
		Categories:  []entities.Category{entities.CategoryFinance},
		Payout:      payout.Definition{Type: payout.TypeFixed},
		CreatedAt:   now,
		UpdatedAt:   now,
	}}
	seedInfluencers := []entities.Influencer{{
		InfluencerID: "influencer-1",
		Name:         "Jane",
		Email:        "jane@example.com",
		CreatedAt:    now,
		UpdatedAt:    now,
	}}
	module := offerservice.NewInMemoryModule(seedOffers, seedInfluencers, nil)

	_, err := module.Handler.ListInfluencerOffersHandler(context.Background(), "influencer-1", httptransport.ListQuery{})
	if !errors.Is(err, domainerrors.ErrPayoutIntegrity) {
		t.Fatalf("expected ErrPayoutIntegrity, got %v", err)
	}
	if !errors.Is(err, domainerrors.ErrInvalidPayoutDefinition) {
		t.Fatalf("expected wrapped ErrInvalidPayoutDefinition, got %v", err)
	}
}

func TestUpdateOfferMergesPayoutPatch(t *testing.T) {
	module := offerservice.NewInMemoryModule(nil, nil, nil)
	ctx := context.Background()
	created, err := module.Handler.CreateOfferHandler(ctx, "idem-update-1", cpaOfferRequest("Game Launch"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	offerID := created.Data.OfferID

	cpaPlusFixed := "CPA_FIXED"
	updated, err := module.Handler.UpdateOfferHandler(ctx, offerID, httptransport.UpdateOfferRequest{
		Payout: &httptransport.PayoutPatchDTO{PayoutType: &cpaPlusFixed, FixedAmount: amount("500")},
	})
	if err != nil {
		t.Fatalf("update to cpa plus fixed failed: %v", err)
	}
	if updated.Data.Payout.PayoutType != "CPA_PLUS_FIXED" {
		t.Fatalf("expected canonical CPA_PLUS_FIXED, got %s", updated.Data.Payout.PayoutType)
	}
	if !updated.Data.Payout.CPAAmount.Equal(decimal.RequireFromString("20")) || len(updated.Data.Payout.CountryOverrides) != 2 {
		t.Fatalf("expected cpa amount and overrides to be kept, got %+v", updated.Data.Payout)
	}

	fixed := "FIXED"
	updated, err = module.Handler.UpdateOfferHandler(ctx, offerID, httptransport.UpdateOfferRequest{
		Payout: &httptransport.PayoutPatchDTO{PayoutType: &fixed},
	})
	if err != nil {
		t.Fatalf("update to fixed failed: %v", err)
	}
	if updated.Data.Payout.CPAAmount != nil || len(updated.Data.Payout.CountryOverrides) != 0 {
		t.Fatalf("expected cpa fields dropped for FIXED, got %+v", updated.Data.Payout)
	}
	if !updated.Data.Payout.FixedAmount.Equal(decimal.RequireFromString("500")) {
		t.Fatalf("expected fixed amount 500 kept, got %s", updated.Data.Payout.FixedAmount)
	}

	_, err = module.Handler.UpdateOfferHandler(ctx, offerID, httptransport.UpdateOfferRequest{
		Payout: &httptransport.PayoutPatchDTO{CPAAmount: amount("10")},
	})
	if !errors.Is(err, domainerrors.ErrInvalidPayoutDefinition) {
		t.Fatalf("expected stray cpa amount on FIXED to be rejected, got %v", err)
	}

	title := "Renamed Launch"
	updated, err = module.Handler.UpdateOfferHandler(ctx, offerID, httptransport.UpdateOfferRequest{Title: &title})
	if err != nil {
		t.Fatalf("title update failed: %v", err)
	}
	if updated.Data.Title != title || updated.Data.Payout.PayoutType != "FIXED" {
		t.Fatalf("unexpected offer after title update %+v", updated.Data)
	}

	if _, err := module.Handler.UpdateOfferHandler(ctx, "missing", httptransport.UpdateOfferRequest{Title: &title}); !errors.Is(err, domainerrors.ErrOfferNotFound) {
		t.Fatalf("expected ErrOfferNotFound, got %v", err)
	}
}

func TestCustomPayoutRejectsCountryOverrides(t *testing.T) {
	module := offerservice.NewInMemoryModule(nil, nil, nil)
	ctx := context.Background()
	created, err := module.Handler.CreateOfferHandler(ctx, "idem-custom-1", cpaOfferRequest("Game Launch"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	influencerID := createInfluencer(t, module, "creator@example.com")

	_, err = module.Handler.AssignCustomPayoutHandler(ctx, created.Data.OfferID, influencerID, httptransport.PayoutDTO{
		PayoutType: "CPA",
		CPAAmount:  amount("40"),
		CountryOverrides: []httptransport.CountryOverrideDTO{
			{CountryCode: "DE", CPAAmount: decimal.RequireFromString("90")},
		},
	})
	if !errors.Is(err, domainerrors.ErrInvalidPayoutDefinition) {
		t.Fatalf("expected ErrInvalidPayoutDefinition, got %v", err)
	}

	_, err = module.Handler.AssignCustomPayoutHandler(ctx, created.Data.OfferID, "missing", httptransport.PayoutDTO{
		PayoutType: "CPA",
		CPAAmount:  amount("40"),
	})
	if !errors.Is(err, domainerrors.ErrInfluencerNotFound) {
		t.Fatalf("expected ErrInfluencerNotFound, got %v", err)
	}
}

func TestCustomPayoutUpsertAndRemove(t *testing.T) {
	module := offerservice.NewInMemoryModule(nil, nil, nil)
	ctx := context.Background()
	created, err := module.Handler.CreateOfferHandler(ctx, "idem-custom-2", cpaOfferRequest("Game Launch"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	offerID := created.Data.OfferID
	influencerID := createInfluencer(t, module, "creator@example.com")

	first, err := module.Handler.AssignCustomPayoutHandler(ctx, offerID, influencerID, httptransport.PayoutDTO{
		PayoutType: "CPA",
		CPAAmount:  amount("40"),
	})
	if err != nil {
		t.Fatalf("first assign failed: %v", err)
	}
	second, err := module.Handler.AssignCustomPayoutHandler(ctx, offerID, influencerID, httptransport.PayoutDTO{
		PayoutType:  "CPA_PLUS_FIXED",
		CPAAmount:   amount("40"),
		FixedAmount: amount("12.5"),
	})
	if err != nil {
		t.Fatalf("second assign failed: %v", err)
	}
	if second.Data.CreatedAt != first.Data.CreatedAt {
		t.Fatalf("expected upsert to keep created_at")
	}

	view, err := module.Handler.GetInfluencerOfferHandler(ctx, offerID, influencerID)
	if err != nil {
		t.Fatalf("get view failed: %v", err)
	}
	if view.Data.PayoutInfo.DisplayText != "$40 CPA + $12.50 Fixed" {
		t.Fatalf("unexpected display %q", view.Data.PayoutInfo.DisplayText)
	}

	if err := module.Handler.RemoveCustomPayoutHandler(ctx, offerID, influencerID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := module.Handler.RemoveCustomPayoutHandler(ctx, offerID, influencerID); !errors.Is(err, domainerrors.ErrCustomPayoutNotFound) {
		t.Fatalf("expected ErrCustomPayoutNotFound on second remove, got %v", err)
	}
	outbox, err := module.Store.ListPendingOutbox(ctx, 50)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	removed := 0
	for _, message := range outbox {
		if message.EventType != "custom_payout.removed" {
			continue
		}
		removed++
		var envelope ports.EventEnvelope
		if err := json.Unmarshal(message.Payload, &envelope); err != nil {
			t.Fatalf("decode removal envelope: %v", err)
		}
		if err := envelope.Validate(); err != nil {
			t.Fatalf("removal envelope invalid: %v", err)
		}
		var data map[string]string
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			t.Fatalf("decode removal data: %v", err)
		}
		if data["offer_id"] != offerID || data["influencer_id"] != influencerID || data["removed_at"] == "" {
			t.Fatalf("unexpected removal data %+v", data)
		}
	}
	if removed != 1 {
		t.Fatalf("expected exactly one custom_payout.removed event, got %d", removed)
	}
	view, err = module.Handler.GetInfluencerOfferHandler(ctx, offerID, influencerID)
	if err != nil {
		t.Fatalf("get view after remove failed: %v", err)
	}
	if view.Data.PayoutInfo.DisplayText != "$20 - $30 CPA" || view.Data.PayoutInfo.IsCustomPayout {
		t.Fatalf("expected base payout after remove, got %+v", view.Data.PayoutInfo)
	}
}

func TestDeleteOfferCascadesCustomPayouts(t *testing.T) {
	module := offerservice.NewInMemoryModule(nil, nil, nil)
	ctx := context.Background()
	created, err := module.Handler.CreateOfferHandler(ctx, "idem-delete-1", cpaOfferRequest("Game Launch"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	offerID := created.Data.OfferID
	influencerID := createInfluencer(t, module, "creator@example.com")
	if _, err := module.Handler.AssignCustomPayoutHandler(ctx, offerID, influencerID, httptransport.PayoutDTO{
		PayoutType:  "FIXED",
		FixedAmount: amount("100"),
	}); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	if err := module.Handler.DeleteOfferHandler(ctx, offerID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := module.Handler.GetOfferHandler(ctx, offerID); !errors.Is(err, domainerrors.ErrOfferNotFound) {
		t.Fatalf("expected ErrOfferNotFound after delete, got %v", err)
	}
	if _, err := module.Store.GetCustomPayout(ctx, offerID, influencerID); !errors.Is(err, domainerrors.ErrCustomPayoutNotFound) {
		t.Fatalf("expected custom payout removed with offer, got %v", err)
	}
	if err := module.Handler.DeleteOfferHandler(ctx, offerID); !errors.Is(err, domainerrors.ErrOfferNotFound) {
		t.Fatalf("expected ErrOfferNotFound on second delete, got %v", err)
	}
}

func TestListOffersSearchAndPagination(t *testing.T) {
	module := offerservice.NewInMemoryModule(nil, nil, nil)
	ctx := context.Background()
	for i, title := range []string{"Summer Sale", "Winter Sale", "Gaming Week"} {
		if _, err := module.Handler.CreateOfferHandler(ctx, "idem-list-"+title, cpaOfferRequest(title)); err != nil {
			t.Fatalf("create %d failed: %v", i, err)
		}
	}

	resp, err := module.Handler.ListOffersHandler(ctx, httptransport.ListQuery{Title: "sale"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if resp.Total != 2 || len(resp.Data) != 2 {
		t.Fatalf("expected two sale offers, got %d (total %d)", len(resp.Data), resp.Total)
	}

	resp, err = module.Handler.ListOffersHandler(ctx, httptransport.ListQuery{Skip: 2, Limit: 1000})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if resp.Total != 3 || len(resp.Data) != 1 {
		t.Fatalf("expected one offer after skip, got %d (total %d)", len(resp.Data), resp.Total)
	}
}

func TestCreateInfluencerRejectsDuplicateEmail(t *testing.T) {
	module := offerservice.NewInMemoryModule(nil, nil, nil)
	ctx := context.Background()
	createInfluencer(t, module, "Jane@Example.com")

	_, err := module.Handler.CreateInfluencerHandler(ctx, httptransport.CreateInfluencerRequest{
		Name:  "Jane Again",
		Email: "jane@example.com",
	})
	if !errors.Is(err, domainerrors.ErrInfluencerEmailTaken) {
		t.Fatalf("expected ErrInfluencerEmailTaken, got %v", err)
	}

	_, err = module.Handler.CreateInfluencerHandler(ctx, httptransport.CreateInfluencerRequest{Name: "No Email", Email: "nope"})
	if !errors.Is(err, domainerrors.ErrInvalidInfluencerInput) {
		t.Fatalf("expected ErrInvalidInfluencerInput, got %v", err)
	}

	list, err := module.Handler.ListInfluencersHandler(ctx, httptransport.ListQuery{})
	if err != nil {
		t.Fatalf("list influencers failed: %v", err)
	}
	if list.Total != 1 || list.Data[0].Email != "jane@example.com" {
		t.Fatalf("unexpected influencers %+v", list.Data)
	}
}

func TestOfferWritesProduceCanonicalOutboxEvents(t *testing.T) {
	module := offerservice.NewInMemoryModule(nil, nil, nil)
	ctx := context.Background()
	created, err := module.Handler.CreateOfferHandler(ctx, "idem-outbox-1", cpaOfferRequest("Game Launch"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	outbox, err := module.Store.ListPendingOutbox(ctx, 50)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(outbox) != 1 || outbox[0].EventType != "offer.created" {
		t.Fatalf("expected a single offer.created event, got %+v", outbox)
	}

	var envelope map[string]any
	if err := json.Unmarshal(outbox[0].Payload, &envelope); err != nil {
		t.Fatalf("decode outbox envelope: %v", err)
	}
	if sourceService, _ := envelope["source_service"].(string); sourceService != "offer-service" {
		t.Fatalf("unexpected source_service: %s", sourceService)
	}
	if partitionPath, _ := envelope["partition_key_path"].(string); partitionPath != "offer_id" {
		t.Fatalf("unexpected partition_key_path: %s", partitionPath)
	}
	partitionKey, _ := envelope["partition_key"].(string)
	data, _ := envelope["data"].(map[string]any)
	if dataOfferID, _ := data["offer_id"].(string); dataOfferID != partitionKey || partitionKey != created.Data.OfferID {
		t.Fatalf("partition mismatch data.offer_id=%s partition_key=%s", dataOfferID, partitionKey)
	}
}

func TestOfferEventEmissionCanBeDisabled(t *testing.T) {
	store := memory.NewStore(nil, nil)
	module := offerservice.NewModule(offerservice.Dependencies{
		Offers:                    store,
		Influencers:               store,
		CustomPayouts:             store,
		Idempotency:               store,
		Outbox:                    store,
		Clock:                     store,
		IDGenerator:               store,
		IdempotencyTTL:            time.Hour,
		DisableOfferEventEmission: true,
	})
	module.Store = store

	if _, err := module.Handler.CreateOfferHandler(context.Background(), "idem-disabled-1", cpaOfferRequest("Game Launch")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if store.PendingOutboxCount() != 0 {
		t.Fatalf("expected no outbox events when emission is disabled")
	}
}

type recordingPublisher struct {
	topics []string
	events []ports.EventEnvelope
	fail   bool
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func TestOutboxRelayPublishesAndMarksRows(t *testing.T) {
	module := offerservice.NewInMemoryModule(nil, nil, nil)
	ctx := context.Background()
	created, err := module.Handler.CreateOfferHandler(ctx, "idem-relay-1", cpaOfferRequest("Game Launch"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := module.Handler.DeleteOfferHandler(ctx, created.Data.OfferID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	failing := &recordingPublisher{fail: true}
	relay := module.OutboxRelay
	relay.Publisher = failing
	if _, err := relay.RunOnce(ctx); err == nil {
		t.Fatalf("expected relay error when publisher fails")
	}
	if module.Store.PendingOutboxCount() != 2 {
		t.Fatalf("expected rows to stay pending after failed publish")
	}

	publisher := &recordingPublisher{}
	relay.Publisher = publisher
	relay.Topic = "offer-events"
	published, err := relay.RunOnce(ctx)
	if err != nil {
		t.Fatalf("relay failed: %v", err)
	}
	if published != 2 || module.Store.PendingOutboxCount() != 0 {
		t.Fatalf("expected two published rows, got %d with %d pending", published, module.Store.PendingOutboxCount())
	}
	for _, topic := range publisher.topics {
		if topic != "offer-events" {
			t.Fatalf("unexpected topic %s", topic)
		}
	}
	if publisher.events[0].PartitionKey != created.Data.OfferID {
		t.Fatalf("unexpected partition key %s", publisher.events[0].PartitionKey)
	}
}

// gatedOfferStore blocks CreateOffer until release is closed.
type gatedOfferStore struct {
	*memory.Store
	entered chan struct{}
	release chan struct{}
}

func (g gatedOfferStore) CreateOffer(ctx context.Context, offer entities.Offer, events []ports.EventEnvelope) error {
	g.entered <- struct{}{}
	<-g.release
	return g.Store.CreateOffer(ctx, offer, events)
}

func TestCreateOfferHoldsIdempotencyKeyWhileInserting(t *testing.T) {
	store := memory.NewStore(nil, nil)
	gate := gatedOfferStore{Store: store, entered: make(chan struct{}, 1), release: make(chan struct{})}
	module := offerservice.NewModule(offerservice.Dependencies{
		Offers:         gate,
		Influencers:    store,
		CustomPayouts:  store,
		Idempotency:    store,
		Outbox:         store,
		Clock:          store,
		IDGenerator:    store,
		IdempotencyTTL: time.Hour,
	})
	ctx := context.Background()

	type result struct {
		offer httptransport.OfferResponse
		err   error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := module.Handler.CreateOfferHandler(ctx, "idem-race", cpaOfferRequest("Game Launch"))
		done <- result{offer: resp, err: err}
	}()
	<-gate.entered

	if _, err := module.Handler.CreateOfferHandler(ctx, "idem-race", cpaOfferRequest("Game Launch")); !errors.Is(err, domainerrors.ErrIdempotencyInProgress) {
		t.Fatalf("expected ErrIdempotencyInProgress while the first insert runs, got %v", err)
	}
	if _, err := module.Handler.CreateOfferHandler(ctx, "idem-race", cpaOfferRequest("Other Title")); !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict for a different payload, got %v", err)
	}

	close(gate.release)
	first := <-done
	if first.err != nil {
		t.Fatalf("first create failed: %v", first.err)
	}
	replay, err := module.Handler.CreateOfferHandler(ctx, "idem-race", cpaOfferRequest("Game Launch"))
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !replay.Replayed || replay.Data.OfferID != first.offer.Data.OfferID {
		t.Fatalf("expected replay of %s, got %+v", first.offer.Data.OfferID, replay)
	}
	_, total, err := store.ListOffers(ctx, ports.OfferFilter{Limit: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected one stored offer, got %d", total)
	}
}

func TestConcurrentCreatesUnderOneKeyStoreOneOffer(t *testing.T) {
	module := offerservice.NewInMemoryModule(nil, nil, nil)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	ids := make(chan string, workers)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := module.Handler.CreateOfferHandler(ctx, "idem-concurrent", cpaOfferRequest("Game Launch"))
			if err != nil {
				errs <- err
				return
			}
			ids <- resp.Data.OfferID
		}()
	}
	wg.Wait()
	close(ids)
	close(errs)

	for err := range errs {
		if !errors.Is(err, domainerrors.ErrIdempotencyInProgress) {
			t.Fatalf("unexpected error %v", err)
		}
	}
	seen := map[string]struct{}{}
	for id := range ids {
		seen[id] = struct{}{}
	}
	if len(seen) != 1 {
		t.Fatalf("expected every success to share one offer id, got %v", seen)
	}
	_, total, err := module.Store.ListOffers(ctx, ports.OfferFilter{Limit: 50})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected one stored offer, got %d", total)
	}
}

func TestFailedCreateReleasesIdempotencyKey(t *testing.T) {
	module := offerservice.NewInMemoryModule(nil, nil, nil)
	ctx := context.Background()

	req := cpaOfferRequest("Game Launch")
	req.Categories = []string{"Cooking"}
	if _, err := module.Handler.CreateOfferHandler(ctx, "idem-retry", req); !errors.Is(err, domainerrors.ErrInvalidOfferInput) {
		t.Fatalf("expected ErrInvalidOfferInput, got %v", err)
	}
	resp, err := module.Handler.CreateOfferHandler(ctx, "idem-retry", cpaOfferRequest("Game Launch"))
	if err != nil {
		t.Fatalf("expected corrected retry under the same key to succeed, got %v", err)
	}
	if resp.Replayed {
		t.Fatalf("expected a fresh create after the failed attempt")
	}
}
