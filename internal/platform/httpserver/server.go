package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	offerservice "offerhub/contexts/offer-catalog/offer-service"
	offerdomainerrors "offerhub/contexts/offer-catalog/offer-service/domain/errors"
	offerhttp "offerhub/contexts/offer-catalog/offer-service/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "offerhub/internal/platform/httpserver/docs"
)

type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	addr   string
	offers offerservice.Module
	srv    *http.Server
}

func New(offers offerservice.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		addr:   addr,
		offers: offers,
	}
	s.registerRoutes()
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)

	s.mux.HandleFunc("POST /api/v1/offers", s.handleCreateOffer)
	s.mux.HandleFunc("GET /api/v1/offers", s.handleListOffers)
	s.mux.HandleFunc("GET /api/v1/offers/{offer_id}", s.handleGetOffer)
	s.mux.HandleFunc("PUT /api/v1/offers/{offer_id}", s.handleUpdateOffer)
	s.mux.HandleFunc("DELETE /api/v1/offers/{offer_id}", s.handleDeleteOffer)
	s.mux.HandleFunc("PUT /api/v1/offers/{offer_id}/custom-payouts/{influencer_id}", s.handleAssignCustomPayout)
	s.mux.HandleFunc("DELETE /api/v1/offers/{offer_id}/custom-payouts/{influencer_id}", s.handleRemoveCustomPayout)
	s.mux.HandleFunc("GET /api/v1/offers/influencer/{influencer_id}", s.handleListInfluencerOffers)
	s.mux.HandleFunc("GET /api/v1/offers/{offer_id}/influencers/{influencer_id}", s.handleGetInfluencerOffer)

	s.mux.HandleFunc("POST /api/v1/influencers", s.handleCreateInfluencer)
	s.mux.HandleFunc("GET /api/v1/influencers", s.handleListInfluencers)
	s.mux.HandleFunc("GET /api/v1/influencers/{influencer_id}", s.handleGetInfluencer)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	var req offerhttp.CreateOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOfferError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.offers.Handler.CreateOfferHandler(r.Context(), r.Header.Get("Idempotency-Key"), req)
	if err != nil {
		s.writeOfferDomainError(w, r, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleListOffers(w http.ResponseWriter, r *http.Request) {
	query, ok := parseListQuery(w, r)
	if !ok {
		return
	}
	resp, err := s.offers.Handler.ListOffersHandler(r.Context(), query)
	if err != nil {
		s.writeOfferDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetOffer(w http.ResponseWriter, r *http.Request) {
	resp, err := s.offers.Handler.GetOfferHandler(r.Context(), r.PathValue("offer_id"))
	if err != nil {
		s.writeOfferDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateOffer(w http.ResponseWriter, r *http.Request) {
	var req offerhttp.UpdateOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOfferError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.offers.Handler.UpdateOfferHandler(r.Context(), r.PathValue("offer_id"), req)
	if err != nil {
		s.writeOfferDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteOffer(w http.ResponseWriter, r *http.Request) {
	if err := s.offers.Handler.DeleteOfferHandler(r.Context(), r.PathValue("offer_id")); err != nil {
		s.writeOfferDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAssignCustomPayout(w http.ResponseWriter, r *http.Request) {
	var req offerhttp.PayoutDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOfferError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.offers.Handler.AssignCustomPayoutHandler(
		r.Context(),
		r.PathValue("offer_id"),
		r.PathValue("influencer_id"),
		req,
	)
	if err != nil {
		s.writeOfferDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRemoveCustomPayout(w http.ResponseWriter, r *http.Request) {
	err := s.offers.Handler.RemoveCustomPayoutHandler(
		r.Context(),
		r.PathValue("offer_id"),
		r.PathValue("influencer_id"),
	)
	if err != nil {
		s.writeOfferDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListInfluencerOffers(w http.ResponseWriter, r *http.Request) {
	query, ok := parseListQuery(w, r)
	if !ok {
		return
	}
	resp, err := s.offers.Handler.ListInfluencerOffersHandler(r.Context(), r.PathValue("influencer_id"), query)
	if err != nil {
		s.writeOfferDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetInfluencerOffer(w http.ResponseWriter, r *http.Request) {
	resp, err := s.offers.Handler.GetInfluencerOfferHandler(
		r.Context(),
		r.PathValue("offer_id"),
		r.PathValue("influencer_id"),
	)
	if err != nil {
		s.writeOfferDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateInfluencer(w http.ResponseWriter, r *http.Request) {
	var req offerhttp.CreateInfluencerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOfferError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.offers.Handler.CreateInfluencerHandler(r.Context(), req)
	if err != nil {
		s.writeOfferDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListInfluencers(w http.ResponseWriter, r *http.Request) {
	query, ok := parseListQuery(w, r)
	if !ok {
		return
	}
	resp, err := s.offers.Handler.ListInfluencersHandler(r.Context(), query)
	if err != nil {
		s.writeOfferDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetInfluencer(w http.ResponseWriter, r *http.Request) {
	resp, err := s.offers.Handler.GetInfluencerHandler(r.Context(), r.PathValue("influencer_id"))
	if err != nil {
		s.writeOfferDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseListQuery(w http.ResponseWriter, r *http.Request) (offerhttp.ListQuery, bool) {
	query := r.URL.Query()
	req := offerhttp.ListQuery{Title: strings.TrimSpace(query.Get("title"))}

	if skipRaw := query.Get("skip"); skipRaw != "" {
		skip, err := strconv.Atoi(skipRaw)
		if err != nil || skip < 0 {
			writeOfferError(w, http.StatusBadRequest, "invalid_skip", "skip must be a non-negative integer")
			return offerhttp.ListQuery{}, false
		}
		req.Skip = skip
	}
	if limitRaw := query.Get("limit"); limitRaw != "" {
		limit, err := strconv.Atoi(limitRaw)
		if err != nil || limit < 1 {
			writeOfferError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return offerhttp.ListQuery{}, false
		}
		req.Limit = limit
	}
	return req, true
}

func (s *Server) writeOfferDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, offerdomainerrors.ErrPayoutIntegrity):
		s.logger.Error("stored payout failed resolution",
			"event", "http_payout_integrity_error",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"path", r.URL.Path,
			"error", err.Error(),
		)
		writeOfferError(w, http.StatusUnprocessableEntity, "payout_integrity_error", err.Error())
	case errors.Is(err, offerdomainerrors.ErrInvalidPayoutDefinition):
		writeOfferError(w, http.StatusBadRequest, "invalid_payout", err.Error())
	case errors.Is(err, offerdomainerrors.ErrInvalidOfferInput),
		errors.Is(err, offerdomainerrors.ErrInvalidInfluencerInput):
		writeOfferError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, offerdomainerrors.ErrIdempotencyKeyRequired):
		writeOfferError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, offerdomainerrors.ErrOfferNotFound):
		writeOfferError(w, http.StatusNotFound, "offer_not_found", err.Error())
	case errors.Is(err, offerdomainerrors.ErrInfluencerNotFound):
		writeOfferError(w, http.StatusNotFound, "influencer_not_found", err.Error())
	case errors.Is(err, offerdomainerrors.ErrCustomPayoutNotFound):
		writeOfferError(w, http.StatusNotFound, "custom_payout_not_found", err.Error())
	case errors.Is(err, offerdomainerrors.ErrInfluencerEmailTaken):
		writeOfferError(w, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, offerdomainerrors.ErrIdempotencyConflict):
		writeOfferError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, offerdomainerrors.ErrIdempotencyInProgress):
		writeOfferError(w, http.StatusConflict, "idempotency_in_progress", err.Error())
	default:
		s.logger.Error("offer request failed",
			"event", "http_internal_error",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"path", r.URL.Path,
			"error", err.Error(),
		)
		writeOfferError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeOfferError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, offerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
