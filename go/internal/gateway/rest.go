package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/internal/auction"
	"github.com/mcdev12/gavel/go/internal/models"
)

// The REST surface covers setup: creating an auction, registering bidders,
// seeding the item pool, minting sessions, and starting. Live play happens
// over the WebSocket command surface.

type createAuctionRequest struct {
	ItemSourceID   string    `json:"item_source_id"`
	DisplayName    string    `json:"display_name"`
	CommissionerID uuid.UUID `json:"commissioner_id"`
}

func (s *Service) handleCreateAuction(w http.ResponseWriter, r *http.Request) {
	var req createAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.DisplayName == "" || req.CommissionerID == uuid.Nil {
		http.Error(w, "display_name and commissioner_id are required", http.StatusBadRequest)
		return
	}

	a, aerr := s.engine.CreateAuction(r.Context(), req.ItemSourceID, req.DisplayName, req.CommissionerID)
	if aerr != nil {
		writeAuctionError(w, aerr)
		return
	}
	log.Info().Str("auction_id", a.ID.String()).Str("name", a.DisplayName).Msg("auction created")
	writeJSON(w, http.StatusCreated, a)
}

type addBidderRequest struct {
	BidderID  uuid.UUID `json:"bidder_id"`
	Name      string    `json:"name"`
	RosterRef string    `json:"roster_ref,omitempty"`
}

func (s *Service) handleAddBidder(w http.ResponseWriter, r *http.Request) {
	auctionID, ok := pathAuctionID(w, r)
	if !ok {
		return
	}
	var req addBidderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.BidderID == uuid.Nil || req.Name == "" {
		http.Error(w, "bidder_id and name are required", http.StatusBadRequest)
		return
	}

	if aerr := s.engine.AddBidder(r.Context(), auctionID, req.BidderID, req.Name, req.RosterRef); aerr != nil {
		writeAuctionError(w, aerr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type seedItemsRequest struct {
	ActingID uuid.UUID     `json:"acting_id"`
	Items    []models.Item `json:"items"`
}

func (s *Service) handleSeedItems(w http.ResponseWriter, r *http.Request) {
	auctionID, ok := pathAuctionID(w, r)
	if !ok {
		return
	}
	var req seedItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if aerr := s.engine.SeedItems(r.Context(), auctionID, req.ActingID, req.Items); aerr != nil {
		writeAuctionError(w, aerr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type startRequest struct {
	ActingID uuid.UUID `json:"acting_id"`
}

func (s *Service) handleStart(w http.ResponseWriter, r *http.Request) {
	auctionID, ok := pathAuctionID(w, r)
	if !ok {
		return
	}
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if aerr := s.engine.Start(r.Context(), auctionID, req.ActingID); aerr != nil {
		writeAuctionError(w, aerr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createSessionRequest struct {
	BidderID uuid.UUID `json:"bidder_id"`
}

func (s *Service) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	auctionID, ok := pathAuctionID(w, r)
	if !ok {
		return
	}
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// The bidder must exist (or be the commissioner) before a session makes
	// sense.
	snap, aerr := s.engine.Snapshot(r.Context(), auctionID)
	if aerr != nil {
		writeAuctionError(w, aerr)
		return
	}
	if snap.Bidder(req.BidderID) == nil && req.BidderID != snap.CommissionerID {
		http.Error(w, "unknown bidder", http.StatusNotFound)
		return
	}

	token, err := s.sessions.Create(r.Context(), auctionID, req.BidderID)
	if err != nil {
		log.Error().Err(err).Msg("failed to create session")
		http.Error(w, "session service unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": token})
}

func (s *Service) handleGetState(w http.ResponseWriter, r *http.Request) {
	auctionID, ok := pathAuctionID(w, r)
	if !ok {
		return
	}

	snap, aerr := s.engine.Snapshot(r.Context(), auctionID)
	if aerr != nil {
		writeAuctionError(w, aerr)
		return
	}

	// REST state reads are observer-scoped; authenticated views come over
	// the socket.
	writeJSON(w, http.StatusOK, auction.Project(snap, auction.Observer()))
}

func (s *Service) handleStats(w http.ResponseWriter, r *http.Request) {
	total, auctions := s.cm.Stats()
	writeJSON(w, http.StatusOK, map[string]int{
		"total_connections": total,
		"active_auctions":   auctions,
	})
}

func pathAuctionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid auction id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func writeAuctionError(w http.ResponseWriter, aerr *auction.Error) {
	status := http.StatusUnprocessableEntity
	switch {
	case aerr.IsNotFound():
		status = http.StatusNotFound
	case aerr.Code == auction.CodeNotAuthorized:
		status = http.StatusForbidden
	case aerr.IsInfrastructure():
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, ErrorPayload{Code: aerr.Code, Message: aerr.Message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}
