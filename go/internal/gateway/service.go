package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/internal/auction"
	"github.com/mcdev12/gavel/go/internal/engine"
	"github.com/mcdev12/gavel/go/internal/models"
	"github.com/mcdev12/gavel/go/internal/session"
)

// Service is the realtime boundary: it owns the WebSocket pools, routes
// client commands into the engine, and pushes role-scoped state back out.
// Business-rule failures go only to the command's originator.
type Service struct {
	cm       *ConnectionManager
	engine   *engine.Manager
	sessions session.Store
}

// NewService wires the gateway to the engine and attaches itself as the
// engine's broadcaster.
func NewService(cm *ConnectionManager, eng *engine.Manager, sessions session.Store) *Service {
	s := &Service{cm: cm, engine: eng, sessions: sessions}
	eng.SetBroadcaster(s)
	cm.SetOnEmpty(func(auctionID uuid.UUID) {
		log.Info().Str("auction_id", auctionID.String()).Msg("last client left; releasing auction runner")
		eng.Release(auctionID)
	})
	return s
}

// BroadcastState implements engine.Broadcaster. Each connection gets the
// projection for its own audience; under blind bidding two bidders therefore
// receive different frames for the same state change.
func (s *Service) BroadcastState(a *models.Auction) {
	conns := s.cm.Connections(a.ID)
	for _, conn := range conns {
		view := auction.Project(a, conn.Audience())
		frame, err := newEvent(EventAuctionState, view)
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal state view")
			continue
		}
		conn.SendBytes(frame)
	}
	log.Debug().
		Str("auction_id", a.ID.String()).
		Int("connections", len(conns)).
		Msg("state broadcasted")
}

// RegisterRoutes registers WebSocket and REST routes.
func (s *Service) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ws/auction/{id}", s.handleWebSocket)
	r.HandleFunc("/api/auctions", s.handleCreateAuction).Methods(http.MethodPost)
	r.HandleFunc("/api/auctions/{id}/bidders", s.handleAddBidder).Methods(http.MethodPost)
	r.HandleFunc("/api/auctions/{id}/items", s.handleSeedItems).Methods(http.MethodPost)
	r.HandleFunc("/api/auctions/{id}/start", s.handleStart).Methods(http.MethodPost)
	r.HandleFunc("/api/auctions/{id}/sessions", s.handleCreateSession).Methods(http.MethodPost)
	r.HandleFunc("/api/auctions/{id}/state", s.handleGetState).Methods(http.MethodGet)
	r.HandleFunc("/ws/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)
}

func (s *Service) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	auctionID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid auction id", http.StatusBadRequest)
		return
	}

	// The runner must exist before clients can command it; this also starts
	// the expiration scheduler for a rejoined auction.
	if _, aerr := s.engine.Runner(r.Context(), auctionID); aerr != nil {
		status := http.StatusInternalServerError
		if aerr.IsNotFound() {
			status = http.StatusNotFound
		}
		http.Error(w, aerr.Message, status)
		return
	}

	if _, err := s.cm.Upgrade(w, r, auctionID, s.handleMessage); err != nil {
		log.Error().Err(err).Str("auction_id", auctionID.String()).Msg("failed to upgrade WebSocket connection")
	}
}

// handleMessage dispatches one client frame. Every failure is reported to the
// sending connection only; other participants never see it.
func (s *Service) handleMessage(c *Connection, message []byte) {
	var cmd CommandEnvelope
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.sendError(c, auction.NewError(auction.CodeMalformedCommand, "malformed command"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if cmd.Type == CommandJoin {
		s.handleJoin(ctx, c, cmd.Payload)
		return
	}
	if !c.Joined() {
		s.sendError(c, auction.NewError(auction.CodeNotAuthorized, "JOIN required before commands"))
		return
	}

	if aerr := s.dispatch(ctx, c, cmd); aerr != nil {
		s.sendError(c, aerr)
	}
}

func (s *Service) dispatch(ctx context.Context, c *Connection, cmd CommandEnvelope) *auction.Error {
	aud := c.Audience()
	actingID := aud.BidderID

	switch cmd.Type {
	case CommandNominate:
		var p NominatePayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return malformed(cmd.Type)
		}
		return s.engine.Nominate(ctx, c.AuctionID, actingID, p.BidderID, p.ItemID, p.StartingBid)

	case CommandBid:
		var p BidPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return malformed(cmd.Type)
		}
		if aud.Role == auction.RoleObserver {
			return auction.NewError(auction.CodeNotAuthorized, "observers cannot bid")
		}
		return s.engine.PlaceBid(ctx, c.AuctionID, actingID, p.ItemID, p.Amount)

	case CommandPass:
		var p PassPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return malformed(cmd.Type)
		}
		if aud.Role == auction.RoleObserver {
			return auction.NewError(auction.CodeNotAuthorized, "observers cannot pass")
		}
		return s.engine.Pass(ctx, c.AuctionID, actingID, p.ItemID)

	case CommandAdjustTime:
		var p AdjustTimePayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return malformed(cmd.Type)
		}
		return s.engine.AdjustTime(ctx, c.AuctionID, actingID, p.ItemID, time.Duration(p.DeltaSeconds)*time.Second)

	case CommandPause:
		return s.engine.Pause(ctx, c.AuctionID, actingID)

	case CommandResume:
		return s.engine.Resume(ctx, c.AuctionID, actingID)

	case CommandEnd:
		return s.engine.End(ctx, c.AuctionID, actingID)

	case CommandRemoveItem:
		var p RemoveItemPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return malformed(cmd.Type)
		}
		return s.engine.RemoveItem(ctx, c.AuctionID, actingID, p.ItemID)

	case CommandCancelBid:
		var p CancelBidPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return malformed(cmd.Type)
		}
		return s.engine.CancelBid(ctx, c.AuctionID, actingID, p.ItemID)

	case CommandUpdateBudget:
		var p UpdateBudgetPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return malformed(cmd.Type)
		}
		return s.engine.UpdateBudget(ctx, c.AuctionID, actingID, p.BidderID, p.NewBudget)

	default:
		return auction.NewError(auction.CodeMalformedCommand, "unknown command %s", cmd.Type)
	}
}

// handleJoin settles the connection's audience. Bidder and commissioner joins
// are authenticated against the session store; observers need no session.
func (s *Service) handleJoin(ctx context.Context, c *Connection, payload json.RawMessage) {
	var p JoinPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError(c, auction.NewError(auction.CodeMalformedCommand, "malformed JOIN"))
		return
	}

	snap, aerr := s.engine.Snapshot(ctx, c.AuctionID)
	if aerr != nil {
		s.sendError(c, aerr)
		return
	}

	var aud auction.Audience
	switch p.Role {
	case auction.RoleObserver, "":
		aud = auction.Observer()

	case auction.RoleBidder, auction.RoleCommissioner:
		bidderID, err := s.sessions.Validate(ctx, p.SessionID, c.AuctionID)
		if err != nil {
			if errors.Is(err, session.ErrInvalid) {
				s.sendError(c, auction.NewError(auction.CodeNotAuthorized, "invalid session"))
			} else {
				log.Error().Err(err).Msg("session validation failed")
				s.sendError(c, auction.NewError(auction.CodePersistenceFailure, "session service unavailable"))
			}
			return
		}
		if p.Role == auction.RoleCommissioner {
			if bidderID != snap.CommissionerID {
				s.sendError(c, auction.NewError(auction.CodeNotAuthorized, "session is not the commissioner"))
				return
			}
			aud = auction.Commissioner()
			aud.BidderID = bidderID
		} else {
			aud = auction.ForBidder(bidderID)
		}

	default:
		s.sendError(c, auction.NewError(auction.CodeNotAuthorized, "unknown role %s", p.Role))
		return
	}

	c.SetAudience(aud)

	if frame, err := newEvent(EventJoined, JoinedPayload{Role: aud.Role, BidderID: aud.BidderID}); err == nil {
		c.SendBytes(frame)
	}
	// Full state push so the client starts from a fresh view.
	if frame, err := newEvent(EventAuctionState, auction.Project(snap, aud)); err == nil {
		c.SendBytes(frame)
	}
}

func (s *Service) sendError(c *Connection, aerr *auction.Error) {
	frame, err := newEvent(EventError, ErrorPayload{Code: aerr.Code, Message: aerr.Message})
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal error event")
		return
	}
	c.SendBytes(frame)
}

func malformed(t CommandType) *auction.Error {
	return auction.NewError(auction.CodeMalformedCommand, "malformed %s payload", t)
}
