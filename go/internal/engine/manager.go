package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/internal/auction"
	"github.com/mcdev12/gavel/go/internal/auction/store"
	"github.com/mcdev12/gavel/go/internal/events"
	"github.com/mcdev12/gavel/go/internal/models"
)

// Manager owns one Runner per live auction. Runners start lazily on first use
// and are torn down on Release or Shutdown. Auctions never share mutable
// state, so each runner is an independent unit of work.
type Manager struct {
	store     store.Store
	clock     clockwork.Clock
	publisher events.Publisher

	mu      sync.Mutex
	bc      Broadcaster
	runners map[uuid.UUID]*runnerHandle
	baseCtx context.Context
	cancel  context.CancelFunc
}

type runnerHandle struct {
	runner *Runner
	cancel context.CancelFunc
}

func NewManager(st store.Store, clock clockwork.Clock, pub events.Publisher) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		store:     st,
		clock:     clock,
		publisher: pub,
		bc:        NopBroadcaster{},
		runners:   make(map[uuid.UUID]*runnerHandle),
		baseCtx:   ctx,
		cancel:    cancel,
	}
}

// SetBroadcaster attaches the gateway. Must be called before clients join.
func (m *Manager) SetBroadcaster(bc Broadcaster) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bc = bc
}

// BroadcastState implements Broadcaster by delegating to the attached gateway.
func (m *Manager) BroadcastState(a *models.Auction) {
	m.mu.Lock()
	bc := m.bc
	m.mu.Unlock()
	bc.BroadcastState(a)
}

// Runner returns the actor for an auction, starting it from persisted state
// if needed.
func (m *Manager) Runner(ctx context.Context, auctionID uuid.UUID) (*Runner, *auction.Error) {
	m.mu.Lock()
	if h, ok := m.runners[auctionID]; ok {
		m.mu.Unlock()
		return h.runner, nil
	}
	m.mu.Unlock()

	// Load outside the lock; the store call can block.
	state, err := m.store.Load(ctx, auctionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, auction.NewError(auction.CodeAuctionNotFound, "auction %s not found", auctionID)
		}
		log.Error().Err(err).Str("auction_id", auctionID.String()).Msg("failed to load auction")
		return nil, auction.NewError(auction.CodePersistenceFailure, "could not load auction state")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.runners[auctionID]; ok {
		return h.runner, nil
	}
	r := newRunner(auctionID, state, m.store, m.clock, m.publisher, m)
	// A completed auction needs no scheduler; the runner hands itself back
	// after its final broadcast and a later Runner call revives from the
	// store for read-only viewers.
	r.onComplete = func() { m.Release(auctionID) }
	runCtx, cancel := context.WithCancel(m.baseCtx)
	m.runners[auctionID] = &runnerHandle{runner: r, cancel: cancel}
	go r.Run(runCtx)
	return r, nil
}

// Release stops an auction's actor, e.g. when the last client disconnects.
// State is already persisted; a later Runner call revives it.
func (m *Manager) Release(auctionID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.runners[auctionID]; ok {
		h.cancel()
		delete(m.runners, auctionID)
	}
}

// Shutdown stops every actor.
func (m *Manager) Shutdown() {
	m.cancel()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runners = make(map[uuid.UUID]*runnerHandle)
}

// CreateAuction creates and persists a new auction in SETUP and starts its
// actor.
func (m *Manager) CreateAuction(ctx context.Context, itemSourceID, displayName string, commissionerID uuid.UUID) (*models.Auction, *auction.Error) {
	a := auction.NewAuction(itemSourceID, displayName, commissionerID, m.clock.Now())
	if err := m.store.Save(ctx, a); err != nil {
		log.Error().Err(err).Msg("failed to persist new auction")
		return nil, auction.NewError(auction.CodePersistenceFailure, "could not persist auction")
	}
	if _, aerr := m.Runner(ctx, a.ID); aerr != nil {
		return nil, aerr
	}
	return a, nil
}

// Snapshot returns a consistent copy of an auction's current state.
func (m *Manager) Snapshot(ctx context.Context, auctionID uuid.UUID) (*models.Auction, *auction.Error) {
	r, aerr := m.Runner(ctx, auctionID)
	if aerr != nil {
		return nil, aerr
	}
	return r.Snapshot(ctx)
}

// AddBidder registers a bidder during setup.
func (m *Manager) AddBidder(ctx context.Context, auctionID, bidderID uuid.UUID, name, rosterRef string) *auction.Error {
	return m.do(ctx, auctionID, func(a *models.Auction, now time.Time) (*models.Auction, *auction.Error) {
		return auction.AddBidder(a, bidderID, name, rosterRef)
	}, nil)
}

// SeedItems loads the nomination pool during setup.
func (m *Manager) SeedItems(ctx context.Context, auctionID, actingID uuid.UUID, items []models.Item) *auction.Error {
	return m.do(ctx, auctionID, func(a *models.Auction, now time.Time) (*models.Auction, *auction.Error) {
		return auction.AddItems(a, actingID, items)
	}, nil)
}

// Start begins the auction.
func (m *Manager) Start(ctx context.Context, auctionID, actingID uuid.UUID) *auction.Error {
	return m.do(ctx, auctionID, func(a *models.Auction, now time.Time) (*models.Auction, *auction.Error) {
		if aerr := requireCommissionerStart(a, actingID); aerr != nil {
			return nil, aerr
		}
		return auction.Start(a)
	}, func(next *models.Auction) *events.Envelope {
		return envelope(events.TypeAuctionStarted, auctionID, struct{}{})
	})
}

// Nominate puts an item up for bidding.
func (m *Manager) Nominate(ctx context.Context, auctionID, actingID, onBehalfOf uuid.UUID, itemID string, startingBid int) *auction.Error {
	return m.do(ctx, auctionID, func(a *models.Auction, now time.Time) (*models.Auction, *auction.Error) {
		return auction.Nominate(a, actingID, onBehalfOf, itemID, startingBid, now)
	}, func(next *models.Auction) *events.Envelope {
		lot := next.Lot(itemID)
		if lot == nil {
			return nil
		}
		return envelope(events.TypeLotNominated, auctionID, events.LotNominatedPayload{
			ItemID:      lot.ItemID,
			ItemName:    lot.ItemName,
			NominatedBy: lot.NominatedBy,
			StartingBid: lot.CurrentBid,
			EndTime:     lot.EndTime,
		})
	})
}

// PlaceBid records a bid.
func (m *Manager) PlaceBid(ctx context.Context, auctionID, bidderID uuid.UUID, itemID string, amount int) *auction.Error {
	return m.do(ctx, auctionID, func(a *models.Auction, now time.Time) (*models.Auction, *auction.Error) {
		return auction.PlaceBid(a, bidderID, itemID, amount, now)
	}, func(next *models.Auction) *events.Envelope {
		return envelope(events.TypeBidPlaced, auctionID, events.BidPlacedPayload{
			ItemID:   itemID,
			BidderID: bidderID,
			Amount:   amount,
		})
	})
}

// Pass withdraws a bidder from a lot.
func (m *Manager) Pass(ctx context.Context, auctionID, bidderID uuid.UUID, itemID string) *auction.Error {
	return m.do(ctx, auctionID, func(a *models.Auction, now time.Time) (*models.Auction, *auction.Error) {
		return auction.Pass(a, bidderID, itemID, now)
	}, func(next *models.Auction) *events.Envelope {
		var end time.Time
		if lot := next.Lot(itemID); lot != nil {
			end = lot.EndTime
		}
		return envelope(events.TypeBidderPassed, auctionID, events.BidderPassedPayload{
			ItemID:   itemID,
			BidderID: bidderID,
			EndTime:  end,
		})
	})
}

// AdjustTime shifts a lot deadline.
func (m *Manager) AdjustTime(ctx context.Context, auctionID, actingID uuid.UUID, itemID string, delta time.Duration) *auction.Error {
	return m.do(ctx, auctionID, func(a *models.Auction, now time.Time) (*models.Auction, *auction.Error) {
		return auction.AdjustTime(a, actingID, itemID, delta)
	}, nil)
}

// Pause suspends the auction; the scheduler stops settling lots.
func (m *Manager) Pause(ctx context.Context, auctionID, actingID uuid.UUID) *auction.Error {
	return m.do(ctx, auctionID, func(a *models.Auction, now time.Time) (*models.Auction, *auction.Error) {
		return auction.Pause(a, actingID)
	}, func(next *models.Auction) *events.Envelope {
		return envelope(events.TypeAuctionPaused, auctionID, struct{}{})
	})
}

// Resume reactivates a paused auction.
func (m *Manager) Resume(ctx context.Context, auctionID, actingID uuid.UUID) *auction.Error {
	return m.do(ctx, auctionID, func(a *models.Auction, now time.Time) (*models.Auction, *auction.Error) {
		return auction.Resume(a, actingID)
	}, func(next *models.Auction) *events.Envelope {
		return envelope(events.TypeAuctionResumed, auctionID, struct{}{})
	})
}

// End force-completes the auction.
func (m *Manager) End(ctx context.Context, auctionID, actingID uuid.UUID) *auction.Error {
	return m.do(ctx, auctionID, func(a *models.Auction, now time.Time) (*models.Auction, *auction.Error) {
		return auction.End(a, actingID, now)
	}, func(next *models.Auction) *events.Envelope {
		return envelope(events.TypeAuctionCompleted, auctionID, struct{}{})
	})
}

// RemoveItem cancels a lot and returns its item to the pool.
func (m *Manager) RemoveItem(ctx context.Context, auctionID, actingID uuid.UUID, itemID string) *auction.Error {
	return m.do(ctx, auctionID, func(a *models.Auction, now time.Time) (*models.Auction, *auction.Error) {
		return auction.RemoveItem(a, actingID, itemID)
	}, func(next *models.Auction) *events.Envelope {
		return envelope(events.TypeLotRemoved, auctionID, map[string]string{"item_id": itemID})
	})
}

// CancelBid resets a lot to its opening state.
func (m *Manager) CancelBid(ctx context.Context, auctionID, actingID uuid.UUID, itemID string) *auction.Error {
	return m.do(ctx, auctionID, func(a *models.Auction, now time.Time) (*models.Auction, *auction.Error) {
		return auction.CancelBid(a, actingID, itemID)
	}, func(next *models.Auction) *events.Envelope {
		return envelope(events.TypeBidCancelled, auctionID, map[string]string{"item_id": itemID})
	})
}

// UpdateBudget administratively overrides a bidder's budget.
func (m *Manager) UpdateBudget(ctx context.Context, auctionID, actingID, bidderID uuid.UUID, newBudget int) *auction.Error {
	return m.do(ctx, auctionID, func(a *models.Auction, now time.Time) (*models.Auction, *auction.Error) {
		return auction.UpdateBidderBudget(a, actingID, bidderID, newBudget)
	}, func(next *models.Auction) *events.Envelope {
		return envelope(events.TypeBudgetUpdated, auctionID, map[string]any{
			"bidder_id":  bidderID,
			"new_budget": newBudget,
		})
	})
}

func (m *Manager) do(ctx context.Context, auctionID uuid.UUID, apply applyFunc, event eventFunc) *auction.Error {
	r, aerr := m.Runner(ctx, auctionID)
	if aerr != nil {
		return aerr
	}
	return r.Do(ctx, apply, event)
}

func envelope(t events.Type, auctionID uuid.UUID, payload any) *events.Envelope {
	env, err := events.NewEnvelope(t, auctionID, payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(t)).Msg("failed to build event envelope")
		return nil
	}
	return env
}

func requireCommissionerStart(a *models.Auction, actingID uuid.UUID) *auction.Error {
	if actingID != a.CommissionerID {
		return auction.NewError(auction.CodeNotAuthorized, "only the commissioner may start the auction")
	}
	return nil
}
