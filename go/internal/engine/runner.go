// Package engine serializes every operation on an auction through a single
// goroutine per auction. Client commands, scheduler ticks, and snapshot reads
// all flow through the same loop, so transitions apply atomically against an
// in-memory authoritative copy; persistence and broadcast happen as side
// effects after a transition is accepted.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/internal/auction"
	"github.com/mcdev12/gavel/go/internal/auction/store"
	"github.com/mcdev12/gavel/go/internal/events"
	"github.com/mcdev12/gavel/go/internal/models"
)

// tickInterval is how often the scheduler re-evaluates active lot deadlines.
const tickInterval = time.Second

// Broadcaster pushes a new authoritative state to every connected client.
// Implementations project per audience; the engine hands over the raw value.
type Broadcaster interface {
	BroadcastState(a *models.Auction)
}

// NopBroadcaster drops broadcasts. Used before a gateway attaches and in tests.
type NopBroadcaster struct{}

func (NopBroadcaster) BroadcastState(a *models.Auction) {}

// applyFunc is one transition bound to its arguments. now is the actor's
// clock reading at application time.
type applyFunc func(a *models.Auction, now time.Time) (*models.Auction, *auction.Error)

// eventFunc builds the domain event for an accepted transition, or nil.
type eventFunc func(next *models.Auction) *events.Envelope

type command struct {
	apply applyFunc
	event eventFunc
	reply chan *auction.Error
}

// Runner is the actor owning one auction's state.
type Runner struct {
	auctionID   uuid.UUID
	store       store.Store
	clock       clockwork.Clock
	publisher   events.Publisher
	broadcaster Broadcaster

	cmdCh chan command
	state *models.Auction

	// done is closed when the loop exits so pending Do callers unblock.
	done chan struct{}

	// onComplete asks the owner to release this runner once the auction
	// reaches its terminal status and the final broadcast has gone out.
	onComplete func()
}

func newRunner(auctionID uuid.UUID, initial *models.Auction, st store.Store, clock clockwork.Clock, pub events.Publisher, bc Broadcaster) *Runner {
	return &Runner{
		auctionID:   auctionID,
		store:       st,
		clock:       clock,
		publisher:   pub,
		broadcaster: bc,
		cmdCh:       make(chan command, 64),
		state:       initial,
		done:        make(chan struct{}),
	}
}

// Run loops until the context is cancelled. Lot deadlines are persisted data,
// so the first tick settles anything that came due while the actor was down.
func (r *Runner) Run(ctx context.Context) {
	log.Info().Str("auction_id", r.auctionID.String()).Msg("auction runner started")
	defer close(r.done)

	ticker := r.clock.NewTicker(tickInterval)
	defer ticker.Stop()

	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("auction_id", r.auctionID.String()).Msg("auction runner stopped")
			return
		case cmd := <-r.cmdCh:
			r.handle(ctx, cmd)
		case <-ticker.Chan():
			r.tick(ctx)
		}
	}
}

// Do applies one transition inside the actor loop and waits for the outcome.
func (r *Runner) Do(ctx context.Context, apply applyFunc, event eventFunc) *auction.Error {
	cmd := command{apply: apply, event: event, reply: make(chan *auction.Error, 1)}
	select {
	case r.cmdCh <- cmd:
	case <-r.done:
		return auction.NewError(auction.CodePersistenceFailure, "auction engine unavailable")
	case <-ctx.Done():
		return auction.NewError(auction.CodePersistenceFailure, "auction engine unavailable")
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-r.done:
		// The loop may have answered just before exiting.
		select {
		case err := <-cmd.reply:
			return err
		default:
			return auction.NewError(auction.CodePersistenceFailure, "auction engine unavailable")
		}
	case <-ctx.Done():
		return auction.NewError(auction.CodePersistenceFailure, "auction engine unavailable")
	}
}

// Snapshot returns a deep copy of the current state, serialized through the
// loop so it never observes a half-applied command.
func (r *Runner) Snapshot(ctx context.Context) (*models.Auction, *auction.Error) {
	var snap *models.Auction
	err := r.Do(ctx, func(a *models.Auction, now time.Time) (*models.Auction, *auction.Error) {
		snap = a.Clone()
		return a, nil
	}, nil)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (r *Runner) handle(ctx context.Context, cmd command) {
	now := r.clock.Now()
	next, aerr := cmd.apply(r.state, now)
	if aerr != nil {
		cmd.reply <- aerr
		return
	}
	if next == r.state {
		// Transition was a no-op; nothing to persist or announce.
		cmd.reply <- nil
		return
	}

	if err := r.store.Save(ctx, next); err != nil {
		// The in-memory transition is discarded: the command fails as a
		// whole instead of leaving memory ahead of the store.
		log.Error().Err(err).Str("auction_id", r.auctionID.String()).Msg("failed to persist auction state")
		cmd.reply <- auction.NewError(auction.CodePersistenceFailure, "could not persist auction state")
		return
	}

	r.state = next
	cmd.reply <- nil
	r.broadcaster.BroadcastState(next)

	if cmd.event != nil {
		if env := cmd.event(next); env != nil {
			if err := r.publisher.Publish(ctx, env); err != nil {
				log.Error().Err(err).
					Str("auction_id", r.auctionID.String()).
					Str("event_type", string(env.EventType)).
					Msg("failed to publish domain event")
			}
		}
	}

	if next.Status == models.AuctionStatusCompleted && r.onComplete != nil {
		r.onComplete()
	}
}

// tick settles expired lots. Re-running on an unchanged state is a no-op, and
// a failed save leaves the old state in place so the next tick retries.
func (r *Runner) tick(ctx context.Context) {
	if r.state.Status != models.AuctionStatusActive {
		return
	}
	now := r.clock.Now()

	for i := range r.state.LotsUp {
		lot := &r.state.LotsUp[i]
		if lot.Expired(now) && lot.CurrentBidder == uuid.Nil {
			log.Warn().
				Str("auction_id", r.auctionID.String()).
				Str("item_id", lot.ItemID).
				Msg("expired lot has no high bidder; leaving for commissioner")
		}
	}

	next, completed, aerr := auction.ExpireDue(r.state, now)
	if aerr != nil {
		log.Error().Err(aerr).Str("auction_id", r.auctionID.String()).Msg("expiry pass failed")
		return
	}
	if len(completed) == 0 {
		return
	}

	if err := r.store.Save(ctx, next); err != nil {
		log.Error().Err(err).Str("auction_id", r.auctionID.String()).Msg("failed to persist expiry pass; will retry")
		return
	}
	r.state = next
	r.broadcaster.BroadcastState(next)

	for _, itemID := range completed {
		for i := range next.CompletedLots {
			c := &next.CompletedLots[i]
			if c.ItemID != itemID {
				continue
			}
			env, err := events.NewEnvelope(events.TypeLotCompleted, r.auctionID, events.LotCompletedPayload{
				ItemID:   c.ItemID,
				Winner:   c.Winner,
				FinalBid: c.FinalBid,
			})
			if err == nil {
				if perr := r.publisher.Publish(ctx, env); perr != nil {
					log.Error().Err(perr).Str("item_id", itemID).Msg("failed to publish LotCompleted")
				}
			}
			break
		}
	}
	if next.Status == models.AuctionStatusCompleted {
		if env, err := events.NewEnvelope(events.TypeAuctionCompleted, r.auctionID, struct{}{}); err == nil {
			if perr := r.publisher.Publish(ctx, env); perr != nil {
				log.Error().Err(perr).Msg("failed to publish AuctionCompleted")
			}
		}
		if r.onComplete != nil {
			r.onComplete()
		}
	}
}
