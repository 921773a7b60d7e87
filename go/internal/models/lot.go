package models

import (
	"time"

	"github.com/google/uuid"
)

// LotStatus defines the status of a lot.
type LotStatus string

const (
	LotStatusActive    LotStatus = "ACTIVE"
	LotStatusCompleted LotStatus = "COMPLETED"
	LotStatusCancelled LotStatus = "CANCELLED"
)

// BidEvent is one entry in a lot's append-only bid history.
type BidEvent struct {
	BidderID uuid.UUID `json:"bidder_id"`
	Amount   int       `json:"amount"`
	At       time.Time `json:"at"`
}

// Lot is an item currently up for bidding. Display fields are denormalized
// from the Item so views never need the pool.
type Lot struct {
	ItemID   string `json:"item_id"`
	ItemName string `json:"item_name"`
	Category string `json:"category,omitempty"`
	Team     string `json:"team,omitempty"`

	NominatedBy   uuid.UUID `json:"nominated_by"`
	CurrentBid    int       `json:"current_bid"`
	CurrentBidder uuid.UUID `json:"current_bidder"`
	// Passes holds the bidders who have withdrawn from this lot. A new high
	// bid clears it. The current bidder is never in the set.
	Passes []uuid.UUID `json:"passes"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    LotStatus `json:"status"`
	// NominationIndex is the slot number when several lots run concurrently.
	NominationIndex int `json:"nomination_index"`

	History []BidEvent `json:"history,omitempty"`
}

// HasPassed reports whether the given bidder has passed on this lot.
func (l *Lot) HasPassed(bidderID uuid.UUID) bool {
	for _, id := range l.Passes {
		if id == bidderID {
			return true
		}
	}
	return false
}

// Expired reports whether the lot's deadline has elapsed.
func (l *Lot) Expired(now time.Time) bool {
	return now.After(l.EndTime)
}

func (l Lot) clone() Lot {
	out := l
	out.Passes = append([]uuid.UUID(nil), l.Passes...)
	out.History = append([]BidEvent(nil), l.History...)
	return out
}

// CompletedLot is a lot that reached its deadline with a winning bid.
// Immutable once created.
type CompletedLot struct {
	Lot
	FinalBid int       `json:"final_bid"`
	Winner   uuid.UUID `json:"winner"`
}

func (c CompletedLot) clone() CompletedLot {
	out := c
	out.Lot = c.Lot.clone()
	return out
}
