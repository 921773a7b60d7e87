package models

import (
	"time"

	"github.com/google/uuid"
)

// AuctionStatus defines the lifecycle status of an auction.
type AuctionStatus string

const (
	AuctionStatusSetup     AuctionStatus = "SETUP"
	AuctionStatusActive    AuctionStatus = "ACTIVE"
	AuctionStatusPaused    AuctionStatus = "PAUSED"
	AuctionStatusCompleted AuctionStatus = "COMPLETED"
)

// AuctionSettings holds the configuration for an auction. Stored as a JSONB
// document alongside the rest of the auction state.
type AuctionSettings struct {
	LeagueName              string        `json:"league_name"`
	NominationRounds        int           `json:"nomination_rounds,omitempty"`
	TargetItemsWon          int           `json:"target_items_won,omitempty"`
	MinItems                int           `json:"min_items"`
	MaxItems                int           `json:"max_items"`
	SimultaneousNominations int           `json:"simultaneous_nominations"`
	NominationDuration      time.Duration `json:"nomination_duration"`
	NominationTimeAllowed   time.Duration `json:"nomination_time_allowed"`
	SkipMissedNominations   bool          `json:"skip_missed_nominations"`
	ShowHighBidder          bool          `json:"show_high_bidder"`
	DefaultBudget           int           `json:"default_budget"`
}

// DefaultSettings returns the settings a freshly created auction starts with.
func DefaultSettings() AuctionSettings {
	return AuctionSettings{
		MinItems:                0,
		MaxItems:                0,
		SimultaneousNominations: 1,
		NominationDuration:      2 * time.Minute,
		NominationTimeAllowed:   30 * time.Second,
		ShowHighBidder:          true,
		DefaultBudget:           200,
	}
}

// Auction is the aggregate root. All mutating commands take an Auction value
// and return a new one; a rejected command leaves the input untouched.
type Auction struct {
	ID             uuid.UUID       `json:"id"`
	CreatedAt      time.Time       `json:"created_at"`
	ItemSourceID   string          `json:"item_source_id"`
	DisplayName    string          `json:"display_name"`
	CommissionerID uuid.UUID       `json:"commissioner_id"`
	Settings       AuctionSettings `json:"settings"`
	Status         AuctionStatus   `json:"status"`

	Bidders        []Bidder       `json:"bidders"`
	AvailableItems []Item         `json:"available_items"`
	LotsUp         []Lot          `json:"lots_up"`
	CompletedLots  []CompletedLot `json:"completed_lots"`

	// CurrentNominationBidderIndex is the rotation cursor into Bidders.
	CurrentNominationBidderIndex int `json:"current_nomination_bidder_index"`
}

// Clone returns a deep copy of the auction. Transition functions clone first
// and mutate the copy so that failures never leave partial state behind.
func (a *Auction) Clone() *Auction {
	out := *a
	out.Bidders = make([]Bidder, len(a.Bidders))
	for i, b := range a.Bidders {
		out.Bidders[i] = b.clone()
	}
	out.AvailableItems = append([]Item(nil), a.AvailableItems...)
	out.LotsUp = make([]Lot, len(a.LotsUp))
	for i, l := range a.LotsUp {
		out.LotsUp[i] = l.clone()
	}
	out.CompletedLots = make([]CompletedLot, len(a.CompletedLots))
	for i, c := range a.CompletedLots {
		out.CompletedLots[i] = c.clone()
	}
	return &out
}

// Bidder returns the bidder with the given id, or nil.
func (a *Auction) Bidder(id uuid.UUID) *Bidder {
	for i := range a.Bidders {
		if a.Bidders[i].ID == id {
			return &a.Bidders[i]
		}
	}
	return nil
}

// Lot returns the active lot for the given item, or nil.
func (a *Auction) Lot(itemID string) *Lot {
	for i := range a.LotsUp {
		if a.LotsUp[i].ItemID == itemID {
			return &a.LotsUp[i]
		}
	}
	return nil
}

// Item returns the un-nominated pool item with the given id, or nil.
func (a *Auction) Item(itemID string) *Item {
	for i := range a.AvailableItems {
		if a.AvailableItems[i].ID == itemID {
			return &a.AvailableItems[i]
		}
	}
	return nil
}
