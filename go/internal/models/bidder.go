package models

import "github.com/google/uuid"

// Bidder is a participant in an auction.
type Bidder struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	RosterRef     string    `json:"roster_ref,omitempty"`
	Budget        int       `json:"budget"`
	InitialBudget int       `json:"initial_budget"`
	// WonItems holds item IDs in the order they were won.
	WonItems []string `json:"won_items"`
	// NominationOrder is the bidder's 1-based rank in the turn rotation.
	NominationOrder int `json:"nomination_order"`
}

func (b Bidder) clone() Bidder {
	out := b
	out.WonItems = append([]string(nil), b.WonItems...)
	return out
}
