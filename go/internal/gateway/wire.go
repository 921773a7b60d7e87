package gateway

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/gavel/go/internal/auction"
)

// CommandType tags a client-issued command.
type CommandType string

const (
	CommandJoin         CommandType = "JOIN"
	CommandNominate     CommandType = "NOMINATE"
	CommandBid          CommandType = "BID"
	CommandPass         CommandType = "PASS"
	CommandAdjustTime   CommandType = "ADJUST_TIME"
	CommandPause        CommandType = "PAUSE"
	CommandResume       CommandType = "RESUME"
	CommandEnd          CommandType = "END"
	CommandRemoveItem   CommandType = "REMOVE_ITEM"
	CommandCancelBid    CommandType = "CANCEL_BID"
	CommandUpdateBudget CommandType = "UPDATE_BUDGET"
)

// CommandEnvelope is the wire form of a client command.
type CommandEnvelope struct {
	Type    CommandType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JoinPayload authenticates a connection and settles its audience.
type JoinPayload struct {
	Role      auction.Role `json:"role"`
	BidderID  uuid.UUID    `json:"bidder_id,omitempty"`
	SessionID string       `json:"session_id,omitempty"`
}

// NominatePayload puts an item up. BidderID is honored only for the
// commissioner nominating on a bidder's behalf.
type NominatePayload struct {
	ItemID      string    `json:"item_id"`
	StartingBid int       `json:"starting_bid,omitempty"`
	BidderID    uuid.UUID `json:"bidder_id,omitempty"`
}

// BidPayload places a bid.
type BidPayload struct {
	ItemID string `json:"item_id"`
	Amount int    `json:"amount"`
}

// PassPayload withdraws from a lot.
type PassPayload struct {
	ItemID string `json:"item_id"`
}

// AdjustTimePayload shifts a lot deadline by a signed number of seconds.
type AdjustTimePayload struct {
	ItemID       string `json:"item_id"`
	DeltaSeconds int    `json:"delta_seconds"`
}

// RemoveItemPayload deletes a lot.
type RemoveItemPayload struct {
	ItemID string `json:"item_id"`
}

// CancelBidPayload resets a lot's bidding.
type CancelBidPayload struct {
	ItemID string `json:"item_id"`
}

// UpdateBudgetPayload overrides a bidder's budget.
type UpdateBudgetPayload struct {
	BidderID  uuid.UUID `json:"bidder_id"`
	NewBudget int       `json:"new_budget"`
}

// EventType tags a server-issued event.
type EventType string

const (
	EventAuctionState EventType = "AUCTION_STATE"
	EventError        EventType = "ERROR"
	EventJoined       EventType = "JOINED"
)

// EventEnvelope is the wire form of a server event.
type EventEnvelope struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ErrorPayload reports a failed command to its originator only.
type ErrorPayload struct {
	Code    auction.Code `json:"code"`
	Message string       `json:"message"`
}

// JoinedPayload acknowledges a JOIN.
type JoinedPayload struct {
	Role     auction.Role `json:"role"`
	BidderID uuid.UUID    `json:"bidder_id,omitempty"`
}

func newEvent(t EventType, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(EventEnvelope{
		Type:      t,
		Timestamp: time.Now().UTC(),
		Data:      raw,
	})
}
