// Package events defines the outbound domain event envelope and its
// publishers. Events mirror what the gateway broadcasts; the JetStream copy
// exists for archival and downstream consumers, not for client delivery.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type identifies a domain event.
type Type string

const (
	TypeAuctionStarted   Type = "AuctionStarted"
	TypeAuctionPaused    Type = "AuctionPaused"
	TypeAuctionResumed   Type = "AuctionResumed"
	TypeAuctionCompleted Type = "AuctionCompleted"
	TypeLotNominated     Type = "LotNominated"
	TypeBidPlaced        Type = "BidPlaced"
	TypeBidderPassed     Type = "BidderPassed"
	TypeBidCancelled     Type = "BidCancelled"
	TypeLotRemoved       Type = "LotRemoved"
	TypeLotCompleted     Type = "LotCompleted"
	TypeBudgetUpdated    Type = "BudgetUpdated"
)

// Envelope is the wire form of a domain event.
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType Type            `json:"eventType"`
	AuctionID string          `json:"auctionId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEnvelope wraps a payload, assigning the event id and timestamp.
func NewEnvelope(eventType Type, auctionID uuid.UUID, payload any) (*Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		EventID:   uuid.New().String(),
		EventType: eventType,
		AuctionID: auctionID.String(),
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	}, nil
}

// LotNominatedPayload describes a new lot going up.
type LotNominatedPayload struct {
	ItemID      string    `json:"item_id"`
	ItemName    string    `json:"item_name"`
	NominatedBy uuid.UUID `json:"nominated_by"`
	StartingBid int       `json:"starting_bid"`
	EndTime     time.Time `json:"end_time"`
}

// BidPlacedPayload describes an accepted bid.
type BidPlacedPayload struct {
	ItemID   string    `json:"item_id"`
	BidderID uuid.UUID `json:"bidder_id"`
	Amount   int       `json:"amount"`
}

// BidderPassedPayload describes a pass, including any anti-snipe shortening.
type BidderPassedPayload struct {
	ItemID   string    `json:"item_id"`
	BidderID uuid.UUID `json:"bidder_id"`
	EndTime  time.Time `json:"end_time"`
}

// LotCompletedPayload describes a settled lot.
type LotCompletedPayload struct {
	ItemID   string    `json:"item_id"`
	Winner   uuid.UUID `json:"winner"`
	FinalBid int       `json:"final_bid"`
}
