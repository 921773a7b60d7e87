package auction

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/gavel/go/internal/models"
)

// Role identifies the audience class of a projection.
type Role string

const (
	RoleCommissioner Role = "commissioner"
	RoleBidder       Role = "bidder"
	RoleObserver     Role = "observer"
)

// Audience is a closed variant describing who a view is for. BidderID is set
// only when Role is RoleBidder.
type Audience struct {
	Role     Role
	BidderID uuid.UUID
}

func Commissioner() Audience          { return Audience{Role: RoleCommissioner} }
func ForBidder(id uuid.UUID) Audience { return Audience{Role: RoleBidder, BidderID: id} }
func Observer() Audience              { return Audience{Role: RoleObserver} }

// maskedBidder is the placeholder shown in place of a hidden high bidder.
const maskedBidder = "hidden"

// LotView is a lot as one audience sees it. HighBidder is the bidder's
// display name, or the masked placeholder under blind bidding.
type LotView struct {
	ItemID          string    `json:"item_id"`
	ItemName        string    `json:"item_name"`
	Category        string    `json:"category,omitempty"`
	Team            string    `json:"team,omitempty"`
	NominatedBy     string    `json:"nominated_by"`
	CurrentBid      int       `json:"current_bid"`
	HighBidder      string    `json:"high_bidder"`
	YouAreHighBid   bool      `json:"you_are_high_bid,omitempty"`
	PassCount       int       `json:"pass_count"`
	YouPassed       bool      `json:"you_passed,omitempty"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	NominationIndex int       `json:"nomination_index"`
}

// BidderView is a bidder's public standing. Budget is visible to everyone;
// it is league-table information, not a private field.
type BidderView struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Budget          int       `json:"budget"`
	InitialBudget   int       `json:"initial_budget"`
	WonItems        []string  `json:"won_items"`
	NominationOrder int       `json:"nomination_order"`
}

// CompletedLotView mirrors CompletedLot; the winner identity obeys the same
// masking rules as a live high bidder.
type CompletedLotView struct {
	ItemID   string `json:"item_id"`
	ItemName string `json:"item_name"`
	FinalBid int    `json:"final_bid"`
	Winner   string `json:"winner"`
}

// View is a role-scoped snapshot of an auction.
type View struct {
	AuctionID      uuid.UUID            `json:"auction_id"`
	DisplayName    string               `json:"display_name"`
	Status         models.AuctionStatus `json:"status"`
	BlindBidding   bool                 `json:"blind_bidding"`
	Bidders        []BidderView         `json:"bidders"`
	LotsUp         []LotView            `json:"lots_up"`
	CompletedLots  []CompletedLotView   `json:"completed_lots"`
	AvailableItems []models.Item        `json:"available_items"`
	// NominatingBidder is the bidder whose turn it is, empty before start.
	NominatingBidder string `json:"nominating_bidder,omitempty"`
}

// Project produces the view of an auction for one audience. It is a pure read
// transform: the commissioner sees every identity; a bidder sees their own
// standing plus, under blind bidding, only whether they themselves lead a lot;
// an observer under blind bidding sees no high-bidder identity at all.
func Project(a *models.Auction, aud Audience) *View {
	blind := !a.Settings.ShowHighBidder
	v := &View{
		AuctionID:      a.ID,
		DisplayName:    a.DisplayName,
		Status:         a.Status,
		BlindBidding:   blind,
		AvailableItems: append([]models.Item(nil), a.AvailableItems...),
	}

	for i := range a.Bidders {
		b := &a.Bidders[i]
		v.Bidders = append(v.Bidders, BidderView{
			ID:              b.ID,
			Name:            b.Name,
			Budget:          b.Budget,
			InitialBudget:   b.InitialBudget,
			WonItems:        append([]string(nil), b.WonItems...),
			NominationOrder: b.NominationOrder,
		})
	}
	if a.Status == models.AuctionStatusActive && len(a.Bidders) > 0 {
		v.NominatingBidder = a.Bidders[a.CurrentNominationBidderIndex].Name
	}

	for i := range a.LotsUp {
		lot := &a.LotsUp[i]
		lv := LotView{
			ItemID:          lot.ItemID,
			ItemName:        lot.ItemName,
			Category:        lot.Category,
			Team:            lot.Team,
			NominatedBy:     bidderName(a, lot.NominatedBy),
			CurrentBid:      lot.CurrentBid,
			HighBidder:      revealBidder(a, lot.CurrentBidder, blind, aud),
			PassCount:       len(lot.Passes),
			StartTime:       lot.StartTime,
			EndTime:         lot.EndTime,
			NominationIndex: lot.NominationIndex,
		}
		if aud.Role == RoleBidder {
			lv.YouAreHighBid = lot.CurrentBidder == aud.BidderID
			lv.YouPassed = lot.HasPassed(aud.BidderID)
		}
		v.LotsUp = append(v.LotsUp, lv)
	}

	for i := range a.CompletedLots {
		c := &a.CompletedLots[i]
		v.CompletedLots = append(v.CompletedLots, CompletedLotView{
			ItemID:   c.ItemID,
			ItemName: c.ItemName,
			FinalBid: c.FinalBid,
			Winner:   revealBidder(a, c.Winner, blind, aud),
		})
	}
	return v
}

// revealBidder applies the blind-bidding masking rules for one identity.
func revealBidder(a *models.Auction, id uuid.UUID, blind bool, aud Audience) string {
	if id == uuid.Nil {
		return ""
	}
	if !blind || aud.Role == RoleCommissioner {
		return bidderName(a, id)
	}
	if aud.Role == RoleBidder && aud.BidderID == id {
		return bidderName(a, id)
	}
	return maskedBidder
}

func bidderName(a *models.Auction, id uuid.UUID) string {
	if b := a.Bidder(id); b != nil {
		return b.Name
	}
	return id.String()
}
