package auction

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/gavel/go/internal/models"
)

// Nominate puts an item up for bidding. A non-commissioner actor must be the
// bidder whose turn it is; the commissioner may nominate on behalf of any
// bidder at any time, and doing so does not advance the turn rotation.
func Nominate(a *models.Auction, actingID uuid.UUID, onBehalfOf uuid.UUID, itemID string, startingBid int, now time.Time) (*models.Auction, *Error) {
	if a.Status != models.AuctionStatusActive {
		return nil, NewError(CodeAuctionNotActive, "auction is %s", a.Status)
	}
	item := a.Item(itemID)
	if item == nil {
		return nil, NewError(CodeItemNotFound, "item %s is not in the available pool", itemID)
	}

	isCommissioner := actingID == a.CommissionerID
	nominator := actingID
	if isCommissioner && onBehalfOf != uuid.Nil {
		nominator = onBehalfOf
	}
	if !isCommissioner {
		if len(a.Bidders) == 0 {
			return nil, NewError(CodeNotYourTurn, "auction has no bidders")
		}
		turn := a.Bidders[a.CurrentNominationBidderIndex]
		if turn.ID != actingID {
			return nil, NewError(CodeNotYourTurn, "it is %s's turn to nominate", turn.Name)
		}
	}
	nom := a.Bidder(nominator)
	if nom == nil {
		return nil, NewError(CodeBidderNotFound, "nominating bidder %s not in auction", nominator)
	}

	if len(a.LotsUp) >= a.Settings.SimultaneousNominations {
		return nil, NewError(CodeSimultaneousLimitReached, "%d lots already up", len(a.LotsUp))
	}
	if a.Lot(itemID) != nil {
		return nil, NewError(CodeAlreadyUp, "item %s is already up for bidding", itemID)
	}

	if startingBid < 1 {
		startingBid = 1
	}
	// The nominator opens as the high bidder, so the opening bid is a
	// commitment like any other.
	if err := checkSpendable(a, nom, itemID, startingBid); err != nil {
		return nil, err
	}

	next := a.Clone()
	next.LotsUp = append(next.LotsUp, models.Lot{
		ItemID:          item.ID,
		ItemName:        item.Name,
		Category:        item.Category,
		Team:            item.Team,
		NominatedBy:     nominator,
		CurrentBid:      startingBid,
		CurrentBidder:   nominator,
		StartTime:       now,
		EndTime:         now.Add(a.Settings.NominationDuration),
		Status:          models.LotStatusActive,
		NominationIndex: len(a.LotsUp),
		History:         []models.BidEvent{{BidderID: nominator, Amount: startingBid, At: now}},
	})
	for i := range next.AvailableItems {
		if next.AvailableItems[i].ID == itemID {
			next.AvailableItems = append(next.AvailableItems[:i], next.AvailableItems[i+1:]...)
			break
		}
	}
	if !isCommissioner {
		next.CurrentNominationBidderIndex = (next.CurrentNominationBidderIndex + 1) % len(next.Bidders)
	}
	return next, nil
}
