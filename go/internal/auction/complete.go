package auction

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/gavel/go/internal/models"
)

// CompleteLot settles an active lot: the winning bid is deducted from the
// winner's budget, the item joins their won list, and the lot moves to the
// completed list carrying its final bid and winner.
func CompleteLot(a *models.Auction, itemID string, now time.Time) (*models.Auction, *Error) {
	lot := a.Lot(itemID)
	if lot == nil {
		return nil, NewError(CodeLotNotFound, "no active lot for item %s", itemID)
	}
	if lot.Status != models.LotStatusActive {
		return nil, NewError(CodeLotNotActive, "lot for item %s is %s", itemID, lot.Status)
	}
	if lot.CurrentBidder == uuid.Nil {
		return nil, NewError(CodeNoWinningBid, "lot for item %s has no high bidder", itemID)
	}
	w := a.Bidder(lot.CurrentBidder)
	if w == nil {
		return nil, NewError(CodeBidderNotFound, "winning bidder %s not in auction", lot.CurrentBidder)
	}
	if w.Budget < lot.CurrentBid {
		return nil, NewError(CodeInsufficientBudget,
			"winning bid %d exceeds bidder %s's remaining budget %d", lot.CurrentBid, w.ID, w.Budget)
	}

	next := a.Clone()
	winner := next.Bidder(lot.CurrentBidder)
	winner.Budget -= lot.CurrentBid
	winner.WonItems = append(winner.WonItems, itemID)

	for i := range next.LotsUp {
		if next.LotsUp[i].ItemID != itemID {
			continue
		}
		done := next.LotsUp[i]
		done.Status = models.LotStatusCompleted
		next.CompletedLots = append(next.CompletedLots, models.CompletedLot{
			Lot:      done,
			FinalBid: done.CurrentBid,
			Winner:   done.CurrentBidder,
		})
		next.LotsUp = append(next.LotsUp[:i], next.LotsUp[i+1:]...)
		break
	}
	return next, nil
}

// ExpireDue settles every active lot whose deadline has elapsed. It is
// idempotent: with nothing past due it returns the input unchanged. A due lot
// with no high bidder, or whose bid a corrupted state priced past the winner's
// budget, is left in place rather than settled so budgets never go negative.
func ExpireDue(a *models.Auction, now time.Time) (*models.Auction, []string, *Error) {
	var completed []string
	next := a
	for {
		itemID, ok := nextDue(next, now)
		if !ok {
			break
		}
		n, err := CompleteLot(next, itemID, now)
		if err != nil {
			return nil, nil, err
		}
		next = n
		completed = append(completed, itemID)
	}
	if len(completed) > 0 && poolExhausted(next) {
		n := next.Clone()
		n.Status = models.AuctionStatusCompleted
		next = n
	}
	return next, completed, nil
}

func nextDue(a *models.Auction, now time.Time) (string, bool) {
	for i := range a.LotsUp {
		lot := &a.LotsUp[i]
		if !lot.Expired(now) {
			continue
		}
		w := a.Bidder(lot.CurrentBidder)
		if lot.CurrentBidder == uuid.Nil || w == nil || w.Budget < lot.CurrentBid {
			// No settleable winner; leave the lot for the commissioner.
			continue
		}
		return lot.ItemID, true
	}
	return "", false
}

// poolExhausted reports whether nothing is left to nominate or settle.
func poolExhausted(a *models.Auction) bool {
	return len(a.AvailableItems) == 0 && len(a.LotsUp) == 0
}
