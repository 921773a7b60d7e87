package auction

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/gavel/go/internal/models"
)

// antiSnipeWindow is the fast countdown applied once no contest remains on a
// lot: every bidder but the leader has passed.
const antiSnipeWindow = 10 * time.Second

// PlaceBid records a new high bid on an active lot. A successful bid clears
// the pass set, reopening the decision for everyone who had passed. Budget
// validation counts funds the bidder has already committed as the high bid on
// other live lots, so the sum of a bidder's winning bids can never exceed
// their budget.
func PlaceBid(a *models.Auction, bidderID uuid.UUID, itemID string, amount int, now time.Time) (*models.Auction, *Error) {
	lot, err := activeLot(a, itemID, now)
	if err != nil {
		return nil, err
	}
	bidder := a.Bidder(bidderID)
	if bidder == nil {
		return nil, NewError(CodeBidderNotFound, "bidder %s not in auction", bidderID)
	}
	if amount <= lot.CurrentBid {
		return nil, NewError(CodeBidTooLow, "bid %d must exceed current bid %d", amount, lot.CurrentBid)
	}
	if err := checkSpendable(a, bidder, itemID, amount); err != nil {
		return nil, err
	}

	next := a.Clone()
	l := next.Lot(itemID)
	l.CurrentBid = amount
	l.CurrentBidder = bidderID
	l.Passes = nil
	l.History = append(l.History, models.BidEvent{BidderID: bidderID, Amount: amount, At: now})
	return next, nil
}

// Pass withdraws a bidder from a lot. Once every bidder except the current
// high bidder has passed, the lot's deadline is shortened to the anti-snipe
// window so an uncontested lot closes quickly; a deadline that is already
// sooner is left alone.
func Pass(a *models.Auction, bidderID uuid.UUID, itemID string, now time.Time) (*models.Auction, *Error) {
	lot, err := activeLot(a, itemID, now)
	if err != nil {
		return nil, err
	}
	if a.Bidder(bidderID) == nil {
		return nil, NewError(CodeBidderNotFound, "bidder %s not in auction", bidderID)
	}
	if lot.HasPassed(bidderID) {
		return nil, NewError(CodeAlreadyPassed, "bidder already passed on item %s", itemID)
	}
	if lot.CurrentBidder == bidderID {
		return nil, NewError(CodeCannotPassWhileWinning, "current high bidder cannot pass")
	}

	next := a.Clone()
	l := next.Lot(itemID)
	l.Passes = append(l.Passes, bidderID)

	if everyoneElsePassed(next, l) {
		cutoff := now.Add(antiSnipeWindow)
		if cutoff.Before(l.EndTime) {
			l.EndTime = cutoff
		}
	}
	return next, nil
}

// activeLot resolves an item to its active, unexpired lot.
func activeLot(a *models.Auction, itemID string, now time.Time) (*models.Lot, *Error) {
	lot := a.Lot(itemID)
	if lot == nil {
		return nil, NewError(CodeLotNotFound, "no active lot for item %s", itemID)
	}
	if lot.Status != models.LotStatusActive {
		return nil, NewError(CodeLotNotActive, "lot for item %s is %s", itemID, lot.Status)
	}
	if lot.Expired(now) {
		return nil, NewError(CodeLotExpired, "bidding on item %s closed at %s", itemID, lot.EndTime.Format(time.RFC3339))
	}
	return lot, nil
}

// checkSpendable verifies that a bid fits the bidder's uncommitted budget.
// Funds already committed as the high bid on other live lots are unavailable,
// and $1 is reserved for every still-unfilled minimum roster slot.
func checkSpendable(a *models.Auction, bidder *models.Bidder, itemID string, amount int) *Error {
	committed := 0
	for i := range a.LotsUp {
		l := &a.LotsUp[i]
		if l.ItemID == itemID || l.CurrentBidder != bidder.ID {
			continue
		}
		committed += l.CurrentBid
	}
	available := bidder.Budget - committed
	if amount > available {
		return NewError(CodeInsufficientBudget,
			"bid %d exceeds available budget %d (%d committed on other lots)",
			amount, available, committed)
	}
	remainingMinSlots := a.Settings.MinItems - len(bidder.WonItems)
	if remainingMinSlots < 0 {
		remainingMinSlots = 0
	}
	if amount > available-remainingMinSlots {
		return NewError(CodeReservedFundsViolation,
			"bid %d exceeds spendable %d (%d reserved for %d remaining minimum slots)",
			amount, available-remainingMinSlots, remainingMinSlots, remainingMinSlots)
	}
	return nil
}

func everyoneElsePassed(a *models.Auction, lot *models.Lot) bool {
	for i := range a.Bidders {
		id := a.Bidders[i].ID
		if id == lot.CurrentBidder {
			continue
		}
		if !lot.HasPassed(id) {
			return false
		}
	}
	return len(a.Bidders) > 1
}
