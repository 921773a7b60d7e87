// Package auction implements the auction state machine as pure transition
// functions. Every command takes the current auction value plus arguments and
// returns either a new auction value or a typed *Error; the input is never
// mutated, so a rejected command cannot leave partial state behind.
package auction

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/gavel/go/internal/models"
)

// NewAuction creates an auction in SETUP with default settings and empty
// bidder and lot lists.
func NewAuction(itemSourceID, displayName string, commissionerID uuid.UUID, now time.Time) *models.Auction {
	return &models.Auction{
		ID:             uuid.New(),
		CreatedAt:      now,
		ItemSourceID:   itemSourceID,
		DisplayName:    displayName,
		CommissionerID: commissionerID,
		Settings:       models.DefaultSettings(),
		Status:         models.AuctionStatusSetup,
	}
}

// AddBidder appends a bidder with the default budget and the next nomination
// order. Adding an already-known bidder is a no-op that returns the input.
func AddBidder(a *models.Auction, id uuid.UUID, name, rosterRef string) (*models.Auction, *Error) {
	if a.Bidder(id) != nil {
		return a, nil
	}
	next := a.Clone()
	next.Bidders = append(next.Bidders, models.Bidder{
		ID:              id,
		Name:            name,
		RosterRef:       rosterRef,
		Budget:          a.Settings.DefaultBudget,
		InitialBudget:   a.Settings.DefaultBudget,
		NominationOrder: len(a.Bidders) + 1,
	})
	return next, nil
}

// AddItems loads catalog entries into the nomination pool during setup.
// Entries already present (by id) are skipped.
func AddItems(a *models.Auction, actingID uuid.UUID, items []models.Item) (*models.Auction, *Error) {
	if err := requireCommissioner(a, actingID); err != nil {
		return nil, err
	}
	if a.Status != models.AuctionStatusSetup {
		return nil, NewError(CodeAuctionNotActive, "items may only be added while the auction is in %s", models.AuctionStatusSetup)
	}
	next := a.Clone()
	for _, item := range items {
		if next.Item(item.ID) != nil {
			continue
		}
		next.AvailableItems = append(next.AvailableItems, item)
	}
	return next, nil
}

// UpdateBidderBudget sets a bidder's budget unconditionally. This is an
// administrative override and does not validate against amounts already spent.
func UpdateBidderBudget(a *models.Auction, actingID, bidderID uuid.UUID, newBudget int) (*models.Auction, *Error) {
	if err := requireCommissioner(a, actingID); err != nil {
		return nil, err
	}
	if a.Bidder(bidderID) == nil {
		return nil, NewError(CodeBidderNotFound, "bidder %s not in auction", bidderID)
	}
	next := a.Clone()
	b := next.Bidder(bidderID)
	b.Budget = newBudget
	if newBudget > b.InitialBudget {
		b.InitialBudget = newBudget
	}
	return next, nil
}

// Start sorts bidders by nomination order, resets the rotation cursor and
// moves the auction to ACTIVE.
func Start(a *models.Auction) (*models.Auction, *Error) {
	if a.Status != models.AuctionStatusSetup {
		return nil, NewError(CodeAuctionNotActive, "auction is %s, expected %s", a.Status, models.AuctionStatusSetup)
	}
	next := a.Clone()
	sort.SliceStable(next.Bidders, func(i, j int) bool {
		return next.Bidders[i].NominationOrder < next.Bidders[j].NominationOrder
	})
	next.CurrentNominationBidderIndex = 0
	next.Status = models.AuctionStatusActive
	return next, nil
}

// Pause moves an active auction to PAUSED. The scheduler stops ticking while
// paused; lot deadlines are data and survive unchanged.
func Pause(a *models.Auction, actingID uuid.UUID) (*models.Auction, *Error) {
	if err := requireCommissioner(a, actingID); err != nil {
		return nil, err
	}
	if a.Status != models.AuctionStatusActive {
		return nil, NewError(CodeAuctionNotActive, "auction is %s", a.Status)
	}
	next := a.Clone()
	next.Status = models.AuctionStatusPaused
	return next, nil
}

// Resume moves a paused auction back to ACTIVE.
func Resume(a *models.Auction, actingID uuid.UUID) (*models.Auction, *Error) {
	if err := requireCommissioner(a, actingID); err != nil {
		return nil, err
	}
	if a.Status != models.AuctionStatusPaused {
		return nil, NewError(CodeAuctionNotActive, "auction is %s, expected %s", a.Status, models.AuctionStatusPaused)
	}
	next := a.Clone()
	next.Status = models.AuctionStatusActive
	return next, nil
}

// End force-completes every active lot that has a high bidder, then marks the
// auction COMPLETED. Lots without a winning bid are cancelled back to the pool.
func End(a *models.Auction, actingID uuid.UUID, now time.Time) (*models.Auction, *Error) {
	if err := requireCommissioner(a, actingID); err != nil {
		return nil, err
	}
	next := a.Clone()
	for len(next.LotsUp) > 0 {
		lot := next.LotsUp[0]
		if lot.CurrentBidder != uuid.Nil {
			n, cerr := CompleteLot(next, lot.ItemID, now)
			if cerr != nil {
				return nil, cerr
			}
			next = n
			continue
		}
		// No winning bid: return the item to the pool.
		next.AvailableItems = append(next.AvailableItems, models.Item{
			ID:       lot.ItemID,
			Name:     lot.ItemName,
			Category: lot.Category,
			Team:     lot.Team,
		})
		next.LotsUp = next.LotsUp[1:]
	}
	next.Status = models.AuctionStatusCompleted
	return next, nil
}

// AdjustTime shifts a lot's deadline by delta. Commissioner only.
func AdjustTime(a *models.Auction, actingID uuid.UUID, itemID string, delta time.Duration) (*models.Auction, *Error) {
	if err := requireCommissioner(a, actingID); err != nil {
		return nil, err
	}
	if a.Lot(itemID) == nil {
		return nil, NewError(CodeLotNotFound, "no active lot for item %s", itemID)
	}
	next := a.Clone()
	lot := next.Lot(itemID)
	lot.EndTime = lot.EndTime.Add(delta)
	return next, nil
}

// CancelBid resets a lot to its opening state: bid 1, the nominator as high
// bidder, passes cleared. No bid history is restored; the log on the lot is
// informational only.
func CancelBid(a *models.Auction, actingID uuid.UUID, itemID string) (*models.Auction, *Error) {
	if err := requireCommissioner(a, actingID); err != nil {
		return nil, err
	}
	if a.Lot(itemID) == nil {
		return nil, NewError(CodeLotNotFound, "no active lot for item %s", itemID)
	}
	next := a.Clone()
	lot := next.Lot(itemID)
	lot.CurrentBid = 1
	lot.CurrentBidder = lot.NominatedBy
	lot.Passes = nil
	return next, nil
}

// RemoveItem deletes a lot and returns its item to the available pool.
func RemoveItem(a *models.Auction, actingID uuid.UUID, itemID string) (*models.Auction, *Error) {
	if err := requireCommissioner(a, actingID); err != nil {
		return nil, err
	}
	if a.Lot(itemID) == nil {
		return nil, NewError(CodeLotNotFound, "no active lot for item %s", itemID)
	}
	next := a.Clone()
	for i := range next.LotsUp {
		if next.LotsUp[i].ItemID != itemID {
			continue
		}
		lot := next.LotsUp[i]
		next.AvailableItems = append(next.AvailableItems, models.Item{
			ID:       lot.ItemID,
			Name:     lot.ItemName,
			Category: lot.Category,
			Team:     lot.Team,
		})
		next.LotsUp = append(next.LotsUp[:i], next.LotsUp[i+1:]...)
		break
	}
	return next, nil
}

func requireCommissioner(a *models.Auction, actingID uuid.UUID) *Error {
	if actingID != a.CommissionerID {
		return NewError(CodeNotAuthorized, "only the commissioner may perform this action")
	}
	return nil
}
