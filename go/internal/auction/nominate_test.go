package auction

import (
	"testing"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/mcdev12/gavel/go/internal/models"
)

func TestNominate_OpensLotAndAdvancesTurn(t *testing.T) {
	a, _, bidders := newTestAuction(t, 2)

	next, err := Nominate(a, bidders[0], uuid.Nil, "itemA", 5, testBase)
	assert.Nil(t, err)

	assert.Equal(t, 1, len(next.LotsUp))
	lot := next.Lot("itemA")
	check.Equal(t, 5, lot.CurrentBid)
	check.Equal(t, bidders[0], lot.CurrentBidder)
	check.Equal(t, bidders[0], lot.NominatedBy)
	check.Equal(t, models.LotStatusActive, lot.Status)
	check.Equal(t, testBase, lot.StartTime)
	check.Equal(t, testBase.Add(a.Settings.NominationDuration), lot.EndTime)
	assert.Equal(t, 1, len(lot.History))
	check.Equal(t, 5, lot.History[0].Amount)

	check.Equal(t, 1, next.CurrentNominationBidderIndex)
	check.Equal(t, 2, len(next.AvailableItems))
	check.Equal(t, (*models.Item)(nil), next.Item("itemA"))
}

func TestNominate_RotationWrapsAround(t *testing.T) {
	a, _, bidders := newTestAuction(t, 4)
	a.Settings.SimultaneousNominations = 4

	items := []string{"itemA", "itemB", "itemC"}
	for i, item := range items {
		next, err := Nominate(a, bidders[i], uuid.Nil, item, 1, testBase)
		assert.Nil(t, err)
		check.Equal(t, i+1, next.CurrentNominationBidderIndex)
		a = next
	}

	// Fourth nomination wraps the cursor back to zero.
	a.AvailableItems = append(a.AvailableItems, models.Item{ID: "itemD", Name: "Item D"})
	next, err := Nominate(a, bidders[3], uuid.Nil, "itemD", 1, testBase)
	assert.Nil(t, err)
	check.Equal(t, 0, next.CurrentNominationBidderIndex)
}

func TestNominate_OutOfTurnRejected(t *testing.T) {
	a, _, bidders := newTestAuction(t, 3)

	_, err := Nominate(a, bidders[1], uuid.Nil, "itemA", 1, testBase)
	assert.NotNil(t, err)
	check.Equal(t, CodeNotYourTurn, err.Code)
}

func TestNominate_CommissionerOnBehalfDoesNotAdvance(t *testing.T) {
	a, commissioner, bidders := newTestAuction(t, 3)

	next, err := Nominate(a, commissioner, bidders[2], "itemA", 3, testBase)
	assert.Nil(t, err)
	lot := next.Lot("itemA")
	check.Equal(t, bidders[2], lot.NominatedBy)
	check.Equal(t, bidders[2], lot.CurrentBidder)
	check.Equal(t, 0, next.CurrentNominationBidderIndex)
}

func TestNominate_CommissionerMustNameBidder(t *testing.T) {
	a, commissioner, _ := newTestAuction(t, 2)

	// The commissioner is not a bidder; without on_behalf_of there is nobody
	// to hold the opening bid.
	_, err := Nominate(a, commissioner, uuid.Nil, "itemA", 1, testBase)
	assert.NotNil(t, err)
	check.Equal(t, CodeBidderNotFound, err.Code)
}

func TestNominate_UnknownItem(t *testing.T) {
	a, _, bidders := newTestAuction(t, 2)
	_, err := Nominate(a, bidders[0], uuid.Nil, "itemZ", 1, testBase)
	assert.NotNil(t, err)
	check.Equal(t, CodeItemNotFound, err.Code)
}

func TestNominate_SimultaneousLimit(t *testing.T) {
	a, _, bidders := newTestAuction(t, 2)

	a1, err := Nominate(a, bidders[0], uuid.Nil, "itemA", 1, testBase)
	assert.Nil(t, err)

	// Default settings allow one lot at a time.
	_, err = Nominate(a1, bidders[1], uuid.Nil, "itemB", 1, testBase)
	assert.NotNil(t, err)
	check.Equal(t, CodeSimultaneousLimitReached, err.Code)
}

func TestNominate_ItemAlreadyUp(t *testing.T) {
	a, _, bidders := newTestAuction(t, 2)
	a.Settings.SimultaneousNominations = 2

	a1, err := Nominate(a, bidders[0], uuid.Nil, "itemA", 1, testBase)
	assert.Nil(t, err)

	// Force the item back into the pool while its lot is still up.
	a1.AvailableItems = append(a1.AvailableItems, models.Item{ID: "itemA", Name: "Item A"})
	_, err = Nominate(a1, bidders[1], uuid.Nil, "itemA", 1, testBase)
	assert.NotNil(t, err)
	check.Equal(t, CodeAlreadyUp, err.Code)
}

func TestNominate_StartingBidFloorsAtOne(t *testing.T) {
	a, _, bidders := newTestAuction(t, 2)
	next, err := Nominate(a, bidders[0], uuid.Nil, "itemA", 0, testBase)
	assert.Nil(t, err)
	check.Equal(t, 1, next.Lot("itemA").CurrentBid)
}

func TestNominate_OpeningBidNeedsBudget(t *testing.T) {
	a, commissioner, bidders := newTestAuction(t, 2)
	next, err := UpdateBidderBudget(a, commissioner, bidders[0], 5)
	assert.Nil(t, err)

	// The nominator opens as high bidder, so the opening bid is checked like
	// any other.
	_, err = Nominate(next, bidders[0], uuid.Nil, "itemA", 50, testBase)
	assert.NotNil(t, err)
	check.Equal(t, CodeInsufficientBudget, err.Code)

	ok, err := Nominate(next, bidders[0], uuid.Nil, "itemA", 5, testBase)
	assert.Nil(t, err)
	check.Equal(t, 5, ok.Lot("itemA").CurrentBid)
}

func TestNominate_RequiresActiveAuction(t *testing.T) {
	a, commissioner, bidders := newTestAuction(t, 2)
	paused, err := Pause(a, commissioner)
	assert.Nil(t, err)

	_, err = Nominate(paused, bidders[0], uuid.Nil, "itemA", 1, testBase)
	assert.NotNil(t, err)
	check.Equal(t, CodeAuctionNotActive, err.Code)
}
