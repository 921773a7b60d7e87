package auction

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/mcdev12/gavel/go/internal/models"
)

func TestCompleteLot_SettlesWinner(t *testing.T) {
	a, _, bidders := newTestAuction(t, 2)
	a = withLot(t, a, bidders[0], 5)
	a1, err := PlaceBid(a, bidders[1], "itemA", 10, testBase)
	assert.Nil(t, err)

	done, err := CompleteLot(a1, "itemA", testBase.Add(time.Minute))
	assert.Nil(t, err)

	check.Equal(t, 0, len(done.LotsUp))
	assert.Equal(t, 1, len(done.CompletedLots))
	check.Equal(t, 10, done.CompletedLots[0].FinalBid)
	check.Equal(t, bidders[1], done.CompletedLots[0].Winner)
	check.Equal(t, models.LotStatusCompleted, done.CompletedLots[0].Status)

	winner := done.Bidder(bidders[1])
	check.Equal(t, 190, winner.Budget)
	check.Equal(t, []string{"itemA"}, winner.WonItems)
	// The loser's budget is untouched.
	check.Equal(t, 200, done.Bidder(bidders[0]).Budget)
}

func TestCompleteLot_NoWinningBid(t *testing.T) {
	a, _, bidders := newTestAuction(t, 2)
	a = withLot(t, a, bidders[0], 5)
	a.Lot("itemA").CurrentBidder = uuid.Nil

	_, err := CompleteLot(a, "itemA", testBase)
	assert.NotNil(t, err)
	check.Equal(t, CodeNoWinningBid, err.Code)
}

func TestCompleteLot_NeverOverdrawsBudget(t *testing.T) {
	a, _, bidders := newTestAuction(t, 2)
	a = withLot(t, a, bidders[0], 5)
	// Corrupt the lot so the winning bid exceeds the winner's budget.
	a.Lot("itemA").CurrentBid = 500

	_, err := CompleteLot(a, "itemA", testBase.Add(time.Minute))
	assert.NotNil(t, err)
	check.Equal(t, CodeInsufficientBudget, err.Code)

	// The expiry sweep leaves the lot in place instead of going negative.
	now := a.Lot("itemA").EndTime.Add(time.Second)
	same, completed, err := ExpireDue(a, now)
	assert.Nil(t, err)
	check.True(t, same == a)
	check.Equal(t, 0, len(completed))
	check.Equal(t, 200, a.Bidder(bidders[0]).Budget)
}

func TestExpireDue_SettlesPastDeadline(t *testing.T) {
	a, _, bidders := newTestAuction(t, 2)
	a = withLot(t, a, bidders[0], 5)
	a1, err := PlaceBid(a, bidders[1], "itemA", 10, testBase)
	assert.Nil(t, err)

	deadline := a1.Lot("itemA").EndTime

	// Before the deadline nothing settles.
	same, completed, err := ExpireDue(a1, deadline)
	assert.Nil(t, err)
	check.True(t, same == a1)
	check.Equal(t, 0, len(completed))

	next, completed, err := ExpireDue(a1, deadline.Add(time.Second))
	assert.Nil(t, err)
	check.Equal(t, []string{"itemA"}, completed)
	check.Equal(t, 190, next.Bidder(bidders[1]).Budget)
	check.Equal(t, []string{"itemA"}, next.Bidder(bidders[1]).WonItems)
}

func TestExpireDue_Idempotent(t *testing.T) {
	a, _, bidders := newTestAuction(t, 2)
	a = withLot(t, a, bidders[0], 5)

	now := a.Lot("itemA").EndTime.Add(time.Second)
	once, completed, err := ExpireDue(a, now)
	assert.Nil(t, err)
	check.Equal(t, 1, len(completed))

	twice, completed, err := ExpireDue(once, now)
	assert.Nil(t, err)
	check.True(t, twice == once)
	check.Equal(t, 0, len(completed))

	b1, jerr := json.Marshal(once)
	assert.Nil(t, jerr)
	b2, jerr := json.Marshal(twice)
	assert.Nil(t, jerr)
	check.Equal(t, string(b1), string(b2))
}

func TestExpireDue_SkipsLotWithoutWinner(t *testing.T) {
	a, _, bidders := newTestAuction(t, 2)
	a.Settings.SimultaneousNominations = 2
	a = withLot(t, a, bidders[0], 5)
	a1, err := Nominate(a, bidders[1], uuid.Nil, "itemB", 3, testBase)
	assert.Nil(t, err)

	// Simulate a lot whose winner can't be resolved.
	a1.Lot("itemA").CurrentBidder = uuid.Nil

	now := testBase.Add(a1.Settings.NominationDuration + time.Second)
	next, completed, aerr := ExpireDue(a1, now)
	assert.Nil(t, aerr)
	check.Equal(t, []string{"itemB"}, completed)
	// The winnerless lot stays up for the commissioner to resolve.
	check.NotEqual(t, (*models.Lot)(nil), next.Lot("itemA"))
}

func TestExpireDue_CompletesAuctionWhenPoolExhausted(t *testing.T) {
	commissioner := uuid.New()
	a := NewAuction("source-1", "Finale", commissioner, testBase)
	b1, b2 := uuid.New(), uuid.New()
	a1, err := AddBidder(a, b1, "Alice", "")
	assert.Nil(t, err)
	a2, err := AddBidder(a1, b2, "Bob", "")
	assert.Nil(t, err)
	a3, err := AddItems(a2, commissioner, []models.Item{{ID: "itemA", Name: "Item A"}})
	assert.Nil(t, err)
	a4, err := Start(a3)
	assert.Nil(t, err)
	a5, err := Nominate(a4, b1, uuid.Nil, "itemA", 5, testBase)
	assert.Nil(t, err)

	now := a5.Lot("itemA").EndTime.Add(time.Second)
	done, completed, err := ExpireDue(a5, now)
	assert.Nil(t, err)
	check.Equal(t, []string{"itemA"}, completed)
	check.Equal(t, models.AuctionStatusCompleted, done.Status)
}

// Full pass through a two-bidder auction: nominate, outbid, reject a low
// counter, let the clock run out, settle.
func TestAuctionLifecycleScenario(t *testing.T) {
	a, _, bidders := newTestAuction(t, 2)

	a1, err := Nominate(a, bidders[0], uuid.Nil, "itemA", 5, testBase)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(a1.LotsUp))
	check.Equal(t, 5, a1.Lot("itemA").CurrentBid)
	check.Equal(t, bidders[0], a1.Lot("itemA").CurrentBidder)
	check.Equal(t, 1, a1.CurrentNominationBidderIndex)

	a2, err := PlaceBid(a1, bidders[1], "itemA", 10, testBase.Add(time.Second))
	assert.Nil(t, err)
	check.Equal(t, 10, a2.Lot("itemA").CurrentBid)
	check.Equal(t, 0, len(a2.Lot("itemA").Passes))

	_, err = PlaceBid(a2, bidders[0], "itemA", 8, testBase.Add(2*time.Second))
	assert.NotNil(t, err)
	check.Equal(t, CodeBidTooLow, err.Code)

	now := a2.Lot("itemA").EndTime.Add(time.Second)
	final, completed, err := ExpireDue(a2, now)
	assert.Nil(t, err)
	check.Equal(t, []string{"itemA"}, completed)

	winner := final.Bidder(bidders[1])
	check.Equal(t, 190, winner.Budget)
	check.Equal(t, []string{"itemA"}, winner.WonItems)
	assert.Equal(t, 1, len(final.CompletedLots))
	check.Equal(t, 10, final.CompletedLots[0].FinalBid)
	check.Equal(t, bidders[1], final.CompletedLots[0].Winner)

	// Conservation: spent plus remaining equals the initial budget.
	spent := 0
	for _, c := range final.CompletedLots {
		if c.Winner == bidders[1] {
			spent += c.FinalBid
		}
	}
	check.Equal(t, winner.InitialBudget, winner.Budget+spent)
}
