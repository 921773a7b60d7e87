package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/mcdev12/gavel/go/internal/auction"
	"github.com/mcdev12/gavel/go/internal/auction/store"
	"github.com/mcdev12/gavel/go/internal/engine"
	"github.com/mcdev12/gavel/go/internal/events"
	"github.com/mcdev12/gavel/go/internal/models"
	"github.com/mcdev12/gavel/go/internal/session"
)

func newTestService(t *testing.T) (*Service, *mux.Router) {
	t.Helper()
	st := store.NewMemoryStore()
	fc := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	eng := engine.NewManager(st, fc, events.NopPublisher{})
	t.Cleanup(eng.Shutdown)

	cm := NewConnectionManager(DefaultConnectionConfig())
	svc := NewService(cm, eng, session.NewMemoryStore())

	r := mux.NewRouter()
	svc.RegisterRoutes(r)
	return svc, r
}

func postJSON(t *testing.T, r *mux.Router, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	assert.Nil(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRESTSetupFlow(t *testing.T) {
	_, r := newTestService(t)
	commissioner := uuid.New()

	// Create.
	w := postJSON(t, r, "/api/auctions", createAuctionRequest{
		ItemSourceID:   "source-1",
		DisplayName:    "REST League",
		CommissionerID: commissioner,
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	var created models.Auction
	assert.Nil(t, json.Unmarshal(w.Body.Bytes(), &created))
	check.Equal(t, models.AuctionStatusSetup, created.Status)

	base := fmt.Sprintf("/api/auctions/%s", created.ID)

	// Register two bidders.
	b1, b2 := uuid.New(), uuid.New()
	for i, id := range []uuid.UUID{b1, b2} {
		w = postJSON(t, r, base+"/bidders", addBidderRequest{
			BidderID: id,
			Name:     fmt.Sprintf("Bidder %d", i+1),
		})
		assert.Equal(t, http.StatusNoContent, w.Code)
	}

	// Seed the item pool.
	w = postJSON(t, r, base+"/items", seedItemsRequest{
		ActingID: commissioner,
		Items:    []models.Item{{ID: "itemA", Name: "Item A"}},
	})
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Mint a session for a registered bidder.
	w = postJSON(t, r, base+"/sessions", createSessionRequest{BidderID: b1})
	assert.Equal(t, http.StatusCreated, w.Code)
	var sess map[string]string
	assert.Nil(t, json.Unmarshal(w.Body.Bytes(), &sess))
	check.NotEqual(t, "", sess["session_id"])

	// Start.
	w = postJSON(t, r, base+"/start", startRequest{ActingID: commissioner})
	assert.Equal(t, http.StatusNoContent, w.Code)

	// State read is observer-scoped.
	req := httptest.NewRequest(http.MethodGet, base+"/state", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	var view auction.View
	assert.Nil(t, json.Unmarshal(rec.Body.Bytes(), &view))
	check.Equal(t, models.AuctionStatusActive, view.Status)
	check.Equal(t, 2, len(view.Bidders))
	check.Equal(t, 1, len(view.AvailableItems))
}

func TestRESTStart_NonCommissionerForbidden(t *testing.T) {
	_, r := newTestService(t)
	commissioner := uuid.New()

	w := postJSON(t, r, "/api/auctions", createAuctionRequest{
		DisplayName:    "REST League",
		CommissionerID: commissioner,
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	var created models.Auction
	assert.Nil(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = postJSON(t, r, fmt.Sprintf("/api/auctions/%s/start", created.ID), startRequest{ActingID: uuid.New()})
	assert.Equal(t, http.StatusForbidden, w.Code)
	var payload ErrorPayload
	assert.Nil(t, json.Unmarshal(w.Body.Bytes(), &payload))
	check.Equal(t, auction.CodeNotAuthorized, payload.Code)
}

func TestRESTSession_UnknownBidderRejected(t *testing.T) {
	_, r := newTestService(t)
	commissioner := uuid.New()

	w := postJSON(t, r, "/api/auctions", createAuctionRequest{
		DisplayName:    "REST League",
		CommissionerID: commissioner,
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	var created models.Auction
	assert.Nil(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = postJSON(t, r, fmt.Sprintf("/api/auctions/%s/sessions", created.ID), createSessionRequest{BidderID: uuid.New()})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// The commissioner gets a session without being a bidder.
	w = postJSON(t, r, fmt.Sprintf("/api/auctions/%s/sessions", created.ID), createSessionRequest{BidderID: commissioner})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRESTState_UnknownAuction(t *testing.T) {
	_, r := newTestService(t)
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/auctions/%s/state", uuid.New()), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRESTCreate_MissingFields(t *testing.T) {
	_, r := newTestService(t)
	w := postJSON(t, r, "/api/auctions", createAuctionRequest{DisplayName: "No Commissioner"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
