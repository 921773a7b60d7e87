package gateway

import (
	"testing"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/mcdev12/gavel/go/internal/auction"
)

// newLocalConnection builds a registered connection without a network socket,
// enough to exercise the send path.
func newLocalConnection(cm *ConnectionManager, auctionID uuid.UUID) *Connection {
	return &Connection{
		ID:        uuid.New().String(),
		AuctionID: auctionID,
		Send:      make(chan []byte, 4),
		Manager:   cm,
		audience:  auction.Observer(),
	}
}

func TestSendBytes_DeliversWhileOpen(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	conn := newLocalConnection(cm, uuid.New())
	cm.register(conn)

	conn.SendBytes([]byte("frame"))
	check.Equal(t, "frame", string(<-conn.Send))
}

func TestSendBytes_AfterDisconnectIsDropped(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	auctionID := uuid.New()
	conn := newLocalConnection(cm, auctionID)
	cm.register(conn)

	// A broadcast snapshots the pool before the disconnect lands.
	conns := cm.Connections(auctionID)
	assert.Equal(t, 1, len(conns))

	cm.unregister(conn)

	// The late frame must be dropped, not crash the broadcaster.
	for _, c := range conns {
		c.SendBytes([]byte("frame"))
	}
	total, _ := cm.Stats()
	check.Equal(t, 0, total)
}

func TestUnregisterTwiceIsSafe(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	conn := newLocalConnection(cm, uuid.New())
	cm.register(conn)
	cm.unregister(conn)
	cm.unregister(conn)

	_, ok := <-conn.Send
	check.False(t, ok)
}
