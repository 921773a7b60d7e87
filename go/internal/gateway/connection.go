package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/internal/auction"
)

// ConnectionManager manages WebSocket connections grouped by auction.
type ConnectionManager struct {
	auctionConnections map[uuid.UUID]map[*Connection]bool
	mu                 sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	// onEmpty is called when an auction loses its last connection.
	onEmpty func(auctionID uuid.UUID)
}

// Connection represents one WebSocket client. Audience is settled by the JOIN
// command; until then the connection is an observer.
type Connection struct {
	ID        string
	AuctionID uuid.UUID
	Conn      *websocket.Conn
	Send      chan []byte
	Manager   *ConnectionManager

	mu       sync.RWMutex
	audience auction.Audience
	joined   bool

	// sendMu guards Send against a broadcast racing a disconnect: a frame
	// queued after sendClosed flips is dropped instead of hitting a closed
	// channel.
	sendMu     sync.Mutex
	sendClosed bool

	ConnectedAt time.Time
	LastPing    time.Time

	// onMessage handles a raw client frame; set by the service at upgrade.
	onMessage func(c *Connection, message []byte)
}

// ConnectionConfig holds configuration for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		auctionConnections: make(map[uuid.UUID]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
	}
}

// SetOnEmpty registers the callback fired when an auction's pool drains.
func (cm *ConnectionManager) SetOnEmpty(fn func(auctionID uuid.UUID)) {
	cm.onEmpty = fn
}

// Upgrade upgrades an HTTP request to a WebSocket connection and registers it.
func (cm *ConnectionManager) Upgrade(w http.ResponseWriter, r *http.Request, auctionID uuid.UUID, onMessage func(c *Connection, message []byte)) (*Connection, error) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		AuctionID:   auctionID,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		audience:    auction.Observer(),
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
		onMessage:   onMessage,
	}

	cm.register(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("auction_id", auctionID.String()).
		Msg("WebSocket connection established")

	return connection, nil
}

// Audience returns the connection's current audience.
func (c *Connection) Audience() auction.Audience {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.audience
}

// Joined reports whether the connection has completed a JOIN.
func (c *Connection) Joined() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.joined
}

// SetAudience records the audience settled by a JOIN command.
func (c *Connection) SetAudience(aud auction.Audience) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.audience = aud
	c.joined = true
}

func (cm *ConnectionManager) register(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.auctionConnections[conn.AuctionID] == nil {
		cm.auctionConnections[conn.AuctionID] = make(map[*Connection]bool)
	}
	cm.auctionConnections[conn.AuctionID][conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Str("auction_id", conn.AuctionID.String()).
		Int("total_connections", len(cm.auctionConnections[conn.AuctionID])).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregister(conn *Connection) {
	var drained bool

	cm.mu.Lock()
	if connections, exists := cm.auctionConnections[conn.AuctionID]; exists {
		if _, exists := connections[conn]; exists {
			delete(connections, conn)
			conn.closeSend()
			if len(connections) == 0 {
				delete(cm.auctionConnections, conn.AuctionID)
				drained = true
			}
			log.Info().
				Str("connection_id", conn.ID).
				Str("auction_id", conn.AuctionID.String()).
				Msg("connection unregistered")
		}
	}
	cm.mu.Unlock()

	if drained && cm.onEmpty != nil {
		cm.onEmpty(conn.AuctionID)
	}
}

// Connections returns a snapshot of the connections for one auction.
func (cm *ConnectionManager) Connections(auctionID uuid.UUID) []*Connection {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	pool := cm.auctionConnections[auctionID]
	out := make([]*Connection, 0, len(pool))
	for conn := range pool {
		out = append(out, conn)
	}
	return out
}

// SendBytes queues a frame for delivery. A frame for an already-closed
// connection is dropped; a full buffer evicts the slow consumer.
func (c *Connection) SendBytes(message []byte) {
	c.sendMu.Lock()
	if c.sendClosed {
		c.sendMu.Unlock()
		return
	}
	select {
	case c.Send <- message:
		c.sendMu.Unlock()
		return
	default:
	}
	c.sendClosed = true
	close(c.Send)
	c.sendMu.Unlock()

	log.Warn().
		Str("connection_id", c.ID).
		Msg("connection send buffer full, closing connection")
	c.Manager.unregister(c)
	c.Conn.Close()
}

// closeSend closes the send channel exactly once so writePump drains and
// exits, while any in-flight broadcast falls through to the dropped-frame
// path.
func (c *Connection) closeSend() {
	c.sendMu.Lock()
	if !c.sendClosed {
		c.sendClosed = true
		close(c.Send)
	}
	c.sendMu.Unlock()
}

// Stats returns connection counts per auction.
func (cm *ConnectionManager) Stats() (total int, auctions int) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	for _, pool := range cm.auctionConnections {
		total += len(pool)
	}
	return total, len(cm.auctionConnections)
}

// CloseAll tears down every connection, e.g. on shutdown.
func (cm *ConnectionManager) CloseAll(ctx context.Context) {
	cm.mu.Lock()
	pools := cm.auctionConnections
	cm.auctionConnections = make(map[uuid.UUID]map[*Connection]bool)
	cm.mu.Unlock()

	for _, pool := range pools {
		for conn := range pool {
			conn.closeSend()
			conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			conn.Conn.Close()
		}
	}
}

// writePump handles sending messages to the WebSocket connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregister(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump handles reading messages from the WebSocket connection.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}
		c.onMessage(c, message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
