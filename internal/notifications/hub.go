package notifications

import (
	"context"
	"errors"
	"sync"

	"socialapp/internal/middleware"
	"socialapp/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const hubName = "notifications"

var (
	// ErrServerFull is returned when the global connection limit is reached.
	ErrServerFull = errors.New("server connection limit reached")
	// ErrUserLimit is returned when a user already has the maximum number of sockets.
	ErrUserLimit = errors.New("user connection limit reached")
)

// HubConfig sets connection limits. Zero values fall back to defaults.
type HubConfig struct {
	MaxConnsPerUser int
	MaxTotalConns   int
}

// Hub maps user ids to their open notification sockets.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	perUser    int
	maxTotal   int
	closed     bool
}

// NewHub creates an empty Hub.
func NewHub(cfg HubConfig) *Hub {
	if cfg.MaxConnsPerUser <= 0 {
		cfg.MaxConnsPerUser = 5
	}
	if cfg.MaxTotalConns <= 0 {
		cfg.MaxTotalConns = 10000
	}
	return &Hub{
		conns:    make(map[uint]map[*Client]struct{}),
		perUser:  cfg.MaxConnsPerUser,
		maxTotal: cfg.MaxTotalConns,
	}
}

// Register adds a connection for userID, enforcing per-user and global limits.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || h.totalConns >= h.maxTotal {
		return nil, ErrServerFull
	}
	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= h.perUser {
		return nil, ErrUserLimit
	}

	client := newClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	observability.ActiveWebSockets.Inc()
	middleware.Logger.Debug("notification socket registered",
		"user_id", userID, "conn_id", client.ConnID, "user_conns", len(m))
	return client, nil
}

// UnregisterClient removes client and closes its send channel. Safe to call twice.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	close(client.Send)
	h.totalConns--
	observability.ActiveWebSockets.Dec()
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
}

// Broadcast sends message to every connection of userID.
func (h *Hub) Broadcast(userID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for c := range h.conns[userID] {
		c.TrySend(data)
	}
}

// BroadcastAll sends message to every connected client.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// IsOnline reports whether userID has at least one open socket on this instance.
func (h *Hub) IsOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID]) > 0
}

// ConnectionCount returns the number of open sockets on this instance.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}

// StartWiring subscribes to the notifier's channels and fans messages out to local sockets.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		if channel == BroadcastChannel {
			h.BroadcastAll(payload)
			return
		}
		userID, ok := ParseUserChannel(channel)
		if !ok {
			middleware.Logger.Warn("invalid notification channel", "channel", channel)
			return
		}
		h.Broadcast(userID, payload)
	})
}

// Shutdown closes every client's send queue, which makes its write pump send a
// close frame, and refuses new registrations.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for _, clients := range h.conns {
		for client := range clients {
			close(client.Send)
			observability.ActiveWebSockets.Dec()
		}
	}
	middleware.Logger.Info("notification hub stopped", "connections", h.totalConns)
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
