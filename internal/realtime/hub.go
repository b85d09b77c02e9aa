package realtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mcoot/triviaduel/internal/metrics"
	"github.com/mcoot/triviaduel/internal/model"
	"github.com/mcoot/triviaduel/internal/notify"
)

// Encoder turns an outbound event into a websocket frame
type Encoder func(event model.Event) ([]byte, error)

// Hub is the set of players receiving one match's broadcasts
type Hub struct {
	gameID  model.GameID
	members map[model.PlayerID]bool
}

func newHub(gameID model.GameID) *Hub {
	return &Hub{
		gameID:  gameID,
		members: make(map[model.PlayerID]bool),
	}
}

// HubManager tracks live connections and per-match hubs. It implements
// notify.Notifier: every call encodes once and queues the frame on each
// recipient without blocking. A recipient whose buffer is full is
// disconnected so it never silently misses a state change.
type HubManager struct {
	mu      sync.RWMutex
	hubs    map[model.GameID]*Hub
	clients map[model.PlayerID]*Client
	encode  Encoder
	logger  *slog.Logger

	// sessions counts connections whose departure handling has not finished
	sessions sync.WaitGroup
	closing  bool
}

// Ensure HubManager implements Notifier
var _ notify.Notifier = (*HubManager)(nil)

// NewHubManager creates a new HubManager
func NewHubManager(encode Encoder, logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:    make(map[model.GameID]*Hub),
		clients: make(map[model.PlayerID]*Client),
		encode:  encode,
		logger:  logger.With(slog.String("component", "realtime")),
	}
}

// Register makes a connected client addressable by its player id
func (m *HubManager) Register(c *Client) {
	m.mu.Lock()
	m.clients[c.id] = c
	count := len(m.clients)
	m.mu.Unlock()

	metrics.ConnectionOpened()
	m.logger.Info("client registered",
		slog.String("player_id", string(c.id)),
		slog.Int("total_clients", count))
}

// Unregister forgets a client and closes it
func (m *HubManager) Unregister(c *Client) {
	m.mu.Lock()
	current, ok := m.clients[c.id]
	if ok && current == c {
		delete(m.clients, c.id)
	}
	count := len(m.clients)
	m.mu.Unlock()

	c.Close()
	if !ok || current != c {
		return
	}
	metrics.ConnectionClosed()
	m.logger.Info("client unregistered",
		slog.String("player_id", string(c.id)),
		slog.Duration("connection_duration", c.ConnectedFor()),
		slog.Int("total_clients", count))
}

// Subscribe adds a player to a match's hub, creating the hub on first use
func (m *HubManager) Subscribe(gameID model.GameID, playerID model.PlayerID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hub, ok := m.hubs[gameID]
	if !ok {
		hub = newHub(gameID)
		m.hubs[gameID] = hub
	}
	hub.members[playerID] = true
}

// Unsubscribe removes a player from a match's hub. Empty hubs are dropped.
func (m *HubManager) Unsubscribe(gameID model.GameID, playerID model.PlayerID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hub, ok := m.hubs[gameID]
	if !ok {
		return
	}
	delete(hub.members, playerID)
	if len(hub.members) == 0 {
		delete(m.hubs, gameID)
	}
}

// Broadcast sends an event to every player subscribed to the match
func (m *HubManager) Broadcast(gameID model.GameID, event model.Event) {
	data, ok := m.encodeEvent(event)
	if !ok {
		return
	}

	m.mu.RLock()
	hub, found := m.hubs[gameID]
	var targets []*Client
	if found {
		targets = make([]*Client, 0, len(hub.members))
		for playerID := range hub.members {
			if c, ok := m.clients[playerID]; ok {
				targets = append(targets, c)
			}
		}
	}
	m.mu.RUnlock()

	for _, c := range targets {
		m.deliver(c, data, event.Type)
	}
}

// Send delivers an event to one player only
func (m *HubManager) Send(playerID model.PlayerID, event model.Event) {
	m.mu.RLock()
	c, ok := m.clients[playerID]
	m.mu.RUnlock()
	if !ok {
		return
	}

	data, ok := m.encodeEvent(event)
	if !ok {
		return
	}
	m.deliver(c, data, event.Type)
}

// Close drops a match's hub. Connections stay open.
func (m *HubManager) Close(gameID model.GameID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.hubs, gameID)
}

// BeginSession reserves a slot for a new connection. The returned func must
// be called once the connection and its departure handling are done. It
// reports false after Shutdown.
func (m *HubManager) BeginSession() (func(), bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closing {
		return nil, false
	}
	m.sessions.Add(1)
	return m.sessions.Done, true
}

// Wait blocks until every session has ended or ctx is done
func (m *HubManager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown refuses new sessions and closes every connection
func (m *HubManager) Shutdown() {
	m.mu.Lock()
	m.closing = true
	clients := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	m.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
	m.logger.Info("realtime shut down", slog.Int("disconnected_clients", len(clients)))
}

// HubCount returns the number of matches with at least one subscriber
func (m *HubManager) HubCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hubs)
}

// ClientCount returns the number of registered connections
func (m *HubManager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

func (m *HubManager) encodeEvent(event model.Event) ([]byte, bool) {
	data, err := m.encode(event)
	if err != nil {
		m.logger.Error("failed to encode event",
			slog.String("type", string(event.Type)),
			slog.String("game_id", string(event.GameID)),
			slog.Any("error", err))
		return nil, false
	}
	return data, true
}

func (m *HubManager) deliver(c *Client, data []byte, t model.EventType) {
	if c.enqueue(data) || c.closed() {
		return
	}
	m.logger.Warn("client buffer full, disconnecting",
		slog.String("player_id", string(c.id)),
		slog.String("type", string(t)))
	metrics.SlowClientDropped()
	c.Close()
}
