package mocks

import (
	"sync"

	"github.com/mcoot/triviaduel/internal/model"
	"github.com/mcoot/triviaduel/internal/notify"
)

// Delivery is one event as seen by the recording notifier.
// Recipient is empty for broadcasts.
type Delivery struct {
	GameID    model.GameID
	Recipient model.PlayerID
	Event     model.Event
}

// RecordingNotifier records every event and resolves broadcasts to the
// players subscribed at the time of the call
type RecordingNotifier struct {
	mu            sync.Mutex
	Deliveries    []Delivery
	subscriptions map[model.GameID]map[model.PlayerID]bool
	inbox         map[model.PlayerID][]model.Event
}

// Ensure RecordingNotifier implements Notifier
var _ notify.Notifier = (*RecordingNotifier)(nil)

// NewRecordingNotifier creates an empty RecordingNotifier
func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{
		subscriptions: make(map[model.GameID]map[model.PlayerID]bool),
		inbox:         make(map[model.PlayerID][]model.Event),
	}
}

func (n *RecordingNotifier) Subscribe(gameID model.GameID, playerID model.PlayerID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subscriptions[gameID] == nil {
		n.subscriptions[gameID] = make(map[model.PlayerID]bool)
	}
	n.subscriptions[gameID][playerID] = true
}

func (n *RecordingNotifier) Unsubscribe(gameID model.GameID, playerID model.PlayerID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subscriptions[gameID], playerID)
}

func (n *RecordingNotifier) Broadcast(gameID model.GameID, event model.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Deliveries = append(n.Deliveries, Delivery{GameID: gameID, Event: event})
	for playerID := range n.subscriptions[gameID] {
		n.inbox[playerID] = append(n.inbox[playerID], event)
	}
}

func (n *RecordingNotifier) Send(playerID model.PlayerID, event model.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Deliveries = append(n.Deliveries, Delivery{GameID: event.GameID, Recipient: playerID, Event: event})
	n.inbox[playerID] = append(n.inbox[playerID], event)
}

func (n *RecordingNotifier) Close(gameID model.GameID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subscriptions, gameID)
}

// Received returns the events delivered to a player, in order
func (n *RecordingNotifier) Received(playerID model.PlayerID) []model.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]model.Event, len(n.inbox[playerID]))
	copy(out, n.inbox[playerID])
	return out
}

// ReceivedTypes returns the types of events delivered to a player, in order
func (n *RecordingNotifier) ReceivedTypes(playerID model.PlayerID) []model.EventType {
	events := n.Received(playerID)
	types := make([]model.EventType, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}

// LastOfType returns the most recent event of type t delivered to a player
func (n *RecordingNotifier) LastOfType(playerID model.PlayerID, t model.EventType) (model.Event, bool) {
	events := n.Received(playerID)
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == t {
			return events[i], true
		}
	}
	return model.Event{}, false
}

// Subscribed reports whether a player currently receives a match's broadcasts
func (n *RecordingNotifier) Subscribed(gameID model.GameID, playerID model.PlayerID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.subscriptions[gameID][playerID]
}

// Reset forgets all recorded events, keeping subscriptions
func (n *RecordingNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Deliveries = nil
	n.inbox = make(map[model.PlayerID][]model.Event)
}
