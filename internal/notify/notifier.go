package notify

import "github.com/mcoot/triviaduel/internal/model"

// Notifier delivers events to the connections taking part in a match
type Notifier interface {
	// Subscribe routes a match's broadcasts to the player's connection
	Subscribe(gameID model.GameID, playerID model.PlayerID)
	// Unsubscribe stops routing a match's broadcasts to the player
	Unsubscribe(gameID model.GameID, playerID model.PlayerID)
	// Broadcast sends event to every subscriber of the match, in call order
	Broadcast(gameID model.GameID, event model.Event)
	// Send delivers event to a single player's connection
	Send(playerID model.PlayerID, event model.Event)
	// Close drops all subscriptions for a match that no longer exists
	Close(gameID model.GameID)
}

// Nop discards every event
type Nop struct{}

var _ Notifier = Nop{}

func (Nop) Subscribe(model.GameID, model.PlayerID)   {}
func (Nop) Unsubscribe(model.GameID, model.PlayerID) {}
func (Nop) Broadcast(model.GameID, model.Event)      {}
func (Nop) Send(model.PlayerID, model.Event)         {}
func (Nop) Close(model.GameID)                       {}
