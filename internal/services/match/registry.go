package match

import (
	"sync"

	"github.com/mcoot/triviaduel/internal/model"
)

// Registry tracks which match, if any, each connected player belongs to
type Registry struct {
	mu       sync.RWMutex
	byPlayer map[model.PlayerID]model.GameID
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{byPlayer: make(map[model.PlayerID]model.GameID)}
}

// Associate records that playerID belongs to gameID, replacing any previous association
func (r *Registry) Associate(playerID model.PlayerID, gameID model.GameID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byPlayer[playerID] = gameID
}

// Dissociate clears playerID's association, but only if it still points at gameID
func (r *Registry) Dissociate(playerID model.PlayerID, gameID model.GameID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byPlayer[playerID] == gameID {
		delete(r.byPlayer, playerID)
	}
}

// MatchOf returns the match playerID belongs to
func (r *Registry) MatchOf(playerID model.PlayerID) (model.GameID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gameID, ok := r.byPlayer[playerID]
	return gameID, ok
}

// Count returns the number of players currently in a match
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byPlayer)
}
