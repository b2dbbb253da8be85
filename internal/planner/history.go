package planner

import (
	"fmt"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// DefaultHistoryCapacity is how many completed session ids are remembered.
const DefaultHistoryCapacity = 10

// History is a bounded FIFO of recently finished session ids. Lookups do not
// refresh an entry, so the oldest completion is always evicted first.
type History struct {
	ids *simplelru.LRU[string, struct{}]
}

// NewHistory returns a history holding at most capacity ids.
func NewHistory(capacity int) (*History, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("history capacity must be positive, got %d", capacity)
	}
	ids, err := simplelru.NewLRU[string, struct{}](capacity, nil)
	if err != nil {
		return nil, err
	}
	return &History{ids: ids}, nil
}

// Add records sessionID as finished, evicting the oldest entry when full. It
// reports whether an entry was evicted.
func (h *History) Add(sessionID string) (evicted bool) {
	return h.ids.Add(sessionID, struct{}{})
}

// Contains reports whether sessionID finished recently.
func (h *History) Contains(sessionID string) bool {
	return h.ids.Contains(sessionID)
}

// Len returns the number of remembered ids.
func (h *History) Len() int { return h.ids.Len() }

// IDs returns the remembered ids, oldest first.
func (h *History) IDs() []string { return h.ids.Keys() }
