// Package contextmgr maintains the per-conversation context bag. Merging is
// shallow and last-write-wins; the manager never interprets values beyond
// treating them as opaque entries.
package contextmgr

import (
	"sync"

	"codedesk/internal/logging"
	"codedesk/internal/types"
)

// Manager stores one context bag per conversation id.
type Manager struct {
	mu   sync.RWMutex
	bags map[string]types.Context
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{bags: make(map[string]types.Context)}
}

// Get returns a copy of the conversation's bag. Unknown ids yield an empty
// bag rather than an error; a context always exists conceptually.
func (m *Manager) Get(conversationID string) types.Context {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bags[conversationID].Clone()
}

// Update shallow-merges fragment onto the stored bag and returns a copy of
// the merged result. Merging the same fragment twice is a no-op the second
// time.
func (m *Manager) Update(conversationID string, fragment types.Context) types.Context {
	if len(fragment) == 0 {
		return m.Get(conversationID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	merged := m.bags[conversationID].Merge(fragment)
	m.bags[conversationID] = merged
	logging.Get(logging.CategoryContext).Debug("context %s updated, %d keys", conversationID, len(merged))
	return merged.Clone()
}

// Replace swaps the stored bag wholesale. Used by the context PUT surface.
func (m *Manager) Replace(conversationID string, bag types.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bags[conversationID] = bag.Clone()
	logging.Get(logging.CategoryContext).Debug("context %s replaced, %d keys", conversationID, len(bag))
}

// Drop removes a conversation's bag.
func (m *Manager) Drop(conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bags, conversationID)
}

// Count reports how many bags exist.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bags)
}
