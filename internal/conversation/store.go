// Package conversation owns chat continuity: an in-memory store of
// append-only conversations plus an optional best-effort sqlite transcript
// archive. The in-memory store is authoritative; archive failures never
// surface to callers.
package conversation

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"codedesk/internal/logging"
	"codedesk/internal/types"
)

// entry pairs a conversation with its own lock. The per-entry lock is what
// serializes workflow processing for one conversation id while leaving other
// conversations free to proceed.
type entry struct {
	mu   sync.Mutex
	conv *types.Conversation
}

// Store is the in-memory conversation registry.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	archive *Archive
}

// NewStore creates an empty store. archive may be nil.
func NewStore(archive *Archive) *Store {
	return &Store{
		entries: make(map[string]*entry),
		archive: archive,
	}
}

// Create registers a new conversation. An empty id gets a generated one.
// Creating an id that already exists returns the existing conversation.
func (s *Store) Create(id string) *types.Conversation {
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		now := time.Now()
		e = &entry{conv: &types.Conversation{
			ID:        id,
			CreatedAt: now,
			UpdatedAt: now,
		}}
		s.entries[id] = e
		logging.Conversation("created conversation %s", id)
	}
	s.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	return copyConversation(e.conv)
}

// Get returns a copy of the conversation, or a NotFound error.
func (s *Store) Get(id string) (*types.Conversation, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, types.NewError(types.ErrCodeNotFound, "", "conversation %s not found", id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return copyConversation(e.conv), nil
}

// List returns all conversation ids, most recently updated first.
func (s *Store) List() []string {
	s.mu.RLock()
	type stamped struct {
		id string
		at time.Time
	}
	all := make([]stamped, 0, len(s.entries))
	for id, e := range s.entries {
		all = append(all, stamped{id: id, at: e.conv.UpdatedAt})
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].at.After(all[j].at) })
	ids := make([]string, len(all))
	for i, st := range all {
		ids[i] = st.id
	}
	return ids
}

// WithLock runs fn while holding the conversation's lock, creating the
// conversation if needed. fn receives the live conversation and may append
// turns through the provided append func; direct turn mutation is not
// allowed. This is the serialization point for concurrent workflow calls on
// the same id.
func (s *Store) WithLock(id string, fn func(conv *types.Conversation, appendTurns func(...types.Turn)) error) error {
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		now := time.Now()
		e = &entry{conv: &types.Conversation{ID: id, CreatedAt: now, UpdatedAt: now}}
		s.entries[id] = e
		logging.Conversation("auto-created conversation %s", id)
	}
	s.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	var added []types.Turn
	appendTurns := func(turns ...types.Turn) {
		for i := range turns {
			if turns[i].Timestamp.IsZero() {
				turns[i].Timestamp = time.Now()
			}
		}
		added = append(added, turns...)
	}

	err := fn(e.conv, appendTurns)
	if err != nil {
		// A failed workflow appends nothing.
		return err
	}

	if len(added) > 0 {
		e.conv.Turns = append(e.conv.Turns, added...)
		e.conv.UpdatedAt = time.Now()
		if s.archive != nil {
			s.archive.RecordTurns(e.conv.ID, added)
		}
	}
	return nil
}

// Count reports how many conversations the store holds.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func copyConversation(c *types.Conversation) *types.Conversation {
	out := &types.Conversation{
		ID:        c.ID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	out.Turns = append([]types.Turn(nil), c.Turns...)
	return out
}
