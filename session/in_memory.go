package session

import (
	"context"
	"sync"

	"github.com/hupe1980/agentlaunch/core"
)

// InMemoryStore is a volatile SessionStore implementation storing sessions in
// a process local map. It is safe for concurrent access and best suited for
// local smoke tests and demos. Each returned session is cloned to prevent
// external mutation of internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.Session)}
}

// Create allocates a session with the given id owned by userID. An empty id
// gets a fresh unique one. Creating over an existing id replaces it.
func (s *InMemoryStore) Create(ctx context.Context, id, userID string) (*core.Session, error) {
	if id == "" {
		id = core.NewID()
	}
	sess := core.NewSession(id, userID)
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	return sess.Clone(), nil
}

// Get returns a clone of an existing session, or core.ErrSessionNotFound.
func (s *InMemoryStore) Get(ctx context.Context, id string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

// AppendEvent adds an event to the history of an existing session.
func (s *InMemoryStore) AppendEvent(ctx context.Context, sessionID string, ev core.Event) error {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return core.ErrSessionNotFound
	}
	sess.AddEvent(ev)
	return nil
}

// List returns clones of all sessions owned by userID.
func (s *InMemoryStore) List(ctx context.Context, userID string) ([]*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*core.Session
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, sess.Clone())
		}
	}
	return out, nil
}

// Delete removes a session. Deleting an unknown id is a no-op.
func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
