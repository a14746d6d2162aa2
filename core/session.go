package core

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSessionNotFound is returned by SessionStore implementations when the
// requested session does not exist.
var ErrSessionNotFound = errors.New("session not found")

// Session represents a conversational container tracking an ordered event
// history for one user. It is safe for concurrent access.
//
// Contract:
//   - AddEvent updates the Updated timestamp
//   - GetEvents returns a copy of the event slice
//   - History filters events to completed content-bearing turns and excludes
//     partial streaming fragments
//   - Clone performs deep copies of slices for safe divergence.
type Session struct {
	ID      string    `json:"id"`
	UserID  string    `json:"user_id"`
	Events  []Event   `json:"events"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
	mu      sync.RWMutex
}

// NewSession creates a new session with the given ID owned by userID.
func NewSession(id, userID string) *Session {
	now := time.Now()
	return &Session{ID: id, UserID: userID, Events: []Event{}, Created: now, Updated: now}
}

// AddEvent appends an event to the history updating the Updated timestamp.
func (s *Session) AddEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, ev)
	s.Updated = time.Now()
}

// GetEvents returns a copy of the full event slice.
func (s *Session) GetEvents() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]Event, len(s.Events))
	copy(events, s.Events)
	return events
}

// History returns filtered events suitable for providing conversational
// context to models (excludes partials and content-free control events).
func (s *Session) History() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Event, 0, len(s.Events))
	for _, ev := range s.Events {
		if !ev.HasContent() || ev.Partial {
			continue
		}
		res = append(res, ev)
	}
	return res
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{ID: s.ID, UserID: s.UserID, Events: make([]Event, len(s.Events)), Created: s.Created, Updated: s.Updated}
	copy(clone.Events, s.Events)
	return clone
}

// SessionStore persists sessions and their evolving event history.
type SessionStore interface {
	Create(ctx context.Context, id, userID string) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	AppendEvent(ctx context.Context, sessionID string, event Event) error
	List(ctx context.Context, userID string) ([]*Session, error)
	Delete(ctx context.Context, id string) error
}
