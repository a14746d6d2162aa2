package core

import (
	"time"

	"github.com/google/uuid"
)

// Event is the primary unit of communication between agents, the local app
// and remote deployments. After emission it should be treated as immutable.
// It captures:
//   - Correlation (ID, InvocationID, Author)
//   - Optional conversational content
//   - Streaming hints (Partial, Final)
//   - High precision UTC timestamp
//
// Content may be nil for control events that mark progress without carrying
// displayable text. A nil-content event still occupies its position in a
// stream; renderers skip it, counters do not. Timestamp uses a native
// time.Time (UTC). Use UnixSeconds if numeric forms are needed for metrics
// or legacy clients.
type Event struct {
	ID           string    `json:"id"`
	InvocationID string    `json:"invocation_id,omitempty"`
	Author       string    `json:"author"`
	Timestamp    time.Time `json:"timestamp"`
	Content      *string   `json:"content,omitempty"`
	Partial      bool      `json:"partial,omitempty"`
	Final        bool      `json:"final,omitempty"`
}

// NewEvent creates a bare event authored by 'author' bound to an invocation.
// The event carries no content; prefer the helper constructors for common
// semantic categories (message, partial fragment, control marker).
func NewEvent(invocationID, author string) Event {
	return Event{
		ID:           NewID(),
		InvocationID: invocationID,
		Author:       author,
		Timestamp:    time.Now().UTC(),
	}
}

// NewMessageEvent creates a complete agent-authored text message event.
func NewMessageEvent(author, message string) Event {
	e := NewEvent("", author)
	e.Content = &message
	e.Final = true
	return e
}

// NewPartialEvent creates a streaming fragment event. Fragments compose the
// in-progress turn and are followed by a final message event.
func NewPartialEvent(author, fragment string) Event {
	e := NewEvent("", author)
	e.Content = &fragment
	e.Partial = true
	return e
}

// NewUserMessageEvent creates a user-authored text message event.
func NewUserMessageEvent(invocationID, message string) Event {
	e := NewEvent(invocationID, "user")
	e.Content = &message
	return e
}

// NewControlEvent creates a content-free marker event. Control events signal
// progress (turn started, checkpoint reached) without displayable text.
func NewControlEvent(author string) Event {
	return NewEvent("", author)
}

// NewID generates a new unique identifier for events.
//
// This function creates a UUID-based unique identifier that can be used
// for event tracking and correlation throughout the framework.
//
// Returns a string representation of a new UUID.
func NewID() string { return uuid.NewString() }

// HasContent reports whether the event carries displayable text.
func (e Event) HasContent() bool { return e.Content != nil }

// Text returns the event content, or the empty string for content-free events.
func (e Event) Text() string {
	if e.Content == nil {
		return ""
	}
	return *e.Content
}

// IsFinalResponse reports whether this event completes an assistant turn.
func (e Event) IsFinalResponse() bool { return e.Final && !e.Partial }

// UnixSeconds returns the timestamp as fractional seconds since Unix epoch.
// Useful for metrics & numeric serialization paths.
func (e Event) UnixSeconds() float64 { return float64(e.Timestamp.UnixNano()) / 1e9 }
