package core

import (
	"context"

	"github.com/hupe1980/agentlaunch/logging"
)

// Invocation carries the per-query execution scope passed to an Agent's Run
// method. It aggregates:
//   - Identifiers (InvocationID, UserID, SessionID)
//   - The user message that triggered the run
//   - A snapshot of prior conversation events for context
//   - The emission channel events flow through
//
// Agents emit through Emit (or the typed helpers) rather than writing to the
// channel directly so cancellation is always respected.
type Invocation struct {
	InvocationID string
	UserID       string
	SessionID    string
	Message      string
	History      []Event
	Events       chan<- Event

	logger logging.Logger
}

// NewInvocation constructs an Invocation. A nil logger is substituted with the
// no-op logger so agents can log unconditionally.
func NewInvocation(invocationID, userID, sessionID, message string, history []Event, events chan<- Event, logger logging.Logger) *Invocation {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Invocation{
		InvocationID: invocationID,
		UserID:       userID,
		SessionID:    sessionID,
		Message:      message,
		History:      history,
		Events:       events,
		logger:       logger,
	}
}

// Logger returns the logger scoped to this invocation.
func (inv *Invocation) Logger() logging.Logger { return inv.logger }

// Emit sends an event on the invocation channel, stamping the invocation ID
// if the event does not carry one. It returns the context error if the run
// was cancelled before the event could be delivered.
func (inv *Invocation) Emit(ctx context.Context, ev Event) error {
	if ev.InvocationID == "" {
		ev.InvocationID = inv.InvocationID
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case inv.Events <- ev:
		return nil
	}
}

// EmitMessage emits a complete text message authored by 'author'.
func (inv *Invocation) EmitMessage(ctx context.Context, author, text string) error {
	return inv.Emit(ctx, NewMessageEvent(author, text))
}

// EmitPartial emits a streaming fragment authored by 'author'.
func (inv *Invocation) EmitPartial(ctx context.Context, author, fragment string) error {
	return inv.Emit(ctx, NewPartialEvent(author, fragment))
}

// EmitControl emits a content-free marker event authored by 'author'.
func (inv *Invocation) EmitControl(ctx context.Context, author string) error {
	return inv.Emit(ctx, NewControlEvent(author))
}
