package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/agentlaunch/core"
	"github.com/hupe1980/agentlaunch/logging"
	"github.com/hupe1980/agentlaunch/memory"
	"github.com/hupe1980/agentlaunch/session"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// SessionStore persists conversation history across queries.
	SessionStore core.SessionStore
	// MemoryStore receives completed responses for later recall.
	MemoryStore core.MemoryStore
	// Logger receives diagnostic output.
	Logger logging.Logger
	// EventBufferSize sets channel buffering for streamed events.
	EventBufferSize int
}

// App packages an agent for execution. Locally it serves queries in-process
// through StreamQuery; handed to a deployment client it describes the agent
// to run remotely. The same App value works for both, so an agent can be
// smoke-tested before deployment with identical semantics.
//
// Public methods are safe for concurrent use.
type App struct {
	agent core.Agent

	sessionStore    core.SessionStore
	memoryStore     core.MemoryStore
	logger          logging.Logger
	eventBufferSize int
}

// New wraps agent into an App with optional overrides. Construction is pure:
// nothing is validated and no platform call is made until the app is queried
// or deployed.
func New(agent core.Agent, optFns ...func(o *Options)) *App {
	opts := Options{
		SessionStore:    session.NewInMemoryStore(),
		MemoryStore:     memory.NewInMemoryStore(),
		Logger:          logging.NoOpLogger{},
		EventBufferSize: 16,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &App{
		agent:           agent,
		sessionStore:    opts.SessionStore,
		memoryStore:     opts.MemoryStore,
		logger:          opts.Logger,
		eventBufferSize: opts.EventBufferSize,
	}
}

// Agent returns the wrapped agent unchanged.
func (a *App) Agent() core.Agent { return a.agent }

// StreamQuery runs one conversational turn against the wrapped agent and
// returns a Stream over the events it emits, in emission order. The session
// named by query.SessionID is created on first use; completed events are
// appended to it as they flow through. The returned stream terminates with
// the agent's error, if any, after all previously emitted events have been
// delivered.
func (a *App) StreamQuery(ctx context.Context, query core.Query) (*core.Stream, error) {
	sess, err := a.resolveSession(ctx, query)
	if err != nil {
		return nil, err
	}

	// Snapshot history before the new user message joins it so the agent
	// sees prior turns only; the current message travels on the invocation.
	history := sess.History()

	invocationID := core.NewID()

	userEvent := core.NewUserMessageEvent(invocationID, query.Message)
	if err := a.sessionStore.AppendEvent(ctx, sess.ID, userEvent); err != nil {
		return nil, fmt.Errorf("failed to append user event: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)

	agentEmit := make(chan core.Event, a.eventBufferSize)
	agentDone := make(chan error, 1)
	events := make(chan core.Event, a.eventBufferSize)
	errs := make(chan error, 1)

	inv := core.NewInvocation(invocationID, query.UserID, sess.ID, query.Message, history, agentEmit, a.logger)

	go func() {
		err := a.agent.Run(runCtx, inv)
		close(agentEmit)
		agentDone <- err
	}()

	go a.pumpEvents(runCtx, cancel, inv, agentEmit, agentDone, events, errs)

	return core.NewStream(events, errs, cancel), nil
}

func (a *App) resolveSession(ctx context.Context, query core.Query) (*core.Session, error) {
	if query.SessionID == "" {
		sess, err := a.sessionStore.Create(ctx, "", query.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		return sess, nil
	}

	sess, err := a.sessionStore.Get(ctx, query.SessionID)
	if errors.Is(err, core.ErrSessionNotFound) {
		sess, err = a.sessionStore.Create(ctx, query.SessionID, query.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session %s: %w", query.SessionID, err)
	}

	return sess, nil
}

// pumpEvents forwards agent emissions to the consumer stream, persisting
// completed events to the session store along the way. It owns the producer
// side of the stream contract: the events channel closes first, then at most
// one terminal error is delivered before the error channel closes.
func (a *App) pumpEvents(
	ctx context.Context,
	cancel context.CancelFunc,
	inv *core.Invocation,
	agentEmit <-chan core.Event,
	agentDone <-chan error,
	events chan<- core.Event,
	errs chan<- error,
) {
	var persistErr error

	var finals []core.Event

	for ev := range agentEmit {
		if persistErr != nil || ctx.Err() != nil {
			continue
		}

		if !ev.Partial {
			if err := a.sessionStore.AppendEvent(ctx, inv.SessionID, ev); err != nil {
				persistErr = fmt.Errorf("failed to append event to session: %w", err)

				cancel()

				continue
			}
		}

		select {
		case <-ctx.Done():
		case events <- ev:
			a.logger.Debug("app delivered event", "event_id", ev.ID, "session_id", inv.SessionID)
		}

		if ev.IsFinalResponse() && ev.HasContent() {
			finals = append(finals, ev)
		}
	}

	close(events)

	runErr := <-agentDone

	switch {
	case persistErr != nil:
		errs <- persistErr
	case runErr != nil && !errors.Is(runErr, context.Canceled):
		errs <- runErr
	default:
		a.recordMemories(ctx, inv.UserID, finals)
	}

	close(errs)
}

// recordMemories stores completed responses for later recall. Failures are
// logged, not surfaced: memory is advisory.
func (a *App) recordMemories(ctx context.Context, userID string, finals []core.Event) {
	for _, ev := range finals {
		if _, err := a.memoryStore.Add(ctx, userID, ev.Text()); err != nil {
			a.logger.Warn("failed to record memory", "user_id", userID, "error", err)
		}
	}
}
