package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlaunch/core"
	"github.com/hupe1980/agentlaunch/memory"
	"github.com/hupe1980/agentlaunch/session"
)

var _ core.Streamer = (*App)(nil)

type scriptedAgent struct {
	name   string
	script func(ctx context.Context, inv *core.Invocation) error
}

func (a *scriptedAgent) Name() string        { return a.name }
func (a *scriptedAgent) Description() string { return "scripted test agent" }

func (a *scriptedAgent) Run(ctx context.Context, inv *core.Invocation) error {
	return a.script(ctx, inv)
}

func echoAgent() *scriptedAgent {
	return &scriptedAgent{
		name: "echo",
		script: func(ctx context.Context, inv *core.Invocation) error {
			return inv.EmitMessage(ctx, "echo", "you said: "+inv.Message)
		},
	}
}

func runTurn(t *testing.T, a *App, query core.Query) ([]core.Event, error) {
	t.Helper()

	stream, err := a.StreamQuery(context.Background(), query)
	require.NoError(t, err)

	return stream.Collect()
}

func TestNewKeepsAgentUnchanged(t *testing.T) {
	agent := echoAgent()
	assert.Same(t, agent, New(agent).Agent())
}

func TestStreamQueryDeliversEventsInOrder(t *testing.T) {
	agent := &scriptedAgent{
		name: "counter",
		script: func(ctx context.Context, inv *core.Invocation) error {
			if err := inv.EmitControl(ctx, "counter"); err != nil {
				return err
			}
			for i := 0; i < 3; i++ {
				if err := inv.EmitPartial(ctx, "counter", fmt.Sprintf("part-%d", i)); err != nil {
					return err
				}
			}
			return inv.EmitMessage(ctx, "counter", "done")
		},
	}

	events, err := runTurn(t, New(agent), core.Query{UserID: "u1", Message: "count"})
	require.NoError(t, err)
	require.Len(t, events, 5)

	assert.False(t, events[0].HasContent())

	for i := 0; i < 3; i++ {
		assert.Equal(t, fmt.Sprintf("part-%d", i), events[i+1].Text())
		assert.True(t, events[i+1].Partial)
	}

	assert.Equal(t, "done", events[4].Text())
	assert.True(t, events[4].IsFinalResponse())
}

func TestStreamQueryEmptyStream(t *testing.T) {
	agent := &scriptedAgent{
		name:   "silent",
		script: func(ctx context.Context, inv *core.Invocation) error { return nil },
	}

	events, err := runTurn(t, New(agent), core.Query{UserID: "u1", Message: "hi"})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestStreamQuerySurfacesAgentError(t *testing.T) {
	agent := &scriptedAgent{
		name: "flaky",
		script: func(ctx context.Context, inv *core.Invocation) error {
			if err := inv.EmitMessage(ctx, "flaky", "one"); err != nil {
				return err
			}
			if err := inv.EmitMessage(ctx, "flaky", "two"); err != nil {
				return err
			}
			return errors.New("model unavailable")
		},
	}

	events, err := runTurn(t, New(agent), core.Query{UserID: "u1", Message: "go"})
	require.EqualError(t, err, "model unavailable")
	require.Len(t, events, 2)
	assert.Equal(t, "one", events[0].Text())
	assert.Equal(t, "two", events[1].Text())
}

func TestStreamQueryPersistsSessionHistory(t *testing.T) {
	store := session.NewInMemoryStore()

	var seenHistory []core.Event

	agent := &scriptedAgent{
		name: "historian",
		script: func(ctx context.Context, inv *core.Invocation) error {
			seenHistory = inv.History
			return inv.EmitMessage(ctx, "historian", "reply to "+inv.Message)
		},
	}

	a := New(agent, func(o *Options) { o.SessionStore = store })

	_, err := runTurn(t, a, core.Query{UserID: "u1", SessionID: "s1", Message: "first"})
	require.NoError(t, err)
	assert.Empty(t, seenHistory)

	_, err = runTurn(t, a, core.Query{UserID: "u1", SessionID: "s1", Message: "second"})
	require.NoError(t, err)

	require.Len(t, seenHistory, 2)
	assert.Equal(t, "first", seenHistory[0].Text())
	assert.Equal(t, "reply to first", seenHistory[1].Text())

	sess, err := store.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, sess.GetEvents(), 4)
}

func TestStreamQueryCloseStopsAgent(t *testing.T) {
	agentStopped := make(chan struct{})

	agent := &scriptedAgent{
		name: "chatty",
		script: func(ctx context.Context, inv *core.Invocation) error {
			defer close(agentStopped)
			for i := 0; ; i++ {
				if err := inv.EmitMessage(ctx, "chatty", fmt.Sprintf("event %d", i)); err != nil {
					return err
				}
			}
		},
	}

	stream, err := New(agent).StreamQuery(context.Background(), core.Query{UserID: "u1", Message: "talk"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, ok := stream.Next()
		require.True(t, ok)
	}

	stream.Close()

	select {
	case <-agentStopped:
	case <-time.After(2 * time.Second):
		t.Fatal("agent kept running after stream close")
	}

	_, ok := stream.Next()
	assert.False(t, ok)
}

func TestStreamQueryRecordsMemories(t *testing.T) {
	memories := memory.NewInMemoryStore()

	a := New(echoAgent(), func(o *Options) { o.MemoryStore = memories })

	_, err := runTurn(t, a, core.Query{UserID: "u1", Message: "remember me"})
	require.NoError(t, err)

	results, err := memories.Search(context.Background(), "u1", "remember", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "you said: remember me", results[0].Content)
}

type failingSessionStore struct {
	core.SessionStore
	failAfter int
	appends   int
}

func (s *failingSessionStore) AppendEvent(ctx context.Context, sessionID string, ev core.Event) error {
	s.appends++
	if s.appends > s.failAfter {
		return errors.New("disk full")
	}

	return s.SessionStore.AppendEvent(ctx, sessionID, ev)
}

func TestStreamQuerySurfacesPersistFailure(t *testing.T) {
	store := &failingSessionStore{SessionStore: session.NewInMemoryStore(), failAfter: 1}

	a := New(echoAgent(), func(o *Options) { o.SessionStore = store })

	events, err := runTurn(t, a, core.Query{UserID: "u1", Message: "hi"})
	assert.Empty(t, events)
	require.ErrorContains(t, err, "failed to append event to session")
	require.ErrorContains(t, err, "disk full")
}
