package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlaunch/confirm"
	"github.com/hupe1980/agentlaunch/core"
)

const streamQueryPattern = "POST /v1/projects/proj1/locations/us-central1/agents/agent-1:streamQuery"

type countingConfirmer struct {
	answer bool
	calls  int
}

func (c *countingConfirmer) Confirm(context.Context, string) (bool, error) {
	c.calls++
	return c.answer, nil
}

func frame(t *testing.T, ev core.Event) string {
	t.Helper()

	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	return string(raw)
}

func sseHandler(t *testing.T, frames ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)

		flusher, ok := w.(http.Flusher)
		require.True(t, ok)

		for _, f := range frames {
			fmt.Fprintf(w, "data: %s\n\n", f)
			flusher.Flush()
		}
	}
}

func TestStreamQueryDeliversEventsInOrder(t *testing.T) {
	var (
		gotQuery  core.Query
		gotAccept string
		gotAuth   string
	)

	mux := newMux()
	mux.HandleFunc(streamQueryPattern, func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotQuery))

		sseHandler(t,
			frame(t, core.NewControlEvent("assistant")),
			frame(t, core.NewPartialEvent("assistant", "thinking ")),
			frame(t, core.NewPartialEvent("assistant", "out loud")),
			frame(t, core.NewMessageEvent("assistant", "the answer")),
			doneFrame,
		)(w, r)
	})

	client := newTestClient(t, mux)
	remote := newRemoteAgent(client, testResourceName)

	stream, err := remote.StreamQuery(context.Background(), core.Query{UserID: "u1", Message: "hi"})
	require.NoError(t, err)

	events, err := stream.Collect()
	require.NoError(t, err)

	require.Len(t, events, 4)
	assert.False(t, events[0].HasContent(), "control events carry no content but still count")
	assert.Equal(t, "thinking ", events[1].Text())
	assert.Equal(t, "out loud", events[2].Text())
	assert.Equal(t, "the answer", events[3].Text())
	assert.True(t, events[3].IsFinalResponse())

	assert.Equal(t, "u1", gotQuery.UserID)
	assert.Equal(t, "hi", gotQuery.Message)
	assert.Equal(t, "text/event-stream", gotAccept)
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestStreamQueryEmptyStream(t *testing.T) {
	mux := newMux()
	mux.HandleFunc(streamQueryPattern, sseHandler(t, doneFrame))

	client := newTestClient(t, mux)
	remote := newRemoteAgent(client, testResourceName)

	stream, err := remote.StreamQuery(context.Background(), core.Query{UserID: "u1", Message: "hi"})
	require.NoError(t, err)

	events, err := stream.Collect()
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestStreamQueryIgnoresNonDataLines(t *testing.T) {
	mux := newMux()
	mux.HandleFunc(streamQueryPattern, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)

		fmt.Fprint(w, ": keepalive\n\n")
		fmt.Fprint(w, "event: message\n")
		fmt.Fprintf(w, "data: %s\n\n", frame(t, core.NewMessageEvent("assistant", "only event")))
		fmt.Fprintf(w, "data: %s\n\n", doneFrame)
	})

	client := newTestClient(t, mux)
	remote := newRemoteAgent(client, testResourceName)

	stream, err := remote.StreamQuery(context.Background(), core.Query{UserID: "u1", Message: "hi"})
	require.NoError(t, err)

	events, err := stream.Collect()
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, "only event", events[0].Text())
}

func TestStreamQuerySurfacesDecodeFailure(t *testing.T) {
	mux := newMux()
	mux.HandleFunc(streamQueryPattern, sseHandler(t,
		frame(t, core.NewPartialEvent("assistant", "good chunk")),
		"{not json",
	))

	client := newTestClient(t, mux)
	remote := newRemoteAgent(client, testResourceName)

	stream, err := remote.StreamQuery(context.Background(), core.Query{UserID: "u1", Message: "hi"})
	require.NoError(t, err)

	events, err := stream.Collect()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode stream event")
	require.Len(t, events, 1, "events before the failure are still delivered")
	assert.Equal(t, "good chunk", events[0].Text())
}

func TestStreamQueryCleanEOFWithoutDone(t *testing.T) {
	mux := newMux()
	mux.HandleFunc(streamQueryPattern, sseHandler(t,
		frame(t, core.NewPartialEvent("assistant", "one")),
		frame(t, core.NewMessageEvent("assistant", "two")),
	))

	client := newTestClient(t, mux)
	remote := newRemoteAgent(client, testResourceName)

	stream, err := remote.StreamQuery(context.Background(), core.Query{UserID: "u1", Message: "hi"})
	require.NoError(t, err)

	events, err := stream.Collect()

	require.NoError(t, err, "a response ending without the terminator is still a clean stream")
	assert.Len(t, events, 2)
}

func TestStreamQueryCloseAbortsTransfer(t *testing.T) {
	handlerDone := make(chan struct{})

	mux := newMux()
	mux.HandleFunc(streamQueryPattern, func(w http.ResponseWriter, r *http.Request) {
		defer close(handlerDone)

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)

		flusher, ok := w.(http.Flusher)
		require.True(t, ok)

		for i := 0; ; i++ {
			select {
			case <-r.Context().Done():
				return
			default:
			}

			fmt.Fprintf(w, "data: %s\n\n", frame(t, core.NewPartialEvent("assistant", fmt.Sprintf("chunk-%d", i))))
			flusher.Flush()
			time.Sleep(time.Millisecond)
		}
	})

	client := newTestClient(t, mux)
	remote := newRemoteAgent(client, testResourceName)

	stream, err := remote.StreamQuery(context.Background(), core.Query{UserID: "u1", Message: "hi"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, ok := stream.Next()
		require.True(t, ok)
	}

	stream.Close()

	select {
	case <-handlerDone:
	case <-time.After(2 * time.Second):
		t.Fatal("platform kept streaming after Close")
	}

	_, ok := stream.Next()
	assert.False(t, ok)
	assert.NoError(t, stream.Err())
}

func TestStreamQueryUnknownResource(t *testing.T) {
	client := newTestClient(t, nil)
	remote := newRemoteAgent(client, testResourceName)

	_, err := remote.StreamQuery(context.Background(), core.Query{UserID: "u1", Message: "hi"})

	var nerr *NotFoundError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, testResourceName, nerr.Resource)
}

func TestOperationSchemasTruncatesDescriptions(t *testing.T) {
	mux := newMux()
	mux.HandleFunc("GET /v1/projects/proj1/locations/us-central1/agents/agent-1:operationSchemas", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, schemasResponse{Schemas: []Schema{
			{Name: "stream_query", Description: "Stream a conversational answer.\nEvents arrive in production order."},
			{Name: "health_check", Description: "Readiness probe"},
		}})
	})

	client := newTestClient(t, mux)
	remote := newRemoteAgent(client, testResourceName)

	schemas, err := remote.OperationSchemas(context.Background())

	require.NoError(t, err)
	require.Len(t, schemas, 2)
	assert.Equal(t, "stream_query", schemas[0].Name)
	assert.Equal(t, "Stream a conversational answer.", schemas[0].Description)
	assert.Equal(t, "Readiness probe", schemas[1].Description)
}

func TestDeleteConfirmed(t *testing.T) {
	var deletes atomic.Int32

	mux := newMux()
	mux.HandleFunc("DELETE /v1/projects/proj1/locations/us-central1/agents/agent-1", func(w http.ResponseWriter, r *http.Request) {
		deletes.Add(1)
		assert.Empty(t, r.URL.RawQuery)
		w.WriteHeader(http.StatusNoContent)
	})

	client := newTestClient(t, mux)
	remote := newRemoteAgent(client, testResourceName)

	deleted, err := remote.Delete(context.Background(), confirm.Static(true))

	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, int32(1), deletes.Load())
}

func TestDeleteDeclinedLeavesAgent(t *testing.T) {
	var deletes atomic.Int32

	mux := newMux()
	mux.HandleFunc("DELETE /v1/projects/proj1/locations/us-central1/agents/agent-1", func(w http.ResponseWriter, r *http.Request) {
		deletes.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})

	client := newTestClient(t, mux)
	remote := newRemoteAgent(client, testResourceName)

	deleted, err := remote.Delete(context.Background(), confirm.Static(false))

	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, int32(0), deletes.Load(), "declining must not touch the platform")

	// The handle stays usable: a later confirmed delete goes through.
	deleted, err = remote.Delete(context.Background(), confirm.Static(true))

	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, int32(1), deletes.Load())
}

func TestDeleteSecondCallFailsBeforeGate(t *testing.T) {
	var deletes atomic.Int32

	mux := newMux()
	mux.HandleFunc("DELETE /v1/projects/proj1/locations/us-central1/agents/agent-1", func(w http.ResponseWriter, r *http.Request) {
		deletes.Add(1)
		w.WriteHeader(http.StatusOK)
	})

	client := newTestClient(t, mux)
	remote := newRemoteAgent(client, testResourceName)

	gate := &countingConfirmer{answer: true}

	deleted, err := remote.Delete(context.Background(), gate)
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = remote.Delete(context.Background(), gate)

	require.ErrorIs(t, err, ErrResourceGone)
	assert.False(t, deleted)
	assert.Equal(t, 1, gate.calls, "a dead handle must not prompt again")
	assert.Equal(t, int32(1), deletes.Load())
}

func TestDeleteForce(t *testing.T) {
	var gotForce string

	mux := newMux()
	mux.HandleFunc("DELETE /v1/projects/proj1/locations/us-central1/agents/agent-1", func(w http.ResponseWriter, r *http.Request) {
		gotForce = r.URL.Query().Get("force")
		w.WriteHeader(http.StatusOK)
	})

	client := newTestClient(t, mux)
	remote := newRemoteAgent(client, testResourceName)

	deleted, err := remote.Delete(context.Background(), confirm.Static(true), func(o *DeleteOptions) {
		o.Force = true
	})

	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, "true", gotForce)
}

func TestDeletedHandleRefusesQueries(t *testing.T) {
	mux := newMux()
	mux.HandleFunc("DELETE /v1/projects/proj1/locations/us-central1/agents/agent-1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	client := newTestClient(t, mux)
	remote := newRemoteAgent(client, testResourceName)

	deleted, err := remote.Delete(context.Background(), confirm.Static(true))
	require.NoError(t, err)
	require.True(t, deleted)

	_, err = remote.StreamQuery(context.Background(), core.Query{UserID: "u1", Message: "hi"})
	assert.ErrorIs(t, err, ErrResourceGone)

	_, err = remote.OperationSchemas(context.Background())
	assert.ErrorIs(t, err, ErrResourceGone)
}

func TestDeletePlatformReportsGone(t *testing.T) {
	mux := newMux()
	mux.HandleFunc("DELETE /v1/projects/proj1/locations/us-central1/agents/agent-1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	})

	client := newTestClient(t, mux)
	remote := newRemoteAgent(client, testResourceName)

	deleted, err := remote.Delete(context.Background(), confirm.Static(true))

	require.ErrorIs(t, err, ErrResourceGone)
	assert.False(t, deleted)

	// Only our own successful delete kills the handle, so the gate is
	// consulted again on the next attempt.
	gate := &countingConfirmer{answer: false}

	deleted, err = remote.Delete(context.Background(), gate)

	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, 1, gate.calls)
}

func TestDeleteNotRetried(t *testing.T) {
	var deletes atomic.Int32

	mux := newMux()
	mux.HandleFunc("DELETE /v1/projects/proj1/locations/us-central1/agents/agent-1", func(w http.ResponseWriter, r *http.Request) {
		deletes.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	client := newTestClient(t, mux)
	remote := newRemoteAgent(client, testResourceName)

	deleted, err := remote.Delete(context.Background(), confirm.Static(true))

	require.Error(t, err)
	assert.False(t, deleted)
	assert.Equal(t, int32(1), deletes.Load(), "delete must go out exactly once")
}
