package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/hupe1980/agentlaunch/confirm"
	"github.com/hupe1980/agentlaunch/core"
)

// doneFrame terminates a streaming query response.
const doneFrame = "[DONE]"

// RemoteAgent is the handle to one deployed agent resource. It answers
// streaming queries through the same Streamer surface the local app exposes,
// lists the deployment's operation schemas, and deletes the resource.
//
// A handle dies with its resource: after a successful Delete every method,
// Delete included, fails with ErrResourceGone. Concurrent queries against one
// handle are fine (the platform isolates sessions); deleting a handle while a
// query is in flight is the caller's mistake and has no defined outcome.
type RemoteAgent struct {
	resourceName string
	client       *Client

	mu      sync.RWMutex
	deleted bool
}

func newRemoteAgent(c *Client, resourceName string) *RemoteAgent {
	return &RemoteAgent{resourceName: resourceName, client: c}
}

// ResourceName returns the platform identifier of the deployed agent.
func (r *RemoteAgent) ResourceName() string { return r.resourceName }

func (r *RemoteAgent) gone() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.deleted
}

// StreamQuery issues a streaming query against the deployed agent and returns
// a Stream over the response events, in arrival order. Closing the stream
// aborts the transfer; the platform may keep producing internally, the client
// simply stops reading. A transport failure mid-stream surfaces through
// Stream.Err after the events received so far were delivered.
func (r *RemoteAgent) StreamQuery(ctx context.Context, query core.Query) (*core.Stream, error) {
	if r.gone() {
		return nil, ErrResourceGone
	}

	payload, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	url := r.client.resourceURL(r.resourceName) + ":streamQuery"

	streamCtx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(streamCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	r.client.setAuth(req)

	resp, err := r.client.streamClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stream query: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()

		switch resp.StatusCode {
		case http.StatusNotFound:
			return nil, &NotFoundError{Resource: r.resourceName}
		case http.StatusGone:
			return nil, ErrResourceGone
		default:
			return nil, &httpError{Status: resp.StatusCode, Body: body}
		}
	}

	events := make(chan core.Event, streamBufferSize)
	errs := make(chan error, 1)

	go func() {
		defer resp.Body.Close()
		consumeSSE(streamCtx, resp.Body, events, errs)
	}()

	r.client.logger.Debug("remote stream opened", "resource", r.resourceName, "user_id", query.UserID)

	return core.NewStream(events, errs, cancel), nil
}

// consumeSSE decodes data: frames from an event-stream body into events,
// honoring the stream producer contract: close the events channel first, then
// deliver at most one terminal error, then close the error channel. A clean
// [DONE] frame or a clean EOF both end the stream without error; a read
// failure while the context is still live is the terminal error.
func consumeSSE(ctx context.Context, body io.Reader, events chan<- core.Event, errs chan<- error) {
	var terminal error

	done := false

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == doneFrame {
			done = true
			break
		}

		var ev core.Event
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			terminal = fmt.Errorf("decode stream event: %w", err)
			break
		}

		// The consumer side drains on Close, so this send never wedges.
		events <- ev
	}

	if terminal == nil && !done {
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			terminal = fmt.Errorf("read stream: %w", err)
		}
	}

	close(events)

	if terminal != nil {
		errs <- terminal
	}

	close(errs)
}

// OperationSchemas fetches the operation schemas registered for the deployed
// agent, in platform order. Descriptions are cut to their first line: the
// listing is a display surface, the full text stays on the platform. As an
// idempotent read it is retried on transient failures.
func (r *RemoteAgent) OperationSchemas(ctx context.Context) ([]Schema, error) {
	if r.gone() {
		return nil, ErrResourceGone
	}

	url := r.client.resourceURL(r.resourceName) + ":operationSchemas"

	var out schemasResponse

	err := doWithRetry(ctx, r.client.logger, r.client.retryAttempts, r.client.retryDelay, func() error {
		status, body, err := r.client.do(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		switch {
		case status == http.StatusOK:
			out = schemasResponse{}
			if err := json.Unmarshal(body, &out); err != nil {
				return fmt.Errorf("parse schemas: %w", err)
			}
			return nil
		case status == http.StatusNotFound:
			return &NotFoundError{Resource: r.resourceName}
		case status == http.StatusGone:
			return ErrResourceGone
		default:
			return responseError(status, body)
		}
	})
	if err != nil {
		return nil, err
	}

	schemas := out.Schemas
	for i := range schemas {
		schemas[i].Description = firstLine(schemas[i].Description)
	}

	return schemas, nil
}

// DeleteOptions adjust a single Delete call.
type DeleteOptions struct {
	// Force removes the resource even when the platform still holds child
	// resources (sessions, pending operations) for it.
	Force bool
}

// Delete removes the deployed agent after gate confirms. Declining the gate
// returns (false, nil): cancellation is a normal outcome, not an error, and
// the resource stays untouched. A confirmed delete issues the destructive
// call exactly once, with no retry.
//
// Delete is not idempotent. The first successful call kills the handle; a
// second call fails with ErrResourceGone before the gate is even consulted.
func (r *RemoteAgent) Delete(ctx context.Context, gate confirm.Confirmer, optFns ...func(o *DeleteOptions)) (bool, error) {
	opts := DeleteOptions{}

	for _, fn := range optFns {
		fn(&opts)
	}

	if r.gone() {
		return false, ErrResourceGone
	}

	confirmed, err := gate.Confirm(ctx, fmt.Sprintf("Delete remote agent %s?", r.resourceName))
	if err != nil {
		return false, fmt.Errorf("confirm delete: %w", err)
	}
	if !confirmed {
		r.client.logger.Info("delete declined", "resource", r.resourceName)
		return false, nil
	}

	url := r.client.resourceURL(r.resourceName)
	if opts.Force {
		url += "?force=true"
	}

	status, body, err := r.client.do(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return false, fmt.Errorf("delete agent: %w", err)
	}

	switch status {
	case http.StatusOK, http.StatusNoContent, http.StatusAccepted:
	case http.StatusNotFound:
		return false, &NotFoundError{Resource: r.resourceName}
	case http.StatusGone:
		return false, ErrResourceGone
	default:
		return false, &httpError{Status: status, Body: body}
	}

	r.mu.Lock()
	r.deleted = true
	r.mu.Unlock()

	r.client.logger.Info("agent deleted", "resource", r.resourceName, "force", opts.Force)

	return true, nil
}
