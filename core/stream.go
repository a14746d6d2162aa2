package core

import (
	"context"
	"sync"
)

// Streamer is the uniform streaming query surface. Both the local app wrapper
// and remote deployment handles implement it, so callers can smoke-test an
// agent in-process and query its deployed twin through the same interface.
type Streamer interface {
	StreamQuery(ctx context.Context, query Query) (*Stream, error)
}

// Stream is a consumer-driven iterator over a finite, ordered event sequence.
//
// Semantics & Guarantees:
//   - Event Ordering: Next yields events in the order the producer emitted
//     them; the stream never reorders or drops.
//   - Termination: after the producer finishes, Next returns ok=false and
//     Err reports the terminal error (nil for clean exhaustion).
//   - Early Exit: Close cancels the producer and releases its resources;
//     it is idempotent and a post-Close Next returns ok=false.
//
// A Stream is single-consumer: Next, Err and Close are intended to be called
// from one goroutine.
type Stream struct {
	events <-chan Event
	errs   <-chan error
	cancel context.CancelFunc

	closeOnce sync.Once
	closed    bool
	finished  bool
	err       error
}

// NewStream wires a Stream over producer channels. The producer must close
// the events channel when emission ends, then deliver at most one terminal
// error before closing the error channel. cancel, if non-nil, is invoked on
// Close and on exhaustion to release the producer.
func NewStream(events <-chan Event, errs <-chan error, cancel context.CancelFunc) *Stream {
	return &Stream{events: events, errs: errs, cancel: cancel}
}

// Next returns the next event in the sequence. ok is false once the stream is
// exhausted or closed; check Err afterwards for the terminal error.
func (s *Stream) Next() (Event, bool) {
	if s.closed || s.finished {
		return Event{}, false
	}
	ev, ok := <-s.events
	if ok {
		return ev, true
	}
	s.finished = true
	if err, ok := <-s.errs; ok && err != nil {
		s.err = err
	}
	s.release()
	return Event{}, false
}

// Err returns the terminal error of the stream. It is meaningful once Next
// has returned ok=false; a nil result means clean exhaustion.
func (s *Stream) Err() error { return s.err }

// Close abandons the stream, cancelling the producer. Events already buffered
// are discarded. Close is safe to call multiple times and after exhaustion.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		s.closed = true
		s.release()
		// drain so a producer blocked on a full buffer can observe
		// cancellation and finish
		go func() {
			for range s.events {
			}
		}()
	})
}

// Collect drains the remaining events into a slice and returns it together
// with the terminal error. Convenient for synchronous callers and tests.
func (s *Stream) Collect() ([]Event, error) {
	var events []Event
	for {
		ev, ok := s.Next()
		if !ok {
			break
		}
		events = append(events, ev)
	}
	return events, s.Err()
}

func (s *Stream) release() {
	if s.cancel != nil {
		s.cancel()
	}
}
