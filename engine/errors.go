package engine

import (
	"errors"
	"fmt"
)

// ErrResourceGone marks an operation against a handle whose remote resource
// has already been deleted. Handles do not resurrect: once Delete succeeds,
// every later call on the same handle fails with this error.
var ErrResourceGone = errors.New("remote agent resource is gone")

// AuthError reports the platform rejecting the configured credentials during
// the initial handshake. It is fatal and never retried; fix the credentials
// and construct a new client.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("authentication rejected (HTTP %d)", e.Status)
	}
	return fmt.Sprintf("authentication rejected (HTTP %d): %s", e.Status, e.Message)
}

// DeployError reports the platform rejecting or failing a deployment request:
// a malformed descriptor, a quota refusal, or a provisioning operation that
// finished in a failed state. The attempt is over; a caller may submit a
// corrected deployment but the client does not re-submit on its own.
type DeployError struct {
	Status  int
	Message string
}

func (e *DeployError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("deployment rejected (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("deployment failed: %s", e.Message)
}

// NotFoundError reports a resource identifier the platform cannot resolve.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource %s not found", e.Resource)
}

// httpError carries a non-2xx platform response that maps to no more specific
// error kind.
type httpError struct {
	Status int
	Body   []byte
}

func (e *httpError) Error() string {
	if msg := platformMessage(e.Body); msg != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, msg)
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}
