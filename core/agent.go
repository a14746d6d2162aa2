package core

import "context"

// Agent defines the core interface for conversational agents in AgentLaunch.
//
// Agents are the units an app.App wraps for local execution and the engine
// client packages for remote deployment. They receive their per-query scope
// through an Invocation, process it, and emit events to communicate results.
//
// Implementations must:
//   - Respect context cancellation for graceful shutdown
//   - Emit events through the provided Invocation
//   - Treat emitted events as immutable
type Agent interface {
	// Name returns the external identifier of the agent. It becomes part of
	// the deployment manifest and authors every emitted event.
	Name() string

	// Description returns a human readable summary used as the deployment
	// description fallback.
	Description() string

	// Run executes one conversational turn. It returns once all events for
	// the turn have been emitted, or the context is cancelled.
	Run(ctx context.Context, inv *Invocation) error
}
