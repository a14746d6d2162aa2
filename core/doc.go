// Package core provides the foundational domain types and interfaces used by
// AgentLaunch. It defines the core abstractions for:
//
//   - Agents (the conversational units that get wrapped and deployed)
//   - Events (immutable communication records with optional content)
//   - Streams (ordered, finite, consumer-driven event iteration)
//   - Queries (one conversational turn request)
//   - Invocations (scoped execution handed to an agent run)
//   - Pluggable stores for session history and memory recall/search
//
// The package intentionally keeps implementation concerns (persistence,
// deployment transport, concrete agents) out of scope, exposing small
// interfaces to enable custom backends and extensions.
package core
