// Package engine implements the deployment lifecycle client for AgentLaunch.
//
// The engine owns every interaction with the managed agent platform: it
// authenticates, provisions deployments, resolves and lists them, relays
// streaming queries, and retires resources. It is the remote half of the
// system; the local half (package app) serves the same query surface
// in-process so agents behave identically before and after deployment.
//
// # Core Responsibilities
//
// Client construction:
//   - Configuration re-validation (an invalid config never reaches the wire)
//   - Credential loading and the authentication handshake
//   - Fatal, non-retried AuthError on rejected credentials
//
// Deployment lifecycle:
//   - Deploy: descriptor assembly (caller overrides over config defaults),
//     submission, bounded operation polling
//   - Get/List: idempotent resolution of existing deployments
//   - Delete: confirmation-gated, non-idempotent retirement
//
// Streaming queries:
//   - POST :streamQuery relayed as a core.Stream of ordered events
//   - Early consumer exit cancels the transfer without side effects
//
// # Lifecycle
//
// A single deployment walks one direction:
//
//	NotDeployed --(Deploy ok)--> Deployed --(Delete confirmed)--> Deleted
//
// A declined confirmation leaves the deployment where it is. Deleted is
// terminal: the handle refuses every further call with ErrResourceGone.
//
// # Retry Policy
//
// Only the handshake and idempotent reads (Get, List, OperationSchemas,
// operation polls) retry, on throttling (429), server errors (5xx) and
// transport failures, with exponential backoff capped at 30s. Deploy and
// Delete are mutations with unknown outcome on transport failure; they go
// out exactly once and the caller decides what a failure means.
//
// # Error Taxonomy
//
//   - *config.ConfigError: invalid or incomplete configuration, pre-wire.
//   - *config.CredentialError: unreadable credential material, pre-wire.
//   - *AuthError: platform rejected the credentials at handshake. Fatal.
//   - *DeployError: platform rejected or failed a provisioning request.
//   - *NotFoundError: identifier does not resolve.
//   - ErrResourceGone: operation on a handle whose resource was deleted.
//
// Cancellation through the confirmation gate is not an error: Delete reports
// it as (false, nil).
package engine
