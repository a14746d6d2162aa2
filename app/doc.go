// Package app packages an agent together with its session and memory stores
// into a queryable unit. The resulting App answers streaming queries locally
// and is the payload a deployment client ships to the managed platform, so
// local smoke tests and remote queries share one surface.
package app
