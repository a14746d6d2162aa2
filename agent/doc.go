// Package agent provides the reference core.Agent implementation shipped with
// AgentLaunch: a model-backed conversational agent (ChatAgent) suitable for
// local smoke testing and remote deployment alike.
//
// ChatAgent keeps the surface deliberately small. It converts one invocation
// (message + bounded session history) into a normalized model request, then
// emits the reply as events. Provider selection happens at wiring time via
// the model subpackages (model/openai, model/anthropic) or model.MockModel
// for offline runs.
package agent
