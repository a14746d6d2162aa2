package engine

import (
	"encoding/json"
	"strings"
	"time"
)

// Operation states reported by the platform for long-running work.
const (
	OperationStatePending   = "PENDING"
	OperationStateRunning   = "RUNNING"
	OperationStateSucceeded = "SUCCEEDED"
	OperationStateFailed    = "FAILED"
)

// DeploymentSpec is the wire descriptor submitted when provisioning an agent.
// It is assembled per Deploy call from the configuration record plus caller
// overrides and is not retained afterwards.
type DeploymentSpec struct {
	DisplayName   string            `json:"display_name"`
	Description   string            `json:"description,omitempty"`
	Requirements  []string          `json:"requirements"`
	ExtraPackages []string          `json:"extra_packages,omitempty"`
	StagingBucket string            `json:"staging_bucket"`
	Labels        map[string]string `json:"labels,omitempty"`
	Agent         AgentManifest     `json:"agent"`
}

// AgentManifest describes the packaged agent to the platform: its identity
// and the operations a deployed instance will answer.
type AgentManifest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Model       string   `json:"model,omitempty"`
	Operations  []Schema `json:"operations,omitempty"`
}

// Schema describes one operation a deployed agent exposes.
type Schema struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Operation tracks long-running platform work, primarily provisioning. The
// platform reports Done=true with either a resource name or an error.
type Operation struct {
	ID           string    `json:"id"`
	Verb         string    `json:"verb,omitempty"`
	State        string    `json:"state"`
	Done         bool      `json:"done"`
	ResourceName string    `json:"resource_name,omitempty"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// agentResource is the platform's representation of a deployed agent.
type agentResource struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name,omitempty"`
	State       string    `json:"state,omitempty"`
	CreateTime  time.Time `json:"create_time,omitempty"`
}

type listAgentsResponse struct {
	Agents []agentResource `json:"agents"`
}

type schemasResponse struct {
	Schemas []Schema `json:"schemas"`
}

// platformMessage extracts the human readable message a platform error body
// carries, falling back to the raw body text.
func platformMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error.Message != "" {
			return envelope.Error.Message
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return strings.TrimSpace(string(body))
}

// firstLine truncates text at its first line break. Operation schema listings
// surface single-line descriptions; the platform keeps the full text.
func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return strings.TrimRight(text[:i], "\r")
	}
	return text
}
