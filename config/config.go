// Package config provides configuration loading, validation and credential
// installation for AgentLaunch deployments.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// StagingBucketPrefix is the URI scheme every staging bucket must carry.
const StagingBucketPrefix = "gs://"

// GoogleCredentialsEnv is the process-wide variable credential installation sets.
const GoogleCredentialsEnv = "GOOGLE_APPLICATION_CREDENTIALS"

// Config holds everything a deployment needs: project coordinates, staging
// storage, credentials and agent metadata. Values come from AGENTLAUNCH_*
// environment variables via FromEnv, or are set directly by callers.
type Config struct {
	// ProjectID identifies the cloud project deployments live in. Required.
	ProjectID string
	// Location is the platform region. Defaults to us-central1.
	Location string
	// StagingBucket is the staging storage URI. Required, must start with gs://.
	StagingBucket string
	// CredentialsFile points at a service account key file. Optional; when
	// empty, ambient credentials are used.
	CredentialsFile string
	// AgentName is the default display name for deployed agents.
	AgentName string
	// AgentDescription is the default description for deployed agents.
	AgentDescription string
	// ModelName selects the language model the reference agent talks to.
	ModelName string
	// Endpoint is the base URL of the deployment platform API.
	Endpoint string
	// RequirementsFile optionally lists runtime requirements, one per line.
	RequirementsFile string
	// ExtraPackages are additional package directories shipped with a deployment.
	ExtraPackages []string
	// Labels are attached to every deployment for organization.
	Labels map[string]string
}

// FromEnv builds a Config from AGENTLAUNCH_* environment variables, applying
// defaults for everything optional. It never fails; Validate reports problems.
func FromEnv() *Config {
	return &Config{
		ProjectID:        os.Getenv("AGENTLAUNCH_PROJECT_ID"),
		Location:         getenvDefault("AGENTLAUNCH_LOCATION", "us-central1"),
		StagingBucket:    os.Getenv("AGENTLAUNCH_STAGING_BUCKET"),
		CredentialsFile:  os.Getenv("AGENTLAUNCH_CREDENTIALS_FILE"),
		AgentName:        getenvDefault("AGENTLAUNCH_AGENT_NAME", "agentlaunch-agent"),
		AgentDescription: getenvDefault("AGENTLAUNCH_AGENT_DESCRIPTION", "Conversational agent managed by agentlaunch"),
		ModelName:        getenvDefault("AGENTLAUNCH_MODEL", "gpt-4o-mini"),
		Endpoint:         os.Getenv("AGENTLAUNCH_ENDPOINT"),
		RequirementsFile: os.Getenv("AGENTLAUNCH_REQUIREMENTS_FILE"),
		ExtraPackages:    splitList(os.Getenv("AGENTLAUNCH_EXTRA_PACKAGES")),
		Labels:           map[string]string{},
	}
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that all required configuration is present. Checks run in a
// fixed order and stop at the first failure so the reported Field is stable:
// project first, then staging bucket presence, then staging bucket scheme.
// Validate only reads; it never mutates the Config or touches credentials.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ProjectID) == "" {
		return &ConfigError{Field: "project_id", Reason: "AGENTLAUNCH_PROJECT_ID is not set"}
	}
	if strings.TrimSpace(c.StagingBucket) == "" {
		return &ConfigError{Field: "staging_bucket", Reason: "AGENTLAUNCH_STAGING_BUCKET is not set"}
	}
	if !strings.HasPrefix(c.StagingBucket, StagingBucketPrefix) || len(c.StagingBucket) == len(StagingBucketPrefix) {
		return &ConfigError{Field: "staging_bucket", Reason: fmt.Sprintf("must start with %s followed by a bucket name", StagingBucketPrefix)}
	}
	return nil
}

// SetupCredentials installs the configured credentials file into process-wide
// state by setting GOOGLE_APPLICATION_CREDENTIALS. The file must exist before
// anything is touched: a missing path returns a CredentialError (satisfying
// errors.Is(err, os.ErrNotExist)) and leaves both the environment and the
// Config unchanged. An empty CredentialsFile is a no-op success, deferring to
// ambient credentials.
func (c *Config) SetupCredentials() error {
	if c.CredentialsFile == "" {
		return nil
	}
	info, err := os.Stat(c.CredentialsFile)
	if err != nil {
		return &CredentialError{Path: c.CredentialsFile, Err: err}
	}
	if info.IsDir() {
		return &CredentialError{Path: c.CredentialsFile, Err: fmt.Errorf("is a directory, not a key file")}
	}
	if err := os.Setenv(GoogleCredentialsEnv, c.CredentialsFile); err != nil {
		return &CredentialError{Path: c.CredentialsFile, Err: err}
	}
	return nil
}

// Summary writes a human readable configuration banner, eliding secret values.
func (c *Config) Summary(w io.Writer) {
	rule := strings.Repeat("=", 70)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Configuration")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-18s%s\n", "Project ID:", valueOr(c.ProjectID, "(not set)"))
	fmt.Fprintf(w, "%-18s%s\n", "Location:", c.Location)
	fmt.Fprintf(w, "%-18s%s\n", "Staging Bucket:", valueOr(c.StagingBucket, "(not set)"))
	fmt.Fprintf(w, "%-18s%s\n", "Model:", c.ModelName)
	fmt.Fprintf(w, "%-18s%s\n", "Agent Name:", c.AgentName)
	fmt.Fprintf(w, "%-18s%s\n", "Endpoint:", valueOr(c.Endpoint, "(not set)"))
	cred := "not set"
	if c.CredentialsFile != "" {
		cred = "set"
	} else if os.Getenv(GoogleCredentialsEnv) != "" {
		cred = "set (ambient)"
	}
	fmt.Fprintf(w, "%-18s%s\n", "Credentials:", cred)
	fmt.Fprintln(w, rule)
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// DefaultRequirements returns the baseline runtime requirements every hosted
// agent ships with when no requirements file is configured.
func DefaultRequirements() []string {
	return []string{
		"agentlaunch-runtime>=1.0",
		"agentlaunch-streaming>=1.0",
	}
}

// RequirementsList resolves the runtime requirements for a deployment: the
// configured requirements file when set (one requirement per line, blank
// lines and # comments skipped), the built-in defaults otherwise.
func (c *Config) RequirementsList() ([]string, error) {
	if c.RequirementsFile == "" {
		return DefaultRequirements(), nil
	}
	f, err := os.Open(c.RequirementsFile)
	if err != nil {
		return nil, fmt.Errorf("read requirements file: %w", err)
	}
	defer f.Close()

	var reqs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		reqs = append(reqs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read requirements file: %w", err)
	}
	return reqs, nil
}
