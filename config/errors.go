package config

import "fmt"

// ConfigError reports an invalid or absent configuration value. Field names
// the offending key in its canonical snake_case form so callers can map the
// failure back to the environment variable or flag that feeds it.
type ConfigError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: invalid %s: %s", e.Field, e.Reason)
}

// CredentialError reports that the configured credentials file could not be
// installed. It wraps the underlying filesystem error, so a missing file
// satisfies errors.Is(err, os.ErrNotExist).
type CredentialError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *CredentialError) Error() string {
	return fmt.Sprintf("config: credentials file %q: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As chains.
func (e *CredentialError) Unwrap() error { return e.Err }
