package payments

import "fmt"

// The checkout flow distinguishes five failure causes so callers can map
// them to HTTP statuses and localized messages. The webhook flow swallows
// all of them into logs and still acknowledges receipt.

// AuthError means the caller identity is missing or invalid.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "authentication failed: " + e.Reason
}

// ConfigError means a required provider credential is missing or still a
// placeholder value.
type ConfigError struct {
	Key string
}

func (e *ConfigError) Error() string {
	return "configuration missing or invalid: " + e.Key
}

// ProviderError wraps a failed call to the payment provider. The wrapped
// error keeps the provider response body for diagnostics.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ValidationError means buyer-supplied fields failed format checks.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PersistenceError wraps a failed storage read or write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
