package auth

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by SetProvider and Token. They distinguish the
// three user-actionable failure kinds: a missing prerequisite facility, a
// missing configuration value, and running outside the expected host
// environment.
var (
	// ErrUnsupportedProvider means the mode string is not one of the
	// known provider modes.
	ErrUnsupportedProvider = errors.New("unsupported auth provider")

	// ErrProviderUnavailable means the provider's prerequisite facility
	// is missing, e.g. no Key Vault is configured for vault mode.
	ErrProviderUnavailable = errors.New("auth provider unavailable")

	// ErrCredentialsNotConfigured means the environment variables the
	// provider needs are absent or incomplete.
	ErrCredentialsNotConfigured = errors.New("credentials not configured")

	// ErrNotInHostEnvironment means the process is not running inside
	// the host runtime the provider relies on, e.g. fabric mode outside
	// a managed-identity host.
	ErrNotInHostEnvironment = errors.New("not running in expected host environment")

	// ErrNoProviderAvailable means auto mode exhausted every provider
	// without finding an available one.
	ErrNoProviderAvailable = errors.New("no auth provider available")
)

// TokenError wraps a failure from the upstream identity service during token
// retrieval.
type TokenError struct {
	Mode  Mode
	Scope string
	Err   error
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("token retrieval failed for provider %q (scope %s): %v", e.Mode, e.Scope, e.Err)
}

func (e *TokenError) Unwrap() error { return e.Err }
