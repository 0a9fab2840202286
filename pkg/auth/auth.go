// Package auth selects and lazily constructs credential sources for the
// Microsoft Fabric and Power BI REST APIs.
package auth

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"go.uber.org/zap"
)

// FabricScope is the target scope for Microsoft Fabric REST APIs.
const FabricScope = "https://api.fabric.microsoft.com/.default"

// PowerBIScope is the target scope for Power BI REST APIs.
// Fabric and Power BI often share the same token space.
const PowerBIScope = "https://analysis.windows.net/powerbi/api/.default"

// GraphScope is the target scope for Microsoft Graph APIs.
const GraphScope = "https://graph.microsoft.com/.default"

// Mode identifies a credential acquisition strategy.
type Mode string

const (
	// ModeEnv authenticates a service principal from environment variables.
	ModeEnv Mode = "env"
	// ModeOAuth authenticates a user interactively through the browser.
	ModeOAuth Mode = "oauth"
	// ModeVault reads service principal secrets from Azure Key Vault.
	ModeVault Mode = "vault"
	// ModeFabric uses the ambient managed identity of a Fabric host.
	ModeFabric Mode = "fabric"
	// ModeAuto probes providers in priority order and picks the first
	// available one.
	ModeAuto Mode = "auto"
)

// autoOrder is the probe order for ModeAuto: ambient host identity first,
// then environment service principal, then Key Vault, then interactive.
var autoOrder = []Mode{ModeFabric, ModeEnv, ModeVault, ModeOAuth}

// Modes returns the concrete provider modes, in auto-probe order.
func Modes() []Mode {
	out := make([]Mode, len(autoOrder))
	copy(out, autoOrder)
	return out
}

// refreshMargin is subtracted from token expiry so a token is refreshed
// before it actually lapses mid-request.
const refreshMargin = 5 * time.Minute

// TokenSource supplies bearer tokens for a given scope. The REST clients in
// pkg/fabric, pkg/powerbi and pkg/graph consume this interface.
type TokenSource interface {
	Token(ctx context.Context, scope string) (string, error)
}

type cacheKey struct {
	mode  Mode
	scope string
}

type cachedToken struct {
	token     string
	expiresOn time.Time
}

func (t cachedToken) valid(now time.Time) bool {
	return t.token != "" && now.Before(t.expiresOn.Add(-refreshMargin))
}

// Resolver selects a provider mode and hands out bearer tokens. The zero
// value is not usable; construct with NewResolver. A Resolver is safe for
// concurrent use.
type Resolver struct {
	mu    sync.Mutex
	mode  Mode
	cred  azcore.TokenCredential
	cache map[cacheKey]cachedToken
	file  *FileCache

	logger  *zap.Logger
	getenv  func(string) string
	now     func() time.Time
	factory func(r *Resolver, mode Mode) (azcore.TokenCredential, error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithFileCache persists fetched tokens through the given file cache.
func WithFileCache(fc *FileCache) Option {
	return func(r *Resolver) { r.file = fc }
}

// WithEnviron overrides environment lookup, used by tests to stub provider
// availability.
func WithEnviron(getenv func(string) string) Option {
	return func(r *Resolver) { r.getenv = getenv }
}

// withCredentialFactory overrides credential construction in tests.
func withCredentialFactory(f func(r *Resolver, mode Mode) (azcore.TokenCredential, error)) Option {
	return func(r *Resolver) { r.factory = f }
}

// NewResolver creates a Resolver with no provider selected. Call SetProvider
// before requesting tokens.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		cache:   make(map[cacheKey]cachedToken),
		logger:  zap.NewNop(),
		getenv:  os.Getenv,
		now:     time.Now,
		factory: newCredential,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mode returns the currently selected provider mode, or the empty string if
// none has been selected yet. ModeAuto is reported as the concrete mode it
// resolved to.
func (r *Resolver) Mode() Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// SetProvider selects the credential acquisition strategy. The mode's
// prerequisites are probed immediately, but the credential itself is
// constructed lazily on the first Token call. ModeAuto resolves to the first
// available mode in the order fabric, env, vault, oauth.
func (r *Resolver) SetProvider(mode Mode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch mode {
	case ModeEnv, ModeOAuth, ModeVault, ModeFabric:
		if err := r.probe(mode); err != nil {
			return err
		}
	case ModeAuto:
		resolved, err := r.resolveAuto()
		if err != nil {
			return err
		}
		mode = resolved
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedProvider, mode)
	}

	if mode != r.mode {
		// Drop the lazily built credential so the next Token call
		// constructs one for the new mode.
		r.cred = nil
	}
	r.mode = mode
	r.logger.Debug("auth provider selected", zap.String("mode", string(mode)))
	return nil
}

func (r *Resolver) resolveAuto() (Mode, error) {
	for _, mode := range autoOrder {
		if err := r.probe(mode); err == nil {
			return mode, nil
		}
	}
	return "", fmt.Errorf("%w: probed %v", ErrNoProviderAvailable, autoOrder)
}

// AvailableProviders reports, per concrete mode, whether SetProvider would
// succeed in the current process state. It never returns an error; the
// probes are cheap environment checks with no side effects.
func (r *Resolver) AvailableProviders() map[Mode]bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[Mode]bool, len(autoOrder))
	for _, mode := range autoOrder {
		out[mode] = r.probe(mode) == nil
	}
	return out
}

// Token returns a bearer token for the given scope using the selected
// provider. Tokens are cached per (mode, scope) and refreshed transparently
// when close to expiry.
func (r *Resolver) Token(ctx context.Context, scope string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.mode == "" {
		return "", fmt.Errorf("%w: no provider selected, call SetProvider first", ErrNoProviderAvailable)
	}

	key := cacheKey{mode: r.mode, scope: scope}
	now := r.now()
	if tok, ok := r.cache[key]; ok && tok.valid(now) {
		return tok.token, nil
	}
	if r.file != nil {
		if tok, ok := r.file.Get(string(r.mode), scope); ok && tok.valid(now) {
			r.cache[key] = tok
			return tok.token, nil
		}
	}

	if r.cred == nil {
		cred, err := r.factory(r, r.mode)
		if err != nil {
			return "", err
		}
		r.cred = cred
	}

	access, err := r.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{scope}})
	if err != nil {
		return "", &TokenError{Mode: r.mode, Scope: scope, Err: err}
	}

	tok := cachedToken{token: access.Token, expiresOn: access.ExpiresOn}
	r.cache[key] = tok
	if r.file != nil {
		if err := r.file.Put(string(r.mode), scope, tok); err != nil {
			r.logger.Warn("persisting token cache failed", zap.Error(err))
		}
	}
	r.logger.Debug("token acquired",
		zap.String("mode", string(r.mode)),
		zap.String("scope", scope),
		zap.Time("expiresOn", access.ExpiresOn))
	return access.Token, nil
}

// GetToken implements azcore.TokenCredential so a Resolver can be handed
// directly to Azure SDK clients.
func (r *Resolver) GetToken(ctx context.Context, options policy.TokenRequestOptions) (azcore.AccessToken, error) {
	if len(options.Scopes) == 0 {
		return azcore.AccessToken{}, fmt.Errorf("no scope requested")
	}
	tok, err := r.Token(ctx, options.Scopes[0])
	if err != nil {
		return azcore.AccessToken{}, err
	}

	r.mu.Lock()
	expires := r.cache[cacheKey{mode: r.mode, scope: options.Scopes[0]}].expiresOn
	r.mu.Unlock()
	return azcore.AccessToken{Token: tok, ExpiresOn: expires}, nil
}

// ClearCache drops all cached tokens, in memory and on disk.
func (r *Resolver) ClearCache() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache = make(map[cacheKey]cachedToken)
	if r.file != nil {
		return r.file.Clear()
	}
	return nil
}
