package auth

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

// Environment variables consulted by the providers. The FAB_* names take
// precedence; the AZURE_* names are the conventional Azure SDK fallbacks.
const (
	EnvClientID     = "FAB_CLIENT_ID"
	EnvClientSecret = "FAB_CLIENT_SECRET"
	EnvTenantID     = "FAB_TENANT_ID"
	EnvUsername     = "FAB_USERNAME"
	EnvPassword     = "FAB_PASSWORD"

	EnvAzureClientID     = "AZURE_CLIENT_ID"
	EnvAzureClientSecret = "AZURE_CLIENT_SECRET"
	EnvAzureTenantID     = "AZURE_TENANT_ID"
	EnvKeyVaultName      = "AZURE_KEY_VAULT_NAME"

	// Set by managed-identity hosts, including Fabric notebook runtimes.
	envIdentityEndpoint = "IDENTITY_ENDPOINT"
	envMSIEndpoint      = "MSI_ENDPOINT"
)

// Names of the secrets a Key Vault must hold for vault mode.
const (
	vaultSecretClientID     = "fabric-client-id"
	vaultSecretClientSecret = "fabric-client-secret"
	vaultSecretTenantID     = "fabric-tenant-id"
)

func (r *Resolver) envOr(primary, fallback string) string {
	if v := r.getenv(primary); v != "" {
		return v
	}
	return r.getenv(fallback)
}

func (r *Resolver) clientID() string { return r.envOr(EnvClientID, EnvAzureClientID) }
func (r *Resolver) tenantID() string { return r.envOr(EnvTenantID, EnvAzureTenantID) }

func (r *Resolver) clientSecret() string {
	return r.envOr(EnvClientSecret, EnvAzureClientSecret)
}

// probe checks a mode's prerequisites without constructing a credential. It
// reports the failure kind through the sentinel errors so callers can tell a
// missing facility from missing configuration. Caller holds r.mu.
func (r *Resolver) probe(mode Mode) error {
	switch mode {
	case ModeFabric:
		if r.getenv(envIdentityEndpoint) == "" && r.getenv(envMSIEndpoint) == "" {
			return fmt.Errorf("%w: fabric mode needs a managed-identity endpoint (%s or %s)",
				ErrNotInHostEnvironment, envIdentityEndpoint, envMSIEndpoint)
		}
		return nil

	case ModeEnv:
		if r.clientID() == "" || r.tenantID() == "" {
			return fmt.Errorf("%w: env mode needs %s and %s (or their AZURE_* equivalents)",
				ErrCredentialsNotConfigured, EnvClientID, EnvTenantID)
		}
		if r.clientSecret() == "" && (r.getenv(EnvUsername) == "" || r.getenv(EnvPassword) == "") {
			return fmt.Errorf("%w: env mode needs %s, or %s and %s",
				ErrCredentialsNotConfigured, EnvClientSecret, EnvUsername, EnvPassword)
		}
		return nil

	case ModeVault:
		if r.getenv(EnvKeyVaultName) == "" {
			return fmt.Errorf("%w: vault mode needs %s", ErrProviderUnavailable, EnvKeyVaultName)
		}
		return nil

	case ModeOAuth:
		if r.tenantID() == "" {
			return fmt.Errorf("%w: oauth mode needs %s or %s to pick a tenant",
				ErrCredentialsNotConfigured, EnvTenantID, EnvAzureTenantID)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedProvider, mode)
}

// newCredential constructs the credential source for a mode. Construction is
// deferred to the first Token call so that a broken provider never blocks
// use of the others.
func newCredential(r *Resolver, mode Mode) (azcore.TokenCredential, error) {
	switch mode {
	case ModeEnv:
		return r.newEnvCredential()
	case ModeOAuth:
		return r.newOAuthCredential()
	case ModeVault:
		return r.newVaultCredential()
	case ModeFabric:
		return r.newFabricCredential()
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, mode)
}

func (r *Resolver) newEnvCredential() (azcore.TokenCredential, error) {
	tenant, client := r.tenantID(), r.clientID()
	if secret := r.clientSecret(); secret != "" {
		cred, err := azidentity.NewClientSecretCredential(tenant, client, secret, nil)
		if err != nil {
			return nil, fmt.Errorf("creating service principal credential: %w", err)
		}
		return cred, nil
	}

	username, password := r.getenv(EnvUsername), r.getenv(EnvPassword)
	cred, err := azidentity.NewUsernamePasswordCredential(tenant, client, username, password, nil)
	if err != nil {
		return nil, fmt.Errorf("creating username/password credential: %w", err)
	}
	return cred, nil
}

func (r *Resolver) newOAuthCredential() (azcore.TokenCredential, error) {
	opts := &azidentity.InteractiveBrowserCredentialOptions{
		TenantID: r.tenantID(),
	}
	if client := r.clientID(); client != "" {
		opts.ClientID = client
	}
	cred, err := azidentity.NewInteractiveBrowserCredential(opts)
	if err != nil {
		return nil, fmt.Errorf("creating interactive browser credential: %w", err)
	}
	return cred, nil
}

func (r *Resolver) newFabricCredential() (azcore.TokenCredential, error) {
	cred, err := azidentity.NewManagedIdentityCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("creating managed identity credential: %w", err)
	}
	return cred, nil
}

// newVaultCredential reads the service principal secrets from Azure Key
// Vault and builds a client secret credential from them. The vault itself is
// reached with the default Azure credential chain.
func (r *Resolver) newVaultCredential() (azcore.TokenCredential, error) {
	vaultName := r.getenv(EnvKeyVaultName)
	vaultCred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("creating credential for key vault access: %w", err)
	}

	vaultURL := fmt.Sprintf("https://%s.vault.azure.net", vaultName)
	secrets, err := azsecrets.NewClient(vaultURL, vaultCred, nil)
	if err != nil {
		return nil, fmt.Errorf("creating key vault client for %s: %w", vaultURL, err)
	}

	ctx := context.Background()
	tenant, err := readVaultSecret(ctx, secrets, vaultSecretTenantID)
	if err != nil {
		return nil, err
	}
	client, err := readVaultSecret(ctx, secrets, vaultSecretClientID)
	if err != nil {
		return nil, err
	}
	secret, err := readVaultSecret(ctx, secrets, vaultSecretClientSecret)
	if err != nil {
		return nil, err
	}

	cred, err := azidentity.NewClientSecretCredential(tenant, client, secret, nil)
	if err != nil {
		return nil, fmt.Errorf("creating service principal credential from key vault secrets: %w", err)
	}
	return cred, nil
}

func readVaultSecret(ctx context.Context, client *azsecrets.Client, name string) (string, error) {
	resp, err := client.GetSecret(ctx, name, "", nil)
	if err != nil {
		return "", fmt.Errorf("%w: reading secret %q from key vault: %v", ErrCredentialsNotConfigured, name, err)
	}
	if resp.Value == nil || *resp.Value == "" {
		return "", fmt.Errorf("%w: key vault secret %q is empty", ErrCredentialsNotConfigured, name)
	}
	return *resp.Value, nil
}
