package secrets

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"go.uber.org/zap"
)

// SecretSource defines where secrets are loaded from
type SecretSource string

const (
	// SourceEnvironment loads secrets from environment variables
	SourceEnvironment SecretSource = "environment"
	// SourceVault loads secrets from Azure Key Vault
	SourceVault SecretSource = "vault"
	// SourceAuto uses vault in staging/production, environment in development
	SourceAuto SecretSource = "auto"
)

// Provider abstracts secret retrieval from environment variables or
// Azure Key Vault, with an optional in-process cache in front of the vault.
type Provider struct {
	source       SecretSource
	client       *azsecrets.Client
	logger       *zap.Logger
	environment  string
	cacheEnabled bool
	cacheTTL     time.Duration

	mu    sync.Mutex
	cache map[string]cachedSecret
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

// ProviderConfig holds configuration for the secrets provider
type ProviderConfig struct {
	Source       SecretSource
	VaultName    string
	Environment  string // "development", "staging", "production"
	CacheEnabled bool
	CacheTTL     time.Duration
}

// NewProvider creates a new secrets provider. For the vault source the
// client authenticates via DefaultAzureCredential (env vars, managed
// identity, or Azure CLI credentials in local development).
func NewProvider(cfg *ProviderConfig, logger *zap.Logger) (*Provider, error) {
	source := cfg.Source

	if source == SourceAuto {
		switch cfg.Environment {
		case "development", "local", "":
			source = SourceEnvironment
		default:
			source = SourceVault
		}
		logger.Info("Auto-detected secret source",
			zap.String("source", string(source)),
			zap.String("environment", cfg.Environment),
		)
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	provider := &Provider{
		source:       source,
		logger:       logger,
		environment:  cfg.Environment,
		cacheEnabled: cfg.CacheEnabled,
		cacheTTL:     cacheTTL,
		cache:        make(map[string]cachedSecret),
	}

	if source == SourceVault {
		if cfg.VaultName == "" {
			return nil, fmt.Errorf("vault name required when using vault secret source")
		}

		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure credential: %w", err)
		}

		vaultURL := fmt.Sprintf("https://%s.vault.azure.net/", cfg.VaultName)
		client, err := azsecrets.NewClient(vaultURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
		}
		provider.client = client

		logger.Info("Azure Key Vault client initialized",
			zap.String("vault_url", vaultURL),
			zap.Bool("cache_enabled", cfg.CacheEnabled),
		)
	}

	return provider, nil
}

// GetSecret retrieves a secret by name. For the vault source secretName is
// the Key Vault secret name; for the environment source it is the variable
// name.
func (p *Provider) GetSecret(ctx context.Context, secretName string) (string, error) {
	switch p.source {
	case SourceEnvironment:
		value := os.Getenv(secretName)
		if value == "" {
			return "", fmt.Errorf("environment variable '%s' not set", secretName)
		}
		return value, nil

	case SourceVault:
		return p.getVaultSecret(ctx, secretName)

	default:
		return "", fmt.Errorf("unknown secret source: %s", p.source)
	}
}

// GetSecretOrEnv returns the environment variable when explicitly set,
// otherwise falls back to the configured source. Lets operators override
// individual vault secrets without touching the vault.
func (p *Provider) GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error) {
	if envValue := os.Getenv(envName); envValue != "" {
		p.logger.Debug("Using environment variable override",
			zap.String("env_name", envName),
		)
		return envValue, nil
	}
	return p.GetSecret(ctx, secretName)
}

func (p *Provider) getVaultSecret(ctx context.Context, secretName string) (string, error) {
	if p.client == nil {
		return "", fmt.Errorf("vault client not initialized")
	}

	if p.cacheEnabled {
		p.mu.Lock()
		cached, ok := p.cache[secretName]
		if ok && time.Now().Before(cached.expiresAt) {
			p.mu.Unlock()
			return cached.value, nil
		}
		delete(p.cache, secretName)
		p.mu.Unlock()
	}

	resp, err := p.client.GetSecret(ctx, secretName, "", nil)
	if err != nil {
		p.logger.Error("Failed to get secret from Key Vault",
			zap.String("secret_name", secretName),
			zap.Error(err),
		)
		return "", fmt.Errorf("failed to get secret '%s': %w", secretName, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("secret '%s' has no value", secretName)
	}

	value := *resp.Value
	if p.cacheEnabled {
		p.mu.Lock()
		p.cache[secretName] = cachedSecret{value: value, expiresAt: time.Now().Add(p.cacheTTL)}
		p.mu.Unlock()
	}
	return value, nil
}

// Source returns the current secret source
func (p *Provider) Source() SecretSource {
	return p.source
}

// IsVaultEnabled returns true if secrets are loaded from vault
func (p *Provider) IsVaultEnabled() bool {
	return p.source == SourceVault
}

// ClearCache drops all cached secrets, forcing the next read to hit the vault.
func (p *Provider) ClearCache() {
	p.mu.Lock()
	p.cache = make(map[string]cachedSecret)
	p.mu.Unlock()
}
