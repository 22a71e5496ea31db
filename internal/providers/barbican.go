package providers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/systmms/barbican-kms/internal/config"
	"github.com/systmms/barbican-kms/internal/credstore"
	"github.com/systmms/barbican-kms/internal/logging"
	"github.com/systmms/barbican-kms/internal/metrics"
	"github.com/systmms/barbican-kms/internal/openstack"
	"github.com/systmms/barbican-kms/internal/secure"
	"github.com/systmms/barbican-kms/pkg/provider"
)

// Fixed attributes of every secret this provider creates.
const (
	SecretTypeSymmetric = "symmetric"
	PayloadContentType  = "text/plain"
)

// BarbicanProvider stores and retrieves symmetric secrets in Barbican.
// Payloads travel base64-encoded; callers only ever see raw bytes.
type BarbicanProvider struct {
	name     string
	helper   *openstack.Helper
	logger   *logging.Logger
	validate bool

	connectMu sync.Mutex
}

// NewBarbicanProviderFromHelper creates a provider on top of an existing
// helper. An unconnected helper is connected on first use.
func NewBarbicanProviderFromHelper(name string, helper *openstack.Helper, logger *logging.Logger) *BarbicanProvider {
	if logger == nil {
		logger = logging.Discard()
	}
	return &BarbicanProvider{
		name:     name,
		helper:   helper,
		logger:   logger,
		validate: true,
	}
}

// NewBarbicanProvider creates a provider from a store config map. Keys:
// region, user_domain_name, project_domain_name, project_name, username,
// auth_url and validate. Unset keys fall back to the OS_* environment. When
// no application credential secret is exported, the OS keyring is consulted.
//
// The provider does not connect until it is first used.
func NewBarbicanProvider(name string, cfg map[string]interface{}, logger *logging.Logger) (*BarbicanProvider, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	region := stringSetting(cfg, "region", openstack.EnvRegionName)
	if region == "" {
		return nil, fmt.Errorf("missing required 'region' for barbican provider %s (set it in the store or export OS_REGION_NAME)", name)
	}

	creds := openstack.CredentialsFromEnv(
		region,
		stringSetting(cfg, "user_domain_name", openstack.EnvUserDomainName),
		stringSetting(cfg, "project_domain_name", ""),
		stringSetting(cfg, "project_name", ""),
	)
	if username := stringSetting(cfg, "username", ""); username != "" {
		creds.Username = username
	}
	fillSecretFromKeyring(&creds, logger)

	validate, err := config.StoreConfig{Config: cfg}.Bool("validate", true)
	if err != nil {
		return nil, fmt.Errorf("barbican provider %s: %w", name, err)
	}

	opts := []openstack.Option{openstack.WithLogger(logger)}
	if authURL := stringSetting(cfg, "auth_url", ""); authURL != "" {
		opts = append(opts, openstack.WithAuthURL(authURL))
	}

	p := NewBarbicanProviderFromHelper(name, openstack.NewHelper(creds, opts...), logger)
	p.validate = validate
	return p, nil
}

// NewBarbicanStore reads the region and user domain from OS_REGION_NAME and
// OS_USER_DOMAIN_NAME, connects with credential validation and returns the
// ready provider.
func NewBarbicanStore(ctx context.Context, projectName, projectDomainName string, logger *logging.Logger) (*BarbicanProvider, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	creds := openstack.CredentialsFromEnv(
		os.Getenv(openstack.EnvRegionName),
		os.Getenv(openstack.EnvUserDomainName),
		projectDomainName,
		projectName,
	)
	if creds.Region == "" {
		return nil, fmt.Errorf("%s is not set", openstack.EnvRegionName)
	}
	fillSecretFromKeyring(&creds, logger)

	helper := openstack.NewHelper(creds, openstack.WithLogger(logger))
	if err := helper.Connect(ctx, true); err != nil {
		return nil, err
	}
	return NewBarbicanProviderFromHelper("barbican", helper, logger), nil
}

func stringSetting(cfg map[string]interface{}, key, env string) string {
	if v, ok := cfg[key].(string); ok && v != "" {
		return v
	}
	if env != "" {
		return os.Getenv(env)
	}
	return ""
}

func fillSecretFromKeyring(creds *openstack.Credentials, logger *logging.Logger) {
	if creds.ApplicationCredentialSecret != "" || creds.Username == "" {
		return
	}
	secret, err := credstore.Get(creds.Username, creds.Region)
	switch {
	case err == nil:
		logger.Debug("Using application credential secret for %s from keyring", credstore.Account(creds.Username, creds.Region))
		creds.ApplicationCredentialSecret = secret
	case errors.Is(err, credstore.ErrNotFound):
	default:
		logger.Debug("Keyring unavailable: %v", err)
	}
}

// Name returns the provider name
func (p *BarbicanProvider) Name() string {
	return p.name
}

// Helper returns the underlying connection helper.
func (p *BarbicanProvider) Helper() *openstack.Helper {
	return p.helper
}

// Connected returns the helper, connecting it first if needed.
func (p *BarbicanProvider) Connected(ctx context.Context) (*openstack.Helper, error) {
	p.connectMu.Lock()
	defer p.connectMu.Unlock()

	if !p.helper.Connected() {
		if err := p.helper.Connect(ctx, p.validate); err != nil {
			return nil, err
		}
	}
	return p.helper, nil
}

func (p *BarbicanProvider) keyManager(ctx context.Context) (openstack.KeyManagerAPI, error) {
	helper, err := p.Connected(ctx)
	if err != nil {
		return nil, err
	}
	return helper.KeyManager()
}

// CreateSecret stores payload as a symmetric secret and returns the secret
// reference exactly as Barbican reported it.
func (p *BarbicanProvider) CreateSecret(ctx context.Context, name string, payload []byte, algorithm string, bitLength int) (ref string, err error) {
	defer func() { metrics.RecordSecretOperation("create", err) }()

	km, err := p.keyManager(ctx)
	if err != nil {
		return "", err
	}

	attrs := openstack.SecretAttributes{
		Name:               name,
		SecretType:         SecretTypeSymmetric,
		PayloadContentType: PayloadContentType,
		Payload:            base64.StdEncoding.EncodeToString(payload),
	}
	if algorithm != "" {
		attrs.Algorithm = algorithm
	}
	if bitLength > 0 {
		attrs.BitLength = bitLength
	}

	ref, err = km.CreateSecret(ctx, attrs)
	if err != nil {
		return "", err
	}
	p.logger.Debug("Created secret %s (%d bytes) as %s", name, len(payload), ref)
	return ref, nil
}

// RetrieveSecret fetches the secret behind ref and returns its decoded
// payload. ref may be a full reference URL or a bare secret ID.
func (p *BarbicanProvider) RetrieveSecret(ctx context.Context, ref string) (data []byte, err error) {
	defer func() { metrics.RecordSecretOperation("retrieve", err) }()

	id := SecretID(ref)
	if id == "" {
		return nil, fmt.Errorf("invalid secret reference %q", ref)
	}

	km, err := p.keyManager(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := km.GetSecretPayload(ctx, id, PayloadContentType)
	if err != nil {
		return nil, err
	}

	data, err = base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, provider.DecodeError{Provider: p.name, Key: id, Err: err}
	}
	p.logger.Debug("Retrieved secret %s (%d bytes)", id, len(data))
	return data, nil
}

// SecretID returns the last path segment of a secret reference, ignoring
// trailing slashes.
func SecretID(ref string) string {
	ref = strings.TrimRight(strings.TrimSpace(ref), "/")
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

// Resolve retrieves the secret named by ref.Key
func (p *BarbicanProvider) Resolve(ctx context.Context, ref provider.Reference) (provider.SecretValue, error) {
	data, err := p.RetrieveSecret(ctx, ref.Key)
	if err != nil {
		return provider.SecretValue{}, err
	}
	return provider.SecretValue{
		Value: string(data),
		Metadata: map[string]string{
			"secret_id": SecretID(ref.Key),
		},
	}, nil
}

// ResolveSecure retrieves the secret into a memguard enclave. The caller
// must Destroy the payload.
func (p *BarbicanProvider) ResolveSecure(ctx context.Context, ref provider.Reference) (*secure.Payload, error) {
	data, err := p.RetrieveSecret(ctx, ref.Key)
	if err != nil {
		return nil, err
	}
	return secure.Seal(data), nil
}

// Describe returns secret metadata without fetching the payload
func (p *BarbicanProvider) Describe(ctx context.Context, ref provider.Reference) (meta provider.Metadata, err error) {
	defer func() { metrics.RecordSecretOperation("describe", err) }()

	id := SecretID(ref.Key)
	if id == "" {
		return provider.Metadata{}, fmt.Errorf("invalid secret reference %q", ref.Key)
	}

	km, err := p.keyManager(ctx)
	if err != nil {
		return provider.Metadata{}, err
	}

	rec, err := km.GetSecret(ctx, id)
	if err != nil {
		var notFound provider.NotFoundError
		if errors.As(err, &notFound) {
			return provider.Metadata{Exists: false}, nil
		}
		return provider.Metadata{}, err
	}

	tags := map[string]string{
		"name":   rec.Name,
		"status": rec.Status,
		"ref":    rec.Ref,
	}
	if rec.Algorithm != "" {
		tags["algorithm"] = rec.Algorithm
	}
	if rec.BitLength > 0 {
		tags["bit_length"] = strconv.Itoa(rec.BitLength)
	}
	if rec.Mode != "" {
		tags["mode"] = rec.Mode
	}
	if ct := rec.ContentTypes["default"]; ct != "" {
		tags["content_type"] = ct
	}
	if !rec.Created.IsZero() {
		tags["created"] = rec.Created.UTC().Format("2006-01-02T15:04:05Z")
	}

	return provider.Metadata{
		Exists:    true,
		UpdatedAt: rec.Updated,
		Type:      rec.SecretType,
		Tags:      tags,
	}, nil
}

// Capabilities returns the provider's capabilities
func (p *BarbicanProvider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		SupportsVersioning: false,
		SupportsMetadata:   true,
		SupportsBinary:     true,
		SupportsWrite:      true,
		RequiresAuth:       true,
		AuthMethods:        []string{openstack.AuthTypeApplicationCredential, openstack.AuthTypePassword, "certificate"},
	}
}

// Validate connects with credential validation, or re-validates an
// existing session.
func (p *BarbicanProvider) Validate(ctx context.Context) error {
	p.connectMu.Lock()
	defer p.connectMu.Unlock()

	if !p.helper.Connected() {
		return p.helper.Connect(ctx, true)
	}
	return p.helper.Validate(ctx)
}

var (
	_ provider.Provider = (*BarbicanProvider)(nil)
	_ provider.Writer   = (*BarbicanProvider)(nil)
)
