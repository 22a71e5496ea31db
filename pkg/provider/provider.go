package provider

import (
	"context"
	"time"
)

// Provider defines the interface that every secret store backend implements.
//
// Implementations must be safe for concurrent use. Blocking operations take a
// context so callers can bound them with deadlines.
//
// Example usage:
//
//	p := providers.NewBarbicanProviderFromHelper("barbican", helper, logger)
//	if err := p.Validate(ctx); err != nil {
//	    return fmt.Errorf("provider validation failed: %w", err)
//	}
//
//	secret, err := p.Resolve(ctx, Reference{Key: secretRef})
//	if err != nil {
//	    return fmt.Errorf("failed to resolve secret: %w", err)
//	}
type Provider interface {
	// Name returns the provider's configured identifier.
	Name() string

	// Resolve retrieves a secret value. The Reference key is the
	// backend-specific secret reference.
	//
	// Implementations should return NotFoundError for missing secrets and
	// AuthError for authentication failures. Secret values must never be
	// logged.
	Resolve(ctx context.Context, ref Reference) (SecretValue, error)

	// Describe returns metadata about a secret without retrieving its value.
	// A missing secret yields Metadata{Exists: false} and a nil error.
	Describe(ctx context.Context, ref Reference) (Metadata, error)

	// Capabilities returns the provider's supported features.
	Capabilities() Capabilities

	// Validate checks that the provider is configured and can authenticate.
	Validate(ctx context.Context) error
}

// Writer is implemented by providers that can store new secrets.
type Writer interface {
	// CreateSecret stores payload under name and returns the backend's
	// reference to the new secret. Empty algorithm and non-positive bitLength
	// are omitted from the request.
	CreateSecret(ctx context.Context, name string, payload []byte, algorithm string, bitLength int) (string, error)
}

// Reference identifies a secret within a provider.
type Reference struct {
	// Provider is the name of the provider that owns this secret.
	Provider string

	// Key identifies the secret. For Barbican this is the secret reference
	// URL (or bare secret ID) returned when the secret was created.
	Key string

	// Version is reserved for backends with versioned secrets.
	Version string
}

// SecretValue represents a retrieved secret with its metadata.
type SecretValue struct {
	// Value is the raw secret data. Providers must never log this field.
	Value string

	// Version identifies the specific version of this secret, if any.
	Version string

	// UpdatedAt indicates when this secret was last modified.
	// May be zero time if the provider doesn't support timestamps.
	UpdatedAt time.Time

	// Metadata contains provider-specific information about the secret.
	Metadata map[string]string
}

// Metadata describes a secret without exposing its value.
type Metadata struct {
	// Exists indicates whether the secret exists in the provider.
	Exists bool

	Version   string
	UpdatedAt time.Time

	// Size is the approximate size of the secret value in bytes, 0 if unknown.
	Size int

	// Type is the backend's secret type (symmetric, opaque, passphrase ...).
	Type string

	// Tags contains provider-specific attributes such as algorithm and bit
	// length.
	Tags map[string]string
}

// Capabilities describes what features and operations a provider supports.
type Capabilities struct {
	SupportsVersioning bool
	SupportsMetadata   bool
	SupportsBinary     bool
	SupportsWrite      bool
	RequiresAuth       bool

	// AuthMethods lists the authentication methods supported by this
	// provider, e.g. "application_credential", "password", "certificate".
	AuthMethods []string
}
