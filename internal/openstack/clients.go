package openstack

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gophercloud/gophercloud/v2"

	"github.com/systmms/barbican-kms/pkg/provider"
)

// Service names used in errors and logs.
const (
	ServiceIdentity   = "keystone"
	ServiceKeyManager = "barbican"
	ServiceCompute    = "nova"
)

// Project is the subset of a Keystone project needed for path resolution.
type Project struct {
	ID       string
	Name     string
	DomainID string
	ParentID string
	IsDomain bool
	Enabled  bool
}

// IdentityAPI is the identity surface the helper depends on.
type IdentityAPI interface {
	GetProject(ctx context.Context, id string) (*Project, error)
	// GetRegion is a cheap read-only call used to validate credentials.
	GetRegion(ctx context.Context, id string) error
}

// SecretAttributes are the fields sent when creating a secret. Zero values
// are omitted from the request.
type SecretAttributes struct {
	Name               string
	SecretType         string
	PayloadContentType string
	Payload            string
	Algorithm          string
	BitLength          int
}

// SecretRecord is secret metadata as returned by the key manager.
type SecretRecord struct {
	Ref          string
	Name         string
	SecretType   string
	Algorithm    string
	BitLength    int
	Mode         string
	Status       string
	ContentTypes map[string]string
	Created      time.Time
	Updated      time.Time
}

// KeyManagerAPI is the key-manager surface the secret store depends on.
type KeyManagerAPI interface {
	// CreateSecret stores a secret and returns its reference.
	CreateSecret(ctx context.Context, attrs SecretAttributes) (string, error)
	GetSecret(ctx context.Context, id string) (*SecretRecord, error)
	// GetSecretPayload returns the stored payload as sent at creation.
	GetSecretPayload(ctx context.Context, id, contentType string) ([]byte, error)
}

// ComputeAPI is the compute surface used for server lookups.
type ComputeAPI interface {
	GetServer(ctx context.Context, id string) (*Server, error)
}

// classifyError maps gophercloud failures onto the provider error taxonomy.
func classifyError(service, operation, key string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case gophercloud.ResponseCodeIs(err, http.StatusNotFound):
		return provider.NotFoundError{Provider: service, Key: key}
	case gophercloud.ResponseCodeIs(err, http.StatusUnauthorized):
		return provider.AuthError{Provider: service, Message: "credentials rejected during " + operation, Err: err}
	case gophercloud.ResponseCodeIs(err, http.StatusForbidden):
		return provider.AuthError{Provider: service, Message: "permission denied during " + operation, Err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return provider.TransportError{Provider: service, Operation: operation, Err: err}
	}

	return fmt.Errorf("%s %s %s: %w", service, operation, key, err)
}
