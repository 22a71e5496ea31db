package openstack

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gophercloud/gophercloud/v2"
	gcopenstack "github.com/gophercloud/gophercloud/v2/openstack"

	"github.com/systmms/barbican-kms/internal/logging"
	"github.com/systmms/barbican-kms/pkg/provider"
)

var (
	// ErrNotConnected is returned by operations that need a session before
	// Connect has succeeded.
	ErrNotConnected = errors.New("openstack helper is not connected")

	// ErrServiceUnavailable is returned when the catalog lacks an endpoint
	// for an optional service in the configured region.
	ErrServiceUnavailable = errors.New("service not available in catalog")
)

// Clients bundles the service adapters a Helper talks to.
type Clients struct {
	Identity   IdentityAPI
	KeyManager KeyManagerAPI
	Compute    ComputeAPI
	Discoverer Discoverer
}

// Helper owns one authenticated session and the project path cache.
//
// A Helper is safe for concurrent use.
type Helper struct {
	creds   Credentials
	authURL string
	logger  *logging.Logger

	mu        sync.RWMutex
	connected bool
	clients   Clients

	cacheMu      sync.RWMutex
	projectPaths map[string]string
}

// Option configures a Helper.
type Option func(*Helper)

// WithAuthURL overrides the region-derived identity endpoint.
func WithAuthURL(url string) Option {
	return func(h *Helper) {
		if url != "" {
			h.authURL = url
		}
	}
}

// WithLogger sets the logger used for request and lifecycle messages.
func WithLogger(logger *logging.Logger) Option {
	return func(h *Helper) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHelper creates an unconnected helper for creds.
func NewHelper(creds Credentials, opts ...Option) *Helper {
	h := &Helper{
		creds:        creds,
		authURL:      IdentityURL(creds.Region),
		logger:       logging.Discard(),
		projectPaths: make(map[string]string),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewConnectedHelper creates a helper that uses the given clients instead of
// authenticating. Nil clients behave like services missing from the catalog.
func NewConnectedHelper(creds Credentials, clients Clients, opts ...Option) *Helper {
	h := NewHelper(creds, opts...)
	h.clients = clients
	if h.clients.Discoverer != nil {
		h.clients.Discoverer = NormalizeDiscovery(h.clients.Discoverer)
	}
	h.connected = true
	return h
}

// Credentials returns the helper's connection configuration.
func (h *Helper) Credentials() Credentials {
	return h.creds
}

// AuthURL returns the identity endpoint the helper authenticates against.
func (h *Helper) AuthURL() string {
	return h.authURL
}

// Connected reports whether a session has been established.
func (h *Helper) Connected() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.connected
}

// Connect authenticates against Keystone and builds the service clients for
// the configured region. With validate set it additionally performs one
// read-only identity call; its failure is returned as a provider.AuthError.
// Nothing is retried.
func (h *Helper) Connect(ctx context.Context, validate bool) error {
	authOpts, err := h.creds.AuthOptions(h.authURL)
	if err != nil {
		return err
	}

	transport, err := h.creds.baseTransport()
	if err != nil {
		return err
	}

	pc, err := gcopenstack.NewClient(h.authURL)
	if err != nil {
		return fmt.Errorf("invalid identity endpoint %s: %w", h.authURL, err)
	}
	pc.HTTPClient = http.Client{
		Transport: &instrumentedTransport{next: transport, logger: h.logger},
	}

	h.logger.Debug("Authenticating %s@%s against %s", h.creds.Username, h.creds.UserDomainName, h.authURL)
	if err := gcopenstack.Authenticate(ctx, pc, authOpts); err != nil {
		return provider.AuthError{Provider: ServiceIdentity, Message: err.Error(), Err: err}
	}

	eo := gophercloud.EndpointOpts{Region: h.creds.Region}

	identity, err := gcopenstack.NewIdentityV3(pc, eo)
	if err != nil {
		return fmt.Errorf("failed to create identity client: %w", err)
	}
	clients := Clients{
		Identity:   NewIdentityClient(identity),
		Discoverer: NormalizeDiscovery(NewHTTPDiscoverer(pc)),
	}

	if keyManager, err := gcopenstack.NewKeyManagerV1(pc, eo); err == nil {
		clients.KeyManager = NewKeyManagerClient(keyManager)
	} else {
		h.logger.Warn("No key-manager endpoint in region %s: %v", h.creds.Region, err)
	}
	if compute, err := gcopenstack.NewComputeV2(pc, eo); err == nil {
		clients.Compute = NewComputeClient(compute)
	} else {
		h.logger.Debug("No compute endpoint in region %s: %v", h.creds.Region, err)
	}

	if validate {
		if err := validateSession(ctx, clients.Identity, h.creds.Region); err != nil {
			return err
		}
	}

	h.mu.Lock()
	h.clients = clients
	h.connected = true
	h.mu.Unlock()

	h.logger.Debug("Connected to region %s", h.creds.Region)
	return nil
}

// Validate performs the read-only identity call on an existing session.
func (h *Helper) Validate(ctx context.Context) error {
	identity, err := h.identityAPI()
	if err != nil {
		return err
	}
	return validateSession(ctx, identity, h.creds.Region)
}

// validateSession reads the configured region; any failure is an AuthError.
func validateSession(ctx context.Context, identity IdentityAPI, region string) error {
	err := identity.GetRegion(ctx, region)
	if err == nil {
		return nil
	}
	var authErr provider.AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	return provider.AuthError{Provider: ServiceIdentity, Message: "credential validation failed: " + err.Error(), Err: err}
}

// Identity returns the identity client.
func (h *Helper) Identity() (IdentityAPI, error) {
	return h.identityAPI()
}

// KeyManager returns the key-manager client.
func (h *Helper) KeyManager() (KeyManagerAPI, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.connected {
		return nil, ErrNotConnected
	}
	if h.clients.KeyManager == nil {
		return nil, fmt.Errorf("%s: %w", ServiceKeyManager, ErrServiceUnavailable)
	}
	return h.clients.KeyManager, nil
}

// Compute returns the compute client.
func (h *Helper) Compute() (ComputeAPI, error) {
	return h.computeAPI()
}

// DiscoverVersions returns the normalized version list published at url.
func (h *Helper) DiscoverVersions(ctx context.Context, url string) ([]Version, error) {
	h.mu.RLock()
	connected, discoverer := h.connected, h.clients.Discoverer
	h.mu.RUnlock()

	if !connected {
		return nil, ErrNotConnected
	}
	if discoverer == nil {
		return nil, fmt.Errorf("discovery: %w", ErrServiceUnavailable)
	}
	return discoverer.Versions(ctx, url)
}

func (h *Helper) identityAPI() (IdentityAPI, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.connected {
		return nil, ErrNotConnected
	}
	if h.clients.Identity == nil {
		return nil, fmt.Errorf("%s: %w", ServiceIdentity, ErrServiceUnavailable)
	}
	return h.clients.Identity, nil
}

func (h *Helper) computeAPI() (ComputeAPI, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.connected {
		return nil, ErrNotConnected
	}
	if h.clients.Compute == nil {
		return nil, fmt.Errorf("%s: %w", ServiceCompute, ErrServiceUnavailable)
	}
	return h.clients.Compute, nil
}
