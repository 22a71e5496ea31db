package providers

import (
	"fmt"
	"sort"

	"github.com/systmms/barbican-kms/internal/config"
	"github.com/systmms/barbican-kms/internal/logging"
	"github.com/systmms/barbican-kms/pkg/provider"
)

// Registry manages provider creation and registration
type Registry struct {
	factories map[string]ProviderFactory
}

// ProviderFactory creates a provider instance from configuration
type ProviderFactory func(name string, config map[string]interface{}) (provider.Provider, error)

// NewRegistry creates a new provider registry with built-in providers. The
// logger is handed to every provider the registry creates.
func NewRegistry(logger *logging.Logger) *Registry {
	registry := &Registry{
		factories: make(map[string]ProviderFactory),
	}

	barbican := NewBarbicanProviderFactory(logger)
	registry.RegisterFactory("barbican", barbican)
	registry.RegisterFactory("openstack.barbican", barbican)

	return registry
}

// RegisterFactory registers a provider factory for a given type
func (r *Registry) RegisterFactory(providerType string, factory ProviderFactory) {
	r.factories[providerType] = factory
}

// CreateProvider creates a provider instance from configuration
func (r *Registry) CreateProvider(name string, cfg config.StoreConfig) (provider.Provider, error) {
	factory, exists := r.factories[cfg.Type]
	if !exists {
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}

	return factory(name, cfg.Config)
}

// GetSupportedTypes returns the supported provider types in order
func (r *Registry) GetSupportedTypes() []string {
	types := make([]string, 0, len(r.factories))
	for providerType := range r.factories {
		types = append(types, providerType)
	}
	sort.Strings(types)
	return types
}

// IsSupported checks if a provider type is supported
func (r *Registry) IsSupported(providerType string) bool {
	_, exists := r.factories[providerType]
	return exists
}

// NewBarbicanProviderFactory returns a factory for Barbican stores
func NewBarbicanProviderFactory(logger *logging.Logger) ProviderFactory {
	return func(name string, config map[string]interface{}) (provider.Provider, error) {
		return NewBarbicanProvider(name, config, logger)
	}
}
