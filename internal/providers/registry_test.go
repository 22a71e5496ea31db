package providers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/barbican-kms/internal/config"
	"github.com/systmms/barbican-kms/internal/providers"
	"github.com/systmms/barbican-kms/tests/testutil"
)

// TestRegistrySupportedTypes validates registry initialization
func TestRegistrySupportedTypes(t *testing.T) {
	t.Parallel()

	registry := providers.NewRegistry(nil)
	assert.Equal(t, []string{"barbican", "openstack.barbican"}, registry.GetSupportedTypes())
	assert.True(t, registry.IsSupported("barbican"))
	assert.False(t, registry.IsSupported("vault"))
}

// TestRegistryCreateProvider validates provider creation from store config
func TestRegistryCreateProvider(t *testing.T) {
	testutil.SetupOpenStackEnv(t, testutil.AppCredentialEnv("qa-de-1"))

	registry := providers.NewRegistry(nil)

	for _, storeType := range []string{"barbican", "openstack.barbican"} {
		p, err := registry.CreateProvider("kms", config.StoreConfig{
			Type:   storeType,
			Config: map[string]interface{}{"project_name": "p"},
		})
		require.NoError(t, err, storeType)
		assert.Equal(t, "kms", p.Name())
		assert.IsType(t, &providers.BarbicanProvider{}, p)
	}

	_, err := registry.CreateProvider("x", config.StoreConfig{Type: "aws.secretsmanager"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider type")
}
