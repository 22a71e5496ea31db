// Package providers_test runs the Barbican store against a live cloud.
//
// The tests need a complete OS_* application credential environment and
// are skipped otherwise. Set BARBICAN_KMS_IT_PROJECT to the project the
// credential is scoped to; secrets are created there and left behind with a
// barbican-kms-it- name prefix.
package providers_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/barbican-kms/internal/providers"
	"github.com/systmms/barbican-kms/pkg/provider"
	"github.com/systmms/barbican-kms/tests/testutil"
)

func liveStore(t *testing.T) *providers.BarbicanProvider {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	for _, key := range []string{"OS_REGION_NAME", "OS_USERNAME", "OS_APPLICATION_CREDENTIAL_NAME", "OS_APPLICATION_CREDENTIAL_SECRET"} {
		if os.Getenv(key) == "" {
			t.Skipf("Skipping integration test: %s not set", key)
		}
	}
	project := os.Getenv("BARBICAN_KMS_IT_PROJECT")
	if project == "" {
		t.Skip("Skipping integration test: BARBICAN_KMS_IT_PROJECT not set")
	}
	domain := os.Getenv("BARBICAN_KMS_IT_PROJECT_DOMAIN")
	if domain == "" {
		domain = os.Getenv("OS_USER_DOMAIN_NAME")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := testutil.NewTestLogger(t, true)
	store, err := providers.NewBarbicanStore(ctx, project, domain, logger.Logger)
	require.NoError(t, err, "Failed to connect to Barbican")
	return store
}

func TestBarbicanProviderIntegration(t *testing.T) {
	store := liveStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	name := fmt.Sprintf("barbican-kms-it-%d", time.Now().UnixNano())

	t.Run("binary_key_round_trip", func(t *testing.T) {
		key := make([]byte, 32)
		_, err := rand.Read(key)
		require.NoError(t, err)

		ref, err := store.CreateSecret(ctx, name, key, "aes", 256)
		require.NoError(t, err, "Failed to create secret")
		assert.Contains(t, ref, "/secrets/")

		got, err := store.RetrieveSecret(ctx, ref)
		require.NoError(t, err, "Failed to retrieve secret")
		assert.True(t, bytes.Equal(key, got), "Payload should round-trip unchanged")

		meta, err := store.Describe(ctx, provider.Reference{Key: ref})
		require.NoError(t, err)
		assert.True(t, meta.Exists)
		assert.Equal(t, name, meta.Tags["name"])
		assert.Equal(t, "aes", meta.Tags["algorithm"])
	})

	t.Run("missing_secret", func(t *testing.T) {
		meta, err := store.Describe(ctx, provider.Reference{Key: "00000000-0000-0000-0000-000000000000"})
		require.NoError(t, err)
		assert.False(t, meta.Exists)
	})

	t.Run("project_path", func(t *testing.T) {
		id := os.Getenv("BARBICAN_KMS_IT_PROJECT_ID")
		if id == "" {
			t.Skip("BARBICAN_KMS_IT_PROJECT_ID not set")
		}

		helper, err := store.Connected(ctx)
		require.NoError(t, err)

		path, err := helper.ResolveProjectPath(ctx, id, true)
		require.NoError(t, err)
		assert.Contains(t, path, "/"+os.Getenv("BARBICAN_KMS_IT_PROJECT"))
		assert.Equal(t, path, helper.CachedProjectPaths()[id])
	})
}
