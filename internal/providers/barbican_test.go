package providers_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/barbican-kms/internal/openstack"
	"github.com/systmms/barbican-kms/internal/providers"
	"github.com/systmms/barbican-kms/pkg/provider"
	"github.com/systmms/barbican-kms/tests/fakes"
	"github.com/systmms/barbican-kms/tests/testutil"
)

func newFakeStore(t *testing.T) (*providers.BarbicanProvider, *fakes.FakeKeyManager, *fakes.FakeIdentity) {
	t.Helper()

	km := fakes.NewFakeKeyManager()
	identity := fakes.NewFakeIdentity()
	helper := openstack.NewConnectedHelper(
		openstack.Credentials{Region: "qa-de-1"},
		openstack.Clients{Identity: identity, KeyManager: km},
	)
	return providers.NewBarbicanProviderFromHelper("barbican", helper, nil), km, identity
}

func TestBarbicanCreateSecret(t *testing.T) {
	t.Parallel()

	p, km, _ := newFakeStore(t)

	ref, err := p.CreateSecret(context.Background(), "k", []byte("hello"), "", 0)
	require.NoError(t, err)
	assert.Equal(t, fakes.FakeSecretRefPrefix+"secret-0001", ref)

	assert.Equal(t, openstack.SecretAttributes{
		Name:               "k",
		SecretType:         "symmetric",
		PayloadContentType: "text/plain",
		Payload:            "aGVsbG8=",
	}, km.LastCreate)
}

func TestBarbicanCreateSecretAlgorithm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		algorithm string
		bitLength int
		wantAlg   string
		wantBits  int
	}{
		{name: "both", algorithm: "aes", bitLength: 256, wantAlg: "aes", wantBits: 256},
		{name: "algorithm_only", algorithm: "aes", wantAlg: "aes"},
		{name: "bit_length_only", bitLength: 128, wantBits: 128},
		{name: "negative_bit_length_omitted", bitLength: -1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, km, _ := newFakeStore(t)
			_, err := p.CreateSecret(context.Background(), "k", []byte("x"), tt.algorithm, tt.bitLength)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAlg, km.LastCreate.Algorithm)
			assert.Equal(t, tt.wantBits, km.LastCreate.BitLength)
		})
	}
}

func TestBarbicanRoundTrip(t *testing.T) {
	t.Parallel()

	payloads := map[string][]byte{
		"text":   []byte("hello"),
		"empty":  {},
		"binary": {0x00, 0xff, 0x10, 0x80, 0x7f},
		"large":  bytes.Repeat([]byte("k"), 10000),
	}

	for name, payload := range payloads {
		name, payload := name, payload
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			p, _, _ := newFakeStore(t)
			ctx := context.Background()

			ref, err := p.CreateSecret(ctx, name, payload, "", 0)
			require.NoError(t, err)

			got, err := p.RetrieveSecret(ctx, ref)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(payload, got), "payload mismatch")
		})
	}
}

func TestBarbicanRetrieveSecretReferenceForms(t *testing.T) {
	t.Parallel()

	p, km, _ := newFakeStore(t)
	km.AddSecret("abc-123", "k", base64.StdEncoding.EncodeToString([]byte("payload")))

	refs := []string{
		"https://barbican.test/v1/secrets/abc-123",
		"https://barbican.test/v1/secrets/abc-123/",
		"abc-123",
	}
	for _, ref := range refs {
		got, err := p.RetrieveSecret(context.Background(), ref)
		require.NoError(t, err, ref)
		assert.Equal(t, "payload", string(got))
	}
	assert.Equal(t, "text/plain", km.LastContentType)
}

func TestBarbicanRetrieveSecretErrors(t *testing.T) {
	t.Parallel()

	p, km, _ := newFakeStore(t)
	km.AddSecret("bad", "k", "%%%not-base64")
	ctx := context.Background()

	_, err := p.RetrieveSecret(ctx, fakes.FakeSecretRefPrefix+"missing")
	var notFound provider.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "missing", notFound.Key)

	_, err = p.RetrieveSecret(ctx, fakes.FakeSecretRefPrefix+"bad")
	var decodeErr provider.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "bad", decodeErr.Key)

	_, err = p.RetrieveSecret(ctx, "///")
	assert.Error(t, err)
}

func TestSecretID(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"https://kms.test/v1/secrets/0a1b":   "0a1b",
		"https://kms.test/v1/secrets/0a1b//": "0a1b",
		"0a1b":                               "0a1b",
		"":                                   "",
		"/":                                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, providers.SecretID(in), in)
	}
}

func TestBarbicanResolve(t *testing.T) {
	t.Parallel()

	p, _, _ := newFakeStore(t)
	ref, err := p.CreateSecret(context.Background(), "db", []byte("pw"), "", 0)
	require.NoError(t, err)

	val, err := p.Resolve(context.Background(), provider.Reference{Key: ref})
	require.NoError(t, err)
	assert.Equal(t, "pw", val.Value)
	assert.Equal(t, "secret-0001", val.Metadata["secret_id"])

	secured, err := p.ResolveSecure(context.Background(), provider.Reference{Key: ref})
	require.NoError(t, err)
	defer secured.Destroy()

	var buf bytes.Buffer
	_, err = secured.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, "pw", buf.String())
}

func TestBarbicanDescribe(t *testing.T) {
	t.Parallel()

	p, _, _ := newFakeStore(t)
	ctx := context.Background()

	ref, err := p.CreateSecret(ctx, "db", []byte("pw"), "aes", 256)
	require.NoError(t, err)

	meta, err := p.Describe(ctx, provider.Reference{Key: ref})
	require.NoError(t, err)
	assert.True(t, meta.Exists)
	assert.Equal(t, "symmetric", meta.Type)
	assert.Equal(t, "db", meta.Tags["name"])
	assert.Equal(t, "aes", meta.Tags["algorithm"])
	assert.Equal(t, "256", meta.Tags["bit_length"])
	assert.Equal(t, "text/plain", meta.Tags["content_type"])
	assert.NotContains(t, meta.Tags, "payload")

	missing, err := p.Describe(ctx, provider.Reference{Key: fakes.FakeSecretRefPrefix + "nope"})
	require.NoError(t, err)
	assert.False(t, missing.Exists)
}

func TestBarbicanKeyManagerErrors(t *testing.T) {
	t.Parallel()

	p, km, _ := newFakeStore(t)
	km.CreateErr = provider.AuthError{Provider: "barbican", Message: "forbidden"}

	_, err := p.CreateSecret(context.Background(), "k", []byte("x"), "", 0)
	var authErr provider.AuthError
	assert.True(t, errors.As(err, &authErr))

	noKM := providers.NewBarbicanProviderFromHelper("barbican",
		openstack.NewConnectedHelper(openstack.Credentials{}, openstack.Clients{}), nil)
	_, err = noKM.RetrieveSecret(context.Background(), "abc")
	assert.ErrorIs(t, err, openstack.ErrServiceUnavailable)
}

func TestBarbicanValidate(t *testing.T) {
	t.Parallel()

	p, _, identity := newFakeStore(t)
	require.NoError(t, p.Validate(context.Background()))
	assert.Equal(t, 1, identity.RegionCalls())

	identity.RegionErr = errors.New("boom")
	err := p.Validate(context.Background())
	var authErr provider.AuthError
	assert.True(t, errors.As(err, &authErr))
}

func TestBarbicanCapabilities(t *testing.T) {
	t.Parallel()

	p, _, _ := newFakeStore(t)
	caps := p.Capabilities()
	assert.True(t, caps.SupportsWrite)
	assert.True(t, caps.SupportsBinary)
	assert.True(t, caps.RequiresAuth)
	assert.False(t, caps.SupportsVersioning)
	assert.Contains(t, caps.AuthMethods, openstack.AuthTypeApplicationCredential)
	assert.Equal(t, "barbican", p.Name())
}

func TestNewBarbicanProviderFromConfig(t *testing.T) {
	env := testutil.AppCredentialEnv("qa-de-1")
	testutil.SetupOpenStackEnv(t, env)

	p, err := providers.NewBarbicanProvider("prod", map[string]interface{}{
		"region":              "eu-de-1",
		"project_name":        "cloud_admin",
		"project_domain_name": "ccadmin",
		"auth_url":            "https://keystone.test/v3",
		"validate":            false,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "prod", p.Name())
	creds := p.Helper().Credentials()
	assert.Equal(t, "eu-de-1", creds.Region)
	assert.Equal(t, "Default", creds.UserDomainName, "falls back to OS_USER_DOMAIN_NAME")
	assert.Equal(t, "cloud_admin", creds.ProjectName)
	assert.Equal(t, "kms-cred", creds.ApplicationCredentialName)
	assert.Equal(t, "https://keystone.test/v3", p.Helper().AuthURL())
	assert.False(t, p.Helper().Connected(), "factory does not connect")
}

func TestNewBarbicanProviderErrors(t *testing.T) {
	testutil.SetupOpenStackEnv(t, nil)

	_, err := providers.NewBarbicanProvider("x", map[string]interface{}{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region")

	_, err = providers.NewBarbicanProvider("x", map[string]interface{}{"region": "r", "validate": "maybe"}, nil)
	assert.Error(t, err)

	_, err = providers.NewBarbicanProvider("x", map[string]interface{}{"region": "r", "validate": 3}, nil)
	assert.Error(t, err)

	p, err := providers.NewBarbicanProvider("x", map[string]interface{}{"region": "r", "validate": "false"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestNewBarbicanStoreRequiresRegion(t *testing.T) {
	testutil.SetupOpenStackEnv(t, nil)

	_, err := providers.NewBarbicanStore(context.Background(), "p", "d", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OS_REGION_NAME")
}

func TestNewBarbicanStoreMissingCredentials(t *testing.T) {
	testutil.SetupOpenStackEnv(t, map[string]string{
		"OS_REGION_NAME":      "qa-de-1",
		"OS_USER_DOMAIN_NAME": "Default",
	})

	// No username, so the keyring is never consulted and auth options fail
	// before any network call.
	_, err := providers.NewBarbicanStore(context.Background(), "p", "d", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "application credential")
}
