package errors_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/stretchr/testify/assert"
	"github.com/systmms/barbican-kms/internal/errors"
	"github.com/systmms/barbican-kms/pkg/provider"
)

func TestUserErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.UserError{
		Message:    "Operation failed",
		Details:    "Connection timeout",
		Suggestion: "Check network connectivity",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "Operation failed")
	assert.Contains(t, errMsg, "Details: Connection timeout")
	assert.Contains(t, errMsg, "Try: Check network connectivity")
}

func TestUserErrorFallsBackToWrappedMessage(t *testing.T) {
	t.Parallel()

	err := errors.UserError{Err: fmt.Errorf("boom")}
	assert.Equal(t, "boom", err.Error())
}

func TestConfigErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.ConfigError{
		Field:      "auth_url",
		Value:      "ftp://identity",
		Message:    "must be an http(s) URL",
		Suggestion: "Use https://identity-3.<region>.cloud.sap/v3",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "in field 'auth_url'")
	assert.Contains(t, errMsg, "(value: ftp://identity)")
	assert.Contains(t, errMsg, "must be an http(s) URL")
	assert.Contains(t, errMsg, "identity-3.<region>")
}

func TestProviderErrorSuggestions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		service  string
		err      error
		contains string
	}{
		{
			name:     "auth error",
			service:  "keystone",
			err:      provider.AuthError{Provider: "keystone", Message: "bad"},
			contains: "barbican-kms login",
		},
		{
			name:     "missing project",
			service:  "keystone",
			err:      provider.NotFoundError{Provider: "keystone", Key: "p1"},
			contains: "project ID exists",
		},
		{
			name:     "missing secret",
			service:  "barbican",
			err:      fmt.Errorf("get: %w", provider.NotFoundError{Provider: "barbican", Key: "s1"}),
			contains: "existing secret ID",
		},
		{
			name:     "bad payload",
			service:  "barbican",
			err:      provider.DecodeError{Provider: "barbican", Key: "s1"},
			contains: "not base64",
		},
		{
			name:     "transport",
			service:  "barbican",
			err:      provider.TransportError{Provider: "barbican", Operation: "get"},
			contains: "OS_REGION_NAME",
		},
		{
			name:    "forbidden secret",
			service: "barbican",
			err: fmt.Errorf("create: %w", provider.AuthError{
				Provider: "barbican",
				Message:  "permission denied during create secret",
				Err:      gophercloud.ErrUnexpectedResponseCode{Actual: http.StatusForbidden},
			}),
			contains: "key-manager permissions",
		},
		{
			name:    "forbidden project",
			service: "keystone",
			err: fmt.Errorf("resolve: %w", provider.AuthError{
				Provider: "keystone",
				Message:  "permission denied during get project",
				Err:      gophercloud.ErrUnexpectedResponseCode{Actual: http.StatusForbidden},
			}),
			contains: "required role",
		},
		{
			name:     "incompatible algorithm",
			service:  "barbican",
			err:      fmt.Errorf("Expected HTTP response code [201] but got 400"),
			contains: "algorithm and bit length",
		},
		{
			name:     "timeout",
			service:  "nova",
			err:      fmt.Errorf("context deadline exceeded"),
			contains: "--timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := errors.ProviderError(tt.service, "test", tt.err)
			assert.Contains(t, err.Error(), tt.service+" error during test")
			assert.Contains(t, err.Error(), tt.contains)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"timeout", fmt.Errorf("operation timeout"), true},
		{"refused", fmt.Errorf("dial tcp: connection refused"), true},
		{"throttled", gophercloud.ErrUnexpectedResponseCode{Actual: http.StatusTooManyRequests}, true},
		{"unavailable", fmt.Errorf("get secret: %w", gophercloud.ErrUnexpectedResponseCode{Actual: http.StatusServiceUnavailable}), true},
		{"forbidden", gophercloud.ErrUnexpectedResponseCode{Actual: http.StatusForbidden}, false},
		{"transport", provider.TransportError{Provider: "barbican", Err: fmt.Errorf("dial")}, true},
		{"not_found", provider.NotFoundError{Provider: "barbican", Key: "x"}, false},
		{"nil_error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.retryable, errors.IsRetryable(tt.err))
		})
	}
}

func TestSimplifyError(t *testing.T) {
	t.Parallel()

	yamlErr := errors.SimplifyError(fmt.Errorf("load: %w", fmt.Errorf("yaml: line 5: mapping values are not allowed")))
	_, ok := yamlErr.(errors.ConfigError)
	assert.True(t, ok)
	assert.Contains(t, yamlErr.Error(), "Invalid YAML")

	permErr := errors.SimplifyError(fmt.Errorf("open /etc/x: permission denied"))
	_, ok = permErr.(errors.UserError)
	assert.True(t, ok)

	user := errors.UserError{Message: "kept"}
	assert.Equal(t, user, errors.SimplifyError(user))

	plain := fmt.Errorf("something else")
	assert.Equal(t, plain, errors.SimplifyError(plain))

	assert.Nil(t, errors.SimplifyError(nil))
}
