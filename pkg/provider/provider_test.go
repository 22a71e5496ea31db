package provider

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      NotFoundError
		expected string
	}{
		{
			name:     "secret",
			err:      NotFoundError{Provider: "barbican", Key: "0a1b2c"},
			expected: "not found: 0a1b2c in barbican",
		},
		{
			name:     "empty key",
			err:      NotFoundError{Provider: "keystone"},
			expected: "not found:  in keystone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAuthErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("401 Unauthorized")
	err := fmt.Errorf("connect: %w", AuthError{Provider: "keystone", Message: "bad credentials", Err: cause})

	var authErr AuthError
	assert.True(t, errors.As(err, &authErr))
	assert.Equal(t, "keystone", authErr.Provider)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "authentication failed for keystone: bad credentials", authErr.Error())
}

func TestDecodeError(t *testing.T) {
	t.Parallel()

	cause := errors.New("illegal base64 data at input byte 4")
	err := DecodeError{Provider: "barbican", Key: "abc", Err: cause}

	assert.Equal(t, "failed to decode payload of abc from barbican: illegal base64 data at input byte 4", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to decode payload of abc from barbican", DecodeError{Provider: "barbican", Key: "abc"}.Error())
}

func TestTransportError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := TransportError{Provider: "barbican", Operation: "create secret", Err: cause}

	assert.Equal(t, "barbican create secret failed in transport: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}
