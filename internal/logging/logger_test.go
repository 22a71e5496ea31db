package logging

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecretRedaction(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "application credential secret", input: "s3cr3t-app-cred"},
		{name: "empty secret is still redacted", input: ""},
		{name: "base64 payload", input: "aGVsbG8="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, "[REDACTED]", Secret(tt.input).String())
			assert.Equal(t, "[REDACTED]", fmt.Sprintf("%#v", Secret(tt.input)))
		})
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, false, true)

	logger.Info("connected to %s", "eu-de-1")
	logger.Warn("compute endpoint missing")
	logger.Error("lookup failed")
	logger.Debug("hidden")

	assert.Equal(t, "✓ connected to eu-de-1\n⚠ compute endpoint missing\n✗ lookup failed\n", buf.String())
	assert.False(t, logger.DebugEnabled())
}

func TestLoggerDebugAndColor(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, true, false)

	logger.Debug("GET %s", "/v3/projects/abc")

	assert.Contains(t, buf.String(), "[DEBUG]")
	assert.Contains(t, buf.String(), "\033[36m")
	assert.Contains(t, buf.String(), "GET /v3/projects/abc")
}

func TestLoggerNeverPrintsSecretValue(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, true, true)

	logger.Info("payload: %s", Secret("hunter2-payload"))
	logger.Debug("payload: %v", Secret("hunter2-payload"))

	assert.NotContains(t, buf.String(), "hunter2-payload")
	assert.Contains(t, buf.String(), "[REDACTED]")
}

func TestRedact(t *testing.T) {
	out := Redact("auth with app-cred-secret failed for abc", []string{"app-cred-secret", "abc", ""})
	assert.Equal(t, "auth with [REDACTED] failed for abc", out)
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("nothing to see")
	assert.False(t, logger.DebugEnabled())
}
