// Package testutil provides test utilities and helpers for barbican-kms tests.
//
// This package contains environment isolation, a config file builder and a
// capturing logger.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

// TestConfigBuilder provides a fluent API for writing barbican-kms.yaml
// files in tests.
//
// Example usage:
//
//	path := NewTestConfig(t).
//	    WithStore("qa", "barbican", map[string]any{"region": "qa-de-1"}).
//	    WithDefaultStore("qa").
//	    Write()
type TestConfigBuilder struct {
	t            *testing.T
	defaultStore string
	stores       map[string]map[string]any
}

// NewTestConfig creates a builder without stores.
func NewTestConfig(t *testing.T) *TestConfigBuilder {
	t.Helper()

	return &TestConfigBuilder{
		t:      t,
		stores: make(map[string]map[string]any),
	}
}

// WithStore adds a store of storeType with the given settings.
func (b *TestConfigBuilder) WithStore(name, storeType string, cfg map[string]any) *TestConfigBuilder {
	b.t.Helper()

	store := map[string]any{"type": storeType}
	for k, v := range cfg {
		store[k] = v
	}
	b.stores[name] = store
	return b
}

// WithDefaultStore sets default_store.
func (b *TestConfigBuilder) WithDefaultStore(name string) *TestConfigBuilder {
	b.defaultStore = name
	return b
}

// Write marshals the config into a temp dir and returns its path.
func (b *TestConfigBuilder) Write() string {
	b.t.Helper()

	doc := map[string]any{"version": 1}
	if b.defaultStore != "" {
		doc["default_store"] = b.defaultStore
	}
	if len(b.stores) > 0 {
		doc["stores"] = b.stores
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		b.t.Fatalf("Failed to marshal test config: %v", err)
	}
	return WriteTestConfig(b.t, string(data))
}

// WriteTestConfig writes yamlContent to barbican-kms.yaml in a temp dir and
// returns its path.
func WriteTestConfig(t *testing.T, yamlContent string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "barbican-kms.yaml")
	if err := os.WriteFile(path, []byte(yamlContent), 0o600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}
