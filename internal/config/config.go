package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	dserrors "github.com/systmms/barbican-kms/internal/errors"
	"github.com/systmms/barbican-kms/internal/logging"
)

const (
	// DefaultPath is the config file looked up when --config is not given.
	DefaultPath = "barbican-kms.yaml"

	// DefaultStore names the store used when none is selected.
	DefaultStore = "default"

	// DefaultTimeout applies to stores without timeout_ms.
	DefaultTimeout = 30 * time.Second
)

// Environment variables that take precedence over store settings.
var envOverrides = map[string]string{
	"region":           "OS_REGION_NAME",
	"user_domain_name": "OS_USER_DOMAIN_NAME",
}

//go:embed schema.json
var schema []byte

// Config holds the runtime configuration
type Config struct {
	Path   string
	Logger *logging.Logger

	// Store selects a store by name; empty means default_store.
	Store string

	// Timeout overrides the store's timeout_ms when positive.
	Timeout time.Duration

	Definition *Definition
}

// Definition represents the barbican-kms.yaml structure
type Definition struct {
	Version      int                    `yaml:"version"`
	DefaultStore string                 `yaml:"default_store,omitempty"`
	Stores       map[string]StoreConfig `yaml:"stores,omitempty"`
}

// StoreConfig holds the settings of one secret store
type StoreConfig struct {
	Type      string                 `yaml:"type"`
	TimeoutMs int                    `yaml:"timeout_ms,omitempty"`
	Config    map[string]interface{} `yaml:",inline"`
}

// Default returns the definition used when no config file exists: a single
// barbican store configured entirely from the environment.
func Default() *Definition {
	def := &Definition{
		Version: 1,
		Stores: map[string]StoreConfig{
			DefaultStore: {Type: "barbican", Config: map[string]interface{}{}},
		},
	}
	applyEnvOverrides(def)
	return def
}

// Load reads and parses the config file. A missing file is an error.
func (c *Config) Load() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return dserrors.ConfigError{
				Field:      "path",
				Value:      c.Path,
				Message:    "configuration file not found",
				Suggestion: "Check the --config path or omit it to configure from OS_* variables",
			}
		}
		return dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	def, err := Parse(data)
	if err != nil {
		return err
	}
	c.Definition = def
	return nil
}

// LoadOptional behaves like Load but falls back to Default when the file
// does not exist.
func (c *Config) LoadOptional() error {
	if _, err := os.Stat(c.Path); os.IsNotExist(err) {
		if c.Logger != nil {
			c.Logger.Debug("No config file at %s, using environment only", c.Path)
		}
		c.Definition = Default()
		return nil
	}
	return c.Load()
}

// Parse decodes and validates a config document.
func Parse(data []byte) (*Definition, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, dserrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}

	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, dserrors.ConfigError{
			Message:    "configuration does not match the expected structure",
			Suggestion: err.Error(),
		}
	}
	if def.Version == 0 {
		def.Version = 1
	}
	if len(def.Stores) == 0 {
		def.Stores = Default().Stores
	}
	for name, store := range def.Stores {
		if store.Config == nil {
			store.Config = map[string]interface{}{}
			def.Stores[name] = store
		}
	}
	applyEnvOverrides(&def)

	return &def, nil
}

func validateSchema(doc map[string]interface{}) error {
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal config for validation: %w", err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(jsonData))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var errorMessages []string
		for _, desc := range result.Errors() {
			errorMessages = append(errorMessages, desc.String())
		}
		sort.Strings(errorMessages)
		return dserrors.ConfigError{
			Message:    "configuration failed schema validation:\n  - " + strings.Join(errorMessages, "\n  - "),
			Suggestion: "Allowed store keys: type, timeout_ms, region, user_domain_name, project_domain_name, project_name, username, auth_url, validate",
		}
	}
	return nil
}

func applyEnvOverrides(def *Definition) {
	for key, env := range envOverrides {
		value := os.Getenv(env)
		if value == "" {
			continue
		}
		for _, store := range def.Stores {
			store.Config[key] = value
		}
	}
}

// GetStore returns the named store; an empty name selects the default.
func (c *Config) GetStore(name string) (StoreConfig, error) {
	if c.Definition == nil {
		return StoreConfig{}, dserrors.UserError{
			Message:    "Configuration not loaded",
			Suggestion: "This is an internal error. Please report it",
		}
	}

	if name == "" {
		name = c.Definition.DefaultStore
	}
	if name == "" {
		name = DefaultStore
	}

	store, ok := c.Definition.Stores[name]
	if !ok {
		return StoreConfig{}, dserrors.ConfigError{
			Field:      "stores",
			Value:      name,
			Message:    "store not defined",
			Suggestion: fmt.Sprintf("Available stores: %s", strings.Join(c.Definition.StoreNames(), ", ")),
		}
	}
	return store, nil
}

// StoreNames returns the configured store names in order.
func (d *Definition) StoreNames() []string {
	names := make([]string, 0, len(d.Stores))
	for name := range d.Stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Timeout returns the per-store operation timeout.
func (s StoreConfig) Timeout() time.Duration {
	if s.TimeoutMs > 0 {
		return time.Duration(s.TimeoutMs) * time.Millisecond
	}
	return DefaultTimeout
}

// String returns a string setting, or "" when unset.
func (s StoreConfig) String(key string) string {
	v, _ := s.Config[key].(string)
	return v
}

// Bool returns a boolean setting, or def when unset. Strings are parsed
// with strconv.ParseBool; any other type is an error.
func (s StoreConfig) Bool(key string, def bool) (bool, error) {
	v, ok := s.Config[key]
	if !ok {
		return def, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return def, fmt.Errorf("invalid '%s': %w", key, err)
		}
		return parsed, nil
	default:
		return def, fmt.Errorf("invalid '%s': expected boolean, got %T", key, v)
	}
}
