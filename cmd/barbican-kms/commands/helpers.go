package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/systmms/barbican-kms/internal/config"
	dserrors "github.com/systmms/barbican-kms/internal/errors"
	"github.com/systmms/barbican-kms/internal/providers"
)

// newRegistry builds the provider registry. Tests swap it for one backed by
// fakes.
var newRegistry = providers.NewRegistry

// openStore loads the config and creates the selected Barbican store. The
// returned context carries the effective timeout.
func openStore(cmd *cobra.Command, cfg *config.Config) (context.Context, context.CancelFunc, *providers.BarbicanProvider, error) {
	if err := cfg.LoadOptional(); err != nil {
		return nil, nil, nil, err
	}

	store, err := cfg.GetStore(cfg.Store)
	if err != nil {
		return nil, nil, nil, err
	}

	name := cfg.Store
	if name == "" {
		name = cfg.Definition.DefaultStore
	}
	if name == "" {
		name = config.DefaultStore
	}

	p, err := newRegistry(cfg.Logger).CreateProvider(name, store)
	if err != nil {
		return nil, nil, nil, err
	}
	barbican, ok := p.(*providers.BarbicanProvider)
	if !ok {
		return nil, nil, nil, fmt.Errorf("store %s of type %s is not a Barbican store", name, store.Type)
	}

	timeout := store.Timeout()
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	return ctx, cancel, barbican, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// serviceError adds OpenStack suggestions to err. Configuration errors
// already carry their own and are returned unchanged.
func serviceError(service, operation string, err error) error {
	var cfgErr dserrors.ConfigError
	var userErr dserrors.UserError
	if errors.As(err, &cfgErr) || errors.As(err, &userErr) {
		return err
	}
	return dserrors.ProviderError(service, operation, err)
}
