package commands

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/systmms/barbican-kms/internal/config"
	dserrors "github.com/systmms/barbican-kms/internal/errors"
	"github.com/systmms/barbican-kms/internal/openstack"
	"github.com/systmms/barbican-kms/pkg/provider"
)

// NewSecretCommand groups the secret subcommands.
func NewSecretCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Create, fetch and inspect Barbican secrets",
	}

	cmd.AddCommand(
		newSecretCreateCommand(cfg),
		newSecretGetCommand(cfg),
		newSecretDescribeCommand(cfg),
	)
	return cmd
}

func newSecretCreateCommand(cfg *config.Config) *cobra.Command {
	var (
		fromFile  string
		value     string
		algorithm string
		bitLength int
	)

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Store a symmetric secret and print its reference",
		Long: `Store a symmetric secret in Barbican.

The payload is read from --from-file (use - for stdin) or --value and is sent
base64-encoded. The secret reference is printed on success.

Examples:
  # Store a 256 bit AES key
  head -c 32 /dev/urandom | barbican-kms secret create kmip-key --from-file - --algorithm aes --bit-length 256

  # Store a short value
  barbican-kms secret create api-token --value "$TOKEN"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (fromFile == "") == (value == "") {
				return dserrors.UserError{
					Message:    "Exactly one payload source is required",
					Suggestion: "Use --from-file <path> (or - for stdin) or --value <text>",
				}
			}

			payload := []byte(value)
			if fromFile != "" {
				var err error
				payload, err = readPayload(cmd.InOrStdin(), fromFile)
				if err != nil {
					return dserrors.SimplifyError(err)
				}
			}

			ctx, cancel, store, err := openStore(cmd, cfg)
			if err != nil {
				return err
			}
			defer cancel()

			ref, err := store.CreateSecret(ctx, args[0], payload, algorithm, bitLength)
			if err != nil {
				return serviceError(openstack.ServiceKeyManager, "create secret", err)
			}

			cfg.Logger.Debug("Stored %d bytes as %s", len(payload), args[0])
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), ref)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromFile, "from-file", "", "Read the payload from a file (- for stdin)")
	cmd.Flags().StringVar(&value, "value", "", "Use the given text as payload")
	cmd.Flags().StringVar(&algorithm, "algorithm", "", "Algorithm attribute, e.g. aes")
	cmd.Flags().IntVar(&bitLength, "bit-length", 0, "Bit length attribute, e.g. 256")

	return cmd
}

func readPayload(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func newSecretGetCommand(cfg *config.Config) *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "get REF",
		Short: "Write the raw payload of a secret",
		Long: `Fetch a secret and write its decoded payload.

REF is the secret reference printed by 'secret create' or a bare secret ID.
Raw bytes go to stdout unless --out is given; files are created with mode 0600.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, store, err := openStore(cmd, cfg)
			if err != nil {
				return err
			}
			defer cancel()

			payload, err := store.ResolveSecure(ctx, provider.Reference{Provider: store.Name(), Key: args[0]})
			if err != nil {
				return serviceError(openstack.ServiceKeyManager, "get secret", err)
			}
			defer payload.Destroy()

			if outFile == "" {
				_, err = payload.WriteTo(cmd.OutOrStdout())
				return err
			}

			f, err := os.OpenFile(outFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
			if err != nil {
				return dserrors.SimplifyError(err)
			}
			if _, err := payload.WriteTo(f); err != nil {
				_ = f.Close()
				return fmt.Errorf("failed to write %s: %w", outFile, err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write %s: %w", outFile, err)
			}
			cfg.Logger.Info("Wrote %d bytes to %s", payload.Size(), outFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write the payload to this file instead of stdout")
	return cmd
}

func newSecretDescribeCommand(cfg *config.Config) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "describe REF",
		Short: "Show secret metadata without the payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, store, err := openStore(cmd, cfg)
			if err != nil {
				return err
			}
			defer cancel()

			meta, err := store.Describe(ctx, provider.Reference{Provider: store.Name(), Key: args[0]})
			if err != nil {
				return serviceError(openstack.ServiceKeyManager, "describe secret", err)
			}
			if !meta.Exists {
				return serviceError(openstack.ServiceKeyManager, "describe secret",
					provider.NotFoundError{Provider: store.Name(), Key: args[0]})
			}

			if jsonOutput {
				out := map[string]interface{}{
					"type":       meta.Type,
					"attributes": meta.Tags,
				}
				if !meta.UpdatedAt.IsZero() {
					out["updated"] = meta.UpdatedAt.UTC().Format(time.RFC3339)
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "type\t%s\n", meta.Type)
			keys := make([]string, 0, len(meta.Tags))
			for k := range meta.Tags {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				_, _ = fmt.Fprintf(w, "%s\t%s\n", k, meta.Tags[k])
			}
			if !meta.UpdatedAt.IsZero() {
				_, _ = fmt.Fprintf(w, "updated\t%s\n", meta.UpdatedAt.UTC().Format(time.RFC3339))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}
