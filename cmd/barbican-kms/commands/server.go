package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/barbican-kms/internal/config"
	dserrors "github.com/systmms/barbican-kms/internal/errors"
	"github.com/systmms/barbican-kms/internal/openstack"
)

// NewServerCommand groups the compute subcommands.
func NewServerCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Inspect Nova servers",
	}
	cmd.AddCommand(newServerHostCommand(cfg))
	return cmd
}

func newServerHostCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "host ID",
		Short: "Print the compute host a server runs on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, store, err := openStore(cmd, cfg)
			if err != nil {
				return err
			}
			defer cancel()

			helper, err := store.Connected(ctx)
			if err != nil {
				return serviceError(openstack.ServiceIdentity, "connect", err)
			}

			server, err := helper.GetServer(ctx, args[0])
			if err != nil {
				return serviceError(openstack.ServiceCompute, "get server", err)
			}
			if server.ComputeHost == "" {
				return dserrors.UserError{
					Message:    fmt.Sprintf("Compute host of server %s is not visible", args[0]),
					Suggestion: "The OS-EXT-SRV-ATTR:host attribute requires an admin role on the server's project",
				}
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), server.ComputeHost)
			return nil
		},
	}
}
