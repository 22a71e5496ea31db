package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/barbican-kms/internal/config"
	"github.com/systmms/barbican-kms/internal/openstack"
)

// NewProjectCommand groups the identity project subcommands.
func NewProjectCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Inspect Keystone projects",
	}
	cmd.AddCommand(newProjectPathCommand(cfg))
	return cmd
}

func newProjectPathCommand(cfg *config.Config) *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "path ID...",
		Short: "Print the domain/parent/child name path of projects",
		Long: `Resolve each project ID to the slash-separated names from its domain down
to the project, e.g. ccadmin/cloud_admin/kmip.

Lookups are cached for the rest of the invocation, so ancestors shared by
several IDs are fetched once. --no-cache refetches every level.`,
		Args: cobra.MinimumNArgs(1),
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

			for _, id := range args {
				path, err := helper.ResolveProjectPath(ctx, id, !noCache)
				if err != nil {
					return serviceError(openstack.ServiceIdentity, "resolve project "+id, err)
				}
				if len(args) > 1 {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, path)
				} else {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the project path cache")
	return cmd
}
