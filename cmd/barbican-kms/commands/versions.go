package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/barbican-kms/internal/config"
	"github.com/systmms/barbican-kms/internal/openstack"
)

// NewVersionsCommand creates the versions command
func NewVersionsCommand(cfg *config.Config) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "versions URL",
		Short: "Show the API versions an endpoint publishes",
		Long: `Fetch the version discovery document at URL with the authenticated
session. Single-version endpoints that omit status or links are reported
as "current" with a self link.`,
		Args: cobra.ExactArgs(1),
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

			versions, err := helper.DiscoverVersions(ctx, args[0])
			if err != nil {
				return serviceError("discovery", "get versions", err)
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), versions)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "ID\tSTATUS\tMIN\tMAX\tLINK\n")
			for _, v := range versions {
				link := ""
				for _, l := range v.Links {
					if l.Rel == "self" {
						link = l.Href
						break
					}
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", v.ID, v.Status, v.MinVersion, v.Version, link)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}
