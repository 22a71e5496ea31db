package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/systmms/barbican-kms/internal/config"
	"github.com/systmms/barbican-kms/internal/credstore"
	dserrors "github.com/systmms/barbican-kms/internal/errors"
	"github.com/systmms/barbican-kms/internal/openstack"
)

// NewLoginCommand creates the login command
func NewLoginCommand(cfg *config.Config) *cobra.Command {
	var (
		username string
		remove   bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Keep the application credential secret in the OS keyring",
		Long: `Store the application credential secret in the OS keyring so that
OS_APPLICATION_CREDENTIAL_SECRET need not be exported.

The secret is read from the first line of stdin and stored per user and
region. It is used whenever OS_APPLICATION_CREDENTIAL_SECRET is unset.

Examples:
  barbican-kms login < secret.txt
  pass show openstack/kms | barbican-kms login --username kms-user
  barbican-kms login --delete`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.LoadOptional(); err != nil {
				return err
			}
			store, err := cfg.GetStore(cfg.Store)
			if err != nil {
				return err
			}

			region := store.String("region")
			if region == "" {
				return dserrors.ConfigError{
					Field:      "region",
					Message:    "no region configured",
					Suggestion: "Export OS_REGION_NAME or set region in the store",
				}
			}
			if username == "" {
				username = store.String("username")
			}
			if username == "" {
				username = os.Getenv(openstack.EnvUsername)
			}
			if username == "" {
				return dserrors.UserError{
					Message:    "No username given",
					Suggestion: "Use --username or export OS_USERNAME",
				}
			}

			account := credstore.Account(username, region)
			if remove {
				if err := credstore.Delete(username, region); err != nil {
					return err
				}
				cfg.Logger.Info("Removed stored credential for %s", account)
				return nil
			}

			if credstore.IsHeadless() {
				cfg.Logger.Warn("No desktop session detected; the keyring may be unavailable")
			}

			secret, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			secret = strings.TrimSpace(secret)
			if secret == "" {
				if err != nil {
					return fmt.Errorf("failed to read secret from stdin: %w", err)
				}
				return dserrors.UserError{
					Message:    "Empty secret on stdin",
					Suggestion: "Pipe the application credential secret into 'barbican-kms login'",
				}
			}

			if err := credstore.Set(username, region, secret); err != nil {
				return dserrors.UserError{
					Message:    "Could not store the credential",
					Details:    err.Error(),
					Suggestion: "Export OS_APPLICATION_CREDENTIAL_SECRET instead",
					Err:        err,
				}
			}
			cfg.Logger.Info("Stored application credential secret for %s", account)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "User the secret belongs to (default: OS_USERNAME)")
	cmd.Flags().BoolVar(&remove, "delete", false, "Remove the stored secret instead")
	return cmd
}
