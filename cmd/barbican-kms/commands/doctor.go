package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/barbican-kms/internal/config"
	dserrors "github.com/systmms/barbican-kms/internal/errors"
	"github.com/systmms/barbican-kms/pkg/provider"
)

// NewDoctorCommand creates the doctor command
func NewDoctorCommand(cfg *config.Config) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and credentials of every store",
		Long: `Verify that each configured store can authenticate.

For every store this connects to Keystone with credential validation (one
read-only call) and reports the result. Nothing is retried.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.LoadOptional(); err != nil {
				cfg.Logger.Error("Configuration error: %v", err)
				return err
			}
			cfg.Logger.Info("Configuration loaded (%d stores)", len(cfg.Definition.Stores))

			registry := newRegistry(cfg.Logger)
			results := make([]StoreHealth, 0, len(cfg.Definition.Stores))

			for _, name := range cfg.Definition.StoreNames() {
				store := cfg.Definition.Stores[name]
				health := StoreHealth{Name: name, Type: store.Type, Status: "checking"}

				p, err := registry.CreateProvider(name, store)
				if err != nil {
					health.Status = "error"
					health.Error = err.Error()
					results = append(results, health)
					continue
				}
				health.Capabilities = p.Capabilities()

				timeout := store.Timeout()
				if cfg.Timeout > 0 {
					timeout = cfg.Timeout
				}
				ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
				err = p.Validate(ctx)
				cancel()

				switch {
				case err != nil && dserrors.IsRetryable(err):
					health.Status = "unavailable"
					health.Error = err.Error()
					health.Suggestion = suggestionFor(err)
				case err != nil:
					health.Status = "error"
					health.Error = err.Error()
					health.Suggestion = suggestionFor(err)
				default:
					health.Status = "healthy"
					health.Message = "Credentials accepted"
				}
				results = append(results, health)
			}

			out := cmd.OutOrStdout()
			displayHealthResults(out, results, verbose)

			healthy := 0
			for _, result := range results {
				if result.Status == "healthy" {
					healthy++
				}
			}

			_, _ = fmt.Fprintf(out, "\nSummary: %d/%d stores healthy\n", healthy, len(results))
			if healthy < len(results) {
				return fmt.Errorf("some stores are not healthy")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show suggestions and capabilities")
	return cmd
}

// StoreHealth represents the health status of a store
type StoreHealth struct {
	Name         string
	Type         string
	Status       string // healthy, unavailable, error, checking
	Error        string
	Message      string
	Suggestion   string
	Capabilities provider.Capabilities
}

// displayHealthResults shows store health in a formatted table
func displayHealthResults(out io.Writer, results []StoreHealth, verbose bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "STORE\tTYPE\tSTATUS\tMESSAGE\n")
	_, _ = fmt.Fprintf(w, "-----\t----\t------\t-------\n")

	for _, result := range results {
		status := result.Status
		message := result.Message
		if result.Error != "" {
			message = firstLine(result.Error)
		}

		switch result.Status {
		case "healthy":
			status = "✓ " + status
		case "unavailable":
			status = "⚠ " + status
		case "error":
			status = "✗ " + status
		default:
			status = "? " + status
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", result.Name, result.Type, status, message)
	}

	_ = w.Flush()

	if !verbose {
		return
	}
	for _, result := range results {
		if result.Status != "healthy" && result.Suggestion != "" {
			_, _ = fmt.Fprintf(out, "\n%s suggestion:\n  • %s\n", result.Name, result.Suggestion)
		}
		if result.Status == "healthy" {
			caps := result.Capabilities
			_, _ = fmt.Fprintf(out, "\n%s capabilities:\n", result.Name)
			_, _ = fmt.Fprintf(out, "  • Write: %t\n", caps.SupportsWrite)
			_, _ = fmt.Fprintf(out, "  • Binary payloads: %t\n", caps.SupportsBinary)
			_, _ = fmt.Fprintf(out, "  • Auth methods: %v\n", caps.AuthMethods)
		}
	}
}

func suggestionFor(err error) string {
	var userErr dserrors.UserError
	if errors.As(serviceError("keystone", "validate", err), &userErr) {
		return userErr.Suggestion
	}
	return ""
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
