package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kiara-db/kiara/internal/config"
	"github.com/kiara-db/kiara/internal/registry"
)

// NewInitCommand creates the "init" subcommand: bootstrap the system
// store and the default graph.
func NewInitCommand(opts *RootOptions) *cobra.Command {
	var defaultURL string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the system store and default graph",
		Long: `Creates the system store (directory + namespace table) and the default
graph store, recording the default-graph relationship. Idempotent: an
already-initialized system is connected to and left as-is.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

			cfg, err := config.Load(opts.Config)
			if err != nil {
				return WrapExitError(ExitCommandError, "load config", err)
			}
			systemURL := cfg.ResolveSystemURL()
			if defaultURL == "" {
				defaultURL = cfg.DefaultGraphURL
			}

			out.VerboseLog("initializing system store at %s", systemURL)
			client, err := registry.Open(cmd.Context(), systemURL, defaultURL)
			if err != nil {
				out.Error(ErrCodeBackend, err.Error(), nil)
				return WrapExitError(ExitFailure, "initialize", err)
			}
			defer client.Close()

			return out.Success(fmt.Sprintf("system store ready at %s (default graph: %s)",
				systemURL, client.Default.URL()))
		},
	}

	cmd.Flags().StringVar(&defaultURL, "default-url", "", "storage URL for the default graph (derived from the system URL when empty)")
	return cmd
}

// openClient connects to an initialized system per the loaded config.
func openClient(cmd *cobra.Command, opts *RootOptions) (*registry.Client, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	client, err := registry.Open(cmd.Context(), cfg.ResolveSystemURL(), cfg.DefaultGraphURL)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "connect system store", err)
	}
	return client, nil
}
