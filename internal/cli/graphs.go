package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kiara-db/kiara/internal/registry"
)

// NewGraphsCommand creates the "graphs" subcommand: list the directory.
func NewGraphsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "graphs",
		Short: "List all graphs recorded in the directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

			client, err := openClient(cmd, opts)
			if err != nil {
				return err
			}
			defer client.Close()

			entries, err := registry.Graphs(cmd.Context(), client.System)
			if err != nil {
				out.Error(ErrCodeBackend, err.Error(), nil)
				return WrapExitError(ExitFailure, "list graphs", err)
			}

			if opts.Format == "json" {
				return out.Success(entries)
			}
			var b strings.Builder
			for _, e := range entries {
				marker := ""
				if e.IsDefault {
					marker = " (default)"
				}
				fmt.Fprintf(&b, "%s\t%s%s\n", e.Name, e.URL, marker)
			}
			return out.Success(strings.TrimRight(b.String(), "\n"))
		},
	}
}
