package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kiara-db/kiara/internal/registry"
)

// NewPrefixesCommand creates the "prefixes" subcommand: list the
// namespace table, optionally minting a prefix for a namespace first.
func NewPrefixesCommand(opts *RootOptions) *cobra.Command {
	var mint string

	cmd := &cobra.Command{
		Use:   "prefixes",
		Short: "List the namespace-prefix table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

			client, err := openClient(cmd, opts)
			if err != nil {
				return err
			}
			defer client.Close()

			if mint != "" {
				prefix, err := registry.ResolvePrefix(cmd.Context(), client.System, mint)
				if err != nil {
					out.Error(ErrCodeBackend, err.Error(), nil)
					return WrapExitError(ExitFailure, "mint prefix", err)
				}
				out.VerboseLog("minted prefix %s for %s", prefix, mint)
			}

			entries, err := registry.Namespaces(cmd.Context(), client.System)
			if err != nil {
				out.Error(ErrCodeBackend, err.Error(), nil)
				return WrapExitError(ExitFailure, "list prefixes", err)
			}

			if opts.Format == "json" {
				return out.Success(entries)
			}
			var b strings.Builder
			for _, e := range entries {
				fmt.Fprintf(&b, "%s\t%s\n", e.Prefix, e.Namespace)
			}
			return out.Success(strings.TrimRight(b.String(), "\n"))
		},
	}

	cmd.Flags().StringVar(&mint, "mint", "", "namespace IRI to allocate a prefix for before listing")
	return cmd
}
