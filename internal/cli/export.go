package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kiara-db/kiara/internal/ingest"
	"github.com/kiara-db/kiara/internal/rdf"
)

// exportedTriple is the JSON shape of one exported triple.
type exportedTriple struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

// NewExportCommand creates the "export" subcommand: read a graph's
// triples back out.
func NewExportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export [graph-iri]",
		Short: "Export a graph's triples",
		Long: `Reads all triples stored in a graph and writes them out, as N-Triples
in text format or as a JSON array with --format json. With no argument
the default graph is exported.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

			graphIRI := ""
			if len(args) == 1 {
				graphIRI = args[0]
			}

			client, err := openClient(cmd, opts)
			if err != nil {
				return err
			}
			defer client.Close()

			conn, ok, err := client.Find(cmd.Context(), graphIRI)
			if err != nil {
				out.Error(ErrCodeInconsistent, err.Error(), nil)
				return WrapExitError(ExitFailure, "find graph", err)
			}
			if !ok {
				out.Error(ErrCodeNotFound, fmt.Sprintf("graph %q is not recorded", graphIRI), nil)
				return WrapExitError(ExitCommandError, "find graph", nil)
			}
			if graphIRI != "" {
				defer conn.Close()
			}

			p := &ingest.Pipeline{Sys: client.System, Graph: conn}
			triples, err := p.ReadTriples(cmd.Context())
			if err != nil {
				out.Error(ErrCodeBackend, err.Error(), nil)
				return WrapExitError(ExitFailure, "read triples", err)
			}

			if opts.Format == "json" {
				exported := make([]exportedTriple, len(triples))
				for i, t := range triples {
					exported[i] = exportedTriple{
						Subject:   rdf.FormatTerm(t.Subject),
						Predicate: rdf.FormatTerm(t.Predicate),
						Object:    rdf.FormatTerm(t.Object),
					}
				}
				return out.Success(exported)
			}

			var b strings.Builder
			for _, t := range triples {
				b.WriteString(t.String())
				b.WriteString("\n")
			}
			return out.Success(strings.TrimRight(b.String(), "\n"))
		},
	}
}
