package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/astrolabe-oss/corelib/cmd/corelib/internal"
	"github.com/astrolabe-oss/corelib/internal/platdb"
)

type exportOptions struct {
	format string
	pretty bool
	file   string
}

func newExportCmd(a *app) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every connected vertex and edge",
		Long: `Export the graph as {"vertices": {...}, "edges": [...]}.

Vertices are keyed by element id and carry their attributes, their
relationship fields as lists of element ids, and their type. Vertices
without any relationship are not exported.

JSON is indented when --pretty is set, or when export.pretty is "always",
or when it is "auto" and the output is a terminal.`,
		Example: `  corelib export > graph.json
  corelib export --format yaml --file graph.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExport(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "", "Export format (json|yaml), default from export.format")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Indent JSON output")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Write to a file instead of stdout")
	return cmd
}

func (a *app) runExport(cmd *cobra.Command, opts *exportOptions) error {
	format := a.cfg.Export.Format
	if opts.format != "" {
		format = strings.ToLower(opts.format)
	}
	if format != "json" && format != "yaml" {
		return internal.NewCLIError(internal.ExitInvalidInput,
			fmt.Sprintf("unsupported export format %q (want json or yaml)", format))
	}

	return a.withStore(cmd.Context(), func(store *platdb.Store) (err error) {
		exp, err := store.ExportGraph(cmd.Context())
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if opts.file != "" {
			f, createErr := os.Create(opts.file)
			if createErr != nil {
				return internal.WrapError(internal.ExitError, "failed to create export file", createErr)
			}
			defer func() {
				if cerr := f.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()
			w = f
		}

		if format == "yaml" {
			err = exp.WriteYAML(w)
		} else {
			err = exp.WriteJSON(w, a.prettyJSON(cmd, opts, w))
		}
		if err != nil {
			return err
		}

		if opts.file != "" {
			a.logger.Info("wrote export",
				slog.String("file", opts.file),
				slog.String("format", format),
				slog.Int("vertices", len(exp.Vertices)),
				slog.Int("edges", len(exp.Edges)))
		}
		return nil
	})
}

func (a *app) prettyJSON(cmd *cobra.Command, opts *exportOptions, w io.Writer) bool {
	if cmd.Flags().Changed("pretty") {
		return opts.pretty
	}
	switch a.cfg.Export.Pretty {
	case "always":
		return true
	case "never":
		return false
	default:
		return isTerminal(w)
	}
}
