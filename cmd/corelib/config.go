package main

import (
	"github.com/spf13/cobra"

	"github.com/astrolabe-oss/corelib/cmd/corelib/internal"
)

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect corelib configuration",
		Long: `The config command shows the configuration corelib resolved from defaults,
the config file (~/.corelib/config.yaml by default) and CORELIB_*
environment variables.`,
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Display the resolved configuration",
		Long: `Display the resolved configuration with the Neo4j password redacted.

Output is YAML unless --output json is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			redacted := a.cfg.Redacted()
			if a.format == internal.FormatJSON {
				return internal.NewJSONFormatter(cmd.OutOrStdout()).PrintData(redacted)
			}
			return internal.NewYAMLFormatter(cmd.OutOrStdout()).PrintData(redacted)
		},
	})

	return configCmd
}
