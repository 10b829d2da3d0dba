package main

import (
	"github.com/spf13/cobra"

	"github.com/astrolabe-oss/corelib/cmd/corelib/internal"
)

// GlobalFlags holds global flags available to all commands
type GlobalFlags struct {
	Verbose      bool
	Quiet        bool
	OutputFormat string
	ConfigFile   string
	HomeDir      string
}

// RegisterGlobalFlags registers persistent flags on the root command
func RegisterGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Only log errors")
	cmd.PersistentFlags().StringVarP(&flags.OutputFormat, "output", "o", "text", "Output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "Path to config file (default: $CORELIB_HOME/config.yaml)")
	cmd.PersistentFlags().StringVar(&flags.HomeDir, "home", "", "corelib home directory (default: ~/.corelib)")
}

// Validate checks flag combinations and returns the parsed output format.
func (f *GlobalFlags) Validate() (internal.OutputFormat, error) {
	format, err := internal.ParseOutputFormat(f.OutputFormat)
	if err != nil {
		return "", err
	}
	if f.Verbose && f.Quiet {
		return "", internal.NewCLIError(internal.ExitInvalidInput, "--verbose and --quiet cannot be used together")
	}
	return format, nil
}

// LogLevel returns the level forced by --verbose or --quiet, or "".
func (f *GlobalFlags) LogLevel() string {
	switch {
	case f.Verbose:
		return "debug"
	case f.Quiet:
		return "error"
	default:
		return ""
	}
}
