package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/term"

	"github.com/astrolabe-oss/corelib/cmd/corelib/internal"
	"github.com/astrolabe-oss/corelib/internal/config"
	"github.com/astrolabe-oss/corelib/internal/observability"
	"github.com/astrolabe-oss/corelib/internal/platdb"
	"github.com/astrolabe-oss/corelib/pkg/version"
)

// openConnection connects to the graph described by cfg. Tests replace it
// to run commands against an in-memory client.
var openConnection = func(ctx context.Context, cfg config.Neo4jConfig, opts ...platdb.ConnectionOption) (*platdb.Connection, error) {
	return platdb.Open(ctx, cfg.ClientConfig(), opts...)
}

// app carries per-invocation state shared by every command.
type app struct {
	flags  GlobalFlags
	format internal.OutputFormat
	cfg    *config.Config
	logger *slog.Logger

	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	closeLog       func() error
}

// Execute runs the CLI with signal handling and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := &app{logger: slog.New(slog.DiscardHandler)}
	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	a.shutdown(context.WithoutCancel(ctx))
	return internal.HandleError(rootCmd, err)
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "corelib",
		Short: "corelib - typed access to the platform topology graph",
		Long: `corelib reads and writes the platform topology graph stored in Neo4j.

Vertices are typed (Compute, Application, Resource, ...) and are addressed
by attribute matches given as key=value arguments:

  corelib get Compute address=10.0.0.1
  corelib upsert Resource address=10.0.0.5 dns_names=db.internal
  corelib export --format yaml`,
		PersistentPreRunE: a.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	RegisterGlobalFlags(rootCmd, &a.flags)

	rootCmd.AddCommand(
		newExportCmd(a),
		newGetCmd(a),
		newListCmd(a),
		newCreateCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newUpsertCmd(a),
		newRelateCmd(a),
		newConstraintsCmd(a),
		newHealthCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
		newCompletionCmd(),
	)
	return rootCmd
}

// setup is called before any command runs to load configuration and build
// the logger and tracer.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	format, err := a.flags.Validate()
	if err != nil {
		return err
	}
	a.format = format

	// version, help and completion work without a config file
	switch cmd.Name() {
	case "version", "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return nil
	}

	cfg, err := loadConfig(a.flags)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := a.initLogger(cmd); err != nil {
		return err
	}
	return a.initTracing(cmd.Context())
}

func loadConfig(flags GlobalFlags) (*config.Config, error) {
	loader := config.NewConfigLoader(config.NewValidator())

	// An explicit --config must exist.
	if flags.ConfigFile != "" {
		cfg, err := loader.Load(flags.ConfigFile)
		if err != nil {
			return nil, internal.WrapError(internal.ExitConfigError, "failed to load configuration", err)
		}
		return cfg, nil
	}

	homeDir := flags.HomeDir
	if homeDir == "" {
		homeDir = os.Getenv(config.EnvPrefix + "_HOME")
	}
	if homeDir == "" {
		homeDir = config.DefaultHomeDir()
	}

	cfg, err := loader.LoadWithDefaults(config.DefaultConfigPath(homeDir))
	if err != nil {
		return nil, internal.WrapError(internal.ExitConfigError, "failed to load configuration", err)
	}
	return cfg, nil
}

func (a *app) initLogger(cmd *cobra.Command) error {
	logCfg := a.cfg.Logging
	if level := a.flags.LogLevel(); level != "" {
		logCfg.Level = level
	}

	var w io.Writer
	switch strings.ToLower(logCfg.Output) {
	case "", "stderr":
		w = cmd.ErrOrStderr()
	case "stdout":
		w = cmd.OutOrStdout()
	default:
		out, closeFn, err := observability.OpenOutput(logCfg.Output)
		if err != nil {
			return internal.WrapError(internal.ExitConfigError, "failed to open log output", err)
		}
		w = out
		a.closeLog = closeFn
	}

	a.logger = observability.NewLogger(logCfg, w).With(
		slog.String("command", cmd.CommandPath()),
		slog.String("request_id", uuid.NewString()),
	)
	return nil
}

func (a *app) initTracing(ctx context.Context) error {
	if !a.cfg.Tracing.Enabled {
		return nil
	}

	tp, err := observability.InitTracing(ctx, a.cfg.Tracing)
	if err != nil {
		return internal.WrapError(internal.ExitConfigError, "failed to initialize tracing", err)
	}
	a.tracerProvider = tp
	a.tracer = tp.Tracer(observability.TracerName)
	return nil
}

// shutdown flushes spans and closes the log file. Failures are logged only.
func (a *app) shutdown(ctx context.Context) {
	if a.tracerProvider != nil {
		if err := observability.ShutdownTracing(ctx, a.tracerProvider); err != nil {
			a.logger.Warn("failed to flush traces", slog.Any("error", err))
		}
	}
	if a.closeLog != nil {
		_ = a.closeLog()
	}
}

// withStore opens a connection for the duration of fn.
func (a *app) withStore(ctx context.Context, fn func(store *platdb.Store) error) error {
	return a.withConnection(ctx, func(conn *platdb.Connection) error {
		return fn(conn.Store())
	})
}

func (a *app) withConnection(ctx context.Context, fn func(conn *platdb.Connection) error) error {
	opts := []platdb.ConnectionOption{platdb.WithConnectionLogger(a.logger)}
	if a.tracer != nil {
		opts = append(opts, platdb.WithTracer(a.tracer))
	}

	conn, err := openConnection(ctx, a.cfg.Neo4j, opts...)
	if err != nil {
		return internal.WrapError(internal.ExitDatabaseError, "failed to connect to neo4j", err)
	}
	defer func() {
		if err := conn.Close(context.WithoutCancel(ctx)); err != nil {
			a.logger.Warn("failed to close connection", slog.Any("error", err))
		}
	}()

	return fn(conn)
}

// formatter returns the output formatter selected by --output.
func (a *app) formatter(cmd *cobra.Command) internal.Formatter {
	return internal.NewFormatter(a.format, cmd.OutOrStdout())
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.format == internal.FormatText {
				cmd.Println(version.String())
				return nil
			}
			return a.formatter(cmd).PrintData(version.Info())
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for corelib.

Bash:

  $ source <(corelib completion bash)

Zsh:

  $ corelib completion zsh > "${fpath[1]}/_corelib"

Fish:

  $ corelib completion fish | source

PowerShell:

  PS> corelib completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}
