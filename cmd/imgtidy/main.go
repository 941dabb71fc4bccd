// Package main provides the CLI entry point for imgtidy.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/five82/imgtidy/internal/config"
	"github.com/five82/imgtidy/internal/logging"
	"github.com/five82/imgtidy/internal/processing"
	"github.com/five82/imgtidy/internal/reporter"
)

const appName = "imgtidy"

// Exit codes.
const (
	exitOK          = 0
	exitFileFailure = 1
	exitFatal       = 2
)

var exampleUsage = strings.TrimSpace(`
  imgtidy optimize public/assets --profile aggressive --workers 4
  imgtidy cleanup public/assets --dry-run
  imgtidy rename public/assets
  imgtidy report public/assets > sizes.txt
  imgtidy watch public/assets --profile high-fidelity
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logDir     string
	noLog      bool
	verbose    bool
}

// optimizeFlags override the active profile's policies.
type optimizeFlags struct {
	profile      string
	maxDimension int
	quality      int
	effort       int
	filter       string
	deleteSource bool
	workers      int
}

// operation runs one batch operation over the resolved roots.
type operation func(ctx context.Context, cfg *config.Config, rep reporter.Reporter) (*processing.Result, error)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	code := exitCode(err)
	if code == exitFatal {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return code
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, processing.ErrFileFailures):
		return exitFileFailure
	default:
		return exitFatal
	}
}

func newRootCommand() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Optimize, clean up and rename image asset trees",
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "path to config file (default: $XDG_CONFIG_HOME/imgtidy/config.toml)")
	pf.StringVar(&g.logDir, "log-dir", "", "log directory (default: $XDG_STATE_HOME/imgtidy/logs)")
	pf.BoolVar(&g.noLog, "no-log", false, "disable log file creation")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newOptimizeCommand(g),
		newSimpleCommand(g, processing.OpCleanup, "Delete source images that already have a .webp sibling", processing.Cleanup),
		newSimpleCommand(g, processing.OpRename, "Rename non-ASCII or space-containing files and directories", processing.Rename),
		newReportCommand(g),
		newSimpleCommand(g, processing.OpDedupeNul, "Remove files named after reserved devices such as nul", processing.RemoveReserved),
		newWatchCommand(g),
		newVersionCommand(),
	)
	return root
}

func addOptimizeFlags(fs *pflag.FlagSet, of *optimizeFlags) {
	fs.StringVar(&of.profile, "profile", config.DefaultProfile, "optimize profile (aggressive, high-fidelity, compress)")
	// Policy flags default to zero values; only explicitly set flags override
	// the profile's own settings.
	fs.IntVar(&of.maxDimension, "max-dimension", 0, "cap the longer side in pixels, 0 disables resizing (default: per profile)")
	fs.IntVar(&of.quality, "quality", 0, "WebP quality 0-100 (default: per profile)")
	fs.IntVar(&of.effort, "effort", 0, "WebP encoder effort 0-6, higher is slower and smaller (default: per profile)")
	fs.StringVar(&of.filter, "filter", "", "resampling filter: "+strings.Join(config.FilterNames, ", ")+" (default: per profile)")
	fs.BoolVar(&of.deleteSource, "delete-source", false, "delete each source after its output validates")
	fs.IntVar(&of.workers, "workers", config.DefaultWorkers, "number of files optimized in parallel")
}

func newOptimizeCommand(g *globalFlags) *cobra.Command {
	of := &optimizeFlags{}
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "optimize [roots...]",
		Short: "Resize and re-encode images to WebP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags(), g, of, dryRun, args)
			if err != nil {
				return err
			}
			return runOperation(g, cfg, processing.OpOptimize, cmd.OutOrStdout(),
				func(ctx context.Context, cfg *config.Config, rep reporter.Reporter) (*processing.Result, error) {
					return processing.Optimize(ctx, cfg, cfg.Roots, rep)
				})
		},
	}
	addOptimizeFlags(cmd.Flags(), of)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "decode and plan without writing output")
	return cmd
}

// newSimpleCommand builds a subcommand taking only roots and --dry-run.
func newSimpleCommand(g *globalFlags, name, short string,
	fn func(context.Context, *config.Config, []string, reporter.Reporter) (*processing.Result, error)) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   name + " [roots...]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags(), g, nil, dryRun, args)
			if err != nil {
				return err
			}
			return runOperation(g, cfg, name, cmd.OutOrStdout(),
				func(ctx context.Context, cfg *config.Config, rep reporter.Reporter) (*processing.Result, error) {
					return fn(ctx, cfg, cfg.Roots, rep)
				})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without touching the filesystem")
	return cmd
}

func newReportCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "report [roots...]",
		Short: "Print a size and dimensions table of .webp files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags(), g, nil, false, args)
			if err != nil {
				return err
			}
			// The table owns stdout; diagnostics go to stderr.
			return runOperation(g, cfg, processing.OpReport, cmd.ErrOrStderr(),
				func(ctx context.Context, cfg *config.Config, rep reporter.Reporter) (*processing.Result, error) {
					return processing.Report(ctx, cfg, cfg.Roots, cmd.OutOrStdout(), rep)
				})
		},
	}
}

func newWatchCommand(g *globalFlags) *cobra.Command {
	of := &optimizeFlags{}

	cmd := &cobra.Command{
		Use:   "watch [roots...]",
		Short: "Optimize once, then keep optimizing new or modified images",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags(), g, of, false, args)
			if err != nil {
				return err
			}

			logger, rep, err := setupReporting(g, cfg, "watch", cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer func() { _ = logger.Close() }()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := processing.Watch(ctx, cfg, cfg.Roots, rep); err != nil {
				logger.Zerolog().Error().Err(err).Msg("watch failed")
				return err
			}
			logger.Info("watch stopped")
			return nil
		},
	}
	addOptimizeFlags(cmd.Flags(), of)
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, getVersion())
		},
	}
}

// loadConfig layers defaults < config file < environment < flags. of is nil
// for commands without policy flags. Positional args replace configured roots.
func loadConfig(flags *pflag.FlagSet, g *globalFlags, of *optimizeFlags, dryRun bool, args []string) (*config.Config, error) {
	changed := map[string]bool{}
	flags.Visit(func(f *pflag.Flag) { changed[f.Name] = true })
	if len(args) > 0 {
		changed["roots"] = true
	}

	console := logging.Console(g.verbose)

	if config.FileExists(".env") {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
		console.Debug().Msg("loaded .env")
	}

	cfg := config.NewConfig()

	cfgFile := g.configPath
	explicit := cfgFile != ""
	if !explicit {
		cfgFile = os.Getenv(config.EnvConfig)
		explicit = cfgFile != ""
	}
	if !explicit {
		cfgFile = config.DefaultConfigPath()
	}
	if cfgFile != "" && (explicit || config.FileExists(cfgFile)) {
		fc, err := config.LoadFileConfig(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		config.ApplyFileConfig(cfg, fc, changed)
		console.Debug().Str("path", cfgFile).Msg("loaded config file")
	}

	if err := config.ApplyEnvConfig(cfg, changed); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	if len(args) > 0 {
		cfg.Roots = append([]string(nil), args...)
	}
	if changed["log-dir"] {
		cfg.LogDir = g.logDir
	}
	if cfg.LogDir == "" {
		cfg.LogDir = logging.DefaultLogDir()
	}
	cfg.NoLog = g.noLog
	cfg.Verbose = g.verbose
	cfg.DryRun = dryRun

	if of != nil {
		if err := applyOptimizeFlags(cfg, of, changed); err != nil {
			return nil, err
		}
	}

	if len(cfg.Roots) == 0 {
		return nil, fmt.Errorf("no roots given: pass directories as arguments, set roots in the config file, or set %s", config.EnvRoots)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyOptimizeFlags applies explicitly set optimize flags. Policy overrides
// touch only the policies the active profile references.
func applyOptimizeFlags(cfg *config.Config, of *optimizeFlags, changed map[string]bool) error {
	if changed["profile"] {
		cfg.Profile = of.profile
	}
	if changed["workers"] {
		cfg.Workers = of.workers
	}

	if !changed["max-dimension"] && !changed["quality"] && !changed["effort"] &&
		!changed["filter"] && !changed["delete-source"] {
		return nil
	}

	err := cfg.OverrideActivePolicies(func(p *config.Policy) {
		if changed["max-dimension"] {
			p.MaxDimension = of.maxDimension
		}
		if changed["quality"] {
			p.Quality = of.quality
		}
		if changed["effort"] {
			p.Effort = of.effort
		}
		if changed["filter"] {
			p.Filter = of.filter
		}
		if changed["delete-source"] {
			p.DeleteSource = of.deleteSource
		}
	})
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// setupReporting opens the run log and combines the terminal and log reporters.
func setupReporting(g *globalFlags, cfg *config.Config, op string, out io.Writer) (*logging.Logger, reporter.Reporter, error) {
	logger, err := logging.Setup(cfg.LogDir, op, g.verbose, cfg.NoLog, os.Args)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	if logger != nil {
		logger.Info("Roots: %s", strings.Join(cfg.Roots, ", "))
		if op == processing.OpOptimize || op == "watch" {
			logger.Info("Profile: %s, workers: %d", cfg.Profile, cfg.Workers)
			if prof, err := cfg.ActiveProfile(); err == nil {
				logger.Debug("Extensions: %s", strings.Join(prof.Extensions, ", "))
			}
		}
		if cfg.DryRun {
			logger.Info("Dry run: no files will be changed")
		}
	}

	var termRep *reporter.TerminalReporter
	if out == os.Stdout {
		termRep = reporter.NewTerminalReporterVerbose(g.verbose)
	} else {
		termRep = reporter.NewTerminalReporterTo(out, out, g.verbose)
	}

	var rep reporter.Reporter = termRep
	if logger != nil {
		// Combine terminal and log reporter so all events go to both
		rep = reporter.NewCompositeReporter(termRep, reporter.NewLogReporter(logger.Zerolog()))
	}
	return logger, rep, nil
}

func runOperation(g *globalFlags, cfg *config.Config, op string, out io.Writer, fn operation) error {
	logger, rep, err := setupReporting(g, cfg, op, out)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := fn(ctx, cfg, rep)
	if err != nil {
		rep.Error(reporter.ReporterError{
			Title:      op + " failed",
			Message:    err.Error(),
			Suggestion: "Check that every root exists and is readable",
		})
		return err
	}

	if path := logger.Path(); path != "" {
		rep.Verbose("log file: " + path)
	}
	return res.Err()
}
