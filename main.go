package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chmouel/sniffy/internal/config"
	"github.com/chmouel/sniffy/internal/language"
	"github.com/chmouel/sniffy/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// exitError carries the process exit code of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// usageError reports invalid arguments; it exits with status 2.
func usageError(format string, args ...any) error {
	return &exitError{code: 2, err: fmt.Errorf(format, args...)}
}

// app holds the state shared by every command.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	verbose    bool
	noColor    bool

	cfg      *config.Config
	logger   *zap.Logger
	detector *language.Detector
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, logger: zap.NewNop()}
	opts := &countOptions{}

	cmd := &cobra.Command{
		Use:   "sniffy [paths...]",
		Short: "Count blank, comment and code lines in source trees",
		Long: `sniffy classifies every line of the source files under the given paths as
blank, comment or code and reports totals per language.

With --history it walks the git log instead and reports lines added and
deleted per day or week, and per author.`,
		Args:          cobra.ArbitraryArgs,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = a.logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCount(cmd, opts, args)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &exitError{code: 2, err: err}
	})

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output (progress and timing on stderr)")
	pf.StringVar(&a.configPath, "config", "", "configuration file (default "+config.DefaultPath+" when present)")
	pf.BoolVar(&a.noColor, "no-color", false, "disable coloured output")

	opts.register(cmd)

	cmd.AddCommand(
		newVerifyCmd(a),
		newWatchCmd(a),
		newLanguagesCmd(a),
		newConfigCmd(a),
	)
	return cmd
}

// setup loads the configuration and builds the logger and language table.
func (a *app) setup(cmd *cobra.Command) error {
	path, optional := a.configPath, false
	if path == "" {
		path, optional = config.DefaultPath, true
	}
	cfg, err := config.Load(path, optional)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	if err := cfg.Validate(); err != nil {
		return &exitError{code: 2, err: fmt.Errorf("%s: %w", path, err)}
	}
	if cmd.Flags().Changed("no-color") {
		cfg.NoColor = a.noColor
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Logging.Level, a.verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	a.detector = language.NewDetector(cfg.Languages...)
	return nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func openBrowser(path string) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", absPath)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", absPath)
	case "linux":
		cmd = exec.Command("xdg-open", absPath)
	default:
		return
	}
	_ = cmd.Start()
}
