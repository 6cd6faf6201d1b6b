// Package cli implements the maintlog command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/maintlog/internal/config"
	"github.com/mesh-intelligence/maintlog/internal/logging"
	"github.com/mesh-intelligence/maintlog/internal/paths"
	"github.com/mesh-intelligence/maintlog/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
}

// env is the per-invocation state shared by subcommands.
type env struct {
	flags rootFlags

	configDir string
	cfg       types.Config
	logger    *slog.Logger
	closeLog  func()
	logOpen   bool
}

// close releases the log file, if one was opened. Safe to call repeatedly.
func (e *env) close() {
	if !e.logOpen {
		return
	}
	e.closeLog()
	e.logOpen = false
}

// newRootCmd creates the top-level "maintlog" command with global flags
// and all subcommands registered, along with the env they share.
func newRootCmd() (*cobra.Command, *env) {
	e := &env{}

	root := &cobra.Command{
		Use:   "maintlog",
		Short: "Record and review shopfloor maintenance activity",
		Long: "maintlog appends maintenance records to a local CSV table and mirrors\n" +
			"the table to a GitHub repository when a sync token is configured.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return e.load(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&e.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&e.flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(e))
	root.AddCommand(newSubmitCmd(e))
	root.AddCommand(newListCmd(e))
	root.AddCommand(newShowCmd(e))
	root.AddCommand(newResyncCmd(e))
	root.AddCommand(newPullCmd(e))
	root.AddCommand(newExportCmd(e))
	root.AddCommand(newReportCmd(e))
	root.AddCommand(newConfigCmd(e))

	return root, e
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root, e := newRootCmd()
	os.Exit(run(root, e, os.Args[1:], os.Stderr))
}

// run executes root with args and returns the process exit code. The log
// file opened by e is closed whether or not the command succeeds.
func run(root *cobra.Command, e *env, args []string, stderr io.Writer) int {
	defer e.close()

	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(stderr, "error:", err)

	var ee *exitErr
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// load resolves directories, reads configuration and builds the logger.
func (e *env) load(stderr io.Writer) error {
	configDir, err := paths.ResolveConfigDir(e.flags.configDir)
	if err != nil {
		return exitError(exitSysError, fmt.Errorf("resolve config dir: %w", err))
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		return exitError(exitSysError, err)
	}

	dataDir, err := paths.ResolveDataDir(e.flags.dataDir, cfg.DataDir)
	if err != nil {
		return exitError(exitSysError, fmt.Errorf("resolve data dir: %w", err))
	}
	cfg.DataDir = dataDir

	logger, cleanup, err := logging.New(stderr, cfg.Log)
	if err != nil {
		return exitError(exitSysError, fmt.Errorf("open log: %w", err))
	}

	e.configDir = configDir
	e.cfg = cfg
	e.logger = logger
	e.closeLog = cleanup
	e.logOpen = true
	return nil
}

// exitErr carries the process exit code for an error.
type exitErr struct {
	code int
	err  error
}

func (e *exitErr) Error() string { return e.err.Error() }
func (e *exitErr) Unwrap() error { return e.err }

// exitError tags err with the given exit code.
func exitError(code int, err error) error {
	return &exitErr{code: code, err: err}
}
