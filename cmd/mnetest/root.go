// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"mnetest/internal/config"
	"mnetest/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootOptions carries persistent flag state shared by every subcommand.
type rootOptions struct {
	// verbose enables verbose output.
	verbose bool
	// cfgFile allows specifying a custom config file.
	cfgFile string
}

// newRootCommand builds the mnetest command tree around app.
func newRootCommand(app *App) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "mnetest",
		Short: "Derive and run the MNE test-suite invocation",
		Long: TitleStyle.Render("mnetest") + SubtitleStyle.Render(" - derive and run the MNE test-suite invocation") + `

mnetest replaces the CI shell script that assembled the pytest command
line. It reads the CI host OS name and job flavor from the environment,
derives the marker-exclusion expression and the target paths, and
invokes the test runner with inherited stdio, propagating its exit
code verbatim.

` + SubtitleStyle.Render("Inputs:") + `
  CI_OS_NAME     CI host image name (e.g. "ubuntu-22.04", "macos-13")
  MNE_CI_KIND    CI job flavor (e.g. "standard", "notebook")

` + SubtitleStyle.Render("Examples:") + `
  mnetest run                  Derive and execute the test invocation
  mnetest plan                 Show the derivation without executing
  mnetest matrix ci.yml        Expand a workflow matrix into plans
  mnetest doctor               Check the test environment
  mnetest config show          Show current configuration`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(cmd.ErrOrStderr(), opts.verbose)
			applyConfigDefaults(cmd.Context(), app, opts)
		},
	}

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.config/mnetest/config.cue)")

	rootCmd.AddCommand(newRunCommand(app, opts))
	rootCmd.AddCommand(newPlanCommand(app, opts))
	rootCmd.AddCommand(newMatrixCommand(app, opts))
	rootCmd.AddCommand(newDoctorCommand(app, opts))
	rootCmd.AddCommand(newConfigCommand(app, opts))
	rootCmd.AddCommand(newCompletionCommand())

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the command tree and runs it. This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})

	// Use fang.Execute for enhanced Cobra styling.
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version.
	if err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// configureLogging routes slog through charmbracelet/log so diagnostics
// share the CLI styling. Verbose mode lowers the level to debug.
func configureLogging(w io.Writer, verbose bool) {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}

	slog.SetDefault(slog.New(log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: false,
		Prefix:          "mnetest",
	})))
}

// applyConfigDefaults backfills persistent flag state from the config
// file. Load failures only warn here; commands that need configuration
// surface the error themselves.
func applyConfigDefaults(ctx context.Context, app *App, opts *rootOptions) {
	cfg, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: opts.cfgFile})
	if err != nil {
		slog.Warn("failed to load config for flag defaults", "error", err)
		return
	}

	// Apply verbose from config if not set via flag
	if !opts.verbose {
		opts.verbose = cfg.UI.Verbose
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
