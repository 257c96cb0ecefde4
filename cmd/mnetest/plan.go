// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"mnetest/internal/config"
	"mnetest/internal/issue"
	"mnetest/internal/plan"
	"mnetest/internal/pyproject"
	"mnetest/internal/runner"

	"github.com/spf13/cobra"
)

// planFlags holds the flag state for the plan command.
type planFlags struct {
	deriveFlags
	quiet         bool
	check         bool
	pyprojectPath string
}

// newPlanCommand creates the plan command, which shows the derivation
// without executing anything. Derivation is pure, so the output for a
// given environment and config is always the same.
func newPlanCommand(app *App, rootOpts *rootOptions) *cobra.Command {
	flags := &planFlags{}

	planCmd := &cobra.Command{
		Use:   "plan [-- extra pytest args]",
		Short: "Show the derived test invocation without executing",
		Long: `Show how CI_OS_NAME and MNE_CI_KIND map onto the marker expression,
the target paths and the full pytest command line. Nothing is executed.

With --check the derived marker expression is compared against the
markers declared in pyproject.toml, and undeclared markers fail the
command. With --quiet only the shell-quoted command line is printed,
one invocation per line, which suits scripting.`,
		Example: `  mnetest plan
  mnetest plan --os-name macos-13
  mnetest plan --quiet
  mnetest plan --check --pyproject ../mne-python/pyproject.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, args, app, rootOpts, flags)
		},
	}

	flags.register(planCmd)
	planCmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "print only the shell-quoted command line")
	planCmd.Flags().BoolVar(&flags.check, "check", false, "fail when the marker expression uses undeclared markers")
	planCmd.Flags().StringVar(&flags.pyprojectPath, "pyproject", "", "pyproject.toml to check markers against (default ./pyproject.toml)")

	return planCmd
}

func runPlan(cmd *cobra.Command, args []string, app *App, rootOpts *rootOptions, flags *planFlags) error {
	ctx := cmd.Context()
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	cfg, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: rootOpts.cfgFile})
	if err != nil {
		id := issue.ConfigLoadFailedId
		if errors.Is(err, config.ErrInvalidConfig) {
			id = issue.ConfigInvalidId
		}
		rendered, _ := issue.Get(id).Render(issueScheme(cfg))
		fmt.Fprint(stderr, rendered)
		fmt.Fprintln(stderr, formatErrorForDisplay(err, rootOpts.verbose))
		return err
	}

	p, pctx := flags.resolvePlan(cmd, app, cfg, args)

	if flags.check {
		if err := checkMarkers(cmd, p, flags.pyprojectPath, issueScheme(cfg), rootOpts.verbose); err != nil {
			return err
		}
	}

	if flags.quiet {
		fmt.Fprintln(stdout, runner.ShellJoin(p.Argv()))
		return nil
	}

	renderPlan(stdout, p, pctx, nil)
	return nil
}

// checkMarkers verifies that every marker the derived expression
// references is declared in pyproject.toml. The runner accepts unknown
// markers silently, which is exactly how a typo would slip through.
func checkMarkers(cmd *cobra.Command, p plan.Plan, path, scheme string, verbose bool) error {
	stderr := cmd.ErrOrStderr()

	if path == "" {
		path = pyproject.DefaultFile
	}
	path = filepath.Clean(path)

	f, err := pyproject.Load(path)
	if err != nil {
		rendered, _ := issue.Get(issue.PyprojectUnreadableId).Render(scheme)
		fmt.Fprint(stderr, rendered)
		fmt.Fprintln(stderr, formatErrorForDisplay(err, verbose))
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return &ExitError{Code: 1, Err: err}
	}

	if missing := pyproject.Missing(f.MarkerNames(), p.Markers()); len(missing) > 0 {
		fmt.Fprintf(stderr, "%s does not declare: %s\n", path, strings.Join(missing, ", "))
		rendered, _ := issue.Get(issue.MarkersMissingId).Render(scheme)
		fmt.Fprint(stderr, rendered)
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return &ExitError{Code: 1}
	}

	return nil
}

// renderPlan writes the human-readable derivation summary. Shared by
// plan and run --dry-run.
func renderPlan(w io.Writer, p plan.Plan, pctx plan.Context, env map[string]string) {
	fmt.Fprintln(w, TitleStyle.Render("Test Run Plan"))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s %s\n", VerboseHighlightStyle.Render("OS name:"), displayValue(pctx.OSName))
	fmt.Fprintf(w, "  %s %s\n", VerboseHighlightStyle.Render("Kind:"), displayValue(pctx.CIKind))
	fmt.Fprintf(w, "  %s %s\n", VerboseHighlightStyle.Render("Runner:"), p.Runner)
	fmt.Fprintf(w, "  %s %s\n", VerboseHighlightStyle.Render("Markers:"), p.MarkerExpr)
	fmt.Fprintf(w, "  %s %s\n", VerboseHighlightStyle.Render("Targets:"), strings.Join(p.TargetPaths, " "))

	fmt.Fprintln(w)
	fmt.Fprintln(w, SubtitleStyle.Render("Command:"))
	fmt.Fprintf(w, "  %s\n", CmdStyle.Render(runner.ShellJoin(p.Argv())))

	if len(env) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, SubtitleStyle.Render("Environment:"))
		for _, k := range slices.Sorted(maps.Keys(env)) {
			fmt.Fprintf(w, "  %s=%s\n", k, env[k])
		}
	}
}

// displayValue renders empty derivation inputs visibly. An unset
// CI_OS_NAME is a real state with a defined meaning, not an error.
func displayValue(v string) string {
	if v == "" {
		return VerboseStyle.Render("(unset)")
	}
	return v
}
