// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"mnetest/internal/config"
	"mnetest/internal/issue"
	"mnetest/internal/plan"
	"mnetest/internal/runner"
	"mnetest/internal/workflow"

	"github.com/spf13/cobra"
)

// matrixFlags holds the flag state for the matrix command.
type matrixFlags struct {
	runnerName  string
	packageName string
	osKey       string
	kindKey     string
	quiet       bool
}

// newMatrixCommand creates the matrix command, which expands a GitHub
// Actions workflow matrix into the invocation each job would run. It
// answers "what will CI actually execute" without pushing a commit.
func newMatrixCommand(app *App, rootOpts *rootOptions) *cobra.Command {
	flags := &matrixFlags{}

	matrixCmd := &cobra.Command{
		Use:   "matrix <workflow.yml>",
		Short: "Expand a workflow matrix into test invocations",
		Long: `Read a GitHub Actions workflow file, expand each job's strategy.matrix
(cross product plus include rows, minus exclude rows), and derive the
test invocation for every combination.

The OS and kind axes default to the matrix keys "os" and "kind"; use
--os-key and --kind-key for workflows that name them differently.`,
		Example: `  mnetest matrix .github/workflows/tests.yml
  mnetest matrix ci.yml --quiet
  mnetest matrix ci.yml --os-key runner --kind-key flavor`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatrix(cmd, args[0], app, rootOpts, flags)
		},
	}

	matrixCmd.Flags().StringVar(&flags.runnerName, "runner", "", "test runner executable (overrides config)")
	matrixCmd.Flags().StringVar(&flags.packageName, "package", "", "coverage package (overrides config)")
	matrixCmd.Flags().StringVar(&flags.osKey, "os-key", workflow.DefaultOSKey, "matrix key holding the OS name")
	matrixCmd.Flags().StringVar(&flags.kindKey, "kind-key", workflow.DefaultKindKey, "matrix key holding the CI kind")
	matrixCmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "print only the shell-quoted command lines")

	return matrixCmd
}

func runMatrix(cmd *cobra.Command, path string, app *App, rootOpts *rootOptions, flags *matrixFlags) error {
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

	entries, err := workflow.Load(path, flags.osKey, flags.kindKey)
	if err != nil {
		rendered, _ := issue.Get(issue.WorkflowParseErrorId).Render(issueScheme(cfg))
		fmt.Fprint(stderr, rendered)
		fmt.Fprintln(stderr, formatErrorForDisplay(err, rootOpts.verbose))
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return &ExitError{Code: 1, Err: err}
	}

	if len(entries) == 0 {
		fmt.Fprintln(stderr, WarningStyle.Render("Warning: ")+"no matrix combinations found in "+path)
		return nil
	}

	opts := plan.Options{
		Runner:    cfg.Runner.String(),
		Package:   cfg.Package.String(),
		ExtraArgs: cfg.ExtraArgs,
	}
	if cmd.Flags().Changed("runner") {
		opts.Runner = flags.runnerName
	}
	if cmd.Flags().Changed("package") {
		opts.Package = flags.packageName
	}

	if !flags.quiet {
		fmt.Fprintln(stdout, TitleStyle.Render("Workflow Matrix")+SubtitleStyle.Render(fmt.Sprintf(" - %d invocations", len(entries))))
		fmt.Fprintln(stdout)
	}

	for i, e := range entries {
		p := plan.Derive(plan.Context{OSName: e.OS, CIKind: e.Kind}, opts)
		line := runner.ShellJoin(p.Argv())

		if flags.quiet {
			fmt.Fprintln(stdout, line)
			continue
		}

		kind := e.Kind
		if kind == "" {
			kind = "(default)"
		}
		fmt.Fprintf(stdout, "%d. %s  %s %s\n", i+1,
			SubtitleStyle.Render(e.Job),
			VerboseHighlightStyle.Render("os=")+e.OS,
			VerboseHighlightStyle.Render("kind=")+kind)
		fmt.Fprintf(stdout, "   %s\n", CmdStyle.Render(line))
	}

	return nil
}
