// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os/exec"

	"mnetest/internal/config"
	"mnetest/internal/issue"
	"mnetest/internal/plan"
	"mnetest/internal/runner"
	"mnetest/pkg/types"

	"github.com/spf13/cobra"
)

// deriveFlags holds the flag state shared by every command that
// derives an invocation plan.
type deriveFlags struct {
	runnerName  string
	packageName string
	osName      string
	ciKind      string
}

// register wires the shared derivation flags onto cmd.
func (f *deriveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.runnerName, "runner", "", "test runner executable (overrides config)")
	cmd.Flags().StringVar(&f.packageName, "package", "", "coverage package (overrides config)")
	cmd.Flags().StringVar(&f.osName, "os-name", "", "CI host OS name (overrides CI_OS_NAME)")
	cmd.Flags().StringVar(&f.ciKind, "kind", "", "CI job flavor (overrides MNE_CI_KIND)")
}

// resolveContext reads the derivation inputs, letting flags override
// the process environment.
func (f *deriveFlags) resolveContext(cmd *cobra.Command, app *App) plan.Context {
	pctx := plan.FromEnviron(app.Getenv)
	if cmd.Flags().Changed("os-name") {
		pctx.OSName = f.osName
	}
	if cmd.Flags().Changed("kind") {
		pctx.CIKind = f.ciKind
	}
	return pctx
}

// resolvePlan combines environment, config and flags into the final
// plan. Flags beat config, config beats the built-in defaults, and
// positional args land after the config's extra_args.
func (f *deriveFlags) resolvePlan(cmd *cobra.Command, app *App, cfg *config.Config, args []string) (plan.Plan, plan.Context) {
	pctx := f.resolveContext(cmd, app)

	opts := plan.Options{
		Runner:  cfg.Runner.String(),
		Package: cfg.Package.String(),
	}
	if cmd.Flags().Changed("runner") {
		opts.Runner = f.runnerName
	}
	if cmd.Flags().Changed("package") {
		opts.Package = f.packageName
	}
	opts.ExtraArgs = append(append([]string{}, cfg.ExtraArgs...), args...)

	return plan.Derive(pctx, opts), pctx
}

// runFlags holds the flag state for the run command.
type runFlags struct {
	deriveFlags
	envFile       string
	workDir       string
	pyprojectPath string
	noTrace       bool
	dryRun        bool
	check         bool
}

// newRunCommand creates the run command, the port of the CI script
// itself: derive the invocation from the environment and execute it.
func newRunCommand(app *App, rootOpts *rootOptions) *cobra.Command {
	flags := &runFlags{}

	runCmd := &cobra.Command{
		Use:   "run [-- extra pytest args]",
		Short: "Derive and execute the test invocation",
		Long: `Derive the pytest invocation from CI_OS_NAME and MNE_CI_KIND and
execute it with inherited stdio. The runner's exit code becomes the
mnetest exit code, unchanged, so CI sees exactly what pytest reported.

Positional arguments are appended to the derived command line after
any extra_args from the config file. With --check the derived marker
expression is validated against pyproject.toml before anything runs.`,
		Example: `  mnetest run
  mnetest run --os-name ubuntu-22.04 --kind notebook
  mnetest run --dry-run
  mnetest run -- -k test_filter_resample`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args, app, rootOpts, flags)
		},
	}

	flags.register(runCmd)
	runCmd.Flags().StringVar(&flags.envFile, "env-file", "", "dotenv file loaded into the runner environment")
	runCmd.Flags().StringVar(&flags.workDir, "workdir", "", "working directory for the runner")
	runCmd.Flags().BoolVar(&flags.noTrace, "no-trace", false, "suppress the xtrace-style command echo")
	runCmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "show the derivation without executing")
	runCmd.Flags().BoolVar(&flags.check, "check", false, "fail when the marker expression uses undeclared markers")
	runCmd.Flags().StringVar(&flags.pyprojectPath, "pyproject", "", "pyproject.toml to check markers against (default ./pyproject.toml)")

	return runCmd
}

func runRun(cmd *cobra.Command, args []string, app *App, rootOpts *rootOptions, flags *runFlags) error {
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

	extraEnv := map[string]string{}
	if cfg.EnvFile != "" {
		if err := runner.LoadEnvFile(extraEnv, cfg.EnvFile.String(), flags.workDir, true); err != nil {
			rendered, _ := issue.Get(issue.EnvFileInvalidId).Render(issueScheme(cfg))
			fmt.Fprint(stderr, rendered)
			return err
		}
	}
	if flags.envFile != "" {
		// Named on the command line, so the file must exist.
		if err := runner.LoadEnvFile(extraEnv, flags.envFile, flags.workDir, false); err != nil {
			rendered, _ := issue.Get(issue.EnvFileInvalidId).Render(issueScheme(cfg))
			fmt.Fprint(stderr, rendered)
			return err
		}
	}

	if flags.dryRun {
		renderPlan(stdout, p, pctx, extraEnv)
		return nil
	}

	if cfg.Hooks.PreRun != "" {
		hookOpts := runner.Options{
			Stdin:    cmd.InOrStdin(),
			Stdout:   stdout,
			Stderr:   stderr,
			Dir:      flags.workDir,
			ExtraEnv: extraEnv,
		}
		if err := runner.RunHook(ctx, cfg.Hooks.PreRun.String(), hookOpts); err != nil {
			var hookErr *runner.HookExitError
			if errors.As(err, &hookErr) {
				rendered, _ := issue.Get(issue.HookFailedId).Render(issueScheme(cfg))
				fmt.Fprint(stderr, rendered)
				cmd.SilenceUsage = true
				cmd.SilenceErrors = true
				return &ExitError{Code: types.ExitCode(hookErr.Status), Err: hookErr}
			}
			fmt.Fprintln(stderr, formatErrorForDisplay(err, rootOpts.verbose))
			return err
		}
	}

	result := app.Runner.Invoke(ctx, p, runner.Options{
		Stdin:    cmd.InOrStdin(),
		Stdout:   stdout,
		Stderr:   stderr,
		Dir:      flags.workDir,
		ExtraEnv: extraEnv,
		Trace:    !flags.noTrace,
	})

	if result.Error != nil {
		if errors.Is(result.Error, exec.ErrNotFound) {
			rendered, _ := issue.Get(issue.RunnerNotFoundId).Render(issueScheme(cfg))
			fmt.Fprint(stderr, rendered)
		}
		fmt.Fprintln(stderr, formatErrorForDisplay(result.Error, rootOpts.verbose))
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return &ExitError{Code: types.ExitCode(result.ExitCode), Err: result.Error}
	}
	if result.ExitCode != 0 {
		// Test failures are the runner speaking, not us. Propagate the
		// code without wrapping it in more diagnostics.
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return &ExitError{Code: types.ExitCode(result.ExitCode)}
	}

	return nil
}
