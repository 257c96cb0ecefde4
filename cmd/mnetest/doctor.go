// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"mnetest/internal/config"
	"mnetest/internal/doctor"
	"mnetest/internal/issue"

	"github.com/spf13/cobra"
)

// newDoctorCommand creates the doctor command, which checks the
// environment a test run would execute in and reports what would break.
func newDoctorCommand(app *App, rootOpts *rootOptions) *cobra.Command {
	var pyprojectPath string

	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the test environment",
		Long: `Inspect the environment a test run would execute in: configuration,
runner availability, marker declarations, env file, pre-run hook, CI
variables, host facts and sandboxing. Checks only read; nothing is
changed.

The command exits non-zero when any check fails. Warnings alone do
not change the exit code.`,
		Example: `  mnetest doctor
  mnetest doctor --pyproject ../mne-python/pyproject.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, app, rootOpts, pyprojectPath)
		},
	}

	doctorCmd.Flags().StringVar(&pyprojectPath, "pyproject", "", "pyproject.toml to check markers against (default ./pyproject.toml)")

	return doctorCmd
}

func runDoctor(cmd *cobra.Command, app *App, rootOpts *rootOptions, pyprojectPath string) error {
	ctx := cmd.Context()
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	// A broken config is a finding for the checkup, not a reason to stop.
	cfg, cfgPath, cfgErr := app.Config.LoadWithPath(ctx, config.LoadOptions{ConfigFilePath: rootOpts.cfgFile})

	results, err := doctor.Checkup(ctx, doctor.Options{
		Config:        cfg,
		ConfigPath:    cfgPath,
		ConfigErr:     cfgErr,
		Getenv:        app.Getenv,
		PyprojectPath: pyprojectPath,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, TitleStyle.Render("Environment Checkup"))
	fmt.Fprintln(stdout)

	var passed, warned, failed int
	for _, r := range results {
		icon := passIcon
		switch r.Status {
		case doctor.StatusPass:
			passed++
		case doctor.StatusWarn:
			icon = warnIcon
			warned++
		case doctor.StatusFail:
			icon = failIcon
			failed++
		}
		fmt.Fprintf(stdout, "  %s %-14s %s\n", icon, r.Name, r.Detail)
	}

	fmt.Fprintln(stdout)
	summary := fmt.Sprintf("%d passed, %d warnings, %d failed", passed, warned, failed)
	switch {
	case failed > 0:
		fmt.Fprintln(stdout, ErrorStyle.Render(summary))
	case warned > 0:
		fmt.Fprintln(stdout, WarningStyle.Render(summary))
	default:
		fmt.Fprintln(stdout, SuccessStyle.Render(summary))
	}

	// Each failing check names the issue explaining how to fix it.
	// Render every distinct one once, in table order.
	seen := map[issue.Id]bool{}
	for _, r := range results {
		if r.Hint == 0 || seen[r.Hint] {
			continue
		}
		seen[r.Hint] = true
		rendered, _ := issue.Get(r.Hint).Render(issueScheme(cfg))
		fmt.Fprint(stderr, rendered)
	}

	// The table row only has room for the top-level message; verbose
	// mode prints the full chain behind a config finding.
	if rootOpts.verbose && cfgErr != nil {
		fmt.Fprintln(stderr, formatErrorForDisplay(cfgErr, true))
	}

	if doctor.Failed(results) {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return &ExitError{Code: 1}
	}

	return nil
}
