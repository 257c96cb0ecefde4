// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"os"

	"mnetest/internal/config"
	"mnetest/internal/runner"
)

type (
	// App wires CLI services and shared dependencies. It is the
	// composition root for the CLI layer: all Cobra command handlers
	// receive an App reference and delegate work through it.
	App struct {
		Config config.Provider
		Runner runner.Runner
		// Getenv supplies the CI environment snapshot. It is injected
		// so tests can derive plans without mutating the process env.
		Getenv func(string) string
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies defines the injection points for building an App.
	// Nil fields are replaced with production defaults by NewApp.
	// Tests can supply fakes to isolate specific behavior.
	Dependencies struct {
		Config config.Provider
		Runner runner.Runner
		Getenv func(string) string
		Stdout io.Writer
		Stderr io.Writer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Runner == nil {
		deps.Runner = runner.NewExecRunner()
	}
	if deps.Getenv == nil {
		deps.Getenv = os.Getenv
	}

	return &App{
		Config: deps.Config,
		Runner: deps.Runner,
		Getenv: deps.Getenv,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
}
