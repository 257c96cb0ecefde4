// SPDX-License-Identifier: MPL-2.0

// Package runner launches a derived test invocation and reports its exit
// status. The production implementation spawns the runner through os/exec
// with the parent's streams; command tests substitute a fake Runner.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"mnetest/internal/issue"
	"mnetest/internal/plan"
)

type (
	// Options carries the per-invocation settings that are not part of the
	// derived plan itself.
	Options struct {
		// Stdin, Stdout and Stderr are the runner's streams. Nil values
		// fall back to the parent process streams, so an interactive run
		// inherits the terminal.
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer

		// Dir is the runner's working directory. Empty means inherit.
		Dir string

		// ExtraEnv entries are appended after the inherited environment,
		// so they win over inherited values with the same key.
		ExtraEnv map[string]string

		// Trace echoes the command line to Stderr before the runner starts.
		Trace bool
	}

	// Result represents the outcome of a runner invocation.
	Result struct {
		// ExitCode is the runner's own exit status, propagated verbatim.
		// Failures that prevent the runner from starting report 1.
		ExitCode int
		// Error is non-nil only when the invocation itself failed. A
		// runner that started and exited non-zero is not an Error: the
		// runner already reported the failure on its own streams.
		Error error
	}

	// Runner launches a derived invocation.
	Runner interface {
		Invoke(ctx context.Context, p plan.Plan, opts Options) *Result
	}

	// ExecRunner is the production Runner backed by os/exec.
	ExecRunner struct{}
)

// Success returns true if the runner ran and exited zero.
func (r *Result) Success() bool {
	return r.ExitCode == 0 && r.Error == nil
}

// NewExecRunner creates the os/exec-backed Runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Resolve locates the runner executable on PATH. The returned error is
// actionable: a missing runner is the most common setup failure and the
// message must tell the user how to fix it.
func Resolve(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", issue.NewErrorContext().
			WithOperation("resolve test runner").
			WithResource(name).
			WithSuggestion("Install it with 'pip install pytest pytest-cov'").
			WithSuggestion("Or point at another runner with '--runner /path/to/pytest'").
			WithSuggestion("See 'mnetest doctor' for a full environment check").
			Wrap(err).
			BuildError()
	}
	return path, nil
}

// Invoke spawns the plan's argument vector with inherited streams and
// returns the runner's exit status. The runner path is resolved before
// spawning so a missing executable fails with a useful error instead of
// an exec failure.
func (r *ExecRunner) Invoke(ctx context.Context, p plan.Plan, opts Options) *Result {
	if valid, errs := p.IsValid(); !valid {
		return &Result{ExitCode: 1, Error: errs[0]}
	}

	path, err := Resolve(p.Runner)
	if err != nil {
		return &Result{ExitCode: 1, Error: err}
	}

	argv := p.Argv()
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	if opts.Trace {
		fmt.Fprintln(stderr, TraceLine(argv))
	}

	cmd := exec.CommandContext(ctx, path, argv[1:]...)

	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	cmd.Env = append(os.Environ(), EnvToSlice(opts.ExtraEnv)...)

	cmd.Stdout = opts.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = stderr
	cmd.Stdin = opts.Stdin
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return &Result{ExitCode: exitErr.ExitCode(), Error: nil}
		}
		return &Result{ExitCode: 1, Error: fmt.Errorf("failed to start test runner: %w", err)}
	}

	return &Result{ExitCode: 0}
}

// EnvToSlice converts an environment map to KEY=value form for exec.Cmd
// and the hook interpreter.
func EnvToSlice(env map[string]string) []string {
	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}
