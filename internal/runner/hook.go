// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// HookExitError reports a pre-run hook that parsed and ran but exited
// with a non-zero status. The status aborts the run and becomes the
// process exit code, the same fail-fast contract as any setup step.
type HookExitError struct {
	Status int
}

// Error implements the error interface.
func (e *HookExitError) Error() string {
	return fmt.Sprintf("pre-run hook exited with status %d", e.Status)
}

// ValidateHook checks that a hook script parses as POSIX shell without
// running it. Used by doctor and config validation.
func ValidateHook(script string) error {
	if strings.TrimSpace(script) == "" {
		return nil
	}
	_, err := syntax.NewParser().Parse(strings.NewReader(script), "pre_run")
	if err != nil {
		return fmt.Errorf("hook syntax error: %w", err)
	}
	return nil
}

// RunHook executes the configured pre-run script in the embedded POSIX
// interpreter. The hook runs in its own interpreter process image: it
// shares the runner's working directory, environment and streams, but
// nothing it exports reaches the runner's environment.
func RunHook(ctx context.Context, script string, opts Options) error {
	if strings.TrimSpace(script) == "" {
		return nil
	}

	parser := syntax.NewParser()
	prog, err := parser.Parse(strings.NewReader(script), "pre_run")
	if err != nil {
		return fmt.Errorf("failed to parse hook script: %w", err)
	}

	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	env := append(os.Environ(), EnvToSlice(opts.ExtraEnv)...)
	interpOpts := []interp.RunnerOption{
		interp.Dir(opts.Dir),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(stdin, stdout, stderr),
	}

	hookRunner, err := interp.New(interpOpts...)
	if err != nil {
		return fmt.Errorf("failed to create hook interpreter: %w", err)
	}

	if err := hookRunner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &HookExitError{Status: int(exitStatus)}
		}
		return fmt.Errorf("hook execution failed: %w", err)
	}

	return nil
}
