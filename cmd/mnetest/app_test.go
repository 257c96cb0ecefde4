// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"mnetest/internal/plan"
	"mnetest/internal/runner"
	"mnetest/internal/testutil"
)

// fakeRunner records invocations instead of spawning processes.
type fakeRunner struct {
	calls    int
	lastPlan plan.Plan
	lastOpts runner.Options
	result   *runner.Result
}

func (f *fakeRunner) Invoke(_ context.Context, p plan.Plan, opts runner.Options) *runner.Result {
	f.calls++
	f.lastPlan = p
	f.lastOpts = opts
	if f.result != nil {
		return f.result
	}
	return &runner.Result{ExitCode: 0}
}

// testApp builds an App with captured streams, a fake runner and a
// fixed environment map standing in for the process environment.
func testApp(env map[string]string, fake *fakeRunner) (*App, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	app := NewApp(Dependencies{
		Runner: fake,
		Getenv: func(key string) string { return env[key] },
		Stdout: stdout,
		Stderr: stderr,
	})
	return app, stdout, stderr
}

// execCommand runs the command tree with the given arguments.
func execCommand(app *App, args ...string) error {
	rootCmd := newRootCommand(app)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// writeConfigFile writes a config fixture and returns its path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.cue")
	testutil.MustWriteFile(t, path, []byte(content), 0o644)
	return path
}

func TestNewApp_Defaults(t *testing.T) {
	t.Parallel()

	app := NewApp(Dependencies{})

	if app.Config == nil {
		t.Error("Config should default to the production provider")
	}
	if app.Runner == nil {
		t.Error("Runner should default to the exec runner")
	}
	if app.Getenv == nil {
		t.Error("Getenv should default to os.Getenv")
	}
	if app.stdout != os.Stdout {
		t.Error("stdout should default to os.Stdout")
	}
	if app.stderr != os.Stderr {
		t.Error("stderr should default to os.Stderr")
	}
}

func TestNewApp_InjectedDependencies(t *testing.T) {
	t.Parallel()

	fake := &fakeRunner{}
	app, stdout, stderr := testApp(map[string]string{"CI_OS_NAME": "ubuntu-22.04"}, fake)

	if app.Runner != runner.Runner(fake) {
		t.Error("Runner should be the injected fake")
	}
	if app.stdout != stdout || app.stderr != stderr {
		t.Error("streams should be the injected buffers")
	}
	if got := app.Getenv("CI_OS_NAME"); got != "ubuntu-22.04" {
		t.Errorf("Getenv(CI_OS_NAME) = %q, want %q", got, "ubuntu-22.04")
	}
	if got := app.Getenv("MNE_CI_KIND"); got != "" {
		t.Errorf("Getenv(MNE_CI_KIND) = %q, want empty", got)
	}
}

func TestGetVersionString(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, BuildDate
	defer func() {
		Version, Commit, BuildDate = origVersion, origCommit, origDate
	}()

	Version = "dev"
	if got := getVersionString(); got != "dev (built from source)" {
		t.Errorf("getVersionString() = %q", got)
	}

	Version, Commit, BuildDate = "1.2.3", "abc1234", "2026-08-01"
	want := "1.2.3 (commit: abc1234, built: 2026-08-01)"
	if got := getVersionString(); got != want {
		t.Errorf("getVersionString() = %q, want %q", got, want)
	}
}
