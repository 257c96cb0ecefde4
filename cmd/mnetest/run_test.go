// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"mnetest/internal/runner"
	"mnetest/internal/testutil"

	"github.com/google/go-cmp/cmp"
)

func TestRun_DerivesFromEnvironment(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `runner: "pytest"`)
	fake := &fakeRunner{}
	app, _, _ := testApp(map[string]string{"CI_OS_NAME": "ubuntu-22.04"}, fake)

	if err := execCommand(app, "--config", cfgPath, "run"); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if fake.calls != 1 {
		t.Fatalf("runner invoked %d times, want 1", fake.calls)
	}
	want := []string{
		"pytest",
		"-m", "not (ultraslowtest or pgtest)",
		"--tb=short",
		"--cov=mne",
		"--cov-report", "xml",
		"-vv",
		"mne/",
	}
	if diff := cmp.Diff(want, fake.lastPlan.Argv()); diff != "" {
		t.Errorf("argv mismatch (-want +got):\n%s", diff)
	}
	if !fake.lastOpts.Trace {
		t.Error("trace should be on by default")
	}
}

func TestRun_FlagsOverrideEnvironmentAndConfig(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `runner: "pytest"`)
	fake := &fakeRunner{}
	app, _, _ := testApp(map[string]string{
		"CI_OS_NAME":  "ubuntu-22.04",
		"MNE_CI_KIND": "standard",
	}, fake)

	err := execCommand(app, "--config", cfgPath, "run",
		"--os-name", "macos-13",
		"--kind", "notebook",
		"--runner", "python-dbg",
		"--package", "mne_custom")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	p := fake.lastPlan
	if p.Runner != "python-dbg" {
		t.Errorf("Runner = %q, want %q", p.Runner, "python-dbg")
	}
	if p.MarkerExpr != "not (slowtest or pgtest)" {
		t.Errorf("MarkerExpr = %q", p.MarkerExpr)
	}
	if diff := cmp.Diff([]string{"mne_custom/viz/"}, p.TargetPaths); diff != "" {
		t.Errorf("targets mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_ExtraArgsAppendAfterConfig(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `
runner: "pytest"

extra_args: ["-x"]
`)
	fake := &fakeRunner{}
	app, _, _ := testApp(map[string]string{"CI_OS_NAME": "ubuntu-22.04"}, fake)

	if err := execCommand(app, "--config", cfgPath, "run", "--", "-k", "test_filter"); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if diff := cmp.Diff([]string{"-x", "-k", "test_filter"}, fake.lastPlan.ExtraArgs); diff != "" {
		t.Errorf("extra args mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_PropagatesRunnerExitCode(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `runner: "pytest"`)
	fake := &fakeRunner{result: &runner.Result{ExitCode: 3}}
	app, _, _ := testApp(map[string]string{"CI_OS_NAME": "ubuntu-22.04"}, fake)

	err := execCommand(app, "--config", cfgPath, "run")

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("want *ExitError, got %v", err)
	}
	if got := int(exitErr.Code); got != 3 {
		t.Errorf("exit code = %d, want 3", got)
	}
	if exitErr.Err != nil {
		t.Errorf("a plain test failure should carry no wrapped error, got %v", exitErr.Err)
	}
}

func TestRun_StartFailureBecomesExitError(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `runner: "pytest"`)
	startErr := errors.New("failed to start test runner: boom")
	fake := &fakeRunner{result: &runner.Result{ExitCode: 1, Error: startErr}}
	app, _, stderr := testApp(map[string]string{"CI_OS_NAME": "ubuntu-22.04"}, fake)

	err := execCommand(app, "--config", cfgPath, "run")

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("want *ExitError, got %v", err)
	}
	if got := int(exitErr.Code); got != 1 {
		t.Errorf("exit code = %d, want 1", got)
	}
	if !errors.Is(exitErr.Err, startErr) {
		t.Errorf("wrapped error = %v, want %v", exitErr.Err, startErr)
	}
	if !strings.Contains(stderr.String(), "failed to start") {
		t.Errorf("stderr should explain the failure, got %q", stderr.String())
	}
}

func TestRun_DryRunDoesNotInvoke(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `runner: "pytest"`)
	fake := &fakeRunner{}
	app, stdout, _ := testApp(map[string]string{"CI_OS_NAME": "ubuntu-22.04"}, fake)

	if err := execCommand(app, "--config", cfgPath, "run", "--dry-run"); err != nil {
		t.Fatalf("dry run failed: %v", err)
	}

	if fake.calls != 0 {
		t.Errorf("dry run invoked the runner %d times", fake.calls)
	}
	out := stdout.String()
	if !strings.Contains(out, "Test Run Plan") {
		t.Errorf("missing plan title in output:\n%s", out)
	}
	if !strings.Contains(out, "not (ultraslowtest or pgtest)") {
		t.Errorf("missing marker expression in output:\n%s", out)
	}
}

func TestRun_CheckAbortsOnUndeclaredMarkers(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `runner: "pytest"`)
	pyPath := filepath.Join(t.TempDir(), "pyproject.toml")
	testutil.MustWriteFile(t, pyPath, []byte(`[tool.pytest.ini_options]
markers = ["slowtest: slow", "pgtest: postgres"]
`), 0o644)

	fake := &fakeRunner{}
	app, _, stderr := testApp(map[string]string{"CI_OS_NAME": "ubuntu-22.04"}, fake)

	err := execCommand(app, "--config", cfgPath, "run", "--check", "--pyproject", pyPath)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("want *ExitError, got %v", err)
	}
	if got := int(exitErr.Code); got != 1 {
		t.Errorf("exit code = %d, want 1", got)
	}
	if fake.calls != 0 {
		t.Errorf("runner must not start after a failed check, invoked %d times", fake.calls)
	}
	if !strings.Contains(stderr.String(), "does not declare: ultraslowtest") {
		t.Errorf("stderr should list the missing marker, got:\n%s", stderr.String())
	}
}

func TestRun_CheckPassesWithDeclaredMarkers(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `runner: "pytest"`)
	pyPath := filepath.Join(t.TempDir(), "pyproject.toml")
	testutil.MustWriteFile(t, pyPath, []byte(`[tool.pytest.ini_options]
markers = [
    "slowtest: slow",
    "ultraslowtest: ultraslow",
    "pgtest: postgres",
]
`), 0o644)

	fake := &fakeRunner{}
	app, _, _ := testApp(map[string]string{"CI_OS_NAME": "ubuntu-22.04"}, fake)

	if err := execCommand(app, "--config", cfgPath, "run", "--check", "--pyproject", pyPath); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("runner invoked %d times, want 1", fake.calls)
	}
}

func TestRun_HookFailureAbortsWithHookStatus(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `
runner: "pytest"

hooks: {
	pre_run: "exit 7"
}
`)
	fake := &fakeRunner{}
	app, _, _ := testApp(map[string]string{"CI_OS_NAME": "ubuntu-22.04"}, fake)

	err := execCommand(app, "--config", cfgPath, "run")

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("want *ExitError, got %v", err)
	}
	if got := int(exitErr.Code); got != 7 {
		t.Errorf("exit code = %d, want the hook's status 7", got)
	}
	if fake.calls != 0 {
		t.Errorf("runner must not start after a failed hook, invoked %d times", fake.calls)
	}
}

func TestRun_HookRunsBeforeRunner(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `
runner: "pytest"

hooks: {
	pre_run: "echo hook-ran"
}
`)
	fake := &fakeRunner{}
	app, stdout, _ := testApp(map[string]string{"CI_OS_NAME": "ubuntu-22.04"}, fake)

	if err := execCommand(app, "--config", cfgPath, "run"); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if !strings.Contains(stdout.String(), "hook-ran") {
		t.Errorf("hook output missing from stdout: %q", stdout.String())
	}
	if fake.calls != 1 {
		t.Errorf("runner invoked %d times, want 1", fake.calls)
	}
}

func TestRun_EnvFileFlagMustExist(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `runner: "pytest"`)
	fake := &fakeRunner{}
	app, _, _ := testApp(map[string]string{"CI_OS_NAME": "ubuntu-22.04"}, fake)

	missing := filepath.Join(t.TempDir(), "absent.env")
	err := execCommand(app, "--config", cfgPath, "run", "--env-file", missing)

	if err == nil {
		t.Fatal("want an error for a missing --env-file")
	}
	if fake.calls != 0 {
		t.Errorf("runner must not start, invoked %d times", fake.calls)
	}
}

func TestRun_ConfigEnvFileIsOptional(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `
runner: "pytest"

env_file: ".does-not-exist.env"
`)
	fake := &fakeRunner{}
	app, _, _ := testApp(map[string]string{"CI_OS_NAME": "ubuntu-22.04"}, fake)

	if err := execCommand(app, "--config", cfgPath, "run"); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("runner invoked %d times, want 1", fake.calls)
	}
}

func TestRun_EnvFileEntriesReachRunner(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `runner: "pytest"`)
	envPath := filepath.Join(t.TempDir(), "ci.env")
	testutil.MustWriteFile(t, envPath, []byte("MNE_DATA=/data/mne\nQT_QPA_PLATFORM=offscreen\n"), 0o644)

	fake := &fakeRunner{}
	app, _, _ := testApp(map[string]string{"CI_OS_NAME": "ubuntu-22.04"}, fake)

	if err := execCommand(app, "--config", cfgPath, "run", "--env-file", envPath); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	want := map[string]string{
		"MNE_DATA":        "/data/mne",
		"QT_QPA_PLATFORM": "offscreen",
	}
	if diff := cmp.Diff(want, fake.lastOpts.ExtraEnv); diff != "" {
		t.Errorf("extra env mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_NoTrace(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `runner: "pytest"`)
	fake := &fakeRunner{}
	app, _, _ := testApp(map[string]string{"CI_OS_NAME": "ubuntu-22.04"}, fake)

	if err := execCommand(app, "--config", cfgPath, "run", "--no-trace"); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if fake.lastOpts.Trace {
		t.Error("trace should be off with --no-trace")
	}
}

func TestRun_WorkdirPassedThrough(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `runner: "pytest"`)
	fake := &fakeRunner{}
	app, _, _ := testApp(map[string]string{"CI_OS_NAME": "ubuntu-22.04"}, fake)

	dir := t.TempDir()
	if err := execCommand(app, "--config", cfgPath, "run", "--workdir", dir); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if fake.lastOpts.Dir != dir {
		t.Errorf("Dir = %q, want %q", fake.lastOpts.Dir, dir)
	}
}

func TestRun_ConfigLoadFailureAborts(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "no-such.cue")
	fake := &fakeRunner{}
	app, _, _ := testApp(map[string]string{"CI_OS_NAME": "ubuntu-22.04"}, fake)

	err := execCommand(app, "--config", missing, "run")

	if err == nil {
		t.Fatal("want an error for a missing --config file")
	}
	if fake.calls != 0 {
		t.Errorf("runner must not start, invoked %d times", fake.calls)
	}
}
