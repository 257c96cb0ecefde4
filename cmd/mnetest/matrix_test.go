// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"mnetest/internal/testutil"

	"github.com/google/go-cmp/cmp"
)

func writeWorkflow(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tests.yml")
	testutil.MustWriteFile(t, path, []byte(content), 0o644)
	return path
}

func TestMatrix_QuietExpandsWorkflow(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `runner: "pytest"`)
	wfPath := writeWorkflow(t, `
jobs:
  pytest:
    strategy:
      matrix:
        os: [ubuntu-22.04, macos-13]
        kind: [standard]
        include:
          - os: ubuntu-22.04
            kind: notebook
`)
	app, stdout, _ := testApp(nil, &fakeRunner{})

	if err := execCommand(app, "--config", cfgPath, "matrix", wfPath, "--quiet"); err != nil {
		t.Fatalf("matrix failed: %v", err)
	}

	want := []string{
		"pytest -m 'not (ultraslowtest or pgtest)' --tb=short --cov=mne --cov-report xml -vv mne/",
		"pytest -m 'not (slowtest or pgtest)' --tb=short --cov=mne --cov-report xml -vv mne/",
		"pytest -m 'not (ultraslowtest or pgtest)' --tb=short --cov=mne --cov-report xml -vv mne/viz/",
	}
	got := strings.Split(strings.TrimRight(stdout.String(), "\n"), "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestMatrix_HumanOutput(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `runner: "pytest"`)
	wfPath := writeWorkflow(t, `
jobs:
  pytest:
    strategy:
      matrix:
        os: [ubuntu-22.04]
`)
	app, stdout, _ := testApp(nil, &fakeRunner{})

	if err := execCommand(app, "--config", cfgPath, "matrix", wfPath); err != nil {
		t.Fatalf("matrix failed: %v", err)
	}

	out := stdout.String()
	for _, want := range []string{"Workflow Matrix", "1 invocations", "pytest", "os=ubuntu-22.04", "kind=(default)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMatrix_CustomAxisKeys(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `runner: "pytest"`)
	wfPath := writeWorkflow(t, `
jobs:
  tests:
    strategy:
      matrix:
        runner-os: [windows-2022]
        flavor: [notebook]
`)
	app, stdout, _ := testApp(nil, &fakeRunner{})

	err := execCommand(app, "--config", cfgPath, "matrix", wfPath,
		"--quiet", "--os-key", "runner-os", "--kind-key", "flavor")
	if err != nil {
		t.Fatalf("matrix failed: %v", err)
	}

	want := "pytest -m 'not (slowtest or pgtest)' --tb=short --cov=mne --cov-report xml -vv mne/viz/\n"
	if diff := cmp.Diff(want, stdout.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestMatrix_ParseErrorExitsNonZero(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `runner: "pytest"`)
	wfPath := writeWorkflow(t, "jobs: []\n")
	app, _, stderr := testApp(nil, &fakeRunner{})

	err := execCommand(app, "--config", cfgPath, "matrix", wfPath)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("want *ExitError, got %v", err)
	}
	if got := int(exitErr.Code); got != 1 {
		t.Errorf("exit code = %d, want 1", got)
	}
	if stderr.Len() == 0 {
		t.Error("stderr should explain the parse failure")
	}
}

func TestMatrix_MissingFileExitsNonZero(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `runner: "pytest"`)
	app, _, _ := testApp(nil, &fakeRunner{})

	missing := filepath.Join(t.TempDir(), "absent.yml")
	err := execCommand(app, "--config", cfgPath, "matrix", missing)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("want *ExitError, got %v", err)
	}
}

func TestMatrix_NoCombinationsWarns(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `runner: "pytest"`)
	wfPath := writeWorkflow(t, `
jobs:
  lint:
    steps: []
`)
	app, stdout, stderr := testApp(nil, &fakeRunner{})

	if err := execCommand(app, "--config", cfgPath, "matrix", wfPath); err != nil {
		t.Fatalf("matrix failed: %v", err)
	}
	if !strings.Contains(stderr.String(), "no matrix combinations") {
		t.Errorf("stderr should warn about the empty matrix, got %q", stderr.String())
	}
	if strings.Contains(stdout.String(), "Workflow Matrix") {
		t.Errorf("no table expected for an empty matrix:\n%s", stdout.String())
	}
}
