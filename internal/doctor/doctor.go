// SPDX-License-Identifier: MPL-2.0

// Package doctor inspects the environment a test run would execute in
// and reports one result per concern: configuration, runner resolution,
// marker declarations, env file, hook script, CI variables, host facts,
// and sandboxing. Checks only read; nothing here mutates the system.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"golang.org/x/sync/errgroup"

	"mnetest/internal/config"
	"mnetest/internal/issue"
	"mnetest/internal/plan"
	"mnetest/internal/pyproject"
	"mnetest/internal/runner"
	"mnetest/pkg/platform"
)

// Check statuses. Warn marks findings that do not block a run; Fail
// marks ones that would.
const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

type (
	// Status classifies a check outcome.
	Status string

	// Result is the outcome of a single check.
	Result struct {
		// Name identifies the check.
		Name string
		// Status classifies the outcome.
		Status Status
		// Detail is a one-line human-readable finding.
		Detail string
		// Hint references the issue catalog entry with remediation
		// steps. Zero when no catalog entry applies.
		Hint issue.Id
	}

	// Options configures a checkup. The zero value checks the default
	// configuration against the process environment.
	Options struct {
		// Config is the effective configuration. Nil falls back to
		// config.DefaultConfig().
		Config *config.Config
		// ConfigPath is the file Config was loaded from, empty when
		// running on built-in defaults.
		ConfigPath string
		// ConfigErr carries a configuration load failure. The checkup
		// still runs the remaining checks against the defaults.
		ConfigErr error
		// Getenv supplies environment lookups, typically os.Getenv.
		Getenv func(string) string
		// PyprojectPath overrides the pyproject.toml location.
		PyprojectPath string
		// WorkDir anchors relative paths. Empty means the process
		// working directory.
		WorkDir string
	}
)

// Checkup runs every check and returns the results in a fixed order,
// independent of which check finishes first. The only error it returns
// is context cancellation; check failures are Results, not errors.
func Checkup(ctx context.Context, opts Options) ([]Result, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	checks := []func(context.Context) Result{
		func(context.Context) Result { return checkConfig(opts) },
		func(ctx context.Context) Result { return checkRunner(ctx, cfg) },
		func(context.Context) Result { return checkMarkers(opts) },
		func(context.Context) Result { return checkEnvFile(cfg, opts.WorkDir) },
		func(context.Context) Result { return checkHook(cfg) },
		func(context.Context) Result { return checkCIEnv(getenv) },
		checkHost,
		func(context.Context) Result { return checkSandbox() },
	}

	// Each check writes its own pre-assigned slot, so the report order
	// is stable no matter the completion order.
	results := make([]Result, len(checks))
	g, ctx := errgroup.WithContext(ctx)
	for i, check := range checks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = check(ctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// Failed reports whether any check in results failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if r.Status == StatusFail {
			return true
		}
	}
	return false
}

func checkConfig(opts Options) Result {
	const name = "configuration"

	if opts.ConfigErr != nil {
		hint := issue.ConfigLoadFailedId
		if errors.Is(opts.ConfigErr, config.ErrInvalidConfig) {
			hint = issue.ConfigInvalidId
		}
		return Result{Name: name, Status: StatusFail, Detail: opts.ConfigErr.Error(), Hint: hint}
	}
	if opts.ConfigPath == "" {
		return Result{Name: name, Status: StatusPass, Detail: "built-in defaults"}
	}

	return Result{Name: name, Status: StatusPass, Detail: "loaded from " + opts.ConfigPath}
}

func checkRunner(ctx context.Context, cfg *config.Config) Result {
	const name = "test runner"

	path, err := runner.Resolve(cfg.Runner.String())
	if err != nil {
		return Result{
			Name:   name,
			Status: StatusFail,
			Detail: fmt.Sprintf("%q not found on PATH", cfg.Runner),
			Hint:   issue.RunnerNotFoundId,
		}
	}

	detail := path
	if version := probeVersion(ctx, path); version != "" {
		detail = fmt.Sprintf("%s (%s)", path, version)
	}

	return Result{Name: name, Status: StatusPass, Detail: detail}
}

// probeVersion asks the runner for its version and returns the first
// output line, or "" when the probe fails. Older pytest releases print
// the version to stderr, so both streams are read.
func probeVersion(ctx context.Context, path string) string {
	out, err := exec.CommandContext(ctx, path, "--version").CombinedOutput()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(string(out), "\n")

	return strings.TrimSpace(line)
}

func checkMarkers(opts Options) Result {
	const name = "markers"

	path := opts.PyprojectPath
	if path == "" {
		path = pyproject.DefaultFile
	}
	if !filepath.IsAbs(path) && opts.WorkDir != "" {
		path = filepath.Join(opts.WorkDir, path)
	}

	f, err := pyproject.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{
				Name:   name,
				Status: StatusWarn,
				Detail: fmt.Sprintf("%s not found, marker declarations not checked", path),
			}
		}
		return Result{Name: name, Status: StatusFail, Detail: err.Error(), Hint: issue.PyprojectUnreadableId}
	}

	if missing := pyproject.Missing(f.MarkerNames(), plan.AllMarkers()); len(missing) > 0 {
		return Result{
			Name:   name,
			Status: StatusFail,
			Detail: fmt.Sprintf("%s does not declare: %s", path, strings.Join(missing, ", ")),
			Hint:   issue.MarkersMissingId,
		}
	}

	return Result{
		Name:   name,
		Status: StatusPass,
		Detail: fmt.Sprintf("%s declared in %s", strings.Join(plan.AllMarkers(), ", "), path),
	}
}

func checkEnvFile(cfg *config.Config, workDir string) Result {
	const name = "env file"

	if cfg.EnvFile == "" {
		return Result{Name: name, Status: StatusPass, Detail: "no env file configured"}
	}

	env := map[string]string{}
	err := runner.LoadEnvFile(env, cfg.EnvFile.String(), workDir, false)
	switch {
	case err == nil:
		return Result{
			Name:   name,
			Status: StatusPass,
			Detail: fmt.Sprintf("%s: %d entries", cfg.EnvFile, len(env)),
		}
	case errors.Is(err, fs.ErrNotExist):
		// Config-sourced env files are optional at run time, so a
		// missing one is a finding, not a failure.
		return Result{
			Name:   name,
			Status: StatusWarn,
			Detail: fmt.Sprintf("%s not found, will be skipped at run time", cfg.EnvFile),
		}
	default:
		return Result{Name: name, Status: StatusFail, Detail: err.Error(), Hint: issue.EnvFileInvalidId}
	}
}

func checkHook(cfg *config.Config) Result {
	const name = "pre-run hook"

	script := cfg.Hooks.PreRun.String()
	if strings.TrimSpace(script) == "" {
		return Result{Name: name, Status: StatusPass, Detail: "no pre-run hook configured"}
	}
	if err := runner.ValidateHook(script); err != nil {
		return Result{Name: name, Status: StatusFail, Detail: err.Error(), Hint: issue.HookFailedId}
	}

	return Result{Name: name, Status: StatusPass, Detail: "pre_run script parses"}
}

func checkCIEnv(getenv func(string) string) Result {
	const name = "ci environment"

	osName := getenv(plan.EnvOSName)
	ciKind := getenv(plan.EnvCIKind)

	describe := func(key, value string) string {
		if value == "" {
			return key + " is empty"
		}
		return fmt.Sprintf("%s=%q", key, value)
	}
	detail := describe(plan.EnvOSName, osName) + ", " + describe(plan.EnvCIKind, ciKind)

	if osName == "" || ciKind == "" {
		return Result{Name: name, Status: StatusWarn, Detail: detail + " (defaults apply)"}
	}

	return Result{Name: name, Status: StatusPass, Detail: detail}
}

func checkHost(ctx context.Context) Result {
	const name = "host"

	info, infoErr := host.InfoWithContext(ctx)
	cores, cpuErr := cpu.CountsWithContext(ctx, true)
	vm, memErr := mem.VirtualMemoryWithContext(ctx)

	var parts []string
	if infoErr == nil {
		parts = append(parts, fmt.Sprintf("%s %s (%s)", info.Platform, info.PlatformVersion, info.KernelArch))
	}
	if cpuErr == nil {
		parts = append(parts, fmt.Sprintf("%d logical cores", cores))
	}
	if memErr == nil {
		parts = append(parts, fmt.Sprintf("%.1f GiB memory", float64(vm.Total)/(1<<30)))
	}

	if len(parts) == 0 {
		return Result{
			Name:   name,
			Status: StatusWarn,
			Detail: fmt.Sprintf("could not determine host facts: %v", infoErr),
		}
	}

	return Result{Name: name, Status: StatusPass, Detail: strings.Join(parts, ", ")}
}

func checkSandbox() Result {
	const name = "sandbox"

	st := platform.DetectSandbox()
	if st == platform.SandboxNone {
		return Result{Name: name, Status: StatusPass, Detail: "none detected"}
	}

	return Result{
		Name:   name,
		Status: StatusWarn,
		Detail: fmt.Sprintf("%s sandbox, PATH lookups resolve inside the sandbox image", st),
	}
}
