// SPDX-License-Identifier: MPL-2.0

// Package plan derives the test-run invocation from the CI environment.
//
// The derivation is a pure function of two inputs: the CI host operating
// system name selects the marker-exclusion expression, and the CI job
// flavor selects the paths the runner scans. Equal inputs always yield
// byte-identical argument vectors. The package performs no environment
// lookups, no I/O, and never executes anything.
package plan

import (
	"errors"
	"strings"
)

const (
	// DefaultRunner is the test runner invoked when none is configured.
	DefaultRunner = "pytest"

	// DefaultPackage is the package measured for coverage and scanned
	// for tests. It is fixed configuration, never derived from CI inputs.
	DefaultPackage = "mne"

	// KindNotebook is the job flavor that narrows the scan to the
	// visualization subtree. The comparison is an exact string match.
	KindNotebook = "notebook"
)

// Validation errors reported by Plan.IsValid.
var (
	ErrEmptyRunner  = errors.New("runner must not be empty")
	ErrEmptyPackage = errors.New("package must not be empty")
	ErrEmptyMarkers = errors.New("marker expression must not be empty")
	ErrEmptyTargets = errors.New("target path set must not be empty")
)

type (
	// Options carries the configurable pieces of an invocation. Zero
	// fields fall back to defaults that reproduce the CI shell script
	// this tool replaces.
	Options struct {
		// Runner is the test-runner executable name or path.
		Runner string

		// Package is the coverage target and the root of the scanned tree.
		Package string

		// ExtraArgs are appended after the fixed runner flags and before
		// the target paths.
		ExtraArgs []string
	}

	// Plan is a fully derived invocation. All fields are final: the
	// runner is launched with exactly Argv() and nothing else.
	Plan struct {
		Runner      string
		Package     string
		MarkerExpr  string
		ExtraArgs   []string
		TargetPaths []string
	}
)

// Derive computes the run plan for the given CI context and options.
// It is deterministic and side-effect free.
func Derive(ctx Context, opts Options) Plan {
	runner := opts.Runner
	if runner == "" {
		runner = DefaultRunner
	}
	pkg := opts.Package
	if pkg == "" {
		pkg = DefaultPackage
	}

	return Plan{
		Runner:      runner,
		Package:     pkg,
		MarkerExpr:  MarkerExpr(ctx.OSName),
		ExtraArgs:   append([]string(nil), opts.ExtraArgs...),
		TargetPaths: TargetPaths(ctx.CIKind, pkg),
	}
}

// TargetPaths returns the paths handed to the runner. The notebook
// flavor scans only the visualization subtree; every other flavor,
// including the empty string, scans the whole package recursively.
// Paths keep their trailing slash so the runner treats them as trees.
func TargetPaths(ciKind, pkg string) []string {
	if ciKind == KindNotebook {
		return []string{pkg + "/viz/"}
	}
	return []string{pkg + "/"}
}

// Argv assembles the runner's argument vector, starting with the runner
// itself. The marker expression is a single element; --cov-report and
// its format are two separate elements.
func (p Plan) Argv() []string {
	argv := make([]string, 0, 8+len(p.ExtraArgs)+len(p.TargetPaths))
	argv = append(argv,
		p.Runner,
		"-m", p.MarkerExpr,
		"--tb=short",
		"--cov="+p.Package,
		"--cov-report", "xml",
		"-vv",
	)
	argv = append(argv, p.ExtraArgs...)
	argv = append(argv, p.TargetPaths...)
	return argv
}

// IsValid reports whether the plan can be executed, returning one error
// per violation.
func (p Plan) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(p.Runner) == "" {
		errs = append(errs, ErrEmptyRunner)
	}
	if strings.TrimSpace(p.Package) == "" {
		errs = append(errs, ErrEmptyPackage)
	}
	if strings.TrimSpace(p.MarkerExpr) == "" {
		errs = append(errs, ErrEmptyMarkers)
	}
	if len(p.TargetPaths) == 0 {
		errs = append(errs, ErrEmptyTargets)
	}
	return len(errs) == 0, errs
}

// Markers returns the marker names referenced by the plan's expression.
func (p Plan) Markers() []string {
	return ReferencedMarkers(p.MarkerExpr)
}
