// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidRunnerName is the sentinel error wrapped by InvalidRunnerNameError.
	ErrInvalidRunnerName = errors.New("invalid runner name")
	// ErrInvalidPackageName is the sentinel error wrapped by InvalidPackageNameError.
	ErrInvalidPackageName = errors.New("invalid package name")
	// ErrInvalidEnvFilePath is returned when an EnvFilePath value is whitespace-only.
	ErrInvalidEnvFilePath = errors.New("invalid env file path")
	// ErrInvalidHookScript is returned when a HookScript value is whitespace-only.
	ErrInvalidHookScript = errors.New("invalid hook script")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidHooksConfig is the sentinel error wrapped by InvalidHooksConfigError.
	ErrInvalidHooksConfig = errors.New("invalid hooks config")
	// ErrInvalidUIConfig is the sentinel error wrapped by InvalidUIConfigError.
	ErrInvalidUIConfig = errors.New("invalid UI config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// RunnerName is the executable name or path of the test runner.
	// A valid name must be non-empty and not whitespace-only.
	RunnerName string

	// InvalidRunnerNameError is returned when a RunnerName value is empty
	// or whitespace-only. It wraps ErrInvalidRunnerName for errors.Is().
	InvalidRunnerNameError struct {
		Value RunnerName
	}

	// PackageName is the package measured for coverage and scanned for
	// tests. A valid name must be non-empty, not whitespace-only, and
	// must not end with a path separator (target paths append their own).
	PackageName string

	// InvalidPackageNameError is returned when a PackageName value is
	// empty, whitespace-only, or slash-terminated. It wraps
	// ErrInvalidPackageName for errors.Is() compatibility.
	InvalidPackageNameError struct {
		Value PackageName
	}

	// EnvFilePath is a filesystem path to a dotenv-style file loaded
	// before the run. The zero value ("") is valid and means "no env file".
	EnvFilePath string

	// InvalidEnvFilePathError is returned when an EnvFilePath value is
	// non-empty but whitespace-only.
	InvalidEnvFilePathError struct {
		Value EnvFilePath
	}

	// HookScript is a shell script executed by the embedded interpreter.
	// The zero value ("") is valid and means "no hook".
	HookScript string

	// InvalidHookScriptError is returned when a HookScript value is
	// non-empty but whitespace-only.
	InvalidHookScriptError struct {
		Value HookScript
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidHooksConfigError is returned when a HooksConfig has invalid fields.
	// It wraps ErrInvalidHooksConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidHooksConfigError struct {
		FieldErrors []error
	}

	// InvalidUIConfigError is returned when a UIConfig has invalid fields.
	// It wraps ErrInvalidUIConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidUIConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Runner is the test-runner executable invoked for test runs.
		Runner RunnerName `json:"runner" mapstructure:"runner"`
		// Package is the coverage target and scanned package root.
		Package PackageName `json:"package" mapstructure:"package"`
		// ExtraArgs are appended to every derived invocation.
		ExtraArgs []string `json:"extra_args" mapstructure:"extra_args"`
		// EnvFile optionally names a dotenv file loaded before the run.
		EnvFile EnvFilePath `json:"env_file" mapstructure:"env_file"`
		// Hooks configures scripts run around the invocation.
		Hooks HooksConfig `json:"hooks" mapstructure:"hooks"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// HooksConfig configures scripts run around the test invocation.
	HooksConfig struct {
		// PreRun runs in the embedded shell before the runner starts.
		// A non-zero exit aborts the run.
		PreRun HookScript `json:"pre_run" mapstructure:"pre_run"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// String returns the string representation of the RunnerName.
func (r RunnerName) String() string { return string(r) }

// IsValid returns whether the RunnerName is valid.
// A valid name must be non-empty and not whitespace-only.
func (r RunnerName) IsValid() (bool, []error) {
	if strings.TrimSpace(string(r)) == "" {
		return false, []error{&InvalidRunnerNameError{Value: r}}
	}
	return true, nil
}

// Error implements the error interface for InvalidRunnerNameError.
func (e *InvalidRunnerNameError) Error() string {
	return fmt.Sprintf("invalid runner name %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidRunnerName for errors.Is() compatibility.
func (e *InvalidRunnerNameError) Unwrap() error { return ErrInvalidRunnerName }

// String returns the string representation of the PackageName.
func (p PackageName) String() string { return string(p) }

// IsValid returns whether the PackageName is valid.
// A valid name must be non-empty, not whitespace-only, and must not end
// with '/' or '\\' because target paths append their own separator.
func (p PackageName) IsValid() (bool, []error) {
	trimmed := strings.TrimSpace(string(p))
	if trimmed == "" || strings.HasSuffix(trimmed, "/") || strings.HasSuffix(trimmed, `\`) {
		return false, []error{&InvalidPackageNameError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidPackageNameError.
func (e *InvalidPackageNameError) Error() string {
	return fmt.Sprintf("invalid package name %q: must be non-empty and not slash-terminated", e.Value)
}

// Unwrap returns ErrInvalidPackageName for errors.Is() compatibility.
func (e *InvalidPackageNameError) Unwrap() error { return ErrInvalidPackageName }

// String returns the string representation of the EnvFilePath.
func (p EnvFilePath) String() string { return string(p) }

// IsValid returns whether the EnvFilePath is valid.
// The zero value ("") is valid (means "no env file").
// Non-zero values must not be whitespace-only.
func (p EnvFilePath) IsValid() (bool, []error) {
	if p == "" {
		return true, nil
	}
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidEnvFilePathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidEnvFilePathError.
func (e *InvalidEnvFilePathError) Error() string {
	return fmt.Sprintf("invalid env file path %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidEnvFilePath for errors.Is() compatibility.
func (e *InvalidEnvFilePathError) Unwrap() error { return ErrInvalidEnvFilePath }

// String returns the string representation of the HookScript.
func (s HookScript) String() string { return string(s) }

// IsValid returns whether the HookScript is valid.
// The zero value ("") is valid (means "no hook").
// Non-zero values must not be whitespace-only.
func (s HookScript) IsValid() (bool, []error) {
	if s == "" {
		return true, nil
	}
	if strings.TrimSpace(string(s)) == "" {
		return false, []error{&InvalidHookScriptError{Value: s}}
	}
	return true, nil
}

// Error implements the error interface for InvalidHookScriptError.
func (e *InvalidHookScriptError) Error() string {
	return fmt.Sprintf("invalid hook script %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidHookScript for errors.Is() compatibility.
func (e *InvalidHookScriptError) Unwrap() error { return ErrInvalidHookScript }

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// IsValid returns whether the HooksConfig has valid fields.
// It delegates to PreRun.IsValid().
func (h HooksConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := h.PreRun.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidHooksConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidHooksConfigError.
func (e *InvalidHooksConfigError) Error() string {
	return fmt.Sprintf("invalid hooks config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidHooksConfig for errors.Is() compatibility.
func (e *InvalidHooksConfigError) Unwrap() error { return ErrInvalidHooksConfig }

// IsValid returns whether the UIConfig has valid fields.
// It delegates to ColorScheme.IsValid(); bool fields need no validation.
func (c UIConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidUIConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidUIConfigError.
func (e *InvalidUIConfigError) Error() string {
	return fmt.Sprintf("invalid UI config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidUIConfig for errors.Is() compatibility.
func (e *InvalidUIConfigError) Unwrap() error { return ErrInvalidUIConfig }

// IsValid returns whether the Config has valid fields.
// It delegates to Runner.IsValid(), Package.IsValid(), EnvFile.IsValid(),
// Hooks.IsValid(), and UI.IsValid(). ExtraArgs needs no validation: any
// string is a legal runner argument.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Runner.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Package.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.EnvFile.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Hooks.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the default configuration. The defaults reproduce
// the CI invocation this tool replaces.
func DefaultConfig() *Config {
	return &Config{
		Runner:    "pytest",
		Package:   "mne",
		ExtraArgs: []string{},
		EnvFile:   "",
		Hooks:     HooksConfig{},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}
