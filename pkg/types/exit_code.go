// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

// Exit statuses defined by pytest. Any other non-zero status came from
// the shell or the OS (e.g. 127 for a missing executable).
const (
	ExitOK               ExitCode = 0
	ExitTestsFailed      ExitCode = 1
	ExitInterrupted      ExitCode = 2
	ExitInternalError    ExitCode = 3
	ExitUsageError       ExitCode = 4
	ExitNoTestsCollected ExitCode = 5
)

type (
	// ExitCode represents a process exit status code.
	// Exit codes are in the range 0-255 on POSIX systems.
	// The zero value (0) means success.
	ExitCode int

	// InvalidExitCodeError is returned when an ExitCode is outside the
	// valid range (0-255).
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

// Unwrap returns ErrInvalidExitCode so callers can use errors.Is for programmatic detection.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate returns an error if the ExitCode is outside the valid range (0-255).
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == ExitOK }

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }

// Describe returns a short human-readable label for the runner-defined
// exit statuses, or "unknown" for anything outside that set.
func (c ExitCode) Describe() string {
	switch c {
	case ExitOK:
		return "all tests passed"
	case ExitTestsFailed:
		return "some tests failed"
	case ExitInterrupted:
		return "run interrupted"
	case ExitInternalError:
		return "internal runner error"
	case ExitUsageError:
		return "runner usage error"
	case ExitNoTestsCollected:
		return "no tests collected"
	default:
		return "unknown"
	}
}
