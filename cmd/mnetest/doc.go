// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for mnetest.
//
// This package implements the Cobra command hierarchy for the mnetest
// CLI: the root command, the run/plan/matrix/doctor commands, and the
// configuration and completion utilities.
package cmd
