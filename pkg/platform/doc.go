// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform compatibility utilities.
//
// This package centralizes OS name constants for runtime.GOOS comparisons
// and detects application sandboxes (Flatpak, Snap) that affect how
// executables on the host PATH are resolved.
package platform
