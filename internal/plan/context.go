// SPDX-License-Identifier: MPL-2.0

package plan

// Environment variables carrying the two CI inputs. They are snapshotted
// once at command start; derivation never reads the environment itself.
const (
	// EnvOSName identifies the CI host operating system image
	// (e.g. "ubuntu-22.04", "macos-13", "windows-2022").
	EnvOSName = "CI_OS_NAME"

	// EnvCIKind identifies the CI job flavor (e.g. "standard", "notebook").
	EnvCIKind = "MNE_CI_KIND"
)

// Context is the pair of CI inputs a run plan is derived from. It is
// immutable after construction; both fields may be empty.
type Context struct {
	OSName string
	CIKind string
}

// FromEnviron snapshots the CI inputs using the supplied lookup function,
// typically os.Getenv. Unset variables yield empty fields, which derive
// the default marker expression and target paths.
func FromEnviron(getenv func(string) string) Context {
	return Context{
		OSName: getenv(EnvOSName),
		CIKind: getenv(EnvCIKind),
	}
}
