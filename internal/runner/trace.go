// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ShellJoin renders an argument vector as a single shell line. Every
// element is quoted only when the shell would otherwise split or expand
// it, so the common case stays readable and the output is always safe to
// paste back into a POSIX shell.
func ShellJoin(argv []string) string {
	var b strings.Builder
	for i, arg := range argv {
		if i > 0 {
			b.WriteByte(' ')
		}
		quoted, err := syntax.Quote(arg, syntax.LangPOSIX)
		if err != nil {
			// Quote only fails on strings no shell can represent, such
			// as embedded NUL bytes. Fall back to the raw argument.
			quoted = arg
		}
		b.WriteString(quoted)
	}
	return b.String()
}

// TraceLine formats the xtrace-style echo printed before the runner
// starts, matching the "+ cmd" prefix of 'set -x'.
func TraceLine(argv []string) string {
	return "+ " + ShellJoin(argv)
}
