// SPDX-License-Identifier: MPL-2.0

package plan

import "strings"

const (
	// exprUbuntu keeps the slow tier on Ubuntu runners and excludes only
	// the ultraslow and Postgres-backed tests.
	exprUbuntu = "not (ultraslowtest or pgtest)"

	// exprDefault excludes the slow tier entirely. Every non-Ubuntu host,
	// including unrecognized and empty OS names, gets this expression.
	exprDefault = "not (slowtest or pgtest)"

	// ubuntuPrefix is compared case-sensitively against the OS name.
	// "Ubuntu-22.04" does not match, same as the CI script's literal
	// prefix test.
	ubuntuPrefix = "ubuntu"
)

// MarkerExpr returns the marker-exclusion expression for a CI host OS
// name. The decision is a two-way branch on a literal prefix match; no
// other validation of the OS name occurs.
func MarkerExpr(osName string) string {
	if strings.HasPrefix(osName, ubuntuPrefix) {
		return exprUbuntu
	}
	return exprDefault
}

// AllMarkers returns every marker name any derivable expression can
// reference, deduplicated, in order of first appearance. A project that
// declares these covers every host the derivation distinguishes.
func AllMarkers() []string {
	var (
		names []string
		seen  = map[string]bool{}
	)
	for _, expr := range []string{exprUbuntu, exprDefault} {
		for _, name := range ReferencedMarkers(expr) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// ReferencedMarkers returns the marker names used in a marker expression,
// in order of first appearance and without duplicates. Boolean operators
// (not, and, or) and parentheses are not marker names.
func ReferencedMarkers(expr string) []string {
	var (
		names []string
		seen  = map[string]bool{}
		ident strings.Builder
	)

	flush := func() {
		if ident.Len() == 0 {
			return
		}
		name := ident.String()
		ident.Reset()
		switch name {
		case "not", "and", "or":
			return
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	for _, r := range expr {
		if isIdentRune(r) {
			ident.WriteRune(r)
			continue
		}
		flush()
	}
	flush()

	return names
}

func isIdentRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_':
		return true
	}
	return false
}
