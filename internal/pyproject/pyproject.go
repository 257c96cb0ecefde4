// SPDX-License-Identifier: MPL-2.0

// Package pyproject reads the marker declarations from a project's
// pyproject.toml. The runner accepts any marker expression without
// complaint, so a typo in a marker name silently deselects nothing;
// comparing the expression against the declared markers catches that
// before a run.
package pyproject

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DefaultFile is the conventional file name, looked up in the working
// directory when no explicit path is given.
const DefaultFile = "pyproject.toml"

type (
	// File is the subset of pyproject.toml this tool reads.
	File struct {
		Tool Tool `toml:"tool"`
	}

	// Tool holds the [tool] table.
	Tool struct {
		Pytest Pytest `toml:"pytest"`
	}

	// Pytest holds the [tool.pytest] table.
	Pytest struct {
		IniOptions IniOptions `toml:"ini_options"`
	}

	// IniOptions holds the [tool.pytest.ini_options] table. Markers are
	// declared as "name: description" strings; the name may carry a
	// parenthesized signature.
	IniOptions struct {
		Markers []string `toml:"markers"`
	}
)

// Load reads and parses a pyproject.toml file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return &f, nil
}

// MarkerNames returns the declared marker identifiers, stripped of
// descriptions and signatures. Order follows the declaration order.
func (f *File) MarkerNames() []string {
	markers := f.Tool.Pytest.IniOptions.Markers
	names := make([]string, 0, len(markers))
	for _, m := range markers {
		if name := markerName(m); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// HasMarker reports whether name is declared.
func (f *File) HasMarker(name string) bool {
	for _, declared := range f.MarkerNames() {
		if declared == name {
			return true
		}
	}
	return false
}

// markerName extracts the identifier from a declaration entry. The
// declaration grammar is "name[(signature)][: description]".
func markerName(decl string) string {
	name := decl
	if before, _, found := strings.Cut(name, ":"); found {
		name = before
	}
	if before, _, found := strings.Cut(name, "("); found {
		name = before
	}
	return strings.TrimSpace(name)
}

// Missing returns the referenced markers that are not declared, in
// reference order without duplicates. An empty result means the
// expression only uses declared markers.
func Missing(declared, referenced []string) []string {
	declaredSet := make(map[string]struct{}, len(declared))
	for _, d := range declared {
		declaredSet[d] = struct{}{}
	}

	var missing []string
	seen := make(map[string]struct{}, len(referenced))
	for _, r := range referenced {
		if _, ok := declaredSet[r]; ok {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		missing = append(missing, r)
	}
	return missing
}
