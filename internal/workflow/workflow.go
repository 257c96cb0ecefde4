// SPDX-License-Identifier: MPL-2.0

// Package workflow extracts CI job combinations from a GitHub Actions
// workflow file. Each job's strategy.matrix contributes the cross
// product of its OS axis and its CI-kind axis, which is what the
// selector derivation needs as input. The extraction is read-only and
// never executes anything.
package workflow

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default matrix axis keys. Workflows with nonstandard axis names can
// override both.
const (
	DefaultOSKey   = "os"
	DefaultKindKey = "kind"
)

type (
	// Entry is one job combination: the two derivation inputs plus the
	// job they came from. An empty Kind means the job does not vary by
	// CI kind and runs the default flavor.
	Entry struct {
		Job  string
		OS   string
		Kind string
	}

	// workflowFile is the subset of a workflow document this package
	// reads. Jobs stay a raw node so document order survives; mapping
	// iteration through Go maps would shuffle it.
	workflowFile struct {
		Jobs yaml.Node `yaml:"jobs"`
	}

	jobSpec struct {
		Strategy struct {
			Matrix map[string]any `yaml:"matrix"`
		} `yaml:"strategy"`
	}
)

// Load reads a workflow file and extracts its job combinations. Empty
// axis keys fall back to the defaults.
func Load(path, osKey, kindKey string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	entries, err := Parse(data, osKey, kindKey)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return entries, nil
}

// Parse extracts job combinations from workflow YAML content.
func Parse(data []byte, osKey, kindKey string) ([]Entry, error) {
	if osKey == "" {
		osKey = DefaultOSKey
	}
	if kindKey == "" {
		kindKey = DefaultKindKey
	}

	var wf workflowFile
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, err
	}
	if wf.Jobs.Kind == 0 {
		return nil, fmt.Errorf("workflow has no jobs")
	}
	if wf.Jobs.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("jobs is not a mapping")
	}

	var entries []Entry
	for i := 0; i+1 < len(wf.Jobs.Content); i += 2 {
		jobName := wf.Jobs.Content[i].Value

		var job jobSpec
		if err := wf.Jobs.Content[i+1].Decode(&job); err != nil {
			return nil, fmt.Errorf("job %s: %w", jobName, err)
		}
		if job.Strategy.Matrix == nil {
			continue
		}

		jobEntries, err := expandMatrix(jobName, job.Strategy.Matrix, osKey, kindKey)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", jobName, err)
		}
		entries = append(entries, jobEntries...)
	}

	return entries, nil
}

// expandMatrix produces the cross product of the two axes, drops
// combinations matched by exclude rows, and appends include rows as
// additional combinations.
func expandMatrix(jobName string, matrix map[string]any, osKey, kindKey string) ([]Entry, error) {
	osAxis, err := axisValues(matrix, osKey)
	if err != nil {
		return nil, err
	}
	kindAxis, err := axisValues(matrix, kindKey)
	if err != nil {
		return nil, err
	}

	excludes, err := rowValues(matrix, "exclude")
	if err != nil {
		return nil, err
	}
	includes, err := rowValues(matrix, "include")
	if err != nil {
		return nil, err
	}

	// A job whose matrix has neither axis contributes nothing from the
	// base product; its include rows may still contribute.
	var entries []Entry
	if len(osAxis) > 0 || len(kindAxis) > 0 {
		if len(osAxis) == 0 {
			osAxis = []string{""}
		}
		if len(kindAxis) == 0 {
			kindAxis = []string{""}
		}
		for _, osName := range osAxis {
			for _, kind := range kindAxis {
				e := Entry{Job: jobName, OS: osName, Kind: kind}
				if excludedBy(excludes, e, osKey, kindKey) {
					continue
				}
				entries = append(entries, e)
			}
		}
	}

	for _, row := range includes {
		osName, ok := row[osKey]
		if !ok {
			// Rows without the OS axis extend other axes we do not
			// track; there is nothing to derive from them.
			continue
		}
		kind := row[kindKey]
		entries = append(entries, Entry{Job: jobName, OS: osName, Kind: kind})
	}

	return entries, nil
}

// axisValues returns the scalar list stored under key, or nil when the
// key is absent.
func axisValues(matrix map[string]any, key string) ([]string, error) {
	raw, ok := matrix[key]
	if !ok {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("matrix key %q is not a list", key)
	}

	values := make([]string, 0, len(list))
	for _, v := range list {
		s, err := scalarString(v)
		if err != nil {
			return nil, fmt.Errorf("matrix key %q: %w", key, err)
		}
		values = append(values, s)
	}
	return values, nil
}

// rowValues returns include/exclude rows as flat string maps. Non-scalar
// row values (nested lists, mappings) are skipped rather than rejected,
// since workflows commonly carry axes this tool does not track.
func rowValues(matrix map[string]any, key string) ([]map[string]string, error) {
	raw, ok := matrix[key]
	if !ok {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("matrix key %q is not a list", key)
	}

	rows := make([]map[string]string, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("matrix key %q entry %d is not a mapping", key, i)
		}
		row := make(map[string]string, len(m))
		for k, v := range m {
			s, err := scalarString(v)
			if err != nil {
				continue
			}
			row[k] = s
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// excludedBy reports whether an exclude row matches the entry. A row
// matches when every axis it names agrees with the entry; rows naming
// neither axis are ignored because they constrain axes we do not track.
func excludedBy(excludes []map[string]string, e Entry, osKey, kindKey string) bool {
	for _, row := range excludes {
		osVal, hasOS := row[osKey]
		kindVal, hasKind := row[kindKey]
		if !hasOS && !hasKind {
			continue
		}
		if hasOS && osVal != e.OS {
			continue
		}
		if hasKind && kindVal != e.Kind {
			continue
		}
		return true
	}
	return false
}

// scalarString renders a YAML scalar as the string the workflow author
// wrote. Axis values like 22.04 decode as numbers and must come back in
// decimal form.
func scalarString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case int:
		return fmt.Sprintf("%d", val), nil
	case int64:
		return fmt.Sprintf("%d", val), nil
	case float64:
		return fmt.Sprintf("%g", val), nil
	case bool:
		return fmt.Sprintf("%t", val), nil
	default:
		return "", fmt.Errorf("value %v is not a scalar", v)
	}
}
