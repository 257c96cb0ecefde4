// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestId_Constants(t *testing.T) {
	// Verify all IDs are unique and start at 1
	ids := []Id{
		RunnerNotFoundId,
		ConfigLoadFailedId,
		ConfigInvalidId,
		EnvFileInvalidId,
		HookFailedId,
		PyprojectUnreadableId,
		MarkersMissingId,
		WorkflowParseErrorId,
	}

	seen := make(map[Id]bool)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
	}

	if RunnerNotFoundId != 1 {
		t.Errorf("RunnerNotFoundId = %d, want 1", RunnerNotFoundId)
	}
}

func TestIssue_Id(t *testing.T) {
	issue := Get(RunnerNotFoundId)
	if issue == nil {
		t.Fatal("Get(RunnerNotFoundId) returned nil")
	}
	if issue.Id() != RunnerNotFoundId {
		t.Errorf("issue.Id() = %d, want %d", issue.Id(), RunnerNotFoundId)
	}
}

func TestIssue_MarkdownMsg(t *testing.T) {
	issue := Get(RunnerNotFoundId)
	if issue == nil {
		t.Fatal("Get(RunnerNotFoundId) returned nil")
	}

	msg := issue.MarkdownMsg()
	if msg == "" {
		t.Error("MarkdownMsg() returned empty string")
	}

	if !strings.Contains(string(msg), "Test runner not found") {
		t.Error("MarkdownMsg() should contain 'Test runner not found'")
	}
}

func TestIssue_ExtLinks(t *testing.T) {
	issue := Get(RunnerNotFoundId)
	if issue == nil {
		t.Fatal("Get(RunnerNotFoundId) returned nil")
	}

	// ExtLinks returns a clone of the links
	links := issue.ExtLinks()
	if len(links) == 0 {
		t.Fatal("RunnerNotFoundId should carry an external link")
	}

	original := links[0]
	links[0] = "modified"
	newLinks := issue.ExtLinks()
	if newLinks[0] != original {
		t.Error("ExtLinks() should return a clone")
	}
}

func TestIssue_Render(t *testing.T) {
	// Stub the render function so the test does not depend on terminal styling
	originalRender := render
	defer func() { render = originalRender }()

	render = func(in string, stylePath string) (string, error) {
		return in, nil
	}

	issue := Get(EnvFileInvalidId)
	if issue == nil {
		t.Fatal("Get(EnvFileInvalidId) returned nil")
	}

	rendered, err := issue.Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}

	if !strings.Contains(rendered, "environment file") {
		t.Error("Render() output should contain 'environment file'")
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		id       Id
		wantNil  bool
		contains string
	}{
		{RunnerNotFoundId, false, "Test runner not found"},
		{ConfigLoadFailedId, false, "Failed to load configuration"},
		{ConfigInvalidId, false, "Invalid configuration value"},
		{EnvFileInvalidId, false, "Could not load environment file"},
		{HookFailedId, false, "Pre-run hook failed"},
		{PyprojectUnreadableId, false, "Could not read pyproject.toml"},
		{MarkersMissingId, false, "Markers not declared"},
		{WorkflowParseErrorId, false, "Failed to parse workflow file"},
		{Id(9999), true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			issue := Get(tt.id)

			if tt.wantNil {
				if issue != nil {
					t.Errorf("Get(%d) should return nil", tt.id)
				}
				return
			}

			if issue == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}

			if tt.contains != "" && !strings.Contains(string(issue.MarkdownMsg()), tt.contains) {
				t.Errorf("Get(%d).MarkdownMsg() should contain '%s'", tt.id, tt.contains)
			}
		})
	}
}

func TestValues(t *testing.T) {
	issues := Values()

	if len(issues) != 8 {
		t.Errorf("Values() returned %d issues, want 8", len(issues))
	}

	seen := make(map[Id]bool)
	for _, issue := range issues {
		if issue == nil {
			t.Fatal("Values() contains nil issue")
		}
		if seen[issue.Id()] {
			t.Errorf("Values() contains duplicate ID %d", issue.Id())
		}
		seen[issue.Id()] = true
	}
}
