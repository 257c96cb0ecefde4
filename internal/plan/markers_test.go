// SPDX-License-Identifier: MPL-2.0

package plan

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReferencedMarkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr string
		want []string
	}{
		{
			name: "ubuntu expression",
			expr: "not (ultraslowtest or pgtest)",
			want: []string{"ultraslowtest", "pgtest"},
		},
		{
			name: "default expression",
			expr: "not (slowtest or pgtest)",
			want: []string{"slowtest", "pgtest"},
		},
		{
			name: "operators are not markers",
			expr: "not (a and b) or not c",
			want: []string{"a", "b", "c"},
		},
		{
			name: "duplicates collapse",
			expr: "slowtest or slowtest",
			want: []string{"slowtest"},
		},
		{
			name: "underscore and digits",
			expr: "pg_test2 and x",
			want: []string{"pg_test2", "x"},
		},
		{
			name: "empty expression",
			expr: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ReferencedMarkers(tt.expr)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ReferencedMarkers(%q) mismatch (-want +got):\n%s", tt.expr, diff)
			}
		})
	}
}

func TestPlanMarkers(t *testing.T) {
	t.Parallel()

	p := Derive(Context{OSName: "ubuntu-22.04"}, Options{})

	want := []string{"ultraslowtest", "pgtest"}
	if diff := cmp.Diff(want, p.Markers()); diff != "" {
		t.Errorf("Markers() mismatch (-want +got):\n%s", diff)
	}
}

func TestAllMarkers(t *testing.T) {
	t.Parallel()

	want := []string{"ultraslowtest", "pgtest", "slowtest"}
	if diff := cmp.Diff(want, AllMarkers()); diff != "" {
		t.Errorf("AllMarkers() mismatch (-want +got):\n%s", diff)
	}

	// Every name a derived plan can reference is covered, whatever the host.
	for _, osName := range []string{"ubuntu-22.04", "macos-13", "windows-2022", ""} {
		for _, name := range ReferencedMarkers(MarkerExpr(osName)) {
			found := false
			for _, all := range AllMarkers() {
				if all == name {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("AllMarkers() is missing %q referenced for OS %q", name, osName)
			}
		}
	}
}
