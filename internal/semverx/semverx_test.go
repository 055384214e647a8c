// SPDX-License-Identifier: MPL-2.0

package semverx_test

import (
	"testing"

	"github.com/anvilhoist/monohoist/internal/semverx"
	"github.com/stretchr/testify/assert"
)

func TestIsValidVersion(t *testing.T) {
	t.Parallel()

	assert.True(t, semverx.IsValidVersion("1.2.3"))
	assert.False(t, semverx.IsValidVersion("not-a-version"))
}

func TestIsValidRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rng  string
		want bool
	}{
		{"caret", "^1.2.3", true},
		{"tilde", "~1.2.3", true},
		{"comparator set", ">=1.0.0 <2.0.0", true},
		{"or range", "1.x || 2.x", true},
		{"exact", "1.2.3", true},
		{"git url", "git+https://example.com/pkg.git", false},
		{"file path", "file:../local-pkg", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, semverx.IsValidRange(tt.rng))
		})
	}
}

func TestSatisfies(t *testing.T) {
	t.Parallel()

	assert.True(t, semverx.Satisfies("1.4.2", "^1.2.0"))
	assert.False(t, semverx.Satisfies("2.0.0", "^1.2.0"))
	assert.False(t, semverx.Satisfies("not-a-version", "^1.2.0"))
	assert.False(t, semverx.Satisfies("1.4.2", "file:../local-pkg"))
}

func TestIntersect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		a, b    string
		wantOK  bool
		checkV  []string // versions that must satisfy the resulting range
		rejectV []string // versions that must not satisfy it
	}{
		{
			name:   "overlapping carets",
			a:      "^1.2.0",
			b:      "^1.4.0",
			wantOK: true,
			checkV: []string{"1.4.0", "1.9.9"},
			rejectV: []string{"1.2.0", "2.0.0"},
		},
		{
			name:   "disjoint majors",
			a:      "^1.0.0",
			b:      "^2.0.0",
			wantOK: false,
		},
		{
			name:   "tilde within caret",
			a:      "^1.2.0",
			b:      "~1.2.3",
			wantOK: true,
			checkV: []string{"1.2.3", "1.2.9"},
			rejectV: []string{"1.2.0", "1.3.0"},
		},
		{
			name:   "identical exact",
			a:      "1.2.3",
			b:      "1.2.3",
			wantOK: true,
			checkV: []string{"1.2.3"},
		},
		{
			name:   "exact outside caret",
			a:      "1.9.0",
			b:      "^2.0.0",
			wantOK: false,
		},
		{
			name:   "or range is unparseable",
			a:      "1.x || 2.x",
			b:      "^1.0.0",
			wantOK: false,
		},
		{
			name:   "non-semver range is unparseable",
			a:      "git+https://example.com/pkg.git",
			b:      "^1.0.0",
			wantOK: false,
		},
		{
			name:   "wildcard intersect bounded",
			a:      "*",
			b:      "^1.0.0",
			wantOK: true,
			checkV: []string{"1.0.0", "1.5.0"},
			rejectV: []string{"2.0.0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := semverx.Intersect(tt.a, tt.b)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			for _, v := range tt.checkV {
				assert.Truef(t, semverx.Satisfies(v, got), "expected %q to satisfy intersection %q", v, got)
			}
			for _, v := range tt.rejectV {
				assert.Falsef(t, semverx.Satisfies(v, got), "expected %q not to satisfy intersection %q", v, got)
			}
		})
	}
}
