// SPDX-License-Identifier: MPL-2.0

package fspath_test

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/anvilhoist/monohoist/internal/platform"
	"github.com/anvilhoist/monohoist/pkg/fspath"
	"github.com/anvilhoist/monohoist/pkg/types"
)

func TestJoin(t *testing.T) {
	t.Parallel()

	got := fspath.Join(types.FilesystemPath("root"), types.FilesystemPath("modules"))
	want := types.FilesystemPath(filepath.Join("root", "modules"))
	if got != want {
		t.Errorf("Join() = %q, want %q", got, want)
	}
}

func TestJoinStr(t *testing.T) {
	t.Parallel()

	got := fspath.JoinStr(types.FilesystemPath("modules"), "package.json")
	want := types.FilesystemPath(filepath.Join("modules", "package.json"))
	if got != want {
		t.Errorf("JoinStr() = %q, want %q", got, want)
	}
}

func TestJoinStr_MultipleSegments(t *testing.T) {
	t.Parallel()

	got := fspath.JoinStr(types.FilesystemPath("root"), "modules", "a", "node_modules")
	want := types.FilesystemPath(filepath.Join("root", "modules", "a", "node_modules"))
	if got != want {
		t.Errorf("JoinStr() = %q, want %q", got, want)
	}
}

func TestDir(t *testing.T) {
	t.Parallel()

	got := fspath.Dir(types.FilesystemPath("root/modules/a/package.json"))
	want := types.FilesystemPath(filepath.Dir("root/modules/a/package.json"))
	if got != want {
		t.Errorf("Dir() = %q, want %q", got, want)
	}
}

func TestAbs(t *testing.T) {
	t.Parallel()

	got, err := fspath.Abs(types.FilesystemPath("."))
	if err != nil {
		t.Fatalf("Abs() error = %v", err)
	}
	wantRaw, _ := filepath.Abs(".")
	want := types.FilesystemPath(wantRaw)
	if got != want {
		t.Errorf("Abs() = %q, want %q", got, want)
	}
}

func TestClean(t *testing.T) {
	t.Parallel()

	got := fspath.Clean(types.FilesystemPath("root/modules/../modules/./a"))
	want := types.FilesystemPath(filepath.Clean("root/modules/../modules/./a"))
	if got != want {
		t.Errorf("Clean() = %q, want %q", got, want)
	}
}

func TestFromSlash(t *testing.T) {
	t.Parallel()

	got := fspath.FromSlash(types.FilesystemPath("a/b/c"))
	want := types.FilesystemPath(filepath.FromSlash("a/b/c"))
	if got != want {
		t.Errorf("FromSlash() = %q, want %q", got, want)
	}
}

func TestIsAbs(t *testing.T) {
	t.Parallel()

	absPath := types.FilesystemPath("/absolute/path")
	if runtime.GOOS == platform.Windows {
		absPath = types.FilesystemPath(`C:\absolute\path`)
	}
	if !fspath.IsAbs(absPath) {
		t.Error("IsAbs() = false for absolute path")
	}
	if fspath.IsAbs(types.FilesystemPath("relative/path")) {
		t.Error("IsAbs() = true for relative path")
	}
}

func TestRelSegments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		root string
		path string
		want []string
	}{
		{"direct child", "/proj", "/proj/modules/a", []string{"modules", "a"}},
		{"root itself", "/proj", "/proj", nil},
		{"repeated separators", "/proj", "/proj//modules//a", []string{"modules", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := fspath.RelSegments(types.FilesystemPath(tt.root), types.FilesystemPath(tt.path))
			if len(got) != len(tt.want) {
				t.Fatalf("RelSegments() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("RelSegments()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
