// SPDX-License-Identifier: MPL-2.0

package fsops_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/anvilhoist/monohoist/internal/fsops"
	"github.com/stretchr/testify/require"
)

func TestDefault_EnumerateMissingDirIsEmpty(t *testing.T) {
	t.Parallel()
	fs := fsops.New()
	entries, err := fs.Enumerate(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestDefault_EnumerateListsEntries(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "a"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("x"), 0o644))

	fs := fsops.New()
	entries, err := fs.Enumerate(root)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestDefault_SymlinkAndRemoveAll(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	target := filepath.Join(root, "target")
	require.NoError(t, os.Mkdir(target, 0o755))

	link := filepath.Join(root, "link")
	fs := fsops.New()
	require.NoError(t, fs.Symlink(target, link))

	info, err := fs.Stat(link)
	require.NoError(t, err)
	require.True(t, info.IsDir())

	require.NoError(t, fs.RemoveAll(link))
	_, err = fs.Lstat(link)
	require.Error(t, err)
}

func TestFake_SymlinkThenStat(t *testing.T) {
	t.Parallel()
	f := fsops.NewFake().WithDir("/root/node_modules/lodash")

	require.NoError(t, f.Symlink("/root/node_modules/lodash", "/root/modules/a/node_modules/lodash"))
	info, err := f.Stat("/root/modules/a/node_modules/lodash")
	require.NoError(t, err)
	require.True(t, info.IsDir())

	_, err = f.Lstat("/root/modules/a/node_modules/lodash")
	require.NoError(t, err)
}

func TestFake_SymlinkRefusesExistingDir(t *testing.T) {
	t.Parallel()
	f := fsops.NewFake().WithDir("/root/modules/a/node_modules/lodash")
	err := f.Symlink("/somewhere", "/root/modules/a/node_modules/lodash")
	require.Error(t, err)
}
