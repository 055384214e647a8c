// SPDX-License-Identifier: MPL-2.0

package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/anvilhoist/monohoist/internal/fsops"
	"github.com/anvilhoist/monohoist/internal/installer"
	"github.com/anvilhoist/monohoist/internal/logging"
	"github.com/anvilhoist/monohoist/internal/pipeline"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(contents), 0o644))
}

func TestRun_MissingModulesFolderIsUncritical(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeManifest(t, root, `{"name":"app","version":"1.0.0"}`)

	logger, err := logging.New(logging.LevelSilly)
	require.NoError(t, err)

	_, err = pipeline.Run(context.Background(), fsops.Default{}, installer.NewFake(), logger, pipeline.Options{
		ProjectRoot:   root,
		ModulesFolder: "modules",
	})
	require.Error(t, err)
	require.Equal(t, 0, pipeline.ExitCode(err))
}

func TestRun_NoManifestAtRootIsUncritical(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "modules"), 0o755))

	logger, err := logging.New(logging.LevelSilly)
	require.NoError(t, err)

	_, err = pipeline.Run(context.Background(), fsops.Default{}, installer.NewFake(), logger, pipeline.Options{
		ProjectRoot:   root,
		ModulesFolder: "modules",
	})
	require.Error(t, err)
	require.Equal(t, 0, pipeline.ExitCode(err))
}

func TestRun_DependencyCheckOnlyNeverInstalls(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeManifest(t, root, `{"name":"app","version":"1.0.0"}`)
	writeManifest(t, filepath.Join(root, "modules", "a"), `{"name":"a","version":"1.0.0","dependencies":{"lodash":"^3.0.0"}}`)
	writeManifest(t, filepath.Join(root, "modules", "b"), `{"name":"b","version":"1.0.0","dependencies":{"lodash":"^4.0.0"}}`)

	logger, err := logging.New(logging.LevelSilly)
	require.NoError(t, err)
	fakeInstaller := installer.NewFake()

	result, err := pipeline.Run(context.Background(), fsops.Default{}, fakeInstaller, logger, pipeline.Options{
		ProjectRoot:         root,
		ModulesFolder:       "modules",
		DependencyCheckOnly: true,
	})
	require.NoError(t, err)
	require.Empty(t, fakeInstaller.Calls)
	require.Len(t, result.Report.NonOptimalDependencies, 1)
	require.Equal(t, "lodash", result.Report.NonOptimalDependencies[0].Name)
}

func TestRun_SharedDependencyAlreadyInstalledIsLinkedNotReinstalled(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeManifest(t, root, `{"name":"app","version":"1.0.0"}`)
	writeManifest(t, filepath.Join(root, "modules", "a"), `{"name":"a","version":"1.0.0","dependencies":{"lodash":"^4.17.0"}}`)
	writeManifest(t, filepath.Join(root, "modules", "b"), `{"name":"b","version":"1.0.0","dependencies":{"lodash":"^4.17.0"}}`)
	writeManifest(t, filepath.Join(root, "node_modules", "lodash"), `{"name":"lodash","version":"4.17.21"}`)

	logger, err := logging.New(logging.LevelSilly)
	require.NoError(t, err)
	fakeInstaller := installer.NewFake()

	result, err := pipeline.Run(context.Background(), fsops.Default{}, fakeInstaller, logger, pipeline.Options{
		ProjectRoot:   root,
		ModulesFolder: "modules",
	})
	require.NoError(t, err)
	require.Empty(t, fakeInstaller.Calls, "lodash is already installed, so the satisfaction filter should have dropped the request")

	for _, moduleName := range []string{"a", "b"} {
		linkPath := filepath.Join(root, "modules", moduleName, "node_modules", "lodash")
		info, err := os.Lstat(linkPath)
		require.NoError(t, err)
		require.True(t, info.Mode()&os.ModeSymlink != 0)
		target, err := os.Readlink(linkPath)
		require.NoError(t, err)
		require.Equal(t, filepath.Join(root, "node_modules", "lodash"), target)
	}
	require.Empty(t, result.Plan)
}

func TestRun_NewDependencyIsPlannedAndInstalled(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeManifest(t, root, `{"name":"app","version":"1.0.0"}`)
	writeManifest(t, filepath.Join(root, "modules", "a"), `{"name":"a","version":"1.0.0","dependencies":{"lodash":"^4.17.0"}}`)
	writeManifest(t, filepath.Join(root, "modules", "b"), `{"name":"b","version":"1.0.0","dependencies":{"lodash":"^4.17.0"}}`)

	logger, err := logging.New(logging.LevelSilly)
	require.NoError(t, err)
	fakeInstaller := installer.NewFake()

	result, err := pipeline.Run(context.Background(), fsops.Default{}, fakeInstaller, logger, pipeline.Options{
		ProjectRoot:   root,
		ModulesFolder: "modules",
	})
	require.NoError(t, err)
	require.Len(t, fakeInstaller.Calls, 1)
	require.Equal(t, root, fakeInstaller.Calls[0].Target)
	require.Contains(t, fakeInstaller.Calls[0].Identifiers, `lodash@"^4.17.0"`)
	require.Contains(t, result.Plan, root)
}
