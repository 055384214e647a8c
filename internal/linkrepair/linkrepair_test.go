// SPDX-License-Identifier: MPL-2.0

package linkrepair_test

import (
	"testing"

	"github.com/anvilhoist/monohoist/internal/fsops"
	"github.com/anvilhoist/monohoist/internal/linkrepair"
	"github.com/anvilhoist/monohoist/internal/model"
	"github.com/stretchr/testify/require"
)

func TestRepair_LinksToInstalledArtifact(t *testing.T) {
	t.Parallel()
	fs := fsops.NewFake().
		WithDir("/root/modules/a").
		WithDir("/root/node_modules/lodash")

	a := model.ModuleInfo{Location: "/root/modules", RealFolderName: "a", Name: "a",
		Dependencies: map[string]string{"lodash": "^4.17.0"}}
	lodash := model.ModuleInfo{Location: "/root/node_modules", RealFolderName: "lodash",
		CanonicalFolderName: "lodash", Name: "lodash", Version: "4.17.21"}

	errs, missing := linkrepair.Repair(fs, []model.ModuleInfo{a}, []model.ModuleInfo{lodash}, linkrepair.Options{})
	require.Empty(t, errs)
	require.Empty(t, missing)

	target, ok := fs.Links["/root/modules/a/node_modules/lodash"]
	require.True(t, ok)
	require.Equal(t, "/root/node_modules/lodash", target)
}

func TestRepair_DirectInstallNeedsNoLink(t *testing.T) {
	t.Parallel()
	fs := fsops.NewFake().WithDir("/root/modules/a")

	a := model.ModuleInfo{Location: "/root/modules", RealFolderName: "a", Name: "a",
		Dependencies: map[string]string{"lodash": "^4.17.0"}}
	// lodash installed directly into a's own node_modules.
	lodash := model.ModuleInfo{Location: "/root/modules/a/node_modules", RealFolderName: "lodash",
		CanonicalFolderName: "lodash", Name: "lodash", Version: "4.17.21"}

	errs, missing := linkrepair.Repair(fs, []model.ModuleInfo{a}, []model.ModuleInfo{lodash}, linkrepair.Options{})
	require.Empty(t, errs)
	require.Empty(t, missing)
	require.Empty(t, fs.Links)
}

func TestRepair_LocalModuleShadowsWhenEnabled(t *testing.T) {
	t.Parallel()
	fs := fsops.NewFake().
		WithDir("/root/modules/a").
		WithDir("/root/modules/utils")

	a := model.ModuleInfo{Location: "/root/modules", RealFolderName: "a", Name: "a",
		Dependencies: map[string]string{"utils": "^2.0.0"}}
	utils := model.ModuleInfo{Location: "/root/modules", RealFolderName: "utils",
		CanonicalFolderName: "utils", Name: "utils", Version: "2.0.0"}

	errs, missing := linkrepair.Repair(fs, []model.ModuleInfo{a, utils}, nil, linkrepair.Options{LinkLocalModules: true})
	require.Empty(t, errs)
	require.Empty(t, missing)

	target, ok := fs.Links["/root/modules/a/node_modules/utils"]
	require.True(t, ok)
	require.Equal(t, "/root/modules/utils", target)
}

func TestRepair_BinEntriesLinked(t *testing.T) {
	t.Parallel()
	fs := fsops.NewFake().
		WithDir("/root/modules/a").
		WithDir("/root/node_modules/mytool")

	a := model.ModuleInfo{Location: "/root/modules", RealFolderName: "a", Name: "a",
		Dependencies: map[string]string{"mytool": "^1.0.0"}}
	mytool := model.ModuleInfo{Location: "/root/node_modules", RealFolderName: "mytool",
		CanonicalFolderName: "mytool", Name: "mytool", Version: "1.0.0",
		BinEntries: map[string]string{"mytool": "bin/run.js"}}

	errs, missing := linkrepair.Repair(fs, []model.ModuleInfo{a}, []model.ModuleInfo{mytool}, linkrepair.Options{})
	require.Empty(t, errs)
	require.Empty(t, missing)

	target, ok := fs.Links["/root/modules/a/node_modules/.bin/mytool"]
	require.True(t, ok)
	require.Equal(t, "/root/node_modules/mytool/bin/run.js", target)
}

func TestRepair_NoSourceReportsMissing(t *testing.T) {
	t.Parallel()
	fs := fsops.NewFake().WithDir("/root/modules/a")

	a := model.ModuleInfo{Location: "/root/modules", RealFolderName: "a", Name: "a",
		Dependencies: map[string]string{"lodash": "^4.17.0"}}

	errs, missing := linkrepair.Repair(fs, []model.ModuleInfo{a}, nil, linkrepair.Options{})
	require.Empty(t, errs)
	require.Len(t, missing, 1)
	require.Equal(t, "lodash", missing[0].Name)
}

func TestRepair_NonSemverRangeNeedsTrustFlag(t *testing.T) {
	t.Parallel()
	fs := fsops.NewFake().
		WithDir("/root/modules/a").
		WithDir("/root/modules/mytool")

	a := model.ModuleInfo{Location: "/root/modules", RealFolderName: "a", Name: "a",
		Dependencies: map[string]string{"mytool": "github:org/repo#tag"}}
	mytool := model.ModuleInfo{Location: "/root/modules", RealFolderName: "mytool",
		CanonicalFolderName: "mytool", Name: "mytool", Version: "1.0.0"}

	_, missingUntrusted := linkrepair.Repair(fs, []model.ModuleInfo{a, mytool}, nil,
		linkrepair.Options{LinkLocalModules: true, TrustLocalNonSemver: false})
	require.Len(t, missingUntrusted, 1)

	fs2 := fsops.NewFake().WithDir("/root/modules/a").WithDir("/root/modules/mytool")
	_, missingTrusted := linkrepair.Repair(fs2, []model.ModuleInfo{a, mytool}, nil,
		linkrepair.Options{LinkLocalModules: true, TrustLocalNonSemver: true})
	require.Empty(t, missingTrusted)
}

func TestRepair_ModuleNeverLinksToItself(t *testing.T) {
	t.Parallel()
	fs := fsops.NewFake().WithDir("/root")

	// The root project depends on its own package name -- a pathological
	// case that must never resolve to a self-referential symlink.
	root := model.ModuleInfo{Location: "/", RealFolderName: "root", Name: "root",
		Version: "1.0.0", Dependencies: map[string]string{"root": "^1.0.0"}}

	errs, missing := linkrepair.Repair(fs, []model.ModuleInfo{root}, nil,
		linkrepair.Options{LinkLocalModules: true})
	require.Empty(t, errs)
	require.Len(t, missing, 1)
	require.Empty(t, fs.Links)
}
