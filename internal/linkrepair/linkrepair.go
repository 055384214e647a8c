// SPDX-License-Identifier: MPL-2.0

// Package linkrepair makes the hoist planner's output observable to each
// local module's own dependency resolution by creating symlinks (or
// junctions, via fsops) from a module's private node_modules to the
// hoisted copy, a sibling local module, or a directly installed artifact.
package linkrepair

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/anvilhoist/monohoist/internal/fsops"
	"github.com/anvilhoist/monohoist/internal/model"
	"github.com/anvilhoist/monohoist/internal/semverx"
)

// ErrSymlink is the sentinel wrapped by SymlinkError.
var ErrSymlink = errors.New("symlink error")

// SymlinkError reports a link-creation failure. These are tolerated: the
// caller logs them and continues, since an existing acceptable link may
// already satisfy the module's resolver.
type SymlinkError struct {
	Path string
	Err  error
}

func (e *SymlinkError) Error() string {
	return fmt.Sprintf("symlink %s: %v", e.Path, e.Err)
}

func (e *SymlinkError) Unwrap() error { return ErrSymlink }

// Options mirrors the satisfaction filter's local-module rules, applied
// here to choose a link source instead of dropping a request.
type Options struct {
	LinkLocalModules    bool
	TrustLocalNonSemver bool
}

// MissingSource reports a dependency for which no link source could be
// found; the caller logs it and continues.
type MissingSource struct {
	Module model.ModuleInfo
	Name   string
	Range  string
}

// Repair walks every local module's declared dependencies and creates the
// links needed for that module's own node_modules to resolve them. It
// returns tolerated SymlinkErrors and dependencies for which no source
// existed; both are advisory, never fatal.
func Repair(fs fsops.Filesystem, localModules, installed []model.ModuleInfo, opts Options) ([]*SymlinkError, []MissingSource) {
	var symlinkErrs []*SymlinkError
	var missing []MissingSource

	for _, m := range localModules {
		for name, rng := range m.Dependencies {
			errs, miss := repairOne(fs, m, name, rng, localModules, installed, opts)
			symlinkErrs = append(symlinkErrs, errs...)
			if miss {
				missing = append(missing, MissingSource{Module: m, Name: name, Range: rng})
			}
		}
	}

	return symlinkErrs, missing
}

func repairOne(fs fsops.Filesystem, m model.ModuleInfo, name, rng string, localModules, installed []model.ModuleInfo, opts Options) ([]*SymlinkError, bool) {
	nodeModules := filepath.Join(m.FullModulePath(), "node_modules")

	if directlyInstalled(m, name, installed) {
		return nil, false
	}

	var source model.ModuleInfo
	found := false

	if opts.LinkLocalModules {
		if s, ok := pickSource(name, rng, excludeSelf(localModules, m), opts.TrustLocalNonSemver); ok {
			source, found = s, true
		}
	}
	if !found {
		if s, ok := pickSource(name, rng, installed, false); ok {
			source, found = s, true
		}
	}
	if !found {
		return nil, true
	}

	var errs []*SymlinkError
	linkPath := filepath.Join(nodeModules, filepath.FromSlash(source.CanonicalFolderName))
	if err := createLink(fs, source.FullModulePath(), linkPath); err != nil {
		errs = append(errs, err)
	}

	for cmd, relExe := range source.BinEntries {
		binPath := filepath.Join(nodeModules, ".bin", cmd)
		if err := createLink(fs, filepath.Join(source.FullModulePath(), relExe), binPath); err != nil {
			errs = append(errs, err)
		}
	}

	return errs, false
}

func createLink(fs fsops.Filesystem, target, newPath string) *SymlinkError {
	if err := fs.MkdirAll(filepath.Dir(newPath)); err != nil {
		return &SymlinkError{Path: newPath, Err: err}
	}
	if err := fs.Symlink(target, newPath); err != nil {
		return &SymlinkError{Path: newPath, Err: err}
	}
	return nil
}

// excludeSelf drops m from candidates, so a module (most notably the root
// project, which participates in localModules per its dual identity)
// never becomes its own link source.
func excludeSelf(candidates []model.ModuleInfo, m model.ModuleInfo) []model.ModuleInfo {
	out := make([]model.ModuleInfo, 0, len(candidates))
	for _, c := range candidates {
		if c.FullModulePath() == m.FullModulePath() {
			continue
		}
		out = append(out, c)
	}
	return out
}

// directlyInstalled reports whether an installed artifact named name
// already resides directly in M's own node_modules -- the hoist planner
// chose M itself as the target, so no link is needed.
func directlyInstalled(m model.ModuleInfo, name string, installed []model.ModuleInfo) bool {
	nodeModules := filepath.Join(m.FullModulePath(), "node_modules")
	for _, art := range installed {
		if art.Name == name && art.FullModulePath() == filepath.Join(nodeModules, filepath.FromSlash(art.CanonicalFolderName)) {
			return true
		}
	}
	return false
}

// pickSource finds a candidate of the given name satisfying range under
// the shared semver-validity rule: a valid range must be satisfied by the
// candidate's version; a non-semver range is accepted from any candidate
// only when trustNonSemver is set.
func pickSource(name, rng string, candidates []model.ModuleInfo, trustNonSemver bool) (model.ModuleInfo, bool) {
	valid := semverx.IsValidRange(rng)
	for _, c := range candidates {
		if c.Name != name {
			continue
		}
		if valid {
			if semverx.Satisfies(c.Version, rng) {
				return c, true
			}
			continue
		}
		if trustNonSemver {
			return c, true
		}
	}
	return model.ModuleInfo{}, false
}
