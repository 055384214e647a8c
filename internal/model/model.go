// SPDX-License-Identifier: MPL-2.0

// Package model defines the data records the resolution engine passes
// between pipeline phases: discovered modules, coalesced dependency
// requests, no-hoist rules, and the placement plan the hoist planner
// produces. Every record here is built once per run and never mutated
// after the phase that produces it returns.
package model

import "path/filepath"

// ModuleInfo is one resolved manifest: a local module, the root project, or
// an artifact already installed under some node_modules directory.
type ModuleInfo struct {
	// Location is the absolute path of the folder enclosing the module's
	// directory (e.g. the modules/ folder, or a node_modules/ folder).
	Location string

	// RealFolderName is the on-disk folder name; it may diverge from
	// CanonicalFolderName for local modules (a folder named "utils-v2" can
	// declare name "@acme/utils").
	RealFolderName string

	// CanonicalFolderName is the relative path this module should occupy
	// under node_modules given its declared Name. For scoped names
	// ("@scope/pkg") this is the two-segment path "@scope/pkg"; otherwise
	// it equals Name.
	CanonicalFolderName string

	Name    string
	Version string

	// Dependencies is the merged dependency map (runtime, overlaid with dev
	// when not in production, overlaid with peer), name -> version range.
	Dependencies map[string]string

	// PostinstallCommand is the optional scripts.postinstall shell command.
	PostinstallCommand string

	// BinEntries maps command name -> relative path of the executable,
	// normalized from the three manifest shapes package.json allows.
	BinEntries map[string]string

	// IsScoped is true when Name begins with "@".
	IsScoped bool
}

// FullModulePath is join(Location, RealFolderName).
func (m ModuleInfo) FullModulePath() string {
	return filepath.Join(m.Location, m.RealFolderName)
}

// ModuleSet is the discovery pipeline's output.
type ModuleSet struct {
	// Modules are local modules plus the root project itself.
	Modules []ModuleInfo

	// InstalledDependencies are every module found beneath any
	// node_modules directory anywhere in the discovered tree.
	InstalledDependencies []ModuleInfo
}

// DependencyRequest is one coalesced, possibly-intersected request for a
// named dependency at a given range, and the local modules that asked for
// it (after coalescing, a single entry can represent several original
// requesters whose ranges intersected).
type DependencyRequest struct {
	Name         string
	VersionRange string
	RequestedBy  []string // fullModulePath of each requesting module

	// Hoistable is false when VersionRange is not a valid semver range, or
	// the request matched a NoHoistRule; such requests are placed once per
	// requester instead of at a single shared ancestor.
	Hoistable bool
}

// Identifier returns the installer-facing identifier `name@"range"`.
func (r DependencyRequest) Identifier() string {
	return r.Name + `@"` + r.VersionRange + `"`
}

// DependencyRequests is name -> range -> requesters, the coalescer's
// working set. Within one name, no two range keys may have a non-empty
// semver intersection; the coalescer enforces this on insertion.
type DependencyRequests map[string]map[string][]string

// Flatten converts the nested map into a flat slice of DependencyRequest
// values for the hoist planner. The slice order follows map iteration and
// is not defined.
// hoistable reports, per (name, range), whether the request survived as
// hoistable; it is supplied by the caller because hoistability depends on
// no-hoist rules the coalescer itself doesn't know about.
func (d DependencyRequests) Flatten(hoistable func(name, rng string) bool) []DependencyRequest {
	out := make([]DependencyRequest, 0, len(d))
	for name, byRange := range d {
		for rng, requesters := range byRange {
			out = append(out, DependencyRequest{
				Name:         name,
				VersionRange: rng,
				RequestedBy:  requesters,
				Hoistable:    hoistable(name, rng),
			})
		}
	}
	return out
}

// NoHoistRule matches a request by package-name glob and an optional range.
type NoHoistRule struct {
	NameGlob     string
	VersionRange string // empty means "match regardless of range"
}

// PlacementPlan maps a target folder to the requests installed there.
// Invariants: within one target folder no two entries share a Name; no
// entry for name@range exists if another entry with the same Identifier
// exists at a different target folder in the plan (checked plan-wide, per
// spec 4.5 edge case "a"), except for non-hoistable requests, which are
// placed once per requester under the same Identifier.
type PlacementPlan map[string][]DependencyRequest

// Add appends a request to the plan at targetFolder.
func (p PlacementPlan) Add(targetFolder string, req DependencyRequest) {
	p[targetFolder] = append(p[targetFolder], req)
}

// HasIdentifier reports whether any target in the plan already carries a
// placement for the given identifier.
func (p PlacementPlan) HasIdentifier(identifier string) bool {
	for _, reqs := range p {
		for _, r := range reqs {
			if r.Identifier() == identifier {
				return true
			}
		}
	}
	return false
}

// AtTarget returns the requests already placed at exactly targetFolder.
func (p PlacementPlan) AtTarget(targetFolder string) []DependencyRequest {
	return p[targetFolder]
}
