// SPDX-License-Identifier: MPL-2.0

// Package coalesce collapses each local module's declared dependencies
// into a single DependencyRequests set, intersecting overlapping semver
// ranges declared under the same package name.
package coalesce

import (
	"github.com/anvilhoist/monohoist/internal/model"
	"github.com/anvilhoist/monohoist/internal/semverx"
)

// entry is one range bucket under a dependency name, tracked in the
// insertion order the coalescing algorithm depends on: within one name,
// later requests are tested against earlier entries in the order those
// entries were first created.
type entry struct {
	rng         string
	requestedBy []string
}

// Coalesce reduces modules' dependencies into a DependencyRequests set.
// modules must be given in a deterministic order (the discovery crawler's
// traversal order); the algorithm is order-sensitive for non-transitive
// intersection chains, so a stable input order is required for a
// reproducible result.
func Coalesce(modules []model.ModuleInfo) model.DependencyRequests {
	byName := map[string][]*entry{}

	for _, mod := range modules {
		path := mod.FullModulePath()
		for name, rng := range mod.Dependencies {
			entries := byName[name]

			placed := false
			for _, e := range entries {
				if inter, ok := semverx.Intersect(rng, e.rng); ok {
					if inter != e.rng {
						e.rng = inter
					}
					e.requestedBy = append(e.requestedBy, path)
					placed = true
					break
				}
			}

			if !placed {
				for _, e := range entries {
					if e.rng == rng {
						e.requestedBy = append(e.requestedBy, path)
						placed = true
						break
					}
				}
			}

			if !placed {
				byName[name] = append(entries, &entry{rng: rng, requestedBy: []string{path}})
			}
		}
	}

	out := make(model.DependencyRequests, len(byName))
	for name, entries := range byName {
		byRange := make(map[string][]string, len(entries))
		for _, e := range entries {
			byRange[e.rng] = e.requestedBy
		}
		out[name] = byRange
	}
	return out
}
