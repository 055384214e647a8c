// SPDX-License-Identifier: MPL-2.0

// Package satisfy filters coalesced dependency requests down to the
// subset that still needs installation, dropping any request already met
// by an installed artifact or (optionally) a local module.
package satisfy

import (
	"github.com/anvilhoist/monohoist/internal/model"
	"github.com/anvilhoist/monohoist/internal/semverx"
)

// Options controls the local-module shadowing rules.
type Options struct {
	// LinkLocalModules enables the local-module check.
	LinkLocalModules bool

	// TrustLocalNonSemver allows a non-semver range to be satisfied by any
	// local module of the same name when LinkLocalModules is set.
	TrustLocalNonSemver bool
}

// Filter returns the subset of requests not already satisfied by an
// installed artifact or, when enabled, a local module.
func Filter(requests model.DependencyRequests, localModules, installed []model.ModuleInfo, opts Options) model.DependencyRequests {
	out := make(model.DependencyRequests, len(requests))

	for name, byRange := range requests {
		var survivingRanges map[string][]string

		for rng, requesters := range byRange {
			if satisfiedByInstalled(name, rng, installed) {
				continue
			}
			if opts.LinkLocalModules && satisfiedByLocal(name, rng, localModules, opts.TrustLocalNonSemver) {
				continue
			}
			if len(requesters) == 0 {
				continue
			}
			if survivingRanges == nil {
				survivingRanges = map[string][]string{}
			}
			survivingRanges[rng] = requesters
		}

		if len(survivingRanges) > 0 {
			out[name] = survivingRanges
		}
	}

	return out
}

func satisfiedByInstalled(name, rng string, installed []model.ModuleInfo) bool {
	for _, art := range installed {
		if art.Name == name && semverx.Satisfies(art.Version, rng) {
			return true
		}
	}
	return false
}

func satisfiedByLocal(name, rng string, localModules []model.ModuleInfo, trustLocalNonSemver bool) bool {
	for _, mod := range localModules {
		if mod.Name != name {
			continue
		}
		if semverx.IsValidRange(rng) {
			if semverx.Satisfies(mod.Version, rng) {
				return true
			}
			continue
		}
		if trustLocalNonSemver {
			return true
		}
	}
	return false
}
