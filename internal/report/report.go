// SPDX-License-Identifier: MPL-2.0

// Package report generates the two advisory diagnostics the pipeline
// prints before the satisfaction filter runs: non-optimal dependency
// setups (a name coalesced into more than one range) and non-optimal
// local-module usage (a local module whose version doesn't satisfy some
// requested range for its own name). Reports never alter downstream plan
// output.
package report

import (
	"sort"

	"github.com/anvilhoist/monohoist/internal/model"
	"github.com/anvilhoist/monohoist/internal/semverx"
	"github.com/google/uuid"
)

// DependencySetupIssue describes one dependency name coalesced into more
// than one surviving range.
type DependencySetupIssue struct {
	Name              string
	Primary           string
	PrimaryRequesters []string
	Others            map[string][]string
}

// LocalModuleIssue describes a local module whose version does not
// satisfy some range requested for its own package name.
type LocalModuleIssue struct {
	Name              string
	LocalVersion      string
	UnsatisfiedRanges []string
}

// Report bundles both advisory diagnostics under one correlation ID, so
// structured log lines emitted for the same run can be joined together.
type Report struct {
	ID                     uuid.UUID
	NonOptimalDependencies []DependencySetupIssue
	NonOptimalLocalModules []LocalModuleIssue
}

// Generate builds a Report from the coalesced (pre-filter) requests and
// the discovered local modules.
func Generate(requests model.DependencyRequests, localModules []model.ModuleInfo, trustLocalNonSemver bool) Report {
	r := Report{ID: uuid.New()}

	for name, byRange := range requests {
		if len(byRange) > 1 {
			r.NonOptimalDependencies = append(r.NonOptimalDependencies, dependencySetupIssue(name, byRange))
		}
	}
	sort.Slice(r.NonOptimalDependencies, func(i, j int) bool {
		return r.NonOptimalDependencies[i].Name < r.NonOptimalDependencies[j].Name
	})

	byLocalName := map[string]model.ModuleInfo{}
	for _, m := range localModules {
		byLocalName[m.Name] = m
	}
	for name, byRange := range requests {
		local, ok := byLocalName[name]
		if !ok {
			continue
		}
		var unsatisfied []string
		for rng := range byRange {
			if !localSatisfies(local.Version, rng, trustLocalNonSemver) {
				unsatisfied = append(unsatisfied, rng)
			}
		}
		if len(unsatisfied) > 0 {
			sort.Strings(unsatisfied)
			r.NonOptimalLocalModules = append(r.NonOptimalLocalModules, LocalModuleIssue{
				Name:              name,
				LocalVersion:      local.Version,
				UnsatisfiedRanges: unsatisfied,
			})
		}
	}
	sort.Slice(r.NonOptimalLocalModules, func(i, j int) bool {
		return r.NonOptimalLocalModules[i].Name < r.NonOptimalLocalModules[j].Name
	})

	return r
}

func localSatisfies(version, rng string, trustLocalNonSemver bool) bool {
	if semverx.IsValidRange(rng) {
		return semverx.Satisfies(version, rng)
	}
	return trustLocalNonSemver
}

func dependencySetupIssue(name string, byRange map[string][]string) DependencySetupIssue {
	primary := ""
	primaryCount := -1
	for rng, requesters := range byRange {
		if len(requesters) > primaryCount || (len(requesters) == primaryCount && rng < primary) {
			primary = rng
			primaryCount = len(requesters)
		}
	}

	others := make(map[string][]string, len(byRange)-1)
	for rng, requesters := range byRange {
		if rng == primary {
			continue
		}
		others[rng] = requesters
	}

	return DependencySetupIssue{
		Name:              name,
		Primary:           primary,
		PrimaryRequesters: byRange[primary],
		Others:            others,
	}
}
