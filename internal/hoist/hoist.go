// SPDX-License-Identifier: MPL-2.0

// Package hoist assigns each surviving dependency request to the
// shallowest project folder where it does not conflict with an already
// planned placement or an already installed artifact.
package hoist

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/anvilhoist/monohoist/internal/model"
	"github.com/anvilhoist/monohoist/internal/semverx"
	"github.com/anvilhoist/monohoist/pkg/fspath"
	"github.com/anvilhoist/monohoist/pkg/types"
)

// ErrPlacementInvariantViolation is the sentinel wrapped by
// PlacementInvariantViolation.
var ErrPlacementInvariantViolation = errors.New("placement invariant violation")

// PlacementInvariantViolation reports a request that exhausted its
// candidate path list without being placed. Per the planner's own
// invariants this cannot happen -- the deepest candidate is always the
// requester's own path, which never conflicts with itself -- so this is a
// programming bug, not a recoverable condition.
type PlacementInvariantViolation struct {
	Identifier string
}

func (e *PlacementInvariantViolation) Error() string {
	return fmt.Sprintf("placement invariant violation: %s exhausted its candidate path list", e.Identifier)
}

func (e *PlacementInvariantViolation) Unwrap() error { return ErrPlacementInvariantViolation }

// Decision reports why a no-hoist short-circuit fired, for the caller's
// logger.
type Decision struct {
	Request    model.DependencyRequest
	NonSemver  bool
	NoHoistHit *model.NoHoistRule
}

// IsHoistable reports whether req would take the normal hoisting path
// rather than the non-hoistable short-circuit, without running the
// placement scan itself. Callers use this to tag DependencyRequest
// records before Plan runs (e.g. for diagnostic output).
func IsHoistable(req model.DependencyRequest, rules []model.NoHoistRule) bool {
	return semverx.IsValidRange(req.VersionRange) && matchingNoHoistRule(req, rules) == nil
}

// Plan runs the hoist planner over requests (already filtered by the
// satisfaction pass) and returns the resulting PlacementPlan.
// The returned decisions record every request placed via the
// short-circuit path, in the order decided, for the caller to log.
func Plan(requests []model.DependencyRequest, installed []model.ModuleInfo, rules []model.NoHoistRule, projectRoot string) (model.PlacementPlan, []Decision, error) {
	sorted := make([]model.DependencyRequest, len(requests))
	copy(sorted, requests)
	sort.SliceStable(sorted, func(i, j int) bool {
		if len(sorted[i].RequestedBy) != len(sorted[j].RequestedBy) {
			return len(sorted[i].RequestedBy) > len(sorted[j].RequestedBy)
		}
		// Deterministic tie-break independent of map iteration order:
		// requests with equal requester counts sort by identifier so a
		// run on the same input always produces the same plan.
		return sorted[i].Identifier() < sorted[j].Identifier()
	})

	plan := model.PlacementPlan{}
	var decisions []Decision

	for _, req := range sorted {
		if rule := matchingNoHoistRule(req, rules); rule != nil {
			for _, requester := range req.RequestedBy {
				plan.Add(requester, req)
			}
			decisions = append(decisions, Decision{Request: req, NoHoistHit: rule})
			continue
		}
		if !semverx.IsValidRange(req.VersionRange) {
			for _, requester := range req.RequestedBy {
				plan.Add(requester, req)
			}
			decisions = append(decisions, Decision{Request: req, NonSemver: true})
			continue
		}

		if err := placeHoistable(plan, req, installed, projectRoot); err != nil {
			return nil, nil, err
		}
	}

	return plan, decisions, nil
}

func placeHoistable(plan model.PlacementPlan, req model.DependencyRequest, installed []model.ModuleInfo, projectRoot string) error {
	requesterPath := req.RequestedBy[0]
	segments := fspath.RelSegments(types.FilesystemPath(projectRoot), types.FilesystemPath(requesterPath))

	for depth := 0; depth <= len(segments); depth++ {
		candidate := filepath.Join(append([]string{projectRoot}, segments[:depth]...)...)
		if placementOK(plan, req, candidate, installed) {
			plan.Add(candidate, req)
			return nil
		}
	}

	return &PlacementInvariantViolation{Identifier: req.Identifier()}
}

// placementOK evaluates the three checks from the hoist planner's
// placement scan for candidate P.
func placementOK(plan model.PlacementPlan, req model.DependencyRequest, candidate string, installed []model.ModuleInfo) bool {
	// a. No duplicate-higher placement plan-wide.
	if plan.HasIdentifier(req.Identifier()) {
		return false
	}

	// b. No conflicting installed artifact directly in candidate's own
	// node_modules.
	candidateNodeModules := filepath.Join(candidate, "node_modules")
	for _, art := range installed {
		if art.Name != req.Name {
			continue
		}
		if art.Location != candidateNodeModules {
			continue
		}
		if !semverx.Satisfies(art.Version, req.VersionRange) {
			return false
		}
	}

	// c. No conflicting planned placement at exactly this target.
	for _, existing := range plan.AtTarget(candidate) {
		if existing.Name == req.Name && existing.VersionRange != req.VersionRange {
			return false
		}
	}

	return true
}

func matchingNoHoistRule(req model.DependencyRequest, rules []model.NoHoistRule) *model.NoHoistRule {
	for i := range rules {
		rule := rules[i]
		matched, err := filepath.Match(rule.NameGlob, req.Name)
		if err != nil || !matched {
			continue
		}
		if rule.VersionRange == "" {
			return &rule
		}
		if _, ok := semverx.Intersect(rule.VersionRange, req.VersionRange); ok {
			return &rule
		}
	}
	return nil
}
