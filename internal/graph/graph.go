// SPDX-License-Identifier: MPL-2.0

// Package graph builds a debugging view of coalesced dependency requests:
// which modules (requirements) asked for which ranges, and which
// coalesced range (provider) will end up satisfying them. It is
// additive tooling around internal/report's diagnostics and never
// influences plan output.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/anvilhoist/monohoist/internal/model"
)

// ProviderNode is one coalesced (name, range) the resolution engine will
// place exactly once (barring the non-hoistable per-requester exception).
type ProviderNode struct {
	Name  string
	Range string
}

// RequirementNode is one module's original request for a dependency,
// before coalescing merged it into a ProviderNode.
type RequirementNode struct {
	Name        string
	Range       string
	RequestedBy string
}

// DependencyGraph pairs every provider with the requirements it covers.
type DependencyGraph struct {
	Providers    []ProviderNode
	Requirements []RequirementNode
}

// Build constructs a DependencyGraph from coalesced requests.
func Build(requests model.DependencyRequests) DependencyGraph {
	var g DependencyGraph
	for name, byRange := range requests {
		for rng, requesters := range byRange {
			g.Providers = append(g.Providers, ProviderNode{Name: name, Range: rng})
			for _, requester := range requesters {
				g.Requirements = append(g.Requirements, RequirementNode{Name: name, Range: rng, RequestedBy: requester})
			}
		}
	}
	sort.Slice(g.Providers, func(i, j int) bool {
		if g.Providers[i].Name != g.Providers[j].Name {
			return g.Providers[i].Name < g.Providers[j].Name
		}
		return g.Providers[i].Range < g.Providers[j].Range
	})
	sort.Slice(g.Requirements, func(i, j int) bool {
		if g.Requirements[i].Name != g.Requirements[j].Name {
			return g.Requirements[i].Name < g.Requirements[j].Name
		}
		if g.Requirements[i].Range != g.Requirements[j].Range {
			return g.Requirements[i].Range < g.Requirements[j].Range
		}
		return g.Requirements[i].RequestedBy < g.Requirements[j].RequestedBy
	})
	return g
}

// Render prints the graph as an indented text tree: one line per
// dependency name, one indented line per coalesced range, one
// double-indented line per requester of that range.
func Render(g DependencyGraph) string {
	var b strings.Builder

	byName := map[string][]ProviderNode{}
	var names []string
	for _, p := range g.Providers {
		if _, ok := byName[p.Name]; !ok {
			names = append(names, p.Name)
		}
		byName[p.Name] = append(byName[p.Name], p)
	}
	sort.Strings(names)

	requestersOf := map[ProviderNode][]string{}
	for _, r := range g.Requirements {
		key := ProviderNode{Name: r.Name, Range: r.Range}
		requestersOf[key] = append(requestersOf[key], r.RequestedBy)
	}

	for _, name := range names {
		fmt.Fprintf(&b, "%s\n", name)
		for _, p := range byName[name] {
			fmt.Fprintf(&b, "  %s\n", p.Range)
			for _, requester := range requestersOf[p] {
				fmt.Fprintf(&b, "    %s\n", requester)
			}
		}
	}

	return b.String()
}
