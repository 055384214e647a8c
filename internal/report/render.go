// SPDX-License-Identifier: MPL-2.0

package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	primaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	otherStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true)
)

// Render renders the report as styled text suitable for a terminal.
func Render(r Report) string {
	var b strings.Builder

	if len(r.NonOptimalDependencies) > 0 {
		b.WriteString(headerStyle.Render("Non-optimal dependency setup") + "\n")
		for _, issue := range r.NonOptimalDependencies {
			b.WriteString(fmt.Sprintf("  %s: primary %s %s\n",
				issue.Name, primaryStyle.Render(issue.Primary), pathStyle.Render(fmt.Sprint(issue.PrimaryRequesters))))
			for _, rng := range sortedKeys(issue.Others) {
				b.WriteString(fmt.Sprintf("    also %s %s\n",
					otherStyle.Render(rng), pathStyle.Render(fmt.Sprint(issue.Others[rng]))))
			}
		}
	}

	if len(r.NonOptimalLocalModules) > 0 {
		b.WriteString(headerStyle.Render("Non-optimal local-module usage") + "\n")
		for _, issue := range r.NonOptimalLocalModules {
			b.WriteString(fmt.Sprintf("  %s@%s does not satisfy: %s\n",
				issue.Name, issue.LocalVersion, otherStyle.Render(strings.Join(issue.UnsatisfiedRanges, ", "))))
		}
	}

	return b.String()
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
