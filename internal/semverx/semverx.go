// SPDX-License-Identifier: MPL-2.0

// Package semverx wraps github.com/Masterminds/semver/v3 with the handful
// of operations the coalescer, satisfaction filter, hoist planner, and
// symlink repair pass all need: "is this string a valid range", "does this
// version satisfy this range", and "what range (if any) is the
// intersection of these two ranges". Masterminds/semver covers the first
// two directly; intersection has no library primitive, so this package
// derives it from a small closed-form interval representation of a range.
package semverx

import (
	"fmt"
	"strings"

	mm "github.com/Masterminds/semver/v3"
)

// IsValidVersion reports whether raw parses as a concrete semantic version.
func IsValidVersion(raw string) bool {
	_, err := mm.NewVersion(raw)
	return err == nil
}

// IsValidRange reports whether raw parses as a semver constraint. Git
// URLs, tags, local "file:" paths, and other non-semver ranges return
// false here without error, per spec 4.1 ("does not perform semver
// validation -- invalid ranges are preserved verbatim").
func IsValidRange(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	_, err := mm.NewConstraint(raw)
	return err == nil
}

// Satisfies reports whether version satisfies range. A non-semver version
// or range always returns false.
func Satisfies(version, rng string) bool {
	v, err := mm.NewVersion(version)
	if err != nil {
		return false
	}
	c, err := mm.NewConstraint(rng)
	if err != nil {
		return false
	}
	return c.Check(v)
}

// interval is a closed-form AND-only representation of a range: the set of
// versions v such that (min < v, or min <= v when minIncl) and (v < max,
// or v <= max when maxIncl). A nil bound means unbounded on that side.
type interval struct {
	min, max         *mm.Version
	minIncl, maxIncl bool
}

// Intersect returns the range string representing the intersection of a
// and b, and true, when both parse as AND-only (no "||") semver ranges
// and their intervals overlap. When the intersection is exactly one of
// the inputs' own interval, that input string is returned as given (b
// first), so a range coalesced with an equal or wider one keeps its
// original text; otherwise the intersection is rendered in ">=x <y" form.
// It returns ("", false) for any other case -- unparseable ranges,
// OR-of-ranges ("1.x || 2.x"), or genuinely disjoint intervals -- never an
// error, per spec 4.3's "intersection operation must treat unparseable
// ranges as non-intersecting, not as errors".
func Intersect(a, b string) (string, bool) {
	ia, ok := parseInterval(a)
	if !ok {
		return "", false
	}
	ib, ok := parseInterval(b)
	if !ok {
		return "", false
	}

	lo, loIncl := maxBound(ia.min, ia.minIncl, ib.min, ib.minIncl)
	hi, hiIncl := minBound(ia.max, ia.maxIncl, ib.max, ib.maxIncl)

	if lo != nil && hi != nil {
		switch lo.Compare(hi) {
		case 1:
			return "", false // disjoint
		case 0:
			if !loIncl || !hiIncl {
				return "", false // touching but open on at least one side
			}
		}
	}

	res := interval{min: lo, minIncl: loIncl, max: hi, maxIncl: hiIncl}
	switch {
	case res.equal(ib):
		return b, true
	case res.equal(ia):
		return a, true
	}
	return formatInterval(res), true
}

// equal reports whether two intervals describe the same set of versions.
func (iv interval) equal(o interval) bool {
	return sameBound(iv.min, iv.minIncl, o.min, o.minIncl) && sameBound(iv.max, iv.maxIncl, o.max, o.maxIncl)
}

func sameBound(a *mm.Version, aIncl bool, b *mm.Version, bIncl bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b) && aIncl == bIncl
}

// maxBound returns the tighter (larger) of two lower bounds.
func maxBound(a *mm.Version, aIncl bool, b *mm.Version, bIncl bool) (*mm.Version, bool) {
	if a == nil {
		return b, bIncl
	}
	if b == nil {
		return a, aIncl
	}
	switch a.Compare(b) {
	case 1:
		return a, aIncl
	case -1:
		return b, bIncl
	default:
		return a, aIncl && bIncl
	}
}

// minBound returns the tighter (smaller) of two upper bounds.
func minBound(a *mm.Version, aIncl bool, b *mm.Version, bIncl bool) (*mm.Version, bool) {
	if a == nil {
		return b, bIncl
	}
	if b == nil {
		return a, aIncl
	}
	switch a.Compare(b) {
	case -1:
		return a, aIncl
	case 1:
		return b, bIncl
	default:
		return a, aIncl && bIncl
	}
}

// parseInterval converts a single AND-only range string into an interval.
// The empty string and the "*" wildcard yield the unbounded interval with
// ok=true; anything containing "||" (a disjunctive range) or a token it
// cannot parse yields ok=false.
func parseInterval(raw string) (interval, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "*" {
		return interval{}, true
	}
	if strings.Contains(raw, "||") {
		return interval{}, false
	}

	iv := interval{}
	first := true
	for _, tok := range strings.Fields(raw) {
		bound, ok := parseToken(tok)
		if !ok {
			return interval{}, false
		}
		if first {
			iv = bound
			first = false
			continue
		}
		// AND together: tighten both sides.
		lo, loIncl := maxBound(iv.min, iv.minIncl, bound.min, bound.minIncl)
		hi, hiIncl := minBound(iv.max, iv.maxIncl, bound.max, bound.maxIncl)
		iv = interval{min: lo, minIncl: loIncl, max: hi, maxIncl: hiIncl}
	}
	return iv, true
}

// parseToken parses one comparator token (">=1.2.3", "^1.2.0", "~1.4", a
// bare version, etc.) into the interval it describes.
func parseToken(tok string) (interval, bool) {
	op, rest := splitOperator(tok)

	switch op {
	case ">=":
		v, err := mm.NewVersion(rest)
		if err != nil {
			return interval{}, false
		}
		return interval{min: v, minIncl: true}, true
	case ">":
		v, err := mm.NewVersion(rest)
		if err != nil {
			return interval{}, false
		}
		return interval{min: v, minIncl: false}, true
	case "<=":
		v, err := mm.NewVersion(rest)
		if err != nil {
			return interval{}, false
		}
		return interval{max: v, maxIncl: true}, true
	case "<":
		v, err := mm.NewVersion(rest)
		if err != nil {
			return interval{}, false
		}
		return interval{max: v, maxIncl: false}, true
	case "=", "":
		v, err := mm.NewVersion(rest)
		if err != nil {
			return interval{}, false
		}
		return interval{min: v, minIncl: true, max: v, maxIncl: true}, true
	case "^":
		return caretInterval(rest)
	case "~":
		return tildeInterval(rest)
	default:
		return interval{}, false
	}
}

// splitOperator splits a comparator token into its operator prefix (one
// of ">=", "<=", ">", "<", "=", "^", "~", or "") and the remaining version
// text.
func splitOperator(tok string) (string, string) {
	for _, op := range []string{">=", "<=", "^", "~", ">", "<", "="} {
		if rest, ok := strings.CutPrefix(tok, op); ok {
			return op, rest
		}
	}
	return "", tok
}

// caretInterval implements npm's caret range: allow changes that do not
// modify the left-most non-zero component.
func caretInterval(raw string) (interval, bool) {
	v, err := mm.NewVersion(raw)
	if err != nil {
		return interval{}, false
	}
	var upperRaw string
	switch {
	case v.Major() != 0:
		upperRaw = fmt.Sprintf("%d.0.0", v.Major()+1)
	case v.Minor() != 0:
		upperRaw = fmt.Sprintf("0.%d.0", v.Minor()+1)
	default:
		upperRaw = fmt.Sprintf("0.0.%d", v.Patch()+1)
	}
	upper, err := mm.NewVersion(upperRaw)
	if err != nil {
		return interval{}, false
	}
	return interval{min: v, minIncl: true, max: upper, maxIncl: false}, true
}

// tildeInterval implements npm's tilde range: allow patch-level changes,
// or minor-level changes when only the major version was specified ("~1").
func tildeInterval(raw string) (interval, bool) {
	v, err := mm.NewVersion(raw)
	if err != nil {
		return interval{}, false
	}
	upperRaw := fmt.Sprintf("%d.%d.0", v.Major(), v.Minor()+1)
	if !strings.Contains(raw, ".") {
		upperRaw = fmt.Sprintf("%d.0.0", v.Major()+1)
	}
	upper, err := mm.NewVersion(upperRaw)
	if err != nil {
		return interval{}, false
	}
	return interval{min: v, minIncl: true, max: upper, maxIncl: false}, true
}

// formatInterval renders an interval back into a constraint string
// Masterminds/semver (and this package's own Satisfies) can parse.
func formatInterval(iv interval) string {
	if iv.min == nil && iv.max == nil {
		return "*"
	}
	if iv.min != nil && iv.max != nil && iv.min.Equal(iv.max) && iv.minIncl && iv.maxIncl {
		return iv.min.Original()
	}

	var parts []string
	if iv.min != nil {
		op := ">="
		if !iv.minIncl {
			op = ">"
		}
		parts = append(parts, fmt.Sprintf("%s%s", op, iv.min.Original()))
	}
	if iv.max != nil {
		op := "<="
		if !iv.maxIncl {
			op = "<"
		}
		parts = append(parts, fmt.Sprintf("%s%s", op, iv.max.Original()))
	}
	return strings.Join(parts, " ")
}
