package version

import (
	"fmt"
	"slices"
	"strings"
)

// Filter selects versions of one named capability. Its constraints are
// combined by logical AND. An empty constraint list is a presence filter:
// it matches any capability instance of that name, including the marker
// (no-version) case.
type Filter struct {
	Cap         string
	Constraints []Constraint
}

// ValidationError reports a structurally invalid filter.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid version filter: " + e.Reason
}

// NewFilter validates and builds a Filter.
func NewFilter(cap string, constraints ...Constraint) (Filter, error) {
	if cap == "" {
		return Filter{}, &ValidationError{Reason: "empty capability name"}
	}
	for _, c := range constraints {
		if !validOperator(c.Op) {
			return Filter{}, &ValidationError{
				Reason: fmt.Sprintf("unknown operator %q for capability %q", c.Op, cap),
			}
		}
	}
	return Filter{Cap: cap, Constraints: constraints}, nil
}

// MustFilter is NewFilter for trusted literals; it panics on invalid input.
func MustFilter(cap string, constraints ...Constraint) Filter {
	f, err := NewFilter(cap, constraints...)
	if err != nil {
		panic(err)
	}
	return f
}

// Presence returns the presence filter for cap.
func Presence(cap string) Filter {
	return MustFilter(cap)
}

// Match reports whether a capability version satisfies the filter. A nil
// version stands for a marker capability, which matches only when the
// constraint list is empty.
func (f Filter) Match(v *Version) bool {
	if len(f.Constraints) == 0 {
		return true
	}
	if v == nil {
		return false
	}
	for _, c := range f.Constraints {
		if !c.Matches(*v) {
			return false
		}
	}
	return true
}

// Select returns the deduplicated, ascending subsequence of available that
// satisfies every constraint. Structurally equal spellings ("9", "9.0")
// collapse into one entry; the shortest spelling is kept so the survivor is
// deterministic.
func (f Filter) Select(available []Version) []Version {
	selected := make([]Version, 0, len(available))
	for _, v := range available {
		v := v
		if f.Match(&v) {
			selected = append(selected, v)
		}
	}
	slices.SortFunc(selected, func(a, b Version) int {
		if cmp := a.Compare(b); cmp != 0 {
			return cmp
		}
		return len(a.parts) - len(b.parts)
	})
	return slices.CompactFunc(selected, Version.Equal)
}

// String renders "name op version op version ...". ParseFilter accepts the
// result, which is how requirements survive the trip through builder
// properties.
func (f Filter) String() string {
	fields := make([]string, 0, 1+len(f.Constraints))
	fields = append(fields, f.Cap)
	for _, c := range f.Constraints {
		fields = append(fields, c.String())
	}
	return strings.Join(fields, " ")
}

// ParseFilter reads a textual filter: a capability name optionally followed
// by whitespace-separated constraints ("postgresql >= 9.2 < 10", bare
// versions meaning equality). The grammar is a convenience for requirement
// round-trips and CLI input; it is not a stability contract.
func ParseFilter(text string) (Filter, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Filter{}, &ValidationError{Reason: "empty filter text"}
	}
	cap := fields[0]
	var constraints []Constraint
	for i := 1; i < len(fields); i++ {
		token := fields[i]
		if validOperator(Operator(token)) {
			if i+1 >= len(fields) {
				return Filter{}, &ValidationError{
					Reason: fmt.Sprintf("operator %q at end of filter %q", token, text),
				}
			}
			i++
			token += " " + fields[i]
		}
		c, err := ParseConstraint(token)
		if err != nil {
			return Filter{}, fmt.Errorf("parsing filter %q: %w", text, err)
		}
		constraints = append(constraints, c)
	}
	return NewFilter(cap, constraints...)
}
