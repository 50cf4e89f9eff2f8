// Package version implements dotted numeric versions and the AND-combined
// comparison filters used to select capability versions.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is an immutable, ordered sequence of non-negative integer
// components parsed from a dotted string ("9.4" -> 9, 4). When two versions
// of different lengths are compared, the shorter one behaves as if padded
// with trailing zeros, so 9 == 9.0 < 9.1.
type Version struct {
	parts []int
}

// ParseError reports a version string that could not be parsed.
type ParseError struct {
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid version %q: %s", e.Text, e.Reason)
}

// New builds a Version from its integer components.
func New(parts ...int) Version {
	v := Version{parts: make([]int, len(parts))}
	copy(v.parts, parts)
	return v
}

// Parse converts a dotted numeric string into a Version.
func Parse(text string) (Version, error) {
	if text == "" {
		return Version{}, &ParseError{Text: text, Reason: "empty string"}
	}
	fields := strings.Split(text, ".")
	parts := make([]int, len(fields))
	for i, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil || n < 0 {
			return Version{}, &ParseError{
				Text:   text,
				Reason: fmt.Sprintf("component %q is not a non-negative integer", field),
			}
		}
		parts[i] = n
	}
	return Version{parts: parts}, nil
}

// MustParse is Parse for trusted literals; it panics on malformed input.
func MustParse(text string) Version {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare returns -1, 0 or 1 ordering v against other. Comparison is
// lexicographic over components with trailing-zero padding.
func (v Version) Compare(other Version) int {
	n := len(v.parts)
	if len(other.parts) > n {
		n = len(other.parts)
	}
	for i := 0; i < n; i++ {
		a, b := 0, 0
		if i < len(v.parts) {
			a = v.parts[i]
		}
		if i < len(other.parts) {
			b = other.parts[i]
		}
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Equal reports structural equality, modulo trailing zeros.
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

// Less reports whether v orders strictly before other.
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

// String renders the dotted form as declared.
func (v Version) String() string {
	fields := make([]string, len(v.parts))
	for i, p := range v.parts {
		fields[i] = strconv.Itoa(p)
	}
	return strings.Join(fields, ".")
}

// Canonical renders the dotted form with trailing zero components stripped,
// so every structurally equal spelling ("9", "9.0", "9.0.0") shares one
// representation. Suitable as a map key honoring Equal.
func (v Version) Canonical() string {
	parts := v.parts
	for len(parts) > 0 && parts[len(parts)-1] == 0 {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return "0"
	}
	fields := make([]string, len(parts))
	for i, p := range parts {
		fields[i] = strconv.Itoa(p)
	}
	return strings.Join(fields, ".")
}
