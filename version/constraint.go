package version

import (
	"fmt"
	"strings"
)

// Operator is a comparison operator usable in a Constraint.
type Operator string

const (
	Equal          Operator = "=="
	NotEqual       Operator = "!="
	Less           Operator = "<"
	LessOrEqual    Operator = "<="
	Greater        Operator = ">"
	GreaterOrEqual Operator = ">="
)

// operatorPrefixes lists operators in prefix-scan order; two-character
// operators come first so ">=" is not read as ">" followed by "=...".
var operatorPrefixes = []Operator{
	Equal, NotEqual, GreaterOrEqual, LessOrEqual, Greater, Less,
}

func validOperator(op Operator) bool {
	for _, known := range operatorPrefixes {
		if op == known {
			return true
		}
	}
	return false
}

// Constraint is one (operator, version) comparison.
type Constraint struct {
	Op      Operator
	Version Version
}

// Matches reports whether v satisfies the constraint.
func (c Constraint) Matches(v Version) bool {
	cmp := v.Compare(c.Version)
	switch c.Op {
	case Equal:
		return cmp == 0
	case NotEqual:
		return cmp != 0
	case Less:
		return cmp < 0
	case LessOrEqual:
		return cmp <= 0
	case Greater:
		return cmp > 0
	case GreaterOrEqual:
		return cmp >= 0
	default:
		return false
	}
}

func (c Constraint) String() string {
	return string(c.Op) + " " + c.Version.String()
}

// ParseConstraint reads an operator prefix followed by a dotted version,
// e.g. ">= 9.2". A bare version is shorthand for equality.
func ParseConstraint(text string) (Constraint, error) {
	text = strings.TrimSpace(text)
	for _, op := range operatorPrefixes {
		if strings.HasPrefix(text, string(op)) {
			v, err := Parse(strings.TrimSpace(text[len(op):]))
			if err != nil {
				return Constraint{}, err
			}
			return Constraint{Op: op, Version: v}, nil
		}
	}
	v, err := Parse(text)
	if err != nil {
		return Constraint{}, fmt.Errorf("unrecognized constraint %q: %w", text, err)
	}
	return Constraint{Op: Equal, Version: v}, nil
}
