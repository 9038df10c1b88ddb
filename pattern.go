package hookbus

import (
	"fmt"
	"strings"
)

const (
	// Separator joins pattern segments.
	Separator = "."

	// Wildcard matches exactly one name part when it appears in a registered
	// hook's pattern.
	Wildcard = "*"
)

// Pattern is a parsed dotted pattern of the form
// namespace.part1...partN.action with N >= 0.
//
// Examples: "sys.login.call", "nodes.node1.status.get", "nodes.*.status.set".
type Pattern struct {
	Namespace string
	Parts     []string
	Action    string
}

// ParsePattern decomposes s into namespace, name parts, and action. The first
// segment is the namespace and the last is the action; everything between is
// the ordered list of name parts, which may be empty.
func ParsePattern(s string) (Pattern, error) {
	segments := strings.Split(s, Separator)
	if len(segments) < 2 {
		return Pattern{}, fmt.Errorf("%w: %q needs at least a namespace and an action", ErrPatternMalformed, s)
	}
	for i, seg := range segments {
		if seg == "" {
			return Pattern{}, fmt.Errorf("%w: %q has an empty segment at position %d", ErrPatternMalformed, s, i)
		}
	}

	parts := make([]string, len(segments)-2)
	copy(parts, segments[1:len(segments)-1])

	return Pattern{
		Namespace: segments[0],
		Parts:     parts,
		Action:    segments[len(segments)-1],
	}, nil
}

// MustParsePattern is like ParsePattern but panics on error. It is intended for
// package-level pattern constants.
func MustParsePattern(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String reassembles the dotted form.
func (p Pattern) String() string {
	segments := make([]string, 0, len(p.Parts)+2)
	segments = append(segments, p.Namespace)
	segments = append(segments, p.Parts...)
	segments = append(segments, p.Action)
	return strings.Join(segments, Separator)
}

// HasWildcard reports whether any name part is the wildcard segment.
func (p Pattern) HasWildcard() bool {
	for _, part := range p.Parts {
		if part == Wildcard {
			return true
		}
	}
	return false
}

// Matches reports whether a fired pattern selects a hook registered under p.
//
// Namespace and action must be equal and both patterns must have the same
// number of name parts. Each of p's parts must be the wildcard or equal to the
// fired part. Wildcards in the fired pattern have no special meaning.
func (p Pattern) Matches(fired Pattern) bool {
	if p.Namespace != fired.Namespace || p.Action != fired.Action {
		return false
	}
	if len(p.Parts) != len(fired.Parts) {
		return false
	}
	for i, part := range p.Parts {
		if part != Wildcard && part != fired.Parts[i] {
			return false
		}
	}
	return true
}
