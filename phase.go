package hookbus

import (
	"fmt"
	"strings"
)

const (
	// DefaultPhaseName is the single phase a namespace gets when it is created
	// without an explicit phase list.
	DefaultPhaseName = "main"

	// defaultPhaseMarker marks the default phase in a phase list, as in
	// []string{"pre", "main*", "post"}.
	defaultPhaseMarker = "*"
)

// Phases is the ordered phase list of a namespace together with its default.
type Phases struct {
	names []string
	index map[string]int
	deflt string
}

// ParsePhases builds a phase ordering from a declaration list. The phase whose
// name ends in "*" becomes the default, with the marker stripped. When no phase
// is marked the first one is the default. An empty list yields a single
// DefaultPhaseName phase.
func ParsePhases(decl []string) (Phases, error) {
	if len(decl) == 0 {
		decl = []string{DefaultPhaseName + defaultPhaseMarker}
	}

	ph := Phases{
		names: make([]string, 0, len(decl)),
		index: make(map[string]int, len(decl)),
	}
	marked := false
	for _, raw := range decl {
		name := raw
		isDefault := strings.HasSuffix(name, defaultPhaseMarker)
		if isDefault {
			name = strings.TrimSuffix(name, defaultPhaseMarker)
		}
		if name == "" || strings.Contains(name, defaultPhaseMarker) || strings.Contains(name, Separator) {
			if isDefault && name == "" {
				return Phases{}, fmt.Errorf("%w: marker without a phase name", ErrNoDefaultPhase)
			}
			return Phases{}, fmt.Errorf("%w: %q", ErrInvalidPhase, raw)
		}
		if _, dup := ph.index[name]; dup {
			return Phases{}, fmt.Errorf("%w: duplicate phase %q", ErrInvalidPhase, name)
		}
		if isDefault {
			if marked {
				return Phases{}, fmt.Errorf("%w: %q and %q", ErrMultipleDefaultPhases, ph.deflt, name)
			}
			marked = true
			ph.deflt = name
		}
		ph.index[name] = len(ph.names)
		ph.names = append(ph.names, name)
	}
	if !marked {
		ph.deflt = ph.names[0]
	}
	return ph, nil
}

// Names returns the phase names in execution order.
func (p Phases) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Default returns the phase used by hooks registered without one.
func (p Phases) Default() string {
	return p.deflt
}

// Index returns the position of name in the ordering. Undeclared phases
// return -1, which places their hooks ahead of every declared phase.
func (p Phases) Index(name string) int {
	if i, ok := p.index[name]; ok {
		return i
	}
	return -1
}

// Has reports whether name was declared.
func (p Phases) Has(name string) bool {
	_, ok := p.index[name]
	return ok
}

// Equal reports whether two orderings declare the same phases in the same
// order with the same default.
func (p Phases) Equal(other Phases) bool {
	if p.deflt != other.deflt || len(p.names) != len(other.names) {
		return false
	}
	for i := range p.names {
		if p.names[i] != other.names[i] {
			return false
		}
	}
	return true
}
