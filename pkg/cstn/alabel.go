// Package cstn: contingent-name alphabets and A-Labels.
// This file defines the Alphabet, the per-graph registry interning contingent
// time-point names, and ALabel, a bitset over that registry used to tag
// upper- and lower-case values with the uncontrollable completions they
// account for.
package cstn

import (
	"fmt"
	"math/bits"
	"strings"
)

// MaxContingentNames is the number of distinct contingent time-point names
// one Alphabet can intern.
const MaxContingentNames = 64

// Alphabet interns contingent time-point names, assigning each a stable bit
// position for use in ALabels. An Alphabet belongs to one Graph; ALabels from
// different alphabets must never be mixed.
type Alphabet struct {
	names []string
	index map[string]int
}

// NewAlphabet returns an empty alphabet.
func NewAlphabet() *Alphabet {
	return &Alphabet{index: make(map[string]int)}
}

// Register interns a name and returns its bit position. Registering an
// already-interned name returns its existing position. It fails when the
// name is empty or the alphabet is full.
func (a *Alphabet) Register(name string) (int, error) {
	if name == "" {
		return 0, &ConfigurationError{Op: "Alphabet.Register", Detail: "empty contingent name"}
	}
	if i, ok := a.index[name]; ok {
		return i, nil
	}
	if len(a.names) >= MaxContingentNames {
		return 0, &ConfigurationError{
			Op:     "Alphabet.Register",
			Detail: fmt.Sprintf("alphabet full: cannot intern %q beyond %d names", name, MaxContingentNames),
		}
	}
	i := len(a.names)
	a.names = append(a.names, name)
	a.index[name] = i
	return i, nil
}

// Index returns the bit position of an interned name.
func (a *Alphabet) Index(name string) (int, bool) {
	i, ok := a.index[name]
	return i, ok
}

// Name returns the name interned at the given bit position, or "" when the
// position is unused.
func (a *Alphabet) Name(i int) string {
	if i < 0 || i >= len(a.names) {
		return ""
	}
	return a.names[i]
}

// Size returns the number of interned names.
func (a *Alphabet) Size() int {
	return len(a.names)
}

// ALabelOf interns the name and returns the singleton A-Label holding it.
func (a *Alphabet) ALabelOf(name string) (ALabel, error) {
	i, err := a.Register(name)
	if err != nil {
		return EmptyALabel, err
	}
	return ALabel(1) << i, nil
}

// ALabel is a set of contingent time-point names, represented as a bitset
// over an Alphabet. The zero value is the empty set. Conjunction of A-Labels
// is set union; an A-Label contains another when it is a superset.
type ALabel uint64

// EmptyALabel is the A-Label naming no contingent time-points. Upper-case
// value maps never store it: a bound with no contingent names is ordinary.
const EmptyALabel ALabel = 0

// IsEmpty reports whether the A-Label names no contingent time-points.
func (al ALabel) IsEmpty() bool {
	return al == 0
}

// Size returns the number of names in the A-Label.
func (al ALabel) Size() int {
	return bits.OnesCount64(uint64(al))
}

// Has reports whether the bit position is in the A-Label.
func (al ALabel) Has(i int) bool {
	return i >= 0 && i < MaxContingentNames && al&(ALabel(1)<<i) != 0
}

// With returns the A-Label with the bit position added.
func (al ALabel) With(i int) ALabel {
	if i < 0 || i >= MaxContingentNames {
		return al
	}
	return al | ALabel(1)<<i
}

// Without returns the A-Label with the bit position removed.
func (al ALabel) Without(i int) ALabel {
	if i < 0 || i >= MaxContingentNames {
		return al
	}
	return al &^ (ALabel(1) << i)
}

// Conj returns the conjunction (set union) of two A-Labels.
func (al ALabel) Conj(o ALabel) ALabel {
	return al | o
}

// Contains reports whether this A-Label is a superset of o.
func (al ALabel) Contains(o ALabel) bool {
	return al&o == o
}

// Intersects reports whether the two A-Labels share any name.
func (al ALabel) Intersects(o ALabel) bool {
	return al&o != 0
}

// Indices returns the bit positions in the A-Label in ascending order.
func (al ALabel) Indices() []int {
	if al == 0 {
		return nil
	}
	out := make([]int, 0, al.Size())
	m := uint64(al)
	for m != 0 {
		i := bits.TrailingZeros64(m)
		m &^= uint64(1) << i
		out = append(out, i)
	}
	return out
}

// String renders the A-Label by bit position, e.g. {0∙3}, or ∅ when empty.
// Use Format to render interned names instead.
func (al ALabel) String() string {
	if al == 0 {
		return "∅"
	}
	var b strings.Builder
	b.WriteByte('{')
	for k, i := range al.Indices() {
		if k > 0 {
			b.WriteString("∙")
		}
		fmt.Fprintf(&b, "%d", i)
	}
	b.WriteByte('}')
	return b.String()
}

// Format renders the A-Label using the names interned in the alphabet,
// joined by ∙, or ∅ when empty.
func (al ALabel) Format(a *Alphabet) string {
	if al == 0 {
		return "∅"
	}
	var parts []string
	for _, i := range al.Indices() {
		name := a.Name(i)
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, "∙")
}
