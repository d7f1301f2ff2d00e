// Package cstn: propositional labels.
// This file defines Literal and Label, the conjunctions of propositional
// literals that condition when a temporal bound applies. Labels are packed
// into two uint64 words (two bits per proposition), making them comparable
// values usable directly as map keys, with O(1) conjunction and subsumption.
package cstn

import (
	"fmt"
	"math/bits"
	"strings"
)

// propositionAlphabet enumerates every proposition the label machinery can
// represent. The index of a rune in this string is its bit position in a
// Label's words.
const propositionAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// MaxPropositions is the number of distinct propositions a Label can carry.
const MaxPropositions = len(propositionAlphabet)

// Polarity is the state of a proposition inside a label: asserted true,
// asserted false, or unknown (the result of merging conflicting scenarios).
type Polarity uint8

const (
	// Straight asserts the proposition is true.
	Straight Polarity = iota

	// Negated asserts the proposition is false.
	Negated

	// Unknown records that conflicting polarities were combined; it appears
	// only in labels produced by the unknown-tolerant conjunction.
	Unknown
)

// String returns a human-readable representation of the polarity.
func (p Polarity) String() string {
	switch p {
	case Straight:
		return "straight"
	case Negated:
		return "negated"
	case Unknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// Literal is a proposition together with its polarity.
type Literal struct {
	Prop rune
	Pol  Polarity
}

// String renders the literal with the conventional prefixes: none for
// straight, ¬ for negated, ¿ for unknown.
func (l Literal) String() string {
	switch l.Pol {
	case Negated:
		return "¬" + string(l.Prop)
	case Unknown:
		return "¿" + string(l.Prop)
	default:
		return string(l.Prop)
	}
}

// propIndex maps a proposition rune to its bit position.
func propIndex(r rune) (int, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return int(r - 'a'), true
	case r >= 'A' && r <= 'Z':
		return 26 + int(r-'A'), true
	case r >= '0' && r <= '9':
		return 52 + int(r-'0'), true
	default:
		return 0, false
	}
}

// propAt is the inverse of propIndex.
func propAt(i int) rune {
	return rune(propositionAlphabet[i])
}

// Label is a conjunction of literals over the proposition alphabet.
// The zero value is the empty label (always true, written ⊡).
//
// Representation: proposition i occupies bit i of both words. Bit set in b0
// only means straight, in b1 only means negated, in both means unknown.
// Labels are immutable values; all operations return new labels. Two labels
// are equal exactly when == reports them equal, so Label can key a map.
type Label struct {
	b0, b1 uint64
}

// EmptyLabel is the label with no literals. It is subsumed by every label
// and is the identity of both conjunctions.
var EmptyLabel = Label{}

// NewLabel builds a label from literals. It fails if a proposition is outside
// the alphabet or occurs more than once.
func NewLabel(lits ...Literal) (Label, error) {
	var lab Label
	for _, lit := range lits {
		i, ok := propIndex(lit.Prop)
		if !ok {
			return Label{}, fmt.Errorf("NewLabel: proposition %q is not in the alphabet", lit.Prop)
		}
		bit := uint64(1) << i
		if lab.b0&bit != 0 || lab.b1&bit != 0 {
			return Label{}, fmt.Errorf("NewLabel: duplicate proposition %q", lit.Prop)
		}
		switch lit.Pol {
		case Straight:
			lab.b0 |= bit
		case Negated:
			lab.b1 |= bit
		case Unknown:
			lab.b0 |= bit
			lab.b1 |= bit
		default:
			return Label{}, fmt.Errorf("NewLabel: invalid polarity for %q", lit.Prop)
		}
	}
	return lab, nil
}

// ParseLabel parses the textual form of a label. The empty string and "⊡"
// denote the empty label. Literals are single proposition runes, optionally
// prefixed by ¬ or ! for negation and ¿ or ? for unknown. Whitespace between
// literals is ignored.
func ParseLabel(s string) (Label, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "⊡" {
		return Label{}, nil
	}

	var lits []Literal
	pol := Straight
	pending := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '\t':
			if pending {
				return Label{}, fmt.Errorf("ParseLabel: dangling %s prefix in %q", pol, s)
			}
		case r == '¬' || r == '!':
			if pending {
				return Label{}, fmt.Errorf("ParseLabel: stacked prefixes in %q", s)
			}
			pol = Negated
			pending = true
		case r == '¿' || r == '?':
			if pending {
				return Label{}, fmt.Errorf("ParseLabel: stacked prefixes in %q", s)
			}
			pol = Unknown
			pending = true
		default:
			if _, ok := propIndex(r); !ok {
				return Label{}, fmt.Errorf("ParseLabel: %q is not a proposition", r)
			}
			lits = append(lits, Literal{Prop: r, Pol: pol})
			pol = Straight
			pending = false
		}
	}
	if pending {
		return Label{}, fmt.Errorf("ParseLabel: dangling prefix at end of %q", s)
	}
	lab, err := NewLabel(lits...)
	if err != nil {
		return Label{}, fmt.Errorf("ParseLabel: %w", err)
	}
	return lab, nil
}

// MustParseLabel is ParseLabel that panics on error. Intended for literals
// in tests and examples.
func MustParseLabel(s string) Label {
	lab, err := ParseLabel(s)
	if err != nil {
		panic(err)
	}
	return lab
}

// IsEmpty reports whether the label has no literals.
func (l Label) IsEmpty() bool {
	return l.b0 == 0 && l.b1 == 0
}

// Size returns the number of literals in the label.
func (l Label) Size() int {
	return bits.OnesCount64(l.b0 | l.b1)
}

// Has reports whether the proposition occurs in the label with any polarity.
func (l Label) Has(prop rune) bool {
	i, ok := propIndex(prop)
	if !ok {
		return false
	}
	bit := uint64(1) << i
	return (l.b0|l.b1)&bit != 0
}

// State returns the polarity of the proposition and whether it is present.
func (l Label) State(prop rune) (Polarity, bool) {
	i, ok := propIndex(prop)
	if !ok {
		return Straight, false
	}
	bit := uint64(1) << i
	in0 := l.b0&bit != 0
	in1 := l.b1&bit != 0
	switch {
	case in0 && in1:
		return Unknown, true
	case in0:
		return Straight, true
	case in1:
		return Negated, true
	default:
		return Straight, false
	}
}

// Conjunction returns the strict conjunction of two labels. It is defined
// only when the result contains no unknown literal: the second return value
// is false when the labels assert opposite polarities for some proposition
// or when either operand already carries an unknown literal.
func (l Label) Conjunction(o Label) (Label, bool) {
	u0 := l.b0 | o.b0
	u1 := l.b1 | o.b1
	if u0&u1 != 0 {
		return Label{}, false
	}
	return Label{b0: u0, b1: u1}, true
}

// ConjunctionExtended returns the unknown-tolerant conjunction: opposite
// polarities for a proposition combine into the unknown literal instead of
// failing. It is total.
func (l Label) ConjunctionExtended(o Label) Label {
	return Label{b0: l.b0 | o.b0, b1: l.b1 | o.b1}
}

// Subsumes reports whether this label contains every literal of o, counting
// the unknown literal of a proposition as containing both its polarities.
// Every label subsumes the empty label.
func (l Label) Subsumes(o Label) bool {
	return l.b0&o.b0 == o.b0 && l.b1&o.b1 == o.b1
}

// ConsistentWith reports whether the strict conjunction with o is defined.
func (l Label) ConsistentWith(o Label) bool {
	_, ok := l.Conjunction(o)
	return ok
}

// Remove returns the label without the given proposition, whatever its
// polarity. Removing an absent proposition returns the label unchanged.
func (l Label) Remove(prop rune) Label {
	i, ok := propIndex(prop)
	if !ok {
		return l
	}
	bit := uint64(1) << i
	return Label{b0: l.b0 &^ bit, b1: l.b1 &^ bit}
}

// RemoveAll returns the label without any proposition that occurs in o,
// regardless of polarity on either side.
func (l Label) RemoveAll(o Label) Label {
	mask := o.b0 | o.b1
	return Label{b0: l.b0 &^ mask, b1: l.b1 &^ mask}
}

// HasUnknown reports whether any literal in the label is unknown.
func (l Label) HasUnknown() bool {
	return l.b0&l.b1 != 0
}

// WithoutUnknowns returns the label with every unknown literal stripped.
func (l Label) WithoutUnknowns() Label {
	mask := l.b0 & l.b1
	return Label{b0: l.b0 &^ mask, b1: l.b1 &^ mask}
}

// Literals returns the literals of the label in alphabet order.
func (l Label) Literals() []Literal {
	if l.IsEmpty() {
		return nil
	}
	lits := make([]Literal, 0, l.Size())
	mask := l.b0 | l.b1
	for mask != 0 {
		i := bits.TrailingZeros64(mask)
		mask &^= uint64(1) << i
		pol, _ := l.State(propAt(i))
		lits = append(lits, Literal{Prop: propAt(i), Pol: pol})
	}
	return lits
}

// String renders the label as the concatenation of its literals in alphabet
// order, or ⊡ when empty.
func (l Label) String() string {
	if l.IsEmpty() {
		return "⊡"
	}
	var b strings.Builder
	for _, lit := range l.Literals() {
		b.WriteString(lit.String())
	}
	return b.String()
}
