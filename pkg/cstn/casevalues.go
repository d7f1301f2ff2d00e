// Package cstn: case-augmented value maps.
// This file defines CaseValueMap, the store for upper-case (pessimistic)
// and general lower-case (optimistic) bounds: one LabeledValueMap per
// A-Label key, each key scope following the same dominance and considered
// discipline as ordinary labeled values.
package cstn

import (
	"sort"
	"strings"
)

// CaseValue is one (A-Label, label, weight) triple of a CaseValueMap, also
// used for the single lower-case value of a simple uncertain edge.
type CaseValue struct {
	Case  ALabel
	Label Label
	Value int
}

// String renders the triple as (case: label, value) with the A-Label in bit
// position form.
func (cv CaseValue) String() string {
	return "(" + cv.Case.String() + ": " + cv.Label.String() + ", " + WeightString(cv.Value) + ")"
}

// Format renders the triple with the A-Label's interned names.
func (cv CaseValue) Format(a *Alphabet) string {
	return "(" + cv.Case.Format(a) + ": " + cv.Label.String() + ", " + WeightString(cv.Value) + ")"
}

// CaseValueMap stores labeled values scoped by A-Label key. Each key owns an
// independent LabeledValueMap, so dominance pruning and the considered
// anti-oscillation guard apply within one A-Label scope and never across
// scopes. The empty A-Label is not a valid key: a bound conditioned on no
// contingent completion is an ordinary labeled value.
//
// Not safe for concurrent use.
type CaseValueMap struct {
	cases map[ALabel]*LabeledValueMap
}

// NewCaseValueMap returns an empty map.
func NewCaseValueMap() *CaseValueMap {
	return &CaseValueMap{cases: make(map[ALabel]*LabeledValueMap)}
}

// Merge offers a triple to the scope of its A-Label key, following the
// LabeledValueMap merge discipline. Offering the empty A-Label is rejected.
func (m *CaseValueMap) Merge(c ALabel, l Label, v int) bool {
	if c.IsEmpty() {
		return false
	}
	scope, ok := m.cases[c]
	if !ok {
		scope = NewLabeledValueMap()
		m.cases[c] = scope
	}
	return scope.Merge(l, v)
}

// Get returns the value stored for the exact (A-Label, label) pair.
func (m *CaseValueMap) Get(c ALabel, l Label) (int, bool) {
	scope, ok := m.cases[c]
	if !ok {
		return NoValue, false
	}
	return scope.Get(l)
}

// Remove deletes the pair stored for the exact (A-Label, label) key,
// clearing its considered entry, and returns the removed value.
func (m *CaseValueMap) Remove(c ALabel, l Label) (int, bool) {
	scope, ok := m.cases[c]
	if !ok {
		return NoValue, false
	}
	v, removed := scope.Remove(l)
	if scope.IsEmpty() {
		delete(m.cases, c)
	}
	return v, removed
}

// Count returns the total number of stored triples across all scopes.
func (m *CaseValueMap) Count() int {
	n := 0
	for _, scope := range m.cases {
		n += scope.Count()
	}
	return n
}

// IsEmpty reports whether no scope stores a value.
func (m *CaseValueMap) IsEmpty() bool {
	return m.Count() == 0
}

// MinValue returns the smallest value stored in any scope, or NoValue.
func (m *CaseValueMap) MinValue() int {
	min := NoValue
	for _, scope := range m.cases {
		v := scope.MinValue()
		if v == NoValue {
			continue
		}
		if min == NoValue || v < min {
			min = v
		}
	}
	return min
}

// Entries returns a snapshot of all stored triples in unspecified order.
func (m *CaseValueMap) Entries() []CaseValue {
	out := make([]CaseValue, 0, m.Count())
	for c, scope := range m.cases {
		for _, e := range scope.Entries() {
			out = append(out, CaseValue{Case: c, Label: e.Label, Value: e.Value})
		}
	}
	return out
}

// String renders all triples ordered by A-Label then label.
func (m *CaseValueMap) String() string {
	entries := m.Entries()
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Case != entries[j].Case {
			return entries[i].Case < entries[j].Case
		}
		return labelLess(entries[i].Label, entries[j].Label)
	})
	var b strings.Builder
	b.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(e.String())
	}
	b.WriteByte('}')
	return b.String()
}
