// Package cstn: labeled value maps.
// This file defines LabeledValueMap, the minimal mapping from labels to
// integer bounds that backs every edge. The map maintains two invariants:
// the stored pairs always form a minimal antichain under dominance, and a
// "considered" side-table remembers the most negative value ever accepted
// per label so that repeated rule application is monotone and terminating.
package cstn

import (
	"sort"
	"strings"
)

// LabeledValue is one (label, weight) pair of a LabeledValueMap.
type LabeledValue struct {
	Label Label
	Value int
}

// String renders the pair as (label, value).
func (lv LabeledValue) String() string {
	return "(" + lv.Label.String() + ", " + WeightString(lv.Value) + ")"
}

// LabeledValueMap maps labels to integer bounds with dominance pruning.
//
// A stored pair (L2, v2) dominates a candidate (L1, v1) when L1 subsumes L2
// and v1 >= v2: the candidate constrains no scenario the stored pair does
// not already constrain at least as tightly. Merge rejects dominated
// candidates and evicts stored pairs the accepted candidate dominates, so
// the map is always a minimal antichain.
//
// The considered table records, per exact label, the most negative value a
// merge ever accepted. Later candidates for that label that are not strictly
// more negative are rejected even if the stored pair has since been evicted
// by dominance. Only Remove clears a label's considered entry.
//
// Not safe for concurrent use.
type LabeledValueMap struct {
	values     map[Label]int
	considered map[Label]int
}

// NewLabeledValueMap returns an empty map.
func NewLabeledValueMap() *LabeledValueMap {
	return &LabeledValueMap{
		values:     make(map[Label]int),
		considered: make(map[Label]int),
	}
}

// Count returns the number of stored pairs.
func (m *LabeledValueMap) Count() int {
	return len(m.values)
}

// IsEmpty reports whether the map stores no pairs.
func (m *LabeledValueMap) IsEmpty() bool {
	return len(m.values) == 0
}

// Get returns the value stored for the exact label.
func (m *LabeledValueMap) Get(l Label) (int, bool) {
	v, ok := m.values[l]
	return v, ok
}

// Merge offers a (label, value) pair to the map and reports whether it was
// stored. The pair is rejected without mutation when:
//   - the value is NoValue or PosInfinity (they constrain nothing),
//   - the considered table already holds a value <= the candidate for this
//     exact label, or
//   - a stored pair dominates the candidate.
//
// On acceptance, every stored pair the candidate dominates is evicted, the
// pair is inserted, and the considered table records the value.
func (m *LabeledValueMap) Merge(l Label, v int) bool {
	if v == NoValue || v == PosInfinity {
		return false
	}
	if c, ok := m.considered[l]; ok && c <= v {
		return false
	}
	for l2, v2 := range m.values {
		if l.Subsumes(l2) && v >= v2 {
			return false
		}
	}
	for l1, v1 := range m.values {
		if l1.Subsumes(l) && v1 >= v {
			delete(m.values, l1)
		}
	}
	m.values[l] = v
	m.considered[l] = v
	return true
}

// Remove deletes the pair stored for the exact label, returning the removed
// value. It also clears the label's considered entry, so a future Merge of
// the same pair can be accepted again.
func (m *LabeledValueMap) Remove(l Label) (int, bool) {
	v, ok := m.values[l]
	if ok {
		delete(m.values, l)
	}
	delete(m.considered, l)
	if !ok {
		return NoValue, false
	}
	return v, true
}

// MinValue returns the smallest stored value, or NoValue when empty.
func (m *LabeledValueMap) MinValue() int {
	min := NoValue
	for _, v := range m.values {
		if min == NoValue || v < min {
			min = v
		}
	}
	return min
}

// MinValueConsistentWith returns the smallest value among pairs whose label
// has a defined strict conjunction with l, or NoValue when there is none.
func (m *LabeledValueMap) MinValueConsistentWith(l Label) int {
	min := NoValue
	for l2, v := range m.values {
		if !l.ConsistentWith(l2) {
			continue
		}
		if min == NoValue || v < min {
			min = v
		}
	}
	return min
}

// MinValueSubsumedBy returns the smallest value among pairs whose label is
// subsumed by l, i.e. the pairs that apply in every scenario where l holds.
// Returns NoValue when there is none.
func (m *LabeledValueMap) MinValueSubsumedBy(l Label) int {
	min := NoValue
	for l2, v := range m.values {
		if !l.Subsumes(l2) {
			continue
		}
		if min == NoValue || v < min {
			min = v
		}
	}
	return min
}

// Entries returns a snapshot of the stored pairs in unspecified order.
// Mutating the map does not affect a previously taken snapshot.
func (m *LabeledValueMap) Entries() []LabeledValue {
	out := make([]LabeledValue, 0, len(m.values))
	for l, v := range m.values {
		out = append(out, LabeledValue{Label: l, Value: v})
	}
	return out
}

// labelLess orders labels for rendering: the empty label first, then by
// textual form.
func labelLess(a, b Label) bool {
	if a.IsEmpty() != b.IsEmpty() {
		return a.IsEmpty()
	}
	return a.String() < b.String()
}

// String renders the stored pairs in label order, e.g. {(⊡, -5) (p, -9)}.
func (m *LabeledValueMap) String() string {
	entries := m.Entries()
	sort.Slice(entries, func(i, j int) bool {
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
