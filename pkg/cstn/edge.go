// Package cstn: constraint edges.
// This file defines Edge, the named distance constraint between two
// time-points. Edge kinds form a tagged union: an ordinary edge carries one
// labeled value map; uncertain edges add upper-case bounds and either a
// single lower-case triple (simple) or a full per-A-Label lower-case map
// (general). Capability predicates replace type checks.
package cstn

import "strings"

// ConstraintType classifies how an edge entered the graph.
type ConstraintType int

const (
	// Requirement marks a constraint supplied by the network designer.
	Requirement ConstraintType = iota

	// Contingent marks one direction of a contingent link.
	Contingent

	// Derived marks an edge created by rule application.
	Derived

	// Internal marks bookkeeping edges added while preparing a check.
	Internal
)

// String returns a human-readable representation of the constraint type.
func (t ConstraintType) String() string {
	switch t {
	case Requirement:
		return "requirement"
	case Contingent:
		return "contingent"
	case Derived:
		return "derived"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// EdgeKind selects which value stores an edge carries.
type EdgeKind int

const (
	// OrdinaryEdge carries only a labeled value map.
	OrdinaryEdge EdgeKind = iota

	// SimpleUncertainEdge adds per-A-Label upper-case values and a single
	// lower-case triple.
	SimpleUncertainEdge

	// GeneralUncertainEdge adds per-A-Label upper-case and lower-case maps.
	GeneralUncertainEdge
)

// String returns a human-readable representation of the edge kind.
func (k EdgeKind) String() string {
	switch k {
	case OrdinaryEdge:
		return "ordinary"
	case SimpleUncertainEdge:
		return "simple-uncertain"
	case GeneralUncertainEdge:
		return "general-uncertain"
	default:
		return "unknown"
	}
}

// Edge is a named distance constraint. An edge from A to B with a labeled
// value (L, v) bounds B - A <= v in every scenario where L holds.
//
// Edges are created detached and attached with Graph.AddEdge; renaming goes
// through Graph.RenameEdge. The value stores mutate in place for the
// duration of a check.
type Edge struct {
	name  string
	kind  EdgeKind
	ctype ConstraintType

	values *LabeledValueMap

	// upper is nil exactly when kind == OrdinaryEdge.
	upper *CaseValueMap

	// lower holds the single lower-case triple of a simple uncertain edge;
	// Value == NoValue marks it unset.
	lower CaseValue

	// lowerMap is non-nil exactly when kind == GeneralUncertainEdge.
	lowerMap *CaseValueMap
}

// NewEdge creates a detached ordinary edge.
func NewEdge(name string, t ConstraintType) *Edge {
	return &Edge{
		name:   name,
		kind:   OrdinaryEdge,
		ctype:  t,
		values: NewLabeledValueMap(),
		lower:  CaseValue{Value: NoValue},
	}
}

// NewSimpleUncertainEdge creates a detached edge carrying upper-case values
// and a single lower-case triple.
func NewSimpleUncertainEdge(name string, t ConstraintType) *Edge {
	e := NewEdge(name, t)
	e.kind = SimpleUncertainEdge
	e.upper = NewCaseValueMap()
	return e
}

// NewGeneralUncertainEdge creates a detached edge carrying upper-case and
// lower-case maps.
func NewGeneralUncertainEdge(name string, t ConstraintType) *Edge {
	e := NewEdge(name, t)
	e.kind = GeneralUncertainEdge
	e.upper = NewCaseValueMap()
	e.lowerMap = NewCaseValueMap()
	return e
}

// Name returns the edge's name.
func (e *Edge) Name() string {
	return e.name
}

// Kind returns the edge's kind tag.
func (e *Edge) Kind() EdgeKind {
	return e.kind
}

// Type returns the edge's constraint type.
func (e *Edge) Type() ConstraintType {
	return e.ctype
}

// SetType sets the edge's constraint type.
func (e *Edge) SetType(t ConstraintType) {
	e.ctype = t
}

// Values returns the edge's live ordinary value map. Mutate it only through
// Merge so the lower-case redundancy pruning stays applied.
func (e *Edge) Values() *LabeledValueMap {
	return e.values
}

// Merge offers an ordinary (label, value) pair to the edge and reports
// whether it was stored. An accepted non-negative value additionally prunes
// any lower-case value it makes redundant: a lower-case triple whose label
// subsumes the merged label and whose value is >= the merged value can never
// win against the new ordinary bound.
func (e *Edge) Merge(l Label, v int) bool {
	if !e.values.Merge(l, v) {
		return false
	}
	if v >= 0 {
		e.pruneLowerCase(l, v)
	}
	return true
}

// pruneLowerCase drops lower-case values made redundant by an accepted
// ordinary pair (l, v) with v >= 0.
func (e *Edge) pruneLowerCase(l Label, v int) {
	switch e.kind {
	case SimpleUncertainEdge:
		if e.lower.Value != NoValue && e.lower.Label.Subsumes(l) && v <= e.lower.Value {
			e.lower = CaseValue{Value: NoValue}
		}
	case GeneralUncertainEdge:
		for _, cv := range e.lowerMap.Entries() {
			if cv.Label.Subsumes(l) && v <= cv.Value {
				e.lowerMap.Remove(cv.Case, cv.Label)
			}
		}
	}
}

// Value returns the ordinary value stored for the exact label.
func (e *Edge) Value(l Label) (int, bool) {
	return e.values.Get(l)
}

// MinValue returns the smallest ordinary value, or NoValue when none.
func (e *Edge) MinValue() int {
	return e.values.MinValue()
}

// HasUpperCase reports whether the edge kind carries upper-case values.
func (e *Edge) HasUpperCase() bool {
	return e.kind != OrdinaryEdge
}

// UpperCase returns the live upper-case map, nil for ordinary edges.
func (e *Edge) UpperCase() *CaseValueMap {
	return e.upper
}

// MergeUpperCase offers an upper-case triple to the edge. It panics when the
// edge kind carries no upper-case store; callers gate on HasUpperCase.
func (e *Edge) MergeUpperCase(c ALabel, l Label, v int) bool {
	if e.upper == nil {
		panic("cstn: MergeUpperCase on ordinary edge " + e.name)
	}
	return e.upper.Merge(c, l, v)
}

// ensureUpperCase returns the edge's upper-case store, promoting an ordinary
// edge to the simple uncertain kind first. The propagation rules use it when
// an upper-case derivation lands on an edge created without a case store.
func (e *Edge) ensureUpperCase() *CaseValueMap {
	if e.upper == nil {
		e.upper = NewCaseValueMap()
		e.kind = SimpleUncertainEdge
	}
	return e.upper
}

// HasLowerCase reports whether the edge currently holds any lower-case value.
func (e *Edge) HasLowerCase() bool {
	switch e.kind {
	case SimpleUncertainEdge:
		return e.lower.Value != NoValue
	case GeneralUncertainEdge:
		return !e.lowerMap.IsEmpty()
	default:
		return false
	}
}

// SetLowerCase sets the single lower-case triple of a simple uncertain edge,
// replacing any previous one. It panics on other kinds.
func (e *Edge) SetLowerCase(c ALabel, l Label, v int) {
	if e.kind != SimpleUncertainEdge {
		panic("cstn: SetLowerCase on " + e.kind.String() + " edge " + e.name)
	}
	e.lower = CaseValue{Case: c, Label: l, Value: v}
}

// ClearLowerCase removes the single lower-case triple of a simple uncertain
// edge. It panics on other kinds.
func (e *Edge) ClearLowerCase() {
	if e.kind != SimpleUncertainEdge {
		panic("cstn: ClearLowerCase on " + e.kind.String() + " edge " + e.name)
	}
	e.lower = CaseValue{Value: NoValue}
}

// MergeLowerCase offers a lower-case triple to the per-A-Label lower-case
// map of a general uncertain edge. It panics on other kinds.
func (e *Edge) MergeLowerCase(c ALabel, l Label, v int) bool {
	if e.kind != GeneralUncertainEdge {
		panic("cstn: MergeLowerCase on " + e.kind.String() + " edge " + e.name)
	}
	return e.lowerMap.Merge(c, l, v)
}

// LowerCase returns the single lower-case triple of a simple uncertain edge
// and whether it is set.
func (e *Edge) LowerCase() (CaseValue, bool) {
	if e.kind != SimpleUncertainEdge || e.lower.Value == NoValue {
		return CaseValue{Value: NoValue}, false
	}
	return e.lower, true
}

// LowerCaseEntries returns a snapshot of every lower-case triple the edge
// holds, whatever its kind. Ordinary edges return nil.
func (e *Edge) LowerCaseEntries() []CaseValue {
	switch e.kind {
	case SimpleUncertainEdge:
		if e.lower.Value == NoValue {
			return nil
		}
		return []CaseValue{e.lower}
	case GeneralUncertainEdge:
		return e.lowerMap.Entries()
	default:
		return nil
	}
}

// IsEmpty reports whether the edge carries no ordinary, upper-case, or
// lower-case value.
func (e *Edge) IsEmpty() bool {
	if !e.values.IsEmpty() {
		return false
	}
	if e.upper != nil && !e.upper.IsEmpty() {
		return false
	}
	return !e.HasLowerCase()
}

// String renders the edge as ❮name; type; values; UC: ...; LC: ...❯ with
// the case sections present only when non-empty.
func (e *Edge) String() string {
	var b strings.Builder
	b.WriteString("❮")
	b.WriteString(e.name)
	b.WriteString("; ")
	b.WriteString(e.ctype.String())
	b.WriteString("; ")
	b.WriteString(e.values.String())
	if e.upper != nil && !e.upper.IsEmpty() {
		b.WriteString("; UC: ")
		b.WriteString(e.upper.String())
	}
	if lcs := e.LowerCaseEntries(); len(lcs) > 0 {
		b.WriteString("; LC: {")
		for i, cv := range lcs {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(cv.String())
		}
		b.WriteByte('}')
	}
	b.WriteString("❯")
	return b.String()
}
