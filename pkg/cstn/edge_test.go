package cstn

import "testing"

// Each constructor fixes the kind, and the capability predicates follow it.
func TestEdge_Kinds(t *testing.T) {
	ord := NewEdge("e1", Requirement)
	if ord.Kind() != OrdinaryEdge || ord.HasUpperCase() || ord.HasLowerCase() {
		t.Fatalf("ordinary edge reports case capabilities")
	}
	if ord.UpperCase() != nil {
		t.Fatalf("ordinary edge should have no upper-case map")
	}
	simple := NewSimpleUncertainEdge("e2", Contingent)
	if simple.Kind() != SimpleUncertainEdge || !simple.HasUpperCase() {
		t.Fatalf("simple uncertain edge should carry upper-case values")
	}
	general := NewGeneralUncertainEdge("e3", Contingent)
	if general.Kind() != GeneralUncertainEdge || !general.HasUpperCase() {
		t.Fatalf("general uncertain edge should carry upper-case values")
	}
}

// Case mutators panic on kinds that lack the store they target.
func TestEdge_CasePanics(t *testing.T) {
	c := EmptyALabel.With(0)
	expectPanic(t, "MergeUpperCase on ordinary", func() {
		NewEdge("e1", Requirement).MergeUpperCase(c, EmptyLabel, -1)
	})
	expectPanic(t, "SetLowerCase on general", func() {
		NewGeneralUncertainEdge("e2", Contingent).SetLowerCase(c, EmptyLabel, 1)
	})
	expectPanic(t, "ClearLowerCase on ordinary", func() {
		NewEdge("e3", Requirement).ClearLowerCase()
	})
	expectPanic(t, "MergeLowerCase on simple", func() {
		NewSimpleUncertainEdge("e4", Contingent).MergeLowerCase(c, EmptyLabel, 1)
	})
}

// A simple uncertain edge holds at most one lower-case triple.
func TestEdge_SimpleLowerCase(t *testing.T) {
	e := NewSimpleUncertainEdge("e1", Contingent)
	c := EmptyALabel.With(0)
	if _, ok := e.LowerCase(); ok {
		t.Fatalf("fresh edge should have no lower-case triple")
	}
	e.SetLowerCase(c, EmptyLabel, 2)
	cv, ok := e.LowerCase()
	if !ok || cv.Case != c || cv.Value != 2 {
		t.Fatalf("LowerCase = (%v, %t), want ({0}: ⊡, 2)", cv, ok)
	}
	if got := len(e.LowerCaseEntries()); got != 1 {
		t.Fatalf("len(LowerCaseEntries) = %d, want 1", got)
	}
	e.ClearLowerCase()
	if e.HasLowerCase() {
		t.Fatalf("ClearLowerCase should remove the triple")
	}
}

// A non-negative ordinary merge prunes lower-case values it makes redundant.
func TestEdge_LowerCasePruning(t *testing.T) {
	c := EmptyALabel.With(0)

	e := NewSimpleUncertainEdge("e1", Contingent)
	e.SetLowerCase(c, EmptyLabel, 2)
	if !e.Merge(EmptyLabel, 1) {
		t.Fatalf("ordinary merge should be stored")
	}
	if e.HasLowerCase() {
		t.Fatalf("(⊡, 1) should prune the lower-case value 2")
	}

	kept := NewSimpleUncertainEdge("e2", Contingent)
	kept.SetLowerCase(c, EmptyLabel, 2)
	kept.Merge(EmptyLabel, 3)
	if !kept.HasLowerCase() {
		t.Fatalf("an ordinary bound of 3 does not make lower-case 2 redundant")
	}

	neg := NewSimpleUncertainEdge("e3", Contingent)
	neg.SetLowerCase(c, EmptyLabel, 2)
	neg.Merge(EmptyLabel, -1)
	if !neg.HasLowerCase() {
		t.Fatalf("negative ordinary values never prune lower-case values")
	}

	gen := NewGeneralUncertainEdge("e4", Contingent)
	gen.MergeLowerCase(c, MustParseLabel("p"), 4)
	gen.MergeLowerCase(EmptyALabel.With(1), EmptyLabel, 9)
	gen.Merge(MustParseLabel("p"), 4)
	if len(gen.LowerCaseEntries()) != 1 {
		t.Fatalf("only the subsumed lower-case triple should be pruned")
	}
	if _, ok := gen.UpperCase().Get(c, MustParseLabel("p")); ok {
		t.Fatalf("pruning must not touch the upper-case map")
	}
}

// IsEmpty accounts for ordinary, upper-case, and lower-case stores.
func TestEdge_IsEmpty(t *testing.T) {
	e := NewSimpleUncertainEdge("e1", Contingent)
	if !e.IsEmpty() {
		t.Fatalf("fresh edge should be empty")
	}
	e.MergeUpperCase(EmptyALabel.With(0), EmptyLabel, -3)
	if e.IsEmpty() {
		t.Fatalf("an upper-case value makes the edge non-empty")
	}
	ord := NewEdge("e2", Requirement)
	ord.Merge(EmptyLabel, 5)
	if ord.IsEmpty() {
		t.Fatalf("an ordinary value makes the edge non-empty")
	}
}

// ensureUpperCase promotes an ordinary edge in place without inventing a
// lower-case triple.
func TestEdge_EnsureUpperCasePromotion(t *testing.T) {
	e := NewEdge("e1", Derived)
	uc := e.ensureUpperCase()
	if uc == nil || e.Kind() != SimpleUncertainEdge {
		t.Fatalf("promotion should yield a simple uncertain edge")
	}
	if e.HasLowerCase() {
		t.Fatalf("promotion must not create a lower-case triple")
	}
	if e.ensureUpperCase() != uc {
		t.Fatalf("second call should return the same map")
	}
	uc.Merge(EmptyALabel.With(0), EmptyLabel, -2)
	if v, ok := e.UpperCase().Get(EmptyALabel.With(0), EmptyLabel); !ok || v != -2 {
		t.Fatalf("UpperCase().Get = (%d, %t), want (-2, true)", v, ok)
	}
}

// String shows case sections only when they hold values.
func TestEdge_String(t *testing.T) {
	e := NewEdge("AB", Requirement)
	e.Merge(EmptyLabel, 4)
	if got := e.String(); got != "❮AB; requirement; {(⊡, 4)}❯" {
		t.Fatalf("String = %q", got)
	}
	u := NewSimpleUncertainEdge("CA", Contingent)
	u.Merge(EmptyLabel, -1)
	u.MergeUpperCase(EmptyALabel.With(0), EmptyLabel, -3)
	want := "❮CA; contingent; {(⊡, -1)}; UC: {({0}: ⊡, -3)}❯"
	if got := u.String(); got != want {
		t.Fatalf("String = %q, want %q", got, want)
	}
}
