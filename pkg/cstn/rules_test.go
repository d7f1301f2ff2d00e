package cstn

import "testing"

// A negative sum keeps conflicting literals as unknowns; a non-negative sum
// needs a consistent scenario.
func TestChainLabel(t *testing.T) {
	lab, ok := chainLabel(MustParseLabel("p"), MustParseLabel("¬p"), -1)
	if !ok || lab != MustParseLabel("¿p") {
		t.Fatalf("chainLabel(p, ¬p, -1) = (%s, %t), want (¿p, true)", lab, ok)
	}
	if _, ok := chainLabel(MustParseLabel("p"), MustParseLabel("¬p"), 0); ok {
		t.Fatalf("chainLabel(p, ¬p, 0) should fail on the conflict")
	}
	lab, ok = chainLabel(MustParseLabel("p"), MustParseLabel("q"), 3)
	if !ok || lab != MustParseLabel("pq") {
		t.Fatalf("chainLabel(p, q, 3) = (%s, %t), want (pq, true)", lab, ok)
	}
}

// initChecker builds, initializes, and returns a checker over the graph.
func initChecker(t *testing.T, g *Graph, p Policy) *Checker {
	t.Helper()
	c, err := NewChecker(g, p)
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}
	if err := c.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return c
}

// R0 frees a tight enough observation bound of its own proposition.
func TestChecker_RuleR0(t *testing.T) {
	g := newNetwork(t)
	if err := g.AddNode(NewObserver("P?", 'p')); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	pz := NewEdge("PZ", Requirement)
	pz.Merge(MustParseLabel("p"), -5)
	if err := g.AddEdge(pz, "P?", "Z"); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	addEdge(t, g, "ZP", "Z", "P?", 20)
	c := initChecker(t, g, IRPolicy{})

	if !c.applyR0(EdgePair{Edge: pz, Src: g.Node("P?"), Dst: g.Node("Z")}) {
		t.Fatalf("applyR0 found an unexpected witness")
	}
	if pz.Values().Count() != 1 {
		t.Fatalf("P? -> Z = %s, want only the freed bound", pz.Values())
	}
	if v, ok := pz.Value(EmptyLabel); !ok || v != -5 {
		t.Fatalf("P? -> Z value = (%d, %t), want (-5, true)", v, ok)
	}
	if c.status.R0Calls != 1 {
		t.Fatalf("R0Calls = %d, want 1", c.status.R0Calls)
	}
}

// R3 merges a conditional bound with the observation bound that resolves
// its proposition.
func TestChecker_RuleR3(t *testing.T) {
	g := newNetwork(t)
	if err := g.AddNode(NewObserver("P?", 'p')); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := g.AddNode(NewNode("X")); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	addEdge(t, g, "PZ", "P?", "Z", -5)
	addEdge(t, g, "ZP", "Z", "P?", 20)
	xz := NewEdge("XZ", Requirement)
	xz.Merge(MustParseLabel("p"), -9)
	if err := g.AddEdge(xz, "X", "Z"); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	c := initChecker(t, g, IRPolicy{})

	if !c.applyR3(EdgePair{Edge: xz, Src: g.Node("X"), Dst: g.Node("Z")}) {
		t.Fatalf("applyR3 found an unexpected witness")
	}
	if v, ok := xz.Value(EmptyLabel); !ok || v != -5 {
		t.Fatalf("X -> Z unconditional value = (%d, %t), want (-5, true)", v, ok)
	}
	if v, ok := xz.Value(MustParseLabel("p")); !ok || v != -9 {
		t.Fatalf("X -> Z conditional value = (%d, %t), want (-9, true)", v, ok)
	}
	if c.status.R3Calls != 1 {
		t.Fatalf("R3Calls = %d, want 1", c.status.R3Calls)
	}
}

// An upper-case value of at least -x on an edge into the activation node
// loses its case label; smaller values stay conditional.
func TestChecker_RuleCaseRemoval(t *testing.T) {
	g := newNetwork(t, "A", "B", "B2")
	addContingent(t, g, "C", 10)
	addContingentPair(t, g, "A", "C", 2, 5)
	ba := NewSimpleUncertainEdge("BA", Requirement)
	if err := g.AddEdge(ba, "B", "A"); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	b2a := NewSimpleUncertainEdge("B2A", Requirement)
	if err := g.AddEdge(b2a, "B2", "A"); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	c := initChecker(t, g, STNUPolicy{})
	aC, err := g.Alphabet().ALabelOf("C")
	if err != nil {
		t.Fatalf("ALabelOf: %v", err)
	}
	ba.MergeUpperCase(aC, EmptyLabel, -1)
	b2a.MergeUpperCase(aC, EmptyLabel, -3)

	if !c.applyCaseRemoval(EdgePair{Edge: ba, Src: g.Node("B"), Dst: g.Node("A")}) {
		t.Fatalf("applyCaseRemoval found an unexpected witness")
	}
	if v, ok := ba.Value(EmptyLabel); !ok || v != -1 {
		t.Fatalf("B -> A ordinary value = (%d, %t), want (-1, true)", v, ok)
	}
	if c.status.CaseRemovalCalls != 1 {
		t.Fatalf("CaseRemovalCalls = %d, want 1", c.status.CaseRemovalCalls)
	}

	// -3 < -x: the contingent duration can still violate this bound.
	if !c.applyCaseRemoval(EdgePair{Edge: b2a, Src: g.Node("B2"), Dst: g.Node("A")}) {
		t.Fatalf("applyCaseRemoval found an unexpected witness")
	}
	if !b2a.Values().IsEmpty() {
		t.Fatalf("B2 -> A = %s, want no ordinary value", b2a.Values())
	}
	if c.status.CaseRemovalCalls != 1 {
		t.Fatalf("CaseRemovalCalls = %d, want still 1", c.status.CaseRemovalCalls)
	}
}

// A lower-case value starts a chain that ends in a negative bound: the
// contingent duration may be as short as x, so the strategy must cover it.
func TestChecker_RuleLowerCaseChain(t *testing.T) {
	g := newNetwork(t, "A", "X")
	addContingent(t, g, "C", 10)
	addContingentPair(t, g, "A", "C", 2, 5)
	cx := addEdge(t, g, "CX", "C", "X", -3)
	c := initChecker(t, g, STNUPolicy{})

	if !c.chainInward(EdgePair{Edge: cx, Src: g.Node("C"), Dst: g.Node("X")}) {
		t.Fatalf("chainInward found an unexpected witness")
	}
	ax := g.FindEdge("A", "X")
	if ax == nil {
		t.Fatalf("no derived edge A -> X")
	}
	if v, ok := ax.Value(EmptyLabel); !ok || v != -1 {
		t.Fatalf("A -> X value = (%d, %t), want (-1, true)", v, ok)
	}
	if c.status.LowerCaseCalls != 1 {
		t.Fatalf("LowerCaseCalls = %d, want 1", c.status.LowerCaseCalls)
	}
}

// A lower-case value chains with an upper-case value of a different
// contingent link, carrying the upper case along.
func TestChecker_RuleCrossCase(t *testing.T) {
	g := newNetwork(t, "A", "B", "X")
	addContingent(t, g, "C", 10)
	addContingent(t, g, "D", 10)
	addContingentPair(t, g, "A", "C", 2, 5)
	addContingentPair(t, g, "B", "D", 1, 3)
	cx := NewSimpleUncertainEdge("CX", Requirement)
	if err := g.AddEdge(cx, "C", "X"); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	c := initChecker(t, g, STNUPolicy{})
	aD, err := g.Alphabet().ALabelOf("D")
	if err != nil {
		t.Fatalf("ALabelOf: %v", err)
	}
	cx.MergeUpperCase(aD, EmptyLabel, -4)

	if !c.chainInward(EdgePair{Edge: cx, Src: g.Node("C"), Dst: g.Node("X")}) {
		t.Fatalf("chainInward found an unexpected witness")
	}
	ax := g.FindEdge("A", "X")
	if ax == nil || !ax.HasUpperCase() {
		t.Fatalf("no derived upper-case edge A -> X")
	}
	if v, ok := ax.UpperCase().Get(aD, EmptyLabel); !ok || v != -2 {
		t.Fatalf("A -> X upper case = (%d, %t), want (-2, true)", v, ok)
	}
	if c.status.CrossCaseCalls != 1 {
		t.Fatalf("CrossCaseCalls = %d, want 1", c.status.CrossCaseCalls)
	}
}

// mergeOrdinary owns the negative-cycle detection: unknown-free negative
// self-loops, negative two-cycles, and unknown-free values below the
// horizon are witnesses; unknown-laden values close their scenario branch
// with -∞ instead.
func TestChecker_MergeOrdinary(t *testing.T) {
	g := newNetwork(t, "A", "B")
	ba := addEdge(t, g, "BA", "B", "A", 2)
	c := initChecker(t, g, STNUPolicy{})
	a, b := g.Node("A"), g.Node("B")
	var calls int

	// Non-negative values under unknown labels carry no information.
	if !c.mergeOrdinary(a, b, MustParseLabel("¿p"), 0, &calls) {
		t.Fatalf("useless value should be dropped without a witness")
	}
	if g.FindEdge("A", "B") != nil {
		t.Fatalf("a dropped value must not leave a phantom edge")
	}

	// A rejected value does not disturb the stored map.
	if !c.mergeOrdinary(b, a, EmptyLabel, 5, &calls) {
		t.Fatalf("dominated value should be rejected without a witness")
	}
	if v, ok := ba.Value(EmptyLabel); !ok || v != 2 || calls != 0 {
		t.Fatalf("B -> A = (%d, %t) after %d calls, want (2, true) after 0", v, ok, calls)
	}

	// Negative self-loop under an unknown-free label: the witness.
	if c.mergeOrdinary(a, a, EmptyLabel, -1, &calls) {
		t.Fatalf("negative self-loop should be reported as a witness")
	}

	// With unknowns the loop records -∞ instead.
	if !c.mergeOrdinary(a, a, MustParseLabel("¿p"), -1, &calls) {
		t.Fatalf("unknown-laden self-loop is not a witness")
	}
	loop := g.FindEdge("A", "A")
	if loop == nil {
		t.Fatalf("no self-loop edge recorded")
	}
	if v, ok := loop.Value(MustParseLabel("¿p")); !ok || v != NegInfinity {
		t.Fatalf("self-loop value = (%s, %t), want (-∞, true)", WeightString(v), ok)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	// A stored value closing a negative two-cycle is a witness.
	if c.mergeOrdinary(a, b, EmptyLabel, -3, &calls) {
		t.Fatalf("negative two-cycle should be reported as a witness")
	}
	if v, ok := g.FindEdge("A", "B").Value(EmptyLabel); !ok || v != -3 {
		t.Fatalf("A -> B = (%d, %t), want (-3, true): the value stays stored", v, ok)
	}

	// Below -horizon (three nodes times the largest weight 2) no schedule
	// can reach: unknown-laden values saturate, unknown-free ones witness.
	if !c.mergeOrdinary(a, b, MustParseLabel("¿q"), -7, &calls) {
		t.Fatalf("unknown-laden value below the horizon is not a witness")
	}
	if v, ok := g.FindEdge("A", "B").Value(MustParseLabel("¿q")); !ok || v != NegInfinity {
		t.Fatalf("A -> B unknown value = (%s, %t), want (-∞, true)", WeightString(v), ok)
	}
	if c.mergeOrdinary(a, b, EmptyLabel, -9, &calls) {
		t.Fatalf("unknown-free value below the horizon should be a witness")
	}
}

// mergeUpper drops self-loop values unless they witness an upper-case
// negative cycle, leaves no phantom edge behind a rejected value, and
// holds derived values to the horizon like mergeOrdinary does.
func TestChecker_MergeUpper(t *testing.T) {
	g := newNetwork(t, "A", "B")
	addEdge(t, g, "BA", "B", "A", 2)
	c := initChecker(t, g, STNUPolicy{})
	a, b := g.Node("A"), g.Node("B")
	ca := EmptyALabel.With(0)
	var calls int

	if c.mergeUpper(a, a, ca, EmptyLabel, -2, &calls) {
		t.Fatalf("negative unknown-free upper-case self-loop is the witness")
	}
	if !c.mergeUpper(a, a, ca, EmptyLabel, 2, &calls) {
		t.Fatalf("non-negative self-loop values are dropped, not witnesses")
	}
	if !c.mergeUpper(a, a, ca, MustParseLabel("¿p"), -2, &calls) {
		t.Fatalf("unknown-laden self-loop values are dropped, not witnesses")
	}
	if g.FindEdge("A", "A") != nil || calls != 0 {
		t.Fatalf("self-loop upper-case values are never stored")
	}

	if !c.mergeUpper(a, b, ca, EmptyLabel, PosInfinity, &calls) {
		t.Fatalf("rejected value should not be a witness")
	}
	if g.FindEdge("A", "B") != nil {
		t.Fatalf("a rejected value must not leave a phantom edge")
	}

	if !c.mergeUpper(a, b, ca, EmptyLabel, -4, &calls) {
		t.Fatalf("stored value should not be a witness")
	}
	ab := g.FindEdge("A", "B")
	if ab == nil || !ab.HasUpperCase() {
		t.Fatalf("derived edge should be promoted to carry upper-case values")
	}
	if v, ok := ab.UpperCase().Get(ca, EmptyLabel); !ok || v != -4 {
		t.Fatalf("A -> B upper case = (%d, %t), want (-4, true)", v, ok)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	// The horizon here is 6: three nodes times the largest weight 2.
	if c.mergeUpper(a, b, ca, EmptyLabel, -7, &calls) {
		t.Fatalf("unknown-free upper case below the horizon should be a witness")
	}
	if !c.mergeUpper(a, b, ca, MustParseLabel("¿p"), -7, &calls) {
		t.Fatalf("unknown-laden upper case below the horizon is not a witness")
	}
	if v, ok := ab.UpperCase().Get(ca, MustParseLabel("¿p")); !ok || v != NegInfinity {
		t.Fatalf("A -> B unknown upper case = (%s, %t), want (-∞, true)", WeightString(v), ok)
	}
}
