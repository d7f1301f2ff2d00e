// Package cstn: the dynamic-controllability checker.
// This file defines Checker, which owns one check of one graph under one
// policy: Init validates well-definedness and discovers contingent links,
// Run drives the worklist fixpoint loop to a consistent, inconsistent, or
// timeout outcome. The propagation rules themselves live in rules.go.
package cstn

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// contingentLink records one discovered contingent link A ==[x,y]==> C: the
// activation node A, the contingent node C, the bounds 0 < x < y, the two
// bounding edges, and the interned A-Label position of C's name.
type contingentLink struct {
	activation *Node
	contingent *Node
	lower      int
	upper      int
	out        *Edge // activation -> contingent, holds the lower-case value
	back       *Edge // contingent -> activation, holds the upper-case value
	aIndex     int
	aLabel     ALabel
	label      Label
}

// Checker drives one dynamic-controllability check. It owns the graph for
// the duration of the check: Run mutates edge value maps and may add
// derived edges, and nothing else may touch the graph concurrently.
//
// A Checker is not safe for concurrent use. Independent checks must each
// own their own Graph and Checker.
type Checker struct {
	g      *Graph
	policy Policy
	state  CheckState
	status *RunStatus

	initialized bool

	// horizon bounds every schedule to the window [Z, Z+horizon]. It stays
	// PosInfinity until Init computes it from the graph's weights.
	horizon int

	queue   []EdgePair
	inQueue map[*Edge]struct{}

	distinguished      map[int]bool
	distinguishedNodes []*Node

	linkByContingent  map[int]*contingentLink
	linksByActivation map[int][]*contingentLink
}

// NewChecker creates a checker for the graph under the policy. The graph
// must already hold its nodes and user edges; Init performs the
// well-definedness validation.
func NewChecker(g *Graph, p Policy) (*Checker, error) {
	if g == nil {
		return nil, configErrorf("NewChecker", "graph must be non-nil")
	}
	if p == nil {
		return nil, configErrorf("NewChecker", "policy must be non-nil")
	}
	return &Checker{
		g:       g,
		policy:  p,
		state:   StateInitializing,
		status:  &RunStatus{State: StateInitializing},
		inQueue: make(map[*Edge]struct{}),
		horizon: PosInfinity,
	}, nil
}

// Graph returns the graph under check, including any derived edges added so
// far.
func (c *Checker) Graph() *Graph {
	return c.g
}

// Policy returns the active variant policy.
func (c *Checker) Policy() Policy {
	return c.policy
}

// State returns the checker's lifecycle state.
func (c *Checker) State() CheckState {
	return c.state
}

// PendingEdges returns the number of edges waiting in the worklist. After a
// timeout this is the amount of work a resumed Run would start from.
func (c *Checker) PendingEdges() int {
	return len(c.queue)
}

// Init validates the network and prepares the check. It is idempotent and
// called automatically by Run; calling it directly surfaces configuration
// problems before spending any checking time. The steps are:
//
//  1. the graph must designate a reference node Z;
//  2. contingent links are discovered from contingent-typed edge pairs,
//     their bounds validated, their names interned, and their lower- and
//     upper-case values synthesized when not already present;
//  3. every observation, contingent, and parameter node must already carry
//     a finite constraint to and from Z;
//  4. every other node X is pinned inside the execution window of Z:
//     Z - X <= 0 (edge X->Z, value 0) and X - Z <= horizon (edge Z->X),
//     both under X's label, the horizon being the node count times the
//     largest weight magnitude;
//  5. every proposition in use must have an observer;
//  6. a policy restricting propagation to distinguished nodes requires all
//     node labels to be empty.
//
// Any violation is reported as a *ConfigurationError and the check never
// starts.
func (c *Checker) Init() error {
	if c.initialized {
		return nil
	}
	z := c.g.Z()
	if z == nil {
		return configErrorf("Checker.Init",
			"graph %q has no reference node; call Graph.SetZ first", c.g.Name())
	}
	if err := c.discoverContingentLinks(); err != nil {
		return err
	}
	for _, n := range c.g.Nodes() {
		if n == z {
			continue
		}
		role := specialRole(n)
		if role == "" {
			continue
		}
		if err := c.requireFiniteEdge(n, z, role); err != nil {
			return err
		}
		if err := c.requireFiniteEdge(z, n, role); err != nil {
			return err
		}
	}
	c.horizon = c.computeHorizon()
	for _, n := range c.g.Nodes() {
		if n == z {
			continue
		}
		e := c.g.EdgeBetween(n, z)
		if e == nil {
			var err error
			e, err = c.g.NewDerivedEdge(n, z, Internal)
			if err != nil {
				return err
			}
		}
		e.Merge(n.Label(), 0)
		back := c.g.EdgeBetween(z, n)
		if back == nil {
			var err error
			back, err = c.g.NewDerivedEdge(z, n, Internal)
			if err != nil {
				return err
			}
		}
		back.Merge(n.Label(), c.horizon)
	}
	if err := c.validatePropositions(); err != nil {
		return err
	}
	if c.policy.OnlyToDistinguished() {
		for _, n := range c.g.Nodes() {
			if !n.Label().IsEmpty() {
				return configErrorf("Checker.Init",
					"policy %q propagates only to distinguished nodes, which requires empty node labels; node %q carries %s",
					c.policy.Name(), n.Name(), n.Label())
			}
		}
	}
	c.distinguishedNodes = c.policy.DistinguishedNodes(c.g)
	c.distinguished = make(map[int]bool, len(c.distinguishedNodes))
	for _, n := range c.distinguishedNodes {
		c.distinguished[n.id] = true
	}
	c.initialized = true
	return nil
}

// specialRole names the validation role of a node, or "" for plain nodes.
func specialRole(n *Node) string {
	switch {
	case n.IsObserver():
		return "observation"
	case n.IsContingent():
		return "contingent"
	case n.IsParameter():
		return "parameter"
	}
	return ""
}

// requireFiniteEdge checks that the edge from one node to another exists
// and carries at least one finite ordinary value.
func (c *Checker) requireFiniteEdge(from, to *Node, role string) error {
	e := c.g.EdgeBetween(from, to)
	if e == nil {
		return configErrorf("Checker.Init",
			"%s node %q needs a constraint edge from %q to %q", role, from.Name(), from.Name(), to.Name())
	}
	v := e.MinValue()
	if v == NoValue || v <= NegInfinity || v >= PosInfinity {
		return configErrorf("Checker.Init",
			"%s node %q needs a finite value on edge %q, found %s", role, from.Name(), e.Name(), WeightString(v))
	}
	return nil
}

// computeHorizon returns the execution horizon of the graph: the node count
// times the largest finite weight magnitude over every stored value. Any
// schedule that starts at Z fits inside [Z, Z+horizon], so pinning the
// nodes to the window preserves the verdict, while a value descending past
// -horizon can only close a negative cycle. Capped below PosInfinity so
// the bound stays storable.
func (c *Checker) computeHorizon() int {
	maxAbs := 0
	for _, ep := range c.g.Edges() {
		for _, lv := range ep.Edge.Values().Entries() {
			maxAbs = max(maxAbs, weightMagnitude(lv.Value))
		}
		if ep.Edge.HasUpperCase() {
			for _, cv := range ep.Edge.UpperCase().Entries() {
				maxAbs = max(maxAbs, weightMagnitude(cv.Value))
			}
		}
		for _, cv := range ep.Edge.LowerCaseEntries() {
			maxAbs = max(maxAbs, weightMagnitude(cv.Value))
		}
	}
	n := c.g.NodeCount()
	if maxAbs > (PosInfinity-1)/n {
		return PosInfinity - 1
	}
	return maxAbs * n
}

// discoverContingentLinks pairs up the contingent-typed edges, validates
// each link's bounds, interns the contingent names in id order, and
// synthesizes the lower- and upper-case values that drive the case rules.
func (c *Checker) discoverContingentLinks() error {
	c.linkByContingent = make(map[int]*contingentLink)
	c.linksByActivation = make(map[int][]*contingentLink)

	grouped := make(map[[2]int][]EdgePair)
	for _, ep := range c.g.Edges() {
		if ep.Edge.Type() != Contingent {
			continue
		}
		if ep.Src == ep.Dst {
			return configErrorf("Checker.Init", "contingent edge %q is a self-loop", ep.Edge.Name())
		}
		key := [2]int{ep.Src.id, ep.Dst.id}
		if key[0] > key[1] {
			key[0], key[1] = key[1], key[0]
		}
		grouped[key] = append(grouped[key], ep)
	}

	var links []*contingentLink
	for _, pair := range grouped {
		if len(pair) != 2 {
			return configErrorf("Checker.Init",
				"contingent link at edge %q needs contingent edges in both directions", pair[0].Edge.Name())
		}
		ln, err := c.buildContingentLink(pair[0], pair[1])
		if err != nil {
			return err
		}
		links = append(links, ln)
	}
	sort.Slice(links, func(i, j int) bool { return links[i].contingent.id < links[j].contingent.id })

	for _, ln := range links {
		if other, dup := c.linkByContingent[ln.contingent.id]; dup {
			return configErrorf("Checker.Init",
				"node %q is the contingent point of two links (activations %q and %q)",
				ln.contingent.Name(), other.activation.Name(), ln.activation.Name())
		}
		idx, err := c.g.Alphabet().Register(ln.contingent.Name())
		if err != nil {
			return err
		}
		ln.aIndex = idx
		ln.aLabel = EmptyALabel.With(idx)
		if !ln.out.HasLowerCase() {
			switch ln.out.Kind() {
			case SimpleUncertainEdge:
				ln.out.SetLowerCase(ln.aLabel, ln.label, ln.lower)
			case GeneralUncertainEdge:
				ln.out.MergeLowerCase(ln.aLabel, ln.label, ln.lower)
			}
		}
		if ln.back.UpperCase().IsEmpty() {
			ln.back.MergeUpperCase(ln.aLabel, ln.label, -ln.upper)
		}
		c.linkByContingent[ln.contingent.id] = ln
		c.linksByActivation[ln.activation.id] = append(c.linksByActivation[ln.activation.id], ln)
	}
	return nil
}

// buildContingentLink orients and validates one pair of opposite contingent
// edges. The edge carrying the positive bound y runs activation->contingent;
// the opposite edge carries -x. Bounds must satisfy 0 < x < y < infinity.
func (c *Checker) buildContingentLink(e1, e2 EdgePair) (*contingentLink, error) {
	v1, err := singleOrdinaryValue(e1.Edge)
	if err != nil {
		return nil, err
	}
	v2, err := singleOrdinaryValue(e2.Edge)
	if err != nil {
		return nil, err
	}

	var out, back EdgePair
	var outVal, backVal LabeledValue
	switch {
	case v1.Value > 0 && v2.Value < 0:
		out, back, outVal, backVal = e1, e2, v1, v2
	case v1.Value < 0 && v2.Value > 0:
		out, back, outVal, backVal = e2, e1, v2, v1
	default:
		return nil, configErrorf("Checker.Init",
			"contingent edges %q and %q must carry one positive and one negative bound",
			e1.Edge.Name(), e2.Edge.Name())
	}

	cont, act := out.Dst, out.Src
	if !cont.IsContingent() {
		return nil, configErrorf("Checker.Init",
			"edge %q points at %q, which is not marked contingent", out.Edge.Name(), cont.Name())
	}
	if cont == c.g.Z() {
		return nil, configErrorf("Checker.Init", "the reference node %q cannot be contingent", cont.Name())
	}
	if out.Edge.Kind() == OrdinaryEdge || back.Edge.Kind() == OrdinaryEdge {
		return nil, configErrorf("Checker.Init",
			"contingent edges %q and %q must be created as uncertain edges", out.Edge.Name(), back.Edge.Name())
	}
	if outVal.Label != backVal.Label {
		return nil, configErrorf("Checker.Init",
			"contingent edges %q and %q carry different labels (%s vs %s)",
			out.Edge.Name(), back.Edge.Name(), outVal.Label, backVal.Label)
	}

	y, x := outVal.Value, -backVal.Value
	if x <= 0 || x >= y || y >= PosInfinity {
		return nil, configErrorf("Checker.Init",
			"contingent link %q ==> %q needs bounds 0 < x < y, got [%d, %d]",
			act.Name(), cont.Name(), x, y)
	}

	return &contingentLink{
		activation: act,
		contingent: cont,
		lower:      x,
		upper:      y,
		out:        out.Edge,
		back:       back.Edge,
		label:      outVal.Label,
	}, nil
}

// singleOrdinaryValue returns the unique ordinary value of a contingent
// edge, or a ConfigurationError when it carries zero or several.
func singleOrdinaryValue(e *Edge) (LabeledValue, error) {
	entries := e.Values().Entries()
	if len(entries) != 1 {
		return LabeledValue{}, configErrorf("Checker.Init",
			"contingent edge %q must carry exactly one value, found %d", e.Name(), len(entries))
	}
	return entries[0], nil
}

// validatePropositions checks that every proposition referenced by a node
// label or an edge value has an observation node, and that no observer
// carries its own proposition in its label.
func (c *Checker) validatePropositions() error {
	check := func(l Label, where string) error {
		for _, lit := range l.Literals() {
			if c.g.Observer(lit.Prop) == nil {
				return configErrorf("Checker.Init",
					"proposition %q in %s has no observation node", lit.Prop, where)
			}
		}
		return nil
	}
	for _, n := range c.g.Nodes() {
		if err := check(n.Label(), fmt.Sprintf("the label of node %q", n.Name())); err != nil {
			return err
		}
		if p, ok := n.Observes(); ok && n.Label().Has(p) {
			return configErrorf("Checker.Init",
				"observation node %q carries its own proposition %q in its label", n.Name(), p)
		}
	}
	for _, ep := range c.g.Edges() {
		where := fmt.Sprintf("a value of edge %q", ep.Edge.Name())
		for _, lv := range ep.Edge.Values().Entries() {
			if err := check(lv.Label, where); err != nil {
				return err
			}
		}
		if ep.Edge.HasUpperCase() {
			for _, cv := range ep.Edge.UpperCase().Entries() {
				if err := check(cv.Label, where); err != nil {
					return err
				}
			}
		}
		for _, cv := range ep.Edge.LowerCaseEntries() {
			if err := check(cv.Label, where); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run drives the fixpoint loop until the worklist drains, an inconsistency
// witness appears, or the context is cancelled. It calls Init first when
// needed and returns a fresh RunStatus per call.
//
// Outcomes:
//
//   - StateConsistent: the worklist drained with no negative cycle; the
//     network is dynamically controllable under the policy.
//   - StateInconsistent: a negative cycle was found; terminal, and further
//     Run calls return immediately.
//   - StateTimeout: the context was cancelled mid-loop; the worklist is
//     preserved and a later Run with a fresh context resumes where this
//     one stopped.
//
// Running again after a consistent verdict re-seeds the worklist and must
// change nothing; the returned status then reports zero rule firings.
//
// The context is sampled once per popped edge: cancellation is cooperative
// and never interrupts a rule mid-application.
func (c *Checker) Run(ctx context.Context) (*RunStatus, error) {
	if err := c.Init(); err != nil {
		return nil, err
	}
	start := time.Now()
	status := &RunStatus{}

	if c.state == StateInconsistent {
		status.State = StateInconsistent
		status.Finished = true
		status.Elapsed = time.Since(start)
		return status, nil
	}
	if c.state != StateTimeout {
		c.seedWorklist()
	}
	c.state = StateRunning
	c.status = status

	for len(c.queue) > 0 {
		if ctx.Err() != nil {
			c.state = StateTimeout
			status.State = StateTimeout
			status.Elapsed = time.Since(start)
			return status, nil
		}
		ep := c.queue[0]
		c.queue = c.queue[1:]
		delete(c.inQueue, ep.Edge)
		status.EdgesPopped++
		var ok bool
		if ep.Src == ep.Dst {
			ok = c.selfLoopConsistent(ep.Edge)
		} else {
			ok = c.processEdge(ep)
		}
		if !ok {
			c.state = StateInconsistent
			status.State = StateInconsistent
			status.Finished = true
			status.Elapsed = time.Since(start)
			c.queue = nil
			c.inQueue = make(map[*Edge]struct{})
			return status, nil
		}
	}

	c.state = StateConsistent
	status.State = StateConsistent
	status.Consistent = true
	status.Finished = true
	status.Elapsed = time.Since(start)
	return status, nil
}

// seedWorklist fills the queue with every edge of the graph, in the dense
// row-major order the graph enumerates them.
func (c *Checker) seedWorklist() {
	c.queue = c.queue[:0]
	c.inQueue = make(map[*Edge]struct{})
	for _, ep := range c.g.Edges() {
		c.enqueue(ep)
	}
}

// enqueue appends an edge to the worklist unless it is already waiting.
func (c *Checker) enqueue(ep EdgePair) {
	if _, waiting := c.inQueue[ep.Edge]; waiting {
		return
	}
	c.inQueue[ep.Edge] = struct{}{}
	c.queue = append(c.queue, ep)
}

// Check is the one-call convenience wrapper: it builds a checker for the
// graph under the policy and runs it to an outcome.
func Check(ctx context.Context, g *Graph, p Policy) (*RunStatus, error) {
	c, err := NewChecker(g, p)
	if err != nil {
		return nil, err
	}
	return c.Run(ctx)
}
