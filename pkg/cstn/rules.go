// Package cstn: the propagation rules.
// This file holds the per-edge rule applications the fixpoint loop performs
// on each popped edge B->D: the observation rules R0 and R3, the
// case-label removal, the inward chain rules through every A->B, and the
// outward chain rules through every D->A. All derived values flow through
// the merge helpers at the bottom, which own edge creation, counter and
// worklist bookkeeping, and negative-cycle detection.
package cstn

// processEdge applies the full rule set for one popped edge. It reports
// false as soon as an inconsistency witness is found.
func (c *Checker) processEdge(ep EdgePair) bool {
	if c.policy.AppliesObservationRules() && c.distinguished[ep.Dst.id] {
		if !c.applyR0(ep) {
			return false
		}
		if !c.applyR3(ep) {
			return false
		}
	}
	if !c.applyCaseRemoval(ep) {
		return false
	}
	if !c.chainInward(ep) {
		return false
	}
	if c.distinguished[ep.Dst.id] {
		if !c.chainOutward(ep) {
			return false
		}
	}
	if ep.Dst.IsContingent() {
		if !c.chainUpperOutward(ep) {
			return false
		}
	}
	return true
}

// applyR0 removes an observed proposition from the labels of the popped
// edge P?->D: once the constraint is tight enough to force D before the
// observation resolves, the proposition cannot matter. Applies only when
// the source observes a proposition and the value passes the policy's
// eligibility threshold.
func (c *Checker) applyR0(ep EdgePair) bool {
	p, ok := ep.Src.Observes()
	if !ok {
		return true
	}
	for _, lv := range ep.Edge.Values().Entries() {
		if !lv.Label.Has(p) || !c.policy.ObsRuleEligible(lv.Value) {
			continue
		}
		if !c.mergeOrdinary(ep.Src, ep.Dst, lv.Label.Remove(p), lv.Value, &c.status.R0Calls) {
			return false
		}
	}
	return true
}

// applyR3 weakens a value of the popped edge B->D against each observation
// edge P?->D: when B->D's label depends on the proposition P? observes,
// the two bounds combine into one that no longer mentions it. Conflicting
// literals from the two labels survive as unknowns, and the closure of
// P?'s child propositions is dropped from the result.
func (c *Checker) applyR3(ep EdgePair) bool {
	b, d := ep.Src, ep.Dst
	obs := c.g.ObservationEdgesTo(d)
	if len(obs) == 0 {
		return true
	}
	for _, lv := range ep.Edge.Values().Entries() {
		for _, oa := range obs {
			if oa.Node == b {
				continue
			}
			p, _ := oa.Node.Observes()
			if !lv.Label.Has(p) {
				continue
			}
			base := lv.Label.Remove(p)
			children := c.g.ChildrenOf(oa.Node)
			for _, ov := range oa.Edge.Values().Entries() {
				if !c.policy.ObsRuleEligible(ov.Value) {
					continue
				}
				lab := ov.Label.Remove(p).ConjunctionExtended(base).RemoveAll(children)
				val := c.policy.R3Value(lv.Value, ov.Value)
				if !c.mergeOrdinary(b, d, lab, val, &c.status.R3Calls) {
					return false
				}
			}
		}
	}
	return true
}

// applyCaseRemoval drops a contingent name from upper-case values on edges
// into that link's activation node: an upper-case value of at least -x can
// never be violated by the contingent duration, so the conditional bound
// becomes unconditional. An emptied A-Label turns the value ordinary.
func (c *Checker) applyCaseRemoval(ep EdgePair) bool {
	links := c.linksByActivation[ep.Dst.id]
	if len(links) == 0 || !ep.Edge.HasUpperCase() {
		return true
	}
	for _, ln := range links {
		for _, cv := range ep.Edge.UpperCase().Entries() {
			if !cv.Case.Has(ln.aIndex) || cv.Value < -ln.lower {
				continue
			}
			rest := cv.Case.Without(ln.aIndex)
			if rest.IsEmpty() {
				if !c.mergeOrdinary(ep.Src, ep.Dst, cv.Label, cv.Value, &c.status.CaseRemovalCalls) {
					return false
				}
			} else if !c.mergeUpper(ep.Src, ep.Dst, rest, cv.Label, cv.Value, &c.status.CaseRemovalCalls) {
				return false
			}
		}
	}
	return true
}

// chainInward chains every in-edge A->B through the popped edge B->D,
// deriving values on A->D:
//
//   - ordinary x ordinary, summing the weights;
//   - ordinary x upper-case, carrying the A-Label along while negative;
//   - lower-case x ordinary, letting a contingent duration start a chain
//     that ends in a negative bound;
//   - lower-case x upper-case, when the two contingent names differ.
//
// Ordinary derivations respect the policy's distinguished-target
// restriction; the case rules always run.
func (c *Checker) chainInward(ep EdgePair) bool {
	b, d := ep.Src, ep.Dst
	ordTargetOK := !c.policy.OnlyToDistinguished() || c.distinguished[d.id]
	eOrd := ep.Edge.Values().Entries()
	var eUC []CaseValue
	if ep.Edge.HasUpperCase() {
		eUC = ep.Edge.UpperCase().Entries()
	}

	for _, in := range c.g.InEdges(b) {
		a, ae := in.Node, in.Edge
		if a == b {
			continue
		}
		aOrd := ae.Values().Entries()

		if ordTargetOK {
			for _, av := range aOrd {
				for _, bv := range eOrd {
					sum := SumWeights(av.Value, bv.Value)
					lab, ok := chainLabel(av.Label, bv.Label, sum)
					if !ok {
						continue
					}
					if !c.mergeOrdinary(a, d, lab, sum, &c.status.PropagationCalls) {
						return false
					}
				}
			}
		}

		for _, av := range aOrd {
			for _, cv := range eUC {
				if cv.Value >= 0 {
					continue
				}
				sum := SumWeights(av.Value, cv.Value)
				lab, ok := chainLabel(av.Label, cv.Label, sum)
				if !ok {
					continue
				}
				if !c.mergeUpper(a, d, cv.Case, lab, sum, &c.status.UpperCaseCalls) {
					return false
				}
			}
		}

		for _, lc := range ae.LowerCaseEntries() {
			for _, bv := range eOrd {
				if bv.Value >= 0 {
					continue
				}
				sum := SumWeights(lc.Value, bv.Value)
				lab, ok := chainLabel(lc.Label, bv.Label, sum)
				if !ok {
					continue
				}
				if !c.mergeOrdinary(a, d, lab, sum, &c.status.LowerCaseCalls) {
					return false
				}
			}
			for _, cv := range eUC {
				if cv.Value >= 0 || cv.Case.Intersects(lc.Case) {
					continue
				}
				sum := SumWeights(lc.Value, cv.Value)
				lab, ok := chainLabel(lc.Label, cv.Label, sum)
				if !ok {
					continue
				}
				if !c.mergeUpper(a, d, cv.Case, lab, sum, &c.status.CrossCaseCalls) {
					return false
				}
			}
		}
	}
	return true
}

// chainOutward chains the popped edge B->D through every out-edge D->A of a
// distinguished D, deriving ordinary values on B->A. Under a
// distinguished-target policy only distinguished A qualify.
func (c *Checker) chainOutward(ep EdgePair) bool {
	b, d := ep.Src, ep.Dst
	eOrd := ep.Edge.Values().Entries()
	for _, out := range c.g.OutEdges(d) {
		a, oe := out.Node, out.Edge
		if a == d {
			continue
		}
		if c.policy.OnlyToDistinguished() && !c.distinguished[a.id] {
			continue
		}
		for _, bv := range eOrd {
			for _, ov := range oe.Values().Entries() {
				sum := SumWeights(bv.Value, ov.Value)
				lab, ok := chainLabel(bv.Label, ov.Label, sum)
				if !ok {
					continue
				}
				if !c.mergeOrdinary(b, a, lab, sum, &c.status.PropagationCalls) {
					return false
				}
			}
		}
	}
	return true
}

// chainUpperOutward chains the popped edge B->D through the upper-case
// values leaving a contingent D, deriving upper-case values on B->A. This
// is how a bound on reaching a contingent point combines with the link's
// conditional duration bound.
func (c *Checker) chainUpperOutward(ep EdgePair) bool {
	b, d := ep.Src, ep.Dst
	eOrd := ep.Edge.Values().Entries()
	for _, out := range c.g.OutEdges(d) {
		a, oe := out.Node, out.Edge
		if a == d || !oe.HasUpperCase() {
			continue
		}
		for _, bv := range eOrd {
			for _, cv := range oe.UpperCase().Entries() {
				if cv.Value >= 0 {
					continue
				}
				sum := SumWeights(bv.Value, cv.Value)
				lab, ok := chainLabel(bv.Label, cv.Label, sum)
				if !ok {
					continue
				}
				if !c.mergeUpper(b, a, cv.Case, lab, sum, &c.status.UpperCaseCalls) {
					return false
				}
			}
		}
	}
	return true
}

// chainLabel conjoins two labels for a chain derivation. A negative sum may
// keep conflicting literals as unknowns; a non-negative sum needs a
// consistent scenario and fails on conflict.
func chainLabel(a, b Label, sum int) (Label, bool) {
	if sum < 0 {
		return a.ConjunctionExtended(b), true
	}
	return a.Conjunction(b)
}

// mergeOrdinary merges a derived ordinary value into the edge from src to
// dst, creating a derived edge when the pair is empty and removing it again
// when nothing is stored. An accepted merge bumps the rule counter,
// re-enqueues the edge, and checks the opposite edge for a negative
// two-cycle under a consistent combined label. A value below -horizon
// cannot come from any schedule: unknown-free it is itself a witness,
// otherwise it saturates to -∞. Reports false on an inconsistency witness.
func (c *Checker) mergeOrdinary(src, dst *Node, l Label, v int, counter *int) bool {
	if v >= 0 && l.HasUnknown() {
		return true
	}
	if v < -c.horizon {
		if !l.HasUnknown() {
			return false
		}
		v = NegInfinity
	}
	if src == dst {
		return c.mergeSelfLoop(src, l, v, counter)
	}
	e := c.g.EdgeBetween(src, dst)
	created := false
	if e == nil {
		var err error
		e, err = c.g.NewDerivedEdge(src, dst, Derived)
		if err != nil {
			panic("cstn: derived edge on occupied pair: " + err.Error())
		}
		created = true
	}
	if !e.Merge(l, v) {
		if created {
			c.g.RemoveEdge(e.Name())
		}
		return true
	}
	*counter++
	c.enqueue(EdgePair{Edge: e, Src: src, Dst: dst})

	if back := c.g.EdgeBetween(dst, src); back != nil {
		for _, rv := range back.Values().Entries() {
			if _, ok := l.Conjunction(rv.Label); !ok {
				continue
			}
			if SumWeights(v, rv.Value) < 0 {
				return false
			}
		}
	}
	return true
}

// mergeSelfLoop handles a derived value landing on a single node. A
// negative value under an unknown-free label is a negative cycle in a
// realizable scenario: the inconsistency witness. A negative value whose
// label keeps unknowns records negative infinity on the loop edge instead,
// closing off that branch of scenarios. Non-negative self-loops carry no
// information.
func (c *Checker) mergeSelfLoop(n *Node, l Label, v int, counter *int) bool {
	if v >= 0 {
		return true
	}
	if !l.HasUnknown() {
		return false
	}
	e := c.g.EdgeBetween(n, n)
	created := false
	if e == nil {
		var err error
		e, err = c.g.NewDerivedEdge(n, n, Derived)
		if err != nil {
			panic("cstn: derived edge on occupied pair: " + err.Error())
		}
		created = true
	}
	if e.Merge(l, NegInfinity) {
		*counter++
	} else if created {
		c.g.RemoveEdge(e.Name())
	}
	return true
}

// selfLoopConsistent scans a popped self-loop edge for a stored witness: a
// negative ordinary or upper-case value under an unknown-free label bounds
// a node strictly before itself in a realizable scenario. Derived loops
// hold only unknown-laden -∞ records and pass the scan; what it catches
// are loops supplied as input.
func (c *Checker) selfLoopConsistent(e *Edge) bool {
	for _, lv := range e.Values().Entries() {
		if lv.Value < 0 && !lv.Label.HasUnknown() {
			return false
		}
	}
	if e.HasUpperCase() {
		for _, cv := range e.UpperCase().Entries() {
			if cv.Value < 0 && !cv.Label.HasUnknown() {
				return false
			}
		}
	}
	return true
}

// mergeUpper merges a derived upper-case value into the edge from src to
// dst, creating a derived edge when the pair is empty. An accepted merge
// bumps the rule counter and re-enqueues the edge.
//
// A negative upper-case value landing on a single node is violated whenever
// every contingent name in its A-Label runs to its maximal duration; under
// an unknown-free label that situation is realizable, so it is an
// inconsistency witness and mergeUpper reports false. Other self-loop
// values carry no information and are dropped. Below -horizon the ordinary
// discipline applies: witness when unknown-free, -∞ otherwise.
func (c *Checker) mergeUpper(src, dst *Node, cs ALabel, l Label, v int, counter *int) bool {
	if src == dst {
		return v >= 0 || l.HasUnknown()
	}
	if v < -c.horizon {
		if !l.HasUnknown() {
			return false
		}
		v = NegInfinity
	}
	e := c.g.EdgeBetween(src, dst)
	created := false
	if e == nil {
		var err error
		e, err = c.g.NewDerivedEdge(src, dst, Derived)
		if err != nil {
			panic("cstn: derived edge on occupied pair: " + err.Error())
		}
		created = true
	}
	if !e.ensureUpperCase().Merge(cs, l, v) {
		if created && e.IsEmpty() {
			c.g.RemoveEdge(e.Name())
		}
		return true
	}
	*counter++
	c.enqueue(EdgePair{Edge: e, Src: src, Dst: dst})
	return true
}
