// Package cstn: checking-variant policies.
// This file defines the Policy interface and the five stateless policy
// values that tune the propagation rules to a network family: instantaneous
// reaction, epsilon reaction, epsilon with propagation restricted to
// distinguished nodes, parameterized networks, and plain STNU.
package cstn

// Policy bundles the variant-specific decisions the propagation engine
// consults while checking:
//
//   - whether the observation rules run at all,
//   - which constraint values make an observation pair eligible,
//   - how an observation pair combines with an existing value,
//   - whether ordinary chaining is restricted to distinguished targets,
//   - which nodes count as distinguished.
//
// Policies are pure strategy values: they hold configuration only and never
// mutate the graph, so one policy value can serve any number of checks.
type Policy interface {
	// Name identifies the variant, e.g. "ir" or "epsilon".
	Name() string

	// AppliesObservationRules reports whether the label-simplifying
	// observation rules participate in the check.
	AppliesObservationRules() bool

	// ObsRuleEligible reports whether an observation-edge value w may
	// trigger an observation rule.
	ObsRuleEligible(w int) bool

	// R3Value combines the value v under simplification with the
	// observation-edge value w into the derived value.
	R3Value(v, w int) int

	// OnlyToDistinguished reports whether ordinary chain propagation is
	// suppressed unless the derived edge ends at a distinguished node.
	OnlyToDistinguished() bool

	// DistinguishedNodes returns the nodes that act as propagation
	// targets for the observation rules and, when OnlyToDistinguished
	// holds, for ordinary chaining.
	DistinguishedNodes(g *Graph) []*Node
}

// IRPolicy checks under instantaneous reaction: the strategy may react to an
// observation at the very instant it happens, so only strictly negative
// observation values matter.
type IRPolicy struct{}

// Name returns "ir".
func (IRPolicy) Name() string { return "ir" }

// AppliesObservationRules reports true.
func (IRPolicy) AppliesObservationRules() bool { return true }

// ObsRuleEligible reports whether w is strictly negative.
func (IRPolicy) ObsRuleEligible(w int) bool { return w < 0 }

// R3Value returns the larger of the two values.
func (IRPolicy) R3Value(v, w int) int { return max(v, w) }

// OnlyToDistinguished reports false.
func (IRPolicy) OnlyToDistinguished() bool { return false }

// DistinguishedNodes returns the reference node Z.
func (IRPolicy) DistinguishedNodes(g *Graph) []*Node {
	if z := g.Z(); z != nil {
		return []*Node{z}
	}
	return nil
}

// EpsilonPolicy checks under a bounded reaction delay: the strategy needs at
// least Epsilon time units to react to an observation. Zero-valued
// observation pairs stay eligible and derived values are weakened by
// Epsilon.
type EpsilonPolicy struct {
	// Epsilon is the minimal reaction delay, strictly positive.
	Epsilon int
}

// NewEpsilonPolicy creates an epsilon-reaction policy. The delay must be
// strictly positive; instantaneous reaction is IRPolicy, not epsilon zero.
func NewEpsilonPolicy(epsilon int) (EpsilonPolicy, error) {
	if epsilon <= 0 {
		return EpsilonPolicy{}, configErrorf("NewEpsilonPolicy",
			"reaction delay must be positive, got %d", epsilon)
	}
	return EpsilonPolicy{Epsilon: epsilon}, nil
}

// Name returns "epsilon".
func (EpsilonPolicy) Name() string { return "epsilon" }

// AppliesObservationRules reports true.
func (EpsilonPolicy) AppliesObservationRules() bool { return true }

// ObsRuleEligible reports whether w is non-positive.
func (EpsilonPolicy) ObsRuleEligible(w int) bool { return w <= 0 }

// R3Value returns the larger of v and w weakened by the reaction delay.
func (p EpsilonPolicy) R3Value(v, w int) int {
	return max(v, SumWeights(w, -p.Epsilon))
}

// OnlyToDistinguished reports false.
func (EpsilonPolicy) OnlyToDistinguished() bool { return false }

// DistinguishedNodes returns the reference node Z.
func (EpsilonPolicy) DistinguishedNodes(g *Graph) []*Node {
	if z := g.Z(); z != nil {
		return []*Node{z}
	}
	return nil
}

// Epsilon3RulePolicy is the epsilon-reaction variant that keeps every
// derived ordinary constraint anchored at the reference node: chain
// propagation only lands on distinguished targets, which keeps the
// constraint growth linear in the node count. Node labels must be empty
// under this policy.
type Epsilon3RulePolicy struct {
	// Epsilon is the minimal reaction delay, strictly positive.
	Epsilon int
}

// NewEpsilon3RulePolicy creates a restricted-propagation epsilon policy.
func NewEpsilon3RulePolicy(epsilon int) (Epsilon3RulePolicy, error) {
	if epsilon <= 0 {
		return Epsilon3RulePolicy{}, configErrorf("NewEpsilon3RulePolicy",
			"reaction delay must be positive, got %d", epsilon)
	}
	return Epsilon3RulePolicy{Epsilon: epsilon}, nil
}

// Name returns "epsilon3".
func (Epsilon3RulePolicy) Name() string { return "epsilon3" }

// AppliesObservationRules reports true.
func (Epsilon3RulePolicy) AppliesObservationRules() bool { return true }

// ObsRuleEligible reports whether w is non-positive.
func (Epsilon3RulePolicy) ObsRuleEligible(w int) bool { return w <= 0 }

// R3Value returns the larger of v and w weakened by the reaction delay.
func (p Epsilon3RulePolicy) R3Value(v, w int) int {
	return max(v, SumWeights(w, -p.Epsilon))
}

// OnlyToDistinguished reports true.
func (Epsilon3RulePolicy) OnlyToDistinguished() bool { return true }

// DistinguishedNodes returns the reference node Z.
func (Epsilon3RulePolicy) DistinguishedNodes(g *Graph) []*Node {
	if z := g.Z(); z != nil {
		return []*Node{z}
	}
	return nil
}

// ParameterizedPolicy checks networks whose bounds may reference parameter
// nodes fixed before execution. Parameter nodes join Z as distinguished
// targets and ordinary chaining is restricted to them; node labels must be
// empty.
type ParameterizedPolicy struct{}

// Name returns "parameterized".
func (ParameterizedPolicy) Name() string { return "parameterized" }

// AppliesObservationRules reports true.
func (ParameterizedPolicy) AppliesObservationRules() bool { return true }

// ObsRuleEligible reports whether w is strictly negative.
func (ParameterizedPolicy) ObsRuleEligible(w int) bool { return w < 0 }

// R3Value returns the larger of the two values.
func (ParameterizedPolicy) R3Value(v, w int) int { return max(v, w) }

// OnlyToDistinguished reports true.
func (ParameterizedPolicy) OnlyToDistinguished() bool { return true }

// DistinguishedNodes returns Z followed by every parameter node in id
// order.
func (ParameterizedPolicy) DistinguishedNodes(g *Graph) []*Node {
	var out []*Node
	if z := g.Z(); z != nil {
		out = append(out, z)
	}
	for _, n := range g.Nodes() {
		if n.IsParameter() && n != g.Z() {
			out = append(out, n)
		}
	}
	return out
}

// STNUPolicy checks plain STNU networks: no propositions, no observation
// rules, only chain propagation and the contingent-link case rules.
type STNUPolicy struct{}

// Name returns "stnu".
func (STNUPolicy) Name() string { return "stnu" }

// AppliesObservationRules reports false.
func (STNUPolicy) AppliesObservationRules() bool { return false }

// ObsRuleEligible reports false for every value.
func (STNUPolicy) ObsRuleEligible(int) bool { return false }

// R3Value returns the larger of the two values. It never runs under this
// policy.
func (STNUPolicy) R3Value(v, w int) int { return max(v, w) }

// OnlyToDistinguished reports false.
func (STNUPolicy) OnlyToDistinguished() bool { return false }

// DistinguishedNodes returns the reference node Z.
func (STNUPolicy) DistinguishedNodes(g *Graph) []*Node {
	if z := g.Z(); z != nil {
		return []*Node{z}
	}
	return nil
}
