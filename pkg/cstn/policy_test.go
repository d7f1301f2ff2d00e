package cstn

import "testing"

// Each policy advertises its variant-specific decisions.
func TestPolicies_Decisions(t *testing.T) {
	eps, err := NewEpsilonPolicy(2)
	if err != nil {
		t.Fatalf("NewEpsilonPolicy: %v", err)
	}
	eps3, err := NewEpsilon3RulePolicy(2)
	if err != nil {
		t.Fatalf("NewEpsilon3RulePolicy: %v", err)
	}
	tests := []struct {
		policy      Policy
		name        string
		obsRules    bool
		restricted  bool
		eligibleAt0 bool
	}{
		{IRPolicy{}, "ir", true, false, false},
		{eps, "epsilon", true, false, true},
		{eps3, "epsilon3", true, true, true},
		{ParameterizedPolicy{}, "parameterized", true, true, false},
		{STNUPolicy{}, "stnu", false, false, false},
	}
	for _, tc := range tests {
		if got := tc.policy.Name(); got != tc.name {
			t.Fatalf("Name = %q, want %q", got, tc.name)
		}
		if got := tc.policy.AppliesObservationRules(); got != tc.obsRules {
			t.Fatalf("%s: AppliesObservationRules = %t, want %t", tc.name, got, tc.obsRules)
		}
		if got := tc.policy.OnlyToDistinguished(); got != tc.restricted {
			t.Fatalf("%s: OnlyToDistinguished = %t, want %t", tc.name, got, tc.restricted)
		}
		if got := tc.policy.ObsRuleEligible(0); got != tc.eligibleAt0 {
			t.Fatalf("%s: ObsRuleEligible(0) = %t, want %t", tc.name, got, tc.eligibleAt0)
		}
		if tc.policy.AppliesObservationRules() && !tc.policy.ObsRuleEligible(-1) {
			t.Fatalf("%s: strictly negative values must stay eligible", tc.name)
		}
		if tc.policy.ObsRuleEligible(1) {
			t.Fatalf("%s: positive values are never eligible", tc.name)
		}
	}
	if (STNUPolicy{}).ObsRuleEligible(-5) {
		t.Fatalf("stnu: no value is eligible")
	}
}

// Instantaneous reaction keeps the observation value as is; a reaction
// delay weakens it first.
func TestPolicies_R3Value(t *testing.T) {
	if got := (IRPolicy{}).R3Value(-9, -5); got != -5 {
		t.Fatalf("ir R3Value(-9, -5) = %d, want -5", got)
	}
	if got := (IRPolicy{}).R3Value(-3, -5); got != -3 {
		t.Fatalf("ir R3Value(-3, -5) = %d, want -3", got)
	}
	eps := EpsilonPolicy{Epsilon: 2}
	if got := eps.R3Value(-9, -5); got != -7 {
		t.Fatalf("epsilon R3Value(-9, -5) = %d, want -7", got)
	}
	if got := eps.R3Value(-6, -5); got != -6 {
		t.Fatalf("epsilon R3Value(-6, -5) = %d, want -6", got)
	}
	if got := (Epsilon3RulePolicy{Epsilon: 2}).R3Value(-9, -5); got != -7 {
		t.Fatalf("epsilon3 R3Value(-9, -5) = %d, want -7", got)
	}
	// -∞ absorbs the delay.
	if got := eps.R3Value(NegInfinity, NegInfinity); got != NegInfinity {
		t.Fatalf("epsilon R3Value(-∞, -∞) = %s, want -∞", WeightString(got))
	}
}

// The reaction delay must be strictly positive.
func TestPolicies_ConstructorErrors(t *testing.T) {
	if _, err := NewEpsilonPolicy(0); err == nil {
		t.Fatalf("epsilon 0 should be rejected")
	}
	if _, err := NewEpsilonPolicy(-3); err == nil {
		t.Fatalf("negative epsilon should be rejected")
	}
	if _, err := NewEpsilon3RulePolicy(0); err == nil {
		t.Fatalf("epsilon3 0 should be rejected")
	}
}

// Most variants distinguish only Z; the parameterized variant adds every
// parameter node.
func TestPolicies_DistinguishedNodes(t *testing.T) {
	g := buildGraph(t, "Z", "A", "B")
	if got := (IRPolicy{}).DistinguishedNodes(g); got != nil {
		t.Fatalf("no Z designated: DistinguishedNodes = %v, want nil", got)
	}
	if err := g.SetZ("Z"); err != nil {
		t.Fatalf("SetZ: %v", err)
	}
	got := (IRPolicy{}).DistinguishedNodes(g)
	if len(got) != 1 || got[0].Name() != "Z" {
		t.Fatalf("ir DistinguishedNodes = %v, want [Z]", got)
	}
	g.Node("B").SetParameter(true)
	pd := (ParameterizedPolicy{}).DistinguishedNodes(g)
	if len(pd) != 2 || pd[0].Name() != "Z" || pd[1].Name() != "B" {
		t.Fatalf("parameterized DistinguishedNodes = %v, want [Z B]", pd)
	}
	// A parameter flag on Z itself adds no duplicate.
	g.Node("Z").SetParameter(true)
	pd = (ParameterizedPolicy{}).DistinguishedNodes(g)
	if len(pd) != 2 {
		t.Fatalf("Z must not appear twice, got %v", pd)
	}
}
