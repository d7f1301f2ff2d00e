// Package cstn: check lifecycle state and rule counters.
// This file defines CheckState, the small state machine a Checker moves
// through, and RunStatus, the per-run outcome record with one counter per
// propagation rule.
package cstn

import (
	"fmt"
	"time"
)

// CheckState identifies where a check stands in its lifecycle.
type CheckState int

const (
	// StateInitializing means Init has not completed yet.
	StateInitializing CheckState = iota

	// StateRunning means a Run call is in progress.
	StateRunning

	// StateConsistent means the fixpoint was reached with no negative
	// cycle: the network is dynamically controllable.
	StateConsistent

	// StateInconsistent means a negative cycle witness was found; this
	// state is terminal.
	StateInconsistent

	// StateTimeout means the last Run stopped on context cancellation
	// before reaching a verdict; the check can be resumed.
	StateTimeout
)

// String returns a human-readable name for the state.
func (s CheckState) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateConsistent:
		return "consistent"
	case StateInconsistent:
		return "inconsistent"
	case StateTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("CheckState(%d)", int(s))
	}
}

// RunStatus records the outcome of one Run call: the resulting state, the
// verdict flags, how long the run took, and how often each rule fired. A
// rule counter increments only when the rule's derivation was actually
// stored, so counters measure useful work, not attempts.
//
// Rule firing order depends on worklist order and is not part of the
// checking contract; compare counters against zero, not against exact
// totals.
type RunStatus struct {
	// State is the checker state when the run returned.
	State CheckState

	// Consistent reports a controllable verdict. Meaningful only when
	// Finished is true.
	Consistent bool

	// Finished reports whether the run reached a verdict rather than
	// stopping on the context.
	Finished bool

	// EdgesPopped counts worklist extractions.
	EdgesPopped int

	// PropagationCalls counts stored ordinary chain derivations.
	PropagationCalls int

	// R0Calls counts stored observation label-removal derivations.
	R0Calls int

	// R3Calls counts stored observation label-merge derivations.
	R3Calls int

	// LowerCaseCalls counts stored lower-case chain derivations.
	LowerCaseCalls int

	// UpperCaseCalls counts stored upper-case chain derivations.
	UpperCaseCalls int

	// CrossCaseCalls counts stored cross-case derivations.
	CrossCaseCalls int

	// CaseRemovalCalls counts stored case-label removals.
	CaseRemovalCalls int

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration
}

// String returns a formatted summary of the run.
func (s *RunStatus) String() string {
	return fmt.Sprintf(
		"Check Status:\n"+
			"  State: %s (consistent=%t finished=%t)\n"+
			"  Worklist: %d edges popped, %v elapsed\n"+
			"  Chain rules: %d ordinary, %d lower-case, %d upper-case, %d cross-case\n"+
			"  Observation rules: %d R0, %d R3\n"+
			"  Case removals: %d",
		s.State, s.Consistent, s.Finished,
		s.EdgesPopped, s.Elapsed,
		s.PropagationCalls, s.LowerCaseCalls, s.UpperCaseCalls, s.CrossCaseCalls,
		s.R0Calls, s.R3Calls,
		s.CaseRemovalCalls,
	)
}
