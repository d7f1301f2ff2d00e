// Package cstn implements dynamic-controllability checking for conditional
// simple temporal networks with uncertainty (the CSTN / CSTNU / CSTNPSU /
// PCSTNU family). This file defines the integer weight domain shared by all
// labeled values: the absent-value sentinel, the saturating infinities, and
// overflow-safe summation.
package cstn

import (
	"math"
	"strconv"
)

// Weight sentinels. NoValue marks the absence of a value in query results
// and is never storable in a value map. NegInfinity and PosInfinity are the
// saturation rails of weight arithmetic: sums that would overflow clamp to
// them instead of wrapping.
const (
	// NoValue is returned by queries on empty maps and rejected by merges.
	NoValue = math.MinInt

	// NegInfinity is the most negative representable weight. It propagates
	// through sums and is storable, marking unconditionally violated bounds.
	NegInfinity = math.MinInt + 1

	// PosInfinity is the most positive representable weight. It is never
	// storable: merging it is a no-op because it constrains nothing.
	PosInfinity = math.MaxInt - 1
)

// SumWeights adds two weights with overflow checking, saturating to the
// infinity rails instead of wrapping. Summing NoValue, or summing opposite
// infinities, indicates a bug in the caller and panics.
func SumWeights(a, b int) int {
	if a == NoValue || b == NoValue {
		panic("cstn: sum of an absent weight")
	}
	if a == PosInfinity || b == PosInfinity {
		if a == NegInfinity || b == NegInfinity {
			panic("cstn: sum of opposite infinities")
		}
		return PosInfinity
	}
	if a == NegInfinity || b == NegInfinity {
		return NegInfinity
	}

	sum := a + b
	// Two operands of the same sign whose sum crossed zero have wrapped.
	if a > 0 && b > 0 && sum < 0 {
		return PosInfinity
	}
	if a < 0 && b < 0 && sum >= 0 {
		return NegInfinity
	}
	// Finite sums must stay strictly inside the rails.
	if sum >= PosInfinity {
		return PosInfinity
	}
	if sum <= NegInfinity {
		return NegInfinity
	}
	return sum
}

// weightMagnitude returns the absolute value of a finite weight. The
// sentinels carry no magnitude and yield 0.
func weightMagnitude(v int) int {
	if v == NoValue || v <= NegInfinity || v >= PosInfinity {
		return 0
	}
	if v < 0 {
		return -v
	}
	return v
}

// WeightString renders a weight for display, using the conventional symbols
// for the sentinels.
func WeightString(v int) string {
	switch v {
	case NoValue:
		return "·"
	case NegInfinity:
		return "-∞"
	case PosInfinity:
		return "∞"
	default:
		return strconv.Itoa(v)
	}
}
