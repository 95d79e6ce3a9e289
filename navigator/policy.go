package navigator

import (
	"fmt"
	"math"
)

// Policy turns oracle confidence into exploration and selection decisions.
// The thresholds are tuning knobs, not correctness guarantees.
type Policy struct {
	// ExploreThreshold is the minimum confidence for a child to be explored.
	ExploreThreshold float64

	// SelectThreshold is the minimum confidence for a terminal node to be selected.
	SelectThreshold float64

	// HighConfidence and above explores up to maxBranches children.
	HighConfidence float64

	// MediumConfidence and above explores half of maxBranches, rounded up.
	// Below it a single child is explored.
	MediumConfidence float64
}

// DefaultPolicy returns the default thresholds.
func DefaultPolicy() Policy {
	return Policy{
		ExploreThreshold: 0.3,
		SelectThreshold:  0.5,
		HighConfidence:   0.7,
		MediumConfidence: 0.4,
	}
}

// Validate checks that every threshold lies in [0, 1] and that
// MediumConfidence does not exceed HighConfidence.
func (p Policy) Validate() error {
	thresholds := []struct {
		name  string
		value float64
	}{
		{"explore", p.ExploreThreshold},
		{"select", p.SelectThreshold},
		{"high", p.HighConfidence},
		{"medium", p.MediumConfidence},
	}
	for _, th := range thresholds {
		if math.IsNaN(th.value) || th.value < 0 || th.value > 1 {
			return fmt.Errorf("%w: %s threshold %v outside [0, 1]", ErrInvalidPolicy, th.name, th.value)
		}
	}
	if p.MediumConfidence > p.HighConfidence {
		return fmt.Errorf("%w: medium confidence %v above high confidence %v",
			ErrInvalidPolicy, p.MediumConfidence, p.HighConfidence)
	}
	return nil
}

// BranchLimit returns how many children to explore when the most confident
// accepted child scored top. The result is always in [1, maxBranches].
func (p Policy) BranchLimit(top float64, maxBranches int) int {
	if maxBranches <= 1 {
		return 1
	}
	switch {
	case top >= p.HighConfidence:
		return maxBranches
	case top >= p.MediumConfidence:
		return (maxBranches + 1) / 2
	default:
		return 1
	}
}

// clampConfidence maps oracle output into [0, 1]. NaN becomes 0.
func clampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c) || c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
