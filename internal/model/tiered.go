package model

import (
	"fmt"
	"math"
	"sort"
)

// CalculationMode selects how tiered costs are applied to an amount.
type CalculationMode int

const (
	// HighestTier charges the whole amount at the rate of the highest tier reached.
	HighestTier CalculationMode = iota
	// Cumulative charges each tier segment at its own rate.
	Cumulative
)

func (m CalculationMode) String() string {
	if m == Cumulative {
		return "cumulative"
	}
	return "highestTier"
}

// Tier is one segment of a piecewise cost function.
type Tier struct {
	Threshold float64
	Rate      float64
}

// TieredCost is either a flat per-unit rate or a sorted tier list.
type TieredCost struct {
	fixed float64
	tiers []Tier
}

// FixedCost builds a flat per-unit cost.
func FixedCost(rate float64) TieredCost { return TieredCost{fixed: rate} }

// TieredCosts validates and sorts a tier list. The lowest threshold must be 0
// and thresholds must be distinct.
func TieredCosts(tiers []Tier) (TieredCost, error) {
	if len(tiers) == 0 {
		return TieredCost{}, fmt.Errorf("tiered cost needs at least one tier")
	}
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Threshold < sorted[j].Threshold })
	if sorted[0].Threshold != 0 {
		return TieredCost{}, fmt.Errorf("tiered cost must include a tier at threshold 0")
	}
	for i, t := range sorted {
		if t.Threshold < 0 || t.Rate < 0 || math.IsNaN(t.Threshold) || math.IsInf(t.Threshold, 0) || math.IsNaN(t.Rate) || math.IsInf(t.Rate, 0) {
			return TieredCost{}, fmt.Errorf("tier %d: threshold and rate must be finite and non-negative", i)
		}
		if i > 0 && sorted[i-1].Threshold == t.Threshold {
			return TieredCost{}, fmt.Errorf("duplicate tier threshold %v", t.Threshold)
		}
	}
	return TieredCost{tiers: sorted}, nil
}

// IsZero reports an unconfigured cost.
func (c TieredCost) IsZero() bool { return c.fixed == 0 && len(c.tiers) == 0 }

// Rate returns the per-unit rate of the highest tier applicable to amount.
// A tier covers amounts strictly above its threshold, so an amount sitting
// exactly on a boundary is still charged at the lower tier's rate.
func (c TieredCost) Rate(amount float64) float64 {
	if len(c.tiers) == 0 {
		return c.fixed
	}
	idx := sort.Search(len(c.tiers), func(i int) bool { return c.tiers[i].Threshold >= amount })
	if idx == 0 {
		return c.tiers[0].Rate
	}
	return c.tiers[idx-1].Rate
}

// Cost evaluates the total cost of amount under the given mode.
func (c TieredCost) Cost(amount float64, mode CalculationMode) float64 {
	if amount <= 0 {
		return 0
	}
	if len(c.tiers) == 0 {
		return amount * c.fixed
	}
	if mode == HighestTier {
		return amount * c.Rate(amount)
	}
	total := 0.0
	for i, t := range c.tiers {
		next := amount
		if i+1 < len(c.tiers) && c.tiers[i+1].Threshold < amount {
			next = c.tiers[i+1].Threshold
		}
		if next > t.Threshold {
			total += (next - t.Threshold) * t.Rate
		}
		if next >= amount {
			break
		}
	}
	return total
}
