// Package objective scores solutions as lexicographic tuples over the declared
// objective list and provides the dominance relation for the Pareto frontier.
package objective

import (
	"math"

	"vrpsolve/internal/model"
	"vrpsolve/internal/route"
	"vrpsolve/internal/solution"
)

// Set is an evaluated objective list in priority order.
type Set struct {
	specs []model.ObjectiveSpec
}

// New builds a set from the problem's declared objectives.
func New(p *model.Problem) *Set { return &Set{specs: p.ObjectiveList()} }

// Specs exposes the priority order for reporting.
func (s *Set) Specs() []model.ObjectiveSpec { return s.specs }

// Evaluate computes and caches the solution's score tuple.
func (s *Set) Evaluate(p *model.Problem, sol *solution.Solution) []float64 {
	if sol.Score != nil {
		return sol.Score
	}
	score := make([]float64, len(s.specs))
	for i, spec := range s.specs {
		score[i] = fitness(spec.Kind, p, sol)
	}
	sol.Score = score
	return score
}

// HasValueObjective reports whether job values participate in insertion cost.
func (s *Set) HasValueObjective() bool {
	for _, spec := range s.specs {
		if spec.Kind == model.MaximizeValue {
			return true
		}
	}
	return false
}

func fitness(kind model.ObjectiveKind, p *model.Problem, sol *solution.Solution) float64 {
	switch kind {
	case model.MinimizeUnassigned:
		total := 0.0
		for id := range sol.Unassigned {
			if j := p.JobByID(id); j != nil {
				total += j.UnassignedPenalty()
			} else {
				total++
			}
		}
		return total
	case model.MinimizeTours:
		return float64(sol.ActiveRoutes())
	case model.MinimizeCost:
		total := 0.0
		for _, r := range sol.Routes {
			total += RouteCost(r)
		}
		return total
	case model.MaximizeValue:
		total := 0.0
		for _, r := range sol.Routes {
			for _, j := range r.Jobs() {
				total += j.Value
			}
		}
		return -total
	case model.BalanceDistance:
		return spread(sol, func(r *route.Route) float64 { return float64(r.Distance) })
	case model.BalanceDuration:
		return spread(sol, func(r *route.Route) float64 { return float64(r.Duration) })
	case model.BalanceLoad:
		return spread(sol, func(r *route.Route) float64 { return routeDemandTotal(r) })
	case model.BalanceActivities:
		return spread(sol, func(r *route.Route) float64 { return float64(r.JobActivityCount()) })
	case model.TourOrder:
		return orderPenalty(sol)
	default:
		return 0
	}
}

// RouteCost evaluates one route under its vehicle's tiered cost schedule.
// Empty routes cost nothing.
func RouteCost(r *route.Route) float64 {
	if r.IsEmpty() {
		return 0
	}
	c := r.Vehicle.Type.Costs
	return c.Fixed + c.TravelCost(r.Distance, r.Duration)
}

// spread is the variance-like balance measure across non-empty tours.
func spread(sol *solution.Solution, f func(*route.Route) float64) float64 {
	var vals []float64
	for _, r := range sol.Routes {
		if !r.IsEmpty() {
			vals = append(vals, f(r))
		}
	}
	if len(vals) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	variance := 0.0
	for _, v := range vals {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / float64(len(vals)))
}

func routeDemandTotal(r *route.Route) float64 {
	var total int64
	for _, a := range r.Activities {
		if t := a.Task(); t != nil {
			total += t.Demand.Total()
		}
	}
	return float64(total)
}

// orderPenalty counts inverted explicit-order pairs across all tours.
func orderPenalty(sol *solution.Solution) float64 {
	penalty := 0.0
	for _, r := range sol.Routes {
		var orders []int
		for _, a := range r.Activities {
			if t := a.Task(); t != nil && t.EffectiveOrder() != model.NoOrder {
				orders = append(orders, t.EffectiveOrder())
			}
		}
		for i := 0; i < len(orders); i++ {
			for j := i + 1; j < len(orders); j++ {
				if orders[i] > orders[j] {
					penalty++
				}
			}
		}
	}
	return penalty
}

// Dominates reports strict Pareto dominance of a over b: no worse anywhere,
// strictly better somewhere.
func Dominates(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	better := false
	for i := range a {
		if a[i] > b[i] {
			return false
		}
		if a[i] < b[i] {
			better = true
		}
	}
	return better
}

// Less orders scores lexicographically by declared priority.
func Less(a, b []float64) bool {
	for i := range a {
		if i >= len(b) {
			return false
		}
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Equal reports tuple equality.
func Equal(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
