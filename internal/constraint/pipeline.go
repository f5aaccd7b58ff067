// Package constraint implements the pluggable constraint pipeline: built-in
// hard constraints, soft cost contributors and the registration hook for
// user-supplied ones.
package constraint

import (
	"vrpsolve/internal/model"
	"vrpsolve/internal/route"
	"vrpsolve/internal/solution"
)

// Violation is a coded rejection. It is a value, never an error: inside the
// search it only excludes a candidate.
type Violation struct {
	Code string
}

// Kind splits constraints into vetoing and cost-contributing ones.
type Kind int

const (
	Hard Kind = iota
	Soft
)

// MoveContext describes one probed insertion position with the schedule and
// travel deltas the evaluator already computed for it.
type MoveContext struct {
	Problem  *model.Problem
	Solution *solution.Solution
	Route    *route.Route
	Job      *model.Job

	Position int
	Target   *route.Activity
	Prev     *route.Activity
	Next     *route.Activity // nil when appending at the very end

	Arrival      int64
	ServiceStart int64
	ServiceEnd   int64
	NextArrival  int64 // estimated new arrival at Next

	DistanceDelta int64
	DurationDelta int64
}

// Constraint is one pipeline entry. EvaluateRoute gates a job against a route
// before positions are probed (job may be nil for a post-mutation route
// verification); EvaluateActivity checks one probed position.
type Constraint interface {
	Name() string
	Kind() Kind
	EvaluateRoute(s *solution.Solution, r *route.Route, j *model.Job) *Violation
	EvaluateActivity(mc *MoveContext) *Violation
	// AcceptRoute recomputes route-owned state after a mutation.
	AcceptRoute(p *model.Problem, r *route.Route)
	// AcceptSolution recomputes solution-owned state from scratch.
	AcceptSolution(p *model.Problem, s *solution.Solution)
	// MergeStates combines two opaque state values during forward/backward
	// accumulation; constraints without mergeable state return left.
	MergeStates(left, right any) any
}

// SoftCost is implemented by soft constraints contributing to insertion cost.
type SoftCost interface {
	EstimateCost(mc *MoveContext) float64
}

// InsertionObserver is implemented by constraints maintaining incremental
// solution state on each committed insertion.
type InsertionObserver interface {
	OnInsert(p *model.Problem, s *solution.Solution, routeIdx int, j *model.Job)
}

// Base provides no-op hooks for constraints that do not need them.
type Base struct{}

func (Base) EvaluateRoute(*solution.Solution, *route.Route, *model.Job) *Violation { return nil }
func (Base) EvaluateActivity(*MoveContext) *Violation                              { return nil }
func (Base) AcceptRoute(*model.Problem, *route.Route)                              {}
func (Base) AcceptSolution(*model.Problem, *solution.Solution)                     {}
func (Base) MergeStates(left, _ any) any                                           { return left }

// Pipeline is the ordered constraint set. Hard constraints run first and
// short-circuit on the first violation; soft constraints only add cost.
type Pipeline struct {
	hard []Constraint
	soft []Constraint
}

// NewPipeline groups constraints by kind, preserving declaration order within
// each group.
func NewPipeline(cs ...Constraint) *Pipeline {
	p := &Pipeline{}
	for _, c := range cs {
		p.Register(c)
	}
	return p
}

// Register appends a constraint; the extension point for user constraints.
func (p *Pipeline) Register(c Constraint) {
	if c.Kind() == Hard {
		p.hard = append(p.hard, c)
	} else {
		p.soft = append(p.soft, c)
	}
}

// Default builds the built-in hard pack.
func Default() *Pipeline {
	return NewPipeline(
		NewTime(),
		NewCapacity(),
		NewSkills(),
		NewLimits(),
		NewGroup(),
		NewCompatibility(),
		NewCoupling(),
		NewOrder(),
		NewReload(),
		NewSameAssignee(),
		NewAffinity(),
		NewSync(),
	)
}

// EvaluateRoute gates a job against a route, returning the first hard violation.
func (p *Pipeline) EvaluateRoute(s *solution.Solution, r *route.Route, j *model.Job) *Violation {
	for _, c := range p.hard {
		if v := c.EvaluateRoute(s, r, j); v != nil {
			return v
		}
	}
	return nil
}

// EvaluateActivity checks one probed position: the first hard violation wins;
// otherwise the summed soft cost is returned.
func (p *Pipeline) EvaluateActivity(mc *MoveContext) (*Violation, float64) {
	for _, c := range p.hard {
		if v := c.EvaluateActivity(mc); v != nil {
			return v, 0
		}
	}
	cost := 0.0
	for _, c := range p.soft {
		if v := c.EvaluateActivity(mc); v != nil {
			continue // soft constraints cannot veto
		}
		if sc, ok := c.(SoftCost); ok {
			cost += sc.EstimateCost(mc)
		}
	}
	return nil, cost
}

// VerifyRoute re-checks route-level invariants after a mutation.
func (p *Pipeline) VerifyRoute(s *solution.Solution, r *route.Route) *Violation {
	return p.EvaluateRoute(s, r, nil)
}

// AcceptRoute refreshes route-owned state slots after a mutation.
func (p *Pipeline) AcceptRoute(prob *model.Problem, r *route.Route) {
	for _, c := range p.hard {
		c.AcceptRoute(prob, r)
	}
	for _, c := range p.soft {
		c.AcceptRoute(prob, r)
	}
}

// AcceptSolution rebuilds solution-owned state slots.
func (p *Pipeline) AcceptSolution(prob *model.Problem, s *solution.Solution) {
	for _, c := range p.hard {
		c.AcceptSolution(prob, s)
	}
	for _, c := range p.soft {
		c.AcceptSolution(prob, s)
	}
}

// OnInsert propagates a committed insertion to incremental observers.
func (p *Pipeline) OnInsert(prob *model.Problem, s *solution.Solution, routeIdx int, j *model.Job) {
	for _, c := range p.hard {
		if o, ok := c.(InsertionObserver); ok {
			o.OnInsert(prob, s, routeIdx, j)
		}
	}
	for _, c := range p.soft {
		if o, ok := c.(InsertionObserver); ok {
			o.OnInsert(prob, s, routeIdx, j)
		}
	}
}
