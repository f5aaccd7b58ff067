// Package search implements the insertion heuristic, the ruin and recreate
// operators and the parallel metaheuristic loop around them.
package search

import (
	"math"
	"math/rand"
	"sort"

	"vrpsolve/internal/constraint"
	"vrpsolve/internal/model"
	"vrpsolve/internal/objective"
	"vrpsolve/internal/route"
	"vrpsolve/internal/solution"
)

// Placement is one activity with its insertion position.
type Placement struct {
	Activity *route.Activity
	Position int
}

// Insertion is a fully evaluated candidate: all activities of one job on one
// route, with its cost delta.
type Insertion struct {
	RouteIdx   int
	Placements []Placement // ascending positions, applied in order
	Cost       float64
	// firstPos breaks cost ties: earlier positions win, then lower route index.
	firstPos int
}

func (in *Insertion) betterThan(o *Insertion) bool {
	if in.Cost != o.Cost {
		return in.Cost < o.Cost
	}
	if in.firstPos != o.firstPos {
		return in.firstPos < o.firstPos
	}
	return in.RouteIdx < o.RouteIdx
}

// Evaluator finds the cheapest feasible insertion of a job into a solution.
type Evaluator struct {
	Problem    *model.Problem
	Pipeline   *constraint.Pipeline
	Objectives *objective.Set
	// BlinkRate is the probability of skipping a probed position.
	BlinkRate float64
	Rand      *rand.Rand
}

// BestInsertion evaluates a job across all routes and returns the cheapest
// feasible candidate, or the first hard-violation code seen when none exists.
func (e *Evaluator) BestInsertion(sol *solution.Solution, j *model.Job) (*Insertion, string) {
	best, _, code := e.bestTwo(sol, j)
	return best, code
}

// BestTwo returns the second-best candidate cost over routes alongside the
// best insertion; shorthand for BestK with k=2.
func (e *Evaluator) BestTwo(sol *solution.Solution, j *model.Job) (*Insertion, float64, string) {
	return e.BestK(sol, j, 2)
}

// BestK additionally returns the k-th best candidate cost across routes for
// regret selection (math.Inf(1) when fewer than k routes can take the job).
func (e *Evaluator) BestK(sol *solution.Solution, j *model.Job, k int) (*Insertion, float64, string) {
	var best *Insertion
	var costs []float64
	code := ""
	for ri, r := range sol.Routes {
		if v := e.Pipeline.EvaluateRoute(sol, r, j); v != nil {
			if code == "" {
				code = v.Code
			}
			continue
		}
		cand, c := e.evaluateOnRoute(sol, ri, j)
		if cand == nil {
			if code == "" && c != "" {
				code = c
			}
			continue
		}
		costs = append(costs, cand.Cost)
		if best == nil || cand.betterThan(best) {
			best = cand
		}
	}
	if best == nil && code == "" {
		code = constraint.CodeTimeWindow
	}
	kth := math.Inf(1)
	if k >= 2 && len(costs) >= k {
		sort.Float64s(costs)
		kth = costs[k-1]
	}
	return best, kth, code
}

func (e *Evaluator) bestTwo(sol *solution.Solution, j *model.Job) (*Insertion, float64, string) {
	return e.BestK(sol, j, 2)
}

// evaluateOnRoute enumerates task orderings, place alternatives and gap
// positions on one route.
func (e *Evaluator) evaluateOnRoute(sol *solution.Solution, ri int, j *model.Job) (*Insertion, string) {
	r := sol.Routes[ri]
	tasks := orderedTasks(j)

	if len(tasks) == 1 {
		return e.evaluateSingleTask(sol, ri, r, j, tasks[0])
	}
	return e.evaluateMultiTask(sol, ri, r, j, tasks)
}

// orderedTasks returns task indices in the canonical insertion order: pickups
// first (by explicit order), then services and replacements, then deliveries.
func orderedTasks(j *model.Job) []int {
	idx := make([]int, len(j.Tasks))
	for i := range idx {
		idx[i] = i
	}
	rank := func(k model.TaskKind) int {
		switch k {
		case model.TaskPickup:
			return 0
		case model.TaskDelivery:
			return 2
		default:
			return 1
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ta, tb := j.Tasks[idx[a]], j.Tasks[idx[b]]
		if rank(ta.Kind) != rank(tb.Kind) {
			return rank(ta.Kind) < rank(tb.Kind)
		}
		return ta.EffectiveOrder() < tb.EffectiveOrder()
	})
	return idx
}

func (e *Evaluator) evaluateSingleTask(sol *solution.Solution, ri int, r *route.Route, j *model.Job, taskIdx int) (*Insertion, string) {
	var best *Insertion
	code := ""
	lo, hi := insertRange(r)
	for pos := lo; pos <= hi; pos++ {
		if e.blink() {
			continue
		}
		pl, c := e.probeTask(sol, r, j, taskIdx, pos)
		if pl == nil {
			if code == "" {
				code = c
			}
			continue
		}
		cand := &Insertion{
			RouteIdx:   ri,
			Placements: []Placement{{Activity: pl.activity, Position: pos}},
			Cost:       e.insertionCost(r, j, pl.distDelta, pl.durDelta, pl.softCost),
			firstPos:   pos,
		}
		if best == nil || cand.betterThan(best) {
			best = cand
		}
	}
	return best, code
}

// evaluateMultiTask inserts the job's tasks in canonical order, enumerating
// positions for the first task and greedily chaining the rest on a scratch
// route. For the common pickup+delivery pair this enumerates all position
// pairs with the pickup strictly first.
func (e *Evaluator) evaluateMultiTask(sol *solution.Solution, ri int, r *route.Route, j *model.Job, tasks []int) (*Insertion, string) {
	var best *Insertion
	code := ""
	lo, hi := insertRange(r)
	for pos := lo; pos <= hi; pos++ {
		if e.blink() {
			continue
		}
		pl, c := e.probeTask(sol, r, j, tasks[0], pos)
		if pl == nil {
			if code == "" {
				code = c
			}
			continue
		}
		// Apply the first task on a scratch route, then chain the rest.
		scratch := r.Clone()
		scratch.Insert(pos, pl.activity)
		scratch.Recompute(e.Problem.Transport)
		cand := &Insertion{
			RouteIdx:   ri,
			Placements: []Placement{{Activity: pl.activity, Position: pos}},
			Cost:       e.insertionCost(r, j, pl.distDelta, pl.durDelta, pl.softCost),
			firstPos:   pos,
		}
		if rest, c2 := e.chainTasks(sol, ri, scratch, j, tasks[1:], pos+1, cand); rest != nil {
			if best == nil || rest.betterThan(best) {
				best = rest
			}
		} else if code == "" {
			code = c2
		}
	}
	return best, code
}

// chainTasks places the remaining tasks on the scratch route, each at its own
// cheapest feasible position at or after minPos.
func (e *Evaluator) chainTasks(sol *solution.Solution, ri int, scratch *route.Route, j *model.Job, tasks []int, minPos int, acc *Insertion) (*Insertion, string) {
	if len(tasks) == 0 {
		return acc, ""
	}
	var bestPl *probe
	bestPos := -1
	code := ""
	lo, hi := insertRange(scratch)
	if minPos > lo {
		lo = minPos
	}
	for pos := lo; pos <= hi; pos++ {
		pl, c := e.probeTask(sol, scratch, j, tasks[0], pos)
		if pl == nil {
			if code == "" {
				code = c
			}
			continue
		}
		if bestPl == nil || pl.cost() < bestPl.cost() {
			bestPl = pl
			bestPos = pos
		}
	}
	if bestPl == nil {
		return nil, code
	}
	next := scratch.Clone()
	next.Insert(bestPos, bestPl.activity)
	next.Recompute(e.Problem.Transport)
	out := &Insertion{
		RouteIdx:   ri,
		Placements: append(append([]Placement(nil), acc.Placements...), Placement{Activity: bestPl.activity, Position: bestPos}),
		Cost:       acc.Cost + e.insertionCost(scratch, j, bestPl.distDelta, bestPl.durDelta, bestPl.softCost),
		firstPos:   acc.firstPos,
	}
	return e.chainTasks(sol, ri, next, j, tasks[1:], bestPos+1, out)
}

// probe is one feasible (task, place, position) evaluation.
type probe struct {
	activity  *route.Activity
	distDelta int64
	durDelta  int64
	softCost  float64
}

func (p *probe) cost() float64 {
	return float64(p.distDelta) + float64(p.durDelta) + p.softCost
}

// probeTask tries every place alternative and window of a task at a position,
// returning the cheapest feasible one.
func (e *Evaluator) probeTask(sol *solution.Solution, r *route.Route, j *model.Job, taskIdx, pos int) (*probe, string) {
	task := &j.Tasks[taskIdx]
	var best *probe
	code := ""
	for pi := range task.Places {
		place := task.Places[pi]
		for _, w := range place.Windows() {
			a := route.NewJobActivity(j, taskIdx, pi, w)
			p, c := e.probeActivity(sol, r, j, a, pos)
			if p == nil {
				if code == "" {
					code = c
				}
				continue
			}
			if best == nil || p.cost() < best.cost() {
				best = p
			}
		}
	}
	return best, code
}

// probeActivity runs the schedule estimate and the constraint pipeline for one
// candidate activity at one gap position.
func (e *Evaluator) probeActivity(sol *solution.Solution, r *route.Route, j *model.Job, a *route.Activity, pos int) (*probe, string) {
	prev := r.Activities[pos-1]
	var next *route.Activity
	if pos < len(r.Activities) {
		next = r.Activities[pos]
	}
	prevLoc := r.LocationAt(pos - 1)
	loc := a.Location
	if !a.HasLocation {
		loc = prevLoc
	}

	distIn, durIn := r.Travel(e.Problem.Transport, prevLoc, loc)
	arrival := prev.ServiceEnd + durIn
	serviceStart := arrival
	if a.Window.Start > serviceStart {
		serviceStart = a.Window.Start
	}
	serviceEnd := serviceStart + a.Duration

	mc := &constraint.MoveContext{
		Problem:      e.Problem,
		Solution:     sol,
		Route:        r,
		Job:          j,
		Position:     pos,
		Target:       a,
		Prev:         prev,
		Next:         next,
		Arrival:      arrival,
		ServiceStart: serviceStart,
		ServiceEnd:   serviceEnd,
	}
	if next != nil {
		nextLoc := r.LocationAt(pos)
		distOut, durOut := r.Travel(e.Problem.Transport, loc, nextLoc)
		distOld, durOld := r.Travel(e.Problem.Transport, prevLoc, nextLoc)
		mc.NextArrival = serviceEnd + durOut
		mc.DistanceDelta = distIn + distOut - distOld
		mc.DurationDelta = durIn + durOut - durOld + a.Duration
	} else {
		mc.DistanceDelta = distIn
		mc.DurationDelta = durIn + a.Duration
	}

	v, soft := e.Pipeline.EvaluateActivity(mc)
	if v != nil {
		return nil, v.Code
	}
	return &probe{activity: a, distDelta: mc.DistanceDelta, durDelta: mc.DurationDelta, softCost: soft}, ""
}

// insertionCost turns travel deltas into the tiered cost delta for the route,
// adding the fixed cost when the route opens and subtracting job value when
// the objective maximizes it.
func (e *Evaluator) insertionCost(r *route.Route, j *model.Job, distDelta, durDelta int64, soft float64) float64 {
	c := r.Vehicle.Type.Costs
	delta := c.TravelCost(r.Distance+distDelta, r.Duration+durDelta) - c.TravelCost(r.Distance, r.Duration)
	if r.IsEmpty() {
		delta += c.Fixed
	}
	delta += soft
	if e.Objectives != nil && e.Objectives.HasValueObjective() {
		delta -= j.Value
	}
	return delta
}

func (e *Evaluator) blink() bool {
	return e.BlinkRate > 0 && e.Rand != nil && e.Rand.Float64() < e.BlinkRate
}

// insertRange returns the inclusive gap position range of a route: after the
// departure and, when the shift defines an end, before the arrival.
func insertRange(r *route.Route) (int, int) {
	n := len(r.Activities)
	last := r.Activities[n-1]
	if last.Kind == route.Arrival {
		return 1, n - 1
	}
	return 1, n
}
