package search

import (
	"vrpsolve/internal/constraint"
	"vrpsolve/internal/model"
	"vrpsolve/internal/route"
	"vrpsolve/internal/solution"
)

// failCode is the reason recorded when a verified commit falls through.
func (in *Insertion) failCode() string { return constraint.CodeTimeWindow }

// Commit applies an insertion to the solution, materializing required breaks
// on first use of the route and re-verifying the full schedule. Probe
// estimates ignore downstream waiting shifts, so the verification here is the
// authoritative check; on failure the route is restored and false returned.
func (e *Evaluator) Commit(sol *solution.Solution, j *model.Job, ins *Insertion) bool {
	r := sol.MutableRoute(ins.RouteIdx)
	wasEmpty := r.IsEmpty()
	for _, p := range ins.Placements {
		r.Insert(p.Position, p.Activity)
	}
	ok := true
	if wasEmpty {
		ok = e.ensureRequiredBreaks(sol, r)
	}
	if ok {
		r.Recompute(e.Problem.Transport)
		ok = e.Pipeline.VerifyRoute(sol, r) == nil
	}
	if !ok {
		r.RemoveJob(j.ID)
		if r.IsEmpty() {
			stripBreaks(r)
		}
		r.Recompute(e.Problem.Transport)
		e.Pipeline.AcceptRoute(e.Problem, r)
		return false
	}
	e.Pipeline.AcceptRoute(e.Problem, r)
	sol.ClearUnassigned(j.ID)
	e.Pipeline.OnInsert(e.Problem, sol, ins.RouteIdx, j)
	sol.InvalidateScore()
	return true
}

// Evict removes a job from whatever route serves it. Solution-level constraint
// state is NOT refreshed here; callers batch evictions and run
// Pipeline.AcceptSolution once.
func (e *Evaluator) Evict(sol *solution.Solution, j *model.Job) {
	ri := sol.RouteIndexOfJob(j.ID)
	if ri < 0 {
		return
	}
	r := sol.MutableRoute(ri)
	r.RemoveJob(j.ID)
	if r.IsEmpty() {
		stripBreaks(r)
	}
	r.Recompute(e.Problem.Transport)
	e.Pipeline.AcceptRoute(e.Problem, r)
	sol.MarkUnassigned(j.ID, "")
	sol.InvalidateScore()
}

// ensureRequiredBreaks materializes each required break of the shift at its
// first feasible position. A route whose required break fits nowhere is not a
// valid tour, so the caller rolls the triggering insertion back.
func (e *Evaluator) ensureRequiredBreaks(sol *solution.Solution, r *route.Route) bool {
	sh := r.Vehicle.Shift()
	for bi, b := range sh.Breaks {
		if !b.Required || hasBreak(r, bi) {
			continue
		}
		r.Recompute(e.Problem.Transport)
		placed := false
		lo, hi := insertRange(r)
		for pos := lo; pos <= hi; pos++ {
			a := route.NewBreakActivity(bi, b)
			if p, _ := e.probeActivity(sol, r, nil, a, pos); p != nil {
				r.Insert(pos, a)
				placed = true
				break
			}
		}
		if !placed {
			return false
		}
	}
	return true
}

// TryReloadInsertion gives a capacity-rejected job a second chance by opening
// a new trip: append the next unused reload of an active route, then insert
// the job into the refreshed capacity. The reload is removed again when the
// job still does not fit.
func (e *Evaluator) TryReloadInsertion(sol *solution.Solution, j *model.Job) bool {
	for ri := range sol.Routes {
		r := sol.Routes[ri]
		if r.IsEmpty() {
			continue
		}
		sh := r.Vehicle.Shift()
		used := countReloads(r)
		if used >= len(sh.Reloads) {
			continue
		}
		mr := sol.MutableRoute(ri)
		pos := len(mr.Activities)
		if mr.Activities[pos-1].Kind == route.Arrival {
			pos--
		}
		mr.Insert(pos, route.NewReloadActivity(used, sh.Reloads[used]))
		mr.Recompute(e.Problem.Transport)
		if e.Pipeline.VerifyRoute(sol, mr) != nil {
			mr.Remove(pos)
			mr.Recompute(e.Problem.Transport)
			continue
		}
		e.Pipeline.AcceptRoute(e.Problem, mr)
		ins, _ := e.BestInsertion(sol, j)
		if ins != nil && ins.RouteIdx == ri && e.Commit(sol, j, ins) {
			sol.InvalidateScore()
			return true
		}
		mr.Remove(pos)
		mr.Recompute(e.Problem.Transport)
		e.Pipeline.AcceptRoute(e.Problem, mr)
	}
	return false
}

func countReloads(r *route.Route) int {
	n := 0
	for _, a := range r.Activities {
		if a.Kind == route.ReloadStop {
			n++
		}
	}
	return n
}

// stripBreaks drops break and reload activities from a route that no longer
// serves jobs, returning it to its bare departure/arrival frame.
func stripBreaks(r *route.Route) {
	kept := r.Activities[:0]
	for _, a := range r.Activities {
		if a.Kind == route.BreakStop || a.Kind == route.ReloadStop {
			continue
		}
		kept = append(kept, a)
	}
	r.Activities = kept
}
