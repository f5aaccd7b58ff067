package search

import (
	"math"
	"sort"

	"vrpsolve/internal/constraint"
	"vrpsolve/internal/model"
	"vrpsolve/internal/route"
	"vrpsolve/internal/solution"
)

// Recreate reinserts all unassigned jobs into a partial solution.
type Recreate interface {
	Name() string
	Apply(e *Evaluator, sol *solution.Solution)
}

// CheapestRecreate inserts, each pass, the globally cheapest (job, route,
// position) candidate.
type CheapestRecreate struct{}

func (CheapestRecreate) Name() string { return "cheapest" }

func (CheapestRecreate) Apply(e *Evaluator, sol *solution.Solution) {
	insertAll(e, sol, 2, func(cands []jobCandidate) int {
		best := 0
		for i := 1; i < len(cands); i++ {
			if cands[i].ins.betterThan(cands[best].ins) {
				best = i
			}
		}
		return best
	})
}

// RegretRecreate inserts first the job that loses most when pushed to its
// second-best route.
type RegretRecreate struct {
	K int // 2 or 3
}

func (r RegretRecreate) Name() string {
	if r.K >= 3 {
		return "regret-3"
	}
	return "regret-2"
}

func (r RegretRecreate) Apply(e *Evaluator, sol *solution.Solution) {
	k := r.K
	if k < 2 {
		k = 2
	}
	insertAll(e, sol, k, func(cands []jobCandidate) int {
		best := 0
		bestRegret := math.Inf(-1)
		for i, c := range cands {
			regret := c.regretCost - c.ins.Cost
			if math.IsInf(regret, 1) {
				// Only one feasible route left: forced, insert immediately.
				regret = math.MaxFloat64
			}
			if regret > bestRegret || (regret == bestRegret && c.ins.betterThan(cands[best].ins)) {
				bestRegret = regret
				best = i
			}
		}
		return best
	})
}

// BlinkRecreate is cheapest insertion with random position skipping.
type BlinkRecreate struct {
	Beta float64
}

func (BlinkRecreate) Name() string { return "blink-cheapest" }

func (b BlinkRecreate) Apply(e *Evaluator, sol *solution.Solution) {
	prev := e.BlinkRate
	e.BlinkRate = b.Beta
	if e.BlinkRate == 0 {
		e.BlinkRate = 0.01
	}
	defer func() { e.BlinkRate = prev }()
	CheapestRecreate{}.Apply(e, sol)
}

type jobCandidate struct {
	job        *model.Job
	ins        *Insertion
	regretCost float64 // k-th best route cost for regret selection
}

// insertAll drives the shared recreate loop: evaluate every free job, let the
// policy pick one, commit, repeat. Sync groups are committed atomically.
func insertAll(e *Evaluator, sol *solution.Solution, k int, pick func([]jobCandidate) int) {
	done := map[string]struct{}{}
	for {
		free := freeJobs(e.Problem, sol, done)
		if len(free) == 0 {
			break
		}
		var cands []jobCandidate
		for _, j := range free {
			if j.Sync != nil || j.Group != "" {
				// Sync groups and job groups are scheduled as a unit once
				// reached: all members land or none do.
				continue
			}
			ins, kth, code := e.BestK(sol, j, k)
			if ins == nil {
				// Capacity rejections may just need a fresh trip.
				if (code == constraint.CodeCapacity || code == constraint.CodeReloadCapacity) &&
					e.TryReloadInsertion(sol, j) {
					done[j.ID] = struct{}{}
					continue
				}
				sol.MarkUnassigned(j.ID, code)
				done[j.ID] = struct{}{}
				continue
			}
			cands = append(cands, jobCandidate{job: j, ins: ins, regretCost: kth})
		}
		if len(cands) == 0 {
			// Only sync groups and job groups remain; resolve one per pass.
			progressed := false
			for _, j := range free {
				if _, handled := done[j.ID]; handled {
					continue
				}
				if j.Sync != nil {
					progressed = commitSyncGroup(e, sol, j.Sync.Key, done)
					break
				}
				if j.Group != "" {
					progressed = commitGroup(e, sol, j.Group, done)
					break
				}
			}
			if !progressed && !anyFree(e.Problem, sol, done) {
				break
			}
			continue
		}
		c := cands[pick(cands)]
		if !e.Commit(sol, c.job, c.ins) {
			// Verification failed after the estimate: the candidate was
			// optimistic. Drop the job this round rather than loop.
			sol.MarkUnassigned(c.job.ID, c.ins.failCode())
			done[c.job.ID] = struct{}{}
			continue
		}
		done[c.job.ID] = struct{}{}
	}
	insertOptionalBreaks(e, sol)
}

func anyFree(p *model.Problem, sol *solution.Solution, done map[string]struct{}) bool {
	return len(freeJobs(p, sol, done)) > 0
}

// freeJobs lists unassigned jobs not yet handled this pass, in stable id order.
func freeJobs(p *model.Problem, sol *solution.Solution, done map[string]struct{}) []*model.Job {
	ids := make([]string, 0, len(sol.Unassigned))
	for id := range sol.Unassigned {
		if _, ok := done[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	jobs := make([]*model.Job, 0, len(ids))
	for _, id := range ids {
		if j := p.JobByID(id); j != nil {
			jobs = append(jobs, j)
		}
	}
	return jobs
}

// commitSyncGroup places every member of a sync group or none. Members go in
// index order; on any failure the partial placement is rolled back and the
// whole group stays unassigned.
func commitSyncGroup(e *Evaluator, sol *solution.Solution, key string, done map[string]struct{}) bool {
	members := syncMembers(e.Problem, key)
	committed := make([]*model.Job, 0, len(members))
	failCode := ""
	for _, j := range members {
		if _, handled := sol.Unassigned[j.ID]; !handled {
			continue // already on a route from a previous step
		}
		ins, code := e.BestInsertion(sol, j)
		if ins == nil {
			failCode = code
			break
		}
		if !e.Commit(sol, j, ins) {
			failCode = ins.failCode()
			break
		}
		committed = append(committed, j)
	}
	allPlaced := len(committed) > 0 && failCode == ""
	if failCode != "" {
		for _, j := range committed {
			e.Evict(sol, j)
		}
		e.Pipeline.AcceptSolution(e.Problem, sol)
		for _, j := range members {
			sol.MarkUnassigned(j.ID, failCode)
			done[j.ID] = struct{}{}
		}
		return true // progress: the group is resolved as unassigned
	}
	for _, j := range members {
		done[j.ID] = struct{}{}
	}
	return allPlaced
}

// commitGroup places every member of a job group or none. Members must all
// share one route, so insertion is gated by the group constraint; on any
// failure the whole group is evicted and stays unassigned together.
func commitGroup(e *Evaluator, sol *solution.Solution, group string, done map[string]struct{}) bool {
	members := groupMembers(e.Problem, group)
	committed := 0
	failCode := ""
	for _, j := range members {
		if _, unplaced := sol.Unassigned[j.ID]; !unplaced {
			continue // already on the group's route from a previous step
		}
		ins, code := e.BestInsertion(sol, j)
		if ins == nil {
			failCode = code
			break
		}
		if !e.Commit(sol, j, ins) {
			failCode = ins.failCode()
			break
		}
		committed++
	}
	if failCode != "" {
		// Evicting every member, placed now or earlier, keeps the invariant:
		// one route or all unassigned, never a strict subset.
		for _, j := range members {
			e.Evict(sol, j)
		}
		e.Pipeline.AcceptSolution(e.Problem, sol)
		for _, j := range members {
			sol.MarkUnassigned(j.ID, failCode)
			done[j.ID] = struct{}{}
		}
		return true
	}
	for _, j := range members {
		done[j.ID] = struct{}{}
	}
	return committed > 0
}

func groupMembers(p *model.Problem, group string) []*model.Job {
	var members []*model.Job
	for _, j := range p.Jobs {
		if j.Group == group {
			members = append(members, j)
		}
	}
	sort.Slice(members, func(a, b int) bool { return members[a].ID < members[b].ID })
	return members
}

func syncMembers(p *model.Problem, key string) []*model.Job {
	var members []*model.Job
	for _, j := range p.Jobs {
		if j.Sync != nil && j.Sync.Key == key {
			members = append(members, j)
		}
	}
	sort.Slice(members, func(a, b int) bool { return members[a].Sync.Index < members[b].Sync.Index })
	return members
}

// insertOptionalBreaks gives each active route its optional breaks, honoring
// the per-break skip policy. Breaks that fit nowhere are silently dropped.
func insertOptionalBreaks(e *Evaluator, sol *solution.Solution) {
	for ri := range sol.Routes {
		r := sol.Routes[ri]
		if r.IsEmpty() {
			continue
		}
		sh := r.Vehicle.Shift()
		for bi, b := range sh.Breaks {
			if b.Required || hasBreak(r, bi) {
				continue
			}
			switch b.Policy {
			case model.SkipIfNoIntersection:
				span := model.TimeWindow{Start: r.Activities[0].ServiceStart, End: r.EndTime()}
				if !b.Window.Intersects(span) {
					continue
				}
			case model.SkipIfArrivalBeforeEnd:
				if r.EndTime() < b.Window.End {
					continue
				}
			}
			mr := sol.MutableRoute(ri)
			if placeBreak(e, sol, mr, bi, b) {
				e.Pipeline.AcceptRoute(e.Problem, mr)
			}
			r = sol.Routes[ri]
		}
	}
}

func hasBreak(r *route.Route, idx int) bool {
	for _, a := range r.Activities {
		if a.Kind == route.BreakStop && a.BreakIndex == idx {
			return true
		}
	}
	return false
}

// placeBreak inserts one break at its cheapest feasible position.
func placeBreak(e *Evaluator, sol *solution.Solution, r *route.Route, idx int, b model.Break) bool {
	bestPos := -1
	bestCost := math.Inf(1)
	lo, hi := insertRange(r)
	for pos := lo; pos <= hi; pos++ {
		a := route.NewBreakActivity(idx, b)
		p, _ := e.probeActivity(sol, r, nil, a, pos)
		if p == nil {
			continue
		}
		if p.cost() < bestCost {
			bestCost = p.cost()
			bestPos = pos
		}
	}
	if bestPos < 0 {
		return false
	}
	r.Insert(bestPos, route.NewBreakActivity(idx, b))
	r.Recompute(e.Problem.Transport)
	if v := e.Pipeline.VerifyRoute(sol, r); v != nil {
		r.Remove(bestPos)
		r.Recompute(e.Problem.Transport)
		return false
	}
	sol.InvalidateScore()
	return true
}
