package search

import (
	"math/rand"
	"sort"

	"vrpsolve/internal/model"
	"vrpsolve/internal/objective"
	"vrpsolve/internal/solution"
)

// Ruin removes a slice of assigned jobs, producing a partial solution for the
// recreate phase. Implementations must keep sync groups and job groups whole:
// a partial group may never rest on routes.
type Ruin interface {
	Name() string
	Apply(e *Evaluator, sol *solution.Solution, rng *rand.Rand, k int)
}

// RandomRuin removes k uniformly sampled jobs.
type RandomRuin struct{}

func (RandomRuin) Name() string { return "random" }

func (RandomRuin) Apply(e *Evaluator, sol *solution.Solution, rng *rand.Rand, k int) {
	assigned := assignedJobs(sol)
	rng.Shuffle(len(assigned), func(i, j int) { assigned[i], assigned[j] = assigned[j], assigned[i] })
	if len(assigned) > k {
		assigned = assigned[:k]
	}
	removeJobs(e, sol, assigned)
}

// ClusterRuin removes a seed job and its geographic neighborhood by routing
// distance.
type ClusterRuin struct{}

func (ClusterRuin) Name() string { return "cluster" }

func (ClusterRuin) Apply(e *Evaluator, sol *solution.Solution, rng *rand.Rand, k int) {
	assigned := assignedJobs(sol)
	if len(assigned) == 0 {
		return
	}
	seed := assigned[rng.Intn(len(assigned))]
	seedLoc := jobLocation(seed)
	profile := anyProfile(e.Problem)
	sort.Slice(assigned, func(a, b int) bool {
		da := e.Problem.Transport.Distance(profile, seedLoc, jobLocation(assigned[a]))
		db := e.Problem.Transport.Distance(profile, seedLoc, jobLocation(assigned[b]))
		return da < db
	})
	if len(assigned) > k {
		assigned = assigned[:k]
	}
	removeJobs(e, sol, assigned)
}

// WorstRuin removes the jobs whose in-place marginal cost is highest.
type WorstRuin struct{}

func (WorstRuin) Name() string { return "worst" }

func (WorstRuin) Apply(e *Evaluator, sol *solution.Solution, _ *rand.Rand, k int) {
	type scored struct {
		job  *model.Job
		gain int64
	}
	var jobs []scored
	for _, r := range sol.Routes {
		for _, j := range r.Jobs() {
			var gain int64
			for _, idx := range r.ActivityIndices(j.ID) {
				if idx == 0 || idx >= len(r.Activities)-1 {
					continue
				}
				prev := r.LocationAt(idx - 1)
				cur := r.LocationAt(idx)
				next := r.LocationAt(idx + 1)
				dIn, _ := r.Travel(e.Problem.Transport, prev, cur)
				dOut, _ := r.Travel(e.Problem.Transport, cur, next)
				dSkip, _ := r.Travel(e.Problem.Transport, prev, next)
				gain += dIn + dOut - dSkip
			}
			jobs = append(jobs, scored{job: j, gain: gain})
		}
	}
	sort.Slice(jobs, func(a, b int) bool { return jobs[a].gain > jobs[b].gain })
	picked := make([]*model.Job, 0, k)
	for _, s := range jobs {
		if len(picked) == k {
			break
		}
		picked = append(picked, s.job)
	}
	removeJobs(e, sol, picked)
}

// RelatedRuin removes jobs most related to a random seed: a weighted blend of
// routing distance, time-window proximity, demand similarity and shared skill
// requirements.
type RelatedRuin struct{}

func (RelatedRuin) Name() string { return "related" }

func (RelatedRuin) Apply(e *Evaluator, sol *solution.Solution, rng *rand.Rand, k int) {
	assigned := assignedJobs(sol)
	if len(assigned) == 0 {
		return
	}
	seed := assigned[rng.Intn(len(assigned))]
	profile := anyProfile(e.Problem)
	seedLoc := jobLocation(seed)
	seedStart := jobWindowStart(seed)
	seedDemand := jobDemandTotal(seed)

	related := func(j *model.Job) float64 {
		dist := float64(e.Problem.Transport.Distance(profile, seedLoc, jobLocation(j)))
		tw := float64(abs64(jobWindowStart(j) - seedStart))
		dem := float64(abs64(jobDemandTotal(j) - seedDemand))
		skills := 0.0
		if !sameSkills(seed, j) {
			skills = 1
		}
		return dist + 0.2*tw + 10*dem + 1000*skills
	}
	sort.Slice(assigned, func(a, b int) bool { return related(assigned[a]) < related(assigned[b]) })
	if len(assigned) > k {
		assigned = assigned[:k]
	}
	removeJobs(e, sol, assigned)
}

// RouteRuin empties the cheapest active route entirely.
type RouteRuin struct{}

func (RouteRuin) Name() string { return "route" }

func (RouteRuin) Apply(e *Evaluator, sol *solution.Solution, _ *rand.Rand, _ int) {
	best := -1
	bestCost := 0.0
	for i, r := range sol.Routes {
		if r.IsEmpty() {
			continue
		}
		c := objective.RouteCost(r)
		if best < 0 || c < bestCost {
			best = i
			bestCost = c
		}
	}
	if best < 0 {
		return
	}
	removeJobs(e, sol, sol.Routes[best].Jobs())
}

// removeJobs evicts the selected jobs plus whatever their sync groups and job
// groups pull in, then refreshes solution-level constraint state once.
func removeJobs(e *Evaluator, sol *solution.Solution, jobs []*model.Job) {
	if len(jobs) == 0 {
		return
	}
	seen := map[string]struct{}{}
	var expanded []*model.Job
	add := func(j *model.Job) {
		if _, ok := seen[j.ID]; ok {
			return
		}
		seen[j.ID] = struct{}{}
		expanded = append(expanded, j)
	}
	for _, j := range jobs {
		add(j)
		if j.Sync != nil {
			for _, m := range syncMembers(e.Problem, j.Sync.Key) {
				add(m)
			}
		}
		if j.Group != "" {
			for _, m := range groupMembers(e.Problem, j.Group) {
				add(m)
			}
		}
	}
	for _, j := range expanded {
		e.Evict(sol, j)
	}
	e.Pipeline.AcceptSolution(e.Problem, sol)
}

func assignedJobs(sol *solution.Solution) []*model.Job {
	var out []*model.Job
	for _, r := range sol.Routes {
		out = append(out, r.Jobs()...)
	}
	return out
}

func jobLocation(j *model.Job) model.Location {
	return j.Tasks[0].Places[0].Location
}

func jobWindowStart(j *model.Job) int64 {
	return j.Tasks[0].Places[0].Windows()[0].Start
}

func jobDemandTotal(j *model.Job) int64 {
	var total int64
	for _, t := range j.Tasks {
		if t.Kind == model.TaskPickup || t.Kind == model.TaskDelivery {
			total += t.Demand.Total()
		}
	}
	return total
}

func sameSkills(a, b *model.Job) bool {
	if (a.Skills == nil) != (b.Skills == nil) {
		return false
	}
	if a.Skills == nil {
		return true
	}
	return len(a.Skills.AllOf) == len(b.Skills.AllOf) &&
		len(a.Skills.OneOf) == len(b.Skills.OneOf) &&
		len(a.Skills.NoneOf) == len(b.Skills.NoneOf)
}

func anyProfile(p *model.Problem) string {
	if len(p.Fleet.Types) > 0 {
		return p.Fleet.Types[0].Profile
	}
	return ""
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
