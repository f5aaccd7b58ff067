package constraint

import (
	"vrpsolve/internal/model"
	"vrpsolve/internal/route"
	"vrpsolve/internal/solution"
)

// lineTransport puts locations on a line with unit distance and duration.
type lineTransport struct{}

func (lineTransport) Distance(_ string, a, b model.Location) int64 {
	d := int64(a - b)
	if d < 0 {
		d = -d
	}
	return d
}

func (lineTransport) Duration(profile string, a, b model.Location) int64 {
	return lineTransport{}.Distance(profile, a, b)
}

func testProblem(jobs []*model.Job, vehicles int) *model.Problem {
	ids := make([]string, vehicles)
	for i := range ids {
		ids[i] = "v" + string(rune('1'+i))
	}
	return &model.Problem{
		Jobs: jobs,
		Fleet: model.Fleet{Types: []*model.VehicleType{{
			TypeID:     "van",
			VehicleIDs: ids,
			Profile:    "car",
			Capacity:   model.Demand{10},
			Costs:      model.CostSchedule{PerDistance: model.FixedCost(1)},
			Shifts: []model.Shift{{
				Start: model.ShiftPoint{Location: 0, Earliest: 0},
				End:   &model.ShiftPoint{Location: 0, Latest: 100000},
			}},
		}}},
		Transport: lineTransport{},
	}
}

func deliveryJob(id string, loc model.Location, demand int64) *model.Job {
	return &model.Job{ID: id, Tasks: []model.Task{{
		Kind:   model.TaskDelivery,
		Demand: model.Demand{demand},
		Places: []model.Place{{Location: loc, Duration: 10}},
	}}}
}

func newJobAct(j *model.Job) *route.Activity {
	return route.NewJobActivity(j, 0, 0, j.Tasks[0].Places[0].Windows()[0])
}

func newReloadAt(p *model.Problem, idx int) *route.Activity {
	return route.NewReloadActivity(idx, p.Fleet.Types[0].Shifts[0].Reloads[idx])
}

// place puts a job's single task at the end of a route and refreshes all state.
func place(p *model.Problem, pipe *Pipeline, sol *solution.Solution, routeIdx int, j *model.Job) {
	r := sol.Routes[routeIdx]
	pos := len(r.Activities) - 1
	for ti := range j.Tasks {
		w := j.Tasks[ti].Places[0].Windows()[0]
		r.Insert(pos, route.NewJobActivity(j, ti, 0, w))
		pos++
	}
	r.Recompute(p.Transport)
	pipe.AcceptRoute(p, r)
	sol.ClearUnassigned(j.ID)
	pipe.OnInsert(p, sol, routeIdx, j)
}

func moveCtxFor(p *model.Problem, sol *solution.Solution, routeIdx int, j *model.Job, taskIdx, pos int) *MoveContext {
	r := sol.Routes[routeIdx]
	w := j.Tasks[taskIdx].Places[0].Windows()[0]
	a := route.NewJobActivity(j, taskIdx, 0, w)
	prev := r.Activities[pos-1]
	var next *route.Activity
	if pos < len(r.Activities) {
		next = r.Activities[pos]
	}
	_, durIn := r.Travel(p.Transport, r.LocationAt(pos-1), a.Location)
	arrival := prev.ServiceEnd + durIn
	start := arrival
	if w.Start > start {
		start = w.Start
	}
	mc := &MoveContext{
		Problem:      p,
		Solution:     sol,
		Route:        r,
		Job:          j,
		Position:     pos,
		Target:       a,
		Prev:         prev,
		Next:         next,
		Arrival:      arrival,
		ServiceStart: start,
		ServiceEnd:   start + a.Duration,
	}
	if next != nil {
		_, durOut := r.Travel(p.Transport, a.Location, r.LocationAt(pos))
		mc.NextArrival = mc.ServiceEnd + durOut
	}
	return mc
}
