package route

import "vrpsolve/internal/model"

// Travel resolves the scaled travel between two locations for this route's
// vehicle profile.
func (r *Route) Travel(tr model.Transport, from, to model.Location) (dist, dur int64) {
	if from == to {
		return 0, 0
	}
	t := r.Vehicle.Type
	dist = tr.Distance(t.Profile, from, to)
	dur = int64(float64(tr.Duration(t.Profile, from, to)) * t.Scale())
	return dist, dur
}

// Recompute rebuilds the forward schedule, per-trip capacity curves, totals and
// backward slack. Cost is O(activities); every mutation must be followed by a
// Recompute before schedule state is read.
func (r *Route) Recompute(tr model.Transport) {
	n := len(r.Activities)
	if n == 0 {
		return
	}

	// Resolve effective locations first: location-less breaks stick to the
	// previous stop.
	locs := make([]model.Location, n)
	locs[0] = r.Activities[0].Location
	for i := 1; i < n; i++ {
		a := r.Activities[i]
		if a.HasLocation {
			locs[i] = a.Location
		} else {
			locs[i] = locs[i-1]
		}
	}

	first := r.Activities[0]
	first.Arrival = first.Window.Start
	first.Waiting = 0
	first.ServiceStart = first.Arrival
	first.ServiceEnd = first.ServiceStart + first.Duration
	r.Distance = 0
	r.ActivityDuration = 0
	for i := 1; i < n; i++ {
		a := r.Activities[i]
		dist, dur := r.Travel(tr, locs[i-1], locs[i])
		prev := r.Activities[i-1]
		a.Arrival = prev.ServiceEnd + dur
		a.ServiceStart = a.Arrival
		if a.Window.Start > a.ServiceStart {
			a.ServiceStart = a.Window.Start
		}
		a.Waiting = a.ServiceStart - a.Arrival
		a.ServiceEnd = a.ServiceStart + a.Duration
		r.Distance += dist
	}
	for _, a := range r.Activities {
		if a.Kind == JobPlace {
			r.ActivityDuration += a.Duration
		}
	}
	r.Duration = r.Activities[n-1].ServiceEnd - first.ServiceStart

	r.recomputeLoads()
	r.recomputeSlack(tr, locs)
}

// recomputeLoads rebuilds the capacity curve. Each trip starts preloaded with
// the sum of its delivery demands; pickups raise the load, deliveries lower it.
func (r *Route) recomputeLoads() {
	for _, trip := range r.Trips() {
		init := r.tripInitialLoad(trip[0], trip[1])
		load := init.Clone()
		for i := trip[0]; i < trip[1]; i++ {
			a := r.Activities[i]
			if delta := a.LoadDelta(); delta != nil {
				load = load.Add(delta)
			}
			a.Load = load.Clone()
		}
	}
}

// tripInitialLoad sums the delivery demand of job activities inside [start,end).
func (r *Route) tripInitialLoad(start, end int) model.Demand {
	var init model.Demand
	for i := start; i < end; i++ {
		a := r.Activities[i]
		if t := a.Task(); t != nil && t.Kind == model.TaskDelivery {
			init = init.Add(t.Demand)
		}
	}
	if init == nil {
		init = model.Demand{}
	}
	return init
}

// recomputeSlack rebuilds latestStart right-to-left so per-position insertion
// probes stay O(1).
func (r *Route) recomputeSlack(tr model.Transport, locs []model.Location) {
	n := len(r.Activities)
	if cap(r.latestStart) < n {
		r.latestStart = make([]int64, n)
	}
	r.latestStart = r.latestStart[:n]

	r.latestStart[n-1] = r.Activities[n-1].Window.End
	for i := n - 2; i >= 0; i-- {
		a := r.Activities[i]
		_, dur := r.Travel(tr, locs[i], locs[i+1])
		bound := subSat(r.latestStart[i+1], dur+a.Duration)
		if a.Window.End < bound {
			bound = a.Window.End
		}
		r.latestStart[i] = bound
	}
}

// subSat subtracts without wrapping past the open-time sentinel.
func subSat(t, d int64) int64 {
	if t == model.NoTime {
		return model.NoTime
	}
	return t - d
}

// Feasible reports whether every activity can start service within its window.
// Capacity and limit checks live in the constraint pack.
func (r *Route) Feasible() bool {
	for _, a := range r.Activities {
		if a.ServiceStart > a.Window.End {
			return false
		}
	}
	return true
}
