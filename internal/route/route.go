package route

import "vrpsolve/internal/model"

// Route is one tour of one vehicle shift: an ordered activity list plus cached
// schedule state and constraint-owned state slots.
type Route struct {
	Vehicle    model.VehicleRef
	Activities []*Activity

	// Totals, derived by Recompute.
	Distance         int64
	Duration         int64 // departure to final activity end
	ActivityDuration int64 // sum of service times only

	// latestStart[i] is the latest feasible service start at activity i given
	// every later time window and the shift end.
	latestStart []int64

	state map[string]any
}

// New builds an empty route for a vehicle shift: a departure activity plus an
// arrival activity when the shift defines an end.
func New(ref model.VehicleRef) *Route {
	sh := ref.Shift()
	dep := &Activity{
		Kind:        Departure,
		Location:    sh.Start.Location,
		HasLocation: true,
		Window:      model.TimeWindow{Start: sh.Start.Earliest, End: latestOr(sh.Start.Latest)},
	}
	r := &Route{Vehicle: ref, Activities: []*Activity{dep}}
	if sh.End != nil {
		arr := &Activity{
			Kind:        Arrival,
			Location:    sh.End.Location,
			HasLocation: true,
			Window:      model.TimeWindow{Start: sh.End.Earliest, End: latestOr(sh.End.Latest)},
		}
		r.Activities = append(r.Activities, arr)
	}
	return r
}

func latestOr(v int64) int64 {
	if v == 0 {
		return model.NoTime
	}
	return v
}

// JobActivityCount counts job-place activities.
func (r *Route) JobActivityCount() int {
	n := 0
	for _, a := range r.Activities {
		if a.Kind == JobPlace {
			n++
		}
	}
	return n
}

// IsEmpty reports whether the route serves no jobs.
func (r *Route) IsEmpty() bool { return r.JobActivityCount() == 0 }

// Jobs returns the distinct jobs served by this route in visit order.
func (r *Route) Jobs() []*model.Job {
	seen := map[string]struct{}{}
	var jobs []*model.Job
	for _, a := range r.Activities {
		if a.Kind != JobPlace {
			continue
		}
		if _, ok := seen[a.Job.ID]; ok {
			continue
		}
		seen[a.Job.ID] = struct{}{}
		jobs = append(jobs, a.Job)
	}
	return jobs
}

// HasJob reports whether the route serves the given job.
func (r *Route) HasJob(id string) bool {
	for _, a := range r.Activities {
		if a.Kind == JobPlace && a.Job.ID == id {
			return true
		}
	}
	return false
}

// ActivityIndices returns the positions of all activities of a job.
func (r *Route) ActivityIndices(jobID string) []int {
	var out []int
	for i, a := range r.Activities {
		if a.Kind == JobPlace && a.Job.ID == jobID {
			out = append(out, i)
		}
	}
	return out
}

// Insert places an activity at position pos. The caller must Recompute before
// reading any schedule state.
func (r *Route) Insert(pos int, a *Activity) {
	r.Activities = append(r.Activities, nil)
	copy(r.Activities[pos+1:], r.Activities[pos:])
	r.Activities[pos] = a
}

// Remove deletes and returns the activity at pos.
func (r *Route) Remove(pos int) *Activity {
	a := r.Activities[pos]
	r.Activities = append(r.Activities[:pos], r.Activities[pos+1:]...)
	return a
}

// RemoveJob drops every activity of a job, returning how many were removed.
func (r *Route) RemoveJob(jobID string) int {
	kept := r.Activities[:0]
	removed := 0
	for _, a := range r.Activities {
		if a.Kind == JobPlace && a.Job.ID == jobID {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	r.Activities = kept
	return removed
}

// Trips returns [start,end) activity index ranges separated by reloads. The
// reload activity itself begins the following trip.
func (r *Route) Trips() [][2]int {
	var trips [][2]int
	start := 0
	for i, a := range r.Activities {
		if a.Kind == ReloadStop {
			trips = append(trips, [2]int{start, i})
			start = i
		}
	}
	trips = append(trips, [2]int{start, len(r.Activities)})
	return trips
}

// TripOf returns the [start,end) range of the trip containing position pos.
func (r *Route) TripOf(pos int) (int, int) {
	for _, t := range r.Trips() {
		if pos >= t[0] && pos < t[1] {
			return t[0], t[1]
		}
	}
	return 0, len(r.Activities)
}

// LocationAt resolves the effective location of position i; location-less
// breaks inherit the previous stop's location.
func (r *Route) LocationAt(i int) model.Location {
	for ; i > 0; i-- {
		if r.Activities[i].HasLocation {
			break
		}
	}
	return r.Activities[i].Location
}

// LatestStart returns the backward-slack bound for position i.
func (r *Route) LatestStart(i int) int64 {
	if i < len(r.latestStart) {
		return r.latestStart[i]
	}
	return model.NoTime
}

// EndTime is the service end of the final activity.
func (r *Route) EndTime() int64 {
	if len(r.Activities) == 0 {
		return 0
	}
	return r.Activities[len(r.Activities)-1].ServiceEnd
}

// State returns a constraint-owned slot.
func (r *Route) State(key string) (any, bool) {
	v, ok := r.state[key]
	return v, ok
}

// SetState stores a constraint-owned slot.
func (r *Route) SetState(key string, v any) {
	if r.state == nil {
		r.state = map[string]any{}
	}
	r.state[key] = v
}

// Clone deep-copies the route. State slots are copied by reference: values are
// opaque to everyone but the owning constraint, which rebuilds them on accept.
func (r *Route) Clone() *Route {
	out := &Route{
		Vehicle:          r.Vehicle,
		Activities:       make([]*Activity, len(r.Activities)),
		Distance:         r.Distance,
		Duration:         r.Duration,
		ActivityDuration: r.ActivityDuration,
	}
	for i, a := range r.Activities {
		out.Activities[i] = a.Clone()
	}
	if len(r.latestStart) > 0 {
		out.latestStart = append([]int64(nil), r.latestStart...)
	}
	if len(r.state) > 0 {
		out.state = make(map[string]any, len(r.state))
		for k, v := range r.state {
			out.state[k] = v
		}
	}
	return out
}
