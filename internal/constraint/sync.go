package constraint

import (
	"vrpsolve/internal/model"
	"vrpsolve/internal/route"
	"vrpsolve/internal/solution"
)

const syncStateKey = "sync.groups"

type syncMember struct {
	vehicleID    string
	serviceStart int64
	tolerance    int64
}

type syncGroup struct {
	required int
	members  map[int]syncMember // sync index -> placement
}

type syncGroups map[string]*syncGroup

// Sync coordinates jobs that must execute on distinct vehicles within a time
// tolerance. Feasibility of one member depends on tentatively placed members,
// so the state lives at solution level; atomic commit and rollback of whole
// groups is owned by the recreate layer.
type Sync struct {
	Base
}

func NewSync() *Sync { return &Sync{} }

func (*Sync) Name() string { return "sync" }
func (*Sync) Kind() Kind   { return Hard }

func syncState(s *solution.Solution) syncGroups {
	if v, ok := s.State(syncStateKey); ok {
		return v.(syncGroups)
	}
	return nil
}

func (*Sync) EvaluateRoute(s *solution.Solution, r *route.Route, j *model.Job) *Violation {
	if j == nil || j.Sync == nil {
		return nil
	}
	g := syncState(s)[j.Sync.Key]
	if g == nil {
		return nil
	}
	if len(g.members) >= g.required {
		return &Violation{Code: CodeSync}
	}
	if _, dup := g.members[j.Sync.Index]; dup {
		return &Violation{Code: CodeSync}
	}
	// Members must ride distinct vehicles; one vehicle may still serve other
	// sync groups.
	for _, m := range g.members {
		if m.vehicleID == r.Vehicle.VehicleID {
			return &Violation{Code: CodeSync}
		}
	}
	return nil
}

func (*Sync) EvaluateActivity(mc *MoveContext) *Violation {
	// Conservative rule: an optional break may not squeeze in right before a
	// sync member, where it would stretch the member's arrival-to-start gap.
	if mc.Target.Kind == route.BreakStop && mc.Next != nil &&
		mc.Next.Kind == route.JobPlace && mc.Next.Job.Sync != nil {
		return &Violation{Code: CodeSync}
	}
	if mc.Job == nil || mc.Job.Sync == nil || mc.Target.Kind != route.JobPlace {
		return nil
	}
	g := syncState(mc.Solution)[mc.Job.Sync.Key]
	if g == nil || len(g.members) == 0 {
		return nil
	}
	tol := mc.Job.Sync.Tolerance
	for _, m := range g.members {
		if m.tolerance < tol {
			tol = m.tolerance
		}
	}
	for _, m := range g.members {
		diff := mc.ServiceStart - m.serviceStart
		if diff < 0 {
			diff = -diff
		}
		if diff > tol {
			return &Violation{Code: CodeSync}
		}
	}
	return nil
}

func (*Sync) OnInsert(_ *model.Problem, s *solution.Solution, routeIdx int, j *model.Job) {
	if j.Sync == nil {
		return
	}
	r := s.Routes[routeIdx]
	start, ok := jobServiceStart(r, j.ID)
	if !ok {
		return
	}
	groups := syncState(s)
	next := make(syncGroups, len(groups)+1)
	for k, v := range groups {
		next[k] = v
	}
	g := next[j.Sync.Key]
	if g == nil {
		g = &syncGroup{required: j.Sync.VehiclesRequired, members: map[int]syncMember{}}
	} else {
		cp := &syncGroup{required: g.required, members: make(map[int]syncMember, len(g.members)+1)}
		for k, v := range g.members {
			cp.members[k] = v
		}
		g = cp
	}
	g.members[j.Sync.Index] = syncMember{
		vehicleID:    r.Vehicle.VehicleID,
		serviceStart: start,
		tolerance:    j.Sync.Tolerance,
	}
	next[j.Sync.Key] = g
	s.SetState(syncStateKey, next)
}

func (*Sync) AcceptSolution(_ *model.Problem, s *solution.Solution) {
	groups := syncGroups{}
	for _, r := range s.Routes {
		for _, j := range r.Jobs() {
			if j.Sync == nil {
				continue
			}
			start, ok := jobServiceStart(r, j.ID)
			if !ok {
				continue
			}
			g := groups[j.Sync.Key]
			if g == nil {
				g = &syncGroup{required: j.Sync.VehiclesRequired, members: map[int]syncMember{}}
				groups[j.Sync.Key] = g
			}
			g.members[j.Sync.Index] = syncMember{
				vehicleID:    r.Vehicle.VehicleID,
				serviceStart: start,
				tolerance:    j.Sync.Tolerance,
			}
		}
	}
	s.SetState(syncStateKey, groups)
}

// jobServiceStart reads the scheduled service start of a job's first activity.
func jobServiceStart(r *route.Route, jobID string) (int64, bool) {
	for _, a := range r.Activities {
		if a.Kind == route.JobPlace && a.Job.ID == jobID {
			return a.ServiceStart, true
		}
	}
	return 0, false
}
