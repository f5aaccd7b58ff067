package constraint

import (
	"fmt"

	"vrpsolve/internal/model"
	"vrpsolve/internal/route"
	"vrpsolve/internal/solution"
)

const groupStateKey = "group.assignments"

// routeKey identifies a tour resource independently of route cloning.
func routeKey(r *route.Route) string {
	return fmt.Sprintf("%s#%d", r.Vehicle.VehicleID, r.Vehicle.ShiftIndex)
}

// Group forces jobs sharing a group onto one tour. The all-or-unassigned half
// of the invariant is owned by the recreate layer.
type Group struct {
	Base
}

func NewGroup() *Group { return &Group{} }

func (*Group) Name() string { return "group" }
func (*Group) Kind() Kind   { return Hard }

func groupAssignments(s *solution.Solution) map[string]string {
	if v, ok := s.State(groupStateKey); ok {
		return v.(map[string]string)
	}
	return nil
}

func (*Group) EvaluateRoute(s *solution.Solution, r *route.Route, j *model.Job) *Violation {
	if j == nil || j.Group == "" {
		return nil
	}
	if assigned, ok := groupAssignments(s)[j.Group]; ok && assigned != routeKey(r) {
		return &Violation{Code: CodeGroup}
	}
	return nil
}

func (*Group) OnInsert(_ *model.Problem, s *solution.Solution, routeIdx int, j *model.Job) {
	if j.Group == "" {
		return
	}
	m := groupAssignments(s)
	if m == nil {
		m = map[string]string{}
	} else {
		m = copyStringMap(m)
	}
	m[j.Group] = routeKey(s.Routes[routeIdx])
	s.SetState(groupStateKey, m)
}

func (*Group) AcceptSolution(_ *model.Problem, s *solution.Solution) {
	m := map[string]string{}
	for _, r := range s.Routes {
		for _, j := range r.Jobs() {
			if j.Group != "" {
				m[j.Group] = routeKey(r)
			}
		}
	}
	s.SetState(groupStateKey, m)
}

// State slots are shared by reference across clones, so incremental updates
// copy before writing.
func copyStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
