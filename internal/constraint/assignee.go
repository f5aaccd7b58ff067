package constraint

import (
	"vrpsolve/internal/model"
	"vrpsolve/internal/route"
	"vrpsolve/internal/solution"
)

const assigneeStateKey = "assignee.vehicles"

// SameAssignee pins jobs sharing an assignee key to one vehicle id across all
// of its shifts. No ordering or timing is implied.
type SameAssignee struct {
	Base
}

func NewSameAssignee() *SameAssignee { return &SameAssignee{} }

func (*SameAssignee) Name() string { return "same-assignee" }
func (*SameAssignee) Kind() Kind   { return Hard }

func assigneeVehicles(s *solution.Solution) map[string]string {
	if v, ok := s.State(assigneeStateKey); ok {
		return v.(map[string]string)
	}
	return nil
}

func (*SameAssignee) EvaluateRoute(s *solution.Solution, r *route.Route, j *model.Job) *Violation {
	if j == nil || j.SameAssignee == "" {
		return nil
	}
	if v, ok := assigneeVehicles(s)[j.SameAssignee]; ok && v != r.Vehicle.VehicleID {
		return &Violation{Code: CodeSameAssignee}
	}
	return nil
}

func (*SameAssignee) OnInsert(_ *model.Problem, s *solution.Solution, routeIdx int, j *model.Job) {
	if j.SameAssignee == "" {
		return
	}
	m := assigneeVehicles(s)
	if m == nil {
		m = map[string]string{}
	} else {
		m = copyStringMap(m)
	}
	m[j.SameAssignee] = s.Routes[routeIdx].Vehicle.VehicleID
	s.SetState(assigneeStateKey, m)
}

func (*SameAssignee) AcceptSolution(_ *model.Problem, s *solution.Solution) {
	m := map[string]string{}
	for _, r := range s.Routes {
		for _, j := range r.Jobs() {
			if j.SameAssignee != "" {
				m[j.SameAssignee] = r.Vehicle.VehicleID
			}
		}
	}
	s.SetState(assigneeStateKey, m)
}
