package constraint

import (
	"vrpsolve/internal/model"
	"vrpsolve/internal/route"
	"vrpsolve/internal/solution"
)

// Skills matches a job's skill expression against the vehicle's skill set.
type Skills struct {
	Base
}

func NewSkills() *Skills { return &Skills{} }

func (*Skills) Name() string { return "skills" }
func (*Skills) Kind() Kind   { return Hard }

func (*Skills) EvaluateRoute(_ *solution.Solution, r *route.Route, j *model.Job) *Violation {
	if j == nil || j.Skills == nil {
		return nil
	}
	if !j.Skills.Matches(r.Vehicle.Type.SkillSet()) {
		return &Violation{Code: CodeSkills}
	}
	return nil
}
