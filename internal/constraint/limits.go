package constraint

import (
	"vrpsolve/internal/model"
	"vrpsolve/internal/route"
	"vrpsolve/internal/solution"
)

// Limits enforces per-tour extent caps: distance, duration, activity duration
// and tour size. Zero limits mean unlimited.
type Limits struct {
	Base
}

func NewLimits() *Limits { return &Limits{} }

func (*Limits) Name() string { return "limits" }
func (*Limits) Kind() Kind   { return Hard }

func (*Limits) EvaluateRoute(_ *solution.Solution, r *route.Route, j *model.Job) *Violation {
	l := r.Vehicle.Type.Limits
	if j == nil {
		if l.MaxDistance > 0 && r.Distance > l.MaxDistance {
			return &Violation{Code: CodeMaxDistance}
		}
		if l.MaxDuration > 0 && r.Duration > l.MaxDuration {
			return &Violation{Code: CodeMaxDuration}
		}
		if l.MaxActivityDuration > 0 && r.ActivityDuration > l.MaxActivityDuration {
			return &Violation{Code: CodeMaxActivityTime}
		}
		if l.TourSize > 0 && r.JobActivityCount() > l.TourSize {
			return &Violation{Code: CodeTourSize}
		}
		return nil
	}
	if l.TourSize > 0 && r.JobActivityCount()+len(j.Tasks) > l.TourSize {
		return &Violation{Code: CodeTourSize}
	}
	return nil
}

func (*Limits) EvaluateActivity(mc *MoveContext) *Violation {
	l := mc.Route.Vehicle.Type.Limits
	if l.MaxDistance > 0 && mc.Route.Distance+mc.DistanceDelta > l.MaxDistance {
		return &Violation{Code: CodeMaxDistance}
	}
	if l.MaxDuration > 0 && mc.Route.Duration+mc.DurationDelta > l.MaxDuration {
		return &Violation{Code: CodeMaxDuration}
	}
	if l.MaxActivityDuration > 0 && mc.Target.Kind == route.JobPlace &&
		mc.Route.ActivityDuration+mc.Target.Duration > l.MaxActivityDuration {
		return &Violation{Code: CodeMaxActivityTime}
	}
	return nil
}
