package constraint

import (
	"vrpsolve/internal/model"
	"vrpsolve/internal/route"
	"vrpsolve/internal/solution"
)

// Violation codes for the built-in pack. They surface as unassignment reasons.
const (
	CodeTimeWindow       = "TIME_WINDOW"
	CodeCapacity         = "CAPACITY"
	CodeSkills           = "SKILLS"
	CodeMaxDistance      = "MAX_DISTANCE"
	CodeMaxDuration      = "MAX_DURATION"
	CodeMaxActivityTime  = "MAX_ACTIVITY_DURATION"
	CodeTourSize         = "TOUR_SIZE"
	CodeGroup            = "GROUP"
	CodeCompatibility    = "COMPATIBILITY"
	CodeCoupling         = "COUPLING"
	CodeTaskOrder        = "TASK_ORDER"
	CodeReloadCapacity   = "RELOAD_CAPACITY"
	CodeSharedResource   = "SHARED_RESOURCE"
	CodeSameAssignee     = "SAME_ASSIGNEE"
	CodeAffinity         = "AFFINITY"
	CodeSync             = "SYNC"
)

// Time enforces activity time windows and shift-end feasibility. The schedule
// itself is the state; it is maintained by route.Recompute, so this constraint
// only reads the probe estimates and the backward slack.
type Time struct {
	Base
}

func NewTime() *Time { return &Time{} }

func (*Time) Name() string { return "time" }
func (*Time) Kind() Kind   { return Hard }

func (*Time) EvaluateRoute(_ *solution.Solution, r *route.Route, j *model.Job) *Violation {
	if j == nil {
		if !r.Feasible() {
			return &Violation{Code: CodeTimeWindow}
		}
		return nil
	}
	// Quick reject: the job must have at least one window intersecting the shift.
	sh := r.Vehicle.Shift()
	shiftEnd := model.NoTime
	if sh.End != nil && sh.End.Latest != 0 {
		shiftEnd = sh.End.Latest
	}
	span := model.TimeWindow{Start: sh.Start.Earliest, End: shiftEnd}
	for _, t := range j.Tasks {
		ok := false
		for _, pl := range t.Places {
			for _, w := range pl.Windows() {
				if w.Intersects(span) {
					ok = true
					break
				}
			}
		}
		if !ok {
			return &Violation{Code: CodeTimeWindow}
		}
	}
	return nil
}

func (*Time) EvaluateActivity(mc *MoveContext) *Violation {
	if mc.ServiceStart > mc.Target.Window.End {
		return &Violation{Code: CodeTimeWindow}
	}
	if mc.Next != nil {
		// The pushed-back successor must still meet its backward slack bound.
		arrival := mc.NextArrival
		if mc.Next.Window.Start > arrival {
			arrival = mc.Next.Window.Start
		}
		if arrival > mc.Route.LatestStart(mc.Position) {
			return &Violation{Code: CodeTimeWindow}
		}
	}
	return nil
}
