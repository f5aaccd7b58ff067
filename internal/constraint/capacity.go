package constraint

import (
	"vrpsolve/internal/model"
	"vrpsolve/internal/route"
	"vrpsolve/internal/solution"
)

// Capacity keeps every trip's load curve within vehicle bounds. Deliveries are
// preloaded at the trip start, so inserting one raises the curve before its
// position; pickups raise it after.
type Capacity struct {
	Base
}

func NewCapacity() *Capacity { return &Capacity{} }

func (*Capacity) Name() string { return "capacity" }
func (*Capacity) Kind() Kind   { return Hard }

func (*Capacity) EvaluateRoute(_ *solution.Solution, r *route.Route, j *model.Job) *Violation {
	cap := r.Vehicle.Type.Capacity
	if j == nil {
		for _, trip := range r.Trips() {
			load := tripInitialLoad(r, trip[0], trip[1])
			if !load.Fits(cap) {
				return &Violation{Code: CodeReloadCapacity}
			}
			for k := trip[0]; k < trip[1]; k++ {
				if !r.Activities[k].Load.Fits(cap) {
					return &Violation{Code: CodeCapacity}
				}
			}
		}
		return nil
	}
	for _, t := range j.Tasks {
		if !t.Demand.LessOrEqual(cap) {
			return &Violation{Code: CodeCapacity}
		}
	}
	return nil
}

func (*Capacity) EvaluateActivity(mc *MoveContext) *Violation {
	t := mc.Target.Task()
	if t == nil || t.Demand.IsZero() {
		return nil
	}
	r := mc.Route
	cap := r.Vehicle.Type.Capacity
	// The probed gap sits between Position-1 and Position; the new activity
	// joins the trip of its predecessor (an insert right before a reload still
	// belongs to the earlier trip).
	s, e := r.TripOf(mc.Position - 1)

	switch t.Kind {
	case model.TaskDelivery:
		// Curve rises by the demand everywhere before the insertion point,
		// including the preloaded trip start.
		init := tripInitialLoad(r, s, e).Add(t.Demand)
		if !init.Fits(cap) {
			return &Violation{Code: CodeCapacity}
		}
		for i := s; i < mc.Position && i < e; i++ {
			if !r.Activities[i].Load.Add(t.Demand).Fits(cap) {
				return &Violation{Code: CodeCapacity}
			}
		}
	case model.TaskPickup:
		// Curve rises by the demand from the insertion point to the trip end.
		before := loadBefore(r, mc.Position, s, e)
		if !before.Add(t.Demand).Fits(cap) {
			return &Violation{Code: CodeCapacity}
		}
		for i := mc.Position; i < e; i++ {
			if !r.Activities[i].Load.Add(t.Demand).Fits(cap) {
				return &Violation{Code: CodeCapacity}
			}
		}
	case model.TaskReplacement:
		// Occupies capacity only during the visit.
		before := loadBefore(r, mc.Position, s, e)
		if !before.Add(t.Demand).Fits(cap) {
			return &Violation{Code: CodeCapacity}
		}
	}
	return nil
}

// loadBefore returns the curve value just before position pos in trip [s,e).
func loadBefore(r *route.Route, pos, s, e int) model.Demand {
	if pos <= s {
		return tripInitialLoad(r, s, e)
	}
	idx := pos - 1
	if idx >= e {
		idx = e - 1
	}
	return r.Activities[idx].Load
}

func tripInitialLoad(r *route.Route, s, e int) model.Demand {
	var init model.Demand
	for i := s; i < e; i++ {
		if t := r.Activities[i].Task(); t != nil && t.Kind == model.TaskDelivery {
			init = init.Add(t.Demand)
		}
	}
	if init == nil {
		init = model.Demand{}
	}
	return init
}

