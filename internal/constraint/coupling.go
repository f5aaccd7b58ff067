package constraint

import (
	"vrpsolve/internal/model"
	"vrpsolve/internal/route"
	"vrpsolve/internal/solution"
)

// Coupling keeps every pickup of a job before every delivery of the same job
// within one trip. The all-or-none half of the invariant is owned by the
// recreate layer, which rolls back partially inserted jobs.
type Coupling struct {
	Base
}

func NewCoupling() *Coupling { return &Coupling{} }

func (*Coupling) Name() string { return "coupling" }
func (*Coupling) Kind() Kind   { return Hard }

func (*Coupling) EvaluateRoute(_ *solution.Solution, r *route.Route, j *model.Job) *Violation {
	if j != nil {
		return nil
	}
	// Post-mutation verification: pickup-before-delivery per job, per trip.
	for _, trip := range r.Trips() {
		lastPickup := map[string]int{}
		firstDelivery := map[string]int{}
		for i := trip[0]; i < trip[1]; i++ {
			t := r.Activities[i].Task()
			if t == nil {
				continue
			}
			id := r.Activities[i].Job.ID
			switch t.Kind {
			case model.TaskPickup:
				lastPickup[id] = i
			case model.TaskDelivery:
				if _, ok := firstDelivery[id]; !ok {
					firstDelivery[id] = i
				}
			}
		}
		for id, p := range lastPickup {
			if d, ok := firstDelivery[id]; ok && d < p {
				return &Violation{Code: CodeCoupling}
			}
		}
	}
	return nil
}

func (*Coupling) EvaluateActivity(mc *MoveContext) *Violation {
	t := mc.Target.Task()
	if t == nil {
		return nil
	}
	r := mc.Route
	s, e := r.TripOf(mc.Position - 1)
	switch t.Kind {
	case model.TaskPickup:
		// No delivery of the same job may already sit before the probe.
		for i := s; i < mc.Position && i < e; i++ {
			if o := r.Activities[i].Task(); o != nil && o.Kind == model.TaskDelivery && r.Activities[i].Job.ID == mc.Job.ID {
				return &Violation{Code: CodeCoupling}
			}
		}
	case model.TaskDelivery:
		// No pickup of the same job may sit at or after the probe.
		for i := mc.Position; i < e; i++ {
			if o := r.Activities[i].Task(); o != nil && o.Kind == model.TaskPickup && r.Activities[i].Job.ID == mc.Job.ID {
				return &Violation{Code: CodeCoupling}
			}
		}
		// A coupled delivery must share its pickup's trip.
		if mc.Job.PickupCount() > 0 && !tripHasPickup(r, s, e, mc.Job.ID) {
			return &Violation{Code: CodeCoupling}
		}
	}
	return nil
}

func tripHasPickup(r *route.Route, s, e int, jobID string) bool {
	for i := s; i < e; i++ {
		if t := r.Activities[i].Task(); t != nil && t.Kind == model.TaskPickup && r.Activities[i].Job.ID == jobID {
			return true
		}
	}
	return false
}
