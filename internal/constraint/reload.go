package constraint

import (
	"vrpsolve/internal/model"
	"vrpsolve/internal/route"
	"vrpsolve/internal/solution"
)

const reloadStateKey = "reload.resources"

// Reload guards two invariants around in-route resupply: per-trip delivery
// preload must fit the vehicle, and reloads tied to a shared resource pool may
// not load more, in aggregate across all routes, than the pool holds.
type Reload struct {
	Base
}

func NewReload() *Reload { return &Reload{} }

func (*Reload) Name() string { return "reload" }
func (*Reload) Kind() Kind   { return Hard }

// resourceUse tracks aggregate delivery demand loaded per resource pool.
type resourceUse map[string]model.Demand

func reloadResources(s *solution.Solution) resourceUse {
	if v, ok := s.State(reloadStateKey); ok {
		return v.(resourceUse)
	}
	return nil
}

// tripResource returns the resource id of the reload opening the trip at s,
// or "" for the depot trip and untracked reloads.
func tripResource(r *route.Route, s int) string {
	a := r.Activities[s]
	if a.Kind != route.ReloadStop {
		return ""
	}
	sh := r.Vehicle.Shift()
	if a.ReloadIndex < len(sh.Reloads) {
		return sh.Reloads[a.ReloadIndex].ResourceID
	}
	return ""
}

func (c *Reload) EvaluateActivity(mc *MoveContext) *Violation {
	t := mc.Target.Task()
	if t == nil || t.Kind != model.TaskDelivery || t.Demand.IsZero() {
		return nil
	}
	r := mc.Route
	s, _ := r.TripOf(mc.Position - 1)
	resID := tripResource(r, s)
	if resID == "" {
		return nil
	}
	pool := mc.Problem.Resource(resID)
	if pool == nil {
		return nil
	}
	used := reloadResources(mc.Solution)[resID]
	if !used.Add(t.Demand).LessOrEqual(pool.Capacity) {
		return &Violation{Code: CodeSharedResource}
	}
	return nil
}

func (c *Reload) OnInsert(p *model.Problem, s *solution.Solution, _ int, j *model.Job) {
	if j.DeliveryCount() == 0 {
		return
	}
	c.AcceptSolution(p, s)
}

func (*Reload) AcceptSolution(_ *model.Problem, s *solution.Solution) {
	use := resourceUse{}
	for _, r := range s.Routes {
		for _, trip := range r.Trips() {
			resID := tripResource(r, trip[0])
			if resID == "" {
				continue
			}
			use[resID] = use[resID].Add(tripInitialLoad(r, trip[0], trip[1]))
		}
	}
	s.SetState(reloadStateKey, use)
}
