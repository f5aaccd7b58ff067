package constraint

import (
	"vrpsolve/internal/model"
	"vrpsolve/internal/route"
	"vrpsolve/internal/solution"
)

const affinityStateKey = "affinity.groups"

// affinityGroup tracks the vehicle binding and assigned day sequences of one
// affinity key.
type affinityGroup struct {
	vehicleID string
	// sequence -> shift index it landed on
	sequences map[int]int
}

type affinityGroups map[string]*affinityGroup

// Affinity binds a multi-day project to one vehicle. With explicit sequences,
// lower sequences must run on earlier shifts of that vehicle and each sequence
// appears once. duration_days is advisory: it bounds the sequence range but
// imposes no calendar gap.
type Affinity struct {
	Base
}

func NewAffinity() *Affinity { return &Affinity{} }

func (*Affinity) Name() string { return "affinity" }
func (*Affinity) Kind() Kind   { return Hard }

func affinityState(s *solution.Solution) affinityGroups {
	if v, ok := s.State(affinityStateKey); ok {
		return v.(affinityGroups)
	}
	return nil
}

func (*Affinity) EvaluateRoute(s *solution.Solution, r *route.Route, j *model.Job) *Violation {
	if j == nil || j.Affinity == nil {
		return nil
	}
	a := j.Affinity
	g := affinityState(s)[a.Key]
	if g == nil {
		return nil
	}
	if g.vehicleID != r.Vehicle.VehicleID {
		return &Violation{Code: CodeAffinity}
	}
	if !a.HasSequence() {
		return nil
	}
	if _, dup := g.sequences[a.Sequence]; dup {
		return &Violation{Code: CodeAffinity}
	}
	// Sequence order must match shift order on the bound vehicle.
	for seq, shift := range g.sequences {
		if seq < a.Sequence && shift >= r.Vehicle.ShiftIndex {
			return &Violation{Code: CodeAffinity}
		}
		if seq > a.Sequence && shift <= r.Vehicle.ShiftIndex {
			return &Violation{Code: CodeAffinity}
		}
	}
	return nil
}

func (*Affinity) OnInsert(_ *model.Problem, s *solution.Solution, routeIdx int, j *model.Job) {
	if j.Affinity == nil {
		return
	}
	a := j.Affinity
	groups := affinityState(s)
	next := make(affinityGroups, len(groups)+1)
	for k, v := range groups {
		next[k] = v
	}
	g := next[a.Key]
	if g == nil {
		g = &affinityGroup{vehicleID: s.Routes[routeIdx].Vehicle.VehicleID, sequences: map[int]int{}}
	} else {
		cp := &affinityGroup{vehicleID: g.vehicleID, sequences: make(map[int]int, len(g.sequences)+1)}
		for k, v := range g.sequences {
			cp.sequences[k] = v
		}
		g = cp
	}
	if a.HasSequence() {
		g.sequences[a.Sequence] = s.Routes[routeIdx].Vehicle.ShiftIndex
	}
	next[a.Key] = g
	s.SetState(affinityStateKey, next)
}

func (*Affinity) AcceptSolution(_ *model.Problem, s *solution.Solution) {
	groups := affinityGroups{}
	for _, r := range s.Routes {
		for _, j := range r.Jobs() {
			if j.Affinity == nil {
				continue
			}
			a := j.Affinity
			g := groups[a.Key]
			if g == nil {
				g = &affinityGroup{vehicleID: r.Vehicle.VehicleID, sequences: map[int]int{}}
				groups[a.Key] = g
			}
			if a.HasSequence() {
				g.sequences[a.Sequence] = r.Vehicle.ShiftIndex
			}
		}
	}
	s.SetState(affinityStateKey, groups)
}
