package constraint

import (
	"vrpsolve/internal/model"
	"vrpsolve/internal/route"
	"vrpsolve/internal/solution"
)

const compatStateKey = "compatibility.class"

// Compatibility isolates jobs of different compatibility classes on separate
// tours. Jobs without a class mix with anything.
type Compatibility struct {
	Base
}

func NewCompatibility() *Compatibility { return &Compatibility{} }

func (*Compatibility) Name() string { return "compatibility" }
func (*Compatibility) Kind() Kind   { return Hard }

func (*Compatibility) EvaluateRoute(_ *solution.Solution, r *route.Route, j *model.Job) *Violation {
	if j == nil || j.Compatibility == "" {
		return nil
	}
	if v, ok := r.State(compatStateKey); ok {
		if class := v.(string); class != "" && class != j.Compatibility {
			return &Violation{Code: CodeCompatibility}
		}
	}
	return nil
}

func (*Compatibility) AcceptRoute(_ *model.Problem, r *route.Route) {
	class := ""
	for _, j := range r.Jobs() {
		if j.Compatibility != "" {
			class = j.Compatibility
			break
		}
	}
	r.SetState(compatStateKey, class)
}
