package objective

import (
	"testing"

	"vrpsolve/internal/model"
	"vrpsolve/internal/route"
	"vrpsolve/internal/solution"
)

func TestDominates(t *testing.T) {
	cases := []struct {
		a, b []float64
		want bool
	}{
		{[]float64{1, 2}, []float64{2, 3}, true},
		{[]float64{1, 3}, []float64{2, 2}, false},
		{[]float64{1, 2}, []float64{1, 2}, false}, // equal never dominates
		{[]float64{1, 2}, []float64{1, 3}, true},
		{[]float64{2, 2}, []float64{1, 3}, false},
	}
	for i, c := range cases {
		if got := Dominates(c.a, c.b); got != c.want {
			t.Errorf("case %d: Dominates(%v, %v) = %v, want %v", i, c.a, c.b, got, c.want)
		}
	}
}

func TestLessLexicographic(t *testing.T) {
	if !Less([]float64{0, 9}, []float64{1, 0}) {
		t.Fatal("first component must decide")
	}
	if Less([]float64{1, 2}, []float64{1, 2}) {
		t.Fatal("equal tuples are not less")
	}
	if !Less([]float64{1, 1}, []float64{1, 2}) {
		t.Fatal("later components break ties")
	}
}

type zeroTransport struct{}

func (zeroTransport) Distance(string, model.Location, model.Location) int64 { return 0 }
func (zeroTransport) Duration(string, model.Location, model.Location) int64 { return 0 }

func TestUnassignedWeighting(t *testing.T) {
	heavy := &model.Job{ID: "heavy", UnassignWeight: 5, Tasks: []model.Task{{
		Kind: model.TaskService, Places: []model.Place{{Location: 1}},
	}}}
	light := &model.Job{ID: "light", Tasks: []model.Task{{
		Kind: model.TaskService, Places: []model.Place{{Location: 2}},
	}}}
	p := &model.Problem{
		Jobs: []*model.Job{heavy, light},
		Fleet: model.Fleet{Types: []*model.VehicleType{{
			TypeID: "t", VehicleIDs: []string{"v1"}, Profile: "car",
			Shifts: []model.Shift{{Start: model.ShiftPoint{Location: 0}}},
		}}},
		Objectives: []model.ObjectiveSpec{{Kind: model.MinimizeUnassigned}},
		Transport:  zeroTransport{},
	}
	sol := solution.NewEmpty(p)
	score := New(p).Evaluate(p, sol)
	if score[0] != 6 {
		t.Fatalf("unassigned fitness = %v, want 6", score[0])
	}
}

func TestRouteCostEmptyRouteIsFree(t *testing.T) {
	ref := model.VehicleRef{VehicleID: "v1", ShiftIndex: 0, Type: &model.VehicleType{
		Profile: "car",
		Costs:   model.CostSchedule{Fixed: 100, PerDistance: model.FixedCost(1)},
		Shifts:  []model.Shift{{Start: model.ShiftPoint{Location: 0}}},
	}}
	r := route.New(ref)
	if got := RouteCost(r); got != 0 {
		t.Fatalf("empty route cost = %v, want 0", got)
	}
}
