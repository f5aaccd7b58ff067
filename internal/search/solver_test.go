package search

import (
	"context"
	"testing"

	"vrpsolve/internal/constraint"
	"vrpsolve/internal/model"
	"vrpsolve/internal/objective"
	"vrpsolve/internal/route"
	"vrpsolve/internal/solution"
)

// Five unit deliveries on a line, two vehicles of capacity three. The split
// [0,1,2] / [3,4] costs 12; the solver must do at least as well.
func TestSolveCVRPLine(t *testing.T) {
	jobs := make([]*model.Job, 5)
	for i := range jobs {
		jobs[i] = lineDelivery(string(rune('a'+i)), model.Location(i), 1)
	}
	p := &model.Problem{Jobs: jobs, Fleet: lineFleet(2, 3), Transport: lineTransport{}}
	if err := p.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	best, stats, err := New(p, quickOptions(42)).Solve(context.Background())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if len(best.Unassigned) != 0 {
		t.Fatalf("unassigned: %v", best.Unassigned)
	}
	if got := best.ActiveRoutes(); got != 2 {
		t.Fatalf("tours = %d, want 2", got)
	}
	cost := stats.BestScore[len(stats.BestScore)-1]
	if cost <= 0 || cost > 12 {
		t.Fatalf("cost = %v, want within (0, 12]", cost)
	}
}

// The reference partition from the scenario, built by hand, costs exactly 12.
func TestCVRPLineReferenceCost(t *testing.T) {
	jobs := make([]*model.Job, 5)
	for i := range jobs {
		jobs[i] = lineDelivery(string(rune('a'+i)), model.Location(i), 1)
	}
	p := &model.Problem{Jobs: jobs, Fleet: lineFleet(2, 3), Transport: lineTransport{}}
	sol := solution.NewEmpty(p)
	for i, j := range jobs[:3] {
		sol.Routes[0].Insert(1+i, route.NewJobActivity(j, 0, 0, model.WholeDay))
	}
	for i, j := range jobs[3:] {
		sol.Routes[1].Insert(1+i, route.NewJobActivity(j, 0, 0, model.WholeDay))
	}
	for _, r := range sol.Routes {
		r.Recompute(p.Transport)
	}
	total := objective.RouteCost(sol.Routes[0]) + objective.RouteCost(sol.Routes[1])
	if total != 12 {
		t.Fatalf("reference cost = %v, want 12", total)
	}
}

// A window that closes before travel can complete leaves the job unassigned
// with the time-window reason and zero tours.
func TestSolveInfeasibleWindow(t *testing.T) {
	j := lineDelivery("far", 20, 1)
	j.Tasks[0].Places[0].Times = []model.TimeWindow{{Start: 0, End: 10}}
	p := &model.Problem{Jobs: []*model.Job{j}, Fleet: lineFleet(1, 3), Transport: lineTransport{}}

	best, _, err := New(p, quickOptions(1)).Solve(context.Background())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	code, ok := best.Unassigned["far"]
	if !ok {
		t.Fatal("job must be unassigned")
	}
	if code != constraint.CodeTimeWindow {
		t.Fatalf("reason = %s, want %s", code, constraint.CodeTimeWindow)
	}
	if best.ActiveRoutes() != 0 {
		t.Fatal("no tours expected")
	}
}

// Pickup at A then delivery at B is the only feasible shape for a full-load
// pickup-delivery pair.
func TestSolvePickupDeliveryCoupling(t *testing.T) {
	pd := &model.Job{ID: "pd", Tasks: []model.Task{
		{Kind: model.TaskPickup, Demand: model.Demand{2}, Places: []model.Place{{Location: 2}}},
		{Kind: model.TaskDelivery, Demand: model.Demand{2}, Places: []model.Place{{Location: 5}}},
	}}
	p := &model.Problem{Jobs: []*model.Job{pd}, Fleet: lineFleet(1, 2), Transport: lineTransport{}}
	if err := p.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	best, _, err := New(p, quickOptions(7)).Solve(context.Background())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if len(best.Unassigned) != 0 {
		t.Fatalf("unassigned: %v", best.Unassigned)
	}
	var kinds []model.TaskKind
	var r *route.Route
	for _, cand := range best.Routes {
		if !cand.IsEmpty() {
			r = cand
		}
	}
	for _, a := range r.Activities {
		if tk := a.Task(); tk != nil {
			kinds = append(kinds, tk.Kind)
		}
	}
	if len(kinds) != 2 || kinds[0] != model.TaskPickup || kinds[1] != model.TaskDelivery {
		t.Fatalf("activity order = %v, want pickup then delivery", kinds)
	}
	for _, a := range r.Activities {
		if !a.Load.Fits(model.Demand{2}) {
			t.Fatalf("load curve out of bounds: %v", a.Load)
		}
	}
}

// Sync members whose best service starts differ by more than the tolerance
// must both stay unassigned: never a partial group.
func TestSolveSyncToleranceExceeded(t *testing.T) {
	member := func(id string, idx int) *model.Job {
		j := &model.Job{ID: id, Tasks: []model.Task{{
			Kind:   model.TaskDelivery,
			Demand: model.Demand{1},
			Places: []model.Place{{Location: 10}},
		}}}
		j.Sync = &model.Sync{Key: "crane", Index: idx, VehiclesRequired: 2, Tolerance: 300}
		return j
	}
	// Two single-vehicle types starting 500 apart from the job site.
	near := &model.VehicleType{
		TypeID: "near", VehicleIDs: []string{"n1"}, Profile: "car", Capacity: model.Demand{5},
		Costs:  model.CostSchedule{PerDuration: model.FixedCost(1)},
		Shifts: []model.Shift{{Start: model.ShiftPoint{Location: 0, Earliest: 0}}},
	}
	far := &model.VehicleType{
		TypeID: "far", VehicleIDs: []string{"f1"}, Profile: "car", Capacity: model.Demand{5},
		Costs:  model.CostSchedule{PerDuration: model.FixedCost(1)},
		Shifts: []model.Shift{{Start: model.ShiftPoint{Location: 610, Earliest: 0}}},
	}
	// n1 reaches location 10 at t=10; f1 at t=600: spread 590 > 300.
	p := &model.Problem{
		Jobs:      []*model.Job{member("s0", 0), member("s1", 1)},
		Fleet:     model.Fleet{Types: []*model.VehicleType{near, far}},
		Transport: lineTransport{},
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	best, _, err := New(p, quickOptions(3)).Solve(context.Background())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if len(best.Unassigned) != 2 {
		t.Fatalf("want both members unassigned, got %v", best.Unassigned)
	}
}

// Group members ride together or not at all: when the pair exceeds every
// vehicle's capacity, neither member may rest on a route.
func TestSolveGroupAllOrNone(t *testing.T) {
	ga := lineDelivery("ga", 1, 2)
	ga.Group = "pair"
	gb := lineDelivery("gb", 2, 2)
	gb.Group = "pair"
	solo := lineDelivery("solo", 3, 1)
	p := &model.Problem{Jobs: []*model.Job{ga, gb, solo}, Fleet: lineFleet(1, 3), Transport: lineTransport{}}
	if err := p.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	best, _, err := New(p, quickOptions(31)).Solve(context.Background())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if _, ok := best.Unassigned["ga"]; !ok {
		t.Fatal("ga must be unassigned with its group")
	}
	if _, ok := best.Unassigned["gb"]; !ok {
		t.Fatal("gb must be unassigned with its group")
	}
	if _, ok := best.Unassigned["solo"]; ok {
		t.Fatal("independent job must still be served")
	}
}

// When the group does fit, both members share one route.
func TestSolveGroupSharesRoute(t *testing.T) {
	ga := lineDelivery("ga", 1, 2)
	ga.Group = "pair"
	gb := lineDelivery("gb", 6, 2)
	gb.Group = "pair"
	p := &model.Problem{Jobs: []*model.Job{ga, gb}, Fleet: lineFleet(2, 4), Transport: lineTransport{}}
	if err := p.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	best, _, err := New(p, quickOptions(37)).Solve(context.Background())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if len(best.Unassigned) != 0 {
		t.Fatalf("unassigned: %v", best.Unassigned)
	}
	if got := best.ActiveRoutes(); got != 1 {
		t.Fatalf("group split across %d routes, want 1", got)
	}
}

// Jobs sharing a same-assignee key across two days land on one vehicle id.
func TestSolveSameAssigneeAcrossShifts(t *testing.T) {
	day1 := lineDelivery("mon", 3, 1)
	day1.SameAssignee = "tech_alice"
	day1.Tasks[0].Places[0].Times = []model.TimeWindow{{Start: 0, End: 50000}}
	day2 := lineDelivery("tue", 3, 1)
	day2.SameAssignee = "tech_alice"
	day2.Tasks[0].Places[0].Times = []model.TimeWindow{{Start: 86400, End: 136400}}

	fleet := lineFleet(2, 3)
	fleet.Types[0].Shifts = []model.Shift{
		{Start: model.ShiftPoint{Location: 0, Earliest: 0}, End: &model.ShiftPoint{Location: 0, Latest: 60000}},
		{Start: model.ShiftPoint{Location: 0, Earliest: 86400}, End: &model.ShiftPoint{Location: 0, Latest: 146400}},
	}
	p := &model.Problem{Jobs: []*model.Job{day1, day2}, Fleet: fleet, Transport: lineTransport{}}
	if err := p.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	best, _, err := New(p, quickOptions(11)).Solve(context.Background())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if len(best.Unassigned) != 0 {
		t.Fatalf("unassigned: %v", best.Unassigned)
	}
	vehicles := map[string]struct{}{}
	for _, r := range best.Routes {
		for _, j := range r.Jobs() {
			if j.SameAssignee == "tech_alice" {
				vehicles[r.Vehicle.VehicleID] = struct{}{}
			}
		}
	}
	if len(vehicles) != 1 {
		t.Fatalf("assignee spread across vehicles: %v", vehicles)
	}
}

// Solution-level invariants hold on whatever the search produces.
func TestSolveInvariants(t *testing.T) {
	var jobs []*model.Job
	for i := 0; i < 12; i++ {
		jobs = append(jobs, lineDelivery(string(rune('a'+i)), model.Location(1+i*3), 2))
	}
	p := &model.Problem{Jobs: jobs, Fleet: lineFleet(3, 6), Transport: lineTransport{}}
	if err := p.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	s := New(p, quickOptions(99))
	best, _, err := s.Solve(context.Background())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	// Every route feasible under every hard constraint.
	for _, r := range best.Routes {
		if v := s.Pipeline().VerifyRoute(best, r); v != nil {
			t.Fatalf("route %s violates %s", r.Vehicle.VehicleID, v.Code)
		}
	}
	// Assigned plus unassigned equals total.
	if got := best.AssignedJobs() + len(best.Unassigned); got != len(jobs) {
		t.Fatalf("assigned+unassigned = %d, want %d", got, len(jobs))
	}
	// The frontier respects the population cap.
	if s.pop.Size() > quickOptions(99).PopulationCap {
		t.Fatalf("population %d exceeds cap", s.pop.Size())
	}
}

// A single vehicle of capacity 3 serves two full loads by reloading between
// trips.
func TestSolveUsesReloadForSecondTrip(t *testing.T) {
	j1 := lineDelivery("first", 2, 3)
	j2 := lineDelivery("second", 4, 3)
	fleet := lineFleet(1, 3)
	fleet.Types[0].Shifts[0].Reloads = []model.Reload{{Location: 0}}
	p := &model.Problem{Jobs: []*model.Job{j1, j2}, Fleet: fleet, Transport: lineTransport{}}
	if err := p.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	best, _, err := New(p, quickOptions(23)).Solve(context.Background())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if len(best.Unassigned) != 0 {
		t.Fatalf("unassigned: %v", best.Unassigned)
	}
	var active *route.Route
	for _, r := range best.Routes {
		if !r.IsEmpty() {
			active = r
		}
	}
	if got := len(active.Trips()); got != 2 {
		t.Fatalf("trips = %d, want 2", got)
	}
	// Each trip's preload fits the vehicle.
	for _, trip := range active.Trips() {
		for i := trip[0]; i < trip[1]; i++ {
			if !active.Activities[i].Load.Fits(model.Demand{3}) {
				t.Fatalf("load out of bounds at %d: %v", i, active.Activities[i].Load)
			}
		}
	}
}

func TestSolveEmptyFleetFails(t *testing.T) {
	p := &model.Problem{Jobs: []*model.Job{lineDelivery("a", 1, 1)}, Transport: lineTransport{}}
	_, _, err := New(p, quickOptions(1)).Solve(context.Background())
	if _, ok := err.(*SearchError); !ok {
		t.Fatalf("want SearchError, got %v", err)
	}
}
