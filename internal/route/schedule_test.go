package route

import (
	"testing"

	"vrpsolve/internal/model"
)

// lineTransport puts all locations on a line with unit speed.
type lineTransport struct{}

func (lineTransport) Distance(_ string, a, b model.Location) int64 {
	d := int64(a - b)
	if d < 0 {
		d = -d
	}
	return d * 10
}

func (lineTransport) Duration(profile string, a, b model.Location) int64 {
	return lineTransport{}.Distance(profile, a, b)
}

func lineVehicle() model.VehicleRef {
	t := &model.VehicleType{
		TypeID:     "van",
		VehicleIDs: []string{"v1"},
		Profile:    "car",
		Capacity:   model.Demand{10},
		Shifts: []model.Shift{{
			Start: model.ShiftPoint{Location: 0, Earliest: 0},
			End:   &model.ShiftPoint{Location: 0, Latest: 10000},
		}},
	}
	return model.VehicleRef{VehicleID: "v1", ShiftIndex: 0, Type: t}
}

func delivery(id string, loc model.Location, duration, demand int64) *model.Job {
	return &model.Job{ID: id, Tasks: []model.Task{{
		Kind:   model.TaskDelivery,
		Demand: model.Demand{demand},
		Places: []model.Place{{Location: loc, Duration: duration}},
	}}}
}

func pickup(id string, loc model.Location, duration, demand int64) *model.Job {
	return &model.Job{ID: id, Tasks: []model.Task{{
		Kind:   model.TaskPickup,
		Demand: model.Demand{demand},
		Places: []model.Place{{Location: loc, Duration: duration}},
	}}}
}

func TestForwardSchedule(t *testing.T) {
	r := New(lineVehicle())
	j1 := delivery("j1", 2, 30, 1)
	j2 := delivery("j2", 5, 60, 1)
	r.Insert(1, NewJobActivity(j1, 0, 0, model.WholeDay))
	r.Insert(2, NewJobActivity(j2, 0, 0, model.WholeDay))
	r.Recompute(lineTransport{})

	a1 := r.Activities[1]
	if a1.Arrival != 20 || a1.ServiceStart != 20 || a1.ServiceEnd != 50 {
		t.Fatalf("first stop schedule: %+v", a1)
	}
	a2 := r.Activities[2]
	if a2.Arrival != 80 || a2.ServiceEnd != 140 {
		t.Fatalf("second stop schedule: %+v", a2)
	}
	end := r.Activities[3]
	if end.Arrival != 190 {
		t.Fatalf("return arrival = %d, want 190", end.Arrival)
	}
	if r.Distance != 100 {
		t.Fatalf("distance = %d, want 100", r.Distance)
	}
	if r.ActivityDuration != 90 {
		t.Fatalf("activity duration = %d, want 90", r.ActivityDuration)
	}
}

func TestWaitingAtWindow(t *testing.T) {
	r := New(lineVehicle())
	j := delivery("j1", 1, 10, 1)
	r.Insert(1, NewJobActivity(j, 0, 0, model.TimeWindow{Start: 100, End: 200}))
	r.Recompute(lineTransport{})

	a := r.Activities[1]
	if a.Arrival != 10 || a.ServiceStart != 100 || a.Waiting != 90 {
		t.Fatalf("waiting schedule: %+v", a)
	}
}

// Schedule consistency invariant: every activity obeys
// serviceStart >= arrival >= prev departure + travel and end = start + duration.
func TestScheduleConsistency(t *testing.T) {
	r := New(lineVehicle())
	jobs := []*model.Job{
		delivery("a", 3, 20, 1),
		pickup("b", 1, 15, 2),
		delivery("c", 7, 5, 1),
	}
	for i, j := range jobs {
		r.Insert(1+i, NewJobActivity(j, 0, 0, model.WholeDay))
	}
	r.Recompute(lineTransport{})

	for i := 1; i < len(r.Activities); i++ {
		prev, a := r.Activities[i-1], r.Activities[i]
		_, travel := r.Travel(lineTransport{}, r.LocationAt(i-1), r.LocationAt(i))
		if a.Arrival < prev.ServiceEnd+travel {
			t.Fatalf("activity %d arrives before travel completes", i)
		}
		if a.ServiceStart < a.Arrival {
			t.Fatalf("activity %d starts before arrival", i)
		}
		if a.ServiceEnd != a.ServiceStart+a.Duration {
			t.Fatalf("activity %d end != start + duration", i)
		}
	}
}

func TestBackwardSlack(t *testing.T) {
	r := New(lineVehicle())
	j := delivery("j1", 2, 10, 1)
	r.Insert(1, NewJobActivity(j, 0, 0, model.TimeWindow{Start: 0, End: 500}))
	r.Recompute(lineTransport{})

	// Latest start at the stop: shift end 10000 minus return travel 20 minus
	// service 10 caps at 9970; the window caps it at 500.
	if got := r.LatestStart(1); got != 500 {
		t.Fatalf("latestStart = %d, want 500", got)
	}
	// Departure slack is bounded by the stop's window minus outbound travel.
	if got := r.LatestStart(0); got != 480 {
		t.Fatalf("departure latestStart = %d, want 480", got)
	}
}

func TestTripsAndLoadReset(t *testing.T) {
	ref := lineVehicle()
	ref.Type.Shifts[0].Reloads = []model.Reload{{Location: 0, Duration: 0}}
	r := New(ref)
	d1 := delivery("d1", 2, 0, 4)
	d2 := delivery("d2", 3, 0, 5)
	r.Insert(1, NewJobActivity(d1, 0, 0, model.WholeDay))
	r.Insert(2, NewReloadActivity(0, ref.Type.Shifts[0].Reloads[0]))
	r.Insert(3, NewJobActivity(d2, 0, 0, model.WholeDay))
	r.Recompute(lineTransport{})

	trips := r.Trips()
	if len(trips) != 2 {
		t.Fatalf("trips = %v, want 2 segments", trips)
	}
	// First trip carries only d1's demand, second only d2's.
	if !r.Activities[0].Load.Equal(model.Demand{4}) {
		t.Fatalf("departure load = %v, want [4]", r.Activities[0].Load)
	}
	if !r.Activities[1].Load.Equal(model.Demand{0}) {
		t.Fatalf("post-delivery load = %v, want [0]", r.Activities[1].Load)
	}
	if !r.Activities[2].Load.Equal(model.Demand{5}) {
		t.Fatalf("reload load = %v, want [5]", r.Activities[2].Load)
	}
}

func TestCloneIsolation(t *testing.T) {
	r := New(lineVehicle())
	r.Insert(1, NewJobActivity(delivery("j1", 1, 10, 1), 0, 0, model.WholeDay))
	r.Recompute(lineTransport{})

	c := r.Clone()
	c.RemoveJob("j1")
	c.Recompute(lineTransport{})

	if !r.HasJob("j1") {
		t.Fatal("clone mutation leaked into original")
	}
	if c.HasJob("j1") {
		t.Fatal("clone still serves the removed job")
	}
}

func TestOptionalBreakSticksToPreviousLocation(t *testing.T) {
	ref := lineVehicle()
	r := New(ref)
	r.Insert(1, NewJobActivity(delivery("j1", 4, 10, 1), 0, 0, model.WholeDay))
	br := model.Break{Duration: 100, Window: model.TimeWindow{Start: 0, End: 10000}}
	r.Insert(2, NewBreakActivity(0, br))
	r.Recompute(lineTransport{})

	// The break adds no travel: it happens at the previous stop.
	if got := r.LocationAt(2); got != 4 {
		t.Fatalf("break location = %d, want 4", got)
	}
	if r.Activities[2].Arrival != r.Activities[1].ServiceEnd {
		t.Fatal("break must start where the previous service ended")
	}
	if r.Distance != 80 {
		t.Fatalf("distance = %d, want 80", r.Distance)
	}
}
