package search

import (
	"vrpsolve/internal/model"
)

// lineTransport puts all locations on a line with unit speed: distance and
// duration between a and b are both |a-b|.
type lineTransport struct{}

func (lineTransport) Distance(_ string, a, b model.Location) int64 {
	d := int64(a - b)
	if d < 0 {
		d = -d
	}
	return d
}

func (lineTransport) Duration(profile string, a, b model.Location) int64 {
	return lineTransport{}.Distance(profile, a, b)
}

func lineFleet(vehicles int, capacity int64) model.Fleet {
	ids := make([]string, vehicles)
	for i := range ids {
		ids[i] = "v" + string(rune('1'+i))
	}
	return model.Fleet{Types: []*model.VehicleType{{
		TypeID:     "van",
		VehicleIDs: ids,
		Profile:    "car",
		Capacity:   model.Demand{capacity},
		Costs:      model.CostSchedule{PerDuration: model.FixedCost(1)},
		Shifts: []model.Shift{{
			Start: model.ShiftPoint{Location: 0, Earliest: 0},
			End:   &model.ShiftPoint{Location: 0, Latest: 1000000},
		}},
	}}}
}

func lineDelivery(id string, loc model.Location, demand int64) *model.Job {
	return &model.Job{ID: id, Tasks: []model.Task{{
		Kind:   model.TaskDelivery,
		Demand: model.Demand{demand},
		Places: []model.Place{{Location: loc}},
	}}}
}

func quickOptions(seed int64) Options {
	return Options{
		MaxTime:          5_000_000_000, // 5s safety net; generations cap first
		MaxGenerations:   2000,
		Variation:        800,
		InitialSolutions: 4,
		PopulationCap:    4,
		Parallelism:      1,
		Seed:             seed,
		MinRuin:          1,
		MaxRuin:          3,
	}
}
