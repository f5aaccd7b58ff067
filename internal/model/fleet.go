package model

import "sync"

// CostSchedule is a vehicle type's tiered cost configuration.
type CostSchedule struct {
	Fixed       float64
	PerDuration TieredCost
	PerDistance TieredCost
	Mode        CalculationMode
}

// TravelCost evaluates the variable part of the schedule for route totals.
func (c CostSchedule) TravelCost(distance, duration int64) float64 {
	return c.PerDistance.Cost(float64(distance), c.Mode) + c.PerDuration.Cost(float64(duration), c.Mode)
}

// Limits caps tour extent; zero means unlimited.
type Limits struct {
	MaxDuration         int64
	MaxDistance         int64
	MaxActivityDuration int64
	TourSize            int
}

// BreakSkipPolicy controls when an optional break may be dropped.
type BreakSkipPolicy int

const (
	// SkipNever keeps the break whenever it fits.
	SkipNever BreakSkipPolicy = iota
	// SkipIfNoIntersection drops the break when its window does not intersect the tour span.
	SkipIfNoIntersection
	// SkipIfArrivalBeforeEnd drops the break when the tour ends before the break window closes.
	SkipIfArrivalBeforeEnd
)

// Break is a shift break. Required breaks are materialized at construction;
// optional ones compete for insertion like jobs.
type Break struct {
	Duration int64
	Window   TimeWindow
	Required bool
	Location *Location // nil sticks to the previous activity's location
	Policy   BreakSkipPolicy
}

// Reload is an in-route resupply point. It closes the current trip.
type Reload struct {
	Location   Location
	Duration   int64
	ResourceID string // non-empty ties the reload to a shared resource pool
}

// ShiftPoint anchors a shift boundary in space and time.
type ShiftPoint struct {
	Location Location
	Earliest int64
	Latest   int64 // 0 (or NoTime) when open
}

// Shift is one tour frame of a vehicle. A vehicle with several shifts is the
// same resource operating over several days.
type Shift struct {
	Start   ShiftPoint
	End     *ShiftPoint
	Breaks  []Break
	Reloads []Reload
}

// VehicleType describes a homogeneous group of vehicles.
type VehicleType struct {
	TypeID        string
	VehicleIDs    []string
	Profile       string
	DurationScale float64 // multiplier applied to matrix durations, default 1
	Costs         CostSchedule
	Shifts        []Shift
	Capacity      Demand
	Skills        []string
	Limits        Limits

	skillOnce sync.Once
	skillSet  map[string]struct{}
}

// SkillSet caches and returns the type's skill lookup set; safe for
// concurrent workers.
func (t *VehicleType) SkillSet() map[string]struct{} {
	t.skillOnce.Do(func() { t.skillSet = SkillSet(t.Skills) })
	return t.skillSet
}

func (t *VehicleType) Scale() float64 {
	if t.DurationScale <= 0 {
		return 1
	}
	return t.DurationScale
}

// VehicleRef identifies one tour resource: a concrete vehicle on one shift.
type VehicleRef struct {
	VehicleID  string
	ShiftIndex int
	Type       *VehicleType
}

func (v VehicleRef) Shift() *Shift { return &v.Type.Shifts[v.ShiftIndex] }

// Fleet is the full vehicle pool.
type Fleet struct {
	Types []*VehicleType
}

// Refs expands the fleet into per-(vehicle, shift) tour resources, in stable
// declaration order so tie-breaking by vehicle index is deterministic.
func (f Fleet) Refs() []VehicleRef {
	var refs []VehicleRef
	for _, t := range f.Types {
		for _, id := range t.VehicleIDs {
			for s := range t.Shifts {
				refs = append(refs, VehicleRef{VehicleID: id, ShiftIndex: s, Type: t})
			}
		}
	}
	return refs
}
