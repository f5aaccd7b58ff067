package model

import "math"

// Location is an opaque index into a routing matrix.
type Location int

// NoTime marks an absent time bound.
const NoTime int64 = math.MaxInt64

// TimeWindow is a closed interval over seconds since epoch.
type TimeWindow struct {
	Start int64
	End   int64
}

func (w TimeWindow) Contains(t int64) bool { return t >= w.Start && t <= w.End }

func (w TimeWindow) Intersects(o TimeWindow) bool { return w.Start <= o.End && o.Start <= w.End }

// WholeDay is the unconstrained time window.
var WholeDay = TimeWindow{Start: 0, End: NoTime}

// Place is one location alternative of a task.
type Place struct {
	Location Location
	Duration int64 // service seconds
	Times    []TimeWindow
	Tag      string
}

// Windows returns the place's time windows, defaulting to an open window.
func (p Place) Windows() []TimeWindow {
	if len(p.Times) == 0 {
		return []TimeWindow{WholeDay}
	}
	return p.Times
}

type TaskKind int

const (
	TaskService TaskKind = iota
	TaskPickup
	TaskDelivery
	TaskReplacement
)

func (k TaskKind) String() string {
	switch k {
	case TaskPickup:
		return "pickup"
	case TaskDelivery:
		return "delivery"
	case TaskReplacement:
		return "replacement"
	default:
		return "service"
	}
}

// NoOrder means the task has no priority within its route.
const NoOrder = math.MaxInt32

// Task is a single pickup, delivery, replacement or service with place alternatives.
type Task struct {
	Kind   TaskKind
	Places []Place
	Demand Demand
	Order  int // 1..∞, lower runs earlier; 0 reads as NoOrder
}

// EffectiveOrder normalizes an unset order to NoOrder.
func (t Task) EffectiveOrder() int {
	if t.Order <= 0 {
		return NoOrder
	}
	return t.Order
}

// Affinity binds the jobs of a multi-day project to one vehicle.
type Affinity struct {
	Key          string
	Sequence     int // day index within the project, -1 when unset
	DurationDays int
}

// HasSequence reports whether the affinity carries an explicit day sequence.
func (a *Affinity) HasSequence() bool { return a != nil && a.Sequence >= 0 }

// Sync couples jobs that must execute on distinct vehicles within a time tolerance.
type Sync struct {
	Key              string
	Index            int
	VehiclesRequired int
	Tolerance        int64 // max service-start spread in seconds
}

// Job is the unit of assignment.
type Job struct {
	ID             string
	Tasks          []Task
	Skills         *SkillExpr
	Value          float64
	Group          string
	Compatibility  string
	Affinity       *Affinity
	Sync           *Sync
	SameAssignee   string
	UnassignWeight float64 // penalty weight when left unassigned, default 1
}

func (j *Job) PickupCount() int {
	n := 0
	for _, t := range j.Tasks {
		if t.Kind == TaskPickup {
			n++
		}
	}
	return n
}

func (j *Job) DeliveryCount() int {
	n := 0
	for _, t := range j.Tasks {
		if t.Kind == TaskDelivery {
			n++
		}
	}
	return n
}

// UnassignedPenalty returns the weight used by the minimize-unassigned objective.
func (j *Job) UnassignedPenalty() float64 {
	if j.UnassignWeight <= 0 {
		return 1
	}
	return j.UnassignWeight
}
