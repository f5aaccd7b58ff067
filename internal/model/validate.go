package model

import "sort"

// Validation diagnostic codes. E11xx cover jobs, E13xx vehicles. They are part
// of the wire contract and must stay stable.
const (
	CodeDuplicateJobID     = "E1100"
	CodeEmptyJob           = "E1101"
	CodeCouplingMismatch   = "E1102"
	CodeInvalidTimeWindow  = "E1103"
	CodeNegativeDuration   = "E1104"
	CodeInvalidDemand      = "E1105"
	CodeInvalidOrder       = "E1106"
	CodeInvalidWeight      = "E1107"
	CodeInvalidSyncGroup   = "E1108"
	CodeInvalidAffinity    = "E1109"
	CodeSyncMemberMismatch = "E1110"

	CodeDuplicateVehicleID = "E1300"
	CodeEmptyVehicleType   = "E1301"
	CodeInvalidCapacity    = "E1302"
	CodeInvalidCostTiers   = "E1303"
	CodeInvalidLimits      = "E1304"
	CodeInvalidShift       = "E1305"
	CodeUnknownResource    = "E1306"
	CodeBreakConflict      = "E1307"
	CodeInvalidScale       = "E1308"
)

// Validate checks the problem graph and returns the first violation found.
// The solver assumes a validated problem; running an unvalidated one is
// undefined behavior, not a checked error.
func (p *Problem) Validate() error {
	if err := p.validateJobs(); err != nil {
		return err
	}
	if err := p.validateFleet(); err != nil {
		return err
	}
	return p.validateSyncGroups()
}

func (p *Problem) validateJobs() error {
	seen := make(map[string]struct{}, len(p.Jobs))
	for _, j := range p.Jobs {
		if _, dup := seen[j.ID]; dup {
			return validationErr(CodeDuplicateJobID, "duplicated job id %q", j.ID)
		}
		seen[j.ID] = struct{}{}

		if len(j.Tasks) == 0 {
			return validationErr(CodeEmptyJob, "job %q has no tasks", j.ID)
		}
		var pickupSum, deliverySum Demand
		for ti, t := range j.Tasks {
			if len(t.Places) == 0 {
				return validationErr(CodeEmptyJob, "job %q task %d has no places", j.ID, ti)
			}
			if t.Order < 0 {
				return validationErr(CodeInvalidOrder, "job %q task %d has negative order", j.ID, ti)
			}
			for _, pl := range t.Places {
				if pl.Duration < 0 {
					return validationErr(CodeNegativeDuration, "job %q task %d has negative duration", j.ID, ti)
				}
				for _, w := range pl.Times {
					if w.Start > w.End || w.Start < 0 {
						return validationErr(CodeInvalidTimeWindow, "job %q task %d has invalid time window", j.ID, ti)
					}
				}
			}
			switch t.Kind {
			case TaskService:
				if !t.Demand.IsZero() {
					return validationErr(CodeInvalidDemand, "job %q service task %d carries demand", j.ID, ti)
				}
			case TaskPickup:
				pickupSum = pickupSum.Add(t.Demand)
			case TaskDelivery:
				deliverySum = deliverySum.Add(t.Demand)
			}
		}
		if j.PickupCount() > 0 && j.DeliveryCount() > 0 && !pickupSum.Equal(deliverySum) {
			return validationErr(CodeCouplingMismatch, "job %q pickup demand does not match delivery demand", j.ID)
		}
		if j.UnassignWeight < 0 {
			return validationErr(CodeInvalidWeight, "job %q has negative unassignment weight", j.ID)
		}
		if a := j.Affinity; a != nil {
			if a.Key == "" {
				return validationErr(CodeInvalidAffinity, "job %q affinity has empty key", j.ID)
			}
			if a.HasSequence() != (a.DurationDays > 0) {
				return validationErr(CodeInvalidAffinity, "job %q affinity sequence and duration_days must be set together", j.ID)
			}
			if a.HasSequence() && a.Sequence >= a.DurationDays {
				return validationErr(CodeInvalidAffinity, "job %q affinity sequence %d outside duration of %d days", j.ID, a.Sequence, a.DurationDays)
			}
		}
	}
	return nil
}

func (p *Problem) validateFleet() error {
	seenTypes := map[string]struct{}{}
	seenVehicles := map[string]struct{}{}
	for _, t := range p.Fleet.Types {
		if _, dup := seenTypes[t.TypeID]; dup {
			return validationErr(CodeDuplicateVehicleID, "duplicated vehicle type id %q", t.TypeID)
		}
		seenTypes[t.TypeID] = struct{}{}
		if len(t.VehicleIDs) == 0 || len(t.Shifts) == 0 {
			return validationErr(CodeEmptyVehicleType, "vehicle type %q needs vehicle ids and shifts", t.TypeID)
		}
		for _, id := range t.VehicleIDs {
			if _, dup := seenVehicles[id]; dup {
				return validationErr(CodeDuplicateVehicleID, "duplicated vehicle id %q", id)
			}
			seenVehicles[id] = struct{}{}
		}
		for _, c := range t.Capacity {
			if c < 0 {
				return validationErr(CodeInvalidCapacity, "vehicle type %q has negative capacity", t.TypeID)
			}
		}
		if t.DurationScale < 0 {
			return validationErr(CodeInvalidScale, "vehicle type %q has negative duration scale", t.TypeID)
		}
		l := t.Limits
		if l.MaxDuration < 0 || l.MaxDistance < 0 || l.MaxActivityDuration < 0 || l.TourSize < 0 {
			return validationErr(CodeInvalidLimits, "vehicle type %q has negative limits", t.TypeID)
		}
		for si, sh := range t.Shifts {
			// A zero end-latest reads as open-ended.
			shiftEnd := NoTime
			if sh.End != nil && sh.End.Latest > 0 && sh.End.Latest != NoTime {
				shiftEnd = sh.End.Latest
			}
			if shiftEnd != NoTime && sh.Start.Earliest > shiftEnd {
				return validationErr(CodeInvalidShift, "vehicle type %q shift %d starts after it ends", t.TypeID, si)
			}
			for _, b := range sh.Breaks {
				if b.Duration < 0 || b.Window.Start > b.Window.End {
					return validationErr(CodeBreakConflict, "vehicle type %q shift %d has an invalid break window", t.TypeID, si)
				}
				if b.Required && (b.Window.End < sh.Start.Earliest || b.Window.Start > shiftEnd) {
					return validationErr(CodeBreakConflict, "vehicle type %q shift %d required break cannot be scheduled inside the shift", t.TypeID, si)
				}
			}
			for _, r := range sh.Reloads {
				if r.ResourceID != "" && p.Resource(r.ResourceID) == nil {
					return validationErr(CodeUnknownResource, "vehicle type %q shift %d reload references unknown resource %q", t.TypeID, si, r.ResourceID)
				}
			}
		}
	}
	return nil
}

// validateSyncGroups checks the structural invariants of sync groups: exact
// member count, contiguous indices, and identical shared attributes.
func (p *Problem) validateSyncGroups() error {
	groups := map[string][]*Job{}
	for _, j := range p.Jobs {
		if j.Sync != nil {
			groups[j.Sync.Key] = append(groups[j.Sync.Key], j)
		}
	}
	for key, members := range groups {
		first := members[0]
		required := first.Sync.VehiclesRequired
		if required < 2 {
			return validationErr(CodeInvalidSyncGroup, "sync group %q requires fewer than 2 vehicles", key)
		}
		if len(members) != required {
			return validationErr(CodeInvalidSyncGroup, "sync group %q has %d members, wants %d", key, len(members), required)
		}
		indices := make([]int, 0, len(members))
		for _, m := range members {
			if m.Sync.VehiclesRequired != required {
				return validationErr(CodeInvalidSyncGroup, "sync group %q members disagree on required vehicles", key)
			}
			indices = append(indices, m.Sync.Index)
		}
		sort.Ints(indices)
		for i, idx := range indices {
			if idx != i {
				return validationErr(CodeInvalidSyncGroup, "sync group %q indices are not 0..%d", key, required-1)
			}
		}
		for _, m := range members[1:] {
			if !syncMembersAligned(first, m) {
				return validationErr(CodeSyncMemberMismatch, "sync group %q members differ in shared attributes", key)
			}
		}
	}
	return nil
}

// syncMembersAligned compares everything sync members must share: places,
// windows, durations, demand, group, compatibility and affinity. Skills may
// legitimately differ.
func syncMembersAligned(a, b *Job) bool {
	if len(a.Tasks) != len(b.Tasks) {
		return false
	}
	for i := range a.Tasks {
		ta, tb := a.Tasks[i], b.Tasks[i]
		if ta.Kind != tb.Kind || !ta.Demand.Equal(tb.Demand) || len(ta.Places) != len(tb.Places) {
			return false
		}
		for pi := range ta.Places {
			pa, pb := ta.Places[pi], tb.Places[pi]
			if pa.Location != pb.Location || pa.Duration != pb.Duration || len(pa.Times) != len(pb.Times) {
				return false
			}
			for wi := range pa.Times {
				if pa.Times[wi] != pb.Times[wi] {
					return false
				}
			}
		}
	}
	if a.Group != b.Group || a.Compatibility != b.Compatibility {
		return false
	}
	switch {
	case a.Affinity == nil && b.Affinity == nil:
	case a.Affinity != nil && b.Affinity != nil && a.Affinity.Key == b.Affinity.Key:
	default:
		return false
	}
	return true
}
