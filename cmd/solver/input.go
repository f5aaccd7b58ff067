package main

import (
	"encoding/json"
	"fmt"
	"os"

	"vrpsolve/internal/matrix"
	"vrpsolve/internal/model"
)

// Problem exchange document. The core consumes the interned model.Problem;
// this file only maps the JSON onto it.

type problemDoc struct {
	Jobs       []jobDoc       `json:"jobs"`
	Fleet      fleetDoc       `json:"fleet"`
	Resources  []resourceDoc  `json:"resources,omitempty"`
	Objectives []objectiveDoc `json:"objectives,omitempty"`
}

type jobDoc struct {
	ID             string       `json:"id"`
	Tasks          []taskDoc    `json:"tasks"`
	Skills         *skillsDoc   `json:"skills,omitempty"`
	Value          float64      `json:"value,omitempty"`
	Group          string       `json:"group,omitempty"`
	Compatibility  string       `json:"compatibility,omitempty"`
	Affinity       *affinityDoc `json:"affinity,omitempty"`
	Sync           *syncDoc     `json:"sync,omitempty"`
	SameAssignee   string       `json:"sameAssignee,omitempty"`
	UnassignWeight float64      `json:"unassignWeight,omitempty"`
}

type taskDoc struct {
	Kind   string     `json:"kind"`
	Places []placeDoc `json:"places"`
	Demand []int64    `json:"demand,omitempty"`
	Order  int        `json:"order,omitempty"`
}

type placeDoc struct {
	Location int         `json:"location"`
	Duration int64       `json:"duration,omitempty"`
	Times    []windowDoc `json:"times,omitempty"`
	Tag      string      `json:"tag,omitempty"`
}

type windowDoc struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

type skillsDoc struct {
	AllOf  []string `json:"allOf,omitempty"`
	OneOf  []string `json:"oneOf,omitempty"`
	NoneOf []string `json:"noneOf,omitempty"`
}

type affinityDoc struct {
	Key          string `json:"key"`
	Sequence     *int   `json:"sequence,omitempty"`
	DurationDays int    `json:"durationDays,omitempty"`
}

type syncDoc struct {
	Key              string `json:"key"`
	Index            int    `json:"index"`
	VehiclesRequired int    `json:"vehiclesRequired"`
	Tolerance        int64  `json:"tolerance"`
}

type fleetDoc struct {
	Types []vehicleTypeDoc `json:"types"`
}

type vehicleTypeDoc struct {
	TypeID        string     `json:"typeId"`
	VehicleIDs    []string   `json:"vehicleIds"`
	Profile       string     `json:"profile"`
	DurationScale float64    `json:"durationScale,omitempty"`
	Costs         costsDoc   `json:"costs"`
	Capacity      []int64    `json:"capacity,omitempty"`
	Skills        []string   `json:"skills,omitempty"`
	Limits        *limitsDoc `json:"limits,omitempty"`
	Shifts        []shiftDoc `json:"shifts"`
}

type costsDoc struct {
	Fixed         float64   `json:"fixed,omitempty"`
	Mode          string    `json:"calculationMode,omitempty"` // highestTier | cumulative
	DistanceTiers []tierDoc `json:"distanceTiers,omitempty"`
	DurationTiers []tierDoc `json:"durationTiers,omitempty"`
}

type tierDoc struct {
	Threshold float64 `json:"threshold"`
	Rate      float64 `json:"rate"`
}

type limitsDoc struct {
	MaxDuration         int64 `json:"maxDuration,omitempty"`
	MaxDistance         int64 `json:"maxDistance,omitempty"`
	MaxActivityDuration int64 `json:"maxActivityDuration,omitempty"`
	TourSize            int   `json:"tourSize,omitempty"`
}

type shiftDoc struct {
	Start   shiftPointDoc  `json:"start"`
	End     *shiftPointDoc `json:"end,omitempty"`
	Breaks  []breakDoc     `json:"breaks,omitempty"`
	Reloads []reloadDoc    `json:"reloads,omitempty"`
}

type shiftPointDoc struct {
	Location int   `json:"location"`
	Earliest int64 `json:"earliest,omitempty"`
	Latest   int64 `json:"latest,omitempty"`
}

type breakDoc struct {
	Duration int64     `json:"duration"`
	Window   windowDoc `json:"window"`
	Required bool      `json:"required,omitempty"`
	Location *int      `json:"location,omitempty"`
	Policy   string    `json:"policy,omitempty"` // skip-if-no-intersection | skip-if-arrival-before-end
}

type reloadDoc struct {
	Location   int    `json:"location"`
	Duration   int64  `json:"duration,omitempty"`
	ResourceID string `json:"resourceId,omitempty"`
}

type resourceDoc struct {
	ID       string  `json:"id"`
	Capacity []int64 `json:"capacity"`
}

type objectiveDoc struct {
	Kind string `json:"kind"`
}

type matrixDoc struct {
	Profile   string  `json:"profile"`
	Size      int     `json:"size"`
	Distances []int64 `json:"distances"`
	Durations []int64 `json:"durations"`
}

// loadProblem reads the problem document and its matrices, returning a
// validated model graph.
func loadProblem(problemPath string, matrixPaths []string, cachePath string) (*model.Problem, error) {
	data, err := os.ReadFile(problemPath)
	if err != nil {
		return nil, err
	}
	var doc problemDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse problem: %w", err)
	}

	provider := matrix.NewProvider()
	var cache *matrix.Cache
	if cachePath != "" {
		if cache, err = matrix.OpenCache(cachePath); err != nil {
			return nil, err
		}
		defer func() { _ = cache.Close() }()
	}
	for _, mp := range matrixPaths {
		if err := loadMatrix(provider, cache, mp); err != nil {
			return nil, err
		}
	}

	p := &model.Problem{Transport: provider}
	for _, jd := range doc.Jobs {
		j, err := buildJob(jd)
		if err != nil {
			return nil, err
		}
		p.Jobs = append(p.Jobs, j)
	}
	for _, td := range doc.Fleet.Types {
		t, err := buildVehicleType(td)
		if err != nil {
			return nil, err
		}
		if !provider.HasProfile(t.Profile) {
			return nil, fmt.Errorf("%s: vehicle type %q references unloaded profile %q", model.CodeEmptyVehicleType, t.TypeID, t.Profile)
		}
		p.Fleet.Types = append(p.Fleet.Types, t)
	}
	for _, rd := range doc.Resources {
		p.Resources = append(p.Resources, model.ReloadResource{ID: rd.ID, Capacity: model.Demand(rd.Capacity)})
	}
	for _, od := range doc.Objectives {
		p.Objectives = append(p.Objectives, model.ObjectiveSpec{Kind: model.ObjectiveKind(od.Kind)})
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func loadMatrix(provider *matrix.Provider, cache *matrix.Cache, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc matrixDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse matrix %s: %w", path, err)
	}
	if cache != nil {
		if p, ok, err := cache.Load(doc.Profile); err == nil && ok && p.Size == doc.Size {
			provider.AddProfile(doc.Profile, p)
			return nil
		}
	}
	p, err := matrix.NewProfile(doc.Size, doc.Distances, doc.Durations)
	if err != nil {
		return fmt.Errorf("matrix %s: %w", path, err)
	}
	provider.AddProfile(doc.Profile, p)
	if cache != nil {
		_ = cache.Store(doc.Profile, p)
	}
	return nil
}

func buildJob(jd jobDoc) (*model.Job, error) {
	j := &model.Job{
		ID:             jd.ID,
		Value:          jd.Value,
		Group:          jd.Group,
		Compatibility:  jd.Compatibility,
		SameAssignee:   jd.SameAssignee,
		UnassignWeight: jd.UnassignWeight,
	}
	for _, td := range jd.Tasks {
		kind, err := taskKind(td.Kind)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", jd.ID, err)
		}
		task := model.Task{Kind: kind, Demand: model.Demand(td.Demand), Order: td.Order}
		for _, pd := range td.Places {
			pl := model.Place{Location: model.Location(pd.Location), Duration: pd.Duration, Tag: pd.Tag}
			for _, w := range pd.Times {
				pl.Times = append(pl.Times, model.TimeWindow{Start: w.Start, End: w.End})
			}
			task.Places = append(task.Places, pl)
		}
		j.Tasks = append(j.Tasks, task)
	}
	if jd.Skills != nil {
		j.Skills = &model.SkillExpr{AllOf: jd.Skills.AllOf, OneOf: jd.Skills.OneOf, NoneOf: jd.Skills.NoneOf}
	}
	if jd.Affinity != nil {
		a := &model.Affinity{Key: jd.Affinity.Key, Sequence: -1, DurationDays: jd.Affinity.DurationDays}
		if jd.Affinity.Sequence != nil {
			a.Sequence = *jd.Affinity.Sequence
		}
		j.Affinity = a
	}
	if jd.Sync != nil {
		j.Sync = &model.Sync{
			Key:              jd.Sync.Key,
			Index:            jd.Sync.Index,
			VehiclesRequired: jd.Sync.VehiclesRequired,
			Tolerance:        jd.Sync.Tolerance,
		}
	}
	return j, nil
}

func taskKind(s string) (model.TaskKind, error) {
	switch s {
	case "pickup":
		return model.TaskPickup, nil
	case "delivery":
		return model.TaskDelivery, nil
	case "replacement":
		return model.TaskReplacement, nil
	case "service", "":
		return model.TaskService, nil
	default:
		return 0, fmt.Errorf("unknown task kind %q", s)
	}
}

func buildVehicleType(td vehicleTypeDoc) (*model.VehicleType, error) {
	t := &model.VehicleType{
		TypeID:        td.TypeID,
		VehicleIDs:    td.VehicleIDs,
		Profile:       td.Profile,
		DurationScale: td.DurationScale,
		Capacity:      model.Demand(td.Capacity),
		Skills:        td.Skills,
	}
	if td.Limits != nil {
		t.Limits = model.Limits{
			MaxDuration:         td.Limits.MaxDuration,
			MaxDistance:         td.Limits.MaxDistance,
			MaxActivityDuration: td.Limits.MaxActivityDuration,
			TourSize:            td.Limits.TourSize,
		}
	}
	costs, err := buildCosts(td.Costs)
	if err != nil {
		return nil, fmt.Errorf("%s: vehicle type %s: %w", model.CodeInvalidCostTiers, td.TypeID, err)
	}
	t.Costs = costs
	for _, sd := range td.Shifts {
		sh := model.Shift{
			Start: model.ShiftPoint{Location: model.Location(sd.Start.Location), Earliest: sd.Start.Earliest, Latest: sd.Start.Latest},
		}
		if sd.End != nil {
			sh.End = &model.ShiftPoint{Location: model.Location(sd.End.Location), Earliest: sd.End.Earliest, Latest: sd.End.Latest}
		}
		for _, bd := range sd.Breaks {
			b := model.Break{
				Duration: bd.Duration,
				Window:   model.TimeWindow{Start: bd.Window.Start, End: bd.Window.End},
				Required: bd.Required,
			}
			if bd.Location != nil {
				loc := model.Location(*bd.Location)
				b.Location = &loc
			}
			switch bd.Policy {
			case "skip-if-no-intersection":
				b.Policy = model.SkipIfNoIntersection
			case "skip-if-arrival-before-end":
				b.Policy = model.SkipIfArrivalBeforeEnd
			}
			sh.Breaks = append(sh.Breaks, b)
		}
		for _, rd := range sd.Reloads {
			sh.Reloads = append(sh.Reloads, model.Reload{
				Location:   model.Location(rd.Location),
				Duration:   rd.Duration,
				ResourceID: rd.ResourceID,
			})
		}
		t.Shifts = append(t.Shifts, sh)
	}
	return t, nil
}

func buildCosts(cd costsDoc) (model.CostSchedule, error) {
	out := model.CostSchedule{Fixed: cd.Fixed}
	if cd.Mode == "cumulative" {
		out.Mode = model.Cumulative
	}
	var err error
	if out.PerDistance, err = buildTiered(cd.DistanceTiers); err != nil {
		return out, err
	}
	if out.PerDuration, err = buildTiered(cd.DurationTiers); err != nil {
		return out, err
	}
	return out, nil
}

func buildTiered(docs []tierDoc) (model.TieredCost, error) {
	if len(docs) == 0 {
		return model.FixedCost(0), nil
	}
	if len(docs) == 1 && docs[0].Threshold == 0 {
		return model.FixedCost(docs[0].Rate), nil
	}
	tiers := make([]model.Tier, len(docs))
	for i, d := range docs {
		tiers[i] = model.Tier{Threshold: d.Threshold, Rate: d.Rate}
	}
	return model.TieredCosts(tiers)
}
