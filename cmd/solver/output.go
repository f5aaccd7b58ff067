package main

import (
	"encoding/json"
	"fmt"
	"os"

	"vrpsolve/internal/model"
	"vrpsolve/internal/objective"
	"vrpsolve/internal/route"
	"vrpsolve/internal/search"
	"vrpsolve/internal/solution"
)

type solutionDoc struct {
	Tours      []tourDoc         `json:"tours"`
	Unassigned []unassignedDoc   `json:"unassigned,omitempty"`
	Objectives []objectiveValDoc `json:"objectives"`
	Statistics statsDoc          `json:"statistics"`
}

type tourDoc struct {
	VehicleID  string    `json:"vehicleId"`
	ShiftIndex int       `json:"shiftIndex"`
	Stops      []stopDoc `json:"stops"`
	Distance   int64     `json:"distance"`
	Duration   int64     `json:"duration"`
	Cost       float64   `json:"cost"`
}

type stopDoc struct {
	Kind         string  `json:"kind"`
	Location     int     `json:"location"`
	JobID        string  `json:"jobId,omitempty"`
	Task         string  `json:"task,omitempty"`
	Tag          string  `json:"tag,omitempty"`
	Arrival      int64   `json:"arrival"`
	Waiting      int64   `json:"waiting,omitempty"`
	ServiceStart int64   `json:"serviceStart"`
	ServiceEnd   int64   `json:"serviceEnd"`
	Load         []int64 `json:"load,omitempty"`
}

type unassignedDoc struct {
	JobID  string `json:"jobId"`
	Reason string `json:"reason"`
}

type objectiveValDoc struct {
	Kind  string  `json:"kind"`
	Value float64 `json:"value"`
}

type statsDoc struct {
	Iterations   int64   `json:"iterations"`
	Improvements int64   `json:"improvements"`
	ElapsedSec   float64 `json:"elapsedSec"`
}

// encodeSolution maps the best solution onto the output document. Place tags
// from the input propagate to their stops.
func encodeSolution(p *model.Problem, sol *solution.Solution, stats search.Stats) solutionDoc {
	objs := objective.New(p)
	score := objs.Evaluate(p, sol)

	doc := solutionDoc{
		Statistics: statsDoc{
			Iterations:   stats.Iterations,
			Improvements: stats.Improvements,
			ElapsedSec:   stats.Elapsed.Seconds(),
		},
	}
	for i, spec := range objs.Specs() {
		v := 0.0
		if i < len(score) {
			v = score[i]
		}
		doc.Objectives = append(doc.Objectives, objectiveValDoc{Kind: string(spec.Kind), Value: v})
	}
	for _, r := range sol.Routes {
		if r.IsEmpty() {
			continue
		}
		td := tourDoc{
			VehicleID:  r.Vehicle.VehicleID,
			ShiftIndex: r.Vehicle.ShiftIndex,
			Distance:   r.Distance,
			Duration:   r.Duration,
			Cost:       objective.RouteCost(r),
		}
		for i, a := range r.Activities {
			sd := stopDoc{
				Kind:         a.Kind.String(),
				Location:     int(r.LocationAt(i)),
				Tag:          a.Tag,
				Arrival:      a.Arrival,
				Waiting:      a.Waiting,
				ServiceStart: a.ServiceStart,
				ServiceEnd:   a.ServiceEnd,
				Load:         []int64(a.Load),
			}
			if a.Kind == route.JobPlace {
				sd.JobID = a.Job.ID
				sd.Task = a.Task().Kind.String()
			}
			td.Stops = append(td.Stops, sd)
		}
		doc.Tours = append(doc.Tours, td)
	}
	for id, code := range sol.Unassigned {
		if code == "" {
			code = "UNASSIGNED"
		}
		doc.Unassigned = append(doc.Unassigned, unassignedDoc{JobID: id, Reason: code})
	}
	return doc
}

func writeSolution(path string, doc solutionDoc) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if path == "" || path == "-" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// checkSolution verifies the internal consistency of a solution document:
// schedule monotonicity per tour and service arithmetic.
func checkSolution(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc solutionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse solution: %w", err)
	}
	for _, t := range doc.Tours {
		prevEnd := int64(0)
		for i, s := range t.Stops {
			if s.ServiceStart < s.Arrival {
				return fmt.Errorf("tour %s stop %d: service starts before arrival", t.VehicleID, i)
			}
			if s.ServiceEnd < s.ServiceStart {
				return fmt.Errorf("tour %s stop %d: service ends before it starts", t.VehicleID, i)
			}
			if i > 0 && s.Arrival < prevEnd {
				return fmt.Errorf("tour %s stop %d: arrival precedes previous departure", t.VehicleID, i)
			}
			prevEnd = s.ServiceEnd
		}
	}
	return nil
}
