package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRunLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	run := Run{ID: "r1", StartedAt: time.Now(), Seed: 42, Jobs: 10, Vehicles: 2}
	if err := m.SaveRun(ctx, run); err != nil {
		t.Fatalf("save: %v", err)
	}

	run.FinishedAt = run.StartedAt.Add(time.Second)
	run.Iterations = 500
	run.Assigned = 9
	run.Unassigned = 1
	run.BestScore = []float64{1, 2, 3.5}
	if err := m.FinishRun(ctx, run); err != nil {
		t.Fatalf("finish: %v", err)
	}

	got, err := m.GetRun(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Iterations != 500 || got.Assigned != 9 || len(got.BestScore) != 3 {
		t.Fatalf("run round trip: %+v", got)
	}

	if _, err := m.GetRun(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing run: want ErrNotFound, got %v", err)
	}
	if err := m.FinishRun(ctx, Run{ID: "nope"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("finishing unknown run: want ErrNotFound, got %v", err)
	}
}

func TestMemoryListRunsNewestFirst(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Now()
	for i := 0; i < 3; i++ {
		_ = m.SaveRun(ctx, Run{ID: string(rune('a' + i)), StartedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	runs, err := m.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Fatalf("order: %+v", runs)
	}
}

func TestMemoryWeightSnapshots(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for i := int64(1); i <= 3; i++ {
		_ = m.SaveWeightSnapshot(ctx, WeightSnapshot{
			RunID:           "r1",
			Iteration:       i * 100,
			RuinWeights:     []float64{1, float64(i)},
			RecreateWeights: []float64{float64(i), 1},
		})
	}
	snaps, err := m.ListWeightSnapshots(ctx, "r1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(snaps) != 3 || snaps[2].Iteration != 300 {
		t.Fatalf("snapshots: %+v", snaps)
	}
	if snaps, _ := m.ListWeightSnapshots(ctx, "other"); len(snaps) != 0 {
		t.Fatal("snapshots leaked across runs")
	}
}
