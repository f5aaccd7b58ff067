package matrix

import (
	"path/filepath"
	"testing"

	"vrpsolve/internal/model"
)

func testProfile(t *testing.T) *Profile {
	t.Helper()
	p, err := NewProfile(3,
		[]int64{0, 10, 20, 10, 0, 15, 20, 15, 0},
		[]int64{0, 60, 120, 60, 0, 90, 120, 90, 0})
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	return p
}

func TestProviderLookup(t *testing.T) {
	m := NewProvider()
	m.AddProfile("car", testProfile(t))

	if got := m.Distance("car", model.Location(0), model.Location(2)); got != 20 {
		t.Fatalf("distance = %d, want 20", got)
	}
	if got := m.Duration("car", model.Location(2), model.Location(1)); got != 90 {
		t.Fatalf("duration = %d, want 90", got)
	}
	if got := m.Distance("walk", 0, 1); got != 0 {
		t.Fatalf("unknown profile must yield 0, got %d", got)
	}
}

func TestNewProfileValidatesShape(t *testing.T) {
	if _, err := NewProfile(2, []int64{1, 2, 3}, []int64{1, 2, 3, 4}); err == nil {
		t.Fatal("short distance table must fail")
	}
	if _, err := NewProfile(0, nil, nil); err == nil {
		t.Fatal("zero size must fail")
	}
}

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix.db")
	c, err := OpenCache(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = c.Close() }()

	if _, ok, err := c.Load("car"); err != nil || ok {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}
	want := testProfile(t)
	if err := c.Store("car", want); err != nil {
		t.Fatalf("store: %v", err)
	}
	got, ok, err := c.Load("car")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Size != want.Size {
		t.Fatalf("size = %d, want %d", got.Size, want.Size)
	}
	for i := range want.Distances {
		if got.Distances[i] != want.Distances[i] || got.Durations[i] != want.Durations[i] {
			t.Fatalf("entry %d differs after round trip", i)
		}
	}

	// Upsert replaces the stored tables.
	want2, _ := NewProfile(1, []int64{0}, []int64{0})
	if err := c.Store("car", want2); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, _, _ = c.Load("car")
	if got.Size != 1 {
		t.Fatalf("upsert kept stale size %d", got.Size)
	}
}
