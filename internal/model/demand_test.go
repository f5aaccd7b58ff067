package model

import "testing"

func TestDemandArithmetic(t *testing.T) {
	a := Demand{1, 2}
	b := Demand{3}
	sum := a.Add(b)
	if !sum.Equal(Demand{4, 2}) {
		t.Fatalf("add = %v", sum)
	}
	diff := a.Sub(b)
	if !diff.Equal(Demand{-2, 2}) {
		t.Fatalf("sub = %v", diff)
	}
	if !(Demand{}).IsZero() || !(Demand{0, 0}).IsZero() {
		t.Fatal("zero detection")
	}
}

func TestDemandFits(t *testing.T) {
	cap := Demand{3, 5}
	cases := []struct {
		load Demand
		want bool
	}{
		{Demand{0, 0}, true},
		{Demand{3, 5}, true},
		{Demand{4, 0}, false},
		{Demand{-1, 0}, false},
		{Demand{1}, true},
		{Demand{1, 2, 1}, false}, // extra component exceeds implicit zero cap
	}
	for i, c := range cases {
		if got := c.load.Fits(cap); got != c.want {
			t.Fatalf("case %d: Fits(%v) = %v, want %v", i, c.load, got, c.want)
		}
	}
}

func TestDemandCloneIndependence(t *testing.T) {
	a := Demand{1, 2}
	b := a.Clone()
	b[0] = 9
	if a[0] != 1 {
		t.Fatal("clone aliases the original")
	}
}
