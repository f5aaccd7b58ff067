// Package matrix provides routing matrix providers. Matrices are materialized
// up front and immutable afterwards; the search never performs I/O through them.
package matrix

import (
	"fmt"

	"vrpsolve/internal/model"
)

// Profile holds square distance and duration matrices for one routing profile.
type Profile struct {
	Size      int
	Distances []int64 // row-major, Size*Size
	Durations []int64
}

// NewProfile builds a profile from row-major matrices.
func NewProfile(size int, distances, durations []int64) (*Profile, error) {
	if size <= 0 || len(distances) != size*size || len(durations) != size*size {
		return nil, fmt.Errorf("matrix: want %d entries per table, got %d/%d", size*size, len(distances), len(durations))
	}
	return &Profile{Size: size, Distances: distances, Durations: durations}, nil
}

func (p *Profile) at(table []int64, from, to model.Location) int64 {
	return table[int(from)*p.Size+int(to)]
}

// Provider is an in-memory, multi-profile matrix set implementing model.Transport.
type Provider struct {
	profiles map[string]*Profile
}

func NewProvider() *Provider { return &Provider{profiles: map[string]*Profile{}} }

// AddProfile registers a named profile. Must happen before the search starts.
func (m *Provider) AddProfile(name string, p *Profile) { m.profiles[name] = p }

// HasProfile reports whether a profile is loaded.
func (m *Provider) HasProfile(name string) bool { _, ok := m.profiles[name]; return ok }

func (m *Provider) Distance(profile string, from, to model.Location) int64 {
	if p := m.profiles[profile]; p != nil {
		return p.at(p.Distances, from, to)
	}
	return 0
}

func (m *Provider) Duration(profile string, from, to model.Location) int64 {
	if p := m.profiles[profile]; p != nil {
		return p.at(p.Durations, from, to)
	}
	return 0
}
