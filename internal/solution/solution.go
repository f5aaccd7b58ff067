// Package solution holds the mutable search state: routes, the unassigned job
// registry and solution-level constraint state.
package solution

import (
	"vrpsolve/internal/model"
	"vrpsolve/internal/route"
)

// Solution is a logically value-typed assignment of jobs to tours. Clones are
// cheap: routes are shared until touched.
type Solution struct {
	Routes     []*route.Route
	Unassigned map[string]string // job id -> violation code

	// Score caches the lexicographic objective tuple; nil until evaluated.
	Score []float64

	state map[string]any
	owned map[int]struct{} // route indices cloned into this copy
}

// NewEmpty builds a solution with one empty route per fleet tour resource and
// every job unassigned.
func NewEmpty(p *model.Problem) *Solution {
	refs := p.Fleet.Refs()
	s := &Solution{
		Routes:     make([]*route.Route, len(refs)),
		Unassigned: make(map[string]string, len(p.Jobs)),
		owned:      make(map[int]struct{}, len(refs)),
	}
	for i, ref := range refs {
		s.Routes[i] = route.New(ref)
		s.owned[i] = struct{}{}
	}
	for _, j := range p.Jobs {
		s.Unassigned[j.ID] = ""
	}
	return s
}

// Clone returns a copy-on-write copy. Touched routes must be obtained through
// MutableRoute so the parent stays intact.
func (s *Solution) Clone() *Solution {
	out := &Solution{
		Routes:     append([]*route.Route(nil), s.Routes...),
		Unassigned: make(map[string]string, len(s.Unassigned)),
		owned:      make(map[int]struct{}),
	}
	for k, v := range s.Unassigned {
		out.Unassigned[k] = v
	}
	if len(s.state) > 0 {
		out.state = make(map[string]any, len(s.state))
		for k, v := range s.state {
			out.state[k] = v
		}
	}
	return out
}

// MutableRoute returns the route at index i, cloning it first if this copy does
// not own it yet.
func (s *Solution) MutableRoute(i int) *route.Route {
	if _, ok := s.owned[i]; !ok {
		s.Routes[i] = s.Routes[i].Clone()
		s.owned[i] = struct{}{}
	}
	return s.Routes[i]
}

// RouteIndexOfJob locates the route serving a job, or -1.
func (s *Solution) RouteIndexOfJob(jobID string) int {
	for i, r := range s.Routes {
		if r.HasJob(jobID) {
			return i
		}
	}
	return -1
}

// ActiveRoutes counts routes serving at least one job.
func (s *Solution) ActiveRoutes() int {
	n := 0
	for _, r := range s.Routes {
		if !r.IsEmpty() {
			n++
		}
	}
	return n
}

// AssignedJobs counts distinct jobs on routes.
func (s *Solution) AssignedJobs() int {
	n := 0
	for _, r := range s.Routes {
		n += len(r.Jobs())
	}
	return n
}

// MarkUnassigned records a job with the first hard violation that rejected it.
func (s *Solution) MarkUnassigned(jobID, code string) { s.Unassigned[jobID] = code }

// ClearUnassigned removes a job from the unassigned registry once placed.
func (s *Solution) ClearUnassigned(jobID string) { delete(s.Unassigned, jobID) }

// State returns a solution-level constraint slot.
func (s *Solution) State(key string) (any, bool) {
	v, ok := s.state[key]
	return v, ok
}

// SetState stores a solution-level constraint slot. The slot set is append-only
// within a search run.
func (s *Solution) SetState(key string, v any) {
	if s.state == nil {
		s.state = map[string]any{}
	}
	s.state[key] = v
}

// InvalidateScore drops the cached objective tuple after a mutation.
func (s *Solution) InvalidateScore() { s.Score = nil }
