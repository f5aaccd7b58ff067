package search

import (
	"math"
	"math/rand"
	"sync"

	"vrpsolve/internal/objective"
	"vrpsolve/internal/solution"
)

// Individual pairs a solution with its evaluated score tuple.
type Individual struct {
	Sol   *solution.Solution
	Score []float64
}

// Population keeps the non-dominated frontier up to a cap, evicting the most
// crowded member when full. All operations are safe for concurrent workers.
type Population struct {
	mu    sync.Mutex
	cap   int
	items []*Individual
}

// NewPopulation builds a frontier with the given cap (minimum 1).
func NewPopulation(cap int) *Population {
	if cap < 1 {
		cap = 1
	}
	return &Population{cap: cap}
}

// Add offers a candidate. It is rejected when dominated by (or scoring equal
// to) any member; members it dominates are dropped. Returns (accepted,
// becameBest).
func (p *Population) Add(sol *solution.Solution, score []float64) (bool, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, it := range p.items {
		if objective.Dominates(it.Score, score) || objective.Equal(it.Score, score) {
			return false, false
		}
	}
	kept := p.items[:0]
	for _, it := range p.items {
		if !objective.Dominates(score, it.Score) {
			kept = append(kept, it)
		}
	}
	p.items = append(kept, &Individual{Sol: sol, Score: score})
	if len(p.items) > p.cap {
		p.evictMostCrowded()
	}
	accepted := false
	best := true
	for _, it := range p.items {
		if it.Sol == sol {
			accepted = true
		} else if objective.Less(it.Score, score) {
			best = false
		}
	}
	return accepted, accepted && best
}

// evictMostCrowded removes the member with the smallest crowding distance,
// preserving frontier diversity. Boundary members are never evicted.
func (p *Population) evictMostCrowded() {
	n := len(p.items)
	dist := make([]float64, n)
	dims := len(p.items[0].Score)
	order := make([]int, n)
	for d := 0; d < dims; d++ {
		for i := range order {
			order[i] = i
		}
		for i := 0; i < n; i++ { // insertion sort keeps this allocation-free
			for j := i; j > 0 && p.items[order[j]].Score[d] < p.items[order[j-1]].Score[d]; j-- {
				order[j], order[j-1] = order[j-1], order[j]
			}
		}
		lo := p.items[order[0]].Score[d]
		hi := p.items[order[n-1]].Score[d]
		span := hi - lo
		dist[order[0]] = math.Inf(1)
		dist[order[n-1]] = math.Inf(1)
		if span == 0 {
			continue
		}
		for i := 1; i < n-1; i++ {
			dist[order[i]] += (p.items[order[i+1]].Score[d] - p.items[order[i-1]].Score[d]) / span
		}
	}
	victim := 0
	for i := 1; i < n; i++ {
		if dist[i] < dist[victim] {
			victim = i
		}
	}
	p.items = append(p.items[:victim], p.items[victim+1:]...)
}

// Select draws a parent, weighted toward the lexicographic front.
func (p *Population) Select(rng *rand.Rand) *solution.Solution {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.items) == 0 {
		return nil
	}
	// Rank by lexicographic order; weight rank r (0 = best) as 1/(r+1).
	ranked := append([]*Individual(nil), p.items...)
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && objective.Less(ranked[j].Score, ranked[j-1].Score); j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	total := 0.0
	for i := range ranked {
		total += 1 / float64(i+1)
	}
	r := rng.Float64() * total
	acc := 0.0
	for i, it := range ranked {
		acc += 1 / float64(i+1)
		if r <= acc {
			return it.Sol.Clone()
		}
	}
	return ranked[len(ranked)-1].Sol.Clone()
}

// Best returns the lexicographically best member.
func (p *Population) Best() (*solution.Solution, []float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.items) == 0 {
		return nil, nil
	}
	best := p.items[0]
	for _, it := range p.items[1:] {
		if objective.Less(it.Score, best.Score) {
			best = it
		}
	}
	return best.Sol, best.Score
}

// Size reports the current frontier size.
func (p *Population) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}
