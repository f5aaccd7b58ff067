package search

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"vrpsolve/internal/constraint"
	"vrpsolve/internal/model"
	"vrpsolve/internal/objective"
	"vrpsolve/internal/progress"
	"vrpsolve/internal/solution"
	"vrpsolve/internal/telemetry"
)

// Options configures termination and search behavior.
type Options struct {
	MaxTime          time.Duration // wall-clock budget, default 300s
	MaxGenerations   int64         // iteration cap, 0 = unlimited
	Variation        int64         // stop after N iterations without improvement, default 2000
	TargetCost       float64       // stop when the cost objective reaches this, 0 = off
	InitialSolutions int           // constructive restarts, default 4
	PopulationCap    int           // Pareto frontier cap P, default 4
	Parallelism      int           // workers, default logical cores
	Seed             int64         // 0 draws from time
	Operators        []string      // enabled ruin families, empty = all
	MinRuin, MaxRuin int           // jobs removed per step, defaults 8..32
}

func (o Options) withDefaults() Options {
	if o.MaxTime <= 0 {
		o.MaxTime = 300 * time.Second
	}
	if o.Variation <= 0 {
		o.Variation = 2000
	}
	if o.InitialSolutions <= 0 {
		o.InitialSolutions = 4
	}
	if o.PopulationCap <= 0 {
		o.PopulationCap = 4
	}
	if o.Parallelism <= 0 {
		o.Parallelism = runtime.NumCPU()
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	if o.MinRuin <= 0 {
		o.MinRuin = 8
	}
	if o.MaxRuin < o.MinRuin {
		o.MaxRuin = 32
		if o.MaxRuin < o.MinRuin {
			o.MaxRuin = o.MinRuin
		}
	}
	return o
}

// SearchError reports that no valid initial assignment could be constructed.
type SearchError struct {
	Code    string
	Message string
}

func (e *SearchError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

// Stats summarizes a finished search.
type Stats struct {
	Iterations      int64
	Improvements    int64
	Accepted        int64
	BestScore       []float64
	Elapsed         time.Duration
	RuinWeights     []float64
	RecreateWeights []float64
}

// Solver runs the parallel ruin-and-recreate loop over a validated problem.
type Solver struct {
	problem    *model.Problem
	pipeline   *constraint.Pipeline
	objectives *objective.Set
	opts       Options

	ruins     []Ruin
	recreates []Recreate
	ruinW     *opWeights
	recW      *opWeights

	pop *Population

	// Progress publication, throttled so the broker never becomes hot-loop cost.
	RunID   string
	Broker  progress.Broker
	limiter *rate.Limiter
}

// New builds a solver. The problem must already be validated.
func New(p *model.Problem, opts Options) *Solver {
	opts = opts.withDefaults()
	s := &Solver{
		problem:    p,
		pipeline:   constraint.Default(),
		objectives: objective.New(p),
		opts:       opts,
		pop:        NewPopulation(opts.PopulationCap),
		limiter:    rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
	}
	s.ruins = enabledRuins(opts.Operators)
	s.recreates = []Recreate{
		CheapestRecreate{},
		RegretRecreate{K: 2},
		RegretRecreate{K: 3},
		BlinkRecreate{Beta: 0.01},
	}
	s.ruinW = newOpWeights(len(s.ruins))
	s.recW = newOpWeights(len(s.recreates))
	return s
}

// Pipeline exposes the constraint pipeline for user-registered constraints.
func (s *Solver) Pipeline() *constraint.Pipeline { return s.pipeline }

func enabledRuins(names []string) []Ruin {
	all := []Ruin{RandomRuin{}, ClusterRuin{}, WorstRuin{}, RelatedRuin{}, RouteRuin{}}
	if len(names) == 0 {
		return all
	}
	want := map[string]struct{}{}
	for _, n := range names {
		want[n] = struct{}{}
	}
	var out []Ruin
	for _, r := range all {
		if _, ok := want[r.Name()]; ok {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return all
	}
	return out
}

func (s *Solver) newEvaluator(rng *rand.Rand) *Evaluator {
	return &Evaluator{
		Problem:    s.problem,
		Pipeline:   s.pipeline,
		Objectives: s.objectives,
		Rand:       rng,
	}
}

// Solve runs the search until a termination predicate fires or ctx is
// cancelled, returning the best accepted solution.
func (s *Solver) Solve(ctx context.Context) (*solution.Solution, Stats, error) {
	start := time.Now()
	if len(s.problem.Fleet.Refs()) == 0 {
		return nil, Stats{}, &SearchError{Code: model.CodeEmptyVehicleType, Message: "fleet has no usable vehicles"}
	}
	telemetry.RegisterDefault()
	s.publish(progress.EventStarted, map[string]any{"jobs": len(s.problem.Jobs)})

	// Constructive starts rotate the recreate operators for diversity.
	seedRng := rand.New(rand.NewSource(s.opts.Seed))
	for i := 0; i < s.opts.InitialSolutions; i++ {
		e := s.newEvaluator(rand.New(rand.NewSource(seedRng.Int63())))
		sol := solution.NewEmpty(s.problem)
		s.pipeline.AcceptSolution(s.problem, sol)
		s.recreates[i%len(s.recreates)].Apply(e, sol)
		score := s.objectives.Evaluate(s.problem, sol)
		s.pop.Add(sol, score)
	}
	if s.pop.Size() == 0 {
		return nil, Stats{}, &SearchError{Code: constraint.CodeCapacity, Message: "no initial solution could be constructed"}
	}

	var (
		iterations   atomic.Int64
		improvements atomic.Int64
		accepted     atomic.Int64
		sinceImprove atomic.Int64
		stop         atomic.Bool
	)

	deadline := time.Now().Add(s.opts.MaxTime)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < s.opts.Parallelism; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(s.opts.Seed + int64(worker)*7919))
			e := s.newEvaluator(rng)
			label := strconv.Itoa(worker)
			for !stop.Load() {
				select {
				case <-ctx.Done():
					return
				default:
				}
				stepStart := time.Now()
				it := iterations.Add(1)
				if s.opts.MaxGenerations > 0 && it > s.opts.MaxGenerations {
					stop.Store(true)
					return
				}

				parent := s.pop.Select(rng)
				if parent == nil {
					return
				}
				ri := s.ruinW.pick(rng)
				ci := s.recW.pick(rng)
				k := s.opts.MinRuin
				if s.opts.MaxRuin > s.opts.MinRuin {
					k += rng.Intn(s.opts.MaxRuin - s.opts.MinRuin + 1)
				}
				s.ruins[ri].Apply(e, parent, rng, k)
				s.recreates[ci].Apply(e, parent)
				score := s.objectives.Evaluate(s.problem, parent)

				ok, best := s.pop.Add(parent, score)
				s.ruinW.reward(ri, best, ok)
				s.recW.reward(ci, best, ok)
				telemetry.Iterations.WithLabelValues(label).Inc()
				telemetry.StepDuration.Observe(time.Since(stepStart).Seconds())
				if ok {
					accepted.Add(1)
					telemetry.Accepted.Inc()
				}
				if best {
					improvements.Add(1)
					sinceImprove.Store(0)
					telemetry.Improvements.Inc()
					telemetry.BestCost.Set(s.costOf(score))
					s.publishThrottled(progress.EventImprovement, map[string]any{
						"iteration": it,
						"score":     append([]float64(nil), score...),
					})
					if s.opts.TargetCost > 0 && s.costOf(score) <= s.opts.TargetCost {
						stop.Store(true)
						return
					}
				} else if sinceImprove.Add(1) >= s.opts.Variation {
					stop.Store(true)
					return
				}
				telemetry.PopulationSize.Set(float64(s.pop.Size()))
				if it%1000 == 0 {
					s.publishThrottled(progress.EventGeneration, map[string]any{"iteration": it})
				}
			}
		}(w)
	}
	wg.Wait()

	best, score := s.pop.Best()
	stats := Stats{
		Iterations:      iterations.Load(),
		Improvements:    improvements.Load(),
		Accepted:        accepted.Load(),
		BestScore:       score,
		Elapsed:         time.Since(start),
		RuinWeights:     s.ruinW.snapshot(),
		RecreateWeights: s.recW.snapshot(),
	}
	for i, w := range stats.RuinWeights {
		telemetry.OperatorWeight.WithLabelValues("ruin", s.ruins[i].Name()).Set(w)
	}
	for i, w := range stats.RecreateWeights {
		telemetry.OperatorWeight.WithLabelValues("recreate", s.recreates[i].Name()).Set(w)
	}
	s.publish(progress.EventDone, map[string]any{
		"iterations": stats.Iterations,
		"elapsed":    stats.Elapsed.Seconds(),
		"score":      append([]float64(nil), score...),
	})
	return best, stats, nil
}

// costOf extracts the cost objective value from a score tuple, falling back to
// the last component.
func (s *Solver) costOf(score []float64) float64 {
	if len(score) == 0 {
		return 0
	}
	for i, spec := range s.objectives.Specs() {
		if spec.Kind == model.MinimizeCost && i < len(score) {
			return score[i]
		}
	}
	return score[len(score)-1]
}

func (s *Solver) publish(evt string, data map[string]any) {
	if s.Broker == nil {
		return
	}
	s.Broker.Publish(s.RunID, progress.Event{Type: evt, Data: data})
}

// publishThrottled drops events beyond the rate limit; improvement spam from
// the hot loop must never block a worker.
func (s *Solver) publishThrottled(evt string, data map[string]any) {
	if s.Broker == nil || !s.limiter.Allow() {
		return
	}
	s.Broker.Publish(s.RunID, progress.Event{Type: evt, Data: data})
}
