package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the solver.
	Registry = prometheus.NewRegistry()
	// Iterations counts ruin/recreate steps by worker.
	Iterations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solver_iterations_total", Help: "Total ruin/recreate steps."},
		[]string{"worker"},
	)
	// Improvements counts accepted solutions that became best known.
	Improvements = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "solver_improvements_total", Help: "Accepted best-known improvements."},
	)
	// Accepted counts candidates admitted to the population.
	Accepted = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "solver_accepted_total", Help: "Candidates accepted into the population."},
	)
	// BestCost tracks the best known primary cost.
	BestCost = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "solver_best_cost", Help: "Best known cost objective value."},
	)
	// PopulationSize tracks the Pareto frontier size.
	PopulationSize = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "solver_population_size", Help: "Current Pareto frontier size."},
	)
	// OperatorWeight tracks adaptive operator selection weights.
	OperatorWeight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "solver_operator_weight", Help: "Adaptive operator weights."},
		[]string{"phase", "operator"},
	)
	// StepDuration records ruin/recreate step latency.
	StepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "solver_step_duration_seconds", Help: "Ruin/recreate step duration.", Buckets: prometheus.DefBuckets},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors on the solver registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(Iterations)
		Registry.MustRegister(Improvements)
		Registry.MustRegister(Accepted)
		Registry.MustRegister(BestCost)
		Registry.MustRegister(PopulationSize)
		Registry.MustRegister(OperatorWeight)
		Registry.MustRegister(StepDuration)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
