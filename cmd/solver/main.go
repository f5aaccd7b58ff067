package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"vrpsolve/internal/config"
	"vrpsolve/internal/monitor"
	"vrpsolve/internal/progress"
	"vrpsolve/internal/search"
	"vrpsolve/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "solve":
		os.Exit(runSolve(os.Args[2:]))
	case "check":
		os.Exit(runCheck(os.Args[2:]))
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: solver solve <problem.json> <matrix.json...> [-config cfg.yaml] [-out solution.json]")
	fmt.Fprintln(os.Stderr, "       solver check <solution.json>")
}

func runSolve(args []string) int {
	fs := flag.NewFlagSet("solve", flag.ExitOnError)
	cfgPath := fs.String("config", "", "solver config yaml")
	outPath := fs.String("out", "-", "solution output path")
	// positional: problem + matrices; flags may follow them
	var pos []string
	for len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		pos = append(pos, args[0])
		args = args[1:]
	}
	_ = fs.Parse(args)
	if len(pos) < 2 {
		usage()
		return 2
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Printf("config: %v", err)
		return 1
	}
	prob, err := loadProblem(pos[0], pos[1:], cfg.MatrixCache)
	if err != nil {
		log.Printf("problem: %v", err)
		return 1
	}

	var broker progress.Broker = progress.NewMemory()
	if cfg.RedisURL != "" {
		if rb, err := progress.NewRedis(cfg.RedisURL); err == nil {
			broker = rb
		} else {
			log.Printf("redis broker unavailable, using in-process: %v", err)
		}
	}

	var runs store.Store = store.NewMemory()
	if cfg.DatabaseURL != "" {
		if pg, err := store.NewPostgres(cfg.DatabaseURL); err == nil {
			runs = pg
		} else {
			log.Printf("postgres store unavailable, using in-memory: %v", err)
		}
	}

	if cfg.MonitorAddr != "" {
		mon := &monitor.Server{Broker: broker}
		go func() {
			if err := http.ListenAndServe(cfg.MonitorAddr, mon.Mux()); err != nil {
				log.Printf("monitor: %v", err)
			}
		}()
	}

	opts := cfg.SolverOptions()
	solver := search.New(prob, opts)
	runID := uuid.New().String()
	solver.RunID = runID
	solver.Broker = broker

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	run := store.Run{
		ID:        runID,
		StartedAt: time.Now(),
		Seed:      opts.Seed,
		Jobs:      len(prob.Jobs),
		Vehicles:  len(prob.Fleet.Refs()),
	}
	if err := runs.SaveRun(ctx, run); err != nil {
		log.Printf("save run: %v", err)
	}

	best, stats, err := solver.Solve(ctx)
	if err != nil {
		log.Printf("search: %v", err)
		return 1
	}

	run.FinishedAt = time.Now()
	run.Iterations = stats.Iterations
	run.Improvements = stats.Improvements
	run.Assigned = best.AssignedJobs()
	run.Unassigned = len(best.Unassigned)
	run.BestScore = stats.BestScore
	if err := runs.FinishRun(ctx, run); err != nil {
		log.Printf("finish run: %v", err)
	}
	_ = runs.SaveWeightSnapshot(ctx, store.WeightSnapshot{
		RunID:           runID,
		Iteration:       stats.Iterations,
		RuinWeights:     stats.RuinWeights,
		RecreateWeights: stats.RecreateWeights,
	})

	doc := encodeSolution(prob, best, stats)
	if err := writeSolution(*outPath, doc); err != nil {
		log.Printf("write solution: %v", err)
		return 1
	}
	log.Printf("run %s: %d iterations, %d/%d assigned, elapsed %s",
		runID, stats.Iterations, run.Assigned, len(prob.Jobs), stats.Elapsed.Round(time.Millisecond))
	return 0
}

func runCheck(args []string) int {
	if len(args) < 1 {
		usage()
		return 2
	}
	if err := checkSolution(args[0]); err != nil {
		log.Printf("check: %v", err)
		return 1
	}
	fmt.Println("ok")
	return 0
}
