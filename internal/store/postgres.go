package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres persists runs in PostgreSQL via the pgx stdlib driver.
type Postgres struct {
	db *sql.DB
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS solver_runs (
    id            TEXT PRIMARY KEY,
    started_at    TIMESTAMPTZ NOT NULL,
    finished_at   TIMESTAMPTZ,
    seed          BIGINT NOT NULL,
    jobs          INT NOT NULL,
    vehicles      INT NOT NULL,
    iterations    BIGINT NOT NULL DEFAULT 0,
    improvements  BIGINT NOT NULL DEFAULT 0,
    assigned      INT NOT NULL DEFAULT 0,
    unassigned    INT NOT NULL DEFAULT 0,
    best_score    JSONB
);
CREATE TABLE IF NOT EXISTS solver_weight_snapshots (
    run_id           TEXT NOT NULL REFERENCES solver_runs(id),
    iteration        BIGINT NOT NULL,
    ruin_weights     JSONB NOT NULL,
    recreate_weights JSONB NOT NULL
);`

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(pgSchema); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) SaveRun(ctx context.Context, run Run) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO solver_runs (id, started_at, seed, jobs, vehicles) VALUES ($1,$2,$3,$4,$5)`,
		run.ID, run.StartedAt, run.Seed, run.Jobs, run.Vehicles)
	return err
}

func (p *Postgres) FinishRun(ctx context.Context, run Run) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE solver_runs SET finished_at=$2, iterations=$3, improvements=$4, assigned=$5, unassigned=$6, best_score=$7 WHERE id=$1`,
		run.ID, run.FinishedAt, run.Iterations, run.Improvements, run.Assigned, run.Unassigned, toJSON(run.BestScore))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) GetRun(ctx context.Context, id string) (Run, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT id, started_at, COALESCE(finished_at, started_at), seed, jobs, vehicles, iterations, improvements, assigned, unassigned, COALESCE(best_score, 'null') FROM solver_runs WHERE id=$1`, id)
	return scanRun(row)
}

func (p *Postgres) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, started_at, COALESCE(finished_at, started_at), seed, jobs, vehicles, iterations, improvements, assigned, unassigned, COALESCE(best_score, 'null') FROM solver_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) SaveWeightSnapshot(ctx context.Context, snap WeightSnapshot) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO solver_weight_snapshots (run_id, iteration, ruin_weights, recreate_weights) VALUES ($1,$2,$3,$4)`,
		snap.RunID, snap.Iteration, toJSON(snap.RuinWeights), toJSON(snap.RecreateWeights))
	return err
}

func (p *Postgres) ListWeightSnapshots(ctx context.Context, runID string) ([]WeightSnapshot, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT run_id, iteration, ruin_weights, recreate_weights FROM solver_weight_snapshots WHERE run_id=$1 ORDER BY iteration`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []WeightSnapshot
	for rows.Next() {
		var s WeightSnapshot
		var rw, cw []byte
		if err := rows.Scan(&s.RunID, &s.Iteration, &rw, &cw); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(rw, &s.RuinWeights)
		_ = json.Unmarshal(cw, &s.RecreateWeights)
		out = append(out, s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	var score []byte
	err := row.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Seed, &r.Jobs, &r.Vehicles,
		&r.Iterations, &r.Improvements, &r.Assigned, &r.Unassigned, &score)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, err
	}
	_ = json.Unmarshal(score, &r.BestScore)
	return r, nil
}

func toJSON(v any) []byte {
	data, _ := json.Marshal(v)
	return data
}
