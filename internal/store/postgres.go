package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/openlead/leadscout/internal/model"
)

// pgxPool is the subset of pgxpool.Pool the store needs. pgxmock satisfies
// it for unit tests.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool pgxPool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	state       TEXT NOT NULL DEFAULT 'idle',
	summary     JSONB,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS run_stages (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	name        TEXT NOT NULL,
	status      TEXT NOT NULL,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	error       TEXT,
	PRIMARY KEY (run_id, name)
);

CREATE TABLE IF NOT EXISTS fetch_audit (
	id       BIGSERIAL PRIMARY KEY,
	run_id   TEXT NOT NULL,
	target   TEXT NOT NULL,
	outcome  TEXT NOT NULL,
	attempts INTEGER NOT NULL,
	ts       TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_state ON runs(state);
CREATE INDEX IF NOT EXISTS idx_run_stages_run_id ON run_stages(run_id);
CREATE INDEX IF NOT EXISTS idx_fetch_audit_run_id ON fetch_audit(run_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, runID string) (*model.Run, error) {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, state, started_at) VALUES ($1, $2, $3)`,
		runID, string(model.RunIdle), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return &model.Run{ID: runID, State: model.RunIdle, StartedAt: now}, nil
}

func (s *PostgresStore) UpdateRunState(ctx context.Context, runID string, state model.RunState) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET state = $1 WHERE id = $2`,
		string(state), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run state %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, state model.RunState, summary []byte) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET state = $1, summary = $2, finished_at = $3 WHERE id = $4`,
		string(state), summary, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, state, summary, started_at, finished_at FROM runs WHERE id = $1`,
		runID,
	)

	var (
		run      model.Run
		state    string
		summary  []byte
		finished *time.Time
	)
	err := row.Scan(&run.ID, &state, &summary, &run.StartedAt, &finished)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: run not found: %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	run.State = model.RunState(state)
	run.Summary = summary
	run.FinishedAt = finished
	return &run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, state, summary, started_at, finished_at FROM runs`
	args := []any{}
	if filter.State != "" {
		query += ` WHERE state = $1`
		args = append(args, string(filter.State))
	}
	query += ` ORDER BY started_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
		if filter.Offset > 0 {
			args = append(args, filter.Offset)
			query += fmt.Sprintf(` OFFSET $%d`, len(args))
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var (
			run      model.Run
			state    string
			summary  []byte
			finished *time.Time
		)
		if err := rows.Scan(&run.ID, &state, &summary, &run.StartedAt, &finished); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		run.State = model.RunState(state)
		run.Summary = summary
		run.FinishedAt = finished
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs")
}

func (s *PostgresStore) RecordStage(ctx context.Context, runID string, stage model.StageResult) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO run_stages (run_id, name, status, duration_ms, error)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (run_id, name) DO UPDATE SET
		 	status = excluded.status,
		 	duration_ms = excluded.duration_ms,
		 	error = excluded.error`,
		runID, stage.Name, string(stage.Status), stage.DurationMS, stage.Error,
	)
	return eris.Wrapf(err, "postgres: record stage %s/%s", runID, stage.Name)
}

func (s *PostgresStore) RecordAudit(ctx context.Context, runID string, ev model.AuditEvent) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO fetch_audit (run_id, target, outcome, attempts, ts) VALUES ($1, $2, $3, $4, $5)`,
		runID, ev.Target, ev.Outcome, ev.Attempts, ev.Timestamp,
	)
	return eris.Wrap(err, "postgres: record audit")
}
