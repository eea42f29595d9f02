package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS crosscheck_runs (
	run_id      UUID PRIMARY KEY,
	operation   TEXT NOT NULL,
	engine      TEXT NOT NULL,
	matrices    INTEGER NOT NULL DEFAULT 0,
	pass        BOOLEAN,
	max_delta   DOUBLE PRECISION NOT NULL DEFAULT 0,
	tolerance   DOUBLE PRECISION NOT NULL DEFAULT 0,
	errored     INTEGER NOT NULL DEFAULT 0,
	error_kind  TEXT,
	client      TEXT,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	summary     JSONB,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS crosscheck_runs_created_at_idx ON crosscheck_runs (created_at DESC);`

// Migrate creates the runs table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const runColumns = `run_id, operation, engine, matrices, pass, max_delta, tolerance,
	errored, error_kind, client, duration_ms, summary, created_at`

func (s *PostgresStore) RecordRun(ctx context.Context, run *Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	var summaryJSON []byte
	if run.Summary != nil {
		var err error
		if summaryJSON, err = json.Marshal(run.Summary); err != nil {
			return fmt.Errorf("marshal summary: %w", err)
		}
	}

	return s.pool.QueryRow(ctx, `
		INSERT INTO crosscheck_runs (run_id, operation, engine, matrices, pass, max_delta, tolerance,
			errored, error_kind, client, duration_ms, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), $11, $12)
		RETURNING created_at`,
		run.ID, string(run.Operation), run.Engine, run.Matrices, run.Pass, run.MaxDelta, run.Tolerance,
		run.Errored, run.ErrorKind, run.Client, run.DurationMs, summaryJSON,
	).Scan(&run.CreatedAt)
}

func scanRun(row pgx.Row) (*Run, error) {
	r := &Run{}
	var operation string
	var errorKind, client sql.NullString
	var summaryJSON []byte
	err := row.Scan(
		&r.ID, &operation, &r.Engine, &r.Matrices, &r.Pass, &r.MaxDelta, &r.Tolerance,
		&r.Errored, &errorKind, &client, &r.DurationMs, &summaryJSON, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Operation = Operation(operation)
	if errorKind.Valid {
		r.ErrorKind = errorKind.String
	}
	if client.Valid {
		r.Client = client.String
	}
	if summaryJSON != nil {
		if err := json.Unmarshal(summaryJSON, &r.Summary); err != nil {
			return nil, fmt.Errorf("decode summary for run %s: %w", r.ID, err)
		}
	}
	return r, nil
}

func (s *PostgresStore) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	r, err := scanRun(s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM crosscheck_runs WHERE run_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM crosscheck_runs WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Operation != nil {
		n++
		query += fmt.Sprintf(" AND operation = $%d", n)
		args = append(args, string(*filter.Operation))
	}
	if filter.Pass != nil {
		n++
		query += fmt.Sprintf(" AND pass = $%d", n)
		args = append(args, *filter.Pass)
	}
	if filter.Since != nil {
		n++
		query += fmt.Sprintf(" AND created_at >= $%d", n)
		args = append(args, *filter.Since)
	}

	query += " ORDER BY created_at DESC"
	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, filter.EffectiveLimit())
	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *PostgresStore) GetStats(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE pass = true),
			COUNT(*) FILTER (WHERE pass = false),
			COUNT(*) FILTER (WHERE pass IS NULL AND error_kind IS NOT NULL),
			COALESCE(AVG(duration_ms), 0)
		FROM crosscheck_runs`,
	).Scan(&stats.Total, &stats.Passed, &stats.Failed, &stats.Rejected, &stats.AvgMs)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
