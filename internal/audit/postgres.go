package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS check_audit (
	id UUID PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	query_drug_id TEXT NOT NULL,
	query_drug_label TEXT NOT NULL,
	conditions TEXT[] NOT NULL DEFAULT '{}',
	current_meds TEXT[] NOT NULL DEFAULT '{}',
	warnings_count INTEGER NOT NULL
)`

// PostgresSink stores records in the check_audit table of a pgx pool. The
// pool is owned by the caller.
type PostgresSink struct {
	pool *pgxpool.Pool
}

func NewPostgresSink(ctx context.Context, pool *pgxpool.Pool) (*PostgresSink, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool is required")
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("create audit table: %w", err)
	}
	return &PostgresSink{pool: pool}, nil
}

func (s *PostgresSink) Emit(ctx context.Context, rec Record) error {
	f := rec.Fields()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO check_audit (id, created_at, query_drug_id, query_drug_label, conditions, current_meds, warnings_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.Timestamp, f[1], f[2],
		splitList(f[3]), splitList(f[4]), rec.WarningCount,
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

func (s *PostgresSink) Close() error {
	return nil
}
