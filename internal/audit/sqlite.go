package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS check_audit (
	id TEXT PRIMARY KEY,
	timestamp TEXT NOT NULL,
	query_drug_id TEXT NOT NULL,
	query_drug_label TEXT NOT NULL,
	conditions TEXT NOT NULL DEFAULT '',
	current_meds TEXT NOT NULL DEFAULT '',
	warnings_count INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_check_audit_timestamp ON check_audit(timestamp);
CREATE INDEX IF NOT EXISTS idx_check_audit_query_drug ON check_audit(query_drug_id);
`

// SQLiteSink stores records in a local SQLite database.
type SQLiteSink struct {
	db *sql.DB
}

func NewSQLiteSink(dbPath string) (*SQLiteSink, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection serializes appends
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Emit(ctx context.Context, rec Record) error {
	f := rec.Fields()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO check_audit (id, timestamp, query_drug_id, query_drug_label, conditions, current_meds, warnings_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, f[0], f[1], f[2], f[3], f[4], rec.WarningCount,
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first, rendered in Header order.
func (s *SQLiteSink) Recent(ctx context.Context, limit int) ([][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, query_drug_id, query_drug_label, conditions, current_meds, warnings_count
		 FROM check_audit ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		row := make([]string, len(Header))
		var count int
		if err := rows.Scan(&row[0], &row[1], &row[2], &row[3], &row[4], &count); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		row[5] = fmt.Sprint(count)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
