package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const historySQLiteSchema = `
CREATE TABLE IF NOT EXISTS tool_calls (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	method TEXT NOT NULL,
	tool TEXT,
	params_json BLOB,
	success INTEGER NOT NULL,
	error_code INTEGER,
	error_message TEXT,
	duration_ms INTEGER NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tool_calls_created
ON tool_calls(created_at);`

// SQLiteStoreConfig configures the SQLite history store.
type SQLiteStoreConfig struct {
	DSN string
}

// SQLiteStore persists invocation records in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite-backed history store.
func NewSQLiteStore(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("history sqlite dsn is required")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("history sqlite store open: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history sqlite store set WAL mode: %w", err)
	}
	if _, err := db.Exec(historySQLiteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history sqlite store create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	rec = normalize(rec)

	var params []byte
	if len(rec.Params) > 0 {
		raw, err := json.Marshal(rec.Params)
		if err != nil {
			return fmt.Errorf("history store marshal params: %w", err)
		}
		params = raw
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tool_calls (id, method, tool, params_json, success, error_code, error_message, duration_ms, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Method, rec.Tool, params, boolToInt(rec.Success),
		rec.ErrorCode, rec.ErrorMessage, rec.DurationMS,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("history store append: %w", err)
	}
	return nil
}

// List returns the most recent records, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, method, tool, params_json, success, error_code, error_message, duration_ms, created_at
FROM tool_calls ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history store list: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec       Record
			params    []byte
			success   int
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.Method, &rec.Tool, &params, &success,
			&rec.ErrorCode, &rec.ErrorMessage, &rec.DurationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("history store scan: %w", err)
		}
		rec.Success = success != 0
		if len(params) > 0 {
			if err := json.Unmarshal(params, &rec.Params); err != nil {
				return nil, fmt.Errorf("history store decode params: %w", err)
			}
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("history store parse timestamp: %w", err)
		}
		rec.CreatedAt = ts
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
