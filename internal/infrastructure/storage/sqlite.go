package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vitos/fx_margin_trader/internal/domain"
)

// SQLiteStore persists execution history for post-hoc analysis. It is
// secondary to the append-only audit log: losing it costs reporting,
// not correctness.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS executions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id TEXT NOT NULL,
			order_id TEXT,
			symbol TEXT NOT NULL,
			action TEXT NOT NULL,
			status TEXT NOT NULL,
			units REAL NOT NULL,
			live_configured BOOLEAN NOT NULL,
			live_armed BOOLEAN NOT NULL,
			details TEXT,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_executions_symbol ON executions(symbol);`,
		`CREATE INDEX IF NOT EXISTS idx_executions_request_id ON executions(request_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

func (s *SQLiteStore) SaveExecution(ctx context.Context, rec *domain.AuditRecord) error {
	var details []byte
	if rec.Details != nil {
		details, _ = json.Marshal(rec.Details)
	}

	query := `INSERT INTO executions (request_id, order_id, symbol, action, status, units, live_configured, live_armed, details, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		rec.RequestID, rec.OrderID, rec.Symbol, string(rec.Action), string(rec.Status),
		rec.Units, rec.LiveConfigured, rec.LiveArmed, string(details), rec.Timestamp)
	return err
}

func (s *SQLiteStore) ListExecutions(ctx context.Context, limit int) ([]*domain.AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT request_id, order_id, symbol, action, status, units, live_configured, live_armed, details, created_at
			  FROM executions ORDER BY created_at DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.AuditRecord
	for rows.Next() {
		var rec domain.AuditRecord
		var action, status, details string
		var createdAt time.Time
		if err := rows.Scan(&rec.RequestID, &rec.OrderID, &rec.Symbol, &action, &status,
			&rec.Units, &rec.LiveConfigured, &rec.LiveArmed, &details, &createdAt); err != nil {
			return nil, err
		}
		rec.Action = domain.ActionType(action)
		rec.Status = domain.OutcomeStatus(status)
		rec.Timestamp = createdAt
		if details != "" {
			_ = json.Unmarshal([]byte(details), &rec.Details)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
