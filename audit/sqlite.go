package audit

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "modernc.org/sqlite"
)

// SQLiteSink persists every audit event into a durable local database,
// giving the gateway a queryable archive independent of the NDJSON log
// file (e.g. for a compliance review tool that wants "select * by strategy
// and date range" instead of grepping a log).
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (or creates) the database at path and ensures its
// schema exists.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	sink := &SQLiteSink{db: db}
	if err := sink.initTables(); err != nil {
		db.Close()
		return nil, err
	}
	return sink, nil
}

func (s *SQLiteSink) initTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME NOT NULL,
			event_type TEXT NOT NULL,
			strategy_id TEXT NOT NULL DEFAULT '',
			order_id TEXT NOT NULL DEFAULT '',
			symbol TEXT NOT NULL DEFAULT '',
			payload TEXT NOT NULL
		)
	`)
	if err != nil {
		return err
	}
	_, _ = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_audit_events_strategy_id ON audit_events(strategy_id)`)
	_, _ = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_audit_events_order_id ON audit_events(order_id)`)
	return nil
}

// Write inserts event as a single row, with the full event serialized to
// JSON in payload so schema changes to Event never require a migration.
func (s *SQLiteSink) Write(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_events (timestamp, event_type, strategy_id, order_id, symbol, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`, event.Timestamp, string(event.Type), event.StrategyID, event.OrderID, event.Symbol, string(payload))
	return err
}

// Close releases the underlying database handle.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
