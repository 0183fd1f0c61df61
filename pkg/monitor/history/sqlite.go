package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"atelier-hq/vigil/pkg/monitor/alert"
	"atelier-hq/vigil/pkg/monitor/notify"
)

// SQLiteStore persists alert history across restarts. The store keeps
// at most maxEntries rows, pruning the oldest on insert.
type SQLiteStore struct {
	db         *sql.DB
	maxEntries int
	closeOnce  sync.Once

	insertStmt *sql.Stmt
	pruneStmt  *sql.Stmt
	recentStmt *sql.Stmt
}

// SQLiteConfig configures the SQLite history store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxEntries caps retained history. Default: DefaultSize.
	MaxEntries int

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

// NewSQLiteStore opens (creating if needed) the history database at
// cfg.Path.
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultSize
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{db: db, maxEntries: cfg.MaxEntries}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS alert_history (
		id TEXT PRIMARY KEY,
		alert_type TEXT NOT NULL,
		component TEXT NOT NULL,
		severity TEXT NOT NULL,
		message TEXT NOT NULL,
		value REAL NOT NULL,
		threshold_limit REAL NOT NULL,
		outcome TEXT NOT NULL,
		triggered_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_triggered_at ON alert_history(triggered_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertStmt, err = s.db.Prepare(`
		INSERT INTO alert_history
			(id, alert_type, component, severity, message, value, threshold_limit, outcome, triggered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	s.pruneStmt, err = s.db.Prepare(`
		DELETE FROM alert_history
		WHERE id NOT IN (
			SELECT id FROM alert_history
			ORDER BY triggered_at DESC
			LIMIT ?
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare prune statement: %w", err)
	}

	s.recentStmt, err = s.db.Prepare(`
		SELECT id, alert_type, component, severity, message, value, threshold_limit, outcome, triggered_at
		FROM alert_history
		ORDER BY triggered_at DESC
		LIMIT ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare recent statement: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Append(ctx context.Context, e Entry) error {
	_, err := s.insertStmt.ExecContext(ctx,
		e.Event.ID,
		e.Event.Type,
		e.Event.Component,
		string(e.Event.Severity),
		e.Event.Message,
		e.Event.Value,
		e.Event.Limit,
		string(e.Outcome),
		e.Event.TriggeredAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record alert: %w", err)
	}

	if _, err := s.pruneStmt.ExecContext(ctx, s.maxEntries); err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > s.maxEntries {
		limit = s.maxEntries
	}

	rows, err := s.recentStmt.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e           Entry
			severity    string
			outcome     string
			triggeredMs int64
		)
		if err := rows.Scan(
			&e.Event.ID,
			&e.Event.Type,
			&e.Event.Component,
			&severity,
			&e.Event.Message,
			&e.Event.Value,
			&e.Event.Limit,
			&outcome,
			&triggeredMs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.Event.Severity = alert.Severity(severity)
		e.Outcome = notify.Outcome(outcome)
		e.Event.TriggeredAt = time.UnixMilli(triggeredMs).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{s.insertStmt, s.pruneStmt, s.recentStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}
		err = s.db.Close()
	})
	return err
}
