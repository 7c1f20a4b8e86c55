// Package storage keeps a local audit trail of every mutation applied
// to the calendar, so an apply run can be reviewed after the fact.
package storage

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// Action types recorded in the audit log.
const (
	ActionDeleted         = "deleted"
	ActionCreated         = "created"
	ActionUpdatedSettings = "updated_settings"
	ActionUpdatedReminder = "updated_reminder"
)

// Action is one applied mutation.
type Action struct {
	OccurredAt time.Time
	RunID      int64
	Command    string // verify | dedup | remove | settings | reminders | add
	Action     string
	Calendar   string
	EventID    string
	Subject    string
	Detail     string // free-form, e.g. the patch that was sent
}

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS audit_actions (
  id          INTEGER PRIMARY KEY,
  occurred_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  run_id      INTEGER NOT NULL,
  command     TEXT NOT NULL,
  action      TEXT NOT NULL,
  calendar    TEXT,
  event_id    TEXT NOT NULL,
  subject     TEXT,
  detail      TEXT
);
CREATE INDEX IF NOT EXISTS idx_audit_time ON audit_actions(occurred_at);
CREATE INDEX IF NOT EXISTS idx_audit_run ON audit_actions(run_id);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// RecordActions writes one run's actions in a single transaction. All
// rows share the returned run id.
func (d *DB) RecordActions(ctx context.Context, command string, actions []Action) (int64, error) {
	if len(actions) == 0 {
		return 0, nil
	}
	runID := time.Now().Unix()

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, a := range actions {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO audit_actions(occurred_at, run_id, command, action, calendar, event_id, subject, detail) VALUES(CURRENT_TIMESTAMP,?,?,?,?,?,?,?)`,
			runID, command, a.Action, nullIfEmpty(a.Calendar), a.EventID, nullIfEmpty(a.Subject), nullIfEmpty(a.Detail))
		if err != nil {
			return 0, err
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// ListRecentActions returns the most recent N audit rows, newest first.
func (d *DB) ListRecentActions(ctx context.Context, limit int) ([]Action, error) {
	if limit <= 0 {
		limit = 50
	}
	q := "SELECT occurred_at, run_id, command, action, calendar, event_id, subject, detail FROM audit_actions ORDER BY occurred_at DESC, id DESC LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	actions := []Action{}
	for rows.Next() {
		var a Action
		var occurredAtStr string
		var cal, subj, detail sql.NullString
		if err := rows.Scan(&occurredAtStr, &a.RunID, &a.Command, &a.Action, &cal, &a.EventID, &subj, &detail); err != nil {
			return nil, err
		}
		a.OccurredAt = parseSQLiteTime(occurredAtStr)
		a.Calendar = cal.String
		a.Subject = subj.String
		a.Detail = detail.String
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return actions, nil
}

// CommandStats aggregates the audit log per command.
type CommandStats struct {
	Command     string
	ActionCount int
	RunCount    int
}

func (d *DB) GetStats(ctx context.Context) ([]CommandStats, error) {
	query := `
		SELECT
			command,
			COUNT(*),
			COUNT(DISTINCT run_id)
		FROM
			audit_actions
		GROUP BY
			command
		ORDER BY
			command;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []CommandStats
	for rows.Next() {
		var s CommandStats
		if err := rows.Scan(&s.Command, &s.ActionCount, &s.RunCount); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

func parseSQLiteTime(s string) time.Time {
	// CURRENT_TIMESTAMP stores "2006-01-02 15:04:05"; be lenient about
	// RFC3339 rows written by other tools.
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
