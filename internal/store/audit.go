// ABOUTME: SQLite-backed audit log for admin-plane actions using modernc.org/sqlite
// ABOUTME: Append-only, best effort; failures are logged and never propagate

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// tsLayout is fixed width so the lexicographic index order on ts matches
// chronological order. RFC3339Nano trims trailing zeros and would not.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// AuditEntry is one recorded admin-plane action.
type AuditEntry struct {
	ID     string
	At     time.Time
	Actor  string
	Action string
	Detail string
}

// AuditLog persists admin-plane actions (logins, token issuance, kills) to
// SQLite. Writes are best effort: the admin subsystem never fails an
// operation because the audit insert failed.
type AuditLog struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewAuditLog opens (or creates) the audit database at the given path.
// Parent directories are created if needed. ":memory:" is supported.
func NewAuditLog(path string, logger *slog.Logger) (*AuditLog, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS audit_log (
			audit_id TEXT PRIMARY KEY,
			ts       TEXT NOT NULL,
			actor    TEXT NOT NULL,
			action   TEXT NOT NULL,
			detail   TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_audit_ts ON audit_log(ts);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("audit log initialized", "path", path)
	return &AuditLog{db: db, logger: logger}, nil
}

// Append records one action. Implements auth.Auditor.
func (a *AuditLog) Append(actor, action, detail string) {
	_, err := a.db.Exec(
		`INSERT INTO audit_log (audit_id, ts, actor, action, detail) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(),
		time.Now().UTC().Format(tsLayout),
		actor,
		action,
		detail,
	)
	if err != nil {
		a.logger.Warn("audit append failed", "action", action, "error", err)
	}
}

// Recent returns up to limit entries, newest first.
func (a *AuditLog) Recent(limit int) ([]AuditEntry, error) {
	rows, err := a.db.Query(
		`SELECT audit_id, ts, actor, action, detail FROM audit_log ORDER BY ts DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var ts string
		if err := rows.Scan(&e.ID, &ts, &e.Actor, &e.Action, &e.Detail); err != nil {
			return nil, fmt.Errorf("scanning audit row: %w", err)
		}
		e.At, _ = time.Parse(tsLayout, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the underlying database.
func (a *AuditLog) Close() error {
	return a.db.Close()
}
