package importer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Attempt is one row of the import_attempts table.
type Attempt struct {
	ID        int64     `json:"id"`
	File      string    `json:"file"`
	Format    string    `json:"format,omitempty"`
	Status    Status    `json:"status"`
	Records   int       `json:"records"`
	Anomalies int       `json:"anomalies"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// History logs import attempts in SQLite for diagnostics. Imported datasets
// themselves are never stored.
type History struct {
	db *sql.DB
}

// OpenHistory opens (or creates) the SQLite database at path and ensures the
// import_attempts table exists.
func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS import_attempts (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		file        TEXT NOT NULL,
		format      TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL,
		records     INTEGER NOT NULL DEFAULT 0,
		anomalies   INTEGER NOT NULL DEFAULT 0,
		error       TEXT,
		created_at  INTEGER NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create import_attempts table: %w", err)
	}

	return &History{db: db}, nil
}

// Close closes the SQLite connection.
func (h *History) Close() error {
	return h.db.Close()
}

// Record appends an attempt. A zero CreatedAt is set to now.
func (h *History) Record(ctx context.Context, a Attempt) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	var errPtr *string
	if a.Error != "" {
		errPtr = &a.Error
	}
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO import_attempts (file, format, status, records, anomalies, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.File, a.Format, string(a.Status), a.Records, a.Anomalies, errPtr, a.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("record attempt for %s: %w", a.File, err)
	}
	return nil
}

// List returns the most recent attempts first. A non-positive limit means 50.
func (h *History) List(ctx context.Context, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := h.db.QueryContext(ctx, `SELECT id, file, format, status, records, anomalies, error, created_at
		FROM import_attempts ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var (
			a       Attempt
			status  string
			errMsg  *string
			created int64
		)
		if err := rows.Scan(&a.ID, &a.File, &a.Format, &status, &a.Records, &a.Anomalies, &errMsg, &created); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Status = Status(status)
		if errMsg != nil {
			a.Error = *errMsg
		}
		a.CreatedAt = time.Unix(created, 0)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// Prune deletes attempts recorded before cutoff and returns how many were removed.
func (h *History) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := h.db.ExecContext(ctx, `DELETE FROM import_attempts WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune attempts: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
