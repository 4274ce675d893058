package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

const defaultLogPageSize = 25

type LogEntryRow struct {
	ID        int64
	Timestamp time.Time
	Level     int
	Message   string
	Attrs     string
}

func (d *Database) SaveLogEntry(ctx context.Context, r LogEntryRow) error {
	if _, err := d.write.ExecContext(ctx,
		`INSERT INTO log (timestamp, level, message, attrs) VALUES (?, ?, ?, ?)`,
		r.Timestamp.UTC().Format(time.RFC3339Nano), r.Level, r.Message, r.Attrs,
	); err != nil {
		return fmt.Errorf("saving log entry: %w", err)
	}
	return nil
}

// GetLogEntries pages through entries at or above minLvl, newest first.
// Pages start at 1.
func (d *Database) GetLogEntries(ctx context.Context, minLvl slog.Level, page, pageSize int) ([]LogEntryRow, error) {
	page = max(page, 1)
	if pageSize < 1 {
		pageSize = defaultLogPageSize
	}

	rows, err := d.read.QueryContext(ctx, `
		SELECT id, timestamp, level, message, attrs
		FROM log
		WHERE level >= ?
		ORDER BY id DESC
		LIMIT ? OFFSET ?`,
		int(minLvl), pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("fetching log entries: %w", err)
	}
	defer rows.Close()

	var entries []LogEntryRow
	for rows.Next() {
		r, err := scanLogEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading log rows: %w", err)
	}
	return entries, nil
}

func (d *Database) CountLogEntries(ctx context.Context, minLvl slog.Level) (int, error) {
	var n int
	if err := d.read.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM log WHERE level >= ?`, int(minLvl)).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting log entries: %w", err)
	}
	return n, nil
}

func scanLogEntry(rows *sql.Rows) (LogEntryRow, error) {
	var r LogEntryRow
	var ts string
	var attrs sql.NullString
	if err := rows.Scan(&r.ID, &ts, &r.Level, &r.Message, &attrs); err != nil {
		return r, fmt.Errorf("scanning log entry: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return r, fmt.Errorf("parsing timestamp %q: %w", ts, err)
	}
	r.Timestamp = t
	r.Attrs = attrs.String
	return r, nil
}

// PurgeLog keeps the newest maxLogEntries rows.
func (d *Database) PurgeLog(ctx context.Context, maxLogEntries int) error {
	d.logger.Debug("purging log", slog.Int("keep", maxLogEntries))
	res, err := d.write.ExecContext(ctx, `
		DELETE FROM log WHERE id <= (
			SELECT id FROM log ORDER BY id DESC LIMIT 1 OFFSET ?
		)`, maxLogEntries)
	if err != nil {
		return fmt.Errorf("purging log: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		d.logger.Info("log purged", slog.Int64("deleted", n))
	}
	return nil
}
