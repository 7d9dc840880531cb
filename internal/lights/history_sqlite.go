package lights

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// SQLiteHistoryRepository persists switch commands in the
// switch_history table.
type SQLiteHistoryRepository struct {
	db *sql.DB
}

// NewSQLiteHistoryRepository creates a new SQLite switch history repository.
//
// Parameters:
//   - db: Open SQLite connection used for queries
//
// Returns:
//   - *SQLiteHistoryRepository: Repository instance ready for use
func NewSQLiteHistoryRepository(db *sql.DB) *SQLiteHistoryRepository {
	return &SQLiteHistoryRepository{db: db}
}

// RecordSwitch inserts a new switch history entry.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - channel: Relay channel name
//   - state: "on" or "off"
//   - source: Origin of the command (schedule, api, show, random, startup)
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (r *SQLiteHistoryRepository) RecordSwitch(ctx context.Context, channel, state, source string) error {
	if channel == "" {
		return fmt.Errorf("channel is required")
	}
	if state != string(StateOn) && state != string(StateOff) {
		return fmt.Errorf("invalid state %q", state)
	}
	if source == "" {
		source = SourceSchedule
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO switch_history (channel, state, source, created_at) VALUES (?, ?, ?, ?)",
		channel,
		state,
		source,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting switch history: %w", err)
	}
	return nil
}

// History returns recent switch entries for a channel, newest first.
// An empty channel returns entries across all channels.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - channel: Relay channel name, or "" for all channels
//   - limit: Maximum entries to return (default 50, max 200)
//
// Returns:
//   - []SwitchRecord: Entries ordered by created_at DESC
//   - error: nil on success, otherwise the underlying query error
func (r *SQLiteHistoryRepository) History(ctx context.Context, channel string, limit int) ([]SwitchRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	query := `SELECT id, channel, state, source, created_at
		 FROM switch_history
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`
	args := []any{limit}
	if channel != "" {
		query = `SELECT id, channel, state, source, created_at
			 FROM switch_history
			 WHERE channel = ?
			 ORDER BY created_at DESC, id DESC
			 LIMIT ?`
		args = []any{channel, limit}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying switch history: %w", err)
	}
	defer rows.Close()

	records := make([]SwitchRecord, 0, limit)
	for rows.Next() {
		var rec SwitchRecord
		var createdAt string

		if err := rows.Scan(&rec.ID, &rec.Channel, &rec.State, &rec.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning switch history: %w", err)
		}

		rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating switch history: %w", err)
	}
	return records, nil
}

// Prune deletes history entries older than the given duration.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - olderThan: Retention window (entries older than now-olderThan are deleted)
//
// Returns:
//   - int64: Number of rows deleted
//   - error: nil on success, otherwise the underlying database error
func (r *SQLiteHistoryRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM switch_history WHERE created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting switch history: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return rowsAffected, nil
}
