package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hebbarp/todo-management/internal/core/synclog"
	"github.com/hebbarp/todo-management/internal/core/todo"
	"github.com/hebbarp/todo-management/internal/data/db"
)

// SyncLogStore implements todo.SyncLogStore over the sync_log table. Entries
// are stored as JSON payloads keyed by run id.
type SyncLogStore struct {
	db *db.DB
}

var _ todo.SyncLogStore = (*SyncLogStore)(nil)

// NewSyncLogStore creates a SQL-backed sync log store.
func NewSyncLogStore(database *db.DB) *SyncLogStore {
	return &SyncLogStore{db: database}
}

// Load returns the retained entries oldest first.
func (s *SyncLogStore) Load(ctx context.Context) (synclog.Log, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT payload FROM sync_log ORDER BY started_at, id")
	if err != nil {
		return synclog.Log{}, &todo.StoreError{Op: "sync log load", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var l synclog.Log
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return synclog.Log{}, &todo.StoreError{Op: "sync log load", Err: err}
		}

		var entry synclog.Entry
		if err := json.Unmarshal([]byte(payload), &entry); err != nil {
			return synclog.Log{}, &todo.StoreError{Op: "sync log load", Err: fmt.Errorf("decode entry: %w", err)}
		}
		l.History = append(l.History, entry)
	}
	if err := rows.Err(); err != nil {
		return synclog.Log{}, &todo.StoreError{Op: "sync log load", Err: err}
	}

	if latest, ok := l.Latest(); ok {
		ts := latest.Timestamp
		l.LastSync = &ts
	}
	return l, nil
}

// Append inserts entry and deletes everything beyond the newest maxEntries,
// in one transaction.
func (s *SyncLogStore) Append(ctx context.Context, entry synclog.Entry, maxEntries int) error {
	if maxEntries <= 0 {
		maxEntries = synclog.DefaultRetention
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return &todo.StoreError{Op: "sync log append", Err: err}
	}

	err = s.db.WithTx(ctx, func(tx *db.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO sync_log (id, started_at, payload) VALUES (?, ?, ?)",
			entry.ID, entryTime(entry).UnixNano(), string(payload),
		); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			DELETE FROM sync_log WHERE id NOT IN (
				SELECT id FROM sync_log ORDER BY started_at DESC, id DESC LIMIT ?
			)`,
			maxEntries,
		)
		return err
	})
	if err != nil {
		return &todo.StoreError{Op: "sync log append", Err: err}
	}
	return nil
}

func entryTime(e synclog.Entry) time.Time {
	if e.Timestamp.IsZero() {
		return time.Now()
	}
	return e.Timestamp
}
