package todosync

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hebbarp/todo-management/internal/core/logging"
	"github.com/hebbarp/todo-management/internal/core/todo"
)

// ErrTargetNotEmpty is returned when importing into a backend that already
// holds todos.
var ErrTargetNotEmpty = errors.New("target backend already holds todos")

// ImportStats counts what Import wrote.
type ImportStats struct {
	Todos       int `json:"todos"`
	LedgerIDs   int `json:"ledger_ids"`
	SyncEntries int `json:"sync_entries"`
}

// Migrate copies the full state of src into dst, for example when moving from
// the file backend to sqlite. dst must be empty.
func Migrate(ctx context.Context, src, dst todo.Backend) (ImportStats, error) {
	data, err := ReadState(ctx, src)
	if err != nil {
		return ImportStats{}, fmt.Errorf("read source: %w", err)
	}
	return Import(ctx, dst, data)
}

// Import writes a backup into dst. Todos keep their ids; dst must hold no
// todos so ids cannot collide.
func Import(ctx context.Context, dst todo.Backend, data BackupData) (ImportStats, error) {
	var stats ImportStats

	for _, ch := range todo.Channels {
		existing, err := dst.Store(ch).List(ctx)
		if err != nil {
			return stats, fmt.Errorf("check target %s: %w", ch, err)
		}
		if len(existing) > 0 {
			return stats, fmt.Errorf("%w: %s has %d", ErrTargetNotEmpty, ch, len(existing))
		}
	}

	names := make([]string, 0, len(data.Todos))
	for name := range data.Todos {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ch, err := todo.ParseChannel(name)
		if err != nil {
			return stats, err
		}
		store := dst.Store(ch)
		for _, t := range data.Todos[name] {
			if err := store.Append(ctx, t); err != nil {
				return stats, fmt.Errorf("import %s #%d: %w", ch, t.ID, err)
			}
			stats.Todos++
		}
	}

	for scope, ids := range data.Ledgers {
		ledger := dst.Ledger(scope)
		for _, id := range ids {
			if err := ledger.Record(ctx, id); err != nil {
				return stats, fmt.Errorf("import ledger %s: %w", scope, err)
			}
			stats.LedgerIDs++
		}
	}

	history := data.SyncLog.History
	for _, entry := range history {
		if err := dst.SyncLog().Append(ctx, entry, len(history)); err != nil {
			return stats, fmt.Errorf("import sync log: %w", err)
		}
		stats.SyncEntries++
	}

	logger := logging.Component("migrate")
	logger.Info().
		Int("todos", stats.Todos).
		Int("ledger_ids", stats.LedgerIDs).
		Int("sync_entries", stats.SyncEntries).
		Msg("state imported")

	return stats, nil
}
