package stores

import (
	"context"
	"time"

	"github.com/hebbarp/todo-management/internal/core/todo"
	"github.com/hebbarp/todo-management/internal/data/db"
)

// LedgerStore implements todo.Ledger over the processed_messages table.
type LedgerStore struct {
	db    *db.DB
	scope string
}

var _ todo.Ledger = (*LedgerStore)(nil)

// NewLedgerStore creates a ledger for scope.
func NewLedgerStore(database *db.DB, scope string) *LedgerStore {
	return &LedgerStore{db: database, scope: scope}
}

// Seen reports whether id was already recorded.
func (s *LedgerStore) Seen(ctx context.Context, id string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM processed_messages WHERE scope = ? AND message_id = ?",
		s.scope, id,
	).Scan(&count)
	if err != nil {
		return false, &todo.StoreError{Op: "ledger seen", Err: err}
	}
	return count > 0, nil
}

// Record stores id; recording an existing id is a no-op.
func (s *LedgerStore) Record(ctx context.Context, id string) error {
	_, err := s.Claim(ctx, id)
	return err
}

// Claim inserts id and reports whether this call inserted it. The insert is a
// single statement so concurrent claimers cannot both win.
func (s *LedgerStore) Claim(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO processed_messages (scope, message_id, processed_at)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`,
		s.scope, id, time.Now().UnixNano(),
	)
	if err != nil {
		return false, &todo.StoreError{Op: "ledger record", Err: err}
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, &todo.StoreError{Op: "ledger record", Err: err}
	}
	return n == 1, nil
}

// List returns every recorded id in recording order.
func (s *LedgerStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT message_id FROM processed_messages WHERE scope = ? ORDER BY processed_at, message_id",
		s.scope,
	)
	if err != nil {
		return nil, &todo.StoreError{Op: "ledger list", Err: err}
	}
	defer func() { _ = rows.Close() }()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &todo.StoreError{Op: "ledger list", Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &todo.StoreError{Op: "ledger list", Err: err}
	}
	return ids, nil
}
