// Package stores implements the todo storage interfaces on top of the SQL
// database opened by package db.
package stores

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hebbarp/todo-management/internal/core/todo"
	"github.com/hebbarp/todo-management/internal/data/db"
)

// Backend implements todo.Backend over one database connection.
type Backend struct {
	db *db.DB
}

var _ todo.Backend = (*Backend)(nil)

// NewBackend wraps an open database.
func NewBackend(database *db.DB) *Backend {
	return &Backend{db: database}
}

// OpenSQLite opens the SQLite backend in dataDir. A corrupted database file is
// moved aside and replaced with an empty one.
func OpenSQLite(dataDir string, opts db.OpenOptions) (*Backend, error) {
	database, err := db.Open(dataDir, opts)
	if err != nil && IsCorruptionError(err) {
		backup, recoverErr := RecoverFromCorruption(dataDir)
		if recoverErr != nil {
			return nil, errors.Join(err, recoverErr)
		}
		log.Warn().Err(err).Str("backup", backup).Msg("database corrupted, starting fresh")
		database, err = db.Open(dataDir, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("open sqlite backend: %w", err)
	}
	return NewBackend(database), nil
}

// OpenPostgres opens the Postgres backend at dsn.
func OpenPostgres(dsn string, opts db.OpenOptions) (*Backend, error) {
	database, err := db.OpenPostgres(dsn, opts)
	if err != nil {
		return nil, fmt.Errorf("open postgres backend: %w", err)
	}
	return NewBackend(database), nil
}

// DB returns the underlying database.
func (b *Backend) DB() *db.DB {
	return b.db
}

// Store returns the partition for ch.
func (b *Backend) Store(ch todo.Channel) todo.Store {
	return NewTodoStore(b.db, ch)
}

// Ledger returns the ledger for scope.
func (b *Backend) Ledger(scope string) todo.Ledger {
	return NewLedgerStore(b.db, scope)
}

// SyncLog returns the sync log store.
func (b *Backend) SyncLog() todo.SyncLogStore {
	return NewSyncLogStore(b.db)
}

// Close closes the database.
func (b *Backend) Close() error {
	return b.db.Close()
}
