package todo

import (
	"context"
	"errors"
	"fmt"

	"github.com/hebbarp/todo-management/internal/core/synclog"
)

var (
	// ErrNotFound is returned when a todo does not exist in a partition.
	ErrNotFound = errors.New("todo not found")
	// ErrDuplicateMessage is returned when an inbound message id was already processed.
	ErrDuplicateMessage = errors.New("message already processed")
	// ErrInvalidChannel is returned for unknown channel names.
	ErrInvalidChannel = errors.New("invalid channel")
)

// StoreError reports a read or write failure on persisted state.
type StoreError struct {
	Op      string
	Channel Channel
	Err     error
}

func (e *StoreError) Error() string {
	if e.Channel == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Channel, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store persists the todos of a single channel partition.
type Store interface {
	// List returns every todo in insertion order, most recent last.
	List(ctx context.Context) ([]Todo, error)

	// Append persists a new todo. The caller assigns the ID.
	Append(ctx context.Context, t Todo) error

	// Update replaces the stored todo with the same ID.
	// Returns ErrNotFound if the todo does not exist.
	Update(ctx context.Context, t Todo) error
}

// Ledger records opaque identifiers that must never be applied twice.
type Ledger interface {
	// Seen reports whether id was already recorded.
	Seen(ctx context.Context, id string) (bool, error)

	// Record stores id. Recording an existing id is a no-op.
	Record(ctx context.Context, id string) error

	// Claim records id and reports whether this call recorded it. A false
	// result means a previous caller already holds the claim.
	Claim(ctx context.Context, id string) (bool, error)

	// List returns every recorded id in recording order.
	List(ctx context.Context) ([]string, error)
}

// SyncLogStore persists the bounded synchronization log.
type SyncLogStore interface {
	Load(ctx context.Context) (synclog.Log, error)
	Append(ctx context.Context, entry synclog.Entry, maxEntries int) error
}

// Backend hands out the per-channel stores, ledgers, and the sync log for one
// storage implementation.
type Backend interface {
	Store(ch Channel) Store
	Ledger(scope string) Ledger
	SyncLog() SyncLogStore
	Close() error
}
