package todosync

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hebbarp/todo-management/internal/core/logging"
	"github.com/hebbarp/todo-management/internal/core/synclog"
	"github.com/hebbarp/todo-management/internal/core/todo"
	"github.com/hebbarp/todo-management/pkg/fsutil"
)

const backupPattern = "backup_*.json"

// BackupData is the content of one backup artifact.
type BackupData struct {
	ID        string                 `json:"id"`
	CreatedAt time.Time              `json:"backup_created"`
	Todos     map[string][]todo.Todo `json:"todos"`
	Ledgers   map[string][]string    `json:"ledgers"`
	SyncLog   synclog.Log            `json:"sync_log"`
}

// Backups writes full-state snapshots and prunes old ones.
type Backups struct {
	backend   todo.Backend
	dir       string
	retention int
	now       func() time.Time
	newID     func() string
	log       zerolog.Logger
}

// NewBackups creates a snapshot writer keeping at most retention artifacts in
// dir. retention <= 0 keeps everything.
func NewBackups(backend todo.Backend, dir string, retention int) *Backups {
	return &Backups{
		backend:   backend,
		dir:       dir,
		retention: retention,
		now:       time.Now,
		newID:     uuid.NewString,
		log:       logging.Component("backup"),
	}
}

// Snapshot serializes every partition, both ledgers, and the sync log, and
// returns the backup identifier. It only reads state.
func (b *Backups) Snapshot(ctx context.Context) (string, error) {
	created := b.now()
	id := fmt.Sprintf("backup_%s_%s", created.Format("20060102_150405"), shortID(b.newID()))

	data, err := ReadState(ctx, b.backend)
	if err != nil {
		return "", err
	}
	data.ID = id
	data.CreatedAt = created

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}
	if err := fsutil.WriteFileAtomic(filepath.Join(b.dir, id+".json"), raw, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}

	b.log.Info().Str("id", id).Msg("backup created")

	if err := b.prune(); err != nil {
		b.log.Warn().Err(err).Msg("backup pruning failed")
	}

	return id, nil
}

// List returns the identifiers of the stored backups, oldest first.
func (b *Backups) List() ([]string, error) {
	if _, err := os.Stat(b.dir); os.IsNotExist(err) {
		return []string{}, nil
	}

	matches, err := doublestar.Glob(os.DirFS(b.dir), backupPattern)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}

	sort.Strings(matches)
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, strings.TrimSuffix(m, ".json"))
	}
	return ids, nil
}

// Load reads the backup with the given identifier.
func (b *Backups) Load(id string) (BackupData, error) {
	raw, err := os.ReadFile(filepath.Join(b.dir, id+".json"))
	if err != nil {
		return BackupData{}, fmt.Errorf("read backup %s: %w", id, err)
	}

	var data BackupData
	if err := json.Unmarshal(raw, &data); err != nil {
		return BackupData{}, fmt.Errorf("decode backup %s: %w", id, err)
	}
	return data, nil
}

func (b *Backups) prune() error {
	if b.retention <= 0 {
		return nil
	}

	ids, err := b.List()
	if err != nil {
		return err
	}
	if len(ids) <= b.retention {
		return nil
	}

	for _, id := range ids[:len(ids)-b.retention] {
		if err := os.Remove(filepath.Join(b.dir, id+".json")); err != nil && !os.IsNotExist(err) {
			return err
		}
		b.log.Debug().Str("id", id).Msg("backup pruned")
	}
	return nil
}

// ReadState gathers every partition, both ledgers, and the sync log of backend.
func ReadState(ctx context.Context, backend todo.Backend) (BackupData, error) {
	data := BackupData{
		Todos:   make(map[string][]todo.Todo, len(todo.Channels)),
		Ledgers: map[string][]string{},
	}

	for _, ch := range todo.Channels {
		todos, err := backend.Store(ch).List(ctx)
		if err != nil {
			return BackupData{}, fmt.Errorf("read %s: %w", ch, err)
		}
		data.Todos[string(ch)] = todos
	}

	for _, scope := range []string{LedgerEmails, LedgerEffects} {
		ids, err := backend.Ledger(scope).List(ctx)
		if err != nil {
			return BackupData{}, fmt.Errorf("read ledger %s: %w", scope, err)
		}
		data.Ledgers[scope] = ids
	}

	log, err := backend.SyncLog().Load(ctx)
	if err != nil {
		return BackupData{}, fmt.Errorf("read sync log: %w", err)
	}
	data.SyncLog = log

	return data, nil
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
