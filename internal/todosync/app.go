package todosync

import (
	"fmt"

	"github.com/hebbarp/todo-management/internal/core/config"
	"github.com/hebbarp/todo-management/internal/core/intent"
	"github.com/hebbarp/todo-management/internal/core/messaging"
	"github.com/hebbarp/todo-management/internal/core/todo"
)

// App is the central entry point for all todosync operations.
// Commands consume App instead of cherry-picking raw dependencies.
type App struct {
	Config   *config.Config
	Backend  todo.Backend
	Sender   messaging.Sender
	Adapters map[todo.Channel]*Adapter
	Effects  *SideEffects
	Engine   *Engine
	Reporter *Reporter
	Backups  *Backups
	Digest   *Digest
}

// NewApp constructs an App from explicit dependencies.
func NewApp(cfg *config.Config, backend todo.Backend, tracker messaging.IssueTracker, sender messaging.Sender) (*App, error) {
	classifier, err := intent.New(cfg.Classifier.MinLength)
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}

	effects := NewSideEffects(backend.Ledger(LedgerEffects), tracker)

	adapters := make(map[todo.Channel]*Adapter, len(todo.Channels))
	ordered := make([]*Adapter, 0, len(todo.Channels))
	for _, ch := range todo.Channels {
		opts := OptionsFromConfig(cfg, ch)

		var seen todo.Ledger
		if opts.Dedup {
			seen = backend.Ledger(LedgerEmails)
		}

		a := NewAdapter(opts, backend.Store(ch), seen, classifier, effects, sender)
		adapters[ch] = a
		ordered = append(ordered, a)
	}

	reporter := NewReporter(cfg.ReportsDir(), cfg.Sync.ReportWindow)
	engine := NewEngine(ordered, effects, reporter, backend.SyncLog(), EngineOptions{
		FanoutWindow: cfg.Sync.FanoutWindow,
		IssueWindow:  cfg.Sync.IssueWindow,
		LogRetention: cfg.Sync.LogRetention,
	})

	return &App{
		Config:   cfg,
		Backend:  backend,
		Sender:   sender,
		Adapters: adapters,
		Effects:  effects,
		Engine:   engine,
		Reporter: reporter,
		Backups:  NewBackups(backend, cfg.BackupsDir(), cfg.Backup.Retention),
		Digest:   NewDigest(engine, reporter, sender, cfg.Digest.Template, cfg.Digest.Recent),
	}, nil
}

// Adapter returns the adapter for ch.
func (a *App) Adapter(ch todo.Channel) (*Adapter, error) {
	ad, ok := a.Adapters[ch]
	if !ok {
		return nil, fmt.Errorf("%w: %q", todo.ErrInvalidChannel, ch)
	}
	return ad, nil
}

// Close releases the storage backend.
func (a *App) Close() error {
	return a.Backend.Close()
}
