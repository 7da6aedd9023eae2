package todosync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hebbarp/todo-management/internal/core/logging"
	"github.com/hebbarp/todo-management/internal/core/synclog"
	"github.com/hebbarp/todo-management/internal/core/todo"
)

// EngineOptions bounds the windows a sync pass works on.
type EngineOptions struct {
	FanoutWindow int // most recent pending todos per channel copied to the others
	IssueWindow  int // most recent pending todos per channel considered for issues
	LogRetention int // sync log entries kept
}

// SyncResult is the outcome of one SyncAll pass. A non-empty Errors list means
// partial success.
type SyncResult struct {
	ID            string                          `json:"id"`
	Timestamp     time.Time                       `json:"timestamp"`
	Counts        map[todo.Channel]synclog.Counts `json:"counts"`
	FannedOut     int                             `json:"fanned_out"`
	IssuesCreated int                             `json:"issues_created"`
	Report        *Report                         `json:"-"`
	Files         ReportFiles                     `json:"files"`
	Errors        []string                        `json:"errors"`
}

// Total returns the number of todos across all counted channels.
func (r *SyncResult) Total() int {
	total := 0
	for _, c := range r.Counts {
		total += c.Total()
	}
	return total
}

// Failed reports whether any step recorded an error.
func (r *SyncResult) Failed() bool {
	return len(r.Errors) > 0
}

func (r *SyncResult) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Engine runs synchronization passes across every adapter. Only one pass runs
// at a time, and adapters are visited sequentially.
type Engine struct {
	adapters []*Adapter
	effects  *SideEffects
	reporter *Reporter
	syncLog  todo.SyncLogStore
	opts     EngineOptions
	now      func() time.Time
	newID    func() string
	log      zerolog.Logger

	mu sync.Mutex
}

// NewEngine creates an engine over adapters, visited in the given order.
func NewEngine(adapters []*Adapter, effects *SideEffects, reporter *Reporter, syncLog todo.SyncLogStore, opts EngineOptions) *Engine {
	if opts.FanoutWindow <= 0 {
		opts.FanoutWindow = 5
	}
	if opts.IssueWindow <= 0 {
		opts.IssueWindow = 3
	}
	if opts.LogRetention <= 0 {
		opts.LogRetention = synclog.DefaultRetention
	}

	return &Engine{
		adapters: adapters,
		effects:  effects,
		reporter: reporter,
		syncLog:  syncLog,
		opts:     opts,
		now:      time.Now,
		newID:    newRunID,
		log:      logging.Component("sync"),
	}
}

func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Collect lists every adapter. Adapters that fail to list are absent from the
// snapshot and reported through errs.
func (e *Engine) Collect(ctx context.Context) (Snapshot, []error) {
	snap := make(Snapshot, len(e.adapters))
	var errs []error

	for _, a := range e.adapters {
		todos, err := a.List(ctx, todo.ListFilter{})
		if err != nil {
			errs = append(errs, fmt.Errorf("snapshot %s: %w", a.Channel(), err))
			continue
		}
		snap[a.Channel()] = todos
	}

	return snap, errs
}

// SyncLog loads the persisted sync log.
func (e *Engine) SyncLog(ctx context.Context) (synclog.Log, error) {
	return e.syncLog.Load(ctx)
}

// SyncAll runs one synchronization pass. Each step is isolated: a failure is
// appended to the result's error list and later steps still run. An adapter
// that cannot be read in the first step is skipped by every later step.
func (e *Engine) SyncAll(ctx context.Context) SyncResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := SyncResult{
		ID:        e.newID(),
		Timestamp: e.now(),
		Counts:    map[todo.Channel]synclog.Counts{},
		Errors:    []string{},
	}

	// 1. snapshot
	snap, errs := e.Collect(ctx)
	for _, err := range errs {
		res.errorf("%v", err)
	}
	readable := make([]*Adapter, 0, len(e.adapters))
	for _, a := range e.adapters {
		if _, ok := snap[a.Channel()]; ok {
			readable = append(readable, a)
		}
	}

	// 2. fan-out
	e.step(&res, "fan-out", func() error {
		n, err := e.fanout(ctx, readable, snap)
		res.FannedOut = n
		return err
	})

	// 3. issues
	e.step(&res, "issue creation", func() error {
		n, err := e.createIssues(ctx, readable, snap)
		res.IssuesCreated = n
		return err
	})

	// 4. report
	final := make(Snapshot, len(readable))
	for _, a := range readable {
		todos, err := a.List(ctx, todo.ListFilter{})
		if err != nil {
			res.errorf("snapshot %s: %v", a.Channel(), err)
			todos = snap[a.Channel()]
		}
		final[a.Channel()] = todos
		res.Counts[a.Channel()] = final.Counts(a.Channel())
	}

	history, err := e.syncLog.Load(ctx)
	if err != nil {
		res.errorf("load sync log: %v", err)
	}

	e.step(&res, "report", func() error {
		rep := e.reporter.Build(final, history)
		res.Report = &rep
		files, err := e.reporter.Persist(rep)
		res.Files = files
		return err
	})

	// 5. sync log
	entry := synclog.Entry{
		ID:            res.ID,
		Timestamp:     res.Timestamp,
		Counts:        make(map[string]synclog.Counts, len(res.Counts)),
		FannedOut:     res.FannedOut,
		IssuesCreated: res.IssuesCreated,
		Errors:        append([]string{}, res.Errors...),
	}
	for ch, c := range res.Counts {
		entry.Counts[string(ch)] = c
	}
	if err := e.syncLog.Append(ctx, entry, e.opts.LogRetention); err != nil {
		res.errorf("sync log: %v", err)
	}

	var ev *zerolog.Event
	if res.Failed() {
		ev = e.log.Warn().Strs("errors", res.Errors)
	} else {
		ev = e.log.Info()
	}
	ev.Str("run", res.ID).
		Int("total", res.Total()).
		Int("fanned_out", res.FannedOut).
		Int("issues_created", res.IssuesCreated).
		Msg("sync completed")

	return res
}

// step runs fn, converting an error or a panic into a result error entry.
func (e *Engine) step(res *SyncResult, name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Str("step", name).Msg("sync step panicked")
			res.errorf("%s: panic: %v", name, r)
		}
	}()

	if err := fn(); err != nil {
		res.errorf("%s: %v", name, err)
	}
}

// fanout copies the most recent pending todos of each channel into every
// other readable channel. Copies are never re-replicated and each
// (todo, target) pair is copied at most once.
func (e *Engine) fanout(ctx context.Context, readable []*Adapter, snap Snapshot) (int, error) {
	copied := 0
	var firstErr error

	for _, origin := range readable {
		window := todo.Last(originals(todo.Filter(snap[origin.Channel()], todo.ListFilter{Status: todo.StatusPending})), e.opts.FanoutWindow)

		for _, t := range window {
			for _, target := range readable {
				if target == origin {
					continue
				}

				claimed, err := e.effects.ClaimFanout(ctx, t, target.Channel())
				if err != nil {
					return copied, err
				}
				if !claimed {
					continue
				}

				id, err := target.replicate(ctx, t)
				if err != nil {
					e.log.Warn().Err(err).
						Str("origin", string(t.Channel)).Int("id", t.ID).
						Str("target", string(target.Channel())).
						Msg("fan-out copy failed")
					if firstErr == nil {
						firstErr = fmt.Errorf("copy %s #%d to %s: %w", t.Channel, t.ID, target.Channel(), err)
					}
					continue
				}

				e.log.Debug().
					Str("origin", string(t.Channel)).Int("id", t.ID).
					Str("target", string(target.Channel())).Int("copy", id).
					Msg("todo fanned out")
				copied++
			}
		}
	}

	return copied, firstErr
}

// createIssues creates tracking issues for the most recent pending todos of
// each channel. The first failure stops issue creation for the pass.
func (e *Engine) createIssues(ctx context.Context, readable []*Adapter, snap Snapshot) (int, error) {
	if !e.effects.IssuesAvailable() {
		e.log.Debug().Msg("issue tracker unavailable, skipping issue creation")
		return 0, nil
	}

	created := 0
	for _, a := range readable {
		window := todo.Last(originals(todo.Filter(snap[a.Channel()], todo.ListFilter{Status: todo.StatusPending})), e.opts.IssueWindow)

		for _, t := range window {
			ok, err := e.effects.CreateIssue(ctx, t)
			if err != nil {
				return created, err
			}
			if ok {
				created++
			}
		}
	}

	return created, nil
}

// originals drops fan-out copies.
func originals(todos []todo.Todo) []todo.Todo {
	out := make([]todo.Todo, 0, len(todos))
	for _, t := range todos {
		if !t.IsReplica() {
			out = append(out, t)
		}
	}
	return out
}
