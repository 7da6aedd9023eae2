package inbound

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/hebbarp/todo-management/internal/core/logging"
)

const (
	defaultDebounce = 500 * time.Millisecond
	readyBufferSize = 100
)

// SpoolPattern matches the files the watcher hands to its handler.
const SpoolPattern = "*.{eml,json}"

// HandlerFunc handles one settled spool file.
type HandlerFunc func(ctx context.Context, path string)

// SpoolWatcher watches a spool directory and reports each new .eml or .json
// file once writes to it have settled.
type SpoolWatcher struct {
	dir      string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	log      zerolog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	ready  chan string
}

// NewSpoolWatcher creates a watcher for dir, creating the directory if needed.
func NewSpoolWatcher(dir string, debounce time.Duration) (*SpoolWatcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	return &SpoolWatcher{
		dir:      dir,
		debounce: debounce,
		watcher:  watcher,
		log:      logging.Component("spool"),
		timers:   make(map[string]*time.Timer),
		ready:    make(chan string, readyBufferSize),
	}, nil
}

// Pending returns the spool files already present, oldest name first.
func (w *SpoolWatcher) Pending() ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(w.dir), SpoolPattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		if strings.HasPrefix(m, ".") {
			continue
		}
		paths = append(paths, filepath.Join(w.dir, m))
	}
	return paths, nil
}

// Run drains the files already spooled, then calls fn for each new file until
// ctx is cancelled. Calls to fn never overlap.
func (w *SpoolWatcher) Run(ctx context.Context, fn HandlerFunc) error {
	pending, err := w.Pending()
	if err != nil {
		return err
	}
	for _, p := range pending {
		if ctx.Err() != nil {
			return nil
		}
		fn(ctx, p)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error().Err(err).Msg("watcher error")
		case path := <-w.ready:
			if _, err := os.Stat(path); err != nil {
				continue
			}
			fn(ctx, path)
		}
	}
}

// Close stops pending debounce timers and the underlying watcher.
func (w *SpoolWatcher) Close() error {
	w.mu.Lock()
	for _, timer := range w.timers {
		timer.Stop()
	}
	w.timers = make(map[string]*time.Timer)
	w.mu.Unlock()

	return w.watcher.Close()
}

func (w *SpoolWatcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if w.shouldIgnore(event.Name) {
		return
	}

	w.log.Debug().
		Str("path", event.Name).
		Str("op", event.Op.String()).
		Msg("spool event")

	path := event.Name

	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, exists := w.timers[path]; exists {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		select {
		case w.ready <- path:
		default:
			// picked up by Pending on the next start
			w.log.Warn().Str("path", path).Msg("spool queue full, dropping event")
		}
	})
}

func (w *SpoolWatcher) shouldIgnore(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	// only top-level files; processed/ and failed/ live below the spool
	if filepath.Dir(path) != filepath.Clean(w.dir) {
		return true
	}
	ok, _ := doublestar.Match(SpoolPattern, base)
	return !ok
}
