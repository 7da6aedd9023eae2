package todosync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hebbarp/todo-management/internal/core/config"
	"github.com/hebbarp/todo-management/internal/core/messaging"
	"github.com/hebbarp/todo-management/internal/core/todo"
	"github.com/hebbarp/todo-management/internal/store/jsonfile"
)

// fakeTracker is a scripted issue tracker.
type fakeTracker struct {
	mu        sync.Mutex
	available bool
	err       error
	issues    []messaging.Issue
	calls     int
}

func (f *fakeTracker) Available() bool { return f.available }

func (f *fakeTracker) CreateIssue(_ context.Context, issue messaging.Issue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.issues = append(f.issues, issue)
	return nil
}

// recordingSender captures outbound messages.
type recordingSender struct {
	mu   sync.Mutex
	err  error
	sent []messaging.Outbound
}

func (r *recordingSender) Send(_ context.Context, msg messaging.Outbound) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingSender) messages() []messaging.Outbound {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]messaging.Outbound(nil), r.sent...)
}

type testApp struct {
	*App
	tracker *fakeTracker
	sender  *recordingSender
	clock   *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestApp(t *testing.T, mutate ...func(*config.Config)) *testApp {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	for _, m := range mutate {
		m(&cfg)
	}

	tracker := &fakeTracker{}
	sender := &recordingSender{}
	app, err := NewApp(&cfg, jsonfile.NewBackend(cfg.StoreDir()), tracker, sender)
	require.NoError(t, err)

	clock := &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	for _, a := range app.Adapters {
		a.now = clock.Now
	}
	app.Engine.now = clock.Now
	app.Reporter.now = clock.Now
	app.Backups.now = clock.Now
	app.Digest.now = clock.Now

	return &testApp{App: app, tracker: tracker, sender: sender, clock: clock}
}

func (ta *testApp) adapter(t *testing.T, ch todo.Channel) *Adapter {
	t.Helper()
	a, err := ta.Adapter(ch)
	require.NoError(t, err)
	return a
}

// corrupt replaces the partition file of ch with unparseable content.
func (ta *testApp) corrupt(t *testing.T, ch todo.Channel) {
	t.Helper()
	name := string(ch) + "_todos.json"
	if ch == todo.ChannelSheet {
		name = "sheet_todos.csv"
	}
	path := filepath.Join(ta.Config.StoreDir(), name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
}

func chatMsg(sender, text string) messaging.Inbound {
	return messaging.Inbound{Channel: todo.ChannelChat, Sender: sender, Text: text}
}

func emailMsg(id, sender, subject, body string) messaging.Inbound {
	return messaging.Inbound{ID: id, Channel: todo.ChannelEmail, Sender: sender, Subject: subject, Text: body}
}

var errBoom = errors.New("boom")
