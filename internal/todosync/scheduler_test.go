package todosync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hebbarp/todo-management/internal/core/config"
	"github.com/hebbarp/todo-management/internal/core/todo"
)

func newTestScheduler(app *testApp) *Scheduler {
	s := NewScheduler(app.App)
	s.now = app.clock.Now
	return s
}

func TestScheduler_TickSyncsBacksUpAndSendsDigestOnce(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t, func(c *config.Config) {
		c.Digest.SendAt = "08:00"
		c.Digest.Recipient = "boss@example.com"
	})
	seed(t, app, todo.ChannelChat, "Call investor")
	s := newTestScheduler(app)

	res := s.Tick(ctx)
	assert.False(t, res.Failed())
	s.Tick(ctx)

	log, err := app.Engine.SyncLog(ctx)
	require.NoError(t, err)
	assert.Len(t, log.History, 2)

	backups, err := app.Backups.List()
	require.NoError(t, err)
	assert.Len(t, backups, 2)

	var digests int
	for _, m := range app.sender.messages() {
		if m.Recipient == "boss@example.com" {
			digests++
			assert.Contains(t, m.Subject, "Daily Todo Digest")
		}
	}
	assert.Equal(t, 1, digests)
}

func TestScheduler_DigestNotDueYet(t *testing.T) {
	app := newTestApp(t, func(c *config.Config) {
		c.Digest.SendAt = "23:30"
		c.Digest.Recipient = "boss@example.com"
		f := false
		c.Backup.OnSync = &f
	})
	s := newTestScheduler(app)

	s.Tick(context.Background())

	assert.Empty(t, app.sender.messages())
	backups, err := app.Backups.List()
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestScheduler_DigestDue(t *testing.T) {
	app := newTestApp(t)
	s := newTestScheduler(app)
	at := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		opts   SchedulerOptions
		now    time.Time
		last   string
		expect bool
	}{
		{name: "disabled", opts: SchedulerOptions{Recipient: "a@b.c"}, now: at, expect: false},
		{name: "no recipient", opts: SchedulerOptions{DigestAt: "08:00"}, now: at, expect: false},
		{name: "exactly on time", opts: SchedulerOptions{DigestAt: "08:00", Recipient: "a@b.c"}, now: at, expect: true},
		{name: "before time", opts: SchedulerOptions{DigestAt: "08:00", Recipient: "a@b.c"}, now: at.Add(-time.Minute), expect: false},
		{name: "already sent today", opts: SchedulerOptions{DigestAt: "08:00", Recipient: "a@b.c"}, now: at.Add(time.Hour), last: "2026-03-14", expect: false},
		{name: "sent yesterday", opts: SchedulerOptions{DigestAt: "08:00", Recipient: "a@b.c"}, now: at.Add(time.Hour), last: "2026-03-13", expect: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.opts = tt.opts
			s.lastDigest = tt.last
			now := tt.now
			s.now = func() time.Time { return now }
			assert.Equal(t, tt.expect, s.digestDue())
		})
	}
}

func TestScheduler_StartStopsOnCancel(t *testing.T) {
	app := newTestApp(t, func(c *config.Config) { c.Sync.Interval = time.Hour })
	s := newTestScheduler(app)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		log, err := app.Engine.SyncLog(context.Background())
		return err == nil && len(log.History) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
