package todosync

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hebbarp/todo-management/internal/core/logging"
)

const defaultSyncInterval = 15 * time.Minute

// SchedulerOptions configures the periodic loop.
type SchedulerOptions struct {
	Interval     time.Duration
	BackupOnSync bool
	DigestAt     string // HH:MM; empty disables the scheduled digest
	Recipient    string
}

// Scheduler runs sync passes on an interval, snapshots after each pass, and
// sends the digest once a day.
type Scheduler struct {
	engine  *Engine
	backups *Backups
	digest  *Digest
	opts    SchedulerOptions
	now     func() time.Time
	log     zerolog.Logger

	lastDigest string // date of the last digest attempt, 2006-01-02
}

// NewScheduler creates a scheduler for app using its configuration.
func NewScheduler(app *App) *Scheduler {
	cfg := app.Config
	return &Scheduler{
		engine:  app.Engine,
		backups: app.Backups,
		digest:  app.Digest,
		opts: SchedulerOptions{
			Interval:     cfg.Sync.Interval,
			BackupOnSync: cfg.BackupOnSync(),
			DigestAt:     cfg.Digest.SendAt,
			Recipient:    cfg.Digest.Recipient,
		},
		now: time.Now,
		log: logging.Component("scheduler"),
	}
}

// SetInterval overrides the configured sync interval.
func (s *Scheduler) SetInterval(d time.Duration) {
	s.opts.Interval = d
}

// Start runs a pass immediately and then on every interval until ctx is
// cancelled. It blocks.
func (s *Scheduler) Start(ctx context.Context) {
	s.Tick(ctx)

	interval := s.opts.Interval
	if interval <= 0 {
		interval = defaultSyncInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one scheduled pass.
func (s *Scheduler) Tick(ctx context.Context) SyncResult {
	res := s.engine.SyncAll(ctx)

	if s.opts.BackupOnSync {
		if _, err := s.backups.Snapshot(ctx); err != nil {
			s.log.Warn().Err(err).Msg("scheduled backup failed")
		}
	}

	if s.digestDue() {
		s.lastDigest = s.now().Format("2006-01-02")
		if !s.digest.Send(ctx, s.opts.Recipient) {
			s.log.Warn().Str("recipient", s.opts.Recipient).Msg("scheduled digest not sent")
		}
	}

	return res
}

// digestDue reports whether the daily digest time has passed today and no
// digest was attempted yet today. A failed send is not retried the same day.
func (s *Scheduler) digestDue() bool {
	if s.opts.DigestAt == "" || s.opts.Recipient == "" {
		return false
	}

	now := s.now()
	if s.lastDigest == now.Format("2006-01-02") {
		return false
	}

	at, err := time.Parse("15:04", s.opts.DigestAt)
	if err != nil {
		return false
	}
	due := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	return !now.Before(due)
}
