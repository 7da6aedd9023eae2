package commands

import (
	"context"
	"expvar"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hebbarp/todo-management/internal/inbound"
	"github.com/hebbarp/todo-management/internal/todosync"
	"github.com/hebbarp/todo-management/pkg/profiler"
)

// spoolStats counts spool files by outcome; served on /debug/vars when the
// profiler is enabled.
var spoolStats = expvar.NewMap("todosync_spool")

type WatchCmd struct {
	flags    *Flags
	app      *todosync.App
	interval time.Duration
	noSync   bool
	profPort int
}

// NewWatchCmd creates a new watch command.
func NewWatchCmd(flags *Flags, app *todosync.App) *WatchCmd {
	return &WatchCmd{flags: flags, app: app}
}

// Register adds the watch command to the application.
func (cmd *WatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "watch",
		Usage:     "Process the inbound spool and sync periodically",
		UsageText: "todosync watch [--interval <duration>] [--no-sync] [--profiler-port <port>]",
		Description: `Watches the spool directory for .eml and .json files, processes each
one through its channel adapter, and moves it to processed/ or failed/.

Alongside the spool, a sync pass runs on every interval, followed by a
backup and, once a day at digest.send_at, the digest email.

Stops on SIGINT or SIGTERM.`,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:        "interval",
				Usage:       "sync interval (defaults to sync.interval from the config)",
				Destination: &cmd.interval,
			},
			&cli.BoolFlag{
				Name:        "no-sync",
				Usage:       "only process the spool",
				Destination: &cmd.noSync,
			},
			&cli.IntFlag{
				Name:        "profiler-port",
				Usage:       "enable pprof and expvar HTTP endpoints on 127.0.0.1 at the specified port (e.g., 6060)",
				Sources:     cli.EnvVars("TODOSYNC_PROFILER_PORT"),
				Destination: &cmd.profPort,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *WatchCmd) run(ctx context.Context, c *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cmd.profPort > 0 {
		profServer := profiler.New(cmd.profPort)
		if err := profServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start profiler: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := profServer.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("failed to shutdown profiler server")
			}
		}()
		log.Info().Str("url", profServer.URL()).Msg("profiler endpoint available")
	}

	return cmd.watch(ctx, c)
}

func (cmd *WatchCmd) watch(ctx context.Context, c *cli.Command) error {
	cfg := cmd.app.Config

	watcher, err := inbound.NewSpoolWatcher(cfg.SpoolDir(), cfg.Inbound.Debounce)
	if err != nil {
		return fmt.Errorf("watch spool: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dispatcher := inbound.NewDispatcher(cmd.app, cmd.app.Sender)

	p := out(c)
	p.Infof("watching %s", cfg.SpoolDir())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if !cmd.noSync {
		scheduler := todosync.NewScheduler(cmd.app)
		if cmd.interval > 0 {
			scheduler.SetInterval(cmd.interval)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			scheduler.Start(ctx)
		}()
	}

	err = watcher.Run(ctx, func(ctx context.Context, path string) {
		if err := dispatcher.HandleFile(ctx, path); err != nil {
			spoolStats.Add("failed", 1)
			log.Debug().Err(err).Str("path", path).Msg("spool file moved to failed")
			return
		}
		spoolStats.Add("processed", 1)
	})

	cancel()
	wg.Wait()
	p.Infof("stopped")
	return err
}
