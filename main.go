package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hebbarp/todo-management/internal/commands"
	"github.com/hebbarp/todo-management/internal/core/config"
	"github.com/hebbarp/todo-management/internal/core/logging"
	"github.com/hebbarp/todo-management/internal/core/messaging"
	"github.com/hebbarp/todo-management/internal/core/todo"
	"github.com/hebbarp/todo-management/internal/integration/issues"
	"github.com/hebbarp/todo-management/internal/integration/outbound"
	"github.com/hebbarp/todo-management/internal/todosync"
	"github.com/hebbarp/todo-management/pkg/executil"
	"github.com/hebbarp/todo-management/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

// standalone reports whether the invoked command runs without an opened
// backend. init writes the config that the rest depend on, and config
// validate reports load errors itself.
func standalone(c *cli.Command) bool {
	switch c.Args().First() {
	case "init", "config":
		return true
	}
	return false
}

func newTracker(cfg *config.Config) messaging.IssueTracker {
	return issues.NewGitHub(issues.Options{
		Enabled: cfg.Issues.Enabled,
		Repo:    cfg.Issues.Repo,
		GhPath:  cfg.Issues.GhPath,
		Timeout: cfg.Issues.Timeout,
	}, &executil.RealExecutor{})
}

// newSender routes email through SMTP when configured. Every other message
// is appended to the outbox log.
func newSender(cfg *config.Config) messaging.Sender {
	router := outbound.NewRouter(outbound.NewLogSender(cfg.OutboxFile()))
	if cfg.Outbound.Backend == config.OutboundSMTP {
		smtp := cfg.Outbound.SMTP
		router.Route(todo.ChannelEmail, outbound.NewSMTPSender(outbound.SMTPOptions{
			Host:     smtp.Host,
			Port:     smtp.Port,
			Username: smtp.Username,
			Password: os.Getenv(smtp.PasswordEnv),
			From:     smtp.From,
			Timeout:  cfg.Outbound.Timeout,
		}))
	}
	return router
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		appPtr    = &todosync.App{}
		opened    bool
	)

	flags := &commands.Flags{}

	app := commands.NewRoot(flags)
	app.Version = build()
	app.Before = func(ctx context.Context, c *cli.Command) (context.Context, error) {
		logFile := flags.LogFile
		if logFile == "" {
			logFile = filepath.Join(flags.DataDir, "todosync.log")
		}

		logger, closer, err := logutils.New(flags.LogLevel, logFile)
		if err != nil {
			return ctx, fmt.Errorf("setup logger: %w", err)
		}
		log.Logger = logger.Hook(logging.ContextHook{})
		logCloser = closer

		if standalone(c) {
			return ctx, nil
		}

		cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
		if err != nil {
			return ctx, fmt.Errorf("load config: %w", err)
		}
		flags.Config = cfg

		backend, err := todosync.OpenBackend(cfg)
		if err != nil {
			return ctx, fmt.Errorf("open %s backend: %w", cfg.Storage.Backend, err)
		}

		built, err := todosync.NewApp(cfg, backend, newTracker(cfg), newSender(cfg))
		if err != nil {
			_ = backend.Close()
			return ctx, err
		}

		// Populate the pre-allocated App struct (commands already hold a pointer to it)
		*appPtr = *built
		opened = true

		return ctx, nil
	}
	app.After = func(ctx context.Context, c *cli.Command) error {
		if opened {
			if err := appPtr.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close backend")
				return err
			}
		}

		if logCloser != nil {
			logCloser()
		}
		return nil
	}

	app = commands.RegisterAll(app, flags, appPtr)

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
