package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hebbarp/todo-management/internal/core/config"
	"github.com/hebbarp/todo-management/internal/store/jsonfile"
	"github.com/hebbarp/todo-management/internal/todosync"
)

type MigrateCmd struct {
	flags *Flags
	app   *todosync.App
	from  string
}

// NewMigrateCmd creates a new migrate command.
func NewMigrateCmd(flags *Flags, app *todosync.App) *MigrateCmd {
	return &MigrateCmd{flags: flags, app: app}
}

// Register adds the migrate command to the application.
func (cmd *MigrateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "migrate",
		Usage:     "Copy file-backend state into the configured SQL backend",
		UsageText: "todosync migrate [--from <store-dir>]",
		Description: `Copies every todo partition, the dedup and side-effect ledgers, and the
sync log from a file-backend store directory into the configured
sqlite or postgres backend. The target must not hold any todos yet, so
running it twice is refused rather than duplicating records.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "from",
				Usage:       "file-backend store directory (defaults to <data-dir>/store)",
				Destination: &cmd.from,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *MigrateCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.app.Config
	if cfg.Storage.Backend == config.BackendFile {
		return fmt.Errorf("storage.backend is %q; set it to sqlite or postgres before migrating", cfg.Storage.Backend)
	}

	from := cmd.from
	if from == "" {
		from = cfg.StoreDir()
	}

	src := jsonfile.NewBackend(from)
	defer func() { _ = src.Close() }()

	stats, err := todosync.Migrate(ctx, src, cmd.app.Backend)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	out(c).Successf("Migrated %d todos, %d ledger ids, %d sync entries into %s", stats.Todos, stats.LedgerIDs, stats.SyncEntries, cfg.Storage.Backend)
	return nil
}
