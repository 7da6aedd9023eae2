package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hebbarp/todo-management/internal/core/todo"
	"github.com/hebbarp/todo-management/internal/todosync"
	"github.com/hebbarp/todo-management/pkg/iojson"
)

type BackupCmd struct {
	flags *Flags
	app   *todosync.App
}

// NewBackupCmd creates the backup command group.
func NewBackupCmd(flags *Flags, app *todosync.App) *BackupCmd {
	return &BackupCmd{flags: flags, app: app}
}

// Register adds the backup commands to the application.
func (cmd *BackupCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "backup",
		Usage: "Snapshot and inspect full-state backups",
		Description: `Backups hold every channel partition, both ledgers, and the sync log.
Running "todosync backup" with no subcommand creates a snapshot.

Examples:
  todosync backup
  todosync backup list
  todosync backup show backup_20260314_090000_0a1b2c3d`,
		Action: cmd.runCreate,
		Commands: []*cli.Command{
			{
				Name:   "create",
				Usage:  "Write a new snapshot",
				Action: cmd.runCreate,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List stored snapshots, oldest first",
				Action:  cmd.runList,
			},
			{
				Name:      "show",
				Usage:     "Print a snapshot as JSON",
				UsageText: "todosync backup show [--summary] <id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "summary",
						Usage: "print per-channel counts instead of the full snapshot",
					},
				},
				Action: cmd.runShow,
			},
			{
				Name:      "restore",
				Usage:     "Load a snapshot into an empty store",
				UsageText: "todosync backup restore <id>",
				Action:    cmd.runRestore,
			},
		},
	})
	return app
}

func (cmd *BackupCmd) runCreate(ctx context.Context, c *cli.Command) error {
	id, err := cmd.app.Backups.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	out(c).Successf("Backup created: %s", id)
	return nil
}

func (cmd *BackupCmd) runList(_ context.Context, c *cli.Command) error {
	ids, err := cmd.app.Backups.List()
	if err != nil {
		return err
	}

	p := out(c)
	if len(ids) == 0 {
		p.Infof("no backups")
		return nil
	}
	for _, id := range ids {
		p.Printf("%s", id)
	}
	return nil
}

func (cmd *BackupCmd) runShow(_ context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: todosync backup show <id>")
	}

	data, err := cmd.app.Backups.Load(c.Args().Get(0))
	if err != nil {
		return err
	}

	if c.Bool("summary") {
		p := out(c)
		for _, ch := range todo.Channels {
			p.Printf("%s: %d todos", ch.Title(), len(data.Todos[string(ch)]))
		}
		return nil
	}
	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, data)
}

func (cmd *BackupCmd) runRestore(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: todosync backup restore <id>")
	}

	data, err := cmd.app.Backups.Load(c.Args().Get(0))
	if err != nil {
		return err
	}

	stats, err := todosync.Import(ctx, cmd.app.Backend, data)
	if err != nil {
		return fmt.Errorf("restore backup: %w", err)
	}

	out(c).Successf("Restored %d todos, %d ledger ids, %d sync entries", stats.Todos, stats.LedgerIDs, stats.SyncEntries)
	return nil
}
