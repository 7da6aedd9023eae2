package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/hebbarp/todo-management/internal/core/todo"
	"github.com/hebbarp/todo-management/internal/printer"
	"github.com/hebbarp/todo-management/internal/todosync"
	"github.com/hebbarp/todo-management/pkg/iojson"
)

type SyncCmd struct {
	flags  *Flags
	app    *todosync.App
	json   bool
	strict bool
}

// NewSyncCmd creates a new sync command.
func NewSyncCmd(flags *Flags, app *todosync.App) *SyncCmd {
	return &SyncCmd{flags: flags, app: app}
}

// Register adds the sync command to the application.
func (cmd *SyncCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "sync",
		Usage:     "Run one synchronization pass across all channels",
		UsageText: "todosync sync [--json] [--strict]",
		Description: `Fans recent pending todos out to the other channels, creates tracking
issues, writes the unified report, and appends to the sync log.

Step errors are reported but do not fail the pass unless --strict is set.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print the result as JSON",
				Destination: &cmd.json,
			},
			&cli.BoolFlag{
				Name:        "strict",
				Usage:       "exit non-zero when any step reported an error",
				Destination: &cmd.strict,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *SyncCmd) run(ctx context.Context, c *cli.Command) error {
	res := cmd.app.Engine.SyncAll(ctx)

	if cmd.json {
		if err := iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, res); err != nil {
			return err
		}
	} else {
		printSync(out(c), res)
	}

	if cmd.strict && res.Failed() {
		return cli.Exit("", 1)
	}
	return nil
}

func printSync(p *printer.Printer, res todosync.SyncResult) {
	p.Headerf("Sync %s", res.ID)
	for _, ch := range todo.Channels {
		counts, ok := res.Counts[ch]
		if !ok {
			p.Warnf("%s: unavailable", ch.Title())
			continue
		}
		p.Successf("%s: %d pending, %d completed", ch.Title(), counts.Pending, counts.Completed)
	}
	p.Printf("Total: %d todos, %d copied, %d issues created", res.Total(), res.FannedOut, res.IssuesCreated)

	if res.Files.JSON != "" {
		p.Infof("report: %s", res.Files.JSON)
	}
	for _, e := range res.Errors {
		p.Errorf("%s", e)
	}
}
