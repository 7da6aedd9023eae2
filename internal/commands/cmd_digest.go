package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/hebbarp/todo-management/internal/todosync"
)

type DigestCmd struct {
	flags  *Flags
	app    *todosync.App
	to     string
	dryRun bool
}

// NewDigestCmd creates a new digest command.
func NewDigestCmd(flags *Flags, app *todosync.App) *DigestCmd {
	return &DigestCmd{flags: flags, app: app}
}

// Register adds the digest command to the application.
func (cmd *DigestCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "digest",
		Usage:     "Send the daily digest email",
		UsageText: "todosync digest [--to <recipient>] [--dry-run]",
		Description: `Renders the pending/completed counts and the most recent todos of every
channel and sends them by email. The recipient defaults to
digest.recipient from the config file.

Examples:
  todosync digest --to ada@example.com
  todosync digest --dry-run`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "to",
				Usage:       "recipient email address",
				Destination: &cmd.to,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "print the digest instead of sending it",
				Destination: &cmd.dryRun,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DigestCmd) run(ctx context.Context, c *cli.Command) error {
	digest := cmd.app.Digest

	if cmd.dryRun {
		body, err := digest.Render(ctx)
		if err != nil {
			return err
		}
		w := c.Root().Writer
		_, _ = fmt.Fprintf(w, "Subject: %s\n\n", digest.Subject())
		_, err = io.WriteString(w, body)
		return err
	}

	to := cmd.to
	if to == "" {
		to = cmd.app.Config.Digest.Recipient
	}
	if to == "" {
		return fmt.Errorf("no recipient: pass --to or set digest.recipient")
	}

	if !digest.Send(ctx, to) {
		return fmt.Errorf("digest to %s was not sent; see the log for details", to)
	}

	out(c).Successf("Digest sent to %s", to)
	return nil
}
