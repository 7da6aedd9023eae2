package commands

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/hebbarp/todo-management/internal/core/messaging"
	"github.com/hebbarp/todo-management/internal/inbound"
	"github.com/hebbarp/todo-management/internal/todosync"
	"github.com/hebbarp/todo-management/pkg/iojson"
)

type IngestCmd struct {
	flags  *Flags
	app    *todosync.App
	reader iojson.FileReader

	format  string
	noReply bool
	json    bool
}

// NewIngestCmd creates a new ingest command.
func NewIngestCmd(flags *Flags, app *todosync.App) *IngestCmd {
	return &IngestCmd{flags: flags, app: app}
}

// Register adds the ingest command to the application.
func (cmd *IngestCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "ingest",
		Usage:     "Process a raw email or JSON envelope",
		UsageText: "todosync ingest [-f <file>] [--format auto|eml|json] [--no-reply]",
		Description: `Reads one inbound artifact from a file or stdin and hands it to its
channel adapter. Raw RFC 822 mail goes to the email channel; a JSON
envelope names its channel:

  {"channel": "chat", "from": "+919812345678", "text": "Add todo: Call investor"}

The response is sent back to the sender unless --no-reply is set.

Examples:
  todosync ingest -f message.eml
  echo '{"channel":"sheet","from":"ops","text":"todo: restock"}' | todosync ingest`,
		Flags: []cli.Flag{
			cmd.reader.Flag(),
			&cli.StringFlag{
				Name:        "format",
				Usage:       "input format (auto, eml, json)",
				Value:       "auto",
				Destination: &cmd.format,
			},
			&cli.BoolFlag{
				Name:        "no-reply",
				Usage:       "do not send the response to the sender",
				Destination: &cmd.noReply,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print the result as JSON",
				Destination: &cmd.json,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *IngestCmd) run(ctx context.Context, c *cli.Command) error {
	data, err := cmd.reader.ReadAll()
	if err != nil {
		return err
	}

	msg, err := decodeInput(cmd.format, data, time.Now())
	if err != nil {
		return err
	}

	var sender messaging.Sender
	if !cmd.noReply {
		sender = cmd.app.Sender
	}

	res, err := inbound.NewDispatcher(cmd.app, sender).Dispatch(ctx, msg)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	return printResult(c, res, cmd.json)
}

func decodeInput(format string, data []byte, now time.Time) (messaging.Inbound, error) {
	switch format {
	case "eml":
		return inbound.ParseEmail(bytes.NewReader(data))
	case "json":
		return inbound.DecodeEnvelope(data, now)
	case "", "auto":
		if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
			return inbound.DecodeEnvelope(data, now)
		}
		return inbound.ParseEmail(bytes.NewReader(data))
	default:
		return messaging.Inbound{}, fmt.Errorf("invalid format %q: must be one of auto, eml, json", format)
	}
}
