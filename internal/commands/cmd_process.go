package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/hebbarp/todo-management/internal/core/messaging"
	"github.com/hebbarp/todo-management/internal/core/todo"
	"github.com/hebbarp/todo-management/internal/inbound"
	"github.com/hebbarp/todo-management/internal/todosync"
	"github.com/hebbarp/todo-management/pkg/iojson"
)

// ProcessCmd implements `todosync process`: one free-text message through a
// channel adapter.
type ProcessCmd struct {
	flags *Flags
	app   *todosync.App

	channel string
	from    string
	id      string
	subject string
	reply   bool
	json    bool
}

// NewProcessCmd creates a new process command.
func NewProcessCmd(flags *Flags, app *todosync.App) *ProcessCmd {
	return &ProcessCmd{flags: flags, app: app}
}

// Register adds the process command to the application.
func (cmd *ProcessCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "process",
		Usage:     "Classify and apply one inbound message",
		UsageText: "todosync process --channel <channel> --from <sender> [options] <text...>",
		Description: `Runs a message through the channel adapter exactly as an inbound
source would: classify, apply, respond.

Email messages require --id; it keys the dedup ledger so the same
message is never applied twice.

Examples:
  todosync process -C chat --from whatsapp:+919812345678 "Add todo: Call investor"
  todosync process -C chat --from 9812345678 "complete 2"
  todosync process -C email --from ada@example.com --id "<m1@example.com>" --subject "Slides" "todo: prepare slides"`,
		Flags: []cli.Flag{
			channelFlag(&cmd.channel, true),
			&cli.StringFlag{
				Name:        "from",
				Usage:       "sender identity (phone number or email address)",
				Required:    true,
				Destination: &cmd.from,
			},
			&cli.StringFlag{
				Name:        "id",
				Usage:       "inbound message id (required for email)",
				Destination: &cmd.id,
			},
			&cli.StringFlag{
				Name:        "subject",
				Usage:       "email subject",
				Destination: &cmd.subject,
			},
			&cli.BoolFlag{
				Name:        "reply",
				Usage:       "send the response to the sender through the outbound backend",
				Destination: &cmd.reply,
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

func (cmd *ProcessCmd) run(ctx context.Context, c *cli.Command) error {
	ch, err := todo.ParseChannel(cmd.channel)
	if err != nil {
		return err
	}

	msg := messaging.Inbound{
		ID:         cmd.id,
		Channel:    ch,
		Sender:     cmd.from,
		Subject:    cmd.subject,
		Text:       strings.Join(c.Args().Slice(), " "),
		ReceivedAt: time.Now(),
	}

	var sender messaging.Sender
	if cmd.reply {
		sender = cmd.app.Sender
	}

	res, err := inbound.NewDispatcher(cmd.app, sender).Dispatch(ctx, msg)
	if err != nil {
		return fmt.Errorf("process message: %w", err)
	}

	return printResult(c, res, cmd.json)
}

// processOutput is the JSON form of a processing result.
type processOutput struct {
	Action    string `json:"action"`
	Response  string `json:"response"`
	Created   []int  `json:"created,omitempty"`
	Completed bool   `json:"completed"`
	Duplicate bool   `json:"duplicate"`
}

func printResult(c *cli.Command, res todosync.Result, asJSON bool) error {
	if asJSON {
		return iojson.WriteLine(c.Root().Writer, processOutput{
			Action:    string(res.Intent.Action),
			Response:  res.Response,
			Created:   res.Created,
			Completed: res.Completed,
			Duplicate: res.Duplicate,
		})
	}

	p := out(c)
	if res.Duplicate {
		p.Infof("message already processed, skipped")
		return nil
	}
	p.Printf("%s", res.Response)
	return nil
}
