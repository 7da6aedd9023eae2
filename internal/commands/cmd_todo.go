package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/hebbarp/todo-management/internal/core/todo"
	"github.com/hebbarp/todo-management/internal/todosync"
	"github.com/hebbarp/todo-management/pkg/iojson"
)

// TodoCmd implements the add, list, and complete commands that operate on a
// channel partition directly.
type TodoCmd struct {
	flags *Flags
	app   *todosync.App

	// add flags
	addChannel string
	addFrom    string

	// list flags
	listChannel string
	listStatus  string
	listSender  string
	listJSON    bool

	// complete flags
	completeChannel string
}

// NewTodoCmd creates the todo commands.
func NewTodoCmd(flags *Flags, app *todosync.App) *TodoCmd {
	return &TodoCmd{flags: flags, app: app}
}

// Register adds add, list, and complete to the application.
func (cmd *TodoCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		cmd.addCmd(),
		cmd.listCmd(),
		cmd.completeCmd(),
	)
	return app
}

func (cmd *TodoCmd) addCmd() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add a todo to a channel",
		UsageText: "todosync add --channel <channel> [--from <sender>] <description...>",
		Description: `Appends a todo to the channel partition and prints its id.

The tracking issue side effect runs when enabled; its failure never
fails the add.

Examples:
  todosync add -C sheet "Restock printer paper"
  todosync add -C chat --from 9812345678 "Call investor"`,
		Flags: []cli.Flag{
			channelFlag(&cmd.addChannel, true),
			&cli.StringFlag{
				Name:        "from",
				Usage:       "sender identity recorded on the todo",
				Value:       "cli",
				Destination: &cmd.addFrom,
			},
		},
		Action: cmd.runAdd,
	}
}

func (cmd *TodoCmd) listCmd() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List todos",
		UsageText: "todosync list [--channel <channel>] [--status <status>] [--sender <sender>] [--json]",
		Description: `Lists todos in insertion order, most recent last.

Defaults to every channel and every status.

Examples:
  todosync list
  todosync list -C email --status pending
  todosync list --json`,
		Flags: []cli.Flag{
			channelFlag(&cmd.listChannel, false),
			&cli.StringFlag{
				Name:        "status",
				Aliases:     []string{"s"},
				Usage:       "filter by status (pending, completed)",
				Destination: &cmd.listStatus,
			},
			&cli.StringFlag{
				Name:        "sender",
				Usage:       "filter by sender identity",
				Destination: &cmd.listSender,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print todos as JSON lines",
				Destination: &cmd.listJSON,
			},
		},
		Action: cmd.runList,
	}
}

func (cmd *TodoCmd) completeCmd() *cli.Command {
	return &cli.Command{
		Name:      "complete",
		Usage:     "Mark a todo as completed",
		UsageText: "todosync complete --channel <channel> <id>",
		Description: `Marks a pending todo as completed. Completing an unknown or already
completed todo exits non-zero.

Examples:
  todosync complete -C chat 2`,
		Flags: []cli.Flag{
			channelFlag(&cmd.completeChannel, true),
		},
		Action: cmd.runComplete,
	}
}

func (cmd *TodoCmd) runAdd(ctx context.Context, c *cli.Command) error {
	ch, err := todo.ParseChannel(cmd.addChannel)
	if err != nil {
		return err
	}

	description := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if description == "" {
		return fmt.Errorf("usage: todosync add --channel <channel> <description>")
	}

	adapter, err := cmd.app.Adapter(ch)
	if err != nil {
		return err
	}

	id, err := adapter.Add(ctx, description, cmd.addFrom)
	if err != nil {
		return fmt.Errorf("add todo: %w", err)
	}

	out(c).Successf("Todo #%d created: %s", id, description)
	return nil
}

func (cmd *TodoCmd) runList(ctx context.Context, c *cli.Command) error {
	channels, err := parseChannels(cmd.listChannel)
	if err != nil {
		return err
	}

	filter := todo.ListFilter{Sender: cmd.listSender}
	if cmd.listStatus != "" {
		status := todo.Status(cmd.listStatus)
		if !status.IsValid() {
			return fmt.Errorf("invalid status %q: must be one of pending, completed", cmd.listStatus)
		}
		filter.Status = status
	}

	p := out(c)
	for _, ch := range channels {
		adapter, err := cmd.app.Adapter(ch)
		if err != nil {
			return err
		}

		items, err := adapter.List(ctx, filter)
		if err != nil {
			return fmt.Errorf("list %s: %w", ch, err)
		}

		if cmd.listJSON {
			for _, item := range items {
				if err := iojson.WriteLine(c.Root().Writer, item); err != nil {
					return err
				}
			}
			continue
		}

		p.Headerf("%s (%d)", ch.Title(), len(items))
		for _, item := range items {
			mark := "[ ]"
			if item.Status == todo.StatusCompleted {
				mark = "[x]"
			}
			p.Printf("  %s #%d %s %s", mark, item.ID, item.Description, p.Muted("("+item.Sender+")"))
		}
	}

	return nil
}

func (cmd *TodoCmd) runComplete(ctx context.Context, c *cli.Command) error {
	ch, err := todo.ParseChannel(cmd.completeChannel)
	if err != nil {
		return err
	}

	if c.NArg() < 1 {
		return fmt.Errorf("usage: todosync complete --channel <channel> <id>")
	}
	id, err := strconv.Atoi(c.Args().Get(0))
	if err != nil {
		return fmt.Errorf("invalid todo id %q", c.Args().Get(0))
	}

	adapter, err := cmd.app.Adapter(ch)
	if err != nil {
		return err
	}

	ok, err := adapter.Complete(ctx, id)
	if err != nil {
		return fmt.Errorf("complete todo: %w", err)
	}
	if !ok {
		return fmt.Errorf("todo #%d not found or already completed", id)
	}

	out(c).Successf("Todo #%d marked as completed", id)
	return nil
}
