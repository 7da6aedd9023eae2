package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/hebbarp/todo-management/internal/todosync"
	"github.com/hebbarp/todo-management/pkg/iojson"
)

const defaultWrapWidth = 100

type ReportCmd struct {
	flags *Flags
	app   *todosync.App

	json bool
	save bool
}

// NewReportCmd creates a new report command.
func NewReportCmd(flags *Flags, app *todosync.App) *ReportCmd {
	return &ReportCmd{flags: flags, app: app}
}

// Register adds the report command to the application.
func (cmd *ReportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "report",
		Usage:     "Show the unified cross-channel report",
		UsageText: "todosync report [--json] [--save]",
		Description: `Builds the unified report from the current state without syncing.

On a terminal the report is rendered as styled markdown; otherwise the
raw markdown is printed. --save also writes the JSON report and the
text summary to the reports directory.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print the report as JSON",
				Destination: &cmd.json,
			},
			&cli.BoolFlag{
				Name:        "save",
				Usage:       "write the report files to the reports directory",
				Destination: &cmd.save,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ReportCmd) run(ctx context.Context, c *cli.Command) error {
	snap, errs := cmd.app.Engine.Collect(ctx)
	history, err := cmd.app.Engine.SyncLog(ctx)
	if err != nil {
		errs = append(errs, err)
	}

	rep := cmd.app.Reporter.Build(snap, history)

	w := c.Root().Writer
	if cmd.json {
		if err := iojson.WriteWith(w, c.Root().ErrWriter, rep); err != nil {
			return err
		}
	} else {
		md, err := todosync.RenderMarkdown(rep)
		if err != nil {
			return err
		}
		if err := writeMarkdown(w, md); err != nil {
			return err
		}
	}

	p := statusOut(c, cmd.json)
	for _, e := range errs {
		p.Warnf("%v", e)
	}

	if cmd.save {
		files, err := cmd.app.Reporter.Persist(rep)
		if err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		p.Successf("report saved: %s", files.JSON)
	}
	return nil
}

// writeMarkdown renders md with glamour when w is a terminal and writes it
// unchanged otherwise.
func writeMarkdown(w io.Writer, md string) error {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		_, err := io.WriteString(w, md)
		return err
	}

	width := defaultWrapWidth
	if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 && cols < width {
		width = cols
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("create markdown renderer: %w", err)
	}

	rendered, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = io.WriteString(w, rendered)
	return err
}
