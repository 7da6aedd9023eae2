package commands

import (
	"context"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/hebbarp/todo-management/internal/core/doctor"
	"github.com/hebbarp/todo-management/internal/printer"
	"github.com/hebbarp/todo-management/internal/todosync"
	"github.com/hebbarp/todo-management/pkg/iojson"
)

type DoctorCmd struct {
	flags   *Flags
	app     *todosync.App
	format  string
	autofix bool
}

// NewDoctorCmd creates a new doctor command.
func NewDoctorCmd(flags *Flags, app *todosync.App) *DoctorCmd {
	return &DoctorCmd{flags: flags, app: app}
}

// Register adds the doctor command to the application.
func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "doctor",
		Usage:       "Run health checks on your todosync setup",
		UsageText:   "todosync doctor [options]",
		Description: "Runs diagnostic checks on configuration, directories, storage, and the gh executable.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
			&cli.BoolFlag{
				Name:        "autofix",
				Usage:       "create missing directories",
				Destination: &cmd.autofix,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DoctorCmd) checks() []doctor.Check {
	cfg := cmd.app.Config
	ghRequired := cfg.Issues.Enabled != nil && *cfg.Issues.Enabled

	checks := []doctor.Check{
		doctor.NewConfigCheck(cfg, cmd.flags.ConfigPath),
		doctor.NewDirsCheck([]doctor.Dir{
			{Label: "data_dir", Path: cfg.DataDir},
			{Label: "reports", Path: cfg.ReportsDir()},
			{Label: "backups", Path: cfg.BackupsDir()},
			{Label: "spool", Path: cfg.SpoolDir()},
		}, cmd.autofix),
		doctor.NewStorageCheck(cmd.app.Backend, todosync.LedgerEmails, todosync.LedgerEffects),
	}

	if cfg.Issues.Enabled == nil || ghRequired {
		checks = append(checks, doctor.NewToolsCheck(cfg.Issues.GhPath, ghRequired))
	}
	return checks
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	results := doctor.RunAll(ctx, cmd.checks())
	passed, warned, failed := doctor.Summary(results)

	if cmd.format == "json" {
		if err := iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, doctorOutput{
			Healthy: failed == 0,
			Summary: summaryJSON{Passed: passed, Warned: warned, Failed: failed},
			Checks:  results,
		}); err != nil {
			return err
		}
	} else {
		cmd.outputText(out(c), results)
	}

	if failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

type doctorOutput struct {
	Healthy bool            `json:"healthy"`
	Summary summaryJSON     `json:"summary"`
	Checks  []doctor.Result `json:"checks"`
}

type summaryJSON struct {
	Passed int `json:"passed"`
	Warned int `json:"warned"`
	Failed int `json:"failed"`
}

func (cmd *DoctorCmd) outputText(p *printer.Printer, results []doctor.Result) {
	p.Headerf("todosync doctor")
	p.Printf("%s", p.Muted(strings.Repeat("─", 40)))

	for _, result := range results {
		p.Printf("")
		p.Headerf("%s", result.Name)

		for _, item := range result.Items {
			line := item.Label
			if item.Detail != "" {
				line += " " + p.Muted(item.Detail)
			}

			switch item.Status {
			case doctor.StatusPass:
				p.Successf("%s", line)
			case doctor.StatusWarn:
				p.Warnf("%s", line)
			case doctor.StatusFail:
				p.Errorf("%s", line)
			}
		}
	}

	passed, warned, failed := doctor.Summary(results)
	p.Printf("")
	p.Printf("%d passed  %d warnings  %d failed", passed, warned, failed)

	if !cmd.autofix {
		if fixable := doctor.CountFixable(results); fixable > 0 {
			p.Infof("Run 'todosync doctor --autofix' to fix %d issue(s)", fixable)
		}
	}
}
