package commands

import (
	"context"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/hebbarp/todo-management/internal/core/config"
	"github.com/hebbarp/todo-management/internal/printer"
	"github.com/hebbarp/todo-management/pkg/iojson"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "todosync config validate [options]",
				Description: "Validates the configuration file, checking paths, the gh executable, SMTP settings, and the digest template.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

type validateOutput struct {
	Valid    bool                       `json:"valid"`
	Errors   []string                   `json:"errors,omitempty"`
	Warnings []config.ValidationWarning `json:"warnings,omitempty"`
}

func (cmd *ConfigValidateCmd) run(_ context.Context, c *cli.Command) error {
	result := validateOutput{Valid: true}

	cfg, err := config.Load(cmd.flags.ConfigPath, cmd.flags.DataDir)
	if err != nil {
		result.Valid = false
		result.Errors = splitErrors(err)
	} else {
		result.Warnings = cfg.Warnings()
		if err := cfg.ValidateDeep(cmd.flags.ConfigPath); err != nil {
			result.Valid = false
			result.Errors = splitErrors(err)
		}
	}

	if cmd.format == "json" {
		if err := iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, result); err != nil {
			return err
		}
	} else {
		cmd.outputText(out(c), result)
	}

	if !result.Valid {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *ConfigValidateCmd) outputText(p *printer.Printer, result validateOutput) {
	for _, warn := range result.Warnings {
		p.Warnf("%s: %s", warn.Category, warn.Message)
		if warn.Item != "" {
			p.Printf("  Item: %s", warn.Item)
		}
	}

	for _, e := range result.Errors {
		p.Errorf("%s", e)
	}

	p.Printf("")
	if result.Valid {
		p.Successf("Configuration is valid")
		return
	}
	p.Errorf("%d error(s) found", len(result.Errors))
}

func splitErrors(err error) []string {
	var out []string
	for _, line := range strings.Split(err.Error(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
