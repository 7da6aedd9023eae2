package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/hebbarp/todo-management/internal/core/config"
	"github.com/hebbarp/todo-management/pkg/fsutil"
)

type InitCmd struct {
	flags *Flags
	force bool
}

// NewInitCmd creates a new init command.
func NewInitCmd(flags *Flags) *InitCmd {
	return &InitCmd{flags: flags}
}

// Register adds the init command to the application.
func (cmd *InitCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "init",
		Usage:     "Write an annotated default config file",
		UsageText: "todosync init [--force]",
		Description: `Writes the default configuration to the --config path and creates the
data directory.

Use --force to overwrite an existing file; the previous file is kept
next to it with a .bak suffix.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "force",
				Aliases:     []string{"f"},
				Usage:       "overwrite existing configuration",
				Destination: &cmd.force,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *InitCmd) run(_ context.Context, c *cli.Command) error {
	path := cmd.flags.ConfigPath
	if path == "" {
		return fmt.Errorf("no config path; pass --config")
	}

	p := out(c)

	if _, err := os.Stat(path); err == nil {
		if !cmd.force {
			return fmt.Errorf("config already exists at %s; use --force to overwrite", path)
		}
		backup, err := backupConfig(path)
		if err != nil {
			return err
		}
		p.Infof("previous config saved to %s", backup)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, []byte(config.Template), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.MkdirAll(cmd.flags.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	p.Successf("Wrote %s", path)
	p.Infof("data directory: %s", cmd.flags.DataDir)
	return nil
}

// backupConfig copies the existing config to <path>.bak.
func backupConfig(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read existing config: %w", err)
	}

	backupPath := path + ".bak"
	if err := fsutil.WriteFileAtomic(backupPath, content, 0o644); err != nil {
		return "", fmt.Errorf("create backup: %w", err)
	}
	return backupPath, nil
}
