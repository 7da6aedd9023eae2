package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/hebbarp/todo-management/internal/todosync"
)

const (
	AppName  = "todosync"
	AppUsage = "Collect todos from chat, email, and a spreadsheet and keep them in sync"

	appDescription = `todosync ingests messages from three channels, classifies each one as an
add, complete, list, or help request, and keeps a todo list per channel.

A sync pass fans recent todos out to the other channels, opens tracking
issues for new work, writes a report, and records the pass in the sync log.

Run 'todosync init' to write a starter config.
Run 'todosync watch' to process a spool directory and sync on an interval.`
)

// NewRoot returns the root command with the global flags bound to flags.
func NewRoot(flags *Flags) *cli.Command {
	return &cli.Command{
		Name:        AppName,
		Usage:       AppUsage,
		UsageText:   "todosync [global options] command [command options]",
		Description: appDescription,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("TODOSYNC_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/todosync.log)",
				Sources:     cli.EnvVars("TODOSYNC_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("TODOSYNC_CONFIG"),
				Value:       DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("TODOSYNC_DATA_DIR"),
				Value:       DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
	}
}

// RegisterAll adds every todosync command to root.
func RegisterAll(root *cli.Command, flags *Flags, app *todosync.App) *cli.Command {
	root = NewInitCmd(flags).Register(root)
	root = NewProcessCmd(flags, app).Register(root)
	root = NewTodoCmd(flags, app).Register(root)
	root = NewSyncCmd(flags, app).Register(root)
	root = NewReportCmd(flags, app).Register(root)
	root = NewBackupCmd(flags, app).Register(root)
	root = NewDigestCmd(flags, app).Register(root)
	root = NewIngestCmd(flags, app).Register(root)
	root = NewWatchCmd(flags, app).Register(root)
	root = NewMigrateCmd(flags, app).Register(root)
	root = NewDoctorCmd(flags, app).Register(root)
	root = NewConfigValidateCmd(flags).Register(root)
	return root
}
