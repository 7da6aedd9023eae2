package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/hebbarp/todo-management/internal/core/config"
	"github.com/hebbarp/todo-management/internal/core/todo"
	"github.com/hebbarp/todo-management/internal/printer"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "todosync", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "todosync")
}

// channelFlag returns the --channel flag bound to dest.
func channelFlag(dest *string, required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "channel",
		Aliases:     []string{"C"},
		Usage:       "channel (chat, email, sheet)",
		Required:    required,
		Destination: dest,
	}
}

// parseChannels resolves a --channel value. An empty value selects every
// channel.
func parseChannels(value string) ([]todo.Channel, error) {
	if strings.TrimSpace(value) == "" || value == "all" {
		return todo.Channels, nil
	}
	ch, err := todo.ParseChannel(value)
	if err != nil {
		return nil, fmt.Errorf("invalid channel %q: must be one of chat, email, sheet", value)
	}
	return []todo.Channel{ch}, nil
}

func out(c *cli.Command) *printer.Printer {
	return printer.New(c.Root().Writer)
}

// statusOut returns a printer for status lines. When the command's stdout
// carries JSON, status lines go to the error writer instead.
func statusOut(c *cli.Command, jsonOutput bool) *printer.Printer {
	if jsonOutput && c.Root().ErrWriter != nil {
		return printer.New(c.Root().ErrWriter)
	}
	return out(c)
}
