package executil

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
)

// RecordedCommand captures a command that was executed.
type RecordedCommand struct {
	Cmd  string
	Args []string
}

// RecordingExecutor captures commands for testing.
// Configure Outputs and Errors maps to control return values.
type RecordingExecutor struct {
	mu       sync.Mutex
	Commands []RecordedCommand

	// Outputs maps command names to their output.
	// Key is the command name (e.g., "gh").
	Outputs map[string][]byte

	// Errors maps command names to their error.
	Errors map[string]error

	// Paths maps command names to the path LookPath reports. Commands not
	// present are reported as not found.
	Paths map[string]string
}

var _ Executor = (*RecordingExecutor)(nil)

// Run records the command and returns configured output/error.
func (e *RecordingExecutor) Run(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Commands = append(e.Commands, RecordedCommand{
		Cmd:  cmd,
		Args: append([]string(nil), args...),
	})

	var out []byte
	var err error

	if e.Outputs != nil {
		out = e.Outputs[cmd]
	}
	if e.Errors != nil {
		err = e.Errors[cmd]
	}

	return out, err
}

// LookPath returns the configured path for cmd.
func (e *RecordingExecutor) LookPath(cmd string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p, ok := e.Paths[cmd]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%s: %w", cmd, exec.ErrNotFound)
}

// Recorded returns a copy of the recorded commands.
func (e *RecordingExecutor) Recorded() []RecordedCommand {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]RecordedCommand(nil), e.Commands...)
}

// Reset clears recorded commands.
func (e *RecordingExecutor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Commands = nil
}
