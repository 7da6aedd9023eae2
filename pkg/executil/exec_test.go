package executil

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealExecutor_StderrCappedAtMaxLen(t *testing.T) {
	ctx := context.Background()
	e := &RealExecutor{}

	longStderr := strings.Repeat("A", maxStderrLen*2)
	script := fmt.Sprintf("printf '%%s' '%s' >&2; exit 1", longStderr)

	_, err := e.Run(ctx, "sh", "-c", script)
	require.Error(t, err)

	// Error format: "exec sh: <stderr prefix>: exit status 1"
	msg := strings.TrimPrefix(err.Error(), "exec sh: ")
	assert.Equal(t, strings.Repeat("A", maxStderrLen), msg[:maxStderrLen])
	assert.LessOrEqual(t, len(msg), maxStderrLen+20, "error message should be capped")
}

func TestRealExecutor_PreservesExitError(t *testing.T) {
	e := &RealExecutor{}

	_, err := e.Run(context.Background(), "sh", "-c", "echo 'error message' >&2; exit 2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error message")

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.ExitCode())
}

func TestRealExecutor_Run(t *testing.T) {
	e := &RealExecutor{}
	ctx := context.Background()

	t.Run("successful command", func(t *testing.T) {
		out, err := e.Run(ctx, "echo", "hello")
		require.NoError(t, err)
		assert.Equal(t, "hello\n", string(out))
	})

	t.Run("stdout only", func(t *testing.T) {
		out, err := e.Run(ctx, "sh", "-c", "echo out; echo err >&2")
		require.NoError(t, err)
		assert.Equal(t, "out\n", string(out))
	})

	t.Run("command not found", func(t *testing.T) {
		_, err := e.Run(ctx, "nonexistent-command-12345")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exec nonexistent-command-12345")
	})
}

func TestRealExecutor_LookPath(t *testing.T) {
	e := &RealExecutor{}

	p, err := e.LookPath("sh")
	require.NoError(t, err)
	assert.NotEmpty(t, p)

	_, err = e.LookPath("nonexistent-command-12345")
	assert.ErrorIs(t, err, exec.ErrNotFound)
}

func TestRecordingExecutor(t *testing.T) {
	t.Run("records commands", func(t *testing.T) {
		e := &RecordingExecutor{}
		ctx := context.Background()

		_, _ = e.Run(ctx, "gh", "issue", "create")
		_, _ = e.Run(ctx, "gh", "auth", "status")

		cmds := e.Recorded()
		require.Len(t, cmds, 2)
		assert.Equal(t, "gh", cmds[0].Cmd)
		assert.Equal(t, []string{"issue", "create"}, cmds[0].Args)

		e.Reset()
		assert.Empty(t, e.Recorded())
	})

	t.Run("returns configured output", func(t *testing.T) {
		e := &RecordingExecutor{Outputs: map[string][]byte{"gh": []byte("https://example.com/1")}}

		out, err := e.Run(context.Background(), "gh", "issue", "create")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/1", string(out))
	})

	t.Run("returns configured error", func(t *testing.T) {
		expectedErr := errors.New("command failed")
		e := &RecordingExecutor{Errors: map[string]error{"gh": expectedErr}}

		_, err := e.Run(context.Background(), "gh", "issue", "create")
		assert.ErrorIs(t, err, expectedErr)
	})

	t.Run("look path", func(t *testing.T) {
		e := &RecordingExecutor{Paths: map[string]string{"gh": "/usr/bin/gh"}}

		p, err := e.LookPath("gh")
		require.NoError(t, err)
		assert.Equal(t, "/usr/bin/gh", p)

		_, err = e.LookPath("git")
		assert.ErrorIs(t, err, exec.ErrNotFound)
	})
}
