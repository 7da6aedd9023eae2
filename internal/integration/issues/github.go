// Package issues creates external tracking issues through the GitHub CLI.
package issues

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hebbarp/todo-management/internal/core/messaging"
	"github.com/hebbarp/todo-management/pkg/executil"
)

// ErrUnavailable is returned by CreateIssue when the tracker is disabled or gh
// cannot be found.
var ErrUnavailable = errors.New("issue tracker unavailable")

// Options configures the GitHub tracker.
type Options struct {
	Enabled *bool // nil = auto-detect gh on PATH
	Repo    string
	GhPath  string
	Timeout time.Duration
}

// GitHub implements messaging.IssueTracker with `gh issue create`.
type GitHub struct {
	opts Options
	exec executil.Executor
}

var _ messaging.IssueTracker = (*GitHub)(nil)

// NewGitHub creates a tracker that shells out through exec.
func NewGitHub(opts Options, exec executil.Executor) *GitHub {
	if opts.GhPath == "" {
		opts.GhPath = "gh"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &GitHub{opts: opts, exec: exec}
}

// Available reports whether issues can be created. An explicit Enabled=false
// always wins; otherwise gh must resolve on PATH.
func (g *GitHub) Available() bool {
	if g.opts.Enabled != nil && !*g.opts.Enabled {
		return false
	}
	_, err := g.exec.LookPath(g.opts.GhPath)
	return err == nil
}

// CreateIssue runs gh issue create bounded by the configured timeout.
func (g *GitHub) CreateIssue(ctx context.Context, issue messaging.Issue) error {
	if !g.Available() {
		return ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	if _, err := g.exec.Run(ctx, g.opts.GhPath, g.args(issue)...); err != nil {
		return fmt.Errorf("create issue %q: %w", issue.Title, err)
	}
	return nil
}

func (g *GitHub) args(issue messaging.Issue) []string {
	args := []string{"issue", "create"}
	if g.opts.Repo != "" {
		args = append(args, "--repo", g.opts.Repo)
	}
	args = append(args, "--title", issue.Title, "--body", issue.Body)
	if len(issue.Labels) > 0 {
		args = append(args, "--label", strings.Join(issue.Labels, ","))
	}
	return args
}
