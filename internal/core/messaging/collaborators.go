package messaging

import "context"

// Sender delivers an outbound message. Implementations bound each call with a
// timeout and report failure through the returned error.
type Sender interface {
	Send(ctx context.Context, msg Outbound) error
}

// Issue is an external tracking issue request.
type Issue struct {
	Title  string
	Body   string
	Labels []string
}

// IssueTracker creates external tracking issues. When Available reports false
// callers treat issue creation as a no-op.
type IssueTracker interface {
	Available() bool
	CreateIssue(ctx context.Context, issue Issue) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, msg Outbound) error

// Send calls f(ctx, msg).
func (f SenderFunc) Send(ctx context.Context, msg Outbound) error {
	return f(ctx, msg)
}

// NoopTracker is an IssueTracker that is never available.
type NoopTracker struct{}

// Available always reports false.
func (NoopTracker) Available() bool { return false }

// CreateIssue does nothing.
func (NoopTracker) CreateIssue(context.Context, Issue) error { return nil }
