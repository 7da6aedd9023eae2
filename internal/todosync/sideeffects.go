package todosync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hebbarp/todo-management/internal/core/logging"
	"github.com/hebbarp/todo-management/internal/core/messaging"
	"github.com/hebbarp/todo-management/internal/core/todo"
)

// IssueKey is the effects ledger key guarding issue creation for one todo.
func IssueKey(ch todo.Channel, id int) string {
	return fmt.Sprintf("issue:%s:%d", ch, id)
}

// FanoutKey is the effects ledger key guarding the copy of one todo into target.
func FanoutKey(origin todo.Channel, id int, target todo.Channel) string {
	return fmt.Sprintf("fanout:%s:%d:%s", origin, id, target)
}

// SideEffects runs external side effects at most once per key. The key is
// claimed in the effects ledger before the effect is attempted, so a failed
// attempt is never retried.
type SideEffects struct {
	ledger  todo.Ledger
	tracker messaging.IssueTracker
	log     zerolog.Logger
}

// NewSideEffects creates the side-effect runner. A nil tracker disables issue
// creation.
func NewSideEffects(ledger todo.Ledger, tracker messaging.IssueTracker) *SideEffects {
	if tracker == nil {
		tracker = messaging.NoopTracker{}
	}
	return &SideEffects{
		ledger:  ledger,
		tracker: tracker,
		log:     logging.Component("side-effects"),
	}
}

// IssuesAvailable reports whether the issue tracker can be used.
func (s *SideEffects) IssuesAvailable() bool {
	return s.tracker.Available()
}

// CreateIssue creates the tracking issue for t unless one was already
// attempted. Reports whether an issue was created.
func (s *SideEffects) CreateIssue(ctx context.Context, t todo.Todo) (bool, error) {
	if !s.tracker.Available() {
		return false, nil
	}

	claimed, err := s.ledger.Claim(ctx, IssueKey(t.Channel, t.ID))
	if err != nil {
		return false, fmt.Errorf("claim issue for %s #%d: %w", t.Channel, t.ID, err)
	}
	if !claimed {
		return false, nil
	}

	if err := s.tracker.CreateIssue(ctx, issueFor(t)); err != nil {
		return false, err
	}

	s.log.Info().Str("channel", string(t.Channel)).Int("id", t.ID).Msg("tracking issue created")
	return true, nil
}

// ClaimFanout claims the copy of t into target. A false result means the copy
// was already made or attempted.
func (s *SideEffects) ClaimFanout(ctx context.Context, t todo.Todo, target todo.Channel) (bool, error) {
	return s.ledger.Claim(ctx, FanoutKey(t.Channel, t.ID, target))
}

func issueFor(t todo.Todo) messaging.Issue {
	var body strings.Builder
	fmt.Fprintf(&body, "Created via %s", t.Channel)
	if t.Sender != "" {
		fmt.Fprintf(&body, " from %s", t.Sender)
	}
	if t.Subject != "" {
		fmt.Fprintf(&body, "\nSubject: %s", t.Subject)
	}
	fmt.Fprintf(&body, "\nCreated: %s", t.CreatedAt.Format(time.RFC3339))

	return messaging.Issue{
		Title:  t.Channel.Tag() + " " + t.Description,
		Body:   body.String(),
		Labels: []string{"source:" + string(t.Channel), "status:" + string(t.Status)},
	}
}
