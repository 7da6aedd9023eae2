// Package todosync implements the channel adapters, the synchronization engine,
// and the backup and reporting services built on top of them.
package todosync

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/hebbarp/todo-management/internal/core/intent"
	"github.com/hebbarp/todo-management/internal/core/logging"
	"github.com/hebbarp/todo-management/internal/core/messaging"
	"github.com/hebbarp/todo-management/internal/core/todo"
)

const helpText = `Todo commands:
- "add todo: <description>" to create a todo
- "complete <number>" to mark a todo as done
- "list" to see your pending todos
- "help" to show this message
Any other message is saved as a new todo.`

// Response texts.
const (
	responseAck        = "Message received."
	responseNoPending  = "No pending todos."
	responseNeedNumber = `Please include the todo number, e.g. "complete 2".`
)

// Result describes what Process did with one inbound message.
type Result struct {
	Intent    intent.Intent
	Response  string
	Created   []int // ids of todos created
	Completed bool
	Duplicate bool // email dedup gate hit; nothing was processed
}

// Adapter owns one channel partition. Every operation that touches the store
// or the dedup ledger holds the adapter's lock; side effects run after it is
// released.
type Adapter struct {
	opts       ChannelOptions
	store      todo.Store
	seen       todo.Ledger // nil unless opts.Dedup
	classifier *intent.Classifier
	effects    *SideEffects
	sender     messaging.Sender
	now        func() time.Time
	log        zerolog.Logger

	mu sync.Mutex
}

// NewAdapter creates an adapter. seen may be nil when opts.Dedup is false,
// effects and sender may be nil to disable the corresponding side effects.
func NewAdapter(
	opts ChannelOptions,
	store todo.Store,
	seen todo.Ledger,
	classifier *intent.Classifier,
	effects *SideEffects,
	sender messaging.Sender,
) *Adapter {
	if classifier == nil {
		classifier = intent.Default()
	}
	if opts.ListLimit <= 0 {
		opts.ListLimit = 5
	}

	return &Adapter{
		opts:       opts,
		store:      store,
		seen:       seen,
		classifier: classifier,
		effects:    effects,
		sender:     sender,
		now:        time.Now,
		log:        logging.ForChannel("adapter", string(opts.Channel)),
	}
}

// Channel returns the partition this adapter owns.
func (a *Adapter) Channel() todo.Channel {
	return a.opts.Channel
}

// Process classifies msg, executes the resulting action, and returns the
// response text for the sender. Errors are store failures only; parse failures
// and duplicates are reported through the Result.
func (a *Adapter) Process(ctx context.Context, msg messaging.Inbound) (Result, error) {
	if msg.Channel == "" {
		msg.Channel = a.opts.Channel
	}
	if msg.Channel != a.opts.Channel {
		return Result{}, fmt.Errorf("%w: %s message sent to %s adapter", todo.ErrInvalidChannel, msg.Channel, a.opts.Channel)
	}
	if err := msg.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid message: %w", err)
	}
	if a.opts.CountryCode != "" {
		msg.Sender = messaging.NormalizePhone(msg.Sender, a.opts.CountryCode)
	}

	ctx = logging.WithChannel(ctx, string(a.opts.Channel))
	if msg.ID != "" {
		ctx = logging.WithMessageID(ctx, msg.ID)
	}

	res, created, completed, err := a.processLocked(ctx, msg)
	if err != nil {
		return Result{}, err
	}

	for _, t := range created {
		a.afterAdd(ctx, t)
	}
	if completed != nil {
		a.afterComplete(ctx, *completed)
	}

	return res, nil
}

func (a *Adapter) processLocked(ctx context.Context, msg messaging.Inbound) (Result, []todo.Todo, *todo.Todo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var applied []todo.Todo
	if a.opts.Dedup {
		dup, err := a.seen.Seen(ctx, msg.ID)
		if err != nil {
			return Result{}, nil, nil, err
		}
		if dup {
			a.log.Debug().Str("message_id", msg.ID).Msg("message already processed, skipping")
			return Result{Duplicate: true}, nil, nil, nil
		}

		// Todos written by an earlier attempt whose ledger record failed.
		applied, err = a.appliedTodos(ctx, msg.ID)
		if err != nil {
			return Result{}, nil, nil, err
		}
	}

	res, created, completed, err := a.dispatch(ctx, msg, applied)
	if err != nil {
		return Result{}, nil, nil, err
	}

	if a.opts.Dedup {
		if err := a.seen.Record(ctx, msg.ID); err != nil {
			return Result{}, nil, nil, err
		}
	}

	return res, created, completed, nil
}

func (a *Adapter) dispatch(ctx context.Context, msg messaging.Inbound, applied []todo.Todo) (Result, []todo.Todo, *todo.Todo, error) {
	text := msg.Text
	if strings.TrimSpace(text) == "" {
		text = msg.Subject
	}

	if a.opts.ExtractItems {
		if items := intent.ExtractItems(text); len(items) > 0 {
			return a.addItems(ctx, msg, items, applied)
		}
	}

	in := a.classify(text, msg.Subject)
	res := Result{Intent: in}

	switch in.Action {
	case intent.ActionAdd:
		t, err := a.addOnce(ctx, msg, in.Description, &applied)
		if err != nil {
			return Result{}, nil, nil, err
		}
		res.Created = []int{t.ID}
		res.Response = fmt.Sprintf("Todo #%d created: %s", t.ID, t.Description)
		return res, []todo.Todo{t}, nil, nil

	case intent.ActionComplete:
		t, ok, err := a.completeLocked(ctx, in.ID)
		if err != nil {
			return Result{}, nil, nil, err
		}
		if !ok {
			res.Response = fmt.Sprintf("Todo #%d not found or already completed", in.ID)
			return res, nil, nil, nil
		}
		res.Completed = true
		res.Response = fmt.Sprintf("Todo #%d marked as completed", in.ID)
		return res, nil, &t, nil

	case intent.ActionList:
		filter := todo.ListFilter{Status: todo.StatusPending}
		if a.opts.ListBySender {
			filter.Sender = msg.Sender
		}
		all, err := a.store.List(ctx)
		if err != nil {
			return Result{}, nil, nil, err
		}
		res.Response = formatList(todo.Last(todo.Filter(all, filter), a.opts.ListLimit))
		return res, nil, nil, nil

	case intent.ActionHelp:
		res.Response = helpText
		return res, nil, nil, nil
	}

	if in.Reason == intent.ReasonParseFailure {
		res.Response = responseNeedNumber
	} else {
		res.Response = responseAck
	}
	a.log.Debug().Str("reason", string(in.Reason)).Msg("message not actionable")
	return res, nil, nil, nil
}

// classify runs the classifier on text, falling back to the subject when the
// body is short and not actionable on its own.
func (a *Adapter) classify(text, subject string) intent.Intent {
	in := a.classifier.Classify(text)
	if in.Action != intent.ActionUnknown || a.opts.ShortBodyLimit <= 0 {
		return in
	}
	if strings.TrimSpace(subject) == "" || utf8.RuneCountInString(text) >= a.opts.ShortBodyLimit {
		return in
	}

	if sub := a.classifier.Classify(subject); sub.Action != intent.ActionUnknown {
		return sub
	}
	return in
}

func (a *Adapter) addItems(ctx context.Context, msg messaging.Inbound, items []string, applied []todo.Todo) (Result, []todo.Todo, *todo.Todo, error) {
	res := Result{Intent: intent.Intent{Action: intent.ActionAdd}}
	created := make([]todo.Todo, 0, len(items))
	refs := make([]string, 0, len(items))

	for _, item := range items {
		t, err := a.addOnce(ctx, msg, item, &applied)
		if err != nil {
			return Result{}, nil, nil, err
		}
		created = append(created, t)
		res.Created = append(res.Created, t.ID)
		refs = append(refs, fmt.Sprintf("#%d", t.ID))
	}

	if len(created) == 1 {
		res.Response = fmt.Sprintf("Todo #%d created: %s", created[0].ID, created[0].Description)
	} else {
		res.Response = fmt.Sprintf("Created %d todos: %s", len(created), strings.Join(refs, ", "))
	}
	return res, created, nil, nil
}

// appliedTodos returns the todos already created from message id.
func (a *Adapter) appliedTodos(ctx context.Context, id string) ([]todo.Todo, error) {
	all, err := a.store.List(ctx)
	if err != nil {
		return nil, err
	}

	var out []todo.Todo
	for _, t := range all {
		if t.MessageID == id {
			out = append(out, t)
		}
	}
	return out, nil
}

// addOnce creates the todo for description unless an earlier attempt at the
// same message already wrote it, in which case that todo is consumed from
// applied and returned.
func (a *Adapter) addOnce(ctx context.Context, msg messaging.Inbound, description string, applied *[]todo.Todo) (todo.Todo, error) {
	for i, t := range *applied {
		if t.Description != description {
			continue
		}
		*applied = append((*applied)[:i:i], (*applied)[i+1:]...)
		a.log.Info().Int("id", t.ID).Str("message_id", msg.ID).Msg("todo already written by earlier attempt")
		return t, nil
	}

	return a.addLocked(ctx, description, msg.Sender, msg.Subject, msg.ID)
}

// Add appends a new todo and returns its id. The tracking issue side effect
// runs after the todo is persisted and never fails the call.
func (a *Adapter) Add(ctx context.Context, description, sender string) (int, error) {
	description = intent.Normalize(description)
	if description == "" {
		return 0, messaging.ErrEmptyText
	}
	if a.opts.CountryCode != "" && sender != "" {
		sender = messaging.NormalizePhone(sender, a.opts.CountryCode)
	}

	a.mu.Lock()
	t, err := a.addLocked(ctx, description, sender, "", "")
	a.mu.Unlock()
	if err != nil {
		return 0, err
	}

	a.afterAdd(ctx, t)
	return t.ID, nil
}

func (a *Adapter) addLocked(ctx context.Context, description, sender, subject, messageID string) (todo.Todo, error) {
	all, err := a.store.List(ctx)
	if err != nil {
		return todo.Todo{}, err
	}

	t := todo.Todo{
		ID:          todo.NextID(all),
		Channel:     a.opts.Channel,
		Origin:      a.opts.Channel,
		Description: description,
		Status:      todo.StatusPending,
		Sender:      sender,
		Subject:     subject,
		MessageID:   messageID,
		Priority:    a.opts.DefaultPriority,
		CreatedAt:   a.now(),
	}
	if err := a.store.Append(ctx, t); err != nil {
		return todo.Todo{}, err
	}

	a.log.Info().Int("id", t.ID).Str("sender", sender).Msg("todo created")
	return t, nil
}

// replicate appends a fan-out copy of src with a fresh id in this partition.
func (a *Adapter) replicate(ctx context.Context, src todo.Todo) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	all, err := a.store.List(ctx)
	if err != nil {
		return 0, err
	}

	t := todo.Todo{
		ID:          todo.NextID(all),
		Channel:     a.opts.Channel,
		Origin:      src.Channel,
		Description: src.Channel.Tag() + " " + src.Description,
		Status:      todo.StatusPending,
		Priority:    a.opts.DefaultPriority,
		CreatedAt:   a.now(),
	}
	if src.Sender != "" {
		t.Notes = "From: " + src.Sender
	}

	if err := a.store.Append(ctx, t); err != nil {
		return 0, err
	}
	return t.ID, nil
}

// Complete marks todo id completed. It reports false when the todo does not
// exist or was already completed; the error is reserved for store failures.
func (a *Adapter) Complete(ctx context.Context, id int) (bool, error) {
	a.mu.Lock()
	t, ok, err := a.completeLocked(ctx, id)
	a.mu.Unlock()
	if err != nil || !ok {
		return false, err
	}

	a.afterComplete(ctx, t)
	return true, nil
}

func (a *Adapter) completeLocked(ctx context.Context, id int) (todo.Todo, bool, error) {
	all, err := a.store.List(ctx)
	if err != nil {
		return todo.Todo{}, false, err
	}

	for _, t := range all {
		if t.ID != id {
			continue
		}
		if !t.Complete(a.now()) {
			return todo.Todo{}, false, nil
		}
		if err := a.store.Update(ctx, t); err != nil {
			return todo.Todo{}, false, err
		}
		a.log.Info().Int("id", id).Msg("todo completed")
		return t, true, nil
	}

	return todo.Todo{}, false, nil
}

// List returns the todos matching filter in insertion order, most recent last.
// The sender filter is normalized the same way stored senders are.
func (a *Adapter) List(ctx context.Context, filter todo.ListFilter) ([]todo.Todo, error) {
	if a.opts.CountryCode != "" && filter.Sender != "" {
		filter.Sender = messaging.NormalizePhone(filter.Sender, a.opts.CountryCode)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	all, err := a.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return todo.Filter(all, filter), nil
}

func (a *Adapter) afterAdd(ctx context.Context, t todo.Todo) {
	if !a.opts.IssueOnAdd || a.effects == nil {
		return
	}
	if _, err := a.effects.CreateIssue(ctx, t); err != nil {
		a.log.Warn().Err(err).Int("id", t.ID).Msg("issue creation failed")
	}
}

func (a *Adapter) afterComplete(ctx context.Context, t todo.Todo) {
	if !a.opts.NotifyOnComplete || a.sender == nil || t.Sender == "" {
		return
	}

	err := a.sender.Send(ctx, messaging.Outbound{
		Channel:   a.opts.Channel,
		Recipient: t.Sender,
		Subject:   fmt.Sprintf("Todo Completed: #%d", t.ID),
		Body:      fmt.Sprintf("Todo has been marked as completed:\n\n%s", t.Description),
	})
	if err != nil {
		a.log.Warn().Err(err).Int("id", t.ID).Msg("completion notification failed")
	}
}

func formatList(todos []todo.Todo) string {
	if len(todos) == 0 {
		return responseNoPending
	}

	var b strings.Builder
	b.WriteString("Your pending todos:")
	for _, t := range todos {
		fmt.Fprintf(&b, "\n#%d: %s", t.ID, t.Description)
	}
	return b.String()
}
