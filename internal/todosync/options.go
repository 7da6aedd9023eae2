package todosync

import (
	"github.com/hebbarp/todo-management/internal/core/config"
	"github.com/hebbarp/todo-management/internal/core/todo"
)

// Ledger scopes.
const (
	// LedgerEmails holds processed inbound email message ids.
	LedgerEmails = "emails"
	// LedgerEffects holds claims for at-most-once side effects.
	LedgerEffects = "effects"
)

// ChannelOptions specializes an Adapter for its channel.
type ChannelOptions struct {
	Channel todo.Channel

	// Dedup gates processing on the inbound message id.
	Dedup bool
	// CountryCode is prepended to national phone numbers when normalizing
	// chat senders. Empty disables normalization.
	CountryCode string
	// ListBySender restricts the list action to the sender's own todos.
	ListBySender bool
	// ListLimit caps the number of todos in a list response.
	ListLimit int

	// ExtractItems scans message bodies for list-style items before
	// classification.
	ExtractItems bool
	// ShortBodyLimit is the body length under which an unactionable body
	// falls back to the subject.
	ShortBodyLimit int

	// DefaultPriority is stamped on new todos.
	DefaultPriority string
	// NotifyOnComplete emails the original sender when a todo completes.
	NotifyOnComplete bool
	// IssueOnAdd creates a tracking issue for every new todo.
	IssueOnAdd bool
}

// OptionsFromConfig builds the options for ch.
func OptionsFromConfig(cfg *config.Config, ch todo.Channel) ChannelOptions {
	opts := ChannelOptions{
		Channel:         ch,
		ListLimit:       cfg.Channels.Chat.ListLimit,
		DefaultPriority: cfg.Channels.Sheet.DefaultPriority,
		IssueOnAdd:      cfg.IssuesOnAdd(),
	}

	switch ch {
	case todo.ChannelChat:
		opts.CountryCode = cfg.Channels.Chat.DefaultCountryCode
		opts.ListBySender = true
	case todo.ChannelEmail:
		opts.Dedup = true
		opts.ExtractItems = cfg.EmailExtractItems()
		opts.ShortBodyLimit = cfg.Channels.Email.ShortBodyLimit
		opts.NotifyOnComplete = cfg.EmailNotifyOnComplete()
	}

	return opts
}
