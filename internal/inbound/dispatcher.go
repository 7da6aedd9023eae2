package inbound

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hebbarp/todo-management/internal/core/logging"
	"github.com/hebbarp/todo-management/internal/core/messaging"
	"github.com/hebbarp/todo-management/internal/core/todo"
	"github.com/hebbarp/todo-management/internal/todosync"
)

// Spool subdirectories files are moved to once handled.
const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
)

// AdapterSource resolves the adapter for a channel. *todosync.App satisfies it.
type AdapterSource interface {
	Adapter(ch todo.Channel) (*todosync.Adapter, error)
}

// Dispatcher hands inbound messages to their channel adapter and replies to
// the sender through the send capability.
type Dispatcher struct {
	adapters AdapterSource
	sender   messaging.Sender
	now      func() time.Time
	log      zerolog.Logger
}

// NewDispatcher creates a dispatcher. A nil sender disables replies.
func NewDispatcher(adapters AdapterSource, sender messaging.Sender) *Dispatcher {
	return &Dispatcher{
		adapters: adapters,
		sender:   sender,
		now:      time.Now,
		log:      logging.Component("dispatcher"),
	}
}

// Decode parses a spooled artifact by extension: .eml as RFC 822 mail,
// anything else as a JSON envelope.
func Decode(path string, data []byte, now time.Time) (messaging.Inbound, error) {
	if strings.EqualFold(filepath.Ext(path), ".eml") {
		return ParseEmail(bytes.NewReader(data))
	}
	return DecodeEnvelope(data, now)
}

// Dispatch processes msg on its channel's adapter and replies to the sender.
// A failed reply is logged and does not fail the dispatch.
func (d *Dispatcher) Dispatch(ctx context.Context, msg messaging.Inbound) (todosync.Result, error) {
	adapter, err := d.adapters.Adapter(msg.Channel)
	if err != nil {
		return todosync.Result{}, err
	}

	res, err := adapter.Process(ctx, msg)
	if err != nil {
		return res, err
	}

	if !res.Duplicate {
		d.reply(ctx, msg, res)
	}
	return res, nil
}

func (d *Dispatcher) reply(ctx context.Context, msg messaging.Inbound, res todosync.Result) {
	if d.sender == nil || res.Response == "" || msg.Sender == "" {
		return
	}
	// sheet rows have nobody to answer
	if msg.Channel == todo.ChannelSheet {
		return
	}

	out := messaging.Outbound{
		Channel:   msg.Channel,
		Recipient: msg.Sender,
		Body:      res.Response,
	}
	if msg.Channel == todo.ChannelEmail {
		out.Subject = "Re: " + msg.Subject
		if msg.Subject == "" {
			out.Subject = "Re: your todo request"
		}
	}

	if err := d.sender.Send(ctx, out); err != nil {
		d.log.Warn().Err(err).
			Str("channel", string(msg.Channel)).
			Str("recipient", msg.Sender).
			Msg("reply failed")
	}
}

// HandleFile decodes and dispatches one spool file, then moves it into the
// processed or failed subdirectory next to it.
func (d *Dispatcher) HandleFile(ctx context.Context, path string) error {
	err := d.handle(ctx, path)

	dest := ProcessedDir
	if err != nil {
		dest = FailedDir
		d.log.Warn().Err(err).Str("path", path).Msg("spool file failed")
	}

	if mvErr := moveInto(path, dest); mvErr != nil {
		d.log.Error().Err(mvErr).Str("path", path).Msg("move spool file")
		if err == nil {
			err = mvErr
		}
	}
	return err
}

func (d *Dispatcher) handle(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read spool file: %w", err)
	}

	msg, err := Decode(path, data, d.now())
	if err != nil {
		return err
	}

	res, err := d.Dispatch(ctx, msg)
	if err != nil {
		return err
	}

	d.log.Info().
		Str("path", filepath.Base(path)).
		Str("channel", string(msg.Channel)).
		Str("intent", string(res.Intent.Action)).
		Bool("duplicate", res.Duplicate).
		Ints("created", res.Created).
		Msg("spool file processed")
	return nil
}

func moveInto(path, sub string) error {
	dir := filepath.Join(filepath.Dir(path), sub)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.Rename(path, filepath.Join(dir, filepath.Base(path)))
}
