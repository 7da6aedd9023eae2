package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook copies channel and message_id from the event context onto log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if ch := GetChannel(ctx); ch != "" {
		e.Str("channel", ch)
	}

	if id := GetMessageID(ctx); id != "" {
		e.Str("message_id", id)
	}
}
