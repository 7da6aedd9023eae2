package logging

import "context"

type contextKey string

const (
	channelKey   contextKey = "channel"
	messageIDKey contextKey = "message_id"
)

// WithChannel adds the originating channel name to the context.
func WithChannel(ctx context.Context, channel string) context.Context {
	return context.WithValue(ctx, channelKey, channel)
}

// WithMessageID adds an inbound message identifier to the context.
func WithMessageID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, messageIDKey, id)
}

// GetChannel retrieves the channel name from the context.
// Returns empty string if not present.
func GetChannel(ctx context.Context) string {
	if ch, ok := ctx.Value(channelKey).(string); ok {
		return ch
	}
	return ""
}

// GetMessageID retrieves the message ID from the context.
// Returns empty string if not present.
func GetMessageID(ctx context.Context) string {
	if id, ok := ctx.Value(messageIDKey).(string); ok {
		return id
	}
	return ""
}
