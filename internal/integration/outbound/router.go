package outbound

import (
	"context"

	"github.com/hebbarp/todo-management/internal/core/messaging"
	"github.com/hebbarp/todo-management/internal/core/todo"
)

// Router delivers each message through the sender registered for its channel,
// falling back to a default sender.
type Router struct {
	routes   map[todo.Channel]messaging.Sender
	fallback messaging.Sender
}

var _ messaging.Sender = (*Router)(nil)

// NewRouter creates a router with the given fallback sender.
func NewRouter(fallback messaging.Sender) *Router {
	return &Router{routes: map[todo.Channel]messaging.Sender{}, fallback: fallback}
}

// Route registers s for messages on ch.
func (r *Router) Route(ch todo.Channel, s messaging.Sender) *Router {
	r.routes[ch] = s
	return r
}

// Send delivers msg.
func (r *Router) Send(ctx context.Context, msg messaging.Outbound) error {
	if s, ok := r.routes[msg.Channel]; ok {
		return s.Send(ctx, msg)
	}
	return r.fallback.Send(ctx, msg)
}
