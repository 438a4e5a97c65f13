package relay

import (
	"RelayGate/tools/errs"
)

// Dispatcher holds the fixed event-type → handler table. Registration
// happens once at startup; Dispatch is read-only after that.
type Dispatcher struct {
	handlers map[EventType]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[EventType]Handler)}
}

func (d *Dispatcher) Register(h Handler) { d.handlers[h.Type()] = h }

func (d *Dispatcher) Dispatch(ctx *Context, f *Frame, c *Client) error {
	h, ok := d.handlers[f.Type()]
	if !ok {
		return errs.ErrInternal.WithDetail("no handler for event " + f.Event)
	}
	return h.Handle(ctx, f, c)
}

// Handles reports whether an event type has a registered handler, so the
// read loop can drop unknown events before dispatching.
func (d *Dispatcher) Handles(t EventType) bool {
	_, ok := d.handlers[t]
	return ok
}
