package ui

import (
	"context"
	"time"
)

const (
	EventInput  = "input"
	EventSubmit = "submit"
	EventReady  = "DOMContentLoaded"
)

// Event is passed to listeners. Detail carries a listener-provided result
// back to whoever dispatched the event.
type Event struct {
	Type   string
	Target string
	Detail any

	ctx              context.Context
	defaultPrevented bool
	stopped          bool
}

func NewEvent(ctx context.Context, target, typ string) *Event {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Event{Type: typ, Target: target, ctx: ctx}
}

func (e *Event) Context() context.Context { return e.ctx }

func (e *Event) PreventDefault()        { e.defaultPrevented = true }
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// StopPropagation only marks the event; the model has no bubbling phase.
func (e *Event) StopPropagation() { e.stopped = true }
func (e *Event) Stopped() bool    { return e.stopped }

type Listener func(ev *Event)

// EventSource is what a controller registers its handlers against.
type EventSource interface {
	AddEventListener(target, typ string, fn Listener) (remove func())
}

// Scheduler runs fn once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func())
}
