package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DocumentTarget is the target id of document-level events (EventReady).
const DocumentTarget = "document"

var (
	ErrNoElement = errors.New("ui: no such element")
	ErrNotInput  = errors.New("ui: element does not accept input")
)

type listenerKey struct {
	target string
	typ    string
}

type registration struct {
	fn Listener
}

// FieldValue is one field edit for Fill.
type FieldValue struct {
	ID    string
	Value string
}

// Document owns the elements of one page. Every entry point (Input, Submit,
// Fill, Ready, Do and timer callbacks) runs under a single lock, so listeners
// observe the same run-to-completion ordering as a browser event loop.
// Listeners must not call those entry points themselves.
type Document struct {
	mu       sync.Mutex
	elements map[string]*Element
	forms    map[string]*Form
	order    []string

	lmu       sync.Mutex
	listeners map[listenerKey][]*registration

	tmu    sync.Mutex
	timers map[*time.Timer]struct{} // pending only; a timer removes itself when it fires
	closed bool
}

func NewDocument() *Document {
	return &Document{
		elements:  make(map[string]*Element),
		forms:     make(map[string]*Form),
		listeners: make(map[listenerKey][]*registration),
		timers:    make(map[*time.Timer]struct{}),
	}
}

// Add registers standalone elements (containers, inputs outside a form).
func (d *Document) Add(els ...*Element) {
	for _, e := range els {
		if e == nil {
			continue
		}
		if _, dup := d.elements[e.id]; !dup {
			d.order = append(d.order, e.id)
		}
		d.elements[e.id] = e
	}
}

// AddForm registers f and its members.
func (d *Document) AddForm(f *Form) {
	if f == nil {
		return
	}
	d.forms[f.id] = f
	d.Add(f.elements...)
}

// ElementByID returns nil when absent.
func (d *Document) ElementByID(id string) *Element {
	return d.elements[id]
}

// FormByID returns nil when absent.
func (d *Document) FormByID(id string) *Form {
	return d.forms[id]
}

func (d *Document) AddEventListener(target, typ string, fn Listener) func() {
	key := listenerKey{target: target, typ: typ}
	reg := &registration{fn: fn}

	d.lmu.Lock()
	d.listeners[key] = append(d.listeners[key], reg)
	d.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.lmu.Lock()
			defer d.lmu.Unlock()
			regs := d.listeners[key]
			for i, r := range regs {
				if r == reg {
					d.listeners[key] = append(regs[:i:i], regs[i+1:]...)
					break
				}
			}
		})
	}
}

// ListenerCount reports registered listeners for target/type.
func (d *Document) ListenerCount(target, typ string) int {
	d.lmu.Lock()
	defer d.lmu.Unlock()
	return len(d.listeners[listenerKey{target: target, typ: typ}])
}

// Ready dispatches the page-ready event.
func (d *Document) Ready(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dispatch(NewEvent(ctx, DocumentTarget, EventReady))
}

// Do runs fn on the page's event loop.
func (d *Document) Do(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}

// Input sets an input's value and dispatches its input event.
func (d *Document) Input(ctx context.Context, id, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.input(ctx, id, value)
}

// Submit dispatches the submit event on formID and returns the event after
// all listeners ran.
func (d *Document) Submit(ctx context.Context, formID string) (*Event, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.submit(ctx, formID)
}

// Fill applies values in order (each with its input event) and then submits
// formID, all within one turn of the event loop.
func (d *Document) Fill(ctx context.Context, formID string, values []FieldValue) (*Event, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fill(ctx, formID, values)
}

// FillSnapshot is Fill plus a snapshot taken in the same turn, so no other
// caller can change the page in between.
func (d *Document) FillSnapshot(ctx context.Context, formID string, values []FieldValue) (*Event, Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ev, err := d.fill(ctx, formID, values)
	if err != nil {
		return nil, Snapshot{}, err
	}
	return ev, d.SnapshotLocked(), nil
}

// InputSnapshot is Input plus a snapshot taken in the same turn.
func (d *Document) InputSnapshot(ctx context.Context, id, value string) (Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.input(ctx, id, value); err != nil {
		return Snapshot{}, err
	}
	return d.SnapshotLocked(), nil
}

// AfterFunc implements Scheduler; fn runs on the event loop.
func (d *Document) AfterFunc(delay time.Duration, fn func()) {
	d.tmu.Lock()
	defer d.tmu.Unlock()
	if d.closed {
		return
	}
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		d.tmu.Lock()
		delete(d.timers, t)
		d.tmu.Unlock()
		d.Do(fn)
	})
	d.timers[t] = struct{}{}
}

// PendingTimers counts timers scheduled but not yet fired.
func (d *Document) PendingTimers() int {
	d.tmu.Lock()
	defer d.tmu.Unlock()
	return len(d.timers)
}

// Close stops timers that have not fired yet.
func (d *Document) Close() {
	d.tmu.Lock()
	defer d.tmu.Unlock()
	d.closed = true
	for t := range d.timers {
		t.Stop()
	}
	d.timers = nil
}

func (d *Document) fill(ctx context.Context, formID string, values []FieldValue) (*Event, error) {
	if d.forms[formID] == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoElement, formID)
	}
	for _, v := range values {
		if err := d.checkInput(v.ID); err != nil {
			return nil, err
		}
	}
	for _, v := range values {
		if err := d.input(ctx, v.ID, v.Value); err != nil {
			return nil, err
		}
	}
	return d.submit(ctx, formID)
}

func (d *Document) checkInput(id string) error {
	el := d.elements[id]
	if el == nil {
		return fmt.Errorf("%w: %s", ErrNoElement, id)
	}
	if !el.IsInput() {
		return fmt.Errorf("%w: %s", ErrNotInput, id)
	}
	return nil
}

func (d *Document) input(ctx context.Context, id, value string) error {
	if err := d.checkInput(id); err != nil {
		return err
	}
	d.elements[id].SetValue(value)
	d.dispatch(NewEvent(ctx, id, EventInput))
	return nil
}

func (d *Document) submit(ctx context.Context, formID string) (*Event, error) {
	if d.forms[formID] == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoElement, formID)
	}
	ev := NewEvent(ctx, formID, EventSubmit)
	d.dispatch(ev)
	return ev, nil
}

func (d *Document) dispatch(ev *Event) {
	d.lmu.Lock()
	regs := append([]*registration(nil), d.listeners[listenerKey{target: ev.Target, typ: ev.Type}]...)
	d.lmu.Unlock()

	for _, r := range regs {
		r.fn(ev)
	}
}
