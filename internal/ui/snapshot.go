package ui

import "sort"

type ElementState struct {
	ID       string   `json:"id"`
	Kind     Kind     `json:"kind"`
	Value    string   `json:"value,omitempty"`
	Min      string   `json:"min,omitempty"`
	Required bool     `json:"required,omitempty"`
	Valid    bool     `json:"valid"`
	Message  string   `json:"message,omitempty"`
	Visible  bool     `json:"visible"`
	Options  []Option `json:"options,omitempty"`
}

type FormState struct {
	ID      string   `json:"id"`
	Classes []string `json:"classes"`
	Valid   bool     `json:"valid"`
}

type Snapshot struct {
	Forms    []FormState    `json:"forms"`
	Elements []ElementState `json:"elements"`
}

// Element finds an element state by id.
func (s Snapshot) Element(id string) (ElementState, bool) {
	for _, e := range s.Elements {
		if e.ID == id {
			return e, true
		}
	}
	return ElementState{}, false
}

func (s Snapshot) Form(id string) (FormState, bool) {
	for _, f := range s.Forms {
		if f.ID == id {
			return f, true
		}
	}
	return FormState{}, false
}

// Snapshot captures the page state on the event loop.
func (d *Document) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.SnapshotLocked()
}

// SnapshotLocked is Snapshot for callers already running on the event loop
// (listeners, Do callbacks).
func (d *Document) SnapshotLocked() Snapshot {
	var s Snapshot
	for _, id := range d.order {
		e := d.elements[id]
		s.Elements = append(s.Elements, ElementState{
			ID:       e.id,
			Kind:     e.kind,
			Value:    e.value,
			Min:      e.min,
			Required: e.required,
			Valid:    e.Valid(),
			Message:  e.ValidationMessage(),
			Visible:  e.Visible(),
			Options:  e.Options(),
		})
	}
	for _, id := range d.formOrder() {
		f := d.forms[id]
		s.Forms = append(s.Forms, FormState{ID: f.id, Classes: f.Classes(), Valid: f.CheckValidity()})
	}
	return s
}

func (d *Document) formOrder() []string {
	ids := make([]string, 0, len(d.forms))
	for id := range d.forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
