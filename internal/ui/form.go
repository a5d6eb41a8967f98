package ui

import "sort"

// Form groups input elements and carries a class list.
type Form struct {
	id       string
	elements []*Element
	classes  map[string]struct{}
}

func NewForm(id string, elements ...*Element) *Form {
	return &Form{id: id, elements: elements, classes: make(map[string]struct{})}
}

func (f *Form) ID() string {
	if f == nil {
		return ""
	}
	return f.id
}

func (f *Form) Elements() []*Element {
	if f == nil {
		return nil
	}
	return append([]*Element(nil), f.elements...)
}

// CheckValidity is true when every member passes native and custom rules.
func (f *Form) CheckValidity() bool {
	if f == nil {
		return false
	}
	for _, e := range f.elements {
		if !e.Valid() {
			return false
		}
	}
	return true
}

// Invalid maps element id to message for every invalid member.
func (f *Form) Invalid() map[string]string {
	if f == nil {
		return nil
	}
	out := make(map[string]string)
	for _, e := range f.elements {
		if msg := e.ValidationMessage(); msg != "" {
			out[e.ID()] = msg
		}
	}
	return out
}

// Reset returns every member to its default value.
func (f *Form) Reset() {
	if f == nil {
		return
	}
	for _, e := range f.elements {
		e.reset()
	}
}

func (f *Form) AddClass(name string) {
	if f == nil {
		return
	}
	f.classes[name] = struct{}{}
}

func (f *Form) RemoveClass(name string) {
	if f == nil {
		return
	}
	delete(f.classes, name)
}

func (f *Form) HasClass(name string) bool {
	if f == nil {
		return false
	}
	_, ok := f.classes[name]
	return ok
}

func (f *Form) Classes() []string {
	if f == nil {
		return nil
	}
	out := make([]string, 0, len(f.classes))
	for c := range f.classes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
