// Package ui is a small in-memory page model: input elements with native
// validity rules, forms with a class list, and an event source. It lets the
// loan form controller run without a browser.
package ui

import (
	"fmt"
	"time"
)

type Kind string

const (
	KindText      Kind = "text"
	KindSelect    Kind = "select"
	KindDate      Kind = "date"
	KindContainer Kind = "container"
)

const DateLayout = "2006-01-02"

// Native validation messages (es).
const (
	MsgValueMissing   = "Completa este campo."
	MsgBadDate        = "Introduce una fecha válida."
	MsgBadOption      = "Selecciona un elemento de la lista."
	MsgRangeUnderflow = "El valor debe ser %s o posterior."
)

const (
	DisplayNone  = "none"
	DisplayBlock = "block"
)

type Option struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

// Element is one page element. All methods accept a nil receiver: reads
// return zero values and writes are dropped, so callers can hold references
// to elements the page does not have.
type Element struct {
	id           string
	kind         Kind
	value        string
	defaultValue string
	required     bool
	min          string
	custom       string
	options      []Option
	display      string
}

func NewText(id string, required bool) *Element {
	return &Element{id: id, kind: KindText, required: required}
}

func NewDate(id string, required bool) *Element {
	return &Element{id: id, kind: KindDate, required: required}
}

// NewSelect builds a select; the first option whose value is "" acts as the
// placeholder and is the default selection.
func NewSelect(id string, required bool, options ...Option) *Element {
	return &Element{id: id, kind: KindSelect, required: required, options: append([]Option(nil), options...)}
}

func NewContainer(id string, display string) *Element {
	return &Element{id: id, kind: KindContainer, display: display}
}

func (e *Element) ID() string {
	if e == nil {
		return ""
	}
	return e.id
}

func (e *Element) Kind() Kind {
	if e == nil {
		return ""
	}
	return e.kind
}

// IsInput reports whether the element carries a user-editable value.
func (e *Element) IsInput() bool {
	if e == nil {
		return false
	}
	return e.kind == KindText || e.kind == KindSelect || e.kind == KindDate
}

func (e *Element) Value() string {
	if e == nil {
		return ""
	}
	return e.value
}

func (e *Element) SetValue(v string) {
	if e == nil {
		return
	}
	e.value = v
}

func (e *Element) Required() bool {
	if e == nil {
		return false
	}
	return e.required
}

func (e *Element) Min() string {
	if e == nil {
		return ""
	}
	return e.min
}

func (e *Element) SetMin(v string) {
	if e == nil {
		return
	}
	e.min = v
}

// SetCustomValidity sets (or with "" clears) a validator-attached message.
// A non-empty message makes the element invalid.
func (e *Element) SetCustomValidity(msg string) {
	if e == nil {
		return
	}
	e.custom = msg
}

func (e *Element) CustomValidity() string {
	if e == nil {
		return ""
	}
	return e.custom
}

func (e *Element) Options() []Option {
	if e == nil {
		return nil
	}
	return append([]Option(nil), e.options...)
}

// SetOptions replaces a select's options. A current value that is no longer
// offered is cleared.
func (e *Element) SetOptions(opts []Option) {
	if e == nil || e.kind != KindSelect {
		return
	}
	e.options = append([]Option(nil), opts...)
	if e.value != "" && !e.hasOption(e.value) {
		e.value = ""
	}
}

// SelectedText is the display text of the option matching the current value.
func (e *Element) SelectedText() string {
	if e == nil {
		return ""
	}
	for _, o := range e.options {
		if o.Value == e.value {
			return o.Text
		}
	}
	return ""
}

func (e *Element) Show() {
	if e == nil {
		return
	}
	e.display = DisplayBlock
}

func (e *Element) Hide() {
	if e == nil {
		return
	}
	e.display = DisplayNone
}

func (e *Element) Visible() bool {
	if e == nil {
		return false
	}
	return e.display != DisplayNone
}

// ValidationMessage is "" when the element is valid. The custom message wins
// over native rules, as in the browser.
func (e *Element) ValidationMessage() string {
	if e == nil || !e.IsInput() {
		return ""
	}
	if e.custom != "" {
		return e.custom
	}
	if e.value == "" {
		if e.required {
			return MsgValueMissing
		}
		return ""
	}
	switch e.kind {
	case KindDate:
		if _, err := time.Parse(DateLayout, e.value); err != nil || len(e.value) != len(DateLayout) {
			return MsgBadDate
		}
		if e.min != "" && e.value < e.min {
			return fmt.Sprintf(MsgRangeUnderflow, e.min)
		}
	case KindSelect:
		if !e.hasOption(e.value) {
			return MsgBadOption
		}
	}
	return ""
}

func (e *Element) Valid() bool {
	return e.ValidationMessage() == ""
}

// reset restores the default value; custom messages and min are untouched.
func (e *Element) reset() {
	if e == nil || !e.IsInput() {
		return
	}
	e.value = e.defaultValue
}

func (e *Element) hasOption(v string) bool {
	for _, o := range e.options {
		if o.Value == v {
			return true
		}
	}
	return false
}
