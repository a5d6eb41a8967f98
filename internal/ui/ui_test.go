package ui

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestElement_NativeValidity(t *testing.T) {
	tests := []struct {
		name string
		el   *Element
		val  string
		min  string
		want string
	}{
		{"required empty text", NewText("n", true), "", "", MsgValueMissing},
		{"optional empty text", NewText("n", false), "", "", ""},
		{"filled text", NewText("n", true), "Ana", "", ""},
		{"bad date", NewDate("d", true), "2025-6-1", "", MsgBadDate},
		{"impossible date", NewDate("d", true), "2025-02-30", "", MsgBadDate},
		{"date below min", NewDate("d", true), "2025-05-31", "2025-06-01", fmt.Sprintf(MsgRangeUnderflow, "2025-06-01")},
		{"date at min", NewDate("d", true), "2025-06-01", "2025-06-01", ""},
		{"unknown option", NewSelect("b", true, Option{"", "--"}, Option{"B1", "Don Quijote"}), "B9", "", MsgBadOption},
		{"placeholder option", NewSelect("b", true, Option{"", "--"}, Option{"B1", "Don Quijote"}), "", "", MsgValueMissing},
		{"known option", NewSelect("b", true, Option{"", "--"}, Option{"B1", "Don Quijote"}), "B1", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.el.SetMin(tt.min)
			tt.el.SetValue(tt.val)
			assert.Equal(t, tt.want, tt.el.ValidationMessage())
			assert.Equal(t, tt.want == "", tt.el.Valid())
		})
	}
}

func TestElement_CustomValidityWins(t *testing.T) {
	el := NewText("student-id", true)
	el.SetCustomValidity("bad id")
	assert.Equal(t, "bad id", el.ValidationMessage())

	el.SetCustomValidity("")
	assert.Equal(t, MsgValueMissing, el.ValidationMessage())
}

func TestElement_NilSafe(t *testing.T) {
	var el *Element
	assert.NotPanics(t, func() {
		el.SetValue("x")
		el.SetMin("2025-01-01")
		el.SetCustomValidity("x")
		el.Show()
		el.Hide()
	})
	assert.Equal(t, "", el.Value())
	assert.False(t, el.Visible())
	assert.True(t, el.Valid())
}

func TestElement_SelectedText(t *testing.T) {
	el := NewSelect("book", true, Option{"", "Selecciona"}, Option{"B1", "Don Quijote"})
	el.SetValue("B1")
	assert.Equal(t, "Don Quijote", el.SelectedText())
	el.SetValue("zz")
	assert.Equal(t, "", el.SelectedText())
}

func TestForm_CheckValidityAndReset(t *testing.T) {
	name := NewText("name", true)
	date := NewDate("date", true)
	f := NewForm("f", name, date)

	assert.False(t, f.CheckValidity())
	assert.Equal(t, map[string]string{"name": MsgValueMissing, "date": MsgValueMissing}, f.Invalid())

	name.SetValue("Ana")
	date.SetValue("2025-06-01")
	date.SetMin("2025-01-01")
	assert.True(t, f.CheckValidity())
	assert.Empty(t, f.Invalid())

	f.AddClass("was-validated")
	f.Reset()
	assert.Equal(t, "", name.Value())
	assert.Equal(t, "", date.Value())
	assert.Equal(t, "2025-01-01", date.Min(), "reset keeps attributes")
	assert.True(t, f.HasClass("was-validated"), "reset does not touch classes")

	f.RemoveClass("was-validated")
	assert.Empty(t, f.Classes())
}

func newTestDocument() *Document {
	d := NewDocument()
	d.AddForm(NewForm("f", NewText("a", true), NewText("b", false)))
	d.Add(NewContainer("alert", DisplayNone))
	return d
}

func TestDocument_ListenersAndRemoval(t *testing.T) {
	d := newTestDocument()
	var calls []string
	remove := d.AddEventListener("a", EventInput, func(ev *Event) {
		calls = append(calls, "a:"+d.ElementByID("a").Value())
	})
	d.AddEventListener("f", EventSubmit, func(ev *Event) {
		ev.PreventDefault()
		calls = append(calls, "submit")
	})

	require.NoError(t, d.Input(context.Background(), "a", "x"))
	ev, err := d.Submit(context.Background(), "f")
	require.NoError(t, err)
	assert.True(t, ev.DefaultPrevented())

	remove()
	remove()
	require.NoError(t, d.Input(context.Background(), "a", "y"))

	assert.Equal(t, []string{"a:x", "submit"}, calls)
	assert.Equal(t, 0, d.ListenerCount("a", EventInput))
}

func TestDocument_InputErrors(t *testing.T) {
	d := newTestDocument()
	assert.ErrorIs(t, d.Input(context.Background(), "nope", "x"), ErrNoElement)
	assert.ErrorIs(t, d.Input(context.Background(), "alert", "x"), ErrNotInput)
	_, err := d.Submit(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNoElement)
}

func TestDocument_FillIsOrderedAndAtomic(t *testing.T) {
	d := newTestDocument()
	var seen []string
	d.AddEventListener("a", EventInput, func(*Event) { seen = append(seen, "a") })
	d.AddEventListener("b", EventInput, func(*Event) { seen = append(seen, "b") })
	d.AddEventListener("f", EventSubmit, func(ev *Event) {
		seen = append(seen, "submit")
		ev.Detail = d.ElementByID("a").Value() + d.ElementByID("b").Value()
	})

	ev, err := d.Fill(context.Background(), "f", []FieldValue{{"b", "2"}, {"a", "1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "submit"}, seen)
	assert.Equal(t, "12", ev.Detail)

	// unknown id: nothing applied
	_, err = d.Fill(context.Background(), "f", []FieldValue{{"a", "z"}, {"zz", "1"}})
	assert.ErrorIs(t, err, ErrNoElement)
	assert.Equal(t, "1", d.ElementByID("a").Value())
}

func TestDocument_ReadyAndSnapshot(t *testing.T) {
	d := newTestDocument()
	d.AddEventListener(DocumentTarget, EventReady, func(*Event) {
		d.ElementByID("a").SetValue("ready")
	})
	d.Ready(context.Background())

	s := d.Snapshot()
	a, ok := s.Element("a")
	require.True(t, ok)
	assert.Equal(t, "ready", a.Value)
	assert.True(t, a.Valid)

	alert, ok := s.Element("alert")
	require.True(t, ok)
	assert.False(t, alert.Visible)

	f, ok := s.Form("f")
	require.True(t, ok)
	assert.True(t, f.Valid)
}

func TestDocument_AfterFuncRunsOnLoop(t *testing.T) {
	d := newTestDocument()
	done := make(chan struct{})
	d.ElementByID("alert").Show()
	d.AfterFunc(5*time.Millisecond, func() {
		d.ElementByID("alert").Hide()
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	alert, _ := d.Snapshot().Element("alert")
	assert.False(t, alert.Visible)
}

func TestDocument_FiredTimersAreDropped(t *testing.T) {
	d := newTestDocument()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		d.AfterFunc(time.Millisecond, wg.Done)
	}
	wg.Wait()
	assert.Eventually(t, func() bool { return d.PendingTimers() == 0 }, time.Second, 5*time.Millisecond)

	d.AfterFunc(time.Hour, func() {})
	assert.Equal(t, 1, d.PendingTimers())
	d.Close()
	assert.Equal(t, 0, d.PendingTimers())
}

func TestDocument_CloseStopsTimers(t *testing.T) {
	d := newTestDocument()
	fired := make(chan struct{}, 1)
	d.AfterFunc(20*time.Millisecond, func() { fired <- struct{}{} })
	d.Close()
	d.AfterFunc(time.Millisecond, func() { fired <- struct{}{} })

	select {
	case <-fired:
		t.Fatal("timer fired after Close")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestDocument_SnapshotVariants(t *testing.T) {
	d := newTestDocument()
	d.AddEventListener("f", EventSubmit, func(ev *Event) {
		d.ElementByID("a").SetValue("")
	})

	s, err := d.InputSnapshot(context.Background(), "a", "x")
	require.NoError(t, err)
	a, _ := s.Element("a")
	assert.Equal(t, "x", a.Value)

	_, err = d.InputSnapshot(context.Background(), "alert", "x")
	assert.ErrorIs(t, err, ErrNotInput)

	ev, s, err := d.FillSnapshot(context.Background(), "f", []FieldValue{{"b", "y"}})
	require.NoError(t, err)
	assert.Equal(t, "f", ev.Target)
	a, _ = s.Element("a")
	assert.Empty(t, a.Value, "snapshot sees listener changes")
	f, _ := s.Form("f")
	assert.False(t, f.Valid)

	_, _, err = d.FillSnapshot(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, ErrNoElement)
}
