package loanform

import (
	"context"

	"biblioteca-backend/internal/loans"
	"biblioteca-backend/internal/ui"
)

// Outcome is the result of one submission attempt against the page.
type Outcome struct {
	Record *loans.Record
	Fields map[string]string
	Page   ui.Snapshot
}

func (o Outcome) Accepted() bool { return o.Record != nil }

// SubmitRequest fills the form from req and submits it in a single turn.
func SubmitRequest(ctx context.Context, doc *ui.Document, req LoanRequest) (Outcome, error) {
	ev, snap, err := doc.FillSnapshot(ctx, FormID, req.FieldValues())
	if err != nil {
		return Outcome{}, err
	}
	return outcomeOf(ev, snap), nil
}

// SubmitPage submits the form with whatever the fields currently hold.
func SubmitPage(ctx context.Context, doc *ui.Document) (Outcome, error) {
	ev, snap, err := doc.FillSnapshot(ctx, FormID, nil)
	if err != nil {
		return Outcome{}, err
	}
	return outcomeOf(ev, snap), nil
}

func outcomeOf(ev *ui.Event, snap ui.Snapshot) Outcome {
	out := Outcome{Page: snap}
	if rec, ok := ev.Detail.(loans.Record); ok {
		out.Record = &rec
		return out
	}
	out.Fields = FieldErrors(snap)
	return out
}

// FieldErrors maps each invalid element id to its validation message.
func FieldErrors(s ui.Snapshot) map[string]string {
	out := make(map[string]string)
	for _, e := range s.Elements {
		if e.Message != "" {
			out[e.ID] = e.Message
		}
	}
	return out
}
