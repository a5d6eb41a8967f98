package loanform

import (
	"biblioteca-backend/internal/catalog"
	"biblioteca-backend/internal/ui"
)

// Element ids of the loan request page.
const (
	FormID        = "loan-form"
	NameID        = "student-name"
	StudentIDID   = "student-id"
	BookID        = "book"
	LoanDateID    = "loan-date"
	ReturnDateID  = "return-date"
	SuccessID     = "form-success"
	ValidatedFlag = "was-validated"
)

// BookPlaceholder is the empty first option of the book select.
const BookPlaceholder = "Selecciona un libro"

// NewPage builds the loan request page: every field required, the book
// select filled from books, the success alert hidden.
func NewPage(books []catalog.Book) *ui.Document {
	doc := ui.NewDocument()
	doc.AddForm(ui.NewForm(FormID,
		ui.NewText(NameID, true),
		ui.NewText(StudentIDID, true),
		ui.NewSelect(BookID, true, bookOptions(books)...),
		ui.NewDate(LoanDateID, true),
		ui.NewDate(ReturnDateID, true),
	))
	doc.Add(ui.NewContainer(SuccessID, ui.DisplayNone))
	return doc
}

// SetBooks swaps the book options. Must run on the page's event loop.
func SetBooks(doc *ui.Document, books []catalog.Book) {
	doc.ElementByID(BookID).SetOptions(bookOptions(books))
}

func bookOptions(books []catalog.Book) []ui.Option {
	opts := make([]ui.Option, 0, len(books)+1)
	opts = append(opts, ui.Option{Value: "", Text: BookPlaceholder})
	for _, b := range books {
		opts = append(opts, ui.Option{Value: b.ID, Text: b.Title})
	}
	return opts
}
