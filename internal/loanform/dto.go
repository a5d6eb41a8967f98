package loanform

import (
	"biblioteca-backend/internal/loans"
	"biblioteca-backend/internal/ui"
)

// PUT /form/fields/:id
type FieldInput struct {
	Value *string `json:"value"`
}

// POST /loans
type LoanRequest struct {
	StudentName string `json:"student_name"`
	StudentID   string `json:"student_id"`
	BookID      string `json:"book_id"`
	LoanDate    string `json:"loan_date"`
	ReturnDate  string `json:"return_date"`
}

// FieldValues lists the edits in the order a person fills the form.
func (r LoanRequest) FieldValues() []ui.FieldValue {
	return []ui.FieldValue{
		{ID: NameID, Value: r.StudentName},
		{ID: StudentIDID, Value: r.StudentID},
		{ID: BookID, Value: r.BookID},
		{ID: LoanDateID, Value: r.LoanDate},
		{ID: ReturnDateID, Value: r.ReturnDate},
	}
}

type AcceptedResponse struct {
	Record loans.Record `json:"record"`
	Page   ui.Snapshot  `json:"page"`
}

type RejectedResponse struct {
	loans.ErrorDTO
	Fields map[string]string `json:"fields"`
	Page   ui.Snapshot       `json:"page"`
}
