package loanform

import (
	"regexp"
	"strings"
)

const (
	MsgReturnBeforeLoan = "La fecha de devolución no puede ser anterior a la fecha de préstamo."
	MsgBadStudentID     = "El ID debe tener 4-20 caracteres alfanuméricos (puede incluir . _ -)."
)

var studentIDRe = regexp.MustCompile(`^[A-Za-z0-9_.-]{4,20}$`)

// ValidStudentID: 4-20 chars of [A-Za-z0-9_.-] after trimming.
func ValidStudentID(s string) bool {
	return studentIDRe.MatchString(strings.TrimSpace(s))
}

// DateOrderValid compares fixed-width ISO dates lexicographically; an empty
// side is not an ordering error (required handles it).
func DateOrderValid(loan, ret string) bool {
	if loan == "" || ret == "" {
		return true
	}
	return ret >= loan
}
