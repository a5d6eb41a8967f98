package loans

import (
	"time"

	"go.uber.org/zap/zapcore"
)

const (
	// StorageKey は保存先キー（ブラウザ版と同じ）
	StorageKey = "prestamos"

	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02T15:04:05.000Z"
)

type Student struct {
	Name string `json:"nombre"`
	ID   string `json:"id"`
}

type Book struct {
	ID    string `json:"id"`
	Title string `json:"titulo"`
}

type Dates struct {
	Loan   string `json:"prestamo"`   // YYYY-MM-DD
	Return string `json:"devolucion"` // YYYY-MM-DD
}

// Record は1件の貸出申請。保存形式のフィールド名はスペイン語のまま。
type Record struct {
	Student   Student `json:"estudiante"`
	Book      Book    `json:"libro"`
	Dates     Dates   `json:"fechas"`
	Timestamp string  `json:"timestamp"`
}

// FormatTimestamp renders t the way the record stores createdAt (UTC, ms, Z).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func (r Record) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("nombre", r.Student.Name)
	enc.AddString("estudiante_id", r.Student.ID)
	enc.AddString("libro_id", r.Book.ID)
	enc.AddString("titulo", r.Book.Title)
	enc.AddString("prestamo", r.Dates.Loan)
	enc.AddString("devolucion", r.Dates.Return)
	enc.AddString("timestamp", r.Timestamp)
	return nil
}

// Row は表示・CSV用にフラット化した1行
type Row struct {
	Nombre     string `json:"Nombre"`
	ID         string `json:"ID"`
	Libro      string `json:"Libro"`
	LibroID    string `json:"LibroID"`
	Prestamo   string `json:"Prestamo"`
	Devolucion string `json:"Devolucion"`
	CreadoISO  string `json:"CreadoISO"`
}

var RowHeaders = []string{"Nombre", "ID", "Libro", "LibroID", "Prestamo", "Devolucion", "CreadoISO"}

func Flatten(r Record) Row {
	return Row{
		Nombre:     r.Student.Name,
		ID:         r.Student.ID,
		Libro:      r.Book.Title,
		LibroID:    r.Book.ID,
		Prestamo:   r.Dates.Loan,
		Devolucion: r.Dates.Return,
		CreadoISO:  r.Timestamp,
	}
}

func (r Row) Values() []string {
	return []string{r.Nombre, r.ID, r.Libro, r.LibroID, r.Prestamo, r.Devolucion, r.CreadoISO}
}

func FlattenAll(records []Record) []Row {
	out := make([]Row, 0, len(records))
	for _, r := range records {
		out = append(out, Flatten(r))
	}
	return out
}
