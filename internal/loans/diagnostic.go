package loans

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.uber.org/zap"
)

// Diagnostics emits the "loan registered" group: the raw record on the
// structured logger plus a table of every stored loan on out.
type Diagnostics struct {
	log    *Log
	logger *zap.Logger
	out    io.Writer
}

// NewDiagnostics; out may be nil (table is then only logged at debug level).
func NewDiagnostics(log *Log, logger *zap.Logger, out io.Writer) *Diagnostics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Diagnostics{log: log, logger: logger, out: out}
}

func GroupLabel(r Record) string {
	return fmt.Sprintf("Préstamo registrado • %s • %s", r.Student.Name, r.Book.Title)
}

// LogLoan never fails and never panics.
func (d *Diagnostics) LogLoan(ctx context.Context, r Record) {
	if d == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			d.logger.Debug("diagnostic logging failed", zap.Any("panic", p))
		}
	}()

	all, err := d.log.Read(ctx)
	if err != nil {
		d.logger.Debug("diagnostic read failed", zap.Error(err))
	}
	rendered := RenderTable(FlattenAll(all))

	label := GroupLabel(r)
	d.logger.Info(label, zap.Object("detalle", r), zap.Int("total", len(all)))
	d.logger.Debug("prestamos", zap.String("tabla", rendered))

	if d.out != nil {
		var b strings.Builder
		fmt.Fprintf(&b, "▸ %s\n", label)
		for _, line := range strings.Split(rendered, "\n") {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
		_, _ = io.WriteString(d.out, b.String())
	}
}

// RenderTable draws rows under a header line.
func RenderTable(rows []Row) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(RowHeaders...)
	for _, r := range rows {
		t.Row(r.Values()...)
	}
	return t.Render()
}
