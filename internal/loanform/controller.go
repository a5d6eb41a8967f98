// Package loanform drives the book-loan request page: it validates the
// student id and the loan/return date order, appends accepted requests to
// the loan log and shows the success alert.
package loanform

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"biblioteca-backend/internal/loans"
	"biblioteca-backend/internal/platform/metrics"
	"biblioteca-backend/internal/ui"
)

const DefaultSuccessHideAfter = 5 * time.Second

// ===== インターフェース群 =====

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// Page is the host page: element lookup, event registration and timers.
type Page interface {
	ui.EventSource
	ui.Scheduler
	ElementByID(id string) *ui.Element
	FormByID(id string) *ui.Form
}

type LoanLog interface {
	Append(ctx context.Context, rec loans.Record) (int, error)
}

type Diagnostics interface {
	LogLoan(ctx context.Context, rec loans.Record)
}

type Option func(*Controller)

func WithClock(c Clock) Option              { return func(ctl *Controller) { ctl.clock = c } }
func WithScheduler(s ui.Scheduler) Option   { return func(ctl *Controller) { ctl.sched = s } }
func WithLogger(l *zap.Logger) Option       { return func(ctl *Controller) { ctl.logger = l } }
func WithDiagnostics(d Diagnostics) Option  { return func(ctl *Controller) { ctl.diag = d } }
func WithMetrics(m *metrics.Recorder) Option { return func(ctl *Controller) { ctl.metrics = m } }

func WithSuccessHideAfter(d time.Duration) Option {
	return func(ctl *Controller) {
		if d > 0 {
			ctl.successDelay = d
		}
	}
}

// ===== Controller本体 =====

// Controller must only be used from the page's event loop.
type Controller struct {
	page    Page
	log     LoanLog
	diag    Diagnostics
	clock   Clock
	sched   ui.Scheduler
	logger  *zap.Logger
	metrics *metrics.Recorder

	successDelay time.Duration

	form       *ui.Form
	name       *ui.Element
	studentID  *ui.Element
	book       *ui.Element
	loanDate   *ui.Element
	returnDate *ui.Element
	success    *ui.Element

	active bool
	remove []func()
}

func New(page Page, log LoanLog, opts ...Option) *Controller {
	c := &Controller{
		page:         page,
		log:          log,
		clock:        realClock{},
		sched:        page,
		logger:       zap.NewNop(),
		successDelay: DefaultSuccessHideAfter,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// AttachOnReady defers Initialize to the page-ready event.
func (c *Controller) AttachOnReady() {
	c.remove = append(c.remove, c.page.AddEventListener(ui.DocumentTarget, ui.EventReady, func(*ui.Event) {
		c.Initialize()
	}))
}

// Initialize binds the page elements, applies the date minimums and
// registers the input/submit handlers. Without the form it does nothing and
// returns false.
func (c *Controller) Initialize() bool {
	if c.active {
		return true
	}
	c.form = c.page.FormByID(FormID)
	if c.form == nil {
		c.logger.Debug("loan form not on page; controller stays inert", zap.String("form", FormID))
		return false
	}
	c.name = c.page.ElementByID(NameID)
	c.studentID = c.page.ElementByID(StudentIDID)
	c.book = c.page.ElementByID(BookID)
	c.loanDate = c.page.ElementByID(LoanDateID)
	c.returnDate = c.page.ElementByID(ReturnDateID)
	c.success = c.page.ElementByID(SuccessID)

	c.setMinDates()

	if c.loanDate != nil {
		c.listen(LoanDateID, ui.EventInput, func(*ui.Event) { c.OnLoanDateChanged() })
	}
	if c.returnDate != nil {
		c.listen(ReturnDateID, ui.EventInput, func(*ui.Event) { c.OnReturnDateChanged() })
	}
	if c.studentID != nil {
		c.listen(StudentIDID, ui.EventInput, func(*ui.Event) { c.OnStudentIDChanged() })
	}
	c.listen(FormID, ui.EventSubmit, c.OnSubmit)

	c.active = true
	return true
}

// Close unregisters every listener. A pending success-hide timer still fires.
func (c *Controller) Close() {
	for _, rm := range c.remove {
		rm()
	}
	c.remove = nil
	c.active = false
}

func (c *Controller) Active() bool { return c.active }

func (c *Controller) OnLoanDateChanged() {
	c.setMinDates()
	c.ValidateDateOrder()
}

func (c *Controller) OnReturnDateChanged() {
	c.ValidateDateOrder()
}

func (c *Controller) OnStudentIDChanged() {
	c.ValidateStudentID()
}

// ValidateDateOrder flags the return date when it precedes the loan date.
// It reports whether the order is fine.
func (c *Controller) ValidateDateOrder() bool {
	if c.loanDate == nil || c.returnDate == nil {
		return true
	}
	c.returnDate.SetCustomValidity("")
	if !DateOrderValid(c.loanDate.Value(), c.returnDate.Value()) {
		c.returnDate.SetCustomValidity(MsgReturnBeforeLoan)
		return false
	}
	return true
}

// ValidateStudentID flags a non-empty id whose trimmed value fails the format
// rule. Only a truly empty value is left to the required rule, so "    " is
// flagged here.
func (c *Controller) ValidateStudentID() bool {
	if c.studentID == nil {
		return true
	}
	c.studentID.SetCustomValidity("")
	raw := c.studentID.Value()
	if raw != "" && !ValidStudentID(raw) {
		c.studentID.SetCustomValidity(MsgBadStudentID)
		return false
	}
	return true
}

// OnSubmit validates, stores and acknowledges one submission. On success the
// stored record is left in ev.Detail.
func (c *Controller) OnSubmit(ev *ui.Event) {
	// バックエンドは無いので既定の送信は常に止める
	ev.PreventDefault()

	// カスタムルールは checkValidity では再評価されないので先に実行
	c.ValidateStudentID()
	c.ValidateDateOrder()

	if !c.form.CheckValidity() {
		ev.StopPropagation()
		c.form.AddClass(ValidatedFlag)
		c.metrics.Submission(metrics.OutcomeRejected)
		c.logger.Debug("loan request blocked", zap.Any("invalid", c.form.Invalid()))
		return
	}

	ctx := ev.Context()
	rec := c.buildRecord()

	n, err := c.log.Append(ctx, rec)
	if err != nil {
		c.storageFailed(err)
	}

	if c.diag != nil {
		c.diag.LogLoan(ctx, rec)
	}

	if c.success != nil {
		c.success.Show()
		alert := c.success
		c.sched.AfterFunc(c.successDelay, alert.Hide)
	}

	c.form.Reset()
	c.form.RemoveClass(ValidatedFlag)
	c.setMinDates()

	ev.Detail = rec
	c.metrics.Submission(metrics.OutcomeAccepted)
	c.logger.Info("loan request accepted",
		zap.String("student_id", rec.Student.ID),
		zap.String("book_id", rec.Book.ID),
		zap.Int("log_length", n))
}

// ---------- helpers ----------

func (c *Controller) listen(target, typ string, fn ui.Listener) {
	c.remove = append(c.remove, c.page.AddEventListener(target, typ, fn))
}

func (c *Controller) today() string {
	return c.clock.Now().UTC().Format(loans.DateLayout)
}

// setMinDates: 貸出日は今日以降、返却日は貸出日（未入力なら今日）以降
func (c *Controller) setMinDates() {
	today := c.today()
	c.loanDate.SetMin(today)
	minReturn := today
	if v := c.loanDate.Value(); v != "" {
		minReturn = v
	}
	c.returnDate.SetMin(minReturn)
}

func (c *Controller) buildRecord() loans.Record {
	return loans.Record{
		Student: loans.Student{
			Name: norm.NFC.String(strings.TrimSpace(c.name.Value())),
			ID:   strings.TrimSpace(c.studentID.Value()),
		},
		Book: loans.Book{
			ID:    c.book.Value(),
			Title: c.book.SelectedText(),
		},
		Dates: loans.Dates{
			Loan:   c.loanDate.Value(),
			Return: c.returnDate.Value(),
		},
		Timestamp: loans.FormatTimestamp(c.clock.Now()),
	}
}

// storageFailed: 保存失敗は利用者には見せない（警告ログとメトリクスのみ）
func (c *Controller) storageFailed(err error) {
	if errors.Is(err, loans.ErrStorageRead) || errors.Is(err, loans.ErrCorrupt) {
		c.metrics.StorageFailure(metrics.OpRead)
	}
	if errors.Is(err, loans.ErrStorageWrite) {
		c.metrics.StorageFailure(metrics.OpWrite)
	}
	c.logger.Warn("loan log storage failure; submission continues", zap.Error(err))
}
