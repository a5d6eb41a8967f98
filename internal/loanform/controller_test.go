package loanform

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"biblioteca-backend/internal/catalog"
	"biblioteca-backend/internal/loans"
	"biblioteca-backend/internal/platform/metrics"
	"biblioteca-backend/internal/ui"
	"biblioteca-backend/internal/webstorage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2025, 5, 20, 10, 11, 12, 123e6, time.UTC)

type pending struct {
	delay time.Duration
	fn    func()
}

// manualScheduler keeps timers until the test fires them.
type manualScheduler struct {
	mu    sync.Mutex
	queue []pending
}

func (s *manualScheduler) AfterFunc(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, pending{delay: d, fn: fn})
}

func (s *manualScheduler) fireAll() {
	s.mu.Lock()
	q := s.queue
	s.queue = nil
	s.mu.Unlock()
	for _, p := range q {
		p.fn()
	}
}

type writeFailing struct{ *webstorage.Memory }

func (w writeFailing) SetItem(context.Context, string, string) error {
	return webstorage.ErrQuotaExceeded
}

type readFailing struct {
	*webstorage.Memory
	fail bool
}

func (r *readFailing) GetItem(ctx context.Context, key string) (string, bool, error) {
	if r.fail {
		return "", false, errors.New("i/o timeout")
	}
	return r.Memory.GetItem(ctx, key)
}

type fixture struct {
	doc   *ui.Document
	ctl   *Controller
	mem   *webstorage.Memory
	log   *loans.Log
	sched *manualScheduler
	rec   *metrics.Recorder
	logs  *observer.ObservedLogs
}

func newFixture(t *testing.T, store webstorage.Storage) *fixture {
	t.Helper()
	mem := webstorage.NewMemory()
	if store == nil {
		store = mem
	}
	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{
		doc:   NewPage(catalog.Default()),
		mem:   mem,
		log:   loans.NewLog(store, loans.StorageKey),
		sched: &manualScheduler{},
		rec:   metrics.NewRecorder(prometheus.NewRegistry()),
		logs:  logs,
	}
	f.ctl = New(f.doc, f.log,
		WithClock(fixedClock{testNow}),
		WithScheduler(f.sched),
		WithLogger(zap.New(core)),
		WithMetrics(f.rec),
	)
	f.ctl.AttachOnReady()
	f.doc.Ready(context.Background())
	require.True(t, f.ctl.Active())
	return f
}

func (f *fixture) submit(t *testing.T, req LoanRequest) Outcome {
	t.Helper()
	out, err := SubmitRequest(context.Background(), f.doc, req)
	require.NoError(t, err)
	return out
}

func (f *fixture) stored(t *testing.T) []loans.Record {
	t.Helper()
	got, err := f.log.Read(context.Background())
	require.NoError(t, err)
	return got
}

func validRequest() LoanRequest {
	return LoanRequest{
		StudentName: "Ana Gómez",
		StudentID:   "abcd1234",
		BookID:      "B1",
		LoanDate:    "2025-06-01",
		ReturnDate:  "2025-06-10",
	}
}

func TestController_InitializeSetsMinimums(t *testing.T) {
	f := newFixture(t, nil)
	s := f.doc.Snapshot()

	loan, _ := s.Element(LoanDateID)
	ret, _ := s.Element(ReturnDateID)
	assert.Equal(t, "2025-05-20", loan.Min)
	assert.Equal(t, "2025-05-20", ret.Min)

	require.NoError(t, f.doc.Input(context.Background(), LoanDateID, "2025-06-03"))
	ret, _ = f.doc.Snapshot().Element(ReturnDateID)
	assert.Equal(t, "2025-06-03", ret.Min)

	// a second Initialize does not register twice
	f.doc.Do(func() { assert.True(t, f.ctl.Initialize()) })
	assert.Equal(t, 1, f.doc.ListenerCount(FormID, ui.EventSubmit))
}

func TestController_InertWithoutForm(t *testing.T) {
	doc := ui.NewDocument()
	doc.Add(ui.NewContainer(SuccessID, ui.DisplayNone))
	ctl := New(doc, loans.NewLog(webstorage.NewMemory(), ""))

	assert.False(t, ctl.Initialize())
	assert.False(t, ctl.Active())
	assert.Zero(t, doc.ListenerCount(FormID, ui.EventSubmit))
	ctl.Close()
}

func TestController_ToleratesMissingOptionalElements(t *testing.T) {
	doc := ui.NewDocument()
	doc.AddForm(ui.NewForm(FormID, ui.NewText(NameID, true)))
	ctl := New(doc, loans.NewLog(webstorage.NewMemory(), ""), WithClock(fixedClock{testNow}), WithScheduler(&manualScheduler{}))

	require.True(t, ctl.Initialize())
	assert.Zero(t, doc.ListenerCount(LoanDateID, ui.EventInput))
	assert.True(t, ctl.ValidateDateOrder())
	assert.True(t, ctl.ValidateStudentID())

	ev, err := doc.Fill(context.Background(), FormID, []ui.FieldValue{{ID: NameID, Value: "Ana"}})
	require.NoError(t, err)
	rec, ok := ev.Detail.(loans.Record)
	require.True(t, ok)
	assert.Equal(t, "Ana", rec.Student.Name)
	assert.Empty(t, rec.Book.ID)
}

// Ana Gómez borrows B1 and the form starts over.
func TestController_SubmitAccepted(t *testing.T) {
	f := newFixture(t, nil)

	out := f.submit(t, validRequest())
	require.True(t, out.Accepted())
	assert.Equal(t, loans.Record{
		Student:   loans.Student{Name: "Ana Gómez", ID: "abcd1234"},
		Book:      loans.Book{ID: "B1", Title: "Don Quijote de la Mancha"},
		Dates:     loans.Dates{Loan: "2025-06-01", Return: "2025-06-10"},
		Timestamp: "2025-05-20T10:11:12.123Z",
	}, *out.Record)
	assert.Len(t, f.stored(t), 1)

	alert, _ := out.Page.Element(SuccessID)
	assert.True(t, alert.Visible)
	form, _ := out.Page.Form(FormID)
	assert.NotContains(t, form.Classes, ValidatedFlag)
	for _, id := range []string{NameID, StudentIDID, BookID, LoanDateID, ReturnDateID} {
		el, _ := out.Page.Element(id)
		assert.Empty(t, el.Value, id)
	}
	ret, _ := out.Page.Element(ReturnDateID)
	assert.Equal(t, "2025-05-20", ret.Min)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.rec.SubmissionCounter(metrics.OutcomeAccepted)))
}

func TestController_SubmitTrimsAndNormalizes(t *testing.T) {
	f := newFixture(t, nil)
	req := validRequest()
	req.StudentName = "  Ana Go\u0301mez " // decomposed accent
	req.StudentID = " abcd1234 "

	out := f.submit(t, req)
	require.True(t, out.Accepted())
	assert.Equal(t, "Ana Gómez", out.Record.Student.Name)
	assert.Equal(t, "abcd1234", out.Record.Student.ID)
}

func TestController_SubmitBlockedShortID(t *testing.T) {
	f := newFixture(t, nil)
	req := validRequest()
	req.StudentID = "ab"

	out := f.submit(t, req)
	require.False(t, out.Accepted())
	assert.Equal(t, map[string]string{StudentIDID: MsgBadStudentID}, out.Fields)

	form, _ := out.Page.Form(FormID)
	assert.Contains(t, form.Classes, ValidatedFlag)
	alert, _ := out.Page.Element(SuccessID)
	assert.False(t, alert.Visible)
	assert.Empty(t, f.stored(t))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.rec.SubmissionCounter(metrics.OutcomeRejected)))
}

func TestController_SubmitBlockedBlankID(t *testing.T) {
	f := newFixture(t, nil)
	req := validRequest()
	req.StudentID = "    "

	out := f.submit(t, req)
	require.False(t, out.Accepted())
	assert.Equal(t, map[string]string{StudentIDID: MsgBadStudentID}, out.Fields)
	assert.Nil(t, out.Record)
	assert.Empty(t, f.stored(t))

	// 本当に空なら required 側のメッセージ
	req.StudentID = ""
	out = f.submit(t, req)
	require.False(t, out.Accepted())
	assert.Equal(t, ui.MsgValueMissing, out.Fields[StudentIDID])
	assert.Empty(t, f.stored(t))
}

func TestController_ReturnBeforeLoanThenCorrected(t *testing.T) {
	f := newFixture(t, nil)
	req := validRequest()
	req.LoanDate, req.ReturnDate = "2025-06-10", "2025-06-01"

	out := f.submit(t, req)
	require.False(t, out.Accepted())
	assert.Equal(t, MsgReturnBeforeLoan, out.Fields[ReturnDateID])
	assert.Len(t, out.Fields, 1)

	snap, err := f.doc.InputSnapshot(context.Background(), ReturnDateID, "2025-06-15")
	require.NoError(t, err)
	ret, _ := snap.Element(ReturnDateID)
	assert.True(t, ret.Valid)

	out, err = SubmitPage(context.Background(), f.doc)
	require.NoError(t, err)
	require.True(t, out.Accepted())
	assert.Equal(t, "2025-06-15", out.Record.Dates.Return)
	assert.Len(t, f.stored(t), 1)
}

func TestController_StorageFailureStillSucceeds(t *testing.T) {
	f := newFixture(t, writeFailing{webstorage.NewMemory()})

	var out Outcome
	assert.NotPanics(t, func() { out = f.submit(t, validRequest()) })
	require.True(t, out.Accepted())
	alert, _ := out.Page.Element(SuccessID)
	assert.True(t, alert.Visible)
	assert.Empty(t, f.stored(t))

	assert.Equal(t, 1.0, testutil.ToFloat64(f.rec.StorageFailureCounter(metrics.OpWrite)))
	warns := f.logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warns, 1)
	var fieldErr error
	for _, fld := range warns[0].Context {
		if fld.Key == "error" {
			fieldErr, _ = fld.Interface.(error)
		}
	}
	assert.True(t, errors.Is(fieldErr, webstorage.ErrQuotaExceeded))
}

func TestController_ReadFailureKeepsStoredLoans(t *testing.T) {
	store := &readFailing{Memory: webstorage.NewMemory()}
	f := newFixture(t, store)
	for i := 0; i < 3; i++ {
		require.True(t, f.submit(t, validRequest()).Accepted())
	}

	store.fail = true
	out := f.submit(t, validRequest())
	require.True(t, out.Accepted())
	alert, _ := out.Page.Element(SuccessID)
	assert.True(t, alert.Visible)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.rec.StorageFailureCounter(metrics.OpRead)))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.rec.StorageFailureCounter(metrics.OpWrite)))

	store.fail = false
	assert.Len(t, f.stored(t), 3)
}

func TestController_SuccessAlertHidesAfterDelay(t *testing.T) {
	f := newFixture(t, nil)
	f.submit(t, validRequest())

	require.Len(t, f.sched.queue, 1)
	assert.Equal(t, DefaultSuccessHideAfter, f.sched.queue[0].delay)

	f.doc.Do(f.sched.fireAll)
	alert, _ := f.doc.Snapshot().Element(SuccessID)
	assert.False(t, alert.Visible)
}

func TestController_CloseRemovesListeners(t *testing.T) {
	f := newFixture(t, nil)
	f.ctl.Close()

	assert.Zero(t, f.doc.ListenerCount(FormID, ui.EventSubmit))
	assert.Zero(t, f.doc.ListenerCount(ui.DocumentTarget, ui.EventReady))
	out := f.submit(t, validRequest())
	assert.False(t, out.Accepted())
	assert.Empty(t, f.stored(t))
}

func TestController_ValidatorsAreIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	f.doc.Do(func() {
		f.doc.ElementByID(StudentIDID).SetValue("ab")
		f.doc.ElementByID(LoanDateID).SetValue("2025-06-10")
		f.doc.ElementByID(ReturnDateID).SetValue("2025-06-01")

		for i := 0; i < 2; i++ {
			assert.False(t, f.ctl.ValidateStudentID())
			assert.False(t, f.ctl.ValidateDateOrder())
			assert.Equal(t, MsgBadStudentID, f.doc.ElementByID(StudentIDID).CustomValidity())
			assert.Equal(t, MsgReturnBeforeLoan, f.doc.ElementByID(ReturnDateID).CustomValidity())
		}

		f.doc.ElementByID(StudentIDID).SetValue("")
		assert.True(t, f.ctl.ValidateStudentID(), "empty id left to required")
	})
}

func TestController_RealDocumentTimer(t *testing.T) {
	doc := NewPage(catalog.Default())
	defer doc.Close()
	ctl := New(doc, loans.NewLog(webstorage.NewMemory(), ""),
		WithClock(fixedClock{testNow}),
		WithSuccessHideAfter(10*time.Millisecond),
	)
	ctl.AttachOnReady()
	doc.Ready(context.Background())

	out, err := SubmitRequest(context.Background(), doc, validRequest())
	require.NoError(t, err)
	require.True(t, out.Accepted())

	assert.Eventually(t, func() bool {
		alert, _ := doc.Snapshot().Element(SuccessID)
		return !alert.Visible
	}, time.Second, 5*time.Millisecond)
}

func TestSetBooks_ClearsRemovedSelection(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.doc.Input(context.Background(), BookID, "B7"))

	f.doc.Do(func() { SetBooks(f.doc, []catalog.Book{{ID: "B1", Title: "Don Quijote de la Mancha"}}) })
	book, _ := f.doc.Snapshot().Element(BookID)
	assert.Empty(t, book.Value)
	assert.Equal(t, []ui.Option{{Value: "", Text: BookPlaceholder}, {Value: "B1", Text: "Don Quijote de la Mancha"}}, book.Options)

	require.NoError(t, f.doc.Input(context.Background(), BookID, "B1"))
	f.doc.Do(func() { SetBooks(f.doc, catalog.Default()) })
	book, _ = f.doc.Snapshot().Element(BookID)
	assert.Equal(t, "B1", book.Value)
}
