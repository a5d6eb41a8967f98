package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"

	OpRead  = "read"
	OpWrite = "write"
)

// Recorder は送信結果とストレージ失敗を数える。nil でも呼び出し可能。
type Recorder struct {
	submissions     *prometheus.CounterVec
	storageFailures *prometheus.CounterVec
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "biblio",
			Name:      "loan_submissions_total",
			Help:      "Loan form submissions by outcome.",
		}, []string{"outcome"}),
		storageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "biblio",
			Name:      "storage_failures_total",
			Help:      "Loan log storage failures by operation.",
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(r.submissions, r.storageFailures)
	}
	return r
}

func (r *Recorder) Submission(outcome string) {
	if r == nil {
		return
	}
	r.submissions.WithLabelValues(outcome).Inc()
}

func (r *Recorder) StorageFailure(op string) {
	if r == nil {
		return
	}
	r.storageFailures.WithLabelValues(op).Inc()
}

// SubmissionCounter exposes the per-outcome counter for tests.
func (r *Recorder) SubmissionCounter(outcome string) prometheus.Counter {
	return r.submissions.WithLabelValues(outcome)
}

func (r *Recorder) StorageFailureCounter(op string) prometheus.Counter {
	return r.storageFailures.WithLabelValues(op)
}
