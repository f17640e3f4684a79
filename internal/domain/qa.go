package domain

// QaStatus is the outcome of a QaReport.
type QaStatus string

const (
	QaPassed  QaStatus = "Passed"
	QaFailed  QaStatus = "Failed"
	QaPending QaStatus = "Pending"
)

// IssueSeverity ranks a QaIssue.
type IssueSeverity string

const (
	SeverityInfo     IssueSeverity = "Info"
	SeverityMinor    IssueSeverity = "Minor"
	SeverityMajor    IssueSeverity = "Major"
	SeverityCritical IssueSeverity = "Critical"
)

// QaIssue is one finding from a QaRunner pass.
type QaIssue struct {
	ID          string        `json:"id"`
	Severity    IssueSeverity `json:"severity"`
	Description string        `json:"description"`
	File        *string       `json:"file,omitempty"`
	Line        *int          `json:"line,omitempty"`
}

// QaReport is the result of a QA phase run, driving the phase transition
// out of QA.
type QaReport struct {
	TaskID string    `json:"task_id"`
	Status QaStatus  `json:"status"`
	Issues []QaIssue `json:"issues,omitempty"`

	// pendingRetried tracks whether a Pending report has already been
	// retried once in QA, per §4.8's "retry once then Error" rule.
	pendingRetried bool
}

// NextPhase returns the phase the orchestrator should move to after this
// report: Merging if Passed, Fixing if Failed, QA itself if Pending (caller
// is responsible for enforcing the retry-once-then-Error rule; the
// orchestrator tracks it per run rather than through MarkPendingRetried).
func (r *QaReport) NextPhase() TaskPhase {
	switch r.Status {
	case QaPassed:
		return PhaseMerging
	case QaFailed:
		return PhaseFixing
	default:
		return PhaseQA
	}
}

// MarkPendingRetried records that a Pending report has already triggered
// one retry.
func (r *QaReport) MarkPendingRetried() { r.pendingRetried = true }

// PendingAlreadyRetried reports whether a prior Pending report for this
// report's lineage already consumed its single retry.
func (r *QaReport) PendingAlreadyRetried() bool { return r.pendingRetried }
