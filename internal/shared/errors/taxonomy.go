package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is the orchestrator's error taxonomy, surfaced across the HTTP
// boundary via StatusCode.
type Kind string

const (
	KindValidation Kind = "ValidationError"
	KindNotFound   Kind = "NotFound"
	KindConflict   Kind = "ConflictError"
	KindBudget     Kind = "BudgetDenied"
	KindStuck      Kind = "StuckError"
	KindExecutor   Kind = "ExecutorError"
	KindWorktree   Kind = "WorktreeError"
	KindMerge      Kind = "MergeConflict"
	KindInternal   Kind = "Internal"
)

// StuckReason is why a StuckError fired.
type StuckReason string

const (
	StuckTimeout         StuckReason = "Timeout"
	StuckOutputLoop      StuckReason = "OutputLoop"
	StuckBudgetExhausted StuckReason = "BudgetExhausted"
	StuckNoProgress      StuckReason = "NoProgress"
)

// ExecutorReason is the sub-kind of an ExecutorError.
type ExecutorReason string

const (
	ExecutorSpawn       ExecutorReason = "Spawn"
	ExecutorIO          ExecutorReason = "Io"
	ExecutorTimeout     ExecutorReason = "Timeout"
	ExecutorNonZeroExit ExecutorReason = "NonZeroExit"
)

// WorktreeReason is the sub-kind of a WorktreeError.
type WorktreeReason string

const (
	WorktreeAlreadyExists WorktreeReason = "AlreadyExists"
	WorktreeGitCommand    WorktreeReason = "GitCommand"
	WorktreeIO            WorktreeReason = "Io"
	WorktreeNotFound      WorktreeReason = "NotFound"
)

// TaxonomyError is the single typed-error shape the HTTP surface translates
// to a status code (§7); it never leaks stack traces, only Kind+Message.
type TaxonomyError struct {
	Kind    Kind
	Reason  string // StuckReason/ExecutorReason/WorktreeReason as text, or ""
	Message string
	Files   []string // populated for MergeConflict
	Err     error
}

func (e *TaxonomyError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s{%s}: %s", e.Kind, e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *TaxonomyError) Unwrap() error { return e.Err }

func newTaxonomy(kind Kind, msg string) *TaxonomyError {
	return &TaxonomyError{Kind: kind, Message: msg}
}

func NewValidationError(msg string) error   { return newTaxonomy(KindValidation, msg) }
func NewNotFoundError(msg string) error     { return newTaxonomy(KindNotFound, msg) }
func NewConflictError(msg string) error     { return newTaxonomy(KindConflict, msg) }
func NewBudgetDeniedError(msg string) error { return newTaxonomy(KindBudget, msg) }
func NewInternalError(err error, msg string) error {
	return &TaxonomyError{Kind: KindInternal, Message: msg, Err: err}
}

func NewStuckError(reason StuckReason, msg string) error {
	return &TaxonomyError{Kind: KindStuck, Reason: string(reason), Message: msg}
}

func NewExecutorError(reason ExecutorReason, err error, msg string) error {
	return &TaxonomyError{Kind: KindExecutor, Reason: string(reason), Message: msg, Err: err}
}

func NewWorktreeError(reason WorktreeReason, err error, msg string) error {
	return &TaxonomyError{Kind: KindWorktree, Reason: string(reason), Message: msg, Err: err}
}

func NewMergeConflictError(files []string) error {
	return &TaxonomyError{Kind: KindMerge, Message: "merge conflict", Files: files}
}

// AsTaxonomy extracts the TaxonomyError from err, if any.
func AsTaxonomy(err error) (*TaxonomyError, bool) {
	var t *TaxonomyError
	if stderrors.As(err, &t) {
		return t, true
	}
	return nil, false
}

// StatusCode maps a TaxonomyError (or any error) to the HTTP status the
// surface should return, per §7's exit-code table.
func StatusCode(err error) int {
	t, ok := AsTaxonomy(err)
	if !ok {
		return 500
	}
	switch t.Kind {
	case KindValidation:
		return 400
	case KindNotFound:
		return 404
	case KindConflict, KindMerge:
		return 409
	case KindBudget:
		return 403
	default:
		return 500
	}
}
