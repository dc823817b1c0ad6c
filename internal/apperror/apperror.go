// Package apperror defines the typed failures surfaced by the journal
// operations, so callers can branch on kind instead of message text.
package apperror

import (
	"errors"
	"fmt"

	"github.com/benvon/selfspeak/internal/models"
)

// Kind classifies a failure.
type Kind string

const (
	KindNotFound       Kind = "not_found"
	KindQuotaExceeded  Kind = "quota_exceeded"
	KindValidation     Kind = "validation_error"
	KindAnalysisEngine Kind = "analysis_engine_error"
	KindStorage        Kind = "storage_error"
	KindInvalidInput   Kind = "invalid_input"
	KindUnknown        Kind = "unknown"
)

// Error is a classified failure. Usage is only set for KindQuotaExceeded.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Usage   *models.UsageSummary
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the caller may simply try again.
func (e *Error) Retryable() bool {
	return e.Kind == KindValidation || e.Kind == KindAnalysisEngine
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func NotFound(op, message string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: message}
}

func InvalidInput(op, message string) *Error {
	return &Error{Kind: KindInvalidInput, Op: op, Message: message}
}

func Validation(op string, err error) *Error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

func AnalysisEngine(op string, err error) *Error {
	return &Error{Kind: KindAnalysisEngine, Op: op, Err: err}
}

func Storage(op string, err error) *Error {
	return &Error{Kind: KindStorage, Op: op, Err: err}
}

// QuotaExceeded builds the weekly limit failure with the counts needed to
// render "used/limit, resets next Monday".
func QuotaExceeded(op string, usage models.UsageSummary) *Error {
	return &Error{
		Kind:    KindQuotaExceeded,
		Op:      op,
		Message: fmt.Sprintf("Weekly analysis limit reached (%d/%d). Resets next Monday.", usage.Count, usage.Limit),
		Usage:   &usage,
	}
}
