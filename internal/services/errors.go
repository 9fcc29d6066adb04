package services

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable code reported to API clients.
type ErrorKind string

const (
	KindInvalidInput       ErrorKind = "INVALID_INPUT"
	KindExtractionFailed   ErrorKind = "EXTRACTION_FAILED"
	KindInsufficientText   ErrorKind = "INSUFFICIENT_TEXT"
	KindPersistenceFailure ErrorKind = "PERSISTENCE_FAILURE"
	KindInternal           ErrorKind = "INTERNAL_ERROR"
)

type AnalysisError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

func newAnalysisError(kind ErrorKind, message string, err error) *AnalysisError {
	return &AnalysisError{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind carried by err, or KindInternal when err is not an
// AnalysisError.
func KindOf(err error) ErrorKind {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}
