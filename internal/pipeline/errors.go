package pipeline

import (
	"errors"
	"fmt"

	"github.com/dgallion1/lexchunk/internal/chunker"
)

// InputError marks a document that could not be read or parsed into lines.
type InputError struct {
	Source string
	Err    error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %s: %v", e.Source, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// FailureKind groups document failures for reporting.
type FailureKind string

const (
	KindNone      FailureKind = ""
	KindIntegrity FailureKind = "integrity" // coverage violation
	KindInput     FailureKind = "input"
	KindIO        FailureKind = "io"
)

// Classify maps a document error to its FailureKind. Anything that is
// neither a coverage violation nor an input error counts as I/O.
func Classify(err error) FailureKind {
	if err == nil {
		return KindNone
	}
	var covErr *chunker.CoverageError
	if errors.As(err, &covErr) {
		return KindIntegrity
	}
	var inErr *InputError
	if errors.As(err, &inErr) {
		return KindInput
	}
	return KindIO
}
