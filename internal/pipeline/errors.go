package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDocument is returned when a document has no name or image.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidPeriod is returned when the billing period is not a real month.
	ErrInvalidPeriod = errors.New("invalid billing period")

	// ErrAcquisitionFailed is returned when OCR could not even produce degraded text.
	ErrAcquisitionFailed = errors.New("text acquisition failed")
)

// ExtractionError describes why a document could not be turned into a fact.
type ExtractionError struct {
	// Op is the operation that failed.
	Op string

	// Document is the file name of the rejected document.
	Document string

	// Err is the underlying error.
	Err error

	// Details provides additional context.
	Details string
}

func (e *ExtractionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("pipeline: %s failed for %s: %s: %v", e.Op, e.Document, e.Details, e.Err)
	}
	return fmt.Sprintf("pipeline: %s failed for %s: %v", e.Op, e.Document, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func (e *ExtractionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewExtractionError creates a new ExtractionError.
func NewExtractionError(op, document string, err error, details string) *ExtractionError {
	return &ExtractionError{
		Op:       op,
		Document: document,
		Err:      err,
		Details:  details,
	}
}
