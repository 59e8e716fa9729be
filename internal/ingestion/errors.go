package ingestion

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rpattn/staffing/internal/domain"
)

var (
	// ErrUnsupportedFormat is returned when an uploaded file is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrUnreadableFile is returned when the bytes cannot be decoded as the detected format.
	ErrUnreadableFile = errors.New("file could not be read")
	// ErrFileTooLarge is returned when an upload exceeds the configured limit.
	ErrFileTooLarge = errors.New("file exceeds the upload limit")
	// ErrEmptyFile is returned when there is no data row after the header.
	ErrEmptyFile = errors.New("the file is empty or contains only the header row")
	// ErrIdentifierCollision is returned when every attempt to generate a free business identifier failed.
	ErrIdentifierCollision = errors.New("could not generate a unique identifier")
	// ErrTargetNotFound is returned when the disambiguating parent record (e.g. the project of an assignment import) does not exist.
	ErrTargetNotFound = errors.New("import target not found")

	ErrRequired            = errors.New("required")
	ErrInvalidValue        = errors.New("invalid value")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidNumber       = errors.New("invalid number")
	ErrEndBeforeStart      = errors.New("end before start")
	ErrInsufficientColumns = errors.New("insufficient columns")
	ErrDuplicateRow        = errors.New("duplicate row")
	ErrReferenceNotFound   = errors.New("reference not found")
)

// FileFormatError reports an upload that could not be turned into rows.
type FileFormatError struct {
	FileName string
	Err      error
}

func (e *FileFormatError) Error() string {
	return fmt.Sprintf("unable to read %q: %v", e.FileName, e.Err)
}

func (e *FileFormatError) Unwrap() error { return e.Err }

// SchemaMismatchError reports a header row that does not match the entity layout.
type SchemaMismatchError struct {
	Entity   domain.EntityType
	Expected []string
	Got      []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("invalid file format, the headers must be in this order: %s", strings.Join(e.Expected, ", "))
}

// FieldError is one problem found in one row.
type FieldError struct {
	Field   string
	Message string
	Kind    error
}

func (e *FieldError) Error() string { return e.Message }

func (e *FieldError) Unwrap() error { return e.Kind }

// ReferenceNotFoundError reports a foreign key given by name that matched nothing.
type ReferenceNotFoundError struct {
	Field      string
	Value      string
	Suggestion string
}

func (e *ReferenceNotFoundError) Error() string {
	msg := fmt.Sprintf("%s not found: %s", e.Field, e.Value)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

func (e *ReferenceNotFoundError) Is(target error) bool { return target == ErrReferenceNotFound }

// RowValidationError carries every failed row of a rejected batch keyed by
// source row number.
type RowValidationError struct {
	Entity domain.EntityType
	Rows   map[int][]error
}

func (e *RowValidationError) add(row int, errs ...error) {
	if e.Rows == nil {
		e.Rows = map[int][]error{}
	}
	e.Rows[row] = append(e.Rows[row], errs...)
}

func (e *RowValidationError) empty() bool { return len(e.Rows) == 0 }

// RowNumbers returns the failed row numbers in ascending order.
func (e *RowValidationError) RowNumbers() []int {
	rows := make([]int, 0, len(e.Rows))
	for row := range e.Rows {
		rows = append(rows, row)
	}
	sort.Ints(rows)
	return rows
}

// Messages renders the errors as strings, the shape returned to clients.
func (e *RowValidationError) Messages() map[int][]string {
	out := make(map[int][]string, len(e.Rows))
	for row, errs := range e.Rows {
		for _, err := range errs {
			out[row] = append(out[row], err.Error())
		}
	}
	return out
}

func (e *RowValidationError) Error() string {
	rows := e.RowNumbers()
	parts := make([]string, 0, len(rows))
	for _, row := range rows {
		msgs := make([]string, 0, len(e.Rows[row]))
		for _, err := range e.Rows[row] {
			msgs = append(msgs, err.Error())
		}
		parts = append(parts, fmt.Sprintf("row %d: %s", row, strings.Join(msgs, "; ")))
	}
	return fmt.Sprintf("%d row(s) failed validation: %s", len(rows), strings.Join(parts, " | "))
}

// Unwrap exposes the individual row errors to errors.Is and errors.As.
func (e *RowValidationError) Unwrap() []error {
	var all []error
	for _, row := range e.RowNumbers() {
		all = append(all, e.Rows[row]...)
	}
	return all
}

// PersistenceError wraps a failed transactional write. Nothing of the batch was committed.
type PersistenceError struct {
	Entity domain.EntityType
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("error occurred while importing %s: %v", e.Entity.Plural(), e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
