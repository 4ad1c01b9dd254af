package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")

	ErrDuplicateLicense   = errors.New("license number already registered")
	ErrSchoolNotFound     = fmt.Errorf("school %w", ErrNotFound)
	ErrInspectionNotFound = fmt.Errorf("inspection %w", ErrNotFound)
	ErrPhotoNotFound      = fmt.Errorf("photo %w", ErrNotFound)
)

type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every field that failed. It matches ErrValidation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Reason: reason}}}
}

// PersistenceError wraps a failure from the underlying store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// SchoolSyncWarning reports that an inspection was saved but the follow-up
// update of its school's rating, violation count and last inspection date
// failed. The inspection is not rolled back.
type SchoolSyncWarning struct {
	InspectionID uuid.UUID
	SchoolID     uuid.UUID
	Err          error
}

func (w *SchoolSyncWarning) Error() string {
	return fmt.Sprintf("inspection %s saved but school %s was not updated: %v", w.InspectionID, w.SchoolID, w.Err)
}

func (w *SchoolSyncWarning) Unwrap() error {
	return w.Err
}
