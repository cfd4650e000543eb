// Package errs holds the error taxonomy shared by the try-on workflows.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrActionBusy         = errors.New("action already in progress")
	ErrAttemptInProgress  = errors.New("a try-on attempt is already in progress")
	ErrCloudNotConfigured = errors.New("cloud upload is not configured")
	ErrForbidden          = errors.New("forbidden")
	ErrNoResult           = errors.New("no try-on result available")
)

// ValidationError is returned before any network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	ErrMissingPersonPhoto = &ValidationError{Field: "person", Message: "please upload your photo first"}
	ErrMissingGarment     = &ValidationError{Field: "garment", Message: "please select a garment"}
)

// Required builds a ValidationError for a missing form field.
func Required(field string) error {
	return &ValidationError{Field: field, Message: "is required"}
}

// UploadError means the object store call of a multi-step workflow failed.
type UploadError struct {
	Op  string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s: upload failed: %v", e.Op, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// PersistError means a document write failed after earlier steps succeeded.
// Earlier steps are not rolled back.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s: persist failed: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
