package errors

import (
	"errors"
	"fmt"
)

var (
	ErrStudentNotFound   = errors.New("student not found")
	ErrDuplicateSubject  = errors.New("subject code already exists")
	ErrStudentEmailEmpty = errors.New("student email is empty")
	ErrSMTPNotConfigured = errors.New("email settings not configured")
)

type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s",
		e.Field, e.Value, e.Message)
}

// IntegrityError covers duplicate identifiers and dangling reference data.
// The transaction that raised it was rolled back, so the store is unchanged.
type IntegrityError struct {
	Err     error
	Message string
}

func (e IntegrityError) Error() string {
	return fmt.Sprintf("integrity error: %s - %s", e.Message, e.Err.Error())
}

func (e IntegrityError) Unwrap() error {
	return e.Err
}

func NewIntegrityError(err error, message string) error {
	return IntegrityError{
		Err:     err,
		Message: message,
	}
}

// TransientError marks lock contention on the store file. Callers may retry;
// the retry package does so with a bounded budget.
type TransientError struct {
	Err     error
	Message string
}

func (e TransientError) Error() string {
	return fmt.Sprintf("transient error: %s - %s", e.Message, e.Err.Error())
}

func (e TransientError) Unwrap() error {
	return e.Err
}

func NewTransientError(err error, message string) error {
	return TransientError{
		Err:     err,
		Message: message,
	}
}

func IsTransient(err error) bool {
	var te TransientError
	return errors.As(err, &te)
}

func IsIntegrity(err error) bool {
	var ie IntegrityError
	return errors.As(err, &ie)
}
