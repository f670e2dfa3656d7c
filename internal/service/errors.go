package service

import "errors"

// ValidationError reports bad caller input (short password, mismatched
// confirmation, malformed identifier). It never reaches storage.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationErr(reason string) error {
	return &ValidationError{Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrAccessDenied is returned on password mismatch, and when verification is
// attempted against a note that has no password set.
var ErrAccessDenied = errors.New("access denied")

// ErrVersionNotFound is returned when a restore targets a version number that
// was never created.
var ErrVersionNotFound = errors.New("version not found")

// ErrNoteNotFound is returned by operations that require an existing note.
var ErrNoteNotFound = errors.New("note not found")
