package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a usecase either wraps one of these or
// is unexpected.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

var (
	ErrUsernameTaken       = newError(ErrConflict, "Username already exists")
	ErrInvalidCredentials  = newError(ErrUnauthorized, "Invalid username or password")
	ErrUserNotFound        = newError(ErrNotFound, "User not found")
	ErrRefreshTokenMissing = newError(ErrUnauthorized, "Refresh token not found")
	ErrRefreshTokenRevoked = newError(ErrUnauthorized, "Refresh token was revoked")
	ErrRefreshTokenExpired = newError(ErrUnauthorized, "Refresh token was expired")

	ErrFolderNotFound     = newError(ErrNotFound, "Folder not found or access denied")
	ErrParentNotFound     = newError(ErrNotFound, "Parent folder not found or access denied")
	ErrFolderNameTaken    = newError(ErrConflict, "A folder with this name already exists at this location")
	ErrFolderOwnParent    = newError(ErrValidation, "A folder cannot be its own parent")
	ErrFolderCycle        = newError(ErrValidation, "A folder cannot be moved into one of its own subfolders")
	ErrNoteNotFound       = newError(ErrNotFound, "Note not found")
	ErrNoteFolderNotFound = newError(ErrValidation, "Folder not found or access denied")
)

// Error is a failure of a known kind whose message is safe to show clients.
type Error struct {
	Kind    error
	Message string
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// FieldError reports a single invalid input field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationError collects field errors. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return e.Fields[0].Error()
	}
	return fmt.Sprintf("%d validation errors", len(e.Fields))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Add records a field error.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Err returns e when it holds at least one field error, nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Messages returns each field error as "field: message".
func (e *ValidationError) Messages() []string {
	out := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		out = append(out, f.Error())
	}
	return out
}
