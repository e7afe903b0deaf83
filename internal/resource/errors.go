package resource

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record is absent from both the item
	// endpoint and the collection.
	ErrNotFound = errors.New("record not found")

	// ErrNotDirty is returned by Save when nothing changed; no request is sent.
	ErrNotDirty = errors.New("no changes to save")

	// ErrNotEditing is returned when editing a record that is being viewed.
	ErrNotEditing = errors.New("not in edit mode")

	// ErrNotReady is returned for operations that need a loaded record.
	ErrNotReady = errors.New("record not loaded")

	// ErrLocked is returned when editing a document that left draft.
	ErrLocked = errors.New("record is locked")

	// ErrNoRecord is returned when a create answered without the new record.
	ErrNoRecord = errors.New("server did not return the saved record, refresh the list")
)

// ValidationError reports a required field missing from a draft.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// FieldError reports a change refused for a single field.
type FieldError struct {
	Field string
	Err   error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

var errReadOnly = errors.New("field is read-only")
