package domain

import (
	"errors"
	"fmt"
)

// ErrAlreadyExists is an error thrown when entity already exists
var ErrAlreadyExists = errors.New("already exists")

// ErrUnknownConversion is an error thrown when a conversion id is not in the registry
var ErrUnknownConversion = errors.New("unknown conversion")

// ErrUnsupportedConversion is an error thrown when no converter is bound to a format pair
var ErrUnsupportedConversion = errors.New("unsupported conversion")

// ErrCapacityExceeded is an error thrown when a batch exceeds the configured limits
var ErrCapacityExceeded = errors.New("capacity exceeded")

// ErrNoFiles is an error thrown when a batch contains no file
var ErrNoFiles = errors.New("no files uploaded")

// ErrUnsupportedExtension is an error thrown when a file extension is not accepted by a conversion
var ErrUnsupportedExtension = errors.New("unsupported extension")

// ErrFileTooLarge is an error thrown when a single file exceeds the per-file limit
var ErrFileTooLarge = errors.New("file too large")

// ErrAllFilesRejected is an error thrown when every file of a batch failed validation
var ErrAllFilesRejected = errors.New("all files rejected")

// ErrConversionFailed is an error thrown when a codec fails on a file
var ErrConversionFailed = errors.New("conversion failed")

// ErrStorage is an error thrown on systemic storage failure
var ErrStorage = errors.New("storage failure")

// ErrSessionNotFound is an error thrown when session is not found
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExpired is an error thrown when session exists but is past its expiry
var ErrSessionExpired = errors.New("session expired")

// ErrSessionInUse is an error thrown when a session cannot be purged because streams are open on it
var ErrSessionInUse = errors.New("session in use")

// ErrArtifactNotFound is an error thrown when an artifact is not part of a session
var ErrArtifactNotFound = errors.New("artifact not found")

// ErrEmptySession is an error thrown when a bundle is requested for a session without artifacts
var ErrEmptySession = errors.New("session has no converted files")

// ErrNotPreviewable is an error thrown when a preview is requested for a non previewable artifact
var ErrNotPreviewable = errors.New("artifact not previewable")

// ErrObjectNotFound is an error thrown when a storage key does not exist
var ErrObjectNotFound = errors.New("object not found")

// ConversionError is returned by converters. Reason is safe to show to end users,
// Err keeps the internal detail for logs.
type ConversionError struct {
	Reason string
	Err    error
}

// NewConversionError creates a ConversionError
func NewConversionError(reason string, err error) *ConversionError {
	return &ConversionError{Reason: reason, Err: err}
}

func (e *ConversionError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *ConversionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConversionFailed}
	}
	return []error{ErrConversionFailed, e.Err}
}

// RejectedBatchError is returned when no file of a batch passed validation.
type RejectedBatchError struct {
	Failures []FileFailure
}

func (e *RejectedBatchError) Error() string {
	return fmt.Sprintf("%s: %d file(s)", ErrAllFilesRejected, len(e.Failures))
}

func (e *RejectedBatchError) Unwrap() error {
	return ErrAllFilesRejected
}
