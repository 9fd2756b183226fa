package models

import "errors"

// Terminal outcomes surfaced to the UI layer. None of these are retried
// by the core: a failed slot allows re-upload, a failed run allows
// re-submission with the same assembled context.
var (
	ErrUploadFailed      = errors.New("document upload failed")
	ErrExtractionFailed  = errors.New("text extraction failed")
	ErrExtractionTimeout = errors.New("text extraction timed out")
	ErrRunFailed         = errors.New("assistant run failed")
	ErrRunTimeout        = errors.New("assistant run timed out")

	ErrSessionNotFound = errors.New("session not found")
	ErrSlotUnknown     = errors.New("unknown upload slot")
)
