package verification

import (
	"fmt"
)

// ValidationError is a locally recoverable input problem: file too large,
// wrong extension, missing required field, advancing an incomplete step.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// UploadFailure means the upload collaborator rejected a file. The slot
// carries the message and the user may retry against the same slot.
type UploadFailure struct {
	Slot string
	Err  error
}

func (e *UploadFailure) Error() string {
	return fmt.Sprintf("upload failed for %s: %v", e.Slot, e.Err)
}

func (e *UploadFailure) Unwrap() error { return e.Err }

// SubmissionFailure means the final submit was rejected. Workflow state is
// left intact so the user can retry without re-uploading.
type SubmissionFailure struct {
	Err error
}

func (e *SubmissionFailure) Error() string {
	return fmt.Sprintf("submission failed: %v", e.Err)
}

func (e *SubmissionFailure) Unwrap() error { return e.Err }
