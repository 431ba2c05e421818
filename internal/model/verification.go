package model

import (
	"time"
)

// VerificationKind selects which verification workflow a user goes through.
type VerificationKind string

const (
	// KindRenter is the renter identity/income verification (3 steps).
	KindRenter VerificationKind = "renter"
	// KindOwner is the owner property verification (2 steps).
	KindOwner VerificationKind = "owner"
)

// Valid reports whether the kind is one of the known workflows.
func (k VerificationKind) Valid() bool {
	return k == KindRenter || k == KindOwner
}

// ReviewStatus is the backend review outcome for a submitted verification.
type ReviewStatus string

const (
	ReviewNone     ReviewStatus = "none"
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// VerificationStatusResponse is the response for a status query.
type VerificationStatusResponse struct {
	Status          ReviewStatus `json:"status"`
	RejectionReason string       `json:"rejection_reason,omitempty"`
	SubmittedAt     *time.Time   `json:"submitted_at,omitempty"`
	ReviewedAt      *time.Time   `json:"reviewed_at,omitempty"`
}

// EmploymentDetails holds the renter employment step fields.
type EmploymentDetails struct {
	EmployerName string  `json:"employer_name"`
	Occupation   string  `json:"occupation"`
	AnnualIncome float64 `json:"annual_income"`
}

// SubmittedDocument is one uploaded document in a submission payload.
type SubmittedDocument struct {
	Type       string    `json:"type"`
	FileName   string    `json:"file_name"`
	FileURL    string    `json:"file_url"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// SubmissionPayload is what gets sent when a workflow is submitted.
type SubmissionPayload struct {
	Kind              VerificationKind             `json:"kind"`
	UserID            string                       `json:"user_id"`
	Documents         map[string]SubmittedDocument `json:"documents"`
	EmploymentDetails *EmploymentDetails           `json:"employment_details,omitempty"`
	PaymentID         string                       `json:"payment_id,omitempty"`
}

// SubmitVerificationRequest is the request body for the final submit.
type SubmitVerificationRequest struct {
	PaymentID string `json:"payment_id,omitempty"`
}

// StepRequest moves the wizard. Either Action="advance" (gated, forward) or
// Step=n for an explicit backward jump.
type StepRequest struct {
	Action string `json:"action,omitempty"`
	Step   int    `json:"step,omitempty"`
}

// UnsavedChangesResponse answers the navigate-away predicate.
type UnsavedChangesResponse struct {
	HasUnsavedChanges bool `json:"has_unsaved_changes"`
}
