package model

import (
	"time"
)

// EventType represents the type of verification lifecycle event.
type EventType string

const (
	EventTypeDocumentUploaded EventType = "document_uploaded"
	EventTypeDocumentRemoved  EventType = "document_removed"
	EventTypeSubmitted        EventType = "submitted"
	EventTypeReviewed         EventType = "reviewed"
)

// VerificationEvent records a verification workflow transition for downstream
// consumers (review tooling, notifications).
type VerificationEvent struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Kind      VerificationKind `json:"kind"`
	Type      EventType        `json:"type"`
	Slot      string           `json:"slot,omitempty"`
	Reason    string           `json:"reason,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	Sequence  uint64           `json:"sequence,omitempty"`
}
