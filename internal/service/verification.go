package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/homer-app/marketplace-platform/internal/model"
	"github.com/homer-app/marketplace-platform/internal/storage"
	"github.com/homer-app/marketplace-platform/internal/verification"
	"github.com/homer-app/marketplace-platform/pkg/logger"
	"github.com/homer-app/marketplace-platform/pkg/metrics"
)

// EventPublisher persists verification lifecycle events.
type EventPublisher interface {
	PublishVerificationEvent(ctx context.Context, event *model.VerificationEvent) (uint64, error)
}

// reviewRecord tracks the backend review outcome for one submission.
type reviewRecord struct {
	status          model.ReviewStatus
	rejectionReason string
	submittedAt     time.Time
	reviewedAt      *time.Time
}

// VerificationService owns one workflow per (user, kind), stores document
// bytes in the object store, and publishes lifecycle events.
type VerificationService struct {
	store     storage.ObjectStore
	publisher EventPublisher
	logger    *logger.Logger
	limits    verification.Limits

	mu        sync.Mutex
	workflows map[string]*verification.Workflow
	reviews   map[string]*reviewRecord
}

// NewVerificationService creates a new verification service.
func NewVerificationService(store storage.ObjectStore, publisher EventPublisher, limits verification.Limits, log *logger.Logger) *VerificationService {
	return &VerificationService{
		store:     store,
		publisher: publisher,
		logger:    log,
		limits:    limits,
		workflows: make(map[string]*verification.Workflow),
		reviews:   make(map[string]*reviewRecord),
	}
}

func workflowKey(userID string, kind model.VerificationKind) string {
	return userID + "/" + string(kind)
}

// Start returns the caller's workflow of the given kind, creating it on
// first access.
func (s *VerificationService) Start(userID string, kind model.VerificationKind) (*verification.Workflow, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown verification kind %q", kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := workflowKey(userID, kind)
	wf, ok := s.workflows[key]
	if !ok {
		wf = verification.New(userID, kind, s.limits, s.uploader(), s.submitter())
		s.workflows[key] = wf
		metrics.WorkflowsActive.WithLabelValues(string(kind)).Inc()
		s.logger.Info("verification workflow started",
			zap.String("user_id", userID),
			zap.String("kind", string(kind)),
		)
	}
	return wf, nil
}

// Get returns the caller's workflow, or an error if none was started.
func (s *VerificationService) Get(userID string, kind model.VerificationKind) (*verification.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wf, ok := s.workflows[workflowKey(userID, kind)]
	if !ok {
		return nil, fmt.Errorf("verification workflow not started")
	}
	return wf, nil
}

// SubmitDocument runs an upload through the workflow, recording metrics and
// publishing a lifecycle event on success.
func (s *VerificationService) SubmitDocument(ctx context.Context, userID string, kind model.VerificationKind, slot string, up verification.Upload) error {
	wf, err := s.Start(userID, kind)
	if err != nil {
		return err
	}

	var prevKey string
	if doc, ok := wf.Snapshot().Documents[slot]; ok && doc.File != nil {
		prevKey = doc.File.ObjectKey
	}

	start := time.Now()
	err = wf.SubmitFile(ctx, slot, up)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordUpload(string(kind), slot, status, time.Since(start).Seconds())
	if err != nil {
		return err
	}

	// A replacement with a different extension lands under a new key; delete
	// the superseded object so it does not linger in the bucket.
	if doc, ok := wf.Snapshot().Documents[slot]; ok && doc.File != nil &&
		prevKey != "" && prevKey != doc.File.ObjectKey && s.store != nil {
		if derr := s.store.Delete(ctx, prevKey); derr != nil {
			s.logger.Warn("failed to delete superseded document",
				zap.String("key", prevKey),
				zap.Error(derr),
			)
		}
	}

	s.publishEvent(ctx, userID, kind, model.EventTypeDocumentUploaded, slot, "")
	return nil
}

// RemoveDocument resets a slot and deletes the stored object, best effort.
func (s *VerificationService) RemoveDocument(ctx context.Context, userID string, kind model.VerificationKind, slot string) error {
	wf, err := s.Get(userID, kind)
	if err != nil {
		return err
	}

	snap := wf.Snapshot()
	doc, ok := snap.Documents[slot]

	if err := wf.RemoveFile(slot); err != nil {
		return err
	}

	if ok && doc.File != nil && s.store != nil {
		key := doc.File.ObjectKey
		if key == "" {
			key = storage.DocumentKey(userID, string(kind), slot, doc.File.FileName)
		}
		if derr := s.store.Delete(ctx, key); derr != nil {
			s.logger.Warn("failed to delete stored document",
				zap.String("key", key),
				zap.Error(derr),
			)
		}
	}

	s.publishEvent(ctx, userID, kind, model.EventTypeDocumentRemoved, slot, "")
	return nil
}

// Submit finalizes the workflow and records the pending review.
func (s *VerificationService) Submit(ctx context.Context, userID string, kind model.VerificationKind, paymentID string) error {
	wf, err := s.Get(userID, kind)
	if err != nil {
		return err
	}
	if wf.Submitted() {
		// Caller-side re-submission guard: the workflow itself is not
		// idempotent.
		return &verification.ValidationError{Message: "verification already submitted"}
	}

	if err := wf.Submit(ctx, paymentID); err != nil {
		metrics.VerificationSubmissionsTotal.WithLabelValues(string(kind), "error").Inc()
		return err
	}

	s.mu.Lock()
	s.reviews[workflowKey(userID, kind)] = &reviewRecord{
		status:      model.ReviewPending,
		submittedAt: wf.SubmittedAt(),
	}
	s.mu.Unlock()

	metrics.VerificationSubmissionsTotal.WithLabelValues(string(kind), "success").Inc()
	metrics.WorkflowsActive.WithLabelValues(string(kind)).Dec()
	return nil
}

// Status reports the review state of the caller's verification.
func (s *VerificationService) Status(userID string, kind model.VerificationKind) *model.VerificationStatusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.reviews[workflowKey(userID, kind)]
	if !ok {
		return &model.VerificationStatusResponse{Status: model.ReviewNone}
	}
	submittedAt := rec.submittedAt
	return &model.VerificationStatusResponse{
		Status:          rec.status,
		RejectionReason: rec.rejectionReason,
		SubmittedAt:     &submittedAt,
		ReviewedAt:      rec.reviewedAt,
	}
}

// RecordReview stores a review outcome arriving from the review pipeline.
func (s *VerificationService) RecordReview(ctx context.Context, userID string, kind model.VerificationKind, status model.ReviewStatus, reason string) error {
	s.mu.Lock()
	rec, ok := s.reviews[workflowKey(userID, kind)]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("no submission to review")
	}
	now := time.Now()
	rec.status = status
	rec.rejectionReason = reason
	rec.reviewedAt = &now
	s.mu.Unlock()

	s.publishEvent(ctx, userID, kind, model.EventTypeReviewed, "", reason)
	return nil
}

func (s *VerificationService) publishEvent(ctx context.Context, userID string, kind model.VerificationKind, typ model.EventType, slot, reason string) {
	if s.publisher == nil {
		return
	}
	_, err := s.publisher.PublishVerificationEvent(ctx, &model.VerificationEvent{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    userID,
		Kind:      kind,
		Type:      typ,
		Slot:      slot,
		Reason:    reason,
		CreatedAt: time.Now(),
	})
	if err != nil {
		s.logger.Warn("failed to publish verification event",
			zap.String("type", string(typ)),
			zap.Error(err),
		)
	}
}

// uploader adapts the object store to the workflow's Uploader contract.
// Transfer progress maps to 0..90; the workflow reports 100 itself.
func (s *VerificationService) uploader() verification.Uploader {
	return &storeUploader{service: s}
}

// submitter adapts event publishing to the workflow's Submitter contract.
func (s *VerificationService) submitter() verification.Submitter {
	return &eventSubmitter{service: s}
}

type storeUploader struct {
	service *VerificationService
}

func (u *storeUploader) Upload(ctx context.Context, userID string, kind model.VerificationKind, slot string, up verification.Upload, progress verification.ProgressFunc) (verification.FileInfo, error) {
	s := u.service
	if s.store == nil {
		return verification.FileInfo{}, fmt.Errorf("document storage unavailable")
	}

	objectKey := storage.DocumentKey(userID, string(kind), slot, up.FileName)
	reader := storage.NewProgressReader(up.Content, up.SizeBytes, func(pct int) {
		progress(pct * 90 / 100)
	})

	if err := s.store.Put(ctx, objectKey, reader, up.SizeBytes, storage.ContentTypeFor(up.FileName)); err != nil {
		return verification.FileInfo{}, err
	}

	url, err := s.store.PresignGet(ctx, objectKey, 24*time.Hour)
	if err != nil {
		return verification.FileInfo{}, err
	}

	return verification.FileInfo{
		FileName:   up.FileName,
		SizeBytes:  up.SizeBytes,
		FileURL:    url,
		UploadedAt: time.Now(),
		ObjectKey:  objectKey,
	}, nil
}

type eventSubmitter struct {
	service *VerificationService
}

func (e *eventSubmitter) SubmitVerification(ctx context.Context, payload model.SubmissionPayload) error {
	s := e.service
	if s.publisher == nil {
		return nil
	}
	_, err := s.publisher.PublishVerificationEvent(ctx, &model.VerificationEvent{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    payload.UserID,
		Kind:      payload.Kind,
		Type:      model.EventTypeSubmitted,
		CreatedAt: time.Now(),
	})
	return err
}
