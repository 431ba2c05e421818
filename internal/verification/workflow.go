// Package verification implements the document-verification upload workflow:
// per-slot upload lifecycle, step gating, and submission.
package verification

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/homer-app/marketplace-platform/internal/model"
)

// Upload is a candidate document handed to SubmitFile.
type Upload struct {
	FileName  string
	SizeBytes int64
	Content   io.Reader
}

// ProgressFunc receives monotonically non-decreasing transfer percentages in
// the 0..90 range; the workflow itself reports 100 on completion.
type ProgressFunc func(pct int)

// Uploader stores a document and returns its stored metadata. Implementations
// report transfer progress through the callback and fail with a
// user-displayable error.
type Uploader interface {
	Upload(ctx context.Context, userID string, kind model.VerificationKind, slot string, up Upload, progress ProgressFunc) (FileInfo, error)
}

// Submitter delivers the final submission payload.
type Submitter interface {
	SubmitVerification(ctx context.Context, payload model.SubmissionPayload) error
}

// slotsFor returns the fixed required-slot names for a workflow kind, and
// totalSteps its step count. The renter workflow inserts an employment step
// between documents and review.
func slotsFor(kind model.VerificationKind) []string {
	if kind == model.KindOwner {
		return []string{"ownerIdProof", "ownershipProof"}
	}
	return []string{"idProof", "incomeProof"}
}

func totalSteps(kind model.VerificationKind) int {
	if kind == model.KindOwner {
		return 2
	}
	return 3
}

const (
	stepDocuments = 1
	// stepEmployment exists only in the renter workflow.
	stepEmployment = 2
)

// Workflow tracks one user's progress through a verification wizard. All
// methods are safe for concurrent use; uploads to different slots proceed
// in parallel because the lock is released while the collaborator runs.
type Workflow struct {
	mu sync.Mutex

	userID string
	kind   model.VerificationKind
	limits Limits

	documents   map[string]*DocumentSlot
	currentStep int
	employment  *model.EmploymentDetails

	hasUnsavedChanges bool
	submitted         bool
	submittedAt       time.Time

	uploader  Uploader
	submitter Submitter
}

// New creates a workflow of the given kind with every slot empty and the
// wizard at step 1.
func New(userID string, kind model.VerificationKind, limits Limits, uploader Uploader, submitter Submitter) *Workflow {
	docs := make(map[string]*DocumentSlot)
	for _, name := range slotsFor(kind) {
		docs[name] = &DocumentSlot{Status: SlotEmpty}
	}
	return &Workflow{
		userID:      userID,
		kind:        kind,
		limits:      limits,
		documents:   docs,
		currentStep: 1,
		uploader:    uploader,
		submitter:   submitter,
	}
}

// Kind returns the workflow kind.
func (w *Workflow) Kind() model.VerificationKind { return w.kind }

// SlotNames returns the workflow's required slot names in a fixed order.
func (w *Workflow) SlotNames() []string {
	names := slotsFor(w.kind)
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)
	return sorted
}

// SubmitFile validates the upload and, if acceptable, runs it through the
// upload collaborator. Validation failures mark the slot as errored without
// calling the collaborator. A slot that is already uploading rejects a second
// submission; other slots are unaffected and may upload concurrently.
func (w *Workflow) SubmitFile(ctx context.Context, slotName string, up Upload) error {
	w.mu.Lock()
	slot, ok := w.documents[slotName]
	if !ok {
		w.mu.Unlock()
		return validationErrorf("unknown document slot %q", slotName)
	}
	if w.submitted {
		w.mu.Unlock()
		return validationErrorf("verification already submitted")
	}
	if slot.Status == SlotUploading {
		w.mu.Unlock()
		return validationErrorf("an upload for %s is already in progress", slotName)
	}
	if verr := w.limits.checkFile(up.FileName, up.SizeBytes); verr != nil {
		slot.fail(verr.Message)
		w.mu.Unlock()
		return verr
	}
	slot.beginUpload()
	w.mu.Unlock()

	info, err := w.uploader.Upload(ctx, w.userID, w.kind, slotName, up, func(pct int) {
		if pct > 90 {
			pct = 90
		}
		w.mu.Lock()
		slot.advanceProgress(pct)
		w.mu.Unlock()
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	if slot.Status != SlotUploading {
		// The slot was reset while the collaborator ran (a removal raced the
		// upload); discard the result and leave the slot alone.
		if err != nil {
			return &UploadFailure{Slot: slotName, Err: err}
		}
		return nil
	}
	if err != nil {
		slot.fail(err.Error())
		return &UploadFailure{Slot: slotName, Err: err}
	}
	slot.completeUpload(info)
	w.hasUnsavedChanges = true
	return nil
}

// RemoveFile resets the named slot to empty unconditionally. It does not
// touch the unsaved-changes flag: removing a file is not itself new unsaved
// data, even though the document set may now be incomplete.
func (w *Workflow) RemoveFile(slotName string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	slot, ok := w.documents[slotName]
	if !ok {
		return validationErrorf("unknown document slot %q", slotName)
	}
	if w.submitted {
		return validationErrorf("verification already submitted")
	}
	slot.reset()
	return nil
}

// SetEmployment records the renter employment step fields.
func (w *Workflow) SetEmployment(details model.EmploymentDetails) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.kind != model.KindRenter {
		return validationErrorf("employment details apply only to renter verification")
	}
	if w.submitted {
		return validationErrorf("verification already submitted")
	}
	d := details
	w.employment = &d
	w.hasUnsavedChanges = true
	return nil
}

// IsStepComplete reports whether the numbered step's requirements are met.
func (w *Workflow) IsStepComplete(step int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stepComplete(step)
}

func (w *Workflow) stepComplete(step int) bool {
	switch {
	case step == stepDocuments:
		for _, slot := range w.documents {
			if slot.Status != SlotUploaded {
				return false
			}
		}
		return true
	case w.kind == model.KindRenter && step == stepEmployment:
		return w.employment != nil &&
			w.employment.EmployerName != "" &&
			w.employment.Occupation != "" &&
			w.employment.AnnualIncome > 0
	case step == totalSteps(w.kind):
		// Review step: everything before it must be complete.
		for s := 1; s < step; s++ {
			if !w.stepComplete(s) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// AdvanceStep moves the wizard forward by one step, gated on the current
// step being complete. The step number never passes the final step.
func (w *Workflow) AdvanceStep() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitted {
		return validationErrorf("verification already submitted")
	}
	if !w.stepComplete(w.currentStep) {
		return validationErrorf("step %d is incomplete", w.currentStep)
	}
	if w.currentStep < totalSteps(w.kind) {
		w.currentStep++
	}
	return nil
}

// SetCurrentStep jumps backward to an earlier step without re-validating
// already-passed steps. Forward jumps must go through AdvanceStep.
func (w *Workflow) SetCurrentStep(step int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if step < 1 || step > totalSteps(w.kind) {
		return validationErrorf("step %d out of range", step)
	}
	if step > w.currentStep {
		return validationErrorf("cannot jump forward to step %d", step)
	}
	w.currentStep = step
	return nil
}

// Submit builds the submission payload and delivers it through the submitter
// collaborator. On success the workflow becomes terminal and the
// unsaved-changes flag clears; on failure state is left intact for a retry.
// Submit is not idempotent: callers must refuse re-submission of a workflow
// that already reports Submitted.
func (w *Workflow) Submit(ctx context.Context, paymentID string) error {
	w.mu.Lock()
	if !w.stepComplete(stepDocuments) {
		w.mu.Unlock()
		return validationErrorf("all required documents must be uploaded")
	}
	if w.kind == model.KindRenter && !w.stepComplete(stepEmployment) {
		w.mu.Unlock()
		return validationErrorf("employment details are incomplete")
	}
	payload := w.buildPayload(paymentID)
	w.mu.Unlock()

	if err := w.submitter.SubmitVerification(ctx, payload); err != nil {
		return &SubmissionFailure{Err: err}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.hasUnsavedChanges = false
	w.submitted = true
	w.submittedAt = time.Now()
	return nil
}

func (w *Workflow) buildPayload(paymentID string) model.SubmissionPayload {
	docs := make(map[string]model.SubmittedDocument, len(w.documents))
	for name, slot := range w.documents {
		if slot.File == nil {
			continue
		}
		docs[name] = model.SubmittedDocument{
			Type:       name,
			FileName:   slot.File.FileName,
			FileURL:    slot.File.FileURL,
			SizeBytes:  slot.File.SizeBytes,
			UploadedAt: slot.File.UploadedAt,
		}
	}
	payload := model.SubmissionPayload{
		Kind:      w.kind,
		UserID:    w.userID,
		Documents: docs,
		PaymentID: paymentID,
	}
	if w.kind == model.KindRenter && w.employment != nil {
		d := *w.employment
		payload.EmploymentDetails = &d
	}
	return payload
}

// ConfirmNavigateAway reports whether the hosting page must warn before
// navigating away: true iff there are unsaved changes. The workflow never
// blocks navigation itself.
func (w *Workflow) ConfirmNavigateAway() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hasUnsavedChanges
}

// Submitted reports whether the workflow reached its terminal state.
func (w *Workflow) Submitted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitted
}

// SubmittedAt returns when the workflow was submitted, zero if it wasn't.
func (w *Workflow) SubmittedAt() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submittedAt
}

// Snapshot is a point-in-time copy of the workflow for rendering.
type Snapshot struct {
	Kind              model.VerificationKind   `json:"kind"`
	CurrentStep       int                      `json:"current_step"`
	TotalSteps        int                      `json:"total_steps"`
	Documents         map[string]DocumentSlot  `json:"documents"`
	Employment        *model.EmploymentDetails `json:"employment,omitempty"`
	HasUnsavedChanges bool                     `json:"has_unsaved_changes"`
	Submitted         bool                     `json:"submitted"`
}

// Snapshot returns a deep copy of the current state.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	docs := make(map[string]DocumentSlot, len(w.documents))
	for name, slot := range w.documents {
		s := *slot
		if slot.File != nil {
			f := *slot.File
			s.File = &f
		}
		docs[name] = s
	}
	snap := Snapshot{
		Kind:              w.kind,
		CurrentStep:       w.currentStep,
		TotalSteps:        totalSteps(w.kind),
		Documents:         docs,
		HasUnsavedChanges: w.hasUnsavedChanges,
		Submitted:         w.submitted,
	}
	if w.employment != nil {
		d := *w.employment
		snap.Employment = &d
	}
	return snap
}
