package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/homer-app/marketplace-platform/internal/model"
)

type fakeUploader struct {
	calls    int
	failWith error
	progress []int
}

func (f *fakeUploader) Upload(ctx context.Context, userID string, kind model.VerificationKind, slot string, up Upload, progress ProgressFunc) (FileInfo, error) {
	f.calls++
	for _, pct := range []int{25, 50, 75, 90} {
		progress(pct)
		f.progress = append(f.progress, pct)
	}
	if f.failWith != nil {
		return FileInfo{}, f.failWith
	}
	return FileInfo{
		FileName:   up.FileName,
		SizeBytes:  up.SizeBytes,
		FileURL:    "https://store.example/" + slot,
		UploadedAt: time.Now(),
	}, nil
}

type fakeSubmitter struct {
	calls    int
	failWith error
	payloads []model.SubmissionPayload
}

func (f *fakeSubmitter) SubmitVerification(ctx context.Context, payload model.SubmissionPayload) error {
	f.calls++
	f.payloads = append(f.payloads, payload)
	return f.failWith
}

func newTestWorkflow(kind model.VerificationKind) (*Workflow, *fakeUploader, *fakeSubmitter) {
	up := &fakeUploader{}
	sub := &fakeSubmitter{}
	return New("user-1", kind, DefaultLimits(), up, sub), up, sub
}

func validUpload(name string) Upload {
	return Upload{FileName: name, SizeBytes: 1024, Content: strings.NewReader("data")}
}

func uploadAll(t *testing.T, wf *Workflow) {
	t.Helper()
	for _, slot := range wf.SlotNames() {
		if err := wf.SubmitFile(context.Background(), slot, validUpload(slot+".pdf")); err != nil {
			t.Fatalf("SubmitFile(%s): %v", slot, err)
		}
	}
}

func TestSubmitFileValidUploadTransitionsToUploaded(t *testing.T) {
	wf, up, _ := newTestWorkflow(model.KindRenter)

	if err := wf.SubmitFile(context.Background(), "idProof", validUpload("passport.pdf")); err != nil {
		t.Fatalf("SubmitFile: %v", err)
	}
	if up.calls != 1 {
		t.Fatalf("uploader calls = %d, want 1", up.calls)
	}

	slot := wf.Snapshot().Documents["idProof"]
	if slot.Status != SlotUploaded {
		t.Fatalf("status = %s, want uploaded", slot.Status)
	}
	if slot.File == nil || slot.File.FileName != "passport.pdf" {
		t.Fatalf("file = %+v, want passport.pdf", slot.File)
	}
	if slot.ErrorMessage != "" {
		t.Fatalf("errorMessage = %q, want empty", slot.ErrorMessage)
	}
	if slot.Progress != 100 {
		t.Fatalf("progress = %d, want 100", slot.Progress)
	}
}

func TestSubmitFileOversizedFailsWithoutCollaboratorCall(t *testing.T) {
	wf, up, _ := newTestWorkflow(model.KindRenter)

	err := wf.SubmitFile(context.Background(), "idProof", Upload{
		FileName:  "huge.pdf",
		SizeBytes: 6 * 1024 * 1024,
		Content:   strings.NewReader("x"),
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if !strings.Contains(verr.Message, "5MB") {
		t.Fatalf("message %q does not mention the 5MB limit", verr.Message)
	}
	if up.calls != 0 {
		t.Fatalf("collaborator was called %d times, want 0", up.calls)
	}

	slot := wf.Snapshot().Documents["idProof"]
	if slot.Status != SlotError {
		t.Fatalf("status = %s, want error", slot.Status)
	}
	if slot.File != nil {
		t.Fatalf("file = %+v, want nil", slot.File)
	}
}

func TestSubmitFileRejectedExtension(t *testing.T) {
	wf, up, _ := newTestWorkflow(model.KindRenter)

	err := wf.SubmitFile(context.Background(), "idProof", validUpload("script.exe"))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if up.calls != 0 {
		t.Fatalf("collaborator was called")
	}
}

func TestSubmitFileExtensionCaseInsensitive(t *testing.T) {
	wf, _, _ := newTestWorkflow(model.KindRenter)
	if err := wf.SubmitFile(context.Background(), "idProof", validUpload("SCAN.PDF")); err != nil {
		t.Fatalf("SubmitFile: %v", err)
	}
}

func TestSubmitFileCollaboratorFailure(t *testing.T) {
	wf, up, _ := newTestWorkflow(model.KindRenter)
	up.failWith = fmt.Errorf("storage unreachable")

	err := wf.SubmitFile(context.Background(), "idProof", validUpload("passport.pdf"))
	var uerr *UploadFailure
	if !errors.As(err, &uerr) {
		t.Fatalf("error = %v, want UploadFailure", err)
	}

	slot := wf.Snapshot().Documents["idProof"]
	if slot.Status != SlotError {
		t.Fatalf("status = %s, want error", slot.Status)
	}
	if !strings.Contains(slot.ErrorMessage, "storage unreachable") {
		t.Fatalf("errorMessage = %q, want collaborator message", slot.ErrorMessage)
	}
	if slot.Progress != 0 {
		t.Fatalf("progress = %d, want 0 after failure", slot.Progress)
	}

	// Retry from error succeeds.
	up.failWith = nil
	if err := wf.SubmitFile(context.Background(), "idProof", validUpload("passport.pdf")); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got := wf.Snapshot().Documents["idProof"].Status; got != SlotUploaded {
		t.Fatalf("status after retry = %s, want uploaded", got)
	}
}

func TestSubmitFileUnknownSlot(t *testing.T) {
	wf, _, _ := newTestWorkflow(model.KindRenter)
	err := wf.SubmitFile(context.Background(), "nonsense", validUpload("a.pdf"))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
}

func TestRemoveFileResetsSlotButNotDirtyFlag(t *testing.T) {
	wf, _, _ := newTestWorkflow(model.KindRenter)

	if err := wf.SubmitFile(context.Background(), "idProof", validUpload("passport.pdf")); err != nil {
		t.Fatalf("SubmitFile: %v", err)
	}
	if !wf.ConfirmNavigateAway() {
		t.Fatalf("expected unsaved changes after upload")
	}

	if err := wf.RemoveFile("idProof"); err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}
	slot := wf.Snapshot().Documents["idProof"]
	if slot.Status != SlotEmpty || slot.File != nil || slot.ErrorMessage != "" {
		t.Fatalf("slot = %+v, want empty", slot)
	}

	// Removal leaves the dirty flag alone, matching observed behavior.
	if !wf.ConfirmNavigateAway() {
		t.Fatalf("RemoveFile cleared hasUnsavedChanges")
	}
}

// blockingUploader signals when the upload is in flight and waits for the
// test to release it, so state changes can be interleaved mid-transfer.
type blockingUploader struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingUploader) Upload(ctx context.Context, userID string, kind model.VerificationKind, slot string, up Upload, progress ProgressFunc) (FileInfo, error) {
	close(b.started)
	<-b.release
	return FileInfo{FileName: up.FileName, SizeBytes: up.SizeBytes, FileURL: "u", UploadedAt: time.Now()}, nil
}

func TestRemoveFileDuringInFlightUploadDiscardsResult(t *testing.T) {
	up := &blockingUploader{started: make(chan struct{}), release: make(chan struct{})}
	wf := New("user-1", model.KindRenter, DefaultLimits(), up, &fakeSubmitter{})

	done := make(chan error, 1)
	go func() {
		done <- wf.SubmitFile(context.Background(), "idProof", validUpload("passport.pdf"))
	}()

	<-up.started
	if got := wf.Snapshot().Documents["idProof"].Status; got != SlotUploading {
		t.Fatalf("status = %s, want uploading", got)
	}
	if err := wf.RemoveFile("idProof"); err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}
	close(up.release)
	if err := <-done; err != nil {
		t.Fatalf("SubmitFile: %v", err)
	}

	// The removal won the race; the finished upload must not resurrect the
	// slot or mark unsaved changes.
	slot := wf.Snapshot().Documents["idProof"]
	if slot.Status != SlotEmpty || slot.File != nil {
		t.Fatalf("slot = %+v, want empty after mid-upload removal", slot)
	}
	if wf.ConfirmNavigateAway() {
		t.Fatalf("unsaved changes set for a discarded upload")
	}
}

func TestAdvanceStepGatedOnDocuments(t *testing.T) {
	wf, _, _ := newTestWorkflow(model.KindRenter)

	// One slot uploaded, one empty: advance must fail and not move.
	if err := wf.SubmitFile(context.Background(), "idProof", validUpload("id.pdf")); err != nil {
		t.Fatalf("SubmitFile: %v", err)
	}
	err := wf.AdvanceStep()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if got := wf.Snapshot().CurrentStep; got != 1 {
		t.Fatalf("currentStep = %d, want 1", got)
	}

	if err := wf.SubmitFile(context.Background(), "incomeProof", validUpload("pay.pdf")); err != nil {
		t.Fatalf("SubmitFile: %v", err)
	}
	if err := wf.AdvanceStep(); err != nil {
		t.Fatalf("AdvanceStep: %v", err)
	}
	if got := wf.Snapshot().CurrentStep; got != 2 {
		t.Fatalf("currentStep = %d, want 2", got)
	}
}

func TestEmploymentStepGating(t *testing.T) {
	wf, _, _ := newTestWorkflow(model.KindRenter)
	uploadAll(t, wf)
	if err := wf.AdvanceStep(); err != nil {
		t.Fatalf("AdvanceStep to employment: %v", err)
	}

	if wf.IsStepComplete(2) {
		t.Fatalf("employment step complete with no details")
	}
	if err := wf.SetEmployment(model.EmploymentDetails{EmployerName: "Acme", Occupation: "Engineer"}); err != nil {
		t.Fatalf("SetEmployment: %v", err)
	}
	if wf.IsStepComplete(2) {
		t.Fatalf("employment step complete with zero income")
	}
	if err := wf.SetEmployment(model.EmploymentDetails{EmployerName: "Acme", Occupation: "Engineer", AnnualIncome: 90000}); err != nil {
		t.Fatalf("SetEmployment: %v", err)
	}
	if !wf.IsStepComplete(2) {
		t.Fatalf("employment step incomplete with valid details")
	}

	if err := wf.AdvanceStep(); err != nil {
		t.Fatalf("AdvanceStep to review: %v", err)
	}
	if got := wf.Snapshot().CurrentStep; got != 3 {
		t.Fatalf("currentStep = %d, want 3", got)
	}
	// Capped at the final step.
	if err := wf.AdvanceStep(); err != nil {
		t.Fatalf("AdvanceStep at final step: %v", err)
	}
	if got := wf.Snapshot().CurrentStep; got != 3 {
		t.Fatalf("currentStep = %d, want capped at 3", got)
	}
}

func TestOwnerWorkflowHasTwoSteps(t *testing.T) {
	wf, _, _ := newTestWorkflow(model.KindOwner)

	snap := wf.Snapshot()
	if snap.TotalSteps != 2 {
		t.Fatalf("totalSteps = %d, want 2", snap.TotalSteps)
	}
	if _, ok := snap.Documents["ownerIdProof"]; !ok {
		t.Fatalf("missing ownerIdProof slot: %v", snap.Documents)
	}
	if _, ok := snap.Documents["ownershipProof"]; !ok {
		t.Fatalf("missing ownershipProof slot: %v", snap.Documents)
	}

	if err := wf.SetEmployment(model.EmploymentDetails{EmployerName: "x"}); err == nil {
		t.Fatalf("SetEmployment on owner workflow should fail")
	}
}

func TestSetCurrentStepBackwardOnly(t *testing.T) {
	wf, _, _ := newTestWorkflow(model.KindRenter)
	uploadAll(t, wf)
	if err := wf.AdvanceStep(); err != nil {
		t.Fatalf("AdvanceStep: %v", err)
	}

	// Backward jump permitted unconditionally.
	if err := wf.SetCurrentStep(1); err != nil {
		t.Fatalf("SetCurrentStep(1): %v", err)
	}
	// Forward jump rejected.
	if err := wf.SetCurrentStep(3); err == nil {
		t.Fatalf("forward jump allowed")
	}
	// Out of range rejected.
	if err := wf.SetCurrentStep(0); err == nil {
		t.Fatalf("step 0 allowed")
	}
}

func TestSubmitLifecycle(t *testing.T) {
	wf, _, sub := newTestWorkflow(model.KindRenter)

	if wf.ConfirmNavigateAway() {
		t.Fatalf("unsaved changes before any upload")
	}

	// Submit before documents complete fails.
	if err := wf.Submit(context.Background(), ""); err == nil {
		t.Fatalf("Submit succeeded with empty slots")
	}

	uploadAll(t, wf)
	if !wf.ConfirmNavigateAway() {
		t.Fatalf("no unsaved changes after upload")
	}

	// Renter submit still blocked on employment.
	if err := wf.Submit(context.Background(), ""); err == nil {
		t.Fatalf("Submit succeeded without employment details")
	}
	if err := wf.SetEmployment(model.EmploymentDetails{EmployerName: "Acme", Occupation: "Engineer", AnnualIncome: 80000}); err != nil {
		t.Fatalf("SetEmployment: %v", err)
	}

	if err := wf.Submit(context.Background(), "pay-123"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !wf.Submitted() {
		t.Fatalf("not submitted")
	}
	if wf.ConfirmNavigateAway() {
		t.Fatalf("unsaved changes remain after successful submit")
	}

	if sub.calls != 1 {
		t.Fatalf("submitter calls = %d, want 1", sub.calls)
	}
	payload := sub.payloads[0]
	if payload.PaymentID != "pay-123" {
		t.Fatalf("paymentID = %q", payload.PaymentID)
	}
	if len(payload.Documents) != 2 {
		t.Fatalf("documents = %d, want 2", len(payload.Documents))
	}
	if payload.EmploymentDetails == nil || payload.EmploymentDetails.AnnualIncome != 80000 {
		t.Fatalf("employment = %+v", payload.EmploymentDetails)
	}
	for name, doc := range payload.Documents {
		if doc.Type != name || doc.FileURL == "" {
			t.Fatalf("document %s = %+v", name, doc)
		}
	}
}

func TestSubmitFailureLeavesStateIntact(t *testing.T) {
	wf, _, sub := newTestWorkflow(model.KindOwner)
	uploadAll(t, wf)
	sub.failWith = fmt.Errorf("backend down")

	err := wf.Submit(context.Background(), "")
	var serr *SubmissionFailure
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want SubmissionFailure", err)
	}
	if wf.Submitted() {
		t.Fatalf("workflow marked submitted after failure")
	}
	if !wf.ConfirmNavigateAway() {
		t.Fatalf("unsaved changes lost after failed submit")
	}

	// Retry without re-uploading.
	sub.failWith = nil
	if err := wf.Submit(context.Background(), ""); err != nil {
		t.Fatalf("retry submit: %v", err)
	}
}

func TestSubmittedWorkflowFreezesSlots(t *testing.T) {
	wf, _, _ := newTestWorkflow(model.KindOwner)
	uploadAll(t, wf)
	if err := wf.Submit(context.Background(), ""); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := wf.SubmitFile(context.Background(), "ownerIdProof", validUpload("new.pdf")); err == nil {
		t.Fatalf("SubmitFile allowed after submission")
	}
	if err := wf.RemoveFile("ownerIdProof"); err == nil {
		t.Fatalf("RemoveFile allowed after submission")
	}
	if err := wf.AdvanceStep(); err == nil {
		t.Fatalf("AdvanceStep allowed after submission")
	}
}

func TestProgressIsMonotonicAndCappedAt90DuringTransfer(t *testing.T) {
	var wf *Workflow
	var stored []int
	// The uploader reports out-of-order and over-range percentages; the
	// workflow must store a monotonic sequence clamped to 90 until the
	// upload finishes.
	uploader := &recordingUploader{after: func() {
		stored = append(stored, wf.Snapshot().Documents["idProof"].Progress)
	}}
	wf = New("user-1", model.KindRenter, DefaultLimits(), uploader, &fakeSubmitter{})

	if err := wf.SubmitFile(context.Background(), "idProof", validUpload("a.pdf")); err != nil {
		t.Fatalf("SubmitFile: %v", err)
	}

	last := -1
	for _, pct := range stored {
		if pct < last {
			t.Fatalf("stored progress went backward: %v", stored)
		}
		if pct > 90 {
			t.Fatalf("stored transfer progress exceeded 90: %v", stored)
		}
		last = pct
	}
	if got := wf.Snapshot().Documents["idProof"].Progress; got != 100 {
		t.Fatalf("final progress = %d, want 100", got)
	}
}

// recordingUploader reads back the slot's stored progress after each
// callback so the test observes the clamped values.
type recordingUploader struct {
	after func()
}

func (r *recordingUploader) Upload(ctx context.Context, userID string, kind model.VerificationKind, slot string, up Upload, progress ProgressFunc) (FileInfo, error) {
	for _, pct := range []int{10, 95, 50, 100} {
		progress(pct)
		if r.after != nil {
			r.after()
		}
	}
	return FileInfo{FileName: up.FileName, SizeBytes: up.SizeBytes, FileURL: "u", UploadedAt: time.Now()}, nil
}
