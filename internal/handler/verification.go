package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/homer-app/marketplace-platform/internal/middleware"
	"github.com/homer-app/marketplace-platform/internal/model"
	"github.com/homer-app/marketplace-platform/internal/service"
	"github.com/homer-app/marketplace-platform/internal/verification"
	"github.com/homer-app/marketplace-platform/pkg/logger"
)

// maxUploadMemory bounds the multipart form parse buffer; larger parts
// spill to disk.
const maxUploadMemory = 8 << 20

// VerificationHandler handles verification workflow endpoints.
type VerificationHandler struct {
	service *service.VerificationService
	logger  *logger.Logger
}

// NewVerificationHandler creates a new verification handler.
func NewVerificationHandler(svc *service.VerificationService, log *logger.Logger) *VerificationHandler {
	return &VerificationHandler{
		service: svc,
		logger:  log,
	}
}

func kindParam(r *http.Request) (model.VerificationKind, bool) {
	kind := model.VerificationKind(chi.URLParam(r, "kind"))
	return kind, kind.Valid()
}

// Start handles POST /api/v1/verification/{kind}
func (h *VerificationHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	kind, ok := kindParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown verification kind")
		return
	}

	wf, err := h.service.Start(userID, kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, wf.Snapshot())
}

// Get handles GET /api/v1/verification/{kind}
func (h *VerificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	kind, ok := kindParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown verification kind")
		return
	}

	wf, err := h.service.Get(userID, kind)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, wf.Snapshot())
}

// UploadDocument handles POST /api/v1/verification/{kind}/documents/{slot}
// as a multipart form with a single "file" part.
func (h *VerificationHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	kind, ok := kindParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown verification kind")
		return
	}
	slot := chi.URLParam(r, "slot")

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file part is required")
		return
	}
	defer file.Close()

	err = h.service.SubmitDocument(ctx, userID, kind, slot, verification.Upload{
		FileName:  header.Filename,
		SizeBytes: header.Size,
		Content:   file,
	})
	if err != nil {
		writeVerificationError(w, err)
		return
	}

	wf, err := h.service.Get(userID, kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, wf.Snapshot())
}

// RemoveDocument handles DELETE /api/v1/verification/{kind}/documents/{slot}
func (h *VerificationHandler) RemoveDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	kind, ok := kindParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown verification kind")
		return
	}
	slot := chi.URLParam(r, "slot")

	if err := h.service.RemoveDocument(ctx, userID, kind, slot); err != nil {
		writeVerificationError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Step handles POST /api/v1/verification/{kind}/step
func (h *VerificationHandler) Step(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	kind, ok := kindParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown verification kind")
		return
	}

	wf, err := h.service.Get(userID, kind)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var req model.StepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Action == "advance" {
		err = wf.AdvanceStep()
	} else if req.Step > 0 {
		err = wf.SetCurrentStep(req.Step)
	} else {
		writeError(w, http.StatusBadRequest, "specify action=advance or a step number")
		return
	}
	if err != nil {
		writeVerificationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, wf.Snapshot())
}

// SetEmployment handles PUT /api/v1/verification/{kind}/employment
func (h *VerificationHandler) SetEmployment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	kind, ok := kindParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown verification kind")
		return
	}

	wf, err := h.service.Get(userID, kind)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var details model.EmploymentDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := wf.SetEmployment(details); err != nil {
		writeVerificationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, wf.Snapshot())
}

// Submit handles POST /api/v1/verification/{kind}/submit
func (h *VerificationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	kind, ok := kindParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown verification kind")
		return
	}

	var req model.SubmitVerificationRequest
	if r.Body != nil {
		// Body is optional; ignore decode errors on an empty body.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.service.Submit(ctx, userID, kind, req.PaymentID); err != nil {
		writeVerificationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.service.Status(userID, kind))
}

// Status handles GET /api/v1/verification/{kind}/status
func (h *VerificationHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	kind, ok := kindParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown verification kind")
		return
	}

	writeJSON(w, http.StatusOK, h.service.Status(userID, kind))
}

// Unsaved handles GET /api/v1/verification/{kind}/unsaved — the
// navigate-away predicate consulted by the hosting page.
func (h *VerificationHandler) Unsaved(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	kind, ok := kindParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown verification kind")
		return
	}

	wf, err := h.service.Get(userID, kind)
	if err != nil {
		writeJSON(w, http.StatusOK, model.UnsavedChangesResponse{HasUnsavedChanges: false})
		return
	}

	writeJSON(w, http.StatusOK, model.UnsavedChangesResponse{
		HasUnsavedChanges: wf.ConfirmNavigateAway(),
	})
}
