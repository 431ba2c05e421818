package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/homer-app/marketplace-platform/internal/verification"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeVerificationError maps the verification failure taxonomy onto HTTP
// statuses: validation problems are the client's to fix, collaborator
// failures are upstream.
func writeVerificationError(w http.ResponseWriter, err error) {
	var verr *verification.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Message)
		return
	}
	var uerr *verification.UploadFailure
	if errors.As(err, &uerr) {
		writeError(w, http.StatusBadGateway, uerr.Error())
		return
	}
	var serr *verification.SubmissionFailure
	if errors.As(err, &serr) {
		writeError(w, http.StatusBadGateway, serr.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
