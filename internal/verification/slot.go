package verification

import (
	"time"
)

// SlotStatus is the lifecycle state of one document slot.
type SlotStatus string

const (
	SlotEmpty     SlotStatus = "empty"
	SlotUploading SlotStatus = "uploading"
	SlotUploaded  SlotStatus = "uploaded"
	SlotError     SlotStatus = "error"
)

// FileInfo is the stored metadata of a successfully uploaded document.
// ObjectKey is the exact storage key the upload collaborator wrote to, kept
// so removal and replacement delete the right object.
type FileInfo struct {
	FileName   string    `json:"file_name"`
	SizeBytes  int64     `json:"size_bytes"`
	FileURL    string    `json:"file_url"`
	UploadedAt time.Time `json:"uploaded_at"`
	ObjectKey  string    `json:"-"`
}

// DocumentSlot is one named required-document upload target. Invariants:
// File is set iff status is uploaded, ErrorMessage is set iff status is
// error, and Progress is meaningful only while uploading.
type DocumentSlot struct {
	Status       SlotStatus `json:"status"`
	File         *FileInfo  `json:"file,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	Progress     int        `json:"upload_progress_percent,omitempty"`
}

// beginUpload moves the slot into uploading, clearing any previous outcome.
// Allowed from empty, error, and uploaded (replacing a file); not from
// uploading, which the caller must reject first.
func (s *DocumentSlot) beginUpload() {
	s.Status = SlotUploading
	s.File = nil
	s.ErrorMessage = ""
	s.Progress = 0
}

// advanceProgress raises the progress percentage, never lowering it and
// never past 100.
func (s *DocumentSlot) advanceProgress(pct int) {
	if s.Status != SlotUploading {
		return
	}
	if pct > 100 {
		pct = 100
	}
	if pct > s.Progress {
		s.Progress = pct
	}
}

// completeUpload records the stored file and finishes the slot.
func (s *DocumentSlot) completeUpload(info FileInfo) {
	s.Status = SlotUploaded
	s.File = &info
	s.ErrorMessage = ""
	s.Progress = 100
}

// fail records an error outcome. Progress resets so a retry starts clean.
func (s *DocumentSlot) fail(msg string) {
	s.Status = SlotError
	s.File = nil
	s.ErrorMessage = msg
	s.Progress = 0
}

// reset returns the slot to empty unconditionally.
func (s *DocumentSlot) reset() {
	*s = DocumentSlot{Status: SlotEmpty}
}
