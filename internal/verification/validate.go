package verification

import (
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// DefaultMaxSizeBytes is the default per-document size limit (5 MiB).
	DefaultMaxSizeBytes = 5 * 1024 * 1024

	// DefaultAcceptedFormats is the default comma-separated extension list.
	DefaultAcceptedFormats = ".pdf,.jpg,.jpeg,.png"
)

// Limits configures file acceptance for a workflow.
type Limits struct {
	MaxSizeBytes int64
	// AcceptedFormats is a comma-separated extension list, e.g. ".pdf,.png".
	AcceptedFormats string
}

// DefaultLimits returns the stock limits.
func DefaultLimits() Limits {
	return Limits{
		MaxSizeBytes:    DefaultMaxSizeBytes,
		AcceptedFormats: DefaultAcceptedFormats,
	}
}

func (l Limits) extensions() []string {
	var exts []string
	for _, e := range strings.Split(l.AcceptedFormats, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return exts
}

// checkFile validates a candidate upload against the limits. The returned
// error messages are user-facing and shown inline on the slot.
func (l Limits) checkFile(fileName string, sizeBytes int64) *ValidationError {
	if strings.TrimSpace(fileName) == "" {
		return validationErrorf("file name is required")
	}
	if sizeBytes <= 0 {
		return validationErrorf("file is empty")
	}
	if sizeBytes > l.MaxSizeBytes {
		return validationErrorf("file exceeds the %s limit", formatSize(l.MaxSizeBytes))
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, allowed := range l.extensions() {
		if ext == allowed {
			return nil
		}
	}
	return validationErrorf("file type %q is not accepted; allowed: %s", ext, l.AcceptedFormats)
}

// formatSize renders a byte count the way the UI talks about limits ("5MB").
func formatSize(n int64) string {
	const mib = 1024 * 1024
	if n >= mib {
		return strconv.FormatInt(n/mib, 10) + "MB"
	}
	return strconv.FormatInt(n/1024, 10) + "KB"
}
