package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Document keys follow verification/<userID>/<kind>/<slot><ext> so that one
// user's documents for one workflow live under a single prefix and a
// re-upload to the same slot overwrites the previous object.

// DocumentKey builds the object key for a verification document.
func DocumentKey(userID, kind, slot, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("verification/%s/%s/%s%s", userID, kind, slot, ext)
}

// ParseDocumentKey extracts the components of a document key.
func ParseDocumentKey(key string) (userID, kind, slot string, ok bool) {
	parts := strings.Split(key, "/")
	if len(parts) != 4 || parts[0] != "verification" {
		return "", "", "", false
	}
	slot = strings.TrimSuffix(parts[3], filepath.Ext(parts[3]))
	if parts[1] == "" || parts[2] == "" || slot == "" {
		return "", "", "", false
	}
	return parts[1], parts[2], slot, true
}

// ContentTypeFor maps an accepted document extension to its MIME type.
func ContentTypeFor(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
