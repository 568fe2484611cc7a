package utils

import (
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
)

// GenerateID returns a fresh uuid string for document ids and blob keys.
func GenerateID() string {
	return uuid.New().String()
}

// --- Image Validation ---

// SupportedImageTypes is the upload allow-list. Anything else is rejected
// before the blob store is touched.
var SupportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// SanitizeFilename removes potentially dangerous characters
func SanitizeFilename(name string) string {
	// Remove any path traversal, non-alphanumeric (except dash/underscore/dot)
	re := regexp.MustCompile(`[^\w.\-]`)
	clean := re.ReplaceAllString(filepath.Base(name), "_")
	if clean == "" {
		return "file"
	}
	return clean
}
