// README: Document metadata and upload validation rules.
package document

import (
	"time"

	"medreview/internal/types"
)

// MaxFileSize is the upload ceiling (50 MiB).
const MaxFileSize = 50 << 20

// allowedTypes is the MIME allow-list for medical uploads.
var allowedTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/dicom": true,
	"image/jpeg":        true,
	"image/png":         true,
	"image/gif":         true,
	"text/plain":        true,
}

// ValidateFile checks the size ceiling and the MIME allow-list.
func ValidateFile(size int64, mimeType string) error {
	if size <= 0 || size > MaxFileSize {
		return ErrInvalidFile
	}
	if !allowedTypes[mimeType] {
		return ErrInvalidFile
	}
	return nil
}

type Document struct {
	ID            types.ID
	OrderID       types.ID
	FileName      string // generated storage name
	OriginalName  string // user-supplied name
	FileSize      int64
	FileType      string
	FilePath      string // opaque locator resolved by the storage collaborator
	UploadedBy    types.ID
	IsActive      bool
	DownloadCount int64
	CreatedAt     time.Time
}
