// Package upload loads local files for upload and checks them against the content
// types the portfolio API accepts.
package upload

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxResumeBytes is the largest resume the API accepts.
const MaxResumeBytes = 5 << 20

// MaxImageBytes is the largest metadata image the API accepts.
const MaxImageBytes = 5 << 20

// Resume content types
const (
	TypePDF  = "application/pdf"
	TypeDOC  = "application/msword"
	TypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ResumeTypes lists the accepted resume content types.
var ResumeTypes = []string{TypePDF, TypeDOCX, TypeDOC}

// ResumeLabels lists the file extensions shown to users for ResumeTypes.
var ResumeLabels = []string{".pdf", ".docx", ".doc"}

// UnsupportedResumeMessage is shown when a file outside ResumeTypes is picked.
const UnsupportedResumeMessage = "Unsupported file type. Please upload a PDF or Word doc."

// File is an in-memory file ready to be sent as a multipart part.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the payload length in bytes.
func (f *File) Size() int64 {
	return int64(len(f.Data))
}

// extensionTypes is consulted when sniffing only finds a container format (zip or
// OLE storage) that the extension narrows down.
var extensionTypes = map[string]string{
	".pdf":  TypePDF,
	".doc":  TypeDOC,
	".docx": TypeDOCX,
}

// Open reads the file at path and detects its content type from its bytes.
func Open(path string, maxBytes int64) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, &ValidationError{Field: "file", Message: fmt.Sprintf("%s is a directory", path)}
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return nil, &ValidationError{Field: "file", Message: fmt.Sprintf("file is larger than %d bytes", maxBytes)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return &File{
		Name:        filepath.Base(path),
		ContentType: DetectContentType(filepath.Base(path), data),
		Data:        data,
	}, nil
}

// DetectContentType sniffs data, falling back to the file extension for generic
// container formats.
func DetectContentType(name string, data []byte) string {
	detected := mimetype.Detect(data)
	contentType := baseType(detected.String())

	switch {
	case detected.Is("application/zip"), detected.Is("application/x-ole-storage"), detected.Is("application/octet-stream"):
		if byExt, ok := extensionTypes[strings.ToLower(filepath.Ext(name))]; ok {
			return byExt
		}
	}
	return contentType
}

func baseType(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(base)
}

// IsResumeType reports whether contentType is one of ResumeTypes.
func IsResumeType(contentType string) bool {
	contentType = baseType(contentType)
	for _, allowed := range ResumeTypes {
		if contentType == allowed {
			return true
		}
	}
	return false
}

// ValidateResume checks a resume before it is sent anywhere.
func ValidateResume(f *File) error {
	if f == nil {
		return &ValidationError{Field: "file", Message: "no file selected"}
	}
	if !IsResumeType(f.ContentType) {
		return &ValidationError{Field: "file", Message: UnsupportedResumeMessage}
	}
	if f.Size() == 0 {
		return &ValidationError{Field: "file", Message: "file is empty"}
	}
	if f.Size() > MaxResumeBytes {
		return &ValidationError{Field: "file", Message: fmt.Sprintf("file is larger than %d bytes", MaxResumeBytes)}
	}
	return nil
}

// ValidateImage checks a metadata image (social card, anagram, favicon).
func ValidateImage(f *File) error {
	if f == nil {
		return &ValidationError{Field: "image", Message: "no file selected"}
	}
	if !strings.HasPrefix(baseType(f.ContentType), "image/") {
		return &ValidationError{Field: "image", Message: fmt.Sprintf("%s is not an image", f.Name)}
	}
	if f.Size() > MaxImageBytes {
		return &ValidationError{Field: "image", Message: fmt.Sprintf("%s is larger than %d bytes", f.Name, MaxImageBytes)}
	}
	return nil
}
