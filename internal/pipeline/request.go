package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"resume-review/internal/shared/util"
)

// DefaultMaxDocumentBytes is the upload ceiling for a resume PDF.
const DefaultMaxDocumentBytes = 20 << 20

var (
	// ErrValidation is returned when a submission is missing a field or the file.
	ErrValidation = errors.New("validation failed")
	// ErrDocumentTooLarge is returned for files above the size ceiling.
	ErrDocumentTooLarge = errors.New("document too large")
	// ErrUnsupportedDocument is returned for anything other than a PDF.
	ErrUnsupportedDocument = errors.New("unsupported document type")
)

// Request is one analysis submission. It is consumed by a single run.
type Request struct {
	CompanyName    string
	JobTitle       string
	JobDescription string
	Document       []byte
	FileName       string
}

// ValidationError lists missing inputs.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: missing " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validate checks that every field and the document are present.
func (r Request) Validate() error {
	var missing []string
	if strings.TrimSpace(r.CompanyName) == "" {
		missing = append(missing, "companyName")
	}
	if strings.TrimSpace(r.JobTitle) == "" {
		missing = append(missing, "jobTitle")
	}
	if strings.TrimSpace(r.JobDescription) == "" {
		missing = append(missing, "jobDescription")
	}
	if len(r.Document) == 0 {
		missing = append(missing, "file")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// CheckDocument enforces the intake rules: one PDF no larger than maxBytes.
func CheckDocument(fileName, contentType string, size, maxBytes int64, head []byte) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDocumentBytes
	}
	if size > maxBytes {
		return fmt.Errorf("%w: %s exceeds the %s limit", ErrDocumentTooLarge, util.FormatSize(size), util.FormatSize(maxBytes))
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ext != ".pdf" && !strings.HasPrefix(ct, "application/pdf") {
		return fmt.Errorf("%w: only PDF files are accepted", ErrUnsupportedDocument)
	}
	if len(head) > 0 && !bytes.HasPrefix(head, []byte("%PDF-")) {
		return fmt.Errorf("%w: file content is not a PDF", ErrUnsupportedDocument)
	}
	return nil
}
