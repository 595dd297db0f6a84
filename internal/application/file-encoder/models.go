// internal/application/file-encoder/models.go
package fileencoder

import (
	"fmt"
	"io"

	perrors "applicant-portal/internal/common/errors"
	"applicant-portal/internal/models"
)

// File is a picked file that has not been read yet. Reader is owned by the
// encoder until encoding finishes.
type File struct {
	Name     string
	Size     int64
	MimeType string
	Reader   io.Reader
}

type FileErrorKind string

const (
	TooLarge        FileErrorKind = "too_large"
	UnsupportedType FileErrorKind = "unsupported_type"
	ReadFailed      FileErrorKind = "read_failed"
)

// FileError is a local, recoverable rejection of a picked file.
type FileError struct {
	Kind     FileErrorKind
	FileName string
	MimeType string
	Size     int64
	Limit    int64
	Err      error

	pdfCompressor   string
	imageCompressor string
}

func (e *FileError) Error() string {
	switch e.Kind {
	case TooLarge:
		return fmt.Sprintf("%s is too large (%d bytes, limit %d bytes)", e.FileName, e.Size, e.Limit)
	case UnsupportedType:
		return fmt.Sprintf("%s has an unsupported file type %q; use PDF, JPG or PNG", e.FileName, e.MimeType)
	default:
		return fmt.Sprintf("could not read %s: %v", e.FileName, e.Err)
	}
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Code maps the kind onto the portal error codes.
func (e *FileError) Code() perrors.ErrorCode {
	switch e.Kind {
	case TooLarge:
		return perrors.ErrCodeFileTooLarge
	case UnsupportedType:
		return perrors.ErrCodeUnsupportedType
	default:
		return perrors.ErrCodeFileReadFailed
	}
}

// RemediationURL points at a compressor for oversize files: a PDF tool for
// PDFs, an image tool otherwise. Other kinds have no remediation.
func (e *FileError) RemediationURL() string {
	if e.Kind != TooLarge {
		return ""
	}
	if e.MimeType == "application/pdf" {
		return e.pdfCompressor
	}
	return e.imageCompressor
}

// Result is delivered exactly once per EncodeAsync call.
type Result struct {
	Attachment *models.Attachment
	Err        error
}
