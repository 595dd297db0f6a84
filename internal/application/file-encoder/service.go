// internal/application/file-encoder/service.go
package fileencoder

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"applicant-portal/internal/common/logger"
	"applicant-portal/internal/common/metrics"
	"applicant-portal/internal/models"
	"applicant-portal/pkg/registry"
)

var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

type Encoder struct {
	config *Config
	logger logger.Logger
}

func NewEncoder(config *Config, log logger.Logger) *Encoder {
	if config == nil {
		config = LoadConfig()
	}
	return &Encoder{
		config: config,
		logger: logger.ForComponent(log, "file-encoder"),
	}
}

// OpenFile prepares a file on disk for encoding. The returned File owns the
// open handle; Encode closes it.
func OpenFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return File{}, err
	}
	if info.IsDir() {
		f.Close()
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	return File{
		Name:     filepath.Base(path),
		Size:     info.Size(),
		MimeType: DetectMimeType(path),
		Reader:   f,
	}, nil
}

// DetectMimeType derives a MIME type from the file extension.
func DetectMimeType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if base, _, err := mime.ParseMediaType(t); err == nil {
			return base
		}
		return t
	}
	return ""
}

func normalizeMimeType(file File) string {
	t := strings.ToLower(strings.TrimSpace(file.MimeType))
	if t == "" {
		return DetectMimeType(file.Name)
	}
	if base, _, err := mime.ParseMediaType(t); err == nil {
		t = base
	}
	if t == "image/jpg" {
		t = "image/jpeg"
	}
	return t
}

// Preflight runs the size and type checks without reading the file.
// Size is compared strictly, so a file exactly at the limit passes.
func (e *Encoder) Preflight(file File, slot registry.Slot) error {
	mimeType := normalizeMimeType(file)

	if slot.MaxSize > 0 && file.Size > slot.MaxSize {
		return e.reject(&FileError{
			Kind:     TooLarge,
			FileName: file.Name,
			MimeType: mimeType,
			Size:     file.Size,
			Limit:    slot.MaxSize,
		})
	}

	accepted := slot.AcceptedTypes
	if len(accepted) == 0 {
		accepted = registry.DefaultAcceptedTypes
	}
	if !contains(accepted, mimeType) {
		return e.reject(&FileError{
			Kind:     UnsupportedType,
			FileName: file.Name,
			MimeType: mimeType,
			Size:     file.Size,
			Limit:    slot.MaxSize,
		})
	}
	return nil
}

// Encode preflights the file, reads it and produces a data-URL attachment.
func (e *Encoder) Encode(ctx context.Context, file File, slot registry.Slot) (*models.Attachment, error) {
	if closer, ok := file.Reader.(io.Closer); ok {
		defer closer.Close()
	}

	if err := e.Preflight(file, slot); err != nil {
		return nil, err
	}
	if file.Reader == nil {
		return nil, e.reject(&FileError{Kind: ReadFailed, FileName: file.Name, Err: fmt.Errorf("no content")})
	}
	if err := ctx.Err(); err != nil {
		return nil, e.reject(&FileError{Kind: ReadFailed, FileName: file.Name, Err: err})
	}

	metrics.EncodesInFlight.Inc()
	defer metrics.EncodesInFlight.Dec()

	mimeType := normalizeMimeType(file)
	reader := file.Reader
	if slot.MaxSize > 0 {
		// one extra byte tells an overlong stream from one exactly at the limit
		reader = io.LimitReader(reader, slot.MaxSize+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, e.reject(&FileError{Kind: ReadFailed, FileName: file.Name, MimeType: mimeType, Err: err})
	}
	if slot.MaxSize > 0 && int64(len(data)) > slot.MaxSize {
		return nil, e.reject(&FileError{
			Kind:     TooLarge,
			FileName: file.Name,
			MimeType: mimeType,
			Size:     int64(len(data)),
			Limit:    slot.MaxSize,
		})
	}
	if err := ctx.Err(); err != nil {
		return nil, e.reject(&FileError{Kind: ReadFailed, FileName: file.Name, MimeType: mimeType, Err: err})
	}

	e.logger.Debug("file encoded", map[string]interface{}{
		"slot":     slot.Name,
		"fileName": file.Name,
		"size":     len(data),
	})

	return &models.Attachment{
		Name:           file.Name,
		Size:           int64(len(data)),
		MimeType:       mimeType,
		EncodedContent: models.DataURL(mimeType, data),
	}, nil
}

// EncodeAsync runs Encode on its own goroutine and calls done exactly once.
func (e *Encoder) EncodeAsync(ctx context.Context, file File, slot registry.Slot, done func(Result)) {
	go func() {
		var res Result
		defer func() {
			if r := recover(); r != nil {
				res = Result{Err: e.reject(&FileError{Kind: ReadFailed, FileName: file.Name, Err: fmt.Errorf("panic: %v", r)})}
			}
			done(res)
		}()
		att, err := e.Encode(ctx, file, slot)
		res = Result{Attachment: att, Err: err}
	}()
}

func (e *Encoder) reject(fe *FileError) *FileError {
	fe.pdfCompressor = e.config.PDFCompressorURL
	fe.imageCompressor = e.config.ImageCompressorURL
	metrics.FileRejections.WithLabelValues(string(fe.Kind)).Inc()
	e.logger.Info("file rejected", map[string]interface{}{
		"reason":   fe.Kind,
		"fileName": fe.FileName,
		"mimeType": fe.MimeType,
	})
	return fe
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
