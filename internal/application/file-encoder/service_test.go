// internal/application/file-encoder/service_test.go
package fileencoder

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"testing/iotest"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "applicant-portal/internal/common/errors"
	"applicant-portal/internal/common/logger"
	"applicant-portal/internal/common/metrics"
	"applicant-portal/internal/models"
	"applicant-portal/pkg/registry"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestEncoder(t *testing.T) *Encoder {
	return NewEncoder(LoadConfig(), logger.NewTestLogger(t))
}

func createTestSlot(maxSize int64) registry.Slot {
	return registry.Slot{
		Name:          models.SlotPassportFront,
		Label:         "Passport (front page)",
		Required:      true,
		AcceptedTypes: registry.DefaultAcceptedTypes,
		MaxSize:       maxSize,
	}
}

func fileOf(name, mimeType string, content []byte) File {
	return File{
		Name:     name,
		Size:     int64(len(content)),
		MimeType: mimeType,
		Reader:   bytes.NewReader(content),
	}
}

func asFileError(t *testing.T, err error) *FileError {
	t.Helper()
	var fe *FileError
	require.True(t, errors.As(err, &fe), "expected *FileError, got %T", err)
	return fe
}

// ==========================
// Preflight
// ==========================

func TestPreflight_SizeBoundary(t *testing.T) {
	enc := createTestEncoder(t)
	const limit = 2 * 1024 * 1024

	tests := []struct {
		name    string
		size    int64
		wantErr bool
	}{
		{name: "below limit", size: limit - 1},
		{name: "exactly at limit", size: limit},
		{name: "one byte over", size: limit + 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := enc.Preflight(File{Name: "scan.pdf", Size: tt.size, MimeType: "application/pdf"}, createTestSlot(limit))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			fe := asFileError(t, err)
			assert.Equal(t, TooLarge, fe.Kind)
			assert.Equal(t, "scan.pdf", fe.FileName)
			assert.Equal(t, "application/pdf", fe.MimeType)
			assert.Equal(t, int64(limit), fe.Limit)
			assert.Equal(t, perrors.ErrCodeFileTooLarge, fe.Code())
		})
	}
}

func TestPreflight_Types(t *testing.T) {
	enc := createTestEncoder(t)
	slot := createTestSlot(1024)

	tests := []struct {
		name     string
		file     File
		wantKind FileErrorKind
	}{
		{name: "pdf", file: File{Name: "a.pdf", MimeType: "application/pdf"}},
		{name: "jpeg", file: File{Name: "a.jpeg", MimeType: "image/jpeg"}},
		{name: "jpg alias", file: File{Name: "a.jpg", MimeType: "image/jpg"}},
		{name: "png derived from extension", file: File{Name: "PHOTO.PNG"}},
		{name: "word document", file: File{Name: "cv.docx", MimeType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document"}, wantKind: UnsupportedType},
		{name: "gif", file: File{Name: "a.gif", MimeType: "image/gif"}, wantKind: UnsupportedType},
		{name: "no type no extension", file: File{Name: "README"}, wantKind: UnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := enc.Preflight(tt.file, slot)
			if tt.wantKind == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantKind, asFileError(t, err).Kind)
		})
	}
}

func TestPreflight_CountsRejections(t *testing.T) {
	enc := createTestEncoder(t)
	before := testutil.ToFloat64(metrics.FileRejections.WithLabelValues(string(UnsupportedType)))

	_ = enc.Preflight(File{Name: "a.exe", MimeType: "application/octet-stream"}, createTestSlot(10))

	after := testutil.ToFloat64(metrics.FileRejections.WithLabelValues(string(UnsupportedType)))
	assert.Equal(t, before+1, after)
}

// ==========================
// Encode
// ==========================

func TestEncode_RoundTrip(t *testing.T) {
	enc := createTestEncoder(t)
	content := []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0xff, 0x10, 0x0a}

	att, err := enc.Encode(context.Background(), fileOf("passport.pdf", "application/pdf", content), createTestSlot(1024))
	require.NoError(t, err)

	assert.Equal(t, "passport.pdf", att.Name)
	assert.Equal(t, int64(len(content)), att.Size)
	assert.Equal(t, "application/pdf", att.MimeType)
	assert.Regexp(t, `^data:application/pdf;base64,`, att.EncodedContent)

	decoded, err := att.Bytes()
	require.NoError(t, err)
	assert.Equal(t, content, decoded)
}

func TestEncode_ExactlyAtLimit(t *testing.T) {
	enc := createTestEncoder(t)
	content := bytes.Repeat([]byte{0xab}, 4096)

	att, err := enc.Encode(context.Background(), fileOf("photo.png", "image/png", content), createTestSlot(4096))
	require.NoError(t, err)
	assert.Equal(t, int64(4096), att.Size)
}

func TestEncode_UnderstatedSizeStillRejected(t *testing.T) {
	enc := createTestEncoder(t)
	content := bytes.Repeat([]byte{1}, 100)
	file := fileOf("photo.png", "image/png", content)
	file.Size = 10

	_, err := enc.Encode(context.Background(), file, createTestSlot(50))
	fe := asFileError(t, err)
	assert.Equal(t, TooLarge, fe.Kind)
	assert.Equal(t, int64(51), fe.Size)
}

func TestEncode_ReadFailure(t *testing.T) {
	enc := createTestEncoder(t)
	file := File{
		Name:     "broken.pdf",
		Size:     10,
		MimeType: "application/pdf",
		Reader:   iotest.ErrReader(errors.New("disk gone")),
	}

	_, err := enc.Encode(context.Background(), file, createTestSlot(100))
	fe := asFileError(t, err)
	assert.Equal(t, ReadFailed, fe.Kind)
	assert.ErrorContains(t, err, "disk gone")
	assert.Empty(t, fe.RemediationURL())
}

func TestEncode_CanceledContext(t *testing.T) {
	enc := createTestEncoder(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := enc.Encode(ctx, fileOf("a.pdf", "application/pdf", []byte("x")), createTestSlot(10))
	fe := asFileError(t, err)
	assert.Equal(t, ReadFailed, fe.Kind)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEncode_ClosesReader(t *testing.T) {
	enc := createTestEncoder(t)
	path := filepath.Join(t.TempDir(), "medical.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))

	file, err := OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, "medical.pdf", file.Name)
	assert.Equal(t, int64(8), file.Size)
	assert.Equal(t, "application/pdf", file.MimeType)

	_, err = enc.Encode(context.Background(), file, createTestSlot(100))
	require.NoError(t, err)

	_, err = file.Reader.(*os.File).Read(make([]byte, 1))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestOpenFile_Errors(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)

	_, err = OpenFile(t.TempDir())
	assert.Error(t, err)
}

// ==========================
// EncodeAsync
// ==========================

func TestEncodeAsync_CallsDoneOnce(t *testing.T) {
	enc := createTestEncoder(t)

	tests := []struct {
		name    string
		file    File
		wantErr bool
	}{
		{name: "success", file: fileOf("a.png", "image/png", []byte("png"))},
		{name: "too large", file: fileOf("a.png", "image/png", bytes.Repeat([]byte{1}, 20)), wantErr: true},
		{name: "panicking reader", file: File{Name: "a.png", Size: 3, MimeType: "image/png", Reader: panicReader{}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			results := make(chan Result, 2)
			enc.EncodeAsync(context.Background(), tt.file, createTestSlot(10), func(r Result) {
				atomic.AddInt32(&calls, 1)
				results <- r
			})

			select {
			case r := <-results:
				if tt.wantErr {
					assert.Error(t, r.Err)
					assert.Nil(t, r.Attachment)
				} else {
					assert.NoError(t, r.Err)
					assert.NotNil(t, r.Attachment)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("done was never called")
			}

			time.Sleep(20 * time.Millisecond)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		})
	}
}

type panicReader struct{}

func (panicReader) Read([]byte) (int, error) { panic("boom") }

// ==========================
// FileError
// ==========================

func TestFileError_RemediationURL(t *testing.T) {
	enc := createTestEncoder(t)
	cfg := LoadConfig()

	pdfErr := asFileError(t, enc.Preflight(File{Name: "a.pdf", Size: 11, MimeType: "application/pdf"}, createTestSlot(10)))
	assert.Equal(t, cfg.PDFCompressorURL, pdfErr.RemediationURL())

	imgErr := asFileError(t, enc.Preflight(File{Name: "a.jpg", Size: 11, MimeType: "image/jpeg"}, createTestSlot(10)))
	assert.Equal(t, cfg.ImageCompressorURL, imgErr.RemediationURL())

	typeErr := asFileError(t, enc.Preflight(File{Name: "a.gif", Size: 1, MimeType: "image/gif"}, createTestSlot(10)))
	assert.Empty(t, typeErr.RemediationURL())
	assert.Contains(t, typeErr.Error(), "unsupported file type")
}
