package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"storefront/internal/logger"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// MaxUploadSize is the largest image accepted, in bytes.
const MaxUploadSize int64 = 5 << 20

var (
	ErrNoFile   = errors.New("no file uploaded")
	ErrTooLarge = errors.New("file exceeds the 5 MiB limit")
	ErrNotImage = errors.New("only image files are allowed")
)

// Uploader stores uploaded images on local disk under dir.
type Uploader struct {
	dir     string
	maxSize int64
	now     func() time.Time
}

var UploaderTracer = otel.Tracer("Uploader")

func NewUploader(dir string) (*Uploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &Uploader{dir: dir, maxSize: MaxUploadSize, now: time.Now}, nil
}

func (u *Uploader) Dir() string {
	return u.dir
}

// Save validates and writes the file, returning the stored file name.
func (u *Uploader) Save(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	ctx, span := UploaderTracer.Start(ctx, "Uploader.Save")
	defer span.End()

	if fh == nil {
		return "", ErrNoFile
	}
	span.SetAttributes(attribute.Int64("upload.size", fh.Size))
	if fh.Size > u.maxSize {
		return "", ErrTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("detect upload type: %w", err)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		logger.Warn(ctx, "Rejected non-image upload", slog.String("mime", mtype.String()), slog.String("filename", fh.Filename))
		return "", ErrNotImage
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	name := u.fileName(mtype.Extension(), fh.Filename)
	if err := u.write(name, src); err != nil {
		return "", err
	}

	span.SetAttributes(attribute.String("upload.name", name), attribute.String("upload.mime", mtype.String()))
	logger.Info(ctx, "Image uploaded", slog.String("file", name), slog.Int64("size", fh.Size))
	return name, nil
}

// Remove deletes a stored file by name. Missing files are ignored.
func (u *Uploader) Remove(name string) error {
	if name == "" || filepath.Base(name) != name {
		return fmt.Errorf("invalid upload name %q", name)
	}
	err := os.Remove(filepath.Join(u.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (u *Uploader) write(name string, src io.Reader) error {
	dst, err := os.OpenFile(filepath.Join(u.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}

	n, err := io.Copy(dst, io.LimitReader(src, u.maxSize+1))
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err == nil && n > u.maxSize {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(dst.Name())
		if errors.Is(err, ErrTooLarge) {
			return err
		}
		return fmt.Errorf("write upload file: %w", err)
	}
	return nil
}

// fileName builds "<unix-millis>-<uuid><ext>", preferring the sniffed extension.
func (u *Uploader) fileName(sniffedExt, original string) string {
	ext := sniffedExt
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(original))
	}
	return fmt.Sprintf("%d-%s%s", u.now().UnixMilli(), uuid.NewString(), ext)
}
