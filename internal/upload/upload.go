// Package upload accepts report photos and stores them in object storage,
// returning the durable public URL the report keeps.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"laporan/internal/storage"
)

// Stored names are random UUIDs, so a stored object never changes.
const photoCacheControl = "public, max-age=31536000, immutable"

var (
	ErrFormatNotAllowed = errors.New("file format not allowed")
	ErrReaderNil        = errors.New("reader is nil")
)

// UploadError is returned for any failed upload. Op names the failing step.
type UploadError struct {
	Op  string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Op, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Uploaded describes a stored photo.
type Uploaded struct {
	URL          string
	StoredName   string
	OriginalName string
}

// Uploader is the object upload service consumed by the report service.
type Uploader interface {
	// Upload stores the binary and returns its public URL and stored name.
	Upload(ctx context.Context, r io.Reader, originalName, contentType string, size int64) (Uploaded, error)
	// Remove deletes a previously stored object by its stored name.
	Remove(ctx context.Context, storedName string) error
}

// ObjectUploader stores uploads under a folder of an S3-compatible bucket.
type ObjectUploader struct {
	store   storage.Storage
	folder  string
	allowed map[string]struct{}
}

// NewObjectUploader creates an uploader. allowedFormats are extensions without dot (e.g. "jpg").
// An empty list accepts any extension.
func NewObjectUploader(store storage.Storage, folder string, allowedFormats []string) *ObjectUploader {
	allowed := make(map[string]struct{}, len(allowedFormats))
	for _, f := range allowedFormats {
		allowed[strings.ToLower(strings.TrimPrefix(f, "."))] = struct{}{}
	}
	return &ObjectUploader{
		store:   store,
		folder:  strings.Trim(folder, "/"),
		allowed: allowed,
	}
}

var _ Uploader = (*ObjectUploader)(nil)

func (u *ObjectUploader) Upload(ctx context.Context, r io.Reader, originalName, contentType string, size int64) (Uploaded, error) {
	if r == nil {
		return Uploaded{}, &UploadError{Op: "validate", Err: ErrReaderNil}
	}
	ext := strings.ToLower(filepath.Ext(originalName))
	if !u.formatAllowed(ext) {
		return Uploaded{}, &UploadError{Op: "validate", Err: fmt.Errorf("%w: %q", ErrFormatNotAllowed, ext)}
	}

	key := path.Join(u.folder, uuid.NewString()+ext)
	info, err := u.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:         size,
		ContentType:  contentType,
		CacheControl: photoCacheControl,
		Metadata: map[string]string{
			"original-filename": originalName,
		},
	})
	if err != nil {
		return Uploaded{}, &UploadError{Op: "put", Err: err}
	}

	return Uploaded{
		URL:          u.store.URL(info.Key),
		StoredName:   info.Key,
		OriginalName: originalName,
	}, nil
}

func (u *ObjectUploader) Remove(ctx context.Context, storedName string) error {
	if storedName == "" {
		return nil
	}
	if err := u.store.Delete(ctx, storedName); err != nil {
		return &UploadError{Op: "remove", Err: err}
	}
	return nil
}

func (u *ObjectUploader) formatAllowed(ext string) bool {
	if len(u.allowed) == 0 {
		return true
	}
	_, ok := u.allowed[strings.TrimPrefix(ext, ".")]
	return ok
}
