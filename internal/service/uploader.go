package service

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	appErrors "github.com/careerbird/grant-match-api/pkg/errors"
	"github.com/careerbird/grant-match-api/pkg/storage"
	"github.com/careerbird/grant-match-api/pkg/upload"
)

// UploadConfig tunes how uploads are checked.
type UploadConfig struct {
	MaxBytes int64
	// Enforce turns the advisory type and size warnings into validation errors.
	Enforce bool
}

// FileUploader inspects uploads and writes them to the object store.
type FileUploader struct {
	store   storage.ObjectStore
	metrics *MetricsService
	cfg     UploadConfig
}

// NewFileUploader wires the object store used for profile documents and tryout deliverables.
func NewFileUploader(store storage.ObjectStore, metrics *MetricsService, cfg UploadConfig) *FileUploader {
	return &FileUploader{store: store, metrics: metrics, cfg: cfg}
}

func (u *FileUploader) put(ctx context.Context, kind, filename string, f upload.File, size int64, prefix ...string) (*storage.Object, *upload.Report, error) {
	if u == nil || u.store == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrInternal, "object storage not configured")
	}
	if f == nil || size <= 0 {
		return nil, nil, appErrors.Validation("file is required", "file")
	}
	report, err := upload.Inspect(kind, filename, f, size, u.cfg.MaxBytes)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "file could not be read")
	}
	if u.cfg.Enforce && !report.OK() {
		return nil, report, appErrors.WithDetails(appErrors.ErrValidation, "file rejected", map[string]interface{}{
			"fields":   []string{"file"},
			"warnings": report.Warnings,
		})
	}

	ext := strings.ToLower(filepath.Ext(filename))
	key := storage.Key(append(prefix, uuid.NewString()+ext)...)
	obj, err := u.store.Put(ctx, key, f, size, report.ContentType)
	if err != nil {
		return nil, report, appErrors.SaveFailed(err)
	}
	u.metrics.RecordUpload(kind, report.OK())
	return obj, report, nil
}

// discard removes an object whose reference could not be recorded or was replaced.
func (u *FileUploader) discard(ctx context.Context, key string) error {
	if u == nil || u.store == nil || key == "" {
		return nil
	}
	return u.store.Delete(ctx, key)
}

func (u *FileUploader) url(ctx context.Context, key string) string {
	if u == nil || u.store == nil || key == "" {
		return ""
	}
	url, err := u.store.URL(ctx, key)
	if err != nil {
		return ""
	}
	return url
}
