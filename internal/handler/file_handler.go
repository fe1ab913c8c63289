package handler

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"

	"github.com/gin-gonic/gin"

	appErrors "github.com/careerbird/grant-match-api/pkg/errors"
	"github.com/careerbird/grant-match-api/pkg/response"
	"github.com/careerbird/grant-match-api/pkg/storage"
)

// SignedFileStore is an object store that issues its own signed download tokens.
type SignedFileStore interface {
	Resolve(token string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// FileHandler serves files of the local object store behind signed links.
type FileHandler struct {
	store SignedFileStore
}

// NewFileHandler constructs FileHandler.
func NewFileHandler(store SignedFileStore) *FileHandler {
	return &FileHandler{store: store}
}

// Download godoc
// @Summary Download an uploaded file
// @Tags Files
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Router /files/{token} [get]
func (h *FileHandler) Download(c *gin.Context) {
	key, err := h.store.Resolve(c.Param("token"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "download link invalid or expired"))
		return
	}
	file, err := h.store.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "file not found"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer file.Close() //nolint:errcheck

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	response.AttachmentStream(c, path.Base(key), contentType, file)
}
