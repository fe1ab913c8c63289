package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careerbird/grant-match-api/internal/dto"
	"github.com/careerbird/grant-match-api/internal/middleware"
	"github.com/careerbird/grant-match-api/internal/models"
	"github.com/careerbird/grant-match-api/pkg/response"
	"github.com/careerbird/grant-match-api/pkg/upload"
)

type profileService interface {
	Get(ctx context.Context, actor models.Actor) (*dto.ProfileResponse, error)
	Update(ctx context.Context, actor models.Actor, form models.ProfileDraft) (*dto.ProfileResponse, error)
	UploadDocument(ctx context.Context, actor models.Actor, kind, filename string, f upload.File, size int64) (*dto.DocumentView, []string, error)
	ListDocuments(ctx context.Context, actor models.Actor) ([]dto.DocumentView, error)
	Search(ctx context.Context, actor models.Actor, q string) ([]models.ProfileSearchResult, error)
}

// ProfileHandler exposes the caller's profile and documents.
type ProfileHandler struct {
	profiles profileService
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(profiles profileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Get godoc
// @Summary Get own profile with completeness
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Update godoc
// @Summary Create or update own profile
// @Tags Profile
// @Accept json
// @Produce json
// @Param payload body models.ProfileDraft true "Profile fields"
// @Success 200 {object} response.Envelope
// @Router /profile [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	var form models.ProfileDraft
	if !bindJSON(c, &form) {
		return
	}
	profile, err := h.profiles.Update(c.Request.Context(), actorFromContext(c), form)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// UploadDocument godoc
// @Summary Upload a profile document
// @Tags Profile
// @Accept multipart/form-data
// @Produce json
// @Param kind formData string true "transcript, cv, recommendation or other"
// @Param file formData file true "Document"
// @Success 201 {object} response.Envelope
// @Router /profile/documents [post]
func (h *ProfileHandler) UploadDocument(c *gin.Context) {
	file, header, ok := formFile(c)
	if !ok {
		return
	}
	defer file.Close()

	doc, warnings, err := h.profiles.UploadDocument(c.Request.Context(), actorFromContext(c), c.PostForm("kind"), header.Filename, file, header.Size)
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := middleware.ExtractMeta(c)
	if len(warnings) > 0 {
		if meta == nil {
			meta = map[string]interface{}{}
		}
		meta["warnings"] = warnings
	}
	response.Created(c, doc, meta)
}

// ListDocuments godoc
// @Summary List own profile documents
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /profile/documents [get]
func (h *ProfileHandler) ListDocuments(c *gin.Context) {
	docs, err := h.profiles.ListDocuments(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, nil)
}

// Search godoc
// @Summary Search profiles by name or title
// @Tags Profile
// @Produce json
// @Param q query string true "At least 2 characters"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /profiles/search [get]
func (h *ProfileHandler) Search(c *gin.Context) {
	results, err := h.profiles.Search(c.Request.Context(), actorFromContext(c), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}
