package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careerbird/grant-match-api/internal/dto"
	"github.com/careerbird/grant-match-api/internal/models"
	"github.com/careerbird/grant-match-api/pkg/response"
	"github.com/careerbird/grant-match-api/pkg/upload"
)

type tryoutService interface {
	State(ctx context.Context, actor models.Actor, applicationID string) (*dto.TryoutState, error)
	Upload(ctx context.Context, actor models.Actor, applicationID, kind, filename string, f upload.File, size int64) (*dto.TryoutState, error)
	Clear(ctx context.Context, actor models.Actor, applicationID, kind string) (*dto.TryoutState, error)
	Next(ctx context.Context, actor models.Actor, applicationID string) (*dto.TryoutState, error)
	Back(ctx context.Context, actor models.Actor, applicationID string) (*dto.TryoutState, error)
	Submit(ctx context.Context, actor models.Actor, applicationID string) (*dto.TryoutState, error)
}

// TryoutHandler drives the deliverable upload wizard of an application.
type TryoutHandler struct {
	tryouts tryoutService
}

// NewTryoutHandler constructs TryoutHandler.
func NewTryoutHandler(tryouts tryoutService) *TryoutHandler {
	return &TryoutHandler{tryouts: tryouts}
}

// State godoc
// @Summary Tryout submission state
// @Tags Tryout
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/tryout [get]
func (h *TryoutHandler) State(c *gin.Context) {
	h.respond(c)(h.tryouts.State(c.Request.Context(), actorFromContext(c), c.Param("id")))
}

// Upload godoc
// @Summary Upload a deliverable
// @Description Type and size checks produce warnings unless enforcement is enabled.
// @Tags Tryout
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Application ID"
// @Param kind path string true "proposal, video or portfolio"
// @Param file formData file true "Deliverable"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/tryout/{kind} [put]
func (h *TryoutHandler) Upload(c *gin.Context) {
	file, header, ok := formFile(c)
	if !ok {
		return
	}
	defer file.Close()

	h.respond(c)(h.tryouts.Upload(c.Request.Context(), actorFromContext(c), c.Param("id"), c.Param("kind"), header.Filename, file, header.Size))
}

// Clear godoc
// @Summary Remove a deliverable
// @Tags Tryout
// @Produce json
// @Param id path string true "Application ID"
// @Param kind path string true "proposal, video or portfolio"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/tryout/{kind} [delete]
func (h *TryoutHandler) Clear(c *gin.Context) {
	h.respond(c)(h.tryouts.Clear(c.Request.Context(), actorFromContext(c), c.Param("id"), c.Param("kind")))
}

// Next godoc
// @Summary Advance the tryout wizard
// @Tags Tryout
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/tryout/next [post]
func (h *TryoutHandler) Next(c *gin.Context) {
	h.respond(c)(h.tryouts.Next(c.Request.Context(), actorFromContext(c), c.Param("id")))
}

// Back godoc
// @Summary Go back one tryout step
// @Tags Tryout
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/tryout/back [post]
func (h *TryoutHandler) Back(c *gin.Context) {
	h.respond(c)(h.tryouts.Back(c.Request.Context(), actorFromContext(c), c.Param("id")))
}

// Submit godoc
// @Summary Submit the tryout deliverables
// @Tags Tryout
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /applications/{id}/tryout/submit [post]
func (h *TryoutHandler) Submit(c *gin.Context) {
	h.respond(c)(h.tryouts.Submit(c.Request.Context(), actorFromContext(c), c.Param("id")))
}

func (h *TryoutHandler) respond(c *gin.Context) func(*dto.TryoutState, error) {
	return func(state *dto.TryoutState, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, state, nil)
	}
}
