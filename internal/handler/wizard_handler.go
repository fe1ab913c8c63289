package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careerbird/grant-match-api/internal/dto"
	"github.com/careerbird/grant-match-api/internal/models"
	"github.com/careerbird/grant-match-api/pkg/response"
)

type profileWizardService interface {
	State(ctx context.Context, actor models.Actor) (*dto.ProfileWizardState, error)
	Next(ctx context.Context, actor models.Actor, form models.ProfileDraft) (*dto.ProfileWizardState, error)
	Back(ctx context.Context, actor models.Actor) (*dto.ProfileWizardState, error)
	Jump(ctx context.Context, actor models.Actor, target string) (*dto.ProfileWizardState, error)
}

// WizardHandler drives the multi-step profile wizard.
type WizardHandler struct {
	wizard profileWizardService
}

// NewWizardHandler constructs WizardHandler.
func NewWizardHandler(wizard profileWizardService) *WizardHandler {
	return &WizardHandler{wizard: wizard}
}

// State godoc
// @Summary Current profile wizard state
// @Tags Wizard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /wizard/profile [get]
func (h *WizardHandler) State(c *gin.Context) {
	h.respond(c)(h.wizard.State(c.Request.Context(), actorFromContext(c)))
}

// Next godoc
// @Summary Save the current step and advance
// @Tags Wizard
// @Accept json
// @Produce json
// @Param payload body models.ProfileDraft true "Fields of the current step"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /wizard/profile/next [post]
func (h *WizardHandler) Next(c *gin.Context) {
	var form models.ProfileDraft
	if c.Request.ContentLength != 0 && !bindJSON(c, &form) {
		return
	}
	h.respond(c)(h.wizard.Next(c.Request.Context(), actorFromContext(c), form))
}

// Back godoc
// @Summary Save the current step and go back
// @Tags Wizard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /wizard/profile/back [post]
func (h *WizardHandler) Back(c *gin.Context) {
	h.respond(c)(h.wizard.Back(c.Request.Context(), actorFromContext(c)))
}

// Jump godoc
// @Summary Move to any step
// @Tags Wizard
// @Accept json
// @Produce json
// @Param payload body dto.JumpRequest true "Target step"
// @Success 200 {object} response.Envelope
// @Router /wizard/profile/jump [post]
func (h *WizardHandler) Jump(c *gin.Context) {
	var req dto.JumpRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respond(c)(h.wizard.Jump(c.Request.Context(), actorFromContext(c), req.Step))
}

func (h *WizardHandler) respond(c *gin.Context) func(*dto.ProfileWizardState, error) {
	return func(state *dto.ProfileWizardState, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, state, nil)
	}
}
