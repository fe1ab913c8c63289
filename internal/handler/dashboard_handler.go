package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careerbird/grant-match-api/internal/dto"
	"github.com/careerbird/grant-match-api/internal/middleware"
	"github.com/careerbird/grant-match-api/internal/models"
	appErrors "github.com/careerbird/grant-match-api/pkg/errors"
	"github.com/careerbird/grant-match-api/pkg/response"
)

type dashboardService interface {
	Student(ctx context.Context, actor models.Actor) (*dto.StudentDashboard, error)
}

type mobilityService interface {
	Checklist(ctx context.Context, actor models.Actor) (*dto.MobilityChecklist, error)
}

// DashboardHandler wires the student landing pages to HTTP endpoints.
type DashboardHandler struct {
	dashboard dashboardService
	mobility  mobilityService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(dashboard dashboardService, mobility mobilityService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, mobility: mobility}
}

// Student godoc
// @Summary Student dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	if h.dashboard == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	summary, err := h.dashboard.Student(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil, middleware.ExtractMeta(c))
}

// Mobility godoc
// @Summary Pre-departure checklist
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /mobility [get]
func (h *DashboardHandler) Mobility(c *gin.Context) {
	if h.mobility == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	checklist, err := h.mobility.Checklist(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, checklist, nil)
}
