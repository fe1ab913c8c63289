package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careerbird/grant-match-api/internal/dto"
	"github.com/careerbird/grant-match-api/internal/models"
	"github.com/careerbird/grant-match-api/pkg/response"
)

type applicationService interface {
	Start(ctx context.Context, actor models.Actor, opportunityID string) (*models.Application, bool, error)
	List(ctx context.Context, actor models.Actor, filter models.ApplicationFilter) ([]dto.ApplicationView, *models.Pagination, error)
	Get(ctx context.Context, actor models.Actor, id string) (*dto.ApplicationView, error)
	Submit(ctx context.Context, actor models.Actor, id string) (*dto.ApplicationView, error)
}

// ApplicationHandler exposes a student's grant applications.
type ApplicationHandler struct {
	applications applicationService
}

// NewApplicationHandler constructs ApplicationHandler.
func NewApplicationHandler(applications applicationService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications}
}

// Start godoc
// @Summary Start an application
// @Description Returns the existing application when the student already applied.
// @Tags Applications
// @Produce json
// @Param id path string true "Opportunity ID"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Router /opportunities/{id}/applications [post]
func (h *ApplicationHandler) Start(c *gin.Context) {
	app, created, err := h.applications.Start(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.JSON(c, status, app, nil)
}

// List godoc
// @Summary List own applications
// @Tags Applications
// @Produce json
// @Param status query []string false "Statuses" collectionFormat(multi)
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /applications [get]
func (h *ApplicationHandler) List(c *gin.Context) {
	var filter models.ApplicationFilter
	for _, s := range queryList(c, "status") {
		filter.Statuses = append(filter.Statuses, models.ApplicationStatus(s))
	}
	filter.Page, filter.PageSize = paging(c)

	items, pagination, err := h.applications.List(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Application detail
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c *gin.Context) {
	app, err := h.applications.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// Submit godoc
// @Summary Submit a draft application
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/submit [post]
func (h *ApplicationHandler) Submit(c *gin.Context) {
	app, err := h.applications.Submit(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}
