package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careerbird/grant-match-api/internal/dto"
	"github.com/careerbird/grant-match-api/internal/models"
	"github.com/careerbird/grant-match-api/internal/service"
	"github.com/careerbird/grant-match-api/pkg/response"
)

type reviewService interface {
	Applicants(ctx context.Context, actor models.Actor, opportunityID string, filter models.ApplicantFilter) ([]models.ApplicationDetail, error)
	Review(ctx context.Context, actor models.Actor, applicationID string, req dto.ReviewRequest) (*models.ApplicationDetail, error)
}

type exportService interface {
	Applicants(ctx context.Context, actor models.Actor, opportunityID, format string) (*service.ExportFile, error)
}

// ReviewHandler exposes the professor's applicant queue.
type ReviewHandler struct {
	reviews reviewService
	exports exportService
}

// NewReviewHandler constructs ReviewHandler.
func NewReviewHandler(reviews reviewService, exports exportService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, exports: exports}
}

// Applicants godoc
// @Summary Ranked applicants of a grant
// @Tags Review
// @Produce json
// @Param id path string true "Opportunity ID"
// @Param q query string false "Name, application id, origin, university, research interest or status"
// @Param status query []string false "Statuses" collectionFormat(multi)
// @Success 200 {object} response.Envelope
// @Router /opportunities/{id}/applicants [get]
func (h *ReviewHandler) Applicants(c *gin.Context) {
	filter := models.ApplicantFilter{Query: c.Query("q")}
	for _, s := range queryList(c, "status") {
		filter.Statuses = append(filter.Statuses, models.ApplicationStatus(s))
	}
	items, err := h.reviews.Applicants(c.Request.Context(), actorFromContext(c), c.Param("id"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Review godoc
// @Summary Record a review decision
// @Tags Review
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.ReviewRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/review [post]
func (h *ReviewHandler) Review(c *gin.Context) {
	var req dto.ReviewRequest
	if !bindJSON(c, &req) {
		return
	}
	app, err := h.reviews.Review(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// Export godoc
// @Summary Export the ranked shortlist
// @Tags Review
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Opportunity ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Router /opportunities/{id}/applicants/export [get]
func (h *ReviewHandler) Export(c *gin.Context) {
	file, err := h.exports.Applicants(c.Request.Context(), actorFromContext(c), c.Param("id"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
