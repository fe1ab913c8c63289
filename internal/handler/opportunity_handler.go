package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/careerbird/grant-match-api/internal/dto"
	"github.com/careerbird/grant-match-api/internal/middleware"
	"github.com/careerbird/grant-match-api/internal/models"
	"github.com/careerbird/grant-match-api/pkg/response"
)

type opportunityService interface {
	List(ctx context.Context, actor models.Actor, filter models.OpportunityFilter) ([]dto.OpportunityView, *models.Pagination, bool, error)
	Get(ctx context.Context, actor models.Actor, id string) (*dto.OpportunityView, error)
	Create(ctx context.Context, actor models.Actor, req dto.OpportunityRequest) (*dto.OpportunityView, error)
	Update(ctx context.Context, actor models.Actor, id string, req dto.OpportunityRequest) (*dto.OpportunityView, error)
	Save(ctx context.Context, actor models.Actor, id string) error
	Unsave(ctx context.Context, actor models.Actor, id string) error
	ListSaved(ctx context.Context, actor models.Actor) ([]dto.OpportunityView, error)
	ListUniversities(ctx context.Context, search string) ([]models.University, error)
}

// OpportunityHandler exposes grant listings and bookmarks.
type OpportunityHandler struct {
	opportunities opportunityService
}

// NewOpportunityHandler constructs OpportunityHandler.
func NewOpportunityHandler(opportunities opportunityService) *OpportunityHandler {
	return &OpportunityHandler{opportunities: opportunities}
}

// List godoc
// @Summary List grants
// @Tags Opportunities
// @Produce json
// @Param q query string false "Search title, description, university"
// @Param degree query []string false "Degree levels" collectionFormat(multi)
// @Param country query []string false "Countries" collectionFormat(multi)
// @Param field query []string false "Fields of study" collectionFormat(multi)
// @Param type query string false "Grant type"
// @Param featured query bool false "Only featured grants"
// @Param open query bool false "Hide grants whose deadline has passed"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "deadline, created_at or title"
// @Param order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /opportunities [get]
func (h *OpportunityHandler) List(c *gin.Context) {
	filter := models.OpportunityFilter{
		Search:       strings.TrimSpace(c.Query("q")),
		DegreeLevels: queryList(c, "degree"),
		Countries:    queryList(c, "country"),
		Fields:       queryList(c, "field"),
		Type:         c.Query("type"),
		OpenOnly:     c.Query("open") == "true",
		SortBy:       c.Query("sort"),
		SortOrder:    c.Query("order"),
	}
	switch c.Query("featured") {
	case "true":
		v := true
		filter.Featured = &v
	case "false":
		v := false
		filter.Featured = &v
	}
	filter.Page, filter.PageSize = paging(c)

	items, pagination, cacheHit, err := h.opportunities.List(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, items, pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Grant detail with urgency and match score
// @Tags Opportunities
// @Produce json
// @Param id path string true "Opportunity ID"
// @Success 200 {object} response.Envelope
// @Router /opportunities/{id} [get]
func (h *OpportunityHandler) Get(c *gin.Context) {
	item, err := h.opportunities.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Post a grant
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param payload body dto.OpportunityRequest true "Grant payload"
// @Success 201 {object} response.Envelope
// @Router /opportunities [post]
func (h *OpportunityHandler) Create(c *gin.Context) {
	var req dto.OpportunityRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.opportunities.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update a grant
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param id path string true "Opportunity ID"
// @Param payload body dto.OpportunityRequest true "Grant payload"
// @Success 200 {object} response.Envelope
// @Router /opportunities/{id} [put]
func (h *OpportunityHandler) Update(c *gin.Context) {
	var req dto.OpportunityRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.opportunities.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Save godoc
// @Summary Bookmark a grant
// @Tags Opportunities
// @Param id path string true "Opportunity ID"
// @Success 204
// @Router /opportunities/{id}/save [post]
func (h *OpportunityHandler) Save(c *gin.Context) {
	if err := h.opportunities.Save(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Unsave godoc
// @Summary Remove a bookmark
// @Tags Opportunities
// @Param id path string true "Opportunity ID"
// @Success 204
// @Router /opportunities/{id}/save [delete]
func (h *OpportunityHandler) Unsave(c *gin.Context) {
	if err := h.opportunities.Unsave(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Saved godoc
// @Summary List bookmarked grants
// @Tags Opportunities
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /opportunities/saved [get]
func (h *OpportunityHandler) Saved(c *gin.Context) {
	items, err := h.opportunities.ListSaved(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Universities godoc
// @Summary List universities
// @Tags Opportunities
// @Produce json
// @Param q query string false "Name search"
// @Success 200 {object} response.Envelope
// @Router /universities [get]
func (h *OpportunityHandler) Universities(c *gin.Context) {
	items, err := h.opportunities.ListUniversities(c.Request.Context(), strings.TrimSpace(c.Query("q")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
