package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/careerbird/grant-match-api/internal/dto"
	"github.com/careerbird/grant-match-api/internal/models"
	"github.com/careerbird/grant-match-api/internal/scoring"
	appErrors "github.com/careerbird/grant-match-api/pkg/errors"
)

const opportunityCachePrefix = "opportunities:"

type opportunityRepository interface {
	List(ctx context.Context, filter models.OpportunityFilter) ([]models.OpportunityDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.OpportunityDetail, error)
	ListOpen(ctx context.Context, today time.Time, limit int) ([]models.OpportunityDetail, error)
	Create(ctx context.Context, o *models.Opportunity) error
	Update(ctx context.Context, o *models.Opportunity) error
}

type savedOpportunityRepository interface {
	Save(ctx context.Context, userID, opportunityID string) error
	Delete(ctx context.Context, userID, opportunityID string) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.OpportunityDetail, error)
	SavedIDs(ctx context.Context, userID string, opportunityIDs []string) (map[string]bool, error)
}

type universityRepository interface {
	List(ctx context.Context, search string) ([]models.University, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type profileReader interface {
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
}

// cachedOpportunityPage is the cached shape of one listing page. Derived fields are not cached.
type cachedOpportunityPage struct {
	Items []models.OpportunityDetail `json:"items"`
	Total int                        `json:"total"`
}

// OpportunityService serves grant listings, details, bookmarks and professor edits.
type OpportunityService struct {
	repo         opportunityRepository
	saved        savedOpportunityRepository
	universities universityRepository
	profiles     profileReader
	cache        *CacheService
	metrics      *MetricsService
	views        viewBuilder
	validator    *validator.Validate
	logger       *zap.Logger
}

// OpportunityServiceConfig carries the scoring collaborators.
type OpportunityServiceConfig struct {
	Classifier *scoring.DeadlineClassifier
	Matcher    *scoring.Matcher
	Now        func() time.Time
}

// NewOpportunityService constructs an OpportunityService.
func NewOpportunityService(repo opportunityRepository, saved savedOpportunityRepository, universities universityRepository, profiles profileReader, cache *CacheService, metrics *MetricsService, cfg OpportunityServiceConfig, validate *validator.Validate, logger *zap.Logger) *OpportunityService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpportunityService{
		repo:         repo,
		saved:        saved,
		universities: universities,
		profiles:     profiles,
		cache:        cache,
		metrics:      metrics,
		views:        newViewBuilder(cfg.Classifier, cfg.Matcher, cfg.Now),
		validator:    validate,
		logger:       logger,
	}
}

// List returns a filtered page of grants. The boolean reports whether rows came from cache.
func (s *OpportunityService) List(ctx context.Context, actor models.Actor, filter models.OpportunityFilter) ([]dto.OpportunityView, *models.Pagination, bool, error) {
	if err := requireActor(actor); err != nil {
		return nil, nil, false, err
	}
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Type != "" && !validOpportunityType(filter.Type) {
		return nil, nil, false, appErrors.Validation("unknown opportunity type", "type")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	key := s.cache.Key(opportunityCachePrefix, opportunityCacheParts(filter)...)
	var page cachedOpportunityPage
	hit := s.cache.Lookup(ctx, key, &page)
	if !hit {
		start := time.Now()
		items, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, nil, false, internalError(err, "failed to list opportunities")
		}
		s.metrics.ObserveDBQuery("opportunities_list", time.Since(start))
		page = cachedOpportunityPage{Items: items, Total: total}
		s.cache.Store(ctx, key, page, 0)
	}

	views, err := s.decorate(ctx, actor, page.Items)
	if err != nil {
		return nil, nil, false, err
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: page.Total}
	return views, pagination, hit, nil
}

// Get returns one grant with urgency and, for students, the caller's match score.
func (s *OpportunityService) Get(ctx context.Context, actor models.Actor, id string) (*dto.OpportunityView, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	opp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "opportunity not found", "failed to load opportunity")
	}
	views, err := s.decorate(ctx, actor, []models.OpportunityDetail{*opp})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Create stores a new grant owned by the calling professor.
func (s *OpportunityService) Create(ctx context.Context, actor models.Actor, req dto.OpportunityRequest) (*dto.OpportunityView, error) {
	if err := requireRole(actor, models.RoleProfessor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validateRequest(ctx, req); err != nil {
		return nil, err
	}
	opp := &models.Opportunity{CreatedBy: actor.UserID}
	req.Apply(opp)
	if err := s.repo.Create(ctx, opp); err != nil {
		return nil, appErrors.SaveFailed(err)
	}
	s.invalidate(ctx)
	return s.Get(ctx, actor, opp.ID)
}

// Update changes a grant. Only its creator or an admin may edit it.
func (s *OpportunityService) Update(ctx context.Context, actor models.Actor, id string, req dto.OpportunityRequest) (*dto.OpportunityView, error) {
	if err := requireRole(actor, models.RoleProfessor, models.RoleAdmin); err != nil {
		return nil, err
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "opportunity not found", "failed to load opportunity")
	}
	if actor.Role != models.RoleAdmin && existing.CreatedBy != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the creator can edit this opportunity")
	}
	if err := s.validateRequest(ctx, req); err != nil {
		return nil, err
	}
	opp := existing.Opportunity
	req.Apply(&opp)
	if err := s.repo.Update(ctx, &opp); err != nil {
		return nil, appErrors.SaveFailed(err)
	}
	s.invalidate(ctx)
	return s.Get(ctx, actor, id)
}

// Save bookmarks a grant for the caller.
func (s *OpportunityService) Save(ctx context.Context, actor models.Actor, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return lookupError(err, "opportunity not found", "failed to load opportunity")
	}
	if err := s.saved.Save(ctx, actor.UserID, id); err != nil {
		return appErrors.SaveFailed(err)
	}
	return nil
}

// Unsave removes a bookmark.
func (s *OpportunityService) Unsave(ctx context.Context, actor models.Actor, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if err := s.saved.Delete(ctx, actor.UserID, id); err != nil {
		return appErrors.SaveFailed(err)
	}
	return nil
}

// ListSaved returns the caller's bookmarks.
func (s *OpportunityService) ListSaved(ctx context.Context, actor models.Actor) ([]dto.OpportunityView, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	items, err := s.saved.ListByUser(ctx, actor.UserID, 0)
	if err != nil {
		return nil, internalError(err, "failed to list saved opportunities")
	}
	profile := s.studentProfile(ctx, actor)
	views := make([]dto.OpportunityView, 0, len(items))
	for _, o := range items {
		views = append(views, s.views.opportunity(o, profile, true))
	}
	return views, nil
}

// ListUniversities returns the reference list used by the profile and grant forms.
func (s *OpportunityService) ListUniversities(ctx context.Context, search string) ([]models.University, error) {
	items, err := s.universities.List(ctx, search)
	if err != nil {
		return nil, internalError(err, "failed to list universities")
	}
	return items, nil
}

func (s *OpportunityService) decorate(ctx context.Context, actor models.Actor, items []models.OpportunityDetail) ([]dto.OpportunityView, error) {
	ids := make([]string, 0, len(items))
	for _, o := range items {
		ids = append(ids, o.ID)
	}
	saved, err := s.saved.SavedIDs(ctx, actor.UserID, ids)
	if err != nil {
		return nil, internalError(err, "failed to load bookmarks")
	}
	profile := s.studentProfile(ctx, actor)
	views := make([]dto.OpportunityView, 0, len(items))
	for _, o := range items {
		views = append(views, s.views.opportunity(o, profile, saved[o.ID]))
	}
	return views, nil
}

// studentProfile loads the profile used for match scores. Only students see scores, and a
// missing profile scores against an empty one.
func (s *OpportunityService) studentProfile(ctx context.Context, actor models.Actor) *models.Profile {
	if actor.Role != models.RoleStudent || s.profiles == nil {
		return nil
	}
	profile, err := s.profiles.FindByUserID(ctx, actor.UserID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("load profile for match", zap.String("user_id", actor.UserID), zap.Error(err))
			return nil
		}
		return &models.Profile{UserID: actor.UserID}
	}
	return profile
}

func (s *OpportunityService) validateRequest(ctx context.Context, req dto.OpportunityRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid opportunity payload")
	}
	if req.UniversityID != nil && *req.UniversityID != "" {
		ok, err := s.universities.Exists(ctx, *req.UniversityID)
		if err != nil {
			return internalError(err, "failed to check university")
		}
		if !ok {
			return appErrors.Validation("unknown university", "university_id")
		}
	}
	return nil
}

func (s *OpportunityService) invalidate(ctx context.Context) {
	s.cache.InvalidatePrefix(ctx, opportunityCachePrefix)
}

func validOpportunityType(t string) bool {
	switch models.OpportunityType(t) {
	case models.OpportunityScholarship, models.OpportunityFellowship, models.OpportunityResearchGrant, models.OpportunityTravelGrant:
		return true
	}
	return false
}

func opportunityCacheParts(f models.OpportunityFilter) []string {
	featured := ""
	if f.Featured != nil {
		featured = fmt.Sprintf("%t", *f.Featured)
	}
	return []string{
		strings.ToLower(f.Search),
		strings.Join(f.DegreeLevels, ","),
		strings.Join(f.Countries, ","),
		strings.Join(f.Fields, ","),
		f.Type,
		featured,
		fmt.Sprintf("%t", f.OpenOnly),
		fmt.Sprintf("%d", f.Page),
		fmt.Sprintf("%d", f.PageSize),
		f.SortBy,
		f.SortOrder,
	}
}
