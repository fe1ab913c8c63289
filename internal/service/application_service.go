package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/careerbird/grant-match-api/internal/dto"
	"github.com/careerbird/grant-match-api/internal/models"
	"github.com/careerbird/grant-match-api/internal/scoring"
	appErrors "github.com/careerbird/grant-match-api/pkg/errors"
)

type applicationRepository interface {
	FindByID(ctx context.Context, id string) (*models.ApplicationDetail, error)
	CreateDraft(ctx context.Context, studentID, opportunityID string) (*models.Application, bool, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error)
	MarkSubmitted(ctx context.Context, id string, matchScore int, at time.Time) error
}

type opportunityReader interface {
	FindByID(ctx context.Context, id string) (*models.OpportunityDetail, error)
}

// ApplicationService handles the student side of applications.
type ApplicationService struct {
	repo          applicationRepository
	opportunities opportunityReader
	profiles      profileReader
	views         viewBuilder
	logger        *zap.Logger
}

// ApplicationServiceConfig carries the scoring collaborators.
type ApplicationServiceConfig struct {
	Classifier *scoring.DeadlineClassifier
	Matcher    *scoring.Matcher
	Now        func() time.Time
}

// NewApplicationService constructs an ApplicationService.
func NewApplicationService(repo applicationRepository, opportunities opportunityReader, profiles profileReader, cfg ApplicationServiceConfig, logger *zap.Logger) *ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationService{
		repo:          repo,
		opportunities: opportunities,
		profiles:      profiles,
		views:         newViewBuilder(cfg.Classifier, cfg.Matcher, cfg.Now),
		logger:        logger,
	}
}

// Start opens a draft for the calling student. Starting twice returns the existing application;
// the boolean reports whether a new draft was created.
func (s *ApplicationService) Start(ctx context.Context, actor models.Actor, opportunityID string) (*models.Application, bool, error) {
	if err := requireRole(actor, models.RoleStudent); err != nil {
		return nil, false, err
	}
	if _, err := s.opportunities.FindByID(ctx, opportunityID); err != nil {
		return nil, false, lookupError(err, "opportunity not found", "failed to load opportunity")
	}
	app, created, err := s.repo.CreateDraft(ctx, actor.UserID, opportunityID)
	if err != nil {
		return nil, false, appErrors.SaveFailed(err)
	}
	return app, created, nil
}

// List returns the caller's applications, newest first.
func (s *ApplicationService) List(ctx context.Context, actor models.Actor, filter models.ApplicationFilter) ([]dto.ApplicationView, *models.Pagination, error) {
	if err := requireActor(actor); err != nil {
		return nil, nil, err
	}
	filter.StudentID = actor.UserID
	filter.OpportunityID = ""
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, nil, appErrors.Validation("unknown status", "status")
		}
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list applications")
	}
	views := make([]dto.ApplicationView, 0, len(items))
	for _, a := range items {
		views = append(views, s.views.application(a))
	}
	return views, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns one application visible to the caller: its student, the grant's creator, or an admin.
func (s *ApplicationService) Get(ctx context.Context, actor models.Actor, id string) (*dto.ApplicationView, error) {
	app, err := s.load(ctx, actor, id, false)
	if err != nil {
		return nil, err
	}
	view := s.views.application(*app)
	return &view, nil
}

// Submit moves the caller's draft to submitted and records the match score at that moment.
func (s *ApplicationService) Submit(ctx context.Context, actor models.Actor, id string) (*dto.ApplicationView, error) {
	app, err := s.load(ctx, actor, id, true)
	if err != nil {
		return nil, err
	}
	if app.Status != models.ApplicationDraft {
		if app.Status.Terminal() {
			return nil, appErrors.Clone(appErrors.ErrFinalized, "application already decided")
		}
		return nil, appErrors.Clone(appErrors.ErrConflict, "application already submitted")
	}

	opp, err := s.opportunities.FindByID(ctx, app.OpportunityID)
	if err != nil {
		return nil, lookupError(err, "opportunity not found", "failed to load opportunity")
	}
	profile, err := s.profiles.FindByUserID(ctx, actor.UserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, internalError(err, "failed to load profile")
	}
	score := s.views.matcher.Score(profile, &opp.Opportunity)

	now := s.views.now().UTC()
	if err := s.repo.MarkSubmitted(ctx, id, score, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "application already submitted")
		}
		return nil, appErrors.SaveFailed(err)
	}
	app.Status = models.ApplicationSubmitted
	app.SubmittedAt = &now
	app.MatchScore = &score
	view := s.views.application(*app)
	return &view, nil
}

// load fetches an application and checks the caller may see it. ownerOnly restricts access to
// the applying student.
func (s *ApplicationService) load(ctx context.Context, actor models.Actor, id string, ownerOnly bool) (*models.ApplicationDetail, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "application not found", "failed to load application")
	}
	if app.StudentID == actor.UserID {
		return app, nil
	}
	if !ownerOnly && (actor.Role == models.RoleAdmin || (actor.Role == models.RoleProfessor && app.OpportunityCreatedBy == actor.UserID)) {
		return app, nil
	}
	// other students' applications are reported as absent
	return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
}
