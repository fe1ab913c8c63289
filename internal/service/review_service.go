package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/careerbird/grant-match-api/internal/dto"
	"github.com/careerbird/grant-match-api/internal/models"
	"github.com/careerbird/grant-match-api/internal/scoring"
	appErrors "github.com/careerbird/grant-match-api/pkg/errors"
)

type reviewRepository interface {
	FindByID(ctx context.Context, id string) (*models.ApplicationDetail, error)
	ListByOpportunity(ctx context.Context, opportunityID string, filter models.ApplicantFilter) ([]models.ApplicationDetail, error)
	ApplyReview(ctx context.Context, id string, review models.ApplicationReview) error
	ListForRanking(ctx context.Context, opportunityID string) ([]models.Application, error)
	ReplaceRanks(ctx context.Context, opportunityID string, ranks []models.RankAssignment) error
}

// ReviewService covers the professor side: applicant queues, decisions and global ranks.
type ReviewService struct {
	repo          reviewRepository
	opportunities opportunityReader
	validator     *validator.Validate
	logger        *zap.Logger
	now           func() time.Time
}

// NewReviewService constructs a ReviewService.
func NewReviewService(repo reviewRepository, opportunities opportunityReader, validate *validator.Validate, logger *zap.Logger) *ReviewService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{repo: repo, opportunities: opportunities, validator: validate, logger: logger, now: time.Now}
}

// Applicants lists the submitted applications of a grant, ranked ones first, narrowed by
// the optional text query and statuses.
func (s *ReviewService) Applicants(ctx context.Context, actor models.Actor, opportunityID string, filter models.ApplicantFilter) ([]models.ApplicationDetail, error) {
	if _, err := s.ownedOpportunity(ctx, actor, opportunityID); err != nil {
		return nil, err
	}
	filter.Query = strings.TrimSpace(filter.Query)
	for _, st := range filter.Statuses {
		if !st.Valid() || st == models.ApplicationDraft {
			return nil, appErrors.Validation("unknown status", "status")
		}
	}
	items, err := s.repo.ListByOpportunity(ctx, opportunityID, filter)
	if err != nil {
		return nil, internalError(err, "failed to list applicants")
	}
	return items, nil
}

// Review records a decision. Status only moves forward; accepted and rejected are final.
// Re-sending the current status updates the score and notes.
func (s *ReviewService) Review(ctx context.Context, actor models.Actor, applicationID string, req dto.ReviewRequest) (*models.ApplicationDetail, error) {
	if err := requireRole(actor, models.RoleProfessor, models.RoleAdmin); err != nil {
		return nil, err
	}
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid review payload")
	}
	app, err := s.repo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, lookupError(err, "application not found", "failed to load application")
	}
	if actor.Role != models.RoleAdmin && app.OpportunityCreatedBy != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the grant creator can review applicants")
	}

	next := models.ApplicationStatus(req.Status)
	switch {
	case app.Status.Terminal():
		return nil, appErrors.Clone(appErrors.ErrFinalized, "application already decided")
	case app.Status == models.ApplicationDraft:
		return nil, appErrors.Clone(appErrors.ErrConflict, "draft applications cannot be reviewed")
	case next != app.Status && !app.Status.CanTransitionTo(next):
		return nil, appErrors.Validation("status can only move forward", "status")
	}

	review := models.ApplicationReview{From: app.Status, Status: next, RScore: req.RScore, Notes: req.Notes, At: s.now().UTC()}
	if err := s.repo.ApplyReview(ctx, applicationID, review); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.staleReview(ctx, applicationID)
		}
		return nil, appErrors.SaveFailed(err)
	}
	if err := s.RecomputeRanks(ctx, app.OpportunityID); err != nil {
		s.logger.Warn("recompute ranks", zap.String("opportunity_id", app.OpportunityID), zap.Error(err))
	}

	updated, err := s.repo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, lookupError(err, "application not found", "failed to load application")
	}
	return updated, nil
}

// staleReview explains a review that lost a race with another decision on the same application.
func (s *ReviewService) staleReview(ctx context.Context, applicationID string) error {
	current, err := s.repo.FindByID(ctx, applicationID)
	if err != nil {
		return lookupError(err, "application not found", "failed to load application")
	}
	if current.Status.Terminal() {
		return appErrors.Clone(appErrors.ErrFinalized, "application already decided")
	}
	return appErrors.Clone(appErrors.ErrConflict, "application status changed, reload and retry")
}

// RecomputeRanks rewrites global_rank for every rankable application of the grant.
func (s *ReviewService) RecomputeRanks(ctx context.Context, opportunityID string) error {
	apps, err := s.repo.ListForRanking(ctx, opportunityID)
	if err != nil {
		return err
	}
	ranked := scoring.RankApplications(apps)
	return s.repo.ReplaceRanks(ctx, opportunityID, scoring.Assignments(ranked))
}

func (s *ReviewService) ownedOpportunity(ctx context.Context, actor models.Actor, opportunityID string) (*models.OpportunityDetail, error) {
	if err := requireRole(actor, models.RoleProfessor, models.RoleAdmin); err != nil {
		return nil, err
	}
	opp, err := s.opportunities.FindByID(ctx, opportunityID)
	if err != nil {
		return nil, lookupError(err, "opportunity not found", "failed to load opportunity")
	}
	if actor.Role != models.RoleAdmin && opp.CreatedBy != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the grant creator can view applicants")
	}
	return opp, nil
}
