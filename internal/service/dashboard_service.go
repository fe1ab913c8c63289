package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/careerbird/grant-match-api/internal/dto"
	"github.com/careerbird/grant-match-api/internal/models"
	"github.com/careerbird/grant-match-api/internal/scoring"
)

const (
	defaultThisWeekLimit      = 5
	dashboardRecentLimit      = 5
	dashboardSavedLimit       = 3
	recommendationPool        = 20
	dashboardApplicationsPage = 100
)

type dashboardApplications interface {
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error)
	CountByStatus(ctx context.Context, studentID string) ([]models.ApplicationStatusCount, error)
}

type savedLister interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]models.OpportunityDetail, error)
}

type openOpportunityLister interface {
	ListOpen(ctx context.Context, today time.Time, limit int) ([]models.OpportunityDetail, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	ThisWeekLimit int
	Classifier    *scoring.DeadlineClassifier
	Matcher       *scoring.Matcher
	Now           func() time.Time
}

// DashboardService composes the student landing page.
type DashboardService struct {
	profiles      profileReader
	applications  dashboardApplications
	saved         savedLister
	opportunities openOpportunityLister
	views         viewBuilder
	logger        *zap.Logger
	cfg           DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Profiles      profileReader
	Applications  dashboardApplications
	Saved         savedLister
	Opportunities openOpportunityLister
	Logger        *zap.Logger
	Config        DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := params.Config
	if cfg.ThisWeekLimit <= 0 {
		cfg.ThisWeekLimit = defaultThisWeekLimit
	}
	return &DashboardService{
		profiles:      params.Profiles,
		applications:  params.Applications,
		saved:         params.Saved,
		opportunities: params.Opportunities,
		views:         newViewBuilder(cfg.Classifier, cfg.Matcher, cfg.Now),
		logger:        logger,
		cfg:           cfg,
	}
}

// Student builds the dashboard of the calling student.
func (s *DashboardService) Student(ctx context.Context, actor models.Actor) (*dto.StudentDashboard, error) {
	if err := requireRole(actor, models.RoleStudent); err != nil {
		return nil, err
	}
	profile, err := profileOrEmpty(ctx, s.profiles, actor)
	if err != nil {
		return nil, err
	}

	counts, err := s.applications.CountByStatus(ctx, actor.UserID)
	if err != nil {
		return nil, internalError(err, "failed to count applications")
	}
	apps, _, err := s.applications.List(ctx, models.ApplicationFilter{StudentID: actor.UserID, Page: 1, PageSize: dashboardApplicationsPage})
	if err != nil {
		return nil, internalError(err, "failed to list applications")
	}

	thisWeek := s.thisWeek(apps)
	stats := statsFromCounts(counts)
	stats.DeadlinesThisWeek = len(thisWeek)
	if len(thisWeek) > s.cfg.ThisWeekLimit {
		thisWeek = thisWeek[:s.cfg.ThisWeekLimit]
	}

	recent := make([]dto.ApplicationView, 0, dashboardRecentLimit)
	for i := 0; i < len(apps) && i < dashboardRecentLimit; i++ {
		recent = append(recent, s.views.application(apps[i]))
	}

	board := &dto.StudentDashboard{
		FirstName:       firstName(profile),
		ProfileStrength: scoring.Completeness(profile, scoring.ModeDashboard),
		MissingFields:   scoring.MissingFields(profile, scoring.ModeDashboard),
		Stats:           stats,
		ThisWeek:        thisWeek,
		Recent:          recent,
		Saved:           s.savedViews(ctx, actor, profile),
		Recommended:     s.recommend(ctx, profile, apps),
	}
	return board, nil
}

// thisWeek lists open applications whose grant closes within the week, soonest first.
func (s *DashboardService) thisWeek(apps []models.ApplicationDetail) []dto.DeadlineItem {
	now := s.views.now()
	items := make([]dto.DeadlineItem, 0)
	for _, a := range apps {
		if a.OpportunityDeadline == nil || a.Status.Terminal() {
			continue
		}
		if !s.views.classifier.Classify(*a.OpportunityDeadline, now).InThisWeek() {
			continue
		}
		items = append(items, s.views.deadline(a.ID, a.OpportunityID, a.OpportunityTitle, *a.OpportunityDeadline))
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Deadline.Before(items[j].Deadline) })
	return items
}

func (s *DashboardService) savedViews(ctx context.Context, actor models.Actor, profile *models.Profile) []dto.OpportunityView {
	saved, err := s.saved.ListByUser(ctx, actor.UserID, dashboardSavedLimit)
	if err != nil {
		s.logger.Warn("dashboard saved opportunities", zap.String("user_id", actor.UserID), zap.Error(err))
		return []dto.OpportunityView{}
	}
	views := make([]dto.OpportunityView, 0, len(saved))
	for _, o := range saved {
		views = append(views, s.views.opportunity(o, profile, true))
	}
	return views
}

// recommend picks the best scoring open grant the student has not applied to.
// Ties keep the repository order, which lists featured grants first.
func (s *DashboardService) recommend(ctx context.Context, profile *models.Profile, apps []models.ApplicationDetail) *dto.Recommendation {
	open, err := s.opportunities.ListOpen(ctx, s.views.now(), recommendationPool)
	if err != nil {
		s.logger.Warn("dashboard recommendation", zap.Error(err))
		return nil
	}
	applied := make(map[string]bool, len(apps))
	for _, a := range apps {
		applied[a.OpportunityID] = true
	}

	var best *dto.Recommendation
	for _, o := range open {
		if applied[o.ID] {
			continue
		}
		view := s.views.opportunity(o, profile, false)
		score := *view.MatchScore
		if best == nil || score > best.MatchScore {
			best = &dto.Recommendation{Opportunity: view, MatchScore: score}
		}
	}
	return best
}

func statsFromCounts(counts []models.ApplicationStatusCount) dto.DashboardStats {
	var stats dto.DashboardStats
	for _, c := range counts {
		if c.Status != models.ApplicationDraft {
			stats.ApplicationsSent += c.Total
		}
		switch c.Status {
		case models.ApplicationUnderReview:
			stats.PendingReview += c.Total
		case models.ApplicationInterview:
			stats.Interviews += c.Total
		}
	}
	return stats
}

// firstName falls back to the first word of the full name.
func firstName(p *models.Profile) string {
	if name := strings.TrimSpace(p.FirstName); name != "" {
		return name
	}
	if parts := strings.Fields(p.FullName); len(parts) > 0 {
		return parts[0]
	}
	return ""
}

// profileOrEmpty loads the caller's profile. A user who never saved one gets an empty profile.
func profileOrEmpty(ctx context.Context, profiles profileReader, actor models.Actor) (*models.Profile, error) {
	profile, err := profiles.FindByUserID(ctx, actor.UserID)
	if err == nil {
		return profile, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &models.Profile{UserID: actor.UserID, Email: actor.Email, GPAScale: models.DefaultGPAScale}, nil
	}
	return nil, internalError(err, "failed to load profile")
}
