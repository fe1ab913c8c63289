package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/careerbird/grant-match-api/internal/dto"
	"github.com/careerbird/grant-match-api/internal/models"
	"github.com/careerbird/grant-match-api/internal/scoring"
)

const (
	mobilityDocumentLimit  = 5
	mobilityUpcomingLimit  = 5
	mobilityUpcomingDays   = 30
	mobilityUrgentDays     = 7
	mobilityFallbackMonths = 3
)

// Journey step states.
const (
	JourneyCompleted  = "completed"
	JourneyInProgress = "in_progress"
	JourneyPending    = "pending"
	JourneyLocked     = "locked"
)

var mobilityDocumentKinds = map[models.ProfileDocumentKind]bool{
	models.DocumentCV:             true,
	models.DocumentTranscript:     true,
	models.DocumentRecommendation: true,
}

type documentLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.ProfileDocument, error)
}

type applicationLister interface {
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error)
}

// MobilityService builds the pre-departure checklist for students heading abroad.
type MobilityService struct {
	profiles      profileReader
	applications  applicationLister
	opportunities opportunityReader
	documents     documentLister
	files         *FileUploader
	views         viewBuilder
	logger        *zap.Logger
}

// NewMobilityService constructs a MobilityService.
func NewMobilityService(profiles profileReader, applications applicationLister, opportunities opportunityReader, documents documentLister, files *FileUploader, classifier *scoring.DeadlineClassifier, now func() time.Time, logger *zap.Logger) *MobilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MobilityService{
		profiles:      profiles,
		applications:  applications,
		opportunities: opportunities,
		documents:     documents,
		files:         files,
		views:         newViewBuilder(classifier, nil, now),
		logger:        logger,
	}
}

// Checklist returns the caller's journey, readiness and upcoming deadlines.
func (s *MobilityService) Checklist(ctx context.Context, actor models.Actor) (*dto.MobilityChecklist, error) {
	if err := requireRole(actor, models.RoleStudent); err != nil {
		return nil, err
	}
	profile, err := profileOrEmpty(ctx, s.profiles, actor)
	if err != nil {
		return nil, err
	}
	apps, _, err := s.applications.List(ctx, models.ApplicationFilter{StudentID: actor.UserID, Page: 1, PageSize: dashboardApplicationsPage})
	if err != nil {
		return nil, internalError(err, "failed to list applications")
	}
	docs, err := s.documents.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, internalError(err, "failed to list documents")
	}

	documents := make([]dto.DocumentView, 0, mobilityDocumentLimit)
	for _, d := range docs {
		if !mobilityDocumentKinds[d.Kind] {
			continue
		}
		documents = append(documents, dto.DocumentView{ProfileDocument: d, URL: s.files.url(ctx, d.Reference)})
		if len(documents) == mobilityDocumentLimit {
			break
		}
	}

	checklist := &dto.MobilityChecklist{
		Readiness: Readiness(profile, len(documents)),
		Journey:   Journey(false),
		Documents: documents,
		Upcoming:  s.upcoming(apps),
	}

	accepted := acceptedApplication(apps)
	if accepted == nil {
		return checklist, nil
	}
	checklist.Journey = Journey(true)
	opp, err := s.opportunities.FindByID(ctx, accepted.OpportunityID)
	if err != nil {
		s.logger.Warn("mobility destination lookup", zap.String("opportunity_id", accepted.OpportunityID), zap.Error(err))
		return checklist, nil
	}
	if opp.UniversityName != nil {
		checklist.Destination = *opp.UniversityName
	}
	if opp.UniversityCity != nil {
		checklist.DestinationCity = *opp.UniversityCity
	}
	if opp.UniversityCountry != nil {
		checklist.Country = *opp.UniversityCountry
	}
	checklist.DaysToDeparture = s.daysToDeparture(&opp.Opportunity)
	return checklist, nil
}

// upcoming lists open application deadlines within the next thirty days.
func (s *MobilityService) upcoming(apps []models.ApplicationDetail) []dto.DeadlineItem {
	now := s.views.now()
	items := make([]dto.DeadlineItem, 0)
	for _, a := range apps {
		if a.OpportunityDeadline == nil || a.Status.Terminal() {
			continue
		}
		days := s.views.classifier.DaysUntil(*a.OpportunityDeadline, now)
		if days < 0 || days > mobilityUpcomingDays {
			continue
		}
		item := s.views.deadline(a.ID, a.OpportunityID, a.OpportunityTitle, *a.OpportunityDeadline)
		item.Urgent = days <= mobilityUrgentDays
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Deadline.Before(items[j].Deadline) })
	if len(items) > mobilityUpcomingLimit {
		items = items[:mobilityUpcomingLimit]
	}
	return items
}

// daysToDeparture counts to the programme start, or three months after the deadline when
// no start date is published. It never goes below zero.
func (s *MobilityService) daysToDeparture(o *models.Opportunity) int {
	var departure time.Time
	switch {
	case o.StartDate != nil:
		departure = *o.StartDate
	case o.Deadline != nil:
		departure = o.Deadline.AddDate(0, mobilityFallbackMonths, 0)
	default:
		return 0
	}
	days := s.views.classifier.DaysUntil(departure, s.views.now())
	if days < 0 {
		return 0
	}
	return days
}

// Readiness scores pre-departure preparation: sixty points spread over five identity
// fields plus eight per supporting document, capped at 100.
func Readiness(p *models.Profile, documents int) int {
	filled := 0
	for _, v := range []string{p.FirstName, p.LastName, p.Nationality, p.CurrentCountry, p.FieldOfStudy} {
		if strings.TrimSpace(v) != "" {
			filled++
		}
	}
	score := int(math.Round(float64(filled)/5*60 + float64(documents)*8))
	if score > 100 {
		return 100
	}
	return score
}

// Journey lists the pre-departure stages. Everything after acceptance stays locked until a
// grant is accepted.
func Journey(accepted bool) []dto.JourneyStep {
	if !accepted {
		return []dto.JourneyStep{
			{Key: "acceptance", Title: "Acceptance", Status: JourneyPending},
			{Key: "visa", Title: "Visa", Status: JourneyLocked},
			{Key: "housing", Title: "Housing", Status: JourneyLocked},
			{Key: "travel", Title: "Travel", Status: JourneyLocked},
		}
	}
	return []dto.JourneyStep{
		{Key: "acceptance", Title: "Acceptance", Status: JourneyCompleted},
		{Key: "visa", Title: "Visa", Status: JourneyInProgress},
		{Key: "housing", Title: "Housing", Status: JourneyPending},
		{Key: "travel", Title: "Travel", Status: JourneyPending},
	}
}

func acceptedApplication(apps []models.ApplicationDetail) *models.ApplicationDetail {
	for i := range apps {
		if apps[i].Status == models.ApplicationAccepted {
			return &apps[i]
		}
	}
	return nil
}
