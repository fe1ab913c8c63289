package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/careerbird/grant-match-api/internal/models"
	"github.com/careerbird/grant-match-api/internal/scoring"
)

func strPtr(s string) *string { return &s }

func newMobilityFixture(dest models.Opportunity) (*MobilityService, *mockApplicationRepo, *mockDocumentRepo) {
	apps := &mockApplicationRepo{}
	opps := &mockOpportunityRepo{}
	opps.put(models.OpportunityDetail{
		Opportunity:       dest,
		UniversityName:    strPtr("Lund University"),
		UniversityCity:    strPtr("Lund"),
		UniversityCountry: strPtr("Sweden"),
	})
	docs := &mockDocumentRepo{}
	profiles := &mockProfileRepo{profiles: map[string]models.Profile{
		"stu-1": {UserID: "stu-1", FirstName: "Ada", LastName: "Lovelace", Nationality: "British", FieldOfStudy: "Mathematics"},
	}}
	svc := NewMobilityService(profiles, apps, opps, docs, NewFileUploader(&mockObjectStore{}, nil, UploadConfig{}),
		scoring.NewDeadlineClassifier(time.UTC), clock, zap.NewNop())
	return svc, apps, docs
}

func TestMobilityServiceBeforeAcceptance(t *testing.T) {
	svc, apps, _ := newMobilityFixture(models.Opportunity{ID: "opp-dest"})
	seedApplication(apps, "s1", "stu-1", models.ApplicationSubmitted, 3)
	seedApplication(apps, "s2", "stu-1", models.ApplicationDraft, 20)
	seedApplication(apps, "s3", "stu-1", models.ApplicationSubmitted, 40)
	seedApplication(apps, "s4", "stu-1", models.ApplicationSubmitted, -2)

	checklist, err := svc.Checklist(context.Background(), student("stu-1"))
	require.NoError(t, err)
	assert.Equal(t, "", checklist.Destination)
	assert.Equal(t, 0, checklist.DaysToDeparture)
	assert.Equal(t, 48, checklist.Readiness)
	assert.Equal(t, JourneyPending, checklist.Journey[0].Status)
	for _, step := range checklist.Journey[1:] {
		assert.Equal(t, JourneyLocked, step.Status)
	}

	require.Len(t, checklist.Upcoming, 2)
	assert.Equal(t, "s1", checklist.Upcoming[0].ApplicationID)
	assert.True(t, checklist.Upcoming[0].Urgent)
	assert.Equal(t, "s2", checklist.Upcoming[1].ApplicationID)
	assert.False(t, checklist.Upcoming[1].Urgent)
}

func TestMobilityServiceAfterAcceptance(t *testing.T) {
	svc, apps, docs := newMobilityFixture(models.Opportunity{ID: "opp-dest", StartDate: days(45)})
	apps.put(models.ApplicationDetail{Application: models.Application{
		ID: "acc", StudentID: "stu-1", OpportunityID: "opp-dest", Status: models.ApplicationAccepted,
	}, OpportunityDeadline: days(2)})
	for _, kind := range []models.ProfileDocumentKind{models.DocumentCV, models.DocumentOther, models.DocumentTranscript, models.DocumentRecommendation} {
		docs.docs = append(docs.docs, models.ProfileDocument{UserID: "stu-1", Kind: kind, Reference: "documents/stu-1/" + string(kind)})
	}

	checklist, err := svc.Checklist(context.Background(), student("stu-1"))
	require.NoError(t, err)
	assert.Equal(t, "Lund University", checklist.Destination)
	assert.Equal(t, "Lund", checklist.DestinationCity)
	assert.Equal(t, "Sweden", checklist.Country)
	assert.Equal(t, 45, checklist.DaysToDeparture)
	assert.Equal(t, 72, checklist.Readiness)
	assert.Len(t, checklist.Documents, 3)
	assert.Empty(t, checklist.Upcoming)

	statuses := make([]string, 0, len(checklist.Journey))
	for _, step := range checklist.Journey {
		statuses = append(statuses, step.Status)
	}
	assert.Equal(t, []string{JourneyCompleted, JourneyInProgress, JourneyPending, JourneyPending}, statuses)
}

func TestMobilityServiceDepartureFallsBackToDeadline(t *testing.T) {
	svc, apps, _ := newMobilityFixture(models.Opportunity{ID: "opp-dest", Deadline: days(-10)})
	apps.put(models.ApplicationDetail{Application: models.Application{
		ID: "acc", StudentID: "stu-1", OpportunityID: "opp-dest", Status: models.ApplicationAccepted,
	}})

	checklist, err := svc.Checklist(context.Background(), student("stu-1"))
	require.NoError(t, err)
	// 2026-02-28 plus three months is 2026-05-28, 79 days after 2026-03-10
	assert.Equal(t, 79, checklist.DaysToDeparture)
}

func TestReadiness(t *testing.T) {
	full := &models.Profile{FirstName: "a", LastName: "b", Nationality: "c", CurrentCountry: "d", FieldOfStudy: "e"}
	assert.Equal(t, 0, Readiness(&models.Profile{}, 0))
	assert.Equal(t, 12, Readiness(&models.Profile{FirstName: "Ada"}, 0))
	assert.Equal(t, 60, Readiness(full, 0))
	assert.Equal(t, 100, Readiness(full, 5))
	assert.Equal(t, 40, Readiness(&models.Profile{}, 5))
}
