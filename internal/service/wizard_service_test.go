package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/careerbird/grant-match-api/internal/models"
	appErrors "github.com/careerbird/grant-match-api/pkg/errors"
)

type mockSessionStore struct {
	sessions map[string]models.WizardSession
	saveErr  error
	deleted  []string
}

func (m *mockSessionStore) Get(ctx context.Context, userID string) (*models.WizardSession, error) {
	if s, ok := m.sessions[userID]; ok {
		return &s, nil
	}
	return nil, nil
}

func (m *mockSessionStore) Save(ctx context.Context, session *models.WizardSession) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.sessions == nil {
		m.sessions = make(map[string]models.WizardSession)
	}
	m.sessions[session.UserID] = *session
	return nil
}

func (m *mockSessionStore) Delete(ctx context.Context, userID string) error {
	m.deleted = append(m.deleted, userID)
	delete(m.sessions, userID)
	return nil
}

func newWizardFixture(timeout time.Duration) (*WizardService, *mockProfileRepo, *mockSessionStore) {
	profiles := &mockProfileRepo{}
	sessions := &mockSessionStore{}
	universities := &mockUniversityRepo{items: []models.University{{ID: "uni-1", Name: "Imperial College"}}}
	svc := NewWizardService(profiles, universities, sessions, NewValidator(), NewMetricsService(), zap.NewNop(), timeout)
	return svc, profiles, sessions
}

func validIntroduction() models.ProfileDraft {
	return models.ProfileDraft{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.edu"}
}

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	details, ok := appErr.Details.(map[string]interface{})
	require.True(t, ok)
	fields, ok := details["fields"].([]string)
	require.True(t, ok)
	return fields
}

func TestWizardServiceStateStartsAtIntroduction(t *testing.T) {
	svc, _, _ := newWizardFixture(time.Second)

	state, err := svc.State(context.Background(), student("stu-1"))
	require.NoError(t, err)
	assert.Equal(t, "introduction", state.CurrentStep)
	assert.Len(t, state.Steps, 6)
	assert.True(t, state.Steps[0].Current)
	assert.Equal(t, "stu-1@example.edu", state.Form.Email)
	assert.Equal(t, 0, state.Completion)
}

func TestWizardServiceNextRejectsMissingFields(t *testing.T) {
	svc, profiles, sessions := newWizardFixture(time.Second)

	_, err := svc.Next(context.Background(), student("stu-1"), models.ProfileDraft{FirstName: "Ada", Email: "ada@example.edu"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, []string{"last_name"}, fieldsOf(t, err))
	assert.Equal(t, 0, profiles.upserts)
	assert.Empty(t, sessions.sessions)
}

func TestWizardServiceNextPersistsThenAdvances(t *testing.T) {
	svc, profiles, sessions := newWizardFixture(time.Second)

	state, err := svc.Next(context.Background(), student("stu-1"), validIntroduction())
	require.NoError(t, err)
	assert.Equal(t, "personal", state.CurrentStep)
	assert.True(t, state.Steps[0].Complete)
	assert.Equal(t, 33, state.Progress)
	assert.Equal(t, 1, profiles.upserts)
	assert.Equal(t, "Ada", profiles.profiles["stu-1"].FirstName)
	assert.Equal(t, "personal", sessions.sessions["stu-1"].Step)
}

func TestWizardServiceSaveFailureKeepsStep(t *testing.T) {
	svc, profiles, sessions := newWizardFixture(time.Second)
	sessions.sessions = map[string]models.WizardSession{
		"stu-1": {UserID: "stu-1", Step: "introduction"},
	}
	profiles.upsertErr = fmt.Errorf("network down")

	_, err := svc.Next(context.Background(), student("stu-1"), validIntroduction())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrSaveFailed)
	assert.NotErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, "introduction", sessions.sessions["stu-1"].Step)
	assert.Empty(t, sessions.sessions["stu-1"].Form.FirstName)
}

func TestWizardServiceUnconfirmedSaveCountsAsFailed(t *testing.T) {
	svc, profiles, sessions := newWizardFixture(20 * time.Millisecond)
	profiles.wait = true

	_, err := svc.Next(context.Background(), student("stu-1"), validIntroduction())
	assert.ErrorIs(t, err, appErrors.ErrSaveFailed)
	assert.Empty(t, sessions.sessions)
}

func TestWizardServiceRepeatedNextKeepsOneProfile(t *testing.T) {
	svc, profiles, _ := newWizardFixture(time.Second)
	ctx := context.Background()
	actor := student("stu-1")

	_, err := svc.Next(ctx, actor, validIntroduction())
	require.NoError(t, err)
	_, err = svc.Back(ctx, actor)
	require.NoError(t, err)
	state, err := svc.Next(ctx, actor, validIntroduction())
	require.NoError(t, err)

	assert.Equal(t, "personal", state.CurrentStep)
	assert.Equal(t, 2, profiles.upserts)
	assert.Len(t, profiles.profiles, 1)
}

func TestWizardServiceAcademicRangeChecks(t *testing.T) {
	svc, profiles, sessions := newWizardFixture(time.Second)
	form := validIntroduction()
	sessions.sessions = map[string]models.WizardSession{
		"stu-1": {UserID: "stu-1", Step: "academic", Form: form},
	}
	gpa := 4.5
	year := 1850

	_, err := svc.Next(context.Background(), student("stu-1"), models.ProfileDraft{
		UniversityID:   "uni-1",
		DegreeLevel:    "masters",
		FieldOfStudy:   "Physics",
		GPA:            &gpa,
		GraduationYear: &year,
	})
	require.Error(t, err)
	assert.Equal(t, []string{"gpa", "graduation_year"}, fieldsOf(t, err))
	assert.Equal(t, 0, profiles.upserts)
	assert.Equal(t, "academic", sessions.sessions["stu-1"].Step)
}

func TestWizardServiceAcademicRejectsUnknownUniversity(t *testing.T) {
	svc, profiles, sessions := newWizardFixture(time.Second)
	sessions.sessions = map[string]models.WizardSession{
		"stu-1": {UserID: "stu-1", Step: "academic", Form: validIntroduction()},
	}
	academic := models.ProfileDraft{UniversityID: "uni-404", DegreeLevel: "masters", FieldOfStudy: "Physics"}

	_, err := svc.Next(context.Background(), student("stu-1"), academic)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.NotErrorIs(t, err, appErrors.ErrSaveFailed)
	assert.Equal(t, []string{"university_id"}, fieldsOf(t, err))
	assert.Equal(t, 0, profiles.upserts)
	assert.Equal(t, "academic", sessions.sessions["stu-1"].Step)

	academic.UniversityID = "uni-1"
	state, err := svc.Next(context.Background(), student("stu-1"), academic)
	require.NoError(t, err)
	assert.Equal(t, "research", state.CurrentStep)
	assert.Equal(t, "uni-1", *profiles.profiles["stu-1"].UniversityID)
}

func TestWizardServiceCompletesFromReview(t *testing.T) {
	svc, profiles, sessions := newWizardFixture(time.Second)
	form := validIntroduction()
	form.DegreeLevel = "phd"
	form.FieldOfStudy = "Mathematics"
	form.ResearchInterests = "analysis, engines"
	sessions.sessions = map[string]models.WizardSession{
		"stu-1": {UserID: "stu-1", Step: "review", Form: form},
	}

	state, err := svc.Next(context.Background(), student("stu-1"), models.ProfileDraft{})
	require.NoError(t, err)
	assert.True(t, state.Completed)
	assert.Equal(t, WizardCompletedRedirect, state.Redirect)
	assert.Equal(t, 100, state.Progress)
	assert.Equal(t, []string{"stu-1"}, sessions.deleted)
	assert.Equal(t, []string{"analysis", "engines"}, []string(profiles.profiles["stu-1"].ResearchInterests))
}

func TestWizardServiceJumpIsUnconditional(t *testing.T) {
	svc, _, sessions := newWizardFixture(time.Second)
	ctx := context.Background()

	state, err := svc.Jump(ctx, student("stu-1"), "documents")
	require.NoError(t, err)
	assert.Equal(t, "documents", state.CurrentStep)
	assert.False(t, state.Steps[0].Complete)
	assert.Equal(t, "documents", sessions.sessions["stu-1"].Step)

	_, err = svc.Jump(ctx, student("stu-1"), "payment")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, []string{"step"}, fieldsOf(t, err))
}

func TestWizardServiceBackSaveFailure(t *testing.T) {
	svc, _, sessions := newWizardFixture(time.Second)
	sessions.sessions = map[string]models.WizardSession{"stu-1": {UserID: "stu-1", Step: "research"}}
	sessions.saveErr = fmt.Errorf("redis unavailable")

	_, err := svc.Back(context.Background(), student("stu-1"))
	assert.ErrorIs(t, err, appErrors.ErrSaveFailed)
	assert.Equal(t, "research", sessions.sessions["stu-1"].Step)
}

func TestWizardServiceRequiresSignIn(t *testing.T) {
	svc, profiles, _ := newWizardFixture(time.Second)

	_, err := svc.Next(context.Background(), models.Actor{}, validIntroduction())
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	assert.Equal(t, 0, profiles.upserts)
}
