package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerbird/grant-match-api/internal/dto"
	"github.com/careerbird/grant-match-api/internal/models"
	appErrors "github.com/careerbird/grant-match-api/pkg/errors"
)

type fakeWizardSrv struct {
	err      error
	lastForm models.ProfileDraft
	lastJump string
	calls    []string
}

func (f *fakeWizardSrv) state(step string) (*dto.ProfileWizardState, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ProfileWizardState{CurrentStep: step}, nil
}

func (f *fakeWizardSrv) State(context.Context, models.Actor) (*dto.ProfileWizardState, error) {
	f.calls = append(f.calls, "state")
	return f.state("introduction")
}

func (f *fakeWizardSrv) Next(_ context.Context, _ models.Actor, form models.ProfileDraft) (*dto.ProfileWizardState, error) {
	f.calls = append(f.calls, "next")
	f.lastForm = form
	return f.state("personal")
}

func (f *fakeWizardSrv) Back(context.Context, models.Actor) (*dto.ProfileWizardState, error) {
	f.calls = append(f.calls, "back")
	return f.state("introduction")
}

func (f *fakeWizardSrv) Jump(_ context.Context, _ models.Actor, target string) (*dto.ProfileWizardState, error) {
	f.calls = append(f.calls, "jump")
	f.lastJump = target
	return f.state(target)
}

func TestWizardHandlerNextPassesForm(t *testing.T) {
	srv := &fakeWizardSrv{}
	handler := NewWizardHandler(srv)

	c, rec := newContext(http.MethodPost, "/wizard/profile/next", jsonBody(t, map[string]string{
		"first_name": "Maria",
		"last_name":  "Silva",
		"email":      "maria@example.com",
	}), "stu-1", models.RoleStudent)
	handler.Next(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Maria", srv.lastForm.FirstName)
	assert.Equal(t, "maria@example.com", srv.lastForm.Email)
	assert.Contains(t, rec.Body.String(), `"current_step":"personal"`)
}

func TestWizardHandlerNextWithoutBody(t *testing.T) {
	srv := &fakeWizardSrv{}
	handler := NewWizardHandler(srv)

	c, rec := newContext(http.MethodPost, "/wizard/profile/next", nil, "stu-1", models.RoleStudent)
	handler.Next(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"next"}, srv.calls)
}

func TestWizardHandlerNextRejectsMalformedJSON(t *testing.T) {
	srv := &fakeWizardSrv{}
	handler := NewWizardHandler(srv)

	c, rec := newContext(http.MethodPost, "/wizard/profile/next", strings.NewReader("{"), "stu-1", models.RoleStudent)
	handler.Next(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, srv.calls)
}

func TestWizardHandlerSaveFailedMapsTo503(t *testing.T) {
	handler := NewWizardHandler(&fakeWizardSrv{err: appErrors.SaveFailed(assert.AnError)})

	c, rec := newContext(http.MethodPost, "/wizard/profile/back", nil, "stu-1", models.RoleStudent)
	handler.Back(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "SAVE_FAILED", envelope.Error.Code)
	assert.Equal(t, "save failed, retry", envelope.Error.Message)
}

func TestWizardHandlerValidationListsFields(t *testing.T) {
	handler := NewWizardHandler(&fakeWizardSrv{err: appErrors.Validation("missing required fields", "first_name", "email")})

	c, rec := newContext(http.MethodPost, "/wizard/profile/next", jsonBody(t, map[string]string{}), "stu-1", models.RoleStudent)
	handler.Next(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fields":["first_name","email"]`)
}

func TestWizardHandlerJump(t *testing.T) {
	srv := &fakeWizardSrv{}
	handler := NewWizardHandler(srv)

	c, rec := newContext(http.MethodPost, "/wizard/profile/jump", jsonBody(t, dto.JumpRequest{Step: "documents"}), "stu-1", models.RoleStudent)
	handler.Jump(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "documents", srv.lastJump)
}
