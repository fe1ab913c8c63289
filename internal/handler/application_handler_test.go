package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerbird/grant-match-api/internal/dto"
	"github.com/careerbird/grant-match-api/internal/middleware"
	"github.com/careerbird/grant-match-api/internal/models"
	appErrors "github.com/careerbird/grant-match-api/pkg/errors"
)

type responseEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

// newContext builds a gin test context authenticated as the given user.
func newContext(method, target string, body io.Reader, userID string, role models.UserRole) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, body)
	if body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: userID, Role: role})
	}
	return c, rec
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

type fakeApplicationSrv struct {
	created    bool
	err        error
	lastActor  models.Actor
	lastID     string
	lastFilter models.ApplicationFilter
}

func (f *fakeApplicationSrv) Start(_ context.Context, actor models.Actor, opportunityID string) (*models.Application, bool, error) {
	f.lastActor, f.lastID = actor, opportunityID
	if f.err != nil {
		return nil, false, f.err
	}
	return &models.Application{ID: "app-1", OpportunityID: opportunityID, Status: models.ApplicationDraft}, f.created, nil
}

func (f *fakeApplicationSrv) List(_ context.Context, actor models.Actor, filter models.ApplicationFilter) ([]dto.ApplicationView, *models.Pagination, error) {
	f.lastActor, f.lastFilter = actor, filter
	return []dto.ApplicationView{}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize}, f.err
}

func (f *fakeApplicationSrv) Get(_ context.Context, actor models.Actor, id string) (*dto.ApplicationView, error) {
	f.lastActor, f.lastID = actor, id
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ApplicationView{}, nil
}

func (f *fakeApplicationSrv) Submit(_ context.Context, actor models.Actor, id string) (*dto.ApplicationView, error) {
	f.lastActor, f.lastID = actor, id
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ApplicationView{}, nil
}

func TestApplicationHandlerStartCreated(t *testing.T) {
	srv := &fakeApplicationSrv{created: true}
	handler := NewApplicationHandler(srv)

	c, rec := newContext(http.MethodPost, "/opportunities/opp-1/applications", nil, "stu-1", models.RoleStudent)
	c.Params = gin.Params{{Key: "id", Value: "opp-1"}}
	handler.Start(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "opp-1", srv.lastID)
	assert.Equal(t, "stu-1", srv.lastActor.UserID)
}

func TestApplicationHandlerStartExisting(t *testing.T) {
	handler := NewApplicationHandler(&fakeApplicationSrv{created: false})

	c, rec := newContext(http.MethodPost, "/opportunities/opp-1/applications", nil, "stu-1", models.RoleStudent)
	c.Params = gin.Params{{Key: "id", Value: "opp-1"}}
	handler.Start(c)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestApplicationHandlerListParsesStatuses(t *testing.T) {
	srv := &fakeApplicationSrv{}
	handler := NewApplicationHandler(srv)

	c, rec := newContext(http.MethodGet, "/applications?status=draft,submitted&status=interview&page=2&limit=5", nil, "stu-1", models.RoleStudent)
	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []models.ApplicationStatus{"draft", "submitted", "interview"}, srv.lastFilter.Statuses)
	assert.Equal(t, 2, srv.lastFilter.Page)
	assert.Equal(t, 5, srv.lastFilter.PageSize)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 2, envelope.Pagination.Page)
}

func TestApplicationHandlerSubmitConflict(t *testing.T) {
	handler := NewApplicationHandler(&fakeApplicationSrv{err: appErrors.Clone(appErrors.ErrConflict, "application already submitted")})

	c, rec := newContext(http.MethodPost, "/applications/app-1/submit", nil, "stu-1", models.RoleStudent)
	c.Params = gin.Params{{Key: "id", Value: "app-1"}}
	handler.Submit(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "CONFLICT", envelope.Error.Code)
}

func TestApplicationHandlerGetWithoutClaimsPassesZeroActor(t *testing.T) {
	srv := &fakeApplicationSrv{err: appErrors.ErrUnauthorized}
	handler := NewApplicationHandler(srv)

	c, rec := newContext(http.MethodGet, "/applications/app-1", nil, "", "")
	c.Params = gin.Params{{Key: "id", Value: "app-1"}}
	handler.Get(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, srv.lastActor.Authenticated())
}
