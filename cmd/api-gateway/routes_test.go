package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerbird/grant-match-api/internal/handler"
	"github.com/careerbird/grant-match-api/internal/middleware"
	"github.com/careerbird/grant-match-api/internal/models"
	appErrors "github.com/careerbird/grant-match-api/pkg/errors"
	"github.com/careerbird/grant-match-api/pkg/response"
)

func emptyHandlers() handlers {
	return handlers{
		profile:     &handler.ProfileHandler{},
		wizard:      &handler.WizardHandler{},
		opportunity: &handler.OpportunityHandler{},
		application: &handler.ApplicationHandler{},
		tryout:      &handler.TryoutHandler{},
		review:      &handler.ReviewHandler{},
		dashboard:   &handler.DashboardHandler{},
	}
}

// fakeAuth trusts the X-Role header and rejects requests without it.
func fakeAuth(c *gin.Context) {
	role := c.GetHeader("X-Role")
	if role == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		c.Abort()
		return
	}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-1", Role: models.UserRole(role)})
	c.Next()
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	registerRoutes(r, "/api/v1", fakeAuth, emptyHandlers())
	return r
}

func TestRegisterRoutesMountsAPI(t *testing.T) {
	r := newTestRouter()

	registered := map[string]bool{}
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"GET /api/v1/profile",
		"GET /api/v1/profiles/search",
		"POST /api/v1/wizard/profile/jump",
		"GET /api/v1/opportunities",
		"POST /api/v1/opportunities/:id/applications",
		"GET /api/v1/opportunities/:id/applicants/export",
		"POST /api/v1/applications/:id/review",
		"PUT /api/v1/applications/:id/tryout/:kind",
		"POST /api/v1/applications/:id/tryout/submit",
		"GET /api/v1/dashboard",
		"GET /api/v1/mobility",
	} {
		assert.True(t, registered[want], want)
	}
	assert.False(t, registered["GET /api/v1/files/:token"], "files route needs a signed store")
}

func TestRegisterRoutesRequiresAuth(t *testing.T) {
	r := newTestRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterRoutesEnforcesRoles(t *testing.T) {
	r := newTestRouter()

	cases := []struct {
		method string
		path   string
		role   models.UserRole
	}{
		{http.MethodPost, "/api/v1/opportunities", models.RoleStudent},
		{http.MethodPost, "/api/v1/applications/app-1/review", models.RoleStudent},
		{http.MethodGet, "/api/v1/dashboard", models.RoleProfessor},
		{http.MethodPost, "/api/v1/wizard/profile/next", models.RoleProfessor},
		{http.MethodGet, "/api/v1/profiles/search?q=ada", models.RoleStudent},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("X-Role", string(tc.role))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code, tc.method+" "+tc.path)
	}
}
