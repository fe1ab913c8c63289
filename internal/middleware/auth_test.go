package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerbird/grant-match-api/internal/models"
	appErrors "github.com/careerbird/grant-match-api/pkg/errors"
	"github.com/careerbird/grant-match-api/pkg/logger"
)

type stubValidator struct {
	claims *models.JWTClaims
	err    error
	calls  int
}

func (s *stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

func newAuthRouter(validator TokenValidator, roles ...models.UserRole) (*gin.Engine, *bool) {
	gin.SetMode(gin.TestMode)
	reached := false
	router := gin.New()
	router.GET("/", JWT(validator), RequireRoles(roles...), func(c *gin.Context) {
		reached = true
		c.Status(http.StatusNoContent)
	})
	return router, &reached
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	validator := &stubValidator{}
	router, reached := newAuthRouter(validator, models.RoleStudent)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.False(t, *reached)
	assert.Zero(t, validator.calls)
}

func TestJWTRejectsMalformedHeader(t *testing.T) {
	validator := &stubValidator{}
	router, reached := newAuthRouter(validator, models.RoleStudent)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.False(t, *reached)
}

func TestJWTPropagatesValidatorError(t *testing.T) {
	validator := &stubValidator{err: appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")}
	router, reached := newAuthRouter(validator, models.RoleStudent)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer expired")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "UNAUTHORIZED")
	assert.False(t, *reached)
}

func TestJWTStoresClaimsForHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent}}

	var seen *models.JWTClaims
	var userID string
	router := gin.New()
	router.GET("/", JWT(validator), func(c *gin.Context) {
		value, _ := c.Get(ContextUserKey)
		seen, _ = value.(*models.JWTClaims)
		userID = c.GetString(logger.UserIDKey)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer token-1")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusNoContent, recorder.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "stu-1", seen.UserID)
	assert.Equal(t, "stu-1", userID)
}

func TestRequireRolesForbidsOtherRoles(t *testing.T) {
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent}}
	router, reached := newAuthRouter(validator, models.RoleProfessor)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.False(t, *reached)
}

func TestRequireRolesAllowsAdmin(t *testing.T) {
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "adm-1", Role: models.RoleAdmin}}
	router, reached := newAuthRouter(validator, models.RoleProfessor)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.True(t, *reached)
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", RequireRoles(models.RoleStudent), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
