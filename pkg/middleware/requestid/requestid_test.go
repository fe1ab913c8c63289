package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, incoming string) (string, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if incoming != "" {
		req.Header.Set(headerKey, incoming)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return seen, rec
}

func TestMiddlewarePropagatesIncomingID(t *testing.T) {
	seen, rec := run(t, "trace-123")

	assert.Equal(t, "trace-123", seen)
	assert.Equal(t, "trace-123", rec.Header().Get(headerKey))
}

func TestMiddlewareReplacesMissingOrInvalidID(t *testing.T) {
	for _, incoming := range []string{"", strings.Repeat("a", 200), "has space"} {
		seen, rec := run(t, incoming)
		_, err := uuid.Parse(seen)
		require.NoError(t, err, incoming)
		assert.Equal(t, seen, rec.Header().Get(headerKey))
	}
}
