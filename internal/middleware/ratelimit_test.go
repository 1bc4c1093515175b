package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/aufildessentiers/backend/internal/cache"
	"github.com/aufildessentiers/backend/internal/database/testutil"
)

func hitRoute(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "10.1.2.3:1234"
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitMemoryStore(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/ping", RateLimit(NewMemoryRateStore(), "global", 2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	require.Equal(t, http.StatusOK, hitRoute(r, "/ping").Code)
	w := hitRoute(r, "/ping")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = hitRoute(r, "/ping")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRateLimitPerRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := NewMemoryRateStore()
	limited := RateLimit(store, "global", 1, time.Minute)

	r := gin.New()
	r.GET("/a", limited, func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/b", limited, func(c *gin.Context) { c.Status(http.StatusOK) })

	require.Equal(t, http.StatusOK, hitRoute(r, "/a").Code)
	require.Equal(t, http.StatusTooManyRequests, hitRoute(r, "/a").Code)

	// Another route has its own counter.
	require.Equal(t, http.StatusOK, hitRoute(r, "/b").Code)
}

func TestRateLimitStackedScopes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := NewMemoryRateStore()

	r := gin.New()
	r.POST("/mail",
		RateLimit(store, "global", 10, time.Minute),
		RateLimit(store, "email", 3, time.Hour),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	// Each limiter counts once per request, so all three pass the email cap.
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/mail", nil)
		req.RemoteAddr = "10.1.2.3:1234"
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/mail", nil)
	req.RemoteAddr = "10.1.2.3:1234"
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRateLimitDatabaseStore(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := NewCacheRateStore(cache.NewDatabaseStore(db))

	r := gin.New()
	r.GET("/ping", RateLimit(store, "global", 1, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	require.Equal(t, http.StatusOK, hitRoute(r, "/ping").Code)
	require.Equal(t, http.StatusTooManyRequests, hitRoute(r, "/ping").Code)
}

func TestRateLimitDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/ping", RateLimit(nil, "global", 0, 0), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, hitRoute(r, "/ping").Code)
	}
}
