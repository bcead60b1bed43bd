package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func setupLimitedRouter(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handler)
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestIPRateLimitThrottlesAfterBurst(t *testing.T) {
	router := setupLimitedRouter(IPRateLimit(rate.Limit(1), 2))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestIPRateLimitIsPerClient(t *testing.T) {
	router := setupLimitedRouter(IPRateLimit(rate.Limit(1), 1))

	first := httptest.NewRequest(http.MethodGet, "/ping", nil)
	first.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	second := httptest.NewRequest(http.MethodGet, "/ping", nil)
	second.RemoteAddr = "10.0.0.2:1234"
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, second)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUserRateLimitKeysOnUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	userID := 1
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	r.Use(UserRateLimit(rate.Limit(1), 1))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A different user has their own bucket.
	userID = 2
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestStopEvictionTerminatesAndKeepsBuckets(t *testing.T) {
	kl := newKeyedLimiter(rate.Limit(1), 1)
	require.True(t, kl.allow("10.0.0.1"))
	require.False(t, kl.allow("10.0.0.1"))

	kl.stopEviction()
	kl.stopEviction()

	select {
	case <-kl.stop:
	default:
		t.Fatal("stop channel still open")
	}
	require.False(t, kl.allow("10.0.0.1"))
	require.True(t, kl.allow("10.0.0.2"))
}
