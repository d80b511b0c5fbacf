package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RapidSafe/pkg/cache"
)

type staticTokens map[string]string

func (s staticTokens) Verify(_ context.Context, tok string) (string, bool) {
	uid, ok := s[tok]
	return uid, ok
}

func init() { gin.SetMode(gin.TestMode) }

func TestAuthenticate(t *testing.T) {
	r := gin.New()
	r.Use(Authenticate(staticTokens{"t1": "u1"}))
	r.GET("/me", func(c *gin.Context) { c.String(http.StatusOK, UserID(c)) })

	cases := map[string]string{"Bearer t1": "u1", "Bearer nope": "", "": "", "t1": ""}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Body.String(), "header %q", header)
	}
}

func TestIdempotencyReplaysFirstResponse(t *testing.T) {
	store, err := cache.NewCache(cache.Config{Type: "gocache"})
	require.NoError(t, err)

	var calls atomic.Int32
	r := gin.New()
	r.Use(IdempotencyMiddleware(IdempotencyConfig{Store: store, TTL: time.Minute}))
	r.POST("/alerts", func(c *gin.Context) {
		n := calls.Add(1)
		c.JSON(http.StatusOK, gin.H{"n": n})
	})

	do := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/alerts", nil)
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	first := do("k1")
	second := do("k1")
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.EqualValues(t, 1, calls.Load())

	do("")
	do("")
	assert.EqualValues(t, 3, calls.Load())
}

func TestIdempotencyReleasesKeyAfterPanic(t *testing.T) {
	store, err := cache.NewCache(cache.Config{Type: "gocache"})
	require.NoError(t, err)

	var calls atomic.Int32
	r := gin.New()
	r.Use(gin.Recovery(), IdempotencyMiddleware(IdempotencyConfig{Store: store, TTL: time.Minute}))
	r.POST("/alerts", func(c *gin.Context) {
		if calls.Add(1) == 1 {
			panic("db gone")
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/alerts", nil)
		req.Header.Set("Idempotency-Key", "k-panic")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusInternalServerError, do().Code)
	retry := do()
	assert.Equal(t, http.StatusOK, retry.Code, "retry is not stuck behind a pending key")
	assert.EqualValues(t, 2, calls.Load())
}

func TestRateLimiterDenies(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewPrometheusObserver(reg)
	rl := NewRateLimiter(RateLimiterConfig{Rate: "2-M", AddHeaders: true}, nil).WithObserver(obs)

	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/track/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/track/a1", nil)
		req.RemoteAddr = "203.0.113.9:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.deny.WithLabelValues("/track/:id")))
}

func TestRateLimiterWhitelist(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: "1-M", WhitelistCIDRs: []string{"10.0.0.0/8"}}, nil)
	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = "10.1.2.3:1"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
