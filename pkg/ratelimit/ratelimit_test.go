package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreFixedWindow(t *testing.T) {
	m := NewMemoryStore(time.Hour)
	defer m.Stop()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	n, left, err := m.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, time.Minute, left)

	now = now.Add(30 * time.Second)
	n, left, _ = m.Incr(ctx, "k", time.Minute)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, 30*time.Second, left)

	now = now.Add(31 * time.Second)
	n, _, _ = m.Incr(ctx, "k", time.Minute)
	assert.EqualValues(t, 1, n, "window should have reset")

	now = now.Add(2 * time.Minute)
	m.cleanupExpired()
	assert.Zero(t, m.Len())
}

func TestLimiterClassesAreIndependent(t *testing.T) {
	m := NewMemoryStore(time.Hour)
	defer m.Stop()
	l := NewLimiter(m, Config{Window: time.Minute, Limits: map[Class]int{General: 3, Auth: 1}}, nil)
	ctx := context.Background()

	d, err := l.Allow(ctx, Auth, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d, _ = l.Allow(ctx, Auth, "1.2.3.4")
	assert.False(t, d.Allowed)

	d, _ = l.Allow(ctx, Auth, "5.6.7.8")
	assert.True(t, d.Allowed, "other clients keep their own budget")

	d, _ = l.Allow(ctx, General, "1.2.3.4")
	assert.True(t, d.Allowed)
	assert.Equal(t, 2, d.Remaining)

	d, _ = l.Allow(ctx, Create, "1.2.3.4")
	assert.True(t, d.Allowed, "classes without a limit are unrestricted")
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMemoryStore(time.Hour)
	defer m.Stop()
	l := NewLimiter(m, Config{Window: 15 * time.Minute, Limits: map[Class]int{Create: 2}}, nil)

	r := gin.New()
	r.POST("/things", l.Middleware(Create, func(c *gin.Context, d Decision) {
		c.JSON(http.StatusTooManyRequests, gin.H{"status": "fail", "message": "too many"})
	}), func(c *gin.Context) { c.Status(http.StatusCreated) })

	var rec *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/things", nil))
		if i < 2 {
			assert.Equal(t, http.StatusCreated, rec.Code)
		}
	}
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("RateLimit-Remaining"))
	assert.Equal(t, "900", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "too many")
}

type brokenStore struct{}

func (brokenStore) Incr(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("down")
}

func TestMiddlewareFailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := NewLimiter(brokenStore{}, DefaultConfig(), nil)
	r := gin.New()
	r.GET("/", l.Middleware(General, nil), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

// Set REDIS_TEST_URL (for example redis://localhost:6379/15) to run against a live server.
func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	ctx := context.Background()
	client, err := DialRedis(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	s := NewRedisStore(client)
	key := "test:" + uuid.NewString()
	defer client.Del(ctx, s.prefix+key)

	n, left, err := s.Incr(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.InDelta(t, time.Minute.Seconds(), left.Seconds(), 1)

	n, _, err = s.Incr(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	ttl, err := client.PTTL(ctx, s.prefix+key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	// a counter that lost its expiry gets a fresh window
	require.NoError(t, client.Persist(ctx, s.prefix+key).Err())
	n, left, err = s.Incr(ctx, key, 30*time.Second)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.InDelta(t, 30, left.Seconds(), 1)
	ttl, err = client.PTTL(ctx, s.prefix+key).Result()
	require.NoError(t, err)
	assert.InDelta(t, 30, ttl.Seconds(), 1)
}
