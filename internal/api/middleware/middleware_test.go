package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicpulse/reporter/backend/internal/adapters/cache"
	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	redisclient "github.com/civicpulse/reporter/backend/internal/infrastructure/clients/redis"
)

type stubResolver map[string]*entities.Session

func (s stubResolver) RestoreSession(ctx context.Context, token string) *entities.Session {
	return s[token]
}

func TestAuthenticate(t *testing.T) {
	session := &entities.Session{ID: "s1", User: entities.SessionUser{ID: "u1"}, Valid: true}
	var seen *entities.Session
	handler := Authenticate(stubResolver{"good": session})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		want   *entities.Session
	}{
		{"valid bearer", "Bearer good", session},
		{"lowercase scheme", "bearer good", session},
		{"unknown token", "Bearer bad", nil},
		{"no header", "", nil},
		{"basic auth", "Basic Z29vZA==", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/issues", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, seen)
		})
	}
}

func TestRateLimiter_LocalFallback(t *testing.T) {
	limiter := NewRateLimiter(nil, "intake:", 2, time.Hour)

	allowed, _ := limiter.Allow(context.Background(), "u1")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow(context.Background(), "u1")
	assert.True(t, allowed)
	allowed, retry := limiter.Allow(context.Background(), "u1")
	assert.False(t, allowed)
	assert.Greater(t, retry, time.Duration(0))

	allowed, _ = limiter.Allow(context.Background(), "u2")
	assert.True(t, allowed)
}

func TestRateLimiter_SharedCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	shared := cache.NewRedisAdapter(redisclient.NewClientFromRedis(rdb))

	a := NewRateLimiter(shared, "intake:", 1, time.Hour)
	b := NewRateLimiter(shared, "intake:", 1, time.Hour)

	allowed, _ := a.Allow(context.Background(), "u1")
	require.True(t, allowed)
	allowed, _ = b.Allow(context.Background(), "u1")
	assert.False(t, allowed, "limit is shared across instances")

	mr.FastForward(time.Hour + time.Second)
	allowed, _ = b.Allow(context.Background(), "u1")
	assert.True(t, allowed)
}

func TestRateLimiter_PerUser(t *testing.T) {
	limiter := NewRateLimiter(nil, "intake:", 1, time.Hour)
	handler := limiter.PerUser(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	session := &entities.Session{ID: "s1", User: entities.SessionUser{ID: "u1"}, Valid: true}

	send := func(s *entities.Session) int {
		req := httptest.NewRequest(http.MethodPost, "/api/issues", nil)
		if s != nil {
			req = req.WithContext(WithSession(req.Context(), s))
		}
		rec := httptest.NewRecorder()
		handler(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusCreated, send(session))
	assert.Equal(t, http.StatusTooManyRequests, send(session))
	assert.Equal(t, http.StatusCreated, send(nil))
}

func TestRateLimiter_PerUserCountsOnlyAcceptedReports(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	shared := cache.NewRedisAdapter(redisclient.NewClientFromRedis(rdb))

	for name, store := range map[string]*RateLimiter{
		"local":  NewRateLimiter(nil, "intake:", 1, time.Hour),
		"shared": NewRateLimiter(shared, "intake:", 1, time.Hour),
	} {
		t.Run(name, func(t *testing.T) {
			status := http.StatusUnprocessableEntity
			handler := store.PerUser(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			})
			session := &entities.Session{ID: "s1", User: entities.SessionUser{ID: "u-" + name}, Valid: true}

			send := func() int {
				req := httptest.NewRequest(http.MethodPost, "/api/issues", nil)
				req = req.WithContext(WithSession(req.Context(), session))
				rec := httptest.NewRecorder()
				handler(rec, req)
				return rec.Code
			}

			// location timeouts and validation failures leave the quota intact
			assert.Equal(t, http.StatusUnprocessableEntity, send())
			assert.Equal(t, http.StatusUnprocessableEntity, send())
			status = http.StatusBadRequest
			assert.Equal(t, http.StatusBadRequest, send())

			status = http.StatusCreated
			assert.Equal(t, http.StatusCreated, send())
			assert.Equal(t, http.StatusTooManyRequests, send())
		})
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(nil, "intake:", 0, time.Hour)
	for i := 0; i < 5; i++ {
		allowed, _ := limiter.Allow(context.Background(), "u1")
		assert.True(t, allowed)
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	handler := CORSMiddleware([]string{"https://reports.example.org"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodOptions, "/api/issues", nil)
	req.Header.Set("Origin", "https://reports.example.org")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://reports.example.org", rec.Header().Get("Access-Control-Allow-Origin"))
}
