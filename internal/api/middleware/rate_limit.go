package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/civicpulse/reporter/backend/internal/adapters/cache"
	"github.com/civicpulse/reporter/backend/internal/domain/providers"
)

// RateLimiter caps how many accepted requests a key may make per window. It
// counts in the shared cache when one is configured and falls back to process
// memory.
type RateLimiter struct {
	cache  providers.CacheProvider
	local  *localRateLimiter
	prefix string
	limit  int
	window time.Duration
}

// NewRateLimiter creates a limiter. A limit of 0 disables it.
func NewRateLimiter(cache providers.CacheProvider, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		cache:  cache,
		local:  newLocalRateLimiter(),
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// Allow records one request for key and reports whether it is within the limit
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration) {
	if l.limit <= 0 {
		return true, 0
	}
	key = l.prefix + key

	if l.cache != nil {
		count, err := l.cache.Increment(ctx, key, int(l.window.Seconds()))
		if err == nil {
			return count <= int64(l.limit), l.window
		}
		log.Warn().Err(err).Str("key", key).Msg("rate limit cache unavailable, using local counter")
	}
	return l.local.allow(key, l.limit, l.window)
}

// Exhausted reports whether key has used up its window without counting a
// request.
func (l *RateLimiter) Exhausted(ctx context.Context, key string) (bool, time.Duration) {
	if l.limit <= 0 {
		return false, 0
	}
	key = l.prefix + key

	if l.cache != nil {
		raw, err := l.cache.Get(ctx, key)
		switch {
		case err == nil:
			count, convErr := strconv.ParseInt(string(raw), 10, 64)
			if convErr == nil {
				return count >= int64(l.limit), l.window
			}
			log.Warn().Err(convErr).Str("key", key).Msg("rate limit counter is not a number")
		case errors.Is(err, cache.ErrCacheMiss):
			return false, 0
		default:
			log.Warn().Err(err).Str("key", key).Msg("rate limit cache unavailable, using local counter")
		}
	}
	return l.local.exhausted(key, l.limit)
}

// PerUser limits requests by the session user. Only requests the handler
// accepts with a 2xx status count against the quota; rejected reports can be
// retried. Anonymous requests pass through so the handler can reject them.
func (l *RateLimiter) PerUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := SessionFromContext(r.Context())
		if session == nil {
			next(w, r)
			return
		}

		if exhausted, retryAfter := l.Exhausted(r.Context(), session.UserID()); exhausted {
			w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "report limit reached, try again later"})
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		if rw.statusCode >= 200 && rw.statusCode < 300 {
			l.Allow(context.WithoutCancel(r.Context()), session.UserID())
		}
	}
}

type localRateLimiter struct {
	mu     sync.Mutex
	states map[string]*localRateState
}

type localRateState struct {
	count   int
	resetAt time.Time
}

func newLocalRateLimiter() *localRateLimiter {
	return &localRateLimiter{
		states: make(map[string]*localRateState),
	}
}

func (l *localRateLimiter) allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.states[key]
	if !ok || now.After(state.resetAt) {
		state = &localRateState{count: 0, resetAt: now.Add(window)}
		l.states[key] = state
	}

	if state.count >= limit {
		retryAfter := time.Until(state.resetAt)
		if retryAfter < 0 {
			retryAfter = window
		}
		return false, retryAfter
	}

	state.count++
	return true, window
}

func (l *localRateLimiter) exhausted(key string, limit int) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.states[key]
	if !ok || time.Now().After(state.resetAt) {
		return false, 0
	}
	if state.count < limit {
		return false, 0
	}
	return true, time.Until(state.resetAt)
}
