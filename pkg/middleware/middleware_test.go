package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apperrors "roombook/pkg/errors"
	"roombook/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisIdempotencyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisIdempotencyStore(client, ttl), mr
}

func countingHandler(calls *int32, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"call":` + string(rune('0'+n)) + `}`))
	})
}

func postWithKey(key, auth string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/bookings/create", strings.NewReader(`{}`))
	r.Header.Set(IdempotencyHeader, key)
	r.Header.Set("Authorization", auth)
	return r
}

func TestIdempotency_ReplaysSuccessfulResponse(t *testing.T) {
	store, _ := newRedisStore(t, time.Hour)
	var calls int32
	h := Idempotency(store, logger.Discard())(countingHandler(&calls, http.StatusCreated))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, postWithKey("abc", "Bearer one"))
	second := httptest.NewRecorder()
	h.ServeHTTP(second, postWithKey("abc", "Bearer one"))

	assert.Equal(t, int32(1), calls)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
}

func TestIdempotency_ScopedPerCaller(t *testing.T) {
	store, _ := newRedisStore(t, time.Hour)
	var calls int32
	h := Idempotency(store, logger.Discard())(countingHandler(&calls, http.StatusCreated))

	h.ServeHTTP(httptest.NewRecorder(), postWithKey("abc", "Bearer one"))
	h.ServeHTTP(httptest.NewRecorder(), postWithKey("abc", "Bearer two"))

	assert.Equal(t, int32(2), calls)
}

func TestIdempotency_DoesNotStoreFailures(t *testing.T) {
	store, _ := newRedisStore(t, time.Hour)
	var calls int32
	h := Idempotency(store, logger.Discard())(countingHandler(&calls, http.StatusBadRequest))

	h.ServeHTTP(httptest.NewRecorder(), postWithKey("abc", ""))
	h.ServeHTTP(httptest.NewRecorder(), postWithKey("abc", ""))

	assert.Equal(t, int32(2), calls)
}

func TestIdempotency_EntryExpires(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	var calls int32
	h := Idempotency(store, logger.Discard())(countingHandler(&calls, http.StatusOK))

	h.ServeHTTP(httptest.NewRecorder(), postWithKey("abc", ""))
	mr.FastForward(2 * time.Minute)
	h.ServeHTTP(httptest.NewRecorder(), postWithKey("abc", ""))

	assert.Equal(t, int32(2), calls)
}

func TestIdempotency_StoreDownPassesThrough(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	mr.Close()
	var calls int32
	h := Idempotency(store, logger.Discard())(countingHandler(&calls, http.StatusOK))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, postWithKey("abc", ""))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(1), calls)
}

func TestRateLimit_RejectsOverBurst(t *testing.T) {
	limiter := NewClientRateLimiter(1, 2, nil, logger.Discard())
	defer limiter.Stop()
	h := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodGet, "/rooms/availability?date=2024-03-01", nil)
		r.RemoteAddr = "10.0.0.1:5555"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "10.0.0.2:5555"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, other)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	limiter := NewClientRateLimiter(1, 1, nil, logger.Discard())
	defer limiter.Stop()

	limiter.Allow("10.0.0.1")
	limiter.evictIdle(time.Now().Add(time.Hour))

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.Empty(t, limiter.clients)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientIP(r))
}

func TestContentTypeValidation(t *testing.T) {
	h := ContentTypeValidation(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	bad := httptest.NewRequest(http.MethodPost, "/users/login", strings.NewReader("username=a"))
	bad.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, bad)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	good := httptest.NewRequest(http.MethodPost, "/users/login", strings.NewReader(`{}`))
	good.Header.Set("Content-Type", "application/json; charset=utf-8")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, good)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/bookings/1", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRecovery_ReturnsGenericError(t *testing.T) {
	h := Recovery(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("secret internals")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret internals")
	assert.Contains(t, w.Body.String(), apperrors.CodeInternal)
}

func TestMaxRequestSize(t *testing.T) {
	h := MaxRequestSize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRequestTimeout(t *testing.T) {
	h := RequestTimeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.CodeTimeout)
}

func TestRequestTimeout_LateHeadersNeverReachResponse(t *testing.T) {
	release := make(chan struct{})
	finished := make(chan struct{})
	h := RequestTimeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(finished)
		<-r.Context().Done()
		<-release
		w.Header().Set("X-Late", "1")
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusCreated)
		_, err := w.Write([]byte("late"))
		assert.ErrorIs(t, err, http.ErrHandlerTimeout)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	close(release)
	<-finished

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Empty(t, w.Header().Get("X-Late"))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotContains(t, w.Body.String(), "late")
}

func TestRequestTimeout_HandlerHeadersReachResponse(t *testing.T) {
	h := RequestTimeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
		w.Header().Set("X-Custom", "yes")
		_, _ = w.Write([]byte("ok"))
	}))

	w := httptest.NewRecorder()
	w.Header().Set(RequestIDHeader, "req-1")
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "yes", w.Header().Get("X-Custom"))
	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "ok", w.Body.String())
}

func TestRequestLogging_AssignsRequestID(t *testing.T) {
	var seen string
	h := RequestLogging(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))

	incoming := uuid.NewString()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, incoming)
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, incoming, seen)

	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/bookings/:id", routeLabel("/bookings/65f1a2b3c4d5e6f708192a3b"))
	assert.Equal(t, "/rooms/availability", routeLabel("/rooms/availability"))
}
