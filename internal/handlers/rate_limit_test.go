package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type stubLimiter struct {
	enabled  bool
	limit    int64
	allowSeq []bool
	calls    int
	err      error
}

func (s *stubLimiter) Allow(ctx context.Context, key string) (bool, int64, time.Time, error) {
	if s.err != nil {
		return false, 0, time.Time{}, s.err
	}
	allowed := true
	if s.calls < len(s.allowSeq) {
		allowed = s.allowSeq[s.calls]
	}
	s.calls++
	remaining := s.limit - int64(s.calls)
	if remaining < 0 {
		remaining = 0
	}
	return allowed, remaining, time.Now().Add(time.Minute), nil
}

func (s *stubLimiter) Enabled() bool { return s.enabled }
func (s *stubLimiter) Limit() int64  { return s.limit }

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRateLimitMiddleware_BlocksAfterLimit(t *testing.T) {
	limiter := &stubLimiter{enabled: true, limit: 2, allowSeq: []bool{true, true, false}}
	wrapped := RateLimitMiddleware(limiter, testLogger(), okHandler)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/promo-codes", nil)
		rr := httptest.NewRecorder()
		wrapped(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rr.Code)
		}
		if rr.Header().Get("X-RateLimit-Limit") != "2" {
			t.Fatalf("expected limit header, got %q", rr.Header().Get("X-RateLimit-Limit"))
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/promo-codes", nil)
	rr := httptest.NewRecorder()
	wrapped(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("X-RateLimit-Reset") == "" {
		t.Fatalf("expected reset header on blocked request")
	}
}

func TestRateLimitMiddleware_DisabledSkipsLimiter(t *testing.T) {
	limiter := &stubLimiter{enabled: false, limit: 1, allowSeq: []bool{false}}
	wrapped := RateLimitMiddleware(limiter, testLogger(), okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rr := httptest.NewRecorder()
	wrapped(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with limiter disabled, got %d", rr.Code)
	}
	if limiter.calls != 0 {
		t.Fatalf("expected limiter not to be consulted, got %d calls", limiter.calls)
	}
}

func TestRateLimitMiddleware_NilLimiter(t *testing.T) {
	wrapped := RateLimitMiddleware(nil, testLogger(), okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rr := httptest.NewRecorder()
	wrapped(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with nil limiter, got %d", rr.Code)
	}
}

func TestRateLimitMiddleware_LimiterError(t *testing.T) {
	limiter := &stubLimiter{enabled: true, limit: 5, err: errors.New("redis down")}
	wrapped := RateLimitMiddleware(limiter, testLogger(), okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rr := httptest.NewRecorder()
	wrapped(rr, req)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on limiter failure, got %d", rr.Code)
	}
}
