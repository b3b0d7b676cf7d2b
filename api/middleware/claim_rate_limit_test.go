package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/soundleaf/soundleaf-backend/pkg/config"
)

type stubRateLimiter struct {
	counts map[string]int64
	err    error
}

func (s *stubRateLimiter) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.counts == nil {
		s.counts = map[string]int64{}
	}
	s.counts[key]++
	return s.counts[key], nil
}

func claimPolicy(limit int) ClaimRateLimitPolicy {
	return NewClaimRateLimitPolicy(config.ClaimsConfig{
		RateLimitWindow: time.Minute,
		RateLimitMax:    limit,
	})
}

func TestClaimRateLimitAllowsWithinLimit(t *testing.T) {
	store := &stubRateLimiter{}
	handler := ClaimRateLimit(claimPolicy(2), store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/claims", nil)
	req = req.WithContext(WithUserID(req.Context(), "user-1"))

	for i := 0; i < 2; i++ {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 got %d", i+1, resp.Code)
		}
	}
}

func TestClaimRateLimitBlocksOverLimit(t *testing.T) {
	store := &stubRateLimiter{}
	handler := ClaimRateLimit(claimPolicy(1), store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/claims", nil)
	req = req.WithContext(WithUserID(req.Context(), "user-1"))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, req)
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, req)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", second.Code)
	}
}

func TestClaimRateLimitCountsUsersSeparately(t *testing.T) {
	store := &stubRateLimiter{}
	handler := ClaimRateLimit(claimPolicy(1), store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, user := range []string{"user-a", "user-b"} {
		req := httptest.NewRequest(http.MethodPost, "/claims", nil)
		req = req.WithContext(WithUserID(req.Context(), user))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("user %s: expected 200 got %d", user, resp.Code)
		}
	}
}

func TestClaimRateLimitFallsBackToIP(t *testing.T) {
	store := &stubRateLimiter{}
	handler := ClaimRateLimit(claimPolicy(1), store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/claims", nil)
	req.RemoteAddr = "203.0.113.9:4431"

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if _, ok := store.counts["rl:ip:claims:203.0.113.9"]; !ok {
		t.Fatalf("expected ip-scoped counter, got %v", store.counts)
	}
}

func TestClaimRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	store := &stubRateLimiter{}
	handler := ClaimRateLimit(claimPolicy(0), store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/claims", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(store.counts) != 0 {
		t.Fatalf("expected no counters, got %v", store.counts)
	}
}

func TestClaimRateLimitStoreFailure(t *testing.T) {
	store := &stubRateLimiter{err: errors.New("redis down")}
	handler := ClaimRateLimit(claimPolicy(1), store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/claims", nil)
	req = req.WithContext(WithUserID(req.Context(), "user-1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}
