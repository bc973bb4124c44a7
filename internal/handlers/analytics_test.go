package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bakery-system/internal/apperror"
	"bakery-system/internal/config"
	"bakery-system/internal/models"
)

type stubAnalyticsProvider struct {
	stats *models.PromoStats
	err   error

	lastFilter *models.PromoStatsFilter
}

func (s *stubAnalyticsProvider) GetPromoStats(ctx context.Context, filter *models.PromoStatsFilter) (*models.PromoStats, error) {
	s.lastFilter = filter
	return s.stats, s.err
}

func analyticsTestConfig() *config.AnalyticsConfig {
	return &config.AnalyticsConfig{
		CacheTTLMinutes:       10,
		MaxRangeDays:          90,
		DefaultTopLimit:       5,
		RequestTimeoutSeconds: 5,
	}
}

func samplePromoStats() *models.PromoStats {
	return &models.PromoStats{
		From:            time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		To:              time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC),
		Redemptions:     42,
		TotalDiscount:   1260,
		AverageDiscount: 30,
		TopCodes: []models.PromoCodeStat{
			{Code: "SUMMER10", Redemptions: 25, TotalDiscount: 750},
			{Code: "WELCOME", Redemptions: 17, TotalDiscount: 510},
		},
		GeneratedAt: time.Now().UTC(),
	}
}

func TestAnalyticsHandler_GetPromoStats(t *testing.T) {
	provider := &stubAnalyticsProvider{stats: samplePromoStats()}
	handler := NewAnalyticsHandler(provider, testLogger(), analyticsTestConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/promo-stats?from=2025-06-01&to=2025-06-30&top=3", nil)
	rr := httptest.NewRecorder()
	handler.GetPromoStats(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var stats models.PromoStats
	if err := json.NewDecoder(rr.Body).Decode(&stats); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if stats.Redemptions != 42 || len(stats.TopCodes) != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if provider.lastFilter == nil || provider.lastFilter.Top != 3 {
		t.Fatalf("expected top=3 in filter, got %+v", provider.lastFilter)
	}
	if provider.lastFilter.From.Day() != 1 || provider.lastFilter.To.Hour() != 23 {
		t.Fatalf("expected day-granular bounds, got %+v", provider.lastFilter)
	}
}

func TestAnalyticsHandler_GetPromoStats_DefaultTop(t *testing.T) {
	provider := &stubAnalyticsProvider{stats: samplePromoStats()}
	handler := NewAnalyticsHandler(provider, testLogger(), analyticsTestConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/promo-stats", nil)
	rr := httptest.NewRecorder()
	handler.GetPromoStats(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if provider.lastFilter == nil || provider.lastFilter.Top != 5 {
		t.Fatalf("expected default top limit, got %+v", provider.lastFilter)
	}
}

func TestAnalyticsHandler_GetPromoStats_CSV(t *testing.T) {
	provider := &stubAnalyticsProvider{stats: samplePromoStats()}
	handler := NewAnalyticsHandler(provider, testLogger(), analyticsTestConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/promo-stats?format=csv", nil)
	rr := httptest.NewRecorder()
	handler.GetPromoStats(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv, got %q", ct)
	}

	body := rr.Body.String()
	if !strings.Contains(body, "summary") || !strings.Contains(body, "SUMMER10") {
		t.Fatalf("unexpected CSV body: %s", body)
	}
}

func TestAnalyticsHandler_GetPromoStats_InvalidDate(t *testing.T) {
	handler := NewAnalyticsHandler(&stubAnalyticsProvider{}, testLogger(), analyticsTestConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/promo-stats?from=June-1st", nil)
	rr := httptest.NewRecorder()
	handler.GetPromoStats(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestAnalyticsHandler_GetPromoStats_InvalidFormat(t *testing.T) {
	handler := NewAnalyticsHandler(&stubAnalyticsProvider{}, testLogger(), analyticsTestConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/promo-stats?format=xml", nil)
	rr := httptest.NewRecorder()
	handler.GetPromoStats(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestAnalyticsHandler_GetPromoStats_RangeTooWide(t *testing.T) {
	provider := &stubAnalyticsProvider{err: apperror.Validation("date range exceeds the allowed window", nil)}
	handler := NewAnalyticsHandler(provider, testLogger(), analyticsTestConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/promo-stats?from=2024-01-01&to=2025-06-30", nil)
	rr := httptest.NewRecorder()
	handler.GetPromoStats(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestAnalyticsHandler_MethodNotAllowed(t *testing.T) {
	handler := NewAnalyticsHandler(&stubAnalyticsProvider{}, testLogger(), analyticsTestConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/analytics/promo-stats", nil)
	rr := httptest.NewRecorder()
	handler.GetPromoStats(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}
