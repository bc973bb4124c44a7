package services

import (
	"context"
	"testing"
	"time"

	"bakery-system/internal/apperror"
	"bakery-system/internal/config"
	"bakery-system/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestAnalyticsService_GetPromoStats(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewAnalyticsService(db, nil, newTestLogger(), &config.AnalyticsConfig{DefaultTopLimit: 3})

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"redemptions", "total_discount", "average_discount"}).
			AddRow(12, 360.0, 30.0))
	mock.ExpectQuery("SELECT p.code").
		WillReturnRows(sqlmock.NewRows([]string{"code", "redemptions", "total_discount"}).
			AddRow("SAVE20", 8, 240.0).
			AddRow("FREESHIP", 4, 120.0))

	from := time.Now().AddDate(0, 0, -7)
	to := time.Now()
	stats, err := service.GetPromoStats(context.Background(), &models.PromoStatsFilter{From: from, To: to})
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	if stats.Redemptions != 12 || stats.TotalDiscount != 360.0 || stats.AverageDiscount != 30.0 {
		t.Fatalf("unexpected summary: %+v", stats)
	}
	if len(stats.TopCodes) != 2 || stats.TopCodes[0].Code != "SAVE20" {
		t.Fatalf("unexpected top codes: %+v", stats.TopCodes)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAnalyticsService_GetPromoStats_Cached(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewAnalyticsService(db, newTestRedis(t), newTestLogger(), nil)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"redemptions", "total_discount", "average_discount"}).
			AddRow(1, 10.0, 10.0))
	mock.ExpectQuery("SELECT p.code").
		WillReturnRows(sqlmock.NewRows([]string{"code", "redemptions", "total_discount"}).
			AddRow("A", 1, 10.0))

	filter := &models.PromoStatsFilter{
		From: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
	}
	if _, err := service.GetPromoStats(context.Background(), filter); err != nil {
		t.Fatalf("first call failed: %v", err)
	}

	// повторный запрос с тем же периодом обслуживается кешем
	cached, err := service.GetPromoStats(context.Background(), filter)
	if err != nil || cached.Redemptions != 1 {
		t.Fatalf("cached call failed: %v %+v", err, cached)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAnalyticsService_GetPromoStats_RangeValidation(t *testing.T) {
	db, _ := newMockDB(t)
	defer db.Close()

	service := NewAnalyticsService(db, nil, newTestLogger(), &config.AnalyticsConfig{MaxRangeDays: 30})

	_, err := service.GetPromoStats(context.Background(), &models.PromoStatsFilter{
		From: time.Now(),
		To:   time.Now().AddDate(0, 0, -1),
	})
	if err == nil || !apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("expected validation error for inverted range, got %v", err)
	}

	_, err = service.GetPromoStats(context.Background(), &models.PromoStatsFilter{
		From: time.Now().AddDate(0, 0, -90),
		To:   time.Now(),
	})
	if err == nil || !apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("expected validation error for oversized range, got %v", err)
	}
}
