package services

import (
	"context"
	"fmt"
	"time"

	"bakery-system/internal/apperror"
	"bakery-system/internal/config"
	"bakery-system/internal/database"
	"bakery-system/internal/logger"
	"bakery-system/internal/models"
	"bakery-system/internal/redis"
)

const (
	DefaultTopCodesLimit = 5
	defaultCacheTTL      = 10 * time.Minute
	defaultRangeDays     = 30
)

// AnalyticsService агрегирует статистику использования промокодов
// и кеширует тяжёлые выборки.
type AnalyticsService struct {
	db           *database.DB
	redis        *redis.Client
	log          *logger.Logger
	cacheTTL     time.Duration
	maxRangeDays int
	defaultTop   int
}

// NewAnalyticsService создает новый сервис аналитики.
func NewAnalyticsService(db *database.DB, redisClient *redis.Client, log *logger.Logger, cfg *config.AnalyticsConfig) *AnalyticsService {
	cacheTTL := defaultCacheTTL
	maxRange := 365
	defaultTop := DefaultTopCodesLimit

	if cfg != nil {
		if cfg.CacheTTLMinutes > 0 {
			cacheTTL = time.Duration(cfg.CacheTTLMinutes) * time.Minute
		}
		if cfg.MaxRangeDays > 0 {
			maxRange = cfg.MaxRangeDays
		}
		if cfg.DefaultTopLimit > 0 {
			defaultTop = cfg.DefaultTopLimit
		}
	}

	return &AnalyticsService{
		db:           db,
		redis:        redisClient,
		log:          log,
		cacheTTL:     cacheTTL,
		maxRangeDays: maxRange,
		defaultTop:   defaultTop,
	}
}

// GetPromoStats возвращает сводку использования промокодов за период.
func (s *AnalyticsService) GetPromoStats(ctx context.Context, filter *models.PromoStatsFilter) (*models.PromoStats, error) {
	filter, err := s.normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	cacheKey := s.buildCacheKey(filter)
	var cached models.PromoStats
	if s.tryGetFromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	summaryQuery := `
		SELECT COUNT(*) AS redemptions,
		       COALESCE(SUM(discount_amount), 0) AS total_discount,
		       COALESCE(AVG(discount_amount), 0) AS average_discount
		FROM promo_code_usage
		WHERE created_at BETWEEN $1 AND $2
	`

	stats := &models.PromoStats{
		From: filter.From,
		To:   filter.To,
	}
	row := s.db.QueryRowContext(ctx, summaryQuery, filter.From, filter.To)
	if err := row.Scan(&stats.Redemptions, &stats.TotalDiscount, &stats.AverageDiscount); err != nil {
		return nil, fmt.Errorf("failed to load promo stats summary: %w", err)
	}

	topQuery := `
		SELECT p.code,
		       COUNT(u.id) AS redemptions,
		       COALESCE(SUM(u.discount_amount), 0) AS total_discount
		FROM promo_code_usage u
		JOIN promo_codes p ON p.id = u.promo_code_id
		WHERE u.created_at BETWEEN $1 AND $2
		GROUP BY p.code
		ORDER BY redemptions DESC, total_discount DESC, p.code ASC
		LIMIT $3
	`

	rows, err := s.db.QueryContext(ctx, topQuery, filter.From, filter.To, filter.Top)
	if err != nil {
		return nil, fmt.Errorf("failed to load top promo codes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.PromoCodeStat
		if err := rows.Scan(&item.Code, &item.Redemptions, &item.TotalDiscount); err != nil {
			return nil, fmt.Errorf("failed to scan promo code stat: %w", err)
		}
		stats.TopCodes = append(stats.TopCodes, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate promo code stats: %w", err)
	}

	stats.GeneratedAt = time.Now()
	s.saveToCache(ctx, cacheKey, stats)
	return stats, nil
}

func (s *AnalyticsService) normalizeFilter(filter *models.PromoStatsFilter) (*models.PromoStatsFilter, error) {
	if filter == nil {
		filter = &models.PromoStatsFilter{}
	}
	now := time.Now()
	if filter.To.IsZero() {
		filter.To = now
	}
	if filter.From.IsZero() {
		filter.From = filter.To.AddDate(0, 0, -defaultRangeDays)
	}
	if filter.From.After(filter.To) {
		return nil, apperror.Validation("from must be before to", nil)
	}
	if filter.To.Sub(filter.From) > time.Duration(s.maxRangeDays)*24*time.Hour {
		return nil, apperror.Validation(fmt.Sprintf("date range cannot exceed %d days", s.maxRangeDays), nil)
	}
	if filter.Top <= 0 {
		filter.Top = s.defaultTop
	}
	return filter, nil
}

func (s *AnalyticsService) buildCacheKey(filter *models.PromoStatsFilter) string {
	return redis.GenerateKey(redis.KeyPrefixStats, fmt.Sprintf(
		"%s:%s:%d",
		filter.From.Format("2006-01-02"),
		filter.To.Format("2006-01-02"),
		filter.Top,
	))
}

func (s *AnalyticsService) tryGetFromCache(ctx context.Context, key string, dest interface{}) bool {
	if s.redis == nil {
		return false
	}
	if err := s.redis.Get(ctx, key, dest); err != nil {
		return false
	}
	return true
}

func (s *AnalyticsService) saveToCache(ctx context.Context, key string, value interface{}) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("Failed to cache promo stats")
	}
}
