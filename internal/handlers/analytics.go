package handlers

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bakery-system/internal/config"
	"bakery-system/internal/logger"
	"bakery-system/internal/models"
)

const defaultTopLimitFallback = 5

// AnalyticsHandler обрабатывает эндпоинты аналитики промокодов.
type AnalyticsHandler struct {
	service AnalyticsProvider
	log     *logger.Logger
	cfg     *config.AnalyticsConfig
}

// NewAnalyticsHandler создает новый обработчик аналитики.
func NewAnalyticsHandler(service AnalyticsProvider, log *logger.Logger, cfg *config.AnalyticsConfig) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		log:     log,
		cfg:     cfg,
	}
}

// GetPromoStats возвращает сводку использования промокодов с возможностью
// экспорта в CSV.
func (h *AnalyticsHandler) GetPromoStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	filter, format, err := parsePromoStatsFilter(r, h.cfg)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), analyticsTimeout(h.cfg))
	defer cancel()

	stats, err := h.service.GetPromoStats(ctx, filter)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load promo analytics")
		return
	}

	if format == "csv" {
		if err := writePromoStatsCSV(w, stats); err != nil {
			h.log.WithError(err).Warn("Failed to stream promo stats CSV")
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, stats)
}

func parsePromoStatsFilter(r *http.Request, cfg *config.AnalyticsConfig) (*models.PromoStatsFilter, string, error) {
	query := r.URL.Query()

	filter := &models.PromoStatsFilter{}
	if fromParam := query.Get("from"); fromParam != "" {
		parsed, err := time.Parse("2006-01-02", fromParam)
		if err != nil {
			return nil, "", fmt.Errorf("invalid 'from' date, expected YYYY-MM-DD")
		}
		filter.From = startOfDay(parsed)
	}
	if toParam := query.Get("to"); toParam != "" {
		parsed, err := time.Parse("2006-01-02", toParam)
		if err != nil {
			return nil, "", fmt.Errorf("invalid 'to' date, expected YYYY-MM-DD")
		}
		filter.To = endOfDay(parsed)
	}

	topDefault := defaultTopLimitFallback
	if cfg != nil && cfg.DefaultTopLimit > 0 {
		topDefault = cfg.DefaultTopLimit
	}
	filter.Top = parseIntWithDefault(query.Get("top"), topDefault)

	format := strings.ToLower(query.Get("format"))
	if format != "" && format != "json" && format != "csv" {
		return nil, "", fmt.Errorf("format must be json or csv")
	}

	return filter, format, nil
}

func parseIntWithDefault(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return defaultValue
	}

	return parsed
}

func writePromoStatsCSV(w http.ResponseWriter, stats *models.PromoStats) error {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=promo_stats.csv")
	w.WriteHeader(http.StatusOK)

	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"section", "period", "redemptions", "total_discount", "average_discount"})
	rangeLabel := fmt.Sprintf("%s..%s", stats.From.Format("2006-01-02"), stats.To.Format("2006-01-02"))
	_ = writer.Write([]string{"summary", rangeLabel, strconv.Itoa(stats.Redemptions), fmt.Sprintf("%.2f", stats.TotalDiscount), fmt.Sprintf("%.2f", stats.AverageDiscount)})

	_ = writer.Write([]string{})
	_ = writer.Write([]string{"section", "code", "redemptions", "total_discount"})
	for _, item := range stats.TopCodes {
		_ = writer.Write([]string{"top_code", item.Code, strconv.Itoa(item.Redemptions), fmt.Sprintf("%.2f", item.TotalDiscount)})
	}

	writer.Flush()
	return writer.Error()
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Millisecond*999), time.UTC)
}

func analyticsTimeout(cfg *config.AnalyticsConfig) time.Duration {
	if cfg != nil && cfg.RequestTimeoutSeconds > 0 {
		return time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	}
	return 5 * time.Second
}
