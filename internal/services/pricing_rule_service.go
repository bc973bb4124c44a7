package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bakery-system/internal/apperror"
	"bakery-system/internal/database"
	"bakery-system/internal/logger"
	"bakery-system/internal/models"
	"bakery-system/internal/redis"

	"github.com/google/uuid"
)

const ruleColumns = `id, name, rule_type, target_value, discount_type, discount_value,
		minimum_order_amount, maximum_discount, start_date, end_date, is_active, priority, created_at, updated_at`

// PricingRuleService управляет ценовыми правилами. Список активных правил
// кешируется в Redis: он читается при каждой проверке корзины.
type PricingRuleService struct {
	db       *database.DB
	redis    *redis.Client
	log      *logger.Logger
	cacheTTL time.Duration
}

// NewPricingRuleService создаёт сервис ценовых правил.
func NewPricingRuleService(db *database.DB, redisClient *redis.Client, log *logger.Logger, cacheTTL time.Duration) *PricingRuleService {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &PricingRuleService{
		db:       db,
		redis:    redisClient,
		log:      log,
		cacheTTL: cacheTTL,
	}
}

// CreatePricingRule создаёт новое ценовое правило.
func (s *PricingRuleService) CreatePricingRule(ctx context.Context, req *models.CreatePricingRuleRequest) (*models.PricingRule, error) {
	if err := validatePricingRulePayload(req.RuleType, req.TargetValue, req.DiscountType, req.DiscountValue); err != nil {
		return nil, apperror.Validation(err.Error(), err)
	}

	now := time.Now()
	rule := &models.PricingRule{
		ID:                 uuid.New(),
		Name:               req.Name,
		RuleType:           req.RuleType,
		TargetValue:        req.TargetValue,
		DiscountType:       req.DiscountType,
		DiscountValue:      req.DiscountValue,
		MinimumOrderAmount: req.MinimumOrderAmount,
		MaximumDiscount:    req.MaximumDiscount,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		IsActive:           req.IsActive,
		Priority:           req.Priority,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	query := `
		INSERT INTO pricing_rules (id, name, rule_type, target_value, discount_type, discount_value,
			minimum_order_amount, maximum_discount, start_date, end_date, is_active, priority, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := s.db.ExecContext(ctx, query,
		rule.ID, rule.Name, rule.RuleType, rule.TargetValue, rule.DiscountType, rule.DiscountValue,
		rule.MinimumOrderAmount, rule.MaximumDiscount, rule.StartDate, rule.EndDate, rule.IsActive,
		rule.Priority, rule.CreatedAt, rule.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create pricing rule: %w", err)
	}

	s.invalidateCache(ctx)
	s.log.WithField("rule_id", rule.ID).Info("Pricing rule created")
	return rule, nil
}

// GetPricingRule возвращает правило по идентификатору.
func (s *PricingRuleService) GetPricingRule(ctx context.Context, id uuid.UUID) (*models.PricingRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM pricing_rules WHERE id = $1`
	rule, err := scanPricingRule(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("pricing rule not found", err)
		}
		return nil, fmt.Errorf("failed to get pricing rule: %w", err)
	}
	return rule, nil
}

// UpdatePricingRule обновляет правило.
func (s *PricingRuleService) UpdatePricingRule(ctx context.Context, id uuid.UUID, req *models.UpdatePricingRuleRequest) (*models.PricingRule, error) {
	if err := validatePricingRulePayload(req.RuleType, req.TargetValue, req.DiscountType, req.DiscountValue); err != nil {
		return nil, apperror.Validation(err.Error(), err)
	}

	query := `
		UPDATE pricing_rules
		SET name = $1, rule_type = $2, target_value = $3, discount_type = $4, discount_value = $5,
			minimum_order_amount = $6, maximum_discount = $7, start_date = $8, end_date = $9,
			is_active = $10, priority = $11, updated_at = $12
		WHERE id = $13
	`

	result, err := s.db.ExecContext(ctx, query,
		req.Name, req.RuleType, req.TargetValue, req.DiscountType, req.DiscountValue,
		req.MinimumOrderAmount, req.MaximumDiscount, req.StartDate, req.EndDate,
		req.IsActive, req.Priority, time.Now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update pricing rule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, apperror.NotFound("pricing rule not found", nil)
	}

	s.invalidateCache(ctx)
	return s.GetPricingRule(ctx, id)
}

// DeletePricingRule удаляет правило.
func (s *PricingRuleService) DeletePricingRule(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM pricing_rules WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete pricing rule: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("pricing rule not found", nil)
	}
	s.invalidateCache(ctx)
	return nil
}

// ListPricingRules возвращает все правила для админки.
func (s *PricingRuleService) ListPricingRules(ctx context.Context) ([]*models.PricingRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM pricing_rules ORDER BY priority ASC, created_at ASC`
	return s.queryRules(ctx, query)
}

// ListActiveRules возвращает правила, действующие в указанный момент.
// Кешируется множество включённых правил, временное окно фильтруется
// в памяти: так TTL кеша не зависит от asOf.
func (s *PricingRuleService) ListActiveRules(ctx context.Context, asOf time.Time) ([]*models.PricingRule, error) {
	cacheKey := redis.GenerateKey(redis.KeyPrefixPricingRules, "active")

	var cached []*models.PricingRule
	if s.redis != nil {
		if err := s.redis.Get(ctx, cacheKey, &cached); err == nil {
			return filterActive(cached, asOf), nil
		}
	}

	query := `SELECT ` + ruleColumns + ` FROM pricing_rules WHERE is_active = true ORDER BY priority ASC, created_at ASC`
	rules, err := s.queryRules(ctx, query)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, cacheKey, rules, s.cacheTTL); err != nil {
			s.log.WithError(err).Warn("Failed to cache pricing rules")
		}
	}

	return filterActive(rules, asOf), nil
}

func filterActive(rules []*models.PricingRule, asOf time.Time) []*models.PricingRule {
	var active []*models.PricingRule
	for _, r := range rules {
		if r.ActiveAt(asOf) {
			active = append(active, r)
		}
	}
	return active
}

func (s *PricingRuleService) queryRules(ctx context.Context, query string, args ...interface{}) ([]*models.PricingRule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pricing rules: %w", err)
	}
	defer rows.Close()

	var rules []*models.PricingRule
	for rows.Next() {
		r, err := scanPricingRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pricing rule: %w", err)
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pricing rules: %w", err)
	}
	return rules, nil
}

// invalidateCache сбрасывает кеш правил. Ошибка не фатальна: кеш истечёт по TTL.
func (s *PricingRuleService) invalidateCache(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.DeleteByPrefix(ctx, redis.KeyPrefixPricingRules); err != nil {
		s.log.WithError(err).Warn("Failed to invalidate pricing rules cache")
	}
}

func scanPricingRule(row interface{ Scan(...interface{}) error }) (*models.PricingRule, error) {
	r := &models.PricingRule{}
	err := row.Scan(
		&r.ID, &r.Name, &r.RuleType, &r.TargetValue, &r.DiscountType, &r.DiscountValue,
		&r.MinimumOrderAmount, &r.MaximumDiscount, &r.StartDate, &r.EndDate, &r.IsActive,
		&r.Priority, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func validatePricingRulePayload(ruleType models.RuleScope, targetValue *string, discountType models.DiscountType, value float64) error {
	switch ruleType {
	case models.RuleScopeGlobal:
	case models.RuleScopeProduct, models.RuleScopeCategory:
		if targetValue == nil || *targetValue == "" {
			return fmt.Errorf("target_value is required for %s rules", ruleType)
		}
	default:
		return fmt.Errorf("invalid rule_type")
	}

	switch discountType {
	case models.DiscountTypeFixedAmount:
		if value < 0 {
			return fmt.Errorf("discount value must be non-negative for fixed amount")
		}
	case models.DiscountTypePercentage:
		if value <= 0 || value > 100 {
			return fmt.Errorf("percentage value must be between 0 and 100")
		}
	default:
		return fmt.Errorf("invalid discount_type")
	}

	return nil
}
