package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bakery-system/internal/apperror"
	"bakery-system/internal/database"
	"bakery-system/internal/logger"
	"bakery-system/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// querier покрывает *database.DB и *sql.Tx для точечных выборок.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const promoColumns = `id, code, name, description, discount_type, enhanced_type, discount_value,
		minimum_order_amount, maximum_discount, usage_limit, usage_per_customer, valid_until, is_active,
		category_restrictions, product_restrictions, customer_group_restrictions, first_time_only,
		minimum_quantity, maximum_quantity, combination_allowed, stack_with_pricing_rules,
		buy_x_quantity, get_y_quantity, get_y_discount_percentage, created_at, updated_at`

// PromoService управляет промокодами: админский CRUD, проверка против корзины
// и атомарная запись использования.
type PromoService struct {
	db  *database.DB
	log *logger.Logger
}

// NewPromoService создаёт сервис промокодов.
func NewPromoService(db *database.DB, log *logger.Logger) *PromoService {
	return &PromoService{
		db:  db,
		log: log,
	}
}

// CreatePromoCode создаёт новый промокод.
func (s *PromoService) CreatePromoCode(ctx context.Context, req *models.CreatePromoCodeRequest) (*models.PromoCode, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, apperror.Validation("promo code is required", nil)
	}
	if err := validatePromoCodePayload(req.DiscountType, req.EnhancedType, req.DiscountValue, req.UsageLimit, req.UsagePerCustomer, req.BuyXQuantity, req.GetYQuantity); err != nil {
		return nil, apperror.Validation(err.Error(), err)
	}

	now := time.Now()
	promo := &models.PromoCode{
		ID:                        uuid.New(),
		Code:                      code,
		Name:                      req.Name,
		Description:               req.Description,
		DiscountType:              req.DiscountType,
		EnhancedType:              normalizeEnhancedType(req.EnhancedType),
		DiscountValue:             req.DiscountValue,
		MinimumOrderAmount:        req.MinimumOrderAmount,
		MaximumDiscount:           req.MaximumDiscount,
		UsageLimit:                req.UsageLimit,
		UsagePerCustomer:          req.UsagePerCustomer,
		ValidUntil:                req.ValidUntil,
		IsActive:                  req.IsActive,
		CategoryRestrictions:      req.CategoryRestrictions,
		ProductRestrictions:       req.ProductRestrictions,
		CustomerGroupRestrictions: req.CustomerGroupRestrictions,
		FirstTimeOnly:             req.FirstTimeOnly,
		MinimumQuantity:           req.MinimumQuantity,
		MaximumQuantity:           req.MaximumQuantity,
		CombinationAllowed:        req.CombinationAllowed,
		StackWithPricingRules:     req.StackWithPricingRules,
		BuyXQuantity:              req.BuyXQuantity,
		GetYQuantity:              req.GetYQuantity,
		GetYDiscountPercentage:    req.GetYDiscountPercentage,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}

	query := `
		INSERT INTO promo_codes (id, code, name, description, discount_type, enhanced_type, discount_value,
			minimum_order_amount, maximum_discount, usage_limit, usage_per_customer, valid_until, is_active,
			category_restrictions, product_restrictions, customer_group_restrictions, first_time_only,
			minimum_quantity, maximum_quantity, combination_allowed, stack_with_pricing_rules,
			buy_x_quantity, get_y_quantity, get_y_discount_percentage, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
	`

	_, err := s.db.ExecContext(ctx, query,
		promo.ID, promo.Code, promo.Name, promo.Description, promo.DiscountType, promo.EnhancedType, promo.DiscountValue,
		promo.MinimumOrderAmount, promo.MaximumDiscount, promo.UsageLimit, promo.UsagePerCustomer, promo.ValidUntil, promo.IsActive,
		pq.Array(promo.CategoryRestrictions), pq.Array(promo.ProductRestrictions), pq.Array(promo.CustomerGroupRestrictions), promo.FirstTimeOnly,
		promo.MinimumQuantity, promo.MaximumQuantity, promo.CombinationAllowed, promo.StackWithPricingRules,
		promo.BuyXQuantity, promo.GetYQuantity, promo.GetYDiscountPercentage, promo.CreatedAt, promo.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, apperror.Conflict("promo code already exists", err)
		}
		return nil, fmt.Errorf("failed to create promo code: %w", err)
	}

	s.log.WithField("promo_code", promo.Code).Info("Promo code created")
	return promo, nil
}

// GetPromoCode возвращает промокод по коду (без учёта регистра).
func (s *PromoService) GetPromoCode(ctx context.Context, code string) (*models.PromoCode, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes WHERE LOWER(code) = LOWER($1)`
	promo, err := scanPromoCode(s.db.QueryRowContext(ctx, query, strings.TrimSpace(code)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.WithCode(apperror.KindNotFound, models.ReasonCodeNotFound, "promo code not found", err)
		}
		return nil, fmt.Errorf("failed to get promo code: %w", err)
	}
	return promo, nil
}

// UpdatePromoCode обновляет параметры промокода.
func (s *PromoService) UpdatePromoCode(ctx context.Context, code string, req *models.UpdatePromoCodeRequest) (*models.PromoCode, error) {
	if err := validatePromoCodePayload(req.DiscountType, req.EnhancedType, req.DiscountValue, req.UsageLimit, req.UsagePerCustomer, req.BuyXQuantity, req.GetYQuantity); err != nil {
		return nil, apperror.Validation(err.Error(), err)
	}

	query := `
		UPDATE promo_codes
		SET name = $1, description = $2, discount_type = $3, enhanced_type = $4, discount_value = $5,
			minimum_order_amount = $6, maximum_discount = $7, usage_limit = $8, usage_per_customer = $9,
			valid_until = $10, is_active = $11, category_restrictions = $12, product_restrictions = $13,
			customer_group_restrictions = $14, first_time_only = $15, minimum_quantity = $16, maximum_quantity = $17,
			combination_allowed = $18, stack_with_pricing_rules = $19, buy_x_quantity = $20, get_y_quantity = $21,
			get_y_discount_percentage = $22, updated_at = $23
		WHERE LOWER(code) = LOWER($24)
	`

	result, err := s.db.ExecContext(ctx, query,
		req.Name, req.Description, req.DiscountType, normalizeEnhancedType(req.EnhancedType), req.DiscountValue,
		req.MinimumOrderAmount, req.MaximumDiscount, req.UsageLimit, req.UsagePerCustomer,
		req.ValidUntil, req.IsActive, pq.Array(req.CategoryRestrictions), pq.Array(req.ProductRestrictions),
		pq.Array(req.CustomerGroupRestrictions), req.FirstTimeOnly, req.MinimumQuantity, req.MaximumQuantity,
		req.CombinationAllowed, req.StackWithPricingRules, req.BuyXQuantity, req.GetYQuantity,
		req.GetYDiscountPercentage, time.Now(), code)
	if err != nil {
		return nil, fmt.Errorf("failed to update promo code: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, apperror.NotFound("promo code not found", nil)
	}

	return s.GetPromoCode(ctx, code)
}

// DeletePromoCode деактивирует промокод. Строки использования хранят историю,
// поэтому код не удаляется физически, пока на него есть ссылки.
func (s *PromoService) DeletePromoCode(ctx context.Context, code string) error {
	result, err := s.db.ExecContext(ctx, "UPDATE promo_codes SET is_active = false, updated_at = $1 WHERE LOWER(code) = LOWER($2)", time.Now(), code)
	if err != nil {
		return fmt.Errorf("failed to deactivate promo code: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("promo code not found", nil)
	}
	return nil
}

// ListPromoCodes возвращает список промокодов.
func (s *PromoService) ListPromoCodes(ctx context.Context, limit, offset int) ([]*models.PromoCode, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + promoColumns + ` FROM promo_codes ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list promo codes: %w", err)
	}
	defer rows.Close()

	var promos []*models.PromoCode
	for rows.Next() {
		p, err := scanPromoCode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan promo code: %w", err)
		}
		promos = append(promos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate promo codes: %w", err)
	}

	return promos, nil
}

// ValidatePromoCode проверяет код против корзины без побочных эффектов:
// использование записывается только при подтверждении заказа, поэтому
// повторная проверка с теми же входами даёт тот же результат.
func (s *PromoService) ValidatePromoCode(ctx context.Context, req *models.ValidatePromoCodeRequest, cart *models.CartSnapshot, deliveryFee float64) (*models.PromoValidationResult, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return rejection(models.ReasonCodeNotFound), nil
	}

	promo, err := s.GetPromoCode(ctx, code)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return rejection(models.ReasonCodeNotFound), nil
		}
		return nil, err
	}

	if !promo.IsActive {
		return rejection(models.ReasonCodeInactive), nil
	}

	if reason := staticEligibility(promo, cart, req.AppliedCodes, time.Now()); reason != "" {
		return rejection(reason), nil
	}

	reason, err := s.dynamicEligibility(ctx, s.db, promo, req.CustomerID, req.CustomerEmail)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		return rejection(reason), nil
	}

	amount := computePromoDiscount(promo, cart, deliveryFee)
	return &models.PromoValidationResult{
		Valid:          true,
		PromoCode:      promo,
		DiscountAmount: amount,
		Breakdown: []models.DiscountBreakdown{
			{Source: DiscountSourcePromoCode, Label: promo.Code, Amount: amount},
		},
	}, nil
}

// ConsumePromo в рамках транзакции заказа: блокирует строку кода, повторяет
// все проверки и записывает использование. Блокировка закрывает гонку двух
// одновременных оформлений, каждое из которых успело пройти валидацию.
func (s *PromoService) ConsumePromo(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, code string, cart *models.CartSnapshot, deliveryFee float64, customerID, customerEmail *string) (*models.PromoCode, float64, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes WHERE LOWER(code) = LOWER($1) FOR UPDATE`
	promo, err := scanPromoCode(tx.QueryRowContext(ctx, query, strings.TrimSpace(code)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, 0, apperror.WithCode(apperror.KindNotFound, models.ReasonCodeNotFound, reasonMessage(models.ReasonCodeNotFound), err)
		}
		return nil, 0, fmt.Errorf("failed to lock promo code: %w", err)
	}

	if !promo.IsActive {
		return nil, 0, reasonError(models.ReasonCodeInactive)
	}
	if reason := staticEligibility(promo, cart, nil, time.Now()); reason != "" {
		return nil, 0, reasonError(reason)
	}
	reason, err := s.dynamicEligibility(ctx, tx, promo, customerID, customerEmail)
	if err != nil {
		return nil, 0, err
	}
	if reason != "" {
		return nil, 0, reasonError(reason)
	}

	discount := computePromoDiscount(promo, cart, deliveryFee)
	if err := s.insertUsage(ctx, tx, promo.ID, orderID, customerID, customerEmail, discount, cart.Subtotal()); err != nil {
		return nil, 0, err
	}

	return promo, discount, nil
}

// RecordUsage — самостоятельная атомарная запись использования кода для
// внешних потоков подтверждения. Проверка лимитов и вставка выполняются
// под блокировкой строки кода в одной транзакции.
func (s *PromoService) RecordUsage(ctx context.Context, promoCodeID, orderID uuid.UUID, customerID, customerEmail *string, discountAmount, orderAmount float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var usageLimit, usagePerCustomer *int
	lockQuery := `SELECT usage_limit, usage_per_customer FROM promo_codes WHERE id = $1 FOR UPDATE`
	if err := tx.QueryRowContext(ctx, lockQuery, promoCodeID).Scan(&usageLimit, &usagePerCustomer); err != nil {
		if err == sql.ErrNoRows {
			return apperror.WithCode(apperror.KindNotFound, models.ReasonCodeNotFound, reasonMessage(models.ReasonCodeNotFound), err)
		}
		return fmt.Errorf("failed to lock promo code: %w", err)
	}

	if reason, err := s.usageWithinLimits(ctx, tx, promoCodeID, usageLimit, usagePerCustomer, customerID, customerEmail); err != nil {
		return err
	} else if reason != "" {
		return reasonError(reason)
	}

	if err := s.insertUsage(ctx, tx, promoCodeID, orderID, customerID, customerEmail, discountAmount, orderAmount); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// dynamicEligibility выполняет проверки, требующие хранилища: первый заказ
// клиента и лимиты использования.
func (s *PromoService) dynamicEligibility(ctx context.Context, q querier, promo *models.PromoCode, customerID, customerEmail *string) (string, error) {
	if promo.FirstTimeOnly || promo.EnhancedType == models.EnhancedTypeFirstTimeCustomer {
		prior, err := s.countPriorOrders(ctx, q, customerID, customerEmail)
		if err != nil {
			return "", err
		}
		if prior > 0 {
			return models.ReasonNotFirstTime, nil
		}
	}
	return s.usageWithinLimits(ctx, q, promo.ID, promo.UsageLimit, promo.UsagePerCustomer, customerID, customerEmail)
}

// usageWithinLimits проверяет глобальный и персональный лимиты использования.
func (s *PromoService) usageWithinLimits(ctx context.Context, q querier, promoID uuid.UUID, usageLimit, usagePerCustomer *int, customerID, customerEmail *string) (string, error) {
	if usageLimit != nil {
		var total int
		if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM promo_code_usage WHERE promo_code_id = $1`, promoID).Scan(&total); err != nil {
			return "", fmt.Errorf("failed to count promo usage: %w", err)
		}
		if total >= *usageLimit {
			return models.ReasonUsageLimitReached, nil
		}
	}

	if usagePerCustomer != nil {
		var count int
		var err error
		switch {
		case customerID != nil:
			err = q.QueryRowContext(ctx, `SELECT COUNT(*) FROM promo_code_usage WHERE promo_code_id = $1 AND customer_id = $2`, promoID, *customerID).Scan(&count)
		case customerEmail != nil:
			err = q.QueryRowContext(ctx, `SELECT COUNT(*) FROM promo_code_usage WHERE promo_code_id = $1 AND LOWER(customer_email) = LOWER($2)`, promoID, *customerEmail).Scan(&count)
		default:
			return "", nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to count customer promo usage: %w", err)
		}
		if count >= *usagePerCustomer {
			return models.ReasonUsageLimitReached, nil
		}
	}

	return "", nil
}

// countPriorOrders считает завершённые заказы клиента. Гость без
// идентификатора истории иметь не может.
func (s *PromoService) countPriorOrders(ctx context.Context, q querier, customerID, customerEmail *string) (int, error) {
	var count int
	var err error
	switch {
	case customerID != nil:
		err = q.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE customer_id = $1 AND status <> 'cancelled'`, *customerID).Scan(&count)
	case customerEmail != nil:
		err = q.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE LOWER(customer_email) = LOWER($1) AND status <> 'cancelled'`, *customerEmail).Scan(&count)
	default:
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count prior orders: %w", err)
	}
	return count, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (s *PromoService) insertUsage(ctx context.Context, e execer, promoCodeID, orderID uuid.UUID, customerID, customerEmail *string, discountAmount, orderAmount float64) error {
	query := `
		INSERT INTO promo_code_usage (id, promo_code_id, order_id, customer_id, customer_email, discount_amount, order_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := e.ExecContext(ctx, query, uuid.New(), promoCodeID, orderID, customerID, customerEmail, discountAmount, orderAmount, time.Now()); err != nil {
		return fmt.Errorf("failed to record promo usage: %w", err)
	}
	return nil
}

func rejection(reason string) *models.PromoValidationResult {
	return &models.PromoValidationResult{
		Valid:   false,
		Error:   reason,
		Message: reasonMessage(reason),
	}
}

// reasonError превращает код причины в типизированную ошибку для потока
// подтверждения заказа.
func reasonError(reason string) error {
	kind := apperror.KindConflict
	switch reason {
	case models.ReasonMinimumNotMet, models.ReasonQuantityOutOfRange, models.ReasonNoEligibleItems, models.ReasonAlreadyApplied:
		kind = apperror.KindValidation
	}
	return apperror.WithCode(kind, reason, reasonMessage(reason), nil)
}

func scanPromoCode(row interface{ Scan(...interface{}) error }) (*models.PromoCode, error) {
	p := &models.PromoCode{}
	err := row.Scan(
		&p.ID, &p.Code, &p.Name, &p.Description, &p.DiscountType, &p.EnhancedType, &p.DiscountValue,
		&p.MinimumOrderAmount, &p.MaximumDiscount, &p.UsageLimit, &p.UsagePerCustomer, &p.ValidUntil, &p.IsActive,
		pq.Array(&p.CategoryRestrictions), pq.Array(&p.ProductRestrictions), pq.Array(&p.CustomerGroupRestrictions), &p.FirstTimeOnly,
		&p.MinimumQuantity, &p.MaximumQuantity, &p.CombinationAllowed, &p.StackWithPricingRules,
		&p.BuyXQuantity, &p.GetYQuantity, &p.GetYDiscountPercentage, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func normalizeEnhancedType(t models.EnhancedType) models.EnhancedType {
	if t == "" {
		return models.EnhancedTypeBasic
	}
	return t
}

func validatePromoCodePayload(discountType models.DiscountType, enhancedType models.EnhancedType, value float64, usageLimit, usagePerCustomer, buyX, getY *int) error {
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

	switch normalizeEnhancedType(enhancedType) {
	case models.EnhancedTypeBasic, models.EnhancedTypeFreeDelivery, models.EnhancedTypeCategorySpecific,
		models.EnhancedTypeFirstTimeCustomer, models.EnhancedTypeLoyaltyReward, models.EnhancedTypeBuyOneGetOne:
	case models.EnhancedTypeBuyXGetY:
		if buyX == nil || *buyX <= 0 || getY == nil || *getY <= 0 {
			return fmt.Errorf("buy_x_quantity and get_y_quantity must be positive for buy_x_get_y")
		}
	default:
		return fmt.Errorf("invalid enhanced_type")
	}

	if usageLimit != nil && usagePerCustomer != nil && *usagePerCustomer > *usageLimit {
		return fmt.Errorf("usage_per_customer cannot exceed usage_limit")
	}
	if usageLimit != nil && *usageLimit < 0 {
		return fmt.Errorf("usage_limit must be non-negative")
	}
	if usagePerCustomer != nil && *usagePerCustomer < 0 {
		return fmt.Errorf("usage_per_customer must be non-negative")
	}

	return nil
}
