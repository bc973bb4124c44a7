package models

import (
	"time"

	"github.com/google/uuid"
)

// DiscountType описывает арифметику скидки.
type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "percentage"
	DiscountTypeFixedAmount DiscountType = "fixed_amount"
)

// EnhancedType описывает механизм промокода (чем он отличается от discount_type:
// тип задаёт арифметику, механизм — к чему она применяется).
type EnhancedType string

const (
	EnhancedTypeBasic             EnhancedType = "basic"
	EnhancedTypeFreeDelivery      EnhancedType = "free_delivery"
	EnhancedTypeBuyOneGetOne      EnhancedType = "buy_one_get_one"
	EnhancedTypeBuyXGetY          EnhancedType = "buy_x_get_y"
	EnhancedTypeCategorySpecific  EnhancedType = "category_specific"
	EnhancedTypeFirstTimeCustomer EnhancedType = "first_time_customer"
	EnhancedTypeLoyaltyReward     EnhancedType = "loyalty_reward"
)

// Коды причин отказа в применении промокода. Возвращаются клиенту
// вместе с человекочитаемым сообщением.
const (
	ReasonCodeNotFound       = "CODE_NOT_FOUND"
	ReasonCodeExpired        = "CODE_EXPIRED"
	ReasonCodeInactive       = "CODE_INACTIVE"
	ReasonMinimumNotMet      = "MINIMUM_NOT_MET"
	ReasonQuantityOutOfRange = "QUANTITY_OUT_OF_RANGE"
	ReasonNotFirstTime       = "NOT_FIRST_TIME"
	ReasonNoEligibleItems    = "NO_ELIGIBLE_ITEMS"
	ReasonUsageLimitReached  = "USAGE_LIMIT_REACHED"
	ReasonAlreadyApplied     = "ALREADY_APPLIED"
)

// PromoCode представляет промокод в системе.
type PromoCode struct {
	ID                        uuid.UUID    `json:"id" db:"id"`
	Code                      string       `json:"code" db:"code"`
	Name                      string       `json:"name" db:"name"`
	Description               *string      `json:"description,omitempty" db:"description"`
	DiscountType              DiscountType `json:"discount_type" db:"discount_type"`
	EnhancedType              EnhancedType `json:"enhanced_type" db:"enhanced_type"`
	DiscountValue             float64      `json:"discount_value" db:"discount_value"`
	MinimumOrderAmount        float64      `json:"minimum_order_amount" db:"minimum_order_amount"`
	MaximumDiscount           *float64     `json:"maximum_discount,omitempty" db:"maximum_discount"`
	UsageLimit                *int         `json:"usage_limit,omitempty" db:"usage_limit"`                 // nil = безлимит
	UsagePerCustomer          *int         `json:"usage_per_customer,omitempty" db:"usage_per_customer"`   // nil = безлимит
	ValidUntil                *time.Time   `json:"valid_until,omitempty" db:"valid_until"`
	IsActive                  bool         `json:"is_active" db:"is_active"`
	CategoryRestrictions      []string     `json:"category_restrictions,omitempty" db:"category_restrictions"`
	ProductRestrictions       []string     `json:"product_restrictions,omitempty" db:"product_restrictions"`
	CustomerGroupRestrictions []string     `json:"customer_group_restrictions,omitempty" db:"customer_group_restrictions"`
	FirstTimeOnly             bool         `json:"first_time_only" db:"first_time_only"`
	MinimumQuantity           *int         `json:"minimum_quantity,omitempty" db:"minimum_quantity"`
	MaximumQuantity           *int         `json:"maximum_quantity,omitempty" db:"maximum_quantity"`
	CombinationAllowed        bool         `json:"combination_allowed" db:"combination_allowed"`
	StackWithPricingRules     bool         `json:"stack_with_pricing_rules" db:"stack_with_pricing_rules"`
	BuyXQuantity              *int         `json:"buy_x_quantity,omitempty" db:"buy_x_quantity"`
	GetYQuantity              *int         `json:"get_y_quantity,omitempty" db:"get_y_quantity"`
	GetYDiscountPercentage    *float64     `json:"get_y_discount_percentage,omitempty" db:"get_y_discount_percentage"`
	CreatedAt                 time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt                 time.Time    `json:"updated_at" db:"updated_at"`
}

// PromoUsage представляет запись об использовании промокода (append-only).
type PromoUsage struct {
	ID             uuid.UUID `json:"id" db:"id"`
	PromoCodeID    uuid.UUID `json:"promo_code_id" db:"promo_code_id"`
	OrderID        uuid.UUID `json:"order_id" db:"order_id"`
	CustomerID     *string   `json:"customer_id,omitempty" db:"customer_id"`
	CustomerEmail  *string   `json:"customer_email,omitempty" db:"customer_email"`
	DiscountAmount float64   `json:"discount_amount" db:"discount_amount"`
	OrderAmount    float64   `json:"order_amount" db:"order_amount"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// CreatePromoCodeRequest описывает запрос на создание промокода.
type CreatePromoCodeRequest struct {
	Code                      string       `json:"code"`
	Name                      string       `json:"name"`
	Description               *string      `json:"description,omitempty"`
	DiscountType              DiscountType `json:"discount_type"`
	EnhancedType              EnhancedType `json:"enhanced_type,omitempty"`
	DiscountValue             float64      `json:"discount_value"`
	MinimumOrderAmount        float64      `json:"minimum_order_amount,omitempty"`
	MaximumDiscount           *float64     `json:"maximum_discount,omitempty"`
	UsageLimit                *int         `json:"usage_limit,omitempty"`
	UsagePerCustomer          *int         `json:"usage_per_customer,omitempty"`
	ValidUntil                *time.Time   `json:"valid_until,omitempty"`
	IsActive                  bool         `json:"is_active"`
	CategoryRestrictions      []string     `json:"category_restrictions,omitempty"`
	ProductRestrictions       []string     `json:"product_restrictions,omitempty"`
	CustomerGroupRestrictions []string     `json:"customer_group_restrictions,omitempty"`
	FirstTimeOnly             bool         `json:"first_time_only,omitempty"`
	MinimumQuantity           *int         `json:"minimum_quantity,omitempty"`
	MaximumQuantity           *int         `json:"maximum_quantity,omitempty"`
	CombinationAllowed        bool         `json:"combination_allowed,omitempty"`
	StackWithPricingRules     bool         `json:"stack_with_pricing_rules,omitempty"`
	BuyXQuantity              *int         `json:"buy_x_quantity,omitempty"`
	GetYQuantity              *int         `json:"get_y_quantity,omitempty"`
	GetYDiscountPercentage    *float64     `json:"get_y_discount_percentage,omitempty"`
}

// UpdatePromoCodeRequest описывает запрос на обновление промокода.
type UpdatePromoCodeRequest struct {
	Name                      string       `json:"name"`
	Description               *string      `json:"description,omitempty"`
	DiscountType              DiscountType `json:"discount_type"`
	EnhancedType              EnhancedType `json:"enhanced_type,omitempty"`
	DiscountValue             float64      `json:"discount_value"`
	MinimumOrderAmount        float64      `json:"minimum_order_amount,omitempty"`
	MaximumDiscount           *float64     `json:"maximum_discount,omitempty"`
	UsageLimit                *int         `json:"usage_limit,omitempty"`
	UsagePerCustomer          *int         `json:"usage_per_customer,omitempty"`
	ValidUntil                *time.Time   `json:"valid_until,omitempty"`
	IsActive                  bool         `json:"is_active"`
	CategoryRestrictions      []string     `json:"category_restrictions,omitempty"`
	ProductRestrictions       []string     `json:"product_restrictions,omitempty"`
	CustomerGroupRestrictions []string     `json:"customer_group_restrictions,omitempty"`
	FirstTimeOnly             bool         `json:"first_time_only,omitempty"`
	MinimumQuantity           *int         `json:"minimum_quantity,omitempty"`
	MaximumQuantity           *int         `json:"maximum_quantity,omitempty"`
	CombinationAllowed        bool         `json:"combination_allowed,omitempty"`
	StackWithPricingRules     bool         `json:"stack_with_pricing_rules,omitempty"`
	BuyXQuantity              *int         `json:"buy_x_quantity,omitempty"`
	GetYQuantity              *int         `json:"get_y_quantity,omitempty"`
	GetYDiscountPercentage    *float64     `json:"get_y_discount_percentage,omitempty"`
}

// ValidatePromoCodeRequest описывает запрос на проверку промокода против корзины.
// Позиции передаются идентификаторами товаров: цены и категории подставляются
// из каталога на сервере.
type ValidatePromoCodeRequest struct {
	Code          string            `json:"code"`
	Items         []CartItemRequest `json:"items"`
	AppliedCodes  []string          `json:"applied_codes,omitempty"` // коды, уже применённые к корзине
	CustomerID    *string           `json:"customer_id,omitempty"`
	CustomerEmail *string           `json:"customer_email,omitempty"`
	ZoneID        *uuid.UUID        `json:"zone_id,omitempty"`
}

// PromoValidationResult — результат проверки промокода. Отказ — это не ошибка
// инфраструктуры: результат всегда структурный, с кодом причины.
type PromoValidationResult struct {
	Valid          bool                `json:"valid"`
	Error          string              `json:"error,omitempty"`
	Message        string              `json:"message,omitempty"`
	PromoCode      *PromoCode          `json:"promo_code,omitempty"`
	DiscountAmount float64             `json:"discount_amount"`
	Breakdown      []DiscountBreakdown `json:"breakdown,omitempty"`
}

// DiscountBreakdown — составляющая итоговой скидки для чека/аудита.
type DiscountBreakdown struct {
	Source string  `json:"source"` // promo_code | pricing_rule
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}
