package models

import (
	"time"

	"github.com/google/uuid"
)

// RuleScope описывает область действия ценового правила.
type RuleScope string

const (
	RuleScopeProduct  RuleScope = "product"
	RuleScopeCategory RuleScope = "category"
	RuleScopeGlobal   RuleScope = "global"
)

// PricingRule представляет автоматически применяемое ценовое правило.
// Активность — функция времени оценки, а не только флага.
type PricingRule struct {
	ID                 uuid.UUID    `json:"id" db:"id"`
	Name               string       `json:"name" db:"name"`
	RuleType           RuleScope    `json:"rule_type" db:"rule_type"`
	TargetValue        *string      `json:"target_value,omitempty" db:"target_value"` // id товара или тег категории
	DiscountType       DiscountType `json:"discount_type" db:"discount_type"`
	DiscountValue      float64      `json:"discount_value" db:"discount_value"`
	MinimumOrderAmount float64      `json:"minimum_order_amount" db:"minimum_order_amount"`
	MaximumDiscount    *float64     `json:"maximum_discount,omitempty" db:"maximum_discount"`
	StartDate          *time.Time   `json:"start_date,omitempty" db:"start_date"`
	EndDate            *time.Time   `json:"end_date,omitempty" db:"end_date"`
	IsActive           bool         `json:"is_active" db:"is_active"`
	Priority           int          `json:"priority" db:"priority"` // меньше = раньше
	CreatedAt          time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at" db:"updated_at"`
}

// ActiveAt сообщает, действует ли правило в указанный момент.
func (r *PricingRule) ActiveAt(t time.Time) bool {
	if !r.IsActive {
		return false
	}
	if r.StartDate != nil && t.Before(*r.StartDate) {
		return false
	}
	if r.EndDate != nil && t.After(*r.EndDate) {
		return false
	}
	return true
}

// CreatePricingRuleRequest описывает запрос на создание правила.
type CreatePricingRuleRequest struct {
	Name               string       `json:"name"`
	RuleType           RuleScope    `json:"rule_type"`
	TargetValue        *string      `json:"target_value,omitempty"`
	DiscountType       DiscountType `json:"discount_type"`
	DiscountValue      float64      `json:"discount_value"`
	MinimumOrderAmount float64      `json:"minimum_order_amount,omitempty"`
	MaximumDiscount    *float64     `json:"maximum_discount,omitempty"`
	StartDate          *time.Time   `json:"start_date,omitempty"`
	EndDate            *time.Time   `json:"end_date,omitempty"`
	IsActive           bool         `json:"is_active"`
	Priority           int          `json:"priority,omitempty"`
}

// UpdatePricingRuleRequest описывает запрос на обновление правила.
type UpdatePricingRuleRequest struct {
	Name               string       `json:"name"`
	RuleType           RuleScope    `json:"rule_type"`
	TargetValue        *string      `json:"target_value,omitempty"`
	DiscountType       DiscountType `json:"discount_type"`
	DiscountValue      float64      `json:"discount_value"`
	MinimumOrderAmount float64      `json:"minimum_order_amount,omitempty"`
	MaximumDiscount    *float64     `json:"maximum_discount,omitempty"`
	StartDate          *time.Time   `json:"start_date,omitempty"`
	EndDate            *time.Time   `json:"end_date,omitempty"`
	IsActive           bool         `json:"is_active"`
	Priority           int          `json:"priority,omitempty"`
}
