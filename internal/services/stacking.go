package services

import (
	"sort"
	"strings"

	"bakery-system/internal/models"
)

// Источники скидок в breakdown.
const (
	DiscountSourcePromoCode   = "promo_code"
	DiscountSourcePricingRule = "pricing_rule"
)

// ruleMatchesItem сообщает, распространяется ли правило на позицию корзины.
func ruleMatchesItem(rule *models.PricingRule, item models.CartItem) bool {
	switch rule.RuleType {
	case models.RuleScopeGlobal:
		return true
	case models.RuleScopeProduct:
		return rule.TargetValue != nil && strings.EqualFold(*rule.TargetValue, item.ProductID.String())
	case models.RuleScopeCategory:
		if rule.TargetValue == nil {
			return false
		}
		return strings.EqualFold(*rule.TargetValue, item.Category) || strings.EqualFold(*rule.TargetValue, item.Flavor)
	default:
		return false
	}
}

// sortRules упорядочивает правила: priority по возрастанию, при равенстве —
// раньше созданное выигрывает.
func sortRules(rules []*models.PricingRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		return rules[i].CreatedAt.Before(rules[j].CreatedAt)
	})
}

// applyPricingRules применяет ценовые правила к корзине. Каждую позицию
// забирает не более одного правила — первое подходящее в порядке сортировки,
// поэтому одна и та же позиция не уценивается дважды.
func applyPricingRules(rules []*models.PricingRule, cart *models.CartSnapshot) (float64, []models.DiscountBreakdown) {
	if len(rules) == 0 || len(cart.Items) == 0 {
		return 0, nil
	}

	sorted := make([]*models.PricingRule, len(rules))
	copy(sorted, rules)
	sortRules(sorted)

	subtotal := cart.Subtotal()

	// база каждого правила — сумма забранных им позиций
	bases := make(map[int]float64)
	for _, item := range cart.Items {
		for idx, rule := range sorted {
			if ruleMatchesItem(rule, item) {
				bases[idx] += item.UnitPrice * float64(item.Quantity)
				break
			}
		}
	}

	var total float64
	var breakdown []models.DiscountBreakdown
	for idx, rule := range sorted {
		base := bases[idx]
		if base <= 0 {
			continue
		}
		if rule.MinimumOrderAmount > 0 && subtotal < rule.MinimumOrderAmount {
			continue
		}
		amount := basicDiscount(rule.DiscountType, rule.DiscountValue, base)
		if rule.MaximumDiscount != nil && amount > *rule.MaximumDiscount {
			amount = *rule.MaximumDiscount
		}
		amount = round2(amount)
		if amount <= 0 {
			continue
		}
		total += amount
		breakdown = append(breakdown, models.DiscountBreakdown{
			Source: DiscountSourcePricingRule,
			Label:  rule.Name,
			Amount: amount,
		})
	}

	return round2(total), breakdown
}

// resolveDiscounts собирает итоговую скидку заказа из промокода и ценовых
// правил с учётом политики совмещения. Возвращает сумму и breakdown для чека.
func resolveDiscounts(promo *models.PromoCode, rules []*models.PricingRule, cart *models.CartSnapshot, deliveryFee float64) (float64, []models.DiscountBreakdown) {
	subtotal := cart.Subtotal()

	var total float64
	var breakdown []models.DiscountBreakdown

	if promo != nil {
		amount := computePromoDiscount(promo, cart, deliveryFee)
		if amount > 0 {
			total += amount
			breakdown = append(breakdown, models.DiscountBreakdown{
				Source: DiscountSourcePromoCode,
				Label:  promo.Code,
				Amount: amount,
			})
		}
		// combination_allowed=false — код применяется в одиночку;
		// stack_with_pricing_rules=false — код не совмещается с правилами
		if !promo.CombinationAllowed || !promo.StackWithPricingRules {
			rules = nil
		}
	}

	ruleTotal, ruleBreakdown := applyPricingRules(rules, cart)
	total += ruleTotal
	breakdown = append(breakdown, ruleBreakdown...)

	// итог не превышает сумму заказа; free_delivery дополнительно покрывает доставку
	limit := subtotal
	if promo != nil && promo.EnhancedType == models.EnhancedTypeFreeDelivery {
		limit += deliveryFee
	}
	if total > limit {
		total = limit
	}

	return round2(total), breakdown
}
