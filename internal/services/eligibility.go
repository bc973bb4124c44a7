package services

import (
	"strings"
	"time"

	"bakery-system/internal/models"
)

// staticEligibility выполняет проверки промокода, не требующие обращения к
// хранилищу: срок действия, минимальная сумма, количество позиций, наличие
// подходящих позиций, повторная подача кода. Порядок проверок фиксирован,
// первая неудача завершает оценку. Пустая строка — код прошёл.
func staticEligibility(promo *models.PromoCode, cart *models.CartSnapshot, appliedCodes []string, now time.Time) string {
	for _, applied := range appliedCodes {
		if strings.EqualFold(applied, promo.Code) {
			return models.ReasonAlreadyApplied
		}
	}

	if promo.ValidUntil != nil && promo.ValidUntil.Before(now) {
		return models.ReasonCodeExpired
	}

	if cart.Subtotal() < promo.MinimumOrderAmount {
		return models.ReasonMinimumNotMet
	}

	units := cart.UnitCount()
	if promo.MinimumQuantity != nil && units < *promo.MinimumQuantity {
		return models.ReasonQuantityOutOfRange
	}
	if promo.MaximumQuantity != nil && units > *promo.MaximumQuantity {
		return models.ReasonQuantityOutOfRange
	}

	if !hasEligibleItems(promo, cart) {
		return models.ReasonNoEligibleItems
	}

	return ""
}

// reasonMessage возвращает человекочитаемое сообщение для кода причины.
func reasonMessage(reason string) string {
	switch reason {
	case models.ReasonCodeNotFound:
		return "promo code not found"
	case models.ReasonCodeExpired:
		return "promo code has expired"
	case models.ReasonCodeInactive:
		return "promo code is not active"
	case models.ReasonMinimumNotMet:
		return "order amount is below the promo code minimum"
	case models.ReasonQuantityOutOfRange:
		return "cart item count is outside the promo code bounds"
	case models.ReasonNotFirstTime:
		return "promo code is only valid for first-time customers"
	case models.ReasonNoEligibleItems:
		return "no items in the cart qualify for this promo code"
	case models.ReasonUsageLimitReached:
		return "promo code usage limit reached"
	case models.ReasonAlreadyApplied:
		return "promo code is already applied to this cart"
	default:
		return "promo code cannot be applied"
	}
}
