package services

import (
	"math"
	"sort"
	"strings"

	"bakery-system/internal/models"
)

// itemEligible сообщает, подпадает ли позиция под ограничения промокода.
// Политика — match-any: пустые ограничения означают "все позиции",
// совпадение тегов — точное, без учёта регистра.
func itemEligible(promo *models.PromoCode, item models.CartItem) bool {
	if len(promo.CategoryRestrictions) == 0 && len(promo.ProductRestrictions) == 0 {
		return true
	}
	for _, tag := range promo.CategoryRestrictions {
		if strings.EqualFold(tag, item.Category) || strings.EqualFold(tag, item.Flavor) {
			return true
		}
	}
	for _, id := range promo.ProductRestrictions {
		if strings.EqualFold(id, item.ProductID.String()) {
			return true
		}
	}
	return false
}

// eligibleSubtotal возвращает сумму позиций, подпадающих под ограничения кода.
func eligibleSubtotal(promo *models.PromoCode, cart *models.CartSnapshot) float64 {
	var total float64
	for _, item := range cart.Items {
		if itemEligible(promo, item) {
			total += item.UnitPrice * float64(item.Quantity)
		}
	}
	return total
}

// hasEligibleItems сообщает, есть ли в корзине хотя бы одна подходящая позиция.
func hasEligibleItems(promo *models.PromoCode, cart *models.CartSnapshot) bool {
	for _, item := range cart.Items {
		if itemEligible(promo, item) {
			return true
		}
	}
	return false
}

// computePromoDiscount рассчитывает скидку уже проверенного промокода.
// Результат округлён до копеек и никогда не превышает подходящую базу
// (сумму корзины, либо стоимость доставки для free_delivery).
func computePromoDiscount(promo *models.PromoCode, cart *models.CartSnapshot, deliveryFee float64) float64 {
	subtotal := cart.Subtotal()

	var discount float64
	switch promo.EnhancedType {
	case models.EnhancedTypeFreeDelivery:
		if deliveryFee <= 0 {
			return 0
		}
		return round2(deliveryFee)
	case models.EnhancedTypeBuyOneGetOne, models.EnhancedTypeBuyXGetY:
		discount = buyXGetYDiscount(promo, cart)
	case models.EnhancedTypeCategorySpecific:
		discount = basicDiscount(promo.DiscountType, promo.DiscountValue, eligibleSubtotal(promo, cart))
	default:
		// basic, first_time_customer, loyalty_reward: одна арифметика,
		// различие только в проверках применимости
		discount = basicDiscount(promo.DiscountType, promo.DiscountValue, subtotal)
	}

	if promo.MaximumDiscount != nil && discount > *promo.MaximumDiscount {
		discount = *promo.MaximumDiscount
	}
	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}
	return round2(discount)
}

// basicDiscount считает скидку по базовой арифметике над указанной базой.
func basicDiscount(discountType models.DiscountType, value, base float64) float64 {
	switch discountType {
	case models.DiscountTypePercentage:
		if value <= 0 {
			return 0
		}
		if value > 100 {
			value = 100
		}
		return base * value / 100.0
	case models.DiscountTypeFixedAmount:
		if value < 0 {
			return 0
		}
		if value > base {
			return base
		}
		return value
	default:
		return 0
	}
}

// buyXGetYDiscount считает скидку buy-X-get-Y: на каждые buyX подходящих единиц
// в корзине getY единиц уцениваются на getYDiscountPercentage. Учитываются только
// полные кратные buyX, уценка достаётся самым дешёвым единицам.
func buyXGetYDiscount(promo *models.PromoCode, cart *models.CartSnapshot) float64 {
	buyX := 2
	getY := 1
	pct := 100.0
	if promo.BuyXQuantity != nil && *promo.BuyXQuantity > 0 {
		buyX = *promo.BuyXQuantity
	}
	if promo.GetYQuantity != nil && *promo.GetYQuantity > 0 {
		getY = *promo.GetYQuantity
	}
	if promo.GetYDiscountPercentage != nil {
		pct = *promo.GetYDiscountPercentage
	}
	if pct <= 0 {
		return 0
	}
	if pct > 100 {
		pct = 100
	}

	var prices []float64
	for _, item := range cart.Items {
		if !itemEligible(promo, item) {
			continue
		}
		for i := 0; i < item.Quantity; i++ {
			prices = append(prices, item.UnitPrice)
		}
	}
	if len(prices) < buyX {
		return 0
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(prices)))

	freeUnits := (len(prices) / buyX) * getY
	if freeUnits > len(prices) {
		freeUnits = len(prices)
	}

	var discount float64
	for i := len(prices) - freeUnits; i < len(prices); i++ {
		discount += prices[i] * pct / 100.0
	}
	return discount
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
