package services

import (
	"testing"
	"time"

	"bakery-system/internal/models"

	"github.com/google/uuid"
)

func cartOf(items ...models.CartItem) *models.CartSnapshot {
	return &models.CartSnapshot{Items: items}
}

func item(category, flavor string, price float64, qty int) models.CartItem {
	return models.CartItem{
		ProductID: uuid.New(),
		Name:      category,
		Category:  category,
		Flavor:    flavor,
		UnitPrice: price,
		Quantity:  qty,
	}
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func TestComputePromoDiscount_PercentageWithMinimum(t *testing.T) {
	promo := &models.PromoCode{
		Code:               "SAVE20",
		DiscountType:       models.DiscountTypePercentage,
		EnhancedType:       models.EnhancedTypeBasic,
		DiscountValue:      20,
		MinimumOrderAmount: 100,
		IsActive:           true,
	}

	cart := cartOf(item("cookies", "chocolate", 50, 3))
	if got := computePromoDiscount(promo, cart, 0); got != 30.0 {
		t.Fatalf("expected discount 30.0 for subtotal 150, got %.2f", got)
	}

	small := cartOf(item("cookies", "chocolate", 40, 2))
	if reason := staticEligibility(promo, small, nil, time.Now()); reason != models.ReasonMinimumNotMet {
		t.Fatalf("expected MINIMUM_NOT_MET for subtotal 80, got %q", reason)
	}
}

func TestComputePromoDiscount_FreeDelivery(t *testing.T) {
	promo := &models.PromoCode{
		Code:         "FREESHIP",
		DiscountType: models.DiscountTypeFixedAmount,
		EnhancedType: models.EnhancedTypeFreeDelivery,
		IsActive:     true,
	}

	cart := cartOf(item("cakes", "vanilla", 100, 1))
	if got := computePromoDiscount(promo, cart, 50); got != 50.0 {
		t.Fatalf("expected discount to equal delivery fee 50, got %.2f", got)
	}
	if got := computePromoDiscount(promo, cart, 0); got != 0 {
		t.Fatalf("expected zero discount without delivery fee, got %.2f", got)
	}
}

func TestComputePromoDiscount_FixedAmountCappedBySubtotal(t *testing.T) {
	promo := &models.PromoCode{
		Code:          "BIGOFF",
		DiscountType:  models.DiscountTypeFixedAmount,
		EnhancedType:  models.EnhancedTypeBasic,
		DiscountValue: 500,
		IsActive:      true,
	}

	cart := cartOf(item("cookies", "oatmeal", 30, 2))
	if got := computePromoDiscount(promo, cart, 0); got != 60.0 {
		t.Fatalf("expected discount capped at subtotal 60, got %.2f", got)
	}
}

func TestComputePromoDiscount_MaximumDiscountCap(t *testing.T) {
	promo := &models.PromoCode{
		Code:            "HALF",
		DiscountType:    models.DiscountTypePercentage,
		EnhancedType:    models.EnhancedTypeBasic,
		DiscountValue:   50,
		MaximumDiscount: floatPtr(25),
		IsActive:        true,
	}

	cart := cartOf(item("cakes", "chocolate", 100, 1))
	if got := computePromoDiscount(promo, cart, 0); got != 25.0 {
		t.Fatalf("expected discount capped at 25, got %.2f", got)
	}
}

func TestComputePromoDiscount_CategorySpecific(t *testing.T) {
	promo := &models.PromoCode{
		Code:                 "COOKIES50",
		DiscountType:         models.DiscountTypePercentage,
		EnhancedType:         models.EnhancedTypeCategorySpecific,
		DiscountValue:        50,
		CategoryRestrictions: []string{"cookies"},
		IsActive:             true,
	}

	// 50 подходящих + 100 неподходящих: база скидки только 50
	cart := cartOf(
		item("cookies", "chocolate", 25, 2),
		item("cakes", "vanilla", 100, 1),
	)
	if got := computePromoDiscount(promo, cart, 0); got != 25.0 {
		t.Fatalf("expected 50%% of eligible 50 = 25, got %.2f", got)
	}
}

func TestComputePromoDiscount_CategoryMatchIsCaseInsensitive(t *testing.T) {
	promo := &models.PromoCode{
		Code:                 "CHOCO",
		DiscountType:         models.DiscountTypePercentage,
		EnhancedType:         models.EnhancedTypeCategorySpecific,
		DiscountValue:        10,
		CategoryRestrictions: []string{"Chocolate"},
		IsActive:             true,
	}

	cart := cartOf(item("cookies", "chocolate", 100, 1))
	if got := computePromoDiscount(promo, cart, 0); got != 10.0 {
		t.Fatalf("expected flavor tag to match case-insensitively, got %.2f", got)
	}

	sub := cartOf(item("cookies", "chocolate chip", 100, 1))
	if got := computePromoDiscount(promo, sub, 0); got != 0 {
		t.Fatalf("expected no match for substring tag, got %.2f", got)
	}
}

func TestBuyXGetYDiscount_BogoFiveUnits(t *testing.T) {
	promo := &models.PromoCode{
		Code:         "BOGO",
		DiscountType: models.DiscountTypePercentage,
		EnhancedType: models.EnhancedTypeBuyOneGetOne,
		IsActive:     true,
	}

	// 5 одинаковых единиц, buy 2 get 1: ровно 2 бесплатные
	cart := cartOf(item("cookies", "sugar", 10, 5))
	if got := computePromoDiscount(promo, cart, 0); got != 20.0 {
		t.Fatalf("expected exactly 2 free units (20.0), got %.2f", got)
	}
}

func TestBuyXGetYDiscount_CheapestUnitsFree(t *testing.T) {
	promo := &models.PromoCode{
		Code:                   "B2G1",
		DiscountType:           models.DiscountTypePercentage,
		EnhancedType:           models.EnhancedTypeBuyXGetY,
		BuyXQuantity:           intPtr(2),
		GetYQuantity:           intPtr(1),
		GetYDiscountPercentage: floatPtr(100),
		IsActive:               true,
	}

	// 2x30 + 1x10: одна бесплатная единица, самая дешёвая
	cart := cartOf(
		item("cookies", "chocolate", 30, 2),
		item("cookies", "sugar", 10, 1),
	)
	if got := computePromoDiscount(promo, cart, 0); got != 10.0 {
		t.Fatalf("expected cheapest unit free (10.0), got %.2f", got)
	}
}

func TestBuyXGetYDiscount_PartialPercentage(t *testing.T) {
	promo := &models.PromoCode{
		Code:                   "B3G1HALF",
		DiscountType:           models.DiscountTypePercentage,
		EnhancedType:           models.EnhancedTypeBuyXGetY,
		BuyXQuantity:           intPtr(3),
		GetYQuantity:           intPtr(1),
		GetYDiscountPercentage: floatPtr(50),
		IsActive:               true,
	}

	cart := cartOf(item("cupcakes", "red velvet", 20, 3))
	if got := computePromoDiscount(promo, cart, 0); got != 10.0 {
		t.Fatalf("expected 50%% off one unit (10.0), got %.2f", got)
	}
}

func TestBuyXGetYDiscount_BelowThreshold(t *testing.T) {
	promo := &models.PromoCode{
		Code:                   "B5G2",
		DiscountType:           models.DiscountTypePercentage,
		EnhancedType:           models.EnhancedTypeBuyXGetY,
		BuyXQuantity:           intPtr(5),
		GetYQuantity:           intPtr(2),
		GetYDiscountPercentage: floatPtr(100),
		IsActive:               true,
	}

	cart := cartOf(item("cookies", "chocolate", 10, 4))
	if got := computePromoDiscount(promo, cart, 0); got != 0 {
		t.Fatalf("expected no discount below buy threshold, got %.2f", got)
	}
}

func TestBasicDiscount_Bounds(t *testing.T) {
	if v := basicDiscount(models.DiscountTypeFixedAmount, -5, 100); v != 0 {
		t.Fatalf("expected zero for negative fixed discount, got %v", v)
	}
	if v := basicDiscount(models.DiscountTypePercentage, 150, 100); v != 100 {
		t.Fatalf("expected capped percent discount, got %v", v)
	}
	if v := basicDiscount(models.DiscountType("unknown"), 10, 100); v != 0 {
		t.Fatalf("expected zero for unknown type, got %v", v)
	}
	if v := basicDiscount(models.DiscountTypeFixedAmount, 10, 100); v != 10 {
		t.Fatalf("expected fixed 10, got %v", v)
	}
	if v := basicDiscount(models.DiscountTypePercentage, 10, 200); v != 20 {
		t.Fatalf("expected percent 20, got %v", v)
	}
}

func TestStaticEligibility_Order(t *testing.T) {
	promo := &models.PromoCode{
		Code:               "STRICT",
		DiscountType:       models.DiscountTypePercentage,
		EnhancedType:       models.EnhancedTypeBasic,
		DiscountValue:      10,
		MinimumOrderAmount: 100,
		MinimumQuantity:    intPtr(2),
		ValidUntil:         timePtr(time.Now().Add(-time.Hour)),
		IsActive:           true,
	}

	// корзина нарушает и минимум, и количество, но истёкший срок проверяется раньше
	cart := cartOf(item("cookies", "plain", 10, 1))
	if reason := staticEligibility(promo, cart, nil, time.Now()); reason != models.ReasonCodeExpired {
		t.Fatalf("expected CODE_EXPIRED to win over later checks, got %q", reason)
	}
}

func TestStaticEligibility_QuantityBounds(t *testing.T) {
	promo := &models.PromoCode{
		Code:            "QTY",
		DiscountType:    models.DiscountTypePercentage,
		EnhancedType:    models.EnhancedTypeBasic,
		DiscountValue:   10,
		MinimumQuantity: intPtr(2),
		MaximumQuantity: intPtr(4),
		IsActive:        true,
	}

	if reason := staticEligibility(promo, cartOf(item("cookies", "plain", 10, 1)), nil, time.Now()); reason != models.ReasonQuantityOutOfRange {
		t.Fatalf("expected QUANTITY_OUT_OF_RANGE below minimum, got %q", reason)
	}
	if reason := staticEligibility(promo, cartOf(item("cookies", "plain", 10, 5)), nil, time.Now()); reason != models.ReasonQuantityOutOfRange {
		t.Fatalf("expected QUANTITY_OUT_OF_RANGE above maximum, got %q", reason)
	}
	if reason := staticEligibility(promo, cartOf(item("cookies", "plain", 10, 3)), nil, time.Now()); reason != "" {
		t.Fatalf("expected pass inside bounds, got %q", reason)
	}
}

func TestStaticEligibility_NoEligibleItems(t *testing.T) {
	promo := &models.PromoCode{
		Code:                 "CAKESONLY",
		DiscountType:         models.DiscountTypePercentage,
		EnhancedType:         models.EnhancedTypeCategorySpecific,
		DiscountValue:        10,
		CategoryRestrictions: []string{"cakes"},
		IsActive:             true,
	}

	cart := cartOf(item("cookies", "plain", 10, 2))
	if reason := staticEligibility(promo, cart, nil, time.Now()); reason != models.ReasonNoEligibleItems {
		t.Fatalf("expected NO_ELIGIBLE_ITEMS, got %q", reason)
	}
}

func TestStaticEligibility_AlreadyApplied(t *testing.T) {
	promo := &models.PromoCode{
		Code:          "TWICE",
		DiscountType:  models.DiscountTypePercentage,
		EnhancedType:  models.EnhancedTypeBasic,
		DiscountValue: 10,
		IsActive:      true,
	}

	cart := cartOf(item("cookies", "plain", 10, 2))
	if reason := staticEligibility(promo, cart, []string{"twice"}, time.Now()); reason != models.ReasonAlreadyApplied {
		t.Fatalf("expected ALREADY_APPLIED regardless of case, got %q", reason)
	}
}

func TestStaticEligibility_Idempotent(t *testing.T) {
	promo := &models.PromoCode{
		Code:               "STABLE",
		DiscountType:       models.DiscountTypePercentage,
		EnhancedType:       models.EnhancedTypeBasic,
		DiscountValue:      15,
		MinimumOrderAmount: 50,
		IsActive:           true,
	}

	cart := cartOf(item("cookies", "plain", 30, 2))
	now := time.Now()
	first := staticEligibility(promo, cart, nil, now)
	for i := 0; i < 5; i++ {
		if got := staticEligibility(promo, cart, nil, now); got != first {
			t.Fatalf("expected identical result on repeat, got %q then %q", first, got)
		}
		if got := computePromoDiscount(promo, cart, 0); got != 9.0 {
			t.Fatalf("expected stable discount 9.0, got %.2f", got)
		}
	}
}
