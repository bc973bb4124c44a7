package handlers

import (
	"context"
	"time"

	"bakery-system/internal/models"

	"github.com/google/uuid"
)

// ----- Orders -----

type OrderService interface {
	CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetOrders(ctx context.Context, status *models.OrderStatus, limit, offset int) ([]*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, req *models.UpdateOrderStatusRequest) error
}

// ----- Promo -----

type PromoService interface {
	CreatePromoCode(ctx context.Context, req *models.CreatePromoCodeRequest) (*models.PromoCode, error)
	GetPromoCode(ctx context.Context, code string) (*models.PromoCode, error)
	UpdatePromoCode(ctx context.Context, code string, req *models.UpdatePromoCodeRequest) (*models.PromoCode, error)
	DeletePromoCode(ctx context.Context, code string) error
	ListPromoCodes(ctx context.Context, limit, offset int) ([]*models.PromoCode, error)
	ValidatePromoCode(ctx context.Context, req *models.ValidatePromoCodeRequest, cart *models.CartSnapshot, deliveryFee float64) (*models.PromoValidationResult, error)
}

// CartBuilder собирает корзину с ценами каталога для проверки промокода.
type CartBuilder interface {
	BuildCartSnapshot(ctx context.Context, items []models.CartItemRequest) (*models.CartSnapshot, error)
}

// FeeQuoter считает стоимость доставки для корзины.
type FeeQuoter interface {
	DeliveryFeeFor(ctx context.Context, zoneID *uuid.UUID, subtotal float64) (float64, error)
}

// ----- Catalog -----

type CatalogService interface {
	CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListProducts(ctx context.Context, onlyActive bool) ([]*models.Product, error)
}

// ----- Delivery zones -----

type ZoneService interface {
	CreateZone(ctx context.Context, req *models.CreateDeliveryZoneRequest) (*models.DeliveryZone, error)
	GetZone(ctx context.Context, id uuid.UUID) (*models.DeliveryZone, error)
	UpdateZone(ctx context.Context, id uuid.UUID, req *models.UpdateDeliveryZoneRequest) (*models.DeliveryZone, error)
	DeleteZone(ctx context.Context, id uuid.UUID) error
	ListZones(ctx context.Context) ([]*models.DeliveryZone, error)
}

// ----- Pricing rules -----

type PricingRuleService interface {
	CreatePricingRule(ctx context.Context, req *models.CreatePricingRuleRequest) (*models.PricingRule, error)
	GetPricingRule(ctx context.Context, id uuid.UUID) (*models.PricingRule, error)
	UpdatePricingRule(ctx context.Context, id uuid.UUID, req *models.UpdatePricingRuleRequest) (*models.PricingRule, error)
	DeletePricingRule(ctx context.Context, id uuid.UUID) error
	ListPricingRules(ctx context.Context) ([]*models.PricingRule, error)
	ListActiveRules(ctx context.Context, asOf time.Time) ([]*models.PricingRule, error)
}

// ----- Analytics -----

type AnalyticsProvider interface {
	GetPromoStats(ctx context.Context, filter *models.PromoStatsFilter) (*models.PromoStats, error)
}

// ----- Health -----

type DBHealth interface {
	Health() error
}

type RedisHealth interface {
	Health(ctx context.Context) error
}
