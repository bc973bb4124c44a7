package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus представляет статус заказа
type OrderStatus string

const (
	OrderStatusCreated        OrderStatus = "created"
	OrderStatusBaking         OrderStatus = "baking"
	OrderStatusReady          OrderStatus = "ready"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// Order представляет заказ в системе
type Order struct {
	ID              uuid.UUID           `json:"id" db:"id"`
	CustomerName    string              `json:"customer_name" db:"customer_name"`
	CustomerPhone   string              `json:"customer_phone" db:"customer_phone"`
	CustomerEmail   *string             `json:"customer_email,omitempty" db:"customer_email"`
	CustomerID      *string             `json:"customer_id,omitempty" db:"customer_id"` // nil = гость
	DeliveryAddress string              `json:"delivery_address" db:"delivery_address"`
	ZoneID          *uuid.UUID          `json:"zone_id,omitempty" db:"zone_id"`
	Items           []OrderLine         `json:"items"`
	Subtotal        float64             `json:"subtotal" db:"subtotal"`
	DeliveryFee     float64             `json:"delivery_fee" db:"delivery_fee"`
	DiscountAmount  float64             `json:"discount_amount" db:"discount_amount"`
	TotalAmount     float64             `json:"total_amount" db:"total_amount"`
	PromoCode       *string             `json:"promo_code,omitempty" db:"promo_code"`
	Breakdown       []DiscountBreakdown `json:"discount_breakdown,omitempty"`
	PromoError      *string             `json:"promo_error,omitempty"` // причина, по которой код не применился при подтверждении
	Status          OrderStatus         `json:"status" db:"status"`
	CreatedAt       time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at" db:"updated_at"`
	DeliveredAt     *time.Time          `json:"delivered_at,omitempty" db:"delivered_at"`
}

// OrderLine представляет позицию заказа: снимок товара на момент оформления.
type OrderLine struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OrderID   uuid.UUID `json:"order_id" db:"order_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Name      string    `json:"name" db:"name"`
	Category  string    `json:"category" db:"category"`
	UnitPrice float64   `json:"unit_price" db:"unit_price"`
	Quantity  int       `json:"quantity" db:"quantity"`
}

// CreateOrderRequest представляет запрос на оформление заказа
type CreateOrderRequest struct {
	CustomerName    string            `json:"customer_name"`
	CustomerPhone   string            `json:"customer_phone"`
	CustomerEmail   *string           `json:"customer_email,omitempty"`
	CustomerID      *string           `json:"customer_id,omitempty"`
	DeliveryAddress string            `json:"delivery_address"`
	ZoneID          *uuid.UUID        `json:"zone_id,omitempty"`
	Items           []CartItemRequest `json:"items"`
	PromoCode       *string           `json:"promo_code,omitempty"`
}

// UpdateOrderStatusRequest представляет запрос на обновление статуса заказа
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}
