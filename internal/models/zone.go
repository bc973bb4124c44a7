package models

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryZone представляет зону доставки с тарифом.
type DeliveryZone struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	DeliveryFee   float64   `json:"delivery_fee" db:"delivery_fee"`
	FreeOverTotal float64   `json:"free_over_total" db:"free_over_total"` // 0 = порога нет
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// CreateDeliveryZoneRequest описывает запрос на создание зоны.
type CreateDeliveryZoneRequest struct {
	Name          string  `json:"name"`
	DeliveryFee   float64 `json:"delivery_fee"`
	FreeOverTotal float64 `json:"free_over_total,omitempty"`
	IsActive      bool    `json:"is_active"`
}

// UpdateDeliveryZoneRequest описывает запрос на обновление зоны.
type UpdateDeliveryZoneRequest struct {
	Name          string  `json:"name"`
	DeliveryFee   float64 `json:"delivery_fee"`
	FreeOverTotal float64 `json:"free_over_total,omitempty"`
	IsActive      bool    `json:"is_active"`
}
