package models

import (
	"time"

	"github.com/google/uuid"
)

// Product представляет товар каталога (печенье/выпечка).
type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	Category    string    `json:"category" db:"category"`
	Flavor      string    `json:"flavor,omitempty" db:"flavor"`
	UnitPrice   float64   `json:"unit_price" db:"unit_price"`
	Stock       int       `json:"stock" db:"stock"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CreateProductRequest описывает запрос на создание товара.
type CreateProductRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Category    string  `json:"category"`
	Flavor      string  `json:"flavor,omitempty"`
	UnitPrice   float64 `json:"unit_price"`
	Stock       int     `json:"stock"`
	IsActive    bool    `json:"is_active"`
}

// UpdateProductRequest описывает запрос на обновление товара.
type UpdateProductRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Category    string  `json:"category"`
	Flavor      string  `json:"flavor,omitempty"`
	UnitPrice   float64 `json:"unit_price"`
	Stock       int     `json:"stock"`
	IsActive    bool    `json:"is_active"`
}
