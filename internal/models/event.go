package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType описывает тип события в шине.
type EventType string

const (
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderStatusChanged EventType = "order.status_changed"
	EventTypePromoApplied       EventType = "promo.applied"
	EventTypePromoRejected      EventType = "promo.rejected"
)

// Event представляет событие, публикуемое в Kafka.
type Event struct {
	ID        uuid.UUID              `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}
