package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"bakery-system/internal/config"
	"bakery-system/internal/logger"
	"bakery-system/internal/models"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Producer публикует доменные события в Kafka.
type Producer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
	topics   *config.Topics
}

// NewProducer создает синхронный продюсер.
func NewProducer(cfg *config.KafkaConfig, log *logger.Logger) (*Producer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 3
	saramaCfg.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.Info("Successfully connected to Kafka")

	return &Producer{
		producer: producer,
		log:      log,
		topics:   &cfg.Topics,
	}, nil
}

// Close закрывает продюсер.
func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}

// PublishOrderCreated публикует событие о новом заказе (лента кухни).
func (p *Producer) PublishOrderCreated(order *models.Order) error {
	event := newEvent(models.EventTypeOrderCreated, map[string]interface{}{
		"order_id":        order.ID.String(),
		"customer_name":   order.CustomerName,
		"subtotal":        order.Subtotal,
		"delivery_fee":    order.DeliveryFee,
		"discount_amount": order.DiscountAmount,
		"total_amount":    order.TotalAmount,
		"items":           order.Items,
	})
	return p.publishEvent(p.topics.Orders, event)
}

// PublishOrderStatusChanged публикует смену статуса заказа.
func (p *Producer) PublishOrderStatusChanged(orderID uuid.UUID, oldStatus, newStatus models.OrderStatus) error {
	event := newEvent(models.EventTypeOrderStatusChanged, map[string]interface{}{
		"order_id":   orderID.String(),
		"old_status": string(oldStatus),
		"new_status": string(newStatus),
	})
	return p.publishEvent(p.topics.Orders, event)
}

// PublishPromoApplied публикует факт применения промокода к заказу.
func (p *Producer) PublishPromoApplied(orderID uuid.UUID, code string, discountAmount, orderAmount float64) error {
	event := newEvent(models.EventTypePromoApplied, map[string]interface{}{
		"order_id":        orderID.String(),
		"code":            code,
		"discount_amount": discountAmount,
		"order_amount":    orderAmount,
	})
	return p.publishEvent(p.topics.Promos, event)
}

// PublishPromoRejected публикует отказ в применении кода при подтверждении заказа.
func (p *Producer) PublishPromoRejected(orderID uuid.UUID, code, reason string) error {
	event := newEvent(models.EventTypePromoRejected, map[string]interface{}{
		"order_id": orderID.String(),
		"code":     code,
		"reason":   reason,
	})
	return p.publishEvent(p.topics.Promos, event)
}

func newEvent(eventType models.EventType, data map[string]interface{}) models.Event {
	return models.Event{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func (p *Producer) publishEvent(topic string, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.ID.String()),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message to topic %s: %w", topic, err)
	}

	p.log.WithFields(map[string]interface{}{
		"topic":     topic,
		"type":      event.Type,
		"partition": partition,
		"offset":    offset,
	}).Debug("Event published")

	return nil
}
