package kafka

import (
	"testing"

	"bakery-system/internal/config"
	"bakery-system/internal/logger"
	"bakery-system/internal/models"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
)

func newKafkaTestLogger() *logger.Logger {
	return logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
}

func TestPublishEvent(t *testing.T) {
	cfg := sarama.NewConfig()
	mp := mocks.NewSyncProducer(t, cfg)
	mp.ExpectSendMessageAndSucceed()

	event := newEvent(models.EventTypeOrderCreated, nil)
	p := &Producer{
		producer: mp,
		log:      newKafkaTestLogger(),
		topics:   &config.Topics{Orders: "orders", Promos: "promos"},
	}
	if err := p.publishEvent("orders", event); err != nil {
		t.Fatalf("expected publish success, got %v", err)
	}

	if err := mp.Close(); err != nil {
		t.Fatalf("failed to close mock producer: %v", err)
	}
}

func TestPublishEvent_SendError(t *testing.T) {
	cfg := sarama.NewConfig()
	mp := mocks.NewSyncProducer(t, cfg)
	mp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := &Producer{
		producer: mp,
		log:      newKafkaTestLogger(),
		topics:   &config.Topics{Orders: "orders", Promos: "promos"},
	}
	if err := p.publishEvent("orders", newEvent(models.EventTypeOrderCreated, nil)); err == nil {
		t.Fatalf("expected publish error")
	}
	_ = mp.Close()
}

func TestProducer_WrapperMethods(t *testing.T) {
	cfg := sarama.NewConfig()
	mp := mocks.NewSyncProducer(t, cfg)
	for i := 0; i < 4; i++ {
		mp.ExpectSendMessageAndSucceed()
	}

	p := &Producer{
		producer: mp,
		log:      newKafkaTestLogger(),
		topics:   &config.Topics{Orders: "orders", Promos: "promos"},
	}

	orderID := uuid.New()
	order := &models.Order{ID: orderID, CustomerName: "n", CustomerPhone: "p", DeliveryAddress: "addr", Subtotal: 100, TotalAmount: 120}

	if err := p.PublishOrderCreated(order); err != nil {
		t.Fatalf("PublishOrderCreated failed: %v", err)
	}
	if err := p.PublishOrderStatusChanged(orderID, models.OrderStatusCreated, models.OrderStatusBaking); err != nil {
		t.Fatalf("PublishOrderStatusChanged failed: %v", err)
	}
	if err := p.PublishPromoApplied(orderID, "SAVE20", 30, 150); err != nil {
		t.Fatalf("PublishPromoApplied failed: %v", err)
	}
	if err := p.PublishPromoRejected(orderID, "SAVE20", models.ReasonUsageLimitReached); err != nil {
		t.Fatalf("PublishPromoRejected failed: %v", err)
	}

	if err := mp.Close(); err != nil {
		t.Fatalf("failed to close mock producer: %v", err)
	}
}

func TestProducer_CloseNil(t *testing.T) {
	var p *Producer
	if err := p.Close(); err != nil {
		t.Fatalf("expected nil error on nil producer close, got %v", err)
	}
}
