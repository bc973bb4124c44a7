package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"bakery-system/internal/models"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

func TestConsumer_ProcessMessage_WithHandler(t *testing.T) {
	c := &Consumer{
		log:      newKafkaTestLogger(),
		handlers: make(map[models.EventType]EventHandler),
		ctx:      context.Background(),
	}

	called := false
	c.RegisterHandler(models.EventTypeOrderCreated, func(ctx context.Context, event *models.Event) error {
		called = true
		return nil
	})

	ev := models.Event{ID: uuid.New(), Type: models.EventTypeOrderCreated}
	data, _ := json.Marshal(ev)
	msg := &sarama.ConsumerMessage{Value: data, Topic: "orders"}

	if err := c.processMessage(msg); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !called {
		t.Fatalf("handler not called")
	}
	if c.HandlerCount() != 1 {
		t.Fatalf("handler count expected 1")
	}
}

func TestConsumer_ProcessMessage_NoHandler(t *testing.T) {
	c := &Consumer{
		log:      newKafkaTestLogger(),
		handlers: make(map[models.EventType]EventHandler),
		ctx:      context.Background(),
	}

	ev := models.Event{ID: uuid.New(), Type: models.EventTypePromoApplied}
	data, _ := json.Marshal(ev)
	msg := &sarama.ConsumerMessage{Value: data, Topic: "promos"}

	if err := c.processMessage(msg); err != nil {
		t.Fatalf("expected no error for missing handler, got %v", err)
	}
}

func TestConsumer_ProcessMessage_HandlerError(t *testing.T) {
	c := &Consumer{
		log:      newKafkaTestLogger(),
		handlers: make(map[models.EventType]EventHandler),
		ctx:      context.Background(),
	}

	expectedErr := fmt.Errorf("fail")
	c.RegisterHandler(models.EventTypePromoRejected, func(ctx context.Context, event *models.Event) error {
		return expectedErr
	})

	ev := models.Event{ID: uuid.New(), Type: models.EventTypePromoRejected}
	data, _ := json.Marshal(ev)
	msg := &sarama.ConsumerMessage{Value: data, Topic: "promos"}

	if err := c.processMessage(msg); err == nil {
		t.Fatalf("expected handler error")
	}
}

func TestConsumer_ProcessMessage_InvalidJSON(t *testing.T) {
	c := &Consumer{
		log:      newKafkaTestLogger(),
		handlers: make(map[models.EventType]EventHandler),
		ctx:      context.Background(),
	}

	msg := &sarama.ConsumerMessage{Value: []byte("not json"), Topic: "orders"}

	if err := c.processMessage(msg); err == nil {
		t.Fatalf("expected unmarshal error")
	}
}

func TestConsumer_StopNil(t *testing.T) {
	var c *Consumer
	if err := c.Stop(); err != nil {
		t.Fatalf("expected nil error on nil consumer stop, got %v", err)
	}
}
