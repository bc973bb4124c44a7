package config

import (
	"os"
	"testing"
)

func TestGetEnvHelpers(t *testing.T) {
	os.Setenv("TEST_STR", "value")
	os.Setenv("TEST_INT", "123")
	os.Setenv("TEST_FLOAT", "3.14")
	os.Setenv("TEST_BOOL_TRUE", "true")
	os.Setenv("TEST_BOOL_FALSE", "false")

	if v := getEnv("TEST_STR", ""); v != "value" {
		t.Fatalf("expected value, got %s", v)
	}
	if v := getEnvAsInt("TEST_INT", 0); v != 123 {
		t.Fatalf("expected 123, got %d", v)
	}
	if v := getEnvAsFloat("TEST_FLOAT", 0); v != 3.14 {
		t.Fatalf("expected 3.14, got %f", v)
	}
	if !getEnvAsBool("TEST_BOOL_TRUE", false) {
		t.Fatalf("expected true")
	}
	if getEnvAsBool("TEST_BOOL_FALSE", true) {
		t.Fatalf("expected false")
	}
}

func TestLoadDefaults(t *testing.T) {
	_ = os.Unsetenv("SERVER_PORT")
	_ = os.Unsetenv("PROMO_RULE_CACHE_TTL_SECONDS")
	cfg := Load()
	if cfg.Server.Port == "" {
		t.Fatalf("expected default server port set")
	}
	if cfg.Promo.RuleCacheTTLSeconds == 0 {
		t.Fatalf("expected promo rule cache ttl default set")
	}
	if cfg.Delivery.DefaultFee <= 0 {
		t.Fatalf("expected default delivery fee set")
	}
}

func TestLoadOverrides(t *testing.T) {
	os.Setenv("DELIVERY_DEFAULT_FEE", "75.5")
	os.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	defer func() {
		_ = os.Unsetenv("DELIVERY_DEFAULT_FEE")
		_ = os.Unsetenv("KAFKA_BROKERS")
	}()

	cfg := Load()
	if cfg.Delivery.DefaultFee != 75.5 {
		t.Fatalf("expected delivery fee 75.5, got %f", cfg.Delivery.DefaultFee)
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Fatalf("expected 2 brokers, got %d", len(cfg.Kafka.Brokers))
	}
}
