package redis

import (
	"context"
	"testing"
	"time"

	"bakery-system/internal/config"
	"bakery-system/internal/logger"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/go-redis/redis/v8"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis, context.Context) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	log := logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
	return &Client{client: rdb, log: log}, mr, context.Background()
}

func TestConnectSuccess(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()
	log := logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
	cfg := &config.RedisConfig{Host: "127.0.0.1", Port: mr.Port(), DB: 0}

	client, err := Connect(cfg, log)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestConnectFailure(t *testing.T) {
	log := logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
	cfg := &config.RedisConfig{Host: "127.0.0.1", Port: "0", DB: 0}
	if _, err := Connect(cfg, log); err == nil {
		t.Fatalf("expected connect error")
	}
}

func TestCloseNil(t *testing.T) {
	var client *Client
	if err := client.Close(); err != nil {
		t.Fatalf("expected nil error on nil client close, got %v", err)
	}
}

func TestGenerateKey(t *testing.T) {
	key := GenerateKey(KeyPrefixPricingRules, "active")
	if key != "pricing_rules:active" {
		t.Fatalf("unexpected key: %s", key)
	}
}

func TestSetGetDelete(t *testing.T) {
	client, _, ctx := newTestClient(t)

	type payload struct {
		Value string
	}

	val := payload{Value: "data"}
	if err := client.Set(ctx, "key1", val, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	var out payload
	if err := client.Get(ctx, "key1", &out); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if out.Value != "data" {
		t.Fatalf("unexpected value: %s", out.Value)
	}

	if err := client.Delete(ctx, "key1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := client.Get(ctx, "key1", &out); err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestDeleteByPrefix(t *testing.T) {
	client, mr, ctx := newTestClient(t)

	if err := client.Set(ctx, "pricing_rules:active", "a", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := client.Set(ctx, "pricing_rules:other", "b", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := client.Set(ctx, "unrelated", "c", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	if err := client.DeleteByPrefix(ctx, "pricing_rules:"); err != nil {
		t.Fatalf("delete by prefix failed: %v", err)
	}

	if mr.Exists("pricing_rules:active") || mr.Exists("pricing_rules:other") {
		t.Fatalf("expected prefixed keys deleted")
	}
	if !mr.Exists("unrelated") {
		t.Fatalf("expected unrelated key kept")
	}
}

func TestIncrExpireTTLGetInt(t *testing.T) {
	client, mr, ctx := newTestClient(t)

	v, err := client.Incr(ctx, "counter")
	if err != nil || v != 1 {
		t.Fatalf("incr failed: v=%d err=%v", v, err)
	}
	if _, err := client.Incr(ctx, "counter"); err != nil {
		t.Fatalf("second incr failed: %v", err)
	}

	if err := client.Expire(ctx, "counter", time.Minute); err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	ttl, err := client.TTL(ctx, "counter")
	if err != nil || ttl <= 0 {
		t.Fatalf("ttl failed: ttl=%v err=%v", ttl, err)
	}

	got, err := client.GetInt(ctx, "counter")
	if err != nil || got != 2 {
		t.Fatalf("getint failed: got=%d err=%v", got, err)
	}

	mr.Del("counter")
	if _, err := client.GetInt(ctx, "counter"); err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestHealth(t *testing.T) {
	client, mr, ctx := newTestClient(t)
	if err := client.Health(ctx); err != nil {
		t.Fatalf("health failed: %v", err)
	}
	mr.Close()
	if err := client.Health(ctx); err == nil {
		t.Fatalf("expected health error after close")
	}
}
