package redis

import (
	"testing"
	"time"

	"family-calendar-go/internal/config"
	"family-calendar-go/pkg/logger"
)

func TestEffectiveTTL(t *testing.T) {
	cache := New(config.CacheConfig{Addr: "localhost:6379", TTL: 5 * time.Minute}, logger.Nop())

	if got := cache.effectiveTTL(0); got != 5*time.Minute {
		t.Fatalf("expected configured TTL for 0, got %v", got)
	}
	if got := cache.effectiveTTL(time.Minute); got != time.Minute {
		t.Fatalf("expected caller TTL kept, got %v", got)
	}
}
