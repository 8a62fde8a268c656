package notification

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestRedisCacheUnavailable はRedisに接続できない場合もキャッシュミスとして扱われることを検証する。
func TestRedisCacheUnavailable(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	cache := NewRedisCache(client, time.Minute, zap.New(core))
	t.Cleanup(func() { _ = cache.Close() })

	ctx := context.Background()
	if _, ok := cache.Get(ctx, "user-1", 1); ok {
		t.Error("接続できないのにヒットしました")
	}
	cache.Set(ctx, "user-1", 1, 3)

	if logs.Len() != 2 {
		t.Errorf("警告ログ数: got %d, want 2", logs.Len())
	}
}

func TestRedisCacheKey(t *testing.T) {
	t.Parallel()

	cache := NewRedisCache(redis.NewClient(&redis.Options{}), time.Minute, zap.NewNop())
	t.Cleanup(func() { _ = cache.Close() })

	if got := cache.key("user-1", 42); got != "notifyhub:unread_count:user-1:42" {
		t.Errorf("key: got %s", got)
	}
}
