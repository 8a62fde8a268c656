package notification

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// UnreadCache は受信者ごとの未読件数（絞り込みなし）のキャッシュ。
// 件数は受信者の通知の版数（notificationdb.Queries.InboxVersion）ごとに保存する。
// 版数は通知が変わるたびに増えるため、古い版の件数が読まれることは無い。
// キャッシュの失敗はリクエストを失敗させず、ミスとして扱う。
type UnreadCache interface {
	// Get は指定した版の件数を返す。無い場合はfalse。
	Get(ctx context.Context, recipient string, version int64) (int64, bool)
	// Set は指定した版の件数を保存する。
	Set(ctx context.Context, recipient string, version, count int64)
	// Close は接続を閉じる。
	Close() error
}

// noopCache は常にミスするキャッシュ。Redisが設定されていない場合に使う。
type noopCache struct{}

func (noopCache) Get(context.Context, string, int64) (int64, bool) { return 0, false }
func (noopCache) Set(context.Context, string, int64, int64)        {}
func (noopCache) Close() error                                     { return nil }

// unreadCountKeyPrefix はRedisキーの接頭辞。
const unreadCountKeyPrefix = "notifyhub:unread_count:"

// RedisCache はRedisに未読件数を保存する UnreadCache。
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisCache は新しいRedisCacheを生成する。
func NewRedisCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, log: log}
}

func (c *RedisCache) key(recipient string, version int64) string {
	return unreadCountKeyPrefix + recipient + ":" + strconv.FormatInt(version, 10)
}

// Get はキャッシュされた件数を返す。
func (c *RedisCache) Get(ctx context.Context, recipient string, version int64) (int64, bool) {
	count, err := c.client.Get(ctx, c.key(recipient, version)).Int64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("未読件数キャッシュの取得に失敗しました", zap.String("user_id", recipient), zap.Error(err))
		}
		return 0, false
	}
	return count, true
}

// Set は件数をTTL付きで保存する。古い版のキーはTTLで消える。
func (c *RedisCache) Set(ctx context.Context, recipient string, version, count int64) {
	if err := c.client.Set(ctx, c.key(recipient, version), count, c.ttl).Err(); err != nil {
		c.log.Warn("未読件数キャッシュの保存に失敗しました", zap.String("user_id", recipient), zap.Error(err))
	}
}

// Close はRedisクライアントを閉じる。
func (c *RedisCache) Close() error {
	return c.client.Close()
}
