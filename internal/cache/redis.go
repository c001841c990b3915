// Package cache はRedisベースのセッションキャッシュを提供する。
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options はRedis接続の設定を保持する。
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient はRedisクライアントを生成する。
// 接続確認にはPing()を使用すること。
func NewClient(opts Options) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

// RedisSessionStore はRedisを使用したセッションストア。
// キー空間はユーザーIDで分割され、ユーザーごとに最大1件の
// リフレッシュトークンを保持する。
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore はRedisSessionStoreを生成する。
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

// Set はキーに値をTTL付きで設定する。既存の値は上書きされる。
func (s *RedisSessionStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session key: %w", err)
	}
	return nil
}

// Get はキーに対応する値を取得する。キーが存在しない場合は空文字列を返す。
func (s *RedisSessionStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get session key: %w", err)
	}
	return value, nil
}

// Delete はキーを削除する。存在しないキーの削除はエラーにならない（冪等）。
func (s *RedisSessionStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete session key: %w", err)
	}
	return nil
}
