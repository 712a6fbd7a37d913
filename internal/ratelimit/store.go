// Package ratelimit fiber limiter üzerine kurulu istek sınırları ve paylaşılan Redis storage.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisTimeout  = 500 * time.Millisecond
	redisCooldown = 30 * time.Second
)

// RedisStorage: fiber.Storage'ın go-redis ile gerçeklenmesi; sayaçlar instance'lar arası paylaşılır.
// Bir hata alınınca cooldown boyunca Healthy false döner.
type RedisStorage struct {
	client   redis.UniversalClient
	prefix   string
	timeout  time.Duration
	cooldown time.Duration
	failedAt atomic.Int64
	now      func() time.Time
}

func NewRedisStorage(client redis.UniversalClient, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisStorage{
		client:   client,
		prefix:   prefix,
		timeout:  redisTimeout,
		cooldown: redisCooldown,
		now:      time.Now,
	}
}

func (s *RedisStorage) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *RedisStorage) track(err error) error {
	if err == nil {
		return nil
	}
	if s.Healthy() {
		log.Printf("[WARN] rate limit Redis hatası, %s boyunca memory sayaç kullanılacak: %v", s.cooldown, err)
	}
	s.failedAt.Store(s.now().UnixNano())
	return err
}

// Healthy: Son hatadan bu yana cooldown geçtiyse true
func (s *RedisStorage) Healthy() bool {
	at := s.failedAt.Load()
	return at == 0 || s.now().Sub(time.Unix(0, at)) >= s.cooldown
}

// Get: Anahtar yoksa nil, nil
func (s *RedisStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	ctx, cancel := s.opCtx()
	defer cancel()

	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, s.track(fmt.Errorf("redis get: %w", err))
	}
	return val, nil
}

func (s *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := s.opCtx()
	defer cancel()

	if err := s.client.Set(ctx, s.prefix+key, val, exp).Err(); err != nil {
		return s.track(fmt.Errorf("redis set: %w", err))
	}
	return nil
}

func (s *RedisStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	ctx, cancel := s.opCtx()
	defer cancel()

	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return s.track(fmt.Errorf("redis del: %w", err))
	}
	return nil
}

// Reset: Yalnızca prefix altındaki anahtarlar silinir
func (s *RedisStorage) Reset() error {
	ctx := context.Background()
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 200).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return s.track(fmt.Errorf("redis scan: %w", err))
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return s.track(fmt.Errorf("redis del: %w", err))
	}
	return nil
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}
