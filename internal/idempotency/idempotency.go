// Package idempotency remembers request keys in Redis so that a retried
// purchase is not applied twice.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long a claimed key is remembered.
const DefaultTTL = 24 * time.Hour

const keyPrefix = "sladkarije:idem:"

// Connect opens a Redis client and checks that the server answers.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("idempotency: ping %s: %w", addr, err)
	}
	return client, nil
}

// Store claims idempotency keys.
type Store struct {
	client redis.Cmdable
	ttl    time.Duration
}

// New returns a store backed by client. A non-positive ttl means DefaultTTL.
func New(client redis.Cmdable, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

// Key builds the key for a request of actor against an item, so that two
// users sending the same header value do not collide.
func Key(actor string, itemID int64, requestKey string) string {
	return fmt.Sprintf("%s:%d:%s", actor, itemID, requestKey)
}

// Claim records key and reports whether this is its first use.
func (s *Store) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, keyPrefix+key, 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claiming idempotency key: %w", err)
	}
	return ok, nil
}

// Release forgets key, letting a request that failed be retried.
func (s *Store) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("releasing idempotency key: %w", err)
	}
	return nil
}
