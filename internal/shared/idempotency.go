package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyPending = "pending"

// ErrIdempotencyConflict indicates a duplicate key.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// IdempotencyStore remembers client-supplied request keys in redis so a
// retried write is answered with the original result.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore constructs the store. A nil client disables it.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// IdempotencyReplay carries the outcome recorded for a duplicate key. An
// empty Result means the first request is still in flight.
type IdempotencyReplay struct {
	Result string
}

func (r *IdempotencyReplay) Error() string {
	if r.Result == "" {
		return ErrIdempotencyConflict.Error() + " (in progress)"
	}
	return ErrIdempotencyConflict.Error()
}

func (r *IdempotencyReplay) Unwrap() error { return ErrIdempotencyConflict }

// Reserve claims key within module. A duplicate returns *IdempotencyReplay,
// which matches ErrIdempotencyConflict.
func (s *IdempotencyStore) Reserve(ctx context.Context, module, key string) error {
	if s == nil {
		return errors.New("idempotency store not initialised")
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	if module == "" {
		return errors.New("idempotency module required")
	}
	redisKey := idempotencyKey(module, key)
	ok, err := s.client.SetNX(ctx, redisKey, idempotencyPending, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("idempotency reserve: %w", err)
	}
	if ok {
		return nil
	}
	stored, err := s.client.Get(ctx, redisKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("idempotency lookup: %w", err)
	}
	if stored == idempotencyPending {
		stored = ""
	}
	return &IdempotencyReplay{Result: stored}
}

// Complete records result for a reserved key.
func (s *IdempotencyStore) Complete(ctx context.Context, module, key, result string) error {
	if s == nil {
		return nil
	}
	return s.client.Set(ctx, idempotencyKey(module, key), result, s.ttl).Err()
}

// Delete removes a key, typically used to roll back failed processing.
func (s *IdempotencyStore) Delete(ctx context.Context, module, key string) error {
	if s == nil {
		return nil
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	return s.client.Del(ctx, idempotencyKey(module, key)).Err()
}

func idempotencyKey(module, key string) string {
	return "idempotency:" + module + ":" + key
}
