package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "checkout:session:"
	pendingSetKey    = "checkout:pending"
)

// RedisStore держит сессию JSON-значением с TTL. Сессии со счётом дополнительно
// лежат в sorted set со временем выставления счёта, по нему работает ListStale.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Load(ctx context.Context, key string) (Session, error) {
	raw, err := r.client.Get(ctx, sessionKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return fresh(key), nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, s Session) error {
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now()
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKeyPrefix+s.Key, data, r.ttl)
		if s.Invoice != nil && s.State.AwaitingPayment() {
			pipe.ZAdd(ctx, pendingSetKey, redis.Z{
				Score:  float64(s.Invoice.IssuedAt.UnixMilli()),
				Member: s.Key,
			})
		} else {
			pipe.ZRem(ctx, pendingSetKey, s.Key)
		}
		return nil
	})
	return err
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKeyPrefix+key)
		pipe.ZRem(ctx, pendingSetKey, key)
		return nil
	})
	return err
}

func (r *RedisStore) ListStale(ctx context.Context, before time.Time) ([]Session, error) {
	keys, err := r.client.ZRangeByScore(ctx, pendingSetKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(before.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get pending sessions: %w", err)
	}
	var out []Session
	for _, key := range keys {
		raw, err := r.client.Get(ctx, sessionKeyPrefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			// значение истекло по TTL, индекс чистим
			r.client.ZRem(ctx, pendingSetKey, key)
			continue
		}
		if err != nil {
			return nil, err
		}
		var s Session
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		if s.State.AwaitingPayment() {
			out = append(out, s)
		}
	}
	return out, nil
}
