package locks

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKey = "cassini:locks:active"

// RedisCache shares the active lock set between processes.
type RedisCache struct {
	client *redis.Client
	key    string
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, key: redisKey}
}

type redisLock struct {
	Type     Type      `json:"type"`
	Target   string    `json:"target"`
	LockedBy int64     `json:"locked_by"`
	LockedAt time.Time `json:"locked_at"`
	Reason   string    `json:"reason,omitempty"`
}

func (r *RedisCache) Get(ctx context.Context) ([]Lock, bool, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var stored []redisLock
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, false, err
	}
	out := make([]Lock, 0, len(stored))
	for _, l := range stored {
		out = append(out, Lock{
			Type:     l.Type,
			Target:   l.Target,
			Locked:   true,
			LockedBy: l.LockedBy,
			LockedAt: l.LockedAt,
			Reason:   l.Reason,
		})
	}
	return out, true, nil
}

func (r *RedisCache) Put(ctx context.Context, rows []Lock, ttl time.Duration) error {
	stored := make([]redisLock, 0, len(rows))
	for _, l := range rows {
		if !l.Locked {
			continue
		}
		stored = append(stored, redisLock{
			Type:     l.Type,
			Target:   l.Target,
			LockedBy: l.LockedBy,
			LockedAt: l.LockedAt,
			Reason:   l.Reason,
		})
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key, raw, ttl).Err()
}

func (r *RedisCache) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
