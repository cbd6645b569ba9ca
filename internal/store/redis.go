package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fintwin/internal/game"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "fintwin:session:"

// Redis keeps each snapshot as a JSON value that expires after ttl of
// inactivity, so idle sessions clean themselves up.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(addr, password string, ttl time.Duration) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	return &Redis{client: rdb, ttl: ttl}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

func (r *Redis) Save(ctx context.Context, snap game.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", snap.ID, err)
	}
	return r.client.Set(ctx, redisKey(snap.ID), raw, r.ttl).Err()
}

func (r *Redis) Load(ctx context.Context, id string) (game.Snapshot, error) {
	raw, err := r.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return game.Snapshot{}, game.ErrSessionNotFound
	}
	if err != nil {
		return game.Snapshot{}, fmt.Errorf("load session %s: %w", id, err)
	}
	var snap game.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return game.Snapshot{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return snap, nil
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, redisKey(id)).Err()
}

// DeleteIdle is a no-op: keys expire on their own.
func (r *Redis) DeleteIdle(context.Context, time.Time) (int64, error) {
	return 0, nil
}
