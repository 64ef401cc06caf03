package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/edgeee/excuse-generator/api"
	"github.com/redis/go-redis/v9"
)

// Redis caches the leaderboard snapshot in Redis.
type Redis struct {
	cli *redis.Client
	ttl time.Duration
}

var _ api.Cache = (*Redis)(nil)

// Connect connects to the Redis server and pings the server to ensure the
// connection is working. Snapshots expire after ttl.
func Connect(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Redis, error) {
	cli := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := cli.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{
		cli: cli,
		ttl: ttl,
	}, nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.cli.Close()
}

const (
	excusePrefix   = "excuses"
	leaderboardKey = "excuses:leaderboard"
	// readyKey marks a stored snapshot, so that an empty leaderboard is a hit.
	readyKey = "excuses:leaderboard:ready"
)

func excuseKey(id string) string {
	return fmt.Sprintf("%s:%s", excusePrefix, id)
}

// TopExcuses returns the first limit entries of the cached snapshot. The
// second result is false when no complete snapshot is cached.
func (r *Redis) TopExcuses(ctx context.Context, limit int) ([]api.Excuse, bool, error) {
	n, err := r.cli.Exists(ctx, readyKey).Result()
	if err != nil {
		return nil, false, fmt.Errorf("exists: %w", err)
	}
	if n == 0 {
		return nil, false, nil
	}

	keys, err := r.cli.ZRange(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("zrange: %w", err)
	}

	out := make([]api.Excuse, 0, len(keys))
	for _, key := range keys {
		var e excuse
		if err := r.cli.HGetAll(ctx, key).Scan(&e); err != nil {
			return nil, false, fmt.Errorf("hgetall: %w", err)
		}
		// An entry expired on its own; treat the snapshot as gone.
		if e.ID == "" {
			return nil, false, nil
		}
		out = append(out, e.APIExcuse())
	}
	return out, true, nil
}

// StoreTopExcuses replaces the cached snapshot. excuses must already be in
// leaderboard order; the rank is used as the sorted set score.
func (r *Redis) StoreTopExcuses(ctx context.Context, excuses []api.Excuse) error {
	_, err := r.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, leaderboardKey)
		for i, e := range excuses {
			key := excuseKey(e.ID)
			pipe.Del(ctx, key)
			pipe.HSet(ctx, key, fromAPIExcuse(e))
			pipe.Expire(ctx, key, r.ttl)
			pipe.ZAdd(ctx, leaderboardKey, redis.Z{
				Score:  float64(i),
				Member: key,
			})
		}
		pipe.Expire(ctx, leaderboardKey, r.ttl)
		pipe.Set(ctx, readyKey, len(excuses), r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis store leaderboard: %w", err)
	}
	return nil
}

// Invalidate drops the snapshot so the next read goes to the database.
func (r *Redis) Invalidate(ctx context.Context) error {
	if err := r.cli.Del(ctx, readyKey, leaderboardKey).Err(); err != nil {
		return fmt.Errorf("del: %w", err)
	}
	return nil
}
