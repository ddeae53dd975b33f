package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	domain "github.com/bryanwahyu/medreport/internal/domain/analysis"
)

// Session lists live under "history:s:<id>" and the index under
// "history:index". Session ids never contain ':' so the two cannot collide.
const (
	usersKey      = "history:index"
	historyPrefix = "history:s:"
)

func sessionKey(userID string) string { return historyPrefix + userID }

// RedisHistory keeps each session's records as a Redis list of JSON values
// plus a set of known session ids.
type RedisHistory struct {
	client *redis.Client
}

func NewRedisHistory(ctx context.Context, addr, password string, db int) (*RedisHistory, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisHistory{client: client}, nil
}

func (r *RedisHistory) Close() error { return r.client.Close() }

func (r *RedisHistory) Load(ctx context.Context) (domain.Snapshot, error) {
	snap := domain.NewSnapshot()
	users, err := r.client.SMembers(ctx, usersKey).Result()
	if err != nil {
		return snap, fmt.Errorf("list sessions: %w", err)
	}
	for _, user := range users {
		vals, err := r.client.LRange(ctx, sessionKey(user), 0, -1).Result()
		if err != nil {
			return domain.NewSnapshot(), fmt.Errorf("read session %s: %w", user, err)
		}
		recs := make([]domain.Record, 0, len(vals))
		for _, v := range vals {
			var rec domain.Record
			if err := json.Unmarshal([]byte(v), &rec); err != nil {
				return domain.NewSnapshot(), fmt.Errorf("decode record of %s: %w", user, err)
			}
			recs = append(recs, rec)
		}
		snap.Sessions[user] = recs
	}
	return snap, nil
}

// Persist pushes the appended record in one MULTI/EXEC.
func (r *RedisHistory) Persist(ctx context.Context, _ domain.Snapshot, userID string, rec domain.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode json from record failed: %w", err)
	}
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, sessionKey(userID), data)
	pipe.SAdd(ctx, usersKey, userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push record to redis failed: %w", err)
	}
	return nil
}

func (r *RedisHistory) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.client.Ping(ctx).Err()
}
