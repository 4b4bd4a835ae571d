package bench

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisLog is the Redis-backed OutcomeLog for runs shared across processes.
//
// Redis data structure per run:
//   - "{prefix}:{run_id}:records": HASH, field = command/variant/repeat,
//     value = JSON record; written with HSETNX so the first writer wins.
//   - "{prefix}:{run_id}:order": LIST of fields in append order.
//   - "{prefix}:{run_id}:spec": STRING, JSON run spec.
type RedisLog struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisLog connects to redisURL and returns a log under keyPrefix
// (default "archbench").
func NewRedisLog(redisURL, keyPrefix string) (*RedisLog, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if keyPrefix == "" {
		keyPrefix = "archbench"
	}
	return &RedisLog{client: redis.NewClient(opts), keyPrefix: keyPrefix}, nil
}

// Ping verifies connectivity.
func (l *RedisLog) Ping(ctx context.Context) error {
	if err := l.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the client.
func (l *RedisLog) Close() error {
	return l.client.Close()
}

func (l *RedisLog) recordsKey(runID string) string {
	return fmt.Sprintf("%s:%s:records", l.keyPrefix, runID)
}

func (l *RedisLog) orderKey(runID string) string {
	return fmt.Sprintf("%s:%s:order", l.keyPrefix, runID)
}

func (l *RedisLog) specKey(runID string) string {
	return fmt.Sprintf("%s:%s:spec", l.keyPrefix, runID)
}

func fieldOf(key UnitKey) string {
	return fmt.Sprintf("%s/%s/%d", key.CommandID, key.Variant, key.Repeat)
}

func (l *RedisLog) Append(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", rec.Key, err)
	}
	field := fieldOf(rec.Key)
	set, err := l.client.HSetNX(ctx, l.recordsKey(rec.Key.RunID), field, data).Result()
	if err != nil {
		return fmt.Errorf("append record %s: %w", rec.Key, err)
	}
	if !set {
		return nil // first writer already won
	}
	if err := l.client.RPush(ctx, l.orderKey(rec.Key.RunID), field).Err(); err != nil {
		return fmt.Errorf("append record order %s: %w", rec.Key, err)
	}
	return nil
}

func (l *RedisLog) List(ctx context.Context, runID string) ([]Record, error) {
	fields, err := l.client.LRange(ctx, l.orderKey(runID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	values, err := l.client.HMGet(ctx, l.recordsKey(runID), fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	out := make([]Record, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (l *RedisLog) SaveSpec(ctx context.Context, spec RunSpec) error {
	data, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("encode run spec: %w", err)
	}
	if err := l.client.Set(ctx, l.specKey(spec.RunID), data, 0).Err(); err != nil {
		return fmt.Errorf("save run spec: %w", err)
	}
	return nil
}

func (l *RedisLog) LoadSpec(ctx context.Context, runID string) (RunSpec, error) {
	data, err := l.client.Get(ctx, l.specKey(runID)).Bytes()
	if err == redis.Nil {
		return RunSpec{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return RunSpec{}, fmt.Errorf("load run spec: %w", err)
	}
	var spec RunSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return RunSpec{}, fmt.Errorf("decode run spec: %w", err)
	}
	return spec, nil
}
