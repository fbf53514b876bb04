package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisStreamPublisher appends events to a Redis stream with XADD.
// Fields: type, scan_id, data (JSON event), timestamp.
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStreamPublisher maxLen <= 0 means no trimming.
func NewRedisStreamPublisher(client *redis.Client, stream string, maxLen int64) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

var (
	_ Publisher = (*RedisStreamPublisher)(nil)
	_ History   = (*RedisStreamPublisher)(nil)
)

func (p *RedisStreamPublisher) Publish(ctx context.Context, ev ScanEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal scan event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"type":      ev.Type,
			"scan_id":   ev.ScanID,
			"data":      string(data),
			"timestamp": fmt.Sprintf("%d", ev.Timestamp),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", p.stream, err)
	}
	return nil
}

// Recent returns up to count newest events, newest first.
func (p *RedisStreamPublisher) Recent(ctx context.Context, count int64) ([]ScanEvent, error) {
	msgs, err := p.client.XRevRangeN(ctx, p.stream, "+", "-", count).Result()
	if err != nil {
		if err == redis.Nil {
			return []ScanEvent{}, nil
		}
		return nil, fmt.Errorf("failed to read stream %s: %w", p.stream, err)
	}

	out := make([]ScanEvent, 0, len(msgs))
	for _, m := range msgs {
		raw, ok := m.Values["data"].(string)
		if !ok {
			continue
		}
		var ev ScanEvent
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// Close is a no-op; the redis client is owned by the caller.
func (p *RedisStreamPublisher) Close() error { return nil }
