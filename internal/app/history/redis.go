package history

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"arcadelive/internal/app/presence"
	"arcadelive/internal/pkg/logx"
)

// RedisStore keeps each room's history in a Redis list.
// Appends run RPUSH, LTRIM and EXPIRE in one MULTI block, so concurrent appends to the
// same room never lose entries and the cap and expiry always hold.
type RedisStore struct {
	client   *redis.Client
	capacity int64
	logger   zerolog.Logger
}

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisStoreFromClient(client), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:   client,
		capacity: presence.HistoryCapacity,
		logger:   logx.Component("RedisHistory"),
	}
}

// Append implements presence.History.
func (s *RedisStore) Append(ctx context.Context, streamID string, msg presence.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal chat message: %w", err)
	}

	key := Key(streamID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.LTrim(ctx, key, -s.capacity, -1)
		pipe.Expire(ctx, key, presence.HistoryTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append history %s: %w", key, err)
	}

	return nil
}

// Recent implements presence.History. Entries that fail to decode are skipped.
func (s *RedisStore) Recent(ctx context.Context, streamID string) ([]presence.ChatMessage, error) {
	key := Key(streamID)

	raw, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history %s: %w", key, err)
	}

	msgs := make([]presence.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var msg presence.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("Skipping undecodable history entry.")
			continue
		}
		msgs = append(msgs, msg)
	}

	return msgs, nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
