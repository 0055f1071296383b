package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/timeline-engine/pkg/timeline"
)

const gameKeyPrefix = "game:"

// RedisStorage implements the Storage interface using Redis.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(redisURL string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	return &RedisStorage{
		client: rdb,
		logger: logger,
	}
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

func (r *RedisStorage) SaveGame(ctx context.Context, gs *timeline.GameState) error {
	gs.UpdatedAt = time.Now()

	data, err := json.Marshal(gs)
	if err != nil {
		r.logger.Error("Failed to marshal game", "uuid", gs.ID, "error", err)
		return fmt.Errorf("failed to marshal game: %w", err)
	}

	key := gameKeyPrefix + gs.ID.String()
	if err := r.client.Set(ctx, key, string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to save game", "uuid", gs.ID, "error", err)
		return fmt.Errorf("failed to save game: %w", err)
	}

	return nil
}

func (r *RedisStorage) LoadGame(ctx context.Context, id uuid.UUID) (*timeline.GameState, error) {
	key := gameKeyPrefix + id.String()
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Warn("Game not found", "uuid", id)
			return nil, nil
		}
		r.logger.Error("Failed to load game", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to load game: %w", err)
	}

	var gs timeline.GameState
	if err := json.Unmarshal([]byte(data), &gs); err != nil {
		// Unreadable saves are treated as missing rather than fatal.
		r.logger.Warn("Failed to unmarshal game", "uuid", id, "error", err)
		return nil, nil
	}

	return &gs, nil
}

func (r *RedisStorage) DeleteGame(ctx context.Context, id uuid.UUID) error {
	key := gameKeyPrefix + id.String()
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Error("Failed to delete game", "uuid", id, "error", err)
		return fmt.Errorf("failed to delete game: %w", err)
	}
	return nil
}

func (r *RedisStorage) ListGames(ctx context.Context) ([]GameMeta, error) {
	var metas []GameMeta

	iter := r.client.Scan(ctx, 0, gameKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("failed to read game %s: %w", iter.Val(), err)
		}

		var gs timeline.GameState
		if err := json.Unmarshal([]byte(data), &gs); err != nil {
			r.logger.Warn("Skipping unreadable game", "key", iter.Val(), "error", err)
			continue
		}

		metas = append(metas, GameMeta{
			ID:         gs.ID,
			Name:       gs.Name,
			BigPicture: gs.Setup.BigPicture,
			LastPlayed: gs.UpdatedAt,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan games: %w", err)
	}

	return metas, nil
}
