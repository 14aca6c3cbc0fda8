package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/truthchain/backend/pkg/logger"
)

// Client caches serialized analysis results so repeat submissions of
// the same input skip the pipeline. Point-in-time cache only; the
// article store stays the system of record.
type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) GetAnalysis(ctx context.Context, inputHash string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, "analysis:"+inputHash).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached analysis: %w", err)
	}

	logger.Debug("Analysis cache hit", zap.String("input_hash", inputHash))
	return data, true, nil
}

func (c *Client) SetAnalysis(ctx context.Context, inputHash string, data []byte) error {
	err := c.client.Set(ctx, "analysis:"+inputHash, data, c.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to cache analysis: %w", err)
	}

	logger.Debug("Analysis cached", zap.String("input_hash", inputHash), zap.Duration("ttl", c.ttl))
	return nil
}
