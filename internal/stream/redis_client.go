package stream

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"sysinfo-agent/internal/model"
)

// RedisClient keeps metric metadata in a hash, the latest value of every
// metric under its own key with a TTL, and publishes each point on a channel.
type RedisClient struct {
	logger *zap.SugaredLogger
	origin Origin
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(addr, password string, db int, ttl time.Duration, tlsCfg *tls.Config, origin Origin, logger *zap.SugaredLogger) *RedisClient {
	return &RedisClient{
		logger: logger,
		origin: origin,
		client: redis.NewClient(&redis.Options{
			Addr:      addr,
			Password:  password,
			DB:        db,
			Protocol:  2,
			TLSConfig: tlsCfg,
		}),
		ttl: ttl,
	}
}

func MetadataKey(nodeID string) string {
	return "sysinfo:" + nodeID + ":metadata"
}

func LatestKey(metric string) string {
	return "sysinfo:latest:" + metric
}

func PointsChannel(nodeID string) string {
	return "sysinfo:" + nodeID + ":points"
}

func (c *RedisClient) Declare(ctx context.Context, decl model.Declarations) error {
	fields := make(map[string]any, len(decl))
	for name, meta := range decl {
		raw, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("encode metadata %s: %w", name, err)
		}
		fields[name] = raw
	}

	key := MetadataKey(c.origin.NodeID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(fields) > 0 {
			pipe.HSet(ctx, key, fields)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store metadata: %w", err)
	}
	c.logger.Debugw("redis metadata stored", "key", key, "metrics", len(decl))
	return nil
}

func (c *RedisClient) Send(ctx context.Context, p model.Point) error {
	payload, err := EncodeEnvelope(PointEnvelope(c.origin, p))
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	_, err = c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, LatestKey(p.Metric), payload, c.ttl)
		pipe.Publish(ctx, PointsChannel(c.origin.NodeID), payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store point %s: %w", p.Metric, err)
	}
	return nil
}

func (c *RedisClient) Close(_ context.Context) error {
	return c.client.Close()
}
