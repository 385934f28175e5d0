// Package redis provides the external embedding-vector cache backend. It
// stores JSON-encoded vector lists under hashed chunk keys with a TTL, so a
// restarted service can reuse embeddings without re-calling the backend.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/careatlas/clauseguard/internal/config"
	"github.com/careatlas/clauseguard/internal/infrastructure/monitoring/logging"
	apperrors "github.com/careatlas/clauseguard/pkg/errors"
)

// VectorStore implements the semantic stage's VectorCache backend on Redis.
type VectorStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger logging.Logger
}

// NewVectorStore connects to Redis with the given settings. The connection
// is verified with a ping.
func NewVectorStore(ctx context.Context, cfg config.RedisConfig, logger logging.Logger) (*VectorStore, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCacheError, "redis ping failed")
	}

	logger.Info("connected to redis vector cache",
		logging.String("addr", cfg.Addr),
		logging.Duration("ttl", cfg.TTL),
	)

	return &VectorStore{
		client: client,
		prefix: cfg.KeyPrefix,
		ttl:    cfg.TTL,
		logger: logger,
	}, nil
}

// Get fetches cached vectors. A missing key is not an error.
func (s *VectorStore) Get(ctx context.Context, key string) ([][]float64, bool, error) {
	payload, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.ErrCodeCacheError, "redis get failed")
	}

	var vectors [][]float64
	if err := json.Unmarshal(payload, &vectors); err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "corrupt cached vectors")
	}
	return vectors, true, nil
}

// Set stores vectors under the key with the configured TTL.
func (s *VectorStore) Set(ctx context.Context, key string, vectors [][]float64) error {
	payload, err := json.Marshal(vectors)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "encode vectors")
	}
	if err := s.client.Set(ctx, s.prefix+key, payload, s.ttl).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "redis set failed")
	}
	return nil
}

// Ping reports backend health.
func (s *VectorStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *VectorStore) Close() error {
	return s.client.Close()
}
