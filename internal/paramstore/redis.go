package paramstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yourusername/clever-goals/internal/models"
)

// RedisConfig holds connection parameters for the Redis parameter cache.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// RedisStore shares the latest fit between processes.
//
// Key schema:
//
//	{prefix}:params          - JSON document of every league
//	{prefix}:params:{league} - JSON of one league
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects and pings Redis.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	return NewRedisStoreWithClient(rdb, cfg.KeyPrefix, cfg.TTL), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(rdb redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) allKey() string {
	if s.prefix == "" {
		return "params"
	}
	return s.prefix + ":params"
}

func (s *RedisStore) leagueKey(league string) string { return s.allKey() + ":" + league }

// Save stores the whole set plus one key per league in a single transaction.
func (s *RedisStore) Save(ctx context.Context, params map[string]*models.LeagueFitParameters) error {
	data, err := Encode(params)
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.allKey(), data, s.ttl)
	for _, league := range Leagues(params) {
		one, err := Encode(map[string]*models.LeagueFitParameters{league: params[league]})
		if err != nil {
			return err
		}
		pipe.Set(ctx, s.leagueKey(league), one, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: save params: %w", err)
	}
	return nil
}

// Load returns the whole set, or models.ErrNotFound.
func (s *RedisStore) Load(ctx context.Context) (map[string]*models.LeagueFitParameters, error) {
	return s.get(ctx, s.allKey())
}

func (s *RedisStore) get(ctx context.Context, key string) (map[string]*models.LeagueFitParameters, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", models.ErrNotFound, key)
		}
		return nil, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return Decode(data)
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
