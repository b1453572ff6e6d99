package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/webfutureiorepo/supabase/internal/domain/incidents"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/caching/interfaces"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
)

// DefaultIncidentKey is the redis key holding the incident list.
const DefaultIncidentKey = "edge:incident-status"

// RedisIncidentStore shares the incident list between edge instances. Expiry
// is left to redis.
type RedisIncidentStore struct {
	client *redis.Client
	key    string
	logger *logging.ChanneledLogger
}

var _ interfaces.IncidentStore = (*RedisIncidentStore)(nil)

// NewRedisIncidentStore connects to the redis server named by a redis:// url.
func NewRedisIncidentStore(redisURL string, logger *logging.ChanneledLogger) (*RedisIncidentStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if logger != nil {
		logger.Cache().Info("Initializing incident cache store", "backend", "redis", "addr", opts.Addr)
	}
	return NewRedisIncidentStoreWithClient(redis.NewClient(opts), DefaultIncidentKey, logger), nil
}

func NewRedisIncidentStoreWithClient(client *redis.Client, key string, logger *logging.ChanneledLogger) *RedisIncidentStore {
	return &RedisIncidentStore{client: client, key: key, logger: logger}
}

func (s *RedisIncidentStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// GetIncidents reports a miss on any redis failure so callers fall back to
// the upstream API.
func (s *RedisIncidentStore) GetIncidents(ctx context.Context) ([]incidents.IncidentInfo, bool) {
	start := time.Now()
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) && s.logger != nil {
			s.logger.Cache().Warn("Redis incident lookup failed", "error", err.Error())
		}
		if s.logger != nil {
			s.logger.LogCacheOperation("get", s.key, false, time.Since(start))
		}
		return nil, false
	}

	var list []incidents.IncidentInfo
	if err := json.Unmarshal(data, &list); err != nil {
		if s.logger != nil {
			s.logger.Cache().Warn("Discarding malformed cached incidents", "error", err.Error())
		}
		return nil, false
	}

	if s.logger != nil {
		s.logger.LogCacheOperation("get", s.key, true, time.Since(start))
	}
	return list, true
}

func (s *RedisIncidentStore) SetIncidents(ctx context.Context, list []incidents.IncidentInfo, ttl time.Duration) {
	if list == nil {
		list = []incidents.IncidentInfo{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		if s.logger != nil {
			s.logger.Cache().Error("Failed to encode incidents for redis", "error", err.Error())
		}
		return
	}
	if err := s.client.Set(ctx, s.key, data, ttl).Err(); err != nil && s.logger != nil {
		s.logger.Cache().Warn("Redis incident write failed", "error", err.Error())
	}
}

func (s *RedisIncidentStore) InvalidateIncidents(ctx context.Context) {
	if err := s.client.Del(ctx, s.key).Err(); err != nil && s.logger != nil {
		s.logger.Cache().Warn("Redis incident invalidation failed", "error", err.Error())
	}
}

func (s *RedisIncidentStore) Close() error {
	return s.client.Close()
}
