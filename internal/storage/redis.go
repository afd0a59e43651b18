package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SmitUplenchwar2687/macrokit/internal/event"
)

const (
	defaultRedisPoolSize    = 10
	defaultRedisMaxRetries  = 3
	defaultRedisDialTimeout = 5 * time.Second

	redisRecordingPrefix = "macrokit:rec:"
	redisIndexKey        = "macrokit:recs"
)

// RedisStore shares recordings between machines. Each recording is a string
// key holding the JSON array; a sorted set scored by save time indexes the
// names.
type RedisStore struct {
	client redis.UniversalClient
	logger *slog.Logger
	now    func() time.Time

	closeOnce sync.Once
	closeErr  error
}

// NewRedisStore connects and pings the server, retrying with backoff.
func NewRedisStore(cfg *RedisConfig, logger *slog.Logger) (*RedisStore, error) {
	conf, err := normalizeRedisConfig(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &RedisStore{
		client: newRedisClient(conf),
		logger: logger.With("component", "storage", "backend", BackendRedis),
		now:    time.Now,
	}

	if err := s.pingWithRetry(context.Background(), conf.MaxRetries); err != nil {
		_ = s.client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return s, nil
}

func (s *RedisStore) Save(ctx context.Context, name string, log event.Log) error {
	name, err := CleanName(name)
	if err != nil {
		return err
	}
	data, err := event.Marshal(log)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}

	// Plain pipeline rather than MULTI: the two keys may live on different
	// cluster slots.
	_, err = s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, redisRecordingPrefix+name, data, 0)
		p.ZAdd(ctx, redisIndexKey, redis.Z{Score: float64(s.now().UnixMilli()), Member: name})
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving %s: %w", name, err)
	}
	s.logger.Info("recording saved", "name", name, "events", len(log))
	return nil
}

func (s *RedisStore) Load(ctx context.Context, name string) (event.Log, error) {
	clean, err := CleanName(name)
	if err != nil {
		return nil, &LoadError{Name: name, Err: err}
	}
	data, err := s.client.Get(ctx, redisRecordingPrefix+clean).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, &LoadError{Name: clean, Err: ErrNotFound}
	}
	if err != nil {
		return nil, &LoadError{Name: clean, Err: err}
	}
	log, err := event.Unmarshal(data)
	if err != nil {
		return nil, &LoadError{Name: clean, Err: err}
	}
	return log, nil
}

func (s *RedisStore) List(ctx context.Context) ([]Info, error) {
	members, err := s.client.ZRangeWithScores(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing recordings: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	sizes := make([]*redis.IntCmd, len(members))
	_, err = s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, m := range members {
			sizes[i] = p.StrLen(ctx, redisRecordingPrefix+fmt.Sprint(m.Member))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing recordings: %w", err)
	}

	out := make([]Info, 0, len(members))
	for i, m := range members {
		out = append(out, Info{
			Name:     fmt.Sprint(m.Member),
			Size:     sizes[i].Val(),
			Modified: time.UnixMilli(int64(m.Score)),
		})
	}
	sortInfos(out)
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, name string) error {
	name, err := CleanName(name)
	if err != nil {
		return err
	}
	n, err := s.client.Del(ctx, redisRecordingPrefix+name).Result()
	if err != nil {
		return fmt.Errorf("deleting %s: %w", name, err)
	}
	if err := s.client.ZRem(ctx, redisIndexKey, name).Err(); err != nil {
		return fmt.Errorf("deleting %s from index: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	s.logger.Info("recording deleted", "name", name)
	return nil
}

// Close releases Redis resources. It is idempotent.
func (s *RedisStore) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.client.Close()
	})
	return s.closeErr
}

func (s *RedisStore) pingWithRetry(ctx context.Context, maxRetries int) error {
	attempts := max(maxRetries+1, 1)

	backoff := 100 * time.Millisecond
	var lastErr error
	for i := 0; i < attempts; i++ {
		if lastErr = s.client.Ping(ctx).Err(); lastErr == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		s.logger.Debug("redis ping failed, retrying", "attempt", i+1, "backoff", backoff, "error", lastErr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return lastErr
}

func normalizeRedisConfig(cfg *RedisConfig) (*RedisConfig, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config is required")
	}

	conf := *cfg
	if conf.PoolSize <= 0 {
		conf.PoolSize = defaultRedisPoolSize
	}
	if conf.MaxRetries <= 0 {
		conf.MaxRetries = defaultRedisMaxRetries
	}
	if conf.DialTimeout <= 0 {
		conf.DialTimeout = defaultRedisDialTimeout
	}

	if conf.Cluster {
		if len(conf.ClusterNodes) == 0 {
			return nil, fmt.Errorf("cluster_nodes is required when cluster=true")
		}
	} else {
		if conf.Host == "" {
			return nil, fmt.Errorf("host is required when cluster=false")
		}
		if conf.Port <= 0 {
			return nil, fmt.Errorf("port must be positive when cluster=false, got %d", conf.Port)
		}
	}
	return &conf, nil
}

func newRedisClient(cfg *RedisConfig) redis.UniversalClient {
	if cfg.Cluster {
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:       cfg.ClusterNodes,
			Password:    cfg.Password,
			PoolSize:    cfg.PoolSize,
			MaxRetries:  cfg.MaxRetries,
			DialTimeout: cfg.DialTimeout,
		})
	}
	return redis.NewClient(&redis.Options{
		Addr:        cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: cfg.DialTimeout,
	})
}
