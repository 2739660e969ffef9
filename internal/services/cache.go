package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/stitts-dev/dfs-lineup/internal/metrics"
)

var ErrCacheMiss = errors.New("key not found")

type CacheService struct {
	client   *redis.Client
	breakers *CircuitBreakerService
	log      *logrus.Entry
}

func NewCacheService(client *redis.Client, breakers *CircuitBreakerService, logger *logrus.Logger) *CacheService {
	return &CacheService{
		client:   client,
		breakers: breakers,
		log:      logger.WithField("component", "cache"),
	}
}

func (s *CacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	_, err = s.breakers.Execute(BreakerRedis, func() (interface{}, error) {
		return nil, s.client.Set(ctx, key, data, expiration).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

// Get decodes the cached value into dest, returning ErrCacheMiss when the key
// is absent.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	res, err := s.breakers.Execute(BreakerRedis, func() (interface{}, error) {
		data, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			// a miss is not a redis failure
			return nil, nil
		}
		return data, err
	})
	if err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to get cache: %w", err)
	}
	if res == nil {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return ErrCacheMiss
	}

	if err := json.Unmarshal(res.([]byte), dest); err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}

	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache: %w", err)
	}
	return nil
}

func (s *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check cache existence: %w", err)
	}
	return val > 0, nil
}

// SetWithRetry retries Set with a linear backoff. An open breaker ends the
// retries early.
func (s *CacheService) SetWithRetry(ctx context.Context, key string, value interface{}, expiration time.Duration, maxRetries int) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		if err = s.Set(ctx, key, value, expiration); err == nil {
			return nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || i == maxRetries-1 {
			break
		}
		s.log.Warnf("Cache set failed (attempt %d/%d): %v", i+1, maxRetries, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond * 100 * time.Duration(i+1)):
		}
	}
	return err
}

func (s *CacheService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Cache key generators
func OptimizationCacheKey(requestHash string) string {
	return fmt.Sprintf("optimization:%s", requestHash)
}

// RequestHash fingerprints a request by the SHA-256 of its JSON encoding.
func RequestHash(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to hash request: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
