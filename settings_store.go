package memberdraw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// lastMaxKey holds the JSON settingsRecord of the last submitted setup
	lastMaxKey = "last_max"

	// blacklistKey is a Redis set of excluded member numbers
	blacklistKey = "blacklist"

	// maxRetryDelay caps the exponential backoff between store attempts
	maxRetryDelay = 5 * time.Second
)

// settingsRecord is the value stored under lastMaxKey
type settingsRecord struct {
	LastMax int       `json:"last_max"`
	SavedAt time.Time `json:"saved_at"`
}

func (r *settingsRecord) Validate() error {
	if r.LastMax <= 0 || r.LastMax > MaxPoolSize {
		return newError(ErrSerializationFailed, "settingsRecord.Validate", fmt.Sprintf("last_max %d out of range", r.LastMax))
	}
	return nil
}

// RedisSettingsStore keeps the kiosk settings in Redis so several kiosks of one club share them
type RedisSettingsStore struct {
	redisClient    *redis.Client
	keyPrefix      string
	logger         Logger
	retryAttempts  int
	retryBaseDelay time.Duration
}

// NewRedisSettingsStore creates a store using the default key prefix and retry settings
func NewRedisSettingsStore(redisClient *redis.Client, logger Logger) *RedisSettingsStore {
	return NewRedisSettingsStoreWithRetry(redisClient, logger, DefaultRedisKeyPrefix, DefaultRetryAttempts, DefaultRetryInterval)
}

// NewRedisSettingsStoreWithRetry creates a store with a custom key prefix and retry settings
func NewRedisSettingsStoreWithRetry(
	redisClient *redis.Client, logger Logger, keyPrefix string, retryAttempts int, retryDelay time.Duration,
) *RedisSettingsStore {
	if logger == nil {
		logger = &DefaultLogger{}
	}
	return &RedisSettingsStore{
		redisClient:    redisClient,
		keyPrefix:      keyPrefix,
		logger:         logger,
		retryAttempts:  retryAttempts,
		retryBaseDelay: retryDelay,
	}
}

// NewRedisSettingsStoreFromConfig creates the client and the store described by config
func NewRedisSettingsStoreFromConfig(config *RedisConfig, logger Logger) *RedisSettingsStore {
	if config == nil {
		config = DefaultRedisConfig()
	}
	return NewRedisSettingsStoreWithRetry(NewRedisClientFromConfig(config), logger,
		config.KeyPrefix, config.RetryAttempts, config.RetryInterval)
}

func (s *RedisSettingsStore) key(name string) string { return s.keyPrefix + name }

// executeWithRetry executes a Redis operation with retry logic using exponential backoff
func (s *RedisSettingsStore) executeWithRetry(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	startTime := time.Now()

	for attempt := 0; attempt <= s.retryAttempts; attempt++ {
		if attempt > 0 {
			// baseDelay * 2^(attempt-1)
			delay := time.Duration(1<<(attempt-1)) * s.retryBaseDelay
			if delay > maxRetryDelay {
				delay = maxRetryDelay
			}

			s.logger.Debug("Retrying %s (attempt %d/%d) after %v, total elapsed: %v",
				operation, attempt, s.retryAttempts, delay, time.Since(startTime))

			select {
			case <-ctx.Done():
				return newError(ErrStoreUnavailable, operation,
					fmt.Sprintf("context cancelled after %v (attempt %d/%d)", time.Since(startTime), attempt, s.retryAttempts+1)).
					WithCause(ctx.Err())
			case <-time.After(delay):
			}
		}

		err := fn()
		if err == nil {
			if attempt > 0 {
				s.logger.Info("%s succeeded after %d retries (total time: %v)", operation, attempt, time.Since(startTime))
			}
			return nil
		}
		lastErr = err

		if !IsRetryableError(err) {
			s.logger.Debug("Non-retriable error for %s (attempt %d): %v", operation, attempt+1, err)
			break
		}
		if attempt == s.retryAttempts {
			s.logger.Error("Final attempt failed for %s (attempt %d/%d): %v", operation, attempt+1, s.retryAttempts+1, err)
		}
	}

	return newError(ErrStoreUnavailable, operation,
		fmt.Sprintf("%s failed after %v: %v", operation, time.Since(startTime), lastErr)).WithCause(lastErr)
}

// SaveLastMax remembers the last maximum member number that was submitted
func (s *RedisSettingsStore) SaveLastMax(ctx context.Context, max int) error {
	record := &settingsRecord{LastMax: max, SavedAt: time.Now().UTC()}
	if err := record.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return newError(ErrSerializationFailed, "SaveLastMax", "").WithCause(err)
	}

	key := s.key(lastMaxKey)
	err = s.executeWithRetry(ctx, "SaveLastMax", func() error {
		return s.redisClient.Set(ctx, key, data, 0).Err()
	})
	if err != nil {
		return err
	}

	s.logger.Debug("Saved last max: key=%s, max=%d", key, max)
	return nil
}

// LoadLastMax returns the remembered maximum. A missing key is not an error.
func (s *RedisSettingsStore) LoadLastMax(ctx context.Context) (int, bool, error) {
	key := s.key(lastMaxKey)

	var data []byte
	err := s.executeWithRetry(ctx, "LoadLastMax", func() error {
		var err error
		data, err = s.redisClient.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			// Key doesn't exist - this is not an error condition, don't retry
			data = nil
			return nil
		}
		return err
	})
	if err != nil {
		return 0, false, err
	}
	if len(data) == 0 {
		s.logger.Debug("No saved last max: key=%s", key)
		return 0, false, nil
	}

	var record settingsRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return 0, false, newError(ErrSerializationFailed, "LoadLastMax", "key "+key).WithCause(err)
	}
	if err := record.Validate(); err != nil {
		return 0, false, err
	}
	return record.LastMax, true, nil
}

// LoadBlacklist returns the shared exclusion list in ascending order. Members that are not numbers are skipped.
func (s *RedisSettingsStore) LoadBlacklist(ctx context.Context) ([]int, error) {
	key := s.key(blacklistKey)

	var members []string
	err := s.executeWithRetry(ctx, "LoadBlacklist", func() error {
		var err error
		members, err = s.redisClient.SMembers(ctx, key).Result()
		return err
	})
	if err != nil {
		return nil, err
	}

	numbers := make([]int, 0, len(members))
	for _, m := range members {
		n, err := strconv.Atoi(m)
		if err != nil {
			s.logger.Error("Skipping blacklist member %q in %s: %v", m, key, err)
			continue
		}
		numbers = append(numbers, n)
	}
	slices.Sort(numbers)
	return numbers, nil
}

// AddToBlacklist adds numbers to the shared exclusion list
func (s *RedisSettingsStore) AddToBlacklist(ctx context.Context, numbers ...int) error {
	if len(numbers) == 0 {
		return nil
	}
	members := make([]any, len(numbers))
	for i, n := range numbers {
		members[i] = strconv.Itoa(n)
	}

	key := s.key(blacklistKey)
	var added int64
	err := s.executeWithRetry(ctx, "AddToBlacklist", func() error {
		var err error
		added, err = s.redisClient.SAdd(ctx, key, members...).Result()
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("Blacklist updated: key=%s, submitted=%d, added=%d", key, len(numbers), added)
	return nil
}

// ClearBlacklist removes the shared exclusion list
func (s *RedisSettingsStore) ClearBlacklist(ctx context.Context) error {
	key := s.key(blacklistKey)
	return s.executeWithRetry(ctx, "ClearBlacklist", func() error {
		return s.redisClient.Del(ctx, key).Err()
	})
}

// Ping checks the connection
func (s *RedisSettingsStore) Ping(ctx context.Context) error {
	return s.executeWithRetry(ctx, "Ping", func() error {
		return s.redisClient.Ping(ctx).Err()
	})
}

// Close closes the underlying client
func (s *RedisSettingsStore) Close() error { return s.redisClient.Close() }
