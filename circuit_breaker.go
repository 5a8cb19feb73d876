package memberdraw

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerSettingsStore 带熔断器的设置存储. Once the store keeps failing, calls are
// rejected at once so the setup screen does not wait on a dead Redis.
type BreakerSettingsStore struct {
	store SettingsStore

	breaker *gobreaker.CircuitBreaker
	logger  Logger
	config  *CircuitBreakerConfig
}

// NewBreakerSettingsStore 创建带熔断器的设置存储
func NewBreakerSettingsStore(store SettingsStore, config *CircuitBreakerConfig, logger Logger) *BreakerSettingsStore {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}
	b := &BreakerSettingsStore{
		store:  store,
		logger: logger,
		config: config,
	}
	if config.Enabled {
		b.breaker = gobreaker.NewCircuitBreaker(b.settings())
	}
	return b
}

func (b *BreakerSettingsStore) settings() gobreaker.Settings {
	config := b.config
	return gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// 当请求数达到最小要求且失败率超过阈值时触发熔断
			return counts.Requests >= config.MinRequests &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= config.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if config.OnStateChange && b.logger != nil {
				b.logger.Info("Circuit breaker '%s' state changed from %s to %s", name, from, to)
			}
		},
		// Invalid stored data is not a sign of an unhealthy store
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrSerializationFailed)
		},
	}
}

// executeWithBreaker 使用熔断器执行操作
func (b *BreakerSettingsStore) executeWithBreaker(operation string, fn func() (any, error)) (any, error) {
	if b.breaker == nil {
		// 熔断器未启用，直接执行
		return fn()
	}

	result, err := b.breaker.Execute(fn)
	if err != nil {
		// 检查是否是熔断器错误
		if errors.Is(err, gobreaker.ErrOpenState) {
			return nil, newError(ErrCircuitBreakerOpen, operation, "circuit breaker is open, requests are being rejected").WithCause(err)
		}
		if errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, newError(ErrCircuitBreakerOpen, operation, "too many requests, circuit breaker is half-open").WithCause(err)
		}
	}

	return result, err
}

// SaveLastMax remembers the last maximum member number that was submitted
func (b *BreakerSettingsStore) SaveLastMax(ctx context.Context, max int) error {
	_, err := b.executeWithBreaker("SaveLastMax", func() (any, error) {
		return nil, b.store.SaveLastMax(ctx, max)
	})
	return err
}

type lastMaxResult struct {
	max   int
	found bool
}

// LoadLastMax returns the remembered maximum
func (b *BreakerSettingsStore) LoadLastMax(ctx context.Context) (int, bool, error) {
	result, err := b.executeWithBreaker("LoadLastMax", func() (any, error) {
		max, found, err := b.store.LoadLastMax(ctx)
		return lastMaxResult{max: max, found: found}, err
	})
	if err != nil {
		return 0, false, err
	}
	r := result.(lastMaxResult)
	return r.max, r.found, nil
}

// LoadBlacklist returns the shared exclusion list
func (b *BreakerSettingsStore) LoadBlacklist(ctx context.Context) ([]int, error) {
	result, err := b.executeWithBreaker("LoadBlacklist", func() (any, error) {
		return b.store.LoadBlacklist(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]int), nil
}

// AddToBlacklist adds numbers to the shared exclusion list
func (b *BreakerSettingsStore) AddToBlacklist(ctx context.Context, numbers ...int) error {
	_, err := b.executeWithBreaker("AddToBlacklist", func() (any, error) {
		return nil, b.store.AddToBlacklist(ctx, numbers...)
	})
	return err
}

// GetCircuitBreakerState 获取熔断器状态
func (b *BreakerSettingsStore) GetCircuitBreakerState() string {
	if b.breaker == nil {
		return "disabled"
	}

	switch b.breaker.State() {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// GetCircuitBreakerCounts 获取熔断器统计信息
func (b *BreakerSettingsStore) GetCircuitBreakerCounts() gobreaker.Counts {
	if b.breaker == nil {
		return gobreaker.Counts{}
	}

	return b.breaker.Counts()
}

// ResetCircuitBreaker 重置熔断器 (重新创建熔断器实例)
func (b *BreakerSettingsStore) ResetCircuitBreaker() {
	if b.breaker == nil {
		return
	}
	// gobreaker 没有 Reset 方法，我们重新创建一个实例
	b.breaker = gobreaker.NewCircuitBreaker(b.settings())
	if b.logger != nil {
		b.logger.Info("Circuit breaker '%s' has been reset (recreated)", b.config.Name)
	}
}

// CircuitBreakerHealthCheck 熔断器健康检查
type CircuitBreakerHealthCheck struct {
	store *BreakerSettingsStore
}

// NewCircuitBreakerHealthCheck 创建熔断器健康检查
func NewCircuitBreakerHealthCheck(store *BreakerSettingsStore) *CircuitBreakerHealthCheck {
	return &CircuitBreakerHealthCheck{store: store}
}

// Check 执行健康检查
func (h *CircuitBreakerHealthCheck) Check() map[string]any {
	result := map[string]any{
		"circuit_breaker_enabled": h.store.config.Enabled,
		"timestamp":               time.Now().Unix(),
	}

	if h.store.breaker == nil {
		result["state"] = "disabled"
		result["healthy"] = true
		return result
	}

	state := h.store.GetCircuitBreakerState()
	counts := h.store.GetCircuitBreakerCounts()

	result["state"] = state
	result["requests"] = counts.Requests
	result["total_successes"] = counts.TotalSuccesses
	result["total_failures"] = counts.TotalFailures
	result["consecutive_failures"] = counts.ConsecutiveFailures

	// 计算成功率
	if counts.Requests > 0 {
		result["failure_rate"] = float64(counts.TotalFailures) / float64(counts.Requests)
	} else {
		result["failure_rate"] = 0.0
	}

	// 健康状态判断
	healthy := true
	switch state {
	case "open":
		healthy = false
	case "half-open":
		// 半开状态下，如果连续失败次数过多，认为不健康
		if counts.ConsecutiveFailures > 2 {
			healthy = false
		}
	}
	result["healthy"] = healthy

	return result
}
