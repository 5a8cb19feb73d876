package memberdraw

import (
	"sync"
	"sync/atomic"
	"time"
)

// AnimationMetrics 动画与抽号指标
type AnimationMetrics struct {
	// 帧统计
	Ticks            int64 `json:"ticks"`             // 执行的帧数
	TotalTickTime    int64 `json:"total_tick_time"`   // 帧处理总时间(纳秒)
	AverageTickTime  int64 `json:"average_tick_time"` // 平均帧处理时间(纳秒)
	MaxTickTime      int64 `json:"max_tick_time"`     // 最长帧处理时间(纳秒)
	JoinerTicks      int64 `json:"joiner_ticks"`      // 对齐补帧次数
	DecelerationRuns int64 `json:"deceleration_runs"` // 开始减速次数
	Landings         int64 `json:"landings"`          // 成功落点次数

	// 号码池统计
	Draws      int64 `json:"draws"`       // DrawNext 调用次数
	PoolResets int64 `json:"pool_resets"` // 号码池重置次数

	// 错误统计
	Errors int64 `json:"errors"`

	// 时间戳
	StartTime      int64 `json:"start_time"`
	LastUpdateTime int64 `json:"last_update_time"`
}

// GetAverageTickTime 获取平均帧处理时间
func (m *AnimationMetrics) GetAverageTickTime() time.Duration {
	return time.Duration(atomic.LoadInt64(&m.AverageTickTime))
}

// GetFrameRate returns ticks per second between the first and the last update
func (m *AnimationMetrics) GetFrameRate() float64 {
	startTime := atomic.LoadInt64(&m.StartTime)
	lastUpdate := atomic.LoadInt64(&m.LastUpdateTime)
	if startTime == 0 || lastUpdate <= startTime {
		return 0.0
	}

	duration := time.Duration(lastUpdate - startTime)
	return float64(atomic.LoadInt64(&m.Ticks)) / duration.Seconds()
}

// Reset 重置指标
func (m *AnimationMetrics) Reset() {
	atomic.StoreInt64(&m.Ticks, 0)
	atomic.StoreInt64(&m.TotalTickTime, 0)
	atomic.StoreInt64(&m.AverageTickTime, 0)
	atomic.StoreInt64(&m.MaxTickTime, 0)
	atomic.StoreInt64(&m.JoinerTicks, 0)
	atomic.StoreInt64(&m.DecelerationRuns, 0)
	atomic.StoreInt64(&m.Landings, 0)
	atomic.StoreInt64(&m.Draws, 0)
	atomic.StoreInt64(&m.PoolResets, 0)
	atomic.StoreInt64(&m.Errors, 0)
	atomic.StoreInt64(&m.StartTime, time.Now().UnixNano())
	atomic.StoreInt64(&m.LastUpdateTime, time.Now().UnixNano())
}

// ================================================================================

// AnimationMonitor 动画监控器
type AnimationMonitor struct {
	metrics *AnimationMetrics
	mu      sync.RWMutex
	enabled bool
}

// NewAnimationMonitor 创建新的动画监控器
func NewAnimationMonitor() *AnimationMonitor {
	am := &AnimationMonitor{
		metrics: &AnimationMetrics{},
		enabled: true,
	}
	am.metrics.Reset()
	return am
}

// Enable 启用监控
func (am *AnimationMonitor) Enable() {
	am.mu.Lock()
	defer am.mu.Unlock()

	am.enabled = true
}

// Disable 禁用监控
func (am *AnimationMonitor) Disable() {
	am.mu.Lock()
	defer am.mu.Unlock()

	am.enabled = false
}

// IsEnabled 检查是否启用了监控
func (am *AnimationMonitor) IsEnabled() bool {
	am.mu.RLock()
	defer am.mu.RUnlock()

	return am.enabled
}

func (am *AnimationMonitor) touch() {
	atomic.StoreInt64(&am.metrics.LastUpdateTime, time.Now().UnixNano())
}

// RecordTick 记录一帧
func (am *AnimationMonitor) RecordTick(processing time.Duration, joiner bool) {
	if !am.IsEnabled() {
		return
	}

	atomic.AddInt64(&am.metrics.Ticks, 1)
	atomic.AddInt64(&am.metrics.TotalTickTime, int64(processing))
	if joiner {
		atomic.AddInt64(&am.metrics.JoinerTicks, 1)
	}

	for {
		current := atomic.LoadInt64(&am.metrics.MaxTickTime)
		if int64(processing) <= current ||
			atomic.CompareAndSwapInt64(&am.metrics.MaxTickTime, current, int64(processing)) {
			break
		}
	}

	ticks := atomic.LoadInt64(&am.metrics.Ticks)
	total := atomic.LoadInt64(&am.metrics.TotalTickTime)
	atomic.StoreInt64(&am.metrics.AverageTickTime, total/ticks)

	am.touch()
}

// RecordDeceleration 记录开始减速
func (am *AnimationMonitor) RecordDeceleration() {
	if !am.IsEnabled() {
		return
	}

	atomic.AddInt64(&am.metrics.DecelerationRuns, 1)
	am.touch()
}

// RecordLanding 记录落点
func (am *AnimationMonitor) RecordLanding() {
	if !am.IsEnabled() {
		return
	}

	atomic.AddInt64(&am.metrics.Landings, 1)
	am.touch()
}

// RecordDraw 记录一次抽号
func (am *AnimationMonitor) RecordDraw() {
	if !am.IsEnabled() {
		return
	}

	atomic.AddInt64(&am.metrics.Draws, 1)
	am.touch()
}

// RecordPoolReset 记录号码池重置
func (am *AnimationMonitor) RecordPoolReset() {
	if !am.IsEnabled() {
		return
	}

	atomic.AddInt64(&am.metrics.PoolResets, 1)
	am.touch()
}

// RecordError 记录错误
func (am *AnimationMonitor) RecordError() {
	if !am.IsEnabled() {
		return
	}

	atomic.AddInt64(&am.metrics.Errors, 1)
	am.touch()
}

// GetMetrics 获取指标的副本
func (am *AnimationMonitor) GetMetrics() AnimationMetrics {
	return AnimationMetrics{
		Ticks:            atomic.LoadInt64(&am.metrics.Ticks),
		TotalTickTime:    atomic.LoadInt64(&am.metrics.TotalTickTime),
		AverageTickTime:  atomic.LoadInt64(&am.metrics.AverageTickTime),
		MaxTickTime:      atomic.LoadInt64(&am.metrics.MaxTickTime),
		JoinerTicks:      atomic.LoadInt64(&am.metrics.JoinerTicks),
		DecelerationRuns: atomic.LoadInt64(&am.metrics.DecelerationRuns),
		Landings:         atomic.LoadInt64(&am.metrics.Landings),
		Draws:            atomic.LoadInt64(&am.metrics.Draws),
		PoolResets:       atomic.LoadInt64(&am.metrics.PoolResets),
		Errors:           atomic.LoadInt64(&am.metrics.Errors),
		StartTime:        atomic.LoadInt64(&am.metrics.StartTime),
		LastUpdateTime:   atomic.LoadInt64(&am.metrics.LastUpdateTime),
	}
}

// ResetMetrics 重置指标
func (am *AnimationMonitor) ResetMetrics() { am.metrics.Reset() }
