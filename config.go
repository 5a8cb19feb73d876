package memberdraw

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
)

// Config 生产环境配置结构
type Config struct {
	// 抽号配置
	Draw *DrawConfig `mapstructure:"draw"`

	// 滚动动画配置
	Animation *AnimationConfig `mapstructure:"animation"`

	// Redis 配置
	Redis *RedisConfig `mapstructure:"redis"`

	// 熔断器配置
	CircuitBreaker *CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// Validate validates every section of the configuration
func (c *Config) Validate() error {
	if c.Draw == nil || c.Animation == nil || c.Redis == nil || c.CircuitBreaker == nil {
		return newError(ErrConfigInvalid, "Config.Validate", "missing configuration section")
	}

	// 验证抽号配置
	d := c.Draw
	if d.MinMember < 0 {
		return configError("draw.min_member cannot be negative, got %d", d.MinMember)
	}
	if d.DefaultMaxMember < d.MinMember || d.DefaultMaxMember > MaxPoolSize {
		return configError("draw.default_max_member must be between %d and %d, got %d", d.MinMember, MaxPoolSize, d.DefaultMaxMember)
	}
	if d.RecentCap < 1 || d.RecentCap > MaxRecentCap {
		return configError("draw.recent_cap must be between 1 and %d, got %d", MaxRecentCap, d.RecentCap)
	}
	if d.PadWidth < 1 || d.PadWidth > MaxPadWidth {
		return configError("draw.pad_width must be between 1 and %d, got %d", MaxPadWidth, d.PadWidth)
	}

	// 验证动画配置
	layout, err := c.Animation.Layout()
	if err != nil {
		return newError(ErrConfigInvalid, "Config.Validate", "animation layout").WithCause(err)
	}
	if err := validateTuningFor(layout, c.Animation.Tuning()); err != nil {
		return newError(ErrConfigInvalid, "Config.Validate", "animation tuning").WithCause(err)
	}

	// 验证 Redis 配置
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return configError("redis address is required")
		}
		if c.Redis.PoolSize <= 0 {
			return configError("redis pool size must be positive")
		}
		if c.Redis.RetryAttempts < 0 || c.Redis.RetryAttempts > MaxRetryAttempts {
			return configError("redis.retry_attempts must be between 0 and %d, got %d", MaxRetryAttempts, c.Redis.RetryAttempts)
		}
		if c.Redis.RetryInterval < 0 {
			return configError("redis.retry_interval cannot be negative")
		}
	}

	// 验证熔断器配置
	if c.CircuitBreaker.Enabled {
		if c.CircuitBreaker.FailureRatio <= 0 || c.CircuitBreaker.FailureRatio > 1 {
			return configError("circuit_breaker.failure_ratio must be in (0, 1], got %v", c.CircuitBreaker.FailureRatio)
		}
		if c.CircuitBreaker.Timeout <= 0 {
			return configError("circuit_breaker.timeout must be positive")
		}
	}

	return nil
}

func configError(format string, args ...any) *RaffleError {
	return newError(ErrConfigInvalid, "Config.Validate", fmt.Sprintf(format, args...))
}

// DrawConfig 抽号配置
type DrawConfig struct {
	MinMember        int    `mapstructure:"min_member"`
	DefaultMaxMember int    `mapstructure:"default_max_member"`
	RecentCap        int    `mapstructure:"recent_cap"`
	PadWidth         int    `mapstructure:"pad_width"`
	BlacklistFile    string `mapstructure:"blacklist_file"`
}

// DefaultDrawConfig 返回默认抽号配置
func DefaultDrawConfig() *DrawConfig {
	return &DrawConfig{
		MinMember:        DefaultMinMember,
		DefaultMaxMember: DefaultMaxMember,
		RecentCap:        DefaultRecentCap,
		PadWidth:         DefaultPadWidth,
		BlacklistFile:    DefaultBlacklistFile,
	}
}

// AnimationConfig 滚动动画配置. The slot layout is derived from CanvasWidth unless SlotWidth is set.
type AnimationConfig struct {
	Slots       int     `mapstructure:"slots"`
	CanvasWidth float64 `mapstructure:"canvas_width"`
	SlotWidth   float64 `mapstructure:"slot_width"`
	Padding     float64 `mapstructure:"padding"`
	Pointer     float64 `mapstructure:"pointer"`

	InitialSpeed  float64       `mapstructure:"initial_speed"`
	DecayRate     float64       `mapstructure:"decay_rate"`
	FloorOffset   float64       `mapstructure:"floor_offset"`
	IdleSpeed     float64       `mapstructure:"idle_speed"`
	JoinerStep    float64       `mapstructure:"joiner_step"`
	FrameInterval time.Duration `mapstructure:"frame_interval"`
	MinFrameDelay time.Duration `mapstructure:"min_frame_delay"`

	Attract bool `mapstructure:"attract"`
}

// DefaultAnimationConfig 返回默认动画配置
func DefaultAnimationConfig() *AnimationConfig {
	return &AnimationConfig{
		Slots:         DefaultSlots,
		CanvasWidth:   DefaultCanvasWidth,
		InitialSpeed:  DefaultInitialSpeed,
		DecayRate:     DefaultDecayRate,
		FloorOffset:   DefaultFloorOffset,
		IdleSpeed:     DefaultIdleSpeed,
		JoinerStep:    DefaultJoinerStep,
		FrameInterval: DefaultFrameInterval,
		MinFrameDelay: DefaultMinFrameDelay,
		Attract:       DefaultAttract,
	}
}

// Layout returns the explicit layout when a slot width is configured, the canvas layout otherwise
func (a *AnimationConfig) Layout() (Layout, error) {
	if a.SlotWidth > 0 {
		layout := Layout{
			Slots:     a.Slots,
			SlotWidth: a.SlotWidth,
			Padding:   a.Padding,
			Pointer:   a.Pointer,
		}
		return layout, layout.Validate()
	}
	return LayoutForCanvas(a.CanvasWidth, a.Slots)
}

// Tuning returns the motion constants
func (a *AnimationConfig) Tuning() Tuning {
	return Tuning{
		InitialSpeed:  a.InitialSpeed,
		DecayRate:     a.DecayRate,
		FloorOffset:   a.FloorOffset,
		IdleSpeed:     a.IdleSpeed,
		JoinerStep:    a.JoinerStep,
		FrameInterval: a.FrameInterval,
		MinFrameDelay: a.MinFrameDelay,
	}
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// 连接配置
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// 连接池配置
	PoolSize     int `mapstructure:"pool_size"`
	MinIdleConns int `mapstructure:"min_idle_conns"`
	MaxRetries   int `mapstructure:"max_retries"`

	// 超时配置
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`

	// 存储配置
	KeyPrefix     string        `mapstructure:"key_prefix"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
}

// DefaultRedisConfig 返回默认的Redis配置
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Enabled:       DefaultRedisEnabled,
		Addr:          DefaultRedisAddr,
		Password:      DefaultRedisPassword,
		DB:            DefaultRedisDB,
		PoolSize:      DefaultRedisPoolSize,
		MinIdleConns:  DefaultRedisMinIdleConns,
		MaxRetries:    DefaultRedisMaxRetries,
		DialTimeout:   DefaultRedisDialTimeout,
		ReadTimeout:   DefaultRedisReadTimeout,
		WriteTimeout:  DefaultRedisWriteTimeout,
		PoolTimeout:   DefaultRedisPoolTimeout,
		KeyPrefix:     DefaultRedisKeyPrefix,
		RetryAttempts: DefaultRetryAttempts,
		RetryInterval: DefaultRetryInterval,
	}
}

// CircuitBreakerConfig 熔断器配置
type CircuitBreakerConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Name          string        `mapstructure:"name"`
	MaxRequests   uint32        `mapstructure:"max_requests"`
	Interval      time.Duration `mapstructure:"interval"`
	Timeout       time.Duration `mapstructure:"timeout"`
	FailureRatio  float64       `mapstructure:"failure_ratio"`
	MinRequests   uint32        `mapstructure:"min_requests"`
	OnStateChange bool          `mapstructure:"on_state_change"`
}

// DefaultCircuitBreakerConfig 返回默认熔断器配置
func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		Enabled:       true,
		Name:          DefaultCircuitBreakerName,
		MaxRequests:   DefaultCircuitBreakerMaxRequests,
		Interval:      DefaultCircuitBreakerInterval,
		Timeout:       DefaultCircuitBreakerTimeout,
		FailureRatio:  DefaultCircuitBreakerFailureRatio,
		MinRequests:   DefaultCircuitBreakerMinRequests,
		OnStateChange: DefaultCircuitBreakerOnStateChange,
	}
}

// DefaultConfig 返回完整的默认配置
func DefaultConfig() *Config {
	return &Config{
		Draw:           DefaultDrawConfig(),
		Animation:      DefaultAnimationConfig(),
		Redis:          DefaultRedisConfig(),
		CircuitBreaker: DefaultCircuitBreakerConfig(),
	}
}

// ================================================================================

// ConfigManager 配置管理器
type ConfigManager struct {
	viper  *viper.Viper
	file   string
	logger Logger

	mu     sync.RWMutex
	config *Config
}

// NewConfigManager 创建配置管理器
func NewConfigManager() *ConfigManager {
	v := viper.New()

	// 设置配置文件名和路径
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/memberdraw")
	v.AddConfigPath("$HOME/.memberdraw")

	// 设置环境变量前缀
	v.SetEnvPrefix("MEMBERDRAW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &ConfigManager{
		viper:  v,
		logger: &DefaultLogger{},
	}
}

// NewConfigManagerWithFile 创建读取指定配置文件的配置管理器
func NewConfigManagerWithFile(path string) *ConfigManager {
	cm := NewConfigManager()
	cm.file = path
	cm.viper.SetConfigFile(path)
	return cm
}

// SetLogger sets the logger used to report rejected reloads
func (cm *ConfigManager) SetLogger(logger Logger) {
	if logger != nil {
		cm.logger = logger
	}
}

// LoadConfig 加载配置
func (cm *ConfigManager) LoadConfig() (*Config, error) {
	// 设置默认值
	cm.setDefaults()

	// 指定的配置文件必须存在
	if cm.file != "" {
		if _, err := os.Stat(cm.file); err != nil {
			return nil, newError(ErrConfigInvalid, "LoadConfig", "config file "+cm.file).WithCause(err)
		}
	}

	// 读取配置文件
	if err := cm.viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, newError(ErrConfigInvalid, "LoadConfig", "failed to read config file").WithCause(err)
		}
		// 配置文件不存在时使用默认配置
	}

	config, err := cm.decode()
	if err != nil {
		return nil, err
	}

	cm.setConfig(config)
	return config, nil
}

func (cm *ConfigManager) setConfig(config *Config) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.config = config
}

func (cm *ConfigManager) decode() (*Config, error) {
	config := &Config{}
	if err := cm.viper.Unmarshal(config); err != nil {
		return nil, newError(ErrConfigInvalid, "LoadConfig", "failed to unmarshal config").WithCause(err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// setDefaults 设置默认配置值
func (cm *ConfigManager) setDefaults() {
	// 抽号默认配置
	cm.viper.SetDefault("draw.min_member", DefaultMinMember)
	cm.viper.SetDefault("draw.default_max_member", DefaultMaxMember)
	cm.viper.SetDefault("draw.recent_cap", DefaultRecentCap)
	cm.viper.SetDefault("draw.pad_width", DefaultPadWidth)
	cm.viper.SetDefault("draw.blacklist_file", DefaultBlacklistFile)

	// 动画默认配置
	cm.viper.SetDefault("animation.slots", DefaultSlots)
	cm.viper.SetDefault("animation.canvas_width", DefaultCanvasWidth)
	cm.viper.SetDefault("animation.slot_width", 0)
	cm.viper.SetDefault("animation.padding", 0)
	cm.viper.SetDefault("animation.pointer", 0)
	cm.viper.SetDefault("animation.initial_speed", DefaultInitialSpeed)
	cm.viper.SetDefault("animation.decay_rate", DefaultDecayRate)
	cm.viper.SetDefault("animation.floor_offset", DefaultFloorOffset)
	cm.viper.SetDefault("animation.idle_speed", DefaultIdleSpeed)
	cm.viper.SetDefault("animation.joiner_step", DefaultJoinerStep)
	cm.viper.SetDefault("animation.frame_interval", "16ms")
	cm.viper.SetDefault("animation.min_frame_delay", "1ms")
	cm.viper.SetDefault("animation.attract", DefaultAttract)

	// Redis 默认配置
	cm.viper.SetDefault("redis.enabled", DefaultRedisEnabled)
	cm.viper.SetDefault("redis.addr", DefaultRedisAddr)
	cm.viper.SetDefault("redis.password", DefaultRedisPassword)
	cm.viper.SetDefault("redis.db", DefaultRedisDB)
	cm.viper.SetDefault("redis.pool_size", DefaultRedisPoolSize)
	cm.viper.SetDefault("redis.min_idle_conns", DefaultRedisMinIdleConns)
	cm.viper.SetDefault("redis.max_retries", DefaultRedisMaxRetries)
	cm.viper.SetDefault("redis.dial_timeout", "2s")
	cm.viper.SetDefault("redis.read_timeout", "1s")
	cm.viper.SetDefault("redis.write_timeout", "1s")
	cm.viper.SetDefault("redis.pool_timeout", "2s")
	cm.viper.SetDefault("redis.key_prefix", DefaultRedisKeyPrefix)
	cm.viper.SetDefault("redis.retry_attempts", DefaultRetryAttempts)
	cm.viper.SetDefault("redis.retry_interval", "100ms")

	// 熔断器默认配置
	cm.viper.SetDefault("circuit_breaker.enabled", true)
	cm.viper.SetDefault("circuit_breaker.name", DefaultCircuitBreakerName)
	cm.viper.SetDefault("circuit_breaker.max_requests", DefaultCircuitBreakerMaxRequests)
	cm.viper.SetDefault("circuit_breaker.interval", "60s")
	cm.viper.SetDefault("circuit_breaker.timeout", "30s")
	cm.viper.SetDefault("circuit_breaker.failure_ratio", DefaultCircuitBreakerFailureRatio)
	cm.viper.SetDefault("circuit_breaker.min_requests", DefaultCircuitBreakerMinRequests)
	cm.viper.SetDefault("circuit_breaker.on_state_change", DefaultCircuitBreakerOnStateChange)
}

// WatchConfig 监听配置变化. Invalid edits are logged and the previous configuration stays in effect.
func (cm *ConfigManager) WatchConfig(callback func(*Config)) error {
	if cm.viper.ConfigFileUsed() == "" {
		return newError(ErrConfigInvalid, "WatchConfig", "no config file to watch")
	}

	cm.viper.OnConfigChange(func(e fsnotify.Event) {
		config, err := cm.decode()
		if err != nil {
			// 记录错误但不中断服务
			cm.logger.Error("Config reload from %s rejected: %v", e.Name, err)
			return
		}

		cm.setConfig(config)
		cm.logger.Info("Config reloaded from %s (%s)", e.Name, e.Op)
		if callback != nil {
			callback(config)
		}
	})
	cm.viper.WatchConfig()

	return nil
}

// GetConfig 获取当前配置
func (cm *ConfigManager) GetConfig() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return cm.config
}

// ReloadConfig 重新加载配置
func (cm *ConfigManager) ReloadConfig() (*Config, error) { return cm.LoadConfig() }

// NewDefaultConfigManager 创建使用默认配置的配置管理器
func NewDefaultConfigManager() *ConfigManager {
	cm := NewConfigManager()
	cm.setDefaults()
	cm.setConfig(DefaultConfig())
	return cm
}

// NewRedisClientFromConfig 从配置创建Redis客户端
func NewRedisClientFromConfig(config *RedisConfig) *redis.Client {
	if config == nil {
		config = DefaultRedisConfig()
	}

	return redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		PoolTimeout:  config.PoolTimeout,
	})
}
