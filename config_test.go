package memberdraw

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConfigManager_LoadConfig(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		env         map[string]string
		expectError bool
		validate    func(*testing.T, *Config)
	}{
		{
			name: "defaults",
			yaml: "",
			validate: func(t *testing.T, config *Config) {
				assert.Equal(t, DefaultMinMember, config.Draw.MinMember)
				assert.Equal(t, DefaultMaxMember, config.Draw.DefaultMaxMember)
				assert.Equal(t, DefaultRecentCap, config.Draw.RecentCap)
				assert.Equal(t, DefaultPadWidth, config.Draw.PadWidth)
				assert.Equal(t, DefaultBlacklistFile, config.Draw.BlacklistFile)
				assert.Equal(t, DefaultSlots, config.Animation.Slots)
				assert.Equal(t, float64(DefaultCanvasWidth), config.Animation.CanvasWidth)
				assert.Equal(t, DefaultTuning(), config.Animation.Tuning())
				assert.True(t, config.Animation.Attract)
				assert.False(t, config.Redis.Enabled)
				assert.Equal(t, "localhost:6379", config.Redis.Addr)
				assert.Equal(t, DefaultRedisKeyPrefix, config.Redis.KeyPrefix)
				assert.Equal(t, 100*time.Millisecond, config.Redis.RetryInterval)
				assert.True(t, config.CircuitBreaker.Enabled)
				assert.Equal(t, 30*time.Second, config.CircuitBreaker.Timeout)
			},
		},
		{
			name: "yaml_values",
			yaml: `
draw:
  default_max_member: 1200
  recent_cap: 50
  blacklist_file: /srv/kiosk/excluded.csv
animation:
  slots: 5
  slot_width: 100
  padding: 10
  pointer: 250
  initial_speed: 90
  frame_interval: 20ms
  attract: false
redis:
  enabled: true
  addr: redis.club.lan:6379
  key_prefix: "club:"
`,
			validate: func(t *testing.T, config *Config) {
				assert.Equal(t, 1200, config.Draw.DefaultMaxMember)
				assert.Equal(t, 50, config.Draw.RecentCap)
				assert.Equal(t, "/srv/kiosk/excluded.csv", config.Draw.BlacklistFile)
				assert.False(t, config.Animation.Attract)
				assert.Equal(t, 90.0, config.Animation.InitialSpeed)
				assert.Equal(t, 20*time.Millisecond, config.Animation.FrameInterval)

				layout, err := config.Animation.Layout()
				require.NoError(t, err)
				assert.Equal(t, Layout{Slots: 5, SlotWidth: 100, Padding: 10, Pointer: 250}, layout)

				assert.True(t, config.Redis.Enabled)
				assert.Equal(t, "redis.club.lan:6379", config.Redis.Addr)
				assert.Equal(t, "club:", config.Redis.KeyPrefix)
			},
		},
		{
			name: "environment_variables",
			yaml: "draw:\n  recent_cap: 50\n",
			env: map[string]string{
				"MEMBERDRAW_DRAW_RECENT_CAP":        "5",
				"MEMBERDRAW_ANIMATION_DECAY_RATE":   "0.75",
				"MEMBERDRAW_ANIMATION_IDLE_SPEED":   "2.5",
				"MEMBERDRAW_ANIMATION_CANVAS_WIDTH": "1280",
				"MEMBERDRAW_REDIS_ADDR":             "redis-kiosk:6379",
				"MEMBERDRAW_CIRCUIT_BREAKER_NAME":   "kiosk-store",
			},
			validate: func(t *testing.T, config *Config) {
				assert.Equal(t, 5, config.Draw.RecentCap)
				assert.Equal(t, 0.75, config.Animation.DecayRate)
				assert.Equal(t, 2.5, config.Animation.IdleSpeed)
				assert.Equal(t, 1280.0, config.Animation.CanvasWidth)
				assert.Equal(t, "redis-kiosk:6379", config.Redis.Addr)
				assert.Equal(t, "kiosk-store", config.CircuitBreaker.Name)
			},
		},
		{
			name:        "invalid_recent_cap",
			yaml:        "draw:\n  recent_cap: 0\n",
			expectError: true,
		},
		{
			name:        "invalid_tuning",
			yaml:        "animation:\n  decay_rate: 0\n",
			expectError: true,
		},
		{
			name:        "too_few_slots",
			yaml:        "animation:\n  slots: 2\n",
			expectError: true,
		},
		{
			name:        "redis_enabled_without_addr",
			yaml:        "redis:\n  enabled: true\n  addr: \"\"\n",
			expectError: true,
		},
		{
			name:        "malformed_yaml",
			yaml:        "draw: [unclosed\n",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cm := NewConfigManagerWithFile(writeConfig(t, t.TempDir(), tt.yaml))
			config, err := cm.LoadConfig()

			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrConfigInvalid)
				assert.Nil(t, cm.GetConfig())
				return
			}

			require.NoError(t, err)
			require.NotNil(t, config)
			assert.Same(t, config, cm.GetConfig())
			if tt.validate != nil {
				tt.validate(t, config)
			}
		})
	}
}

func TestConfigManager_MissingExplicitFile(t *testing.T) {
	cm := NewConfigManagerWithFile(filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := cm.LoadConfig()
	assert.ErrorIs(t, err, ErrConfigInvalid)
}

func TestConfigManager_SearchPathWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cm := NewConfigManager()
	config, err := cm.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Draw, config.Draw)
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	require.NoError(t, config.Validate())

	layout, err := config.Animation.Layout()
	require.NoError(t, err)
	assert.Equal(t, 960.0, layout.Pointer)

	cm := NewDefaultConfigManager()
	assert.Equal(t, config, cm.GetConfig())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing_section", func(c *Config) { c.Redis = nil }},
		{"negative_min_member", func(c *Config) { c.Draw.MinMember = -1 }},
		{"default_max_below_min", func(c *Config) { c.Draw.DefaultMaxMember = 0 }},
		{"pad_width_too_large", func(c *Config) { c.Draw.PadWidth = MaxPadWidth + 1 }},
		{"joiner_wider_than_slot", func(c *Config) { c.Animation.SlotWidth = 10; c.Animation.Pointer = 5; c.Animation.JoinerStep = 11 }},
		{"failure_ratio", func(c *Config) { c.CircuitBreaker.FailureRatio = 1.5 }},
		{"redis_retry_attempts", func(c *Config) { c.Redis.Enabled = true; c.Redis.RetryAttempts = MaxRetryAttempts + 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			assert.ErrorIs(t, config.Validate(), ErrConfigInvalid)
		})
	}

	// redis and breaker sections are only checked when enabled
	config := DefaultConfig()
	config.Redis.Addr = ""
	config.CircuitBreaker.Enabled = false
	config.CircuitBreaker.FailureRatio = 0
	assert.NoError(t, config.Validate())
}

func TestConfigManager_WatchConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "draw:\n  recent_cap: 10\n")

	cm := NewConfigManagerWithFile(path)
	cm.SetLogger(&SilentLogger{})
	_, err := cm.LoadConfig()
	require.NoError(t, err)

	reloaded := make(chan *Config, 4)
	require.NoError(t, cm.WatchConfig(func(c *Config) {
		select {
		case reloaded <- c:
		default:
		}
	}))

	// an invalid edit keeps the previous configuration
	require.NoError(t, os.WriteFile(path, []byte("draw:\n  recent_cap: -3\n"), 0o600))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 10, cm.GetConfig().Draw.RecentCap)

	require.NoError(t, os.WriteFile(path, []byte("draw:\n  recent_cap: 30\n"), 0o600))
	select {
	case c := <-reloaded:
		assert.Equal(t, 30, c.Draw.RecentCap)
	case <-time.After(5 * time.Second):
		t.Fatal("config reload was not observed")
	}
}

func TestConfigManager_WatchWithoutFile(t *testing.T) {
	cm := NewDefaultConfigManager()
	assert.ErrorIs(t, cm.WatchConfig(nil), ErrConfigInvalid)
}

func TestNewRedisClientFromConfig(t *testing.T) {
	client := NewRedisClientFromConfig(nil)
	defer client.Close()
	assert.Equal(t, DefaultRedisAddr, client.Options().Addr)

	cfg := DefaultRedisConfig()
	cfg.Addr = "redis-kiosk:6380"
	cfg.DB = 2
	client2 := NewRedisClientFromConfig(cfg)
	defer client2.Close()
	assert.Equal(t, "redis-kiosk:6380", client2.Options().Addr)
	assert.Equal(t, 2, client2.Options().DB)
}
