package memberdraw

import "time"

const (
	// DefaultMinMember is the lowest member number that can be drawn
	DefaultMinMember = 1

	// DefaultMaxMember is the value the setup prompt is prefilled with
	DefaultMaxMember = 600

	// DefaultRecentCap is the number of draws kept out of the pool before it is reset
	DefaultRecentCap = 20

	// DefaultPadWidth is the minimum number of digits a drawn number is padded to
	DefaultPadWidth = 4

	// DefaultBlacklistFile is the sidecar CSV read at session start
	DefaultBlacklistFile = "blacklist.csv"

	// MaxRecentCap is the largest recent history cap accepted by the configuration
	MaxRecentCap = 10000

	// MaxPadWidth is the largest pad width accepted by the configuration
	MaxPadWidth = 18
)

const (
	// DefaultSlots is the number of visible slots in the scroll
	DefaultSlots = 7

	// DefaultCanvasWidth is the canvas width used to derive the slot layout
	DefaultCanvasWidth = 1920

	// DefaultInitialSpeed is v0 in pixels per frame
	DefaultInitialSpeed = 150.0

	// DefaultDecayRate is k in v(t) = v0 * 2^(-k*t) - c
	DefaultDecayRate = 0.5

	// DefaultFloorOffset is c in v(t) = v0 * 2^(-k*t) - c
	DefaultFloorOffset = 1.8

	// DefaultIdleSpeed is the attract mode speed in pixels per frame
	DefaultIdleSpeed = 1.0

	// DefaultJoinerStep is the nudge applied per frame when deceleration ends between slots
	DefaultJoinerStep = 1.0

	// DefaultFrameInterval is the target interval between two ticks (~60Hz)
	DefaultFrameInterval = 16 * time.Millisecond

	// DefaultMinFrameDelay is the shortest delay a tick is ever rescheduled with
	DefaultMinFrameDelay = 1 * time.Millisecond

	// MinSlots is the smallest ring the canvas layout can be derived for
	MinSlots = 3

	// MaxSlots is the largest ring accepted by the configuration
	MaxSlots = 64

	// DefaultAttract starts the idle scroll when a session opens and after each acknowledged winner
	DefaultAttract = true

	// DefaultEventQueueSize is the initial capacity of the event loop queue
	DefaultEventQueueSize = 64
)

const (
	// DefaultCircuitBreakerName is the default name for Circuit Breaker
	DefaultCircuitBreakerName = "memberdraw-settings"

	// DefaultCircuitBreakerMaxRequests is the default max requests
	DefaultCircuitBreakerMaxRequests = 1

	// DefaultCircuitBreakerInterval is the default interval
	DefaultCircuitBreakerInterval = 60 * time.Second

	// DefaultCircuitBreakerTimeout is the default timeout
	DefaultCircuitBreakerTimeout = 30 * time.Second

	// DefaultCircuitBreakerFailureRatio is the default failure ratio
	DefaultCircuitBreakerFailureRatio = 0.6

	// DefaultCircuitBreakerMinRequests is the default min requests
	DefaultCircuitBreakerMinRequests = 3

	// DefaultCircuitBreakerOnStateChange is the default on state change
	DefaultCircuitBreakerOnStateChange = true
)

const (
	DefaultRedisEnabled      = false
	DefaultRedisAddr         = "localhost:6379"
	DefaultRedisPassword     = ""
	DefaultRedisDB           = 0
	DefaultRedisPoolSize     = 4
	DefaultRedisMinIdleConns = 1
	DefaultRedisMaxRetries   = 1
	DefaultRedisDialTimeout  = 2 * time.Second
	DefaultRedisReadTimeout  = 1 * time.Second
	DefaultRedisWriteTimeout = 1 * time.Second
	DefaultRedisPoolTimeout  = 2 * time.Second
	DefaultRedisKeyPrefix    = "memberdraw:"

	// DefaultRetryAttempts is the default number of retry attempts for store operations
	DefaultRetryAttempts = 2

	// DefaultRetryInterval is the base interval between retry attempts
	DefaultRetryInterval = 100 * time.Millisecond

	// MaxRetryAttempts is the maximum number of retry attempts allowed
	MaxRetryAttempts = 10
)

const (
	// MaxPoolSize is the largest range a NumberPool is built for
	MaxPoolSize = 1_000_000
)
