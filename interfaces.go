package memberdraw

import (
	"context"
	"time"
)

// NumberSource supplies the values shown in the scroll slots
type NumberSource interface {
	// DrawNext returns the next formatted number
	DrawNext() (string, error)
}

// RandomSource returns a uniform integer in [0, n)
type RandomSource interface {
	Intn(n int) int
}

// Clock reports the wall clock used to drive the velocity function
type Clock interface {
	Now() time.Time
}

// Timer is a one-shot timer armed through a Scheduler
type Timer interface {
	Stop() bool
}

// Scheduler serialises work onto a single event queue
type Scheduler interface {
	// Post queues fn to run on the event queue
	Post(fn func())

	// AfterFunc queues fn on the event queue once d has elapsed
	AfterFunc(d time.Duration, fn func()) Timer
}

// SettingsStore keeps operator convenience state between kiosk restarts
type SettingsStore interface {
	// SaveLastMax remembers the last maximum member number that was submitted
	SaveLastMax(ctx context.Context, max int) error

	// LoadLastMax returns the remembered maximum, found is false when none was saved
	LoadLastMax(ctx context.Context) (max int, found bool, err error)

	// LoadBlacklist returns the shared exclusion list
	LoadBlacklist(ctx context.Context) ([]int, error)

	// AddToBlacklist adds numbers to the shared exclusion list
	AddToBlacklist(ctx context.Context, numbers ...int) error
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}
