package memberdraw

import (
	"context"
	"sync"
	"time"
)

// SystemClock reads the wall clock
type SystemClock struct{}

// Now returns time.Now
func (SystemClock) Now() time.Time { return time.Now() }

// EventLoop runs posted functions one at a time on the goroutine that calls Run.
// Timers armed through AfterFunc fire on their own goroutine and post their
// callback back onto the queue, so every callback runs on the loop.
//
// The queue grows as needed. Post never blocks, including from the loop itself.
type EventLoop struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool

	wake   chan struct{}
	logger Logger
}

// NewEventLoop creates an event loop whose queue starts with room for buffer pending functions
func NewEventLoop(buffer int, logger Logger) *EventLoop {
	if buffer <= 0 {
		buffer = DefaultEventQueueSize
	}
	if logger == nil {
		logger = &DefaultLogger{}
	}
	return &EventLoop{
		queue:  make([]func(), 0, buffer),
		wake:   make(chan struct{}, 1),
		logger: logger,
	}
}

// Post queues fn. Functions posted after Run returned are dropped.
func (l *EventLoop) Post(fn func()) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued functions
func (l *EventLoop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// AfterFunc posts fn once d has elapsed
func (l *EventLoop) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, func() { l.Post(fn) })
}

// Run processes the queue until ctx is done
func (l *EventLoop) Run(ctx context.Context) error {
	l.logger.Debug("Event loop started")
	defer func() {
		l.mu.Lock()
		l.stopped = true
		l.queue = nil
		l.mu.Unlock()
	}()

	for {
		fn, ok := l.next()
		if !ok {
			select {
			case <-ctx.Done():
				l.logger.Debug("Event loop stopped: %v", ctx.Err())
				return ctx.Err()
			case <-l.wake:
			}
			continue
		}
		if err := ctx.Err(); err != nil {
			l.logger.Debug("Event loop stopped: %v", err)
			return err
		}
		fn()
	}
}

func (l *EventLoop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

// ================================================================================

// FrameDriver ticks a ScrollAnimator on a Scheduler. Each tick arms the next
// one-shot timer with the delay the tick reported, so at most one tick is
// pending at any time.
type FrameDriver struct {
	scheduler Scheduler
	animator  *ScrollAnimator
	onFrame   func(TickResult)
	onError   func(error)

	running bool
	gen     uint64 // bumped by Start so ticks queued before a Stop are ignored
	timer   Timer
}

// NewFrameDriver creates a driver. onFrame and onError may be nil.
func NewFrameDriver(scheduler Scheduler, animator *ScrollAnimator, onFrame func(TickResult), onError func(error)) *FrameDriver {
	return &FrameDriver{
		scheduler: scheduler,
		animator:  animator,
		onFrame:   onFrame,
		onError:   onError,
	}
}

// Start posts the first tick. It is a no-op while a tick is already pending.
func (d *FrameDriver) Start() {
	if d.running {
		return
	}
	d.running = true
	d.gen++
	gen := d.gen
	d.scheduler.Post(func() { d.tick(gen) })
}

// Stop cancels the pending tick
func (d *FrameDriver) Stop() {
	d.running = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Running reports whether a tick is pending
func (d *FrameDriver) Running() bool { return d.running }

func (d *FrameDriver) tick(gen uint64) {
	if !d.running || gen != d.gen {
		return
	}
	d.timer = nil

	result, err := d.animator.Tick()
	if err != nil {
		d.running = false
		if d.onError != nil {
			d.onError(err)
		}
		return
	}
	if d.onFrame != nil {
		d.onFrame(result)
	}

	// onFrame may have stopped or restarted the driver
	if !d.running || gen != d.gen {
		return
	}
	if !result.Continue {
		d.running = false
		return
	}
	d.timer = d.scheduler.AfterFunc(result.NextDelay, func() { d.tick(gen) })
}
