package memberdraw

import (
	"fmt"
	"time"
)

// AnimationState is the phase of the scroll
type AnimationState int

const (
	StateIdle AnimationState = iota
	StateScrolling
	StateDecelerating
	StateLanded
)

func (s AnimationState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScrolling:
		return "scrolling"
	case StateDecelerating:
		return "decelerating"
	case StateLanded:
		return "landed"
	default:
		return fmt.Sprintf("AnimationState(%d)", int(s))
	}
}

// AnimatorOption configures a ScrollAnimator
type AnimatorOption func(*ScrollAnimator)

// WithClock sets the clock the velocity function is evaluated against
func WithClock(clock Clock) AnimatorOption {
	return func(a *ScrollAnimator) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// WithAnimatorLogger sets the logger
func WithAnimatorLogger(logger Logger) AnimatorOption {
	return func(a *ScrollAnimator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithAnimatorMonitor records frame statistics on monitor
func WithAnimatorMonitor(monitor *AnimationMonitor) AnimatorOption {
	return func(a *ScrollAnimator) { a.monitor = monitor }
}

// ScrollAnimator moves a ring of slots leftwards and brings it to rest under a fixed pointer.
//
// Idle and Scrolling are the attract modes. BeginDraw starts a deceleration
// whose per-frame displacement follows Tuning.Velocity. Once the velocity is
// no longer positive the animator is Landed; if the pointer falls in the gap
// between two slots, every following tick moves the ring by Tuning.JoinerStep
// until a slot covers the pointer. That slot's value is the winner.
//
// ScrollAnimator is not safe for concurrent use; drive it from one event queue.
type ScrollAnimator struct {
	source NumberSource
	layout Layout
	tuning Tuning

	// tuning submitted while a draw is in flight, applied on the next BeginDraw
	pending *Tuning

	slots   []Slot
	state   AnimationState
	running bool

	decelStart  time.Time
	ticks       int
	joinerTicks int
	winner      *Landing

	clock   Clock
	logger  Logger
	monitor *AnimationMonitor
}

// NewScrollAnimator lays out the slots and fills each with a value from source
func NewScrollAnimator(source NumberSource, layout Layout, tuning Tuning, opts ...AnimatorOption) (*ScrollAnimator, error) {
	if source == nil {
		return nil, newError(ErrInvalidState, "NewScrollAnimator", "number source is nil")
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if err := validateTuningFor(layout, tuning); err != nil {
		return nil, err
	}

	a := &ScrollAnimator{
		source: source,
		layout: layout,
		tuning: tuning,
		state:  StateIdle,
		clock:  SystemClock{},
		logger: &DefaultLogger{},
	}
	for _, opt := range opts {
		opt(a)
	}

	a.slots = make([]Slot, layout.Slots)
	for i := range a.slots {
		value, err := source.DrawNext()
		if err != nil {
			return nil, err
		}
		a.slots[i] = Slot{Position: layout.InitialPosition(i), Value: value}
	}
	return a, nil
}

// A joiner step wider than a slot could hop over the pointer forever.
func validateTuningFor(layout Layout, tuning Tuning) error {
	if err := tuning.Validate(); err != nil {
		return err
	}
	if tuning.JoinerStep > layout.SlotWidth {
		return newError(ErrInvalidTuning, "validateTuning",
			fmt.Sprintf("joiner step %v exceeds slot width %v", tuning.JoinerStep, layout.SlotWidth))
	}
	return nil
}

// StartScrolling enters the attract scroll. It is a no-op while already scrolling.
func (a *ScrollAnimator) StartScrolling() error {
	switch a.state {
	case StateScrolling:
		a.running = true
		return nil
	case StateIdle:
		a.state = StateScrolling
		a.running = true
		return nil
	default:
		return newError(ErrInvalidState, "StartScrolling", "cannot scroll while "+a.state.String())
	}
}

// StopScrolling leaves the attract scroll. Other states are left untouched.
func (a *ScrollAnimator) StopScrolling() {
	if a.state == StateScrolling {
		a.state = StateIdle
		a.running = false
	}
}

// BeginDraw starts decelerating from the initial speed, measuring time from now
func (a *ScrollAnimator) BeginDraw() error {
	if a.state != StateIdle && a.state != StateScrolling {
		return newError(ErrInvalidState, "BeginDraw", "a draw is already "+a.state.String())
	}
	if a.pending != nil {
		a.tuning = *a.pending
		a.pending = nil
	}

	a.state = StateDecelerating
	a.running = true
	a.decelStart = a.clock.Now()
	a.ticks = 0
	a.joinerTicks = 0
	a.winner = nil

	if a.monitor != nil {
		a.monitor.RecordDeceleration()
	}
	a.logger.Debug("Deceleration started: v0=%.2f, k=%.2f, c=%.2f, expected=%v",
		a.tuning.InitialSpeed, a.tuning.DecayRate, a.tuning.FloorOffset, a.tuning.DecelerationDuration())
	return nil
}

// Acknowledge dismisses the winner and returns to Idle
func (a *ScrollAnimator) Acknowledge() error {
	if a.state != StateLanded || a.winner == nil {
		return newError(ErrInvalidState, "Acknowledge", "no winner to acknowledge while "+a.state.String())
	}
	a.state = StateIdle
	a.running = false
	a.winner = nil
	return nil
}

// Stop clears the should-continue flag; the next tick does nothing and asks not to be rescheduled
func (a *ScrollAnimator) Stop() { a.running = false }

// Tick advances the animation by one frame
func (a *ScrollAnimator) Tick() (TickResult, error) {
	start := a.clock.Now()
	if !a.running {
		return TickResult{State: a.state}, nil
	}

	var (
		err    error
		joiner bool
	)
	switch a.state {
	case StateIdle:
		a.running = false
	case StateScrolling:
		err = a.advance(a.tuning.IdleSpeed)
	case StateDecelerating:
		a.ticks++
		if v := a.tuning.Velocity(start.Sub(a.decelStart)); v > 0 {
			err = a.advance(v)
		} else {
			a.state = StateLanded
			a.checkLanding(start)
		}
	case StateLanded:
		if a.winner == nil {
			a.ticks++
			a.joinerTicks++
			joiner = true
			if err = a.advance(a.tuning.JoinerStep); err == nil {
				a.checkLanding(start)
			}
		}
	}

	if err != nil {
		a.running = false
		if a.monitor != nil {
			a.monitor.RecordError()
		}
		a.logger.Error("Animation stopped while %s: %v", a.state, err)
		return TickResult{State: a.state}, err
	}

	result := TickResult{State: a.state}
	if a.state == StateLanded && a.winner != nil && a.running {
		a.running = false
		landing := *a.winner
		result.Winner = &landing
		if a.monitor != nil {
			a.monitor.RecordLanding()
		}
		a.logger.Info("Landed on %s after %d ticks (%d joiner) in %v",
			landing.Value, landing.Ticks, landing.JoinerTicks, landing.Elapsed)
	}
	result.Continue = a.running

	processing := a.clock.Now().Sub(start)
	result.NextDelay = a.tuning.NextDelay(processing)
	if a.monitor != nil {
		a.monitor.RecordTick(processing, joiner)
	}
	return result, nil
}

// advance moves every slot left by dx, wrapping slots that leave the ring
// and giving each wrapped slot a fresh value.
func (a *ScrollAnimator) advance(dx float64) error {
	minPos := a.layout.MinPosition()
	ring := a.layout.RingWidth()
	for i := range a.slots {
		pos := a.slots[i].Position - dx
		for pos < minPos {
			pos += ring
			value, err := a.source.DrawNext()
			if err != nil {
				return err
			}
			a.slots[i].Value = value
		}
		a.slots[i].Position = pos
	}
	return nil
}

func (a *ScrollAnimator) checkLanding(now time.Time) {
	for i, slot := range a.slots {
		if slot.Contains(a.layout.Pointer, a.layout.SlotWidth) {
			a.winner = &Landing{
				Value:       slot.Value,
				Slot:        i,
				Position:    slot.Position,
				Ticks:       a.ticks,
				JoinerTicks: a.joinerTicks,
				Elapsed:     now.Sub(a.decelStart),
				LandedAt:    now,
			}
			return
		}
	}
}

// SetTuning replaces the motion constants. During a draw the change is held until the next BeginDraw.
func (a *ScrollAnimator) SetTuning(tuning Tuning) error {
	if err := validateTuningFor(a.layout, tuning); err != nil {
		return err
	}
	if a.state == StateDecelerating || (a.state == StateLanded && a.winner == nil) {
		a.pending = &tuning
		return nil
	}
	a.tuning = tuning
	a.pending = nil
	return nil
}

// State returns the current animation state
func (a *ScrollAnimator) State() AnimationState { return a.state }

// Running reports whether the animator wants further ticks
func (a *ScrollAnimator) Running() bool { return a.running }

// Slots returns a copy of the ring
func (a *ScrollAnimator) Slots() []Slot { return append([]Slot(nil), a.slots...) }

// Winner returns the landing once a slot is aligned with the pointer
func (a *ScrollAnimator) Winner() (Landing, bool) {
	if a.winner == nil {
		return Landing{}, false
	}
	return *a.winner, true
}

// Layout returns the ring geometry
func (a *ScrollAnimator) Layout() Layout { return a.layout }

// Tuning returns the motion constants in effect
func (a *ScrollAnimator) Tuning() Tuning { return a.tuning }
