package memberdraw

import "fmt"

// SessionSetup is what the operator submitted on the setup screen
type SessionSetup struct {
	MinMember int   `json:"min_member"`
	MaxMember int   `json:"max_member"`
	Blacklist []int `json:"blacklist,omitempty"`
}

// SessionOption configures a Session
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	random  RandomSource
	clock   Clock
	logger  Logger
	monitor *AnimationMonitor
	onFrame func(TickResult)
	onError func(error)
}

// WithSessionRandom sets the random source of the number pool
func WithSessionRandom(random RandomSource) SessionOption {
	return func(o *sessionOptions) { o.random = random }
}

// WithSessionClock sets the clock the animation is timed against
func WithSessionClock(clock Clock) SessionOption {
	return func(o *sessionOptions) { o.clock = clock }
}

// WithSessionLogger sets the logger shared by the pool and the animator
func WithSessionLogger(logger Logger) SessionOption {
	return func(o *sessionOptions) { o.logger = logger }
}

// WithSessionMonitor records pool and frame statistics on monitor
func WithSessionMonitor(monitor *AnimationMonitor) SessionOption {
	return func(o *sessionOptions) { o.monitor = monitor }
}

// WithFrameListener is called on the event queue after every tick
func WithFrameListener(fn func(TickResult)) SessionOption {
	return func(o *sessionOptions) { o.onFrame = fn }
}

// WithErrorHandler is called on the event queue when a tick fails. The animation has already stopped.
func WithErrorHandler(fn func(error)) SessionOption {
	return func(o *sessionOptions) { o.onError = fn }
}

// Session owns the number pool, the animator and the frame driver of one setup.
// All methods must be called on the scheduler's event queue.
type Session struct {
	setup    SessionSetup
	pool     *NumberPool
	animator *ScrollAnimator
	driver   *FrameDriver

	attract bool
	closed  bool
	logger  Logger
	options sessionOptions
}

// NewSession builds the pool and the animator for setup using the draw and animation sections of cfg
func NewSession(setup SessionSetup, cfg *Config, scheduler Scheduler, opts ...SessionOption) (*Session, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if scheduler == nil {
		return nil, newError(ErrInvalidState, "NewSession", "scheduler is nil")
	}
	if cfg.Draw == nil || cfg.Animation == nil {
		return nil, newError(ErrConfigInvalid, "NewSession", "draw and animation sections are required")
	}

	var o sessionOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = &DefaultLogger{}
	}

	pool, err := NewNumberPool(setup.MinMember, setup.MaxMember, setup.Blacklist,
		WithRecentCap(cfg.Draw.RecentCap),
		WithPadWidth(cfg.Draw.PadWidth),
		WithRandomSource(o.random),
		WithPoolLogger(o.logger),
		WithPoolMonitor(o.monitor),
	)
	if err != nil {
		return nil, err
	}

	layout, err := cfg.Animation.Layout()
	if err != nil {
		return nil, err
	}
	animator, err := NewScrollAnimator(pool, layout, cfg.Animation.Tuning(),
		WithClock(o.clock),
		WithAnimatorLogger(o.logger),
		WithAnimatorMonitor(o.monitor),
	)
	if err != nil {
		return nil, err
	}

	s := &Session{
		setup:    setup,
		pool:     pool,
		animator: animator,
		attract:  cfg.Animation.Attract,
		logger:   o.logger,
		options:  o,
	}
	s.driver = NewFrameDriver(scheduler, animator, s.handleFrame, s.handleError)

	s.logger.Info("Session ready: range=[%d,%d], excluded=%d, eligible=%d, slots=%d",
		setup.MinMember, setup.MaxMember, len(setup.Blacklist), pool.Size(), layout.Slots)
	return s, nil
}

func (s *Session) handleFrame(result TickResult) {
	if s.options.onFrame != nil {
		s.options.onFrame(result)
	}
}

func (s *Session) handleError(err error) {
	s.logger.Error("Draw animation failed: %v", err)
	if s.options.onError != nil {
		s.options.onError(err)
	}
}

func (s *Session) ready(operation string) error {
	if s.closed {
		return newError(ErrSessionNotReady, operation, "session is closed")
	}
	return nil
}

// Advance is the operator's single draw key.
//
// From Idle or Scrolling it starts a draw. While the ring is decelerating or
// joining it does nothing. Once a winner is shown it dismisses the winner and,
// when attract mode is configured, resumes scrolling.
func (s *Session) Advance() error {
	if err := s.ready("Advance"); err != nil {
		return err
	}

	switch state := s.animator.State(); state {
	case StateIdle, StateScrolling:
		if err := s.animator.BeginDraw(); err != nil {
			return err
		}
		s.driver.Start()
	case StateDecelerating:
		s.logger.Debug("Advance ignored while decelerating")
	case StateLanded:
		if _, ok := s.animator.Winner(); !ok {
			s.logger.Debug("Advance ignored until a slot is aligned")
			return nil
		}
		if err := s.animator.Acknowledge(); err != nil {
			return err
		}
		if s.attract {
			return s.StartAttract()
		}
	default:
		return newError(ErrInvalidState, "Advance", fmt.Sprintf("unexpected state %s", state))
	}
	return nil
}

// StartAttract scrolls the ring slowly while waiting for a draw. It is ignored during a draw.
func (s *Session) StartAttract() error {
	if err := s.ready("StartAttract"); err != nil {
		return err
	}
	if state := s.animator.State(); state != StateIdle && state != StateScrolling {
		s.logger.Debug("Attract ignored while %s", state)
		return nil
	}
	if err := s.animator.StartScrolling(); err != nil {
		return err
	}
	s.driver.Start()
	return nil
}

// StopAttract halts the attract scroll. A draw in progress is not affected.
func (s *Session) StopAttract() error {
	if err := s.ready("StopAttract"); err != nil {
		return err
	}
	s.animator.StopScrolling()
	if s.animator.State() == StateIdle {
		s.driver.Stop()
	}
	return nil
}

// ApplyTuning changes the motion constants, deferred until the next draw if one is in flight
func (s *Session) ApplyTuning(tuning Tuning) error {
	if err := s.ready("ApplyTuning"); err != nil {
		return err
	}
	return s.animator.SetTuning(tuning)
}

// Close stops the animation. A closed session rejects every further operation.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.driver.Stop()
	s.animator.Stop()
	s.logger.Debug("Session closed after %d draws", s.pool.DrawCount())
}

// Closed reports whether Close was called
func (s *Session) Closed() bool { return s.closed }

// Setup returns the submitted setup
func (s *Session) Setup() SessionSetup { return s.setup }

// Pool returns the number pool
func (s *Session) Pool() *NumberPool { return s.pool }

// Animator returns the scroll animator
func (s *Session) Animator() *ScrollAnimator { return s.animator }

// Animating reports whether a tick is pending
func (s *Session) Animating() bool { return s.driver.Running() }

// Winner returns the landing of the current draw once a slot is aligned
func (s *Session) Winner() (Landing, bool) { return s.animator.Winner() }
