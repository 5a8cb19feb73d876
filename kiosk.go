package memberdraw

import (
	"context"
	"fmt"
	"strconv"
)

// Phase is the screen the kiosk is showing
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseDraw
	PhaseQuit
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseDraw:
		return "draw"
	case PhaseQuit:
		return "quit"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Key is an operator key press on the draw screen
type Key int

const (
	KeyAdvance      Key = iota // space
	KeyAttractStart            // right arrow
	KeyAttractStop             // down arrow
	KeyBack                    // left arrow
	KeyQuit                    // escape
)

func (k Key) String() string {
	switch k {
	case KeyAdvance:
		return "advance"
	case KeyAttractStart:
		return "attract-start"
	case KeyAttractStop:
		return "attract-stop"
	case KeyBack:
		return "back"
	case KeyQuit:
		return "quit"
	default:
		return fmt.Sprintf("Key(%d)", int(k))
	}
}

// Frame is everything a renderer needs to draw the ring
type Frame struct {
	State  AnimationState
	Slots  []Slot
	Layout Layout
}

// View renders the kiosk. It is called on the event queue only.
type View interface {
	// ShowSetup shows the setup form with prefill in the member number field and an optional error message
	ShowSetup(prefill, message string)

	// ShowFrame draws the ring
	ShowFrame(frame Frame)

	// ShowWinner highlights the landed slot
	ShowWinner(landing Landing)

	// Quit closes the display
	Quit()
}

// KioskOption configures a Kiosk
type KioskOption func(*Kiosk)

// WithSettingsStore remembers the last maximum and shares the blacklist through store
func WithSettingsStore(store SettingsStore) KioskOption {
	return func(k *Kiosk) { k.store = store }
}

// WithKioskLogger sets the logger
func WithKioskLogger(logger Logger) KioskOption {
	return func(k *Kiosk) {
		if logger != nil {
			k.logger = logger
		}
	}
}

// WithKioskMonitor records statistics of every session on monitor
func WithKioskMonitor(monitor *AnimationMonitor) KioskOption {
	return func(k *Kiosk) { k.monitor = monitor }
}

// WithKioskRandom sets the random source handed to every session
func WithKioskRandom(random RandomSource) KioskOption {
	return func(k *Kiosk) { k.random = random }
}

// WithKioskClock sets the clock handed to every session
func WithKioskClock(clock Clock) KioskOption {
	return func(k *Kiosk) { k.clock = clock }
}

// Kiosk drives the setup and draw screens.
//
// Errors raised while building or running a session never end the program:
// the kiosk goes back to the setup screen and shows the error. Only KeyQuit
// leaves. Every method must be called on the scheduler's event queue.
type Kiosk struct {
	config    *Config
	scheduler Scheduler
	view      View
	store     SettingsStore

	logger  Logger
	monitor *AnimationMonitor
	random  RandomSource
	clock   Clock

	phase   Phase
	session *Session
	lastMax int
	message string
}

// NewKiosk creates a kiosk on the setup screen. A nil cfg uses DefaultConfig.
func NewKiosk(cfg *Config, scheduler Scheduler, view View, opts ...KioskOption) (*Kiosk, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if scheduler == nil || view == nil {
		return nil, newError(ErrInvalidState, "NewKiosk", "scheduler and view are required")
	}

	k := &Kiosk{
		config:    cfg,
		scheduler: scheduler,
		view:      view,
		logger:    &DefaultLogger{},
		phase:     PhaseSetup,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k, nil
}

// Start shows the setup screen
func (k *Kiosk) Start(ctx context.Context) {
	k.phase = PhaseSetup
	k.view.ShowSetup(k.DefaultMaxText(ctx), k.message)
}

// DefaultMaxText is the prefill of the member number field: the last submitted
// maximum, else the one remembered by the settings store, else the configured default.
func (k *Kiosk) DefaultMaxText(ctx context.Context) string {
	if k.lastMax > 0 {
		return strconv.Itoa(k.lastMax)
	}
	if k.store != nil {
		max, found, err := k.store.LoadLastMax(ctx)
		switch {
		case err != nil:
			k.logger.Error("Loading last max failed, using default: %v", err)
		case found:
			return strconv.Itoa(max)
		}
	}
	return strconv.Itoa(k.config.Draw.DefaultMaxMember)
}

// Submit validates the setup form and enters the draw screen.
//
// The exclusion list is the union of the typed numbers, the blacklist file and
// the settings store. An unreachable store is logged and skipped. On any other
// error the kiosk stays on the setup screen with the error shown.
func (k *Kiosk) Submit(ctx context.Context, maxText, blacklistText string) error {
	if k.phase != PhaseSetup {
		return newError(ErrInvalidState, "Submit", "setup is only accepted on the setup screen, now "+k.phase.String())
	}

	max, err := ParseMemberNumber(maxText)
	if err != nil {
		return k.reject(maxText, err)
	}
	typed, err := ParseBlacklist(blacklistText)
	if err != nil {
		return k.reject(maxText, err)
	}

	var fromFile []int
	if path := k.config.Draw.BlacklistFile; path != "" {
		if fromFile, err = LoadBlacklistCSV(path); err != nil {
			return k.reject(maxText, err)
		}
	}

	var fromStore []int
	if k.store != nil {
		if fromStore, err = k.store.LoadBlacklist(ctx); err != nil {
			k.logger.Error("Loading shared blacklist failed, continuing without it: %v", err)
			fromStore = nil
		}
	}

	setup := SessionSetup{
		MinMember: k.config.Draw.MinMember,
		MaxMember: max,
		Blacklist: MergeBlacklists(typed, fromFile, fromStore),
	}
	session, err := NewSession(setup, k.config, k.scheduler,
		WithSessionRandom(k.random),
		WithSessionClock(k.clock),
		WithSessionLogger(k.logger),
		WithSessionMonitor(k.monitor),
		WithFrameListener(k.handleFrame),
		WithErrorHandler(k.handleError),
	)
	if err != nil {
		return k.reject(maxText, err)
	}

	k.lastMax = max
	if k.store != nil {
		if err := k.store.SaveLastMax(ctx, max); err != nil {
			k.logger.Error("Saving last max failed: %v", err)
		}
	}

	k.session = session
	k.phase = PhaseDraw
	k.message = ""
	k.view.ShowFrame(k.frame())

	if k.config.Animation.Attract {
		if err := session.StartAttract(); err != nil {
			k.abort(err)
			return err
		}
	}
	return nil
}

func (k *Kiosk) reject(prefill string, err error) error {
	k.message = UserMessage(err)
	k.logger.Error("Setup rejected: %v", err)
	k.view.ShowSetup(prefill, k.message)
	return err
}

// HandleKey applies an operator key press. KeyQuit works on every screen, the
// other keys need a running session.
func (k *Kiosk) HandleKey(key Key) error {
	if key == KeyQuit {
		k.Quit()
		return nil
	}
	if k.phase != PhaseDraw || k.session == nil {
		return newError(ErrSessionNotReady, "HandleKey", "key "+key.String()+" on the "+k.phase.String()+" screen")
	}

	var err error
	switch key {
	case KeyAdvance:
		err = k.session.Advance()
	case KeyAttractStart:
		err = k.session.StartAttract()
	case KeyAttractStop:
		err = k.session.StopAttract()
	case KeyBack:
		k.logger.Info("Draw abandoned, back to setup")
		k.abort(nil)
		return nil
	default:
		return newError(ErrInvalidInput, "HandleKey", "unknown key "+key.String())
	}

	if err != nil {
		k.abort(err)
		return err
	}
	k.view.ShowFrame(k.frame())
	return nil
}

func (k *Kiosk) handleFrame(result TickResult) {
	if k.session == nil {
		return
	}
	k.view.ShowFrame(k.frame())
	if result.Winner != nil {
		k.view.ShowWinner(*result.Winner)
	}
}

func (k *Kiosk) handleError(err error) {
	k.abort(err)
}

// abort discards the session and returns to the setup screen with err shown
func (k *Kiosk) abort(err error) {
	if k.session != nil {
		k.session.Close()
		k.session = nil
	}
	k.phase = PhaseSetup
	k.message = UserMessage(err)
	if err != nil {
		k.logger.Error("Draw aborted: %v", err)
	}
	k.view.ShowSetup(k.prefill(), k.message)
}

func (k *Kiosk) prefill() string {
	if k.lastMax > 0 {
		return strconv.Itoa(k.lastMax)
	}
	return strconv.Itoa(k.config.Draw.DefaultMaxMember)
}

// Quit closes the session and the view
func (k *Kiosk) Quit() {
	if k.phase == PhaseQuit {
		return
	}
	if k.session != nil {
		k.session.Close()
		k.session = nil
	}
	k.phase = PhaseQuit
	k.logger.Info("Kiosk quit")
	k.view.Quit()
}

// ApplyConfig takes a reloaded configuration. Motion constants reach the
// running session, layout and draw settings take effect from the next setup.
// A configuration the running session refuses is not kept.
func (k *Kiosk) ApplyConfig(cfg *Config) error {
	if cfg == nil {
		return newError(ErrConfigInvalid, "ApplyConfig", "config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	// the running layout may be narrower than the reloaded one
	if k.session != nil {
		if err := k.session.ApplyTuning(cfg.Animation.Tuning()); err != nil {
			return err
		}
	}
	k.config = cfg
	return nil
}

// WatchConfig reloads the configuration on file changes. Reloads are posted to the event queue.
func (k *Kiosk) WatchConfig(cm *ConfigManager) error {
	return cm.WatchConfig(func(cfg *Config) {
		k.scheduler.Post(func() {
			if err := k.ApplyConfig(cfg); err != nil {
				k.logger.Error("Config reload rejected: %v", err)
			}
		})
	})
}

func (k *Kiosk) frame() Frame {
	if k.session == nil {
		return Frame{}
	}
	a := k.session.Animator()
	return Frame{State: a.State(), Slots: a.Slots(), Layout: a.Layout()}
}

// Phase returns the current screen
func (k *Kiosk) Phase() Phase { return k.phase }

// Session returns the running session, nil on the setup screen
func (k *Kiosk) Session() *Session { return k.session }

// Message returns the error shown on the setup screen
func (k *Kiosk) Message() string { return k.message }

// Config returns the configuration in effect
func (k *Kiosk) Config() *Config { return k.config }
