package memberdraw

import (
	"fmt"
	"math"
	"time"
)

// Layout is the geometry of the slot ring, in canvas pixels
type Layout struct {
	Slots     int     `json:"slots"`      // Number of slots in the ring
	SlotWidth float64 `json:"slot_width"` // Width of one slot including its border
	Padding   float64 `json:"padding"`    // Gap between two neighbouring slots
	Pointer   float64 `json:"pointer"`    // Fixed horizontal coordinate of the pointer
}

// LayoutForCanvas derives the layout used on a full-screen canvas of the given width:
// n-2 slots fill the canvas, one is hidden off each edge and the pointer sits at the centre.
func LayoutForCanvas(canvasWidth float64, slots int) (Layout, error) {
	if slots < MinSlots {
		return Layout{}, newError(ErrInvalidLayout, "LayoutForCanvas",
			fmt.Sprintf("need at least %d slots, got %d", MinSlots, slots))
	}
	if canvasWidth <= 0 {
		return Layout{}, newError(ErrInvalidLayout, "LayoutForCanvas",
			fmt.Sprintf("canvas width must be positive, got %v", canvasWidth))
	}

	padding := math.Floor(canvasWidth / 100)
	border := math.Floor(canvasWidth / 150)
	visible := float64(slots - 2)
	rect := (canvasWidth - border*visible - padding*(visible+1)) / visible

	layout := Layout{
		Slots:     slots,
		SlotWidth: rect + border,
		Padding:   padding,
		Pointer:   math.Floor(canvasWidth / 2),
	}
	return layout, layout.Validate()
}

// RingWidth is the distance a slot travels before it shows up again
func (l Layout) RingWidth() float64 {
	return float64(l.Slots) * (l.SlotWidth + l.Padding)
}

// MinPosition is the bound below which a slot wraps to the back of the ring
func (l Layout) MinPosition() float64 { return -l.SlotWidth }

// InitialPosition returns where slot i is placed when the animator is built
func (l Layout) InitialPosition(i int) float64 {
	return l.MinPosition() + float64(i)*(l.SlotWidth+l.Padding)
}

// Validate validates the layout
func (l Layout) Validate() error {
	switch {
	case l.Slots < 1 || l.Slots > MaxSlots:
		return newError(ErrInvalidLayout, "Layout.Validate", fmt.Sprintf("slots must be between 1 and %d, got %d", MaxSlots, l.Slots))
	case l.SlotWidth <= 0:
		return newError(ErrInvalidLayout, "Layout.Validate", fmt.Sprintf("slot width must be positive, got %v", l.SlotWidth))
	case l.Padding < 0:
		return newError(ErrInvalidLayout, "Layout.Validate", fmt.Sprintf("padding cannot be negative, got %v", l.Padding))
	case l.Pointer < l.MinPosition() || l.Pointer >= l.MinPosition()+l.RingWidth():
		return newError(ErrInvalidLayout, "Layout.Validate",
			fmt.Sprintf("pointer %v is outside the ring [%v, %v)", l.Pointer, l.MinPosition(), l.MinPosition()+l.RingWidth()))
	}
	return nil
}

// Tuning holds the motion constants of the scroll
type Tuning struct {
	InitialSpeed  float64       `json:"initial_speed"`   // v0, pixels per frame when deceleration starts
	DecayRate     float64       `json:"decay_rate"`      // k, halvings of v0 per second
	FloorOffset   float64       `json:"floor_offset"`    // c, subtracted so v(t) reaches zero
	IdleSpeed     float64       `json:"idle_speed"`      // pixels per frame in attract mode
	JoinerStep    float64       `json:"joiner_step"`     // pixels per frame while nudging onto the pointer
	FrameInterval time.Duration `json:"frame_interval"`  // target interval between ticks
	MinFrameDelay time.Duration `json:"min_frame_delay"` // lower bound of the reschedule delay
}

// DefaultTuning returns the tuning the kiosk ships with
func DefaultTuning() Tuning {
	return Tuning{
		InitialSpeed:  DefaultInitialSpeed,
		DecayRate:     DefaultDecayRate,
		FloorOffset:   DefaultFloorOffset,
		IdleSpeed:     DefaultIdleSpeed,
		JoinerStep:    DefaultJoinerStep,
		FrameInterval: DefaultFrameInterval,
		MinFrameDelay: DefaultMinFrameDelay,
	}
}

// Velocity evaluates v(t) = v0 * 2^(-k*t) - c for the wall-clock time elapsed since deceleration started
func (t Tuning) Velocity(elapsed time.Duration) float64 {
	return t.InitialSpeed*math.Exp2(-t.DecayRate*elapsed.Seconds()) - t.FloorOffset
}

// DecelerationDuration is the time at which v(t) reaches zero
func (t Tuning) DecelerationDuration() time.Duration {
	if t.InitialSpeed <= t.FloorOffset {
		return 0
	}
	seconds := math.Log2(t.InitialSpeed/t.FloorOffset) / t.DecayRate
	return time.Duration(seconds * float64(time.Second))
}

// NextDelay returns how long to wait before the next tick given the time spent processing this one
func (t Tuning) NextDelay(processing time.Duration) time.Duration {
	delay := t.FrameInterval - processing
	if delay < t.MinFrameDelay {
		return t.MinFrameDelay
	}
	return delay
}

// Validate validates the tuning. A positive decay rate and floor offset guarantee v(t) reaches zero.
func (t Tuning) Validate() error {
	switch {
	case t.InitialSpeed <= 0:
		return newError(ErrInvalidTuning, "Tuning.Validate", fmt.Sprintf("initial speed must be positive, got %v", t.InitialSpeed))
	case t.DecayRate <= 0:
		return newError(ErrInvalidTuning, "Tuning.Validate", fmt.Sprintf("decay rate must be positive, got %v", t.DecayRate))
	case t.FloorOffset <= 0:
		return newError(ErrInvalidTuning, "Tuning.Validate", fmt.Sprintf("floor offset must be positive, got %v", t.FloorOffset))
	case t.IdleSpeed < 0:
		return newError(ErrInvalidTuning, "Tuning.Validate", fmt.Sprintf("idle speed cannot be negative, got %v", t.IdleSpeed))
	case t.JoinerStep <= 0:
		return newError(ErrInvalidTuning, "Tuning.Validate", fmt.Sprintf("joiner step must be positive, got %v", t.JoinerStep))
	case t.FrameInterval <= 0:
		return newError(ErrInvalidTuning, "Tuning.Validate", fmt.Sprintf("frame interval must be positive, got %v", t.FrameInterval))
	case t.MinFrameDelay <= 0:
		return newError(ErrInvalidTuning, "Tuning.Validate", fmt.Sprintf("min frame delay must be positive, got %v", t.MinFrameDelay))
	}
	return nil
}
