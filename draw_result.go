package memberdraw

import (
	"fmt"
	"time"
)

// Slot is one box of the ring
type Slot struct {
	Position float64 `json:"position"` // Left edge on the canvas
	Value    string  `json:"value"`    // Formatted member number shown in the box
}

// Contains reports whether x falls inside [Position, Position+width)
func (s Slot) Contains(x, width float64) bool {
	return x >= s.Position && x < s.Position+width
}

// Landing represents the result of one draw: the slot under the pointer once the scroll has stopped
type Landing struct {
	Value       string        `json:"value"`        // Winning member number
	Slot        int           `json:"slot"`         // Index of the slot under the pointer
	Position    float64       `json:"position"`     // Left edge of that slot at landing
	Ticks       int           `json:"ticks"`        // Frames since deceleration started
	JoinerTicks int           `json:"joiner_ticks"` // Frames spent nudging the slot onto the pointer
	Elapsed     time.Duration `json:"elapsed"`      // Wall-clock time since deceleration started
	LandedAt    time.Time     `json:"landed_at"`
}

// Validate validates the landing data
func (l *Landing) Validate() error {
	if l.Value == "" {
		return newError(ErrInvalidState, "Landing.Validate", "landing has no value")
	}
	if l.Slot < 0 || l.Ticks < 0 || l.JoinerTicks < 0 || l.JoinerTicks > l.Ticks {
		return newError(ErrInvalidState, "Landing.Validate",
			fmt.Sprintf("inconsistent landing: slot=%d ticks=%d joinerTicks=%d", l.Slot, l.Ticks, l.JoinerTicks))
	}
	return nil
}

// NeededJoiner reports whether the scroll stopped in a gap and had to be nudged
func (l *Landing) NeededJoiner() bool { return l.JoinerTicks > 0 }

// TickResult is what one animation frame reports back to its driver
type TickResult struct {
	State     AnimationState `json:"state"`
	Continue  bool           `json:"continue"`         // Whether another tick should be scheduled
	NextDelay time.Duration  `json:"next_delay"`       // Delay before that tick, never below the minimum frame delay
	Winner    *Landing       `json:"winner,omitempty"` // Set on the frame that lands
}
