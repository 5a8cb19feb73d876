package memberdraw

import "fmt"

// PoolOption configures a NumberPool
type PoolOption func(*NumberPool)

// WithRecentCap sets how many draws are kept out of the pool before it is reset
func WithRecentCap(n int) PoolOption {
	return func(p *NumberPool) {
		if n > 0 {
			p.recentCap = n
		}
	}
}

// WithPadWidth sets the minimum width numbers are zero-padded to
func WithPadWidth(w int) PoolOption {
	return func(p *NumberPool) {
		if w > 0 {
			p.minWidth = w
		}
	}
}

// WithRandomSource sets the source used to pick an index
func WithRandomSource(r RandomSource) PoolOption {
	return func(p *NumberPool) {
		if r != nil {
			p.random = r
		}
	}
}

// WithPoolLogger sets the logger used for reset events
func WithPoolLogger(logger Logger) PoolOption {
	return func(p *NumberPool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithPoolMonitor records draws and resets on monitor
func WithPoolMonitor(monitor *AnimationMonitor) PoolOption {
	return func(p *NumberPool) { p.monitor = monitor }
}

// NumberPool draws formatted member numbers without short-term repetition.
//
// Every formatted number is held by exactly one of eligible or recent. A draw
// moves the picked number from eligible to recent until either the pool is
// about to run dry or the recent cap is reached, at which point the recent
// numbers are returned to eligible. The next draw therefore always has a
// candidate.
//
// NumberPool is not safe for concurrent use.
type NumberPool struct {
	eligible  []string
	recent    []string
	drawCount int

	min, max  int
	width     int
	minWidth  int
	recentCap int

	random  RandomSource
	logger  Logger
	monitor *AnimationMonitor
}

// NewNumberPool builds the pool of every number in [min, max] that is not blacklisted.
// Member numbers are never negative: min < 0 and ranges wider than MaxPoolSize return ErrInvalidRange.
func NewNumberPool(min, max int, blacklist []int, opts ...PoolOption) (*NumberPool, error) {
	if err := ValidateRange(min, max); err != nil {
		return nil, err
	}

	p := &NumberPool{
		min:       min,
		max:       max,
		minWidth:  DefaultPadWidth,
		recentCap: DefaultRecentCap,
		logger:    &DefaultLogger{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.random == nil {
		p.random = NewRandomGenerator()
	}
	p.width = padWidth(max, p.minWidth)

	excluded := make(map[int]struct{}, len(blacklist))
	for _, n := range blacklist {
		excluded[n] = struct{}{}
	}

	p.eligible = make([]string, 0, max-min+1)
	for n := min; n <= max; n++ {
		if _, ok := excluded[n]; ok {
			continue
		}
		p.eligible = append(p.eligible, formatNumber(n, p.width))
	}

	if len(p.eligible) == 0 {
		return nil, newError(ErrEmptyPool, "NewNumberPool",
			fmt.Sprintf("all %d numbers from %d to %d are excluded", max-min+1, min, max))
	}

	p.recent = make([]string, 0, minInt(p.recentCap, len(p.eligible)))
	p.logger.Debug("Number pool built: range=[%d,%d], eligible=%d, excluded=%d, width=%d, recentCap=%d",
		min, max, len(p.eligible), max-min+1-len(p.eligible), p.width, p.recentCap)
	return p, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// DrawNext returns a uniformly chosen eligible number
func (p *NumberPool) DrawNext() (string, error) {
	if len(p.eligible) == 0 {
		err := newError(ErrPoolExhausted, "DrawNext",
			fmt.Sprintf("eligible=0, recent=%d, drawCount=%d", len(p.recent), p.drawCount))
		p.logger.Error("Number pool exhausted: %v", err)
		if p.monitor != nil {
			p.monitor.RecordError()
		}
		return "", err
	}

	index := p.random.Intn(len(p.eligible))
	value := p.eligible[index]

	if len(p.eligible) <= 1 || p.drawCount >= p.recentCap {
		p.Reset()
	} else {
		last := len(p.eligible) - 1
		p.eligible[index] = p.eligible[last]
		p.eligible = p.eligible[:last]
		p.recent = append(p.recent, value)
		p.drawCount++
	}

	if p.monitor != nil {
		p.monitor.RecordDraw()
	}
	return value, nil
}

// Reset returns every recently drawn number to the eligible set
func (p *NumberPool) Reset() {
	if len(p.recent) > 0 {
		p.logger.Debug("Number pool reset: returning %d numbers after %d draws", len(p.recent), p.drawCount)
	}
	p.eligible = append(p.eligible, p.recent...)
	p.recent = p.recent[:0]
	p.drawCount = 0

	if p.monitor != nil {
		p.monitor.RecordPoolReset()
	}
}

// Eligible returns a copy of the numbers that can be drawn next
func (p *NumberPool) Eligible() []string {
	return append([]string(nil), p.eligible...)
}

// RecentlyDrawn returns a copy of the numbers held back since the last reset
func (p *NumberPool) RecentlyDrawn() []string {
	return append([]string(nil), p.recent...)
}

// DrawCount returns the number of draws since the last reset
func (p *NumberPool) DrawCount() int { return p.drawCount }

// Size returns the number of numbers the pool was built with
func (p *NumberPool) Size() int { return len(p.eligible) + len(p.recent) }

// Width returns the width numbers are zero-padded to
func (p *NumberPool) Width() int { return p.width }

// RecentCap returns the recent history cap
func (p *NumberPool) RecentCap() int { return p.recentCap }

// Range returns the inclusive bounds the pool was built for
func (p *NumberPool) Range() (min, max int) { return p.min, p.max }

// Contains reports whether value belongs to the pool, drawn recently or not
func (p *NumberPool) Contains(value string) bool {
	for _, v := range p.eligible {
		if v == value {
			return true
		}
	}
	for _, v := range p.recent {
		if v == value {
			return true
		}
	}
	return false
}
