package memberdraw

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// fixedRNG replays a fixed sequence of indexes, reduced modulo n
type fixedRNG struct {
	values []int
	i      int
}

func (r *fixedRNG) Intn(n int) int {
	if n <= 0 || len(r.values) == 0 {
		return 0
	}
	v := r.values[r.i%len(r.values)] % n
	r.i++
	return v
}

// fakeClock only moves when told to
type fakeClock struct{ now time.Time }

func newFakeClock() *fakeClock { return &fakeClock{now: time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)} }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// steppingClock moves forward by step on every read
type steppingClock struct {
	now  time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

// sequenceSource hands out values in order and fails once they run out
type sequenceSource struct {
	values []string
	i      int
}

var errSourceDry = errors.New("sequence source is dry")

func (s *sequenceSource) DrawNext() (string, error) {
	if s.i >= len(s.values) {
		return "", errSourceDry
	}
	v := s.values[s.i]
	s.i++
	return v, nil
}

// countingSource returns "0001", "0002", ... forever
type countingSource struct{ n int }

func (s *countingSource) DrawNext() (string, error) {
	s.n++
	return fmt.Sprintf("%04d", s.n), nil
}

// manualScheduler is a deterministic Scheduler and Clock for tests.
// Time only advances when a timer is fired.
type manualScheduler struct {
	base   time.Time
	now    time.Duration
	queue  []func()
	timers []*manualTimer
}

type manualTimer struct {
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{base: time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)}
}

func (s *manualScheduler) Now() time.Time { return s.base.Add(s.now) }

func (s *manualScheduler) Post(fn func()) { s.queue = append(s.queue, fn) }

func (s *manualScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	t := &manualTimer{at: s.now + d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// drain runs every posted function, including ones posted while draining
func (s *manualScheduler) drain() {
	for len(s.queue) > 0 {
		fn := s.queue[0]
		s.queue = s.queue[1:]
		fn()
	}
}

func (s *manualScheduler) pending() []*manualTimer {
	var out []*manualTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].at < out[j].at })
	return out
}

// step drains the queue then fires the earliest pending timer. It reports false when nothing is left.
func (s *manualScheduler) step() bool {
	s.drain()
	timers := s.pending()
	if len(timers) == 0 {
		return false
	}
	t := timers[0]
	s.now = t.at
	t.fired = true
	s.Post(t.fn)
	s.drain()
	return true
}

// runUntilIdle steps until no work is left or max timers have fired, returning the number fired
func (s *manualScheduler) runUntilIdle(max int) int {
	n := 0
	for n < max && s.step() {
		n++
	}
	return n
}

// memoryStore is an in-memory SettingsStore
type memoryStore struct {
	lastMax   int
	hasMax    bool
	blacklist map[int]struct{}
	err       error
	calls     int
}

func newMemoryStore() *memoryStore { return &memoryStore{blacklist: map[int]struct{}{}} }

func (m *memoryStore) SaveLastMax(_ context.Context, max int) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.lastMax, m.hasMax = max, true
	return nil
}

func (m *memoryStore) LoadLastMax(context.Context) (int, bool, error) {
	m.calls++
	if m.err != nil {
		return 0, false, m.err
	}
	return m.lastMax, m.hasMax, nil
}

func (m *memoryStore) LoadBlacklist(context.Context) ([]int, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]int, 0, len(m.blacklist))
	for n := range m.blacklist {
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

func (m *memoryStore) AddToBlacklist(_ context.Context, numbers ...int) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	for _, n := range numbers {
		m.blacklist[n] = struct{}{}
	}
	return nil
}
