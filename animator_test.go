package memberdraw

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// instantStop lands on the first deceleration tick: v(0) = 1 - 2 < 0
func instantStop() Tuning {
	tuning := DefaultTuning()
	tuning.InitialSpeed = 1
	tuning.FloorOffset = 2
	return tuning
}

func newTestAnimator(t *testing.T, source NumberSource, layout Layout, tuning Tuning, clock Clock) *ScrollAnimator {
	t.Helper()
	a, err := NewScrollAnimator(source, layout, tuning, WithClock(clock), WithAnimatorLogger(&SilentLogger{}))
	require.NoError(t, err)
	return a
}

func TestNewScrollAnimator(t *testing.T) {
	layout := Layout{Slots: 4, SlotWidth: 100, Padding: 10, Pointer: 150}
	a := newTestAnimator(t, &sequenceSource{values: []string{"A", "B", "C", "D"}}, layout, DefaultTuning(), newFakeClock())

	slots := a.Slots()
	require.Len(t, slots, 4)
	for i, want := range []Slot{{-100, "A"}, {10, "B"}, {120, "C"}, {230, "D"}} {
		assert.InDelta(t, want.Position, slots[i].Position, 1e-9)
		assert.Equal(t, want.Value, slots[i].Value)
	}
	assert.Equal(t, StateIdle, a.State())
	assert.False(t, a.Running())

	// Slots hands out a copy
	slots[0].Value = "Z"
	assert.Equal(t, "A", a.Slots()[0].Value)
}

func TestNewScrollAnimatorErrors(t *testing.T) {
	layout := Layout{Slots: 3, SlotWidth: 100, Pointer: 50}

	_, err := NewScrollAnimator(nil, layout, DefaultTuning())
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = NewScrollAnimator(&countingSource{}, Layout{Slots: 3, Pointer: 50}, DefaultTuning())
	assert.ErrorIs(t, err, ErrInvalidLayout)

	wide := DefaultTuning()
	wide.JoinerStep = 101
	_, err = NewScrollAnimator(&countingSource{}, layout, wide)
	assert.ErrorIs(t, err, ErrInvalidTuning)

	_, err = NewScrollAnimator(&sequenceSource{values: []string{"A"}}, layout, DefaultTuning())
	assert.ErrorIs(t, err, errSourceDry)
}

func TestScrollAnimator_LandsWithoutJoiner(t *testing.T) {
	// slots at -100, 0, 100, 200, 300, 400, 500: the pointer falls inside [300, 400)
	layout := Layout{Slots: 7, SlotWidth: 100, Padding: 0, Pointer: 350}
	source := &sequenceSource{values: []string{"0001", "0002", "0003", "0004", "0005", "0006", "0007"}}
	a := newTestAnimator(t, source, layout, instantStop(), newFakeClock())

	require.NoError(t, a.BeginDraw())
	assert.Equal(t, StateDecelerating, a.State())

	result, err := a.Tick()
	require.NoError(t, err)
	assert.Equal(t, StateLanded, result.State)
	assert.False(t, result.Continue)
	require.NotNil(t, result.Winner)
	assert.Equal(t, "0005", result.Winner.Value)
	assert.Equal(t, 4, result.Winner.Slot)
	assert.Zero(t, result.Winner.JoinerTicks)
	assert.False(t, result.Winner.NeededJoiner())
	assert.NoError(t, result.Winner.Validate())

	winner, ok := a.Winner()
	require.True(t, ok)
	assert.Equal(t, *result.Winner, winner)

	// further ticks are inert
	result, err = a.Tick()
	require.NoError(t, err)
	assert.False(t, result.Continue)
	assert.Nil(t, result.Winner)
}

func TestScrollAnimator_JoinerClosesGap(t *testing.T) {
	// slots at -100, 10, 120, 230, 340, ...: 335 lies in the padding between [230, 330) and [340, 440)
	layout := Layout{Slots: 7, SlotWidth: 100, Padding: 10, Pointer: 335}
	a := newTestAnimator(t, &countingSource{}, layout, instantStop(), newFakeClock())
	require.NoError(t, a.BeginDraw())

	result, err := a.Tick()
	require.NoError(t, err)
	assert.Equal(t, StateLanded, result.State)
	assert.True(t, result.Continue, "no slot under the pointer yet")
	assert.Nil(t, result.Winner)
	_, ok := a.Winner()
	assert.False(t, ok)
	assert.ErrorIs(t, a.Acknowledge(), ErrInvalidState)

	var joinerTicks int
	for result.Winner == nil {
		result, err = a.Tick()
		require.NoError(t, err)
		joinerTicks++
		require.Less(t, joinerTicks, 100)
	}

	assert.Equal(t, 5, joinerTicks)
	assert.Equal(t, "0005", result.Winner.Value)
	assert.Equal(t, 5, result.Winner.JoinerTicks)
	assert.Equal(t, 6, result.Winner.Ticks)
	assert.InDelta(t, 335, result.Winner.Position, 1e-9)
	assert.True(t, result.Winner.NeededJoiner())
	assert.False(t, result.Continue)
}

func TestScrollAnimator_WrapDrawsNewValues(t *testing.T) {
	// ring of 300 starting at -100: the first slot wraps on the first tick
	layout := Layout{Slots: 3, SlotWidth: 100, Padding: 0, Pointer: 50}
	source := &sequenceSource{values: []string{"A", "B", "C", "D", "E"}}
	a := newTestAnimator(t, source, layout, DefaultTuning(), newFakeClock())
	require.NoError(t, a.StartScrolling())

	result, err := a.Tick()
	require.NoError(t, err)
	assert.True(t, result.Continue)

	slots := a.Slots()
	assert.InDelta(t, 199, slots[0].Position, 1e-9)
	assert.Equal(t, "D", slots[0].Value)
	assert.InDelta(t, -1, slots[1].Position, 1e-9)
	assert.Equal(t, "B", slots[1].Value)
	assert.InDelta(t, 99, slots[2].Position, 1e-9)
	assert.Equal(t, "C", slots[2].Value)

	// slot 1 is next to leave the ring and takes the next value in draw order
	for i := 0; i < 100; i++ {
		_, err = a.Tick()
		require.NoError(t, err)
	}
	slots = a.Slots()
	assert.InDelta(t, 199, slots[1].Position, 1e-9)
	assert.Equal(t, "E", slots[1].Value)
}

func TestScrollAnimator_WrapsMoreThanOnce(t *testing.T) {
	layout := Layout{Slots: 3, SlotWidth: 100, Padding: 0, Pointer: 50}
	tuning := DefaultTuning()
	tuning.IdleSpeed = 650
	source := &countingSource{}
	a := newTestAnimator(t, source, layout, tuning, newFakeClock())
	require.NoError(t, a.StartScrolling())

	_, err := a.Tick()
	require.NoError(t, err)

	for _, slot := range a.Slots() {
		assert.GreaterOrEqual(t, slot.Position, layout.MinPosition())
		assert.Less(t, slot.Position, layout.MinPosition()+layout.RingWidth())
	}
	// -100-650 needs three laps, 0-650 and 100-650 need two each
	assert.Equal(t, 3+3+2+2, source.n)
}

func TestScrollAnimator_SourceErrorStops(t *testing.T) {
	layout := Layout{Slots: 3, SlotWidth: 100, Padding: 0, Pointer: 50}
	monitor := NewAnimationMonitor()
	a, err := NewScrollAnimator(&sequenceSource{values: []string{"A", "B", "C"}}, layout, DefaultTuning(),
		WithClock(newFakeClock()), WithAnimatorLogger(&SilentLogger{}), WithAnimatorMonitor(monitor))
	require.NoError(t, err)
	require.NoError(t, a.StartScrolling())

	_, err = a.Tick()
	assert.ErrorIs(t, err, errSourceDry)
	assert.False(t, a.Running())
	assert.Equal(t, int64(1), monitor.GetMetrics().Errors)

	result, err := a.Tick()
	require.NoError(t, err)
	assert.False(t, result.Continue)
}

func TestScrollAnimator_NextDelayHasFloor(t *testing.T) {
	layout := Layout{Slots: 7, SlotWidth: 100, Padding: 10, Pointer: 350}
	clock := &steppingClock{now: time.Unix(0, 0), step: 20 * time.Millisecond}
	a := newTestAnimator(t, &countingSource{}, layout, DefaultTuning(), clock)
	require.NoError(t, a.StartScrolling())

	result, err := a.Tick()
	require.NoError(t, err)
	assert.Equal(t, DefaultMinFrameDelay, result.NextDelay)

	clock.step = 5 * time.Millisecond
	result, err = a.Tick()
	require.NoError(t, err)
	assert.Equal(t, 11*time.Millisecond, result.NextDelay)
}

func TestScrollAnimator_FullDeceleration(t *testing.T) {
	layout, err := LayoutForCanvas(DefaultCanvasWidth, DefaultSlots)
	require.NoError(t, err)
	clock := newFakeClock()
	monitor := NewAnimationMonitor()
	pool, err := NewNumberPool(1, 600, nil,
		WithRandomSource(NewSeededRandomGenerator(3, 4)),
		WithPoolLogger(&SilentLogger{}))
	require.NoError(t, err)

	a, err := NewScrollAnimator(pool, layout, DefaultTuning(),
		WithClock(clock), WithAnimatorLogger(&SilentLogger{}), WithAnimatorMonitor(monitor))
	require.NoError(t, err)
	require.NoError(t, a.BeginDraw())

	var (
		result TickResult
		ticks  int
	)
	for {
		result, err = a.Tick()
		require.NoError(t, err)
		ticks++
		if !result.Continue {
			break
		}
		require.Less(t, ticks, 5000, "deceleration must terminate")
		clock.Advance(result.NextDelay)
	}

	require.NotNil(t, result.Winner)
	assert.True(t, pool.Contains(result.Winner.Value))
	assert.Equal(t, ticks, result.Winner.Ticks)
	assert.InDelta(t, DefaultTuning().DecelerationDuration().Seconds(), result.Winner.Elapsed.Seconds(), 0.5)

	slot := a.Slots()[result.Winner.Slot]
	assert.Equal(t, result.Winner.Value, slot.Value)
	assert.True(t, slot.Contains(layout.Pointer, layout.SlotWidth))

	metrics := monitor.GetMetrics()
	assert.Equal(t, int64(1), metrics.DecelerationRuns)
	assert.Equal(t, int64(1), metrics.Landings)
	assert.Equal(t, int64(ticks), metrics.Ticks)
	assert.Equal(t, int64(result.Winner.JoinerTicks), metrics.JoinerTicks)
}

func TestScrollAnimator_StateTransitions(t *testing.T) {
	layout := Layout{Slots: 7, SlotWidth: 100, Padding: 0, Pointer: 350}
	a := newTestAnimator(t, &countingSource{}, layout, instantStop(), newFakeClock())

	// idle ticks ask for nothing more
	result, err := a.Tick()
	require.NoError(t, err)
	assert.False(t, result.Continue)

	require.NoError(t, a.StartScrolling())
	require.NoError(t, a.StartScrolling())
	assert.Equal(t, StateScrolling, a.State())
	a.StopScrolling()
	assert.Equal(t, StateIdle, a.State())
	assert.False(t, a.Running())

	require.NoError(t, a.StartScrolling())
	require.NoError(t, a.BeginDraw())
	assert.ErrorIs(t, a.BeginDraw(), ErrInvalidState)
	assert.ErrorIs(t, a.StartScrolling(), ErrInvalidState)
	a.StopScrolling()
	assert.Equal(t, StateDecelerating, a.State())

	_, err = a.Tick()
	require.NoError(t, err)
	assert.Equal(t, StateLanded, a.State())
	assert.ErrorIs(t, a.BeginDraw(), ErrInvalidState)

	require.NoError(t, a.Acknowledge())
	assert.Equal(t, StateIdle, a.State())
	_, ok := a.Winner()
	assert.False(t, ok)
	assert.ErrorIs(t, a.Acknowledge(), ErrInvalidState)

	// Stop clears the flag without changing the state
	require.NoError(t, a.StartScrolling())
	a.Stop()
	assert.Equal(t, StateScrolling, a.State())
	result, err = a.Tick()
	require.NoError(t, err)
	assert.False(t, result.Continue)
}

func TestScrollAnimator_SetTuning(t *testing.T) {
	layout := Layout{Slots: 7, SlotWidth: 100, Padding: 10, Pointer: 335}
	a := newTestAnimator(t, &countingSource{}, layout, instantStop(), newFakeClock())

	faster := DefaultTuning()
	faster.IdleSpeed = 5
	require.NoError(t, a.SetTuning(faster))
	assert.Equal(t, 5.0, a.Tuning().IdleSpeed)

	bad := DefaultTuning()
	bad.JoinerStep = 0
	assert.ErrorIs(t, a.SetTuning(bad), ErrInvalidTuning)

	require.NoError(t, a.SetTuning(instantStop()))
	require.NoError(t, a.BeginDraw())
	_, err := a.Tick()
	require.NoError(t, err)
	require.Equal(t, StateLanded, a.State())

	// held while the joiner is still running
	require.NoError(t, a.SetTuning(faster))
	assert.Equal(t, instantStop(), a.Tuning())

	for a.Running() {
		_, err = a.Tick()
		require.NoError(t, err)
	}
	require.NoError(t, a.Acknowledge())
	require.NoError(t, a.BeginDraw())
	assert.Equal(t, faster, a.Tuning())
}

func TestAnimationStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "scrolling", StateScrolling.String())
	assert.Equal(t, "decelerating", StateDecelerating.String())
	assert.Equal(t, "landed", StateLanded.String())
	assert.Equal(t, "AnimationState(9)", AnimationState(9).String())
}
