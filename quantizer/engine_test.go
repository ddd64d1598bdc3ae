package quantizer

import (
	"math"
	"testing"
)

const dt = 1.0 / 48000

type fakeRack struct {
	key, scale int
	keyIn      *float64
	scaleIn    *float64
	transIn    float64
	trans      float64
	shift      [DefaultLanes]float64
	cv         [DefaultLanes][]float64
	hold       [DefaultLanes][]float64
}

func (r *fakeRack) KeyInput() (float64, bool) {
	if r.keyIn == nil {
		return 0, false
	}
	return *r.keyIn, true
}

func (r *fakeRack) ScaleInput() (float64, bool) {
	if r.scaleIn == nil {
		return 0, false
	}
	return *r.scaleIn, true
}

func (r *fakeRack) TransposeInput() float64   { return r.transIn }
func (r *fakeRack) Key() int                  { return r.key }
func (r *fakeRack) Scale() int                { return r.scale }
func (r *fakeRack) Transpose() float64        { return r.trans }
func (r *fakeRack) Shift(lane int) float64    { return r.shift[lane] }
func (r *fakeRack) CVChannels(lane int) int   { return len(r.cv[lane]) }
func (r *fakeRack) HoldChannels(lane int) int { return len(r.hold[lane]) }

func (r *fakeRack) CV(lane, ch int) float64 {
	if ch >= len(r.cv[lane]) {
		return 0
	}
	return r.cv[lane][ch]
}

func (r *fakeRack) Hold(lane, ch int) float64 {
	if ch >= len(r.hold[lane]) {
		return 0
	}
	return r.hold[lane][ch]
}

func run(e *Engine, r *fakeRack, n int) {
	for i := 0; i < n; i++ {
		e.Process(r, dt)
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestHoldNeverRisesKeepsDefault(t *testing.T) {
	e := NewEngine(DefaultLanes, nil)
	r := &fakeRack{}
	r.cv[0] = []float64{0.25, 0.5, 1, -0.5}
	r.hold[0] = []float64{0}

	for i := 0; i < 500; i++ {
		r.cv[0][1] = float64(i%7) / 12
		e.Process(r, dt)
		lane := e.Lane(0)
		if lane.Channels() != 4 {
			t.Fatalf("channels = %d, want 4", lane.Channels())
		}
		for ch := 0; ch < 4; ch++ {
			if lane.Output(ch) != 0 {
				t.Fatalf("sample %d ch %d: output %v, want held default 0", i, ch, lane.Output(ch))
			}
			if lane.Trigger(ch) != 0 {
				t.Fatalf("sample %d ch %d: unexpected trigger", i, ch)
			}
		}
	}
}

func TestSharedHoldSamplesAllChannels(t *testing.T) {
	e := NewEngine(DefaultLanes, nil)
	r := &fakeRack{}
	r.cv[0] = []float64{0.25, 0.5, 1, -0.5}
	r.hold[0] = []float64{0}
	run(e, r, 10)

	r.hold[0][0] = 10
	e.Process(r, dt)
	lane := e.Lane(0)
	for ch, want := range r.cv[0] {
		if lane.Output(ch) != want {
			t.Errorf("ch %d: output %v, want %v", ch, lane.Output(ch), want)
		}
		if lane.Trigger(ch) != 10 {
			t.Errorf("ch %d: trigger should fire on a changed pitch", ch)
		}
	}

	// no new edge while the gate stays high
	r.cv[0][0] = 0.75
	run(e, r, 200)
	if lane.Output(0) != 0.25 {
		t.Errorf("held pitch moved without an edge: %v", lane.Output(0))
	}
	if lane.Trigger(0) != 0 {
		t.Error("trigger pulse should have ended")
	}
}

func TestFanOutFromSingleCV(t *testing.T) {
	e := NewEngine(DefaultLanes, nil)
	r := &fakeRack{}
	r.cv[0] = []float64{0.5}
	r.hold[0] = []float64{0, 0, 0}
	run(e, r, 10)

	r.hold[0][2] = 10
	e.Process(r, dt)
	lane := e.Lane(0)
	if lane.Channels() != 3 {
		t.Fatalf("channels = %d, want 3", lane.Channels())
	}
	if lane.Output(2) != 0.5 {
		t.Errorf("ch 2: output %v, want 0.5 from CV 0", lane.Output(2))
	}
	if lane.Trigger(2) != 10 {
		t.Error("ch 2 should trigger")
	}
	for ch := 0; ch < 2; ch++ {
		if lane.Output(ch) != 0 || lane.Trigger(ch) != 0 {
			t.Errorf("ch %d changed without its own edge", ch)
		}
	}
}

func TestPerChannelHold(t *testing.T) {
	e := NewEngine(DefaultLanes, nil)
	r := &fakeRack{}
	r.cv[0] = []float64{0.25, 0.5}
	r.hold[0] = []float64{0, 0}
	run(e, r, 10)

	r.hold[0][1] = 10
	e.Process(r, dt)
	lane := e.Lane(0)
	if lane.Output(0) != 0 || lane.Output(1) != 0.5 {
		t.Errorf("outputs %v %v, want 0 0.5", lane.Output(0), lane.Output(1))
	}
}

func TestLiveTrackingWithoutHold(t *testing.T) {
	e := NewEngine(DefaultLanes, nil)
	r := &fakeRack{}
	r.cv[0] = []float64{0.25}
	e.Process(r, dt)
	lane := e.Lane(0)
	if lane.Output(0) != 0.25 || lane.Trigger(0) != 10 {
		t.Fatalf("output %v trigger %v", lane.Output(0), lane.Trigger(0))
	}
	run(e, r, 200)

	// jitter inside one semitone does not retrigger
	r.cv[0][0] = 0.25 + 0.2/12
	e.Process(r, dt)
	if lane.Output(0) != 0.25 || lane.Trigger(0) != 0 {
		t.Errorf("jitter: output %v trigger %v", lane.Output(0), lane.Trigger(0))
	}

	r.cv[0][0] = 0.5
	e.Process(r, dt)
	if lane.Output(0) != 0.5 || lane.Trigger(0) != 10 {
		t.Errorf("change: output %v trigger %v", lane.Output(0), lane.Trigger(0))
	}
}

func TestLanesAreIndependent(t *testing.T) {
	e := NewEngine(DefaultLanes, nil)
	r := &fakeRack{}
	r.cv[3] = []float64{1}
	r.shift[3] = -2
	e.Process(r, dt)
	if got := e.Lane(3).Output(0); got != -1 {
		t.Errorf("lane 3 output %v, want -1", got)
	}
	for i := 0; i < DefaultLanes; i++ {
		if i != 3 && e.Lane(i).Channels() != 0 {
			t.Errorf("lane %d has %d channels", i, e.Lane(i).Channels())
		}
	}
}

func TestShiftAndTransposition(t *testing.T) {
	e := NewEngine(DefaultLanes, nil)
	r := &fakeRack{}
	r.cv[0] = []float64{0.5}
	r.shift[0] = 1
	r.trans = 2
	r.transIn = 0.4
	e.Process(r, dt)
	// 2.4 semitones quantizes to 2
	want := 0.5 + 1 + 2.0/12
	if got := e.Lane(0).Output(0); !near(got, want) {
		t.Errorf("output %v, want %v", got, want)
	}

	// transposition does not change the held pitch and so never triggers
	run(e, r, 200)
	r.trans = -3
	r.transIn = 0
	e.Process(r, dt)
	if got := e.Lane(0).Output(0); !near(got, 0.5+1-3.0/12) {
		t.Errorf("output %v after transposing down", got)
	}
	if e.Lane(0).Trigger(0) != 0 {
		t.Error("transposition alone should not trigger")
	}
}

type countingTable struct {
	*DefaultTable
	calls int
}

func (c *countingTable) Quantize(v float64, root, scale int) float64 {
	c.calls++
	return c.DefaultTable.Quantize(v, root, scale)
}

func TestTranspositionCache(t *testing.T) {
	table := &countingTable{DefaultTable: NewDefaultTable()}
	e := NewEngine(DefaultLanes, table)
	r := &fakeRack{trans: 3}

	run(e, r, 10)
	if table.calls != 1 {
		t.Fatalf("calls = %d, want 1 for an unchanged transposition", table.calls)
	}

	r.trans = 4
	run(e, r, 10)
	if table.calls != 2 {
		t.Fatalf("calls = %d, want 2 after a change", table.calls)
	}

	// zero skips the lookup entirely
	r.trans = 0
	run(e, r, 10)
	if table.calls != 2 {
		t.Fatalf("calls = %d, zero transposition should not quantize", table.calls)
	}

	r.trans = 4
	run(e, r, 10)
	if table.calls != 2 {
		t.Errorf("calls = %d, returning to the cached value should not quantize", table.calls)
	}
}

func TestLightsFollowRootAndScale(t *testing.T) {
	e := NewEngine(DefaultLanes, nil)
	r := &fakeRack{key: 4, scale: ScaleDorian}
	e.Process(r, dt)
	for i := 0; i < Notes; i++ {
		want := 0.0
		if i == 4 {
			want = 10
		}
		if e.KeyLight(i) != want {
			t.Errorf("key light %d = %v, want %v", i, e.KeyLight(i), want)
		}
	}
	if e.ScaleLight(ScaleDorian) != 10 || e.ScaleLight(ScaleChromatic) != 0 {
		t.Error("scale light should mark Dorian")
	}

	// unchanged root and scale leave the lights alone
	e.keyLights[0] = 3
	e.Process(r, dt)
	if e.KeyLight(0) != 3 {
		t.Error("lights were recomputed without a change")
	}

	v := 7.0 / 12
	r.keyIn = &v
	e.Process(r, dt)
	if e.Root() != 7 || e.KeyLight(7) != 10 || e.KeyLight(4) != 0 || e.KeyLight(0) != 0 {
		t.Errorf("key input should move the light to 7, root %d", e.Root())
	}

	sv := 10.0
	r.scaleIn = &sv
	e.Process(r, dt)
	if e.Scale() != ScaleCount-1 || e.ScaleLight(ScaleCount-1) != 10 || e.ScaleLight(ScaleDorian) != 0 {
		t.Errorf("scale input should select the last scale, got %d", e.Scale())
	}
}

func TestRootAndScaleAreClamped(t *testing.T) {
	e := NewEngine(DefaultLanes, nil)
	r := &fakeRack{key: 30, scale: -4}
	e.Process(r, dt)
	if e.Root() != Notes-1 || e.Scale() != 0 {
		t.Errorf("root %d scale %d", e.Root(), e.Scale())
	}
}

func TestChannelCountBounded(t *testing.T) {
	e := NewEngine(1, nil)
	r := &fakeRack{}
	r.cv[0] = make([]float64, 20)
	e.Process(r, dt)
	if got := e.Lane(0).Channels(); got != MaxChannels {
		t.Errorf("channels = %d, want %d", got, MaxChannels)
	}
	if e.Lanes() != 1 || e.Lane(1) != nil {
		t.Error("engine should have exactly one lane")
	}
}

func TestResetClearsLanes(t *testing.T) {
	e := NewEngine(DefaultLanes, nil)
	r := &fakeRack{}
	r.cv[0] = []float64{1}
	e.Process(r, dt)
	e.Reset()
	if e.Lane(0).Output(0) != 0 || e.Lane(0).Channels() != 0 {
		t.Error("reset should clear lane state")
	}
}

func TestEngineProcessDoesNotAllocate(t *testing.T) {
	e := NewEngine(DefaultLanes, nil)
	r := &fakeRack{trans: 1}
	for i := range r.cv {
		r.cv[i] = []float64{0.1, 0.2, 0.3, 0.4}
		r.hold[i] = []float64{0, 10}
	}
	allocs := testing.AllocsPerRun(100, func() {
		e.Process(r, dt)
	})
	if allocs != 0 {
		t.Errorf("Process allocated %.1f times per run", allocs)
	}
}
