package host

import (
	"sync"
	"time"
)

// FrameRate is the nominal render cadence in frames per second.
const (
	FrameRate   = 60
	FramePeriod = time.Second / FrameRate
)

// Cadence schedules work to run after the next display refresh.
type Cadence interface {
	// Next arranges for fn to run once. The returned cancel func prevents
	// fn from running if it has not started yet.
	Next(fn func()) (cancel func())
}

// ManualCadence holds at most one pending callback until Fire is called,
// typically from a host render callback such as ebiten's Update.
type ManualCadence struct {
	mu      sync.Mutex
	pending func()
	seq     uint64
}

func (c *ManualCadence) Next(fn func()) func() {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.pending = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		if c.seq == seq {
			c.pending = nil
		}
		c.mu.Unlock()
	}
}

// Fire runs the pending callback, if any, and reports whether it ran.
// The callback is removed before it runs so that it may schedule itself.
func (c *ManualCadence) Fire() bool {
	c.mu.Lock()
	fn := c.pending
	c.pending = nil
	c.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// TickerCadence runs callbacks on a timer, Period after they are scheduled.
type TickerCadence struct {
	Period time.Duration // FramePeriod if zero
}

func (c TickerCadence) Next(fn func()) func() {
	d := c.Period
	if d <= 0 {
		d = FramePeriod
	}
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// FrameScheduler is the foreground scheduler. Each activation samples the
// keypad, advances the machine by a budget derived from the clock rate,
// renders the frame, updates the audio gate and schedules the next
// activation. Emulation is coupled 1:1 to the cadence: if the cadence
// stalls, so does the machine.
type FrameScheduler struct {
	emu      Emulator
	keypad   *Keypad
	settings *Settings
	sink     RenderSink
	gate     *Gate
	cadence  Cadence

	mu      sync.Mutex
	running bool
	gen     uint64 // incremented by Start; stale callbacks see a different value
	cancel  func()
	carry   float64 // cycles owed, scaled by FrameRate
	frames  uint64
}

// NewFrameScheduler returns an idle scheduler that owns emu.
func NewFrameScheduler(emu Emulator, kp *Keypad, s *Settings, sink RenderSink, g *Gate, c Cadence) *FrameScheduler {
	return &FrameScheduler{
		emu:      emu,
		keypad:   kp,
		settings: s,
		sink:     sink,
		gate:     g,
		cadence:  c,
	}
}

// Start moves the scheduler from Idle to Running and schedules the first
// activation. Starting a running scheduler does nothing.
func (f *FrameScheduler) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return
	}
	f.running = true
	f.gen++
	f.schedule()
}

func (f *FrameScheduler) schedule() {
	gen := f.gen
	f.cancel = f.cadence.Next(func() { f.activate(gen) })
}

// Stop cancels the pending activation and returns the scheduler to Idle.
// It waits for an activation in progress to finish; a callback that
// fires afterwards does nothing.
func (f *FrameScheduler) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return
	}
	f.running = false
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

func (f *FrameScheduler) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// Frames returns the number of completed activations.
func (f *FrameScheduler) Frames() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames
}

func (f *FrameScheduler) activate(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running || gen != f.gen {
		return
	}
	// A step with no cycles only ticks the timers. It cannot consume a
	// release edge, so the edge stays pending for the next step that can.
	b := f.budget()
	in := Input{Keys: f.keypad.Keys()}
	if b.Cycles > 0 {
		in = f.keypad.Snapshot()
	}
	out := f.emu.Step(in, b)
	if out.Frame != nil {
		f.sink.Render(out.Frame, f.settings.Colors())
	}
	if f.gate != nil {
		f.gate.SetSound(out.Sound)
	}
	f.frames++
	f.schedule()
}

// budget converts the current clock rate, read once, into a cycle count
// for one frame. The remainder carries into the next frame, so integral
// rates are met exactly over each second.
func (f *FrameScheduler) budget() Budget {
	f.carry += f.settings.Clock()
	cycles := int(f.carry / FrameRate)
	f.carry -= float64(cycles * FrameRate)
	return Budget{Cycles: cycles, Ticks: 1}
}
