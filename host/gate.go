package host

import (
	"log"
	"math"
	"sync"
	"sync/atomic"
)

// AudioSink is an audio output with two independent gains that are
// multiplied together at the point of output.
type AudioSink interface {
	// Start begins playback. It is called at most once.
	Start() error
	// SetControl sets the on/off gain driven by the sound timer.
	SetControl(g float64)
	// SetVolume sets the user volume gain.
	SetVolume(g float64)
}

// Gate derives the audible signal from the machine's sound flag.
//
// The sink is started lazily, once, when Arm is first called. Arm should
// follow a user action, since hosts may refuse to start audio before one.
type Gate struct {
	sink AudioSink

	once    sync.Once
	armed   atomic.Bool
	started atomic.Bool

	control atomic.Uint64 // float64 bits
	volume  atomic.Uint64
}

// NewGate returns a gate over sink. A nil sink gives a silent gate.
func NewGate(sink AudioSink, volume float64) *Gate {
	g := &Gate{sink: sink}
	g.SetVolume(volume)
	return g
}

// Arm starts the sink on the first call and does nothing afterwards.
// A sink that fails to start is logged and the gate stays silent.
func (g *Gate) Arm() {
	g.once.Do(func() {
		g.armed.Store(true)
		if g.sink == nil {
			return
		}
		if err := g.sink.Start(); err != nil {
			log.Printf("audio: %v", err)
			return
		}
		g.started.Store(true)
		g.sink.SetVolume(g.Volume())
		g.sink.SetControl(g.Control())
	})
}

// Armed reports whether Arm has been called.
func (g *Gate) Armed() bool { return g.armed.Load() }

// Started reports whether the sink is playing.
func (g *Gate) Started() bool { return g.started.Load() }

// SetSound sets the control gain from the sound flag. Before the sink
// has started only the stored gain changes.
func (g *Gate) SetSound(on bool) {
	v := 0.0
	if on {
		v = 1
	}
	g.control.Store(math.Float64bits(v))
	if g.started.Load() {
		g.sink.SetControl(v)
	}
}

// SetVolume sets the volume gain, clamped to [0, 1].
func (g *Gate) SetVolume(v float64) {
	v = clamp(v, 0, 1)
	g.volume.Store(math.Float64bits(v))
	if g.started.Load() {
		g.sink.SetVolume(v)
	}
}

func (g *Gate) Control() float64 { return math.Float64frombits(g.control.Load()) }

func (g *Gate) Volume() float64 { return math.Float64frombits(g.volume.Load()) }

// Amplitude is the audible amplitude: zero until the sink has started,
// then volume times control.
func (g *Gate) Amplitude() float64 {
	if !g.started.Load() {
		return 0
	}
	return g.Volume() * g.Control()
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v), v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
