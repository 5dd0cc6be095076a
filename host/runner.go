package host

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"
)

// Mode selects the scheduling model used by a Runner.
type Mode int

const (
	Foreground Mode = iota // FrameScheduler driven by a Cadence
	Background             // Worker on its own goroutine
)

func (m Mode) String() string {
	if m == Background {
		return "background"
	}
	return "foreground"
}

// Config describes a Runner.
type Config struct {
	Factory Factory    // required
	Sink    RenderSink // required
	Audio   AudioSink  // nil for silence

	Mode       Mode
	Cadence    Cadence   // Foreground only; TickerCadence{} if nil
	Settings   *Settings // NewSettings() if nil
	WorkerUnit int       // Background only; DefaultUnit if zero
}

// Runner owns the keypad, the audio gate, the settings and the one active
// scheduler. Every ROM load replaces the scheduler and the machine.
type Runner struct {
	cfg      Config
	keypad   *Keypad
	gate     *Gate
	settings *Settings

	mu     sync.Mutex
	frame  *FrameScheduler
	worker *Worker
	cancel context.CancelFunc
	done   chan struct{}
	rom    []byte
	loads  int
}

func NewRunner(cfg Config) *Runner {
	if cfg.Cadence == nil {
		cfg.Cadence = TickerCadence{}
	}
	if cfg.Settings == nil {
		cfg.Settings = NewSettings()
	}
	if cfg.WorkerUnit <= 0 {
		cfg.WorkerUnit = DefaultUnit
	}
	return &Runner{
		cfg:      cfg,
		keypad:   &Keypad{},
		gate:     NewGate(cfg.Audio, cfg.Settings.Volume()),
		settings: cfg.Settings,
	}
}

// Load stops the active scheduler, builds a fresh machine for rom and
// starts a new scheduler for it. An empty or oversize rom is replaced by
// the Fallback program, which Load reports. When user is set the load
// counts as a user action and arms the audio gate.
func (r *Runner) Load(rom []byte, user bool) (fallback bool) {
	n := len(rom)
	rom, fallback = LoadROM(rom)
	if fallback {
		log.Printf("rom: cannot load %d bytes, using fallback program", n)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.stop()
	r.keypad.Reset()
	r.rom = rom

	emu := r.cfg.Factory(rom)
	switch r.cfg.Mode {
	case Background:
		w := NewWorker(emu, r.cfg.Sink, r.settings)
		w.Unit = r.cfg.WorkerUnit
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			w.Run(ctx)
		}()
		r.worker, r.cancel, r.done = w, cancel, done
	default:
		r.frame = NewFrameScheduler(emu, r.keypad, r.settings, r.cfg.Sink, r.gate, r.cfg.Cadence)
		r.frame.Start()
	}
	r.loads++

	if user {
		r.gate.Arm()
	}
	return fallback
}

// Reset loads the current ROM again into a fresh machine.
// It does nothing if no ROM has been loaded.
func (r *Runner) Reset(user bool) {
	r.mu.Lock()
	rom := r.rom
	r.mu.Unlock()
	if rom != nil {
		r.Load(rom, user)
	}
}

// LoadSource loads a ROM from a file name or an http(s) URL. A source
// that cannot be read is logged and the Fallback program loaded instead.
func (r *Runner) LoadSource(ctx context.Context, src string, user bool) (fallback bool) {
	var (
		rom []byte
		err error
	)
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		rom, err = FetchROM(ctx, src)
	} else {
		rom, err = ReadROM(src)
	}
	if err != nil {
		log.Printf("rom: %v", err)
	}
	return r.Load(rom, user)
}

// stop cancels the active scheduler and, for a worker, waits for its
// goroutine to return. It must be called with r.mu held.
func (r *Runner) stop() {
	if r.frame != nil {
		r.frame.Stop()
		r.frame = nil
	}
	if r.cancel != nil {
		r.cancel()
		<-r.done
		r.worker, r.cancel, r.done = nil, nil, nil
	}
}

// Close stops the active scheduler. The gate and its sink are left as
// they are.
func (r *Runner) Close() {
	r.mu.Lock()
	r.stop()
	r.mu.Unlock()
}

// Press presses k. In Background mode the new keypad snapshot is posted
// to the worker.
func (r *Runner) Press(k Key) {
	r.keypad.Press(k)
	r.post()
}

// Release releases k. In Background mode the new keypad snapshot is
// posted to the worker.
func (r *Runner) Release(k Key) {
	r.keypad.Release(k)
	r.post()
}

// ReleaseAll releases every held key, as when the window loses focus.
func (r *Runner) ReleaseAll() {
	r.keypad.ReleaseAll()
	r.post()
}

func (r *Runner) post() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.worker != nil {
		r.worker.Send(r.keypad.Snapshot())
	}
}

func (r *Runner) SetClock(hz float64) { r.settings.SetClock(hz) }

func (r *Runner) SetColors(c ColorPair) { r.settings.SetColors(c) }

// SetVolume sets the volume in the settings and on the audio gate.
func (r *Runner) SetVolume(v float64) {
	r.settings.SetVolume(v)
	r.gate.SetVolume(r.settings.Volume())
}

// Frames returns the activations completed by the current foreground
// scheduler, or zero in Background mode.
func (r *Runner) Frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frame == nil {
		return 0
	}
	return r.frame.Frames()
}

// ROM returns the program loaded last, after validation.
func (r *Runner) ROM() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rom
}

// Loads returns the number of ROM loads so far.
func (r *Runner) Loads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads
}

func (r *Runner) Mode() Mode { return r.cfg.Mode }

func (r *Runner) Keypad() *Keypad { return r.keypad }

func (r *Runner) Gate() *Gate { return r.gate }

func (r *Runner) Settings() *Settings { return r.settings }
