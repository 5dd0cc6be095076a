package host

import (
	"errors"
	"sync"
)

// fakeEmulator records every Step call.
type fakeEmulator struct {
	rom []byte

	mu      sync.Mutex
	inputs  []Input
	budgets []Budget
	frame   Frame
	sound   bool

	onStep func(n int) // called after recording, with the call count
}

func (e *fakeEmulator) Step(in Input, b Budget) Output {
	e.mu.Lock()
	e.inputs = append(e.inputs, in)
	e.budgets = append(e.budgets, b)
	n, f, s := len(e.inputs), e.onStep, e.sound
	e.frame.Set(0, 0, n%2 == 1)
	frame := e.frame
	e.mu.Unlock()
	if f != nil {
		f(n)
	}
	return Output{Frame: &frame, Sound: s}
}

func (e *fakeEmulator) calls() ([]Input, []Budget) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Input(nil), e.inputs...), append([]Budget(nil), e.budgets...)
}

// fakeFactory builds fakeEmulators and keeps them in order.
type fakeFactory struct {
	mu   sync.Mutex
	emus []*fakeEmulator
}

func (f *fakeFactory) New(rom []byte) Emulator {
	e := &fakeEmulator{rom: rom}
	f.mu.Lock()
	f.emus = append(f.emus, e)
	f.mu.Unlock()
	return e
}

func (f *fakeFactory) last() *fakeEmulator {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.emus) == 0 {
		return nil
	}
	return f.emus[len(f.emus)-1]
}

// countSink counts Render calls.
type countSink struct {
	mu     sync.Mutex
	n      int
	colors ColorPair
}

func (s *countSink) Render(f *Frame, c ColorPair) {
	s.mu.Lock()
	s.n++
	s.colors = c
	s.mu.Unlock()
}

func (s *countSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

// fakeAudio is an AudioSink that records its gains.
type fakeAudio struct {
	Tone
	mu     sync.Mutex
	starts int
	err    error
}

func (a *fakeAudio) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.starts++
	return a.err
}

var errNoDevice = errors.New("no audio device")
