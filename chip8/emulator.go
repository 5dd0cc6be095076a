package chip8

import (
	"log"

	"github.com/nf/c8/host"
)

// Emulator drives a Machine as a host.Emulator.
//
// Faults do not stop the machine: the faulting instruction is skipped and
// execution continues. The first fault is logged.
type Emulator struct {
	m      *Machine
	frame  host.Frame
	faults int
}

// New is a host.Factory for Emulators.
func New(rom []byte) host.Emulator { return NewEmulator(rom) }

// NewEmulator returns an Emulator for a fresh Machine loaded with rom.
// A rom longer than the program space is truncated, which is logged.
func NewEmulator(rom []byte) *Emulator {
	if n := len(rom); n > MaxProgram {
		log.Printf("chip8: program is %d bytes, only the first %d fit in memory", n, MaxProgram)
	}
	return &Emulator{m: NewMachine(rom)}
}

// Step applies the input, ticks the timers b.Ticks times and executes
// b.Cycles instructions. The release edge is visible to this step only.
// The returned frame is valid until the next call to Step.
func (e *Emulator) Step(in host.Input, b host.Budget) host.Output {
	m := e.m
	m.Keys = in.Keys
	m.Released, m.HasReleased = in.Released, in.HasReleased
	for i := 0; i < b.Ticks; i++ {
		m.Tick()
	}
	for i := 0; i < b.Cycles; i++ {
		if err := m.Exec(); err != nil {
			if e.faults == 0 {
				log.Printf("chip8: %v", err)
			}
			e.faults++
		}
	}
	m.HasReleased = false
	e.frame = m.Display
	return host.Output{Frame: &e.frame, Sound: m.Sound()}
}

// Faults returns the number of faults so far.
func (e *Emulator) Faults() int { return e.faults }

// Machine returns the underlying machine. It must not be used while
// another goroutine calls Step.
func (e *Emulator) Machine() *Machine { return e.m }
