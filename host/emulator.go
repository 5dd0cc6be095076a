// Package host implements the runtime loop that drives a CHIP-8 class
// machine: input aggregation, cycle pacing, audio gating and ROM loading.
//
// The machine itself is opaque to this package. It is reached only through
// the Emulator interface, and a fresh Emulator is built by a Factory every
// time a ROM is loaded.
package host

import (
	"hash/crc32"
	"image"
	"image/color"
)

// Display dimensions of the machine.
const (
	Width  = 64
	Height = 32
)

// Frame is a monochrome frame buffer, row major.
type Frame [Width * Height]bool

func (f *Frame) At(x, y int) bool { return f[y*Width+x] }

func (f *Frame) Set(x, y int, on bool) { f[y*Width+x] = on }

// RGBA projects the frame through the given colors.
func (f *Frame) RGBA(c ColorPair) *image.RGBA {
	m := image.NewRGBA(image.Rect(0, 0, Width, Height))
	for i, on := range f {
		px := c.BG
		if on {
			px = c.FG
		}
		p := m.Pix[i*4 : i*4+4]
		p[0], p[1], p[2], p[3] = px.R, px.G, px.B, 0xff
	}
	return m
}

// Sum returns the CRC-32 of the frame projected through c.
func (f *Frame) Sum(c ColorPair) uint32 {
	return crc32.ChecksumIEEE(f.RGBA(c).Pix)
}

// Input is the per-tick input snapshot handed to an Emulator.
type Input struct {
	Keys Keys

	// Released is the key released since the previous tick.
	// It is only meaningful when HasReleased is set.
	Released    Key
	HasReleased bool
}

// Budget is the amount of work requested from one Step.
type Budget struct {
	Cycles int // instructions to execute
	Ticks  int // 60 Hz timer decrements to apply
}

// Output is the result of one Step.
type Output struct {
	Frame *Frame
	Sound bool // sound timer active
}

// Emulator is the machine facade. Step must depend only on the receiver's
// own state and its arguments.
type Emulator interface {
	Step(in Input, b Budget) Output
}

// Factory builds a fresh Emulator for a ROM. No state carries over between
// the values it returns.
type Factory func(rom []byte) Emulator

// RenderSink receives every frame produced by a scheduler.
type RenderSink interface {
	Render(f *Frame, c ColorPair)
}

// ColorPair holds the foreground and background colors used by render sinks.
type ColorPair struct {
	FG, BG color.RGBA
}
