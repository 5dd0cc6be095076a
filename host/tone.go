package host

import (
	"encoding/binary"
	"math"
	"sync/atomic"
)

// Audio format produced by Tone: signed 16-bit little-endian stereo.
const (
	SampleRate   = 44100
	ToneHz       = 440
	bytesPerTick = 4
)

// Tone is a square wave oscillator whose output is scaled by a control
// gain and a volume gain. Its Read method is called from the audio
// goroutine while the gains are set from elsewhere.
//
// Tone implements every AudioSink method except Start; audio back ends
// embed it and supply their own Start.
type Tone struct {
	control atomic.Uint64 // float64 bits
	volume  atomic.Uint64
	phase   int
}

func (t *Tone) SetControl(g float64) { t.control.Store(math.Float64bits(clamp(g, 0, 1))) }

func (t *Tone) SetVolume(g float64) { t.volume.Store(math.Float64bits(clamp(g, 0, 1))) }

// Amplitude is the product of the two gains.
func (t *Tone) Amplitude() float64 {
	return math.Float64frombits(t.control.Load()) * math.Float64frombits(t.volume.Load())
}

// Read fills p with whole stereo frames. It never returns an error.
func (t *Tone) Read(p []byte) (int, error) {
	const half = SampleRate / ToneHz / 2
	if len(p) < bytesPerTick {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	var (
		n   = len(p) / bytesPerTick * bytesPerTick
		amp = int16(t.Amplitude() * math.MaxInt16 / 4)
	)
	for i := 0; i < n; i += bytesPerTick {
		v := amp
		if t.phase >= half {
			v = -amp
		}
		t.phase = (t.phase + 1) % (2 * half)
		binary.LittleEndian.PutUint16(p[i:], uint16(v))
		binary.LittleEndian.PutUint16(p[i+2:], uint16(v))
	}
	return n, nil
}

// Samples renders n mono samples at the current gains, for recorders
// that pull audio at their own rate.
func (t *Tone) Samples(n int) []int {
	buf := make([]byte, n*bytesPerTick)
	t.Read(buf)
	s := make([]int, n)
	for i := range s {
		s[i] = int(int16(binary.LittleEndian.Uint16(buf[i*bytesPerTick:])))
	}
	return s
}
