package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"golang.org/x/image/draw"

	"github.com/nf/c8/host"
)

// samplesPerFrame is the amount of audio recorded per frame.
const samplesPerFrame = host.SampleRate / host.FrameRate

// keyEvent presses or releases a key before the given frame.
type keyEvent struct {
	frame int
	key   host.Key
	down  bool
}

// parseKeyScript parses a comma separated list of frame:+K and frame:-K
// items, where K is a hexadecimal key. The events are returned in frame
// order; events for the same frame keep their written order.
func parseKeyScript(s string) ([]keyEvent, error) {
	var evs []keyEvent
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		f, k, ok := strings.Cut(item, ":")
		if !ok || len(k) != 2 || (k[0] != '+' && k[0] != '-') {
			return nil, fmt.Errorf("key script: bad item %q", item)
		}
		frame, err := strconv.Atoi(f)
		if err != nil || frame < 0 {
			return nil, fmt.Errorf("key script: bad frame in %q", item)
		}
		key, err := strconv.ParseUint(k[1:], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("key script: bad key in %q", item)
		}
		evs = append(evs, keyEvent{frame: frame, key: host.Key(key), down: k[0] == '+'})
	}
	sort.SliceStable(evs, func(i, j int) bool { return evs[i].frame < evs[j].frame })
	return evs, nil
}

// wavSink records the tone instead of playing it.
type wavSink struct {
	host.Tone
	samples []int
}

func (s *wavSink) Start() error { return nil }

// record appends one frame's worth of audio at the current gains.
func (s *wavSink) record() {
	s.samples = append(s.samples, s.Tone.Samples(samplesPerFrame)...)
}

// headless runs the machine without a window for a fixed number of
// frames and reports the final display.
type headless struct {
	r       *host.Runner
	frame   *host.SharedFrame
	cadence *host.ManualCadence // nil in Background mode
	audio   *wavSink            // nil when no audio is recorded

	frames int
	keys   []keyEvent
	png    string
	wav    string
}

// Run plays the key script over h.frames frames, writes the requested
// files and prints the CRC-32 of the final display.
func (h *headless) Run() error {
	evs := h.keys
	for i := 0; i < h.frames; i++ {
		for len(evs) > 0 && evs[0].frame <= i {
			if evs[0].down {
				h.r.Press(evs[0].key)
			} else {
				h.r.Release(evs[0].key)
			}
			evs = evs[1:]
		}
		if h.cadence != nil {
			h.cadence.Fire()
		} else {
			time.Sleep(host.FramePeriod)
		}
		if h.audio != nil {
			h.audio.record()
		}
	}
	h.r.Close()

	f, colors, _ := h.frame.Latest()
	if h.png != "" {
		if err := writePNG(h.png, &f, colors, guiScale); err != nil {
			return err
		}
	}
	if h.wav != "" && h.audio != nil {
		if err := writeWAV(h.wav, h.audio.samples); err != nil {
			return err
		}
	}
	fmt.Printf("%08x\n", f.Sum(colors))
	return nil
}

func (h *headless) Quit() {}

// writePNG writes f scaled up by scale to the named file.
func writePNG(name string, f *host.Frame, c host.ColorPair, scale int) error {
	src := f.RGBA(c)
	dst := image.NewRGBA(image.Rect(0, 0, host.Width*scale, host.Height*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := png.Encode(out, dst); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// writeWAV writes mono 16-bit samples to the named file.
func writeWAV(name string, samples []int) error {
	out, err := os.Create(name)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(out, host.SampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: host.SampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		out.Close()
		return fmt.Errorf("wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		out.Close()
		return fmt.Errorf("wav: %w", err)
	}
	return out.Close()
}
