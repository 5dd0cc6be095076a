package host

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
)

// Clock rate bounds and default, in cycles per second.
const (
	MinClock     = 1
	MaxClock     = 2000
	DefaultClock = 700
)

// Default colors and volume.
const (
	DefaultFG     = "#e0f8d0"
	DefaultBG     = "#081820"
	DefaultVolume = 0.5
)

// Settings is the settings layer: the values a user may change at any
// time while the machine runs. Writers are serialised here; schedulers
// read each value once per activation.
type Settings struct {
	mu     sync.RWMutex
	clock  float64
	colors ColorPair
	volume float64
}

// NewSettings returns settings holding the defaults.
func NewSettings() *Settings {
	s := &Settings{}
	s.Defaults()
	return s
}

// Defaults resets every value to its default.
func (s *Settings) Defaults() {
	c, _ := ParseColorPair(DefaultFG, DefaultBG)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = DefaultClock
	s.colors = c
	s.volume = DefaultVolume
}

func (s *Settings) Clock() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clock
}

// SetClock sets the clock rate, clamped to [MinClock, MaxClock].
func (s *Settings) SetClock(hz float64) {
	s.mu.Lock()
	s.clock = clamp(hz, MinClock, MaxClock)
	s.mu.Unlock()
}

func (s *Settings) Colors() ColorPair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.colors
}

func (s *Settings) SetColors(c ColorPair) {
	s.mu.Lock()
	s.colors = c
	s.mu.Unlock()
}

func (s *Settings) Volume() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.volume
}

// SetVolume sets the volume, clamped to [0, 1].
func (s *Settings) SetVolume(v float64) {
	s.mu.Lock()
	s.volume = clamp(v, 0, 1)
	s.mu.Unlock()
}

// ParseColor parses a "#rrggbb" color.
func ParseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// ParseColorPair parses a foreground and background color.
func ParseColorPair(fg, bg string) (ColorPair, error) {
	var (
		c   ColorPair
		err error
	)
	if c.FG, err = ParseColor(fg); err != nil {
		return c, err
	}
	if c.BG, err = ParseColor(bg); err != nil {
		return c, err
	}
	return c, nil
}

// Hex formats c as "#rrggbb".
func Hex(c color.RGBA) string {
	return colorful.Color{
		R: float64(c.R) / 0xff,
		G: float64(c.G) / 0xff,
		B: float64(c.B) / 0xff,
	}.Hex()
}

type settingsFile struct {
	Clock  float64  `json:"clock"`
	FG     string   `json:"fg"`
	BG     string   `json:"bg"`
	Volume *float64 `json:"volume,omitempty"`
}

// Load reads settings saved by Save. A missing file leaves s unchanged.
// A color that fails to parse leaves both colors unchanged.
func (s *Settings) Load(name string) error {
	b, err := os.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}
	var f settingsFile
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("settings %s: %w", name, err)
	}
	if f.Clock != 0 {
		s.SetClock(f.Clock)
	}
	if f.Volume != nil {
		s.SetVolume(*f.Volume)
	}
	if f.FG == "" && f.BG == "" {
		return nil
	}
	c := s.Colors()
	if f.FG != "" {
		if c.FG, err = ParseColor(f.FG); err != nil {
			return fmt.Errorf("settings %s: %w", name, err)
		}
	}
	if f.BG != "" {
		if c.BG, err = ParseColor(f.BG); err != nil {
			return fmt.Errorf("settings %s: %w", name, err)
		}
	}
	s.SetColors(c)
	return nil
}

// Save writes the settings to the named file as JSON.
func (s *Settings) Save(name string) error {
	s.mu.RLock()
	v := s.volume
	f := settingsFile{
		Clock:  s.clock,
		FG:     Hex(s.colors.FG),
		BG:     Hex(s.colors.BG),
		Volume: &v,
	}
	s.mu.RUnlock()
	b, err := json.MarshalIndent(f, "", "\t")
	if err != nil {
		return err
	}
	return os.WriteFile(name, append(b, '\n'), 0o644)
}
