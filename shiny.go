package main

import (
	"image"
	"log"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/draw"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/nf/c8/host"
)

// shinyGUI shows the display in a shiny window. Unlike a terminal, shiny
// reports key releases, and marks auto-repeat with DirNone.
type shinyGUI struct {
	r       *host.Runner
	frame   *host.SharedFrame
	cadence *host.ManualCadence // nil in Background mode
	keys    host.KeyMap

	quit chan struct{}
	seq  uint64
	buf  screen.Buffer
	tex  screen.Texture
}

func newShinyGUI(r *host.Runner, frame *host.SharedFrame, cadence *host.ManualCadence, km host.KeyMap) *shinyGUI {
	return &shinyGUI{
		r:       r,
		frame:   frame,
		cadence: cadence,
		keys:    km,
		quit:    make(chan struct{}),
	}
}

func (g *shinyGUI) Quit() {
	select {
	case <-g.quit:
	default:
		close(g.quit)
	}
}

func (g *shinyGUI) Run() error {
	var err error
	driver.Main(func(s screen.Screen) {
		err = g.run(s)
	})
	return err
}

func (g *shinyGUI) run(s screen.Screen) error {
	w, err := s.NewWindow(&screen.NewWindowOptions{
		Title:  "c8",
		Width:  host.Width * guiScale,
		Height: host.Height * guiScale,
	})
	if err != nil {
		return err
	}
	defer w.Release()

	dim := image.Point{host.Width, host.Height}
	if g.buf, err = s.NewBuffer(dim); err != nil {
		return err
	}
	defer g.buf.Release()
	if g.tex, err = s.NewTexture(dim); err != nil {
		return err
	}
	defer g.tex.Release()

	type update struct{}
	go func() {
		t := time.NewTicker(host.FramePeriod)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				w.Send(update{})
			case <-g.quit:
				w.Send(lifecycle.Event{To: lifecycle.StageDead})
				return
			}
		}
	}()
	defer g.Quit()

	var sz size.Event
	for {
		switch e := w.NextEvent().(type) {
		case size.Event:
			sz = e
			if sz.WidthPx+sz.HeightPx == 0 {
				return nil
			}

		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				return nil
			}
			if e.Crosses(lifecycle.StageFocused) == lifecycle.CrossOff {
				g.r.ReleaseAll()
			}

		case key.Event:
			if e.Code == key.CodeEscape {
				return nil
			}
			k, ok := g.keys.Lookup(e.Rune)
			if !ok {
				break
			}
			switch e.Direction {
			case key.DirPress:
				g.r.Press(k)
			case key.DirRelease:
				g.r.Release(k)
			}
			// DirNone is auto-repeat and is ignored.

		case update:
			if g.cadence != nil {
				g.cadence.Fire()
			}
			if g.upload() {
				g.paint(w, sz)
			}

		case paint.Event:
			g.paint(w, sz)

		case error:
			log.Print(e)
		}
	}
}

// upload copies a new frame, if any, into the texture.
func (g *shinyGUI) upload() bool {
	f, colors, seq := g.frame.Latest()
	if seq == g.seq {
		return false
	}
	g.seq = seq
	m := f.RGBA(colors)
	copy(g.buf.RGBA().Pix, m.Pix)
	g.tex.Upload(image.Point{}, g.buf, g.buf.Bounds())
	return true
}

func (g *shinyGUI) paint(w screen.Window, sz size.Event) {
	w.Scale(sz.Bounds(), g.tex, g.tex.Bounds(), draw.Src, nil)
	w.Publish()
}
