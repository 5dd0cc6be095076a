package main

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/nf/c8/chip8"
	"github.com/nf/c8/host"
)

// tuiHold is how long a terminal key stays pressed. Terminals report key
// presses and repeats but never releases, so each press is released
// after tuiHold unless a repeat arrives first.
const tuiHold = 150 * time.Millisecond

// tui runs the machine in a terminal: the display drawn with half-block
// characters, a ROM listing, a log pane and a command line.
type tui struct {
	r     *host.Runner
	frame *host.SharedFrame
	cmd   *commander
	keys  host.KeyMap

	screen  *tview.Box
	listing *tview.TextView
	log     *tview.TextView
	status  *tview.TextView
	input   *tview.InputField
	cols    *tview.Flex
	rows    *tview.Flex
	app     *tview.Application

	mu     sync.Mutex
	timers [host.NumKeys]*time.Timer
	seq    uint64
}

func newTUI(r *host.Runner, frame *host.SharedFrame, cmd *commander, km host.KeyMap) *tui {
	t := &tui{
		r:      r,
		frame:  frame,
		cmd:    cmd,
		keys:   km,
		screen: tview.NewBox(),
		listing: tview.NewTextView().
			SetWrap(false),
		log: tview.NewTextView().
			SetMaxLines(1000),
		status: tview.NewTextView().
			SetWrap(false),
		input: tview.NewInputField(),
		cols:  tview.NewFlex(),
		rows: tview.NewFlex().
			SetDirection(tview.FlexRow),
		app: tview.NewApplication(),
	}
	t.log.SetChangedFunc(func() { t.app.Draw() })
	t.listing.SetBackgroundColor(tcell.ColorDarkBlue)
	t.status.SetBackgroundColor(tcell.ColorDarkGrey)
	t.screen.SetDrawFunc(t.drawScreen)
	t.cols.
		AddItem(t.screen, host.Width+2, 0, true).
		AddItem(t.listing, 0, 1, false)
	t.rows.
		AddItem(t.cols, host.Height/2+2, 0, true).
		AddItem(t.log, 0, 1, false).
		AddItem(t.status, 1, 0, false).
		AddItem(t.input, 1, 0, false)
	t.app.SetRoot(t.rows, true)
	t.screen.SetBorder(true).SetTitle(" c8 ")

	t.screen.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch ev.Key() {
		case tcell.KeyTab, tcell.KeyEscape:
			t.app.SetFocus(t.input)
			return nil
		case tcell.KeyRune:
			if k, ok := t.keys.Lookup(ev.Rune()); ok {
				t.press(k)
			}
			return nil
		}
		return ev
	})

	t.input.SetLabel("> ")
	t.input.SetAutocompleteFunc(t.cmd.complete)
	t.input.SetAutocompletedFunc(func(text string, index, src int) bool {
		if src != tview.AutocompletedNavigate {
			t.input.SetText(text + " ")
		}
		return src == tview.AutocompletedEnter || src == tview.AutocompletedClick
	})
	t.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			t.app.SetFocus(t.screen)
			return
		}
		line := t.input.GetText()
		t.input.SetText("")
		if err := t.cmd.run(line); err == errQuit {
			t.app.Stop()
		} else if err != nil {
			log.Print(err)
		}
		t.updateStatus()
	})

	r.Keypad().OnChange(func(host.Key, bool) {
		t.app.QueueUpdateDraw(t.updateStatus)
	})
	return t
}

// press presses k and schedules its release, postponing the release of
// a key that is already held.
func (t *tui) press(k host.Key) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tm := t.timers[k]; tm != nil && tm.Stop() {
		tm.Reset(tuiHold)
		return
	}
	t.r.Press(k)
	t.timers[k] = time.AfterFunc(tuiHold, func() { t.r.Release(k) })
}

// setListing shows the disassembly of rom.
func (t *tui) setListing(rom []byte) {
	t.listing.SetText(strings.Join(chip8.Listing(rom), "\n"))
	t.listing.ScrollToBeginning()
}

func (t *tui) updateStatus() {
	s := t.r.Settings()
	t.status.SetText(statusLine(s, t.r.Keypad().Keys(), t.r.Gate()))
}

func statusLine(s *host.Settings, keys host.Keys, g *host.Gate) string {
	sound := "off"
	switch {
	case !g.Started():
		sound = "muted"
	case g.Control() > 0:
		sound = "ON"
	}
	c := s.Colors()
	return fmt.Sprintf("%v  clock %g Hz  volume %g  sound %s  %s/%s",
		keys, s.Clock(), s.Volume(), sound, host.Hex(c.FG), host.Hex(c.BG))
}

// drawScreen draws the latest frame, two pixel rows per terminal cell.
func (t *tui) drawScreen(s tcell.Screen, x, y, width, height int) (int, int, int, int) {
	f, colors, _ := t.frame.Latest()
	var (
		fg = tcell.NewRGBColor(int32(colors.FG.R), int32(colors.FG.G), int32(colors.FG.B))
		bg = tcell.NewRGBColor(int32(colors.BG.R), int32(colors.BG.G), int32(colors.BG.B))
	)
	x0, y0 := x+1, y+1
	for row := 0; row < host.Height/2 && row < height-2; row++ {
		for col := 0; col < host.Width && col < width-2; col++ {
			top, bottom := bg, bg
			if f.At(col, row*2) {
				top = fg
			}
			if f.At(col, row*2+1) {
				bottom = fg
			}
			s.SetContent(x0+col, y0+row, '▀', nil, tcell.StyleDefault.Foreground(top).Background(bottom))
		}
	}
	return x0, y0, width - 2, height - 2
}

// Run runs the terminal UI until the user quits. Log output is shown in
// the log pane while it runs.
func (t *tui) Run() error {
	w := log.Writer()
	log.SetOutput(t.log)
	defer log.SetOutput(w)

	done := make(chan struct{})
	defer close(done)
	go func() {
		tick := time.NewTicker(time.Second / 30)
		defer tick.Stop()
		for {
			select {
			case <-tick.C:
				if _, _, seq := t.frame.Latest(); seq != t.lastSeq(seq) {
					t.app.Draw()
				}
			case <-done:
				return
			}
		}
	}()
	t.app.QueueUpdate(t.updateStatus)
	return t.app.Run()
}

// lastSeq records seq as drawn and returns the previous value.
func (t *tui) lastSeq(seq uint64) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.seq
	t.seq = seq
	return prev
}

func (t *tui) Quit() { t.app.Stop() }
