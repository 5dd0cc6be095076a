package main

import (
	"image"
	"image/color"
	"io/fs"
	"log"
	"strings"
	"sync"
	"unicode"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/nf/c8/host"
)

// Window layout, in logical pixels: the display above a 4x4 keypad.
const (
	guiScale     = 10
	guiWidth     = host.Width * guiScale
	guiDisplayH  = host.Height * guiScale
	guiKeyW      = guiWidth / 4
	guiKeyH      = 40
	guiHeight    = guiDisplayH + 4*guiKeyH
	pointerMouse = -1 // pointer id used for the mouse; touch ids are >= 0
)

// gui is an ebiten.Game that shows the display and an on-screen keypad.
// Physical keys, mouse and touch all feed the same runner.
type gui struct {
	r       *host.Runner
	frame   *host.SharedFrame
	cadence *host.ManualCadence // nil in Background mode
	keys    map[ebiten.Key]host.Key

	img  *ebiten.Image
	seq  uint64
	quit chan struct{}

	// pointers maps a held pointer to the on-screen key it pressed.
	pointers map[ebiten.TouchID]host.Key

	mu  sync.Mutex
	lit host.Keys
}

func newGUI(r *host.Runner, frame *host.SharedFrame, cadence *host.ManualCadence, km host.KeyMap) *gui {
	g := &gui{
		r:        r,
		frame:    frame,
		cadence:  cadence,
		keys:     ebitenKeys(km),
		img:      ebiten.NewImage(host.Width, host.Height),
		quit:     make(chan struct{}),
		pointers: make(map[ebiten.TouchID]host.Key),
	}
	r.Keypad().OnChange(func(k host.Key, down bool) {
		g.mu.Lock()
		g.lit[k] = down
		g.mu.Unlock()
	})
	return g
}

// ebitenKeys maps the keyboard keys named by km to keypad keys.
func ebitenKeys(km host.KeyMap) map[ebiten.Key]host.Key {
	m := make(map[ebiten.Key]host.Key)
	for k := ebiten.Key(0); k <= ebiten.KeyMax; k++ {
		name := strings.TrimPrefix(k.String(), "Digit")
		if len(name) != 1 {
			continue
		}
		if key, ok := km.Lookup(unicode.ToLower(rune(name[0]))); ok {
			m[k] = key
		}
	}
	return m
}

func (g *gui) Run() error {
	ebiten.SetWindowSize(guiWidth, guiHeight)
	ebiten.SetWindowTitle("c8")
	ebiten.SetTPS(host.FrameRate)
	return ebiten.RunGame(g)
}

// Quit ends the game loop at the next update.
func (g *gui) Quit() {
	select {
	case <-g.quit:
	default:
		close(g.quit)
	}
}

func (g *gui) Update() error {
	select {
	case <-g.quit:
		return ebiten.Termination
	default:
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	for _, k := range inpututil.AppendJustPressedKeys(nil) {
		if key, ok := g.keys[k]; ok {
			g.r.Press(key)
		}
	}
	for _, k := range inpututil.AppendJustReleasedKeys(nil) {
		if key, ok := g.keys[k]; ok {
			g.r.Release(key)
		}
	}
	g.updatePointers()
	if !ebiten.IsFocused() {
		g.r.ReleaseAll()
	}
	g.loadDropped()

	if g.cadence != nil {
		g.cadence.Fire()
	}
	return nil
}

// updatePointers presses the on-screen key under each new pointer, and
// releases it when the pointer lifts or leaves the key.
func (g *gui) updatePointers() {
	x, y := ebiten.CursorPosition()
	g.updatePointer(pointerMouse, x, y,
		inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft),
		!ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft))

	for _, id := range inpututil.AppendJustPressedTouchIDs(nil) {
		x, y := ebiten.TouchPosition(id)
		g.updatePointer(id, x, y, true, false)
	}
	for id := range g.pointers {
		if id == pointerMouse {
			continue
		}
		x, y := ebiten.TouchPosition(id)
		g.updatePointer(id, x, y, false, inpututil.IsTouchJustReleased(id))
	}
}

func (g *gui) updatePointer(id ebiten.TouchID, x, y int, down, up bool) {
	key, onKey := keyAt(x, y)
	if held, ok := g.pointers[id]; ok && (up || !onKey || key != held) {
		delete(g.pointers, id)
		g.r.Release(held)
	}
	if down && onKey {
		g.pointers[id] = key
		g.r.Press(key)
	}
}

// keyAt returns the on-screen key at (x, y).
func keyAt(x, y int) (host.Key, bool) {
	if x < 0 || x >= guiWidth || y < guiDisplayH || y >= guiHeight {
		return 0, false
	}
	col, row := x/guiKeyW, (y-guiDisplayH)/guiKeyH
	return host.Layout[row*4+col], true
}

// keyRect returns the on-screen bounds of the key at index i of Layout.
func keyRect(i int) image.Rectangle {
	x, y := i%4*guiKeyW, guiDisplayH+i/4*guiKeyH
	return image.Rect(x, y, x+guiKeyW, y+guiKeyH)
}

// loadDropped loads the first regular file dropped on the window.
func (g *gui) loadDropped() {
	files := ebiten.DroppedFiles()
	if files == nil {
		return
	}
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		log.Printf("drop: %v", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		rom, err := fs.ReadFile(files, e.Name())
		if err != nil {
			log.Printf("drop: %v", err)
			return
		}
		log.Printf("loading %s", e.Name())
		g.r.Load(rom, true)
		return
	}
}

func (g *gui) Draw(screen *ebiten.Image) {
	f, colors, seq := g.frame.Latest()
	if seq != g.seq {
		g.img.WritePixels(f.RGBA(colors).Pix)
		g.seq = seq
	}
	screen.Fill(colors.BG)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(guiScale, guiScale)
	screen.DrawImage(g.img, op)

	g.mu.Lock()
	lit := g.lit
	g.mu.Unlock()
	up, down := keyColors(colors)
	for i, k := range host.Layout {
		r := keyRect(i)
		c := up
		if lit[k] {
			c = down
		}
		vector.DrawFilledRect(screen, float32(r.Min.X+1), float32(r.Min.Y+1),
			float32(r.Dx()-2), float32(r.Dy()-2), c, false)
		ebitenutil.DebugPrintAt(screen, k.String(), r.Min.X+r.Dx()/2-3, r.Min.Y+r.Dy()/2-8)
	}
}

// keyColors derives the keypad colors from the display colors: keys at
// rest are a blend close to the background, pressed keys the foreground.
func keyColors(c host.ColorPair) (up, down color.Color) {
	fg, _ := colorful.MakeColor(c.FG)
	bg, _ := colorful.MakeColor(c.BG)
	return bg.BlendLab(fg, 0.25).Clamped(), fg
}

func (g *gui) Layout(outsideWidth, outsideHeight int) (int, int) {
	return guiWidth, guiHeight
}
