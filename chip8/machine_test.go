package chip8

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/nf/c8/host"
)

func TestNewMachine(t *testing.T) {
	for _, c := range []struct {
		romSize int
	}{
		{0x000},
		{0x001},
		{0xdff},
		{0xe00},
		{0x1000},
	} {
		t.Run(fmt.Sprintf("%.4x", c.romSize), func(t *testing.T) {
			m := NewMachine(bytes.Repeat([]byte{1}, c.romSize))
			if m.PC != ProgramStart {
				t.Errorf("PC == %.3x, want %.3x", m.PC, ProgramStart)
			}
			for i := ProgramStart; i < MemSize; i++ {
				w := byte(0)
				if i < ProgramStart+c.romSize {
					w = 1
				}
				if g := m.Mem[i]; g != w {
					t.Fatalf("Mem[%.3x] == %.2x, want %.2x", i, g, w)
				}
			}
			if !bytes.Equal(m.Mem[FontStart:FontStart+len(font)], font[:]) {
				t.Errorf("font not loaded at %.3x", FontStart)
			}
		})
	}
}

func TestExec(t *testing.T) {
	c := newExecTestCase
	for i, c := range []*execTestCase{
		c(0x00e0).pixel(3, 4).want(),
		c(0x00ee).stack(0x345).want().pc(0x345),
		c(0x0123).want(),
		c(0x1345).want().pc(0x345),
		c(0x2345).want().stack(0x202).pc(0x345),

		c(0x3342).v(3, 0x42).want().v(3, 0x42).pc(0x204),
		c(0x3342).v(3, 0x41).want().v(3, 0x41),
		c(0x4342).v(3, 0x42).want().v(3, 0x42),
		c(0x4342).v(3, 0x41).want().v(3, 0x41).pc(0x204),
		c(0x5120).v(1, 7).v(2, 7).want().v(1, 7).v(2, 7).pc(0x204),
		c(0x5120).v(1, 7).v(2, 8).want().v(1, 7).v(2, 8),
		c(0x9120).v(1, 7).v(2, 8).want().v(1, 7).v(2, 8).pc(0x204),
		c(0x9120).v(1, 7).v(2, 7).want().v(1, 7).v(2, 7),

		c(0x6a42).want().v(0xa, 0x42),
		c(0x7a01).v(0xa, 0xff).want().v(0xa, 0),
		c(0x7a01).v(0xa, 0xff).v(0xf, 9).want().v(0xa, 0).v(0xf, 9),

		c(0x8120).v(2, 5).want().v(1, 5).v(2, 5),
		c(0x8121).v(1, 0x36).v(2, 0x63).v(0xf, 1).want().v(1, 0x77).v(2, 0x63),
		c(0x8122).v(1, 0x99).v(2, 0xb8).want().v(1, 0x98).v(2, 0xb8),
		c(0x8123).v(1, 0x31).v(2, 0x13).want().v(1, 0x22).v(2, 0x13),
		c(0x8124).v(1, 1).v(2, 2).want().v(1, 3).v(2, 2),
		c(0x8124).v(1, 0xff).v(2, 2).want().v(1, 1).v(2, 2).v(0xf, 1),
		c(0x8125).v(1, 3).v(2, 2).want().v(1, 1).v(2, 2).v(0xf, 1),
		c(0x8125).v(1, 2).v(2, 3).want().v(1, 0xff).v(2, 3),
		c(0x8127).v(1, 2).v(2, 3).want().v(1, 1).v(2, 3).v(0xf, 1),
		c(0x8126).v(2, 5).want().v(1, 2).v(2, 5).v(0xf, 1),
		c(0x812e).v(2, 0x81).want().v(1, 2).v(2, 0x81).v(0xf, 1),
		c(0x8f14).v(0xf, 0xff).v(1, 2).want().v(0xf, 1).v(1, 2),

		c(0xa345).want().i(0x345),
		c(0xb300).v(0, 0x45).want().v(0, 0x45).pc(0x345),

		c(0xe19e).v(1, 3).key(3).want().v(1, 3).key(3).pc(0x204),
		c(0xe19e).v(1, 3).want().v(1, 3),
		c(0xe1a1).v(1, 3).key(3).want().v(1, 3).key(3),
		c(0xe1a1).v(1, 3).want().v(1, 3).pc(0x204),

		c(0xf107).dt(9).want().dt(9).v(1, 9),
		c(0xf115).v(1, 9).want().v(1, 9).dt(9),
		c(0xf118).v(1, 9).want().v(1, 9).st(9),
		c(0xf11e).i(0x300).v(1, 0x10).want().i(0x310).v(1, 0x10),
		c(0xf129).v(1, 0xa).want().v(1, 0xa).i(FontStart + 50),
		c(0xf133).i(0x300).v(1, 137).want().i(0x300).v(1, 137).mem(0x300, 1, 3, 7),
		c(0xf255).i(0x300).v(0, 1).v(1, 2).v(2, 3).want().
			i(0x303).v(0, 1).v(1, 2).v(2, 3).mem(0x300, 1, 2, 3),
		c(0xf265).i(0x300).mem(0x300, 1, 2, 3).want().
			i(0x303).v(0, 1).v(1, 2).v(2, 3),

		// LD Vx, K waits for a release edge, then consumes it.
		c(0xf10a).key(3).want().key(3).pc(0x200),
		c(0xf10a).released(3).want().v(1, 3),

		c(0x5121).want().error(Fault{Code: BadOp, Op: 0x5121, Addr: 0x200}),
		c(0x812f).want().error(Fault{Code: BadOp, Op: 0x812f, Addr: 0x200}),
		c(0xe1ff).want().error(Fault{Code: BadOp, Op: 0xe1ff, Addr: 0x200}),
		c(0xf1ff).want().error(Fault{Code: BadOp, Op: 0xf1ff, Addr: 0x200}),
		c(0x00ee).want().error(Fault{Code: Underflow, Op: 0x00ee, Addr: 0x200}),
		c(0x2345).stack(make([]uint16, StackSize)...).want().stack(make([]uint16, StackSize)...).
			error(Fault{Code: Overflow, Op: 0x2345, Addr: 0x200}),
	} {
		t.Run(fmt.Sprintf("%v_%d", c.op, i), func(t *testing.T) {
			if err := c.m.Exec(); err != c.err {
				t.Fatalf("got error %v, want %v", err, c.err)
			}
			if g, w := c.m.V, c.w.V; g != w {
				t.Errorf("V is %x, want %x", g, w)
			}
			if g, w := c.m.Stack, c.w.Stack; !stackEq(g, w) {
				t.Errorf("stack is %v, want %v", g, w)
			}
			if g, w := c.m.Mem, c.w.Mem; g != w {
				for i := range g {
					if g[i] != w[i] {
						t.Errorf("memory[%.3x] = %.2x, want %.2x", i, g[i], w[i])
					}
				}
			}
			if g, w := c.m.PC, c.w.PC; g != w {
				t.Errorf("PC is %.3x, want %.3x", g, w)
			}
			if g, w := c.m.I, c.w.I; g != w {
				t.Errorf("I is %.3x, want %.3x", g, w)
			}
			if c.m.DT != c.w.DT || c.m.ST != c.w.ST {
				t.Errorf("DT, ST are %d, %d, want %d, %d", c.m.DT, c.m.ST, c.w.DT, c.w.ST)
			}
			if c.m.HasReleased != c.w.HasReleased {
				t.Errorf("HasReleased is %v, want %v", c.m.HasReleased, c.w.HasReleased)
			}
			if c.m.Display != c.w.Display {
				t.Errorf("display differs")
			}
		})
	}
}

type execTestCase struct {
	op   Op
	m, w *Machine
	err  error
	set  *Machine
}

func newExecTestCase(op Op) *execTestCase {
	c := &execTestCase{op: op}
	rom := []byte{byte(op >> 8), byte(op)}
	c.m = NewMachine(rom)
	c.w = NewMachine(rom)
	c.w.PC += 2
	c.set = c.m
	return c
}

func (c *execTestCase) v(x int, b byte) *execTestCase {
	c.set.V[x] = b
	return c
}

func (c *execTestCase) i(addr uint16) *execTestCase {
	c.set.I = addr
	return c
}

func (c *execTestCase) dt(v byte) *execTestCase {
	c.set.DT = v
	return c
}

func (c *execTestCase) st(v byte) *execTestCase {
	c.set.ST = v
	return c
}

func (c *execTestCase) key(k host.Key) *execTestCase {
	c.set.Keys[k] = true
	return c
}

func (c *execTestCase) released(k host.Key) *execTestCase {
	c.set.Released, c.set.HasReleased = k, true
	if c.set == c.m {
		c.w.Released = k
	}
	return c
}

func (c *execTestCase) pixel(x, y int) *execTestCase {
	c.set.Display.Set(x, y, true)
	return c
}

func (c *execTestCase) stack(addrs ...uint16) *execTestCase {
	copy(c.set.Stack.Addrs[:], addrs)
	c.set.Stack.Ptr = byte(len(addrs))
	return c
}

func (c *execTestCase) mem(addr uint16, bytes ...byte) *execTestCase {
	copy(c.set.Mem[addr:], bytes)
	if c.set == c.m {
		copy(c.w.Mem[addr:], bytes)
	}
	return c
}

func (c *execTestCase) pc(addr uint16) *execTestCase {
	c.set.PC = addr
	return c
}

func (c *execTestCase) want() *execTestCase {
	c.set = c.w
	return c
}

func (c *execTestCase) error(err error) *execTestCase {
	c.err = err
	return c
}

func stackEq(a, b Stack) bool {
	ac := Stack{Ptr: a.Ptr}
	bc := Stack{Ptr: b.Ptr}
	copy(ac.Addrs[:], a.Addrs[:a.Ptr])
	copy(bc.Addrs[:], b.Addrs[:b.Ptr])
	return ac == bc
}

func TestDraw(t *testing.T) {
	// LD I, 300; DRW V0, V1, 2; DRW V0, V1, 2
	m := NewMachine([]byte{0xa3, 0x00, 0xd0, 0x12, 0xd0, 0x12})
	m.Mem[0x300], m.Mem[0x301] = 0xc0, 0x81
	m.V[0], m.V[1] = 62, 31

	for i := 0; i < 2; i++ {
		if err := m.Exec(); err != nil {
			t.Fatal(err)
		}
	}
	// Clipped at the right and bottom edges.
	var want host.Frame
	want.Set(62, 31, true)
	want.Set(63, 31, true)
	if m.Display != want {
		t.Errorf("display after first draw differs")
	}
	if m.V[0xf] != 0 {
		t.Errorf("VF == %d after first draw, want 0", m.V[0xf])
	}

	if err := m.Exec(); err != nil {
		t.Fatal(err)
	}
	if m.Display != (host.Frame{}) {
		t.Errorf("display after second draw not clear")
	}
	if m.V[0xf] != 1 {
		t.Errorf("VF == %d after second draw, want 1", m.V[0xf])
	}
}

func TestDrawWraps(t *testing.T) {
	// Coordinates start modulo the display size.
	m := NewMachine([]byte{0xf0, 0x29, 0xd1, 0x21})
	m.V[0], m.V[1], m.V[2] = 0, 64+4, 32+2
	for i := 0; i < 2; i++ {
		if err := m.Exec(); err != nil {
			t.Fatal(err)
		}
	}
	for x := 4; x < 8; x++ {
		if !m.Display.At(x, 2) {
			t.Errorf("pixel (%d, 2) not set", x)
		}
	}
}

func TestRand(t *testing.T) {
	a, b := NewMachine(nil), NewMachine(nil)
	var seen [256]bool
	for i := 0; i < 1000; i++ {
		x, y := a.rand(), b.rand()
		if x != y {
			t.Fatalf("machines diverged at %d: %d != %d", i, x, y)
		}
		seen[x] = true
	}
	n := 0
	for _, s := range seen {
		if s {
			n++
		}
	}
	if n < 200 {
		t.Errorf("only %d distinct values in 1000 draws", n)
	}
}

func TestTick(t *testing.T) {
	m := NewMachine(nil)
	m.DT, m.ST = 2, 1
	if !m.Sound() {
		t.Errorf("Sound() == false with ST 1")
	}
	m.Tick()
	if m.DT != 1 || m.ST != 0 || m.Sound() {
		t.Errorf("after one tick DT, ST == %d, %d, Sound() == %v", m.DT, m.ST, m.Sound())
	}
	m.Tick()
	m.Tick()
	if m.DT != 0 || m.ST != 0 {
		t.Errorf("timers went below zero: %d, %d", m.DT, m.ST)
	}
}
