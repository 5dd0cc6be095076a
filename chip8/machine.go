// Package chip8 provides an implementation of a CHIP-8 interpreter, called
// Machine, and an Emulator that drives it on behalf of the host runtime.
//
// The interpreter follows the COSMAC VIP behaviour: the shift
// instructions shift VY into VX, the logical instructions reset VF,
// LD [I] and LD Vx, [I] advance I, and sprites are clipped at the edges of
// the display.
package chip8

import (
	"fmt"

	"github.com/nf/c8/host"
)

// Memory layout.
const (
	MemSize      = 0x1000
	FontStart    = 0x50
	ProgramStart = 0x200
	MaxProgram   = MemSize - ProgramStart // bytes of program space
)

// font holds the 4x5 glyphs for the hex digits 0-F.
var font = [...]byte{
	0xf0, 0x90, 0x90, 0x90, 0xf0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xf0, 0x10, 0xf0, 0x80, 0xf0, // 2
	0xf0, 0x10, 0xf0, 0x10, 0xf0, // 3
	0x90, 0x90, 0xf0, 0x10, 0x10, // 4
	0xf0, 0x80, 0xf0, 0x10, 0xf0, // 5
	0xf0, 0x80, 0xf0, 0x90, 0xf0, // 6
	0xf0, 0x10, 0x20, 0x40, 0x40, // 7
	0xf0, 0x90, 0xf0, 0x90, 0xf0, // 8
	0xf0, 0x90, 0xf0, 0x10, 0xf0, // 9
	0xf0, 0x90, 0xf0, 0x90, 0x90, // A
	0xe0, 0x90, 0xe0, 0x90, 0xe0, // B
	0xf0, 0x80, 0x80, 0x80, 0xf0, // C
	0xe0, 0x90, 0x90, 0x90, 0xe0, // D
	0xf0, 0x80, 0xf0, 0x80, 0xf0, // E
	0xf0, 0x80, 0xf0, 0x80, 0x80, // F
}

const glyphSize = 5

// Machine is an implementation of a CHIP-8 CPU with its memory, display
// and timers.
type Machine struct {
	Mem     [MemSize]byte
	V       [16]byte
	I       uint16
	PC      uint16
	Stack   Stack
	DT, ST  byte
	Display host.Frame

	// Keys holds the keypad state. LD Vx, K waits until HasReleased is
	// set and then consumes Released.
	Keys        host.Keys
	Released    host.Key
	HasReleased bool

	rnd uint32
}

const seed = 0x2545f491

// NewMachine returns a CHIP-8 CPU loaded with the given rom at 0x200.
// Bytes that do not fit in memory are ignored.
func NewMachine(rom []byte) *Machine {
	m := &Machine{PC: ProgramStart, rnd: seed}
	copy(m.Mem[FontStart:], font[:])
	copy(m.Mem[ProgramStart:], rom)
	return m
}

// Exec executes the instruction at m.PC. It only returns a non-nil error,
// always a Fault, if the instruction is invalid or misuses the stack.
// In that case PC is left pointing past the faulting instruction.
func (m *Machine) Exec() (err error) {
	var (
		opPC = m.PC
		op   = Op(short(m.mem(opPC), m.mem(opPC+1)))
	)
	defer func() {
		if e := recover(); e != nil {
			if code, ok := e.(FaultCode); ok {
				err = Fault{Code: code, Op: op, Addr: opPC}
			} else {
				panic(e)
			}
		}
	}()

	m.PC = (m.PC + 2) & 0xfff

	x := op.X()
	vx, vy := m.V[x], m.V[op.Y()]
	switch op >> 12 {
	case 0x0:
		switch op {
		case 0x00e0:
			m.Display = host.Frame{}
		case 0x00ee:
			m.PC = m.Stack.pop()
		}
		// Other machine code routines are ignored.
	case 0x1:
		m.PC = op.NNN()
	case 0x2:
		m.Stack.push(m.PC)
		m.PC = op.NNN()
	case 0x3:
		m.skipIf(vx == op.NN())
	case 0x4:
		m.skipIf(vx != op.NN())
	case 0x5:
		if op.N() != 0 {
			panic(BadOp)
		}
		m.skipIf(vx == vy)
	case 0x6:
		m.V[x] = op.NN()
	case 0x7:
		m.V[x] += op.NN()
	case 0x8:
		m.alu(op, vx, vy)
	case 0x9:
		if op.N() != 0 {
			panic(BadOp)
		}
		m.skipIf(vx != vy)
	case 0xa:
		m.I = op.NNN()
	case 0xb:
		m.PC = (op.NNN() + uint16(m.V[0])) & 0xfff
	case 0xc:
		m.V[x] = m.rand() & op.NN()
	case 0xd:
		m.V[0xf] = m.draw(vx, vy, op.N())
	case 0xe:
		switch op.NN() {
		case 0x9e:
			m.skipIf(m.Keys[vx&0xf])
		case 0xa1:
			m.skipIf(!m.Keys[vx&0xf])
		default:
			panic(BadOp)
		}
	case 0xf:
		m.misc(op, opPC, vx)
	}
	return nil
}

func (m *Machine) alu(op Op, vx, vy byte) {
	var (
		x    = op.X()
		flag byte
	)
	switch op.N() {
	case 0x0:
		m.V[x] = vy
		return
	case 0x1:
		m.V[x] = vx | vy
	case 0x2:
		m.V[x] = vx & vy
	case 0x3:
		m.V[x] = vx ^ vy
	case 0x4:
		sum := uint16(vx) + uint16(vy)
		m.V[x] = byte(sum)
		flag = byte(sum >> 8)
	case 0x5:
		m.V[x] = vx - vy
		flag = boolByte(vx >= vy)
	case 0x6:
		m.V[x] = vy >> 1
		flag = vy & 1
	case 0x7:
		m.V[x] = vy - vx
		flag = boolByte(vy >= vx)
	case 0xe:
		m.V[x] = vy << 1
		flag = vy >> 7
	default:
		panic(BadOp)
	}
	// VF is written last, so it holds the flag even when it is also VX.
	m.V[0xf] = flag
}

func (m *Machine) misc(op Op, opPC uint16, vx byte) {
	x := op.X()
	switch op.NN() {
	case 0x07:
		m.V[x] = m.DT
	case 0x0a:
		if !m.HasReleased {
			m.PC = opPC
			return
		}
		m.V[x] = byte(m.Released)
		m.HasReleased = false
	case 0x15:
		m.DT = vx
	case 0x18:
		m.ST = vx
	case 0x1e:
		m.I = (m.I + uint16(vx)) & 0xfff
	case 0x29:
		m.I = FontStart + uint16(vx&0xf)*glyphSize
	case 0x33:
		m.setMem(m.I, vx/100)
		m.setMem(m.I+1, vx/10%10)
		m.setMem(m.I+2, vx%10)
	case 0x55:
		for i := uint16(0); i <= uint16(x); i++ {
			m.setMem(m.I+i, m.V[i])
		}
		m.I = (m.I + uint16(x) + 1) & 0xfff
	case 0x65:
		for i := uint16(0); i <= uint16(x); i++ {
			m.V[i] = m.mem(m.I + i)
		}
		m.I = (m.I + uint16(x) + 1) & 0xfff
	default:
		panic(BadOp)
	}
}

// draw XORs an n-row sprite from memory at I onto the display at (vx, vy)
// and reports whether any lit pixel was turned off.
func (m *Machine) draw(vx, vy, n byte) (collision byte) {
	x0, y0 := int(vx)%host.Width, int(vy)%host.Height
	for row := 0; row < int(n) && y0+row < host.Height; row++ {
		bits := m.mem(m.I + uint16(row))
		for col := 0; col < 8 && x0+col < host.Width; col++ {
			if bits&(0x80>>col) == 0 {
				continue
			}
			x, y := x0+col, y0+row
			if m.Display.At(x, y) {
				collision = 1
			}
			m.Display.Set(x, y, !m.Display.At(x, y))
		}
	}
	return collision
}

// Tick decrements the delay and sound timers. It should be called 60
// times a second.
func (m *Machine) Tick() {
	if m.DT > 0 {
		m.DT--
	}
	if m.ST > 0 {
		m.ST--
	}
}

// Sound reports whether the sound timer is active.
func (m *Machine) Sound() bool { return m.ST > 0 }

func (m *Machine) skipIf(cond bool) {
	if cond {
		m.PC = (m.PC + 2) & 0xfff
	}
}

func (m *Machine) mem(addr uint16) byte { return m.Mem[addr&0xfff] }

func (m *Machine) setMem(addr uint16, v byte) { m.Mem[addr&0xfff] = v }

// rand is a xorshift generator. Its sequence depends only on the
// machine's own history.
func (m *Machine) rand() byte {
	r := m.rnd
	r ^= r << 13
	r ^= r >> 17
	r ^= r << 5
	m.rnd = r
	return byte(r >> 24)
}

// Fault is returned by Exec if an instruction cannot be executed.
type Fault struct {
	Code FaultCode
	Op   Op
	Addr uint16
}

func (e Fault) Error() string {
	return fmt.Sprintf("%s executing %v (%.4x) at %.3x", e.Code, e.Op, uint16(e.Op), e.Addr)
}

// FaultCode signifies the type of fault.
type FaultCode byte

const (
	BadOp FaultCode = iota + 1
	Underflow
	Overflow
)

func (c FaultCode) String() string {
	switch c {
	case BadOp:
		return "invalid instruction"
	case Underflow:
		return "stack underflow"
	case Overflow:
		return "stack overflow"
	}
	return fmt.Sprintf("unknown (%.2x)", byte(c))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func short(hi, lo byte) uint16 {
	return uint16(hi)<<8 + uint16(lo)
}
