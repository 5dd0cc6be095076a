package chip8

import "fmt"

// Op is a CHIP-8 instruction word.
type Op uint16

// X returns the second nibble, usually a register index.
func (o Op) X() byte { return byte(o>>8) & 0xf }

// Y returns the third nibble, usually a register index.
func (o Op) Y() byte { return byte(o>>4) & 0xf }

// N returns the low nibble.
func (o Op) N() byte { return byte(o) & 0xf }

// NN returns the low byte.
func (o Op) NN() byte { return byte(o) }

// NNN returns the low 12 bits, usually an address.
func (o Op) NNN() uint16 { return uint16(o) & 0xfff }

// String returns the instruction in the usual assembler syntax,
// or "DW xxxx" if it is not a valid instruction.
func (o Op) String() string {
	x, y := o.X(), o.Y()
	switch o >> 12 {
	case 0x0:
		switch o {
		case 0x00e0:
			return "CLS"
		case 0x00ee:
			return "RET"
		}
		return fmt.Sprintf("SYS %.3X", o.NNN())
	case 0x1:
		return fmt.Sprintf("JP %.3X", o.NNN())
	case 0x2:
		return fmt.Sprintf("CALL %.3X", o.NNN())
	case 0x3:
		return fmt.Sprintf("SE V%X, %.2X", x, o.NN())
	case 0x4:
		return fmt.Sprintf("SNE V%X, %.2X", x, o.NN())
	case 0x5:
		if o.N() == 0 {
			return fmt.Sprintf("SE V%X, V%X", x, y)
		}
	case 0x6:
		return fmt.Sprintf("LD V%X, %.2X", x, o.NN())
	case 0x7:
		return fmt.Sprintf("ADD V%X, %.2X", x, o.NN())
	case 0x8:
		if m, ok := aluMnemonics[o.N()]; ok {
			return fmt.Sprintf("%s V%X, V%X", m, x, y)
		}
	case 0x9:
		if o.N() == 0 {
			return fmt.Sprintf("SNE V%X, V%X", x, y)
		}
	case 0xa:
		return fmt.Sprintf("LD I, %.3X", o.NNN())
	case 0xb:
		return fmt.Sprintf("JP V0, %.3X", o.NNN())
	case 0xc:
		return fmt.Sprintf("RND V%X, %.2X", x, o.NN())
	case 0xd:
		return fmt.Sprintf("DRW V%X, V%X, %X", x, y, o.N())
	case 0xe:
		switch o.NN() {
		case 0x9e:
			return fmt.Sprintf("SKP V%X", x)
		case 0xa1:
			return fmt.Sprintf("SKNP V%X", x)
		}
	case 0xf:
		if f, ok := miscFormats[o.NN()]; ok {
			return fmt.Sprintf(f, x)
		}
	}
	return fmt.Sprintf("DW %.4X", uint16(o))
}

var aluMnemonics = map[byte]string{
	0x0: "LD",
	0x1: "OR",
	0x2: "AND",
	0x3: "XOR",
	0x4: "ADD",
	0x5: "SUB",
	0x6: "SHR",
	0x7: "SUBN",
	0xe: "SHL",
}

var miscFormats = map[byte]string{
	0x07: "LD V%X, DT",
	0x0a: "LD V%X, K",
	0x15: "LD DT, V%X",
	0x18: "LD ST, V%X",
	0x1e: "ADD I, V%X",
	0x29: "LD F, V%X",
	0x33: "LD B, V%X",
	0x55: "LD [I], V%X",
	0x65: "LD V%X, [I]",
}

// Valid reports whether o decodes to an instruction.
func (o Op) Valid() bool {
	switch o >> 12 {
	case 0x5, 0x9:
		return o.N() == 0
	case 0x8:
		_, ok := aluMnemonics[o.N()]
		return ok
	case 0xe:
		return o.NN() == 0x9e || o.NN() == 0xa1
	case 0xf:
		_, ok := miscFormats[o.NN()]
		return ok
	}
	return true
}

// Disassemble returns the instruction at addr in mem and its mnemonic.
func Disassemble(mem []byte, addr uint16) (Op, string) {
	op := Op(short(mem[int(addr)%len(mem)], mem[int(addr+1)%len(mem)]))
	return op, op.String()
}
