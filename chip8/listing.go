package chip8

import "fmt"

// Listing disassembles rom as if loaded at ProgramStart, one line per
// instruction word. A trailing odd byte is shown as data.
func Listing(rom []byte) []string {
	lines := make([]string, 0, (len(rom)+1)/2)
	for i := 0; i < len(rom); i += 2 {
		addr := ProgramStart + i
		if i+1 == len(rom) {
			lines = append(lines, fmt.Sprintf("%.3x  %.2x    DB %.2X", addr, rom[i], rom[i]))
			break
		}
		op, text := Disassemble(rom, uint16(i))
		lines = append(lines, fmt.Sprintf("%.3x  %.4x  %s", addr, uint16(op), text))
	}
	return lines
}
