package host

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// MaxROMSize is the largest ROM accepted, the machine's addressable memory.
// A CHIP-8 program starts at 0x200, so the interpreter keeps only the first
// 3584 bytes of a larger ROM.
const MaxROMSize = 4096

// Fallback is the program loaded in place of an invalid ROM.
// It clears the screen, draws an "E" glyph and spins.
var Fallback = []byte{
	0x00, 0xe0, // 200 CLS
	0x6a, 0x1c, // 202 LD VA, 28
	0x6b, 0x0d, // 204 LD VB, 13
	0x60, 0x0e, // 206 LD V0, 0xE
	0xf0, 0x29, // 208 LD F, V0
	0xda, 0xb5, // 20a DRW VA, VB, 5
	0x12, 0x0c, // 20c JP 20c
}

// Splash is the program optionally loaded at startup.
// It draws "C8", sounds a short beep and spins.
var Splash = []byte{
	0x00, 0xe0, // 200 CLS
	0x6a, 0x18, // 202 LD VA, 24
	0x6b, 0x0d, // 204 LD VB, 13
	0x60, 0x0c, // 206 LD V0, 0xC
	0xf0, 0x29, // 208 LD F, V0
	0xda, 0xb5, // 20a DRW VA, VB, 5
	0x6a, 0x20, // 20c LD VA, 32
	0x60, 0x08, // 20e LD V0, 0x8
	0xf0, 0x29, // 210 LD F, V0
	0xda, 0xb5, // 212 DRW VA, VB, 5
	0x61, 0x08, // 214 LD V1, 8
	0xf1, 0x18, // 216 LD ST, V1
	0x12, 0x18, // 218 JP 218
}

// LoadROM returns b if it is a usable ROM, and otherwise the Fallback
// program with fallback set. An empty or oversize ROM is never forwarded.
func LoadROM(b []byte) (rom []byte, fallback bool) {
	if len(b) == 0 || len(b) > MaxROMSize {
		return Fallback, true
	}
	return b, false
}

// ReadROM reads a ROM from the named file.
// It reads at most MaxROMSize+1 bytes, enough for LoadROM to reject it.
func ReadROM(name string) ([]byte, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	b, err := io.ReadAll(io.LimitReader(f, MaxROMSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return b, nil
}

// FetchROM downloads a ROM with an HTTP GET.
// Like ReadROM it stops after MaxROMSize+1 bytes.
func FetchROM(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: %s", url, resp.Status)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, MaxROMSize+1))
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	return b, nil
}
