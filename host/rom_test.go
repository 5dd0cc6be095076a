package host

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadROM(t *testing.T) {
	for _, size := range []int{0, 1, 10, 0xdff, MaxROMSize, MaxROMSize + 1, 5000, 0x10000} {
		t.Run(fmt.Sprint(size), func(t *testing.T) {
			b := bytes.Repeat([]byte{0xa5}, size)
			rom, fallback := LoadROM(b)
			wantFallback := size == 0 || size > MaxROMSize
			if fallback != wantFallback {
				t.Errorf("fallback == %v, want %v", fallback, wantFallback)
			}
			want := b
			if wantFallback {
				want = Fallback
			}
			if !bytes.Equal(rom, want) {
				t.Errorf("rom == % x..., want % x...", head(rom), head(want))
			}
		})
	}
}

func head(b []byte) []byte {
	if len(b) > 8 {
		return b[:8]
	}
	return b
}

func TestReadROM(t *testing.T) {
	dir := t.TempDir()
	for _, size := range []int{10, MaxROMSize, 5000} {
		name := filepath.Join(dir, fmt.Sprintf("%d.ch8", size))
		if err := os.WriteFile(name, make([]byte, size), 0o644); err != nil {
			t.Fatal(err)
		}
		b, err := ReadROM(name)
		if err != nil {
			t.Fatalf("ReadROM(%d bytes): %v", size, err)
		}
		want := min(size, MaxROMSize+1)
		if len(b) != want {
			t.Errorf("ReadROM(%d bytes) read %d, want %d", size, len(b), want)
		}
		if _, fallback := LoadROM(b); fallback != (size > MaxROMSize) {
			t.Errorf("LoadROM(ReadROM(%d bytes)) fallback == %v", size, fallback)
		}
	}
	if _, err := ReadROM(filepath.Join(dir, "missing.ch8")); err == nil {
		t.Errorf("ReadROM(missing) succeeded, want error")
	}
}

func TestFetchROM(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/small.ch8":
			w.Write([]byte{0x00, 0xe0, 0x12, 0x02})
		case "/big.ch8":
			w.Write(make([]byte, 3*MaxROMSize))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	ctx := context.Background()
	b, err := FetchROM(ctx, ts.URL+"/small.ch8")
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x00, 0xe0, 0x12, 0x02}; !bytes.Equal(b, want) {
		t.Errorf("small == % x, want % x", b, want)
	}

	b, err = FetchROM(ctx, ts.URL+"/big.ch8")
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != MaxROMSize+1 {
		t.Errorf("big read %d bytes, want %d", len(b), MaxROMSize+1)
	}

	if _, err := FetchROM(ctx, ts.URL+"/missing.ch8"); err == nil {
		t.Errorf("missing succeeded, want error")
	}
}
