package chip8

import (
	"strings"
	"testing"

	"github.com/nf/c8/host"
)

func TestOpString(t *testing.T) {
	for _, c := range []struct {
		op   Op
		want string
	}{
		{0x00e0, "CLS"},
		{0x00ee, "RET"},
		{0x0123, "SYS 123"},
		{0x120c, "JP 20C"},
		{0x2abc, "CALL ABC"},
		{0x3a1c, "SE VA, 1C"},
		{0x4b00, "SNE VB, 00"},
		{0x5120, "SE V1, V2"},
		{0x6a1c, "LD VA, 1C"},
		{0x7f01, "ADD VF, 01"},
		{0x8120, "LD V1, V2"},
		{0x8124, "ADD V1, V2"},
		{0x8127, "SUBN V1, V2"},
		{0x812e, "SHL V1, V2"},
		{0x9120, "SNE V1, V2"},
		{0xa300, "LD I, 300"},
		{0xb300, "JP V0, 300"},
		{0xc10f, "RND V1, 0F"},
		{0xdab5, "DRW VA, VB, 5"},
		{0xe29e, "SKP V2"},
		{0xe2a1, "SKNP V2"},
		{0xf00a, "LD V0, K"},
		{0xf029, "LD F, V0"},
		{0xf355, "LD [I], V3"},
		{0xf365, "LD V3, [I]"},
		{0x5121, "DW 5121"},
		{0x8128, "DW 8128"},
		{0xe200, "DW E200"},
		{0xf0ff, "DW F0FF"},
	} {
		if got := c.op.String(); got != c.want {
			t.Errorf("Op(%.4x).String() == %q, want %q", uint16(c.op), got, c.want)
		}
	}
}

// Check that Exec faults on exactly the words that do not disassemble.
func TestOpValid(t *testing.T) {
	for w := 0; w <= 0xffff; w++ {
		op := Op(w)
		valid := op.Valid()
		if valid == strings.HasPrefix(op.String(), "DW") {
			t.Fatalf("Op(%.4x): Valid() == %v but String() == %q", w, valid, op.String())
		}
		m := NewMachine([]byte{byte(w >> 8), byte(w)})
		m.HasReleased, m.Released = true, host.Key(1)
		err := m.Exec()
		if f, ok := err.(Fault); (ok && f.Code == BadOp) == valid {
			t.Fatalf("Op(%.4x): Valid() == %v but Exec() == %v", w, valid, err)
		}
	}
}

func TestListing(t *testing.T) {
	got := Listing([]byte{0x00, 0xe0, 0x12, 0x02, 0xff})
	want := []string{
		"200  00e0  CLS",
		"202  1202  JP 202",
		"204  ff    DB FF",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("Listing ==\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}
