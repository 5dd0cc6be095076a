package host

import (
	"fmt"
	"strings"
	"sync"
)

// Key is a hexadecimal keypad key, 0x0 to 0xF.
//
// The keypad is laid out as
//
//	1 2 3 C
//	4 5 6 D
//	7 8 9 E
//	A 0 B F
type Key uint8

// NumKeys is the number of keys on the keypad.
const NumKeys = 16

func (k Key) Valid() bool { return k < NumKeys }

func (k Key) String() string { return fmt.Sprintf("%X", byte(k)) }

// Layout lists the keys in on-screen order, row by row.
var Layout = [NumKeys]Key{
	0x1, 0x2, 0x3, 0xc,
	0x4, 0x5, 0x6, 0xd,
	0x7, 0x8, 0x9, 0xe,
	0xa, 0x0, 0xb, 0xf,
}

// Keys holds one pressed flag per key.
type Keys [NumKeys]bool

func (k Keys) String() string {
	var b strings.Builder
	for i, down := range k {
		if down {
			b.WriteString(Key(i).String())
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// KeyMap maps keyboard symbols to keys. The symbol at index i selects key i.
type KeyMap [NumKeys]rune

// DefaultKeyMap is the usual QWERTY mapping:
//
//	1 2 3 4
//	q w e r
//	a s d f
//	z x c v
var DefaultKeyMap = KeyMap{
	'x', '1', '2', '3',
	'q', 'w', 'e', 'a',
	's', 'd', 'z', 'c',
	'4', 'r', 'f', 'v',
}

// Lookup returns the key for symbol r. Letters match in either case.
func (m *KeyMap) Lookup(r rune) (Key, bool) {
	if r >= 'A' && r <= 'Z' {
		r += 'a' - 'A'
	}
	for i, s := range m {
		if s == r {
			return Key(i), true
		}
	}
	return 0, false
}

// Symbol returns the symbol mapped to k.
func (m *KeyMap) Symbol(k Key) rune { return m[k&0xf] }

// Keypad aggregates press and release events from any number of sources
// into keypad state and a one-shot release edge.
// It is safe for concurrent use.
type Keypad struct {
	mu       sync.Mutex
	keys     Keys
	released Key
	edge     bool
	onChange func(Key, bool)
}

// OnChange registers f to be called once per key state transition,
// outside the keypad lock.
func (p *Keypad) OnChange(f func(k Key, down bool)) {
	p.mu.Lock()
	p.onChange = f
	p.mu.Unlock()
}

// Press marks k as held and drops any pending release edge. Pressing a
// held key does nothing, which suppresses keyboard auto-repeat.
func (p *Keypad) Press(k Key) {
	if !k.Valid() {
		return
	}
	p.mu.Lock()
	if p.keys[k] {
		p.mu.Unlock()
		return
	}
	p.keys[k] = true
	p.edge = false
	f := p.onChange
	p.mu.Unlock()
	if f != nil {
		f(k, true)
	}
}

// Release marks k as not held and, if it was held, records it as the
// release edge. Releasing a key that is not held leaves any pending
// edge untouched.
func (p *Keypad) Release(k Key) {
	if !k.Valid() {
		return
	}
	p.mu.Lock()
	if !p.keys[k] {
		p.mu.Unlock()
		return
	}
	p.keys[k] = false
	p.released, p.edge = k, true
	f := p.onChange
	p.mu.Unlock()
	if f != nil {
		f(k, false)
	}
}

// ReleaseAll releases every held key, as when a window loses focus.
func (p *Keypad) ReleaseAll() {
	for k := Key(0); k < NumKeys; k++ {
		p.Release(k)
	}
}

// Reset releases every held key without recording a release edge and
// drops any pending edge, leaving the keypad as if newly made.
func (p *Keypad) Reset() {
	p.mu.Lock()
	held := p.keys
	p.keys = Keys{}
	p.released, p.edge = 0, false
	f := p.onChange
	p.mu.Unlock()
	if f == nil {
		return
	}
	for k, down := range held {
		if down {
			f(Key(k), false)
		}
	}
}

// Snapshot returns a copy of the keypad state with the pending release
// edge, and clears the edge.
func (p *Keypad) Snapshot() Input {
	p.mu.Lock()
	defer p.mu.Unlock()
	in := Input{Keys: p.keys, Released: p.released, HasReleased: p.edge}
	p.edge = false
	return in
}

// Keys returns a copy of the keypad state without consuming the edge.
func (p *Keypad) Keys() Keys {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.keys
}
