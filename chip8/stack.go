package chip8

import (
	"fmt"
	"strings"
)

// StackSize is the depth of the call stack.
const StackSize = 16

// Stack is the call stack of return addresses.
type Stack struct {
	Addrs [StackSize]uint16
	Ptr   byte
}

// push and pop panic with a FaultCode, which Exec recovers.

func (s *Stack) push(addr uint16) {
	if int(s.Ptr) == StackSize {
		panic(Overflow)
	}
	s.Addrs[s.Ptr] = addr
	s.Ptr++
}

func (s *Stack) pop() uint16 {
	if s.Ptr == 0 {
		panic(Underflow)
	}
	s.Ptr--
	return s.Addrs[s.Ptr]
}

func (s Stack) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, v := range s.Addrs[:s.Ptr] {
		fmt.Fprintf(&b, " %.3x", v)
	}
	b.WriteString(" )")
	return b.String()
}
