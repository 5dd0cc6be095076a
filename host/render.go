package host

import "sync"

// SharedFrame is a RenderSink that keeps a copy of the latest frame for a
// draw side that runs at its own cadence, such as a window's Draw method.
type SharedFrame struct {
	mu     sync.Mutex
	frame  Frame
	colors ColorPair
	seq    uint64
}

func (s *SharedFrame) Render(f *Frame, c ColorPair) {
	s.mu.Lock()
	s.frame = *f
	s.colors = c
	s.seq++
	s.mu.Unlock()
}

// Latest returns a copy of the most recently rendered frame, its colors,
// and a sequence number that increases with every Render call.
func (s *SharedFrame) Latest() (Frame, ColorPair, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame, s.colors, s.seq
}
