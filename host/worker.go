package host

import (
	"context"
	"time"
)

// DefaultUnit is the number of cycles a Worker executes per iteration.
const DefaultUnit = 10

// Mailbox carries input snapshots to a Worker. It holds at most one
// snapshot: a newer one replaces any that has not been taken yet.
type Mailbox struct {
	ch chan Input
}

func NewMailbox() *Mailbox {
	return &Mailbox{ch: make(chan Input, 1)}
}

// Send stores in, discarding any snapshot not yet taken. It never blocks.
func (m *Mailbox) Send(in Input) {
	for {
		select {
		case m.ch <- in:
			return
		default:
		}
		select {
		case <-m.ch:
		default:
		}
	}
}

// take returns the pending snapshot, if any.
func (m *Mailbox) take() (Input, bool) {
	select {
	case in := <-m.ch:
		return in, true
	default:
		return Input{}, false
	}
}

// Worker is the background scheduler. Run steps the machine in a tight
// loop on the calling goroutine until its context is done.
//
// A Worker trades timing precision for isolation from the render side:
// it has no frame pacing, no audio gate and no backpressure, and uses as
// much CPU as it is given. Timers are still ticked from the wall clock
// so that programs waiting on the delay timer make progress.
type Worker struct {
	emu      Emulator
	sink     RenderSink
	settings *Settings
	mailbox  *Mailbox

	// Unit is the number of cycles executed per iteration.
	Unit int

	now func() time.Time
}

// NewWorker returns a worker that owns emu and publishes frames to sink.
func NewWorker(emu Emulator, sink RenderSink, s *Settings) *Worker {
	return &Worker{
		emu:      emu,
		sink:     sink,
		settings: s,
		mailbox:  NewMailbox(),
		Unit:     DefaultUnit,
		now:      time.Now,
	}
}

// Send posts an input snapshot to the worker. Only the latest snapshot
// sent before an iteration is applied.
func (w *Worker) Send(in Input) { w.mailbox.Send(in) }

// Run loops until ctx is done and returns ctx.Err().
func (w *Worker) Run(ctx context.Context) error {
	var (
		cur   Input
		start = w.now()
		ticks int64
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if in, ok := w.mailbox.take(); ok {
			cur = in
		}
		elapsed := int64(w.now().Sub(start) / FramePeriod)
		b := Budget{Cycles: w.Unit, Ticks: int(elapsed - ticks)}
		ticks = elapsed

		out := w.emu.Step(cur, b)
		// The edge belongs to the iteration that received it.
		cur.HasReleased = false

		if out.Frame != nil {
			w.sink.Render(out.Frame, w.settings.Colors())
		}
	}
}
