// Package reframer turns the AI provider's arbitrarily-sized PCM16 chunks
// into the fixed-size Frames the rest of the bridge operates on. It is the
// single place that absorbs the mismatch between "however many bytes the
// model emitted this tick" and "exactly one 20ms window."
package reframer

import (
	"io"
	"sync"

	"github.com/birddigital/nova-bridge/pkg/frame"
)

// Reframer accumulates raw PCM bytes and slices off complete frames as soon
// as enough bytes have arrived, pushing each onto a destination Queue. All
// exported methods share one mutex: Append, EndOfTurn and Clear must never
// interleave, since each one reads or rewrites the residual accumulator.
type Reframer struct {
	mu     sync.Mutex
	format frame.Format
	queue  *frame.Queue
	buf    []byte
	tap    io.Writer // optional fan-out, nil if unset
}

// New constructs a Reframer that slices format-sized frames onto q. tap,
// if non-nil, receives a copy of every complete frame as it is produced;
// a call recording sink would attach here.
func New(format frame.Format, q *frame.Queue, tap io.Writer) *Reframer {
	return &Reframer{format: format, queue: q, tap: tap}
}

// Append adds raw PCM bytes to the accumulator and pushes every complete
// frame it can now form onto the destination queue, in order. It never
// blocks beyond the queue's own non-blocking Push.
func (r *Reframer) Append(pcm []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf = append(r.buf, pcm...)
	r.drainLocked()
}

func (r *Reframer) drainLocked() {
	size := r.format.Size
	for len(r.buf) >= size {
		f := make(frame.Frame, size)
		copy(f, r.buf[:size])
		r.buf = r.buf[size:]
		r.emitLocked(f)
	}
}

func (r *Reframer) emitLocked(f frame.Frame) {
	if r.tap != nil {
		r.tap.Write(f)
	}
	r.queue.Push(f)
}

// EndOfTurn flushes whatever partial frame remains in the accumulator,
// zero-padding it out to a full frame, then emits one additional frame of
// silence. Without the trailing silence the last phoneme of the
// assistant's utterance gets clipped by up to one full frame at the
// telephony edge.
func (r *Reframer) EndOfTurn() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.buf) > 0 {
		f := make(frame.Frame, r.format.Size)
		copy(f, r.buf)
		r.buf = r.buf[:0]
		r.emitLocked(f)
	}
	r.emitLocked(r.format.Silence())
}

// Clear discards any partial, not-yet-frame-sized residue and empties the
// destination queue in the same step, so barge-in drops the whole
// pre-interruption tail (residual bytes and already-queued frames alike)
// as one atomic unit.
func (r *Reframer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf = r.buf[:0]
	r.queue.Clear()
}

// Pending reports the number of residual bytes not yet forming a complete
// frame. Exposed for tests and diagnostics only.
func (r *Reframer) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf)
}
