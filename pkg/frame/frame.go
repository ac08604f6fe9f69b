// Package frame defines the Audio Frame data model shared by every
// component that touches 20ms PCM16 windows, and the bounded
// single-producer/single-consumer queue that carries them between a
// call's audio threads.
package frame

import (
	"errors"
	"fmt"
)

// ErrWrongSize is returned by Format.Validate when a buffer is not exactly
// one frame's worth of bytes.
var ErrWrongSize = errors.New("frame: wrong size")

// Frame is an immutable byte buffer of exactly one 20ms window of linear
// PCM16, little-endian, mono audio. Callers must treat the backing array
// as read-only once a Frame is handed to a Queue.
type Frame []byte

// Format pins the per-call (R, F) pair negotiated at handshake time: R is
// the sample rate in Hz, F is the frame size in bytes. A single call fixes
// one Format for its lifetime; every frame on that call's wire and queues
// must satisfy it.
type Format struct {
	SampleRate int // R
	Size       int // F = 2 * (R / 50)
}

// Format8k and Format16k are the two canonical (R, F) pairings.
var (
	Format8k  = Format{SampleRate: 8000, Size: 320}
	Format16k = Format{SampleRate: 16000, Size: 640}
)

// FormatForRate returns the canonical Format for a negotiated sample rate,
// computing F = 2 * (R / 50) for rates outside the two canonical values so a
// handshake carrying an unexpected-but-plausible rate still gets a
// self-consistent frame size instead of silently using the wrong one.
func FormatForRate(sampleRate int) Format {
	switch sampleRate {
	case 8000:
		return Format8k
	case 16000:
		return Format16k
	default:
		return Format{SampleRate: sampleRate, Size: (sampleRate / 50) * 2}
	}
}

// SamplesPerFrame returns R/50, the number of 16-bit samples in one frame.
func (f Format) SamplesPerFrame() int {
	return f.SampleRate / 50
}

// Validate reports whether frame is exactly F bytes.
func (f Format) Validate(fr Frame) error {
	if len(fr) != f.Size {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrWrongSize, len(fr), f.Size)
	}
	return nil
}

// Silence returns one all-zero frame of this Format's size, the comfort
// silence frame emitted once after every end-of-turn flush.
func (f Format) Silence() Frame {
	return make(Frame, f.Size)
}
