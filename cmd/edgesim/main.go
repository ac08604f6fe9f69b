// Command edgesim is a local stand-in for the softswitch host: it dials a
// running bridge, answers immediately, and feeds a synthetic mu-law tone
// into the edge media adapter (pkg/edge) on the same 20ms cadence a real
// dialplan application would, so the bridge-side pipeline can be exercised
// end to end without a softswitch.
package main

import (
	"context"
	"errors"
	"log"
	"math"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/birddigital/nova-bridge/internal/config"
	"github.com/birddigital/nova-bridge/pkg/codec"
	"github.com/birddigital/nova-bridge/pkg/edge"
	"github.com/birddigital/nova-bridge/pkg/frame"
)

// errSimStopped is returned by simHost.ReadMedia once the simulator has
// been asked to hang up, so the edge session's main loop sees the same
// "read error, terminate the call" path a real host's closed media
// channel would produce.
var errSimStopped = errors.New("edgesim: stopped")

func main() {
	cfg, err := config.ParseEdgeSimFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("[EdgeSim] flag parse error: %v", err)
	}

	format := frame.FormatForRate(cfg.SampleRate)
	host := newSimHost(format)

	sess, err := edge.Dial(cfg.BridgeAddr, host, cfg.CallUUID, cfg.Caller, format)
	if err != nil {
		log.Fatalf("[EdgeSim] dial error: %v", err)
	}
	log.Printf("[EdgeSim] connected to %s, caller=%s, sample_rate=%d", cfg.BridgeAddr, cfg.Caller, format.SampleRate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		sess.Run()
		close(done)
	}()

	select {
	case <-ctx.Done():
		log.Printf("[EdgeSim] interrupted, tearing down call")
		host.hangup()
	case <-done:
	}
	<-done
	log.Printf("[EdgeSim] call ended: %s, wrote %d downstream frames", sess.State(), host.written())
}

// simHost implements edge.Host with a synthetic 440Hz tone in place of RTP
// audio. Every tick produces a full-length mu-law frame, so the edge
// session's media_ready latch flips on the very first inbound frame, same
// as a real call whose RTP path is already flowing by the time the
// dialplan app answers.
type simHost struct {
	format    frame.Format
	samples   int
	mu        sync.Mutex
	answered  bool
	hungUp    bool
	downCount int
}

func newSimHost(format frame.Format) *simHost {
	return &simHost{format: format}
}

func (h *simHost) Answer() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.answered = true
	return nil
}

// ReadMedia synthesizes one tick of linear PCM16 tone and mu-law-encodes
// it, mirroring what a real softswitch's RTP decode would hand the
// dialplan application for an 8kHz call.
func (h *simHost) ReadMedia() ([]byte, error) {
	h.mu.Lock()
	if h.hungUp {
		h.mu.Unlock()
		return nil, errSimStopped
	}
	h.mu.Unlock()

	samplesPerTick := h.format.SampleRate / 50
	pcm := make([]byte, samplesPerTick*2)
	const freq = 440.0
	for i := 0; i < samplesPerTick; i++ {
		t := float64(h.samples+i) / float64(h.format.SampleRate)
		v := int16(8000 * math.Sin(2*math.Pi*freq*t))
		pcm[i*2] = byte(v)
		pcm[i*2+1] = byte(v >> 8)
	}
	h.samples += samplesPerTick
	return codec.EncodeMulaw(pcm), nil
}

func (h *simHost) WriteMedia(codecName string, payload []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.downCount++
	return nil
}

func (h *simHost) WriteCodec() string { return "PCMU" }

func (h *simHost) Hangup(cause string) error {
	log.Printf("[EdgeSim] bridge requested hangup: %s", cause)
	h.hangup()
	return nil
}

func (h *simHost) hangup() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hungUp = true
}

func (h *simHost) written() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.downCount
}
