package edge

import (
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/birddigital/nova-bridge/pkg/codec"
	"github.com/birddigital/nova-bridge/pkg/frame"
	"github.com/birddigital/nova-bridge/pkg/wire"
)

// ComfortNoiseMaxLen is the largest payload length still treated as
// comfort noise rather than real media; RTP CN payloads run 1-6 bytes.
const ComfortNoiseMaxLen = 8

// RealAudioMinLen is the shortest payload length counted as real,
// media_ready-latching audio (160 bytes of mu-law at R=8000).
const RealAudioMinLen = 160

var (
	ErrCodecMismatch        = errors.New("edge: codec mismatch")
	ErrTelephonyWriteReject = errors.New("edge: telephony write rejected")
)

// Session runs one call's edge-side adapter: one main loop goroutine and
// one downstream-receive goroutine, both joined before Run returns.
type Session struct {
	host   Host
	conn   net.Conn
	format frame.Format
	down   *frame.Queue // AI -> caller, filled by the downstream-receive goroutine

	mediaReady atomic.Bool
	state      atomic.Int32
	running    atomic.Bool

	writeFailures int
	failureTimes  [2]time.Time // the two failures before the latest, oldest first
	mu            sync.Mutex   // guards writeFailures/failureTimes

	wg sync.WaitGroup
}

// Dial opens the TCP leg to the bridge, sends the handshake, answers the
// call, and returns a Session ready for Run. callerID and format describe
// the call as the dialplan app knows it; the bridge may still override
// sample_rate via its own defaults if the handshake omits fields, but the
// edge always sends a fully-populated handshake.
func Dial(addr string, host Host, callUUID, caller string, format frame.Format) (*Session, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("edge: dial bridge: %w", err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}

	if callUUID == "" {
		callUUID = uuid.NewString()
	}
	if caller == "" {
		caller = "Unknown"
	}
	line := fmt.Sprintf(`{"call_uuid":%q,"caller":%q,"sample_rate":%d,"channels":1,"format":"PCM16"}`+"\n",
		callUUID, caller, format.SampleRate)
	if _, err := conn.Write([]byte(line)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("edge: send handshake: %w", err)
	}

	if err := host.Answer(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("edge: answer call: %w", err)
	}

	s := &Session{
		host:   host,
		conn:   conn,
		format: format,
		down:   frame.NewQueue(frame.DefaultCapacity),
	}
	s.state.Store(int32(StateWaitingMedia))
	s.running.Store(true)
	return s, nil
}

func (s *Session) State() CallState { return CallState(s.state.Load()) }

// Run starts the downstream-receive goroutine and the main loop, and
// blocks until both exit.
func (s *Session) Run() {
	s.wg.Add(1)
	go s.downstreamReceiveLoop()

	s.mainLoop()

	s.state.Store(int32(StateClosing))
	s.running.Store(false)
	s.down.Close()
	s.conn.Close()
	s.wg.Wait()
	s.state.Store(int32(StateDone))
}

// mainLoop runs the per-tick sequence: read from the host, classify,
// decode, write to the bridge, and opportunistically dequeue and write
// one downstream frame back to the host.
func (s *Session) mainLoop() {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for s.running.Load() {
		<-ticker.C

		native, err := s.host.ReadMedia()
		if err != nil {
			log.Printf("[Edge] read media error: %v", err)
			return
		}
		if native != nil {
			s.handleInbound(native)
		}

		s.maybeWriteDownstream()
	}
}

func (s *Session) handleInbound(native []byte) {
	if len(native) < RealAudioMinLen {
		if len(native) > ComfortNoiseMaxLen {
			log.Printf("[Edge] %v: unexpected inbound length %d", ErrCodecMismatch, len(native))
		}
		return // comfort noise or junk: ignore, do not latch media_ready
	}

	s.mediaReady.Store(true)
	if s.State() == StateWaitingMedia {
		s.state.Store(int32(StateActive))
	}

	var pcm []byte
	switch len(native) {
	case RealAudioMinLen: // mu-law at R=8000
		pcm = codec.DecodeMulaw(native)
	case s.format.Size: // already linear PCM16
		pcm = native
	default:
		log.Printf("[Edge] %v: unexpected inbound length %d", ErrCodecMismatch, len(native))
		return
	}

	if _, err := s.conn.Write(pcm); err != nil {
		log.Printf("[Edge] write to bridge failed, terminating call: %v", err)
		s.running.Store(false)
	}
}

func (s *Session) maybeWriteDownstream() {
	if !s.mediaReady.Load() {
		return
	}
	writeCodec := s.host.WriteCodec()
	if writeCodec == "" {
		return
	}
	if s.down.Len() == 0 {
		return
	}
	f, ok := s.down.Take()
	if !ok {
		return
	}
	telephony := codec.EncodeMulaw(f)
	if err := s.host.WriteMedia(writeCodec, telephony); err != nil {
		s.recordWriteFailure()
		return
	}
	s.clearWriteFailures()
}

func (s *Session) recordWriteFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.writeFailures++
	if s.writeFailures >= 3 && now.Sub(s.failureTimes[0]) <= time.Second {
		log.Printf("[Edge] %v: 3 consecutive telephony write failures after media_ready, ending call", ErrTelephonyWriteReject)
		s.running.Store(false)
	}
	s.failureTimes[0], s.failureTimes[1] = s.failureTimes[1], now
}

func (s *Session) clearWriteFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeFailures = 0
}

// downstreamReceiveLoop reads tagged records from the bridge and enqueues
// audio, or acts on control messages.
func (s *Session) downstreamReceiveLoop() {
	defer s.wg.Done()
	for {
		tag, err := wire.ReadTag(s.conn)
		if err != nil {
			s.terminate("peer close")
			return
		}
		switch tag {
		case wire.TagAudio:
			f := make(frame.Frame, s.format.Size)
			if err := wire.ReadExactly(s.conn, f); err != nil {
				s.terminate("peer close mid-frame")
				return
			}
			s.down.Push(f)
		case wire.TagControl:
			payload, err := wire.ReadControlPayload(s.conn)
			if err != nil {
				log.Printf("[Edge] control read error: %v", err)
				continue
			}
			cm, err := wire.ParseControlMessage(payload)
			if err != nil {
				log.Printf("[Edge] unparseable control payload: %v", err)
				continue
			}
			if cm.Type == wire.HangupType {
				s.host.Hangup("normal clearing")
				s.terminate("control hangup")
				return
			}
		default:
			log.Printf("[Edge] unknown record tag 0x%02x", tag)
			s.terminate("protocol framing error")
			return
		}
	}
}

func (s *Session) terminate(reason string) {
	if !s.running.Swap(false) {
		return
	}
	log.Printf("[Edge] terminating call: %s", reason)
}
