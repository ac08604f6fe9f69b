package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/birddigital/nova-bridge/pkg/aisession"
	"github.com/birddigital/nova-bridge/pkg/aisession/tools"
	"github.com/birddigital/nova-bridge/pkg/bargein"
	"github.com/birddigital/nova-bridge/pkg/cdr"
	"github.com/birddigital/nova-bridge/pkg/frame"
	"github.com/birddigital/nova-bridge/pkg/reframer"
	"github.com/birddigital/nova-bridge/pkg/wire"
)

// hangupSleep is how long the control emitter waits after writing the
// hangup record, to let the edge act on it before this session tears its
// own stream down.
const hangupSleep = 500 * time.Millisecond

// Session owns one accepted TCP connection for the life of a call: it
// parses the handshake, opens the AI stream, and runs the uplink and
// downlink threads.
type Session struct {
	conn net.Conn
	cfg  SessionConfig

	handshake wire.Handshake
	format    frame.Format

	writeMu sync.Mutex // serializes downlink audio writes against control writes

	downQueue *frame.Queue
	reframer  *reframer.Reframer
	bargeIn   *bargein.Flag
	driver    *aisession.Driver

	hangupOnce sync.Once

	framesIn  atomic.Uint64
	framesOut atomic.Uint64
	startedAt time.Time
	endReason atomic.Value // string
}

// NewSession constructs a Session around an accepted socket. Handshake
// parsing and AI-session setup happen in Run, not here, so construction
// never blocks or fails.
func NewSession(conn net.Conn, cfg SessionConfig) *Session {
	return &Session{conn: conn, cfg: cfg}
}

// CallUUID returns the call identifier once the handshake has been
// parsed, or "" before then.
func (s *Session) CallUUID() string { return s.handshake.CallUUID }

// Run executes the full worker sequence: parse handshake, open the AI
// session, run uplink/downlink until either side ends, then tear down.
func (s *Session) Run() error {
	defer s.conn.Close()
	s.startedAt = time.Now()

	line, err := wire.ReadHandshakeLine(s.conn)
	if err != nil {
		return fmt.Errorf("bridge: %w", err)
	}
	h, err := wire.ParseHandshake(line)
	if err != nil {
		return fmt.Errorf("bridge: %w", err)
	}
	s.handshake = h
	s.format = frame.FormatForRate(h.SampleRate)

	selector := s.cfg.SelectPrompt
	if selector == nil {
		selector = DefaultPromptConfig
	}
	promptCfg := selector(h)

	s.downQueue = frame.NewQueue(frame.DefaultCapacity)
	s.reframer = reframer.New(s.format, s.downQueue, nil)
	s.bargeIn = &bargein.Flag{}

	registry := tools.NewRegistry(promptCfg.BuildTools(s.emitHangup)...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wsConn, err := s.cfg.Opener(ctx, h)
	if err != nil {
		return fmt.Errorf("bridge: open AI session: %w", err)
	}
	defer wsConn.Close()

	s.driver = aisession.NewDriver(wsConn, h.CallUUID, s.reframer, s.bargeIn, registry)
	if err := s.driver.SendSessionStart(promptCfg.Temperature, promptCfg.TopP, promptCfg.MaxTokens); err != nil {
		return fmt.Errorf("bridge: sessionStart: %w", err)
	}
	if err := s.driver.SendPromptStart(s.format.SampleRate, promptCfg.VoiceID); err != nil {
		return fmt.Errorf("bridge: promptStart: %w", err)
	}
	if err := s.driver.SendSystemPrompt(promptCfg.SystemPrompt); err != nil {
		return fmt.Errorf("bridge: system prompt: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	// The AI read loop blocks in ReadMessage and the uplink blocks in a raw
	// socket read; neither observes ctx on its own. Closing both connections
	// when the group context ends is what actually unblocks them, so the
	// first failing thread cascades to the other two instead of leaving
	// Wait stuck behind a healthy-looking blocked read.
	go func() {
		<-gctx.Done()
		wsConn.Close()
		s.conn.Close()
	}()

	g.Go(func() error {
		err := s.driver.ReadLoop(gctx)
		cancel()
		return err
	})
	g.Go(func() error {
		err := s.uplink(gctx)
		cancel()
		return err
	})
	g.Go(func() error {
		err := s.downlink(gctx)
		cancel()
		return err
	})

	err = g.Wait()
	s.downQueue.Close()
	s.reframer.Clear()

	reason := "normal clearing"
	if err != nil && !errors.Is(err, context.Canceled) {
		reason = err.Error()
	}
	s.endReason.Store(reason)
	s.finalize()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// finalize reports this call's CDR, if the caller configured one. It
// never affects call teardown: persistence happens after the call is
// already over.
func (s *Session) finalize() {
	if s.cfg.OnCallEnd == nil {
		return
	}
	reason, _ := s.endReason.Load().(string)
	s.cfg.OnCallEnd(cdr.Record{
		CallUUID:      s.handshake.CallUUID,
		Caller:        s.handshake.Caller,
		SampleRate:    s.format.SampleRate,
		StartedAt:     s.startedAt,
		EndedAt:       time.Now(),
		FramesIn:      s.framesIn.Load(),
		FramesOut:     s.framesOut.Load(),
		DroppedFrames: s.downQueue.Dropped(),
		BargeIns:      s.bargeIn.Count(),
		EndReason:     reason,
	})
}

// uplink reads exactly-F-byte frames from the edge socket and streams
// them to the AI provider as audioInput events.
func (s *Session) uplink(ctx context.Context) error {
	size := s.format.Size
	var contentName string

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		buf := make([]byte, size)
		if err := wire.ReadExactly(s.conn, buf); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("uplink: %w", err)
		}

		if contentName == "" {
			cn, err := s.driver.StartAudioContent(s.format.SampleRate)
			if err != nil {
				return fmt.Errorf("uplink: contentStart: %w", err)
			}
			contentName = cn
		}
		if err := s.driver.SendAudioInput(contentName, buf); err != nil {
			return fmt.Errorf("uplink: audioInput: %w", err)
		}
		s.framesIn.Add(1)
	}
}

// downlink paces frames out of the downstream queue back to the edge at
// 20ms, catching up by at most half a frame on a late write and never
// bursting.
func (s *Session) downlink(ctx context.Context) error {
	const tick = 20 * time.Millisecond
	next := time.Now().Add(tick)
	var lastUnderrunLog time.Time

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		waitStart := time.Now()
		f, ok := s.waitForFrame(ctx)
		if !ok {
			return nil // queue closed and drained: end of call
		}

		now := time.Now()
		if late := now.Sub(next); late > tick {
			if now.Sub(waitStart) >= late {
				// The queue sat idle past the deadline (a turn gap, or the
				// model thinking). Not an underrun: re-arm instead of
				// treating the gap as lateness to catch up through.
				next = now
			} else if now.Sub(lastUnderrunLog) > time.Second {
				// Deadline drifted more than one full frame behind while
				// frames were flowing. Soft: the catch-up clamp below
				// recovers; log at most once per second.
				log.Printf("[Bridge] downlink underrun on %s: %v behind", s.handshake.CallUUID, late)
				lastUnderrunLog = now
			}
		}
		if now.Before(next) {
			time.Sleep(next.Sub(now))
		}

		s.writeMu.Lock()
		err := wire.WriteAudioRecord(s.conn, f)
		s.writeMu.Unlock()
		if err != nil {
			return fmt.Errorf("downlink: %w", err)
		}
		s.framesOut.Add(1)

		now = time.Now()
		next = next.Add(tick)
		if next.Before(now.Add(tick / 2)) {
			next = now.Add(tick / 2)
		}
	}
}

// waitForFrame blocks in the downstream queue's Take, so it never
// busy-spins while the upstream is briefly empty, and returns promptly
// once a frame or end-of-stream is available or ctx is done.
func (s *Session) waitForFrame(ctx context.Context) (frame.Frame, bool) {
	type result struct {
		f  frame.Frame
		ok bool
	}
	done := make(chan result, 1)
	go func() {
		f, ok := s.downQueue.Take()
		done <- result{f, ok}
	}()

	select {
	case r := <-done:
		return r.f, r.ok
	case <-ctx.Done():
		return nil, false
	}
}

// emitHangup writes the {"type":"hangup"} control record and waits
// hangupSleep before returning, giving the edge time to act on the
// hangup before this session tears its own stream down. It is safe to
// call more than once; only the first call writes anything.
func (s *Session) emitHangup() {
	s.hangupOnce.Do(func() {
		s.writeMu.Lock()
		err := wire.WriteControlRecord(s.conn, wire.HangupControlPayload())
		s.writeMu.Unlock()
		if err != nil {
			log.Printf("[Bridge] hangup control write failed (edge may have already closed): %v", err)
			return
		}
		time.Sleep(hangupSleep)
	})
}
