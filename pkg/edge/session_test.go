package edge

import (
	"bufio"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birddigital/nova-bridge/pkg/frame"
	"github.com/birddigital/nova-bridge/pkg/wire"
)

type fakeHost struct {
	mu          sync.Mutex
	answered    bool
	writeCodec  string
	writes      [][]byte
	writeErr    error
	hangupCause string
}

func (h *fakeHost) Answer() error              { h.answered = true; return nil }
func (h *fakeHost) ReadMedia() ([]byte, error) { return nil, nil }
func (h *fakeHost) WriteMedia(codecName string, payload []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.writeErr != nil {
		return h.writeErr
	}
	h.writes = append(h.writes, payload)
	return nil
}
func (h *fakeHost) WriteCodec() string { return h.writeCodec }
func (h *fakeHost) Hangup(cause string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hangupCause = cause
	return nil
}

func dialPair(t *testing.T) (client net.Conn, server net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	serverCh := make(chan net.Conn, 1)
	go func() {
		c, _ := ln.Accept()
		serverCh <- c
	}()

	client, err = net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	server = <-serverCh
	return client, server
}

func TestSession_HandleInboundClassifiesAndLatches(t *testing.T) {
	client, server := dialPair(t)
	defer client.Close()
	defer server.Close()

	host := &fakeHost{}
	s := &Session{host: host, conn: client, format: frame.Format8k, down: frame.NewQueue(4)}
	s.state.Store(int32(StateWaitingMedia))

	comfortNoise := make([]byte, 2)
	s.handleInbound(comfortNoise)
	assert.False(t, s.mediaReady.Load(), "short comfort-noise payload must not latch media_ready")

	realAudio := make([]byte, RealAudioMinLen)
	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, frame.Format8k.Size)
		server.SetReadDeadline(time.Now().Add(time.Second))
		n, _ := server.Read(buf)
		done <- buf[:n]
	}()

	s.handleInbound(realAudio)
	assert.True(t, s.mediaReady.Load())
	assert.Equal(t, StateActive, s.State())

	select {
	case got := <-done:
		assert.Len(t, got, frame.Format8k.Size, "decoded mu-law must be written as a full PCM16 frame")
	case <-time.After(time.Second):
		t.Fatal("decoded PCM16 was never written to the bridge socket")
	}
}

func TestSession_MaybeWriteDownstreamRequiresMediaReadyAndWriteCodec(t *testing.T) {
	host := &fakeHost{}
	s := &Session{host: host, format: frame.Format8k, down: frame.NewQueue(4)}
	s.down.Push(frame.Format8k.Silence())

	s.maybeWriteDownstream()
	assert.Empty(t, host.writes, "must not write before media_ready")

	s.mediaReady.Store(true)
	s.maybeWriteDownstream()
	assert.Empty(t, host.writes, "must not write before a write codec is known")

	host.writeCodec = "PCMU"
	s.maybeWriteDownstream()
	require.Len(t, host.writes, 1)
	assert.Len(t, host.writes[0], frame.Format8k.Size/2, "telephony payload must be mu-law, half the PCM16 size")
}

func TestSession_DownstreamReceiveLoopEnqueuesAudioAndHandlesHangup(t *testing.T) {
	client, server := dialPair(t)
	defer client.Close()
	defer server.Close()

	host := &fakeHost{}
	s := &Session{host: host, conn: client, format: frame.Format8k, down: frame.NewQueue(4)}
	s.running.Store(true)
	s.wg.Add(1)
	go s.downstreamReceiveLoop()

	require.NoError(t, wire.WriteAudioRecord(server, frame.Format8k.Silence()))
	require.Eventually(t, func() bool { return s.down.Len() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, wire.WriteControlRecord(server, wire.HangupControlPayload()))
	require.Eventually(t, func() bool {
		host.mu.Lock()
		defer host.mu.Unlock()
		return host.hangupCause != ""
	}, time.Second, 5*time.Millisecond)

	s.wg.Wait()
}

func TestSession_DialSendsWellFormedHandshake(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	lineCh := make(chan string, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		r := bufio.NewReader(c)
		line, _ := r.ReadString('\n')
		lineCh <- line
	}()

	host := &fakeHost{}
	sess, err := Dial(ln.Addr().String(), host, "call-42", "+15550001", frame.Format8k)
	require.NoError(t, err)
	defer sess.conn.Close()

	select {
	case line := <-lineCh:
		assert.Contains(t, line, `"call_uuid":"call-42"`)
		assert.Contains(t, line, `"caller":"+15550001"`)
		assert.Contains(t, line, `"sample_rate":8000`)
	case <-time.After(time.Second):
		t.Fatal("handshake was never received")
	}
	assert.True(t, host.answered)
}
