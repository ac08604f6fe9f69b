package wire

import (
	"fmt"
	"io"
)

// ReadExactly reads exactly len(buf) bytes from r, looping on short reads.
// A zero-byte read at a frame boundary (io.EOF with no bytes yet consumed
// into buf) is reported as io.EOF; a short read followed by EOF mid-frame
// is reported as io.ErrUnexpectedEOF, matching io.ReadFull's contract.
func ReadExactly(r io.Reader, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	return err
}

// Record tags on the bridge -> edge wire.
const (
	TagAudio   byte = 0x01
	TagControl byte = 0x02
)

// MaxControlPayload is the exclusive upper bound on a control record's
// declared length; a declared length at or above it is a framing error,
// not a large message to read.
const MaxControlPayload = 1024

// ReadTag reads the single leading tag byte of the next bridge->edge
// record.
func ReadTag(r io.Reader) (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadControlPayload reads the 4-byte big-endian length prefix and then
// the declared number of JSON bytes that follow a 0x02 tag. It rejects a
// declared length at or above MaxControlPayload before attempting to read
// the body, so a corrupt length field cannot force an unbounded read.
func ReadControlPayload(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := uint32(lenBuf[0])<<24 | uint32(lenBuf[1])<<16 | uint32(lenBuf[2])<<8 | uint32(lenBuf[3])
	if n >= MaxControlPayload {
		return nil, fmt.Errorf("%w: control length %d exceeds maximum", ErrProtocolFraming, n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// WriteAudioRecord writes one 0x01-tagged audio record: the tag byte
// followed by exactly len(frame) PCM16 bytes.
func WriteAudioRecord(w io.Writer, frame []byte) error {
	if _, err := w.Write([]byte{TagAudio}); err != nil {
		return err
	}
	_, err := w.Write(frame)
	return err
}

// WriteControlRecord writes one 0x02-tagged control record: the tag byte,
// a 4-byte big-endian length, then the payload bytes. It rejects payloads
// at or above MaxControlPayload.
func WriteControlRecord(w io.Writer, payload []byte) error {
	if len(payload) >= MaxControlPayload {
		return fmt.Errorf("%w: control payload of %d bytes exceeds maximum", ErrProtocolFraming, len(payload))
	}
	n := uint32(len(payload))
	header := []byte{
		TagControl,
		byte(n >> 24),
		byte(n >> 16),
		byte(n >> 8),
		byte(n),
	}
	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
