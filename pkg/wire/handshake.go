// Package wire implements the edge<->bridge TCP framing: a one-shot
// newline-terminated handshake followed by exact-size binary frames in one
// direction and tagged records in the other. It deliberately never touches
// a buffered/line-oriented reader on this socket; see ReadHandshakeLine.
package wire

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Handshake is the parsed Session State seed carried in the first line of
// the connection, in either its JSON or legacy colon-delimited form.
type Handshake struct {
	CallUUID   string
	Caller     string
	SampleRate int
	Channels   int
	Format     string
}

// DefaultHandshake returns the values used for any field missing from
// the wire form: sample_rate=8000, channels=1, format=PCM16,
// caller="Unknown", and a freshly generated call UUID.
func DefaultHandshake() Handshake {
	return Handshake{
		CallUUID:   uuid.NewString(),
		Caller:     "Unknown",
		SampleRate: 8000,
		Channels:   1,
		Format:     "PCM16",
	}
}

// ReadHandshakeLine reads byte-by-byte from r until a single '\n', never
// using a bufio.Reader or any other reader that could pre-read bytes past
// the boundary. This is the one safeguard against the over-read bug: the
// byte immediately following '\n' is the first byte of the first audio
// frame, and it must still be sitting unread in the underlying stream
// when this function returns.
func ReadHandshakeLine(r io.Reader) ([]byte, error) {
	var line []byte
	one := make([]byte, 1)
	for {
		n, err := r.Read(one)
		if n == 1 {
			if one[0] == '\n' {
				return line, nil
			}
			line = append(line, one[0])
		}
		if err != nil {
			if err == io.EOF && len(line) > 0 {
				return nil, fmt.Errorf("%w: handshake truncated before newline", ErrProtocolFraming)
			}
			return nil, err
		}
	}
}

// ParseHandshake accepts either a JSON object (starting with '{') or the
// legacy colon-delimited record, and fills in defaults for any field the
// wire form omits.
func ParseHandshake(line []byte) (Handshake, error) {
	trimmed := strings.TrimSpace(string(line))
	if trimmed == "" {
		return Handshake{}, fmt.Errorf("%w: empty handshake", ErrProtocolFraming)
	}
	if strings.HasPrefix(trimmed, "{") {
		return parseJSONHandshake(trimmed)
	}
	return parseLegacyHandshake(trimmed)
}

type jsonHandshake struct {
	CallUUID   string `json:"call_uuid"`
	Caller     string `json:"caller"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Format     string `json:"format"`
}

func parseJSONHandshake(s string) (Handshake, error) {
	var jh jsonHandshake
	if err := json.Unmarshal([]byte(s), &jh); err != nil {
		return Handshake{}, fmt.Errorf("%w: invalid handshake json: %v", ErrProtocolFraming, err)
	}
	h := DefaultHandshake()
	if jh.CallUUID != "" {
		h.CallUUID = jh.CallUUID
	}
	if jh.Caller != "" {
		h.Caller = jh.Caller
	}
	if jh.SampleRate != 0 {
		h.SampleRate = jh.SampleRate
	}
	if jh.Channels != 0 {
		h.Channels = jh.Channels
	}
	if jh.Format != "" {
		h.Format = jh.Format
	}
	return h, nil
}

// parseLegacyHandshake parses NOVA_SESSION:<uuid>:CALLER:<caller>[:SR:<n>:CH:<n>:FORMAT:<s>]
func parseLegacyHandshake(s string) (Handshake, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 4 || parts[0] != "NOVA_SESSION" || parts[2] != "CALLER" {
		return Handshake{}, fmt.Errorf("%w: unrecognized legacy handshake", ErrProtocolFraming)
	}
	h := DefaultHandshake()
	h.CallUUID = parts[1]
	h.Caller = parts[3]

	kv := parts[4:]
	for i := 0; i+1 < len(kv); i += 2 {
		key, val := kv[i], kv[i+1]
		switch key {
		case "SR":
			if n, err := strconv.Atoi(val); err == nil {
				h.SampleRate = n
			}
		case "CH":
			if n, err := strconv.Atoi(val); err == nil {
				h.Channels = n
			}
		case "FORMAT":
			h.Format = val
		}
	}
	return h, nil
}
