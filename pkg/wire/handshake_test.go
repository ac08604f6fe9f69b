package wire

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadHandshakeLine_StopsAtNewlineNoOverRead(t *testing.T) {
	// Scenario 6: handshake and 320 bytes of audio arrive in the same
	// segment. The handshake reader must stop exactly at '\n' and leave
	// every subsequent byte untouched for the next reader.
	audio := bytes.Repeat([]byte{0xAB, 0xCD}, 160)
	input := append([]byte(`{"call_uuid":"C6"}`+"\n"), audio...)
	r := bytes.NewReader(input)

	line, err := ReadHandshakeLine(r)
	require.NoError(t, err)
	assert.Equal(t, `{"call_uuid":"C6"}`, string(line))

	rest := make([]byte, len(audio))
	require.NoError(t, ReadExactly(r, rest))
	assert.Equal(t, audio, rest)
}

func TestParseHandshake_JSONFillsDefaults(t *testing.T) {
	h, err := ParseHandshake([]byte(`{"call_uuid":"C1"}`))
	require.NoError(t, err)
	assert.Equal(t, "C1", h.CallUUID)
	assert.Equal(t, "Unknown", h.Caller)
	assert.Equal(t, 8000, h.SampleRate)
	assert.Equal(t, 1, h.Channels)
	assert.Equal(t, "PCM16", h.Format)
}

func TestParseHandshake_JSONFullySpecified(t *testing.T) {
	h, err := ParseHandshake([]byte(`{"call_uuid":"C1","caller":"+15550001","sample_rate":8000,"channels":1,"format":"PCM16"}`))
	require.NoError(t, err)
	assert.Equal(t, Handshake{
		CallUUID: "C1", Caller: "+15550001", SampleRate: 8000, Channels: 1, Format: "PCM16",
	}, h)
}

func TestParseHandshake_LegacyForm(t *testing.T) {
	h, err := ParseHandshake([]byte("NOVA_SESSION:abc-123:CALLER:+14435383548:SR:8000:CH:1:FORMAT:PCM16"))
	require.NoError(t, err)
	assert.Equal(t, Handshake{
		CallUUID: "abc-123", Caller: "+14435383548", SampleRate: 8000, Channels: 1, Format: "PCM16",
	}, h)
}

func TestParseHandshake_LegacyAndJSONAgree(t *testing.T) {
	legacy, err := ParseHandshake([]byte("NOVA_SESSION:abc-123:CALLER:+14435383548:SR:8000:CH:1:FORMAT:PCM16"))
	require.NoError(t, err)

	jsonForm, err := ParseHandshake([]byte(`{"call_uuid":"abc-123","caller":"+14435383548","sample_rate":8000,"channels":1,"format":"PCM16"}`))
	require.NoError(t, err)

	assert.Equal(t, legacy, jsonForm)
}

func TestParseHandshake_LegacyMinimalUsesDefaults(t *testing.T) {
	h, err := ParseHandshake([]byte("NOVA_SESSION:abc-123:CALLER:+14435383548"))
	require.NoError(t, err)
	assert.Equal(t, 8000, h.SampleRate)
	assert.Equal(t, 1, h.Channels)
	assert.Equal(t, "PCM16", h.Format)
}

func TestParseHandshake_RejectsGarbage(t *testing.T) {
	_, err := ParseHandshake([]byte("not a handshake at all"))
	assert.ErrorIs(t, err, ErrProtocolFraming)
}

func TestParseHandshake_RejectsEmpty(t *testing.T) {
	_, err := ParseHandshake([]byte(""))
	assert.ErrorIs(t, err, ErrProtocolFraming)
}

func TestReadHandshakeLine_EOFOnEmptyStream(t *testing.T) {
	_, err := ReadHandshakeLine(strings.NewReader(""))
	assert.ErrorIs(t, err, io.EOF)
}
