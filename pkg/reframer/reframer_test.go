package reframer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birddigital/nova-bridge/pkg/frame"
)

func TestReframer_AppendExactMultipleEmitsFrames(t *testing.T) {
	q := frame.NewQueue(10)
	r := New(frame.Format8k, q, nil)

	r.Append(make([]byte, frame.Format8k.Size*3))

	assert.Equal(t, 3, q.Len())
	assert.Equal(t, 0, r.Pending())
}

func TestReframer_AppendAccumulatesAcrossCalls(t *testing.T) {
	q := frame.NewQueue(10)
	r := New(frame.Format8k, q, nil)

	half := frame.Format8k.Size / 2
	r.Append(make([]byte, half))
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, half, r.Pending())

	r.Append(make([]byte, half))
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, 0, r.Pending())
}

func TestReframer_EndOfTurnPadsPartialAndAddsSilence(t *testing.T) {
	q := frame.NewQueue(10)
	r := New(frame.Format8k, q, nil)

	partial := frame.Format8k.Size / 3
	r.Append(bytes.Repeat([]byte{0xAB}, partial))
	r.EndOfTurn()

	require.Equal(t, 2, q.Len())

	padded, ok := q.Take()
	require.True(t, ok)
	require.Len(t, padded, frame.Format8k.Size)
	assert.Equal(t, byte(0xAB), padded[0])
	for _, b := range padded[partial:] {
		assert.Equal(t, byte(0), b, "padding region must be zero")
	}

	silence, ok := q.Take()
	require.True(t, ok)
	assert.Equal(t, frame.Format8k.Silence(), silence)

	assert.Equal(t, 0, r.Pending())
}

func TestReframer_EndOfTurnWithNoResidueStillEmitsSilence(t *testing.T) {
	q := frame.NewQueue(10)
	r := New(frame.Format8k, q, nil)

	r.Append(make([]byte, frame.Format8k.Size))
	r.EndOfTurn()

	require.Equal(t, 2, q.Len())
	_, ok := q.Take()
	require.True(t, ok)

	silence, ok := q.Take()
	require.True(t, ok)
	assert.Equal(t, frame.Format8k.Silence(), silence)
}

func TestReframer_ClearDiscardsResidue(t *testing.T) {
	q := frame.NewQueue(10)
	r := New(frame.Format8k, q, nil)

	r.Append(make([]byte, frame.Format8k.Size/2))
	r.Clear()
	assert.Equal(t, 0, r.Pending())

	r.Append(make([]byte, frame.Format8k.Size/2))
	assert.Equal(t, 0, q.Len(), "cleared residue must not resurface in a later frame")
}

func TestReframer_TapReceivesEveryEmittedFrame(t *testing.T) {
	q := frame.NewQueue(10)
	var tap bytes.Buffer
	r := New(frame.Format8k, q, &tap)

	r.Append(make([]byte, frame.Format8k.Size*2))
	assert.Equal(t, frame.Format8k.Size*2, tap.Len())
}
