package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHangupSpec_AcknowledgesImmediatelyAndDefersEmit(t *testing.T) {
	emitted := make(chan struct{})
	spec := NewHangupSpec(func() { close(emitted) })

	start := time.Now()
	res := spec.Handle(context.Background(), "tu1", "")
	elapsed := time.Since(start)

	require.NoError(t, res.Err)
	assert.Equal(t, "acknowledged", res.Content)
	assert.Equal(t, "acknowledged", res.Status)
	assert.Less(t, elapsed, HangupDelay, "handler must return before the deferred emit fires")

	select {
	case <-emitted:
		t.Fatal("hangup emitted too early")
	case <-time.After(50 * time.Millisecond):
	}

	select {
	case <-emitted:
	case <-time.After(HangupDelay + time.Second):
		t.Fatal("hangup was never emitted")
	}
}
