package tools

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_LookupAndSpecs(t *testing.T) {
	echo := Spec{Name: "echo", Handle: func(ctx context.Context, id, content string) Result {
		return Result{Content: content}
	}}
	r := NewRegistry(echo)

	got, ok := r.Lookup("echo")
	require.True(t, ok)
	assert.Equal(t, "echo", got.Name)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)

	assert.Len(t, r.Specs(), 1)
}

func TestRegistry_InvokeAsyncRunsOffReceivePath(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	slow := Spec{Name: "slow", Handle: func(ctx context.Context, id, content string) Result {
		close(started)
		<-release
		return Result{Content: "done"}
	}}
	r := NewRegistry(slow)

	var mu sync.Mutex
	var got Result
	done := make(chan struct{})
	r.InvokeAsync(context.Background(), "slow", "id1", "", func(res Result) {
		mu.Lock()
		got = res
		mu.Unlock()
		close(done)
	})

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("handler never started")
	}
	// InvokeAsync must have returned control to the caller already.
	close(release)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "done", got.Content)
}

func TestRegistry_InvokeAsyncUnknownToolReturnsError(t *testing.T) {
	r := NewRegistry()
	done := make(chan Result, 1)
	r.InvokeAsync(context.Background(), "nope", "id1", "", func(res Result) {
		done <- res
	})
	res := <-done
	assert.Error(t, res.Err)
}
