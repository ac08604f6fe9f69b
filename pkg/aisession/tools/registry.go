// Package tools implements the compile-time tool registry the AI session
// driver invokes by name. Tools are registered once at startup via a small
// builder, never discovered through reflection, so the set a given call
// can invoke is closed before the call begins.
package tools

import (
	"context"
	"fmt"
	"sync"
)

// Result is what a Handler produces for one invocation. Content is a short
// human- or model-readable summary serialized back to the provider as a
// toolResult event; Err, if non-nil, marks the invocation as failed
// without ever crashing the audio path (a tool failure is never fatal to
// the call). Status, when set, overrides the default success/error status
// the session reports; the hangup tool uses it to report "acknowledged"
// rather than claiming the hangup already happened.
type Result struct {
	Content string
	Status  string
	Err     error
}

// Handler receives a tool invocation's opaque content payload and the
// toolUseId it must be correlated back against. Handlers must not block
// the event receive path: long-running work belongs on its own goroutine,
// posting its Result back through the callback passed to InvokeAsync.
type Handler func(ctx context.Context, toolUseID, content string) Result

// Spec names one registered tool: its invocation name, a description and
// JSON-Schema input shape suitable for advertising in promptStart, and
// the Handler that runs it.
type Spec struct {
	Name        string
	Description string
	InputSchema string
	Handle      Handler
}

// Registry is a closed, name-keyed set of tools built once at call start.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]Spec
}

// NewRegistry builds a Registry from a fixed set of Specs. Call-start
// configuration (selected by caller/called identity) decides which Specs
// to pass in; the registry itself never mutates after construction.
func NewRegistry(specs ...Spec) *Registry {
	r := &Registry{specs: make(map[string]Spec, len(specs))}
	for _, s := range specs {
		r.specs[s.Name] = s
	}
	return r
}

// Lookup returns the Spec registered under name, if any.
func (r *Registry) Lookup(name string) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specs[name]
	return s, ok
}

// Specs returns every registered Spec, in no particular order, for
// building the tool configuration advertised at promptStart.
func (r *Registry) Specs() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Spec, 0, len(r.specs))
	for _, s := range r.specs {
		out = append(out, s)
	}
	return out
}

// InvokeAsync runs the named tool's Handler on its own goroutine and
// delivers the Result to onDone once it completes. A lookup miss is
// delivered synchronously as a Result with Err set, never panicking the
// caller.
func (r *Registry) InvokeAsync(ctx context.Context, name, toolUseID, content string, onDone func(Result)) {
	spec, ok := r.Lookup(name)
	if !ok {
		onDone(Result{Err: fmt.Errorf("tools: no handler registered for %q", name)})
		return
	}
	go func() {
		onDone(spec.Handle(ctx, toolUseID, content))
	}()
}
