package bridge

import (
	"context"

	"github.com/gorilla/websocket"

	"github.com/birddigital/nova-bridge/pkg/aisession/tools"
	"github.com/birddigital/nova-bridge/pkg/cdr"
	"github.com/birddigital/nova-bridge/pkg/wire"
)

// Finalizer is called once per call, after both audio threads have
// joined, with that call's completed record. Persistence failures here
// must never be allowed to affect an in-progress call; by the time this
// runs, the call is already over.
type Finalizer func(cdr.Record)

// AIOpener dials the bidirectional event-stream connection to the AI
// provider for one call's handshake.
type AIOpener func(ctx context.Context, h wire.Handshake) (*websocket.Conn, error)

// PromptConfig is the per-call configuration selected by caller/called
// identity at session start: the system prompt, voice, sampling
// parameters, and the finite set of tools this call may invoke.
type PromptConfig struct {
	SystemPrompt string
	VoiceID      string
	Temperature  float64
	TopP         float64
	MaxTokens    int

	// BuildTools returns this call's tool set. emitHangup is the bridge's
	// own control-emission hook, bound in so a hangup-tool handler (if
	// the selected config includes one) can reach it without any
	// process-wide callback slot.
	BuildTools func(emitHangup func()) []tools.Spec
}

// PromptSelector resolves a PromptConfig from the handshake's caller
// identity (and, in a fuller deployment, the called number the softswitch
// would also supply).
type PromptSelector func(h wire.Handshake) PromptConfig

// SessionConfig bundles everything a Session needs beyond the accepted
// socket: how to reach the AI provider and how to pick this call's prompt
// configuration.
type SessionConfig struct {
	Opener       AIOpener
	SelectPrompt PromptSelector

	// OnCallEnd, if set, receives this call's CDR once the session has
	// fully torn down. Optional: CDR persistence is peripheral to the
	// audio path.
	OnCallEnd Finalizer
}

// DefaultPromptConfig is used when no SelectPrompt is supplied; it wires
// in only the hangup tool, the one tool every deployment carries.
func DefaultPromptConfig(h wire.Handshake) PromptConfig {
	return PromptConfig{
		SystemPrompt: "You are a helpful phone assistant.",
		VoiceID:      "default",
		Temperature:  0.7,
		TopP:         0.9,
		MaxTokens:    1024,
		BuildTools: func(emitHangup func()) []tools.Spec {
			return []tools.Spec{tools.NewHangupSpec(emitHangup)}
		},
	}
}
