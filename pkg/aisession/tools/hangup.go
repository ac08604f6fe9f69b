package tools

import (
	"context"
	"time"
)

// HangupDelay is the deferred window between acknowledging the hangup
// tool and actually emitting the hangup control message, giving the
// assistant time to finish a goodbye utterance before the edge tears the
// call down.
const HangupDelay = 3 * time.Second

// HangupToolName is the invocation name the prompt configuration must use
// to reach NewHangupSpec's handler.
const HangupToolName = "hangupTool"

// NewHangupSpec builds the dedicated hangup tool. emitHangup is called
// once, after HangupDelay, from its own timer goroutine; it is expected
// to be the bridge session's control-emission hook, writing the
// 0x02-tagged {"type":"hangup"} record. The handler itself returns
// immediately with an "acknowledged" result so the receive path is never
// blocked by the deferred action.
func NewHangupSpec(emitHangup func()) Spec {
	return Spec{
		Name:        HangupToolName,
		Description: "Ends the phone call. Use this once the conversation has reached a natural close.",
		InputSchema: `{"type":"object","properties":{},"additionalProperties":false}`,
		Handle: func(ctx context.Context, toolUseID, content string) Result {
			time.AfterFunc(HangupDelay, emitHangup)
			return Result{Content: "acknowledged", Status: "acknowledged"}
		},
	}
}
