package aisession

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/birddigital/nova-bridge/pkg/aisession/tools"
	"github.com/birddigital/nova-bridge/pkg/bargein"
	"github.com/birddigital/nova-bridge/pkg/reframer"
)

// pendingToolUse buffers a toolUse event's fields until the matching
// contentEnd{type=TOOL} arrives: a tool invocation is only actionable
// once its content segment closes.
type pendingToolUse struct {
	contentName string
	toolUseID   string
	toolName    string
	content     string
}

// Driver runs the bidirectional event-stream protocol against the AI
// provider over a gorilla/websocket connection. One Driver per call.
// Inbound dispatch happens on whatever goroutine ReadLoop runs on; it is
// the driver's job to keep that goroutine non-blocking past the registry
// handoff, so a slow tool can never stall the inbound audio stream.
type Driver struct {
	conn       *websocket.Conn
	writeMu    sync.Mutex
	promptName string

	reframer *reframer.Reframer
	bargeIn  *bargein.Flag
	registry *tools.Registry

	// contentSeq is advanced by the outbound senders (session setup, then
	// the uplink); pending and completionPrompt are touched only from the
	// ReadLoop goroutine.
	contentSeq       int
	pending          map[string]*pendingToolUse // keyed by contentName
	completionPrompt string                     // promptName of the current completion

	logf func(format string, args ...any)
}

// NewDriver wires a Driver around an already-dialed websocket connection.
func NewDriver(conn *websocket.Conn, promptName string, rf *reframer.Reframer, flag *bargein.Flag, registry *tools.Registry) *Driver {
	return &Driver{
		conn:       conn,
		promptName: promptName,
		reframer:   rf,
		bargeIn:    flag,
		registry:   registry,
		pending:    make(map[string]*pendingToolUse),
		logf:       log.Printf,
	}
}

func (d *Driver) nextContentName(prefix string) string {
	d.contentSeq++
	return prefix + "-" + d.promptName + "-" + strconv.Itoa(d.contentSeq)
}

func (d *Driver) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	return d.conn.WriteMessage(websocket.TextMessage, b)
}

// SendSessionStart emits the opening sessionStart event (step 1 of
// outbound production order).
func (d *Driver) SendSessionStart(temperature, topP float64, maxTokens int) error {
	return d.writeJSON(OutboundChunk{Event: OutboundEvent{SessionStart: &SessionStart{
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}}})
}

// SendPromptStart emits promptStart with the call's audio output
// configuration and the tool configuration built from the registry
// (step 2).
func (d *Driver) SendPromptStart(sampleRate int, voiceID string) error {
	specs := d.registry.Specs()
	toolSpecs := make([]ToolSpec, 0, len(specs))
	for _, s := range specs {
		toolSpecs = append(toolSpecs, ToolSpec{
			Name:        s.Name,
			Description: s.Description,
			InputSchema: s.InputSchema,
		})
	}

	ps := &PromptStart{
		PromptName: d.promptName,
		AudioOutputConfiguration: AudioOutputConfiguration{
			MediaType:  "audio/lpcm",
			SampleRate: sampleRate,
			SampleSize: 16,
			Channels:   1,
			VoiceID:    voiceID,
			Encoding:   "base64",
		},
		ToolConfiguration: ToolConfiguration{Tools: toolSpecs},
	}
	ps.TextOutputConfiguration.MediaType = "text/plain"
	return d.writeJSON(OutboundChunk{Event: OutboundEvent{PromptStart: ps}})
}

// SendSystemPrompt emits the initial textInput{role=SYSTEM} (step 3).
func (d *Driver) SendSystemPrompt(prompt string) error {
	return d.writeJSON(OutboundChunk{Event: OutboundEvent{TextInput: &TextInput{
		PromptName:  d.promptName,
		ContentName: d.nextContentName("sys"),
		Content:     prompt,
		Role:        RoleSystem,
	}}})
}

// StartAudioContent emits the contentStart{type=AUDIO, audioInputConfiguration}
// that must precede any audioInput on the uplink, and returns the
// contentName subsequent SendAudioInput calls must use.
func (d *Driver) StartAudioContent(sampleRate int) (string, error) {
	contentName := d.nextContentName("audio")
	err := d.writeJSON(OutboundChunk{Event: OutboundEvent{ContentStart: &ContentStart{
		PromptName:  d.promptName,
		ContentName: contentName,
		Type:        ContentTypeAudio,
		Role:        RoleUser,
		Interactive: true,
		AudioInputConfiguration: &AudioInputConfiguration{
			MediaType:  "audio/lpcm",
			SampleRate: sampleRate,
			SampleSize: 16,
			Channels:   1,
			Encoding:   "base64",
			AudioType:  "SPEECH",
		},
	}}})
	return contentName, err
}

// SendAudioInput streams one caller-originated PCM16 frame up to the
// provider as base64 (step 4, driven by the bridge's uplink thread).
func (d *Driver) SendAudioInput(contentName string, frame []byte) error {
	return d.writeJSON(OutboundChunk{Event: OutboundEvent{AudioInput: &AudioInput{
		PromptName:  d.promptName,
		ContentName: contentName,
		Content:     base64.StdEncoding.EncodeToString(frame),
		Role:        RoleUser,
	}}})
}

// SendToolResult reports a tool invocation's outcome back to the provider
// (step 5).
func (d *Driver) SendToolResult(contentName, toolUseID string, status ToolResultStatus, content string) error {
	return d.writeJSON(OutboundChunk{Event: OutboundEvent{ToolResult: &ToolResult{
		PromptName:  d.promptName,
		ContentName: contentName,
		ToolUseID:   toolUseID,
		Status:      status,
		Content:     content,
	}}})
}

// SendContentEnd closes an open content segment (step 6).
func (d *Driver) SendContentEnd(contentName string) error {
	return d.writeJSON(OutboundChunk{Event: OutboundEvent{ContentEnd: &ContentEnd{
		PromptName:  d.promptName,
		ContentName: contentName,
	}}})
}

// ReadLoop blocks reading inbound chunks and dispatching each one until
// the connection closes or ctx is done. It never returns a nil error on a
// clean close; callers treat any return as "the AI stream ended."
func (d *Driver) ReadLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, data, err := d.conn.ReadMessage()
		if err != nil {
			return err
		}
		var chunk InboundChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			d.logf("[AISession] ignoring malformed chunk: %v", err)
			continue
		}
		d.dispatch(chunk.Event)
	}
}

// dispatch matches over the closed set of inbound event variants. Exactly
// one field of ev is non-nil per well-formed chunk; anything else falls
// through to the unrecognized-event log line.
func (d *Driver) dispatch(ev InboundEvent) {
	switch {
	case ev.CompletionStart != nil:
		d.completionPrompt = ev.CompletionStart.PromptName
		d.bargeIn.Clear()

	case ev.ContentStart != nil:
		if ev.ContentStart.Role == RoleAssistant || ev.ContentStart.Role == RoleUser {
			d.bargeIn.Clear()
		}

	case ev.TextOutput != nil:
		d.logf("[AISession] assistant text: %s", ev.TextOutput.Content)
		if strings.Contains(ev.TextOutput.Content, `"interrupted" : true`) ||
			strings.Contains(ev.TextOutput.Content, `"interrupted":true`) {
			d.bargeIn.Set(time.Now(), d.reframer)
		}

	case ev.AudioOutput != nil:
		if d.bargeIn.IsSet(time.Now()) {
			return
		}
		pcm, err := base64.StdEncoding.DecodeString(ev.AudioOutput.Content)
		if err != nil {
			d.logf("[AISession] dropping undecodable audioOutput: %v", err)
			return
		}
		if len(pcm)%2 != 0 {
			pcm = pcm[:len(pcm)-1]
		}
		d.reframer.Append(pcm)

	case ev.ToolUse != nil:
		d.noteToolUse(ev.ToolUse)

	case ev.ContentEnd != nil:
		d.handleContentEnd(ev.ContentEnd)

	case ev.CompletionEnd != nil:
		// Informational: nothing else in the core keys off completionEnd.

	case ev.UserInterrupt != nil:
		d.bargeIn.Set(time.Now(), d.reframer)

	case ev.UsageEvent != nil:
		d.logf("[AISession] usage: in=%d out=%d", ev.UsageEvent.InputTokens, ev.UsageEvent.OutputTokens)

	default:
		d.logf("[AISession] ignoring unrecognized event chunk")
	}
}

func (d *Driver) handleContentEnd(ce *ContentEnd) {
	if strings.Contains(strings.ToUpper(ce.StopReason), "INTERRUPT") {
		d.bargeIn.Set(time.Now(), d.reframer)
		return
	}

	if ce.Type == ContentTypeTool {
		d.finishToolUse(ce.ContentName)
		return
	}

	if ce.Role == RoleAssistant {
		d.reframer.EndOfTurn()
	}
}

// noteToolUse buffers a toolUse event pending its closing contentEnd.
func (d *Driver) noteToolUse(ev *ToolUse) {
	d.pending[ev.ContentName] = &pendingToolUse{
		contentName: ev.ContentName,
		toolUseID:   ev.ToolUseID,
		toolName:    ev.ToolName,
		content:     ev.Content,
	}
}

func (d *Driver) finishToolUse(contentName string) {
	pu, ok := d.pending[contentName]
	if !ok {
		return
	}
	delete(d.pending, contentName)

	d.registry.InvokeAsync(context.Background(), pu.toolName, pu.toolUseID, pu.content, func(res tools.Result) {
		status := ToolResultSuccess
		content := res.Content
		if res.Err != nil {
			status = ToolResultError
			content = res.Err.Error()
		} else if res.Status != "" {
			status = ToolResultStatus(res.Status)
		}
		if err := d.SendToolResult(pu.contentName, pu.toolUseID, status, content); err != nil {
			d.logf("[AISession] failed to send toolResult for %s: %v", pu.toolName, err)
			return
		}
		if err := d.SendContentEnd(pu.contentName); err != nil {
			d.logf("[AISession] failed to close tool content segment for %s: %v", pu.toolName, err)
		}
	})
}
