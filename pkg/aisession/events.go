// Package aisession drives the bidirectional event-stream protocol against
// the remote speech-to-speech provider: it assembles outbound session/audio
// events, dispatches inbound events as a closed tagged union, and wires
// that dispatch into the barge-in flag (pkg/bargein) and the PCM reframer
// (pkg/reframer).
package aisession

// Role is the speaker role carried on content-bearing events.
type Role string

const (
	RoleAssistant Role = "ASSISTANT"
	RoleUser      Role = "USER"
	RoleSystem    Role = "SYSTEM"
	RoleTool      Role = "TOOL"
)

// ContentType distinguishes an AUDIO content segment from a TOOL one.
type ContentType string

const (
	ContentTypeAudio ContentType = "AUDIO"
	ContentTypeTool  ContentType = "TOOL"
)

// InboundChunk is one decoded event-stream chunk from the provider: a
// single JSON object with an "event" property holding exactly one of the
// variants below. Exactly one field of InboundEvent is non-nil per chunk;
// dispatch (driver.go) matches over this closed set rather than using
// dynamic handler dispatch.
type InboundChunk struct {
	Event InboundEvent `json:"event"`
}

// InboundEvent is the tagged union of everything the provider can send.
type InboundEvent struct {
	CompletionStart *CompletionStart `json:"completionStart,omitempty"`
	ContentStart    *ContentStart    `json:"contentStart,omitempty"`
	TextOutput      *TextOutput      `json:"textOutput,omitempty"`
	AudioOutput     *AudioOutput     `json:"audioOutput,omitempty"`
	ToolUse         *ToolUse         `json:"toolUse,omitempty"`
	ContentEnd      *ContentEnd      `json:"contentEnd,omitempty"`
	CompletionEnd   *CompletionEnd   `json:"completionEnd,omitempty"`
	UserInterrupt   *UserInterrupt   `json:"userInterrupt,omitempty"`
	UsageEvent      *UsageEvent      `json:"usageEvent,omitempty"`
}

type CompletionStart struct {
	PromptName string `json:"promptName"`
}

type ContentStart struct {
	PromptName              string                   `json:"promptName"`
	ContentName             string                   `json:"contentName"`
	Type                    ContentType              `json:"type"`
	Role                    Role                     `json:"role"`
	Interactive             bool                     `json:"interactive,omitempty"`
	AudioInputConfiguration *AudioInputConfiguration `json:"audioInputConfiguration,omitempty"`
	AdditionalField         string                   `json:"additionalModelFields,omitempty"`
}

type TextOutput struct {
	PromptName  string `json:"promptName"`
	ContentName string `json:"contentName"`
	Content     string `json:"content"`
	Role        Role   `json:"role"`
}

type AudioOutput struct {
	PromptName  string `json:"promptName"`
	ContentName string `json:"contentName"`
	Content     string `json:"content"` // base64 PCM16
	Role        Role   `json:"role"`
}

type ToolUse struct {
	PromptName  string `json:"promptName"`
	ContentName string `json:"contentName"`
	ToolUseID   string `json:"toolUseId"`
	ToolName    string `json:"toolName"`
	Content     string `json:"content"`
}

type ContentEnd struct {
	PromptName  string      `json:"promptName"`
	ContentName string      `json:"contentName"`
	Type        ContentType `json:"type,omitempty"`
	Role        Role        `json:"role,omitempty"`
	StopReason  string      `json:"stopReason,omitempty"`
}

type CompletionEnd struct {
	PromptName string `json:"promptName"`
	StopReason string `json:"stopReason"`
}

type UserInterrupt struct {
	PromptName string `json:"promptName"`
}

type UsageEvent struct {
	PromptName   string `json:"promptName"`
	InputTokens  int    `json:"inputTokens"`
	OutputTokens int    `json:"outputTokens"`
}
